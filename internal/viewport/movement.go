package viewport

import (
	"log"

	"github.com/Helioviewer-Project/helioviewer.org-sub000/internal/common"
)

// MovementHelper turns drags and nudges into moving-container motion and
// derives the region of interest. Position writes go through the
// SandboxHelper.
type MovementHelper struct {
	state   *ViewportState
	sandbox *SandboxHelper

	// throttle is the number of mouse moves between tile visibility
	// refreshes; on-screen motion is never throttled
	throttle  int
	moveCount int

	dragging      bool
	startMouse    Point
	startPosition Point
	devMode       bool
}

// NewMovementHelper creates a movement helper. throttle < 1 is treated as 1.
func NewMovementHelper(state *ViewportState, sandbox *SandboxHelper, throttle int) *MovementHelper {
	return &MovementHelper{
		state:    state,
		sandbox:  sandbox,
		throttle: max(1, throttle),
	}
}

// Dragging reports whether a drag is in progress
func (m *MovementHelper) Dragging() bool {
	return m.dragging
}

// MouseDown starts a drag at screen point (x, y)
func (m *MovementHelper) MouseDown(x, y float64) {
	m.dragging = true
	m.moveCount = 0
	m.startMouse = Point{x, y}
	m.startPosition = m.state.Position
}

// MouseMove drags the container to follow the pointer. It returns true
// when tile visibility should be refreshed.
func (m *MovementHelper) MouseMove(x, y float64) bool {
	if !m.dragging {
		return false
	}
	m.moveBy(m.startMouse.Left-x, m.startMouse.Top-y)

	m.moveCount++
	return m.moveCount%m.throttle == 0
}

// MouseUp ends the drag. It returns true if a drag was in progress.
func (m *MovementHelper) MouseUp() bool {
	if !m.dragging {
		return false
	}
	m.dragging = false
	return true
}

// moveBy positions the container at the drag start position minus delta
func (m *MovementHelper) moveBy(dx, dy float64) {
	if !m.state.Sandbox.HasArea() {
		return
	}
	m.sandbox.MoveContainerTo(m.startPosition.Sub(Point{dx, dy}))
}

// MoveViewport nudges the viewport by (dx, dy) screen pixels, bracketed
// like a one-step drag. Positive values reveal content to the right and
// below.
func (m *MovementHelper) MoveViewport(dx, dy float64) {
	m.MouseDown(0, 0)
	m.moveBy(dx, dy)
	m.MouseUp()
}

// GetViewportCoords returns the viewport edges relative to the solar center
func (m *MovementHelper) GetViewportCoords() common.ViewportCoords {
	return m.state.ViewportCoords()
}

// ZoomTo switches from oldScale to newScale (arcsec/px): the stored layer
// footprint is rescaled, the sandbox recomputed, and the container moved
// so that the physical point at the viewport center stays centered.
func (m *MovementHelper) ZoomTo(oldScale, newScale float64) {
	s := m.state
	ratio := oldScale / newScale

	center := s.ViewportCenter()
	local := s.ScreenToLocal(center).Scale(ratio)

	s.MaxLayerDimensions = s.MaxLayerDimensions.Scale(ratio)
	m.sandbox.UpdateSandbox(center, s.MaxLayerDimensions.Sub(s.Viewport))
	m.sandbox.CenterWithOffset(local.Left, local.Top)

	if m.devMode {
		log.Printf("[Movement] zoomTo %.4f -> %.4f, centered on local (%.1f, %.1f)",
			oldScale, newScale, local.Left, local.Top)
	}
}
