package viewport

import (
	"log"

	"gonum.org/v1/gonum/spatial/r2"
)

// SandboxHelper owns the sandbox rectangle and is, with the zoomer, the
// only writer of the moving container position.
type SandboxHelper struct {
	state   *ViewportState
	devMode bool
}

// NewSandboxHelper creates a helper operating on state
func NewSandboxHelper(state *ViewportState) *SandboxHelper {
	return &SandboxHelper{state: state}
}

// containerBounds returns the moving container's on-screen bounding box.
// The container's content spans the max layer footprint centered on the
// local origin.
func (h *SandboxHelper) containerBounds() r2.Box {
	s := h.state
	origin := s.ScreenOrigin().vec()
	half := r2.Vec{
		X: s.MaxLayerDimensions.Width * s.Scale / 2,
		Y: s.MaxLayerDimensions.Height * s.Scale / 2,
	}
	return r2.Box{Min: r2.Sub(origin, half), Max: r2.Add(origin, half)}
}

// UpdateSandbox resizes the sandbox to desiredSize (negative dimensions
// become zero) centered on viewportCenter, without moving the container on
// screen. The container is then clamped to the new bounds.
func (h *SandboxHelper) UpdateSandbox(viewportCenter Point, desiredSize Size) {
	s := h.state
	before := h.containerBounds()

	size := desiredSize.Sub(Size{})
	s.Sandbox = Sandbox{
		Left:   viewportCenter.Left - size.Width/2,
		Top:    viewportCenter.Top - size.Height/2,
		Width:  size.Width,
		Height: size.Height,
	}

	after := h.containerBounds()
	delta := pointFromVec(r2.Sub(before.Min, after.Min))

	h.MoveContainerTo(s.Position.Add(delta))

	if h.devMode {
		log.Printf("[Sandbox] resized to %.0fx%.0f at (%.1f, %.1f), container shifted by (%.2f, %.2f)",
			size.Width, size.Height, s.Sandbox.Left, s.Sandbox.Top, delta.Left, delta.Top)
	}
}

// MoveContainerTo sets the container's real position, clamped to the
// sandbox
func (h *SandboxHelper) MoveContainerTo(p Point) {
	h.state.Position = h.state.Sandbox.Clamp(p)
}

// Center moves the container so that the solar center appears at the
// center of the viewport
func (h *SandboxHelper) Center() {
	h.CenterWithOffset(0, 0)
}

// CenterWithOffset moves the container so that local point (x, y) appears
// at the center of the viewport, as far as the sandbox allows
func (h *SandboxHelper) CenterWithOffset(x, y float64) {
	s := h.state
	local := Point{x, y}
	apparent := s.Sandbox.Center().Sub(local.Scale(s.Scale))
	h.MoveContainerTo(realPositionFor(apparent, s.Scale, s.Anchor))
}
