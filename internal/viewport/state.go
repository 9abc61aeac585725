package viewport

import (
	"github.com/Helioviewer-Project/helioviewer.org-sub000/internal/common"
)

// Continuous scale limits and the thresholds at which a discrete zoom
// level change is committed.
const (
	MinContinuousScale = 0.25
	MaxContinuousScale = 2.5
	ZoomInThreshold    = 1.5
	ZoomOutThreshold   = 0.5
)

// ViewportState is the in-memory geometry model of the viewer. It is the
// single source of truth; any presentation layer is a projection of it.
//
// Coordinate spaces:
//   - screen: pixels relative to the viewport's top-left corner
//   - sandbox: screen minus the sandbox offset; Position lives here
//   - local: untransformed moving-container pixels, origin on the solar
//     center; Anchor lives here
type ViewportState struct {
	Levels    *ZoomLevelTable
	ZoomIndex int

	// Scale is the continuous transform applied on top of the discrete level
	Scale float64

	// Anchor is the transform origin in local coordinates
	Anchor Point

	// Viewport is the size of the visible area
	Viewport Size

	// MaxLayerDimensions is the footprint of the largest layer at the
	// current image scale
	MaxLayerDimensions Size

	Sandbox Sandbox

	// Position is the real (untransformed) offset of the moving container
	// within the sandbox
	Position Point
}

// NewViewportState creates a state at the level nearest imageScale
func NewViewportState(levels *ZoomLevelTable, imageScale float64) *ViewportState {
	return &ViewportState{
		Levels:    levels,
		ZoomIndex: levels.IndexOf(imageScale),
		Scale:     1,
	}
}

// ImageScale returns the current discrete image scale in arcsec/px
func (s *ViewportState) ImageScale() float64 {
	return s.Levels.At(s.ZoomIndex)
}

// CanZoomIn reports whether a finer level exists
func (s *ViewportState) CanZoomIn() bool {
	return s.ZoomIndex < s.Levels.Len()-1
}

// CanZoomOut reports whether a coarser level exists
func (s *ViewportState) CanZoomOut() bool {
	return s.ZoomIndex > 0
}

// ApparentPosition returns the on-screen, post-transform offset of the
// moving container within the sandbox
func (s *ViewportState) ApparentPosition() Point {
	return s.ApparentPositionAt(s.Scale)
}

// ApparentPositionAt returns the apparent position the container would
// have at the given scale with the current anchor
func (s *ViewportState) ApparentPositionAt(scale float64) Point {
	return s.Position.Sub(s.Anchor.Scale(scale - 1))
}

// realPositionFor inverts ApparentPositionAt
func realPositionFor(apparent Point, scale float64, anchor Point) Point {
	return apparent.Add(anchor.Scale(scale - 1))
}

// ScreenOrigin returns where the local origin (the solar center) appears
// on screen
func (s *ViewportState) ScreenOrigin() Point {
	return s.Sandbox.Offset().Add(s.ApparentPosition())
}

// ViewportCenter returns the center of the viewport in screen coordinates
func (s *ViewportState) ViewportCenter() Point {
	return Point{s.Viewport.Width / 2, s.Viewport.Height / 2}
}

// ScreenToLocal maps a screen point into local coordinates
func (s *ViewportState) ScreenToLocal(p Point) Point {
	return p.Sub(s.ScreenOrigin()).Scale(1 / s.Scale)
}

// LocalToScreen maps a local point onto the screen
func (s *ViewportState) LocalToScreen(p Point) Point {
	return s.ScreenOrigin().Add(p.Scale(s.Scale))
}

// ViewportCoords returns the viewport edges in local pixels relative to
// the solar center. The viewport size is rounded up to even so that the
// center pixel is well defined.
func (s *ViewportState) ViewportCoords() common.ViewportCoords {
	width := evenCeil(s.Viewport.Width)
	height := evenCeil(s.Viewport.Height)

	topLeft := s.ScreenToLocal(Point{})
	return common.ViewportCoords{
		Left:   topLeft.Left,
		Top:    topLeft.Top,
		Right:  topLeft.Left + width/s.Scale,
		Bottom: topLeft.Top + height/s.Scale,
	}
}
