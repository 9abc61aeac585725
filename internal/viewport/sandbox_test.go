package viewport

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSandboxHelper_CenterPutsSunInViewportCenter(t *testing.T) {
	state, _, _, _ := newTestHelpers(t)

	assert.Equal(t, Sandbox{Left: -224, Top: -424, Width: 1248, Height: 1448}, state.Sandbox)
	assertPointsNear(t, Point{624, 724}, state.Position, eps)
	assertPointsNear(t, Point{400, 300}, state.ScreenOrigin(), eps)
}

func TestSandboxHelper_UpdateSandboxKeepsContainerOnScreen(t *testing.T) {
	tests := []struct {
		name     string
		scale    float64
		anchor   Point
		viewport Size
		dims     Size
	}{
		{"grow viewport", 1, Point{}, Size{1000, 700}, Size{2048, 2048}},
		{"shrink viewport", 1, Point{}, Size{640, 480}, Size{2048, 2048}},
		{"scaled", 1.2, Point{50, 30}, Size{1000, 700}, Size{2048, 2048}},
		{"larger layers", 0.8, Point{-40, 10}, Size{800, 600}, Size{2400, 2200}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state, sandbox, _, zoomer := newTestHelpers(t)
			zoomer.SetAnchor(tt.anchor)
			state.Scale = tt.scale
			sandbox.MoveContainerTo(state.Position.Add(Point{-30, 45}))

			before := sandbox.containerBounds()

			state.Viewport = tt.viewport
			state.MaxLayerDimensions = tt.dims
			sandbox.UpdateSandbox(state.ViewportCenter(), state.MaxLayerDimensions.Sub(state.Viewport))

			after := sandbox.containerBounds()
			assert.InDelta(t, before.Min.X, after.Min.X+(tt.dims.Width-2048)*tt.scale/2, 1)
			assert.InDelta(t, before.Min.Y, after.Min.Y+(tt.dims.Height-2048)*tt.scale/2, 1)
		})
	}
}

func TestSandboxHelper_NegativeSizeBecomesZero(t *testing.T) {
	state, sandbox, _, _ := newTestHelpers(t)

	state.Viewport = Size{3000, 2500}
	sandbox.UpdateSandbox(state.ViewportCenter(), state.MaxLayerDimensions.Sub(state.Viewport))

	assert.Equal(t, 0.0, state.Sandbox.Width)
	assert.Equal(t, 0.0, state.Sandbox.Height)
	assert.False(t, state.Sandbox.HasArea())
	assertPointsNear(t, Point{1500, 1250}, state.ScreenOrigin(), eps)
}

func TestSandboxHelper_MoveContainerToClamps(t *testing.T) {
	state, sandbox, _, _ := newTestHelpers(t)

	sandbox.MoveContainerTo(Point{-50, 99999})
	assert.Equal(t, Point{0, 1448}, state.Position)
}

func TestSandboxHelper_CenterWithOffset(t *testing.T) {
	state, sandbox, _, _ := newTestHelpers(t)

	sandbox.CenterWithOffset(100, -50)
	assertPointsNear(t, Point{100, -50}, state.ScreenToLocal(state.ViewportCenter()), eps)
}

func TestViewportState_ScreenLocalRoundTrip(t *testing.T) {
	state, _, _, zoomer := newTestHelpers(t)
	zoomer.SetAnchor(Point{25, -60})
	state.Scale = 1.37

	p := Point{123.5, 456.25}
	assertPointsNear(t, p, state.LocalToScreen(state.ScreenToLocal(p)), 1e-9)
}

func TestViewportState_ViewportCoords(t *testing.T) {
	state, _, _, _ := newTestHelpers(t)

	c := state.ViewportCoords()
	assert.InDelta(t, -400, c.Left, eps)
	assert.InDelta(t, -300, c.Top, eps)
	assert.InDelta(t, 400, c.Right, eps)
	assert.InDelta(t, 300, c.Bottom, eps)

	// Odd sizes round up to even
	state.Viewport = Size{801, 599}
	c = state.ViewportCoords()
	assert.InDelta(t, 802, c.Width(), eps)
	assert.InDelta(t, 600, c.Height(), eps)

	state.Scale = 2
	c = state.ViewportCoords()
	assert.InDelta(t, 401, c.Width(), eps)
}

func TestGeometry_Helpers(t *testing.T) {
	assert.Equal(t, 4.0, evenCeil(3.2))
	assert.Equal(t, 4.0, evenCeil(4))
	assert.Equal(t, 6.0, evenCeil(4.01))
	assert.Equal(t, Size{0, 5}, Size{3, 10}.Sub(Size{7, 5}))
	assert.Equal(t, Point{5, 5}, Sandbox{Width: 10, Height: 10}.Center())
}
