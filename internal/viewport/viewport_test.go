package viewport

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Helioviewer-Project/helioviewer.org-sub000/internal/common"
	"github.com/Helioviewer-Project/helioviewer.org-sub000/internal/config"
	"github.com/Helioviewer-Project/helioviewer.org-sub000/internal/gesture"
)

// fakeLayers is a single 2048x2048 px layer at image scale 2.4
type fakeLayers struct {
	mu          sync.Mutex
	imageScales []float64
	coords      []common.ViewportCoords
}

func (f *fakeLayers) MaxDimensions(imageScale float64) (float64, float64) {
	size := 2048 * 2.4 / imageScale
	return size, size
}

func (f *fakeLayers) SetImageScale(imageScale float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.imageScales = append(f.imageScales, imageScale)
}

func (f *fakeLayers) UpdateTileVisibility(c common.ViewportCoords) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.coords = append(f.coords, c)
}

func (f *fakeLayers) lastImageScale() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.imageScales[len(f.imageScales)-1]
}

func (f *fakeLayers) visibilityUpdates() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.coords)
}

func newTestViewport(t *testing.T) (*Viewport, *fakeLayers) {
	t.Helper()
	layers := &fakeLayers{}
	v := New(Options{
		Levels:            testLevels(t),
		ImageScale:        2.4,
		MouseMoveThrottle: 1,
		PinchSensitivity:  DefaultPinchSensitivity,
		WheelIdleWindow:   20 * time.Millisecond,
		AnimationDuration: 20 * time.Millisecond,
		AnimationTickRate: 200,
	}, layers)
	v.Resize(800, 600)
	v.Center()
	return v, layers
}

func waitClosed(t *testing.T, done <-chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for zoom animation")
	}
}

func TestOptionsFromSettings(t *testing.T) {
	settings := config.DefaultSettings()
	settings.LastImageScale = 1.2102204

	opts, err := OptionsFromSettings(settings)
	require.NoError(t, err)

	assert.Equal(t, len(config.DefaultZoomLevels), opts.Levels.Len())
	assert.Equal(t, 1.2102204, opts.ImageScale)
	assert.Equal(t, 250*time.Millisecond, opts.WheelIdleWindow)
	assert.Equal(t, 120, opts.AnimationTickRate)

	settings.ZoomLevels = nil
	_, err = OptionsFromSettings(settings)
	assert.Error(t, err)
}

func TestViewport_NewSnapsImageScale(t *testing.T) {
	layers := &fakeLayers{}
	v := New(Options{Levels: testLevels(t), ImageScale: 2.0}, layers)

	assert.Equal(t, 2.4, v.ImageScale())
	assert.Equal(t, []float64{2.4}, layers.imageScales)
	assert.Equal(t, 1.0, v.ContinuousScale())
	assert.Equal(t, PhaseIdle, v.Phase())
}

func TestViewport_ResizeKeepsContentAndNotifies(t *testing.T) {
	v, layers := newTestViewport(t)

	var got []common.ViewportCoords
	v.SetCallbacks(func(c common.ViewportCoords) { got = append(got, c) }, nil)

	v.Resize(1000, 800)

	// The sun stays where it was on screen
	x, y := v.ScreenOrigin()
	assert.InDelta(t, 400, x, 1)
	assert.InDelta(t, 300, y, 1)
	require.Len(t, got, 1)
	assert.InDelta(t, 1000, got[0].Width(), eps)
	assert.Greater(t, layers.visibilityUpdates(), 0)
}

func TestViewport_SetScaleCommitsThroughLayers(t *testing.T) {
	v, layers := newTestViewport(t)

	var scales []float64
	v.SetCallbacks(nil, func(s float64) { scales = append(scales, s) })

	require.True(t, v.SetScale(1.6))

	assert.Equal(t, 1.2, v.ImageScale())
	assert.InDelta(t, 0.8, v.ContinuousScale(), eps)
	assert.Equal(t, []float64{1.2}, scales)
	assert.Equal(t, 1.2, layers.lastImageScale())

	snap := v.Snapshot()
	assert.Equal(t, Size{4096, 4096}, snap.MaxLayerDimensions)

	x, y := v.ScreenOrigin()
	assert.InDelta(t, 400, x, 1e-6)
	assert.InDelta(t, 300, y, 1e-6)

	assert.False(t, v.SetScale(3))
}

func TestViewport_ZoomInAnimation(t *testing.T) {
	v, _ := newTestViewport(t)

	waitClosed(t, v.ZoomIn())

	assert.Equal(t, 1.2, v.ImageScale())
	assert.InDelta(t, 1.0, v.ContinuousScale(), 1e-9)
	assert.Equal(t, PhaseIdle, v.Phase())

	x, y := v.ScreenOrigin()
	assert.InDelta(t, 400, x, 1e-6)
	assert.InDelta(t, 300, y, 1e-6)
}

func TestViewport_ZoomOutAnimation(t *testing.T) {
	v, _ := newTestViewport(t)

	waitClosed(t, v.ZoomOut())

	assert.Equal(t, 4.8, v.ImageScale())
	assert.InDelta(t, 1.0, v.ContinuousScale(), 1e-9)
}

func TestViewport_ZoomAtLimitIsNoop(t *testing.T) {
	v, _ := newTestViewport(t)
	v.SetImageScale(0.6)

	waitClosed(t, v.ZoomIn())
	assert.Equal(t, 0.6, v.ImageScale())
	assert.Equal(t, 1.0, v.ContinuousScale())
}

func TestViewport_SetImageScaleKeepsCenterPoint(t *testing.T) {
	v, _ := newTestViewport(t)
	v.CenterOn(100, 50)

	v.SetImageScale(1.2)

	snap := v.Snapshot()
	assertPointsNear(t, Point{200, 100}, snap.ScreenToLocal(snap.ViewportCenter()), 1e-6)
}

func TestViewport_MoveViewportAndRegionOfInterest(t *testing.T) {
	v, _ := newTestViewport(t)

	v.MoveViewport(8, 0)

	c := v.GetViewportCoords()
	assert.InDelta(t, -392, c.Left, eps)

	roi := v.GetRegionOfInterest()
	assert.InDelta(t, -392*2.4, roi.Left, 1e-9)
	assert.InDelta(t, 300*2.4, roi.Bottom, 1e-9)
}

func TestViewport_MouseDrag(t *testing.T) {
	v, layers := newTestViewport(t)
	updates := layers.visibilityUpdates()

	v.MouseDown(100, 100)
	v.MouseMove(160, 130)
	v.MouseUp()

	x, y := v.ScreenOrigin()
	assert.InDelta(t, 460, x, eps)
	assert.InDelta(t, 330, y, eps)
	assert.Equal(t, updates+2, layers.visibilityUpdates())
}

func TestViewport_TouchPinch(t *testing.T) {
	v, _ := newTestViewport(t)

	v.TouchStart([]gesture.Touch{{ID: 1, X: 350, Y: 300}, {ID: 2, X: 450, Y: 300}})
	v.TouchMove([]gesture.Touch{{ID: 1, X: 320, Y: 300}, {ID: 2, X: 480, Y: 300}})

	assert.InDelta(t, 1.3, v.ContinuousScale(), eps)
	assert.Equal(t, PhaseScaling, v.Phase())

	// Pinch centered on the sun keeps it in place
	x, y := v.ScreenOrigin()
	assert.InDelta(t, 400, x, 1e-6)
	assert.InDelta(t, 300, y, 1e-6)

	v.TouchEnd(nil)
	assert.InDelta(t, 1.3, v.ContinuousScale(), eps)
}

func TestViewport_WheelZoom(t *testing.T) {
	v, _ := newTestViewport(t)

	v.Wheel(400, 300, -120)

	assert.Equal(t, 1.2, v.ImageScale())
	assert.InDelta(t, 0.8, v.ContinuousScale(), eps)
}
