// Package viewport keeps a pannable, zoomable container of image tiles
// positioned around the solar center. It owns the geometry model
// (ViewportState) and the helpers that mutate it.
package viewport

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/Helioviewer-Project/helioviewer.org-sub000/internal/common"
	"github.com/Helioviewer-Project/helioviewer.org-sub000/internal/config"
	"github.com/Helioviewer-Project/helioviewer.org-sub000/internal/gesture"
)

// LayerManager is the tile side of the viewport: it reports the layer
// footprint used to size the sandbox and reacts to scale and visibility
// changes.
type LayerManager interface {
	MaxDimensions(imageScale float64) (width, height float64)
	SetImageScale(imageScale float64)
	UpdateTileVisibility(coords common.ViewportCoords)
}

// Options configures a Viewport
type Options struct {
	Levels            *ZoomLevelTable
	ImageScale        float64
	MouseMoveThrottle int
	PinchSensitivity  float64
	WheelIdleWindow   time.Duration
	AnimationDuration time.Duration
	AnimationTickRate int
	DevMode           bool
}

// OptionsFromSettings builds viewport options from user settings. The last
// persisted image scale wins over the default.
func OptionsFromSettings(settings *config.UserSettings) (Options, error) {
	levels, err := NewZoomLevelTable(settings.ZoomLevels)
	if err != nil {
		return Options{}, fmt.Errorf("failed to build zoom levels: %w", err)
	}

	scale := settings.DefaultImageScale
	if settings.LastImageScale > 0 {
		scale = settings.LastImageScale
	}

	return Options{
		Levels:            levels,
		ImageScale:        scale,
		MouseMoveThrottle: settings.MouseMoveThrottle,
		PinchSensitivity:  settings.PinchSensitivity,
		WheelIdleWindow:   time.Duration(settings.WheelIdleWindowMs) * time.Millisecond,
		AnimationDuration: time.Duration(settings.ZoomAnimationMs) * time.Millisecond,
		AnimationTickRate: settings.ZoomAnimationTickRate,
	}, nil
}

// Viewport ties the sandbox, movement helper, zoomer and gesture sources
// together. All state changes are serialised by mu; callbacks run while it
// is held and must not call back into the Viewport.
type Viewport struct {
	mu       sync.Mutex
	opts     Options
	state    *ViewportState
	sandbox  *SandboxHelper
	movement *MovementHelper
	zoomer   *Zoomer
	layers   LayerManager

	touch  *gesture.TouchMover
	scroll *gesture.ScrollZoom

	onViewportChanged   func(coords common.ViewportCoords)
	onImageScaleChanged func(imageScale float64)
}

// New creates a viewport. layers may be nil, in which case the sandbox is
// sized from SetMaxLayerDimensions only.
func New(opts Options, layers LayerManager) *Viewport {
	if opts.AnimationTickRate <= 0 {
		opts.AnimationTickRate = 120
	}
	if opts.AnimationDuration <= 0 {
		opts.AnimationDuration = 250 * time.Millisecond
	}

	v := &Viewport{
		opts:   opts,
		layers: layers,
	}
	v.state = NewViewportState(opts.Levels, opts.ImageScale)
	v.sandbox = NewSandboxHelper(v.state)
	v.movement = NewMovementHelper(v.state, v.sandbox, opts.MouseMoveThrottle)
	v.zoomer = NewZoomer(v.state, v.sandbox, opts.PinchSensitivity, v.changeZoomLevel, v.notifyViewportChanged)
	v.zoomer.exec = v.locked

	v.sandbox.devMode = opts.DevMode
	v.movement.devMode = opts.DevMode
	v.zoomer.devMode = opts.DevMode

	target := gestureTarget{v}
	v.touch = gesture.NewTouchMover(target, target)
	v.scroll = gesture.NewScrollZoom(target, opts.WheelIdleWindow)

	if layers != nil {
		layers.SetImageScale(v.state.ImageScale())
	}
	return v
}

// SetCallbacks sets the viewport-changed and image-scale-changed listeners
func (v *Viewport) SetCallbacks(onViewportChanged func(common.ViewportCoords), onImageScaleChanged func(float64)) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.onViewportChanged = onViewportChanged
	v.onImageScaleChanged = onImageScaleChanged
}

func (v *Viewport) locked(f func()) {
	v.mu.Lock()
	defer v.mu.Unlock()
	f()
}

// notifyViewportChanged pushes the new visible region to the layers and
// listeners. Callers hold mu and have finished repositioning.
func (v *Viewport) notifyViewportChanged() {
	coords := v.movement.GetViewportCoords()
	if v.layers != nil {
		v.layers.UpdateTileVisibility(coords)
	}
	if v.onViewportChanged != nil {
		v.onViewportChanged(coords)
	}
}

// refreshSandbox re-reads the layer footprint and resizes the sandbox
func (v *Viewport) refreshSandbox() {
	s := v.state
	if v.layers != nil {
		w, h := v.layers.MaxDimensions(s.ImageScale())
		s.MaxLayerDimensions = Size{w, h}
	}
	v.sandbox.UpdateSandbox(s.ViewportCenter(), s.MaxLayerDimensions.Sub(s.Viewport))
}

// changeZoomLevel performs a discrete image scale change. The sandbox is
// repositioned before layers see the new scale.
func (v *Viewport) changeZoomLevel(index int) {
	s := v.state
	oldScale := s.ImageScale()
	s.ZoomIndex = index
	newScale := s.ImageScale()
	if oldScale == newScale {
		return
	}

	v.movement.ZoomTo(oldScale, newScale)
	if v.layers != nil {
		v.layers.SetImageScale(newScale)
		v.refreshSandbox()
	}

	if v.opts.DevMode {
		log.Printf("[Viewport] image scale %.4f -> %.4f (level %d)", oldScale, newScale, index)
	}
	if v.onImageScaleChanged != nil {
		v.onImageScaleChanged(newScale)
	}
}

// Resize sets the viewport size in screen pixels
func (v *Viewport) Resize(width, height float64) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.state.Viewport = Size{max(0, width), max(0, height)}
	v.refreshSandbox()
	v.notifyViewportChanged()
}

// LayersChanged re-reads layer dimensions after layers were added,
// removed, or received new metadata
func (v *Viewport) LayersChanged() {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.refreshSandbox()
	v.notifyViewportChanged()
}

// SetMaxLayerDimensions sets the layer footprint directly, for viewports
// without a LayerManager
func (v *Viewport) SetMaxLayerDimensions(width, height float64) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.state.MaxLayerDimensions = Size{max(0, width), max(0, height)}
	v.refreshSandbox()
	v.notifyViewportChanged()
}

// MouseDown starts a drag
func (v *Viewport) MouseDown(x, y float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.zoomer.cancelAnimation()
	v.movement.MouseDown(x, y)
}

// MouseMove continues a drag
func (v *Viewport) MouseMove(x, y float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.movement.MouseMove(x, y) {
		v.notifyViewportChanged()
	}
}

// MouseUp ends a drag
func (v *Viewport) MouseUp() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.movement.MouseUp() {
		v.notifyViewportChanged()
	}
}

// TouchStart, TouchMove and TouchEnd receive the full list of active
// touches for each touch event
func (v *Viewport) TouchStart(touches []gesture.Touch) { v.touch.TouchStart(touches) }
func (v *Viewport) TouchMove(touches []gesture.Touch)  { v.touch.TouchMove(touches) }
func (v *Viewport) TouchEnd(remaining []gesture.Touch) { v.touch.TouchEnd(remaining) }

// Wheel feeds a wheel event at screen point (x, y)
func (v *Viewport) Wheel(x, y, deltaY float64) {
	v.scroll.Wheel(x, y, deltaY)
}

// SetScale applies a continuous scale directly
func (v *Viewport) SetScale(scale float64) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.zoomer.SetScale(scale)
}

// SetAnchor sets the transform origin in local coordinates
func (v *Viewport) SetAnchor(anchor Point) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.zoomer.SetAnchor(anchor)
}

// ZoomIn animates one level in around the viewport center
func (v *Viewport) ZoomIn() <-chan struct{} {
	return v.animateZoom(2)
}

// ZoomOut animates one level out around the viewport center
func (v *Viewport) ZoomOut() <-chan struct{} {
	return v.animateZoom(0.5)
}

func (v *Viewport) animateZoom(factor float64) <-chan struct{} {
	v.mu.Lock()
	defer v.mu.Unlock()

	if (factor > 1 && !v.state.CanZoomIn()) || (factor < 1 && !v.state.CanZoomOut()) {
		done := make(chan struct{})
		close(done)
		return done
	}
	v.zoomer.SetAnchorForCenter(v.state.ViewportCenter())
	return v.zoomer.AnimateZoom(factor, v.opts.AnimationDuration, v.opts.AnimationTickRate)
}

// SetImageScale jumps to the level nearest imageScale, keeping the
// physical point at the viewport center in place
func (v *Viewport) SetImageScale(imageScale float64) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.zoomer.cancelAnimation()
	index := v.state.Levels.IndexOf(imageScale)
	if index == v.state.ZoomIndex {
		return
	}
	v.zoomer.SetAnchorForCenter(v.state.ViewportCenter())
	v.changeZoomLevel(index)
	v.notifyViewportChanged()
}

// MoveViewport nudges the view by (dx, dy) screen pixels
func (v *Viewport) MoveViewport(dx, dy float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.movement.MoveViewport(dx, dy)
	v.notifyViewportChanged()
}

// Center puts the solar center in the middle of the viewport
func (v *Viewport) Center() {
	v.CenterOn(0, 0)
}

// CenterOn puts local point (x, y) in the middle of the viewport
func (v *Viewport) CenterOn(x, y float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.sandbox.CenterWithOffset(x, y)
	v.notifyViewportChanged()
}

// GetViewportCoords returns the viewport edges in pixels relative to the
// solar center
func (v *Viewport) GetViewportCoords() common.ViewportCoords {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.movement.GetViewportCoords()
}

// GetRegionOfInterest returns the viewport edges in arcseconds relative to
// the solar center
func (v *Viewport) GetRegionOfInterest() common.RegionOfInterest {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.movement.GetViewportCoords().ToArcseconds(v.state.ImageScale())
}

// ImageScale returns the current discrete image scale (arcsec/px)
func (v *Viewport) ImageScale() float64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state.ImageScale()
}

// ContinuousScale returns the in-progress scale transform
func (v *Viewport) ContinuousScale() float64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state.Scale
}

// ScreenOrigin returns where the solar center appears on screen
func (v *Viewport) ScreenOrigin() (x, y float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	o := v.state.ScreenOrigin()
	return o.Left, o.Top
}

// Phase returns the zoomer's phase
func (v *Viewport) Phase() ZoomPhase {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.zoomer.Phase()
}

// Snapshot returns a copy of the geometry model
func (v *Viewport) Snapshot() ViewportState {
	v.mu.Lock()
	defer v.mu.Unlock()
	return *v.state
}

// gestureTarget adapts the viewport to the gesture sources. Gesture
// sources call in from input handlers and timers, so each call locks.
type gestureTarget struct {
	v *Viewport
}

func (g gestureTarget) PinchStart(x, y float64) {
	g.v.mu.Lock()
	defer g.v.mu.Unlock()
	g.v.zoomer.PinchStart(Point{x, y})
}

func (g gestureTarget) PinchUpdate(distanceDelta float64) {
	g.v.mu.Lock()
	defer g.v.mu.Unlock()
	g.v.zoomer.PinchUpdate(distanceDelta)
}

func (g gestureTarget) PinchEnd() {
	g.v.mu.Lock()
	defer g.v.mu.Unlock()
	g.v.zoomer.PinchEnd()
}

func (g gestureTarget) PanStart(x, y float64) {
	g.v.mu.Lock()
	defer g.v.mu.Unlock()
	g.v.zoomer.cancelAnimation()
	g.v.movement.MouseDown(x, y)
}

func (g gestureTarget) PanMove(x, y float64) {
	g.v.mu.Lock()
	defer g.v.mu.Unlock()
	if g.v.movement.MouseMove(x, y) {
		g.v.notifyViewportChanged()
	}
}

func (g gestureTarget) PanEnd() {
	g.v.mu.Lock()
	defer g.v.mu.Unlock()
	if g.v.movement.MouseUp() {
		g.v.notifyViewportChanged()
	}
}
