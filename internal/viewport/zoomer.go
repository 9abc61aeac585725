package viewport

import (
	"log"
	"math"
	"time"

	"github.com/samber/lo"
)

// ZoomPhase classifies the zoomer's state
type ZoomPhase int

const (
	PhaseIdle ZoomPhase = iota
	PhaseScaling
	PhaseCommitting
)

func (p ZoomPhase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseScaling:
		return "scaling"
	default:
		return "committing"
	}
}

// DefaultPinchSensitivity is the pinch distance, in pixels, that changes
// the continuous scale by 1.0
const DefaultPinchSensitivity = 200

// Zoomer drives continuous zooming around a fixed anchor and promotes it
// to discrete level changes without any visible jump.
type Zoomer struct {
	state   *ViewportState
	sandbox *SandboxHelper

	pinchSensitivity float64
	pinchLast        float64
	committing       bool

	// changeLevel performs a discrete image scale change and propagates it
	// (sandbox, layers, listeners) before returning
	changeLevel func(index int)

	// onUpdate refreshes tile visibility after a scale change
	onUpdate func()

	// exec runs f with exclusive access to the state; used by animation ticks
	exec func(f func())

	animStop chan struct{}
	devMode  bool
}

// NewZoomer creates a zoomer. changeLevel and onUpdate may be nil.
func NewZoomer(state *ViewportState, sandbox *SandboxHelper, pinchSensitivity float64, changeLevel func(int), onUpdate func()) *Zoomer {
	if pinchSensitivity <= 0 {
		pinchSensitivity = DefaultPinchSensitivity
	}
	z := &Zoomer{
		state:            state,
		sandbox:          sandbox,
		pinchSensitivity: pinchSensitivity,
		changeLevel:      changeLevel,
		onUpdate:         onUpdate,
		exec:             func(f func()) { f() },
	}
	if z.changeLevel == nil {
		z.changeLevel = func(index int) { state.ZoomIndex = index }
	}
	if z.onUpdate == nil {
		z.onUpdate = func() {}
	}
	return z
}

// Phase returns the current zoom phase
func (z *Zoomer) Phase() ZoomPhase {
	switch {
	case z.committing:
		return PhaseCommitting
	case z.state.Scale == 1:
		return PhaseIdle
	default:
		return PhaseScaling
	}
}

// Scale returns the continuous scale
func (z *Zoomer) Scale() float64 {
	return z.state.Scale
}

// GetApparentPosition returns the container's apparent position in the sandbox
func (z *Zoomer) GetApparentPosition() Point {
	return z.state.ApparentPosition()
}

// SetScale applies a continuous scale. Values outside
// [MinContinuousScale, MaxContinuousScale] are ignored and false is
// returned. Crossing ZoomInThreshold or ZoomOutThreshold commits a
// discrete level change when one is available.
func (z *Zoomer) SetScale(scale float64) bool {
	if math.IsNaN(scale) || scale < MinContinuousScale || scale > MaxContinuousScale {
		return false
	}

	switch {
	case scale >= ZoomInThreshold && z.state.CanZoomIn():
		z.commit(scale, z.state.ZoomIndex+1)
	case scale <= ZoomOutThreshold && z.state.CanZoomOut():
		z.commit(scale, z.state.ZoomIndex-1)
	default:
		z.state.Scale = scale
		z.onUpdate()
	}
	return true
}

// commit swaps to discrete level index while holding the container's
// on-screen position fixed. The anchor is rescaled into the new level's
// local coordinates and the continuous scale is divided by the same factor.
func (z *Zoomer) commit(scale float64, index int) {
	s := z.state
	z.committing = true
	defer func() { z.committing = false }()

	from := s.ZoomIndex
	factor := s.Levels.Factor(from, index)
	screenApparent := s.Sandbox.Offset().Add(s.ApparentPositionAt(scale))

	anchor := s.Anchor.Scale(factor)
	target := scale / factor

	z.changeLevel(index)

	// Re-affirm once the level change has propagated
	s.Anchor = anchor
	s.Scale = target
	s.Position = realPositionFor(screenApparent.Sub(s.Sandbox.Offset()), target, anchor)

	if z.devMode {
		log.Printf("[Zoomer] level %d -> %d at scale %.3f, continuing at %.3f", from, index, scale, target)
	}

	z.onUpdate()
}

// SetAnchor moves the transform origin to local point p without moving
// the content on screen
func (z *Zoomer) SetAnchor(p Point) {
	s := z.state
	apparent := s.ApparentPosition()
	s.Anchor = p
	s.Position = realPositionFor(apparent, s.Scale, p)
}

// SetAnchorForCenter anchors the transform at a screen point
func (z *Zoomer) SetAnchorForCenter(screen Point) {
	z.SetAnchor(z.state.ScreenToLocal(screen))
}

// PinchStart anchors at the pinch center and starts a new delta baseline
func (z *Zoomer) PinchStart(center Point) {
	z.cancelAnimation()
	z.SetAnchorForCenter(center)
	z.pinchLast = 0
}

// PinchUpdate applies a pinch distance change, in pixels relative to the
// start of the pinch, as a scale change. The result is clamped to the
// continuous range.
func (z *Zoomer) PinchUpdate(distanceDelta float64) {
	step := (distanceDelta - z.pinchLast) / z.pinchSensitivity
	z.pinchLast = distanceDelta
	if step == 0 {
		return
	}
	z.SetScale(lo.Clamp(z.state.Scale+step, MinContinuousScale, MaxContinuousScale))
}

// PinchEnd finishes a pinch gesture
func (z *Zoomer) PinchEnd() {
	z.pinchLast = 0
	z.onUpdate()
}

// AnimateZoom zooms by factor over duration, anchored at the current
// anchor, ticking tickRate times per second. Any running animation is
// canceled first. The returned channel closes when the animation finishes
// or is canceled.
func (z *Zoomer) AnimateZoom(factor float64, duration time.Duration, tickRate int) <-chan struct{} {
	z.cancelAnimation()
	done := make(chan struct{})
	if factor <= 0 || factor == 1 {
		close(done)
		return done
	}

	tickRate = max(1, tickRate)
	ticks := max(1, int(math.Round(duration.Seconds()*float64(tickRate))))
	interval := time.Second / time.Duration(tickRate)

	s := z.state
	startImageScale := s.ImageScale()
	start := s.Scale
	target := start * factor

	stop := make(chan struct{})
	z.animStop = stop

	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for i := 1; i <= ticks; i++ {
			select {
			case <-stop:
				return
			case <-ticker.C:
			}

			canceled := false
			z.exec(func() {
				select {
				case <-stop:
					canceled = true
					return
				default:
				}
				// Magnification relative to the level the animation began on
				m := start + (target-start)*float64(i)/float64(ticks)
				scale := m * s.ImageScale() / startImageScale
				if i == ticks && math.Abs(scale-1) < 1e-9 {
					scale = 1
				}
				z.SetScale(lo.Clamp(scale, MinContinuousScale, MaxContinuousScale))
				if i == ticks && z.animStop == stop {
					z.animStop = nil
				}
			})
			if canceled {
				return
			}
		}
	}()

	return done
}

// cancelAnimation stops a running animation, if any
func (z *Zoomer) cancelAnimation() {
	if z.animStop != nil {
		close(z.animStop)
		z.animStop = nil
	}
}

// Animating reports whether a zoom animation is in flight
func (z *Zoomer) Animating() bool {
	return z.animStop != nil
}
