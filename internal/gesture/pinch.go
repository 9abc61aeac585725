// Package gesture normalises raw touch and wheel input into pan and
// pinch callbacks, so that zoom logic does not care which device produced
// a gesture.
package gesture

import "math"

// Touch is one active touch point in screen pixels
type Touch struct {
	ID int     `json:"id"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
}

// PinchHandler receives normalised pinch gestures. PinchUpdate reports the
// change in distance, in pixels, since the gesture started.
type PinchHandler interface {
	PinchStart(centerX, centerY float64)
	PinchUpdate(distanceDelta float64)
	PinchEnd()
}

// PanHandler receives single-pointer drags in screen pixels
type PanHandler interface {
	PanStart(x, y float64)
	PanMove(x, y float64)
	PanEnd()
}

// PinchSession is the transient state of a two-finger gesture
type PinchSession struct {
	ReferenceDistance float64
	LastDistance      float64
	CenterX           float64
	CenterY           float64
}

// PinchDetector tracks two touch points and reports their distance change
type PinchDetector struct {
	handler PinchHandler
	session *PinchSession
}

// NewPinchDetector creates a detector reporting to handler
func NewPinchDetector(handler PinchHandler) *PinchDetector {
	return &PinchDetector{handler: handler}
}

// Active reports whether a pinch is in progress
func (d *PinchDetector) Active() bool {
	return d.session != nil
}

// Session returns a copy of the current session
func (d *PinchDetector) Session() (PinchSession, bool) {
	if d.session == nil {
		return PinchSession{}, false
	}
	return *d.session, true
}

// Start begins a pinch when at least two touches are down. A new start
// replaces any previous reference distance.
func (d *PinchDetector) Start(touches []Touch) bool {
	if len(touches) < 2 {
		return false
	}
	dist := distance(touches[0], touches[1])
	cx, cy := center(touches[0], touches[1])
	d.session = &PinchSession{
		ReferenceDistance: dist,
		LastDistance:      dist,
		CenterX:           cx,
		CenterY:           cy,
	}
	d.handler.PinchStart(cx, cy)
	return true
}

// Move reports the distance change against the reference distance
func (d *PinchDetector) Move(touches []Touch) {
	if d.session == nil || len(touches) < 2 {
		return
	}
	dist := distance(touches[0], touches[1])
	d.session.LastDistance = dist
	d.handler.PinchUpdate(dist - d.session.ReferenceDistance)
}

// End finishes the pinch once fewer than two touches remain
func (d *PinchDetector) End(remaining []Touch) {
	if d.session == nil || len(remaining) >= 2 {
		return
	}
	d.session = nil
	d.handler.PinchEnd()
}

func distance(a, b Touch) float64 {
	return math.Hypot(b.X-a.X, b.Y-a.Y)
}

func center(a, b Touch) (float64, float64) {
	return (a.X + b.X) / 2, (a.Y + b.Y) / 2
}
