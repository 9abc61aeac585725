package gesture

import "sync"

// TouchMover routes touch input by touch count: one finger pans, two or
// more pinch. When a pinch ends with one finger still down, panning
// resumes from that finger's position.
type TouchMover struct {
	mu      sync.Mutex
	pan     PanHandler
	pinch   *PinchDetector
	panning bool
}

// NewTouchMover creates a mover dispatching to pan and pinch
func NewTouchMover(pan PanHandler, pinch PinchHandler) *TouchMover {
	return &TouchMover{
		pan:   pan,
		pinch: NewPinchDetector(pinch),
	}
}

// Pinching reports whether a pinch is in progress
func (t *TouchMover) Pinching() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pinch.Active()
}

// TouchStart handles touches going down; touches lists all active touches
func (t *TouchMover) TouchStart(touches []Touch) {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch {
	case len(touches) >= 2:
		t.endPan()
		t.pinch.Start(touches)
	case len(touches) == 1:
		t.pan.PanStart(touches[0].X, touches[0].Y)
		t.panning = true
	}
}

// TouchMove handles motion of the active touches
func (t *TouchMover) TouchMove(touches []Touch) {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch {
	case len(touches) >= 2:
		if !t.pinch.Active() {
			t.endPan()
			t.pinch.Start(touches)
			return
		}
		t.pinch.Move(touches)
	case len(touches) == 1:
		if !t.panning {
			t.pan.PanStart(touches[0].X, touches[0].Y)
			t.panning = true
			return
		}
		t.pan.PanMove(touches[0].X, touches[0].Y)
	}
}

// TouchEnd handles touches lifting; remaining lists touches still down
func (t *TouchMover) TouchEnd(remaining []Touch) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.pinch.Active() {
		t.pinch.End(remaining)
		if !t.pinch.Active() && len(remaining) == 1 {
			t.pan.PanStart(remaining[0].X, remaining[0].Y)
			t.panning = true
		}
		return
	}

	if len(remaining) == 0 {
		t.endPan()
	}
}

func (t *TouchMover) endPan() {
	if t.panning {
		t.pan.PanEnd()
		t.panning = false
	}
}
