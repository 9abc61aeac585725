package gesture

import (
	"sync"
	"time"

	"github.com/bep/debounce"
)

// DefaultWheelIdleWindow separates one wheel gesture from the next
const DefaultWheelIdleWindow = 250 * time.Millisecond

// ScrollZoom turns bursts of wheel events into pinch gestures. The first
// event of a burst starts a pinch at the cursor, every event reports the
// accumulated delta, and the pinch ends once the wheel has been idle for
// the window.
type ScrollZoom struct {
	// emit is held from a state change until its callbacks return, so the
	// handler sees gestures in the order they happened
	emit sync.Mutex

	mu          sync.Mutex
	handler     PinchHandler
	debounced   func(f func())
	active      bool
	accumulated float64
}

// NewScrollZoom creates a wheel zoom source. idle <= 0 uses the default.
func NewScrollZoom(handler PinchHandler, idle time.Duration) *ScrollZoom {
	if idle <= 0 {
		idle = DefaultWheelIdleWindow
	}
	return &ScrollZoom{
		handler:   handler,
		debounced: debounce.New(idle),
	}
}

// Wheel feeds one wheel event at screen point (x, y). Negative deltaY
// (wheel up) zooms in.
func (s *ScrollZoom) Wheel(x, y, deltaY float64) {
	s.emit.Lock()
	defer s.emit.Unlock()

	s.mu.Lock()
	start := !s.active
	s.active = true
	s.accumulated -= deltaY
	acc := s.accumulated
	s.mu.Unlock()

	if start {
		s.handler.PinchStart(x, y)
	}
	s.handler.PinchUpdate(acc)
	s.debounced(s.end)
}

// Active reports whether a wheel gesture is in progress
func (s *ScrollZoom) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

func (s *ScrollZoom) end() {
	s.emit.Lock()
	defer s.emit.Unlock()

	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return
	}
	s.active = false
	s.accumulated = 0
	s.mu.Unlock()

	s.handler.PinchEnd()
}
