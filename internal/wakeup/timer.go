package wakeup

import (
	"sync"
	"time"
)

// Timer is the timer-driven dispatch variant of spec.md §5.1: the
// host timer's own callback context invokes step directly. There is no
// separate worker goroutine; Rearm just resets the underlying
// *time.Timer.
type Timer struct {
	mu      sync.Mutex
	t       *time.Timer
	step    Step
	stopped bool
}

// NewTimer creates a Timer that will call step() whenever it fires, and
// arms it once with the given initial delay (use 0 to fire immediately).
func NewTimer(step Step, initial time.Duration) *Timer {
	w := &Timer{step: step}
	w.t = time.AfterFunc(initial, w.fire)
	return w
}

func (w *Timer) fire() {
	w.mu.Lock()
	stopped := w.stopped
	w.mu.Unlock()
	if !stopped {
		w.step()
	}
}

// Rearm resets the timer to fire after delay. A delay of 0 fires on the
// next scheduler tick.
func (w *Timer) Rearm(delay time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return
	}
	if delay <= 0 {
		delay = time.Nanosecond
	}
	w.t.Reset(delay)
}

// Stop halts the timer. Safe to call once; further Rearm calls are
// ignored.
func (w *Timer) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.stopped = true
	w.t.Stop()
}
