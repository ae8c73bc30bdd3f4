package wakeup

import (
	"sync"
	"time"
)

// Task is the task-driven dispatch variant of spec.md §5.1 (the
// recommended default): a dedicated goroutine blocks on the trigger
// flag (here, a buffered channel) and runs step() once per wake-up.
// Delayed re-arms are implemented with an internal timer that, on
// firing, sends the trigger.
type Task struct {
	step    Step
	trigger chan struct{}
	delay   *time.Timer
	done    chan struct{}

	mu      sync.Mutex
	stopped bool
}

// NewTask creates and starts a Task's worker goroutine, arming an
// initial wake-up after the given delay (0 for "run now").
func NewTask(step Step, initial time.Duration) *Task {
	w := &Task{
		step:    step,
		trigger: make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	w.delay = time.NewTimer(time.Hour)
	w.delay.Stop()

	go w.run()
	w.Rearm(initial)
	return w
}

func (w *Task) run() {
	for {
		select {
		case <-w.trigger:
			w.step()
		case <-w.done:
			return
		}
	}
}

func (w *Task) signal() {
	select {
	case w.trigger <- struct{}{}:
	default:
		// already pending; one step will observe the latest state
	}
}

// Rearm schedules the next step. delay == 0 signals the worker
// immediately; delay > 0 arms a timer that signals the worker on fire.
func (w *Task) Rearm(delay time.Duration) {
	w.mu.Lock()
	stopped := w.stopped
	w.mu.Unlock()
	if stopped {
		return
	}

	if delay <= 0 {
		w.signal()
		return
	}
	w.delay.Reset(delay)
	// Replace the fire func isn't possible on time.Timer, so use
	// AfterFunc per re-arm instead for delayed triggers.
	w.delay.Stop()
	w.delay = time.AfterFunc(delay, w.signal)
}

// Stop halts the worker goroutine and any pending delayed re-arm. Safe
// to call once.
func (w *Task) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return
	}
	w.stopped = true
	w.delay.Stop()
	close(w.done)
}
