// Package wakeup implements the "one-shot delayable wake-up" primitive
// spec.md §2/§5 describes abstractly, in the two build variants §5.1
// names: a dedicated task blocking on a trigger flag, and a bare host
// timer invoking the step directly. Both share the Source interface so
// internal/statemachine and internal/wmngr never care which is active.
package wakeup

import "time"

// Source arms a wake-up after delay (0 meaning "as soon as possible").
// Implementations must make Rearm safe to call from any goroutine,
// including from within the event callback (spec.md §4.2) and from
// public API calls (spec.md §4.5).
type Source interface {
	// Rearm schedules the next step. delay == 0 requests immediate
	// dispatch; delay > 0 requests a deferred poll.
	Rearm(delay time.Duration)
	// Stop releases the underlying timer/goroutine. Safe to call once.
	Stop()
}

// Step is the state-machine body a Source drives, one invocation at a
// time (spec.md §4.1's "step contract").
type Step func()
