// Package ingest implements the event fan-in described in spec.md §4.2:
// mapping asynchronous radio/IP events into the EventFlags bitset that
// the state machine consumes. Both the radio driver and the IP-stack
// adapter report through the same Callback/Event vocabulary, since
// spec.md's event table interleaves radio events (STA/AP/scan/WPS) with
// an IP-stack event (got-ip/lost-ip) without distinguishing their
// origin to the state machine.
package ingest

import (
	"wifimgr/internal/eventflags"

	"go.uber.org/zap"
)

// Category groups the asynchronous events reported to a Callback.
type Category int

const (
	CategorySTA Category = iota
	CategoryAP
	CategoryScan
	CategoryWPS
	CategoryIP
)

// ID identifies one event within its Category.
type ID int

const (
	StaStart ID = iota
	StaStop
	StaConnected
	StaDisconnected
)

const (
	ApStart ID = iota
	ApStop
)

const (
	ScanComplete ID = iota // Status == 0 means ok
)

const (
	WpsSuccess ID = iota
	WpsFailed
	WpsTimeout
	WpsPin
)

const (
	IPGot ID = iota
	IPLost
)

// Event is what a Callback receives.
type Event struct {
	Category Category
	ID       ID
	// Status is non-zero when a ScanComplete event failed.
	Status int
}

// Callback is registered once with the radio driver and the IP-stack
// adapter, and invoked by them for every asynchronous event. Per
// spec.md §4.2 it must be non-blocking and must never acquire the
// config lock: it only touches the atomic eventflags.Set and arms the
// state machine's wake-up.
type Callback func(Event)

// Arm is invoked whenever the flag mask changed, to wake the state
// machine with the short CFG_DELAY re-arm spec.md §4.2 specifies.
type Arm func()

// New builds the Callback that implements spec.md §4.2's event table
// against flags, calling arm() whenever the mask actually changed.
// The callback never fails; an unrecognized event is ignored (spec.md §7).
func New(flags *eventflags.Set, arm Arm, log *zap.SugaredLogger) Callback {
	return func(ev Event) {
		changed := false

		switch ev.Category {
		case CategorySTA:
			switch ev.ID {
			case StaStart:
				changed = flags.SetFlag(eventflags.StaStart)
			case StaStop:
				changed = flags.ClearFlag(eventflags.StaStart)
			case StaConnected:
				changed = flags.SetFlag(eventflags.StaConnected)
			case StaDisconnected:
				changed = flags.ClearFlag(eventflags.StaConnected)
			}
		case CategoryAP:
			switch ev.ID {
			case ApStart:
				changed = flags.SetFlag(eventflags.ApStart)
			case ApStop:
				changed = flags.ClearFlag(eventflags.ApStart)
			}
		case CategoryScan:
			if ev.ID == ScanComplete {
				cleared := flags.ClearFlag(eventflags.ScanStart)
				if ev.Status == 0 {
					changed = flags.SetFlag(eventflags.ScanDone) || cleared
				} else {
					changed = cleared
				}
			}
		case CategoryWPS:
			switch ev.ID {
			case WpsSuccess:
				changed = flags.SetFlag(eventflags.WpsSuccess)
			case WpsFailed, WpsTimeout, WpsPin:
				changed = flags.SetFlag(eventflags.WpsFailed)
			}
		case CategoryIP:
			switch ev.ID {
			case IPGot:
				changed = flags.SetFlag(eventflags.StaGotIP)
			case IPLost:
				changed = flags.ClearFlag(eventflags.StaGotIP)
			}
		default:
			log.Debugw("ignoring unrecognized event category", "category", ev.Category)
			return
		}

		if changed && arm != nil {
			arm()
		}
	}
}
