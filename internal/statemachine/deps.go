package statemachine

import (
	"time"

	"go.uber.org/zap"

	"wifimgr/internal/eventflags"
	"wifimgr/internal/ipadapter"
	"wifimgr/internal/nvs"
	"wifimgr/internal/radio"
	"wifimgr/internal/wakeup"
)

// Timing constants from spec.md §4.1/§5.
const (
	CfgTicks   = 1 * time.Second        // poll interval while waiting on an event
	CfgDelay   = 100 * time.Millisecond // "act soon" re-arm
	CfgTimeout = 60 * time.Second       // transitional-state deadline
)

// Deps wires the state machine's external collaborators (spec.md §1's
// "out of scope" list). A Machine never constructs any of these itself.
type Deps struct {
	Radio   radio.Driver
	IPAdapt ipadapter.Adapter
	Flags   *eventflags.Set
	Store   *nvs.Store
	Wake    wakeup.Source
	Log     *zap.SugaredLogger

	// Now is injected so tests can control timeout behavior; nil means
	// time.Now.
	Now func() time.Time
}

func (d *Deps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

// Machine bundles a ConfigState with the Deps that Step operates
// through. One Machine drives one radio.
type Machine struct {
	CS   *ConfigState
	Deps *Deps
}

// New creates a Machine over cs using deps.
func New(cs *ConfigState, deps *Deps) *Machine {
	return &Machine{CS: cs, Deps: deps}
}
