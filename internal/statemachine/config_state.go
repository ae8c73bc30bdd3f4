package statemachine

import (
	"sync"
	"sync/atomic"
	"time"

	"wifimgr/internal/config"
	"wifimgr/internal/scan"
	"wifimgr/internal/wmerr"
)

// mutexWait is the short bounded wait public API calls use when taking
// the config lock (spec.md §4.5: "a short bounded wait; on timeout they
// return timed out").
const mutexWait = 100 * time.Millisecond

// lockPollInterval is how often a blocked TryLock retries within
// mutexWait.
const lockPollInterval = 2 * time.Millisecond

// ConfigState is the process-wide, singleton record guarded by lock
// (spec.md §3). Every field other than State may only be read or
// written while holding the lock, except inside Step itself.
type ConfigState struct {
	lock sync.Mutex

	// state is kept outside the mutex so GetState can read it without
	// taking the lock (spec.md §3 invariant).
	state atomic.Int32

	CfgTimestamp time.Time
	Saved        config.WifiConfig
	Current      config.WifiConfig
	New          config.WifiConfig
	ScanRef      scan.Ref
}

// NewConfigState creates a ConfigState in Idle, with saved/current/new
// all set to the given defaults (spec.md §4.5 init()).
func NewConfigState(defaults config.WifiConfig) *ConfigState {
	cs := &ConfigState{
		Saved:   defaults,
		Current: defaults,
		New:     defaults,
	}
	cs.state.Store(int32(Idle))
	return cs
}

// GetState reads state without acquiring the lock (spec.md §4.5
// get_state()).
func (cs *ConfigState) GetState() WmState {
	return WmState(cs.state.Load())
}

// setState must be called while holding the lock (or from within a Step
// invocation, which already holds it).
func (cs *ConfigState) setState(s WmState) {
	cs.state.Store(int32(s))
}

// TryLockBounded attempts to take the lock, retrying for up to
// mutexWait. Used by public API operations (spec.md §4.5: "all
// operations ... acquire the config lock with a short bounded wait; on
// timeout they return timed out").
func (cs *ConfigState) TryLockBounded() error {
	deadline := time.Now().Add(mutexWait)
	for {
		if cs.lock.TryLock() {
			return nil
		}
		if time.Now().After(deadline) {
			return wmerr.ErrTimeout
		}
		time.Sleep(lockPollInterval)
	}
}

// TryLockNonBlocking attempts the lock exactly once, never blocking.
// Used by Step's non-reentrancy guard (spec.md §4.1: "acquires the lock
// non-blockingly; on contention, re-arm a short wake-up and return").
func (cs *ConfigState) TryLockNonBlocking() bool {
	return cs.lock.TryLock()
}

// Unlock releases the lock taken by either TryLock variant above.
func (cs *ConfigState) Unlock() {
	cs.lock.Unlock()
}

// ForceState sets state directly, bypassing Step's own transition
// logic. Reserved for wmngr's public-API layer, which holds the lock
// while driving state on the caller's behalf (spec.md §4.5); Step never
// calls this itself.
func (cs *ConfigState) ForceState(s WmState) {
	cs.setState(s)
}

// RequireStable returns wmerr.ErrInvalidState unless the state is
// currently in the stable set (spec.md §4.5 busy-check). Must be called
// while holding the lock.
func (cs *ConfigState) RequireStable() error {
	if !cs.GetState().IsStable() {
		return wmerr.ErrInvalidState
	}
	return nil
}
