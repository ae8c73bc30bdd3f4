// Package wmngr implements the public API surface of spec.md §4.5 on
// top of internal/statemachine's ConfigState and Step. It owns the
// process-wide singleton instance (spec.md §9: "keep a process-wide
// instance behind an initialisation routine, returned by a singleton
// accessor; public API methods implicitly target it").
package wmngr

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"wifimgr/internal/config"
	"wifimgr/internal/eventflags"
	"wifimgr/internal/ingest"
	"wifimgr/internal/ipadapter"
	"wifimgr/internal/nvs"
	"wifimgr/internal/radio"
	"wifimgr/internal/scan"
	"wifimgr/internal/statemachine"
	"wifimgr/internal/wakeup"
	"wifimgr/internal/wmerr"
)

// DispatchPolicy selects which wakeup.Source backs the state machine
// (spec.md §5.1).
type DispatchPolicy string

const (
	DispatchTask  DispatchPolicy = "task"
	DispatchTimer DispatchPolicy = "timer"
)

// Manager is the public façade. Callers never touch ConfigState or
// Machine directly.
type Manager struct {
	machine *statemachine.Machine
}

var (
	mu       sync.Mutex
	instance *Manager
)

// Get returns the process-wide Manager created by the last successful
// Init call, or nil if Init has not run.
func Get() *Manager {
	mu.Lock()
	defer mu.Unlock()
	return instance
}

// Init implements spec.md §4.5's init(): build the lock/flag set,
// register event callbacks, seed saved from compiled defaults, load the
// persisted config into new (falling back to defaults if absent), force
// state=update, initialise the radio driver with storage pinned to
// volatile (NVS is ours, not the driver's), and start the dispatch
// source. Any failure here returns an error and leaves no singleton
// installed.
func Init(ctx context.Context, radioDrv radio.Driver, ipAdapt ipadapter.Adapter, store *nvs.Store, policy DispatchPolicy, log *zap.SugaredLogger) (*Manager, error) {
	defaults := config.Defaults(log)

	loaded, err := store.Load()
	newCfg := defaults
	if err == nil {
		newCfg = loaded
	} else if !wmerr.Is(err, wmerr.ErrNotFound) {
		return nil, fmt.Errorf("wmngr: init: load nvs: %w", err)
	}

	cs := statemachine.NewConfigState(defaults)
	cs.New = newCfg
	cs.ForceState(statemachine.Update)

	flags := &eventflags.Set{}

	var wake wakeup.Source
	arm := func() {
		if wake != nil {
			wake.Rearm(statemachine.CfgDelay)
		}
	}
	cb := ingest.New(flags, arm, log)

	if err := radioDrv.Init(ctx, radio.InitConfig{Volatile: true}, cb); err != nil {
		return nil, fmt.Errorf("wmngr: init: radio init: %w", err)
	}
	// ipadapter.Adapter has no SetCallback of its own: lease events are an
	// optional capability not every backend reports (the fakes don't need
	// it). Backends that do report IPGot/IPLost implement this narrow
	// interface instead of widening the shared one.
	if cbReg, ok := ipAdapt.(interface{ SetCallback(ingest.Callback) }); ok {
		cbReg.SetCallback(cb)
	}
	if err := ipAdapt.Init(); err != nil {
		return nil, fmt.Errorf("wmngr: init: ip adapter init: %w", err)
	}

	deps := &statemachine.Deps{
		Radio:   radioDrv,
		IPAdapt: ipAdapt,
		Flags:   flags,
		Store:   store,
		Log:     log,
	}
	machine := statemachine.New(cs, deps)

	switch policy {
	case DispatchTimer:
		wake = wakeup.NewTimer(machine.Step, 0)
	default:
		wake = wakeup.NewTask(machine.Step, 0)
	}
	deps.Wake = wake

	m := &Manager{machine: machine}

	mu.Lock()
	instance = m
	mu.Unlock()

	return m, nil
}

// SetCfg implements spec.md §4.5 set_cfg.
func (m *Manager) SetCfg(newCfg config.WifiConfig) error {
	cs := m.machine.CS
	if err := cs.TryLockBounded(); err != nil {
		return err
	}
	defer cs.Unlock()
	if err := cs.RequireStable(); err != nil {
		return err
	}

	saved := cs.Current
	if !m.machine.Deps.Flags.Test(eventflags.StaConnected) {
		saved.STA = config.StationParams{}
	}
	cs.Saved = saved

	cfg := newCfg
	cfg.IsDefault = false

	if cfg.Differs(saved) {
		cs.New = cfg
		cs.ForceState(statemachine.Update)
		m.machine.Deps.Wake.Rearm(0)
	}
	return nil
}

// GetCfg implements spec.md §4.5 get_cfg.
func (m *Manager) GetCfg() (config.WifiConfig, error) {
	cs := m.machine.CS
	if err := cs.TryLockBounded(); err != nil {
		return config.WifiConfig{}, err
	}
	defer cs.Unlock()
	return cs.Current, nil
}

// StartWPS implements spec.md §4.5 start_wps.
func (m *Manager) StartWPS() error {
	cs := m.machine.CS
	if err := cs.TryLockBounded(); err != nil {
		return err
	}
	defer cs.Unlock()
	if err := cs.RequireStable(); err != nil {
		return err
	}

	cs.Saved = cs.Current
	cs.ForceState(statemachine.WpsStart)
	m.machine.Deps.Wake.Rearm(0)
	return nil
}

// StartScan implements spec.md §4.5 start_scan. Unlike the other
// transitional operations it is accepted regardless of state (spec.md
// §8 S5): the scan interleave defers it until state ≤ idle.
func (m *Manager) StartScan() error {
	cs := m.machine.CS
	if err := cs.TryLockBounded(); err != nil {
		return err
	}
	defer cs.Unlock()

	m.machine.Deps.Flags.SetFlag(eventflags.ScanStart)
	m.machine.Deps.Flags.SetFlag(eventflags.Trigger)
	m.machine.Deps.Wake.Rearm(0)
	return nil
}

// GetScan implements spec.md §4.3/§4.5 get_scan: borrow the current
// snapshot. Callers must release it via PutScan.
func (m *Manager) GetScan() (*scan.Snapshot, error) {
	cs := m.machine.CS
	if err := cs.TryLockBounded(); err != nil {
		return nil, err
	}
	defer cs.Unlock()

	snap := cs.ScanRef.Borrow()
	if snap == nil {
		return nil, wmerr.ErrNotFound
	}
	return snap, nil
}

// PutScan releases a snapshot obtained from GetScan.
func (m *Manager) PutScan(s *scan.Snapshot) {
	scan.Put(s)
}

// Connect implements spec.md §4.5 connect(): re-apply current with
// sta_connect forced true.
func (m *Manager) Connect() error {
	return m.setConnect(true)
}

// Disconnect implements spec.md §4.5 disconnect(): re-apply current
// with sta_connect forced false, which tears down the association
// (spec.md §9's resolution of the set_connect(false) ambiguity).
func (m *Manager) Disconnect() error {
	return m.setConnect(false)
}

func (m *Manager) setConnect(connect bool) error {
	cs := m.machine.CS
	if err := cs.TryLockBounded(); err != nil {
		return err
	}
	defer cs.Unlock()
	if err := cs.RequireStable(); err != nil {
		return err
	}
	if cs.Current.Mode == config.ModeAP {
		return wmerr.ErrInvalidState
	}

	cfg := cs.Current
	cfg.STAConnect = connect
	cs.New = cfg
	cs.ForceState(statemachine.Update)
	m.machine.Deps.Wake.Rearm(0)
	return nil
}

// GetState implements spec.md §4.5 get_state: a lock-free read.
func (m *Manager) GetState() statemachine.WmState {
	return m.machine.CS.GetState()
}

// IsConnected implements spec.md §4.5 is_connected: a lock-free test of
// the sta_connected flag.
func (m *Manager) IsConnected() bool {
	return m.machine.Deps.Flags.Test(eventflags.StaConnected)
}

// NVSValid implements spec.md §4.5/§9 nvs_valid (the single name chosen
// for the two spellings the source carried).
func (m *Manager) NVSValid() bool {
	_, err := m.machine.Deps.Store.Load()
	return err == nil
}
