package statemachine

import (
	"fmt"
	"time"

	"wifimgr/internal/config"
	"wifimgr/internal/eventflags"
	"wifimgr/internal/radio"
)

// Host network interface names the IP adapter operates on. A real
// deployment would source these from the radio driver's own naming, but
// spec.md §6 treats the IP adapter as an independent collaborator keyed
// by interface name, so a fixed pair is enough for this daemon's single
// physical radio.
const (
	apIfaceName  = "ap0"
	staIfaceName = "sta0"
)

// Step runs exactly one invocation of the state machine (spec.md §4.1's
// "step contract"): non-blocking lock acquisition, at most one
// transition, and a re-arm if the resulting delay is non-zero. Step is
// the Step body a wakeup.Source drives.
func (m *Machine) Step() {
	if !m.CS.TryLockNonBlocking() {
		m.Deps.Wake.Rearm(mutexWait)
		return
	}
	defer m.CS.Unlock()

	flags := m.Deps.Flags.Snapshot()
	delay := m.dispatch(flags)
	if delay > 0 {
		m.Deps.Wake.Rearm(delay)
	}
}

func (m *Machine) dispatch(flags eventflags.Mask) time.Duration {
	switch m.CS.GetState() {
	case Update:
		return m.stepUpdate()
	case Connecting:
		return m.stepConnecting(flags)
	case WpsStart:
		return m.stepWpsStart()
	case WpsActive:
		return m.stepWpsActive(flags)
	case Fallback:
		return m.stepFallback()
	case Connected:
		return m.stepConnected(flags)
	case Idle, Failed:
		return m.stepStableScan(flags)
	case Disconnecting:
		// reserved: never entered (spec.md §9 open question), a sink if it is.
		return 0
	default:
		m.CS.setState(Failed)
		return 0
	}
}

func (m *Machine) stepUpdate() time.Duration {
	_ = m.Deps.Radio.ScanStop()
	_ = m.Deps.Radio.Disconnect()

	if err := m.applyConfig(m.CS.New); err != nil {
		m.Deps.Log.Warnw("apply failed, falling back", "err", err)
		m.CS.setState(Fallback)
		return CfgDelay
	}
	m.CS.Current = m.CS.New

	if m.CS.Current.Mode == config.ModeAP || !m.CS.Current.STAConnect {
		if err := m.Deps.Store.Save(m.CS.Current); err != nil {
			m.Deps.Log.Errorw("persist on idle failed, falling back", "err", err)
			m.CS.setState(Fallback)
			return CfgDelay
		}
		m.CS.setState(Idle)
		return 0
	}

	m.CS.CfgTimestamp = m.Deps.now()
	m.CS.setState(Connecting)
	return CfgTicks
}

func (m *Machine) stepConnecting(flags eventflags.Mask) time.Duration {
	if flags.Test(eventflags.StaConnected) {
		if err := m.Deps.Store.Save(m.CS.Current); err != nil {
			m.Deps.Log.Errorw("persist on connect failed, falling back", "err", err)
			m.CS.setState(Fallback)
			return CfgDelay
		}
		m.CS.setState(Connected)
		return 0
	}
	if m.Deps.now().After(m.CS.CfgTimestamp.Add(CfgTimeout)) {
		m.CS.setState(Fallback)
		return CfgDelay
	}
	return CfgTicks
}

func (m *Machine) stepWpsStart() time.Duration {
	cfg, err := m.Deps.Radio.GetConfig(radio.IfaceSTA)
	if err != nil {
		m.Deps.Log.Warnw("wps snapshot failed, falling back", "err", err)
		m.CS.setState(Fallback)
		return CfgDelay
	}
	cfg.Mode = config.ModeAPSTA
	cfg.STA = config.StationParams{}
	m.CS.New = cfg

	m.Deps.Flags.ClearFlag(eventflags.WpsSuccess)
	m.Deps.Flags.ClearFlag(eventflags.WpsFailed)

	if err := m.Deps.Radio.WPSEnable(); err != nil {
		m.Deps.Log.Warnw("wps enable failed, falling back", "err", err)
		m.CS.setState(Fallback)
		return CfgDelay
	}
	if err := m.Deps.Radio.WPSStart(int(CfgTimeout.Seconds())); err != nil {
		m.Deps.Log.Warnw("wps start failed, falling back", "err", err)
		m.CS.setState(Fallback)
		return CfgDelay
	}

	m.CS.CfgTimestamp = m.Deps.now()
	m.CS.setState(WpsActive)
	return CfgTicks
}

func (m *Machine) stepWpsActive(flags eventflags.Mask) time.Duration {
	if flags.Test(eventflags.WpsSuccess) {
		_ = m.Deps.Radio.WPSDisable()
		// Best-effort: the source does not check this error either
		// (spec.md §9), so on a failed read New becomes whatever config
		// GetConfig returned alongside the error, with only Mode and
		// STAConnect forced.
		cfg, _ := m.Deps.Radio.GetConfig(radio.IfaceSTA)
		cfg.Mode = config.ModeAPSTA
		cfg.STAConnect = true
		m.CS.New = cfg
		m.CS.setState(Update)
		return CfgDelay
	}
	if flags.Test(eventflags.WpsFailed) || m.Deps.now().After(m.CS.CfgTimestamp.Add(CfgTimeout)) {
		_ = m.Deps.Radio.WPSDisable()
		m.CS.setState(Fallback)
		return CfgDelay
	}
	return CfgTicks
}

func (m *Machine) stepFallback() time.Duration {
	_ = m.Deps.Radio.Disconnect()
	if err := m.applyConfig(m.CS.Saved); err != nil {
		m.Deps.Log.Errorw("fall-back apply failed", "err", err)
	}
	m.CS.Current = m.CS.Saved
	m.CS.setState(Failed)
	return 0
}

func (m *Machine) stepConnected(flags eventflags.Mask) time.Duration {
	if !flags.Test(eventflags.StaConnected) {
		m.CS.setState(Update)
		return CfgDelay
	}
	m.CS.setState(Idle)
	return 0
}

// stepStableScan implements the scan interleave (spec.md §4.3), run
// only while state <= Idle.
func (m *Machine) stepStableScan(flags eventflags.Mask) time.Duration {
	switch {
	case flags.Test(eventflags.ScanStart):
		m.startScan()
	case flags.Test(eventflags.ScanDone):
		m.collectScan()
	}

	after := m.Deps.Flags.Snapshot()
	if after.Test(eventflags.ScanStart) || after.Test(eventflags.ScanDone) {
		return CfgDelay
	}
	return 0
}

func (m *Machine) startScan() {
	defer m.Deps.Flags.ClearFlag(eventflags.ScanStart)

	if !m.CS.Current.Mode.HasSTA() {
		m.Deps.Log.Debugw("scan requested in AP-only mode, ignoring")
		return
	}
	if m.Deps.Flags.Test(eventflags.ScanRunning) || m.Deps.Flags.Test(eventflags.ScanDone) {
		return
	}
	if err := m.Deps.Radio.ScanStart(true, true); err != nil {
		m.Deps.Log.Warnw("scan start failed", "err", err)
		return
	}
	m.Deps.Flags.SetFlag(eventflags.ScanRunning)
}

func (m *Machine) collectScan() {
	defer func() {
		m.Deps.Flags.ClearFlag(eventflags.ScanRunning)
		m.Deps.Flags.ClearFlag(eventflags.ScanDone)
	}()

	count, err := m.Deps.Radio.ScanGetCount()
	if err != nil || count == 0 {
		return
	}
	if count > 32 {
		count = 32
	}
	records, err := m.Deps.Radio.ScanGetRecords(count)
	if err != nil {
		m.Deps.Log.Warnw("scan collect failed", "err", err)
		return
	}
	m.CS.ScanRef.Publish(records)
}

// applyConfig pushes cfg to the radio and, for STA-bearing modes, starts
// the matching IP configuration path (spec.md §4.1 "push new to the
// radio").
func (m *Machine) applyConfig(cfg config.WifiConfig) error {
	if err := m.Deps.Radio.SetMode(cfg.Mode); err != nil {
		return fmt.Errorf("set mode: %w", err)
	}
	if cfg.Mode.HasAP() {
		cfg.AP.MaxClients = config.MaxAPClients
		if err := m.Deps.Radio.SetConfig(radio.IfaceAP, cfg); err != nil {
			return fmt.Errorf("set ap config: %w", err)
		}
	}
	if cfg.Mode.HasSTA() {
		if err := m.Deps.Radio.SetConfig(radio.IfaceSTA, cfg); err != nil {
			return fmt.Errorf("set sta config: %w", err)
		}
	}
	if err := m.Deps.Radio.Start(); err != nil {
		return fmt.Errorf("start: %w", err)
	}

	if cfg.Mode.HasSTA() && cfg.STAConnect {
		if err := m.Deps.Radio.Connect(); err != nil {
			return fmt.Errorf("connect: %w", err)
		}
	}

	if cfg.Mode.HasSTA() {
		if cfg.STAStatic {
			for i, d := range cfg.STADNS {
				if err := m.Deps.IPAdapt.SetDNSInfo(staIfaceName, i, d); err != nil {
					m.Deps.Log.Warnw("set dns failed", "idx", i, "err", err)
				}
			}
		} else if err := m.Deps.IPAdapt.DHCPCStart(staIfaceName); err != nil {
			return fmt.Errorf("dhcpc start: %w", err)
		}
	}
	return nil
}
