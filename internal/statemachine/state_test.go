package statemachine

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"

	"wifimgr/internal/config"
	"wifimgr/internal/eventflags"
	"wifimgr/internal/ipadapter/fakeadapter"
	"wifimgr/internal/nvs"
	"wifimgr/internal/radio"
	"wifimgr/internal/radio/fakedriver"
)

// noopWake is a wakeup.Source that just records the last requested delay,
// since tests drive Step() directly rather than relying on a real timer.
type noopWake struct {
	lastDelay time.Duration
	arms      int
}

func (w *noopWake) Rearm(delay time.Duration) {
	w.lastDelay = delay
	w.arms++
}
func (w *noopWake) Stop() {}

func newTestMachine(t *testing.T) (*Machine, *fakedriver.Driver, *fakeadapter.Adapter, *eventflags.Set, *nvs.Store) {
	t.Helper()

	dir := t.TempDir()
	store, err := nvs.Open(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("open nvs: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	drv := fakedriver.New()
	ipa := fakeadapter.New()
	flags := &eventflags.Set{}
	wake := &noopWake{}
	log := zap.NewNop().Sugar()

	defaults := config.WifiConfig{
		IsDefault: true,
		Mode:      config.ModeAPSTA,
		AP:        config.AccessPointParams{SSID: "ESP WiFi Manager", MaxClients: config.MaxAPClients},
	}

	cs := NewConfigState(defaults)
	deps := &Deps{
		Radio:   drv,
		IPAdapt: ipa,
		Flags:   flags,
		Store:   store,
		Wake:    wake,
		Log:     log,
	}
	m := New(cs, deps)
	return m, drv, ipa, flags, store
}

func TestUpdateToIdleWhenAPOnly(t *testing.T) {
	m, _, _, _, _ := newTestMachine(t)

	m.CS.New = config.WifiConfig{Mode: config.ModeAP, AP: config.AccessPointParams{SSID: "net"}}
	m.CS.setState(Update)

	m.Step()

	if got := m.CS.GetState(); got != Idle {
		t.Fatalf("state = %v, want idle", got)
	}
	if !m.CS.Current.Mode.HasAP() {
		t.Fatalf("current config not applied")
	}
}

func TestUpdateToConnectingThenConnected(t *testing.T) {
	m, _, _, flags, store := newTestMachine(t)

	m.CS.New = config.WifiConfig{
		Mode:       config.ModeSTA,
		STA:        config.StationParams{SSID: "home", Passphrase: "secret"},
		STAConnect: true,
	}
	m.CS.setState(Update)

	m.Step()
	if got := m.CS.GetState(); got != Connecting {
		t.Fatalf("state = %v, want connecting", got)
	}

	flags.SetFlag(eventflags.StaConnected)
	m.Step()
	if got := m.CS.GetState(); got != Connected {
		t.Fatalf("state = %v, want connected", got)
	}

	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.STA.SSID != "home" {
		t.Fatalf("persisted ssid = %q, want home", loaded.STA.SSID)
	}

	m.Step()
	if got := m.CS.GetState(); got != Idle {
		t.Fatalf("state = %v, want idle after connected settles", got)
	}
}

func TestConnectingTimesOutToFallback(t *testing.T) {
	m, _, _, _, _ := newTestMachine(t)

	now := time.Now()
	m.Deps.Now = func() time.Time { return now }

	m.CS.Saved = config.WifiConfig{Mode: config.ModeAP, AP: config.AccessPointParams{SSID: "saved"}}
	m.CS.New = config.WifiConfig{Mode: config.ModeSTA, STA: config.StationParams{SSID: "bad"}, STAConnect: true}
	m.CS.setState(Update)
	m.Step()
	if got := m.CS.GetState(); got != Connecting {
		t.Fatalf("state = %v, want connecting", got)
	}

	now = now.Add(CfgTimeout + time.Second)
	m.Step()
	if got := m.CS.GetState(); got != Fallback {
		t.Fatalf("state = %v, want fallback", got)
	}

	m.Step()
	if got := m.CS.GetState(); got != Failed {
		t.Fatalf("state = %v, want failed", got)
	}
	if m.CS.Current.AP.SSID != "saved" {
		t.Fatalf("current not rolled back to saved config")
	}
}

func TestWPSFlow(t *testing.T) {
	m, drv, _, flags, store := newTestMachine(t)

	m.CS.Saved = config.WifiConfig{Mode: config.ModeAPSTA}
	m.CS.setState(WpsStart)
	m.Step()
	if got := m.CS.GetState(); got != WpsActive {
		t.Fatalf("state = %v, want wps_active", got)
	}

	drv.SetNextGetConfigResp(config.WifiConfig{
		Mode: config.ModeSTA,
		STA:  config.StationParams{SSID: "guest", Passphrase: "pw"},
	})
	flags.SetFlag(eventflags.WpsSuccess)
	m.Step()
	if got := m.CS.GetState(); got != Update {
		t.Fatalf("state = %v, want update", got)
	}
	if !m.CS.New.STAConnect {
		t.Fatalf("sta_connect not forced true after wps success")
	}

	m.Step()
	if got := m.CS.GetState(); got != Connecting {
		t.Fatalf("state = %v, want connecting", got)
	}

	flags.SetFlag(eventflags.StaConnected)
	m.Step()
	if got := m.CS.GetState(); got != Connected {
		t.Fatalf("state = %v, want connected", got)
	}

	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.STA.SSID != "guest" {
		t.Fatalf("persisted ssid = %q, want guest", loaded.STA.SSID)
	}
}

func TestScanConcurrencyAcrossPublish(t *testing.T) {
	m, drv, _, flags, _ := newTestMachine(t)

	m.CS.Current = config.WifiConfig{Mode: config.ModeSTA}
	m.CS.setState(Idle)

	drv.SetScanResults([]radio.ApRecord{{SSID: "a"}, {SSID: "b"}, {SSID: "c"}, {SSID: "d"}, {SSID: "e"}})
	flags.SetFlag(eventflags.ScanStart)
	m.Step() // issues scan_start
	flags.SetFlag(eventflags.ScanDone)
	m.Step() // collects first snapshot

	snapA := m.CS.ScanRef.Borrow()
	if snapA == nil || len(snapA.Records) != 5 {
		t.Fatalf("snapshot A = %+v, want 5 records", snapA)
	}

	drv.SetScanResults(make([]radio.ApRecord, 10))
	flags.SetFlag(eventflags.ScanStart)
	m.Step()
	flags.SetFlag(eventflags.ScanDone)
	m.Step()

	snapB := m.CS.ScanRef.Borrow()
	if snapB == nil || len(snapB.Records) != 10 {
		t.Fatalf("snapshot B = %+v, want 10 records", snapB)
	}

	if len(snapA.Records) != 5 {
		t.Fatalf("snapshot A mutated after B published")
	}
}

func TestBusyRejectionIsCallerResponsibility(t *testing.T) {
	// Step() itself does not reject callers; InvalidState is enforced by
	// wmngr's public-API layer checking ConfigState.RequireStable before
	// calling into Step. Here we only confirm IsStable's partition.
	for s := Failed; s <= Fallback; s++ {
		want := s <= Idle
		if got := s.IsStable(); got != want {
			t.Fatalf("state %v IsStable() = %v, want %v", s, got, want)
		}
	}
}

func TestMain(m *testing.M) {
	os.Exit(m.Run())
}
