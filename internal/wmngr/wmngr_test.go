package wmngr

import (
	"context"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"wifimgr/internal/config"
	"wifimgr/internal/eventflags"
	"wifimgr/internal/ipadapter/fakeadapter"
	"wifimgr/internal/nvs"
	"wifimgr/internal/radio/fakedriver"
	"wifimgr/internal/statemachine"
	"wifimgr/internal/wmerr"
)

func newTestManager(t *testing.T) (*Manager, *fakedriver.Driver) {
	t.Helper()
	store, err := nvs.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open nvs: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	drv := fakedriver.New()
	ipa := fakeadapter.New()
	log := zap.NewNop().Sugar()

	m, err := Init(context.Background(), drv, ipa, store, DispatchTask, log)
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	return m, drv
}

func TestInitSeedsDefaultsAndStartsUpdate(t *testing.T) {
	m, _ := newTestManager(t)

	if got := m.GetState(); got != statemachine.Update {
		t.Fatalf("state after init = %v, want update", got)
	}

	cfg, err := m.GetCfg()
	if err != nil {
		t.Fatalf("get_cfg: %v", err)
	}
	_ = cfg // initial current is the compiled defaults until the first step runs
}

func TestSetCfgRejectsWhileBusy(t *testing.T) {
	m, _ := newTestManager(t)
	m.machine.CS.ForceState(statemachine.Connecting)

	err := m.SetCfg(config.WifiConfig{Mode: config.ModeSTA, STA: config.StationParams{SSID: "x"}})
	if !wmerr.Is(err, wmerr.ErrInvalidState) {
		t.Fatalf("err = %v, want InvalidState", err)
	}
}

func TestSetCfgAcceptsWhenStable(t *testing.T) {
	m, _ := newTestManager(t)
	m.machine.CS.ForceState(statemachine.Idle)
	m.machine.CS.Current = config.WifiConfig{Mode: config.ModeAP, AP: config.AccessPointParams{SSID: "old"}}

	err := m.SetCfg(config.WifiConfig{Mode: config.ModeAP, AP: config.AccessPointParams{SSID: "new"}})
	if err != nil {
		t.Fatalf("set_cfg: %v", err)
	}
	if got := m.GetState(); got != statemachine.Update {
		t.Fatalf("state = %v, want update", got)
	}
}

func TestConnectRejectedOnAPOnly(t *testing.T) {
	m, _ := newTestManager(t)
	m.machine.CS.ForceState(statemachine.Idle)
	m.machine.CS.Current = config.WifiConfig{Mode: config.ModeAP}

	if err := m.Connect(); !wmerr.Is(err, wmerr.ErrInvalidState) {
		t.Fatalf("err = %v, want InvalidState", err)
	}
}

func TestIsConnectedTracksEventFlag(t *testing.T) {
	m, _ := newTestManager(t)
	if m.IsConnected() {
		t.Fatalf("expected not connected at init")
	}
	m.machine.Deps.Flags.SetFlag(eventflags.StaConnected)
	if !m.IsConnected() {
		t.Fatalf("expected connected after flag set")
	}
}

func TestNVSValidReflectsStore(t *testing.T) {
	m, _ := newTestManager(t)
	if m.NVSValid() {
		t.Fatalf("expected invalid nvs on fresh store")
	}
	if err := m.machine.Deps.Store.Save(config.WifiConfig{Mode: config.ModeAP}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if !m.NVSValid() {
		t.Fatalf("expected valid nvs after save")
	}
}
