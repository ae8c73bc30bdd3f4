package nvs

import (
	"net"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	bolt "go.etcd.io/bbolt"

	"wifimgr/internal/config"
	"wifimgr/internal/wmerr"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nvs.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func sampleConfig() config.WifiConfig {
	return config.WifiConfig{
		Mode: config.ModeSTA,
		AP: config.AccessPointParams{
			SSID:       "hostnet",
			Passphrase: "hostpass",
			Channel:    6,
			Auth:       config.AuthWPA2PSK,
			MaxClients: config.MaxAPClients,
		},
		APIP: config.IPv4Info{
			IP:      net.ParseIP("192.168.4.1").To4(),
			Netmask: net.ParseIP("255.255.255.0").To4(),
			Gateway: net.ParseIP("192.168.4.1").To4(),
		},
		STA: config.StationParams{
			SSID:       "home",
			Passphrase: "secret",
			BSSID:      "aa:bb:cc:dd:ee:ff",
			PinBSSID:   true,
		},
		STAStatic: true,
		STAIP: config.IPv4Info{
			IP:      net.ParseIP("10.0.0.5").To4(),
			Netmask: net.ParseIP("255.255.255.0").To4(),
			Gateway: net.ParseIP("10.0.0.1").To4(),
		},
		STADNS: []config.DNSEntry{
			{IP: net.ParseIP("8.8.8.8").To4()},
			{IP: net.ParseIP("8.8.4.4").To4()},
		},
		STAConnect: true,
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := openTestStore(t)
	want := sampleConfig()

	if err := s.Save(want); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := s.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestSaveDefaultLeavesStoreEmpty(t *testing.T) {
	s := openTestStore(t)

	if err := s.Save(config.WifiConfig{IsDefault: true, Mode: config.ModeAPSTA}); err != nil {
		t.Fatalf("save default: %v", err)
	}
	if _, err := s.Load(); !wmerr.Is(err, wmerr.ErrNotFound) {
		t.Fatalf("load after default save: err = %v, want NotFound", err)
	}
}

func TestLoadOnEmptyStoreReturnsNotFound(t *testing.T) {
	s := openTestStore(t)
	if _, err := s.Load(); !wmerr.Is(err, wmerr.ErrNotFound) {
		t.Fatalf("err = %v, want NotFound", err)
	}
}

func TestCorruptedBlobReportsNotFound(t *testing.T) {
	s := openTestStore(t)
	if err := s.Save(sampleConfig()); err != nil {
		t.Fatalf("save: %v", err)
	}

	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(Namespace)
		return b.Put([]byte(keySTA), []byte{0x01, 0x02})
	})
	if err != nil {
		t.Fatalf("corrupt sta blob: %v", err)
	}

	if _, err := s.Load(); !wmerr.Is(err, wmerr.ErrNotFound) {
		t.Fatalf("err = %v, want NotFound after corruption", err)
	}
}
