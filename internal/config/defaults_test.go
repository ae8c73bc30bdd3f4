package config

import (
	"testing"

	"go.uber.org/zap"
)

func TestDefaultsAreApSTAWithDocumentedFallbacks(t *testing.T) {
	log := zap.NewNop().Sugar()
	d := Defaults(log)

	if !d.IsDefault {
		t.Fatalf("compiled defaults must set IsDefault")
	}
	if d.Mode != ModeAPSTA {
		t.Fatalf("mode = %v, want apsta", d.Mode)
	}
	if d.AP.SSID != DefaultAPSSID {
		t.Fatalf("ssid = %q, want %q", d.AP.SSID, DefaultAPSSID)
	}
	if d.APIP.IP.String() != DefaultAPIPStr {
		t.Fatalf("ap ip = %v, want %v", d.APIP.IP, DefaultAPIPStr)
	}
	if d.AP.MaxClients != MaxAPClients {
		t.Fatalf("max clients = %d, want %d", d.AP.MaxClients, MaxAPClients)
	}
}
