package config

import "testing"

func TestValidateSSID(t *testing.T) {
	cases := []struct {
		ssid string
		ok   bool
	}{
		{"", false},
		{"a", true},
		{"012345678901234567890123456789012", false}, // 33 bytes
		{"0123456789012345678901234567890", true},    // 31 bytes
	}
	for _, c := range cases {
		err := ValidateSSID(c.ssid)
		if (err == nil) != c.ok {
			t.Errorf("ValidateSSID(%q) err=%v, want ok=%v", c.ssid, err, c.ok)
		}
	}
}

func TestDiffersOnModeChange(t *testing.T) {
	a := WifiConfig{Mode: ModeAP}
	b := WifiConfig{Mode: ModeSTA}
	if !a.Differs(b) {
		t.Fatalf("expected differing modes to differ")
	}
}

func TestDiffersIgnoresUnrelatedSectionWhenModeExcludesIt(t *testing.T) {
	a := WifiConfig{Mode: ModeAP, AP: AccessPointParams{SSID: "x"}, STA: StationParams{SSID: "unused-a"}}
	b := WifiConfig{Mode: ModeAP, AP: AccessPointParams{SSID: "x"}, STA: StationParams{SSID: "unused-b"}}
	if a.Differs(b) {
		t.Fatalf("AP-only configs should not differ on an ignored STA section")
	}
}

func TestDiffersOnAPSection(t *testing.T) {
	a := WifiConfig{Mode: ModeAP, AP: AccessPointParams{SSID: "x"}}
	b := WifiConfig{Mode: ModeAP, AP: AccessPointParams{SSID: "y"}}
	if !a.Differs(b) {
		t.Fatalf("expected differing AP sections to differ")
	}
}

func TestDiffersOnSTASection(t *testing.T) {
	a := WifiConfig{Mode: ModeSTA, STA: StationParams{SSID: "x", Passphrase: "p"}}
	b := WifiConfig{Mode: ModeSTA, STA: StationParams{SSID: "x", Passphrase: "q"}}
	if !a.Differs(b) {
		t.Fatalf("expected differing STA passphrases to differ")
	}
}

func TestModeHasAPHasSTA(t *testing.T) {
	if !ModeAPSTA.HasAP() || !ModeAPSTA.HasSTA() {
		t.Fatalf("APSTA should have both roles")
	}
	if ModeAP.HasSTA() {
		t.Fatalf("AP-only must not report HasSTA")
	}
	if ModeSTA.HasAP() {
		t.Fatalf("STA-only must not report HasAP")
	}
}
