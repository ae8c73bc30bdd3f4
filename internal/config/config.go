// Package config defines the WifiConfig value type (spec.md §3) and the
// compiled-default / validation logic of spec.md §4.6.
package config

import (
	"fmt"
	"net"
)

// Mode selects which role(s) the radio plays.
type Mode uint32

const (
	// ModeAP: the device hosts its own network.
	ModeAP Mode = iota
	// ModeSTA: the device joins an existing network.
	ModeSTA
	// ModeAPSTA: both roles simultaneously.
	ModeAPSTA
)

func (m Mode) String() string {
	switch m {
	case ModeAP:
		return "ap"
	case ModeSTA:
		return "sta"
	case ModeAPSTA:
		return "apsta"
	default:
		return fmt.Sprintf("mode(%d)", uint32(m))
	}
}

// HasAP reports whether m includes the access-point role.
func (m Mode) HasAP() bool { return m == ModeAP || m == ModeAPSTA }

// HasSTA reports whether m includes the station role.
func (m Mode) HasSTA() bool { return m == ModeSTA || m == ModeAPSTA }

// AuthMode is the AP authentication mode.
type AuthMode uint32

const (
	AuthOpen AuthMode = iota
	AuthWPA2PSK
	AuthWPA3SAE
	AuthWPA2WPA3Mixed
)

// MaxAPClients is the client count the AP section is pinned to whenever
// a config is applied (spec.md §3).
const MaxAPClients = 3

// AccessPointParams describes the network the device hosts.
type AccessPointParams struct {
	SSID       string
	Passphrase string
	Channel    int
	Auth       AuthMode
	MaxClients int
}

// StationParams describes the network the device joins.
type StationParams struct {
	SSID       string
	Passphrase string
	BSSID      string // pinned hardware address, only honoured if PinBSSID
	PinBSSID   bool
}

// IPv4Info is an IPv4 address/netmask/gateway triple.
type IPv4Info struct {
	IP      net.IP
	Netmask net.IP
	Gateway net.IP
}

func (a IPv4Info) Equal(b IPv4Info) bool {
	return a.IP.Equal(b.IP) && a.Netmask.Equal(b.Netmask) && a.Gateway.Equal(b.Gateway)
}

// MaxDNSEntries bounds sta_dns, spec.md §3 "[DnsEntry; N]".
const MaxDNSEntries = 2

// DNSEntry is one static DNS server address.
type DNSEntry struct {
	IP net.IP
}

// WifiConfig is the value type persisted to and applied from the radio
// (spec.md §3).
type WifiConfig struct {
	IsDefault bool // true iff synthesized from compiled defaults; never persisted

	Mode Mode

	AP   AccessPointParams
	APIP IPv4Info

	STA StationParams

	STAStatic bool // true => use STAIP/STADNS verbatim, suppress DHCP client
	STAIP     IPv4Info
	STADNS    []DNSEntry

	STAConnect bool // true => attempt to join target network after apply
}

// SameAP reports whether the AP-bearing section of two configs match.
// Only meaningful when both configs' Mode.HasAP().
func (c WifiConfig) SameAP(o WifiConfig) bool {
	return c.AP.SSID == o.AP.SSID &&
		c.AP.Passphrase == o.AP.Passphrase &&
		c.AP.Channel == o.AP.Channel &&
		c.AP.Auth == o.AP.Auth &&
		c.APIP.Equal(o.APIP)
}

// SameSTA reports whether the STA-bearing section of two configs match.
// Only meaningful when both configs' Mode.HasSTA().
func (c WifiConfig) SameSTA(o WifiConfig) bool {
	if c.STA.SSID != o.STA.SSID || c.STA.Passphrase != o.STA.Passphrase ||
		c.STA.BSSID != o.STA.BSSID || c.STA.PinBSSID != o.STA.PinBSSID ||
		c.STAStatic != o.STAStatic || c.STAConnect != o.STAConnect {
		return false
	}
	if c.STAStatic && !c.STAIP.Equal(o.STAIP) {
		return false
	}
	return true
}

// Differs implements the "differs in mode, AP section (when AP-bearing),
// or STA section (when STA-bearing)" test from spec.md §4.5 set_cfg.
func (c WifiConfig) Differs(o WifiConfig) bool {
	if c.Mode != o.Mode {
		return true
	}
	if c.Mode.HasAP() && !c.SameAP(o) {
		return true
	}
	if c.Mode.HasSTA() && !c.SameSTA(o) {
		return true
	}
	return false
}

// ValidateSSID enforces the 1..32 byte SSID length invariant.
func ValidateSSID(ssid string) error {
	if len(ssid) < 1 || len(ssid) > 32 {
		return fmt.Errorf("ssid length %d out of range [1,32]", len(ssid))
	}
	return nil
}
