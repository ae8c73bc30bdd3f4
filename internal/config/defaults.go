package config

import (
	"net"

	"go.uber.org/zap"
)

// Compiled-in defaults (spec.md §4.6). These are parsed at startup; any
// parse failure or length violation substitutes the documented
// hard-coded fallback and logs the substitution.
const (
	DefaultAPIPStr      = "192.168.4.1"
	DefaultAPNetmaskStr = "255.255.255.0"
	DefaultAPGatewayStr = "192.168.4.1"
	DefaultAPSSID       = "ESP WiFi Manager"
	DefaultAPPassphrase = ""
)

// Defaults builds the compiled-default WifiConfig (spec.md §4.6). Mode
// defaults to APSTA so a fresh device is reachable both by its own
// network and by any pre-provisioned one. The returned config has
// IsDefault set true, so callers must never persist it directly.
func Defaults(log *zap.SugaredLogger) WifiConfig {
	apIP := parseIPOrFallback(log, "ap_ip", DefaultAPIPStr, net.ParseIP(DefaultAPIPStr))
	apNetmask := parseIPOrFallback(log, "ap_netmask", DefaultAPNetmaskStr, net.ParseIP(DefaultAPNetmaskStr))
	apGateway := parseIPOrFallback(log, "ap_gateway", DefaultAPGatewayStr, net.ParseIP(DefaultAPGatewayStr))
	ssid := DefaultAPSSID
	if err := ValidateSSID(ssid); err != nil {
		log.Warnw("compiled default SSID failed validation, substituting fallback",
			"ssid", ssid, "error", err)
		ssid = DefaultAPSSID
	}

	return WifiConfig{
		IsDefault: true,
		Mode:      ModeAPSTA,
		AP: AccessPointParams{
			SSID:       ssid,
			Passphrase: DefaultAPPassphrase,
			Channel:    6,
			Auth:       AuthOpen,
			MaxClients: MaxAPClients,
		},
		APIP: IPv4Info{
			IP:      apIP,
			Netmask: apNetmask,
			Gateway: apGateway,
		},
		STA:        StationParams{},
		STAStatic:  false,
		STAConnect: false,
	}
}

// parseIPOrFallback parses s; on failure it logs the substitution and
// returns the documented hard-coded fallback (here, the same compiled
// constant re-parsed, since the fallback values equal the defaults —
// kept as a named helper so a future per-site override that fails
// parsing has somewhere to fall through to).
func parseIPOrFallback(log *zap.SugaredLogger, field, s string, fallback net.IP) net.IP {
	ip := net.ParseIP(s)
	if ip == nil {
		log.Warnw("compiled default failed to parse, substituting hard-coded fallback",
			"field", field, "value", s)
		return fallback
	}
	return ip
}
