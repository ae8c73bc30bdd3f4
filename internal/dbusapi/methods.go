package dbusapi

import (
	"net"

	"github.com/godbus/dbus/v5"

	"wifimgr/internal/config"
	"wifimgr/internal/wmerr"
)

// ScanRecord is the D-Bus-marshalable projection of radio.ApRecord.
type ScanRecord struct {
	SSID    string
	BSSID   string
	Channel int32
	RSSI    int16
	Auth    byte
	Hidden  bool
}

// Ping is a liveness/diagnostics check, supplementing spec.md §4.5's
// operation set the way x-network's D-Bus service exposes status
// methods beyond the bare state machine.
func (s *Service) Ping() (string, *dbus.Error) {
	return "pong", nil
}

// SetCfg implements spec.md §4.5 set_cfg over D-Bus. params uses the
// same key names GetCfg returns.
func (s *Service) SetCfg(params map[string]dbus.Variant) (bool, *dbus.Error) {
	cfg, err := cfgFromVariants(params)
	if err != nil {
		return false, dbus.MakeFailedError(err)
	}
	if err := s.mgr.SetCfg(cfg); err != nil {
		return false, toDBusError(err)
	}
	return true, nil
}

// GetCfg implements spec.md §4.5 get_cfg over D-Bus.
func (s *Service) GetCfg() (map[string]dbus.Variant, *dbus.Error) {
	cfg, err := s.mgr.GetCfg()
	if err != nil {
		return nil, toDBusError(err)
	}
	return cfgToVariants(cfg), nil
}

func (s *Service) StartWPS() (bool, *dbus.Error) {
	if err := s.mgr.StartWPS(); err != nil {
		return false, toDBusError(err)
	}
	return true, nil
}

func (s *Service) StartScan() (bool, *dbus.Error) {
	if err := s.mgr.StartScan(); err != nil {
		return false, toDBusError(err)
	}
	return true, nil
}

// GetScanResults implements spec.md §4.3/§4.5 get_scan, borrowing and
// releasing the snapshot within the call instead of handing callers a
// live reference across the bus.
func (s *Service) GetScanResults() ([]ScanRecord, *dbus.Error) {
	snap, err := s.mgr.GetScan()
	if err != nil {
		if wmerr.Is(err, wmerr.ErrNotFound) {
			return []ScanRecord{}, nil
		}
		return nil, toDBusError(err)
	}
	defer s.mgr.PutScan(snap)

	out := make([]ScanRecord, 0, len(snap.Records))
	for _, r := range snap.Records {
		out = append(out, ScanRecord{
			SSID:    r.SSID,
			BSSID:   r.BSSID,
			Channel: int32(r.Channel),
			RSSI:    r.RSSI,
			Auth:    byte(r.Auth),
			Hidden:  r.Hidden,
		})
	}
	return out, nil
}

func (s *Service) Connect() (bool, *dbus.Error) {
	if err := s.mgr.Connect(); err != nil {
		return false, toDBusError(err)
	}
	return true, nil
}

func (s *Service) Disconnect() (bool, *dbus.Error) {
	if err := s.mgr.Disconnect(); err != nil {
		return false, toDBusError(err)
	}
	return true, nil
}

// toDBusError maps wmerr sentinel kinds onto named D-Bus errors so
// clients can dbus.Error.Error() == "org.wifimgr.Manager.Error.*"
// without parsing message text.
func toDBusError(err error) *dbus.Error {
	switch {
	case wmerr.Is(err, wmerr.ErrTimeout):
		return dbus.NewError(Interface+".Error.Timeout", []interface{}{err.Error()})
	case wmerr.Is(err, wmerr.ErrInvalidState):
		return dbus.NewError(Interface+".Error.InvalidState", []interface{}{err.Error()})
	case wmerr.Is(err, wmerr.ErrNotFound):
		return dbus.NewError(Interface+".Error.NotFound", []interface{}{err.Error()})
	case wmerr.Is(err, wmerr.ErrInvalidArg):
		return dbus.NewError(Interface+".Error.InvalidArg", []interface{}{err.Error()})
	}
	return dbus.MakeFailedError(err)
}

func cfgToVariants(cfg config.WifiConfig) map[string]dbus.Variant {
	out := map[string]dbus.Variant{
		"Mode":       dbus.MakeVariant(uint32(cfg.Mode)),
		"STAConnect": dbus.MakeVariant(cfg.STAConnect),
		"ApSsid":     dbus.MakeVariant(cfg.AP.SSID),
		"ApPass":     dbus.MakeVariant(cfg.AP.Passphrase),
		"ApChannel":  dbus.MakeVariant(int32(cfg.AP.Channel)),
		"StaSsid":    dbus.MakeVariant(cfg.STA.SSID),
		"StaPass":    dbus.MakeVariant(cfg.STA.Passphrase),
		"StaStatic":  dbus.MakeVariant(cfg.STAStatic),
	}
	if cfg.APIP.IP != nil {
		out["ApIp"] = dbus.MakeVariant(cfg.APIP.IP.String())
	}
	return out
}

func cfgFromVariants(params map[string]dbus.Variant) (config.WifiConfig, error) {
	var cfg config.WifiConfig
	if v, ok := params["Mode"]; ok {
		cfg.Mode = config.Mode(v.Value().(uint32))
	}
	if v, ok := params["STAConnect"]; ok {
		cfg.STAConnect = v.Value().(bool)
	}
	if v, ok := params["ApSsid"]; ok {
		cfg.AP.SSID = v.Value().(string)
	}
	if v, ok := params["ApPass"]; ok {
		cfg.AP.Passphrase = v.Value().(string)
	}
	if v, ok := params["ApChannel"]; ok {
		cfg.AP.Channel = int(v.Value().(int32))
	}
	if v, ok := params["ApIp"]; ok {
		ip := net.ParseIP(v.Value().(string))
		if ip == nil {
			return cfg, wmerr.ErrInvalidArg
		}
		cfg.APIP.IP = ip
	}
	if v, ok := params["StaSsid"]; ok {
		cfg.STA.SSID = v.Value().(string)
	}
	if v, ok := params["StaPass"]; ok {
		cfg.STA.Passphrase = v.Value().(string)
	}
	if v, ok := params["StaStatic"]; ok {
		cfg.STAStatic = v.Value().(bool)
	}
	return cfg, nil
}
