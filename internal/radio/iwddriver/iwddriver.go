// Package iwddriver is the Linux radio.Driver backend, talking to
// iwd (net.connman.iwd) over D-Bus the way x-network/internal/iwd
// talks to it: an ObjectManager walk to find the Station/Device/
// AccessPoint object paths, a PropertiesChanged subscription fed into
// a goroutine, and a small object-path cache instead of polling.
package iwddriver

import (
	"context"
	"fmt"
	"sync"

	"github.com/godbus/dbus/v5"
	"go.uber.org/zap"

	"wifimgr/internal/config"
	"wifimgr/internal/ingest"
	"wifimgr/internal/radio"
)

const (
	iwdService          = "net.connman.iwd"
	deviceIface         = "net.connman.iwd.Device"
	stationIface        = "net.connman.iwd.Station"
	accessPointIface    = "net.connman.iwd.AccessPoint"
	networkIface        = "net.connman.iwd.Network"
	simpleConfigIface   = "net.connman.iwd.SimpleConfiguration"
	propertiesChangedMi = "org.freedesktop.DBus.Properties.PropertiesChanged"
)

// Driver implements radio.Driver against a real iwd daemon.
type Driver struct {
	conn *dbus.Conn
	log  *zap.SugaredLogger
	cb   ingest.Callback

	mu          sync.Mutex
	devicePath  dbus.ObjectPath
	stationPath dbus.ObjectPath
	apPath      dbus.ObjectPath

	lastNetworks []dbus.ObjectPath
}

// New connects to the system bus. The returned Driver is not usable
// until Init is called (spec.md §6 capability surface: Init is the
// one-time setup step).
func New(log *zap.SugaredLogger) (*Driver, error) {
	conn, err := dbus.SystemBus()
	if err != nil {
		return nil, fmt.Errorf("iwddriver: system bus: %w", err)
	}
	return &Driver{conn: conn, log: log}, nil
}

func (d *Driver) Init(ctx context.Context, cfg radio.InitConfig, cb ingest.Callback) error {
	d.cb = cb

	if err := d.findDevice(); err != nil {
		return fmt.Errorf("iwddriver: init: %w", err)
	}
	if err := d.subscribeSignals(); err != nil {
		d.log.Warnw("iwd signal subscription failed", "err", err)
	}
	return nil
}

// findDevice walks the object tree once, the way x-network's
// findDevice does a single-attempt ObjectManager call rather than
// polling.
func (d *Driver) findDevice() error {
	obj := d.conn.Object(iwdService, "/")

	var result map[dbus.ObjectPath]map[string]map[string]dbus.Variant
	if err := obj.Call("org.freedesktop.DBus.ObjectManager.GetManagedObjects", 0).Store(&result); err != nil {
		return fmt.Errorf("get managed objects: %w", err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	for path, ifaces := range result {
		if _, ok := ifaces[stationIface]; ok {
			d.stationPath = path
		}
		if _, ok := ifaces[deviceIface]; ok {
			d.devicePath = path
		}
		if _, ok := ifaces[accessPointIface]; ok {
			d.apPath = path
		}
	}
	if d.devicePath == "" {
		return fmt.Errorf("no wifi device found")
	}
	return nil
}

func (d *Driver) subscribeSignals() error {
	rule := fmt.Sprintf("type='signal',sender='%s',interface='org.freedesktop.DBus.Properties',member='PropertiesChanged'", iwdService)
	if call := d.conn.BusObject().Call("org.freedesktop.DBus.AddMatch", 0, rule); call.Err != nil {
		return call.Err
	}

	ch := make(chan *dbus.Signal, 16)
	d.conn.Signal(ch)

	go func() {
		for sig := range ch {
			if sig.Name == propertiesChangedMi {
				d.handlePropertiesChanged(sig)
			}
		}
	}()
	return nil
}

func (d *Driver) handlePropertiesChanged(sig *dbus.Signal) {
	if len(sig.Body) < 2 {
		return
	}
	iface, ok := sig.Body[0].(string)
	if !ok {
		return
	}
	props, ok := sig.Body[1].(map[string]dbus.Variant)
	if !ok {
		return
	}

	switch iface {
	case stationIface:
		d.handleStationChange(props)
	case deviceIface:
		d.handleDeviceChange(props)
	case simpleConfigIface:
		d.handleWPSChange(props)
	}
}

func (d *Driver) handleStationChange(props map[string]dbus.Variant) {
	if v, ok := props["State"]; ok {
		switch v.Value().(string) {
		case "connected":
			d.emit(ingest.CategorySTA, ingest.StaConnected, 0)
		case "disconnected":
			d.emit(ingest.CategorySTA, ingest.StaDisconnected, 0)
		}
	}
	if v, ok := props["Scanning"]; ok && !v.Value().(bool) {
		d.emit(ingest.CategoryScan, ingest.ScanComplete, 0)
	}
}

func (d *Driver) handleDeviceChange(props map[string]dbus.Variant) {
	if v, ok := props["Powered"]; ok {
		if v.Value().(bool) {
			d.emit(ingest.CategorySTA, ingest.StaStart, 0)
		} else {
			d.emit(ingest.CategorySTA, ingest.StaStop, 0)
		}
	}
}

func (d *Driver) handleWPSChange(props map[string]dbus.Variant) {
	if v, ok := props["State"]; ok {
		switch v.Value().(string) {
		case "":
			// cleared, nothing to report
		default:
			d.log.Debugw("wps state", "state", v.Value())
		}
	}
}

func (d *Driver) emit(cat ingest.Category, id ingest.ID, status int) {
	if d.cb != nil {
		d.cb(ingest.Event{Category: cat, ID: id, Status: status})
	}
}

func (d *Driver) SetStorage(volatile bool) error { return nil }
func (d *Driver) Restore() error                 { return nil }

func (d *Driver) SetMode(m config.Mode) error {
	d.mu.Lock()
	dev := d.devicePath
	d.mu.Unlock()

	mode := "station"
	if m == config.ModeAP {
		mode = "ap"
	}
	obj := d.conn.Object(iwdService, dev)
	return obj.Call("org.freedesktop.DBus.Properties.Set", 0,
		deviceIface, "Mode", dbus.MakeVariant(mode)).Err
}

func (d *Driver) GetMode() (config.Mode, error) {
	d.mu.Lock()
	dev := d.devicePath
	d.mu.Unlock()

	var variant dbus.Variant
	obj := d.conn.Object(iwdService, dev)
	if err := obj.Call("org.freedesktop.DBus.Properties.Get", 0, deviceIface, "Mode").Store(&variant); err != nil {
		return 0, fmt.Errorf("get mode: %w", err)
	}
	if variant.Value().(string) == "ap" {
		return config.ModeAP, nil
	}
	return config.ModeSTA, nil
}

// SetConfig starts iwd's AccessPoint with cfg's AP SSID and passphrase
// for IfaceAP. For IfaceSTA it only validates the STA SSID length;
// nothing is written to iwd's per-network configuration.
func (d *Driver) SetConfig(iface radio.Iface, cfg config.WifiConfig) error {
	d.mu.Lock()
	ap := d.apPath
	d.mu.Unlock()

	if iface == radio.IfaceAP {
		if ap == "" {
			return fmt.Errorf("no access point object available")
		}
		obj := d.conn.Object(iwdService, ap)
		return obj.Call(accessPointIface+".Start", 0, cfg.AP.SSID, cfg.AP.Passphrase).Err
	}
	// STA config is supplied at Connect() time via the Network object;
	// nothing to push here beyond validating the SSID length.
	return config.ValidateSSID(cfg.STA.SSID)
}

func (d *Driver) GetConfig(iface radio.Iface) (config.WifiConfig, error) {
	mode, err := d.GetMode()
	if err != nil {
		return config.WifiConfig{}, err
	}
	return config.WifiConfig{Mode: mode}, nil
}

func (d *Driver) Start() error {
	d.mu.Lock()
	dev := d.devicePath
	d.mu.Unlock()
	obj := d.conn.Object(iwdService, dev)
	return obj.Call("org.freedesktop.DBus.Properties.Set", 0,
		deviceIface, "Powered", dbus.MakeVariant(true)).Err
}

func (d *Driver) Stop() error {
	d.mu.Lock()
	dev := d.devicePath
	d.mu.Unlock()
	obj := d.conn.Object(iwdService, dev)
	return obj.Call("org.freedesktop.DBus.Properties.Set", 0,
		deviceIface, "Powered", dbus.MakeVariant(false)).Err
}

func (d *Driver) Connect() error {
	d.mu.Lock()
	station := d.stationPath
	networks := d.lastNetworks
	d.mu.Unlock()
	if station == "" || len(networks) == 0 {
		return fmt.Errorf("no scanned network available to connect to")
	}
	obj := d.conn.Object(iwdService, networks[0])
	return obj.Call(networkIface+".Connect", 0).Err
}

func (d *Driver) Disconnect() error {
	d.mu.Lock()
	station := d.stationPath
	d.mu.Unlock()
	if station == "" {
		return nil
	}
	obj := d.conn.Object(iwdService, station)
	return obj.Call(stationIface+".Disconnect", 0).Err
}

func (d *Driver) ScanStart(async, includeHidden bool) error {
	d.mu.Lock()
	station := d.stationPath
	d.mu.Unlock()
	if station == "" {
		return fmt.Errorf("no station available")
	}
	obj := d.conn.Object(iwdService, station)
	return obj.Call(stationIface+".Scan", 0).Err
}

func (d *Driver) ScanGetCount() (int, error) {
	recs, err := d.orderedNetworks()
	if err != nil {
		return 0, err
	}
	return len(recs), nil
}

func (d *Driver) ScanGetRecords(max int) ([]radio.ApRecord, error) {
	recs, err := d.orderedNetworks()
	if err != nil {
		return nil, err
	}
	if max < len(recs) {
		recs = recs[:max]
	}
	return recs, nil
}

func (d *Driver) orderedNetworks() ([]radio.ApRecord, error) {
	d.mu.Lock()
	station := d.stationPath
	d.mu.Unlock()
	if station == "" {
		return nil, fmt.Errorf("no station available")
	}

	var raw []struct {
		Path      dbus.ObjectPath
		SignalDBm int16
	}
	obj := d.conn.Object(iwdService, station)
	if err := obj.Call(stationIface+".GetOrderedNetworks", 0).Store(&raw); err != nil {
		return nil, fmt.Errorf("get ordered networks: %w", err)
	}

	paths := make([]dbus.ObjectPath, 0, len(raw))
	out := make([]radio.ApRecord, 0, len(raw))
	for _, n := range raw {
		netObj := d.conn.Object(iwdService, n.Path)
		var name dbus.Variant
		_ = netObj.Call("org.freedesktop.DBus.Properties.Get", 0, networkIface, "Name").Store(&name)
		ssid, _ := name.Value().(string)

		out = append(out, radio.ApRecord{
			SSID: ssid,
			RSSI: n.SignalDBm,
			Auth: config.AuthWPA2PSK,
		})
		paths = append(paths, n.Path)
	}

	d.mu.Lock()
	d.lastNetworks = paths
	d.mu.Unlock()
	return out, nil
}

func (d *Driver) ScanStop() error { return nil }

func (d *Driver) WPSEnable() error { return nil }

// WPSStart pushes the WPS button over D-Bus. timeout is the caller's
// deadline (spec.md's CFG_TIMEOUT); iwd enforces its own WPS window
// independently, so it is only used for logging here.
func (d *Driver) WPSStart(timeout int) error {
	d.mu.Lock()
	dev := d.devicePath
	d.mu.Unlock()
	d.log.Debugw("starting wps", "timeout_s", timeout)
	obj := d.conn.Object(iwdService, dev)
	return obj.Call(simpleConfigIface+".PushButton", 0).Err
}

func (d *Driver) WPSDisable() error {
	d.mu.Lock()
	dev := d.devicePath
	d.mu.Unlock()
	obj := d.conn.Object(iwdService, dev)
	return obj.Call(simpleConfigIface+".Cancel", 0).Err
}
