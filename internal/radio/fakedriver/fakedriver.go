// Package fakedriver is an in-memory radio.Driver used by the state
// machine's tests (no mocking framework, per the ambient test-tooling
// decision: a hand-written fake implementing the narrow interface).
package fakedriver

import (
	"context"
	"sync"

	"wifimgr/internal/config"
	"wifimgr/internal/ingest"
	"wifimgr/internal/radio"
)

// Driver is a fully in-memory radio.Driver. Tests drive its behavior by
// setting the exported Next* fields before calling the operation under
// test, and observe effects through GetMode/GetConfig and the Calls log.
type Driver struct {
	mu sync.Mutex

	cb ingest.Callback

	mode config.Mode
	ap   config.WifiConfig
	sta  config.WifiConfig

	records []radio.ApRecord

	NextSetModeErr    error
	NextSetConfigErr  error
	NextStartErr      error
	NextConnectErr    error
	NextScanStartErr  error
	NextScanCountErr  error
	NextWPSEnableErr  error
	NextWPSStartErr   error
	NextGetConfigErr  error
	NextGetConfigResp config.WifiConfig
	useGetConfigResp  bool

	Calls []string
}

func New() *Driver {
	return &Driver{}
}

func (d *Driver) record(call string) {
	d.Calls = append(d.Calls, call)
}

// Emit delivers ev to whatever Callback was registered at Init, the way
// the real driver reports asynchronous radio events.
func (d *Driver) Emit(ev ingest.Event) {
	d.mu.Lock()
	cb := d.cb
	d.mu.Unlock()
	if cb != nil {
		cb(ev)
	}
}

func (d *Driver) Init(_ context.Context, _ radio.InitConfig, cb ingest.Callback) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cb = cb
	d.record("init")
	return nil
}

func (d *Driver) SetStorage(bool) error { return nil }
func (d *Driver) Restore() error        { return nil }

func (d *Driver) SetMode(m config.Mode) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("set_mode")
	if d.NextSetModeErr != nil {
		err := d.NextSetModeErr
		d.NextSetModeErr = nil
		return err
	}
	d.mode = m
	return nil
}

func (d *Driver) GetMode() (config.Mode, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.mode, nil
}

func (d *Driver) SetConfig(iface radio.Iface, cfg config.WifiConfig) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("set_config")
	if d.NextSetConfigErr != nil {
		err := d.NextSetConfigErr
		d.NextSetConfigErr = nil
		return err
	}
	if iface == radio.IfaceAP {
		d.ap = cfg
	} else {
		d.sta = cfg
	}
	return nil
}

func (d *Driver) GetConfig(iface radio.Iface) (config.WifiConfig, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.NextGetConfigErr != nil {
		err := d.NextGetConfigErr
		d.NextGetConfigErr = nil
		return config.WifiConfig{}, err
	}
	if d.useGetConfigResp {
		d.useGetConfigResp = false
		return d.NextGetConfigResp, nil
	}
	if iface == radio.IfaceAP {
		return d.ap, nil
	}
	return d.sta, nil
}

func (d *Driver) Start() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("start")
	if d.NextStartErr != nil {
		err := d.NextStartErr
		d.NextStartErr = nil
		return err
	}
	return nil
}

func (d *Driver) Stop() error {
	d.record("stop")
	return nil
}

func (d *Driver) Connect() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("connect")
	if d.NextConnectErr != nil {
		err := d.NextConnectErr
		d.NextConnectErr = nil
		return err
	}
	return nil
}

func (d *Driver) Disconnect() error {
	d.record("disconnect")
	return nil
}

func (d *Driver) ScanStart(async, includeHidden bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("scan_start")
	if d.NextScanStartErr != nil {
		err := d.NextScanStartErr
		d.NextScanStartErr = nil
		return err
	}
	return nil
}

func (d *Driver) ScanGetCount() (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.NextScanCountErr != nil {
		err := d.NextScanCountErr
		d.NextScanCountErr = nil
		return 0, err
	}
	return len(d.records), nil
}

func (d *Driver) ScanGetRecords(max int) ([]radio.ApRecord, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if max > len(d.records) {
		max = len(d.records)
	}
	out := make([]radio.ApRecord, max)
	copy(out, d.records[:max])
	return out, nil
}

func (d *Driver) ScanStop() error {
	d.record("scan_stop")
	return nil
}

// SetScanResults lets a test seed what ScanGetCount/ScanGetRecords
// return next.
func (d *Driver) SetScanResults(records []radio.ApRecord) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.records = records
}

// SetNextGetConfigResp arms the response for the next GetConfig call,
// used by WPS tests to hand back credentials "read from the radio".
func (d *Driver) SetNextGetConfigResp(cfg config.WifiConfig) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.NextGetConfigResp = cfg
	d.useGetConfigResp = true
}

func (d *Driver) WPSEnable() error {
	d.record("wps_enable")
	if d.NextWPSEnableErr != nil {
		err := d.NextWPSEnableErr
		d.NextWPSEnableErr = nil
		return err
	}
	return nil
}

func (d *Driver) WPSStart(timeout int) error {
	d.record("wps_start")
	if d.NextWPSStartErr != nil {
		err := d.NextWPSStartErr
		d.NextWPSStartErr = nil
		return err
	}
	return nil
}

func (d *Driver) WPSDisable() error {
	d.record("wps_disable")
	return nil
}
