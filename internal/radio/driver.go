// Package radio declares the radio-driver capability surface consumed
// (not provided) by this daemon, per spec.md §6. It is an external
// collaborator: this daemon only calls through the Driver interface and
// never assumes a particular backend.
package radio

import (
	"context"

	"wifimgr/internal/config"
	"wifimgr/internal/ingest"
)

// Iface selects which radio interface a SetConfig/GetConfig call targets.
type Iface int

const (
	IfaceAP Iface = iota
	IfaceSTA
)

// ApRecord is one scan result record.
type ApRecord struct {
	SSID    string
	BSSID   string
	Channel int
	RSSI    int16
	Auth    config.AuthMode
	Hidden  bool
}

// InitConfig carries the radio's one-time initialization parameters.
type InitConfig struct {
	// Volatile, when true, instructs the driver to keep its own
	// configuration storage in RAM only: this daemon owns persistence
	// (spec.md §4.5 init()), not the driver.
	Volatile bool
}

// Driver is the capability surface spec.md §6 describes. All operations
// may block on the underlying hardware/stack and are called only from
// within the state machine's locked critical section (spec.md §5). The
// driver reports asynchronous events through the ingest.Callback
// registered at Init (spec.md §4.2); radio and IP-adapter events share
// one ingest vocabulary, see package ingest.
type Driver interface {
	Init(ctx context.Context, cfg InitConfig, cb ingest.Callback) error
	SetStorage(volatile bool) error
	Restore() error

	SetMode(m config.Mode) error
	GetMode() (config.Mode, error)

	SetConfig(iface Iface, cfg config.WifiConfig) error
	GetConfig(iface Iface) (config.WifiConfig, error)

	Start() error
	Stop() error

	Connect() error
	Disconnect() error

	ScanStart(async bool, includeHidden bool) error
	ScanGetCount() (int, error)
	ScanGetRecords(max int) ([]ApRecord, error)
	ScanStop() error

	WPSEnable() error
	WPSStart(timeout int) error
	WPSDisable() error
}
