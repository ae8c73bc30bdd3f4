// Package ipadapter declares the IP-stack adapter capability surface
// consumed (not provided) by this daemon, per spec.md §6: DHCP client
// control and static DNS configuration for whichever interface the
// state machine is currently driving.
package ipadapter

import "wifimgr/internal/config"

// DHCPStatus reports the DHCP client's last known lease state.
type DHCPStatus int

const (
	DHCPStopped DHCPStatus = iota
	DHCPRunning
	DHCPBound
)

// Adapter mirrors spec.md §6's IP-adapter surface. Operations are
// called only from within the state machine's locked critical section,
// same as radio.Driver; lease/address events are reported back through
// the shared ingest.Callback registered at Init, not through this
// interface.
type Adapter interface {
	Init() error

	DHCPCStart(iface string) error
	DHCPCStop(iface string) error
	DHCPCGetStatus(iface string) (DHCPStatus, error)

	SetDNSInfo(iface string, idx int, info config.DNSEntry) error
	GetDNSInfo(iface string, idx int) (config.DNSEntry, error)
}
