// Package fakeadapter is an in-memory ipadapter.Adapter for tests.
package fakeadapter

import (
	"sync"

	"wifimgr/internal/config"
	"wifimgr/internal/ipadapter"
)

type Adapter struct {
	mu      sync.Mutex
	status  map[string]ipadapter.DHCPStatus
	dns     map[string][]config.DNSEntry
	Calls   []string
	NextErr error
}

func New() *Adapter {
	return &Adapter{
		status: make(map[string]ipadapter.DHCPStatus),
		dns:    make(map[string][]config.DNSEntry),
	}
}

func (a *Adapter) record(call string) {
	a.Calls = append(a.Calls, call)
}

func (a *Adapter) Init() error { return nil }

func (a *Adapter) DHCPCStart(iface string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.record("dhcpc_start:" + iface)
	if a.NextErr != nil {
		err := a.NextErr
		a.NextErr = nil
		return err
	}
	a.status[iface] = ipadapter.DHCPRunning
	return nil
}

func (a *Adapter) DHCPCStop(iface string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.record("dhcpc_stop:" + iface)
	a.status[iface] = ipadapter.DHCPStopped
	return nil
}

func (a *Adapter) DHCPCGetStatus(iface string) (ipadapter.DHCPStatus, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.status[iface], nil
}

func (a *Adapter) SetDNSInfo(iface string, idx int, info config.DNSEntry) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.record("set_dns")
	entries := a.dns[iface]
	for len(entries) <= idx {
		entries = append(entries, config.DNSEntry{})
	}
	entries[idx] = info
	a.dns[iface] = entries
	return nil
}

func (a *Adapter) GetDNSInfo(iface string, idx int) (config.DNSEntry, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	entries := a.dns[iface]
	if idx < 0 || idx >= len(entries) {
		return config.DNSEntry{}, nil
	}
	return entries[idx], nil
}

// SetBound marks iface as having a bound lease, the way the real
// adapter would after observing an RTM_NEWADDR event.
func (a *Adapter) SetBound(iface string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.status[iface] = ipadapter.DHCPBound
}
