// Package linuxadapter is the Linux ipadapter.Adapter backend: it
// shells out to dhcpcd for DHCP client control, the way
// x-network/internal/netlink shells out to dhcpcd for USB tethering,
// and watches RTM_NEWADDR/RTM_DELADDR via rtnetlink/netlink (grounded
// in x-network/internal/netlink/watcher.go) to detect lease
// acquisition and feed the shared ingest vocabulary.
package linuxadapter

import (
	"fmt"
	"os/exec"
	"sync"
	"syscall"

	"github.com/jsimonetti/rtnetlink"
	"github.com/mdlayher/netlink"
	"go.uber.org/zap"

	"wifimgr/internal/config"
	"wifimgr/internal/ingest"
	"wifimgr/internal/ipadapter"
)

const (
	rtmNewAddr = syscall.RTM_NEWADDR
	rtmDelAddr = syscall.RTM_DELADDR
)

// Adapter implements ipadapter.Adapter against dhcpcd + rtnetlink.
type Adapter struct {
	log *zap.SugaredLogger
	cb  ingest.Callback

	conn   *netlink.Conn
	rtConn *rtnetlink.Conn
	stopCh chan struct{}

	mu       sync.Mutex
	statuses map[string]ipadapter.DHCPStatus
	dns      map[string][]config.DNSEntry
}

// New dials the netlink sockets. Events only start flowing once Init
// is called.
func New(log *zap.SugaredLogger) (*Adapter, error) {
	conn, err := netlink.Dial(syscall.NETLINK_ROUTE, &netlink.Config{Groups: 0x10}) // RTMGRP_IPV4_IFADDR
	if err != nil {
		return nil, fmt.Errorf("linuxadapter: dial netlink: %w", err)
	}
	rtConn, err := rtnetlink.Dial(nil)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("linuxadapter: dial rtnetlink: %w", err)
	}
	return &Adapter{
		log:      log,
		conn:     conn,
		rtConn:   rtConn,
		stopCh:   make(chan struct{}),
		statuses: make(map[string]ipadapter.DHCPStatus),
		dns:      make(map[string][]config.DNSEntry),
	}, nil
}

// SetCallback registers the ingest callback this adapter feeds
// IPGot/IPLost events through. wmngr.Init calls this after the radio
// driver's Init and before this adapter's own Init, passing the same
// Callback, since both share one ingest vocabulary.
func (a *Adapter) SetCallback(cb ingest.Callback) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.cb = cb
}

func (a *Adapter) Init() error {
	go a.run()
	return nil
}

func (a *Adapter) run() {
	for {
		select {
		case <-a.stopCh:
			return
		default:
		}
		msgs, err := a.conn.Receive()
		if err != nil {
			a.log.Warnw("netlink receive error", "err", err)
			continue
		}
		for _, msg := range msgs {
			a.handleMessage(msg)
		}
	}
}

func (a *Adapter) handleMessage(msg netlink.Message) {
	switch msg.Header.Type {
	case rtmNewAddr:
		a.emit(ingest.IPGot)
	case rtmDelAddr:
		a.emit(ingest.IPLost)
	}
}

func (a *Adapter) emit(id ingest.ID) {
	a.mu.Lock()
	cb := a.cb
	a.mu.Unlock()
	if cb != nil {
		cb(ingest.Event{Category: ingest.CategoryIP, ID: id})
	}
}

// Close releases the netlink sockets.
func (a *Adapter) Close() {
	close(a.stopCh)
	a.conn.Close()
	a.rtConn.Close()
}

func (a *Adapter) DHCPCStart(iface string) error {
	cmd := exec.Command("dhcpcd", "-q", iface)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("linuxadapter: dhcpcd start %s: %w", iface, err)
	}
	a.mu.Lock()
	a.statuses[iface] = ipadapter.DHCPRunning
	a.mu.Unlock()
	go func() { _ = cmd.Wait() }()
	return nil
}

func (a *Adapter) DHCPCStop(iface string) error {
	if err := exec.Command("dhcpcd", "-k", iface).Run(); err != nil {
		return fmt.Errorf("linuxadapter: dhcpcd stop %s: %w", iface, err)
	}
	a.mu.Lock()
	a.statuses[iface] = ipadapter.DHCPStopped
	a.mu.Unlock()
	return nil
}

func (a *Adapter) DHCPCGetStatus(iface string) (ipadapter.DHCPStatus, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.statuses[iface], nil
}

func (a *Adapter) SetDNSInfo(iface string, idx int, info config.DNSEntry) error {
	a.mu.Lock()
	defer a.mu.Unlock()
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
