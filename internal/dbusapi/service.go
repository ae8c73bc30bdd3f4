// Package dbusapi exposes wmngr's public API surface (spec.md §4.5) as
// a D-Bus service/object, the ambient substitute for the out-of-scope
// HTTP control surface (spec.md §1). Grounded in
// x-network/internal/dbus/service.go: same NewService/export/
// introspection shape, generalized to this daemon's operations.
package dbusapi

import (
	"fmt"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"
	"go.uber.org/zap"

	"wifimgr/internal/wmngr"
)

const (
	ServiceName = "org.wifimgr.Manager"
	ObjectPath  = "/org/wifimgr/Manager"
	Interface   = "org.wifimgr.Manager"
)

// Service is the exported D-Bus object. Every method delegates straight
// to a *wmngr.Manager; Service holds no state of its own.
type Service struct {
	conn *dbus.Conn
	mgr  *wmngr.Manager
	log  *zap.SugaredLogger
}

// NewService connects to busType ("system" or "session"), requests
// ServiceName, and exports mgr's operations at ObjectPath.
func NewService(busType string, mgr *wmngr.Manager, log *zap.SugaredLogger) (*Service, error) {
	var conn *dbus.Conn
	var err error
	if busType == "session" {
		conn, err = dbus.SessionBus()
	} else {
		conn, err = dbus.SystemBus()
	}
	if err != nil {
		return nil, fmt.Errorf("dbusapi: connect: %w", err)
	}

	s := &Service{conn: conn, mgr: mgr, log: log}

	reply, err := conn.RequestName(ServiceName, dbus.NameFlagDoNotQueue)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("dbusapi: request name: %w", err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		conn.Close()
		return nil, fmt.Errorf("dbusapi: name %s already taken", ServiceName)
	}

	if err := conn.Export(s, ObjectPath, Interface); err != nil {
		conn.Close()
		return nil, fmt.Errorf("dbusapi: export: %w", err)
	}
	if err := conn.Export(s, ObjectPath, "org.freedesktop.DBus.Properties"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("dbusapi: export properties: %w", err)
	}

	node := &introspect.Node{
		Name: ObjectPath,
		Interfaces: []introspect.Interface{
			introspect.IntrospectData,
			{
				Name:       Interface,
				Methods:    s.methods(),
				Properties: s.properties(),
				Signals:    s.signals(),
			},
		},
	}
	_ = conn.Export(introspect.NewIntrospectable(node), ObjectPath, "org.freedesktop.DBus.Introspectable")

	return s, nil
}

// Close releases the D-Bus connection.
func (s *Service) Close() {
	s.conn.Close()
}

// EmitStateChanged notifies listeners that get_state()/is_connected()
// may have new values: it emits PropertiesChanged, the way x-network
// does on every state.Manager update, followed by the StateChanged
// signal declared in the introspection data.
func (s *Service) EmitStateChanged() {
	state := s.mgr.GetState().String()
	connected := s.mgr.IsConnected()
	changed := map[string]dbus.Variant{
		"State":       dbus.MakeVariant(state),
		"IsConnected": dbus.MakeVariant(connected),
	}
	if err := s.conn.Emit(ObjectPath, "org.freedesktop.DBus.Properties.PropertiesChanged",
		Interface, changed, []string{}); err != nil {
		s.log.Warnw("emit PropertiesChanged failed", "err", err)
	}
	if err := s.conn.Emit(ObjectPath, Interface+".StateChanged", state, connected); err != nil {
		s.log.Warnw("emit StateChanged failed", "err", err)
	}
}

func (s *Service) methods() []introspect.Method {
	return []introspect.Method{
		{Name: "Ping", Args: []introspect.Arg{{Name: "reply", Type: "s", Direction: "out"}}},
		{Name: "SetCfg", Args: []introspect.Arg{
			{Name: "cfg", Type: "a{sv}", Direction: "in"},
			{Name: "ok", Type: "b", Direction: "out"},
		}},
		{Name: "GetCfg", Args: []introspect.Arg{
			{Name: "cfg", Type: "a{sv}", Direction: "out"},
		}},
		{Name: "StartWPS", Args: []introspect.Arg{{Name: "ok", Type: "b", Direction: "out"}}},
		{Name: "StartScan", Args: []introspect.Arg{{Name: "ok", Type: "b", Direction: "out"}}},
		{Name: "GetScanResults", Args: []introspect.Arg{
			{Name: "records", Type: "a(ssinyb)", Direction: "out"},
		}},
		{Name: "Connect", Args: []introspect.Arg{{Name: "ok", Type: "b", Direction: "out"}}},
		{Name: "Disconnect", Args: []introspect.Arg{{Name: "ok", Type: "b", Direction: "out"}}},
	}
}

func (s *Service) properties() []introspect.Property {
	return []introspect.Property{
		{Name: "State", Type: "s", Access: "read"},
		{Name: "IsConnected", Type: "b", Access: "read"},
		{Name: "NVSValid", Type: "b", Access: "read"},
	}
}

func (s *Service) signals() []introspect.Signal {
	return []introspect.Signal{
		{Name: "StateChanged", Args: []introspect.Arg{
			{Name: "state", Type: "s"},
			{Name: "connected", Type: "b"},
		}},
	}
}
