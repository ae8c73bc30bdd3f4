package dbusapi

import "github.com/godbus/dbus/v5"

// Get implements org.freedesktop.DBus.Properties.Get for the three
// read-only diagnostics properties supplementing spec.md §4.5's
// operations (State, IsConnected, NVSValid).
func (s *Service) Get(iface, prop string) (dbus.Variant, *dbus.Error) {
	if iface != "" && iface != Interface {
		return dbus.Variant{}, dbus.NewError("org.freedesktop.DBus.Error.UnknownInterface", []interface{}{"unknown interface"})
	}
	switch prop {
	case "State":
		return dbus.MakeVariant(s.mgr.GetState().String()), nil
	case "IsConnected":
		return dbus.MakeVariant(s.mgr.IsConnected()), nil
	case "NVSValid":
		return dbus.MakeVariant(s.mgr.NVSValid()), nil
	default:
		return dbus.Variant{}, dbus.NewError("org.freedesktop.DBus.Error.UnknownProperty", []interface{}{"unknown property: " + prop})
	}
}

// GetAll implements org.freedesktop.DBus.Properties.GetAll.
func (s *Service) GetAll(iface string) (map[string]dbus.Variant, *dbus.Error) {
	if iface != "" && iface != Interface {
		return nil, dbus.NewError("org.freedesktop.DBus.Error.UnknownInterface", []interface{}{"unknown interface"})
	}
	return map[string]dbus.Variant{
		"State":       dbus.MakeVariant(s.mgr.GetState().String()),
		"IsConnected": dbus.MakeVariant(s.mgr.IsConnected()),
		"NVSValid":    dbus.MakeVariant(s.mgr.NVSValid()),
	}, nil
}

// Set implements org.freedesktop.DBus.Properties.Set; every exposed
// property is read-only.
func (s *Service) Set(iface, prop string, value dbus.Variant) *dbus.Error {
	return dbus.NewError("org.freedesktop.DBus.Error.PropertyReadOnly", []interface{}{"properties are read-only"})
}
