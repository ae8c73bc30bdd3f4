package nvs

import (
	"encoding/binary"
	"net"

	"wifimgr/internal/config"
)

// Fixed on-disk sizes for the blob fields (spec.md §6's "Persistent
// layout" table: every blob's stored length must exactly match the
// expected size of its struct, or the field is treated as absent).
const (
	ssidFieldLen = 32
	passFieldLen = 64
	bssidLen     = 6

	apBlobSize  = ssidFieldLen + passFieldLen + 4 + 4 + 4 // SSID, pass, channel, auth, maxclients
	staBlobSize = ssidFieldLen + passFieldLen + bssidLen + 2 + 4 // SSID, pass, bssid, pad, pinbssid
	ipBlobSize  = 4 + 4 + 4                                // ip, netmask, gateway
	dnsBlobSize = config.MaxDNSEntries * 4
)

func putFixedString(buf []byte, s string) {
	n := copy(buf, s)
	for i := n; i < len(buf); i++ {
		buf[i] = 0
	}
}

func getFixedString(buf []byte) string {
	n := 0
	for n < len(buf) && buf[n] != 0 {
		n++
	}
	return string(buf[:n])
}

func putIPv4(buf []byte, ip net.IP) {
	v4 := ip.To4()
	if v4 == nil {
		v4 = net.IPv4zero.To4()
	}
	copy(buf, v4)
}

func getIPv4(buf []byte) net.IP {
	ip := make(net.IP, 4)
	copy(ip, buf)
	return ip
}

func encodeAP(ap config.AccessPointParams) []byte {
	b := make([]byte, apBlobSize)
	off := 0
	putFixedString(b[off:off+ssidFieldLen], ap.SSID)
	off += ssidFieldLen
	putFixedString(b[off:off+passFieldLen], ap.Passphrase)
	off += passFieldLen
	binary.LittleEndian.PutUint32(b[off:], uint32(ap.Channel))
	off += 4
	binary.LittleEndian.PutUint32(b[off:], uint32(ap.Auth))
	off += 4
	binary.LittleEndian.PutUint32(b[off:], uint32(ap.MaxClients))
	return b
}

func decodeAP(b []byte) (config.AccessPointParams, bool) {
	if len(b) != apBlobSize {
		return config.AccessPointParams{}, false
	}
	off := 0
	ssid := getFixedString(b[off : off+ssidFieldLen])
	off += ssidFieldLen
	pass := getFixedString(b[off : off+passFieldLen])
	off += passFieldLen
	channel := binary.LittleEndian.Uint32(b[off:])
	off += 4
	auth := binary.LittleEndian.Uint32(b[off:])
	off += 4
	maxClients := binary.LittleEndian.Uint32(b[off:])
	return config.AccessPointParams{
		SSID:       ssid,
		Passphrase: pass,
		Channel:    int(channel),
		Auth:       config.AuthMode(auth),
		MaxClients: int(maxClients),
	}, true
}

func encodeSTA(sta config.StationParams) []byte {
	b := make([]byte, staBlobSize)
	off := 0
	putFixedString(b[off:off+ssidFieldLen], sta.SSID)
	off += ssidFieldLen
	putFixedString(b[off:off+passFieldLen], sta.Passphrase)
	off += passFieldLen
	mac, _ := net.ParseMAC(sta.BSSID)
	copy(b[off:off+bssidLen], mac)
	off += bssidLen + 2 // skip the 2 padding bytes
	pin := uint32(0)
	if sta.PinBSSID {
		pin = 1
	}
	binary.LittleEndian.PutUint32(b[off:], pin)
	return b
}

func decodeSTA(b []byte) (config.StationParams, bool) {
	if len(b) != staBlobSize {
		return config.StationParams{}, false
	}
	off := 0
	ssid := getFixedString(b[off : off+ssidFieldLen])
	off += ssidFieldLen
	pass := getFixedString(b[off : off+passFieldLen])
	off += passFieldLen
	macBytes := b[off : off+bssidLen]
	off += bssidLen + 2
	pin := binary.LittleEndian.Uint32(b[off:]) != 0

	bssid := ""
	if hw := net.HardwareAddr(macBytes); hw.String() != "00:00:00:00:00:00" {
		bssid = hw.String()
	}
	return config.StationParams{
		SSID:       ssid,
		Passphrase: pass,
		BSSID:      bssid,
		PinBSSID:   pin,
	}, true
}

func encodeIPv4(info config.IPv4Info) []byte {
	b := make([]byte, ipBlobSize)
	putIPv4(b[0:4], info.IP)
	putIPv4(b[4:8], info.Netmask)
	putIPv4(b[8:12], info.Gateway)
	return b
}

func decodeIPv4(b []byte) (config.IPv4Info, bool) {
	if len(b) != ipBlobSize {
		return config.IPv4Info{}, false
	}
	return config.IPv4Info{
		IP:      getIPv4(b[0:4]),
		Netmask: getIPv4(b[4:8]),
		Gateway: getIPv4(b[8:12]),
	}, true
}

func encodeDNS(entries []config.DNSEntry) []byte {
	b := make([]byte, dnsBlobSize)
	for i := 0; i < config.MaxDNSEntries; i++ {
		if i < len(entries) {
			putIPv4(b[i*4:i*4+4], entries[i].IP)
		}
	}
	return b
}

func decodeDNS(b []byte) ([]config.DNSEntry, bool) {
	if len(b) != dnsBlobSize {
		return nil, false
	}
	entries := make([]config.DNSEntry, 0, config.MaxDNSEntries)
	for i := 0; i < config.MaxDNSEntries; i++ {
		ip := getIPv4(b[i*4 : i*4+4])
		if !ip.Equal(net.IPv4zero) {
			entries = append(entries, config.DNSEntry{IP: ip})
		}
	}
	return entries, true
}

func encodeU32(v uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return b
}

func decodeU32(b []byte) (uint32, bool) {
	if len(b) != 4 {
		return 0, false
	}
	return binary.LittleEndian.Uint32(b), true
}
