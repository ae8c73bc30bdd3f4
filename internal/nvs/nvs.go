// Package nvs implements the persistence adapter of spec.md §4.4 on top
// of go.etcd.io/bbolt: a single-file, single-writer-transaction embedded
// key-value store whose transaction model matches the erase-then-write
// whole-record discipline the spec demands. Field names and blob-size
// checks follow spec.md §6's "Persistent layout" table exactly.
package nvs

import (
	"fmt"
	"time"

	"wifimgr/internal/config"
	"wifimgr/internal/wmerr"

	bolt "go.etcd.io/bbolt"
)

// Namespace is the bucket every field lives under (spec.md §6).
var Namespace = []byte("esp_wmngr")

const (
	keyMode       = "mode"
	keySTAStatic  = "sta_static"
	keySTAConnect = "sta_connect"
	keyAP         = "ap"
	keySTA        = "sta"
	keyAPIP       = "ap_ip"
	keySTAIP      = "sta_ip"
	keySTADNS     = "sta_dns"
)

// Store is the open handle to the NVS file.
type Store struct {
	db *bolt.DB
}

// Open opens (creating if needed) the bbolt file at path.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("nvs: open %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying file.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save implements spec.md §4.4's save protocol in one bbolt update
// transaction: erase the namespace and — if cfg.IsDefault — commit
// there (defaults are never persisted, spec.md invariant 5). Otherwise
// write every field in the same transaction; if any write fails, the
// transaction is rolled back and the namespace is erased again so no
// partial record is ever left behind.
func (s *Store) Save(cfg config.WifiConfig) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		if err := eraseBucket(tx); err != nil {
			return err
		}
		if cfg.IsDefault {
			return nil
		}

		b, err := tx.CreateBucketIfNotExists(Namespace)
		if err != nil {
			return err
		}

		fields := map[string][]byte{
			keyMode:       encodeU32(uint32(cfg.Mode)),
			keySTAStatic:  encodeU32(boolU32(cfg.STAStatic)),
			keySTAConnect: encodeU32(boolU32(cfg.STAConnect)),
			keyAP:         encodeAP(cfg.AP),
			keySTA:        encodeSTA(cfg.STA),
			keyAPIP:       encodeIPv4(cfg.APIP),
			keySTAIP:      encodeIPv4(cfg.STAIP),
			keySTADNS:     encodeDNS(cfg.STADNS),
		}
		for k, v := range fields {
			if err := b.Put([]byte(k), v); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		// Never leave a partial record: erase whatever made it to disk.
		_ = s.db.Update(eraseBucket)
		return fmt.Errorf("nvs: save: %w: %v", wmerr.ErrIOError, err)
	}
	return nil
}

// Load implements spec.md §4.4's load protocol: read every field; any
// missing or size-mismatched field reports wmerr.ErrNotFound.
func (s *Store) Load() (config.WifiConfig, error) {
	var cfg config.WifiConfig

	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(Namespace)
		if b == nil {
			return wmerr.ErrNotFound
		}

		mode, ok := decodeU32(b.Get([]byte(keyMode)))
		if !ok {
			return wmerr.ErrNotFound
		}
		staStatic, ok := decodeU32(b.Get([]byte(keySTAStatic)))
		if !ok {
			return wmerr.ErrNotFound
		}
		staConnect, ok := decodeU32(b.Get([]byte(keySTAConnect)))
		if !ok {
			return wmerr.ErrNotFound
		}
		ap, ok := decodeAP(b.Get([]byte(keyAP)))
		if !ok {
			return wmerr.ErrNotFound
		}
		sta, ok := decodeSTA(b.Get([]byte(keySTA)))
		if !ok {
			return wmerr.ErrNotFound
		}
		apIP, ok := decodeIPv4(b.Get([]byte(keyAPIP)))
		if !ok {
			return wmerr.ErrNotFound
		}
		staIP, ok := decodeIPv4(b.Get([]byte(keySTAIP)))
		if !ok {
			return wmerr.ErrNotFound
		}
		dns, ok := decodeDNS(b.Get([]byte(keySTADNS)))
		if !ok {
			return wmerr.ErrNotFound
		}

		cfg = config.WifiConfig{
			IsDefault:  false,
			Mode:       config.Mode(mode),
			AP:         ap,
			APIP:       apIP,
			STA:        sta,
			STAStatic:  staStatic != 0,
			STAIP:      staIP,
			STADNS:     dns,
			STAConnect: staConnect != 0,
		}
		return nil
	})
	if err != nil {
		return config.WifiConfig{}, err
	}
	return cfg, nil
}

func eraseBucket(tx *bolt.Tx) error {
	if tx.Bucket(Namespace) == nil {
		return nil
	}
	return tx.DeleteBucket(Namespace)
}

func boolU32(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}
