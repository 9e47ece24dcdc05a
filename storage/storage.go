package storage

import (
	"fmt"
)

const (
	BackendLevelDB = "leveldb"
	BackendBadger  = "badger"
)

// KVStore is raw key-value persistence. Get reports a missing key with
// found=false and a nil error.
type KVStore interface {
	Get(key []byte) ([]byte, bool, error)
	Put(key []byte, value []byte) error
	Delete(key []byte) error
	// GetWithPrefix returns the matching pairs in key order.
	GetWithPrefix(prefix []byte) ([][2][]byte, error)
	Close() error
}

// OpenKVStore opens the named backend at path. An empty path keeps the
// store in memory.
func OpenKVStore(backend string, path string) (KVStore, error) {
	switch backend {
	case BackendLevelDB, "":
		return NewPersistenceStore(path)
	case BackendBadger:
		return NewBadgerStore(path)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", backend)
	}
}
