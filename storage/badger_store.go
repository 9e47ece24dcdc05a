package storage

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/colorfulnotion/rollup/log"
)

// BadgerStore is a KVStore on Badger.
type BadgerStore struct {
	db *badger.DB
}

// NewBadgerStore opens a Badger database at path; an empty path keeps it in
// memory.
func NewBadgerStore(path string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path).
		WithSyncWrites(false).
		WithLogger(badgerLogger{})
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger at %s: %w", path, err)
	}
	return &BadgerStore{db: db}, nil
}

func (bs *BadgerStore) Get(key []byte) ([]byte, bool, error) {
	var value []byte
	err := bs.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("Get %x: %w", key, err)
	}
	return value, true, nil
}

func (bs *BadgerStore) Put(key []byte, value []byte) error {
	return bs.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, value)
	})
}

func (bs *BadgerStore) Delete(key []byte) error {
	return bs.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(key)
	})
}

func (bs *BadgerStore) GetWithPrefix(prefix []byte) ([][2][]byte, error) {
	var results [][2][]byte
	err := bs.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			value, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			results = append(results, [2][]byte{item.KeyCopy(nil), value})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("GetWithPrefix %x: %w", prefix, err)
	}
	return results, nil
}

func (bs *BadgerStore) Close() error {
	return bs.db.Close()
}

// badgerLogger routes Badger's internal logging to the storage module.
type badgerLogger struct{}

func (badgerLogger) Errorf(format string, args ...interface{}) {
	log.Error(log.StorageMonitoring, "badger", "msg", strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (badgerLogger) Warningf(format string, args ...interface{}) {
	log.Warn(log.StorageMonitoring, "badger", "msg", strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (badgerLogger) Infof(format string, args ...interface{}) {
	log.Debug(log.StorageMonitoring, "badger", "msg", strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (badgerLogger) Debugf(format string, args ...interface{}) {
	log.Trace(log.StorageMonitoring, "badger", "msg", strings.TrimSpace(fmt.Sprintf(format, args...)))
}
