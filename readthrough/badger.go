package readthrough

import (
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// OpenBadgerStore opens (creating if necessary) an on-disk store in dir, so
// cached responses survive restarts.
func OpenBadgerStore(dir string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("error opening cache dir '%s': %w", dir, err)
	}
	return &BadgerStore{db: db}, nil
}

type BadgerStore struct {
	db *badger.DB
}

func (bs *BadgerStore) Get(key string) ([]byte, error) {
	var value []byte
	err := bs.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrMiss
		} else if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	return value, nil
}

func (bs *BadgerStore) Set(key string, value []byte, ttl time.Duration) error {
	return bs.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(badger.NewEntry([]byte(key), value).WithTTL(ttl))
	})
}

func (bs *BadgerStore) Delete(key string) error {
	return bs.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
}

func (bs *BadgerStore) Close() error {
	return bs.db.Close()
}
