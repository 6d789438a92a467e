// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package storage provides the opaque durable key-value substrate the
// auction engine persists into. Two backends are available: badger for
// durable operation and an in-memory map for tests.
package storage

import (
	"errors"

	badger "github.com/dgraph-io/badger/v4"
)

// ErrNotFound is returned when a key has no stored value.
var ErrNotFound = errors.New("storage: key not found")

// Database is the key-value contract shared by both backends.
type Database interface {
	// Put stores a key-value pair.
	Put(key, value []byte) error

	// Get retrieves a value by key, ErrNotFound if absent.
	Get(key []byte) ([]byte, error)

	// Has checks if a key exists.
	Has(key []byte) (bool, error)

	// Delete removes a key-value pair. Deleting an absent key is a no-op.
	Delete(key []byte) error

	// Iterate visits every key with the given prefix in lexical order.
	// Returning an error from fn stops the sweep and propagates it.
	Iterate(prefix []byte, fn func(key, value []byte) error) error

	// Close closes the database.
	Close() error
}

// NewStorage creates a storage backend selected by type string.
func NewStorage(dbType string, path string) (Database, error) {
	switch dbType {
	case "memory":
		return NewMemDB(), nil
	case "badger":
		return newBadgerDB(path)
	default:
		// Default to badger
		return newBadgerDB(path)
	}
}

// badgerDB wraps a badger instance behind the Database interface.
type badgerDB struct {
	db *badger.DB
}

func newBadgerDB(path string) (*badgerDB, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &badgerDB{db: db}, nil
}

func (b *badgerDB) Put(key, value []byte) error {
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, value)
	})
}

func (b *badgerDB) Get(key []byte) ([]byte, error) {
	var value []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return value, nil
}

func (b *badgerDB) Has(key []byte) (bool, error) {
	_, err := b.Get(key)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (b *badgerDB) Delete(key []byte) error {
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(key)
	})
}

func (b *badgerDB) Iterate(prefix []byte, fn func(key, value []byte) error) error {
	return b.db.View(func(txn *badger.Txn) error {
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
			if err := fn(item.KeyCopy(nil), value); err != nil {
				return err
			}
		}
		return nil
	})
}

func (b *badgerDB) Close() error {
	return b.db.Close()
}
