// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package storage

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemDBRoundtrip(t *testing.T) {
	require := require.New(t)
	db := NewMemDB()

	_, err := db.Get([]byte("missing"))
	require.ErrorIs(err, ErrNotFound)

	require.NoError(db.Put([]byte("k1"), []byte("v1")))
	value, err := db.Get([]byte("k1"))
	require.NoError(err)
	require.Equal([]byte("v1"), value)

	has, err := db.Has([]byte("k1"))
	require.NoError(err)
	require.True(has)

	require.NoError(db.Delete([]byte("k1")))
	has, err = db.Has([]byte("k1"))
	require.NoError(err)
	require.False(has)

	// Deleting an absent key is a no-op
	require.NoError(db.Delete([]byte("k1")))
}

func TestMemDBValueIsolation(t *testing.T) {
	require := require.New(t)
	db := NewMemDB()

	value := []byte("original")
	require.NoError(db.Put([]byte("k"), value))
	value[0] = 'X'

	stored, err := db.Get([]byte("k"))
	require.NoError(err)
	require.Equal([]byte("original"), stored)

	stored[0] = 'Y'
	again, err := db.Get([]byte("k"))
	require.NoError(err)
	require.Equal([]byte("original"), again)
}

func TestMemDBIteratePrefix(t *testing.T) {
	require := require.New(t)
	db := NewMemDB()

	require.NoError(db.Put([]byte("balance:a"), []byte("1")))
	require.NoError(db.Put([]byte("balance:b"), []byte("2")))
	require.NoError(db.Put([]byte("space:x"), []byte("3")))

	var keys []string
	err := db.Iterate([]byte("balance:"), func(key, _ []byte) error {
		keys = append(keys, string(key))
		return nil
	})
	require.NoError(err)
	require.Equal([]string{"balance:a", "balance:b"}, keys)
}

func TestBadgerRoundtrip(t *testing.T) {
	require := require.New(t)

	db, err := NewStorage("badger", t.TempDir())
	require.NoError(err)
	defer db.Close()

	require.NoError(db.Put([]byte("k1"), []byte("v1")))
	value, err := db.Get([]byte("k1"))
	require.NoError(err)
	require.Equal([]byte("v1"), value)

	_, err = db.Get([]byte("missing"))
	require.ErrorIs(err, ErrNotFound)

	require.NoError(db.Put([]byte("pfx:a"), []byte("1")))
	require.NoError(db.Put([]byte("pfx:b"), []byte("2")))

	var keys []string
	err = db.Iterate([]byte("pfx:"), func(key, _ []byte) error {
		keys = append(keys, string(key))
		return nil
	})
	require.NoError(err)
	require.Equal([]string{"pfx:a", "pfx:b"}, keys)
}

func TestNewStorageMemory(t *testing.T) {
	require := require.New(t)

	db, err := NewStorage("memory", "")
	require.NoError(err)
	require.IsType(&MemDB{}, db)
}
