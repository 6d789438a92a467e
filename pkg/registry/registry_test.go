// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package registry

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/adxyz/adspace/pkg/ids"
	"github.com/adxyz/adspace/pkg/storage"
)

func TestCreateAndGet(t *testing.T) {
	require := require.New(t)
	r := New(storage.NewMemDB())
	owner := ids.GenerateTestID()

	require.NoError(r.Create(owner, "home-banner", 100))

	space, err := r.Get("home-banner")
	require.NoError(err)
	require.Equal("home-banner", space.ID)
	require.Equal(uint64(100), space.MinOffer)
	require.Equal(owner, space.Owner)

	min, err := r.MinOfferOf("home-banner")
	require.NoError(err)
	require.Equal(uint64(100), min)
}

func TestCreateDuplicate(t *testing.T) {
	require := require.New(t)
	r := New(storage.NewMemDB())
	owner := ids.GenerateTestID()
	other := ids.GenerateTestID()

	require.NoError(r.Create(owner, "home-banner", 100))

	err := r.Create(other, "home-banner", 999)
	require.ErrorIs(err, ErrAlreadyExists)

	// The original floor and owner survive the rejected create
	space, err := r.Get("home-banner")
	require.NoError(err)
	require.Equal(uint64(100), space.MinOffer)
	require.Equal(owner, space.Owner)
}

func TestGetMissing(t *testing.T) {
	require := require.New(t)
	r := New(storage.NewMemDB())

	// A missing space is an error, never a silent zero floor
	_, err := r.Get("nope")
	require.ErrorIs(err, ErrNotFound)

	_, err = r.MinOfferOf("nope")
	require.ErrorIs(err, ErrNotFound)
}

func TestZeroFloorIsValid(t *testing.T) {
	require := require.New(t)
	r := New(storage.NewMemDB())

	require.NoError(r.Create(ids.GenerateTestID(), "free-spot", 0))

	min, err := r.MinOfferOf("free-spot")
	require.NoError(err)
	require.Zero(min)
}

func TestCount(t *testing.T) {
	require := require.New(t)
	r := New(storage.NewMemDB())

	n, err := r.Count()
	require.NoError(err)
	require.Zero(n)

	require.NoError(r.Create(ids.GenerateTestID(), "a", 1))
	require.NoError(r.Create(ids.GenerateTestID(), "b", 2))

	n, err = r.Count()
	require.NoError(err)
	require.Equal(2, n)
}
