// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package registry tracks ad spaces: existence, minimum-offer floor
// and the owning account.
package registry

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/adxyz/adspace/pkg/ids"
	"github.com/adxyz/adspace/pkg/storage"
)

var (
	ErrAlreadyExists = errors.New("ad space already exists")
	ErrNotFound      = errors.New("ad space not found")
)

// KeyPrefix is the storage namespace for ad spaces.
const KeyPrefix = "space:"

// AdSpace is the persisted record for a registered space. The owner is
// the creating account and never changes.
type AdSpace struct {
	ID       string `json:"id"`
	MinOffer uint64 `json:"min_offer"`
	Owner    ids.ID `json:"owner"`
}

// Registry persists ad spaces keyed by their caller-chosen id.
type Registry struct {
	db storage.Database
}

// New creates a registry over the given database.
func New(db storage.Database) *Registry {
	return &Registry{db: db}
}

// Key returns the storage key for an ad space.
func Key(id string) []byte {
	return []byte(KeyPrefix + id)
}

// Create registers a new ad space. A space id is created exactly once;
// a duplicate id fails with ErrAlreadyExists and leaves the original
// record untouched. MinOffer may be 0 (no floor).
func (r *Registry) Create(owner ids.ID, id string, minOffer uint64) error {
	exists, err := r.db.Has(Key(id))
	if err != nil {
		return fmt.Errorf("check ad space: %w", err)
	}
	if exists {
		return fmt.Errorf("%w: %q", ErrAlreadyExists, id)
	}

	record, err := json.Marshal(&AdSpace{ID: id, MinOffer: minOffer, Owner: owner})
	if err != nil {
		return fmt.Errorf("encode ad space: %w", err)
	}
	if err := r.db.Put(Key(id), record); err != nil {
		return fmt.Errorf("write ad space: %w", err)
	}
	return nil
}

// Get returns the stored record for an ad space, ErrNotFound if the id
// was never created. Absence is an error, not a zero floor: a missing
// space and a space with no floor are different things.
func (r *Registry) Get(id string) (*AdSpace, error) {
	value, err := r.db.Get(Key(id))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("read ad space: %w", err)
	}

	space := &AdSpace{}
	if err := json.Unmarshal(value, space); err != nil {
		return nil, fmt.Errorf("decode ad space: %w", err)
	}
	return space, nil
}

// MinOfferOf returns the registered floor for an ad space.
func (r *Registry) MinOfferOf(id string) (uint64, error) {
	space, err := r.Get(id)
	if err != nil {
		return 0, err
	}
	return space.MinOffer, nil
}

// Count returns the number of registered spaces.
func (r *Registry) Count() (int, error) {
	n := 0
	err := r.db.Iterate([]byte(KeyPrefix), func(_, _ []byte) error {
		n++
		return nil
	})
	return n, err
}
