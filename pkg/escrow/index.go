// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package escrow tracks the winning offer for every (ad space, date)
// pair and moves funds between available and locked as bids displace
// one another. At most one active offer exists per key; its amount
// never decreases across accepted bids.
package escrow

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/adxyz/adspace/pkg/ids"
	"github.com/adxyz/adspace/pkg/ledger"
	"github.com/adxyz/adspace/pkg/storage"
)

var (
	ErrNoOffer          = errors.New("no offer for date")
	ErrAlreadyCollected = errors.New("profit already collected")
)

// KeyPrefix is the storage namespace for offers.
const KeyPrefix = "offer:"

// Content is the advertisement payload carried by a winning bid.
// Storing it is in scope here; serving it is someone else's problem.
type Content struct {
	Text string `json:"text"`
	URL  string `json:"url"`
}

// Offer is the persisted winning bid for one (space, date) key.
type Offer struct {
	Amount     uint64  `json:"amount"`
	Advertiser ids.ID  `json:"advertiser"`
	Content    Content `json:"content"`
	Collected  bool    `json:"collected"`
}

// Index persists offers and performs the lock/unlock transitions
// against the ledger. The auction engine owns it and serializes calls.
type Index struct {
	db     storage.Database
	ledger *ledger.Ledger
}

// New creates an escrow index over the given database and ledger.
func New(db storage.Database, l *ledger.Ledger) *Index {
	return &Index{db: db, ledger: l}
}

// Key returns the storage key for a (space, date) offer.
func Key(spaceID, date string) []byte {
	return []byte(KeyPrefix + spaceID + ":" + date)
}

// Get returns the stored offer for a key, ErrNoOffer if no bid has yet
// been accepted for it.
func (ix *Index) Get(spaceID, date string) (*Offer, error) {
	value, err := ix.db.Get(Key(spaceID, date))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s/%s", ErrNoOffer, spaceID, date)
	}
	if err != nil {
		return nil, fmt.Errorf("read offer: %w", err)
	}

	offer := &Offer{}
	if err := json.Unmarshal(value, offer); err != nil {
		return nil, fmt.Errorf("decode offer: %w", err)
	}
	return offer, nil
}

// CurrentOffer returns the current winning amount and advertiser for a
// key, (0, Empty) if no bid has been accepted yet.
func (ix *Index) CurrentOffer(spaceID, date string) (uint64, ids.ID, error) {
	offer, err := ix.Get(spaceID, date)
	if errors.Is(err, ErrNoOffer) {
		return 0, ids.Empty, nil
	}
	if err != nil {
		return 0, ids.Empty, err
	}
	return offer.Amount, offer.Advertiser, nil
}

// AcceptBid records a validated bid, locking the new advertiser's
// funds and releasing the displaced lock. The engine has already
// checked the floor and the bidder's balance; the debit here re-checks
// funds so the ledger can never go negative.
//
// A displaced advertiser gets their full prior amount back. When the
// same advertiser raises their own bid only the delta moves, so an
// equal re-bid by the holder is a no-op on the ledger.
func (ix *Index) AcceptBid(spaceID, date string, advertiser ids.ID, amount uint64, content Content) error {
	prior, err := ix.Get(spaceID, date)
	if err != nil && !errors.Is(err, ErrNoOffer) {
		return err
	}

	switch {
	case prior == nil:
		if err := ix.ledger.Debit(advertiser, amount); err != nil {
			return err
		}
	case prior.Advertiser == advertiser:
		if delta := amount - prior.Amount; delta > 0 {
			if err := ix.ledger.Debit(advertiser, delta); err != nil {
				return err
			}
		}
	default:
		// Debit before credit: if the debit fails nothing has moved.
		if err := ix.ledger.Debit(advertiser, amount); err != nil {
			return err
		}
		if err := ix.ledger.Credit(prior.Advertiser, prior.Amount); err != nil {
			return err
		}
	}

	return ix.put(spaceID, date, &Offer{
		Amount:     amount,
		Advertiser: advertiser,
		Content:    content,
	})
}

// Collect marks the offer's locked funds as paid out and returns the
// amount. A second collection for the same key fails with
// ErrAlreadyCollected; the expiry gate lives in the engine, which
// holds the clock.
func (ix *Index) Collect(spaceID, date string) (uint64, error) {
	offer, err := ix.Get(spaceID, date)
	if err != nil {
		return 0, err
	}
	if offer.Collected {
		return 0, fmt.Errorf("%w: %s/%s", ErrAlreadyCollected, spaceID, date)
	}

	offer.Collected = true
	if err := ix.put(spaceID, date, offer); err != nil {
		return 0, err
	}
	return offer.Amount, nil
}

// Totals sweeps every offer and returns the sum of still-locked
// amounts and of already-collected amounts.
func (ix *Index) Totals() (locked uint64, collected uint64, err error) {
	err = ix.db.Iterate([]byte(KeyPrefix), func(_, value []byte) error {
		offer := &Offer{}
		if err := json.Unmarshal(value, offer); err != nil {
			return fmt.Errorf("decode offer: %w", err)
		}
		if offer.Collected {
			collected += offer.Amount
		} else {
			locked += offer.Amount
		}
		return nil
	})
	return locked, collected, err
}

func (ix *Index) put(spaceID, date string, offer *Offer) error {
	record, err := json.Marshal(offer)
	if err != nil {
		return fmt.Errorf("encode offer: %w", err)
	}
	if err := ix.db.Put(Key(spaceID, date), record); err != nil {
		return fmt.Errorf("write offer: %w", err)
	}
	return nil
}
