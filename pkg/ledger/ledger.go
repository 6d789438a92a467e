// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package ledger tracks each account's available balance in the unit
// of account. Funds locked against a winning bid are simply not in the
// available balance; the escrow index records who is locked for how
// much.
package ledger

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/adxyz/adspace/pkg/ids"
	"github.com/adxyz/adspace/pkg/storage"
)

var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInvalidAmount     = errors.New("amount must be positive")
)

// KeyPrefix is the storage namespace for balances.
const KeyPrefix = "balance:"

// Ledger is pure key-value balance bookkeeping over the storage
// substrate. It is owned by the auction engine; callers must serialize
// mutations themselves.
type Ledger struct {
	db storage.Database
}

// New creates a ledger over the given database.
func New(db storage.Database) *Ledger {
	return &Ledger{db: db}
}

// Key returns the storage key for an account's balance.
func Key(account ids.ID) []byte {
	return []byte(KeyPrefix + account.String())
}

// BalanceOf returns the available balance of an account. An account
// that was never credited has balance 0.
func (l *Ledger) BalanceOf(account ids.ID) (uint64, error) {
	value, err := l.db.Get(Key(account))
	if errors.Is(err, storage.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read balance: %w", err)
	}
	return decodeBalance(value)
}

// Credit increases an account's available balance.
func (l *Ledger) Credit(account ids.ID, amount uint64) error {
	if amount == 0 {
		return ErrInvalidAmount
	}
	current, err := l.BalanceOf(account)
	if err != nil {
		return err
	}
	return l.put(account, current+amount)
}

// Debit decreases an account's available balance, failing with
// ErrInsufficientFunds rather than going negative.
func (l *Ledger) Debit(account ids.ID, amount uint64) error {
	if amount == 0 {
		return ErrInvalidAmount
	}
	current, err := l.BalanceOf(account)
	if err != nil {
		return err
	}
	if current < amount {
		return fmt.Errorf("%w: have %d, need %d", ErrInsufficientFunds, current, amount)
	}
	return l.put(account, current-amount)
}

// Zero clears an account's balance and returns the amount released.
func (l *Ledger) Zero(account ids.ID) (uint64, error) {
	current, err := l.BalanceOf(account)
	if err != nil {
		return 0, err
	}
	if current == 0 {
		return 0, nil
	}
	if err := l.db.Delete(Key(account)); err != nil {
		return 0, fmt.Errorf("clear balance: %w", err)
	}
	return current, nil
}

// TotalAvailable sums every stored balance.
func (l *Ledger) TotalAvailable() (uint64, error) {
	var total uint64
	err := l.db.Iterate([]byte(KeyPrefix), func(_, value []byte) error {
		balance, err := decodeBalance(value)
		if err != nil {
			return err
		}
		total += balance
		return nil
	})
	return total, err
}

func (l *Ledger) put(account ids.ID, balance uint64) error {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, balance)
	if err := l.db.Put(Key(account), buf); err != nil {
		return fmt.Errorf("write balance: %w", err)
	}
	return nil
}

func decodeBalance(value []byte) (uint64, error) {
	if len(value) != 8 {
		return 0, fmt.Errorf("corrupt balance record: %d bytes", len(value))
	}
	return binary.BigEndian.Uint64(value), nil
}
