// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ledger

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/adxyz/adspace/pkg/ids"
	"github.com/adxyz/adspace/pkg/storage"
)

func TestBalanceDefaultsToZero(t *testing.T) {
	require := require.New(t)
	l := New(storage.NewMemDB())

	// Never-credited account reads as 0, not as an error
	balance, err := l.BalanceOf(ids.GenerateTestID())
	require.NoError(err)
	require.Zero(balance)
}

func TestCreditAndDebit(t *testing.T) {
	require := require.New(t)
	l := New(storage.NewMemDB())
	account := ids.GenerateTestID()

	require.NoError(l.Credit(account, 500))
	balance, err := l.BalanceOf(account)
	require.NoError(err)
	require.Equal(uint64(500), balance)

	require.NoError(l.Credit(account, 250))
	balance, err = l.BalanceOf(account)
	require.NoError(err)
	require.Equal(uint64(750), balance)

	require.NoError(l.Debit(account, 750))
	balance, err = l.BalanceOf(account)
	require.NoError(err)
	require.Zero(balance)
}

func TestDebitInsufficientFunds(t *testing.T) {
	require := require.New(t)
	l := New(storage.NewMemDB())
	account := ids.GenerateTestID()

	require.NoError(l.Credit(account, 100))

	err := l.Debit(account, 101)
	require.ErrorIs(err, ErrInsufficientFunds)

	// Failed debit leaves the balance untouched
	balance, err := l.BalanceOf(account)
	require.NoError(err)
	require.Equal(uint64(100), balance)
}

func TestZeroAmountRejected(t *testing.T) {
	require := require.New(t)
	l := New(storage.NewMemDB())
	account := ids.GenerateTestID()

	require.ErrorIs(l.Credit(account, 0), ErrInvalidAmount)
	require.ErrorIs(l.Debit(account, 0), ErrInvalidAmount)
}

func TestZero(t *testing.T) {
	require := require.New(t)
	l := New(storage.NewMemDB())
	account := ids.GenerateTestID()

	require.NoError(l.Credit(account, 340))

	released, err := l.Zero(account)
	require.NoError(err)
	require.Equal(uint64(340), released)

	balance, err := l.BalanceOf(account)
	require.NoError(err)
	require.Zero(balance)

	// Zeroing an empty account releases nothing
	released, err = l.Zero(account)
	require.NoError(err)
	require.Zero(released)
}

func TestTotalAvailable(t *testing.T) {
	require := require.New(t)
	l := New(storage.NewMemDB())

	require.NoError(l.Credit(ids.GenerateTestID(), 100))
	require.NoError(l.Credit(ids.GenerateTestID(), 200))
	require.NoError(l.Credit(ids.GenerateTestID(), 300))

	total, err := l.TotalAvailable()
	require.NoError(err)
	require.Equal(uint64(600), total)
}
