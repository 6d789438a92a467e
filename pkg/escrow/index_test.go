// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package escrow

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/adxyz/adspace/pkg/ids"
	"github.com/adxyz/adspace/pkg/ledger"
	"github.com/adxyz/adspace/pkg/storage"
)

func newIndex(t *testing.T) (*Index, *ledger.Ledger) {
	t.Helper()
	db := storage.NewMemDB()
	l := ledger.New(db)
	return New(db, l), l
}

func balance(t *testing.T, l *ledger.Ledger, account ids.ID) uint64 {
	t.Helper()
	b, err := l.BalanceOf(account)
	require.NoError(t, err)
	return b
}

var content = Content{Text: "fresh roast", URL: "https://ads.example/roast"}

func TestFirstBidLocksFunds(t *testing.T) {
	require := require.New(t)
	ix, l := newIndex(t)
	advertiser := ids.GenerateTestID()

	require.NoError(l.Credit(advertiser, 500))
	require.NoError(ix.AcceptBid("home-banner", "20250101", advertiser, 150, content))

	require.Equal(uint64(350), balance(t, l, advertiser))

	offer, err := ix.Get("home-banner", "20250101")
	require.NoError(err)
	require.Equal(uint64(150), offer.Amount)
	require.Equal(advertiser, offer.Advertiser)
	require.Equal(content, offer.Content)
	require.False(offer.Collected)
}

func TestCurrentOfferDefaults(t *testing.T) {
	require := require.New(t)
	ix, _ := newIndex(t)

	amount, advertiser, err := ix.CurrentOffer("home-banner", "20250101")
	require.NoError(err)
	require.Zero(amount)
	require.True(advertiser.IsEmpty())
}

func TestDisplacementReleasesExactly(t *testing.T) {
	require := require.New(t)
	ix, l := newIndex(t)
	x := ids.GenerateTestID()
	y := ids.GenerateTestID()

	require.NoError(l.Credit(x, 500))
	require.NoError(l.Credit(y, 300))

	require.NoError(ix.AcceptBid("home-banner", "20250101", x, 150, content))
	require.NoError(ix.AcceptBid("home-banner", "20250101", y, 200, content))

	// X got exactly 150 back, Y lost exactly 200
	require.Equal(uint64(500), balance(t, l, x))
	require.Equal(uint64(100), balance(t, l, y))

	offer, err := ix.Get("home-banner", "20250101")
	require.NoError(err)
	require.Equal(uint64(200), offer.Amount)
	require.Equal(y, offer.Advertiser)
}

func TestSelfRaiseMovesOnlyDelta(t *testing.T) {
	require := require.New(t)
	ix, l := newIndex(t)
	advertiser := ids.GenerateTestID()

	require.NoError(l.Credit(advertiser, 500))
	require.NoError(ix.AcceptBid("home-banner", "20250101", advertiser, 150, content))
	require.NoError(ix.AcceptBid("home-banner", "20250101", advertiser, 220, content))

	// 150 locked then raised by 70, never 150+220
	require.Equal(uint64(280), balance(t, l, advertiser))

	offer, err := ix.Get("home-banner", "20250101")
	require.NoError(err)
	require.Equal(uint64(220), offer.Amount)
}

func TestEqualRebidBySameAdvertiser(t *testing.T) {
	require := require.New(t)
	ix, l := newIndex(t)
	advertiser := ids.GenerateTestID()

	require.NoError(l.Credit(advertiser, 500))
	require.NoError(ix.AcceptBid("home-banner", "20250101", advertiser, 150, content))
	require.NoError(ix.AcceptBid("home-banner", "20250101", advertiser, 150, content))

	require.Equal(uint64(350), balance(t, l, advertiser))
}

func TestDebitFailureLeavesPriorLock(t *testing.T) {
	require := require.New(t)
	ix, l := newIndex(t)
	x := ids.GenerateTestID()
	y := ids.GenerateTestID()

	require.NoError(l.Credit(x, 500))
	require.NoError(ix.AcceptBid("home-banner", "20250101", x, 150, content))

	// Y has no funds; the accept fails with nothing moved
	err := ix.AcceptBid("home-banner", "20250101", y, 200, content)
	require.ErrorIs(err, ledger.ErrInsufficientFunds)

	require.Equal(uint64(350), balance(t, l, x))
	offer, err := ix.Get("home-banner", "20250101")
	require.NoError(err)
	require.Equal(x, offer.Advertiser)
	require.Equal(uint64(150), offer.Amount)
}

func TestCollect(t *testing.T) {
	require := require.New(t)
	ix, l := newIndex(t)
	advertiser := ids.GenerateTestID()

	require.NoError(l.Credit(advertiser, 500))
	require.NoError(ix.AcceptBid("home-banner", "20250101", advertiser, 150, content))

	amount, err := ix.Collect("home-banner", "20250101")
	require.NoError(err)
	require.Equal(uint64(150), amount)

	// Second collection fails loudly, not silently
	_, err = ix.Collect("home-banner", "20250101")
	require.ErrorIs(err, ErrAlreadyCollected)
}

func TestCollectMissingOffer(t *testing.T) {
	require := require.New(t)
	ix, _ := newIndex(t)

	_, err := ix.Collect("home-banner", "20250101")
	require.ErrorIs(err, ErrNoOffer)
}

func TestTotals(t *testing.T) {
	require := require.New(t)
	ix, l := newIndex(t)
	advertiser := ids.GenerateTestID()

	require.NoError(l.Credit(advertiser, 1000))
	require.NoError(ix.AcceptBid("home-banner", "20250101", advertiser, 150, content))
	require.NoError(ix.AcceptBid("home-banner", "20250102", advertiser, 300, content))
	require.NoError(ix.AcceptBid("sidebar", "20250101", advertiser, 50, content))

	_, err := ix.Collect("sidebar", "20250101")
	require.NoError(err)

	locked, collected, err := ix.Totals()
	require.NoError(err)
	require.Equal(uint64(450), locked)
	require.Equal(uint64(50), collected)
}
