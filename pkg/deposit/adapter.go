// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package deposit bridges external value transfers and the internal
// ledger. Inbound transfers of the recognized asset credit the sender;
// completed withdrawals leave as outbound transfers.
package deposit

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/adxyz/adspace/pkg/engine"
	"github.com/adxyz/adspace/pkg/ids"
	"github.com/adxyz/adspace/pkg/log"
)

var (
	ErrUnsupportedAsset = errors.New("unsupported asset kind")
	ErrInvalidTransfer  = errors.New("invalid transfer")
)

// Balances are denominated in micro-units of the external asset.
const unitScale = 6

// Output is one recipient leg of a value transfer.
type Output struct {
	Asset     string          `json:"asset"`
	Recipient ids.ID          `json:"recipient"`
	Amount    decimal.Decimal `json:"amount"`
}

// Transfer is an external value-transfer record, inbound or outbound.
type Transfer struct {
	ID      string   `json:"id"`
	Sender  ids.ID   `json:"sender"`
	Outputs []Output `json:"outputs"`
}

// Broadcaster submits an outbound transfer to the external
// value-transfer mechanism.
type Broadcaster interface {
	Broadcast(t *Transfer) error
}

// Adapter sums custodial outputs of inbound transfers into ledger
// credits and emits outbound transfers for withdrawals.
type Adapter struct {
	engine      *engine.Engine
	custodian   ids.ID
	asset       string
	broadcaster Broadcaster
	log         log.Logger
}

// NewAdapter creates an adapter crediting deposits into the engine.
// custodian is this system's own external address; asset is the one
// recognized unit of account.
func NewAdapter(e *engine.Engine, custodian ids.ID, asset string, b Broadcaster, logger log.Logger) *Adapter {
	return &Adapter{
		engine:      e,
		custodian:   custodian,
		asset:       asset,
		broadcaster: b,
		log:         logger,
	}
}

// Process handles one confirmed inbound transfer: every output
// addressed to the custodial identity is summed and credited to the
// sender, exactly once per transfer. Any custodial output in a foreign
// asset rejects the whole transfer.
func (a *Adapter) Process(t *Transfer) error {
	if t.ID == "" || t.Sender.IsEmpty() {
		return fmt.Errorf("%w: missing id or sender", ErrInvalidTransfer)
	}

	total := decimal.Zero
	for _, out := range t.Outputs {
		if out.Recipient != a.custodian {
			continue
		}
		if out.Asset != a.asset {
			return fmt.Errorf("%w: %q", ErrUnsupportedAsset, out.Asset)
		}
		if out.Amount.IsNegative() {
			return fmt.Errorf("%w: negative output amount", ErrInvalidTransfer)
		}
		total = total.Add(out.Amount)
	}

	if total.IsZero() {
		a.log.Warn("transfer carried nothing for custody", "transfer", t.ID)
		return nil
	}

	units, err := toUnits(total)
	if err != nil {
		return err
	}
	if err := a.engine.Deposit(t.Sender, units); err != nil {
		return err
	}

	a.log.Info("deposit processed", "transfer", t.ID, "sender", t.Sender, "units", units)
	return nil
}

// Pay implements engine.Payer: the reverse path emitting one outbound
// transfer of the released amount to the account's external address.
func (a *Adapter) Pay(account ids.ID, amount uint64) error {
	t := &Transfer{
		ID:     uuid.NewString(),
		Sender: a.custodian,
		Outputs: []Output{{
			Asset:     a.asset,
			Recipient: account,
			Amount:    FromUnits(amount),
		}},
	}
	if err := a.broadcaster.Broadcast(t); err != nil {
		return err
	}
	a.log.Info("outbound transfer emitted", "transfer", t.ID, "account", account, "units", amount)
	return nil
}

// FromUnits renders internal micro-units as an external asset amount.
func FromUnits(amount uint64) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(amount), -unitScale)
}

// toUnits converts an external asset amount to internal micro-units.
// Amounts with sub-micro precision are rejected rather than rounded.
func toUnits(amount decimal.Decimal) (uint64, error) {
	scaled := amount.Shift(unitScale)
	if !scaled.IsInteger() {
		return 0, fmt.Errorf("%w: amount %s below unit resolution", ErrInvalidTransfer, amount)
	}
	i := scaled.BigInt()
	if !i.IsUint64() {
		return 0, fmt.Errorf("%w: amount %s out of range", ErrInvalidTransfer, amount)
	}
	return i.Uint64(), nil
}
