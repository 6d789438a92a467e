// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package engine orchestrates the per-slot, per-day sealed-bid
// auction: it validates bids against the registry and escrow index,
// moves funds between available and locked, and settles withdrawals
// and owner profit.
//
// Every mutating operation runs under one engine mutex and validates
// fully before touching storage, so each call is all-or-nothing.
package engine

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/adxyz/adspace/pkg/escrow"
	"github.com/adxyz/adspace/pkg/ids"
	"github.com/adxyz/adspace/pkg/ledger"
	"github.com/adxyz/adspace/pkg/log"
	"github.com/adxyz/adspace/pkg/metric"
	"github.com/adxyz/adspace/pkg/registry"
	"github.com/adxyz/adspace/pkg/storage"
)

var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrBidTooLow       = errors.New("bid below minimum offer")
	ErrAuctionClosed   = errors.New("auction closed for date")
	ErrForbidden       = errors.New("caller does not own ad space")
	ErrNotExpired      = errors.New("date has not elapsed")
)

// Lifetime deposit/withdrawal totals, kept so the audit sweep can
// check conservation of funds.
const (
	depositedKey = "meta:deposited"
	withdrawnKey = "meta:withdrawn"
)

// Payer emits the outbound value transfer of a completed withdrawal.
// The deposit adapter provides the production implementation.
type Payer interface {
	Pay(account ids.ID, amount uint64) error
}

// Engine is the auction/escrow orchestrator. It is the sole owner of
// the ledger and escrow index.
type Engine struct {
	mu sync.Mutex

	db       storage.Database
	ledger   *ledger.Ledger
	registry *registry.Registry
	escrow   *escrow.Index

	clock   Clock
	payer   Payer
	events  *eventBus
	metrics *metric.Metrics
	log     log.Logger
}

// New creates an engine over its stores. A nil clock defaults to the
// real one; payer may be nil when no outbound path is wired (tests).
func New(db storage.Database, clock Clock, payer Payer, metrics *metric.Metrics, logger log.Logger) *Engine {
	if clock == nil {
		clock = RealClock{}
	}
	if metrics == nil {
		metrics = metric.NewNopMetrics()
	}
	l := ledger.New(db)
	return &Engine{
		db:       db,
		ledger:   l,
		registry: registry.New(db),
		escrow:   escrow.New(db, l),
		clock:    clock,
		payer:    payer,
		events:   newEventBus(),
		metrics:  metrics,
		log:      logger,
	}
}

// SetPayer wires the outbound transfer path. The deposit adapter and
// the engine reference each other, so the payer arrives after
// construction.
func (e *Engine) SetPayer(p Payer) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.payer = p
}

// Subscribe registers a listener for engine events.
func (e *Engine) Subscribe() (<-chan Event, func()) {
	return e.events.Subscribe()
}

// CreateAdSpace registers a new ad space owned by the creator.
func (e *Engine) CreateAdSpace(owner ids.ID, id string, minOffer uint64) error {
	if id == "" {
		return fmt.Errorf("%w: empty ad space id", ErrInvalidArgument)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.registry.Create(owner, id, minOffer); err != nil {
		return err
	}

	e.metrics.SpacesCreated.Inc()
	e.log.Info("ad space created", "space", id, "owner", owner, "min_offer", minOffer)
	e.publish(Event{Type: EventSpaceCreated, Space: id, Account: owner, Amount: minOffer})
	return nil
}

// MinOfferFor returns the minimum next bid for a space on a date: the
// registered floor or the current winning offer, whichever is higher.
func (e *Engine) MinOfferFor(id, date string) (uint64, error) {
	if !validDate(date) {
		return 0, fmt.Errorf("%w: date must be 8 digits yyyymmdd", ErrInvalidArgument)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	return e.minOfferLocked(id, date)
}

func (e *Engine) minOfferLocked(id, date string) (uint64, error) {
	floor, err := e.registry.MinOfferOf(id)
	if err != nil {
		return 0, err
	}
	current, _, err := e.escrow.CurrentOffer(id, date)
	if err != nil {
		return 0, err
	}
	if current > floor {
		return current, nil
	}
	return floor, nil
}

// Bid places an offer to occupy a space on a date. A bid equal to the
// current winning offer is accepted and reassigns the lock to the most
// recent bidder.
func (e *Engine) Bid(advertiser ids.ID, id string, amount uint64, date string, content escrow.Content) error {
	if id == "" || content.Text == "" || content.URL == "" {
		e.metrics.BidsRejected.WithLabelValues("invalid_argument").Inc()
		return fmt.Errorf("%w: ad space id, text and url are required", ErrInvalidArgument)
	}
	if !validDate(date) {
		e.metrics.BidsRejected.WithLabelValues("invalid_argument").Inc()
		return fmt.Errorf("%w: date must be 8 digits yyyymmdd", ErrInvalidArgument)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, err := e.registry.Get(id); err != nil {
		e.metrics.BidsRejected.WithLabelValues("not_found").Inc()
		return err
	}

	// The auction for a date is open until the date occurs, then it is
	// closed permanently.
	if date <= today(e.clock) {
		e.metrics.BidsRejected.WithLabelValues("closed").Inc()
		return fmt.Errorf("%w: %s", ErrAuctionClosed, date)
	}

	floor, err := e.minOfferLocked(id, date)
	if err != nil {
		return err
	}
	if amount < floor {
		e.metrics.BidsRejected.WithLabelValues("too_low").Inc()
		return fmt.Errorf("%w: offered %d, need at least %d", ErrBidTooLow, amount, floor)
	}

	balance, err := e.ledger.BalanceOf(advertiser)
	if err != nil {
		return err
	}
	if balance < amount {
		e.metrics.BidsRejected.WithLabelValues("insufficient_funds").Inc()
		return fmt.Errorf("%w: have %d, bid %d", ledger.ErrInsufficientFunds, balance, amount)
	}

	prior, priorAdvertiser, err := e.escrow.CurrentOffer(id, date)
	if err != nil {
		return err
	}
	if err := e.escrow.AcceptBid(id, date, advertiser, amount, content); err != nil {
		return err
	}

	e.metrics.BidsAccepted.Inc()
	e.metrics.LockedUnits.Add(float64(amount - prior))
	e.log.Info("bid accepted",
		"space", id, "date", date, "advertiser", advertiser,
		"amount", amount, "displaced", prior)

	if !priorAdvertiser.IsEmpty() && priorAdvertiser != advertiser {
		e.publish(Event{Type: EventOutbid, Space: id, Date: date, Account: priorAdvertiser, Amount: prior})
	}
	e.publish(Event{Type: EventBidAccepted, Space: id, Date: date, Account: advertiser, Amount: amount})
	return nil
}

// Deposit credits an account's available balance. Called by the
// deposit adapter after it confirmed an inbound value transfer of the
// recognized asset.
func (e *Engine) Deposit(depositor ids.ID, amount uint64) error {
	if amount == 0 {
		return fmt.Errorf("%w: deposit amount must be positive", ErrInvalidArgument)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.ledger.Credit(depositor, amount); err != nil {
		return err
	}
	if err := e.addMeta(depositedKey, amount); err != nil {
		return err
	}

	e.metrics.DepositsTotal.Inc()
	e.metrics.DepositedUnits.Add(float64(amount))
	e.log.Info("deposit credited", "account", depositor, "amount", amount)
	e.publish(Event{Type: EventDeposit, Account: depositor, Amount: amount})
	return nil
}

// Withdraw pays out an account's entire available balance through the
// outbound transfer path and zeroes its ledger entry. Locked funds
// stay locked; they belong to the space owner once the date elapses.
func (e *Engine) Withdraw(account ids.ID) (uint64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	amount, err := e.ledger.BalanceOf(account)
	if err != nil {
		return 0, err
	}
	if amount == 0 {
		return 0, fmt.Errorf("%w: nothing to withdraw", ledger.ErrInsufficientFunds)
	}

	if e.payer != nil {
		if err := e.payer.Pay(account, amount); err != nil {
			return 0, fmt.Errorf("outbound transfer: %w", err)
		}
	}
	if _, err := e.ledger.Zero(account); err != nil {
		return 0, err
	}
	if err := e.addMeta(withdrawnKey, amount); err != nil {
		return 0, err
	}

	e.metrics.WithdrawalsTotal.Inc()
	e.metrics.WithdrawnUnits.Add(float64(amount))
	e.log.Info("withdrawal completed", "account", account, "amount", amount)
	e.publish(Event{Type: EventWithdrawal, Account: account, Amount: amount})
	return amount, nil
}

// CollectProfit moves an elapsed date's winning-bid amount to the
// space owner's available balance. Only the owner may collect, only
// after the date elapsed, and only once per (space, date).
func (e *Engine) CollectProfit(caller ids.ID, id, date string) (uint64, error) {
	if !validDate(date) {
		return 0, fmt.Errorf("%w: date must be 8 digits yyyymmdd", ErrInvalidArgument)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	space, err := e.registry.Get(id)
	if err != nil {
		return 0, err
	}
	if space.Owner != caller {
		return 0, fmt.Errorf("%w: %s", ErrForbidden, id)
	}
	if date >= today(e.clock) {
		return 0, fmt.Errorf("%w: %s", ErrNotExpired, date)
	}

	amount, err := e.escrow.Collect(id, date)
	if err != nil {
		return 0, err
	}
	if err := e.ledger.Credit(space.Owner, amount); err != nil {
		return 0, err
	}

	e.metrics.ProfitCollections.Inc()
	e.metrics.LockedUnits.Sub(float64(amount))
	e.log.Info("profit collected", "space", id, "date", date, "owner", space.Owner, "amount", amount)
	e.publish(Event{Type: EventProfitCollected, Space: id, Date: date, Account: space.Owner, Amount: amount})
	return amount, nil
}

// Offer returns the stored winning offer for a (space, date) key.
func (e *Engine) Offer(id, date string) (*escrow.Offer, error) {
	if !validDate(date) {
		return nil, fmt.Errorf("%w: date must be 8 digits yyyymmdd", ErrInvalidArgument)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, err := e.registry.Get(id); err != nil {
		return nil, err
	}
	return e.escrow.Get(id, date)
}

// AuditReport is a full sweep of the books.
type AuditReport struct {
	Available uint64 `json:"available"`
	Locked    uint64 `json:"locked"`
	Collected uint64 `json:"collected"`
	Deposited uint64 `json:"deposited"`
	Withdrawn uint64 `json:"withdrawn"`
	Spaces    int    `json:"spaces"`
	Balanced  bool   `json:"balanced"`
}

// Audit sweeps every balance and offer and checks conservation of
// funds: available plus still-locked amounts must equal lifetime
// deposits minus lifetime withdrawals. Collected amounts re-enter
// owners' available balances, so they appear on the left already.
func (e *Engine) Audit() (*AuditReport, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	available, err := e.ledger.TotalAvailable()
	if err != nil {
		return nil, err
	}
	locked, collected, err := e.escrow.Totals()
	if err != nil {
		return nil, err
	}
	spaces, err := e.registry.Count()
	if err != nil {
		return nil, err
	}
	deposited, err := e.readMeta(depositedKey)
	if err != nil {
		return nil, err
	}
	withdrawn, err := e.readMeta(withdrawnKey)
	if err != nil {
		return nil, err
	}

	report := &AuditReport{
		Available: available,
		Locked:    locked,
		Collected: collected,
		Deposited: deposited,
		Withdrawn: withdrawn,
		Spaces:    spaces,
		Balanced:  available+locked == deposited-withdrawn,
	}
	if !report.Balanced {
		e.log.Error("audit imbalance",
			"available", available, "locked", locked,
			"deposited", deposited, "withdrawn", withdrawn)
	}
	return report, nil
}

func (e *Engine) publish(ev Event) {
	ev.Timestamp = e.clock.Now().UTC()
	e.events.publish(ev)
}

func (e *Engine) addMeta(key string, delta uint64) error {
	current, err := e.readMeta(key)
	if err != nil {
		return err
	}
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, current+delta)
	return e.db.Put([]byte(key), buf)
}

func (e *Engine) readMeta(key string) (uint64, error) {
	value, err := e.db.Get([]byte(key))
	if errors.Is(err, storage.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if len(value) != 8 {
		return 0, fmt.Errorf("corrupt meta counter %q", key)
	}
	return binary.BigEndian.Uint64(value), nil
}
