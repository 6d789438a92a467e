// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package metric

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all prometheus metrics for the adspace engine.
type Metrics struct {
	// Auction metrics
	SpacesCreated prometheus.Counter
	BidsAccepted  prometheus.Counter
	BidsRejected  *prometheus.CounterVec

	// Escrow metrics
	DepositsTotal     prometheus.Counter
	DepositedUnits    prometheus.Counter
	WithdrawalsTotal  prometheus.Counter
	WithdrawnUnits    prometheus.Counter
	ProfitCollections prometheus.Counter
	LockedUnits       prometheus.Gauge
}

// NewMetrics creates and registers the engine metrics.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		SpacesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "adspace",
			Name:      "spaces_created_total",
			Help:      "Total number of ad spaces registered",
		}),
		BidsAccepted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "adspace",
			Name:      "bids_accepted_total",
			Help:      "Total number of accepted bids",
		}),
		BidsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "adspace",
			Name:      "bids_rejected_total",
			Help:      "Total number of rejected bids by reason",
		}, []string{"reason"}),
		DepositsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "adspace",
			Name:      "deposits_total",
			Help:      "Total number of deposits credited",
		}),
		DepositedUnits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "adspace",
			Name:      "deposited_units_total",
			Help:      "Total units of account deposited",
		}),
		WithdrawalsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "adspace",
			Name:      "withdrawals_total",
			Help:      "Total number of completed withdrawals",
		}),
		WithdrawnUnits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "adspace",
			Name:      "withdrawn_units_total",
			Help:      "Total units of account withdrawn",
		}),
		ProfitCollections: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "adspace",
			Name:      "profit_collections_total",
			Help:      "Total number of owner profit collections",
		}),
		LockedUnits: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "adspace",
			Name:      "locked_units",
			Help:      "Units of account currently locked in uncollected offers",
		}),
	}

	if reg != nil {
		reg.MustRegister(
			m.SpacesCreated,
			m.BidsAccepted,
			m.BidsRejected,
			m.DepositsTotal,
			m.DepositedUnits,
			m.WithdrawalsTotal,
			m.WithdrawnUnits,
			m.ProfitCollections,
			m.LockedUnits,
		)
	}
	return m
}

// NewNopMetrics creates unregistered metrics for tests.
func NewNopMetrics() *Metrics {
	return NewMetrics(nil)
}
