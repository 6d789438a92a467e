// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package engine

import (
	"sync"
	"time"

	"github.com/adxyz/adspace/pkg/ids"
)

// EventType identifies what happened on the engine.
type EventType string

const (
	EventSpaceCreated    EventType = "space_created"
	EventDeposit         EventType = "deposit"
	EventBidAccepted     EventType = "bid_accepted"
	EventOutbid          EventType = "outbid"
	EventWithdrawal      EventType = "withdrawal"
	EventProfitCollected EventType = "profit_collected"
)

// Event is one engine state change, published after the mutation
// committed.
type Event struct {
	Type      EventType `json:"type"`
	Space     string    `json:"space,omitempty"`
	Date      string    `json:"date,omitempty"`
	Account   ids.ID    `json:"account,omitempty"`
	Amount    uint64    `json:"amount,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// eventBus fans engine events out to subscribers. Slow subscribers
// drop events rather than stall the engine.
type eventBus struct {
	mu   sync.Mutex
	subs map[int]chan Event
	next int
}

func newEventBus() *eventBus {
	return &eventBus{subs: make(map[int]chan Event)}
}

// Subscribe registers a new listener. The returned cancel func must be
// called to release it.
func (b *eventBus) Subscribe() (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.next
	b.next++
	ch := make(chan Event, 64)
	b.subs[id] = ch

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if ch, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(ch)
		}
	}
	return ch, cancel
}

func (b *eventBus) publish(ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
