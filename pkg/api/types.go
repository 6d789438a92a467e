// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package api

import (
	"fmt"

	"github.com/adxyz/adspace/pkg/deposit"
)

// Witness carries the proof that the named caller authorized the
// request. The signature covers the operation's canonical payload.
type Witness struct {
	Caller    string `json:"caller" binding:"required"`
	PublicKey string `json:"public_key" binding:"required"`
	Signature string `json:"signature" binding:"required"`
}

// CreateRequest registers a new ad space.
type CreateRequest struct {
	Witness
	SpaceID  string `json:"ad_space_id" binding:"required"`
	MinOffer uint64 `json:"min_offer"`
}

// Payload is the canonical byte string the witness signature covers.
func (r *CreateRequest) Payload() []byte {
	return []byte(fmt.Sprintf("create|%s|%d", r.SpaceID, r.MinOffer))
}

// BuyRequest bids to occupy a space on a date.
type BuyRequest struct {
	Witness
	SpaceID string `json:"ad_space_id" binding:"required"`
	Amount  uint64 `json:"amount"`
	Date    string `json:"date" binding:"required"`
	Text    string `json:"text"`
	URL     string `json:"url"`
}

func (r *BuyRequest) Payload() []byte {
	return []byte(fmt.Sprintf("buy|%s|%d|%s|%s|%s", r.SpaceID, r.Amount, r.Date, r.Text, r.URL))
}

// DepositRequest attaches a confirmed external value transfer.
type DepositRequest struct {
	Witness
	Transfer deposit.Transfer `json:"transfer"`
}

func (r *DepositRequest) Payload() []byte {
	return []byte(fmt.Sprintf("deposit|%s", r.Transfer.ID))
}

// WithdrawRequest releases the caller's entire available balance.
type WithdrawRequest struct {
	Witness
}

func (r *WithdrawRequest) Payload() []byte {
	return []byte("withdraw")
}

// ProfitRequest collects an elapsed date's winning bid for the space
// owner.
type ProfitRequest struct {
	Witness
	SpaceID string `json:"ad_space_id" binding:"required"`
	Date    string `json:"date" binding:"required"`
}

func (r *ProfitRequest) Payload() []byte {
	return []byte(fmt.Sprintf("profit|%s|%s", r.SpaceID, r.Date))
}

// Response is the envelope every operation answers with.
type Response struct {
	Success bool   `json:"success"`
	Kind    string `json:"kind,omitempty"`
	Error   string `json:"error,omitempty"`

	// Operation-specific values
	MinOffer *uint64     `json:"min_offer,omitempty"`
	Amount   *uint64     `json:"amount,omitempty"`
	Offer    *OfferView  `json:"offer,omitempty"`
	Audit    interface{} `json:"audit,omitempty"`
}

// OfferView is the read-only rendering of a stored winning offer.
type OfferView struct {
	Amount     uint64 `json:"amount"`
	Advertiser string `json:"advertiser"`
	Text       string `json:"text"`
	URL        string `json:"url"`
	Collected  bool   `json:"collected"`
}
