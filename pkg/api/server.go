// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package api exposes the caller-facing operation surface over HTTP.
// Each operation has its own typed request decoded once at the
// boundary; every mutating operation carries a witness the server
// verifies before anything else runs.
package api

import (
	"encoding/hex"
	"errors"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/adxyz/adspace/pkg/crypto"
	"github.com/adxyz/adspace/pkg/deposit"
	"github.com/adxyz/adspace/pkg/engine"
	"github.com/adxyz/adspace/pkg/escrow"
	"github.com/adxyz/adspace/pkg/ids"
	"github.com/adxyz/adspace/pkg/ledger"
	"github.com/adxyz/adspace/pkg/log"
	"github.com/adxyz/adspace/pkg/registry"
)

// Server serves the operation surface for one engine.
type Server struct {
	engine   *engine.Engine
	adapter  *deposit.Adapter
	verifier crypto.Verifier
	log      log.Logger
}

// NewServer creates an API server. A nil verifier defaults to ed25519
// witness checking.
func NewServer(e *engine.Engine, a *deposit.Adapter, v crypto.Verifier, logger log.Logger) *Server {
	if v == nil {
		v = crypto.Ed25519Verifier{}
	}
	return &Server{engine: e, adapter: a, verifier: v, log: logger}
}

// Router builds the gin router with all routes registered.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), cors.Default(), requestID())

	v1 := r.Group("/v1")
	{
		v1.POST("/create", s.handleCreate)
		v1.GET("/minoffer", s.handleMinOffer)
		v1.POST("/buy", s.handleBuy)
		v1.POST("/deposit", s.handleDeposit)
		v1.POST("/withdraw", s.handleWithdraw)
		v1.POST("/profit", s.handleProfit)
		v1.GET("/offer", s.handleOffer)
		v1.GET("/audit", s.handleAudit)
	}
	r.GET("/ws/events", s.handleEvents)

	return r
}

// requestID tags every request for log correlation.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

// authorize verifies the witness over the canonical payload and
// returns the proven caller identity. Proof failure aborts the call
// before any other validation.
func (s *Server) authorize(w Witness, payload []byte) (ids.ID, error) {
	caller, err := ids.FromString(w.Caller)
	if err != nil {
		return ids.Empty, crypto.ErrBadWitness
	}
	pub, err := hex.DecodeString(w.PublicKey)
	if err != nil {
		return ids.Empty, crypto.ErrBadWitness
	}
	sig, err := hex.DecodeString(w.Signature)
	if err != nil {
		return ids.Empty, crypto.ErrBadWitness
	}
	if err := s.verifier.Verify(caller, payload, pub, sig); err != nil {
		return ids.Empty, err
	}
	return caller, nil
}

func (s *Server) handleCreate(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, engine.ErrInvalidArgument)
		return
	}
	caller, err := s.authorize(req.Witness, req.Payload())
	if err != nil {
		s.fail(c, err)
		return
	}
	if err := s.engine.CreateAdSpace(caller, req.SpaceID, req.MinOffer); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true})
}

func (s *Server) handleMinOffer(c *gin.Context) {
	id := c.Query("id")
	date := c.Query("date")
	min, err := s.engine.MinOfferFor(id, date)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, MinOffer: &min})
}

func (s *Server) handleBuy(c *gin.Context) {
	var req BuyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, engine.ErrInvalidArgument)
		return
	}
	caller, err := s.authorize(req.Witness, req.Payload())
	if err != nil {
		s.fail(c, err)
		return
	}
	content := escrow.Content{Text: req.Text, URL: req.URL}
	if err := s.engine.Bid(caller, req.SpaceID, req.Amount, req.Date, content); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true})
}

func (s *Server) handleDeposit(c *gin.Context) {
	var req DepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, engine.ErrInvalidArgument)
		return
	}
	caller, err := s.authorize(req.Witness, req.Payload())
	if err != nil {
		s.fail(c, err)
		return
	}
	// The proven caller is the transfer's sender; a transfer signed by
	// someone else is not theirs to deposit.
	if req.Transfer.Sender != caller {
		s.fail(c, crypto.ErrBadWitness)
		return
	}
	if err := s.adapter.Process(&req.Transfer); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true})
}

func (s *Server) handleWithdraw(c *gin.Context) {
	var req WithdrawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, engine.ErrInvalidArgument)
		return
	}
	caller, err := s.authorize(req.Witness, req.Payload())
	if err != nil {
		s.fail(c, err)
		return
	}
	amount, err := s.engine.Withdraw(caller)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Amount: &amount})
}

func (s *Server) handleProfit(c *gin.Context) {
	var req ProfitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, engine.ErrInvalidArgument)
		return
	}
	caller, err := s.authorize(req.Witness, req.Payload())
	if err != nil {
		s.fail(c, err)
		return
	}
	amount, err := s.engine.CollectProfit(caller, req.SpaceID, req.Date)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Amount: &amount})
}

func (s *Server) handleOffer(c *gin.Context) {
	offer, err := s.engine.Offer(c.Query("id"), c.Query("date"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Offer: &OfferView{
		Amount:     offer.Amount,
		Advertiser: offer.Advertiser.String(),
		Text:       offer.Content.Text,
		URL:        offer.Content.URL,
		Collected:  offer.Collected,
	}})
}

func (s *Server) handleAudit(c *gin.Context) {
	report, err := s.engine.Audit()
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Audit: report})
}

// fail renders a typed failure. Every error kind of the operation
// surface maps to a distinct kind string so callers assert on cause.
func (s *Server) fail(c *gin.Context, err error) {
	status, kind := classify(err)
	if status >= http.StatusInternalServerError {
		s.log.Error("operation failed", "kind", kind, "error", err)
	} else {
		s.log.Debug("operation rejected", "kind", kind, "error", err)
	}
	c.JSON(status, Response{Success: false, Kind: kind, Error: err.Error()})
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, crypto.ErrBadWitness):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, engine.ErrInvalidArgument), errors.Is(err, deposit.ErrInvalidTransfer):
		return http.StatusBadRequest, "invalid_argument"
	case errors.Is(err, ledger.ErrInsufficientFunds):
		return http.StatusPaymentRequired, "insufficient_funds"
	case errors.Is(err, engine.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, registry.ErrNotFound), errors.Is(err, escrow.ErrNoOffer):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, registry.ErrAlreadyExists):
		return http.StatusConflict, "already_exists"
	case errors.Is(err, escrow.ErrAlreadyCollected):
		return http.StatusConflict, "already_collected"
	case errors.Is(err, engine.ErrAuctionClosed):
		return http.StatusConflict, "auction_closed"
	case errors.Is(err, engine.ErrBidTooLow):
		return http.StatusUnprocessableEntity, "bid_too_low"
	case errors.Is(err, engine.ErrNotExpired):
		return http.StatusUnprocessableEntity, "not_expired"
	case errors.Is(err, deposit.ErrUnsupportedAsset):
		return http.StatusUnprocessableEntity, "unsupported_asset"
	default:
		return http.StatusInternalServerError, "internal"
	}
}
