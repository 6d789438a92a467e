// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package crypto verifies that the account named first in a mutating
// operation actually authorized the call.
package crypto

import (
	"crypto/ed25519"
	"errors"
	"fmt"

	"golang.org/x/crypto/blake2b"

	"github.com/adxyz/adspace/pkg/ids"
)

var ErrBadWitness = errors.New("witness check failed")

// AddressOf derives the account identity for an ed25519 public key:
// the blake2b-256 digest of the key bytes.
func AddressOf(pub ed25519.PublicKey) ids.ID {
	return ids.ID(blake2b.Sum256(pub))
}

// Verifier checks a caller's proof over a canonical request payload.
type Verifier interface {
	Verify(caller ids.ID, payload, pubKey, sig []byte) error
}

// Ed25519Verifier is the production Verifier: the signature must be a
// valid ed25519 signature over the blake2b digest of the payload, made
// with the key the caller identity was derived from.
type Ed25519Verifier struct{}

func (Ed25519Verifier) Verify(caller ids.ID, payload, pubKey, sig []byte) error {
	if len(pubKey) != ed25519.PublicKeySize {
		return fmt.Errorf("%w: bad public key length %d", ErrBadWitness, len(pubKey))
	}
	if AddressOf(pubKey) != caller {
		return fmt.Errorf("%w: key does not match caller", ErrBadWitness)
	}
	digest := blake2b.Sum256(payload)
	if !ed25519.Verify(ed25519.PublicKey(pubKey), digest[:], sig) {
		return fmt.Errorf("%w: bad signature", ErrBadWitness)
	}
	return nil
}

// Sign produces a witness signature over a payload, the counterpart of
// Ed25519Verifier. Used by clients and tests.
func Sign(priv ed25519.PrivateKey, payload []byte) []byte {
	digest := blake2b.Sum256(payload)
	return ed25519.Sign(priv, digest[:])
}
