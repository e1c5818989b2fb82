// SPDX-License-Identifier: MIT
//
// Copyright (C) 2021-2025 Daniel Bourdrez. All Rights Reserved.
//
// This source code is licensed under the MIT license found in the
// LICENSE file in the root directory of this source tree or at
// https://spdx.org/licenses/MIT.html

// Package oprf implements the base-mode Oblivious Pseudorandom Function of
// spec.md §4.3 (RFC 9497): blind, evaluate, finalize, and the deterministic
// server-key derivation used to turn an OPRF seed plus a credential
// identifier into a per-credential OPRF secret key.
package oprf

import (
	"errors"

	"github.com/bytemare/ecc"

	"github.com/cryptocore/opaque/internal"
	"github.com/cryptocore/opaque/internal/curve"
	"github.com/cryptocore/opaque/internal/encoding"
	"github.com/cryptocore/opaque/internal/tag"
)

// baseMode distinguishes the OPRF base mode from the (unimplemented, out of
// scope) verifiable mode; base mode is fixed at byte 0x00.
const baseMode = 0

// maxDeriveKeyPairAttempts bounds the derive_key_pair retry loop of
// spec.md §4.3 operation 4. It is never exhausted in practice.
const maxDeriveKeyPairAttempts = 256

// ErrDeriveKeyPairExhausted indicates derive_key_pair failed to produce a
// non-zero scalar within maxDeriveKeyPairAttempts counters, which RFC 9497
// describes as never observed in practice.
var ErrDeriveKeyPairExhausted = errors.New("oprf: derive_key_pair exhausted retry counter")

// Suite binds a curve adapter, its hash-to-curve suite name (as registered
// by RFC 9497) and an output hash to the OPRF operations of spec.md §4.3.
type Suite struct {
	adapter       *curve.Adapter
	hash          *internal.Hash
	contextString []byte
}

// NewSuite builds a Suite. name must match the ciphersuite's registered
// hash-to-curve suite name (e.g. "P256-SHA256", "ristretto255-SHA512") so
// that the OPRF context string matches the RFC 9497 registry.
func NewSuite(group ecc.Group, name string, h *internal.Hash) *Suite {
	s := &Suite{adapter: curve.New(group), hash: h}

	// contextString = "OPRFV1-" || I2OSP(mode,1) || "-" || suiteName.
	// The 0x00 byte at offset 7 (I2OSP(baseMode,1)) is load-bearing per
	// spec.md §4.3: base mode is the only mode implemented, so the byte is
	// always zero, but it is written out explicitly rather than omitted.
	s.contextString = encoding.Concatenate(
		[]byte(tag.OPRF),
		encoding.I2OSP(baseMode, 1),
		[]byte("-"),
		[]byte(name),
	)

	return s
}

func (s *Suite) dst(prefix string) []byte {
	return encoding.Concat([]byte(prefix), s.contextString)
}

// Blind samples a non-zero blinding scalar and returns (blind, blindedElement)
// where blindedElement = r·hash_to_group(input).
func (s *Suite) Blind(input []byte) (blind *ecc.Scalar, blindedElement *ecc.Element) {
	p := s.adapter.HashToGroup(input, s.dst(tag.HashToGroup))
	r := s.adapter.RandomScalar()

	return r, s.adapter.ScalarMul(r, p)
}

// Evaluate computes skS·blindedElement on a validated, deserialized point.
func (s *Suite) Evaluate(skS *ecc.Scalar, blindedElement []byte) (*ecc.Element, error) {
	p, err := s.adapter.DeserializePoint(blindedElement)
	if err != nil {
		return nil, err
	}

	return s.adapter.ScalarMul(skS, p), nil
}

// Finalize computes the client-side OPRF output: unblind the evaluated
// element, then hash the transcript
// I2OSP(len(input),2) || input || I2OSP(len(unblinded),2) || unblinded || "Finalize".
func (s *Suite) Finalize(input []byte, blind *ecc.Scalar, evaluatedElement []byte) ([]byte, error) {
	z, err := s.adapter.DeserializePoint(evaluatedElement)
	if err != nil {
		return nil, err
	}

	inv := blind.Copy().Invert()
	n := s.adapter.ScalarMul(inv, z)
	unblinded := n.Encode()

	return s.hash.Sum(
		encoding.I2OSP(len(input), 2), input,
		encoding.I2OSP(len(unblinded), 2), unblinded,
		[]byte(tag.Finalize),
	), nil
}

// DeriveKeyPair deterministically derives a non-zero OPRF server secret key
// from seed and info, per spec.md §4.3 operation 4: hash_to_scalar is
// retried with an incrementing counter byte appended until the result is
// non-zero, or maxDeriveKeyPairAttempts is exhausted.
func (s *Suite) DeriveKeyPair(seed, info []byte) (*ecc.Scalar, error) {
	deriveInput := encoding.Concat3(seed, encoding.I2OSP(len(info), 2), info)

	// spec.md §4.3: DeriveKeyPair's DST omits the dash between the label and
	// the context string that every other DST in this package inserts
	// ("DeriveKeyPair" || ctx, not "DeriveKeyPair-" || ctx).
	dst := encoding.Concat([]byte(tag.DeriveKeyPair), s.contextString)

	for counter := 0; counter < maxDeriveKeyPairAttempts; counter++ {
		candidate := encoding.Concat(deriveInput, encoding.I2OSP(counter, 1))

		sk := s.adapter.HashToScalar(candidate, dst)
		if !sk.IsZero() {
			return sk, nil
		}
	}

	return nil, ErrDeriveKeyPairExhausted
}

// Adapter exposes the suite's curve adapter for callers (the AKE layer) that
// need raw group operations alongside the OPRF ones.
func (s *Suite) Adapter() *curve.Adapter {
	return s.adapter
}
