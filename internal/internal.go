// SPDX-License-Identifier: MIT
//
// Copyright (C) 2020-2025 Daniel Bourdrez. All Rights Reserved.
//
// This source code is licensed under the MIT license found in the
// LICENSE file in the root directory of this source tree or at
// https://spdx.org/licenses/MIT.html

// Package internal holds configuration, key-derivation and error types
// shared by every layer of the protocol. Nothing exported here is meant to
// be imported outside this module.
package internal

import (
	"crypto"
	"crypto/hmac"
	"crypto/rand"
	"errors"
	"io"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/hkdf"

	"github.com/bytemare/ecc"
	"github.com/bytemare/hash"
	"github.com/bytemare/ksf"
)

const (
	// NonceLength is the fixed width, in bytes, of every nonce in the protocol.
	NonceLength = 32

	// SeedLength is the fixed width, in bytes, of the seed fed to derive_key_pair.
	SeedLength = 32
)

// Error taxonomy (spec.md §7): the four kinds of failure the protocol
// distinguishes. The message deserializers and keyrecovery.Deserialize
// return ErrInvalidInput; the client-side login steps and the server's
// LoginFinish return ErrAuthenticationFailed. The other packages define
// their own sentinel errors (configuration, point, vector and session-store
// errors), which do not wrap these four, and ErrResourceExhausted and
// ErrInternal are not returned anywhere in this module.
var (
	// ErrInvalidInput covers malformed lengths, off-curve points, identity
	// points, out-of-range scalars and unknown cipher-suite identifiers.
	ErrInvalidInput = errors.New("invalid input")

	// ErrAuthenticationFailed is the single, deliberately generic error
	// returned for any envelope auth-tag mismatch, server-MAC mismatch, or
	// client-MAC mismatch. Every sub-step that can fail for a
	// password/identity reason MUST return exactly this sentinel so that a
	// wrong password, an unregistered credential identifier, and a tampered
	// response are indistinguishable to the caller.
	ErrAuthenticationFailed = errors.New("authentication failed")

	// ErrResourceExhausted covers session-store capacity limits and
	// transient upstream failures.
	ErrResourceExhausted = errors.New("resource exhausted")

	// ErrInternal covers hash/MAC algorithm unavailability and random-source
	// failure; these abort the operation and are surfaced verbatim.
	ErrInternal = errors.New("internal error")

	// ErrConfigurationInvalidLength indicates a serialized Configuration was
	// too short to contain its fixed-size identifier fields.
	ErrConfigurationInvalidLength = errors.New("invalid configuration encoding length")
)

// Random is the injectable source of cryptographically secure random bytes
// (spec.md §5). Production code must never replace the default; tests swap
// it for a deterministic reader to reproduce RFC vectors.
var Random io.Reader = rand.Reader

// RandomBytes returns length cryptographically secure random bytes read
// from Random.
func RandomBytes(length int) []byte {
	b := make([]byte, length)
	if _, err := io.ReadFull(Random, b); err != nil {
		panic(err)
	}

	return b
}

// Zeroize overwrites b in place, for best-effort clearing of password
// buffers, blinds, and derived keys once a flow has finished with them
// (spec.md §5). The Go runtime gives no guarantee against a later GC move
// or compiler reordering, so this is defense in depth, not a proof.
func Zeroize(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// Hash wraps a crypto.Hash for the handful of direct-hash calls the protocol
// makes (hashing the transcript, finalizing the OPRF output).
type Hash struct {
	id crypto.Hash
}

// NewHash returns a Hash wrapper for id, or nil if id is not linked in.
func NewHash(id crypto.Hash) *Hash {
	if !hash.Hash(id).Available() {
		return nil
	}

	return &Hash{id: id}
}

// Size returns the digest size in bytes (Nh in spec.md §3).
func (h *Hash) Size() int {
	return h.id.Size()
}

// Sum hashes the concatenation of in and returns the digest.
func (h *Hash) Sum(in ...[]byte) []byte {
	d := h.id.New()
	for _, p := range in {
		d.Write(p) //nolint:errcheck // hash.Hash.Write never errors.
	}

	return d.Sum(nil)
}

// Mac wraps HMAC under a crypto.Hash.
type Mac struct {
	id crypto.Hash
}

// NewMac returns a Mac wrapper for id, or nil if id is not linked in.
func NewMac(id crypto.Hash) *Mac {
	if !hash.Hash(id).Available() {
		return nil
	}

	return &Mac{id: id}
}

// Size returns the MAC output size in bytes (Nm in spec.md §3).
func (m *Mac) Size() int {
	return m.id.Size()
}

// MAC computes HMAC(key, message).
func (m *Mac) MAC(key, message []byte) []byte {
	h := hmac.New(m.id.New, key)
	h.Write(message) //nolint:errcheck // hash.Hash.Write never errors.

	return h.Sum(nil)
}

// Equal reports whether mac1 and mac2 are equal, in constant time.
func (m *Mac) Equal(mac1, mac2 []byte) bool {
	return hmac.Equal(mac1, mac2)
}

// KDF wraps HKDF-Extract/HKDF-Expand under a crypto.Hash.
type KDF struct {
	id crypto.Hash
}

// NewKDF returns a KDF wrapper for id, or nil if id is not linked in.
func NewKDF(id crypto.Hash) *KDF {
	if !hash.Hash(id).Available() {
		return nil
	}

	return &KDF{id: id}
}

// Size returns the underlying hash's digest size in bytes.
func (k *KDF) Size() int {
	return k.id.Size()
}

// Extract implements HKDF-Extract(salt, ikm).
func (k *KDF) Extract(salt, ikm []byte) []byte {
	return hkdf.Extract(k.id.New, ikm, salt)
}

// Expand implements HKDF-Expand(prk, info, length).
func (k *KDF) Expand(prk, info []byte, length int) []byte {
	out := make([]byte, length)

	r := hkdf.Expand(k.id.New, prk, info)
	if _, err := io.ReadFull(r, out); err != nil {
		panic(err)
	}

	return out
}

// KSF is the client-side key-stretching function applied to the raw OPRF
// output before HKDF-Extract (spec.md §4.5).
type KSF struct {
	id         ksf.Identifier
	memoryKiB  uint32
	iterations uint32
	threads    uint8
}

// Argon2Params configures the Argon2id KSF path.
type Argon2Params struct {
	MemoryKiB   uint32
	Iterations  uint32
	Parallelism uint8
}

// DefaultArgon2Params are conservative, interactive-login parameters.
var DefaultArgon2Params = Argon2Params{MemoryKiB: 19 * 1024, Iterations: 2, Parallelism: 1}

// NewKSF returns a KSF wrapper. An id of the zero value (Identity) returns
// the input unchanged, matching the teacher's "KSF != 0" check.
func NewKSF(id ksf.Identifier, params ...Argon2Params) *KSF {
	p := DefaultArgon2Params
	if len(params) != 0 {
		p = params[0]
	}

	return &KSF{id: id, memoryKiB: p.MemoryKiB, iterations: p.Iterations, threads: p.Parallelism}
}

// argon2idZeroSalt is the fixed, 32-byte zero salt mandated by spec.md §4.5.
// OPAQUE's envelope already binds the output to the per-registration
// randomizedPwd via HKDF-Extract, so the KSF itself needs no per-user salt.
var argon2idZeroSalt = make([]byte, 32)

// Harden stretches input to outputLength bytes.
func (k *KSF) Harden(input []byte, outputLength int) []byte {
	if k == nil || k.id == ksf.Identifier(0) {
		out := make([]byte, outputLength)
		copy(out, input)

		return out
	}

	return argon2.IDKey(input, argon2idZeroSalt, k.iterations, k.memoryKiB, k.threads, uint32(outputLength))
}

// Configuration is the fully-resolved, internal representation of an
// application's Configuration: concrete KDF/MAC/Hash/KSF instances plus the
// AKE/OPRF group and fixed sizes, built once by Configuration.toInternal and
// threaded through every package below.
type Configuration struct {
	OPRF          ecc.Group
	OPRFSuiteName string
	Group         ecc.Group
	KSF           *KSF
	KDF           *KDF
	MAC           *Mac
	Hash          *Hash
	NonceLen      int
	EnvelopeSize  int
	Context       []byte
}
