// SPDX-License-Identifier: MIT
//
// Copyright (C) 2020-2025 Daniel Bourdrez. All Rights Reserved.
//
// This source code is licensed under the MIT license found in the
// LICENSE file in the root directory of this source tree or at
// https://spdx.org/licenses/MIT.html

package oprf

import (
	"bytes"
	"crypto"
	"testing"

	"github.com/bytemare/ecc"

	"github.com/cryptocore/opaque/internal"
)

func newTestSuite(t *testing.T, group ecc.Group, name string) *Suite {
	t.Helper()

	h := internal.NewHash(crypto.SHA256)
	if h == nil {
		t.Fatal("SHA-256 not available")
	}

	return NewSuite(group, name, h)
}

func TestBlindEvaluateFinalizeRoundTrip(t *testing.T) {
	suite := newTestSuite(t, ecc.P256Sha256, "P256-SHA256")

	serverKey := suite.adapter.RandomScalar()
	input := []byte("correct horse battery staple")

	blind, blindedElement := suite.Blind(input)

	evaluated, err := suite.Evaluate(serverKey, blindedElement.Encode())
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}

	out1, err := suite.Finalize(input, blind, evaluated.Encode())
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	// Re-running the full protocol with the same input and server key but a
	// fresh random blind must reproduce the exact same PRF output.
	blind2, blindedElement2 := suite.Blind(input)

	evaluated2, err := suite.Evaluate(serverKey, blindedElement2.Encode())
	if err != nil {
		t.Fatalf("Evaluate (2nd run): %v", err)
	}

	out2, err := suite.Finalize(input, blind2, evaluated2.Encode())
	if err != nil {
		t.Fatalf("Finalize (2nd run): %v", err)
	}

	if !bytes.Equal(out1, out2) {
		t.Fatal("PRF output is not stable across independent blindings of the same input/key")
	}
}

func TestFinalizeDiffersOnDifferentInput(t *testing.T) {
	suite := newTestSuite(t, ecc.P256Sha256, "P256-SHA256")
	serverKey := suite.adapter.RandomScalar()

	eval := func(input []byte) []byte {
		blind, blindedElement := suite.Blind(input)

		evaluated, err := suite.Evaluate(serverKey, blindedElement.Encode())
		if err != nil {
			t.Fatalf("Evaluate: %v", err)
		}

		out, err := suite.Finalize(input, blind, evaluated.Encode())
		if err != nil {
			t.Fatalf("Finalize: %v", err)
		}

		return out
	}

	a := eval([]byte("password-a"))
	b := eval([]byte("password-b"))

	if bytes.Equal(a, b) {
		t.Fatal("different inputs produced the same PRF output")
	}
}

func TestDeriveKeyPairDeterministic(t *testing.T) {
	suite := newTestSuite(t, ecc.P256Sha256, "P256-SHA256")

	seed := bytes.Repeat([]byte{0x42}, 32)
	info := []byte("test-info")

	sk1, err := suite.DeriveKeyPair(seed, info)
	if err != nil {
		t.Fatalf("DeriveKeyPair: %v", err)
	}

	sk2, err := suite.DeriveKeyPair(seed, info)
	if err != nil {
		t.Fatalf("DeriveKeyPair: %v", err)
	}

	if !bytes.Equal(sk1.Encode(), sk2.Encode()) {
		t.Fatal("DeriveKeyPair is not deterministic for identical (seed, info)")
	}

	sk3, err := suite.DeriveKeyPair(seed, []byte("other-info"))
	if err != nil {
		t.Fatalf("DeriveKeyPair: %v", err)
	}

	if bytes.Equal(sk1.Encode(), sk3.Encode()) {
		t.Fatal("DeriveKeyPair ignored the info string")
	}
}

func TestDeriveKeyPairNeverZero(t *testing.T) {
	suite := newTestSuite(t, ecc.P256Sha256, "P256-SHA256")

	for i := 0; i < 16; i++ {
		seed := internal.RandomBytes(32)

		sk, err := suite.DeriveKeyPair(seed, []byte("info"))
		if err != nil {
			t.Fatalf("DeriveKeyPair: %v", err)
		}

		if sk.IsZero() {
			t.Fatal("DeriveKeyPair returned a zero scalar")
		}
	}
}
