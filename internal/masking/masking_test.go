// SPDX-License-Identifier: MIT
//
// Copyright (C) 2020-2025 Daniel Bourdrez. All Rights Reserved.
//
// This source code is licensed under the MIT license found in the
// LICENSE file in the root directory of this source tree or at
// https://spdx.org/licenses/MIT.html

package masking

import (
	"bytes"
	"crypto"
	"testing"

	"github.com/bytemare/ecc"

	"github.com/cryptocore/opaque/internal"
)

func testConf(t *testing.T) *internal.Configuration {
	t.Helper()

	h := internal.NewHash(crypto.SHA256)
	if h == nil {
		t.Fatal("SHA-256 not available")
	}

	return &internal.Configuration{
		Group:    ecc.P256Sha256,
		KDF:      internal.NewKDF(crypto.SHA256),
		Hash:     h,
		NonceLen: internal.NonceLength,
	}
}

func TestMaskUnmaskRoundTrip(t *testing.T) {
	conf := testConf(t)

	maskingKey := internal.RandomBytes(conf.Hash.Size())
	serverPk := internal.RandomBytes(conf.Group.ElementLength())
	envelope := internal.RandomBytes(conf.NonceLen + 32)

	nonce, maskedResponse := Mask(conf, nil, maskingKey, serverPk, envelope)
	if len(nonce) != conf.NonceLen {
		t.Fatalf("Mask nonce length = %d, want %d", len(nonce), conf.NonceLen)
	}

	recoveredPk, recoveredEnv := Unmask(conf, nonce, maskingKey, maskedResponse)

	if !bytes.Equal(recoveredPk, serverPk) {
		t.Fatal("Unmask did not recover the original server public key")
	}

	if !bytes.Equal(recoveredEnv, envelope) {
		t.Fatal("Unmask did not recover the original envelope")
	}
}

func TestMaskWithWrongKeyDoesNotRecover(t *testing.T) {
	conf := testConf(t)

	maskingKey := internal.RandomBytes(conf.Hash.Size())
	wrongKey := internal.RandomBytes(conf.Hash.Size())
	serverPk := internal.RandomBytes(conf.Group.ElementLength())
	envelope := internal.RandomBytes(conf.NonceLen + 32)

	nonce, maskedResponse := Mask(conf, nil, maskingKey, serverPk, envelope)

	recoveredPk, _ := Unmask(conf, nonce, wrongKey, maskedResponse)

	if bytes.Equal(recoveredPk, serverPk) {
		t.Fatal("Unmask with the wrong masking key recovered the correct server public key")
	}
}

func TestMaskIsNotIdentity(t *testing.T) {
	conf := testConf(t)

	maskingKey := internal.RandomBytes(conf.Hash.Size())
	serverPk := internal.RandomBytes(conf.Group.ElementLength())
	envelope := internal.RandomBytes(conf.NonceLen + 32)

	_, maskedResponse := Mask(conf, nil, maskingKey, serverPk, envelope)

	clear := append(append([]byte{}, serverPk...), envelope...)
	if bytes.Equal(maskedResponse, clear) {
		t.Fatal("masked response is identical to the cleartext")
	}
}

func TestMaskRespectsExplicitNonce(t *testing.T) {
	conf := testConf(t)

	maskingKey := internal.RandomBytes(conf.Hash.Size())
	serverPk := internal.RandomBytes(conf.Group.ElementLength())
	envelope := internal.RandomBytes(conf.NonceLen + 32)
	fixedNonce := internal.RandomBytes(conf.NonceLen)

	nonce, _ := Mask(conf, fixedNonce, maskingKey, serverPk, envelope)

	if !bytes.Equal(nonce, fixedNonce) {
		t.Fatal("Mask did not use the caller-supplied nonce")
	}
}
