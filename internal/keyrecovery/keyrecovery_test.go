// SPDX-License-Identifier: MIT
//
// Copyright (C) 2020-2025 Daniel Bourdrez. All Rights Reserved.
//
// This source code is licensed under the MIT license found in the
// LICENSE file in the root directory of this source tree or at
// https://spdx.org/licenses/MIT.html

package keyrecovery

import (
	"bytes"
	"crypto"
	"testing"

	"github.com/bytemare/ecc"

	"github.com/cryptocore/opaque/internal"
	"github.com/cryptocore/opaque/internal/oprf"
)

func testConf(t *testing.T) (*internal.Configuration, *oprf.Suite) {
	t.Helper()

	h := internal.NewHash(crypto.SHA256)
	if h == nil {
		t.Fatal("SHA-256 not available")
	}

	conf := &internal.Configuration{
		Group:    ecc.P256Sha256,
		KDF:      internal.NewKDF(crypto.SHA256),
		MAC:      internal.NewMac(crypto.SHA256),
		Hash:     h,
		NonceLen: internal.NonceLength,
	}

	suite := oprf.NewSuite(ecc.P256Sha256, "P256-SHA256", h)

	return conf, suite
}

func TestStoreThenRecoverSucceeds(t *testing.T) {
	conf, suite := testConf(t)

	randomizedPwd := internal.RandomBytes(conf.Hash.Size())
	serverPk := internal.RandomBytes(conf.Group.ElementLength())
	nonce := internal.RandomBytes(conf.NonceLen)

	env, clientPk, maskingKey, exportKey, err := Store(conf, suite, randomizedPwd, serverPk, nil, nil, nonce)
	if err != nil {
		t.Fatalf("Store: %v", err)
	}

	recoveredSK, recoveredExportKey, err := Recover(conf, suite, randomizedPwd, serverPk, nil, nil, env)
	if err != nil {
		t.Fatalf("Recover: %v", err)
	}

	if !bytes.Equal(recoveredExportKey, exportKey) {
		t.Fatal("Recover returned a different exportKey than Store produced")
	}

	adapter := suite.Adapter()

	recoveredPk := adapter.ScalarMulGenerator(recoveredSK)
	if !bytes.Equal(recoveredPk.Encode(), clientPk) {
		t.Fatal("Recover's client public key does not match the one Store computed")
	}

	wantMaskingKey := MaskingKey(conf, randomizedPwd)
	if !bytes.Equal(maskingKey, wantMaskingKey) {
		t.Fatal("Store's maskingKey does not match the standalone MaskingKey helper")
	}
}

func TestRecoverFailsOnWrongPassword(t *testing.T) {
	conf, suite := testConf(t)

	randomizedPwd := internal.RandomBytes(conf.Hash.Size())
	wrongPwd := internal.RandomBytes(conf.Hash.Size())
	serverPk := internal.RandomBytes(conf.Group.ElementLength())
	nonce := internal.RandomBytes(conf.NonceLen)

	env, _, _, _, err := Store(conf, suite, randomizedPwd, serverPk, nil, nil, nonce)
	if err != nil {
		t.Fatalf("Store: %v", err)
	}

	if _, _, err := Recover(conf, suite, wrongPwd, serverPk, nil, nil, env); err != internal.ErrAuthenticationFailed {
		t.Fatalf("Recover with wrong password err = %v, want ErrAuthenticationFailed", err)
	}
}

func TestRecoverFailsOnTamperedEnvelope(t *testing.T) {
	conf, suite := testConf(t)

	randomizedPwd := internal.RandomBytes(conf.Hash.Size())
	serverPk := internal.RandomBytes(conf.Group.ElementLength())
	nonce := internal.RandomBytes(conf.NonceLen)

	env, _, _, _, err := Store(conf, suite, randomizedPwd, serverPk, nil, nil, nonce)
	if err != nil {
		t.Fatalf("Store: %v", err)
	}

	tampered := &Envelope{Nonce: env.Nonce, AuthTag: append([]byte{}, env.AuthTag...)}
	tampered.AuthTag[0] ^= 0xFF

	if _, _, err := Recover(conf, suite, randomizedPwd, serverPk, nil, nil, tampered); err != internal.ErrAuthenticationFailed {
		t.Fatalf("Recover with tampered envelope err = %v, want ErrAuthenticationFailed", err)
	}
}

func TestRecoverFailsOnTamperedServerKey(t *testing.T) {
	conf, suite := testConf(t)

	randomizedPwd := internal.RandomBytes(conf.Hash.Size())
	serverPk := internal.RandomBytes(conf.Group.ElementLength())
	otherServerPk := internal.RandomBytes(conf.Group.ElementLength())
	nonce := internal.RandomBytes(conf.NonceLen)

	env, _, _, _, err := Store(conf, suite, randomizedPwd, serverPk, nil, nil, nonce)
	if err != nil {
		t.Fatalf("Store: %v", err)
	}

	if _, _, err := Recover(conf, suite, randomizedPwd, otherServerPk, nil, nil, env); err != internal.ErrAuthenticationFailed {
		t.Fatalf("Recover with substituted server key err = %v, want ErrAuthenticationFailed", err)
	}
}

func TestEnvelopeSerializeDeserializeRoundTrip(t *testing.T) {
	conf, suite := testConf(t)

	randomizedPwd := internal.RandomBytes(conf.Hash.Size())
	serverPk := internal.RandomBytes(conf.Group.ElementLength())
	nonce := internal.RandomBytes(conf.NonceLen)

	env, _, _, _, err := Store(conf, suite, randomizedPwd, serverPk, nil, nil, nonce)
	if err != nil {
		t.Fatalf("Store: %v", err)
	}

	serialized := env.Serialize()

	decoded, err := Deserialize(serialized, conf.NonceLen, conf.MAC.Size())
	if err != nil {
		t.Fatalf("Deserialize: %v", err)
	}

	if !bytes.Equal(decoded.Nonce, env.Nonce) || !bytes.Equal(decoded.AuthTag, env.AuthTag) {
		t.Fatal("Envelope Serialize/Deserialize did not round-trip")
	}
}
