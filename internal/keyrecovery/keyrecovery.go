// SPDX-License-Identifier: MIT
//
// Copyright (C) 2020-2025 Daniel Bourdrez. All Rights Reserved.
//
// This source code is licensed under the MIT license found in the
// LICENSE file in the root directory of this source tree or at
// https://spdx.org/licenses/MIT.html

// Package keyrecovery implements the envelope of spec.md §4.4: Store builds
// a fresh envelope at registration time; Recover authenticates and rebuilds
// it at login time. Both directions derive the same five values
// (maskingKey, authKey, exportKey, seed, the client's long-term AKE key
// pair) from randomizedPwd and a nonce.
package keyrecovery

import (
	"github.com/bytemare/ecc"

	"github.com/cryptocore/opaque/internal"
	"github.com/cryptocore/opaque/internal/encoding"
	"github.com/cryptocore/opaque/internal/oprf"
	"github.com/cryptocore/opaque/internal/tag"
)

// Envelope is the server-stored authenticator of spec.md §3: a fresh nonce
// and an HMAC tag over the server's public key and both parties' identities.
type Envelope struct {
	Nonce   []byte
	AuthTag []byte
}

// Serialize returns nonce || authTag, the fixed-size on-the-wire envelope.
func (e *Envelope) Serialize() []byte {
	return encoding.Concat(e.Nonce, e.AuthTag)
}

// Deserialize splits a nonce||authTag envelope of the given nonce and MAC
// sizes.
func Deserialize(data []byte, nonceLen, macLen int) (*Envelope, error) {
	if len(data) != nonceLen+macLen {
		return nil, internal.ErrInvalidInput
	}

	return &Envelope{Nonce: data[:nonceLen], AuthTag: data[nonceLen:]}, nil
}

// keys bundles the five values derived from (randomizedPwd, nonce).
type keys struct {
	maskingKey []byte
	authKey    []byte
	exportKey  []byte
	clientSK   *ecc.Scalar
	clientPK   *ecc.Element
}

// MaskingKey derives the masking key from randomizedPwd alone (spec.md §4.4): unlike authKey,
// exportKey and the private-key seed, it does not depend on the envelope's nonce, so the client
// can re-derive it before it has recovered the envelope.
func MaskingKey(conf *internal.Configuration, randomizedPwd []byte) []byte {
	return conf.KDF.Expand(randomizedPwd, []byte(tag.MaskingKey), conf.Hash.Size())
}

func deriveKeys(conf *internal.Configuration, oprfSuite *oprf.Suite, randomizedPwd, nonce []byte) (*keys, error) {
	maskingKey := MaskingKey(conf, randomizedPwd)
	authKey := conf.KDF.Expand(randomizedPwd, encoding.SuffixString(nonce, tag.AuthKey), conf.Hash.Size())
	exportKey := conf.KDF.Expand(randomizedPwd, encoding.SuffixString(nonce, tag.ExportKey), conf.Hash.Size())
	seed := conf.KDF.Expand(randomizedPwd, encoding.SuffixString(nonce, tag.ExpandPrivateKey), internal.SeedLength)

	sk, err := oprfSuite.DeriveKeyPair(seed, []byte(tag.DerivePrivateKey))
	if err != nil {
		return nil, err
	}

	adapter := oprfSuite.Adapter()

	return &keys{
		maskingKey: maskingKey,
		authKey:    authKey,
		exportKey:  exportKey,
		clientSK:   sk,
		clientPK:   adapter.ScalarMulGenerator(sk),
	}, nil
}

func cleartext(serverPk, serverIdentity, clientIdentity []byte) []byte {
	return encoding.Concatenate(
		serverPk,
		encoding.I2OSP(len(serverIdentity), 2), serverIdentity,
		encoding.I2OSP(len(clientIdentity), 2), clientIdentity,
	)
}

// Store builds a fresh envelope at registration time. serverIdentity and
// clientIdentity default to the respective public keys when nil/empty, per
// spec.md §4.4. Store applies that default itself, using the client public
// key it derives from randomizedPwd and nonce, and returns that public key.
func Store(
	conf *internal.Configuration,
	oprfSuite *oprf.Suite,
	randomizedPwd, serverPk, serverIdentity, clientIdentity, nonce []byte,
) (env *Envelope, clientPk, maskingKey, exportKey []byte, err error) {
	k, err := deriveKeys(conf, oprfSuite, randomizedPwd, nonce)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	clientPkBytes := k.clientPK.Encode()

	sIdentity := serverIdentity
	if len(sIdentity) == 0 {
		sIdentity = serverPk
	}

	cIdentity := clientIdentity
	if len(cIdentity) == 0 {
		cIdentity = clientPkBytes
	}

	authTag := conf.MAC.MAC(k.authKey, encoding.Concat(nonce, cleartext(serverPk, sIdentity, cIdentity)))

	return &Envelope{Nonce: nonce, AuthTag: authTag}, clientPkBytes, k.maskingKey, k.exportKey, nil
}

// Recover authenticates env against randomizedPwd and, on success, returns
// the client's recovered long-term secret key and export key. Any failure —
// wrong password, tampered envelope, tampered serverPk/identities — returns
// the single generic internal.ErrAuthenticationFailed, per spec.md §4.4/§7.
func Recover(
	conf *internal.Configuration,
	oprfSuite *oprf.Suite,
	randomizedPwd, serverPk, serverIdentity, clientIdentity []byte,
	env *Envelope,
) (clientSK *ecc.Scalar, exportKey []byte, err error) {
	k, err := deriveKeys(conf, oprfSuite, randomizedPwd, env.Nonce)
	if err != nil {
		return nil, nil, internal.ErrAuthenticationFailed
	}

	clientPkBytes := k.clientPK.Encode()

	sIdentity := serverIdentity
	if len(sIdentity) == 0 {
		sIdentity = serverPk
	}

	cIdentity := clientIdentity
	if len(cIdentity) == 0 {
		cIdentity = clientPkBytes
	}

	expected := conf.MAC.MAC(k.authKey, encoding.Concat(env.Nonce, cleartext(serverPk, sIdentity, cIdentity)))
	if !conf.MAC.Equal(expected, env.AuthTag) {
		return nil, nil, internal.ErrAuthenticationFailed
	}

	return k.clientSK, k.exportKey, nil
}
