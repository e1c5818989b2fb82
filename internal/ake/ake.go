// SPDX-License-Identifier: MIT
//
// Copyright (C) 2021-2025 Daniel Bourdrez. All Rights Reserved.
//
// This source code is licensed under the MIT license found in the
// LICENSE file in the root directory of this source tree or at
// https://spdx.org/licenses/MIT.html

// Package ake implements the 3DH AKE of spec.md §4.6: preamble assembly,
// the HKDF-Expand-Label key schedule, and the client/server state machines
// that turn a KE1/KE2/KE3 exchange into a shared session key and a matching
// MAC transcript.
package ake

import (
	"github.com/bytemare/ecc"

	"github.com/cryptocore/opaque/internal"
	"github.com/cryptocore/opaque/internal/curve"
	"github.com/cryptocore/opaque/internal/encoding"
	"github.com/cryptocore/opaque/internal/tag"
	"github.com/cryptocore/opaque/message"
)

// Identities holds the client and server identity strings bound into the
// 3DH transcript. Either may be nil, in which case SetIdentities fills it in
// with the corresponding public key, per spec.md §4.4/§4.6.
type Identities struct {
	ClientIdentity []byte
	ServerIdentity []byte
}

// SetIdentities defaults ClientIdentity/ServerIdentity to clientPk/serverPk
// when not already set.
func (id *Identities) SetIdentities(clientPk, serverPk []byte) {
	if len(id.ClientIdentity) == 0 {
		id.ClientIdentity = clientPk
	}

	if len(id.ServerIdentity) == 0 {
		id.ServerIdentity = serverPk
	}
}

// Options carries optional, deterministic overrides for the ephemeral
// key share and nonce, used to reproduce RFC 9807 test vectors. Production
// callers leave these empty so that fresh random values are sampled.
type Options struct {
	// KeyShareSeed, when non-empty, is decoded directly as the ephemeral
	// secret key scalar instead of sampling a random one.
	KeyShareSeed []byte
	// Nonce, when non-empty, is used directly instead of sampling one.
	Nonce []byte
	// NonceLength overrides the default nonce length when sampling.
	NonceLength uint32
}

// KeyGen returns a fresh, randomly-generated (secretKey, publicKey) pair in
// the given group, encoded at their fixed widths.
func KeyGen(group ecc.Group) (secretKey, publicKey []byte) {
	adapter := curve.New(group)
	sk := adapter.RandomScalar()
	pk := adapter.ScalarMulGenerator(sk)

	return adapter.SerializeScalar(sk), pk.Encode()
}

// values holds the per-session ephemeral key material shared by Client and
// Server: the ephemeral AKE key pair and the session nonce.
type values struct {
	ephemeralSecretKey *ecc.Scalar
	ephemeralPublicKey *ecc.Element
	nonce              []byte
}

func (v *values) setOptions(adapter *curve.Adapter, options Options) *ecc.Element {
	if v.ephemeralSecretKey == nil {
		if len(options.KeyShareSeed) != 0 {
			sk, err := adapter.DeserializeScalar(options.KeyShareSeed, true)
			if err != nil {
				// The caller supplied a fixed test vector; an invalid seed
				// is a programmer error, not a runtime condition to recover
				// from gracefully.
				panic(err)
			}

			v.ephemeralSecretKey = sk
		} else {
			v.ephemeralSecretKey = adapter.RandomScalar()
		}

		v.ephemeralPublicKey = adapter.ScalarMulGenerator(v.ephemeralSecretKey)
	}

	if len(v.nonce) == 0 {
		if len(options.Nonce) != 0 {
			v.nonce = options.Nonce
		} else {
			nonceLen := internal.NonceLength
			if options.NonceLength != 0 {
				nonceLen = int(options.NonceLength)
			}

			v.nonce = internal.RandomBytes(nonceLen)
		}
	}

	return v.ephemeralPublicKey
}

func (v *values) flush() {
	v.ephemeralSecretKey = nil
	v.ephemeralPublicKey = nil
	internal.Zeroize(v.nonce)
	v.nonce = nil
}

func buildLabel(length int, label, context []byte) []byte {
	return encoding.Concat3(
		encoding.I2OSP(length, 2),
		encoding.EncodeVectorLen(append([]byte(tag.LabelPrefix), label...), 1),
		encoding.EncodeVectorLen(context, 1),
	)
}

func expand(h *internal.KDF, secret, hkdfLabel []byte) []byte {
	return h.Expand(secret, hkdfLabel, h.Size())
}

func expandLabel(h *internal.KDF, secret, label, context []byte) []byte {
	return expand(h, secret, buildLabel(h.Size(), label, context))
}

// preamble assembles the length-prefixed transcript of spec.md §4.6:
//
//	"OPAQUEv1-" ||
//	 I2OSP(|context|,2) || context ||
//	 I2OSP(|clientId|,2) || clientId ||
//	 KE1 ||
//	 I2OSP(|serverId|,2) || serverId ||
//	 evaluatedElement || maskingNonce || maskedResponse ||
//	 serverNonce || serverEphPk
func preamble(context, clientID, serverID []byte, ke1 *message.KE1, ke2 *message.KE2) []byte {
	return encoding.Concatenate(
		[]byte(tag.VersionTag),
		encoding.EncodeVector(context),
		encoding.EncodeVector(clientID),
		ke1.Serialize(),
		encoding.EncodeVector(serverID),
		ke2.CredentialResponse.Serialize(),
		ke2.ServerNonce,
		ke2.ServerPublicKeyshare.Encode(),
	)
}

// macKeys bundles the two MAC keys produced by the key schedule.
type macKeys struct {
	serverMacKey, clientMacKey []byte
}

// deriveKeys implements the key schedule of spec.md §4.6:
//
//	prk              = HKDF-Extract("", dh1||dh2||dh3)
//	handshakeSecret   = HKDF-Expand-Label(prk, "HandshakeSecret", ph, Nh)
//	sessionKey        = HKDF-Expand-Label(prk, "SessionKey",      ph, Nh)
//	km2               = HKDF-Expand-Label(handshakeSecret, "ServerMAC", "", Nm)
//	km3               = HKDF-Expand-Label(handshakeSecret, "ClientMAC", "", Nm)
func deriveKeys(kdf *internal.KDF, ikm, transcriptHash []byte) (keys *macKeys, sessionKey []byte) {
	prk := kdf.Extract(nil, ikm)
	handshakeSecret := expandLabel(kdf, prk, []byte(tag.Handshake), transcriptHash)
	sessionKey = expandLabel(kdf, prk, []byte(tag.SessionKey), transcriptHash)

	keys = &macKeys{
		serverMacKey: expandLabel(kdf, handshakeSecret, []byte(tag.MacServer), nil),
		clientMacKey: expandLabel(kdf, handshakeSecret, []byte(tag.MacClient), nil),
	}

	return keys, sessionKey
}

// k3dh evaluates the three Diffie-Hellman terms and concatenates their
// compressed encodings, forming the ikm input to deriveKeys.
func k3dh(
	p1 *ecc.Element, s1 *ecc.Scalar,
	p2 *ecc.Element, s2 *ecc.Scalar,
	p3 *ecc.Element, s3 *ecc.Scalar,
) []byte {
	return encoding.Concat3(
		p1.Copy().Multiply(s1).Encode(),
		p2.Copy().Multiply(s2).Encode(),
		p3.Copy().Multiply(s3).Encode(),
	)
}

// core3DH runs the shared half of the key schedule once the three DH terms
// and the two legs of the transcript (KE1, KE2) are known, returning the
// session key and both MAC values.
func core3DH(
	conf *internal.Configuration,
	ikm []byte,
	clientID, serverID []byte,
	ke1 *message.KE1, ke2 *message.KE2,
) (sessionKey, serverMac, clientMac []byte) {
	preambleBytes := preamble(conf.Context, clientID, serverID, ke1, ke2)
	ph := conf.Hash.Sum(preambleBytes)

	keys, sessionKey := deriveKeys(conf.KDF, ikm, ph)
	serverMac = conf.MAC.MAC(keys.serverMacKey, ph)

	transcript2 := conf.Hash.Sum(preambleBytes, serverMac)
	clientMac = conf.MAC.MAC(keys.clientMacKey, transcript2)

	return sessionKey, serverMac, clientMac
}
