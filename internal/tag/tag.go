// SPDX-License-Identifier: MIT
//
// Copyright (C) 2020-2025 Daniel Bourdrez. All Rights Reserved.
//
// This source code is licensed under the MIT license found in the
// LICENSE file in the root directory of this source tree or at
// https://spdx.org/licenses/MIT.html

// Package tag holds the domain-separation tags, labels and context strings
// used throughout the OPRF and 3DH layers.
package tag

const (
	// VersionTag prefixes the 3DH transcript preamble.
	VersionTag = "OPAQUEv1-"

	// LabelPrefix prefixes every HKDF-Expand-Label label.
	LabelPrefix = "OPAQUE-"

	// Handshake labels the handshake secret derivation.
	Handshake = "HandshakeSecret"

	// SessionKey labels the session secret derivation.
	SessionKey = "SessionKey"

	// MacServer labels the server MAC key derivation.
	MacServer = "ServerMAC"

	// MacClient labels the client MAC key derivation.
	MacClient = "ClientMAC"

	// OPRF is the fixed prefix of the OPRF context string. The context string
	// is OPRF || I2OSP(mode,1) || "-" || suiteName; base mode is encoded as 0x00,
	// giving the load-bearing 0x00 byte at offset 7.
	OPRF = "OPRFV1-"

	// HashToGroup prefixes the OPRF hash-to-group DST.
	HashToGroup = "HashToGroup-"

	// HashToScalar prefixes the OPRF hash-to-scalar DST.
	HashToScalar = "HashToScalar-"

	// DeriveKeyPair prefixes the OPRF server-key-derivation DST. Deliberately
	// has no separating dash between the label and the context string.
	DeriveKeyPair = "DeriveKeyPair"

	// ExpandOPRF suffixes the credential identifier when expanding the
	// per-credential OPRF seed.
	ExpandOPRF = "OprfKey"

	// ExpandPrivateKey suffixes the envelope nonce when deriving the seed for
	// the client's long-term AKE key pair.
	ExpandPrivateKey = "PrivateKey"

	// DerivePrivateKey is the info string fed to derive_key_pair when
	// recovering the client's long-term AKE key pair from its seed.
	DerivePrivateKey = "OPAQUE-DeriveDiffieHellmanKeyPair"

	// MaskingKey labels the envelope masking-key derivation.
	MaskingKey = "MaskingKey"

	// AuthKey labels the envelope authentication-key derivation.
	AuthKey = "AuthKey"

	// ExportKey labels the envelope export-key derivation.
	ExportKey = "ExportKey"

	// CredentialResponsePad labels the masking XOR-stream derivation.
	CredentialResponsePad = "CredentialResponsePad"

	// Finalize terminates the OPRF finalize transcript.
	Finalize = "Finalize"
)
