// SPDX-License-Identifier: MIT
//
// Copyright (C) 2020-2025 Daniel Bourdrez. All Rights Reserved.
//
// This source code is licensed under the MIT license found in the
// LICENSE file in the root directory of this source tree or at
// https://spdx.org/licenses/MIT.html

// Package masking hides the server's public key and the client's envelope
// inside a KE2 message under an XOR stream keyed by the registration
// record's masking key, so that neither value is observable to an
// eavesdropper or to a user-enumeration probe.
package masking

import (
	"github.com/cryptocore/opaque/internal"
	"github.com/cryptocore/opaque/internal/tag"
)

func pad(conf *internal.Configuration, maskingKey, maskingNonce []byte, length int) []byte {
	info := append(append([]byte{}, maskingNonce...), []byte(tag.CredentialResponsePad)...)
	return conf.KDF.Expand(maskingKey, info, length)
}

func xor(a, b []byte) []byte {
	out := make([]byte, len(a))
	for i := range a {
		out[i] = a[i] ^ b[i]
	}

	return out
}

// Mask produces (maskingNonce, maskedResponse) hiding serverPk||envelope
// under HKDF-Expand(maskingKey, maskingNonce||"CredentialResponsePad",
// len(serverPk)+len(envelope)). If maskingNonce is non-empty it is used
// as-is (test-vector reproduction); otherwise a fresh nonce is sampled.
func Mask(conf *internal.Configuration, maskingNonce, maskingKey, serverPk, envelope []byte) (nonce, maskedResponse []byte) {
	if len(maskingNonce) == 0 {
		maskingNonce = internal.RandomBytes(conf.NonceLen)
	}

	clear := append(append([]byte{}, serverPk...), envelope...)
	streamPad := pad(conf, maskingKey, maskingNonce, len(clear))

	return maskingNonce, xor(streamPad, clear)
}

// Unmask is the client-side inverse of Mask: it recovers serverPk||envelope
// from maskedResponse given the maskingKey re-derived from randomizedPwd.
func Unmask(conf *internal.Configuration, maskingNonce, maskingKey, maskedResponse []byte) (serverPk, envelope []byte) {
	streamPad := pad(conf, maskingKey, maskingNonce, len(maskedResponse))
	clear := xor(streamPad, maskedResponse)

	pkLen := conf.Group.ElementLength()

	return clear[:pkLen], clear[pkLen:]
}
