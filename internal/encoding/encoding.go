// SPDX-License-Identifier: MIT
//
// Copyright (C) 2020-2025 Daniel Bourdrez. All Rights Reserved.
//
// This source code is licensed under the MIT license found in the
// LICENSE file in the root directory of this source tree or at
// https://spdx.org/licenses/MIT.html

// Package encoding implements the length-prefixed framing primitives shared
// by every wire format in the protocol: I2OSP/OS2IP integer encoding and
// vector (length-prefixed byte string) encoding.
package encoding

import "errors"

// ErrVectorTooShort indicates a vector could not be decoded because the
// input was shorter than its own length prefix declared.
var ErrVectorTooShort = errors.New("encoding: truncated length-prefixed vector")

// I2OSP converts a non-negative integer to a big-endian byte string of the
// given fixed length. It is branch-free on the value of x: the loop always
// runs exactly length times regardless of x's magnitude.
func I2OSP(x, length int) []byte {
	out := make([]byte, length)

	for i := length - 1; i >= 0; i-- {
		out[i] = byte(x)
		x >>= 8
	}

	return out
}

// OS2IP is the inverse of I2OSP: it interprets a big-endian byte string as a
// non-negative integer.
func OS2IP(b []byte) int {
	x := 0
	for _, v := range b {
		x = x<<8 | int(v)
	}

	return x
}

// Concat concatenates two byte strings into a freshly allocated buffer.
func Concat(a, b []byte) []byte {
	out := make([]byte, 0, len(a)+len(b))
	out = append(out, a...)
	out = append(out, b...)

	return out
}

// Concat3 concatenates three byte strings into a freshly allocated buffer.
func Concat3(a, b, c []byte) []byte {
	out := make([]byte, 0, len(a)+len(b)+len(c))
	out = append(out, a...)
	out = append(out, b...)
	out = append(out, c...)

	return out
}

// Concatenate concatenates an arbitrary number of byte strings.
func Concatenate(parts ...[]byte) []byte {
	total := 0
	for _, p := range parts {
		total += len(p)
	}

	out := make([]byte, 0, total)
	for _, p := range parts {
		out = append(out, p...)
	}

	return out
}

// EncodeVectorLen encodes data with a prefixLen-byte big-endian length prefix.
func EncodeVectorLen(data []byte, prefixLen int) []byte {
	return Concat(I2OSP(len(data), prefixLen), data)
}

// EncodeVector encodes data with a 2-byte big-endian length prefix, the
// framing used throughout the 3DH preamble and the Configuration context.
func EncodeVector(data []byte) []byte {
	return EncodeVectorLen(data, 2)
}

// DecodeVector reads a 2-byte length-prefixed vector off the front of in,
// returning the decoded payload and the number of bytes consumed.
func DecodeVector(in []byte) (data []byte, read int, err error) {
	if len(in) < 2 {
		return nil, 0, ErrVectorTooShort
	}

	length := OS2IP(in[:2])
	if len(in) < 2+length {
		return nil, 0, ErrVectorTooShort
	}

	return in[2 : 2+length], 2 + length, nil
}

// SuffixString appends a plain string suffix to a byte string, used to build
// info/DST strings such as nonce||"AuthKey" without an intervening length
// prefix.
func SuffixString(b []byte, suffix string) []byte {
	return Concat(b, []byte(suffix))
}
