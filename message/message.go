// SPDX-License-Identifier: MIT
//
// Copyright (C) 2020-2025 Daniel Bourdrez. All Rights Reserved.
//
// This source code is licensed under the MIT license found in the
// LICENSE file in the root directory of this source tree or at
// https://spdx.org/licenses/MIT.html

// Package message provides the wire-format structures of spec.md §3: the
// registration request/response/record and the three key-exchange messages
// KE1/KE2/KE3. Every Serialize method produces the fixed concatenation
// spec.md §3 defines; there are no length prefixes beyond what the 3DH
// preamble itself adds.
package message

import (
	"github.com/bytemare/ecc"

	"github.com/cryptocore/opaque/internal"
	"github.com/cryptocore/opaque/internal/curve"
	"github.com/cryptocore/opaque/internal/encoding"
)

// CredentialRequest carries the client's blinded OPRF input.
type CredentialRequest struct {
	BlindedMessage *ecc.Element
}

// Serialize returns the compressed blinded element.
func (m *CredentialRequest) Serialize() []byte {
	return m.BlindedMessage.Encode()
}

// CredentialResponse carries the server's OPRF evaluation plus the masked
// server public key and envelope.
type CredentialResponse struct {
	EvaluatedMessage *ecc.Element
	MaskingNonce     []byte
	MaskedResponse   []byte
}

// NewCredentialResponse constructs a CredentialResponse from its three parts.
func NewCredentialResponse(z *ecc.Element, maskingNonce, maskedResponse []byte) *CredentialResponse {
	return &CredentialResponse{EvaluatedMessage: z, MaskingNonce: maskingNonce, MaskedResponse: maskedResponse}
}

// Serialize returns evaluatedElement || maskingNonce || maskedResponse.
func (m *CredentialResponse) Serialize() []byte {
	return encoding.Concat3(m.EvaluatedMessage.Encode(), m.MaskingNonce, m.MaskedResponse)
}

// KE1 is the first login message: client -> server.
type KE1 struct {
	*CredentialRequest
	ClientNonce          []byte
	ClientPublicKeyshare *ecc.Element
}

// Serialize returns blindedElement || clientNonce || clientEphemeralPublicKey.
func (m *KE1) Serialize() []byte {
	return encoding.Concat3(m.CredentialRequest.Serialize(), m.ClientNonce, m.ClientPublicKeyshare.Encode())
}

// KE2 is the second login message: server -> client.
type KE2 struct {
	CredentialResponse   *CredentialResponse
	ServerNonce          []byte
	ServerPublicKeyshare *ecc.Element
	ServerMac            []byte
}

// Serialize returns credentialResponse || serverNonce || serverEphemeralPublicKey || serverMac.
func (m *KE2) Serialize() []byte {
	return encoding.Concat(
		m.CredentialResponse.Serialize(),
		encoding.Concat3(m.ServerNonce, m.ServerPublicKeyshare.Encode(), m.ServerMac),
	)
}

// KE3 is the third and final login message: client -> server.
type KE3 struct {
	ClientMac []byte
}

// Serialize returns the client MAC, the entire content of KE3.
func (m *KE3) Serialize() []byte {
	return m.ClientMac
}

// RegistrationRequest carries the client's blinded OPRF input at
// registration time.
type RegistrationRequest struct {
	BlindedMessage *ecc.Element
}

// Serialize returns the compressed blinded element.
func (m *RegistrationRequest) Serialize() []byte {
	return m.BlindedMessage.Encode()
}

// RegistrationResponse carries the server's OPRF evaluation and its
// long-term AKE public key.
type RegistrationResponse struct {
	EvaluatedMessage *ecc.Element
	Pks              *ecc.Element
}

// Serialize returns evaluatedElement || serverPublicKey.
func (m *RegistrationResponse) Serialize() []byte {
	return encoding.Concat(m.EvaluatedMessage.Encode(), m.Pks.Encode())
}

// RegistrationRecord is the credential persisted by the server after a
// successful registration: the client's long-term public key, the masking
// key, and the envelope.
type RegistrationRecord struct {
	PublicKey  *ecc.Element
	MaskingKey []byte
	Envelope   []byte
}

// Serialize returns clientPublicKey || maskingKey || envelope.
func (m *RegistrationRecord) Serialize() []byte {
	return encoding.Concat3(m.PublicKey.Encode(), m.MaskingKey, m.Envelope)
}

// Deserializer decodes wire messages against a fixed Configuration's sizes.
type Deserializer struct {
	Conf *internal.Configuration
}

// NewDeserializer returns a Deserializer bound to conf.
func NewDeserializer(conf *internal.Configuration) *Deserializer {
	return &Deserializer{Conf: conf}
}

func (d *Deserializer) oprfAdapter() *curve.Adapter {
	return curve.New(d.Conf.OPRF)
}

func (d *Deserializer) akeAdapter() *curve.Adapter {
	return curve.New(d.Conf.Group)
}

// CredentialRequest decodes a CredentialRequest.
func (d *Deserializer) CredentialRequest(data []byte) (*CredentialRequest, error) {
	p, err := d.oprfAdapter().DeserializePoint(data)
	if err != nil {
		return nil, err
	}

	return &CredentialRequest{BlindedMessage: p}, nil
}

// CredentialResponse decodes a CredentialResponse.
func (d *Deserializer) CredentialResponse(data []byte) (*CredentialResponse, error) {
	oprfLen := d.oprfAdapter().ElementLength()
	maskedLen := d.akeAdapter().ElementLength() + d.Conf.EnvelopeSize

	if len(data) != oprfLen+d.Conf.NonceLen+maskedLen {
		return nil, internal.ErrInvalidInput
	}

	z, err := d.oprfAdapter().DeserializePoint(data[:oprfLen])
	if err != nil {
		return nil, err
	}

	return &CredentialResponse{
		EvaluatedMessage: z,
		MaskingNonce:     data[oprfLen : oprfLen+d.Conf.NonceLen],
		MaskedResponse:   data[oprfLen+d.Conf.NonceLen:],
	}, nil
}

// KE1 decodes a KE1 message.
func (d *Deserializer) KE1(data []byte) (*KE1, error) {
	oprfLen := d.oprfAdapter().ElementLength()
	akeLen := d.akeAdapter().ElementLength()

	if len(data) != oprfLen+d.Conf.NonceLen+akeLen {
		return nil, internal.ErrInvalidInput
	}

	credReq, err := d.CredentialRequest(data[:oprfLen])
	if err != nil {
		return nil, err
	}

	epk, err := d.akeAdapter().DeserializePoint(data[oprfLen+d.Conf.NonceLen:])
	if err != nil {
		return nil, err
	}

	return &KE1{
		CredentialRequest:    credReq,
		ClientNonce:          data[oprfLen : oprfLen+d.Conf.NonceLen],
		ClientPublicKeyshare: epk,
	}, nil
}

// KE2 decodes a KE2 message.
func (d *Deserializer) KE2(data []byte) (*KE2, error) {
	oprfLen := d.oprfAdapter().ElementLength()
	akeLen := d.akeAdapter().ElementLength()
	credRespLen := oprfLen + d.Conf.NonceLen + akeLen + d.Conf.EnvelopeSize
	macLen := d.Conf.MAC.Size()

	if len(data) != credRespLen+d.Conf.NonceLen+akeLen+macLen {
		return nil, internal.ErrInvalidInput
	}

	credResp, err := d.CredentialResponse(data[:credRespLen])
	if err != nil {
		return nil, err
	}

	rest := data[credRespLen:]

	epk, err := d.akeAdapter().DeserializePoint(rest[d.Conf.NonceLen : d.Conf.NonceLen+akeLen])
	if err != nil {
		return nil, err
	}

	return &KE2{
		CredentialResponse:   credResp,
		ServerNonce:          rest[:d.Conf.NonceLen],
		ServerPublicKeyshare: epk,
		ServerMac:            rest[d.Conf.NonceLen+akeLen:],
	}, nil
}

// KE3 decodes a KE3 message.
func (d *Deserializer) KE3(data []byte) (*KE3, error) {
	if len(data) != d.Conf.MAC.Size() {
		return nil, internal.ErrInvalidInput
	}

	return &KE3{ClientMac: data}, nil
}

// RegistrationRequest decodes a RegistrationRequest.
func (d *Deserializer) RegistrationRequest(data []byte) (*RegistrationRequest, error) {
	p, err := d.oprfAdapter().DeserializePoint(data)
	if err != nil {
		return nil, err
	}

	return &RegistrationRequest{BlindedMessage: p}, nil
}

// RegistrationResponse decodes a RegistrationResponse.
func (d *Deserializer) RegistrationResponse(data []byte) (*RegistrationResponse, error) {
	oprfLen := d.oprfAdapter().ElementLength()
	akeLen := d.akeAdapter().ElementLength()

	if len(data) != oprfLen+akeLen {
		return nil, internal.ErrInvalidInput
	}

	z, err := d.oprfAdapter().DeserializePoint(data[:oprfLen])
	if err != nil {
		return nil, err
	}

	pks, err := d.akeAdapter().DeserializePoint(data[oprfLen:])
	if err != nil {
		return nil, err
	}

	return &RegistrationResponse{EvaluatedMessage: z, Pks: pks}, nil
}

// RegistrationRecord decodes a RegistrationRecord.
func (d *Deserializer) RegistrationRecord(data []byte) (*RegistrationRecord, error) {
	akeLen := d.akeAdapter().ElementLength()

	if len(data) != akeLen+d.Conf.Hash.Size()+d.Conf.EnvelopeSize {
		return nil, internal.ErrInvalidInput
	}

	pk, err := d.akeAdapter().DeserializePoint(data[:akeLen])
	if err != nil {
		return nil, err
	}

	return &RegistrationRecord{
		PublicKey:  pk,
		MaskingKey: data[akeLen : akeLen+d.Conf.Hash.Size()],
		Envelope:   data[akeLen+d.Conf.Hash.Size():],
	}, nil
}
