// SPDX-License-Identifier: MIT
//
// Copyright (C) 2020-2025 Daniel Bourdrez. All Rights Reserved.
//
// This source code is licensed under the MIT license found in the
// LICENSE file in the root directory of this source tree or at
// https://spdx.org/licenses/MIT.html

package opaque

import (
	"fmt"

	"github.com/bytemare/ecc"

	"github.com/cryptocore/opaque/internal"
	"github.com/cryptocore/opaque/internal/ake"
	"github.com/cryptocore/opaque/internal/curve"
	"github.com/cryptocore/opaque/internal/keyrecovery"
	"github.com/cryptocore/opaque/internal/masking"
	"github.com/cryptocore/opaque/internal/oprf"
	"github.com/cryptocore/opaque/message"
)

// Client represents an OPAQUE Client, exposing its functions and holding its state between the
// calls of a single registration or authentication flow. A Client must not be reused across two
// concurrent flows: CreateRegistrationRequest/GenerateKE1 stash the OPRF blind that the matching
// finalize call needs.
type Client struct {
	Deserialize *message.Deserializer
	conf        *internal.Configuration
	oprf        *oprf.Suite
	ake         *curve.Adapter
	Ake         *ake.Client

	blind *ecc.Scalar
}

// NewClient returns a newly instantiated Client from the Configuration.
func NewClient(c *Configuration) (*Client, error) {
	if c == nil {
		c = DefaultConfiguration()
	}

	conf, err := c.toInternal()
	if err != nil {
		return nil, err
	}

	return &Client{
		Deserialize: message.NewDeserializer(conf),
		conf:        conf,
		oprf:        newOPRFSuite(conf),
		ake:         curve.New(conf.Group),
		Ake:         ake.NewClient(),
	}, nil
}

// CreateRegistrationRequest blinds password and returns the message to send to the server to
// begin registration.
func (c *Client) CreateRegistrationRequest(password []byte) *message.RegistrationRequest {
	blind, blindedElement := c.oprf.Blind(password)
	c.blind = blind

	return &message.RegistrationRequest{BlindedMessage: blindedElement}
}

// randomizedPwd finalizes the OPRF evaluation of password under blind and applies the
// Configuration's key-stretching function, per spec.md §4.5:
// randomizedPwd = HKDF-Extract("", oprfOutput || stretch(oprfOutput)).
func (c *Client) randomizedPwd(password []byte, evaluatedMessage *ecc.Element) ([]byte, error) {
	oprfOutput, err := c.oprf.Finalize(password, c.blind, evaluatedMessage.Encode())
	c.blind = nil
	if err != nil {
		return nil, fmt.Errorf("finalizing OPRF: %w", err)
	}

	stretched := c.conf.KSF.Harden(oprfOutput, c.conf.Hash.Size())
	ikm := make([]byte, 0, len(oprfOutput)+len(stretched))
	ikm = append(ikm, oprfOutput...)
	ikm = append(ikm, stretched...)

	extracted := c.conf.KDF.Extract(nil, ikm)

	internal.Zeroize(oprfOutput)
	internal.Zeroize(stretched)
	internal.Zeroize(ikm)

	return extracted, nil
}

// FinalizeRegistration builds the client's registration record from the password used in
// CreateRegistrationRequest and the server's RegistrationResponse. serverIdentity and
// clientIdentity default to the respective public keys when nil/empty. The client's long-term AKE
// key pair is not supplied by the caller: it is deterministically recovered from randomizedPwd,
// per spec.md §4.4.
func (c *Client) FinalizeRegistration(
	password, serverIdentity, clientIdentity []byte,
	resp *message.RegistrationResponse,
) (*message.RegistrationRecord, []byte, error) {
	randomizedPwd, err := c.randomizedPwd(password, resp.EvaluatedMessage)
	if err != nil {
		return nil, nil, err
	}

	defer internal.Zeroize(randomizedPwd)

	nonce := internal.RandomBytes(c.conf.NonceLen)
	serverPk := resp.Pks.Encode()

	env, clientPk, maskingKey, exportKey, err := keyrecovery.Store(
		c.conf, c.oprf, randomizedPwd, serverPk, serverIdentity, clientIdentity, nonce,
	)
	if err != nil {
		return nil, nil, err
	}

	clientPublicKey, err := c.ake.DeserializePoint(clientPk)
	if err != nil {
		return nil, nil, fmt.Errorf("decoding recovered client public key: %w", err)
	}

	record := &message.RegistrationRecord{
		PublicKey:  clientPublicKey,
		MaskingKey: maskingKey,
		Envelope:   env.Serialize(),
	}

	return record, exportKey, nil
}

// GenerateKE1 starts a login flow, blinding password and returning the KE1 message to send to
// the server.
func (c *Client) GenerateKE1(password []byte, options ...ake.Options) *message.KE1 {
	blind, blindedElement := c.oprf.Blind(password)
	c.blind = blind

	var opts ake.Options
	if len(options) != 0 {
		opts = options[0]
	}

	return c.Ake.Start(c.conf, &message.CredentialRequest{BlindedMessage: blindedElement}, opts)
}

// GenerateKE3 finalizes a login flow given the server's KE2. serverIdentity and clientIdentity
// default to the respective public keys when nil/empty. On success it returns the KE3 to send to
// the server, the shared session key, and the export key. Any failure — a wrong password, an
// unregistered credential, a tampered envelope, or an invalid server MAC — is reported as the
// single generic internal.ErrAuthenticationFailed, per spec.md §4.6/§7.
func (c *Client) GenerateKE3(
	password []byte,
	clientIdentity, serverIdentity []byte,
	ke1 *message.KE1,
	ke2 *message.KE2,
) (ke3 *message.KE3, sessionKey, exportKey []byte, err error) {
	expectedLen := c.conf.Group.ElementLength() + c.conf.EnvelopeSize
	if len(ke2.CredentialResponse.MaskedResponse) != expectedLen {
		return nil, nil, nil, internal.ErrAuthenticationFailed
	}

	randomizedPwd, err := c.randomizedPwd(password, ke2.CredentialResponse.EvaluatedMessage)
	if err != nil {
		return nil, nil, nil, internal.ErrAuthenticationFailed
	}

	defer internal.Zeroize(randomizedPwd)

	maskingKey := keyrecovery.MaskingKey(c.conf, randomizedPwd)

	serverPkBytes, envBytes := masking.Unmask(
		c.conf, ke2.CredentialResponse.MaskingNonce, maskingKey, ke2.CredentialResponse.MaskedResponse,
	)

	env, err := keyrecovery.Deserialize(envBytes, c.conf.NonceLen, c.conf.MAC.Size())
	if err != nil {
		return nil, nil, nil, internal.ErrAuthenticationFailed
	}

	clientSecretKey, exportKey, err := keyrecovery.Recover(
		c.conf, c.oprf, randomizedPwd, serverPkBytes, serverIdentity, clientIdentity, env,
	)
	if err != nil {
		return nil, nil, nil, err
	}

	serverPublicKey, err := c.ake.DeserializePoint(serverPkBytes)
	if err != nil {
		return nil, nil, nil, internal.ErrAuthenticationFailed
	}

	clientPublicKey := c.ake.ScalarMulGenerator(clientSecretKey)

	identities := ake.Identities{ClientIdentity: clientIdentity, ServerIdentity: serverIdentity}
	identities.SetIdentities(clientPublicKey.Encode(), serverPkBytes)

	clientMac, err := c.Ake.Finalize(c.conf, &identities, clientSecretKey, serverPublicKey, ke1, ke2)
	if err != nil {
		return nil, nil, nil, err
	}

	return &message.KE3{ClientMac: clientMac}, c.Ake.SessionKey(), exportKey, nil
}
