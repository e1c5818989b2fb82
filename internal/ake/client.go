// SPDX-License-Identifier: MIT
//
// Copyright (C) 2020-2025 Daniel Bourdrez. All Rights Reserved.
//
// This source code is licensed under the MIT license found in the
// LICENSE file in the root directory of this source tree or at
// https://spdx.org/licenses/MIT.html

package ake

import (
	"github.com/bytemare/ecc"

	"github.com/cryptocore/opaque/internal"
	"github.com/cryptocore/opaque/internal/curve"
	"github.com/cryptocore/opaque/message"
)

// Client exposes the client's AKE functions and holds its state between
// GenerateKE1 and GenerateKE3.
type Client struct {
	values
	sessionSecret []byte
}

// NewClient returns a new, empty, 3DH client.
func NewClient() *Client {
	return &Client{}
}

// Start produces the AKE half of a KE1: the client's ephemeral key share and
// nonce, wrapped around the caller-supplied CredentialRequest.
func (c *Client) Start(conf *internal.Configuration, request *message.CredentialRequest, options Options) *message.KE1 {
	adapter := curve.New(conf.Group)
	epk := c.setOptions(adapter, options)

	return &message.KE1{
		CredentialRequest:    request,
		ClientNonce:          append([]byte(nil), c.nonce...),
		ClientPublicKeyshare: epk,
	}
}

// Finalize verifies ke2's server MAC and, on success, derives the session
// key and the client MAC to send back in KE3. It returns
// internal.ErrAuthenticationFailed on any server-MAC mismatch.
func (c *Client) Finalize(
	conf *internal.Configuration,
	identities *Identities,
	clientSecretKey *ecc.Scalar,
	serverPublicKey *ecc.Element,
	ke1 *message.KE1,
	ke2 *message.KE2,
) ([]byte, error) {
	ikm := k3dh(
		ke2.ServerPublicKeyshare, c.ephemeralSecretKey,
		serverPublicKey, c.ephemeralSecretKey,
		ke2.ServerPublicKeyshare, clientSecretKey,
	)

	sessionSecret, serverMac, clientMac := core3DH(
		conf, ikm, identities.ClientIdentity, identities.ServerIdentity, ke1, ke2,
	)

	if !conf.MAC.Equal(serverMac, ke2.ServerMac) {
		c.flush()
		return nil, internal.ErrAuthenticationFailed
	}

	c.sessionSecret = sessionSecret
	c.flush()

	return clientMac, nil
}

// SessionKey returns the secret shared session key if a previous call to
// Finalize() was successful.
func (c *Client) SessionKey() []byte {
	return c.sessionSecret
}

// Flush clears the client's session-related internal AKE values.
func (c *Client) Flush() {
	c.flush()
	c.sessionSecret = nil
}
