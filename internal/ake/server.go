// SPDX-License-Identifier: MIT
//
// Copyright (C) 2020-2025 Daniel Bourdrez. All Rights Reserved.
//
// This source code is licensed under the MIT license found in the
// LICENSE file in the root directory of this source tree or at
// https://spdx.org/licenses/MIT.html

package ake

import (
	"errors"

	"github.com/bytemare/ecc"

	"github.com/cryptocore/opaque/internal"
	"github.com/cryptocore/opaque/internal/curve"
	"github.com/cryptocore/opaque/internal/encoding"
	"github.com/cryptocore/opaque/message"
)

var errStateNotEmpty = errors.New("existing state is not empty")

// Server exposes the server's AKE functions and holds its state.
type Server struct {
	values
	clientMac     []byte
	sessionSecret []byte
}

// NewServer returns a new, empty, 3DH server.
func NewServer() *Server {
	return &Server{
		values: values{
			ephemeralSecretKey: nil,
			nonce:              nil,
		},
		clientMac:     nil,
		sessionSecret: nil,
	}
}

// Response produces a 3DH server response message, filling in the AKE
// fields of ke2 around the caller-supplied CredentialResponse and deriving
// the session key and expected client MAC.
func (s *Server) Response(
	conf *internal.Configuration,
	identities *Identities,
	serverSecretKey *ecc.Scalar,
	clientPublicKey *ecc.Element,
	ke1 *message.KE1,
	response *message.CredentialResponse,
	options Options,
) *message.KE2 {
	adapter := curve.New(conf.Group)
	epks := s.setOptions(adapter, options)

	ke2 := &message.KE2{
		CredentialResponse:   response,
		ServerNonce:          append([]byte(nil), s.nonce...),
		ServerPublicKeyshare: epks,
		ServerMac:            nil,
	}

	ikm := k3dh(
		ke1.ClientPublicKeyshare, s.ephemeralSecretKey,
		ke1.ClientPublicKeyshare, serverSecretKey,
		clientPublicKey, s.ephemeralSecretKey,
	)

	sessionSecret, serverMac, clientMac := core3DH(
		conf, ikm, identities.ClientIdentity, identities.ServerIdentity, ke1, ke2,
	)

	s.sessionSecret = sessionSecret
	s.clientMac = clientMac
	ke2.ServerMac = serverMac

	s.flush()

	return ke2
}

// Finalize verifies the authentication tag contained in ke3.
func (s *Server) Finalize(conf *internal.Configuration, ke3 *message.KE3) bool {
	return conf.MAC.Equal(s.clientMac, ke3.ClientMac)
}

// SessionKey returns the secret shared session key if a previous call to Response() was successful.
func (s *Server) SessionKey() []byte {
	return s.sessionSecret
}

// ExpectedMAC returns the expected client MAC if a previous call to Response() was successful.
func (s *Server) ExpectedMAC() []byte {
	return s.clientMac
}

// SerializeState returns clientMac || sessionSecret.
func (s *Server) SerializeState() []byte {
	return encoding.Concat(s.clientMac, s.sessionSecret)
}

// SetState restores a previously serialized clientMac and sessionSecret,
// letting a stateless server resume a session across requests.
func (s *Server) SetState(clientMac, sessionSecret []byte) error {
	if len(s.clientMac) != 0 || len(s.sessionSecret) != 0 {
		return errStateNotEmpty
	}

	s.clientMac = clientMac
	s.sessionSecret = sessionSecret

	return nil
}

// Flush clears all of the server's session-related internal AKE values.
func (s *Server) Flush() {
	s.flush()
	s.clientMac = nil
	s.sessionSecret = nil
}
