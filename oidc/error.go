// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: MPL-2.0

package oidc

import (
	"errors"
)

var (
	ErrInvalidParameter  = errors.New("invalid parameter")
	ErrNilParameter      = errors.New("nil parameter")
	ErrInvalidCACert     = errors.New("invalid CA certificate")
	ErrInvalidIssuer     = errors.New("invalid issuer")
	ErrIdGeneratorFailed = errors.New("id generation failed")

	// ErrDiscovery is returned when the provider's discovery document can't
	// be fetched or is missing a required endpoint.
	ErrDiscovery = errors.New("discovery failed")

	// ErrBind is returned when the local callback listener can't bind its
	// address.
	ErrBind = errors.New("unable to bind callback listener")

	// ErrCallback is returned when no usable callback was received.
	ErrCallback = errors.New("invalid callback")

	// ErrStateMismatch is returned when the state in the callback doesn't
	// match the state sent with the authorization request. It's a possible
	// CSRF attempt and is never ignored.
	ErrStateMismatch = errors.New("callback state mismatch")

	// ErrTokenExchange is returned when the token endpoint rejects the
	// authorization code or replies with something unparseable.
	ErrTokenExchange = errors.New("token exchange failed")

	// ErrLoginFailed is returned along with ErrCallback when the provider
	// redirected with an error instead of a code.
	ErrLoginFailed = errors.New("login failed")

	// ErrCancelled isn't a failure: the flow was shut down before it
	// completed.
	ErrCancelled = errors.New("flow cancelled")

	ErrAlreadyStarted = errors.New("already started")
)
