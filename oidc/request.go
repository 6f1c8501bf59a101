// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: MPL-2.0

package oidc

import (
	"crypto/subtle"
	"fmt"

	"golang.org/x/text/language"
)

// Request represents one authorization code flow attempt. It carries the
// state that's sent with the authorization request and must come back
// unchanged in the callback. A Request is immutable and must not be reused
// across flows.
type Request struct {
	state       string
	redirectURL string
	scopes      []string
	prompt      string
	uiLocales   []language.Tag
}

// NewRequest creates a new Request from the config with a fresh random state.
func NewRequest(c *Config) (*Request, error) {
	const op = "NewRequest"
	if c == nil {
		return nil, fmt.Errorf("%s: config is nil: %w", op, ErrNilParameter)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	state, err := NewID()
	if err != nil {
		return nil, fmt.Errorf("%s: unable to generate a request's state: %w", op, err)
	}
	r := &Request{
		state:       state,
		redirectURL: c.RedirectURL(),
		scopes:      c.Scopes(),
		prompt:      c.Prompt,
	}
	if len(c.UILocales) > 0 {
		r.uiLocales = append([]language.Tag(nil), c.UILocales...)
	}
	return r, nil
}

// State is the opaque value used to maintain state between the authorization
// request and the callback.
func (r *Request) State() string { return r.state }

// RedirectURL is where the provider sends the user after authorization.
func (r *Request) RedirectURL() string { return r.redirectURL }

// Scopes returns a copy of the requested scopes.
func (r *Request) Scopes() []string { return append([]string(nil), r.scopes...) }

// Prompt returns the optional prompt parameter.
func (r *Request) Prompt() string { return r.prompt }

// UILocales returns a copy of the optional ui_locales.
func (r *Request) UILocales() []language.Tag { return append([]language.Tag(nil), r.uiLocales...) }

// VerifyState compares the state returned in a callback with the request's
// state in constant time.
func (r *Request) VerifyState(callbackState string) error {
	const op = "Request.VerifyState"
	if callbackState == "" {
		return fmt.Errorf("%s: callback is missing state: %w", op, ErrStateMismatch)
	}
	if subtle.ConstantTimeCompare([]byte(r.state), []byte(callbackState)) != 1 {
		return fmt.Errorf("%s: request state and callback state are not equal: %w", op, ErrStateMismatch)
	}
	return nil
}
