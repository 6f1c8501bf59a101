// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: MPL-2.0

package oidc

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/oauth2"

	"github.com/kopano-dev/get-access-token/jwt"
)

// AccessToken is an oauth access_token.
type AccessToken string

// RedactedAccessToken is the redacted string or json for an oauth access_token.
const RedactedAccessToken = "[REDACTED: access_token]"

// String will redact the token.
func (t AccessToken) String() string { return RedactedAccessToken }

// MarshalJSON will redact the token.
func (t AccessToken) MarshalJSON() ([]byte, error) { return json.Marshal(RedactedAccessToken) }

// UnverifiedClaims decodes the token's claims without verifying anything.
// Access tokens may be opaque, in which case an error is returned.
func (t AccessToken) UnverifiedClaims() (map[string]interface{}, error) {
	const op = "AccessToken.UnverifiedClaims"
	if t == "" {
		return nil, fmt.Errorf("%s: access_token is empty: %w", op, ErrInvalidParameter)
	}
	return jwt.UnverifiedClaims(string(t))
}

// RefreshToken is an oauth refresh_token.
type RefreshToken string

// RedactedRefreshToken is the redacted string or json for an oauth refresh_token.
const RedactedRefreshToken = "[REDACTED: refresh_token]"

// String will redact the token.
func (t RefreshToken) String() string { return RedactedRefreshToken }

// MarshalJSON will redact the token.
func (t RefreshToken) MarshalJSON() ([]byte, error) { return json.Marshal(RedactedRefreshToken) }

// IDToken is an oidc id_token.
type IDToken string

// RedactedIDToken is the redacted string or json for an oidc id_token.
const RedactedIDToken = "[REDACTED: id_token]"

// String will redact the token.
func (t IDToken) String() string { return RedactedIDToken }

// MarshalJSON will redact the token.
func (t IDToken) MarshalJSON() ([]byte, error) { return json.Marshal(RedactedIDToken) }

// UnverifiedClaims decodes the id_token's claims. The signature is not
// verified.
func (t IDToken) UnverifiedClaims() (map[string]interface{}, error) {
	const op = "IDToken.UnverifiedClaims"
	if t == "" {
		return nil, fmt.Errorf("%s: id_token is empty: %w", op, ErrInvalidParameter)
	}
	return jwt.UnverifiedClaims(string(t))
}

// Token is the result of a successful code exchange. It's immutable and owned
// by the caller once returned.
type Token struct {
	AccessToken AccessToken
	TokenType   string

	// ExpiresAt is when the access token expires. It's zero when the
	// provider didn't say.
	ExpiresAt time.Time

	// ExpiresIn is the provider's expires_in in seconds, or zero.
	ExpiresIn int64

	RefreshToken RefreshToken
	IDToken      IDToken

	// Scope is the granted scope when the provider returned one.
	Scope string
}

// NewToken creates a Token from an oauth2.Token. The clock is used to derive
// ExpiresAt from expires_in when the provider didn't send an expires_at.
func NewToken(t *oauth2.Token, clock clockwork.Clock) (*Token, error) {
	const op = "NewToken"
	if t == nil {
		return nil, fmt.Errorf("%s: oauth2 token is nil: %w", op, ErrNilParameter)
	}
	if t.AccessToken == "" {
		return nil, fmt.Errorf("%s: access_token is empty: %w", op, ErrInvalidParameter)
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	tk := &Token{
		AccessToken:  AccessToken(t.AccessToken),
		TokenType:    t.Type(),
		RefreshToken: RefreshToken(t.RefreshToken),
	}
	if idToken, ok := t.Extra("id_token").(string); ok {
		tk.IDToken = IDToken(idToken)
	}
	if scope, ok := t.Extra("scope").(string); ok {
		tk.Scope = scope
	}
	if expiresIn, ok := extraInt64(t.Extra("expires_in")); ok && expiresIn > 0 {
		tk.ExpiresIn = expiresIn
	}
	switch expiresAt, ok := extraInt64(t.Extra("expires_at")); {
	case ok && expiresAt > 0:
		tk.ExpiresAt = time.Unix(expiresAt, 0).UTC()
	case tk.ExpiresIn > 0:
		tk.ExpiresAt = clock.Now().Add(time.Duration(tk.ExpiresIn) * time.Second).UTC()
	}
	return tk, nil
}

// Expired will return true if the token has an expiry and it's in the past.
func (t *Token) Expired(clock clockwork.Clock) bool {
	if t.ExpiresAt.IsZero() {
		return false
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return !t.ExpiresAt.After(clock.Now())
}

// Valid will ensure that the access_token is not empty or expired.
func (t *Token) Valid(clock clockwork.Clock) bool {
	if t == nil || t.AccessToken == "" {
		return false
	}
	return !t.Expired(clock)
}

// extraInt64 converts a raw token response value into seconds. JSON bodies
// decode numbers as float64, form encoded bodies as strings.
func extraInt64(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case float64:
		return int64(math.Round(n)), true
	case int64:
		return n, true
	case int:
		return int64(n), true
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, true
		}
		if f, err := n.Float64(); err == nil {
			return int64(math.Round(f)), true
		}
	case string:
		if i, err := strconv.ParseInt(n, 10, 64); err == nil {
			return i, true
		}
		if f, err := strconv.ParseFloat(n, 64); err == nil {
			return int64(math.Round(f)), true
		}
	}
	return 0, false
}
