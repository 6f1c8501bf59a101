// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: MPL-2.0

package jwt

import (
	"errors"
	"fmt"
	"strings"

	josejwt "github.com/go-jose/go-jose/v4/jwt"
)

// ErrMalformedToken is returned when a token isn't a JWS in compact
// serialization.
var ErrMalformedToken = errors.New("malformed token")

// UnverifiedClaims decodes the payload of a JWS compact serialized token
// WITHOUT verifying its signature, expiry, issuer or audience. It's meant for
// inspecting tokens a caller already trusts (e.g. one just received over TLS
// from the token endpoint) and must never be used to authenticate anyone.
//
// Supported options:
//
//	WithSigningAlgs
func UnverifiedClaims(token string, opt ...Option) (map[string]interface{}, error) {
	const op = "jwt.UnverifiedClaims"
	if strings.Count(token, ".") != 2 {
		return nil, fmt.Errorf("%s: expected 3 dot separated segments: %w", op, ErrMalformedToken)
	}
	opts := getClaimsOpts(opt...)
	if err := SupportedSigningAlgorithm(opts.withSigningAlgs...); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	parsed, err := josejwt.ParseSigned(token, joseAlgs(opts.withSigningAlgs))
	if err != nil {
		return nil, fmt.Errorf("%s: %s: %w", op, err, ErrMalformedToken)
	}
	claims := map[string]interface{}{}
	if err := parsed.UnsafeClaimsWithoutVerification(&claims); err != nil {
		return nil, fmt.Errorf("%s: unable to decode claims: %s: %w", op, err, ErrMalformedToken)
	}
	return claims, nil
}

// Lookup walks nested claim objects along path and returns the value found.
func Lookup(claims map[string]interface{}, path ...string) (interface{}, bool) {
	if len(path) == 0 {
		return nil, false
	}
	var cur interface{} = claims
	for _, key := range path {
		m, ok := cur.(map[string]interface{})
		if !ok {
			return nil, false
		}
		if cur, ok = m[key]; !ok {
			return nil, false
		}
	}
	return cur, true
}

// Kopano Konnect identity claim names.
const (
	KopanoIdentityClaim   = "kc.identity"
	KopanoIdentityIDClaim = "kc.i.id"
)

// KopanoIdentity returns the user id carried in a Kopano Konnect access
// token's identity claim. The claims are typically from UnverifiedClaims, so
// the result is informational only.
func KopanoIdentity(claims map[string]interface{}) (string, bool) {
	v, ok := Lookup(claims, KopanoIdentityClaim, KopanoIdentityIDClaim)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok && s != ""
}
