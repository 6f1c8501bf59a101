// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: MPL-2.0

package callback

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/kopano-dev/get-access-token/oidc"
)

// AuthenErrorResponse represents Oauth2 error responses.  See:
// https://openid.net/specs/openid-connect-core-1_0.html#AuthError
type AuthenErrorResponse struct {
	Error       string
	Description string
	Uri         string
}

// Response is a parsed authorization response.
type Response struct {
	State string
	Code  string
}

// ParseResponse parses the query of a callback received by the Listener or
// entered by the user. Both a request URI ("/?code=...&state=...") and a full
// URL are accepted.
//
// Empty input, an unparseable query and a missing code are ErrCallback. When
// the provider redirected with an error, the returned error wraps both
// ErrCallback and ErrLoginFailed and the AuthenErrorResponse is returned with
// it.
func ParseResponse(raw string) (*Response, *AuthenErrorResponse, error) {
	const op = "callback.ParseResponse"
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil, fmt.Errorf("%s: callback is empty: %w", op, oidc.ErrCallback)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: unable to parse callback: %s: %w", op, err, oidc.ErrCallback)
	}
	qv, err := url.ParseQuery(u.RawQuery)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: unable to parse callback query: %s: %w", op, err, oidc.ErrCallback)
	}

	if e := qv.Get("error"); e != "" {
		authErr := &AuthenErrorResponse{
			Error:       e,
			Description: qv.Get("error_description"),
			Uri:         qv.Get("error_uri"),
		}
		msg := authErr.Error
		if authErr.Description != "" {
			msg = fmt.Sprintf("%s: %s", authErr.Error, authErr.Description)
		}
		return nil, authErr, fmt.Errorf("%s: provider returned %q: %w: %w", op, msg, oidc.ErrLoginFailed, oidc.ErrCallback)
	}

	resp := &Response{
		State: qv.Get("state"),
		Code:  qv.Get("code"),
	}
	if resp.Code == "" {
		return nil, nil, fmt.Errorf("%s: callback is missing code: %w", op, oidc.ErrCallback)
	}
	return resp, nil, nil
}
