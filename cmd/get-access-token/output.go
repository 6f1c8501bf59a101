// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: MPL-2.0

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/hashicorp/go-multierror"

	"github.com/kopano-dev/get-access-token/jwt"
	"github.com/kopano-dev/get-access-token/oidc"
)

// tokenFields returns the token's fields as they're written out. The token
// strings are unredacted on purpose: writing them is the point of the tool.
func tokenFields(tk *oidc.Token) map[string]interface{} {
	m := map[string]interface{}{
		"access_token": string(tk.AccessToken),
		"token_type":   tk.TokenType,
	}
	if tk.ExpiresIn > 0 {
		m["expires_in"] = tk.ExpiresIn
	}
	if !tk.ExpiresAt.IsZero() {
		m["expires_at"] = tk.ExpiresAt.Unix()
	}
	if tk.RefreshToken != "" {
		m["refresh_token"] = string(tk.RefreshToken)
	}
	if tk.IDToken != "" {
		m["id_token"] = string(tk.IDToken)
	}
	if tk.Scope != "" {
		m["scope"] = tk.Scope
	}
	return m
}

// writeEnv writes the token as KEY=value lines which can be sourced by a
// shell.
func writeEnv(w io.Writer, tk *oidc.Token) error {
	const op = "writeEnv"
	var expiresAt, expiresIn string
	if !tk.ExpiresAt.IsZero() {
		expiresAt = strconv.FormatInt(tk.ExpiresAt.Unix(), 10)
	}
	if tk.ExpiresIn > 0 {
		expiresIn = strconv.FormatInt(tk.ExpiresIn, 10)
	}
	lines := [][2]string{
		{"TOKEN_VALUE", string(tk.AccessToken)},
		{"EXPIRES_AT", expiresAt},
		{"EXPIRES_IN", expiresIn},
		{"TOKEN_TYPE", tk.TokenType},
	}
	if tk.RefreshToken != "" {
		lines = append(lines, [2]string{"REFRESH_TOKEN_VALUE", string(tk.RefreshToken)})
	}
	if tk.IDToken != "" {
		lines = append(lines, [2]string{"ID_TOKEN_VALUE", string(tk.IDToken)})
	}
	for _, l := range lines {
		if _, err := fmt.Fprintf(w, "%s=%s\n", l[0], l[1]); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}
	return nil
}

// writeJSON writes the token as a JSON object with sorted keys.
func writeJSON(w io.Writer, tk *oidc.Token) error {
	const op = "writeJSON"
	b, err := json.MarshalIndent(tokenFields(tk), "", "  ")
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if _, err := fmt.Fprintf(w, "%s\n", b); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func writeToken(w io.Writer, format string, tk *oidc.Token) error {
	switch format {
	case formatJSON:
		return writeJSON(w, tk)
	default:
		return writeEnv(w, tk)
	}
}

// writeTokenFile writes the token to path. An existing file is an error
// unless force is set.
func writeTokenFile(path string, force bool, format string, tk *oidc.Token) (retErr error) {
	const op = "writeTokenFile"
	flags := os.O_WRONLY | os.O_CREATE
	if force {
		flags |= os.O_TRUNC
	} else {
		flags |= os.O_EXCL
	}
	f, err := os.OpenFile(path, flags, 0o600)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			retErr = multierror.Append(retErr, fmt.Errorf("%s: %w", op, err))
		}
	}()
	return writeToken(f, format, tk)
}

// writeClaims prints the access token's claims. Nothing about them is
// verified, so they're labelled that way.
func writeClaims(w io.Writer, tk *oidc.Token) error {
	const op = "writeClaims"
	claims, err := tk.AccessToken.UnverifiedClaims()
	if err != nil {
		_, werr := fmt.Fprintf(w, "Access token claims are not available (%s)\n", err)
		return werr
	}
	b, err := json.MarshalIndent(claims, "", "  ")
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if _, err := fmt.Fprintf(w, "UNVERIFIED access token claims (not authenticated):\n%s\n", b); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if id, ok := jwt.KopanoIdentity(claims); ok {
		if _, err := fmt.Fprintf(w, "UNVERIFIED Kopano user id: %s\n", id); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}
	return nil
}
