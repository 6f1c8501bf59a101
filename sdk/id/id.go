// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: MPL-2.0

package id

import (
	"encoding/hex"
	"fmt"

	"github.com/hashicorp/go-uuid"
)

// DefaultLen is the number of random bytes in a generated ID. 32 bytes gives
// 256 bits of entropy.
const DefaultLen = 32

// New generates a hex encoded random ID with an optional prefix. The random
// bytes come from crypto/rand.
func New(optionalPrefix string) (string, error) {
	return NewWithLen(optionalPrefix, DefaultLen)
}

// NewWithLen generates a hex encoded random ID of n random bytes with an
// optional prefix.
func NewWithLen(optionalPrefix string, n int) (string, error) {
	if n <= 0 {
		return "", fmt.Errorf("invalid id length %d", n)
	}
	b, err := uuid.GenerateRandomBytes(n)
	if err != nil {
		return "", fmt.Errorf("unable to generate id: %w", err)
	}
	id := hex.EncodeToString(b)
	switch {
	case optionalPrefix != "":
		return fmt.Sprintf("%s_%s", optionalPrefix, id), nil
	default:
		return id, nil
	}
}
