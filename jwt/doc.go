// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: MPL-2.0

// Package jwt decodes JWT claims for display. Nothing in this package checks
// signatures; see UnverifiedClaims.
package jwt
