// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: MPL-2.0

// getaccesstoken provides the packages behind the get-access-token command: an
// OAuth2 authorization code flow against an OpenID Connect provider, with the
// redirect received on a local listener, for getting tokens from the command
// line.
//
// See cmd/get-access-token
package getaccesstoken
