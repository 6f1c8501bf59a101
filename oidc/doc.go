// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: MPL-2.0

/*
Package oidc runs the provider side of an OAuth2 authorization code flow for a
native client that receives its callback on a local listener.

# Primary types provided by the package

* Config: the configuration for one flow (issuer, client id/secret, scope,
prompt, listener address, TLS settings and timeouts). It's passed explicitly;
nothing is read from the environment.

* Provider: resolves the issuer's endpoints through OIDC discovery, builds
authorization URLs and exchanges authorization codes for tokens.

* Request: one authorization attempt. Its State() is sent with the
authorization request and must come back unchanged in the callback.

* Token: the access_token, token type, expiry and the optional refresh_token
and id_token returned by the token endpoint.

The oidc/callback package provides the local listener and the handoff used to
pass the callback to the waiting flow, and the oidc/flow package ties
everything together.
*/
package oidc
