// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: MPL-2.0

/*
flow is a package that drives a single interactive OAuth2 authorization code
flow from the command line: discover the provider, send the user to the
authorization endpoint (in a browser or by copy and paste), wait for the
redirect on a local callback listener, and exchange the code for tokens.

A Flow is single use. Shutdown may be called from any goroutine, e.g. a signal
handler, and always unblocks a waiting Start, which then returns
oidc.ErrCancelled.
*/
package flow
