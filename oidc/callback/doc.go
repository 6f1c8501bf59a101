// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: MPL-2.0

/*
callback is a package that receives the provider's redirect at the end of an
authorization code flow on a short lived local HTTP listener.

The Listener answers every request with a static confirmation page and pushes
the request URI into a Handoff, a single slot channel the orchestrator blocks
on. ParseResponse turns what was received into the code and state (or the
provider's error) for the token exchange.
*/
package callback
