// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: MPL-2.0

package oidc

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/jonboulle/clockwork"
	"golang.org/x/oauth2"
)

// ProviderEndpoints are the endpoints resolved from a provider's discovery
// document.
type ProviderEndpoints struct {
	AuthorizationEndpoint string
	TokenEndpoint         string
}

// Provider resolves a provider's endpoints and runs the two HTTP legs of the
// authorization code flow against it: building the authorization URL and
// exchanging the code.
type Provider struct {
	config    *Config
	endpoints ProviderEndpoints
	client    *http.Client
	clock     clockwork.Clock
}

// NewProvider creates and initializes a Provider. Initializing the provider
// includes making an http request to the issuer's discovery endpoint. The
// request is bounded by ctx and the config's DiscoveryTimeout. All failures
// are reported as ErrDiscovery.
//
// Supported options:
//
//	WithClock
func NewProvider(ctx context.Context, c *Config, opt ...Option) (*Provider, error) {
	const op = "NewProvider"
	if c == nil {
		return nil, fmt.Errorf("%s: provider config is nil: %w", op, ErrNilParameter)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%s: provider config is invalid: %w", op, err)
	}
	opts := getProviderOpts(opt...)

	client, err := c.HTTPClient()
	if err != nil {
		return nil, fmt.Errorf("%s: unable to create http client: %w", op, err)
	}

	if c.DiscoveryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.DiscoveryTimeout)
		defer cancel()
	}
	// Tokens are never verified here, so the issuer reported by the discovery
	// document doesn't have to match the configured one.
	discoveryCtx := oidc.InsecureIssuerURLContext(HTTPClientContext(ctx, client), c.Issuer)
	provider, err := oidc.NewProvider(discoveryCtx, c.Issuer) // makes http req to issuer for discovery
	if err != nil {
		return nil, fmt.Errorf("%s: unable to discover provider %s: %s: %w", op, c.Issuer, err, ErrDiscovery)
	}
	endpoint := provider.Endpoint()
	switch {
	case endpoint.AuthURL == "":
		return nil, fmt.Errorf("%s: discovery document is missing authorization_endpoint: %w", op, ErrDiscovery)
	case endpoint.TokenURL == "":
		return nil, fmt.Errorf("%s: discovery document is missing token_endpoint: %w", op, ErrDiscovery)
	}

	return &Provider{
		config: c,
		endpoints: ProviderEndpoints{
			AuthorizationEndpoint: endpoint.AuthURL,
			TokenEndpoint:         endpoint.TokenURL,
		},
		client: client,
		clock:  opts.withClock,
	}, nil
}

// Endpoints returns the resolved endpoints.
func (p *Provider) Endpoints() ProviderEndpoints {
	return p.endpoints
}

// AuthURL will generate a URL the caller can use to kick off an authorization
// code flow with the provider. The URL carries client_id, redirect_uri, scope,
// state, response_type=code and the optional prompt and ui_locales.
func (p *Provider) AuthURL(r *Request) (string, error) {
	const op = "Provider.AuthURL"
	if r == nil {
		return "", fmt.Errorf("%s: request is nil: %w", op, ErrNilParameter)
	}
	if r.State() == "" {
		return "", fmt.Errorf("%s: request state is empty: %w", op, ErrInvalidParameter)
	}
	var authCodeOpts []oauth2.AuthCodeOption
	if r.Prompt() != "" {
		authCodeOpts = append(authCodeOpts, oauth2.SetAuthURLParam("prompt", r.Prompt()))
	}
	if locales := r.UILocales(); len(locales) > 0 {
		tags := make([]string, 0, len(locales))
		for _, l := range locales {
			tags = append(tags, l.String())
		}
		authCodeOpts = append(authCodeOpts, oauth2.SetAuthURLParam("ui_locales", strings.Join(tags, " ")))
	}
	return p.oauth2Config(r).AuthCodeURL(r.State(), authCodeOpts...), nil
}

// Exchange will request a token from the token endpoint, using the
// authorizationCode and authorizationState it received in the callback.
//
// The authorizationState is checked against the Request's state before any
// request is made; a mismatch is ErrStateMismatch. Failures of the exchange
// itself are ErrTokenExchange and are never retried, since an authorization
// code can only be used once.
func (p *Provider) Exchange(ctx context.Context, r *Request, authorizationState string, authorizationCode string) (*Token, error) {
	const op = "Provider.Exchange"
	if r == nil {
		return nil, fmt.Errorf("%s: request is nil: %w", op, ErrNilParameter)
	}
	if err := r.VerifyState(authorizationState); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if authorizationCode == "" {
		return nil, fmt.Errorf("%s: authorization code is empty: %w", op, ErrInvalidParameter)
	}

	oauth2Token, err := p.oauth2Config(r).Exchange(HTTPClientContext(ctx, p.client), authorizationCode)
	if err != nil {
		return nil, fmt.Errorf("%s: unable to exchange auth code with provider: %s: %w", op, err, ErrTokenExchange)
	}
	t, err := NewToken(oauth2Token, p.clock)
	if err != nil {
		return nil, fmt.Errorf("%s: unable to create token: %s: %w", op, err, ErrTokenExchange)
	}
	return t, nil
}

func (p *Provider) oauth2Config(r *Request) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     p.config.ClientID,
		ClientSecret: string(p.config.ClientSecret),
		RedirectURL:  r.RedirectURL(),
		Scopes:       r.Scopes(),
		Endpoint: oauth2.Endpoint{
			AuthURL:  p.endpoints.AuthorizationEndpoint,
			TokenURL: p.endpoints.TokenEndpoint,
			// client_id and client_secret go in the POST body. Auto detection
			// would retry with a second request, which a one-time code can't
			// survive.
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
}

// providerOptions is the set of available options
type providerOptions struct {
	withClock clockwork.Clock
}

// providerDefaults is a handy way to get the defaults at runtime and
// during unit tests.
func providerDefaults() providerOptions {
	return providerOptions{
		withClock: clockwork.NewRealClock(),
	}
}

// getProviderOpts gets the defaults and applies the opt overrides passed
// in.
func getProviderOpts(opt ...Option) providerOptions {
	opts := providerDefaults()
	ApplyOpts(&opts, opt...)
	return opts
}
