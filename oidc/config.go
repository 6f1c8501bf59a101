// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: MPL-2.0

package oidc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/text/language"

	"github.com/kopano-dev/get-access-token/oidc/internal/strutils"
	sdkHttp "github.com/kopano-dev/get-access-token/sdk/http"
)

const (
	// DefaultClientID is used when no client id is configured. It's meant for
	// local/native test clients registered with the provider and is not a
	// credential.
	DefaultClientID = "get-access-token"

	// DefaultScope is requested when no scope is configured.
	DefaultScope = "openid"

	// DefaultPrompt is sent as the prompt parameter unless overridden.
	DefaultPrompt = "select_account"

	DefaultListenHost = "localhost"
	DefaultListenPort = 8080

	DefaultDiscoveryTimeout = 30 * time.Second
)

// ClientSecret is an oauth client secret.
type ClientSecret string

// RedactedClientSecret is the redacted string or json for an oauth client secret
const RedactedClientSecret = "[REDACTED: client secret]"

// String will redact the client secret
func (t ClientSecret) String() string {
	return RedactedClientSecret
}

// MarshalJSON will redact the client secret
func (t ClientSecret) MarshalJSON() ([]byte, error) {
	return json.Marshal(RedactedClientSecret)
}

// Config represents the configuration for one interactive authorization code
// flow against a provider using a local redirect listener.
type Config struct {
	// ClientID is the relying party id
	ClientID string

	// ClientSecret is the relying party secret. It may be empty.
	ClientSecret ClientSecret

	// Scope is the space separated scope to request of the provider.
	Scope string

	// Issuer is a case-sensitive URL string using the http or https scheme
	// that contains scheme, host, and optionally, port number and path
	// components and no query or fragment components.
	Issuer string

	// Prompt is the optional prompt parameter for the authorization request.
	Prompt string

	// UILocales are optional preferred languages for the provider's pages.
	UILocales []language.Tag

	// ListenHost and ListenPort are the address of the local callback
	// listener. The redirect URL is derived from them.
	ListenHost string
	ListenPort int

	// Insecure disables TLS certificate verification for discovery and the
	// token exchange.
	Insecure bool

	// ProviderCA is an optional CA cert to use when sending requests to the
	// provider.
	ProviderCA string

	// DiscoveryTimeout bounds the discovery request.
	DiscoveryTimeout time.Duration

	// CallbackTimeout bounds the wait for the callback. Zero means wait until
	// the flow is shut down.
	CallbackTimeout time.Duration
}

// NewConfig composes a new config for a flow. An empty clientID falls back to
// DefaultClientID.
//
// Supported options:
//
//	WithScope
//	WithPrompt
//	WithUILocales
//	WithListenAddr
//	WithInsecure
//	WithProviderCA
//	WithDiscoveryTimeout
//	WithCallbackTimeout
func NewConfig(issuer string, clientID string, clientSecret ClientSecret, opt ...Option) (*Config, error) {
	const op = "NewConfig"
	opts := getConfigOpts(opt...)
	if clientID == "" {
		clientID = DefaultClientID
	}
	c := &Config{
		Issuer:           issuer,
		ClientID:         clientID,
		ClientSecret:     clientSecret,
		Scope:            opts.withScope,
		Prompt:           opts.withPrompt,
		UILocales:        opts.withUILocales,
		ListenHost:       opts.withListenHost,
		ListenPort:       opts.withListenPort,
		Insecure:         opts.withInsecure,
		ProviderCA:       opts.withProviderCA,
		DiscoveryTimeout: opts.withDiscoveryTimeout,
		CallbackTimeout:  opts.withCallbackTimeout,
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%s: invalid provider config: %w", op, err)
	}
	return c, nil
}

// Validate the configuration. It verifies the issuer is a http(s) URL, but it
// doesn't verify the issuer is discoverable.
func (c *Config) Validate() error {
	const op = "Config.Validate"
	if c == nil {
		return fmt.Errorf("%s: provider config is nil: %w", op, ErrNilParameter)
	}
	if c.ClientID == "" {
		return fmt.Errorf("%s: client id is empty: %w", op, ErrInvalidParameter)
	}
	if c.Issuer == "" {
		return fmt.Errorf("%s: discovery URL is empty: %w", op, ErrInvalidParameter)
	}
	u, err := url.Parse(c.Issuer)
	if err != nil {
		return fmt.Errorf("%s: issuer %s is invalid (%s): %w", op, c.Issuer, err, ErrInvalidIssuer)
	}
	if !strutils.StrListContains([]string{"https", "http"}, u.Scheme) {
		return fmt.Errorf("%s: issuer %s schema is not http or https: %w", op, c.Issuer, ErrInvalidIssuer)
	}
	if u.RawQuery != "" || u.Fragment != "" {
		return fmt.Errorf("%s: issuer %s has a query or fragment: %w", op, c.Issuer, ErrInvalidIssuer)
	}
	if strings.TrimSpace(c.Scope) == "" {
		return fmt.Errorf("%s: scope is empty: %w", op, ErrInvalidParameter)
	}
	if c.ListenHost == "" {
		return fmt.Errorf("%s: listen host is empty: %w", op, ErrInvalidParameter)
	}
	if c.ListenPort <= 0 || c.ListenPort > 65535 {
		return fmt.Errorf("%s: listen port %d is out of range: %w", op, c.ListenPort, ErrInvalidParameter)
	}
	if c.Insecure && c.ProviderCA != "" {
		return fmt.Errorf("%s: insecure and provider CA are mutually exclusive: %w", op, ErrInvalidParameter)
	}
	if c.DiscoveryTimeout < 0 || c.CallbackTimeout < 0 {
		return fmt.Errorf("%s: timeouts must not be negative: %w", op, ErrInvalidParameter)
	}
	return nil
}

// Scopes returns the configured scope split into its space separated values,
// without duplicates.
func (c *Config) Scopes() []string {
	return strutils.RemoveDuplicatesStable(strings.Fields(c.Scope), false)
}

// ListenAddr returns the host:port the callback listener binds.
func (c *Config) ListenAddr() string {
	return net.JoinHostPort(c.ListenHost, strconv.Itoa(c.ListenPort))
}

// RedirectURL returns the redirect URL registered with the provider. It
// points at the root of the local callback listener.
func (c *Config) RedirectURL() string {
	return fmt.Sprintf("http://%s/", c.ListenAddr())
}

// HTTPClient is a helper function that creates a new http client for the
// provider configured. The same client is used for discovery and the token
// exchange, so TLS settings apply to both.
func (c *Config) HTTPClient() (*http.Client, error) {
	const op = "Config.HTTPClient"
	client, err := sdkHttp.NewClient(c.ProviderCA, c.Insecure)
	if err != nil {
		if errors.Is(err, sdkHttp.ErrInvalidCertificatePem) {
			return nil, fmt.Errorf("%s: could not parse CA PEM value: %w", op, ErrInvalidCACert)
		}
		return nil, fmt.Errorf("%s: could not get an http client: %w", op, err)
	}
	return client, nil
}

// HTTPClientContext is a helper function that returns a new Context that
// carries the provided HTTP client. This method sets the same context key used
// by the github.com/coreos/go-oidc and golang.org/x/oauth2 packages, so the
// returned context works for those packages as well.
func HTTPClientContext(ctx context.Context, client *http.Client) context.Context {
	return oidc.ClientContext(ctx, client)
}

// configOptions is the set of available options
type configOptions struct {
	withScope            string
	withPrompt           string
	withUILocales        []language.Tag
	withListenHost       string
	withListenPort       int
	withInsecure         bool
	withProviderCA       string
	withDiscoveryTimeout time.Duration
	withCallbackTimeout  time.Duration
}

// configDefaults is a handy way to get the defaults at runtime and
// during unit tests.
func configDefaults() configOptions {
	return configOptions{
		withScope:            DefaultScope,
		withPrompt:           DefaultPrompt,
		withListenHost:       DefaultListenHost,
		withListenPort:       DefaultListenPort,
		withDiscoveryTimeout: DefaultDiscoveryTimeout,
	}
}

// getConfigOpts gets the defaults and applies the opt overrides passed
// in.
func getConfigOpts(opt ...Option) configOptions {
	opts := configDefaults()
	ApplyOpts(&opts, opt...)
	return opts
}
