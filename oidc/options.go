// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: MPL-2.0

package oidc

import (
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/text/language"
)

// Option defines a common functional options type which can be used in a
// variadic parameter pattern.
type Option func(interface{})

// ApplyOpts takes a pointer to the options struct as a set of default options
// and applies the slice of opts as overrides.
func ApplyOpts(opts interface{}, opt ...Option) {
	for _, o := range opt {
		if o == nil { // ignore any nil Options
			continue
		}
		o(opts)
	}
}

// WithClock provides an optional clock used when calculating token expiry.
// Valid for: Provider
func WithClock(clock clockwork.Clock) Option {
	return func(o interface{}) {
		if o, ok := o.(*providerOptions); ok {
			o.withClock = clock
		}
	}
}

// WithPrefix provides an optional prefix for a new ID.
// Valid for: NewID
func WithPrefix(prefix string) Option {
	return func(o interface{}) {
		if o, ok := o.(*idOptions); ok {
			o.withPrefix = prefix
		}
	}
}

// WithScope provides an optional space separated scope for the Config.
func WithScope(scope string) Option {
	return func(o interface{}) {
		if o, ok := o.(*configOptions); ok {
			o.withScope = scope
		}
	}
}

// WithPrompt provides an optional prompt value for the Config. An empty prompt
// removes the prompt parameter from authorization requests.
func WithPrompt(prompt string) Option {
	return func(o interface{}) {
		if o, ok := o.(*configOptions); ok {
			o.withPrompt = prompt
		}
	}
}

// WithUILocales provides optional preferred languages for the provider's
// login pages.
func WithUILocales(locales ...language.Tag) Option {
	return func(o interface{}) {
		if o, ok := o.(*configOptions); ok {
			o.withUILocales = locales
		}
	}
}

// WithListenAddr provides an optional host and port for the local callback
// listener.
func WithListenAddr(host string, port int) Option {
	return func(o interface{}) {
		if o, ok := o.(*configOptions); ok {
			o.withListenHost = host
			o.withListenPort = port
		}
	}
}

// WithInsecure disables TLS certificate verification for requests to the
// provider.
func WithInsecure() Option {
	return func(o interface{}) {
		if o, ok := o.(*configOptions); ok {
			o.withInsecure = true
		}
	}
}

// WithProviderCA provides an optional CA cert PEM for requests to the
// provider.
func WithProviderCA(cert string) Option {
	return func(o interface{}) {
		if o, ok := o.(*configOptions); ok {
			o.withProviderCA = cert
		}
	}
}

// WithDiscoveryTimeout provides an optional timeout for the discovery request.
func WithDiscoveryTimeout(d time.Duration) Option {
	return func(o interface{}) {
		if o, ok := o.(*configOptions); ok {
			o.withDiscoveryTimeout = d
		}
	}
}

// WithCallbackTimeout provides an optional bound on the wait for the
// provider's callback. Zero waits until the flow is shut down.
func WithCallbackTimeout(d time.Duration) Option {
	return func(o interface{}) {
		if o, ok := o.(*configOptions); ok {
			o.withCallbackTimeout = d
		}
	}
}
