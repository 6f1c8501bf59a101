// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: MPL-2.0

package flow

import (
	"io"
	"os"

	"github.com/hashicorp/go-hclog"
	"github.com/jonboulle/clockwork"
	"github.com/pkg/browser"
)

// Option defines a common functional options type which can be used in a
// variadic parameter pattern.
type Option func(interface{})

// applyOpts takes a pointer to the options struct as a set of default options
// and applies the slice of opts as overrides.
func applyOpts(opts interface{}, opt ...Option) {
	for _, o := range opt {
		if o == nil { // ignore any nil Options
			continue
		}
		o(opts)
	}
}

// flowOptions is the set of available options
type flowOptions struct {
	withLogger  hclog.Logger
	withBrowser func(string) error
	withOutput  io.Writer
	withInput   io.Reader
	withClock   clockwork.Clock
}

// flowDefaults is a handy way to get the defaults at runtime and during unit
// tests.
func flowDefaults() flowOptions {
	return flowOptions{
		withLogger:  hclog.NewNullLogger(),
		withBrowser: browser.OpenURL,
		withOutput:  os.Stdout,
		withInput:   os.Stdin,
		withClock:   clockwork.NewRealClock(),
	}
}

// getFlowOpts gets the defaults and applies the opt overrides passed in.
func getFlowOpts(opt ...Option) flowOptions {
	opts := flowDefaults()
	applyOpts(&opts, opt...)
	return opts
}

// WithLogger provides an optional logger. Nothing is logged by default.
func WithLogger(l hclog.Logger) Option {
	return func(o interface{}) {
		if o, ok := o.(*flowOptions); ok && l != nil {
			o.withLogger = l
		}
	}
}

// WithBrowser provides an optional func used to open the authorization URL.
// It defaults to the system browser.
func WithBrowser(open func(url string) error) Option {
	return func(o interface{}) {
		if o, ok := o.(*flowOptions); ok && open != nil {
			o.withBrowser = open
		}
	}
}

// WithOutput provides an optional writer for the progress messages shown to
// the user. It defaults to stdout.
func WithOutput(w io.Writer) Option {
	return func(o interface{}) {
		if o, ok := o.(*flowOptions); ok && w != nil {
			o.withOutput = w
		}
	}
}

// WithInput provides an optional reader the callback URL is read from when
// the flow isn't interactive. It defaults to stdin.
func WithInput(r io.Reader) Option {
	return func(o interface{}) {
		if o, ok := o.(*flowOptions); ok && r != nil {
			o.withInput = r
		}
	}
}

// WithClock provides an optional clock used for token expiry.
func WithClock(c clockwork.Clock) Option {
	return func(o interface{}) {
		if o, ok := o.(*flowOptions); ok && c != nil {
			o.withClock = c
		}
	}
}
