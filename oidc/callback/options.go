// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: MPL-2.0

package callback

import (
	"time"

	"github.com/hashicorp/go-hclog"
)

// DefaultShutdownTimeout bounds the graceful part of Listener.Stop.
const DefaultShutdownTimeout = 2 * time.Second

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

// listenerOptions is the set of available options for a Listener
type listenerOptions struct {
	withLogger          hclog.Logger
	withShutdownTimeout time.Duration
}

func listenerDefaults() listenerOptions {
	return listenerOptions{
		withLogger:          hclog.NewNullLogger(),
		withShutdownTimeout: DefaultShutdownTimeout,
	}
}

func getListenerOpts(opt ...Option) listenerOptions {
	opts := listenerDefaults()
	applyOpts(&opts, opt...)
	return opts
}

// WithLogger provides an optional logger. A nil logger is ignored.
//
// Valid for: NewListener
func WithLogger(l hclog.Logger) Option {
	return func(o interface{}) {
		if o, ok := o.(*listenerOptions); ok && l != nil {
			o.withLogger = l
		}
	}
}

// WithShutdownTimeout provides an optional bound on how long Stop waits for
// in flight requests before closing their connections.
//
// Valid for: NewListener
func WithShutdownTimeout(d time.Duration) Option {
	return func(o interface{}) {
		if o, ok := o.(*listenerOptions); ok && d > 0 {
			o.withShutdownTimeout = d
		}
	}
}
