// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: MPL-2.0

package jwt

// Option defines a common functional options type which can be used in a
// variadic parameter pattern.
type Option func(interface{})

type claimsOptions struct {
	withSigningAlgs []Alg
}

func claimsDefaults() claimsOptions {
	return claimsOptions{
		withSigningAlgs: []Alg{RS256, RS384, RS512, ES256, ES384, ES512, PS256, PS384, PS512, EdDSA},
	}
}

// getClaimsOpts gets the defaults and applies the opt overrides passed
// in.
func getClaimsOpts(opt ...Option) claimsOptions {
	opts := claimsDefaults()
	ApplyOpts(&opts, opt...)
	return opts
}

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

// WithSigningAlgs limits the header algorithms accepted when parsing a token.
func WithSigningAlgs(algs ...Alg) Option {
	return func(o interface{}) {
		switch v := o.(type) {
		case *claimsOptions:
			v.withSigningAlgs = algs
		}
	}
}
