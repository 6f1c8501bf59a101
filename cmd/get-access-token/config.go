// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: MPL-2.0

package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/kelseyhightower/envconfig"

	"github.com/kopano-dev/get-access-token/oidc"
)

// envConfig is the configuration read from the environment.
type envConfig struct {
	Issuer       string  `envconfig:"ISS" required:"true"`
	ClientID     string  `envconfig:"CLIENT_ID"`
	ClientSecret string  `envconfig:"CLIENT_SECRET"`
	Scope        string  `envconfig:"SCOPE" default:"openid"`
	Prompt       *string `envconfig:"PROMPT"`
	Insecure     envFlag `envconfig:"INSECURE"`
	HTTPDHost    string  `envconfig:"HTTPD_HOST" default:"localhost"`
	HTTPDPort    int     `envconfig:"HTTPD_PORT" default:"8080"`
	LogLevel     string  `envconfig:"LOG_LEVEL" default:"off"`
}

// envFlag is set by any non-empty value.
type envFlag bool

// Decode implements envconfig.Decoder.
func (f *envFlag) Decode(value string) error {
	*f = value != ""
	return nil
}

func loadEnvConfig() (*envConfig, error) {
	const op = "loadEnvConfig"
	var c envConfig
	if err := envconfig.Process("", &c); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if c.Issuer == "" {
		return nil, fmt.Errorf("%s: no ISS in environment", op)
	}
	return &c, nil
}

const (
	formatEnv  = "env"
	formatJSON = "json"
)

// cliFlags are the command line flags.
type cliFlags struct {
	authHostName         string
	authHostPort         int
	noauthLocalWebserver bool
	output               string
	force                bool
	format               string
	claims               bool
}

var errUsage = errors.New("usage")

// parseFlags parses args. The listener defaults come from the environment.
func parseFlags(args []string, env *envConfig, stderr io.Writer) (*cliFlags, error) {
	const op = "parseFlags"
	fs := flag.NewFlagSet("get-access-token", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var f cliFlags
	fs.StringVar(&f.authHostName, "auth_host_name", env.HTTPDHost, "Hostname when running a local web server.")
	fs.IntVar(&f.authHostPort, "auth_host_port", env.HTTPDPort, "Port web server should listen on.")
	fs.BoolVar(&f.noauthLocalWebserver, "noauth_local_webserver", false, "Do not run a local web server.")
	fs.StringVar(&f.output, "output", "", "Write auth result to file.")
	fs.BoolVar(&f.force, "force", false, "Allow overwrite of output file.")
	fs.StringVar(&f.format, "format", formatEnv, "Selects the output format (env or json).")
	fs.BoolVar(&f.claims, "claims", false, "Print the access token's claims to stderr. They are NOT verified.")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("%s: %s: %w", op, err, errUsage)
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("%s: unexpected arguments %s: %w", op, strings.Join(fs.Args(), " "), errUsage)
	}
	switch f.format {
	case formatEnv, formatJSON:
	default:
		return nil, fmt.Errorf("%s: unknown output format %q: %w", op, f.format, errUsage)
	}
	return &f, nil
}

// oidcConfig composes the flow's configuration from the environment and the
// flags.
func oidcConfig(env *envConfig, f *cliFlags) (*oidc.Config, error) {
	opts := []oidc.Option{
		oidc.WithScope(env.Scope),
		oidc.WithListenAddr(f.authHostName, f.authHostPort),
	}
	if env.Prompt != nil {
		opts = append(opts, oidc.WithPrompt(*env.Prompt))
	}
	if env.Insecure {
		opts = append(opts, oidc.WithInsecure())
	}
	return oidc.NewConfig(env.Issuer, env.ClientID, oidc.ClientSecret(env.ClientSecret), opts...)
}

func newLogger(level string, w io.Writer) hclog.Logger {
	return hclog.New(&hclog.LoggerOptions{
		Name:   "get-access-token",
		Level:  hclog.LevelFromString(level),
		Output: w,
	})
}
