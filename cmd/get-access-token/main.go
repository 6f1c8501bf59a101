// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: MPL-2.0

// get-access-token runs an OAuth2 authorization code flow against an OpenID
// Connect provider and writes the resulting tokens as shell variables or
// JSON.
//
// Usage:
//
//	ISS=https://id.example.com SCOPE="openid profile" \
//	  CLIENT_ID=my-client-id CLIENT_SECRET=my-client-secret \
//	  get-access-token -format env
//
// Environment variables:
//
//	ISS           : Issuer identifier (required).
//	CLIENT_ID     : Client ID to use for OAuth2 requests.
//	CLIENT_SECRET : Client secret to use for the token request.
//	SCOPE         : Scope to use for the authorization request.
//	PROMPT        : Prompt value to use for the authorization request.
//	INSECURE=1    : Disables TLS validation.
//	HTTPD_HOST    : Default for -auth_host_name.
//	HTTPD_PORT    : Default for -auth_host_port.
//	LOG_LEVEL     : trace, debug, info, warn, error or off (default).
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/kopano-dev/get-access-token/oidc"
	"github.com/kopano-dev/get-access-token/oidc/flow"
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// run is main without the process: it returns the exit code.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer, opt ...flow.Option) int {
	env, err := loadEnvConfig()
	if err != nil {
		fmt.Fprintf(stderr, "%s\n", err)
		return 1
	}
	flags, err := parseFlags(args, env, stderr)
	if err != nil {
		if !errors.Is(err, errUsage) {
			fmt.Fprintf(stderr, "%s\n", err)
		}
		return 2
	}
	logger := newLogger(env.LogLevel, stderr)

	c, err := oidcConfig(env, flags)
	if err != nil {
		fmt.Fprintf(stderr, "%s\n", err)
		return 1
	}
	fmt.Fprintf(stderr, "ISS                 : %s\n", c.Issuer)
	fmt.Fprintf(stderr, "CLIENT_ID           : %s\n", c.ClientID)

	flowOpts := append([]flow.Option{
		flow.WithLogger(logger),
		flow.WithOutput(stderr),
		flow.WithInput(stdin),
	}, opt...)
	f, err := flow.New(c, flowOpts...)
	if err != nil {
		fmt.Fprintf(stderr, "%s\n", err)
		return 1
	}

	// handle ctrl-c while the flow runs
	sigintCh := make(chan os.Signal, 1)
	signal.Notify(sigintCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigintCh)
	flowDone := make(chan struct{})
	defer close(flowDone)
	go func() {
		select {
		case <-sigintCh:
			f.Shutdown()
		case <-flowDone:
		}
	}()

	tk, err := f.Start(ctx, !flags.noauthLocalWebserver)
	switch {
	case errors.Is(err, oidc.ErrCancelled):
		fmt.Fprintln(stderr, "Interrupted")
		return 1
	case err != nil:
		fmt.Fprintf(stderr, "%s\n", err)
		return 1
	}

	if flags.claims {
		if err := writeClaims(stderr, tk); err != nil {
			logger.Warn("unable to print claims", "error", err)
		}
	}

	if flags.output != "" {
		err = writeTokenFile(flags.output, flags.force, flags.format, tk)
	} else {
		err = writeToken(stdout, flags.format, tk)
	}
	if err != nil {
		fmt.Fprintf(stderr, "%s\n", err)
		return 1
	}
	return 0
}
