// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: MPL-2.0

package flow

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/hashicorp/go-hclog"
	"github.com/jonboulle/clockwork"

	"github.com/kopano-dev/get-access-token/oidc"
	"github.com/kopano-dev/get-access-token/oidc/callback"
)

// NoBrowserFlag is the command line flag users are pointed at when the
// browser can't reach the local listener.
const NoBrowserFlag = "--noauth_local_webserver"

// ManualEntryPrompt is shown when the flow waits for a pasted callback URL.
const ManualEntryPrompt = "Enter full callback URL: "

// Flow is one authorization code flow. Create it with New, run it once with
// Start and cancel it from anywhere with Shutdown.
type Flow struct {
	config  *oidc.Config
	logger  hclog.Logger
	browser func(string) error
	out     io.Writer
	in      io.Reader
	clock   clockwork.Clock
	handoff *callback.Handoff

	mu       sync.Mutex
	status   Status
	started  bool
	shutdown bool
	cancel   context.CancelFunc
	listener *callback.Listener
}

// New creates a Flow for the config.
//
// Supported options:
//
//	WithLogger
//	WithBrowser
//	WithOutput
//	WithInput
//	WithClock
func New(c *oidc.Config, opt ...Option) (*Flow, error) {
	const op = "flow.New"
	if c == nil {
		return nil, fmt.Errorf("%s: config is nil: %w", op, oidc.ErrNilParameter)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	opts := getFlowOpts(opt...)
	return &Flow{
		config:  c,
		logger:  opts.withLogger.Named("flow"),
		browser: opts.withBrowser,
		out:     opts.withOutput,
		in:      opts.withInput,
		clock:   opts.withClock,
		handoff: callback.NewHandoff(),
		status:  StatusIdle,
	}, nil
}

// Status returns where the flow is in its state machine.
func (f *Flow) Status() Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status
}

// Start runs the flow and returns the token on success.
//
// When interactive is true the authorization URL is opened in a browser and
// the redirect is received on the local listener. Otherwise the URL is
// printed and the user pastes the callback URL into the flow's input.
//
// Errors wrap one of oidc.ErrDiscovery, oidc.ErrBind, oidc.ErrCallback,
// oidc.ErrStateMismatch or oidc.ErrTokenExchange. oidc.ErrCancelled is
// returned when Shutdown was called or ctx was cancelled; it's a normal way
// for a flow to end. A Flow can only be started once.
func (f *Flow) Start(ctx context.Context, interactive bool) (*oidc.Token, error) {
	const op = "Flow.Start"
	f.mu.Lock()
	if f.started {
		f.mu.Unlock()
		return nil, fmt.Errorf("%s: flow is single use: %w", op, oidc.ErrAlreadyStarted)
	}
	f.started = true
	if f.shutdown {
		f.status = StatusCancelled
		f.mu.Unlock()
		return nil, fmt.Errorf("%s: shut down before start: %w", op, oidc.ErrCancelled)
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	f.cancel = cancel
	f.status = StatusAwaitingDiscovery
	f.mu.Unlock()

	tk, err := f.run(ctx, interactive)
	if err != nil && !errors.Is(err, oidc.ErrCancelled) && f.handoff.Cancelled() {
		// anything failing after Shutdown is a cancellation
		f.logger.Debug("flow failed after shutdown", "error", err)
		err = fmt.Errorf("%s: %w", op, oidc.ErrCancelled)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	switch {
	case err == nil:
		f.status = StatusDone
	case errors.Is(err, oidc.ErrCancelled):
		f.status = StatusCancelled
	default:
		f.status = StatusFailed
	}
	if err != nil {
		return nil, err
	}
	return tk, nil
}

func (f *Flow) run(ctx context.Context, interactive bool) (*oidc.Token, error) {
	const op = "Flow.Start"
	f.logger.Debug("discovering provider", "issuer", f.config.Issuer)
	provider, err := oidc.NewProvider(ctx, f.config, oidc.WithClock(f.clock))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	req, err := oidc.NewRequest(f.config)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	authURL, err := provider.AuthURL(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := f.setStatus(StatusAwaitingCallback); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if interactive {
		if err := f.startListener(); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		defer f.stopListener()
		if err := f.browser(authURL); err != nil {
			f.logger.Warn("unable to open browser", "error", err)
			fmt.Fprintf(f.out, "Unable to open your browser, please visit:\n\n    %s\n", authURL)
		} else {
			fmt.Fprintf(f.out, "Your browser has been opened to visit:\n\n    %s\n", authURL)
		}
		fmt.Fprintf(f.out, "If your browser is on a different machine then exit and re-run this\n")
		fmt.Fprintf(f.out, "application with the command-line parameter\n\n  %s\n\n", NoBrowserFlag)
	} else {
		fmt.Fprintf(f.out, "Go to the following link in your browser:\n\n    %s\n\n", authURL)
		fmt.Fprint(f.out, ManualEntryPrompt)
		go f.readCallback()
	}

	result, err := f.waitForCallback(ctx)
	f.stopListener()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	resp, authErr, err := callback.ParseResponse(result.Path())
	if err != nil {
		if authErr != nil {
			f.logger.Error("provider denied authorization", "error", authErr.Error, "description", authErr.Description)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := req.VerifyState(resp.State); err != nil {
		f.logger.Warn("callback state doesn't match the request, ignoring the code")
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	fmt.Fprintln(f.out, "Authentication successful.")

	if err := f.setStatus(StatusExchangingToken); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	tk, err := provider.Exchange(ctx, req, resp.State, resp.Code)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	f.logger.Debug("token received", "token_type", tk.TokenType, "expires_at", tk.ExpiresAt)
	return tk, nil
}

// waitForCallback blocks on the handoff, bounded by the config's callback
// timeout.
func (f *Flow) waitForCallback(ctx context.Context) (callback.Result, error) {
	const op = "Flow.waitForCallback"
	waitCtx := ctx
	if f.config.CallbackTimeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, f.config.CallbackTimeout)
		defer cancel()
	}
	result, err := f.handoff.Pop(waitCtx)
	switch {
	case err == nil && result.IsCancelled():
		return result, fmt.Errorf("%s: %w", op, oidc.ErrCancelled)
	case err == nil:
		return result, nil
	case ctx.Err() != nil:
		return result, fmt.Errorf("%s: %s: %w", op, ctx.Err(), oidc.ErrCancelled)
	default:
		return result, fmt.Errorf("%s: no callback within %s: %w", op, f.config.CallbackTimeout, oidc.ErrCallback)
	}
}

// readCallback reads a single line from the input and hands it over as the
// callback. It may stay blocked in Read after the flow ended.
func (f *Flow) readCallback() {
	line, err := bufio.NewReader(f.in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		f.logger.Debug("unable to read callback", "error", err)
	}
	f.handoff.Push(callback.Success(line))
}

func (f *Flow) startListener() error {
	l, err := callback.NewListener(f.config.ListenAddr(), f.handoff, callback.WithLogger(f.logger))
	if err != nil {
		return err
	}
	f.mu.Lock()
	if f.shutdown {
		f.mu.Unlock()
		_ = l.Stop()
		return oidc.ErrCancelled
	}
	f.listener = l
	f.mu.Unlock()
	return l.Start()
}

// stopListener stops the listener, if any. It's safe to call more than once
// and from more than one goroutine: every caller returns only after the port
// was released.
func (f *Flow) stopListener() {
	f.mu.Lock()
	l := f.listener
	f.mu.Unlock()
	if l == nil {
		return
	}
	if err := l.Stop(); err != nil {
		f.logger.Warn("unable to stop callback listener", "error", err)
	}
}

func (f *Flow) setStatus(s Status) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.shutdown {
		return oidc.ErrCancelled
	}
	f.status = s
	return nil
}

// Shutdown cancels the flow. A Start that's waiting returns oidc.ErrCancelled
// and a Start that's yet to be called will. Shutdown is idempotent and safe to
// call from any goroutine.
func (f *Flow) Shutdown() {
	f.mu.Lock()
	if f.shutdown {
		f.mu.Unlock()
		return
	}
	f.shutdown = true
	cancel := f.cancel
	f.mu.Unlock()

	f.handoff.Cancel()
	if cancel != nil {
		cancel()
	}
	f.stopListener()
	f.logger.Debug("flow shut down")
}
