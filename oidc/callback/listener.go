// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: MPL-2.0

package callback

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"

	"github.com/kopano-dev/get-access-token/oidc"
)

// Listener is the local HTTP server the provider redirects the browser to. It
// accepts any request, answers it with a static page and pushes the request
// URI into its Handoff. It never redirects or rejects a request.
type Listener struct {
	handoff         *Handoff
	logger          hclog.Logger
	shutdownTimeout time.Duration

	listener net.Listener
	server   *http.Server

	mu        sync.Mutex
	started   bool
	stopped   bool
	serveDone chan struct{}
	stopErr   error
}

// NewListener binds addr immediately, so a port that's already in use is
// reported before anything else happens. The returned Listener doesn't serve
// until Start is called.
//
// Supported options:
//
//	WithLogger
//	WithShutdownTimeout
func NewListener(addr string, h *Handoff, opt ...Option) (*Listener, error) {
	const op = "callback.NewListener"
	if h == nil {
		return nil, fmt.Errorf("%s: handoff is nil: %w", op, oidc.ErrNilParameter)
	}
	if addr == "" {
		return nil, fmt.Errorf("%s: address is empty: %w", op, oidc.ErrInvalidParameter)
	}
	opts := getListenerOpts(opt...)

	l, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("%s: unable to listen on %s: %s: %w", op, addr, err, oidc.ErrBind)
	}

	cl := &Listener{
		handoff:         h,
		logger:          opts.withLogger.Named("callback"),
		shutdownTimeout: opts.withShutdownTimeout,
		listener:        l,
		serveDone:       make(chan struct{}),
	}
	cl.server = &http.Server{
		Handler:           cl,
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          cl.logger.StandardLogger(&hclog.StandardLoggerOptions{InferLevels: true}),
	}
	return cl, nil
}

// Addr returns the bound address.
func (l *Listener) Addr() net.Addr {
	return l.listener.Addr()
}

// Start serves requests on a new goroutine. A Listener can only be started
// once and not after it was stopped.
func (l *Listener) Start() error {
	const op = "Listener.Start"
	l.mu.Lock()
	defer l.mu.Unlock()
	switch {
	case l.stopped:
		return fmt.Errorf("%s: listener is stopped: %w", op, oidc.ErrInvalidParameter)
	case l.started:
		return fmt.Errorf("%s: %w", op, oidc.ErrAlreadyStarted)
	}
	l.started = true
	l.logger.Debug("listening for callback", "addr", l.Addr().String())
	go func() {
		defer close(l.serveDone)
		if err := l.server.Serve(l.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.logger.Error("callback listener failed", "error", err)
		}
	}()
	return nil
}

// Stop shuts the listener down. In flight requests get a bounded grace period
// before their connections are closed, and Stop returns only after the serve
// goroutine has exited, so every push made by a request has happened by then.
// It's idempotent and safe to call before Start.
func (l *Listener) Stop() error {
	const op = "Listener.Stop"
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.stopped {
		return l.stopErr
	}
	l.stopped = true

	if !l.started {
		if err := l.listener.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			l.stopErr = fmt.Errorf("%s: %w", op, err)
		}
		return l.stopErr
	}

	var retErr *multierror.Error
	ctx, cancel := context.WithTimeout(context.Background(), l.shutdownTimeout)
	defer cancel()
	if err := l.server.Shutdown(ctx); err != nil {
		retErr = multierror.Append(retErr, fmt.Errorf("%s: graceful shutdown: %w", op, err))
		if err := l.server.Close(); err != nil {
			retErr = multierror.Append(retErr, fmt.Errorf("%s: close: %w", op, err))
		}
	}
	<-l.serveDone
	l.logger.Debug("callback listener stopped")
	l.stopErr = retErr.ErrorOrNil()
	return l.stopErr
}

// ServeHTTP implements http.Handler.
func (l *Listener) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if err := writePage(w); err != nil {
		l.logger.Debug("unable to write callback page", "error", err)
	}
	if ok := l.handoff.Push(Success(req.URL.RequestURI())); !ok {
		l.logger.Debug("callback dropped", "path", req.URL.Path)
		return
	}
	l.logger.Debug("callback received", "path", req.URL.Path)
}
