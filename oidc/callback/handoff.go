// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: MPL-2.0

package callback

import (
	"context"
	"sync"
)

// Handoff is a single slot channel between the callback producer (the
// Listener or a manual entry reader) and the orchestrator waiting for it. It
// holds at most one Result. It's safe for concurrent use.
type Handoff struct {
	ch         chan Result
	done       chan struct{}
	cancelOnce sync.Once
}

// NewHandoff creates an empty Handoff.
func NewHandoff() *Handoff {
	return &Handoff{
		ch:   make(chan Result, 1),
		done: make(chan struct{}),
	}
}

// Push offers r without blocking. It returns false when r was dropped because
// the slot is already full or the Handoff was cancelled.
func (h *Handoff) Push(r Result) bool {
	select {
	case <-h.done:
		return false
	default:
	}
	select {
	case h.ch <- r:
		return true
	default:
		return false
	}
}

// Pop blocks until a Result is available, the Handoff is cancelled or ctx is
// done. A cancelled Handoff returns Cancelled() even when a Result is waiting.
func (h *Handoff) Pop(ctx context.Context) (Result, error) {
	select {
	case <-h.done:
		return Cancelled(), nil
	default:
	}
	select {
	case <-h.done:
		return Cancelled(), nil
	case r := <-h.ch:
		if h.Cancelled() {
			return Cancelled(), nil
		}
		return r, nil
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

// Cancel unblocks any current and future Pop with Cancelled(). It's
// idempotent.
func (h *Handoff) Cancel() {
	h.cancelOnce.Do(func() { close(h.done) })
}

// Cancelled reports whether Cancel has been called.
func (h *Handoff) Cancelled() bool {
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}
