// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: MPL-2.0

package flow

// Status is the position of a Flow in its state machine.
type Status int

const (
	StatusIdle Status = iota
	StatusAwaitingDiscovery
	StatusAwaitingCallback
	StatusExchangingToken
	StatusDone
	StatusCancelled
	StatusFailed
)

// String returns a human readable status.
func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusAwaitingDiscovery:
		return "awaiting discovery"
	case StatusAwaitingCallback:
		return "awaiting callback"
	case StatusExchangingToken:
		return "exchanging token"
	case StatusDone:
		return "done"
	case StatusCancelled:
		return "cancelled"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether s is a final state.
func (s Status) Terminal() bool {
	return s == StatusDone || s == StatusCancelled || s == StatusFailed
}
