// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: MPL-2.0

package callback

// Result is what a Handoff carries: either the raw callback (a request URI or
// a full URL typed in by the user) or the cancelled sentinel.
type Result struct {
	path      string
	cancelled bool
}

// Success returns a Result carrying the callback path.
func Success(path string) Result {
	return Result{path: path}
}

// Cancelled returns the Result used to report that the wait was cancelled.
func Cancelled() Result {
	return Result{cancelled: true}
}

// IsCancelled reports whether r is the cancelled sentinel.
func (r Result) IsCancelled() bool { return r.cancelled }

// Path returns the callback path. It's empty for the cancelled sentinel.
func (r Result) Path() string { return r.path }
