// Package gwerr defines the error taxonomy shared across the dispatch
// engine. Components return these sentinels (wrapped with context via
// fmt.Errorf's %w) so callers can classify a failure with errors.Is
// without depending on a concrete type from the originating package.
package gwerr

import "errors"

var (
	// ErrInvalidArgument marks malformed input rejected at a boundary.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrQueueFull marks a dispatch queue at capacity; the ingress layer
	// maps this to HTTP 429.
	ErrQueueFull = errors.New("queue full")

	// ErrNoHealthyAnalyzer marks a selection attempt with no eligible
	// member. The owning packet still completes; this is recorded as a
	// message-level error, not a packet failure.
	ErrNoHealthyAnalyzer = errors.New("no healthy analyzer available")

	// ErrInvalidWeights marks a selection attempt whose healthy set sums
	// to zero weight.
	ErrInvalidWeights = errors.New("invalid analyzer weights")

	// ErrAnalyzerRejected marks a 4xx response from a downstream
	// analyzer. This is a message-level failure, not a health signal.
	ErrAnalyzerRejected = errors.New("analyzer rejected message")

	// ErrAnalyzerFailure marks a 5xx response, connection failure, or
	// timeout talking to a downstream analyzer. This is health-degrading.
	ErrAnalyzerFailure = errors.New("analyzer failure")

	// ErrNotFound marks an admin operation referencing an unknown id.
	ErrNotFound = errors.New("not found")

	// ErrShutdown marks an operation that did not complete because the
	// gateway is shutting down.
	ErrShutdown = errors.New("shutting down")
)
