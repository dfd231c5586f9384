package domain

import "errors"

// Domain errors represent error conditions in the consumer domain.
// These errors are returned by the public API and can be checked with errors.Is.
var (
	// ErrConsumerClosed is returned by every operation after Close, and is
	// the resolution of all pull requests that were pending at close time.
	ErrConsumerClosed = errors.New("pulsar: consumer closed")

	// ErrInvalidPolicy is returned when a batch receive policy has no
	// positive bound.
	ErrInvalidPolicy = errors.New("pulsar: invalid batch receive policy")

	// ErrInvalidConfig is returned when consumer configuration validation fails.
	ErrInvalidConfig = errors.New("pulsar: invalid configuration")

	// ErrNotTracked is returned when a message referenced by ID is not
	// awaiting acknowledgment: it was already acked, already redelivered,
	// or ack-timeout tracking is disabled.
	ErrNotTracked = errors.New("pulsar: message not tracked")
)
