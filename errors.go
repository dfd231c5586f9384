package pulsar

import (
	"github.com/sunlight2728/pulsar/internal/domain"
)

// Sentinel errors returned by the consumer. Match them with errors.Is; the
// consumer wraps them with call-site context.
var (
	// ErrConsumerClosed is returned by every operation issued after Close,
	// and resolves pulls that were pending when Close was called.
	ErrConsumerClosed = domain.ErrConsumerClosed

	// ErrInvalidPolicy is returned when a batch receive policy has no
	// positive bound.
	ErrInvalidPolicy = domain.ErrInvalidPolicy

	// ErrInvalidConfig is returned by NewConsumer when the configuration is
	// incomplete or inconsistent.
	ErrInvalidConfig = domain.ErrInvalidConfig

	// ErrNotTracked is returned by Nack and NackID when the message is not
	// awaiting acknowledgment.
	ErrNotTracked = domain.ErrNotTracked
)
