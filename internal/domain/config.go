package domain

import (
	"fmt"
	"time"
)

// DefaultNackRedeliveryDelay is how long a negatively acknowledged message
// waits before it is re-enqueued, unless configured otherwise.
const DefaultNackRedeliveryDelay = time.Minute

// ConsumerConfig holds the configuration for a batch-receive consumer.
// Topic, Subscription and AckSender are required; everything else has a
// default applied by SetDefaults.
type ConsumerConfig struct {
	// Topic the consumer reads from. Used for log context only; routing is
	// the transport's concern.
	Topic string

	// Subscription names the consumer's subscription on the topic.
	Subscription string

	// Policy bounds batch assembly. The zero value is replaced with
	// DefaultBatchReceivePolicy by SetDefaults.
	Policy BatchReceivePolicy

	// AckTimeout is how long an emitted message may stay unacknowledged
	// before it is re-enqueued for redelivery. Zero disables ack-timeout
	// tracking.
	AckTimeout time.Duration

	// NackRedeliveryDelay is how long a negatively acknowledged message
	// waits before redelivery. Zero selects DefaultNackRedeliveryDelay.
	NackRedeliveryDelay time.Duration

	// AckSender forwards acknowledgments to the broker.
	AckSender AckSender
}

// SetDefaults fills unset optional fields with their default values.
func (c *ConsumerConfig) SetDefaults() {
	if c.Policy.IsZero() {
		c.Policy = DefaultBatchReceivePolicy()
	}
	if c.NackRedeliveryDelay == 0 {
		c.NackRedeliveryDelay = DefaultNackRedeliveryDelay
	}
}

// Validate checks the configuration for errors.
func (c *ConsumerConfig) Validate() error {
	if c.Topic == "" {
		return fmt.Errorf("%w: topic is required", ErrInvalidConfig)
	}
	if c.Subscription == "" {
		return fmt.Errorf("%w: subscription is required", ErrInvalidConfig)
	}
	if c.AckSender == nil {
		return fmt.Errorf("%w: ack sender is required", ErrInvalidConfig)
	}
	if c.AckTimeout < 0 {
		return fmt.Errorf("%w: ack timeout must not be negative", ErrInvalidConfig)
	}
	if c.NackRedeliveryDelay < 0 {
		return fmt.Errorf("%w: nack redelivery delay must not be negative", ErrInvalidConfig)
	}
	return c.Policy.Validate()
}
