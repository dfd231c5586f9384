// Package pulsar implements the batch-receive engine of a message-queue
// consumer. Messages delivered one at a time by a transport are accumulated
// into batches bounded by a policy (message count, cumulative payload bytes,
// wait time) and handed to the application through blocking or future-style
// pulls. Emitted messages carry an acknowledgment deadline; messages not
// acknowledged in time, and messages negatively acknowledged, are re-enqueued
// for redelivery with their delivery count incremented.
//
// Example usage:
//
//	policy, err := pulsar.NewPolicyBuilder().
//	    MaxNumMessages(100).
//	    MaxNumBytes(1 << 20).
//	    Timeout(100 * time.Millisecond).
//	    Build()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	consumer, err := pulsar.NewConsumer(pulsar.Config{
//	    Topic:        "orders",
//	    Subscription: "billing",
//	    Policy:       policy,
//	    AckTimeout:   30 * time.Second,
//	    AckSender:    sender,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer consumer.Close()
//
//	batch, err := consumer.BatchReceive(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	process(batch)
//	if err := consumer.AckBatch(ctx, batch); err != nil {
//	    log.Fatal(err)
//	}
package pulsar

import (
	"github.com/sunlight2728/pulsar/internal/domain"
)

// Config holds the configuration for a Consumer.
// Topic, Subscription and AckSender are required; NewConsumer fills the rest
// with defaults.
type Config = domain.ConsumerConfig

// DefaultNackRedeliveryDelay is applied when Config.NackRedeliveryDelay is
// left zero.
const DefaultNackRedeliveryDelay = domain.DefaultNackRedeliveryDelay
