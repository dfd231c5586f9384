package domain

import (
	"context"
	"time"
)

// MessageID uniquely identifies a message within a topic.
// IDs are assigned by the transport that delivers the message.
type MessageID string

// Message is a single message delivered into the consumer.
// The engine owns a message from Deliver until it is emitted in a Batch;
// the application owns it from then until it is acknowledged or its ack
// deadline lapses back into the engine.
type Message struct {
	// ID identifies the message for acknowledgment and redelivery tracking.
	ID MessageID

	// Topic is the topic the message was published to.
	Topic string

	// Key is the optional partitioning/ordering key set by the producer.
	Key string

	// Payload is the message body. Its length is the message's size for
	// byte-bound accounting.
	Payload []byte

	// Properties carries application-defined metadata.
	Properties map[string]string

	// PublishTime is when the producer published the message.
	PublishTime time.Time

	// DeliveryCount is 1 on the first delivery into the engine and is
	// incremented each time the message is redelivered after an ack
	// timeout or negative acknowledgment.
	DeliveryCount int

	// Arrival is a monotonic sequence number assigned when the message
	// enters the engine. Redelivered messages are re-enqueued in Arrival
	// order so their original relative order is preserved.
	Arrival uint64
}

// Size returns the number of payload bytes counted against the byte bound.
func (m Message) Size() int {
	return len(m.Payload)
}

// AckSender forwards acknowledgments to the broker (or an in-process
// stand-in). A non-nil error means the acknowledgment did not take effect
// and the messages remain subject to redelivery.
type AckSender interface {
	SendAck(ctx context.Context, ids []MessageID) error
}
