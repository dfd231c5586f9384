// Package memtransport is an in-process stand-in for a broker connection:
// published messages are delivered straight into an attached consumer, and
// acknowledgments are recorded for inspection. It backs the test suites and
// the bench tool; it is not a broker client.
package memtransport

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sunlight2728/pulsar/internal/domain"
)

// Receiver is the delivery side of a consumer. *pulsar.Consumer satisfies
// it.
type Receiver interface {
	Deliver(msg domain.Message) error
}

// Transport wires a producer directly to one consumer.
type Transport struct {
	topic string

	mu       sync.Mutex
	receiver Receiver
	acked    []domain.MessageID
	ackErr   error
}

// New creates a transport publishing to the given topic. Attach a consumer
// before publishing.
func New(topic string) *Transport {
	return &Transport{topic: topic}
}

// Attach binds the consumer that receives published messages.
func (t *Transport) Attach(r Receiver) {
	t.mu.Lock()
	t.receiver = r
	t.mu.Unlock()
}

// Publish delivers payload to the attached consumer as a new message with a
// generated ID.
func (t *Transport) Publish(payload []byte) (domain.MessageID, error) {
	return t.publish(domain.Message{Payload: payload})
}

// PublishString is Publish for string payloads.
func (t *Transport) PublishString(payload string) (domain.MessageID, error) {
	return t.publish(domain.Message{Payload: []byte(payload)})
}

// PublishMessage delivers a caller-built message, filling in ID, topic and
// publish time when unset.
func (t *Transport) PublishMessage(msg domain.Message) (domain.MessageID, error) {
	return t.publish(msg)
}

func (t *Transport) publish(msg domain.Message) (domain.MessageID, error) {
	if msg.ID == "" {
		msg.ID = domain.MessageID(uuid.NewString())
	}
	if msg.Topic == "" {
		msg.Topic = t.topic
	}
	if msg.PublishTime.IsZero() {
		msg.PublishTime = time.Now()
	}

	t.mu.Lock()
	r := t.receiver
	t.mu.Unlock()
	if r == nil {
		return msg.ID, domain.ErrConsumerClosed
	}
	return msg.ID, r.Deliver(msg)
}

// SendAck implements domain.AckSender, recording the acked IDs. When an ack
// error is injected via FailAcksWith, the call fails and records nothing.
func (t *Transport) SendAck(ctx context.Context, ids []domain.MessageID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.ackErr != nil {
		return t.ackErr
	}
	t.acked = append(t.acked, ids...)
	return nil
}

// FailAcksWith makes subsequent SendAck calls fail with err. Pass nil to
// restore normal behavior.
func (t *Transport) FailAcksWith(err error) {
	t.mu.Lock()
	t.ackErr = err
	t.mu.Unlock()
}

// Acked returns a copy of every acknowledged ID, in ack order.
func (t *Transport) Acked() []domain.MessageID {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]domain.MessageID, len(t.acked))
	copy(out, t.acked)
	return out
}

// AckedCount returns how many IDs have been acknowledged.
func (t *Transport) AckedCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.acked)
}
