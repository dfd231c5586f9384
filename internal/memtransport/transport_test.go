package memtransport

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sunlight2728/pulsar/internal/domain"
)

type captureReceiver struct {
	mu   sync.Mutex
	msgs []domain.Message
}

func (r *captureReceiver) Deliver(m domain.Message) error {
	r.mu.Lock()
	r.msgs = append(r.msgs, m)
	r.mu.Unlock()
	return nil
}

func (r *captureReceiver) all() []domain.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Message(nil), r.msgs...)
}

func TestPublish_DeliversToAttachedConsumer(t *testing.T) {
	tr := New("orders")
	rcv := &captureReceiver{}
	tr.Attach(rcv)

	id1, err := tr.PublishString("hello")
	require.NoError(t, err)
	id2, err := tr.Publish([]byte{1, 2, 3})
	require.NoError(t, err)
	assert.NotEqual(t, id1, id2)

	msgs := rcv.all()
	require.Len(t, msgs, 2)
	assert.Equal(t, id1, msgs[0].ID)
	assert.Equal(t, "orders", msgs[0].Topic)
	assert.Equal(t, []byte("hello"), msgs[0].Payload)
	assert.False(t, msgs[0].PublishTime.IsZero())
	assert.Equal(t, 3, msgs[1].Size())
}

func TestPublishMessage_KeepsCallerFields(t *testing.T) {
	tr := New("orders")
	rcv := &captureReceiver{}
	tr.Attach(rcv)

	id, err := tr.PublishMessage(domain.Message{
		ID:      "custom",
		Topic:   "other",
		Key:     "k",
		Payload: []byte("x"),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.MessageID("custom"), id)

	msgs := rcv.all()
	require.Len(t, msgs, 1)
	assert.Equal(t, "other", msgs[0].Topic)
	assert.Equal(t, "k", msgs[0].Key)
}

func TestPublish_WithoutConsumerFails(t *testing.T) {
	tr := New("orders")
	_, err := tr.PublishString("nobody home")
	assert.ErrorIs(t, err, domain.ErrConsumerClosed)
}

func TestSendAck_RecordsAndFailsOnDemand(t *testing.T) {
	tr := New("orders")
	ctx := context.Background()

	require.NoError(t, tr.SendAck(ctx, []domain.MessageID{"a", "b"}))
	assert.Equal(t, []domain.MessageID{"a", "b"}, tr.Acked())
	assert.Equal(t, 2, tr.AckedCount())

	boom := errors.New("broker unavailable")
	tr.FailAcksWith(boom)
	err := tr.SendAck(ctx, []domain.MessageID{"c"})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 2, tr.AckedCount(), "failed acks record nothing")

	tr.FailAcksWith(nil)
	require.NoError(t, tr.SendAck(ctx, []domain.MessageID{"c"}))
	assert.Equal(t, 3, tr.AckedCount())
}

func TestSendAck_HonorsContext(t *testing.T) {
	tr := New("orders")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := tr.SendAck(ctx, []domain.MessageID{"a"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, tr.AckedCount())
}
