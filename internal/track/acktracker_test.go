package track

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sunlight2728/pulsar/internal/domain"
	"github.com/sunlight2728/pulsar/pkg/log"
)

func trackedMsg(id string, arrival uint64) domain.Message {
	return domain.Message{
		ID:            domain.MessageID(id),
		Payload:       []byte(id),
		Arrival:       arrival,
		DeliveryCount: 1,
	}
}

func TestAckTimeoutTracker_RedeliversUnackedOnce(t *testing.T) {
	const timeout = 100 * time.Millisecond
	redelivered := make(chan []domain.Message, 4)
	tr := NewAckTimeoutTracker(timeout, func(ms []domain.Message) { redelivered <- ms }, log.NewNoopLogger())
	defer tr.Stop()

	start := time.Now()
	tr.Track([]domain.Message{
		trackedMsg("c", 3),
		trackedMsg("a", 1),
		trackedMsg("b", 2),
	})
	require.Equal(t, 3, tr.Tracked())

	select {
	case ms := <-redelivered:
		elapsed := time.Since(start)
		assert.GreaterOrEqual(t, elapsed, timeout-5*time.Millisecond,
			"redelivered before the ack deadline")

		// Original arrival order restored, delivery counts bumped.
		require.Len(t, ms, 3)
		assert.Equal(t, domain.MessageID("a"), ms[0].ID)
		assert.Equal(t, domain.MessageID("b"), ms[1].ID)
		assert.Equal(t, domain.MessageID("c"), ms[2].ID)
		for _, m := range ms {
			assert.Equal(t, 2, m.DeliveryCount)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("ack deadline never fired")
	}

	assert.Equal(t, 0, tr.Tracked())

	// Exactly once: nothing further comes out of the wheel.
	select {
	case ms := <-redelivered:
		t.Fatalf("unexpected second redelivery of %d messages", len(ms))
	case <-time.After(3 * timeout):
	}
}

func TestAckTimeoutTracker_UntrackCancelsDeadline(t *testing.T) {
	redelivered := make(chan []domain.Message, 4)
	tr := NewAckTimeoutTracker(80*time.Millisecond, func(ms []domain.Message) { redelivered <- ms }, log.NewNoopLogger())
	defer tr.Stop()

	tr.Track([]domain.Message{trackedMsg("keep", 1), trackedMsg("acked", 2)})
	tr.Untrack("acked")
	require.Equal(t, 1, tr.Tracked())

	select {
	case ms := <-redelivered:
		require.Len(t, ms, 1)
		assert.Equal(t, domain.MessageID("keep"), ms[0].ID)
	case <-time.After(5 * time.Second):
		t.Fatal("remaining message was not redelivered")
	}
}

func TestAckTimeoutTracker_TakeRemovesMessage(t *testing.T) {
	redelivered := make(chan []domain.Message, 4)
	tr := NewAckTimeoutTracker(60*time.Millisecond, func(ms []domain.Message) { redelivered <- ms }, log.NewNoopLogger())
	defer tr.Stop()

	tr.Track([]domain.Message{trackedMsg("x", 7)})

	m, ok := tr.Take("x")
	require.True(t, ok)
	assert.Equal(t, domain.MessageID("x"), m.ID)
	assert.Equal(t, uint64(7), m.Arrival)

	_, ok = tr.Take("x")
	assert.False(t, ok)

	select {
	case <-redelivered:
		t.Fatal("taken message must not be redelivered by the wheel")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestAckTimeoutTracker_ReTrackResetsDeadline(t *testing.T) {
	const timeout = 200 * time.Millisecond
	redelivered := make(chan []domain.Message, 4)
	tr := NewAckTimeoutTracker(timeout, func(ms []domain.Message) { redelivered <- ms }, log.NewNoopLogger())
	defer tr.Stop()

	start := time.Now()
	tr.Track([]domain.Message{trackedMsg("m", 1)})

	time.Sleep(100 * time.Millisecond)
	tr.Track([]domain.Message{trackedMsg("m", 1)})
	require.Equal(t, 1, tr.Tracked())

	select {
	case <-redelivered:
		elapsed := time.Since(start)
		assert.GreaterOrEqual(t, elapsed, 100*time.Millisecond+timeout-10*time.Millisecond,
			"re-tracking must restart the deadline")
	case <-time.After(5 * time.Second):
		t.Fatal("deadline never fired")
	}
}

func TestAckTimeoutTracker_StopIsIdempotentAndFinal(t *testing.T) {
	redelivered := make(chan []domain.Message, 4)
	tr := NewAckTimeoutTracker(50*time.Millisecond, func(ms []domain.Message) { redelivered <- ms }, log.NewNoopLogger())

	tr.Track([]domain.Message{trackedMsg("m", 1)})
	tr.Stop()
	tr.Stop()

	tr.Track([]domain.Message{trackedMsg("late", 2)})
	assert.Equal(t, 1, tr.Tracked(), "Track after Stop is ignored")

	select {
	case <-redelivered:
		t.Fatal("stopped tracker must not redeliver")
	case <-time.After(150 * time.Millisecond):
	}
}
