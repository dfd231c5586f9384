package track

import (
	"sync"
	"time"

	"github.com/sunlight2728/pulsar/internal/domain"
	"github.com/sunlight2728/pulsar/pkg/log"
)

// bucket holds the messages that entered tracking within one wheel tick.
type bucket map[domain.MessageID]domain.Message

// AckTimeoutTracker arms an ack deadline for every message handed to the
// application and redelivers the ones still tracked when it lapses. The
// wheel is a ring of tick-wide buckets: new messages enter the newest
// bucket, and each tick retires the oldest. A message therefore expires no
// earlier than the deadline and no later than one tick past it.
type AckTimeoutTracker struct {
	timeout   time.Duration
	redeliver Redeliverer
	logger    log.Logger

	mu      sync.Mutex
	buckets []bucket
	index   map[domain.MessageID]bucket
	stopped bool

	ticker   *time.Ticker
	stopCh   chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// NewAckTimeoutTracker starts the wheel. timeout must be positive; the
// consumer skips construction entirely when ack tracking is disabled.
func NewAckTimeoutTracker(timeout time.Duration, redeliver Redeliverer, lg log.Logger) *AckTimeoutTracker {
	tick := tickFor(timeout)
	n := int((timeout+tick-1)/tick) + 1
	buckets := make([]bucket, n)
	for i := range buckets {
		buckets[i] = make(bucket)
	}
	t := &AckTimeoutTracker{
		timeout:   timeout,
		redeliver: redeliver,
		logger:    lg,
		buckets:   buckets,
		index:     make(map[domain.MessageID]bucket),
		ticker:    time.NewTicker(tick),
		stopCh:    make(chan struct{}),
		done:      make(chan struct{}),
	}
	go t.run()
	return t
}

// Track arms the ack deadline for every message of an emitted batch. Calls
// after Stop are ignored.
func (t *AckTimeoutTracker) Track(msgs []domain.Message) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		return
	}
	newest := t.buckets[len(t.buckets)-1]
	for _, m := range msgs {
		if old, ok := t.index[m.ID]; ok {
			delete(old, m.ID)
		}
		newest[m.ID] = m
		t.index[m.ID] = newest
	}
}

// Untrack cancels the deadline for acknowledged messages. Unknown IDs are
// ignored.
func (t *AckTimeoutTracker) Untrack(ids ...domain.MessageID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, id := range ids {
		if b, ok := t.index[id]; ok {
			delete(b, id)
			delete(t.index, id)
		}
	}
}

// Take removes and returns the tracked message with the given ID. It is
// used by the negative-ack path, which needs the message body to schedule
// redelivery.
func (t *AckTimeoutTracker) Take(id domain.MessageID) (domain.Message, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	b, ok := t.index[id]
	if !ok {
		return domain.Message{}, false
	}
	m := b[id]
	delete(b, id)
	delete(t.index, id)
	return m, true
}

// Tracked returns the number of messages currently awaiting acknowledgment.
func (t *AckTimeoutTracker) Tracked() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.index)
}

// Stop halts the wheel. Messages still tracked are never redelivered.
func (t *AckTimeoutTracker) Stop() {
	t.stopOnce.Do(func() {
		t.mu.Lock()
		t.stopped = true
		t.mu.Unlock()
		close(t.stopCh)
		t.ticker.Stop()
	})
	<-t.done
}

func (t *AckTimeoutTracker) run() {
	defer close(t.done)
	for {
		select {
		case <-t.stopCh:
			return
		case <-t.ticker.C:
			t.advance()
		}
	}
}

// advance retires the oldest bucket and redelivers its remaining messages.
func (t *AckTimeoutTracker) advance() {
	t.mu.Lock()
	expired := t.buckets[0]
	t.buckets = append(t.buckets[1:], make(bucket))
	var due []domain.Message
	for id, m := range expired {
		delete(t.index, id)
		due = append(due, m)
	}
	t.mu.Unlock()

	if len(due) == 0 {
		return
	}
	prepareRedelivery(due)
	t.logger.Debug("ack deadline elapsed, redelivering",
		log.Int("messages", len(due)),
		log.Duration("ack_timeout", t.timeout),
	)
	t.redeliver(due)
}
