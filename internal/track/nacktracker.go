package track

import (
	"sync"
	"time"

	"github.com/sunlight2728/pulsar/internal/domain"
	"github.com/sunlight2728/pulsar/pkg/log"
)

// nackEntry is one negatively acknowledged message waiting out its delay.
type nackEntry struct {
	msg domain.Message
	at  time.Time
}

// NegativeAcksTracker schedules redelivery for messages the application
// rejected. Unlike the ack wheel it keeps a flat map of redelivery instants
// and sweeps it periodically; nacks are rare enough that a scan per tick is
// fine.
type NegativeAcksTracker struct {
	delay     time.Duration
	redeliver Redeliverer
	logger    log.Logger

	mu      sync.Mutex
	entries map[domain.MessageID]nackEntry
	stopped bool

	ticker   *time.Ticker
	stopCh   chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// NewNegativeAcksTracker starts the sweep loop. delay must be positive.
func NewNegativeAcksTracker(delay time.Duration, redeliver Redeliverer, lg log.Logger) *NegativeAcksTracker {
	t := &NegativeAcksTracker{
		delay:     delay,
		redeliver: redeliver,
		logger:    lg,
		entries:   make(map[domain.MessageID]nackEntry),
		ticker:    time.NewTicker(tickFor(delay)),
		stopCh:    make(chan struct{}),
		done:      make(chan struct{}),
	}
	go t.run()
	return t
}

// Add schedules msg for redelivery after the configured delay. Nacking a
// message twice resets its delay. Calls after Stop are ignored.
func (t *NegativeAcksTracker) Add(msg domain.Message) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		return
	}
	t.entries[msg.ID] = nackEntry{msg: msg, at: time.Now().Add(t.delay)}
}

// Pending returns the number of messages waiting out their nack delay.
func (t *NegativeAcksTracker) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

// Stop halts the sweep loop. Entries not yet due are dropped.
func (t *NegativeAcksTracker) Stop() {
	t.stopOnce.Do(func() {
		t.mu.Lock()
		t.stopped = true
		t.mu.Unlock()
		close(t.stopCh)
		t.ticker.Stop()
	})
	<-t.done
}

func (t *NegativeAcksTracker) run() {
	defer close(t.done)
	for {
		select {
		case <-t.stopCh:
			return
		case now := <-t.ticker.C:
			t.sweep(now)
		}
	}
}

func (t *NegativeAcksTracker) sweep(now time.Time) {
	t.mu.Lock()
	var due []domain.Message
	for id, e := range t.entries {
		if !e.at.After(now) {
			due = append(due, e.msg)
			delete(t.entries, id)
		}
	}
	t.mu.Unlock()

	if len(due) == 0 {
		return
	}
	prepareRedelivery(due)
	t.logger.Debug("nack delay elapsed, redelivering", log.Int("messages", len(due)))
	t.redeliver(due)
}
