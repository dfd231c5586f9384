// Package track implements the redelivery side of the consumer: an
// ack-deadline tracker that re-enqueues messages left unacknowledged past
// their deadline, and a negative-ack tracker that re-enqueues messages the
// application rejected explicitly.
package track

import (
	"sort"
	"time"

	"github.com/sunlight2728/pulsar/internal/domain"
)

// Redeliverer re-enqueues expired messages into the accumulator. Both
// trackers call it with messages sorted by original arrival order and with
// DeliveryCount already incremented. It runs on the tracker's own goroutine,
// never under a tracker lock.
type Redeliverer func(msgs []domain.Message)

// tickFor partitions a deadline into sweep ticks. Expiry then lands within
// one tick past the deadline, never before it.
func tickFor(deadline time.Duration) time.Duration {
	tick := deadline / 4
	if tick < time.Millisecond {
		tick = time.Millisecond
	}
	if tick > time.Second {
		tick = time.Second
	}
	return tick
}

// prepareRedelivery orders due messages by original arrival and bumps their
// delivery counts.
func prepareRedelivery(due []domain.Message) {
	sort.Slice(due, func(i, j int) bool { return due[i].Arrival < due[j].Arrival })
	for i := range due {
		due[i].DeliveryCount++
	}
}
