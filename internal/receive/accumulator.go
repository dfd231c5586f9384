// Package receive implements the batch-receive engine: a lock-guarded
// accumulator that assembles delivered messages into policy-bounded batches
// and hands them to pull requests in FIFO order.
package receive

import (
	"context"
	"sync"
	"time"

	"github.com/sunlight2728/pulsar/internal/domain"
	"github.com/sunlight2728/pulsar/internal/exec"
	"github.com/sunlight2728/pulsar/internal/metrics"
	"github.com/sunlight2728/pulsar/pkg/log"
)

// Triggers recorded when a candidate batch completes, used as the metrics
// label and in debug logs.
const (
	triggerCount   = "count"
	triggerBytes   = "bytes"
	triggerTimeout = "timeout"
	triggerRequest = "request"
)

// pullResult is what a synchronous pull waits for.
type pullResult struct {
	batch *domain.Batch
	err   error
}

// pendingRequest is one queued pull. Exactly one of ch and future is set:
// synchronous pulls wait on ch (buffered so completion never blocks the
// core), asynchronous pulls hold a future resolved on the executor.
type pendingRequest struct {
	ch     chan pullResult
	future *BatchFuture
}

// Accumulator owns the candidate batch, the ready-batch queue and the
// pending-request queue. All state is guarded by one mutex so that policy
// evaluation, batch completion and request dispatch are atomic with respect
// to each other: a message is never skipped between two pulls and never
// handed to two requests.
type Accumulator struct {
	policy domain.BatchReceivePolicy
	exec   exec.Executor
	mtx    *metrics.Metrics
	logger log.Logger

	mu             sync.Mutex
	candidate      *domain.Batch
	candidateStart time.Time
	epoch          uint64 // bumped on every candidate completion; stale timer fires are no-ops
	timer          *time.Timer
	ready          []*domain.Batch
	waiters        []*pendingRequest
	seq            uint64
	onEmit         func(*domain.Batch)
	closed         bool
}

// NewAccumulator creates an accumulator for the given policy. The executor
// runs async completions; metrics and logger must be non-nil.
func NewAccumulator(p domain.BatchReceivePolicy, ex exec.Executor, m *metrics.Metrics, lg log.Logger) *Accumulator {
	return &Accumulator{
		policy: p,
		exec:   ex,
		mtx:    m,
		logger: lg,
	}
}

// OnEmit installs a hook invoked for every batch at the moment it is handed
// to a request, before the request observes it. The consumer uses it to arm
// ack deadlines. Set once, before messages flow.
func (a *Accumulator) OnEmit(fn func(*domain.Batch)) {
	a.mu.Lock()
	a.onEmit = fn
	a.mu.Unlock()
}

// Deliver appends a message to the candidate batch, sealing and dispatching
// per policy. It is the transport's entry point and is safe for concurrent
// use with pulls and with itself.
//
// First deliveries are stamped with an arrival sequence and DeliveryCount 1;
// redelivered messages keep both and are treated like any other message.
func (a *Accumulator) Deliver(m domain.Message) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return domain.ErrConsumerClosed
	}

	if m.Arrival == 0 {
		a.seq++
		m.Arrival = a.seq
	}
	if m.DeliveryCount == 0 {
		m.DeliveryCount = 1
	}
	a.mtx.MessagesReceived.Inc()

	// Byte-bound pre-check: adding this message to a non-empty candidate
	// must not overflow the bound, so the candidate completes first. An
	// oversized message entering an empty candidate is admitted alone.
	if a.candidate != nil && a.policy.WouldExceedBytes(a.candidate.TotalBytes, m.Size()) {
		a.sealLocked(triggerBytes)
	}

	if a.candidate == nil {
		a.candidate = domain.NewBatch(min(a.policy.MaxNumMessages(), 1024))
		a.candidateStart = time.Now()
		a.armTimerLocked()
	}
	a.candidate.Add(m)

	switch {
	case a.policy.CountReached(a.candidate.Size()):
		a.sealLocked(triggerCount)
	case a.policy.BytesReached(a.candidate.TotalBytes):
		a.sealLocked(triggerBytes)
	}
	return nil
}

// Pull blocks until a batch is available, the accumulator closes, or ctx is
// done. A batch that completes while the pull is being withdrawn is still
// returned rather than dropped.
func (a *Accumulator) Pull(ctx context.Context) (*domain.Batch, error) {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil, domain.ErrConsumerClosed
	}
	if b := a.takeReadyLocked(); b != nil {
		hook := a.onEmit
		a.mu.Unlock()
		if hook != nil {
			hook(b)
		}
		return b, nil
	}
	req := &pendingRequest{ch: make(chan pullResult, 1)}
	a.waiters = append(a.waiters, req)
	a.mtx.PendingRequests.Inc()
	a.mu.Unlock()

	select {
	case r := <-req.ch:
		return r.batch, r.err
	case <-ctx.Done():
		a.mu.Lock()
		if a.removeWaiterLocked(req) {
			a.mu.Unlock()
			return nil, ctx.Err()
		}
		a.mu.Unlock()
		// A completion raced the withdrawal; the buffered channel already
		// holds the result.
		r := <-req.ch
		return r.batch, r.err
	}
}

// PullAsync registers an asynchronous pull and returns its future
// immediately. Completion is dispatched on the executor, never inline on the
// delivery or calling goroutine, and futures resolve in the order the pulls
// were issued.
func (a *Accumulator) PullAsync() *BatchFuture {
	f := newBatchFuture()
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		a.exec.Submit(func() { f.complete(nil, domain.ErrConsumerClosed) })
		return f
	}
	if b := a.takeReadyLocked(); b != nil {
		a.dispatchLocked(f, b)
		a.mu.Unlock()
		return f
	}
	a.waiters = append(a.waiters, &pendingRequest{future: f})
	a.mtx.PendingRequests.Inc()
	a.mu.Unlock()
	return f
}

// Close fails every pending request with ErrConsumerClosed, cancels the
// trigger timer and rejects all later calls. Unconsumed messages are counted
// and logged, never force-emitted. Close is idempotent.
func (a *Accumulator) Close() {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	a.closed = true
	a.stopTimerLocked()

	retained := 0
	if a.candidate != nil {
		retained += a.candidate.Size()
	}
	for _, b := range a.ready {
		retained += b.Size()
	}
	a.candidate = nil
	a.ready = nil

	waiters := a.waiters
	a.waiters = nil
	a.mtx.PendingRequests.Sub(float64(len(waiters)))
	for _, req := range waiters {
		a.completeLocked(req, nil, domain.ErrConsumerClosed)
	}
	a.mu.Unlock()

	fields := []log.Field{
		log.Int("pending_requests", len(waiters)),
		log.Int("unconsumed_messages", retained),
	}
	if retained > 0 {
		a.logger.Warn("closed with unconsumed messages", fields...)
	} else {
		a.logger.Debug("accumulator closed", fields...)
	}
}

// Closed reports whether Close has been called.
func (a *Accumulator) Closed() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.closed
}

// Pending returns the number of queued pull requests.
func (a *Accumulator) Pending() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.waiters)
}

// Ready returns the number of completed batches waiting for a pull.
func (a *Accumulator) Ready() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.ready)
}

// takeReadyLocked returns the next batch for an arriving pull: the head of
// the ready queue, or the candidate if a bound is already met (the wait
// bound may have elapsed before the timer callback ran). A due candidate is
// taken only when no older pull is queued; with waiters ahead it belongs to
// the queue's head, served when the timer fire wins the lock.
func (a *Accumulator) takeReadyLocked() *domain.Batch {
	if len(a.ready) > 0 {
		b := a.ready[0]
		a.ready[0] = nil
		a.ready = a.ready[1:]
		return b
	}
	if len(a.waiters) == 0 && a.candidate != nil &&
		a.policy.Satisfied(a.candidate.Size(), a.candidate.TotalBytes, time.Since(a.candidateStart)) {
		b := a.extractCandidateLocked()
		a.observeEmitLocked(b, triggerRequest)
		return b
	}
	return nil
}

// sealLocked completes the candidate: it is handed to the oldest pending
// request if one exists, otherwise queued ready for the next pull. The
// candidate stops extending either way; later messages start a fresh one.
func (a *Accumulator) sealLocked(trigger string) {
	if a.candidate == nil {
		return
	}
	b := a.extractCandidateLocked()
	a.observeEmitLocked(b, trigger)

	if len(a.waiters) > 0 {
		req := a.waiters[0]
		a.waiters[0] = nil
		a.waiters = a.waiters[1:]
		a.mtx.PendingRequests.Dec()
		a.completeLocked(req, b, nil)
		return
	}
	a.ready = append(a.ready, b)
}

// extractCandidateLocked detaches the candidate and invalidates its timer.
func (a *Accumulator) extractCandidateLocked() *domain.Batch {
	b := a.candidate
	a.candidate = nil
	a.epoch++
	a.stopTimerLocked()
	return b
}

// completeLocked resolves one request. Sync requests receive on their
// buffered channel; async futures resolve on the executor. Batch completions
// run the emit hook first so ack deadlines are armed before the caller can
// observe the batch.
func (a *Accumulator) completeLocked(req *pendingRequest, b *domain.Batch, err error) {
	if req.future != nil {
		if err != nil {
			f := req.future
			a.exec.Submit(func() { f.complete(nil, err) })
			return
		}
		a.dispatchLocked(req.future, b)
		return
	}
	if b != nil && a.onEmit != nil {
		a.onEmit(b)
	}
	req.ch <- pullResult{batch: b, err: err}
}

// dispatchLocked schedules a successful async completion.
func (a *Accumulator) dispatchLocked(f *BatchFuture, b *domain.Batch) {
	hook := a.onEmit
	a.exec.Submit(func() {
		if hook != nil {
			hook(b)
		}
		f.complete(b, nil)
	})
}

// removeWaiterLocked withdraws a request that gave up waiting. It reports
// false when the request was already dequeued by a completion.
func (a *Accumulator) removeWaiterLocked(req *pendingRequest) bool {
	for i, w := range a.waiters {
		if w == req {
			a.waiters = append(a.waiters[:i], a.waiters[i+1:]...)
			a.mtx.PendingRequests.Dec()
			return true
		}
	}
	return false
}

func (a *Accumulator) armTimerLocked() {
	if !a.policy.TimerEnabled() {
		return
	}
	epoch := a.epoch
	a.timer = time.AfterFunc(a.policy.Timeout(), func() { a.onTimer(epoch) })
}

func (a *Accumulator) stopTimerLocked() {
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
}

// onTimer force-completes the candidate the timer was armed for. The epoch
// check discards fires that lost the race with a count or byte trigger.
func (a *Accumulator) onTimer(epoch uint64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed || epoch != a.epoch || a.candidate == nil {
		return
	}
	a.sealLocked(triggerTimeout)
}

func (a *Accumulator) observeEmitLocked(b *domain.Batch, trigger string) {
	a.mtx.BatchesEmitted.WithLabelValues(trigger).Inc()
	a.mtx.BatchMessages.Observe(float64(b.Size()))
	a.mtx.BatchBytes.Observe(float64(b.TotalBytes))
	a.logger.Debug("batch complete",
		log.String("trigger", trigger),
		log.Int("messages", b.Size()),
		log.Int("bytes", b.TotalBytes),
	)
}
