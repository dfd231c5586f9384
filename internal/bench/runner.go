// Package bench drives a consumer under synthetic load for the pulsar-bench
// command: an in-process producer publishes payloads at a target rate while a
// receive loop pulls batches and acknowledges a configurable fraction of them.
package bench

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sunlight2728/pulsar"
	"github.com/sunlight2728/pulsar/internal/cliconfig"
	"github.com/sunlight2728/pulsar/internal/memtransport"
	"github.com/sunlight2728/pulsar/pkg/log"
)

// Stats is a point-in-time snapshot of a run.
type Stats struct {
	Published   uint64
	Consumed    uint64
	Acked       uint64
	Redelivered uint64
	Batches     uint64
	Unacked     int
}

// Runner owns one consumer, the in-process transport feeding it, and the
// producer and receive loops of a bench run.
type Runner struct {
	cfg       cliconfig.Config
	logger    log.Logger
	transport *memtransport.Transport
	consumer  *pulsar.Consumer

	rate atomic.Int64 // publishes per second; 0 means unthrottled

	published   atomic.Uint64
	consumed    atomic.Uint64
	acked       atomic.Uint64
	redelivered atomic.Uint64
	batches     atomic.Uint64

	// ackCredit carries the fractional remainder of AckRatio between
	// batches. Touched only by the receive loop.
	ackCredit float64
}

// New assembles the transport and consumer for cfg. opts are passed through
// to the consumer, so the caller controls its logger and metrics registry.
func New(cfg cliconfig.Config, lg log.Logger, opts ...pulsar.Option) (*Runner, error) {
	policy, err := pulsar.NewPolicyBuilder().
		MaxNumMessages(cfg.MaxNumMessages).
		MaxNumBytes(cfg.MaxNumBytes).
		Timeout(cfg.BatchTimeout).
		Build()
	if err != nil {
		return nil, err
	}

	transport := memtransport.New(cfg.Topic)
	consumer, err := pulsar.NewConsumer(pulsar.Config{
		Topic:        cfg.Topic,
		Subscription: cfg.Subscription,
		Policy:       policy,
		AckTimeout:   cfg.AckTimeout,
		AckSender:    transport,
	}, opts...)
	if err != nil {
		return nil, err
	}
	transport.Attach(consumer)

	r := &Runner{
		cfg:       cfg,
		logger:    lg,
		transport: transport,
		consumer:  consumer,
	}
	r.rate.Store(int64(cfg.PublishRate))
	return r, nil
}

// Close releases the consumer. Run does this itself; Close covers runners
// that were built but never run.
func (r *Runner) Close() error {
	return r.consumer.Close()
}

// SetPublishRate retargets the producer to n messages per second. Zero lifts
// the throttle. Safe to call while the run is in flight; the config watcher
// uses it for live tuning.
func (r *Runner) SetPublishRate(n int) {
	r.rate.Store(int64(n))
	r.logger.Info("publish rate updated", log.Int("rate", n))
}

// Rate returns the current publish rate target.
func (r *Runner) Rate() int {
	return int(r.rate.Load())
}

// Stats returns a snapshot of the run counters.
func (r *Runner) Stats() Stats {
	return Stats{
		Published:   r.published.Load(),
		Consumed:    r.consumed.Load(),
		Acked:       r.acked.Load(),
		Redelivered: r.redelivered.Load(),
		Batches:     r.batches.Load(),
		Unacked:     r.consumer.Unacked(),
	}
}

// Run executes the bench until the configured message count is fully
// consumed, the configured duration elapses, or ctx is cancelled. It blocks,
// closes the consumer on the way out, and returns only unexpected errors.
func (r *Runner) Run(ctx context.Context) error {
	start := time.Now()

	var (
		runCtx context.Context
		cancel context.CancelFunc
	)
	if r.cfg.Duration > 0 {
		runCtx, cancel = context.WithTimeout(ctx, r.cfg.Duration)
	} else {
		runCtx, cancel = context.WithCancel(ctx)
	}
	defer cancel()

	r.logger.Info("bench starting",
		log.String("topic", r.cfg.Topic),
		log.Int("message_count", r.cfg.MessageCount),
		log.Int("publish_rate", r.Rate()),
		log.Int("payload_bytes", r.cfg.PayloadBytes),
		log.Float64("ack_ratio", r.cfg.AckRatio),
		log.Bool("async", r.cfg.Async),
	)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		r.produce(runCtx)
	}()
	go func() {
		defer wg.Done()
		r.reportLoop(runCtx)
	}()

	err := r.consume(runCtx)
	cancel()
	wg.Wait()

	r.logStats("bench finished", time.Since(start))
	_ = r.consumer.Close()
	return err
}

// produce publishes synthetic payloads until the count is reached or the run
// context ends. The rate target is re-read every message so live tuning
// takes effect immediately.
func (r *Runner) produce(ctx context.Context) {
	payload := make([]byte, r.cfg.PayloadBytes)
	for i := range payload {
		payload[i] = byte('a' + i%26)
	}

	for n := 0; r.cfg.MessageCount == 0 || n < r.cfg.MessageCount; n++ {
		if rate := r.rate.Load(); rate > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second / time.Duration(rate)):
			}
		} else if ctx.Err() != nil {
			return
		}

		if _, err := r.transport.Publish(payload); err != nil {
			// Consumer closed underneath us; the run is over.
			return
		}
		r.published.Add(1)
	}
	r.logger.Debug("producer done", log.Uint64("published", r.published.Load()))
}

// consume pulls batches until the target count is acked or the run context
// ends. Context and close errors are the normal end of a run, not failures.
func (r *Runner) consume(ctx context.Context) error {
	var target uint64
	if r.cfg.MessageCount > 0 && r.cfg.AckRatio >= 1 {
		target = uint64(r.cfg.MessageCount)
	}

	for {
		if target > 0 && r.acked.Load() >= target {
			return nil
		}

		var (
			b   *pulsar.Batch
			err error
		)
		if r.cfg.Async {
			b, err = r.consumer.BatchReceiveAsync().Get(ctx)
		} else {
			b, err = r.consumer.BatchReceive(ctx)
		}
		if err != nil {
			if errors.Is(err, context.Canceled) ||
				errors.Is(err, context.DeadlineExceeded) ||
				errors.Is(err, pulsar.ErrConsumerClosed) {
				return nil
			}
			return err
		}

		r.batches.Add(1)
		r.consumed.Add(uint64(b.Size()))
		for _, m := range b.Messages {
			if m.DeliveryCount > 1 {
				r.redelivered.Add(1)
			}
		}
		r.ackSome(ctx, b)
	}
}

// ackSome acknowledges AckRatio of the batch. The fractional remainder rolls
// into the next batch, so the overall acked fraction converges on the ratio;
// the unacked tail is left for ack-timeout redelivery.
func (r *Runner) ackSome(ctx context.Context, b *pulsar.Batch) {
	if r.cfg.AckRatio >= 1 {
		if err := r.consumer.AckBatch(ctx, b); err != nil {
			r.logger.Warn("ack batch failed", log.Err(err))
			return
		}
		r.acked.Add(uint64(b.Size()))
		return
	}

	r.ackCredit += r.cfg.AckRatio * float64(b.Size())
	n := int(r.ackCredit)
	r.ackCredit -= float64(n)

	for _, m := range b.Messages[:min(n, b.Size())] {
		if err := r.consumer.Ack(ctx, m); err != nil {
			r.logger.Warn("ack failed", log.String("id", string(m.ID)), log.Err(err))
			return
		}
		r.acked.Add(1)
	}
}

func (r *Runner) reportLoop(ctx context.Context) {
	ticker := time.NewTicker(r.cfg.ReportInterval)
	defer ticker.Stop()
	started := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.logStats("progress", time.Since(started))
		}
	}
}

func (r *Runner) logStats(msg string, elapsed time.Duration) {
	s := r.Stats()
	rate := 0.0
	if elapsed > 0 {
		rate = float64(s.Consumed) / elapsed.Seconds()
	}
	r.logger.Info(msg,
		log.Uint64("published", s.Published),
		log.Uint64("consumed", s.Consumed),
		log.Uint64("acked", s.Acked),
		log.Uint64("redelivered", s.Redelivered),
		log.Uint64("batches", s.Batches),
		log.Int("unacked", s.Unacked),
		log.Float64("consumed_per_sec", rate),
		log.Duration("elapsed", elapsed),
	)
}
