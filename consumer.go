package pulsar

import (
	"context"
	"fmt"
	"sync"

	"github.com/sunlight2728/pulsar/internal/domain"
	"github.com/sunlight2728/pulsar/internal/exec"
	"github.com/sunlight2728/pulsar/internal/metrics"
	"github.com/sunlight2728/pulsar/internal/receive"
	"github.com/sunlight2728/pulsar/internal/track"
	"github.com/sunlight2728/pulsar/pkg/log"
)

// Consumer assembles delivered messages into policy-bounded batches and
// tracks acknowledgment deadlines for everything it hands out. Create one
// with NewConsumer, attach it to a transport via Deliver, and release its
// resources with Close.
//
// All methods are safe for concurrent use.
type Consumer struct {
	cfg     Config
	logger  log.Logger
	metrics *metrics.Metrics

	acc   *receive.Accumulator
	acks  *track.AckTimeoutTracker // nil when ack-timeout tracking is disabled
	nacks *track.NegativeAcksTracker

	exec    exec.Executor
	ownExec *exec.SerialExecutor // stopped on Close; nil when the executor was supplied

	closeOnce sync.Once
}

// NewConsumer validates cfg, fills defaults and assembles the engine. The
// returned consumer is idle until a transport starts calling Deliver.
func NewConsumer(cfg Config, opts ...Option) (*Consumer, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	m, err := metrics.New(o.registerer)
	if err != nil {
		return nil, fmt.Errorf("register metrics: %w", err)
	}

	c := &Consumer{
		cfg:     cfg,
		logger:  o.logger,
		metrics: m,
		exec:    o.executor,
	}
	if c.exec == nil {
		c.ownExec = exec.NewSerialExecutor()
		c.exec = c.ownExec
	}

	c.acc = receive.NewAccumulator(cfg.Policy, c.exec, m, c.logger)
	c.acc.OnEmit(c.trackEmitted)

	if cfg.AckTimeout > 0 {
		c.acks = track.NewAckTimeoutTracker(cfg.AckTimeout, c.redeliver, c.logger)
	}
	c.nacks = track.NewNegativeAcksTracker(cfg.NackRedeliveryDelay, c.redeliver, c.logger)

	c.logger.Info("consumer created",
		log.String("topic", cfg.Topic),
		log.String("subscription", cfg.Subscription),
		log.String("policy", cfg.Policy.String()),
		log.Duration("ack_timeout", cfg.AckTimeout),
		log.Duration("nack_redelivery_delay", cfg.NackRedeliveryDelay),
	)
	return c, nil
}

// Deliver enqueues one message for batching. It is the transport-facing
// callback: the transport calls it once per received message, in order.
// Returns ErrConsumerClosed after Close.
func (c *Consumer) Deliver(msg Message) error {
	return c.acc.Deliver(msg)
}

// BatchReceive blocks until a batch is ready, the consumer is closed, or ctx
// is done. Requests are served strictly in arrival order, interleaved with
// asynchronous ones.
func (c *Consumer) BatchReceive(ctx context.Context) (*Batch, error) {
	return c.acc.Pull(ctx)
}

// BatchReceiveAsync registers a pull and returns its future immediately.
// Futures resolve in request order on the completion executor, never on the
// caller's goroutine. After Close the future resolves with ErrConsumerClosed.
func (c *Consumer) BatchReceiveAsync() *BatchFuture {
	return c.acc.PullAsync()
}

// Ack acknowledges a single message.
func (c *Consumer) Ack(ctx context.Context, msg Message) error {
	return c.ackIDs(ctx, []MessageID{msg.ID})
}

// AckID acknowledges a single message by ID.
func (c *Consumer) AckID(ctx context.Context, id MessageID) error {
	return c.ackIDs(ctx, []MessageID{id})
}

// AckBatch acknowledges every message of a batch in one call to the ack
// sender. Acknowledging an empty batch is a no-op.
func (c *Consumer) AckBatch(ctx context.Context, b *Batch) error {
	if b == nil || b.Empty() {
		return nil
	}
	return c.ackIDs(ctx, b.IDs())
}

// ackIDs forwards ids to the ack sender and cancels their deadlines only on
// success. On failure the messages stay tracked, so the ordinary ack-timeout
// redelivery applies.
func (c *Consumer) ackIDs(ctx context.Context, ids []MessageID) error {
	if c.acc.Closed() {
		return domain.ErrConsumerClosed
	}
	if err := c.cfg.AckSender.SendAck(ctx, ids); err != nil {
		c.metrics.AckFailures.Add(float64(len(ids)))
		c.logger.Warn("ack failed",
			log.Int("messages", len(ids)),
			log.Err(err),
		)
		return fmt.Errorf("send ack: %w", err)
	}
	if c.acks != nil {
		c.acks.Untrack(ids...)
	}
	c.metrics.Acks.Add(float64(len(ids)))
	return nil
}

// Nack requests redelivery of msg after the configured nack delay, without
// waiting for its ack deadline. With ack-timeout tracking enabled the nack
// must claim the tracked entry first: a message already acknowledged, or
// already collected by an elapsed deadline, returns ErrNotTracked instead
// of being scheduled a second time. With tracking disabled the caller's
// copy is scheduled as given.
func (c *Consumer) Nack(msg Message) error {
	if c.acc.Closed() {
		return domain.ErrConsumerClosed
	}
	if c.acks == nil {
		c.nacks.Add(msg)
		return nil
	}
	tracked, ok := c.acks.Take(msg.ID)
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrNotTracked, msg.ID)
	}
	c.nacks.Add(tracked)
	return nil
}

// NackID is Nack for callers that kept only the message ID. It needs the
// ack-timeout tracker to still hold the message body, so it returns
// ErrNotTracked when the message is unknown or tracking is disabled; use
// Nack with the full message in that case.
func (c *Consumer) NackID(id MessageID) error {
	if c.acc.Closed() {
		return domain.ErrConsumerClosed
	}
	if c.acks == nil {
		return fmt.Errorf("%w: ack-timeout tracking disabled", domain.ErrNotTracked)
	}
	msg, ok := c.acks.Take(id)
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrNotTracked, id)
	}
	c.nacks.Add(msg)
	return nil
}

// Unacked returns the number of messages handed out and not yet acknowledged.
// It is always zero when ack-timeout tracking is disabled.
func (c *Consumer) Unacked() int {
	if c.acks == nil {
		return 0
	}
	return c.acks.Tracked()
}

// Close shuts the consumer down: pending pulls resolve with
// ErrConsumerClosed, deadline tracking stops, and every later call fails.
// Unconsumed batches are dropped, not force-emitted. Close is idempotent and
// returns once the engine goroutines have drained.
func (c *Consumer) Close() error {
	c.closeOnce.Do(func() {
		c.acc.Close()
		if c.acks != nil {
			c.acks.Stop()
		}
		c.nacks.Stop()
		if c.ownExec != nil {
			c.ownExec.Stop()
		}
		c.logger.Info("consumer closed",
			log.String("topic", c.cfg.Topic),
			log.String("subscription", c.cfg.Subscription),
		)
	})
	return nil
}

// trackEmitted arms ack deadlines for a batch at the moment it is handed to
// a pull request, before the caller can observe it.
func (c *Consumer) trackEmitted(b *domain.Batch) {
	if c.acks != nil {
		c.acks.Track(b.Messages)
	}
}

// redeliver re-enqueues expired or nacked messages through the ordinary
// delivery path, where they compete with fresh arrivals. Messages that miss
// the window because the consumer closed are dropped.
func (c *Consumer) redeliver(msgs []domain.Message) {
	for i, m := range msgs {
		if err := c.acc.Deliver(m); err != nil {
			c.logger.Debug("dropping redeliveries, consumer closed",
				log.Int("dropped", len(msgs)-i),
			)
			return
		}
		c.metrics.MessagesRedelivered.Inc()
	}
}
