package bench

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sunlight2728/pulsar/internal/cliconfig"
	"github.com/sunlight2728/pulsar/pkg/log"
)

func newTestRunner(t *testing.T, mut func(*cliconfig.Config)) *Runner {
	t.Helper()
	cfg := cliconfig.DefaultConfig()
	cfg.ReportInterval = time.Hour // keep test output quiet
	if mut != nil {
		mut(&cfg)
	}
	require.NoError(t, cfg.Validate())

	r, err := New(cfg, log.NewNoopLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func TestRunner_RunToCompletion(t *testing.T) {
	r := newTestRunner(t, func(cfg *cliconfig.Config) {
		cfg.MessageCount = 200
		cfg.PayloadBytes = 16
		cfg.MaxNumMessages = 20
		cfg.BatchTimeout = 50 * time.Millisecond
		cfg.AckTimeout = 5 * time.Second
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, r.Run(ctx))

	s := r.Stats()
	assert.Equal(t, uint64(200), s.Published)
	assert.Equal(t, uint64(200), s.Consumed)
	assert.Equal(t, uint64(200), s.Acked)
	assert.Equal(t, uint64(0), s.Redelivered)
	assert.GreaterOrEqual(t, s.Batches, uint64(10), "200 messages cannot fit in fewer than 10 batches of 20")
}

func TestRunner_AsyncMode(t *testing.T) {
	r := newTestRunner(t, func(cfg *cliconfig.Config) {
		cfg.MessageCount = 100
		cfg.PayloadBytes = 16
		cfg.MaxNumMessages = 10
		cfg.BatchTimeout = 50 * time.Millisecond
		cfg.Async = true
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, r.Run(ctx))

	s := r.Stats()
	assert.Equal(t, uint64(100), s.Consumed)
	assert.Equal(t, uint64(100), s.Acked)
}

func TestRunner_PartialAckRatio(t *testing.T) {
	r := newTestRunner(t, func(cfg *cliconfig.Config) {
		cfg.MessageCount = 0
		cfg.Duration = 300 * time.Millisecond
		cfg.PublishRate = 2000
		cfg.PayloadBytes = 16
		cfg.MaxNumMessages = 50
		cfg.BatchTimeout = 20 * time.Millisecond
		cfg.AckRatio = 0.5
		cfg.AckTimeout = 10 * time.Second // no redelivery inside the window
	})

	require.NoError(t, r.Run(context.Background()))

	s := r.Stats()
	require.Greater(t, s.Consumed, uint64(1))
	assert.Less(t, s.Acked, s.Consumed, "half the messages must be left unacked")
	assert.InDelta(t, 0.5, float64(s.Acked)/float64(s.Consumed), 0.15)
	assert.Equal(t, uint64(0), s.Redelivered)
}

func TestRunner_ContextCancelEndsRun(t *testing.T) {
	r := newTestRunner(t, func(cfg *cliconfig.Config) {
		cfg.MessageCount = 1_000_000
		cfg.PublishRate = 500
		cfg.PayloadBytes = 16
		cfg.MaxNumMessages = 100
		cfg.BatchTimeout = 20 * time.Millisecond
	})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(150 * time.Millisecond)
		cancel()
	}()

	require.NoError(t, r.Run(ctx))
	assert.Less(t, r.Stats().Published, uint64(1000), "cancel must stop the producer long before the count")
}

func TestRunner_LiveRateRetarget(t *testing.T) {
	r := newTestRunner(t, nil)
	assert.Equal(t, 0, r.Rate())

	r.SetPublishRate(123)
	assert.Equal(t, 123, r.Rate())
}

func TestNew_InvalidPolicy(t *testing.T) {
	cfg := cliconfig.DefaultConfig()
	cfg.MaxNumMessages = 0
	cfg.MaxNumBytes = 0
	cfg.BatchTimeout = 0

	_, err := New(cfg, log.NewNoopLogger())
	assert.Error(t, err)
}
