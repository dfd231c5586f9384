package pulsar

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/sunlight2728/pulsar/internal/exec"
	"github.com/sunlight2728/pulsar/pkg/log"
)

// Executor runs asynchronous batch completions. The default is a single
// background goroutine owned by the consumer; supply your own to control
// where BatchReceiveAsync callbacks run. Implementations must not block in
// Submit.
type Executor = exec.Executor

// Option configures optional behavior of a Consumer.
type Option func(*options)

// options holds the optional configuration for a Consumer instance.
type options struct {
	logger     log.Logger
	executor   exec.Executor
	registerer prometheus.Registerer
}

// defaultOptions returns options with sensible defaults.
func defaultOptions() options {
	return options{
		logger: log.NewNoopLogger(),
	}
}

// WithLogger sets a custom logger for structured logging.
// If not provided, a no-op logger is used (no output).
func WithLogger(logger log.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithExecutor sets the executor for asynchronous completions. The consumer
// does not stop a supplied executor on Close; its lifecycle stays with the
// caller.
func WithExecutor(executor Executor) Option {
	return func(o *options) {
		o.executor = executor
	}
}

// WithMetricsRegisterer registers the consumer collectors with reg.
// If not provided, collectors are created but not exported.
func WithMetricsRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) {
		o.registerer = reg
	}
}
