package pulsar

import (
	"time"

	"github.com/sunlight2728/pulsar/internal/domain"
)

// Default batch receive bounds, applied when a consumer is configured with a
// zero policy.
const (
	DefaultMaxNumMessages               = domain.DefaultMaxNumMessages
	DefaultMaxNumBytes                  = domain.DefaultMaxNumBytes
	DefaultTimeout        time.Duration = domain.DefaultTimeout
)

// BatchReceivePolicy bounds the batches assembled by a Consumer. A batch is
// complete as soon as any enabled bound is reached; values of zero or below
// disable the corresponding bound. Build one with NewPolicyBuilder.
type BatchReceivePolicy = domain.BatchReceivePolicy

// PolicyBuilder assembles a BatchReceivePolicy.
type PolicyBuilder = domain.PolicyBuilder

// NewPolicyBuilder returns a builder with all bounds disabled. At least one
// bound must be enabled before Build.
func NewPolicyBuilder() *PolicyBuilder {
	return domain.NewPolicyBuilder()
}

// DefaultBatchReceivePolicy returns the policy used when none is configured:
// 100 messages, 10MB, 100ms, whichever is reached first.
func DefaultBatchReceivePolicy() BatchReceivePolicy {
	return domain.DefaultBatchReceivePolicy()
}
