package domain

import (
	"fmt"
	"time"
)

// Default batch receive bounds, applied when a consumer is configured with a
// zero policy.
const (
	DefaultMaxNumMessages = 100
	DefaultMaxNumBytes    = 10 << 20 // 10MB
	DefaultTimeout        = 100 * time.Millisecond
)

// BatchReceivePolicy bounds the batches assembled by the consumer.
// A batch is complete as soon as any enabled bound is reached: the message
// count, the cumulative payload bytes, or the wait time since the first
// message entered the batch. Values of zero or below disable the
// corresponding bound.
//
// Policies are built with [PolicyBuilder] and are immutable afterwards.
type BatchReceivePolicy struct {
	maxNumMessages int
	maxNumBytes    int
	timeout        time.Duration
}

// DefaultBatchReceivePolicy returns the policy used when none is configured:
// 100 messages, 10MB, 100ms, whichever is reached first.
func DefaultBatchReceivePolicy() BatchReceivePolicy {
	return BatchReceivePolicy{
		maxNumMessages: DefaultMaxNumMessages,
		maxNumBytes:    DefaultMaxNumBytes,
		timeout:        DefaultTimeout,
	}
}

// MaxNumMessages returns the message count bound, or 0 if unbounded.
func (p BatchReceivePolicy) MaxNumMessages() int { return p.maxNumMessages }

// MaxNumBytes returns the cumulative payload byte bound, or 0 if unbounded.
func (p BatchReceivePolicy) MaxNumBytes() int { return p.maxNumBytes }

// Timeout returns the wait bound, or 0 if the trigger timer is disabled.
func (p BatchReceivePolicy) Timeout() time.Duration { return p.timeout }

// IsZero reports whether the policy has no bound set at all, i.e. it is the
// zero value and should be replaced with the default policy.
func (p BatchReceivePolicy) IsZero() bool {
	return p.maxNumMessages <= 0 && p.maxNumBytes <= 0 && p.timeout <= 0
}

// Validate returns ErrInvalidPolicy unless at least one bound is positive.
func (p BatchReceivePolicy) Validate() error {
	if p.IsZero() {
		return fmt.Errorf("%w: at least one of maxNumMessages, maxNumBytes or timeout must be positive", ErrInvalidPolicy)
	}
	return nil
}

// CountReached reports whether count satisfies the message count bound.
func (p BatchReceivePolicy) CountReached(count int) bool {
	return p.maxNumMessages > 0 && count >= p.maxNumMessages
}

// BytesReached reports whether bytes satisfies the byte bound.
func (p BatchReceivePolicy) BytesReached(bytes int) bool {
	return p.maxNumBytes > 0 && bytes >= p.maxNumBytes
}

// WouldExceedBytes reports whether adding add bytes to current would push a
// non-empty batch past the byte bound. The current batch must be sealed
// before the addition when this is true.
func (p BatchReceivePolicy) WouldExceedBytes(current, add int) bool {
	return p.maxNumBytes > 0 && current+add > p.maxNumBytes
}

// TimerEnabled reports whether the wait bound is active.
func (p BatchReceivePolicy) TimerEnabled() bool {
	return p.timeout > 0
}

// Satisfied reports whether a batch with the given count, bytes and age meets
// any enabled bound. It is a pure function of its inputs.
func (p BatchReceivePolicy) Satisfied(count, bytes int, elapsed time.Duration) bool {
	if p.CountReached(count) || p.BytesReached(bytes) {
		return true
	}
	return p.TimerEnabled() && elapsed >= p.timeout
}

// String renders the policy for logs.
func (p BatchReceivePolicy) String() string {
	return fmt.Sprintf("BatchReceivePolicy{maxNumMessages:%d maxNumBytes:%d timeout:%s}",
		p.maxNumMessages, p.maxNumBytes, p.timeout)
}

// PolicyBuilder assembles a BatchReceivePolicy. The zero builder starts with
// every bound disabled; Build validates that at least one was enabled.
type PolicyBuilder struct {
	policy BatchReceivePolicy
}

// NewPolicyBuilder returns a builder with all bounds disabled.
func NewPolicyBuilder() *PolicyBuilder {
	return &PolicyBuilder{}
}

// MaxNumMessages sets the message count bound. Values of zero or below
// disable it.
func (b *PolicyBuilder) MaxNumMessages(n int) *PolicyBuilder {
	b.policy.maxNumMessages = n
	return b
}

// MaxNumBytes sets the cumulative payload byte bound. Values of zero or
// below disable it.
func (b *PolicyBuilder) MaxNumBytes(n int) *PolicyBuilder {
	b.policy.maxNumBytes = n
	return b
}

// Timeout sets the wait bound counted from the first message of a batch.
// Values of zero or below disable the trigger timer.
func (b *PolicyBuilder) Timeout(d time.Duration) *PolicyBuilder {
	b.policy.timeout = d
	return b
}

// Build validates and returns the policy.
func (b *PolicyBuilder) Build() (BatchReceivePolicy, error) {
	if err := b.policy.Validate(); err != nil {
		return BatchReceivePolicy{}, err
	}
	return b.policy, nil
}
