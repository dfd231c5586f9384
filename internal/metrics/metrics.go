// Package metrics holds the prometheus collectors for the consumer engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// TriggerLabel is the label distinguishing what caused a batch to complete.
const TriggerLabel = "trigger"

// Metrics bundles the consumer collectors. Collectors work whether or not
// they are registered, so a nil registerer yields a functional no-op set.
type Metrics struct {
	MessagesReceived    prometheus.Counter
	MessagesRedelivered prometheus.Counter
	Acks                prometheus.Counter
	AckFailures         prometheus.Counter
	BatchesEmitted      *prometheus.CounterVec
	PendingRequests     prometheus.Gauge
	BatchMessages       prometheus.Histogram
	BatchBytes          prometheus.Histogram
}

// New builds the collector set and registers it with reg. A nil reg skips
// registration.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		MessagesReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pulsar_consumer_messages_received_total",
			Help: "Messages delivered into the consumer, including redeliveries.",
		}),
		MessagesRedelivered: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pulsar_consumer_messages_redelivered_total",
			Help: "Messages re-enqueued after an ack timeout or negative ack.",
		}),
		Acks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pulsar_consumer_acks_total",
			Help: "Messages acknowledged successfully.",
		}),
		AckFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pulsar_consumer_ack_failures_total",
			Help: "Acknowledgment attempts rejected by the ack sender.",
		}),
		BatchesEmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pulsar_consumer_batches_emitted_total",
			Help: "Batches completed, by the bound that triggered completion.",
		}, []string{TriggerLabel}),
		PendingRequests: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pulsar_consumer_pending_requests",
			Help: "Pull requests waiting for a batch.",
		}),
		BatchMessages: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "pulsar_consumer_batch_messages",
			Help:    "Messages per emitted batch.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		}),
		BatchBytes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "pulsar_consumer_batch_bytes",
			Help:    "Payload bytes per emitted batch.",
			Buckets: prometheus.ExponentialBuckets(64, 4, 12),
		}),
	}

	if reg == nil {
		return m, nil
	}
	for _, c := range []prometheus.Collector{
		m.MessagesReceived,
		m.MessagesRedelivered,
		m.Acks,
		m.AckFailures,
		m.BatchesEmitted,
		m.PendingRequests,
		m.BatchMessages,
		m.BatchBytes,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}
