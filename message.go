package pulsar

import (
	"github.com/sunlight2728/pulsar/internal/domain"
	"github.com/sunlight2728/pulsar/internal/receive"
)

// MessageID identifies a message on its topic. Acknowledgment and redelivery
// are keyed by it, so the transport must keep it unique per message.
type MessageID = domain.MessageID

// Message is a single delivered message.
type Message = domain.Message

// Batch is an immutable group of messages emitted by a batch receive.
// Messages are ordered by arrival.
type Batch = domain.Batch

// AckSender forwards acknowledgments to the broker. The transport supplies
// an implementation through Config.
type AckSender = domain.AckSender

// BatchFuture is the pending result of a BatchReceiveAsync call. It resolves
// exactly once, with a batch or an error.
type BatchFuture = receive.BatchFuture
