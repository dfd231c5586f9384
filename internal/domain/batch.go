package domain

// Batch is an ordered group of messages emitted to the application as one
// unit. A batch is assembled once and never reopened: the engine appends
// messages until a policy bound is reached, then ownership passes to the
// application.
type Batch struct {
	// Messages in arrival order.
	Messages []Message

	// TotalBytes is the sum of payload sizes, maintained on Add.
	TotalBytes int
}

// NewBatch creates an empty batch. capacity hints the expected message
// count; zero is fine.
func NewBatch(capacity int) *Batch {
	if capacity < 0 {
		capacity = 0
	}
	return &Batch{Messages: make([]Message, 0, capacity)}
}

// Add appends a message and accounts its size.
func (b *Batch) Add(m Message) {
	b.Messages = append(b.Messages, m)
	b.TotalBytes += m.Size()
}

// Size returns the number of messages in the batch.
func (b *Batch) Size() int {
	return len(b.Messages)
}

// Empty reports whether the batch has no messages.
func (b *Batch) Empty() bool {
	return len(b.Messages) == 0
}

// IDs returns the message IDs in batch order, for acknowledgment.
func (b *Batch) IDs() []MessageID {
	ids := make([]MessageID, len(b.Messages))
	for i, m := range b.Messages {
		ids[i] = m.ID
	}
	return ids
}
