package receive

import (
	"context"

	"github.com/sunlight2728/pulsar/internal/domain"
)

// BatchFuture is the completion handle returned by an asynchronous pull. It
// resolves exactly once, with either a batch or an error, on the
// accumulator's completion executor.
type BatchFuture struct {
	done  chan struct{}
	batch *domain.Batch
	err   error
}

func newBatchFuture() *BatchFuture {
	return &BatchFuture{done: make(chan struct{})}
}

// Done returns a channel closed when the future has resolved.
func (f *BatchFuture) Done() <-chan struct{} {
	return f.done
}

// Get blocks until the future resolves or ctx is done. Resolution wins over
// a simultaneously expired context, so a delivered batch is never dropped.
func (f *BatchFuture) Get(ctx context.Context) (*domain.Batch, error) {
	select {
	case <-f.done:
		return f.batch, f.err
	default:
	}
	select {
	case <-f.done:
		return f.batch, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// complete resolves the future. The accumulator dequeues each pending
// request exactly once, so complete is never called twice.
func (f *BatchFuture) complete(b *domain.Batch, err error) {
	f.batch = b
	f.err = err
	close(f.done)
}
