// Package exec provides the task executor that runs batch completion
// callbacks off the message delivery path.
package exec

import "sync"

// Executor runs tasks submitted by the consumer engine. Implementations must
// not run a task on the submitting goroutine while the engine holds internal
// locks, which in practice means Submit must not block and must not invoke
// the task inline before Stop. Tests may substitute a deterministic
// implementation.
type Executor interface {
	// Submit schedules task to run. It never blocks.
	Submit(task func())
}

// SerialExecutor runs submitted tasks one at a time, in submission order, on
// a single background goroutine. The task queue is unbounded so Submit never
// blocks the delivery path.
type SerialExecutor struct {
	mu      sync.Mutex
	cond    *sync.Cond
	tasks   []func()
	stopped bool
	done    chan struct{}
}

// NewSerialExecutor starts the worker goroutine and returns the executor.
func NewSerialExecutor() *SerialExecutor {
	e := &SerialExecutor{done: make(chan struct{})}
	e.cond = sync.NewCond(&e.mu)
	go e.run()
	return e
}

// Submit enqueues task for the worker. After Stop, the task runs
// synchronously on the calling goroutine so that completions issued by a
// closing consumer are never lost.
func (e *SerialExecutor) Submit(task func()) {
	e.mu.Lock()
	if e.stopped {
		e.mu.Unlock()
		task()
		return
	}
	e.tasks = append(e.tasks, task)
	e.cond.Signal()
	e.mu.Unlock()
}

// Stop drains every queued task and waits for the worker goroutine to exit.
// It is idempotent and safe to call concurrently.
func (e *SerialExecutor) Stop() {
	e.mu.Lock()
	if !e.stopped {
		e.stopped = true
		e.cond.Signal()
	}
	e.mu.Unlock()
	<-e.done
}

func (e *SerialExecutor) run() {
	defer close(e.done)
	e.mu.Lock()
	for {
		for len(e.tasks) == 0 && !e.stopped {
			e.cond.Wait()
		}
		if len(e.tasks) == 0 {
			// Stopped with nothing left to drain.
			e.mu.Unlock()
			return
		}
		task := e.tasks[0]
		e.tasks[0] = nil
		e.tasks = e.tasks[1:]
		e.mu.Unlock()

		task()

		e.mu.Lock()
	}
}
