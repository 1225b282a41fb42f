package tnscore

import (
	"sync"

	"github.com/google/uuid"
)

// Promise is a single-fulfillment one-shot result channel, the shape the
// design notes call for: owned by the core until surfaced as an action,
// then surrendered to the caller. Succeed/Fail may each be called at most
// once in total across the pair; later calls are no-ops, matching "a
// task's promise is completed at most once".
type Promise[T any] struct {
	once sync.Once
	done chan struct{}
	val  T
	err  error
}

// NewPromise creates an unfulfilled promise.
func NewPromise[T any]() *Promise[T] {
	return &Promise[T]{done: make(chan struct{})}
}

// Succeed fulfills the promise with a value. A no-op if already fulfilled.
func (p *Promise[T]) Succeed(v T) {
	p.once.Do(func() {
		p.val = v
		close(p.done)
	})
}

// Fail fulfills the promise with an error. A no-op if already fulfilled.
func (p *Promise[T]) Fail(err error) {
	p.once.Do(func() {
		p.err = err
		close(p.done)
	})
}

// Done returns a channel that is closed once the promise has been fulfilled.
func (p *Promise[T]) Done() <-chan struct{} {
	return p.done
}

// Result blocks until fulfillment and returns the value or error. Intended
// for the I/O layer, never for the core itself (the core never blocks).
func (p *Promise[T]) Result() (T, error) {
	<-p.done
	return p.val, p.err
}

// TaskID is a correlation identifier attached to an enqueued Task purely
// for log correlation; the core never branches on it.
type TaskID string

// NewTaskID mints a fresh correlation id.
func NewTaskID() TaskID {
	return TaskID(uuid.NewString())
}
