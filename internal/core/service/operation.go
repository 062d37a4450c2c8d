package service

import (
	"context"
	"sync"
)

// Operation is a cancellable unit of work started with Start.
type Operation[T any] struct {
	cancel context.CancelFunc
	done   chan struct{}

	mu        sync.Mutex
	cancelled bool
	value     T
	err       error
}

// Start runs fn in its own goroutine with a child of ctx.
func Start[T any](ctx context.Context, fn func(context.Context) (T, error)) *Operation[T] {
	ctx, cancel := context.WithCancel(ctx)
	op := &Operation[T]{cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(op.done)
		defer cancel()
		v, err := fn(ctx)

		op.mu.Lock()
		defer op.mu.Unlock()
		if op.cancelled {
			return
		}
		if err == nil && ctx.Err() != nil {
			var zero T
			v, err = zero, ctx.Err()
		}
		op.value, op.err = v, err
	}()
	return op
}

// Cancel stops the operation. Its result, if any arrives, is discarded.
func (o *Operation[T]) Cancel() {
	o.mu.Lock()
	o.cancelled = true
	o.mu.Unlock()
	o.cancel()
}

// Done is closed once the operation has finished.
func (o *Operation[T]) Done() <-chan struct{} {
	return o.done
}

// Wait blocks until the operation finishes. A cancelled operation returns the
// zero value and context.Canceled.
func (o *Operation[T]) Wait() (T, error) {
	<-o.done
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.cancelled {
		var zero T
		return zero, context.Canceled
	}
	return o.value, o.err
}
