// Package async runs delayed work as tasks that callers can wait on or
// cancel before the work begins.
package async

import (
	"context"
	"errors"
	"sync"
	"time"
)

var ErrCancelled = errors.New("task cancelled")

// Task is the pending result of a delayed function call.
type Task[T any] struct {
	done   chan struct{}
	cancel context.CancelFunc

	mu      sync.Mutex
	started bool

	result T
	err    error
}

// After schedules fn to run once delay has elapsed. The task ends with
// ErrCancelled if Cancel is called or ctx is done before fn starts. Once fn
// has started it always runs to completion, even if ctx is cancelled.
func After[T any](ctx context.Context, delay time.Duration, fn func(context.Context) (T, error)) *Task[T] {
	ctx, cancel := context.WithCancel(ctx)
	t := &Task[T]{
		done:   make(chan struct{}),
		cancel: cancel,
	}
	go t.run(ctx, delay, fn)
	return t
}

func (t *Task[T]) run(ctx context.Context, delay time.Duration, fn func(context.Context) (T, error)) {
	defer close(t.done)
	defer t.cancel()

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		t.err = ErrCancelled
		return
	case <-timer.C:
	}

	t.mu.Lock()
	if ctx.Err() != nil {
		t.mu.Unlock()
		t.err = ErrCancelled
		return
	}
	t.started = true
	t.mu.Unlock()

	t.result, t.err = fn(context.WithoutCancel(ctx))
}

// Cancel stops the task if its work has not started yet and reports whether
// it did.
func (t *Task[T]) Cancel() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.started {
		return false
	}
	t.cancel()
	return true
}

// Done is closed when the task has finished, successfully or not.
func (t *Task[T]) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the task finishes or ctx is done. Giving up on the wait
// does not cancel the task.
func (t *Task[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-t.done:
		return t.result, t.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
