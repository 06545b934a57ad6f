package login

import (
	"context"

	"github.com/oracle/nosql-kvauth/session"
)

// Future is the async flavor of an authenticated call's outcome.
type Future[T any] struct {
	done   chan struct{}
	result T
	err    error
}

// Done is closed when the result is available.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the call completes or the context is canceled.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.result, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// InvokeAsync runs Invoke in its own goroutine and returns a future for
// the outcome. The renew-and-retry policy is identical to the synchronous
// flavor; only the sequencing mechanism differs.
func InvokeAsync[T any](ctx context.Context, b *Binding, call func(ctx context.Context, auth *session.AuthContext) (T, error)) *Future[T] {
	f := &Future[T]{done: make(chan struct{})}
	go func() {
		defer close(f.done)
		f.result, f.err = Invoke(ctx, b, call)
	}()
	return f
}
