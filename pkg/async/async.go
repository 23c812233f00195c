package async

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrymomot/tenantkit/pkg/impersonation"
	"github.com/dmitrymomot/tenantkit/pkg/tenant"
)

// Future represents the result of a background task.
type Future[U any] struct {
	result U
	err    error
	done   chan struct{}
}

// Await blocks until the task completes.
func (f *Future[U]) Await() (U, error) {
	<-f.done
	return f.result, f.err
}

// AwaitWithTimeout is like Await but gives up after timeout with ErrTimeout.
// The task keeps running.
func (f *Future[U]) AwaitWithTimeout(timeout time.Duration) (U, error) {
	select {
	case <-f.done:
		return f.result, f.err
	case <-time.After(timeout):
		var zero U
		return zero, ErrTimeout
	}
}

// IsComplete reports whether the task has finished.
func (f *Future[U]) IsComplete() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Detach derives the context a background task runs with. The result is
// not cancelled with ctx and carries fresh tenant and impersonation scopes
// seeded from the bindings visible in ctx. Rebinding inside the task does
// not reach the parent. Call release when the task is done.
func Detach(ctx context.Context) (context.Context, func()) {
	ctx = context.WithoutCancel(ctx)
	ctx, releaseTenant := tenant.Inherit(ctx)
	ctx, releaseTarget := impersonation.Inherit(ctx)
	return ctx, func() {
		releaseTarget()
		releaseTenant()
	}
}

// Async runs fn in its own goroutine with a detached context and returns
// a Future for its result. A panic in fn completes the Future with
// ErrTaskPanic.
func Async[U any](ctx context.Context, fn func(context.Context) (U, error)) *Future[U] {
	f := &Future[U]{done: make(chan struct{})}
	taskCtx, release := Detach(ctx)
	go func() {
		defer close(f.done)
		defer release()
		f.result, f.err = run(taskCtx, fn)
	}()
	return f
}

// Go is Async for tasks without a result.
func Go(ctx context.Context, fn func(context.Context) error) *Future[struct{}] {
	return Async(ctx, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
}

// WaitAll waits for every future and returns their results and the first error.
func WaitAll[U any](futures ...*Future[U]) ([]U, error) {
	results := make([]U, len(futures))
	var firstErr error
	for i, future := range futures {
		result, err := future.Await()
		results[i] = result
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return results, firstErr
}

func run[U any](ctx context.Context, fn func(context.Context) (U, error)) (res U, err error) {
	defer func() {
		if r := recover(); r != nil {
			var zero U
			res, err = zero, fmt.Errorf("%w: %v", ErrTaskPanic, r)
		}
	}()
	return fn(ctx)
}
