package async_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tenantkit/pkg/async"
	"github.com/dmitrymomot/tenantkit/pkg/impersonation"
	"github.com/dmitrymomot/tenantkit/pkg/tenant"
)

// requestContext mimics what the middleware chain hands to a handler.
func requestContext(t *testing.T, tenantID string, target int64) (context.Context, context.CancelFunc, func()) {
	t.Helper()
	ts := tenant.NewScope()
	is := impersonation.NewScope()
	ctx := impersonation.WithScope(tenant.WithScope(context.Background(), ts), is)
	require.NoError(t, tenant.Bind(ctx, tenantID))
	if target > 0 {
		require.NoError(t, impersonation.Bind(ctx, target))
	}
	ctx, cancel := context.WithCancel(ctx)
	return ctx, cancel, func() {
		is.Release()
		ts.Release()
	}
}

func TestGo(t *testing.T) {
	t.Parallel()

	t.Run("task inherits bindings and outlives the request", func(t *testing.T) {
		t.Parallel()
		ctx, cancel, release := requestContext(t, "acme", 7)

		proceed := make(chan struct{})
		f := async.Go(ctx, func(ctx context.Context) error {
			<-proceed
			id, ok := tenant.IDFromContext(ctx)
			if !ok || id != "acme" {
				return errors.New("tenant not inherited")
			}
			target, ok := impersonation.TargetFromContext(ctx)
			if !ok || target != 7 {
				return errors.New("impersonation not inherited")
			}
			return ctx.Err()
		})

		// Request finishes first.
		cancel()
		release()
		_, ok := tenant.IDFromContext(ctx)
		require.False(t, ok)

		close(proceed)
		_, err := f.Await()
		require.NoError(t, err)
	})

	t.Run("rebinding in the task leaves the parent alone", func(t *testing.T) {
		t.Parallel()
		ctx, cancel, release := requestContext(t, "acme", 0)
		defer release()
		defer cancel()

		_, err := async.Go(ctx, func(ctx context.Context) error {
			return tenant.Bind(ctx, "beta")
		}).Await()
		require.NoError(t, err)

		id, ok := tenant.IDFromContext(ctx)
		require.True(t, ok)
		assert.Equal(t, "acme", id)
	})

	t.Run("task binding is released when it ends", func(t *testing.T) {
		t.Parallel()
		ctx, cancel, release := requestContext(t, "acme", 0)
		defer release()
		defer cancel()

		var captured context.Context
		_, err := async.Go(ctx, func(ctx context.Context) error {
			captured = ctx
			return nil
		}).Await()
		require.NoError(t, err)

		_, ok := tenant.IDFromContext(captured)
		assert.False(t, ok)
	})

	t.Run("unbound parent gives unbound task", func(t *testing.T) {
		t.Parallel()
		_, err := async.Go(context.Background(), func(ctx context.Context) error {
			if _, ok := tenant.IDFromContext(ctx); ok {
				return errors.New("unexpected tenant")
			}
			return tenant.Bind(ctx, "gamma")
		}).Await()
		require.NoError(t, err)
	})

	t.Run("panic becomes an error", func(t *testing.T) {
		t.Parallel()
		_, err := async.Go(context.Background(), func(context.Context) error {
			panic("boom")
		}).Await()
		require.ErrorIs(t, err, async.ErrTaskPanic)
	})
}

func TestAsync(t *testing.T) {
	t.Parallel()

	ctx, cancel, release := requestContext(t, "beta", 0)
	defer release()
	defer cancel()

	futures := make([]*async.Future[string], 0, 3)
	for range 3 {
		futures = append(futures, async.Async(ctx, func(ctx context.Context) (string, error) {
			return tenant.MustIDFromContext(ctx), nil
		}))
	}
	results, err := async.WaitAll(futures...)
	require.NoError(t, err)
	assert.Equal(t, []string{"beta", "beta", "beta"}, results)
}

func TestWaitAllReturnsFirstError(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	ok := async.Async(context.Background(), func(context.Context) (int, error) { return 1, nil })
	bad := async.Async(context.Background(), func(context.Context) (int, error) { return 0, boom })

	results, err := async.WaitAll(ok, bad)
	require.ErrorIs(t, err, boom)
	assert.Equal(t, []int{1, 0}, results)
}

func TestFuture(t *testing.T) {
	t.Parallel()

	proceed := make(chan struct{})
	f := async.Go(context.Background(), func(context.Context) error {
		<-proceed
		return nil
	})
	assert.False(t, f.IsComplete())
	_, err := f.AwaitWithTimeout(10 * time.Millisecond)
	require.ErrorIs(t, err, async.ErrTimeout)

	close(proceed)
	_, err = f.Await()
	require.NoError(t, err)
	assert.True(t, f.IsComplete())
}

func TestPool(t *testing.T) {
	t.Parallel()

	t.Run("bounds concurrency", func(t *testing.T) {
		t.Parallel()
		pool := async.NewPool(2)

		var running, peak atomic.Int32
		futures := make([]*async.Future[struct{}], 0, 6)
		for range 6 {
			f, err := pool.Submit(context.Background(), "work", func(context.Context) error {
				n := running.Add(1)
				for {
					p := peak.Load()
					if n <= p || peak.CompareAndSwap(p, n) {
						break
					}
				}
				time.Sleep(10 * time.Millisecond)
				running.Add(-1)
				return nil
			})
			require.NoError(t, err)
			futures = append(futures, f)
		}
		_, err := async.WaitAll(futures...)
		require.NoError(t, err)
		assert.LessOrEqual(t, peak.Load(), int32(2))
	})

	t.Run("submit honours context while waiting", func(t *testing.T) {
		t.Parallel()
		pool := async.NewPool(1)
		proceed := make(chan struct{})
		f, err := pool.Submit(context.Background(), "blocker", func(context.Context) error {
			<-proceed
			return nil
		})
		require.NoError(t, err)

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()
		_, err = pool.Submit(ctx, "late", func(context.Context) error { return nil })
		require.ErrorIs(t, err, context.DeadlineExceeded)

		close(proceed)
		_, err = f.Await()
		require.NoError(t, err)
	})

	t.Run("tasks inherit bindings", func(t *testing.T) {
		t.Parallel()
		pool := async.NewPool(4)
		ctx, cancel, release := requestContext(t, "gamma", 0)
		f, err := pool.Submit(ctx, "export", func(ctx context.Context) error {
			if id, _ := tenant.IDFromContext(ctx); id != "gamma" {
				return errors.New("wrong tenant")
			}
			return nil
		})
		cancel()
		release()
		require.NoError(t, err)
		_, err = f.Await()
		require.NoError(t, err)
	})

	t.Run("close waits and rejects new work", func(t *testing.T) {
		t.Parallel()
		pool := async.NewPool(2)
		var done atomic.Bool
		_, err := pool.Submit(context.Background(), "slow", func(context.Context) error {
			time.Sleep(20 * time.Millisecond)
			done.Store(true)
			return nil
		})
		require.NoError(t, err)

		require.NoError(t, pool.Close(context.Background()))
		assert.True(t, done.Load())

		_, err = pool.Submit(context.Background(), "after", func(context.Context) error { return nil })
		require.ErrorIs(t, err, async.ErrPoolClosed)
	})

	t.Run("submit waiting for a slot is rejected once close starts", func(t *testing.T) {
		t.Parallel()
		pool := async.NewPool(1)
		proceed := make(chan struct{})
		_, err := pool.Submit(context.Background(), "blocker", func(context.Context) error {
			<-proceed
			return nil
		})
		require.NoError(t, err)

		var ran atomic.Bool
		waiting := make(chan error, 1)
		go func() {
			_, err := pool.Submit(context.Background(), "queued", func(context.Context) error {
				ran.Store(true)
				return nil
			})
			waiting <- err
		}()
		time.Sleep(20 * time.Millisecond)

		closed := make(chan error, 1)
		go func() { closed <- pool.Close(context.Background()) }()
		time.Sleep(20 * time.Millisecond)
		close(proceed)

		require.NoError(t, <-closed)
		require.ErrorIs(t, <-waiting, async.ErrPoolClosed)
		assert.False(t, ran.Load())
	})
}
