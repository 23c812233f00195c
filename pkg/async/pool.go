package async

import (
	"context"
	"log/slog"
	"sync/atomic"

	"golang.org/x/sync/semaphore"

	"github.com/dmitrymomot/tenantkit/pkg/logger"
)

// Pool runs background tasks with bounded concurrency.
type Pool struct {
	sem    *semaphore.Weighted
	size   int64
	logger *slog.Logger
	closed atomic.Bool
}

// PoolOption configures a Pool.
type PoolOption func(*Pool)

// WithLogger logs failed tasks.
func WithLogger(l *slog.Logger) PoolOption {
	return func(p *Pool) {
		if l != nil {
			p.logger = l
		}
	}
}

// NewPool creates a pool running at most size tasks at once.
func NewPool(size int64, opts ...PoolOption) *Pool {
	if size < 1 {
		size = 1
	}
	p := &Pool{
		sem:    semaphore.NewWeighted(size),
		size:   size,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Submit waits for a free slot, then runs fn like Go. Waiting honours ctx;
// the task itself runs detached from it.
func (p *Pool) Submit(ctx context.Context, name string, fn func(context.Context) error) (*Future[struct{}], error) {
	if p.closed.Load() {
		return nil, ErrPoolClosed
	}
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	// Close may have drained while this call waited for a slot.
	if p.closed.Load() {
		p.sem.Release(1)
		return nil, ErrPoolClosed
	}

	taskCtx, release := Detach(ctx)
	f := &Future[struct{}]{done: make(chan struct{})}
	go func() {
		defer p.sem.Release(1)
		defer close(f.done)
		defer release()

		f.result, f.err = run(taskCtx, func(ctx context.Context) (struct{}, error) {
			return struct{}{}, fn(ctx)
		})
		if f.err != nil {
			p.logger.ErrorContext(taskCtx, "background task failed",
				slog.String("task", name), logger.Error(f.err))
		}
	}()
	return f, nil
}

// Close stops accepting tasks and waits for running ones until ctx is done.
func (p *Pool) Close(ctx context.Context) error {
	p.closed.Store(true)
	if err := p.sem.Acquire(ctx, p.size); err != nil {
		return err
	}
	p.sem.Release(p.size)
	return nil
}
