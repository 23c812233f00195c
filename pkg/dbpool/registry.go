package dbpool

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/tenantkit/pkg/directory"
	"github.com/dmitrymomot/tenantkit/pkg/logger"
	"github.com/dmitrymomot/tenantkit/pkg/pg"
)

// DirectoryPoolName keys the directory pool in Stats. It can never collide
// with a tenant id because tenant ids start with a letter or digit.
const DirectoryPoolName = "_directory"

// TenantSource lists the datasource rows pools are built from.
type TenantSource interface {
	ActiveTenants(ctx context.Context) ([]directory.TenantConfig, error)
}

// Observer receives build outcomes, typically a metrics recorder.
type Observer interface {
	PoolBuildFailed(tenantID string)
	PoolsLoaded(count int)
}

// Report summarizes one build or reload.
type Report struct {
	Opened   []string
	Reused   []string
	Retained []string
	Failed   map[string]error
	Closed   []string
	// Duplicates lists tenants whose datasource appeared more than once.
	// Only the first row is used.
	Duplicates []string
}

// Registry owns every tenant pool. Readers see an immutable Snapshot loaded
// from an atomic pointer; Reload builds a new snapshot and swaps it in.
type Registry struct {
	directory *sql.DB
	source    TenantSource
	opener    Opener
	cfg       Config
	logger    *slog.Logger
	observer  Observer

	current  atomic.Pointer[Snapshot]
	reloadMu sync.Mutex
	closed   bool
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger for build warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithObserver reports build outcomes to o.
func WithObserver(o Observer) Option {
	return func(r *Registry) {
		r.observer = o
	}
}

// WithConfig overrides the default registry configuration.
func WithConfig(cfg Config) Option {
	return func(r *Registry) {
		r.cfg = cfg
	}
}

// New creates an empty registry. Call Reload to populate it.
func New(directoryDB *sql.DB, source TenantSource, opener Opener, opts ...Option) *Registry {
	r := &Registry{
		directory: directoryDB,
		source:    source,
		opener:    opener,
		cfg:       DefaultConfig(),
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.cfg.BuildConcurrency <= 0 {
		r.cfg.BuildConcurrency = 1
	}
	r.current.Store(newSnapshot(map[string]*pool{}))
	return r
}

// Build creates a registry and performs the initial load.
// Under PolicySkip it only fails when the datasource rows cannot be read.
func Build(ctx context.Context, directoryDB *sql.DB, source TenantSource, opener Opener, opts ...Option) (*Registry, Report, error) {
	r := New(directoryDB, source, opener, opts...)
	report, err := r.Reload(ctx)
	if err != nil {
		return nil, report, err
	}
	return r, report, nil
}

// Lookup returns the pool of tenantID from the current snapshot.
func (r *Registry) Lookup(tenantID string) (*sql.DB, bool) {
	return r.current.Load().Lookup(tenantID)
}

// Driver returns the driver of tenantID's pool in the current snapshot.
func (r *Registry) Driver(tenantID string) (string, bool) {
	return r.current.Load().Driver(tenantID)
}

// Default returns the directory pool.
func (r *Registry) Default() *sql.DB {
	return r.directory
}

// Snapshot returns the current snapshot.
func (r *Registry) Snapshot() *Snapshot {
	return r.current.Load()
}

// Stats returns pool statistics keyed by tenant id, plus DirectoryPoolName.
func (r *Registry) Stats() map[string]sql.DBStats {
	snap := r.current.Load()
	out := make(map[string]sql.DBStats, snap.Len()+1)
	if r.directory != nil {
		out[DirectoryPoolName] = r.directory.Stats()
	}
	for id, p := range snap.pools {
		out[id] = p.db.Stats()
	}
	return out
}

type buildResult struct {
	row    directory.TenantConfig
	pool   *pool
	reused bool
	err    error
}

// Reload re-reads the datasource rows and swaps in a new snapshot.
//
// Pools whose row is unchanged are reused. Under PolicySkip a failing tenant
// keeps its previous pool if it had one, otherwise it is left out. Under
// PolicyFailFast any failure leaves the current snapshot untouched. Pools of
// the previous snapshot that are not carried over are closed after the swap.
func (r *Registry) Reload(ctx context.Context) (Report, error) {
	r.reloadMu.Lock()
	defer r.reloadMu.Unlock()

	start := time.Now()
	report := Report{Failed: map[string]error{}}
	if r.closed {
		return report, ErrRegistryClosed
	}

	rows, err := r.source.ActiveTenants(ctx)
	if err != nil {
		return report, errors.Join(ErrPoolBuild, err)
	}

	old := r.current.Load()
	results := make([]buildResult, len(rows))
	seen := make(map[string]struct{}, len(rows))

	for i, row := range rows {
		results[i].row = r.cfg.withDefaults(row)
		if _, dup := seen[row.TenantID]; dup {
			results[i].err = fmt.Errorf("%w: %q", ErrDuplicateTenant, row.TenantID)
			if r.cfg.FailurePolicy == PolicyFailFast {
				r.failed(ctx, results[i].row, results[i].err)
				report.Failed[row.TenantID] = results[i].err
				return report, errors.Join(ErrPoolBuild, results[i].err)
			}
		}
		seen[row.TenantID] = struct{}{}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.BuildConcurrency)
	for i := range results {
		row := results[i].row
		if results[i].err != nil {
			continue
		}

		if p, ok := old.get(row.TenantID); ok && p.row == row {
			results[i].pool = p
			results[i].reused = true
			continue
		}

		g.Go(func() error {
			db, err := r.open(gctx, row)
			if err != nil {
				results[i].err = err
				if r.cfg.FailurePolicy == PolicyFailFast {
					return fmt.Errorf("tenant %q: %w", row.TenantID, err)
				}
				return nil
			}
			results[i].pool = &pool{row: row, db: db}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		r.closeOpened(results)
		for _, res := range results {
			if res.err != nil {
				r.failed(ctx, res.row, res.err)
				report.Failed[res.row.TenantID] = res.err
			}
		}
		return report, errors.Join(ErrPoolBuild, err)
	}

	next := make(map[string]*pool, len(results))
	for _, res := range results {
		id := res.row.TenantID
		switch {
		case errors.Is(res.err, ErrDuplicateTenant):
			r.failed(ctx, res.row, res.err)
			report.Duplicates = append(report.Duplicates, id)
		case res.err != nil:
			r.failed(ctx, res.row, res.err)
			report.Failed[id] = res.err
			if prev, ok := old.get(id); ok {
				next[id] = prev
				report.Retained = append(report.Retained, id)
			}
		case res.reused:
			next[id] = res.pool
			report.Reused = append(report.Reused, id)
		default:
			next[id] = res.pool
			report.Opened = append(report.Opened, id)
		}
	}

	snap := newSnapshot(next)
	r.current.Store(snap)

	for _, id := range old.Tenants() {
		p, _ := old.get(id)
		if snap.has(p) {
			continue
		}
		r.closePool(ctx, p)
		report.Closed = append(report.Closed, id)
	}

	if r.observer != nil {
		r.observer.PoolsLoaded(snap.Len())
	}
	r.logger.InfoContext(ctx, "tenant pools loaded",
		slog.Int("tenants", snap.Len()),
		slog.Int("opened", len(report.Opened)),
		slog.Int("reused", len(report.Reused)),
		slog.Int("failed", len(report.Failed)),
		slog.Int("closed", len(report.Closed)),
		logger.Duration(time.Since(start)),
	)
	return report, nil
}

// Run reloads every interval until ctx is done. It returns immediately when
// interval is not positive.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := r.Reload(ctx); err != nil {
				r.logger.ErrorContext(ctx, "periodic pool reload failed", logger.Error(err))
			}
		}
	}
}

// Close closes every tenant pool. The directory pool belongs to the caller.
func (r *Registry) Close() error {
	r.reloadMu.Lock()
	defer r.reloadMu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true

	old := r.current.Swap(newSnapshot(map[string]*pool{}))
	var errs []error
	for _, p := range old.pools {
		if err := p.db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %q: %w", p.row.TenantID, err))
		}
	}
	return errors.Join(errs...)
}

func (r *Registry) open(ctx context.Context, row directory.TenantConfig) (*sql.DB, error) {
	if err := row.Validate(); err != nil {
		return nil, err
	}

	db, err := r.opener.Open(ctx, row)
	if err != nil {
		return nil, err
	}

	vctx := ctx
	if row.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		vctx, cancel = context.WithTimeout(ctx, row.ConnectTimeout)
		defer cancel()
	}
	if err := validate(vctx, db, row.ValidationQuery); err != nil {
		_ = db.Close()
		return nil, errors.Join(ErrValidationFailed, err)
	}
	return db, nil
}

func validate(ctx context.Context, db *sql.DB, query string) error {
	if query == "" {
		return db.PingContext(ctx)
	}
	_, err := db.ExecContext(ctx, query)
	return err
}

// closeOpened closes pools opened during an aborted build.
func (r *Registry) closeOpened(results []buildResult) {
	for _, res := range results {
		if res.pool != nil && !res.reused {
			_ = res.pool.db.Close()
		}
	}
}

func (r *Registry) closePool(ctx context.Context, p *pool) {
	if err := p.db.Close(); err != nil {
		r.logger.WarnContext(ctx, "failed to close tenant pool",
			logger.TenantID(p.row.TenantID), logger.Driver(p.row.Driver), logger.Error(err))
	}
}

func (r *Registry) failed(ctx context.Context, row directory.TenantConfig, err error) {
	if r.observer != nil {
		r.observer.PoolBuildFailed(row.TenantID)
	}
	r.logger.WarnContext(ctx, "tenant pool unavailable",
		slog.Any("datasource", row),
		slog.String("policy", string(r.cfg.FailurePolicy)),
		logger.Reason(failureReason(err)),
		logger.Error(err),
	)
}

// failureReason names the kind of build failure for logs.
func failureReason(err error) string {
	switch {
	case errors.Is(err, ErrDuplicateTenant):
		return "duplicate"
	case errors.Is(err, ErrUnsupportedDriver):
		return "unsupported_driver"
	case pg.IsConnectionError(err):
		return "unreachable"
	case errors.Is(err, ErrValidationFailed):
		return "validation"
	default:
		return "open"
	}
}
