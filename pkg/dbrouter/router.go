package dbrouter

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrymomot/tenantkit/pkg/tenant"
)

// Fallback reasons reported to observers.
const (
	ReasonUnbound       = "unbound"
	ReasonUnknownTenant = "unknown_tenant"
)

// Pools is the read side of the pool registry.
type Pools interface {
	Lookup(tenantID string) (*sql.DB, bool)
	Default() *sql.DB
}

// DriverLookup is optionally implemented by Pools to report a tenant pool's driver.
type DriverLookup interface {
	Driver(tenantID string) (string, bool)
}

// Observer is told every time a call falls back to the directory pool.
type Observer interface {
	RouterFallback(reason string)
}

// Target describes the pool a call made with a given context would use.
type Target struct {
	// TenantID is the bound tenant, empty when unbound.
	TenantID string
	// Fallback is true when the directory pool is used.
	Fallback bool
	// Reason explains a fallback.
	Reason string
	// Driver is the SQL driver of the selected pool when known.
	Driver string
}

// Router sends every data-access call to the pool of the tenant bound in the
// call's context, or to the directory pool when there is none.
// The binding is read on each call, never cached.
type Router struct {
	pools           Pools
	observer        Observer
	directoryDriver string
}

// Option configures a Router.
type Option func(*Router)

// WithObserver reports fallbacks to o.
func WithObserver(o Observer) Option {
	return func(r *Router) {
		r.observer = o
	}
}

// WithDirectoryDriver names the driver of the directory pool (default "pgx").
func WithDirectoryDriver(name string) Option {
	return func(r *Router) {
		r.directoryDriver = name
	}
}

// New creates a router over pools. pools.Default must not be nil.
func New(pools Pools, opts ...Option) *Router {
	r := &Router{pools: pools, directoryDriver: "pgx"}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Tenant reports which pool a call with ctx would use, without counting it.
func (r *Router) Tenant(ctx context.Context) Target {
	_, target := r.pick(ctx)
	return target
}

// DB returns the pool for the tenant bound in ctx.
func (r *Router) DB(ctx context.Context) *sql.DB {
	db, target := r.pick(ctx)
	if target.Fallback && r.observer != nil {
		r.observer.RouterFallback(target.Reason)
	}
	return db
}

// Conn acquires a dedicated connection from the pool selected for ctx.
// Callers must close it.
func (r *Router) Conn(ctx context.Context) (*sql.Conn, error) {
	db := r.DB(ctx)
	if db == nil {
		return nil, ErrPoolUnavailable
	}
	conn, err := db.Conn(ctx)
	if err != nil {
		return nil, errors.Join(ErrPoolUnavailable, r.describe(ctx, err))
	}
	return conn, nil
}

// ExecContext routes an exec.
func (r *Router) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	db := r.DB(ctx)
	if db == nil {
		return nil, ErrPoolUnavailable
	}
	return db.ExecContext(ctx, query, args...)
}

// QueryContext routes a query.
func (r *Router) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	db := r.DB(ctx)
	if db == nil {
		return nil, ErrPoolUnavailable
	}
	return db.QueryContext(ctx, query, args...)
}

// QueryRowContext routes a single-row query.
func (r *Router) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return r.DB(ctx).QueryRowContext(ctx, query, args...)
}

// BeginTx starts a transaction on the pool selected for ctx. The transaction
// stays on that pool even if the binding changes before it ends.
func (r *Router) BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error) {
	db := r.DB(ctx)
	if db == nil {
		return nil, ErrPoolUnavailable
	}
	tx, err := db.BeginTx(ctx, opts)
	if err != nil {
		return nil, errors.Join(ErrPoolUnavailable, r.describe(ctx, err))
	}
	return tx, nil
}

func (r *Router) pick(ctx context.Context) (*sql.DB, Target) {
	id, ok := tenant.IDFromContext(ctx)
	if !ok {
		return r.pools.Default(), Target{Fallback: true, Reason: ReasonUnbound, Driver: r.directoryDriver}
	}
	if db, ok := r.pools.Lookup(id); ok {
		target := Target{TenantID: id}
		if dl, ok := r.pools.(DriverLookup); ok {
			target.Driver, _ = dl.Driver(id)
		}
		return db, target
	}
	return r.pools.Default(), Target{TenantID: id, Fallback: true, Reason: ReasonUnknownTenant, Driver: r.directoryDriver}
}

func (r *Router) describe(ctx context.Context, err error) error {
	t := r.Tenant(ctx)
	if t.Fallback {
		return fmt.Errorf("directory pool: %w", err)
	}
	return fmt.Errorf("tenant %q pool: %w", t.TenantID, err)
}
