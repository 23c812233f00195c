package dbrouter_test

import (
	"context"
	"database/sql"
	"sync"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tenantkit/pkg/dbrouter"
	"github.com/dmitrymomot/tenantkit/pkg/tenant"
)

type staticPools struct {
	directory *sql.DB
	tenants   map[string]*sql.DB
}

func (s *staticPools) Lookup(id string) (*sql.DB, bool) {
	db, ok := s.tenants[id]
	return db, ok
}

func (s *staticPools) Default() *sql.DB { return s.directory }

type fallbackCounter struct {
	mu      sync.Mutex
	reasons map[string]int
}

func (f *fallbackCounter) RouterFallback(reason string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.reasons == nil {
		f.reasons = map[string]int{}
	}
	f.reasons[reason]++
}

type fixture struct {
	pools   *staticPools
	dirMock sqlmock.Sqlmock
	mocks   map[string]sqlmock.Sqlmock
}

func newFixture(t *testing.T, tenants ...string) *fixture {
	t.Helper()

	dir, dirMock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = dir.Close() })

	f := &fixture{
		pools:   &staticPools{directory: dir, tenants: map[string]*sql.DB{}},
		dirMock: dirMock,
		mocks:   map[string]sqlmock.Sqlmock{},
	}
	for _, id := range tenants {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		t.Cleanup(func() { _ = db.Close() })
		f.pools.tenants[id] = db
		f.mocks[id] = mock
	}
	return f
}

func bound(t *testing.T, id string) context.Context {
	t.Helper()
	ctx, release, err := tenant.Acquire(context.Background(), id)
	require.NoError(t, err)
	t.Cleanup(release)
	return ctx
}

func TestRouter_DB(t *testing.T) {
	t.Parallel()

	t.Run("bound tenant gets its pool", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, "acme", "beta")
		counter := &fallbackCounter{}
		r := dbrouter.New(f.pools, dbrouter.WithObserver(counter))

		assert.Same(t, f.pools.tenants["acme"], r.DB(bound(t, "acme")))
		assert.Same(t, f.pools.tenants["beta"], r.DB(bound(t, "beta")))
		assert.Empty(t, counter.reasons)
	})

	t.Run("unbound falls back to directory", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, "acme")
		counter := &fallbackCounter{}
		r := dbrouter.New(f.pools, dbrouter.WithObserver(counter))

		assert.Same(t, f.pools.directory, r.DB(context.Background()))
		assert.Equal(t, 1, counter.reasons[dbrouter.ReasonUnbound])
	})

	t.Run("unknown tenant falls back to directory", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, "acme")
		counter := &fallbackCounter{}
		r := dbrouter.New(f.pools, dbrouter.WithObserver(counter))

		ctx := bound(t, "zeta")
		assert.Same(t, f.pools.directory, r.DB(ctx))
		assert.Equal(t, dbrouter.Target{TenantID: "zeta", Fallback: true, Reason: dbrouter.ReasonUnknownTenant, Driver: "pgx"}, r.Tenant(ctx))
		assert.Equal(t, 1, counter.reasons[dbrouter.ReasonUnknownTenant])
	})

	t.Run("rebind is observed on the next call", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, "acme", "delta")
		r := dbrouter.New(f.pools)

		ctx := tenant.WithScope(context.Background(), tenant.NewScope())
		assert.True(t, r.Tenant(ctx).Fallback)

		require.NoError(t, tenant.Bind(ctx, "acme"))
		assert.Same(t, f.pools.tenants["acme"], r.DB(ctx))

		require.NoError(t, tenant.Bind(ctx, "delta"))
		assert.Same(t, f.pools.tenants["delta"], r.DB(ctx))
	})

	t.Run("released binding routes to directory", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, "acme")
		r := dbrouter.New(f.pools)

		ctx, release, err := tenant.Acquire(context.Background(), "acme")
		require.NoError(t, err)
		assert.Equal(t, "acme", r.Tenant(ctx).TenantID)

		release()
		assert.Same(t, f.pools.directory, r.DB(ctx))
	})
}

func TestRouter_Queries(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "acme")
	r := dbrouter.New(f.pools)

	f.mocks["acme"].ExpectExec("UPDATE users").WillReturnResult(sqlmock.NewResult(0, 1))
	f.dirMock.ExpectQuery("SELECT tenant_id").WillReturnRows(sqlmock.NewRows([]string{"tenant_id"}).AddRow("acme"))

	res, err := r.ExecContext(bound(t, "acme"), "UPDATE users SET active = true")
	require.NoError(t, err)
	n, _ := res.RowsAffected()
	assert.Equal(t, int64(1), n)

	var id string
	require.NoError(t, r.QueryRowContext(context.Background(), "SELECT tenant_id FROM global_users").Scan(&id))
	assert.Equal(t, "acme", id)

	assert.NoError(t, f.mocks["acme"].ExpectationsWereMet())
	assert.NoError(t, f.dirMock.ExpectationsWereMet())
}

func TestRouter_Conn(t *testing.T) {
	t.Parallel()

	t.Run("acquires from tenant pool", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, "acme")
		r := dbrouter.New(f.pools)

		conn, err := r.Conn(bound(t, "acme"))
		require.NoError(t, err)
		require.NoError(t, conn.Close())
	})

	t.Run("directory pool unavailable", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		f.dirMock.ExpectClose()
		require.NoError(t, f.pools.directory.Close())

		r := dbrouter.New(f.pools)
		_, err := r.Conn(context.Background())
		assert.ErrorIs(t, err, dbrouter.ErrPoolUnavailable)

		_, err = r.BeginTx(context.Background(), nil)
		assert.ErrorIs(t, err, dbrouter.ErrPoolUnavailable)
	})

	t.Run("no directory pool", func(t *testing.T) {
		t.Parallel()

		r := dbrouter.New(&staticPools{})
		_, err := r.Conn(context.Background())
		assert.ErrorIs(t, err, dbrouter.ErrPoolUnavailable)

		_, err = r.QueryContext(context.Background(), "SELECT 1")
		assert.ErrorIs(t, err, dbrouter.ErrPoolUnavailable)
	})
}
