package metrics_test

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tenantkit/pkg/dbpool"
	"github.com/dmitrymomot/tenantkit/pkg/dbrouter"
	"github.com/dmitrymomot/tenantkit/pkg/directory"
	"github.com/dmitrymomot/tenantkit/pkg/metrics"
	"github.com/dmitrymomot/tenantkit/pkg/tenant"
)

var (
	_ tenant.Observer         = (*metrics.Recorder)(nil)
	_ dbrouter.Observer       = (*metrics.Recorder)(nil)
	_ dbpool.Observer         = (*metrics.Recorder)(nil)
	_ directory.CacheObserver = (*metrics.Recorder)(nil)
	_ prometheus.Collector    = (*metrics.PoolStatsCollector)(nil)
)

func TestRecorder(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	rec := metrics.New(reg, "test")

	rec.TenantResolved("header")
	rec.TenantResolved("header")
	rec.TenantResolutionFailed("param")
	rec.RouterFallback(dbrouter.ReasonUnbound)
	rec.PoolBuildFailed("acme")
	rec.PoolsLoaded(3)
	rec.DirectoryCacheHit()
	rec.DirectoryCacheMiss()
	rec.DirectoryCacheMiss()
	rec.Login("integrity")

	expected := `
# HELP test_tenant_resolved_total Requests bound to a tenant, by resolution strategy.
# TYPE test_tenant_resolved_total counter
test_tenant_resolved_total{strategy="header"} 2
# HELP test_pools_loaded Tenant pools in the current registry snapshot.
# TYPE test_pools_loaded gauge
test_pools_loaded 3
# HELP test_directory_cache_misses_total Directory user lookups that reached the database.
# TYPE test_directory_cache_misses_total counter
test_directory_cache_misses_total 2
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"test_tenant_resolved_total", "test_pools_loaded", "test_directory_cache_misses_total"))

	count, err := testutil.GatherAndCount(reg,
		"test_tenant_resolution_failures_total",
		"test_router_fallbacks_total",
		"test_pool_build_failures_total",
		"test_directory_cache_hits_total",
		"test_logins_total",
	)
	require.NoError(t, err)
	assert.Equal(t, 5, count)
}

func TestPoolStatsCollector(t *testing.T) {
	t.Parallel()

	c := metrics.NewPoolStatsCollector("test", func() map[string]sql.DBStats {
		return map[string]sql.DBStats{
			"acme": {OpenConnections: 4, InUse: 1, Idle: 3, WaitCount: 7, WaitDuration: 2 * time.Second},
			"beta": {OpenConnections: 1, Idle: 1},
		}
	})

	assert.Equal(t, 10, testutil.CollectAndCount(c))
	assert.Equal(t, 2, testutil.CollectAndCount(c, "test_pool_open_connections"))

	expected := `
# HELP test_pool_wait_seconds_total Time blocked waiting for a connection.
# TYPE test_pool_wait_seconds_total counter
test_pool_wait_seconds_total{tenant="acme"} 2
test_pool_wait_seconds_total{tenant="beta"} 0
`
	require.NoError(t, testutil.CollectAndCompare(c, strings.NewReader(expected), "test_pool_wait_seconds_total"))
}

func TestMiddleware(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	r := chi.NewRouter()
	r.Use(metrics.Middleware(reg, "test"))
	r.Get("/users/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	r.Handle("/metrics", metrics.Handler(reg))

	for _, path := range []string{"/users/1", "/users/2"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		require.Equal(t, http.StatusTeapot, rec.Code)
	}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `test_http_requests_total{method="GET",route="/users/{id}",status="418"} 2`)
}
