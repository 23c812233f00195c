package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder counts tenant resolution, routing, pool and cache events.
type Recorder struct {
	resolved        *prometheus.CounterVec
	resolveFailed   *prometheus.CounterVec
	routerFallbacks *prometheus.CounterVec
	buildFailures   *prometheus.CounterVec
	poolsLoaded     prometheus.Gauge
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
	logins          *prometheus.CounterVec
}

// New registers the recorder's metrics with reg under namespace.
// It panics if any metric is already registered.
func New(reg prometheus.Registerer, namespace string) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		resolved: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tenant_resolved_total",
			Help:      "Requests bound to a tenant, by resolution strategy.",
		}, []string{"strategy"}),
		resolveFailed: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tenant_resolution_failures_total",
			Help:      "Tenant resolution failures, by resolution strategy.",
		}, []string{"strategy"}),
		routerFallbacks: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "router_fallbacks_total",
			Help:      "Connection requests served by the directory pool, by reason.",
		}, []string{"reason"}),
		buildFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pool_build_failures_total",
			Help:      "Tenant pools that failed to build or validate.",
		}, []string{"tenant"}),
		poolsLoaded: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pools_loaded",
			Help:      "Tenant pools in the current registry snapshot.",
		}),
		cacheHits: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "directory_cache_hits_total",
			Help:      "Directory user lookups served from cache.",
		}),
		cacheMisses: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "directory_cache_misses_total",
			Help:      "Directory user lookups that reached the database.",
		}),
		logins: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "logins_total",
			Help:      "Login attempts, by outcome.",
		}, []string{"outcome"}),
	}
}

func (r *Recorder) TenantResolved(strategy string) { r.resolved.WithLabelValues(strategy).Inc() }

func (r *Recorder) TenantResolutionFailed(strategy string) {
	r.resolveFailed.WithLabelValues(strategy).Inc()
}

func (r *Recorder) RouterFallback(reason string) { r.routerFallbacks.WithLabelValues(reason).Inc() }

func (r *Recorder) PoolBuildFailed(tenantID string) {
	r.buildFailures.WithLabelValues(tenantID).Inc()
}

func (r *Recorder) PoolsLoaded(count int) { r.poolsLoaded.Set(float64(count)) }

func (r *Recorder) DirectoryCacheHit() { r.cacheHits.Inc() }

func (r *Recorder) DirectoryCacheMiss() { r.cacheMisses.Inc() }

// Login records a login attempt outcome: "success", "unknown_user",
// "integrity_error", "invalid_credentials", "unavailable" or "error".
func (r *Recorder) Login(outcome string) { r.logins.WithLabelValues(outcome).Inc() }
