// Package metrics exposes tenant routing counters to Prometheus.
//
// Recorder implements the observer interfaces of the tenant, dbrouter,
// dbpool and directory packages, so one value can be handed to each of them:
//
//	rec := metrics.New(prometheus.DefaultRegisterer, "tenantkit")
//	tenant.Middleware(tenant.WithObserver(rec))
//	dbrouter.New(registry, dbrouter.WithObserver(rec))
//
// PoolStatsCollector reports database/sql pool statistics per tenant at
// scrape time. Middleware records request counts and latencies labelled with
// the chi route pattern.
package metrics
