package metrics

import (
	"database/sql"

	"github.com/prometheus/client_golang/prometheus"
)

// PoolStatsCollector reports sql.DBStats for every pool returned by stats.
type PoolStatsCollector struct {
	stats func() map[string]sql.DBStats

	open         *prometheus.Desc
	inUse        *prometheus.Desc
	idle         *prometheus.Desc
	waitCount    *prometheus.Desc
	waitDuration *prometheus.Desc
}

// NewPoolStatsCollector creates a collector; stats is typically
// (*dbpool.Registry).Stats.
func NewPoolStatsCollector(namespace string, stats func() map[string]sql.DBStats) *PoolStatsCollector {
	labels := []string{"tenant"}
	name := func(n string) string { return prometheus.BuildFQName(namespace, "pool", n) }
	return &PoolStatsCollector{
		stats:        stats,
		open:         prometheus.NewDesc(name("open_connections"), "Established connections.", labels, nil),
		inUse:        prometheus.NewDesc(name("in_use_connections"), "Connections currently in use.", labels, nil),
		idle:         prometheus.NewDesc(name("idle_connections"), "Idle connections.", labels, nil),
		waitCount:    prometheus.NewDesc(name("wait_total"), "Connections waited for.", labels, nil),
		waitDuration: prometheus.NewDesc(name("wait_seconds_total"), "Time blocked waiting for a connection.", labels, nil),
	}
}

func (c *PoolStatsCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.open
	ch <- c.inUse
	ch <- c.idle
	ch <- c.waitCount
	ch <- c.waitDuration
}

func (c *PoolStatsCollector) Collect(ch chan<- prometheus.Metric) {
	for tenantID, s := range c.stats() {
		ch <- prometheus.MustNewConstMetric(c.open, prometheus.GaugeValue, float64(s.OpenConnections), tenantID)
		ch <- prometheus.MustNewConstMetric(c.inUse, prometheus.GaugeValue, float64(s.InUse), tenantID)
		ch <- prometheus.MustNewConstMetric(c.idle, prometheus.GaugeValue, float64(s.Idle), tenantID)
		ch <- prometheus.MustNewConstMetric(c.waitCount, prometheus.CounterValue, float64(s.WaitCount), tenantID)
		ch <- prometheus.MustNewConstMetric(c.waitDuration, prometheus.CounterValue, s.WaitDuration.Seconds(), tenantID)
	}
}
