package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	LookupsTotal       *prometheus.CounterVec
	ProcessesIngested  prometheus.Counter
	MovementsIngested  prometheus.Counter
	IngestRunsTotal    *prometheus.CounterVec
	CacheHits          prometheus.Counter
	CacheRebuilds      prometheus.Counter
	CacheBuildFailures prometheus.Counter
	RebuildDuration    prometheus.Histogram
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		LookupsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "juristrack_lookups_total",
			Help: "Jurisdiction API lookups by outcome (found, not_found, error)",
		}, []string{"outcome"}),
		ProcessesIngested: promauto.NewCounter(prometheus.CounterOpts{
			Name: "juristrack_processes_ingested_total",
			Help: "Process rows appended to the store",
		}),
		MovementsIngested: promauto.NewCounter(prometheus.CounterOpts{
			Name: "juristrack_movements_ingested_total",
			Help: "Movement rows appended to the store",
		}),
		IngestRunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "juristrack_ingest_runs_total",
			Help: "Ingestion runs by terminal status (completed, timeout)",
		}, []string{"status"}),
		CacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "juristrack_view_cache_hits_total",
			Help: "View cache accesses served without a rebuild",
		}),
		CacheRebuilds: promauto.NewCounter(prometheus.CounterOpts{
			Name: "juristrack_view_cache_rebuilds_total",
			Help: "Reconciled view rebuilds",
		}),
		CacheBuildFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "juristrack_view_cache_build_failures_total",
			Help: "Failed reconciled view rebuilds",
		}),
		RebuildDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "juristrack_view_rebuild_duration_seconds",
			Help:    "Wall time spent rebuilding the reconciled view",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// RecordLookup counts one jurisdiction lookup by outcome.
func (m *Metrics) RecordLookup(outcome string) {
	if m == nil {
		return
	}
	m.LookupsTotal.WithLabelValues(outcome).Inc()
}

// RecordCacheHit counts a cache access served from the snapshot.
func (m *Metrics) RecordCacheHit() {
	if m == nil {
		return
	}
	m.CacheHits.Inc()
}

// RecordRebuild counts a successful rebuild and its duration.
func (m *Metrics) RecordRebuild(seconds float64) {
	if m == nil {
		return
	}
	m.CacheRebuilds.Inc()
	m.RebuildDuration.Observe(seconds)
}

// RecordBuildFailure counts a failed rebuild.
func (m *Metrics) RecordBuildFailure() {
	if m == nil {
		return
	}
	m.CacheBuildFailures.Inc()
}
