// Package metrics defines the Prometheus metric collectors used across the
// retrieval core and exposes an HTTP handler for scraping.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors for the retrieval core.
type Metrics struct {
	QueriesTotal         *prometheus.CounterVec
	QueryLatency         *prometheus.HistogramVec
	FusedQueryLatency    prometheus.Histogram
	TopKResultsCount     prometheus.Histogram
	PostingsScannedTotal *prometheus.CounterVec
	PivotMovesTotal      *prometheus.CounterVec
	BlocksSkippedTotal   *prometheus.CounterVec
	CacheHitsTotal       prometheus.Counter
	CacheMissesTotal     prometheus.Counter
	WorkerFailuresTotal  prometheus.Counter
	CircuitBreakerState  *prometheus.GaugeVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	m := &Metrics{
		QueriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rankcore_queries_total",
				Help: "Total queries evaluated by algorithm and outcome.",
			},
			[]string{"algorithm", "outcome"},
		),
		QueryLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "rankcore_query_latency_seconds",
				Help:    "Single-variant query evaluation latency in seconds, by algorithm.",
				Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5},
			},
			[]string{"algorithm"},
		),
		FusedQueryLatency: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "rankcore_fused_query_latency_seconds",
				Help:    "End-to-end multi-query fusion latency in seconds.",
				Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
			},
		),
		TopKResultsCount: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "rankcore_topk_results_count",
				Help:    "Number of entries returned per finalized top-k.",
				Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 1000},
			},
		),
		PostingsScannedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rankcore_postings_scanned_total",
				Help: "Total postings visited during evaluation, by algorithm.",
			},
			[]string{"algorithm"},
		),
		PivotMovesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rankcore_pivot_moves_total",
				Help: "Total pivot advances performed by WAND-family algorithms.",
			},
			[]string{"algorithm"},
		),
		BlocksSkippedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rankcore_blocks_skipped_total",
				Help: "Total wand blocks skipped via block-max upper bounds.",
			},
			[]string{"algorithm"},
		),
		CacheHitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "rankcore_cache_hits_total",
				Help: "Total fused-result cache hits.",
			},
		),
		CacheMissesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "rankcore_cache_misses_total",
				Help: "Total fused-result cache misses.",
			},
		),
		WorkerFailuresTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "rankcore_worker_failures_total",
				Help: "Total per-variant worker failures during fusion.",
			},
		),
		CircuitBreakerState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "rankcore_circuit_breaker_state",
				Help: "Circuit breaker state (0=closed, 1=open, 2=half-open).",
			},
			[]string{"name"},
		),
	}

	prometheus.MustRegister(
		m.QueriesTotal,
		m.QueryLatency,
		m.FusedQueryLatency,
		m.TopKResultsCount,
		m.PostingsScannedTotal,
		m.PivotMovesTotal,
		m.BlocksSkippedTotal,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
		m.WorkerFailuresTotal,
		m.CircuitBreakerState,
	)

	return m
}

// Handler returns the Prometheus scrape HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
