package telemetry

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/salvocorp/rankcore/pkg/kafka"
)

// Stats summarizes telemetry collected since the Aggregator started.
type Stats struct {
	TotalQueries      int64            `json:"total_queries"`
	TotalFusions      int64            `json:"total_fusions"`
	CacheHits         int64            `json:"cache_hits"`
	CacheMisses       int64            `json:"cache_misses"`
	AvgLatencyUsec    float64          `json:"avg_latency_usec"`
	P50LatencyUsec    int64            `json:"p50_latency_usec"`
	P95LatencyUsec    int64            `json:"p95_latency_usec"`
	P99LatencyUsec    int64            `json:"p99_latency_usec"`
	AlgorithmCounts   []AlgorithmCount `json:"algorithm_counts"`
	QueriesPerMinute  float64          `json:"queries_per_minute"`
}

// AlgorithmCount reports how many evaluations ran under a given algorithm.
type AlgorithmCount struct {
	Algorithm string `json:"algorithm"`
	Count     int64  `json:"count"`
}

// Aggregator consumes QueryEvents from Kafka and maintains running
// percentile latency statistics, grounded on the teacher's
// internal/analytics.Aggregator.
type Aggregator struct {
	mu              sync.RWMutex
	totalQueries    atomic.Int64
	totalFusions    atomic.Int64
	cacheHits       atomic.Int64
	cacheMisses     atomic.Int64
	latenciesUsec   []int64
	algorithmCounts map[string]int64
	startTime       time.Time

	consumer *kafka.Consumer
	logger   *slog.Logger
}

// NewAggregator creates an Aggregator that consumes from consumer.
func NewAggregator(consumer *kafka.Consumer) *Aggregator {
	return &Aggregator{
		latenciesUsec:   make([]int64, 0, 10000),
		algorithmCounts: make(map[string]int64),
		startTime:       time.Now(),
		consumer:        consumer,
		logger:          slog.Default().With("component", "telemetry-aggregator"),
	}
}

// Start runs the consume loop until ctx is cancelled.
func (a *Aggregator) Start(ctx context.Context) error {
	a.logger.Info("telemetry aggregator starting")
	return a.consumer.Start(ctx)
}

// HandleEvent returns a kafka.MessageHandler that decodes and records
// QueryEvents.
func HandleEvent(agg *Aggregator) kafka.MessageHandler {
	return func(ctx context.Context, key []byte, value []byte) error {
		event, err := kafka.DecodeJSON[QueryEvent](value)
		if err != nil {
			agg.logger.Error("failed to decode telemetry event", "error", err)
			return nil
		}
		agg.record(event)
		return nil
	}
}

func (a *Aggregator) record(event QueryEvent) {
	switch event.Type {
	case EventQueryEval:
		a.totalQueries.Add(1)
	case EventFusionEval:
		a.totalFusions.Add(1)
	case EventCacheHit:
		a.cacheHits.Add(1)
	case EventCacheMiss:
		a.cacheMisses.Add(1)
	}
	if event.LatencyUsec > 0 {
		a.mu.Lock()
		a.latenciesUsec = append(a.latenciesUsec, event.LatencyUsec)
		if event.Algorithm != "" {
			a.algorithmCounts[event.Algorithm]++
		}
		a.mu.Unlock()
	}
}

// Stats returns a snapshot of the current aggregate statistics.
func (a *Aggregator) Stats() Stats {
	a.mu.RLock()
	defer a.mu.RUnlock()

	stats := Stats{
		TotalQueries: a.totalQueries.Load(),
		TotalFusions: a.totalFusions.Load(),
		CacheHits:    a.cacheHits.Load(),
		CacheMisses:  a.cacheMisses.Load(),
	}
	if len(a.latenciesUsec) > 0 {
		sorted := make([]int64, len(a.latenciesUsec))
		copy(sorted, a.latenciesUsec)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

		var sum int64
		for _, l := range sorted {
			sum += l
		}
		stats.AvgLatencyUsec = float64(sum) / float64(len(sorted))
		stats.P50LatencyUsec = percentile(sorted, 50)
		stats.P95LatencyUsec = percentile(sorted, 95)
		stats.P99LatencyUsec = percentile(sorted, 99)
	}
	stats.AlgorithmCounts = topAlgorithms(a.algorithmCounts)
	elapsed := time.Since(a.startTime).Minutes()
	if elapsed > 0 {
		stats.QueriesPerMinute = float64(stats.TotalQueries) / elapsed
	}
	return stats
}

func percentile(sorted []int64, pct int) int64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := (pct * len(sorted)) / 100
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

func topAlgorithms(counts map[string]int64) []AlgorithmCount {
	result := make([]AlgorithmCount, 0, len(counts))
	for algo, count := range counts {
		result = append(result, AlgorithmCount{Algorithm: algo, Count: count})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Count > result[j].Count })
	return result
}
