// Package cache provides a Redis-backed cache for finalized top-k results,
// adapted from the teacher's internal/searcher/cache.QueryCache. The cache
// key is derived from a MultiQuery's id, the algorithm used, and the
// fused k, rather than from boolean-query text; the cached value is a
// finalized []topk.Entry rather than a JSON search response.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/salvocorp/rankcore/internal/topk"
	"github.com/salvocorp/rankcore/pkg/config"
	"github.com/salvocorp/rankcore/pkg/metrics"
	pkgredis "github.com/salvocorp/rankcore/pkg/redis"
	"github.com/salvocorp/rankcore/pkg/resilience"
	"golang.org/x/sync/singleflight"
)

const keyPrefix = "rankcore:fused:"
const breakerName = "fused-result-cache-redis"

// FusedResultCache caches finalized top-k entries for a (MultiQuery id,
// algorithm, k) triple.
type FusedResultCache struct {
	client  *pkgredis.Client
	cfg     config.RedisConfig
	group   singleflight.Group
	logger  *slog.Logger
	hits    atomic.Int64
	misses  atomic.Int64
	breaker *resilience.CircuitBreaker
	metrics *metrics.Metrics // optional; nil skips Prometheus recording
}

// New creates a FusedResultCache backed by client. m may be nil.
func New(client *pkgredis.Client, cfg config.RedisConfig, m *metrics.Metrics) *FusedResultCache {
	return &FusedResultCache{
		client:  client,
		cfg:     cfg,
		logger:  slog.Default().With("component", "fused-result-cache"),
		breaker: resilience.NewCircuitBreaker(breakerName, resilience.CircuitBreakerConfig{}),
		metrics: m,
	}
}

// recordBreakerState publishes the circuit breaker's current state to the
// CircuitBreakerState gauge, when metrics are enabled.
func (c *FusedResultCache) recordBreakerState() {
	if c.metrics == nil {
		return
	}
	c.metrics.CircuitBreakerState.WithLabelValues(breakerName).Set(float64(c.breaker.GetState()))
}

// Get returns the cached top-k entries for (queryId, algorithm, k), if present.
// A Redis call is routed through a circuit breaker: once Redis trips the
// breaker open, lookups fail fast as misses instead of blocking every
// evaluation on a dead backend.
func (c *FusedResultCache) Get(ctx context.Context, queryId, algorithm string, k int) ([]topk.Entry, bool) {
	key := c.buildKey(queryId, algorithm, k)
	var data string
	var getErr error
	err := c.breaker.Execute(func() error {
		data, getErr = c.client.Get(ctx, key)
		if pkgredis.IsNilError(getErr) {
			return nil // a miss is not a backend fault
		}
		return getErr
	})
	c.recordBreakerState()
	if err != nil {
		c.logger.Error("cache get failed", "key", key, "error", err)
		c.recordMiss()
		return nil, false
	}
	if getErr != nil {
		c.recordMiss()
		return nil, false
	}
	var entries []topk.Entry
	if err := json.Unmarshal([]byte(data), &entries); err != nil {
		c.logger.Error("cache unmarshal failed", "key", key, "error", err)
		c.recordMiss()
		return nil, false
	}
	c.hits.Add(1)
	if c.metrics != nil {
		c.metrics.CacheHitsTotal.Inc()
	}
	c.logger.Debug("cache hit", "query_id", queryId, "key", key)
	return entries, true
}

func (c *FusedResultCache) recordMiss() {
	c.misses.Add(1)
	if c.metrics != nil {
		c.metrics.CacheMissesTotal.Inc()
	}
}

// Set stores entries for (queryId, algorithm, k).
func (c *FusedResultCache) Set(ctx context.Context, queryId, algorithm string, k int, entries []topk.Entry) {
	key := c.buildKey(queryId, algorithm, k)
	data, err := json.Marshal(entries)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", key, "error", err)
		return
	}
	err = c.breaker.Execute(func() error {
		return c.client.Set(ctx, key, data, c.cfg.CacheTTL)
	})
	c.recordBreakerState()
	if err != nil {
		c.logger.Error("cache set failed", "key", key, "error", err)
	}
}

// GetOrCompute returns the cached entries if present, otherwise calls
// computeFn once per key (via singleflight) and caches its result.
func (c *FusedResultCache) GetOrCompute(
	ctx context.Context,
	queryId, algorithm string,
	k int,
	computeFn func() ([]topk.Entry, error),
) ([]topk.Entry, bool, error) {
	if entries, ok := c.Get(ctx, queryId, algorithm, k); ok {
		return entries, true, nil
	}
	key := c.buildKey(queryId, algorithm, k)
	val, err, _ := c.group.Do(key, func() (interface{}, error) {
		if entries, ok := c.Get(ctx, queryId, algorithm, k); ok {
			return entries, nil
		}
		entries, err := computeFn()
		if err != nil {
			return nil, err
		}
		c.Set(ctx, queryId, algorithm, k, entries)
		return entries, nil
	})
	if err != nil {
		return nil, false, err
	}
	return val.([]topk.Entry), false, nil
}

// Invalidate removes every cached fused result.
func (c *FusedResultCache) Invalidate(ctx context.Context) error {
	deleted, err := c.client.FlushByPattern(ctx, keyPrefix+"*")
	if err != nil {
		return fmt.Errorf("invalidating cache: %w", err)
	}
	c.logger.Info("cache invalidate", "keys_deleted", deleted)
	return nil
}

// Stats returns cumulative hit/miss counters.
func (c *FusedResultCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

func (c *FusedResultCache) buildKey(queryId, algorithm string, k int) string {
	raw := fmt.Sprintf("%s:%s:k=%d", queryId, algorithm, k)
	hash := sha256.Sum256([]byte(raw))
	return fmt.Sprintf("%s%x", keyPrefix, hash[:16])
}
