// Package cache provides a TTL cache for computed ranking scores.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto/v2"

	"github.com/daordonez11/noreinventeslarueda/internal/domain/types"
	"github.com/daordonez11/noreinventeslarueda/pkg/metrics"
)

// Default cache configuration constants.
const (
	defaultTTL        = time.Hour
	defaultMaxEntries = 100_000
	countersPerEntry  = 10
)

// ScoreCache holds computed RankingScores keyed by library id with a fixed
// TTL. It is strictly an accelerator: every method on a nil *ScoreCache is
// a silent miss/no-op, so callers can always recompute from the library
// record and an unavailable cache never changes a result.
type ScoreCache struct {
	cache *ristretto.Cache[string, types.RankingScores]
	ttl   time.Duration
}

// Option applies a configuration option to the ScoreCache.
type Option func(*config)

type config struct {
	ttl        time.Duration
	maxEntries int64
}

// WithTTL sets the time-to-live for cached scores.
func WithTTL(ttl time.Duration) Option {
	return func(c *config) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithMaxEntries bounds the number of cached entries.
func WithMaxEntries(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxEntries = int64(n)
		}
	}
}

// New creates a score cache.
func New(opts ...Option) (*ScoreCache, error) {
	cfg := config{ttl: defaultTTL, maxEntries: defaultMaxEntries}
	for _, opt := range opts {
		opt(&cfg)
	}

	inner, err := ristretto.NewCache(&ristretto.Config[string, types.RankingScores]{
		NumCounters: cfg.maxEntries * countersPerEntry,
		MaxCost:     cfg.maxEntries,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("create score cache: %w", err)
	}
	return &ScoreCache{cache: inner, ttl: cfg.ttl}, nil
}

// Get returns the cached scores for a library, if present and unexpired.
func (c *ScoreCache) Get(ctx context.Context, libraryID string) (types.RankingScores, bool) {
	if c == nil || c.cache == nil {
		return types.RankingScores{}, false
	}
	scores, ok := c.cache.Get(libraryID)
	if ok {
		metrics.RecordScoreCacheHit()
	} else {
		metrics.RecordScoreCacheMiss()
	}
	return scores, ok
}

// Set stores the scores for a library under the cache TTL.
func (c *ScoreCache) Set(ctx context.Context, libraryID string, scores types.RankingScores) {
	if c == nil || c.cache == nil {
		return
	}
	c.cache.SetWithTTL(libraryID, scores, 1, c.ttl)
}

// Clear drops every cached score in one operation. Used after bulk data
// refreshes such as a GitHub re-sync.
func (c *ScoreCache) Clear(ctx context.Context) {
	if c == nil || c.cache == nil {
		return
	}
	c.cache.Clear()
	metrics.RecordScoreCacheClear()
}

// Wait blocks until buffered writes are applied. Tests use it to make Set
// visible before asserting on Get.
func (c *ScoreCache) Wait() {
	if c == nil || c.cache == nil {
		return
	}
	c.cache.Wait()
}

// Close releases the cache resources.
func (c *ScoreCache) Close() {
	if c == nil || c.cache == nil {
		return
	}
	c.cache.Close()
}
