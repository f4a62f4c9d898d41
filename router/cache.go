package router

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/hrygo/intentgate/cache"
)

// DecisionCache caches confident Layer 1 results keyed by input hash.
// Only plain results are cached: turns that raised a clarification or
// confirmation gate carry conversation state and are never cached.
type DecisionCache struct {
	lru    *cache.LRU[string, ClassificationResult]
	hits   atomic.Int64
	misses atomic.Int64
}

// DecisionCacheConfig sizes the cache.
type DecisionCacheConfig struct {
	Capacity int           // default 500
	TTL      time.Duration // default 5m
}

// NewDecisionCache creates the cache with defaults applied.
func NewDecisionCache(cfg DecisionCacheConfig) *DecisionCache {
	if cfg.Capacity <= 0 {
		cfg.Capacity = 500
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 5 * time.Minute
	}
	return &DecisionCache{
		lru: cache.New[string, ClassificationResult](cfg.Capacity, cfg.TTL),
	}
}

// Get returns a cached result for the input, if any.
func (c *DecisionCache) Get(input string) (ClassificationResult, bool) {
	result, ok := c.lru.Get(hashKey(input))
	if !ok {
		c.misses.Add(1)
		return ClassificationResult{}, false
	}
	c.hits.Add(1)
	slog.Debug("decision cache hit", "intent", result.Intent, "route", result.Route)
	return result, true
}

// Set stores a result unless it carries gate state.
func (c *DecisionCache) Set(input string, result ClassificationResult) {
	if result.NeedsClarification || result.RequiresConfirmation {
		return
	}
	c.lru.Set(hashKey(input), result, 0)
}

// Stats returns hit/miss counters since startup.
func (c *DecisionCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// hashKey derives a stable short key from the input text.
func hashKey(input string) string {
	sum := sha256.Sum256([]byte(input))
	return hex.EncodeToString(sum[:8])
}
