package market

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ivstanko/cryptoscan/internal/models"
)

const cacheCleanupThreshold = 1000

type cacheEntry struct {
	candles   models.Candles
	fetchedAt time.Time
}

// KlineCache memoizes kline fetches per (symbol, interval, limit) with a
// fixed TTL. Concurrent misses for the same key each fetch independently;
// the last writer wins, which is harmless since payloads are equivalent.
type KlineCache struct {
	client Client
	ttl    time.Duration
	logger *logrus.Logger

	mu      sync.Mutex
	entries map[string]cacheEntry

	now func() time.Time
}

func NewKlineCache(client Client, ttl time.Duration, logger *logrus.Logger) *KlineCache {
	return &KlineCache{
		client:  client,
		ttl:     ttl,
		logger:  logger,
		entries: make(map[string]cacheEntry),
		now:     time.Now,
	}
}

func cacheKey(symbol, interval string, limit int) string {
	return fmt.Sprintf("%s_%s_%d", symbol, interval, limit)
}

// Get returns cached candles when the entry is younger than the TTL,
// otherwise fetches fresh data and stores it. Fetch failures are returned
// without touching the cache.
func (c *KlineCache) Get(ctx context.Context, symbol, interval string, limit int) (models.Candles, error) {
	key := cacheKey(symbol, interval, limit)

	c.mu.Lock()
	if entry, ok := c.entries[key]; ok && c.now().Sub(entry.fetchedAt) < c.ttl {
		c.mu.Unlock()
		return entry.candles, nil
	}
	c.mu.Unlock()

	candles, err := c.client.FetchKlines(ctx, symbol, interval, limit)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.entries[key] = cacheEntry{candles: candles, fetchedAt: c.now()}
	if len(c.entries) > cacheCleanupThreshold {
		c.cleanupLocked()
	}
	c.mu.Unlock()

	return candles, nil
}

// cleanupLocked drops entries older than twice the TTL. Caller holds mu.
func (c *KlineCache) cleanupLocked() {
	cutoff := c.now().Add(-2 * c.ttl)
	removed := 0
	for key, entry := range c.entries {
		if entry.fetchedAt.Before(cutoff) {
			delete(c.entries, key)
			removed++
		}
	}
	if removed > 0 && c.logger != nil {
		c.logger.WithFields(logrus.Fields{
			"removed":   removed,
			"remaining": len(c.entries),
		}).Debug("Kline cache cleanup")
	}
}

// Len reports the number of cached entries.
func (c *KlineCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
