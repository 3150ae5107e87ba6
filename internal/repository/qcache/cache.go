// Package qcache stores ranked search results in a key-value store under a
// TTL. A broken or corrupt cache always degrades to a miss: the search
// orchestrator must never fail because the cache did.
package qcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/askaws-cloud/askaws/internal/db"
	"github.com/askaws-cloud/askaws/internal/domain"
)

// store is the consumer interface for the result cache (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}

// Cache persists ranked result lists keyed by the orchestrator's composite
// search key.
type Cache struct {
	store  store
	prefix string
	logger *zap.Logger
}

// New creates a result cache. prefix namespaces the keys, e.g. "askaws:".
func New(s store, prefix string, logger *zap.Logger) *Cache {
	return &Cache{store: s, prefix: prefix + "qcache:", logger: logger}
}

// Get returns the cached ranking for key, reporting whether it was found.
// A corrupt entry is evicted and reported as a miss.
func (c *Cache) Get(ctx context.Context, key string) ([]domain.Ranking, bool, error) {
	data, err := c.store.Get(ctx, c.prefix+key)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("cache get: %w", err)
	}

	var results []domain.Ranking
	if err := json.Unmarshal(data, &results); err != nil {
		c.logger.Warn("evicting corrupt cache entry", zap.String("key", key), zap.Error(err))
		if delErr := c.store.Del(ctx, c.prefix+key); delErr != nil {
			c.logger.Warn("corrupt cache entry eviction failed", zap.Error(delErr))
		}
		return nil, false, nil
	}
	return results, true, nil
}

// Put stores results under key for ttl. Concurrent identical-key writes are
// last-write-wins; entries are deterministic per key, so that is safe.
func (c *Cache) Put(ctx context.Context, key string, results []domain.Ranking, ttl time.Duration) error {
	data, err := json.Marshal(results)
	if err != nil {
		return fmt.Errorf("cache marshal: %w", err)
	}
	if err := c.store.SetWithTTL(ctx, c.prefix+key, data, ttl); err != nil {
		return fmt.Errorf("cache put: %w", err)
	}
	return nil
}

// Invalidate removes one entry.
func (c *Cache) Invalidate(ctx context.Context, key string) error {
	if err := c.store.Del(ctx, c.prefix+key); err != nil {
		return fmt.Errorf("cache invalidate: %w", err)
	}
	return nil
}
