// Package cache provides a TTL result cache keyed by query fingerprint, with
// a pluggable backend. The remote backend degrades silently to in-memory when
// unreachable.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/siftd/sift/internal/models"
)

// Backend stores opaque cache values with per-entry expiry.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// ResultCache caches search responses. Keys are content-addressed
// fingerprints of the query, so concurrent writers never conflict.
type ResultCache struct {
	backend  Backend
	fallback *MemoryBackend
	degraded atomic.Bool
	ttl      time.Duration
	logger   *zap.Logger
}

// New creates a result cache over backend with the given TTL. logger may be
// nil.
func New(backend Backend, ttl time.Duration, logger *zap.Logger) *ResultCache {
	return &ResultCache{
		backend:  backend,
		fallback: NewMemoryBackend(),
		ttl:      ttl,
		logger:   logger,
	}
}

// Fingerprint returns the cache key for a query: a hash of every field that
// affects the response.
func Fingerprint(query *models.SearchQuery) string {
	payload := fmt.Sprintf("%s|%d|%d|%d|%d|%d",
		query.Query, query.KVector, query.KBM25, query.KFinal, query.MaxTokens, query.PreserveTopN)
	hash := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(hash[:])
}

// Get returns the cached response for key, if present and unexpired.
func (c *ResultCache) Get(ctx context.Context, key string) (*models.SearchResponse, bool) {
	data, ok, err := c.active().Get(ctx, key)
	if err != nil {
		c.degrade(err)
		data, ok, _ = c.fallback.Get(ctx, key)
	}
	if !ok {
		return nil, false
	}
	var resp models.SearchResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, false
	}
	return &resp, true
}

// Set stores the response under key with the configured TTL.
func (c *ResultCache) Set(ctx context.Context, key string, resp *models.SearchResponse) {
	data, err := json.Marshal(resp)
	if err != nil {
		return
	}
	if err := c.active().Set(ctx, key, data, c.ttl); err != nil {
		c.degrade(err)
		_ = c.fallback.Set(ctx, key, data, c.ttl)
	}
}

// Invalidate removes key from the cache.
func (c *ResultCache) Invalidate(ctx context.Context, key string) {
	if err := c.active().Delete(ctx, key); err != nil {
		c.degrade(err)
		_ = c.fallback.Delete(ctx, key)
	}
}

func (c *ResultCache) active() Backend {
	if c.degraded.Load() {
		return c.fallback
	}
	return c.backend
}

// degrade switches permanently to the in-memory fallback. No user-visible
// failure; a warning is logged once.
func (c *ResultCache) degrade(err error) {
	if c.degraded.Swap(true) {
		return
	}
	if c.logger != nil {
		cerr := &models.CacheUnavailableError{Err: err}
		c.logger.Warn("cache backend unavailable, falling back to memory", zap.Error(cerr))
	}
}
