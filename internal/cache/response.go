package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/emsdir/searchd/internal/observability"
)

// Backend is the subset of redisstore.Client the response cache needs.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
	DelPrefix(ctx context.Context, prefix string) (int, error)
}

// ResponseCache stores rendered JSON search responses. Every operation is
// fail-open: a Redis problem is logged and treated as a miss so the search
// path never depends on cache availability.
type ResponseCache struct {
	backend   Backend
	ttl       time.Duration
	opTimeout time.Duration
	logger    *slog.Logger
}

func NewResponseCache(backend Backend, ttl, opTimeout time.Duration, logger *slog.Logger) *ResponseCache {
	if logger == nil {
		logger = slog.Default()
	}
	if ttl <= 0 {
		ttl = time.Minute
	}
	if opTimeout <= 0 {
		opTimeout = 250 * time.Millisecond
	}
	return &ResponseCache{backend: backend, ttl: ttl, opTimeout: opTimeout, logger: logger}
}

// Lookup returns the cached response body for key, or nil on a miss.
func (c *ResponseCache) Lookup(ctx context.Context, key string) []byte {
	if c == nil || c.backend == nil {
		return nil
	}
	opCtx, cancel := context.WithTimeout(ctx, c.opTimeout)
	defer cancel()

	val, ok, err := c.backend.Get(opCtx, key)
	if err != nil {
		c.logger.Warn("cache lookup failed", "err", err)
		observability.IncCacheMiss()
		return nil
	}
	if !ok {
		observability.IncCacheMiss()
		return nil
	}
	observability.IncCacheHit()
	return val
}

// Store writes a response body under key. Failures are logged and dropped.
func (c *ResponseCache) Store(ctx context.Context, key string, body []byte) {
	if c == nil || c.backend == nil {
		return
	}
	opCtx, cancel := context.WithTimeout(ctx, c.opTimeout)
	defer cancel()

	if err := c.backend.Set(opCtx, key, body, c.ttl); err != nil {
		c.logger.Warn("cache store failed", "err", err)
	}
}

// PurgeAll drops every cached response. Directory edits can change any
// page, so invalidation clears the whole namespace.
func (c *ResponseCache) PurgeAll(ctx context.Context) (int, error) {
	if c == nil || c.backend == nil {
		return 0, nil
	}
	return c.backend.DelPrefix(ctx, KeyPrefix)
}
