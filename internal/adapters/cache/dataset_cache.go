package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/mahmoodhamdi/lg-branchs/internal/domain/entities"
	"github.com/mahmoodhamdi/lg-branchs/internal/domain/providers"
	"github.com/mahmoodhamdi/lg-branchs/internal/infrastructure/observability"
	apperrors "github.com/mahmoodhamdi/lg-branchs/pkg/errors"
)

// DefaultTTL is how long a loaded dataset stays valid
const DefaultTTL = 5 * time.Minute

const (
	tierMemory  = "memory"
	tierDurable = "durable"
)

// DatasetCache is a two-tier, time-bounded cache of branch datasets. The
// in-process tier is a bounded LRU; the durable tier is any CacheProvider and
// may be nil. Durable failures never reach the caller.
type DatasetCache struct {
	local   *lru.Cache[entities.CacheKey, entities.CacheEntry]
	durable providers.CacheProvider
	ttl     time.Duration
	now     func() time.Time
	metrics *observability.Metrics
}

// Option configures a DatasetCache
type Option func(*DatasetCache)

// WithClock replaces time.Now, for tests
func WithClock(now func() time.Time) Option {
	return func(c *DatasetCache) {
		c.now = now
	}
}

// WithTTL overrides DefaultTTL
func WithTTL(ttl time.Duration) Option {
	return func(c *DatasetCache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithMetrics records hits and misses
func WithMetrics(m *observability.Metrics) Option {
	return func(c *DatasetCache) {
		c.metrics = m
	}
}

// NewDatasetCache creates a dataset cache holding at most size entries in
// process.
func NewDatasetCache(durable providers.CacheProvider, size int, opts ...Option) (*DatasetCache, error) {
	if size <= 0 {
		size = len(entities.SupportedLocales())
	}
	local, err := lru.New[entities.CacheKey, entities.CacheEntry](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create in-process cache: %w", err)
	}

	c := &DatasetCache{
		local:   local,
		durable: durable,
		ttl:     DefaultTTL,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// TTL returns the configured entry lifetime
func (c *DatasetCache) TTL() time.Duration {
	return c.ttl
}

// Set stores payload under key in both tiers with expiry now + TTL
func (c *DatasetCache) Set(ctx context.Context, key entities.CacheKey, payload []entities.Branch) {
	entry := entities.CacheEntry{
		Data:   cloneBranches(payload),
		Expiry: c.now().Add(c.ttl),
	}
	c.local.Add(key, entry)

	if c.durable == nil {
		return
	}
	if err := c.writeDurable(ctx, key, entry); err != nil {
		observability.LoggerFromContext(ctx).Warn().
			Err(err).
			Str("key", key.String()).
			Msg("durable cache write failed")
	}
}

func (c *DatasetCache) writeDurable(ctx context.Context, key entities.CacheKey, entry entities.CacheEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return apperrors.NewStorageWriteError(key.String(), err)
	}
	remaining := entry.Expiry.Sub(c.now())
	if remaining <= 0 {
		return nil
	}
	if err := c.durable.Set(ctx, key.String(), data, remaining); err != nil {
		return apperrors.NewStorageWriteError(key.String(), err)
	}
	return nil
}

// Get returns a copy of the cached payload if it has not expired. A durable
// hit is promoted into the in-process tier with its original expiry.
func (c *DatasetCache) Get(ctx context.Context, key entities.CacheKey) ([]entities.Branch, bool) {
	now := c.now()

	if entry, ok := c.local.Get(key); ok {
		if entry.Fresh(now) {
			observability.RecordCacheHit(ctx, c.metrics, key.String(), tierMemory)
			return cloneBranches(entry.Data), true
		}
		c.local.Remove(key)
	}

	if entry, ok := c.readDurable(ctx, key); ok && entry.Fresh(now) {
		c.local.Add(key, entry)
		observability.RecordCacheHit(ctx, c.metrics, key.String(), tierDurable)
		return cloneBranches(entry.Data), true
	}

	observability.RecordCacheMiss(ctx, c.metrics, key.String())
	return nil, false
}

func (c *DatasetCache) readDurable(ctx context.Context, key entities.CacheKey) (entities.CacheEntry, bool) {
	if c.durable == nil {
		return entities.CacheEntry{}, false
	}

	data, err := c.durable.Get(ctx, key.String())
	if err != nil {
		if !errors.Is(err, providers.ErrCacheMiss) {
			observability.LoggerFromContext(ctx).Warn().
				Err(err).
				Str("key", key.String()).
				Msg("durable cache read failed")
		}
		return entities.CacheEntry{}, false
	}

	var entry entities.CacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		observability.LoggerFromContext(ctx).Warn().
			Err(err).
			Str("key", key.String()).
			Msg("discarding unreadable cache entry")
		return entities.CacheEntry{}, false
	}
	return entry, true
}

// Clear removes the given keys from both tiers, or every locale variant when
// no key is given.
func (c *DatasetCache) Clear(ctx context.Context, keys ...entities.CacheKey) {
	if len(keys) == 0 {
		keys = entities.AllCacheKeys()
	}
	for _, key := range keys {
		c.local.Remove(key)
		if c.durable == nil {
			continue
		}
		if err := c.durable.Delete(ctx, key.String()); err != nil {
			observability.LoggerFromContext(ctx).Warn().
				Err(err).
				Str("key", key.String()).
				Msg("durable cache delete failed")
		}
	}
}

func cloneBranches(in []entities.Branch) []entities.Branch {
	if in == nil {
		return nil
	}
	out := make([]entities.Branch, len(in))
	copy(out, in)
	for i := range out {
		out[i].Distance = nil
	}
	return out
}
