package database

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/rs/zerolog/log"
	"github.com/yashbaviskar01/model-api/internal/domain/providers"
	"github.com/yashbaviskar01/model-api/internal/domain/repositories"
	"github.com/yashbaviskar01/model-api/internal/infrastructure/observability"
)

// CachedPromptAdapter wraps a PromptRepository with a read-through cache.
// Writes go to the store first and then drop the cached entry.
type CachedPromptAdapter struct {
	adapter repositories.PromptRepository
	cache   providers.CacheProvider
	ttl     int
	metrics *observability.Metrics
}

// NewCachedPromptAdapter creates a cached prompt adapter. ttlSeconds <= 0 caches without expiry.
func NewCachedPromptAdapter(adapter repositories.PromptRepository, cache providers.CacheProvider, ttlSeconds int, metrics *observability.Metrics) *CachedPromptAdapter {
	return &CachedPromptAdapter{
		adapter: adapter,
		cache:   cache,
		ttl:     ttlSeconds,
		metrics: metrics,
	}
}

// PromptCacheKey is the cache key for a prompt object key
func PromptCacheKey(key string) string {
	return "prompt:" + key
}

// Get retrieves an object, consulting the cache first
func (a *CachedPromptAdapter) Get(ctx context.Context, key string) (*repositories.PromptObject, error) {
	cacheKey := PromptCacheKey(key)

	if cached, err := a.cache.Get(ctx, cacheKey); err == nil {
		var obj repositories.PromptObject
		if err := json.Unmarshal(cached, &obj); err == nil {
			observability.RecordCacheHit(ctx, a.metrics, cacheKey)
			return &obj, nil
		}
		log.Warn().Err(err).Str("key", key).Msg("failed to unmarshal cached prompt")
	} else if !errors.Is(err, providers.ErrCacheMiss) {
		log.Warn().Err(err).Str("key", key).Msg("prompt cache unavailable")
	}
	observability.RecordCacheMiss(ctx, a.metrics, cacheKey)

	obj, err := a.adapter.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(obj); err == nil {
		if err := a.cache.Set(ctx, cacheKey, data, a.ttl); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("failed to cache prompt")
		}
	}
	return obj, nil
}

// Put writes through to the store and invalidates the cached copy
func (a *CachedPromptAdapter) Put(ctx context.Context, key, content string) error {
	if err := a.adapter.Put(ctx, key, content); err != nil {
		return err
	}
	a.Invalidate(ctx, key)
	return nil
}

// List is not cached
func (a *CachedPromptAdapter) List(ctx context.Context, prefix string) ([]string, error) {
	return a.adapter.List(ctx, prefix)
}

// Invalidate drops the cached copy of key
func (a *CachedPromptAdapter) Invalidate(ctx context.Context, key string) {
	if err := a.cache.Delete(ctx, PromptCacheKey(key)); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("failed to invalidate cached prompt")
	}
}
