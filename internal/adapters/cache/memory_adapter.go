package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/yashbaviskar01/model-api/internal/domain/providers"
)

// MemoryAdapter is an in-process CacheProvider used when Redis is disabled
type MemoryAdapter struct {
	store *gocache.Cache
}

// NewMemoryAdapter creates a cache whose expired entries are swept every cleanup interval
func NewMemoryAdapter(cleanup time.Duration) providers.CacheProvider {
	return &MemoryAdapter{
		store: gocache.New(gocache.NoExpiration, cleanup),
	}
}

func (a *MemoryAdapter) Get(_ context.Context, key string) ([]byte, error) {
	v, ok := a.store.Get(key)
	if !ok {
		return nil, providers.ErrCacheMiss
	}
	return v.([]byte), nil
}

func (a *MemoryAdapter) Set(_ context.Context, key string, value []byte, expirationSeconds int) error {
	ttl := gocache.NoExpiration
	if expirationSeconds > 0 {
		ttl = time.Duration(expirationSeconds) * time.Second
	}
	buf := make([]byte, len(value))
	copy(buf, value)
	a.store.Set(key, buf, ttl)
	return nil
}

func (a *MemoryAdapter) Delete(_ context.Context, key string) error {
	a.store.Delete(key)
	return nil
}

func (a *MemoryAdapter) Exists(_ context.Context, key string) (bool, error) {
	_, ok := a.store.Get(key)
	return ok, nil
}
