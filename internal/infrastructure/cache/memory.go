package cache

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
)

const memoryCleanupInterval = 10 * time.Minute

// MemoryStore keeps values in process. Used when no Redis is configured.
type MemoryStore struct {
	items *cache.Cache
}

func NewMemoryStore(defaultTTL time.Duration) *MemoryStore {
	return &MemoryStore{
		items: cache.New(defaultTTL, memoryCleanupInterval),
	}
}

func (s *MemoryStore) Get(_ context.Context, key string) (float64, bool, error) {
	v, ok := s.items.Get(key)
	if !ok {
		return 0, false, nil
	}

	f, ok := v.(float64)

	return f, ok, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, value float64, ttl time.Duration) error {
	s.items.Set(key, value, ttl)
	return nil
}
