package repository

import (
	"context"
	"slices"
	"time"

	"github.com/patrickmn/go-cache"
)

// MemoryKVStore keeps values in process memory.
type MemoryKVStore struct {
	cache *cache.Cache
}

var _ KVStore = (*MemoryKVStore)(nil)

// NewMemoryKVStore creates a store whose entries expire after ttl; a zero
// ttl keeps them until deleted.
func NewMemoryKVStore(ttl time.Duration) *MemoryKVStore {
	if ttl <= 0 {
		ttl = cache.NoExpiration
	}
	return &MemoryKVStore{
		cache: cache.New(ttl, 10*time.Minute),
	}
}

func (s *MemoryKVStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, found := s.cache.Get(key)
	if !found {
		return nil, false, nil
	}
	return slices.Clone(v.([]byte)), true, nil
}

func (s *MemoryKVStore) Set(_ context.Context, key string, value []byte) error {
	s.cache.SetDefault(key, slices.Clone(value))
	return nil
}

func (s *MemoryKVStore) Delete(_ context.Context, key string) error {
	s.cache.Delete(key)
	return nil
}
