package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultRedisPrefix = "jd-assessment:"

// RedisKVStore keeps values in Redis under a common key prefix.
type RedisKVStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

var _ KVStore = (*RedisKVStore)(nil)

// NewRedisKVStore wraps client. A zero ttl stores keys without expiry.
func NewRedisKVStore(client *redis.Client, ttl time.Duration) *RedisKVStore {
	return &RedisKVStore{
		client: client,
		prefix: defaultRedisPrefix,
		ttl:    ttl,
	}
}

func (s *RedisKVStore) key(k string) string {
	return s.prefix + k
}

func (s *RedisKVStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := s.client.Get(ctx, s.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return data, true, nil
}

func (s *RedisKVStore) Set(ctx context.Context, key string, value []byte) error {
	if err := s.client.Set(ctx, s.key(key), value, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (s *RedisKVStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}
