package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/config"
)

// RedisKeyValueStore implements KeyValueStore on plain Redis strings.
// Multiple instances pointing at one Redis share history.
type RedisKeyValueStore struct {
	client    redis.UniversalClient
	keyPrefix string
}

// NewRedisKeyValueStore connects to Redis and verifies the connection
func NewRedisKeyValueStore(cfg config.RedisConfig) (*RedisKeyValueStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisKeyValueStoreWithClient(client, cfg.KeyPrefix), nil
}

// NewRedisKeyValueStoreWithClient creates a store with an existing client
func NewRedisKeyValueStoreWithClient(client redis.UniversalClient, keyPrefix string) *RedisKeyValueStore {
	return &RedisKeyValueStore{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

// Get returns the value or ErrKeyNotFound
func (s *RedisKeyValueStore) Get(ctx context.Context, key string) ([]byte, error) {
	v, err := s.client.Get(ctx, s.keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, shared.ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %q: %w", key, err)
	}
	return v, nil
}

// Set stores value without expiry
func (s *RedisKeyValueStore) Set(ctx context.Context, key string, value []byte) error {
	if err := s.client.Set(ctx, s.keyPrefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %q: %w", key, err)
	}
	return nil
}

// Delete removes key
func (s *RedisKeyValueStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("redis del %q: %w", key, err)
	}
	return nil
}

// Close closes the Redis client
func (s *RedisKeyValueStore) Close() error {
	return s.client.Close()
}

var _ shared.KeyValueStore = (*RedisKeyValueStore)(nil)
