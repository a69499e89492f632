package cache

import (
	"fmt"

	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// KeyValueStoreFactory creates Redis-backed stores with an optional
// in-memory fallback
type KeyValueStoreFactory struct {
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
	connect               func(config.RedisConfig) (shared.KeyValueStore, error)
}

// KeyValueStoreFactoryOption is a functional option for configuring the factory
type KeyValueStoreFactoryOption func(*KeyValueStoreFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) KeyValueStoreFactoryOption {
	return func(f *KeyValueStoreFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to memory when Redis
// is unavailable. Default is false: history would silently vanish on restart.
func WithInMemoryFallback(allow bool) KeyValueStoreFactoryOption {
	return func(f *KeyValueStoreFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewKeyValueStoreFactory creates a new factory
func NewKeyValueStoreFactory(cfg config.RedisConfig, opts ...KeyValueStoreFactoryOption) *KeyValueStoreFactory {
	f := &KeyValueStoreFactory{
		redisConfig: cfg,
		logger:      zap.NewNop(),
		connect: func(c config.RedisConfig) (shared.KeyValueStore, error) {
			return NewRedisKeyValueStore(c)
		},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// CreateStore returns a Redis store, or an in-memory one when Redis is
// unreachable and fallback is allowed
func (f *KeyValueStoreFactory) CreateStore() (shared.KeyValueStore, error) {
	store, err := f.connect(f.redisConfig)
	if err == nil {
		f.logger.Info("using Redis key-value store", zap.String("addr", f.redisConfig.Addr()))
		return store, nil
	}

	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("redis required for order history but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory order history. "+
		"Past orders will be lost on restart.",
		zap.Error(err),
	)
	return NewInMemoryKeyValueStore(), nil
}
