package cache

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/fadedindigo/backend/internal/infrastructure/config"
)

// TaskCacheFactory creates task caches based on configuration
type TaskCacheFactory struct {
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// TaskCacheFactoryOption is a functional option for configuring the factory
type TaskCacheFactoryOption func(*TaskCacheFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) TaskCacheFactoryOption {
	return func(f *TaskCacheFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to an in-memory cache
// when Redis is unavailable. Default is true.
func WithInMemoryFallback(allow bool) TaskCacheFactoryOption {
	return func(f *TaskCacheFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewTaskCacheFactory creates a new factory
func NewTaskCacheFactory(cfg config.RedisConfig, opts ...TaskCacheFactoryOption) *TaskCacheFactory {
	f := &TaskCacheFactory{
		redisConfig:           cfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// CreateRedisCache creates a Redis-backed task cache
func (f *TaskCacheFactory) CreateRedisCache() (*RedisTaskCache, error) {
	cache, err := NewRedisTaskCache(RedisConfig{
		Host:     f.redisConfig.Host,
		Port:     f.redisConfig.Port,
		Password: f.redisConfig.Password,
		DB:       f.redisConfig.DB,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Redis task cache: %w", err)
	}
	return cache, nil
}

// CreateCache creates a task cache, preferring Redis and falling back to
// in-memory when Redis is unavailable and fallback is allowed. Both
// returned implementations also serve as the trigger guard.
func (f *TaskCacheFactory) CreateCache() (TaskResultCache, TriggerGuard, error) {
	cache, err := f.CreateRedisCache()
	if err == nil {
		f.logger.Info("using Redis task cache")
		return cache, cache, nil
	}

	if !f.allowInMemoryFallback {
		return nil, nil, fmt.Errorf("Redis required for task cache but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory task cache. "+
		"Status polls and trigger dedup will not be shared across instances.",
		zap.Error(err),
	)
	mem := NewInMemoryTaskCache()
	return mem, mem, nil
}
