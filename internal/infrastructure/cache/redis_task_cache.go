package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fadedindigo/backend/internal/domain/marketplace"
)

// RedisTaskCache implements TaskResultCache and TriggerGuard on Redis.
// This is the store of choice for distributed deployments where status
// polls can land on any instance.
type RedisTaskCache struct {
	client    *redis.Client
	keyPrefix string
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// NewRedisTaskCache creates a Redis-backed task cache and verifies the
// connection
func NewRedisTaskCache(cfg RedisConfig) (*RedisTaskCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisTaskCache{
		client:    client,
		keyPrefix: "sync:",
	}, nil
}

// NewRedisTaskCacheWithClient creates a cache over an existing client.
// Useful for testing or when sharing a client across components.
func NewRedisTaskCacheWithClient(client *redis.Client, keyPrefix string) *RedisTaskCache {
	if keyPrefix == "" {
		keyPrefix = "sync:"
	}
	return &RedisTaskCache{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

// GetJob returns the cached snapshot for the task, or found=false on a miss
func (c *RedisTaskCache) GetJob(ctx context.Context, taskID string) (*marketplace.SyncJob, bool, error) {
	data, err := c.client.Get(ctx, c.taskKey(taskID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cached task result: %w", err)
	}

	var snapshot jobSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		// A corrupt entry is a miss; the repository remains authoritative
		return nil, false, nil
	}
	return snapshot.toJob(), true, nil
}

// PutJob stores a snapshot with a TTL
func (c *RedisTaskCache) PutJob(ctx context.Context, job *marketplace.SyncJob, ttl time.Duration) error {
	data, err := json.Marshal(newJobSnapshot(job))
	if err != nil {
		return fmt.Errorf("failed to encode task result: %w", err)
	}
	if err := c.client.Set(ctx, c.taskKey(job.TaskID), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache task result: %w", err)
	}
	return nil
}

// Reserve claims the platform trigger slot for the window using SETNX so
// exactly one caller wins
func (c *RedisTaskCache) Reserve(ctx context.Context, platform marketplace.Platform, window time.Duration) (bool, error) {
	ok, err := c.client.SetNX(ctx, c.triggerKey(platform), "1", window).Result()
	if err != nil {
		return false, fmt.Errorf("failed to reserve trigger slot: %w", err)
	}
	return ok, nil
}

// Close closes the Redis client
func (c *RedisTaskCache) Close() error {
	return c.client.Close()
}

// GetClient returns the underlying Redis client (for testing/monitoring)
func (c *RedisTaskCache) GetClient() *redis.Client {
	return c.client
}

func (c *RedisTaskCache) taskKey(taskID string) string {
	return c.keyPrefix + "task:" + taskID
}

func (c *RedisTaskCache) triggerKey(platform marketplace.Platform) string {
	return c.keyPrefix + "trigger:" + platform.String()
}

var (
	_ TaskResultCache = (*RedisTaskCache)(nil)
	_ TriggerGuard    = (*RedisTaskCache)(nil)
)
