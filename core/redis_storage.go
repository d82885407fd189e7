// Package core provides the shared contracts and models of the storefront
// client. This file implements a redis-backed durable storage so that a
// client instance (for example a kiosk frontend) can keep its token/user
// cache on a shared redis instead of the local filesystem.
//
// Keys are namespaced to prevent collisions with other applications on
// the same redis database:
//   - Token:   "storefront:state:token"
//   - Profile: "storefront:state:user"
package core

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const redisNamespace = "storefront:state"

// RedisStorage implements Storage on top of a redis connection
type RedisStorage struct {
	client *redis.Client
	logger Logger
}

// NewRedisStorage connects to redis and verifies the connection.
// The URL uses the standard redis scheme, e.g. redis://localhost:6379/2.
func NewRedisStorage(redisURL string) (*RedisStorage, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisStorage{
		client: client,
		logger: &NoOpLogger{},
	}, nil
}

// SetLogger configures the logger for this storage
func (r *RedisStorage) SetLogger(logger Logger) {
	if logger != nil {
		r.logger = logger
	}
}

func (r *RedisStorage) key(key string) string {
	return redisNamespace + ":" + key
}

func (r *RedisStorage) Get(ctx context.Context, key string) (string, error) {
	value, err := r.client.Get(ctx, r.key(key)).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("redis get failed: %w", err)
	}
	return value, nil
}

func (r *RedisStorage) Set(ctx context.Context, key string, value string) error {
	if err := r.client.Set(ctx, r.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r *RedisStorage) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.key(key)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

// Close releases the redis connection
func (r *RedisStorage) Close() error {
	return r.client.Close()
}

// NewStorage builds the Storage backend selected by the configuration
func NewStorage(cfg StorageConfig) (Storage, error) {
	switch cfg.Provider {
	case "memory":
		return NewMemoryStorage(), nil
	case "redis":
		return NewRedisStorage(cfg.RedisURL)
	case "file", "":
		return NewFileStorage(cfg.Dir)
	default:
		return nil, fmt.Errorf("%w: unknown storage provider %q", ErrInvalidConfiguration, cfg.Provider)
	}
}
