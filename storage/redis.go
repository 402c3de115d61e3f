package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var _ Storage = (*Redis)(nil)

// Redis stores every key under a common prefix without expiry.
type Redis struct {
	client *redis.Client
	prefix string
	logger *zap.Logger
}

func NewRedis(client *redis.Client, prefix string, logger *zap.Logger) *Redis {
	return &Redis{
		client: client,
		prefix: prefix,
		logger: logger,
	}
}

func (r *Redis) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := r.client.Get(ctx, r.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		r.logger.Error("Failed to read storage key", zap.String("key", key), zap.Error(err))
		return "", false, fmt.Errorf("failed to get %s: %w", key, err)
	}
	return value, true, nil
}

func (r *Redis) Set(ctx context.Context, key, value string) error {
	if err := r.client.Set(ctx, r.key(key), value, 0).Err(); err != nil {
		r.logger.Error("Failed to write storage key", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return nil
}

func (r *Redis) Remove(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.key(key)).Err(); err != nil {
		r.logger.Error("Failed to remove storage key", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("failed to remove %s: %w", key, err)
	}
	return nil
}

func (r *Redis) key(key string) string {
	return r.prefix + key
}
