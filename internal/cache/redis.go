// Package cache stores journal documents in Redis.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/trogers1052/trading-journal/internal/store"
)

// commandTTL bounds how long processed command ids are remembered
const commandTTL = 30 * 24 * time.Hour

// Redis is a store.Backend keeping each document under <prefix>:<key>
type Redis struct {
	client *redis.Client
	prefix string
}

// NewRedis connects to Redis and verifies the connection
func NewRedis(ctx context.Context, addr, password string, db int, prefix string) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}

	return NewRedisWithClient(client, prefix), nil
}

// NewRedisWithClient wraps an existing client
func NewRedisWithClient(client *redis.Client, prefix string) *Redis {
	if prefix == "" {
		prefix = "journal"
	}
	return &Redis{client: client, prefix: prefix}
}

// Load returns the stored document
func (r *Redis) Load(ctx context.Context, key string) ([]byte, error) {
	data, err := r.client.Get(ctx, r.docKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load document %s: %w", key, err)
	}
	return data, nil
}

// Save replaces the stored document
func (r *Redis) Save(ctx context.Context, key string, data []byte) error {
	if err := r.client.Set(ctx, r.docKey(key), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save document %s: %w", key, err)
	}
	return nil
}

// CommandSeen reports whether a consumed command id was already applied
func (r *Redis) CommandSeen(ctx context.Context, commandID string) (bool, error) {
	n, err := r.client.Exists(ctx, r.commandKey(commandID)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check command %s: %w", commandID, err)
	}
	return n > 0, nil
}

// MarkCommand records a command id as applied
func (r *Redis) MarkCommand(ctx context.Context, commandID, source string) error {
	if err := r.client.SetNX(ctx, r.commandKey(commandID), source, commandTTL).Err(); err != nil {
		return fmt.Errorf("failed to mark command %s: %w", commandID, err)
	}
	return nil
}

// Close closes the client
func (r *Redis) Close() error {
	return r.client.Close()
}

func (r *Redis) docKey(key string) string {
	return r.prefix + ":doc:" + key
}

func (r *Redis) commandKey(id string) string {
	return r.prefix + ":cmd:" + id
}
