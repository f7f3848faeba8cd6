package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"
)

// Redis is a Store backed by a Redis instance, for setups that want trips
// shared across machines.
type Redis struct {
	client *redis.Client
}

// NewRedis connects to the Redis instance at addr and verifies it responds.
func NewRedis(addr string) (*Redis, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}
	return &Redis{client: client}, nil
}

func (r *Redis) Get(key string) ([]byte, error) {
	value, err := r.client.Get(context.Background(), key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read key %s: %w", key, err)
	}
	return value, nil
}

func (r *Redis) Set(key string, value []byte) error {
	if err := r.client.Set(context.Background(), key, value, 0).Err(); err != nil {
		return fmt.Errorf("failed to write key %s: %w", key, err)
	}
	return nil
}

func (r *Redis) Remove(key string) error {
	if err := r.client.Del(context.Background(), key).Err(); err != nil {
		return fmt.Errorf("failed to remove key %s: %w", key, err)
	}
	return nil
}

// Close closes the client connection.
func (r *Redis) Close() error {
	return r.client.Close()
}
