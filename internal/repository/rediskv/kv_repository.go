package rediskv

import (
	"context"
	"errors"
	"fmt"
	"time"

	"occurrences/internal/repository"

	"github.com/go-redis/redis/v8"
)

// KVRepository implements repository.KeyValueStore on a Redis instance.
// Keys are namespaced with a prefix so several installs can share one server.
type KVRepository struct {
	client *redis.Client
	prefix string
}

// New connects to Redis and verifies the connection.
func New(ctx context.Context, address, password string, db int, prefix string) (*KVRepository, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})

	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", address, err)
	}

	return &KVRepository{client: client, prefix: prefix}, nil
}

// Get returns the blob stored under key.
func (r *KVRepository) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, repository.ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get key %s: %w", key, err)
	}
	return value, nil
}

// Put replaces the blob stored under key. SET is atomic for a single key.
func (r *KVRepository) Put(ctx context.Context, key string, value []byte) error {
	if err := r.client.Set(ctx, r.prefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("failed to put key %s: %w", key, err)
	}
	return nil
}

// Delete removes key.
func (r *KVRepository) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.prefix+key).Err(); err != nil {
		return fmt.Errorf("failed to delete key %s: %w", key, err)
	}
	return nil
}

// Close closes the client connection pool.
func (r *KVRepository) Close() error {
	return r.client.Close()
}
