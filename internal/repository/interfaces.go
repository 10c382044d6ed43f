package repository

import (
	"context"
	"errors"
)

// ErrKeyNotFound is returned by Get when nothing has been written under a key yet.
var ErrKeyNotFound = errors.New("key not found")

// Durable keys used by the service.
const (
	RecordsKey      = "occurrenceItems"
	OfflineQueueKey = "offlineQueue"
	DarkModeKey     = "darkMode"
)

// KeyValueStore defines durable storage of whole blobs under named keys.
// A Put replaces the previous value in a single write.
type KeyValueStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}
