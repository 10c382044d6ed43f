package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"occurrences/internal/repository"
)

// KVRepository implements repository.KeyValueStore on the kv table.
type KVRepository struct {
	db *DB
}

// NewKVRepository creates a new SQLite key-value repository.
func NewKVRepository(db *DB) *KVRepository {
	return &KVRepository{db: db}
}

// Get returns the blob stored under key.
func (r *KVRepository) Get(ctx context.Context, key string) ([]byte, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	var value []byte
	err := r.db.Conn().QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get key %s: %w", key, err)
	}
	return value, nil
}

// Put replaces the blob stored under key with a single upsert.
func (r *KVRepository) Put(ctx context.Context, key string, value []byte) error {
	r.db.Lock()
	defer r.db.Unlock()

	_, err := r.db.Conn().ExecContext(ctx, `
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to put key %s: %w", key, err)
	}
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (r *KVRepository) Delete(ctx context.Context, key string) error {
	r.db.Lock()
	defer r.db.Unlock()

	if _, err := r.db.Conn().ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key); err != nil {
		return fmt.Errorf("failed to delete key %s: %w", key, err)
	}
	return nil
}

// Close closes the underlying database.
func (r *KVRepository) Close() error {
	return r.db.Close()
}
