package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"occurrences/internal/logger"
	"occurrences/internal/model"
	"occurrences/internal/repository"
	"occurrences/internal/services/notify"
)

// Entry is an action waiting for network sync. The payload is opaque to the queue.
type Entry struct {
	Payload    json.RawMessage `json:"payload"`
	EnqueuedAt time.Time       `json:"enqueuedAt"`
}

// DrainResult reports what a drain handed to the Syncer.
type DrainResult struct {
	Drained int `json:"drained"`
}

// Queue holds actions pending sync.
type Queue interface {
	Enqueue(ctx context.Context, entry Entry) error
	Drain(ctx context.Context) (DrainResult, error)
	Len() int
}

// Syncer transmits drained entries somewhere. Swapping it is how a real
// networked sync gets plugged in.
type Syncer interface {
	Sync(ctx context.Context, entries []Entry) error
}

// NoopSyncer discards everything it is given.
type NoopSyncer struct{}

func (NoopSyncer) Sync(context.Context, []Entry) error { return nil }

// PersistentQueue keeps its entries under repository.OfflineQueueKey.
type PersistentQueue struct {
	kv       repository.KeyValueStore
	syncer   Syncer
	notifier notify.Notifier
	logger   *logger.Logger

	mu      sync.Mutex
	entries []Entry
}

// NewPersistentQueue creates a queue; a nil syncer means NoopSyncer.
func NewPersistentQueue(kv repository.KeyValueStore, syncer Syncer, notifier notify.Notifier, logger *logger.Logger) *PersistentQueue {
	if syncer == nil {
		syncer = NoopSyncer{}
	}
	return &PersistentQueue{
		kv:       kv,
		syncer:   syncer,
		notifier: notifier,
		logger:   logger,
		entries:  []Entry{},
	}
}

// Load reads the durable queue. Failures are reported and leave the queue empty.
func (q *PersistentQueue) Load(ctx context.Context) {
	entries := []Entry{}
	data, err := q.kv.Get(ctx, repository.OfflineQueueKey)
	switch {
	case errors.Is(err, repository.ErrKeyNotFound):
	case err != nil:
		q.report(&model.PersistenceError{Op: "read", Key: repository.OfflineQueueKey, Err: err})
	default:
		if err := json.Unmarshal(data, &entries); err != nil {
			q.report(&model.PersistenceError{Op: "decode", Key: repository.OfflineQueueKey, Err: err})
			entries = []Entry{}
		}
	}

	q.mu.Lock()
	q.entries = entries
	q.mu.Unlock()
}

// Enqueue appends an entry and persists the queue.
func (q *PersistentQueue) Enqueue(ctx context.Context, entry Entry) error {
	if entry.EnqueuedAt.IsZero() {
		entry.EnqueuedAt = time.Now().UTC()
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	q.entries = append(q.entries, entry)
	return q.persistLocked(ctx)
}

// Drain hands every entry to the Syncer and clears the queue. An empty queue
// is a silent no-op.
func (q *PersistentQueue) Drain(ctx context.Context) (DrainResult, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	n := len(q.entries)
	if n == 0 {
		return DrainResult{}, nil
	}

	q.notifier.Notify(fmt.Sprintf("Syncing %d items...", n), notify.Info)
	if err := q.syncer.Sync(ctx, append([]Entry(nil), q.entries...)); err != nil {
		q.logger.Error("Error syncing offline queue: %v", err)
		q.notifier.Notify("Sync failed: "+err.Error(), notify.Error)
		return DrainResult{}, fmt.Errorf("failed to sync offline queue: %w", err)
	}

	q.entries = []Entry{}
	if err := q.persistLocked(ctx); err != nil {
		return DrainResult{Drained: n}, err
	}

	q.logger.Info("Drained %d offline entries", n)
	q.notifier.Notify("Data synced successfully!", notify.Success)
	return DrainResult{Drained: n}, nil
}

// Len returns the number of pending entries.
func (q *PersistentQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

func (q *PersistentQueue) persistLocked(ctx context.Context) error {
	data, err := json.Marshal(q.entries)
	if err != nil {
		return q.report(&model.PersistenceError{Op: "encode", Key: repository.OfflineQueueKey, Err: err})
	}
	if err := q.kv.Put(ctx, repository.OfflineQueueKey, data); err != nil {
		return q.report(&model.PersistenceError{Op: "write", Key: repository.OfflineQueueKey, Err: err})
	}
	return nil
}

func (q *PersistentQueue) report(err error) error {
	q.logger.Error("Offline queue: %v", err)
	q.notifier.Notify("Failed to save offline queue: "+err.Error(), notify.Error)
	return err
}
