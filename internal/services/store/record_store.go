package store

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

// RecordStore owns the canonical list of records. The list lives in memory and
// is written as one blob under repository.RecordsKey after every mutation.
// Every accessor hands out copies.
type RecordStore struct {
	kv       repository.KeyValueStore
	notifier notify.Notifier
	logger   *logger.Logger

	mu      sync.RWMutex
	records []model.Record
	lastID  int64
}

// NewRecordStore creates an empty store; call Load to read the durable copy.
func NewRecordStore(kv repository.KeyValueStore, notifier notify.Notifier, logger *logger.Logger) *RecordStore {
	return &RecordStore{
		kv:       kv,
		notifier: notifier,
		logger:   logger,
		records:  []model.Record{},
	}
}

// Load replaces the in-memory list with the durable one. A missing key is an
// empty store; an unreadable or corrupt blob is reported and also yields an
// empty store, so startup never fails here.
func (s *RecordStore) Load(ctx context.Context) []model.Record {
	records, err := s.read(ctx)
	if err != nil {
		s.logger.Error("Error loading records: %v", err)
		s.notifier.Notify("Failed to load data: "+err.Error(), notify.Error)
		records = []model.Record{}
	}

	s.replace(records)
	return s.All()
}

// LoadStrict is Load for tools that go on to write: a failed read is returned
// and the in-memory list is left untouched, so nothing overwrites the blob.
func (s *RecordStore) LoadStrict(ctx context.Context) error {
	records, err := s.read(ctx)
	if err != nil {
		return err
	}
	s.replace(records)
	return nil
}

func (s *RecordStore) replace(records []model.Record) {
	s.mu.Lock()
	s.records = records
	s.lastID = 0
	for _, r := range records {
		if r.ID > s.lastID {
			s.lastID = r.ID
		}
	}
	s.mu.Unlock()

	s.logger.Info("Loaded %d records", len(records))
}

func (s *RecordStore) read(ctx context.Context) ([]model.Record, error) {
	data, err := s.kv.Get(ctx, repository.RecordsKey)
	if errors.Is(err, repository.ErrKeyNotFound) {
		return []model.Record{}, nil
	}
	if err != nil {
		return nil, &model.PersistenceError{Op: "read", Key: repository.RecordsKey, Err: err}
	}

	var records []model.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, &model.PersistenceError{Op: "decode", Key: repository.RecordsKey, Err: err}
	}
	if records == nil {
		records = []model.Record{}
	}
	return records, nil
}

// Add appends a fully populated record and persists the whole list.
func (s *RecordStore) Add(ctx context.Context, record model.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = append(s.records, record.Clone())
	if record.ID > s.lastID {
		s.lastID = record.ID
	}
	return s.persistLocked(ctx)
}

// UpdateStatus sets the status of record id. Unknown ids are ignored.
func (s *RecordStore) UpdateStatus(ctx context.Context, id int64, status model.Status) error {
	if !status.Valid() {
		return &model.ValidationError{Field: "status", Err: fmt.Errorf("unknown status %q", status)}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		return nil
	}
	s.records[i].Status = status
	return s.persistLocked(ctx)
}

// Delete removes record id. Unknown ids are ignored.
func (s *RecordStore) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		return nil
	}
	s.records = append(s.records[:i:i], s.records[i+1:]...)
	return s.persistLocked(ctx)
}

// Import adds records whose ids are not present yet and persists once.
func (s *RecordStore) Import(ctx context.Context, records []model.Record) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	added := 0
	for _, r := range records {
		if s.indexLocked(r.ID) >= 0 {
			continue
		}
		s.records = append(s.records, r.Clone())
		if r.ID > s.lastID {
			s.lastID = r.ID
		}
		added++
	}
	if added == 0 {
		return 0, nil
	}
	return added, s.persistLocked(ctx)
}

// Persist writes the whole list under the records key.
func (s *RecordStore) Persist(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.persistLocked(ctx)
}

// persistLocked must be called with s.mu held. On failure the in-memory list
// is kept and the divergence is only reported.
func (s *RecordStore) persistLocked(ctx context.Context) error {
	data, err := json.Marshal(s.records)
	if err != nil {
		err = &model.PersistenceError{Op: "encode", Key: repository.RecordsKey, Err: err}
	} else if werr := s.kv.Put(ctx, repository.RecordsKey, data); werr != nil {
		err = &model.PersistenceError{Op: "write", Key: repository.RecordsKey, Err: werr}
	}
	if err != nil {
		s.logger.Error("Error saving records: %v", err)
		s.notifier.Notify("Failed to save data: "+err.Error(), notify.Error)
		return err
	}
	return nil
}

// All returns a copy of every record in insertion order.
func (s *RecordStore) All() []model.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Record, len(s.records))
	for i, r := range s.records {
		out[i] = r.Clone()
	}
	return out
}

// Get returns a copy of record id.
func (s *RecordStore) Get(id int64) (model.Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexLocked(id)
	if i < 0 {
		return model.Record{}, false
	}
	return s.records[i].Clone(), true
}

// Len returns the number of records.
func (s *RecordStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// NextID returns a millisecond timestamp id that is strictly greater than any
// id handed out or loaded before, so two captures in the same millisecond
// never collide.
func (s *RecordStore) NextID(now time.Time) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := now.UnixMilli()
	if id <= s.lastID {
		id = s.lastID + 1
	}
	s.lastID = id
	return id
}

func (s *RecordStore) indexLocked(id int64) int {
	for i := range s.records {
		if s.records[i].ID == id {
			return i
		}
	}
	return -1
}
