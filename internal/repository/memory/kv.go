// Package memory holds an in-process KeyValueStore used by tests and the import tool's dry runs.
package memory

import (
	"context"
	"sync"

	"occurrences/internal/repository"
)

// KV is a map-backed repository.KeyValueStore. Setting FailWrites or FailReads
// makes the corresponding calls return that error, which simulates a full or
// corrupt device store.
type KV struct {
	mu         sync.RWMutex
	data       map[string][]byte
	FailWrites error
	FailReads  error
	Writes     int
}

// NewKV returns an empty store.
func NewKV() *KV {
	return &KV{data: make(map[string][]byte)}
}

func (s *KV) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.FailReads != nil {
		return nil, s.FailReads
	}
	v, ok := s.data[key]
	if !ok {
		return nil, repository.ErrKeyNotFound
	}
	return append([]byte(nil), v...), nil
}

func (s *KV) Put(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailWrites != nil {
		return s.FailWrites
	}
	s.data[key] = append([]byte(nil), value...)
	s.Writes++
	return nil
}

func (s *KV) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailWrites != nil {
		return s.FailWrites
	}
	delete(s.data, key)
	return nil
}

func (s *KV) Close() error { return nil }

// Raw returns the stored bytes without copying semantics checks; tests use it to inspect blobs.
func (s *KV) Raw(key string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	return v, ok
}
