// Package memory implements an in-process key-value store for the catalog
// cache. Contents vanish with the process.
package memory

import (
	"context"
	"sync"
)

// Store implements ports.AtomicKVStore with a map under a mutex.
type Store struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{data: make(map[string][]byte)}
}

// Get returns a copy of the value for key.
func (s *Store) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, true, nil
}

// Set stores a copy of value under key.
func (s *Store) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = clone(value)
	return nil
}

// SetAll writes every entry under one lock.
func (s *Store) SetAll(_ context.Context, entries map[string][]byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range entries {
		s.data[k] = clone(v)
	}
	return nil
}

// Close is a no-op.
func (s *Store) Close() error { return nil }

func clone(v []byte) []byte {
	out := make([]byte, len(v))
	copy(out, v)
	return out
}
