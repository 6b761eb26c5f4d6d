package store

import (
	"context"
	"maps"
	"slices"
	"sync"
)

// MemoryStore is a map-backed store for tests and previews.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]string)}
}

func (s *MemoryStore) List(_ context.Context, path string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return childNames(path, slices.Collect(maps.Keys(s.data))), nil
}

func (s *MemoryStore) Read(_ context.Context, key string) ([]string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	values, ok := s.data[key]
	return slices.Clone(values), ok, nil
}

func (s *MemoryStore) Write(_ context.Context, key string, values []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if values == nil {
		values = []string{}
	}
	s.data[key] = slices.Clone(values)
	return nil
}
