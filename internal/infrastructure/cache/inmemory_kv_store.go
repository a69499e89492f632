package cache

import (
	"context"
	"sync"

	"github.com/storefront/backend/internal/domain/shared"
)

// InMemoryKeyValueStore implements KeyValueStore using a map.
// Values do not survive a restart; use it for tests and single runs.
type InMemoryKeyValueStore struct {
	mu      sync.RWMutex
	entries map[string][]byte
}

// NewInMemoryKeyValueStore creates an empty store
func NewInMemoryKeyValueStore() *InMemoryKeyValueStore {
	return &InMemoryKeyValueStore{entries: make(map[string][]byte)}
}

// Get returns a copy of the stored value
func (s *InMemoryKeyValueStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.entries[key]
	if !ok {
		return nil, shared.ErrKeyNotFound
	}
	return append([]byte(nil), v...), nil
}

// Set stores a copy of value
func (s *InMemoryKeyValueStore) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = append([]byte(nil), value...)
	return nil
}

// Delete removes key
func (s *InMemoryKeyValueStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, key)
	return nil
}

// Close is a no-op
func (s *InMemoryKeyValueStore) Close() error {
	return nil
}

// Size returns the number of keys (for testing/monitoring)
func (s *InMemoryKeyValueStore) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

var _ shared.KeyValueStore = (*InMemoryKeyValueStore)(nil)
