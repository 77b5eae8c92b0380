package preferences

import (
	"context"
	"sync"
)

// MemoryFactory hands out in-memory stores. Used in tests and when the
// daemon runs without a database.
type MemoryFactory struct {
	mu     sync.Mutex
	stores map[string]*MemoryStore
}

// NewMemoryFactory creates an in-memory preferences factory.
func NewMemoryFactory() *MemoryFactory {
	return &MemoryFactory{stores: make(map[string]*MemoryStore)}
}

// Namespace returns the store for the given namespace, creating it on
// first use.
func (f *MemoryFactory) Namespace(name string) Store {
	f.mu.Lock()
	defer f.mu.Unlock()

	if s, ok := f.stores[name]; ok {
		return s
	}
	s := NewMemoryStore()
	f.stores[name] = s
	return s
}

// MemoryStore is a Store with no backing medium. Load and Save are no-ops.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

// Get returns the value for key, or "" if absent.
func (s *MemoryStore) Get(key string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.values[key]
}

// Set stores value under key.
func (s *MemoryStore) Set(key, value string) {
	s.mu.Lock()
	s.values[key] = value
	s.mu.Unlock()
}

// Remove deletes key.
func (s *MemoryStore) Remove(key string) {
	s.mu.Lock()
	delete(s.values, key)
	s.mu.Unlock()
}

// Load is a no-op.
func (s *MemoryStore) Load(_ context.Context) error { return nil }

// Save is a no-op.
func (s *MemoryStore) Save(_ context.Context) error { return nil }

// Len returns the number of stored keys.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.values)
}
