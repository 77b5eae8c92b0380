package preferences

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/openlux/luxd/internal/infrastructure/database"
)

// SQLiteFactory hands out stores backed by the preferences table, one per
// namespace. Stores are cached so repeated Namespace calls share state.
type SQLiteFactory struct {
	db *database.DB

	mu     sync.Mutex
	stores map[string]*SQLiteStore
}

// NewSQLiteFactory creates a factory backed by the given database.
func NewSQLiteFactory(db *database.DB) *SQLiteFactory {
	return &SQLiteFactory{
		db:     db,
		stores: make(map[string]*SQLiteStore),
	}
}

// Namespace returns the store for the given namespace, creating it on
// first use. The returned store is empty until Load is called.
func (f *SQLiteFactory) Namespace(name string) Store {
	f.mu.Lock()
	defer f.mu.Unlock()

	if s, ok := f.stores[name]; ok {
		return s
	}

	s := &SQLiteStore{
		db:        f.db,
		namespace: name,
		values:    make(map[string]string),
	}
	f.stores[name] = s
	return s
}

// SaveAll flushes every store the factory has handed out.
func (f *SQLiteFactory) SaveAll(ctx context.Context) error {
	f.mu.Lock()
	stores := make([]*SQLiteStore, 0, len(f.stores))
	for _, s := range f.stores {
		stores = append(stores, s)
	}
	f.mu.Unlock()

	for _, s := range stores {
		if err := s.Save(ctx); err != nil {
			return err
		}
	}
	return nil
}

// SQLiteStore is one namespace of the preferences table, held in memory
// between Load and Save.
type SQLiteStore struct {
	db        *database.DB
	namespace string

	mu     sync.RWMutex
	values map[string]string
}

// Get returns the value for key, or "" if absent.
func (s *SQLiteStore) Get(key string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.values[key]
}

// Set stores value under key.
func (s *SQLiteStore) Set(key, value string) {
	s.mu.Lock()
	s.values[key] = value
	s.mu.Unlock()
}

// Remove deletes key from the working set.
func (s *SQLiteStore) Remove(key string) {
	s.mu.Lock()
	delete(s.values, key)
	s.mu.Unlock()
}

// Load replaces the working set with the rows persisted for this
// namespace.
func (s *SQLiteStore) Load(ctx context.Context) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key, value FROM preferences WHERE namespace = ?`, s.namespace)
	if err != nil {
		return fmt.Errorf("loading preferences namespace %q: %w", s.namespace, err)
	}
	defer rows.Close()

	values := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return fmt.Errorf("scanning preference row: %w", err)
		}
		values[key] = value
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating preference rows: %w", err)
	}

	s.mu.Lock()
	s.values = values
	s.mu.Unlock()
	return nil
}

// Save replaces the persisted rows for this namespace with the working
// set, in a single transaction.
func (s *SQLiteStore) Save(ctx context.Context) error {
	s.mu.RLock()
	values := make(map[string]string, len(s.values))
	for k, v := range s.values {
		values[k] = v
	}
	s.mu.RUnlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning preferences transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM preferences WHERE namespace = ?`, s.namespace); err != nil {
		return fmt.Errorf("clearing preferences namespace %q: %w", s.namespace, err)
	}

	now := time.Now().UTC().Format(time.RFC3339)
	for key, value := range values {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO preferences (namespace, key, value, updated_at) VALUES (?, ?, ?, ?)`,
			s.namespace, key, value, now); err != nil {
			return fmt.Errorf("writing preference %q: %w", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing preferences namespace %q: %w", s.namespace, err)
	}
	return nil
}
