package universe

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Record is the persisted form of a universe.
type Record struct {
	ID        int
	Name      string
	MergeMode MergeMode
}

// Repository persists universe records. Implementations must be safe for
// concurrent use.
type Repository interface {
	// List returns all persisted universes ordered by ID.
	List(ctx context.Context) ([]Record, error)

	// Save inserts or updates a universe record.
	Save(ctx context.Context, rec Record) error
}

// Logger is the narrow logging interface the store depends on.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any) {}
func (noopLogger) Warn(string, ...any) {}
func (noopLogger) Error(string, ...any) {}

// Store owns the set of live universes.
//
// Universes are created on demand and never destroyed for the lifetime of
// the process: a universe that loses its last patched port keeps its ID,
// name and merge mode so that re-patching restores the same configuration.
// An optional Repository persists records across restarts; with a nil
// repository the store is memory-only.
type Store struct {
	repo   Repository
	logger Logger

	mu        sync.RWMutex
	universes map[int]*Universe
}

// NewStore creates a universe store. repo may be nil for a memory-only
// store (used in tests).
func NewStore(repo Repository) *Store {
	return &Store{
		repo:      repo,
		logger:    noopLogger{},
		universes: make(map[int]*Universe),
	}
}

// SetLogger replaces the no-op logger.
func (s *Store) SetLogger(logger Logger) {
	if logger != nil {
		s.logger = logger
	}
}

// Load populates the store from the repository. Call once at startup,
// before the device manager restores port patchings.
func (s *Store) Load(ctx context.Context) error {
	if s.repo == nil {
		return nil
	}

	records, err := s.repo.List(ctx)
	if err != nil {
		return fmt.Errorf("loading universes: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, rec := range records {
		if rec.ID <= 0 {
			s.logger.Warn("skipping persisted universe with invalid id", "id", rec.ID)
			continue
		}
		mode := rec.MergeMode
		if mode != MergeHTP && mode != MergeLTP {
			s.logger.Warn("persisted universe has invalid merge mode, using default",
				"id", rec.ID, "merge_mode", string(rec.MergeMode))
			mode = DefaultMergeMode
		}
		s.universes[rec.ID] = newUniverse(rec.ID, rec.Name, mode)
	}

	s.logger.Info("universes loaded", "count", len(s.universes))
	return nil
}

// GetOrCreate returns the universe with the given ID, creating it with a
// generated name and the default merge mode if it does not exist yet.
// Returns ErrInvalidID for non-positive IDs.
func (s *Store) GetOrCreate(ctx context.Context, id int) (*Universe, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidID, id)
	}

	s.mu.Lock()
	if u, ok := s.universes[id]; ok {
		s.mu.Unlock()
		return u, nil
	}

	u := newUniverse(id, fmt.Sprintf("Universe %d", id), DefaultMergeMode)
	s.universes[id] = u
	s.mu.Unlock()

	s.logger.Info("universe created", "id", id, "name", u.Name())

	if s.repo != nil {
		if err := s.repo.Save(ctx, Record{ID: id, Name: u.Name(), MergeMode: DefaultMergeMode}); err != nil {
			s.logger.Warn("failed to persist universe", "id", id, "error", err)
		}
	}

	return u, nil
}

// Get returns the universe with the given ID, or ErrNotFound.
func (s *Store) Get(id int) (*Universe, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.universes[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	return u, nil
}

// List returns all universes ordered by ID.
func (s *Store) List() []*Universe {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Universe, 0, len(s.universes))
	for _, u := range s.universes {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}

// Count returns the number of known universes.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.universes)
}

// SetName renames a universe and persists the change.
func (s *Store) SetName(ctx context.Context, id int, name string) error {
	if name == "" {
		return ErrEmptyName
	}

	u, err := s.Get(id)
	if err != nil {
		return err
	}
	u.setName(name)

	return s.persist(ctx, u)
}

// SetMergeMode changes a universe's merge policy and persists the change.
func (s *Store) SetMergeMode(ctx context.Context, id int, mode MergeMode) error {
	if mode != MergeHTP && mode != MergeLTP {
		return fmt.Errorf("%w: %q", ErrInvalidMergeMode, string(mode))
	}

	u, err := s.Get(id)
	if err != nil {
		return err
	}
	u.setMergeMode(mode)

	return s.persist(ctx, u)
}

func (s *Store) persist(ctx context.Context, u *Universe) error {
	if s.repo == nil {
		return nil
	}

	info := u.Info()
	rec := Record{ID: info.ID, Name: info.Name, MergeMode: info.MergeMode}
	if err := s.repo.Save(ctx, rec); err != nil {
		return fmt.Errorf("persisting universe %d: %w", info.ID, err)
	}
	return nil
}
