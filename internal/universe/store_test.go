package universe

import (
	"context"
	"errors"
	"sync"
	"testing"
)

// mockRepository implements Repository for store tests.
type mockRepository struct {
	mu      sync.Mutex
	records []Record
	saved   []Record
	listErr error
	saveErr error
}

func (m *mockRepository) List(_ context.Context) ([]Record, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.records, nil
}

func (m *mockRepository) Save(_ context.Context, rec Record) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.mu.Lock()
	m.saved = append(m.saved, rec)
	m.mu.Unlock()
	return nil
}

func TestGetOrCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("creates with defaults", func(t *testing.T) {
		store := NewStore(nil)

		u, err := store.GetOrCreate(ctx, 5)
		if err != nil {
			t.Fatalf("GetOrCreate(5) error = %v", err)
		}
		if u.ID() != 5 {
			t.Errorf("ID() = %d, want 5", u.ID())
		}
		if u.Name() != "Universe 5" {
			t.Errorf("Name() = %q, want %q", u.Name(), "Universe 5")
		}
		if u.MergeMode() != MergeHTP {
			t.Errorf("MergeMode() = %q, want %q", u.MergeMode(), MergeHTP)
		}
	})

	t.Run("returns existing instance", func(t *testing.T) {
		store := NewStore(nil)

		first, err := store.GetOrCreate(ctx, 1)
		if err != nil {
			t.Fatalf("GetOrCreate(1) error = %v", err)
		}
		second, err := store.GetOrCreate(ctx, 1)
		if err != nil {
			t.Fatalf("GetOrCreate(1) error = %v", err)
		}
		if first != second {
			t.Error("GetOrCreate returned a different instance for the same ID")
		}
		if store.Count() != 1 {
			t.Errorf("Count() = %d, want 1", store.Count())
		}
	})

	t.Run("rejects non-positive IDs", func(t *testing.T) {
		store := NewStore(nil)

		for _, id := range []int{0, -1} {
			if _, err := store.GetOrCreate(ctx, id); !errors.Is(err, ErrInvalidID) {
				t.Errorf("GetOrCreate(%d) error = %v, want ErrInvalidID", id, err)
			}
		}
	})

	t.Run("persists new universes", func(t *testing.T) {
		repo := &mockRepository{}
		store := NewStore(repo)

		if _, err := store.GetOrCreate(ctx, 7); err != nil {
			t.Fatalf("GetOrCreate(7) error = %v", err)
		}

		if len(repo.saved) != 1 {
			t.Fatalf("saved %d records, want 1", len(repo.saved))
		}
		want := Record{ID: 7, Name: "Universe 7", MergeMode: MergeHTP}
		if repo.saved[0] != want {
			t.Errorf("saved record = %+v, want %+v", repo.saved[0], want)
		}
	})

	t.Run("persist failure does not fail creation", func(t *testing.T) {
		repo := &mockRepository{saveErr: errors.New("disk full")}
		store := NewStore(repo)

		u, err := store.GetOrCreate(ctx, 3)
		if err != nil {
			t.Fatalf("GetOrCreate(3) error = %v", err)
		}
		if u == nil {
			t.Fatal("GetOrCreate(3) returned nil universe")
		}
	})
}

func TestLoad(t *testing.T) {
	ctx := context.Background()

	t.Run("populates from repository", func(t *testing.T) {
		repo := &mockRepository{records: []Record{
			{ID: 1, Name: "Stage Left", MergeMode: MergeLTP},
			{ID: 4, Name: "Universe 4", MergeMode: MergeHTP},
		}}
		store := NewStore(repo)

		if err := store.Load(ctx); err != nil {
			t.Fatalf("Load() error = %v", err)
		}

		u, err := store.Get(1)
		if err != nil {
			t.Fatalf("Get(1) error = %v", err)
		}
		if u.Name() != "Stage Left" {
			t.Errorf("Name() = %q, want %q", u.Name(), "Stage Left")
		}
		if u.MergeMode() != MergeLTP {
			t.Errorf("MergeMode() = %q, want %q", u.MergeMode(), MergeLTP)
		}
		if store.Count() != 2 {
			t.Errorf("Count() = %d, want 2", store.Count())
		}
	})

	t.Run("skips invalid IDs and repairs merge modes", func(t *testing.T) {
		repo := &mockRepository{records: []Record{
			{ID: 0, Name: "bogus", MergeMode: MergeHTP},
			{ID: 2, Name: "Universe 2", MergeMode: MergeMode("maximum")},
		}}
		store := NewStore(repo)

		if err := store.Load(ctx); err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if store.Count() != 1 {
			t.Fatalf("Count() = %d, want 1", store.Count())
		}

		u, err := store.Get(2)
		if err != nil {
			t.Fatalf("Get(2) error = %v", err)
		}
		if u.MergeMode() != MergeHTP {
			t.Errorf("MergeMode() = %q, want default %q", u.MergeMode(), MergeHTP)
		}
	})

	t.Run("propagates repository errors", func(t *testing.T) {
		repo := &mockRepository{listErr: errors.New("table missing")}
		store := NewStore(repo)

		if err := store.Load(ctx); err == nil {
			t.Error("Load() error = nil, want error")
		}
	})

	t.Run("nil repository is a no-op", func(t *testing.T) {
		store := NewStore(nil)
		if err := store.Load(ctx); err != nil {
			t.Errorf("Load() error = %v, want nil", err)
		}
	})
}

func TestGet(t *testing.T) {
	store := NewStore(nil)

	if _, err := store.Get(99); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(99) error = %v, want ErrNotFound", err)
	}
}

func TestList(t *testing.T) {
	ctx := context.Background()
	store := NewStore(nil)

	for _, id := range []int{9, 2, 5} {
		if _, err := store.GetOrCreate(ctx, id); err != nil {
			t.Fatalf("GetOrCreate(%d) error = %v", id, err)
		}
	}

	list := store.List()
	if len(list) != 3 {
		t.Fatalf("List() returned %d universes, want 3", len(list))
	}
	for i, wantID := range []int{2, 5, 9} {
		if list[i].ID() != wantID {
			t.Errorf("List()[%d].ID() = %d, want %d", i, list[i].ID(), wantID)
		}
	}
}

func TestSetName(t *testing.T) {
	ctx := context.Background()

	t.Run("renames and persists", func(t *testing.T) {
		repo := &mockRepository{}
		store := NewStore(repo)

		if _, err := store.GetOrCreate(ctx, 1); err != nil {
			t.Fatalf("GetOrCreate(1) error = %v", err)
		}
		if err := store.SetName(ctx, 1, "Front Truss"); err != nil {
			t.Fatalf("SetName() error = %v", err)
		}

		u, _ := store.Get(1)
		if u.Name() != "Front Truss" {
			t.Errorf("Name() = %q, want %q", u.Name(), "Front Truss")
		}
		last := repo.saved[len(repo.saved)-1]
		if last.Name != "Front Truss" {
			t.Errorf("persisted name = %q, want %q", last.Name, "Front Truss")
		}
	})

	t.Run("rejects empty name", func(t *testing.T) {
		store := NewStore(nil)
		if err := store.SetName(ctx, 1, ""); !errors.Is(err, ErrEmptyName) {
			t.Errorf("SetName() error = %v, want ErrEmptyName", err)
		}
	})

	t.Run("unknown universe", func(t *testing.T) {
		store := NewStore(nil)
		if err := store.SetName(ctx, 42, "nope"); !errors.Is(err, ErrNotFound) {
			t.Errorf("SetName() error = %v, want ErrNotFound", err)
		}
	})
}

func TestSetMergeMode(t *testing.T) {
	ctx := context.Background()

	t.Run("changes mode", func(t *testing.T) {
		store := NewStore(nil)
		if _, err := store.GetOrCreate(ctx, 1); err != nil {
			t.Fatalf("GetOrCreate(1) error = %v", err)
		}
		if err := store.SetMergeMode(ctx, 1, MergeLTP); err != nil {
			t.Fatalf("SetMergeMode() error = %v", err)
		}

		u, _ := store.Get(1)
		if u.MergeMode() != MergeLTP {
			t.Errorf("MergeMode() = %q, want %q", u.MergeMode(), MergeLTP)
		}
	})

	t.Run("rejects invalid mode", func(t *testing.T) {
		store := NewStore(nil)
		if _, err := store.GetOrCreate(ctx, 1); err != nil {
			t.Fatalf("GetOrCreate(1) error = %v", err)
		}
		if err := store.SetMergeMode(ctx, 1, MergeMode("average")); !errors.Is(err, ErrInvalidMergeMode) {
			t.Errorf("SetMergeMode() error = %v, want ErrInvalidMergeMode", err)
		}
	})
}

func TestParseMergeMode(t *testing.T) {
	tests := []struct {
		input   string
		want    MergeMode
		wantErr bool
	}{
		{"htp", MergeHTP, false},
		{"ltp", MergeLTP, false},
		{"", "", true},
		{"HTP", "", true},
		{"average", "", true},
	}

	for _, tt := range tests {
		got, err := ParseMergeMode(tt.input)
		if tt.wantErr {
			if !errors.Is(err, ErrInvalidMergeMode) {
				t.Errorf("ParseMergeMode(%q) error = %v, want ErrInvalidMergeMode", tt.input, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseMergeMode(%q) error = %v", tt.input, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseMergeMode(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
