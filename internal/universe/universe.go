package universe

import (
	"fmt"
	"sync"
)

// MergeMode is the policy for combining multiple sources feeding one universe.
type MergeMode string

// Merge mode constants.
const (
	// MergeHTP takes the highest value from all sources (highest takes priority).
	MergeHTP MergeMode = "htp"

	// MergeLTP takes the most recently changed value (latest takes priority).
	MergeLTP MergeMode = "ltp"
)

// DefaultMergeMode is applied when a universe is created implicitly,
// e.g. while restoring port patchings.
const DefaultMergeMode = MergeHTP

// ParseMergeMode converts a string to a MergeMode.
// Returns ErrInvalidMergeMode for unrecognised values.
func ParseMergeMode(s string) (MergeMode, error) {
	switch MergeMode(s) {
	case MergeHTP, MergeLTP:
		return MergeMode(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidMergeMode, s)
	}
}

// Universe is a logical signal bus that ports are patched to.
//
// Universes are owned by the Store: the device manager and ports hold
// non-owning references and never construct one themselves. The numeric ID
// is fixed at creation; name and merge mode are mutable via the Store.
type Universe struct {
	id int

	mu        sync.RWMutex
	name      string
	mergeMode MergeMode
}

// newUniverse is called by the Store only.
func newUniverse(id int, name string, mode MergeMode) *Universe {
	return &Universe{
		id:        id,
		name:      name,
		mergeMode: mode,
	}
}

// ID returns the universe's numeric identifier. IDs are positive; 0 is
// reserved to mean "no universe".
func (u *Universe) ID() int {
	return u.id
}

// Name returns the display name.
func (u *Universe) Name() string {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.name
}

// MergeMode returns the current merge policy.
func (u *Universe) MergeMode() MergeMode {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.mergeMode
}

func (u *Universe) setName(name string) {
	u.mu.Lock()
	u.name = name
	u.mu.Unlock()
}

func (u *Universe) setMergeMode(mode MergeMode) {
	u.mu.Lock()
	u.mergeMode = mode
	u.mu.Unlock()
}

// Info is the immutable descriptor reported to external callers.
type Info struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	MergeMode MergeMode `json:"merge_mode"`
}

// Info returns a point-in-time descriptor of the universe.
func (u *Universe) Info() Info {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return Info{
		ID:        u.id,
		Name:      u.name,
		MergeMode: u.mergeMode,
	}
}
