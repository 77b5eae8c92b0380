package preferences

import "context"

// Store is a scoped, string-keyed mapping of durable daemon state.
//
// Mutations (Set, Remove) are applied to an in-memory working set and only
// hit the backing medium on Save. Get on an absent key returns "" — callers
// that need to distinguish absence store non-empty values only, which is
// how the port-patching namespace works (universe IDs are always >= 1).
type Store interface {
	// Get returns the value for key, or "" if the key is absent.
	Get(key string) string

	// Set stores value under key, replacing any previous value.
	Set(key, value string)

	// Remove deletes key. Removing an absent key is a no-op.
	Remove(key string)

	// Load replaces the working set with the persisted state.
	Load(ctx context.Context) error

	// Save flushes the working set to the backing medium.
	Save(ctx context.Context) error
}

// Factory hands out namespace-scoped stores. Calling Namespace twice with
// the same name returns the same Store instance.
type Factory interface {
	Namespace(name string) Store
}
