package universe

import "errors"

// Sentinel errors. Callers match with errors.Is.
var (
	// ErrNotFound indicates no universe exists with the requested ID.
	ErrNotFound = errors.New("universe: not found")

	// ErrInvalidID indicates a non-positive universe ID. ID 0 is reserved
	// to mean "no universe" and negative IDs are never valid.
	ErrInvalidID = errors.New("universe: invalid id")

	// ErrInvalidMergeMode indicates an unrecognised merge mode string.
	ErrInvalidMergeMode = errors.New("universe: invalid merge mode")

	// ErrEmptyName indicates an attempt to rename a universe to "".
	ErrEmptyName = errors.New("universe: empty name")
)
