package device

import "errors"

// Sentinel errors. Callers match with errors.Is.
var (
	// ErrNilDevice indicates a nil device was passed to Register.
	ErrNilDevice = errors.New("device: nil device")

	// ErrMissingUniqueID indicates a device reported an empty unique ID.
	ErrMissingUniqueID = errors.New("device: missing unique id")

	// ErrAlreadyRegistered indicates the unique ID is held by a currently
	// connected device.
	ErrAlreadyRegistered = errors.New("device: already registered")

	// ErrNotRegistered indicates the unique ID has no connected device.
	ErrNotRegistered = errors.New("device: not registered")

	// ErrNotFound indicates no connected device holds the given alias.
	ErrNotFound = errors.New("device: not found")

	// ErrPortNotFound indicates the device has no port with the given ID.
	ErrPortNotFound = errors.New("device: port not found")
)
