// Package device tracks the devices plugins register with the daemon and
// owns the mapping between stable unique IDs, session aliases and port
// patchings.
//
// Aliases are small integers assigned in registration order starting at 1.
// An alias, once assigned to a unique ID, is never reassigned for the life
// of the process: a device that disconnects and returns gets its old alias
// back, so clients can keep addressing it mid-session. Alias 0
// (MissingDeviceAlias) is reserved to mean "no such device".
//
// Port patchings are persisted through a preference store and restored on
// registration, so they survive reconnects and daemon restarts.
package device
