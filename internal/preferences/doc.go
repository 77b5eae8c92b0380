// Package preferences provides namespaced key/value persistence for
// durable daemon state.
//
// Each subsystem asks the Factory for its own namespace and gets a Store
// that caches values in memory between an explicit Load at startup and
// Save at mutation points or shutdown. The device manager keeps its
// port-to-universe patchings in the "port" namespace; the SQLite-backed
// implementation shares the daemon database.
package preferences
