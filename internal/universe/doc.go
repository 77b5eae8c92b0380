// Package universe manages the logical signal buses that device ports are
// patched to.
//
// A universe is identified by a positive integer ID; 0 is reserved to mean
// "no universe". The Store creates universes on demand (typically while
// restoring port patchings) with a generated name and HTP merging, and keeps
// them for the life of the process. Names and merge modes persist across
// restarts via the SQLite-backed Repository.
package universe
