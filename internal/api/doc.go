// Package api provides the HTTP REST API for luxd.
//
// It exposes the device registry and universe store to consoles and
// tooling: listing devices, resolving aliases and unique IDs, patching
// ports to universes and managing universe names and merge modes.
//
// The server follows the same lifecycle pattern as the other
// infrastructure components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
package api
