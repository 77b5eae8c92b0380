// Package influxdb records registry telemetry as time-series data.
//
// It wraps the official influxdb-client-go v2 library with the daemon's
// patterns for connection management and non-blocking batched writes.
// luxd uses it for:
//
//   - Device lifecycle events (registrations, unregistrations)
//   - Port patch changes
//   - Registry size gauges
//
// Integration is optional: when disabled in config, Connect returns
// ErrDisabled and the daemon runs without telemetry. Write errors arrive
// asynchronously via SetOnError; writes against a disconnected client
// are silently dropped so telemetry can never stall device handling.
package influxdb
