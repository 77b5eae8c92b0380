// Package events announces device registry changes to external
// consumers.
//
// The Publisher implements device.Notifier: the manager invokes it after
// each state change and the publisher fans the event out to the MQTT bus
// (one-shot JSON events plus retained device descriptors) and the
// InfluxDB telemetry recorder. Both sinks are optional and failures are
// never propagated back into the registry.
package events
