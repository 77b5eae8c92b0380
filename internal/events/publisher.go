package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/openlux/luxd/internal/device"
	"github.com/openlux/luxd/internal/infrastructure/mqtt"
)

// Event types published on luxd/core/event/{type}.
const (
	EventDeviceRegistered   = "device_registered"
	EventDeviceUnregistered = "device_unregistered"
	EventPortPatched        = "port_patched"
	EventPortUnpatched      = "port_unpatched"
)

// Event is the JSON envelope for all published events.
type Event struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

// PatchData is the payload for port patch events.
type PatchData struct {
	Alias    int `json:"alias"`
	Port     int `json:"port"`
	Universe int `json:"universe,omitempty"`
}

// Bus is the subset of the MQTT client the publisher needs.
type Bus interface {
	PublishEvent(topic string, payload []byte) error
	PublishRetained(topic string, payload []byte) error
}

// Recorder is the subset of the InfluxDB client the publisher needs.
type Recorder interface {
	WriteDeviceEvent(event, uniqueID string, alias, pluginID int)
	WritePatchEvent(action string, alias, portID, universeID int)
}

// Logger is the narrow logging interface the publisher depends on.
type Logger interface {
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Warn(string, ...any) {}

// Publisher fans device manager callbacks out to the MQTT bus and the
// telemetry recorder. It implements device.Notifier.
//
// Both sinks are optional: a nil Bus or Recorder is skipped, so the
// daemon can run with either integration disabled. Publish failures are
// logged and swallowed — announcing an event must never fail the
// operation that caused it.
type Publisher struct {
	bus      Bus
	recorder Recorder
	logger   Logger
	topics   mqtt.Topics
}

// NewPublisher creates an event publisher. bus and recorder may be nil.
func NewPublisher(bus Bus, recorder Recorder) *Publisher {
	return &Publisher{
		bus:      bus,
		recorder: recorder,
		logger:   noopLogger{},
	}
}

// SetLogger replaces the no-op logger.
func (p *Publisher) SetLogger(logger Logger) {
	if logger != nil {
		p.logger = logger
	}
}

// DeviceRegistered announces a registration and publishes the retained
// device descriptor.
func (p *Publisher) DeviceRegistered(info device.Info) {
	p.publishEvent(EventDeviceRegistered, info)
	p.publishDescriptor(info)
	if p.recorder != nil {
		p.recorder.WriteDeviceEvent("registered", info.UniqueID, info.Alias, info.PluginID)
	}
}

// DeviceUnregistered announces an unregistration and clears the retained
// device descriptor.
func (p *Publisher) DeviceUnregistered(info device.Info) {
	p.publishEvent(EventDeviceUnregistered, info)
	p.clearDescriptor(info.Alias)
	if p.recorder != nil {
		p.recorder.WriteDeviceEvent("unregistered", info.UniqueID, info.Alias, info.PluginID)
	}
}

// PortPatched announces a port patch.
func (p *Publisher) PortPatched(alias, portID, universeID int) {
	p.publishEvent(EventPortPatched, PatchData{Alias: alias, Port: portID, Universe: universeID})
	if p.recorder != nil {
		p.recorder.WritePatchEvent("patched", alias, portID, universeID)
	}
}

// PortUnpatched announces a port unpatch.
func (p *Publisher) PortUnpatched(alias, portID int) {
	p.publishEvent(EventPortUnpatched, PatchData{Alias: alias, Port: portID})
	if p.recorder != nil {
		p.recorder.WritePatchEvent("unpatched", alias, portID, 0)
	}
}

func (p *Publisher) publishEvent(eventType string, data any) {
	if p.bus == nil {
		return
	}

	payload, err := json.Marshal(Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Data:      data,
	})
	if err != nil {
		p.logger.Warn("failed to marshal event", "type", eventType, "error", err)
		return
	}

	if err := p.bus.PublishEvent(p.topics.CoreEvent(eventType), payload); err != nil {
		p.logger.Warn("failed to publish event", "type", eventType, "error", err)
	}
}

// publishDescriptor keeps a retained copy of the device descriptor on
// the bus so late subscribers see the current rig without a query.
func (p *Publisher) publishDescriptor(info device.Info) {
	if p.bus == nil {
		return
	}

	payload, err := json.Marshal(info)
	if err != nil {
		p.logger.Warn("failed to marshal device descriptor", "alias", info.Alias, "error", err)
		return
	}

	if err := p.bus.PublishRetained(p.topics.CoreDevice(info.Alias), payload); err != nil {
		p.logger.Warn("failed to publish device descriptor", "alias", info.Alias, "error", err)
	}
}

// clearDescriptor removes the retained descriptor. An empty retained
// payload deletes the message at the broker.
func (p *Publisher) clearDescriptor(alias int) {
	if p.bus == nil {
		return
	}

	if err := p.bus.PublishRetained(p.topics.CoreDevice(alias), nil); err != nil {
		p.logger.Warn("failed to clear device descriptor", "alias", alias, "error", err)
	}
}
