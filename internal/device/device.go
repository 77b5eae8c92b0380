package device

import (
	"sort"

	"github.com/openlux/luxd/internal/universe"
)

// Device is the capability interface implemented by plugin-owned devices.
//
// Implementations live in the plugins that drive the hardware; the manager
// never constructs devices, it only tracks them. UniqueID must be stable
// across restarts and reconnects (typically derived from a serial number or
// bus address) — it is the key the manager uses to keep aliases and port
// patchings durable. Devices that cannot produce a stable ID are refused.
type Device interface {
	// UniqueID returns the device's globally unique, stable identifier.
	UniqueID() string

	// Name returns a human-readable device name.
	Name() string

	// PluginID identifies the plugin that owns this device.
	PluginID() int

	// Ports returns the device's ports. Order is driver-defined and
	// must stay stable for the device's lifetime.
	Ports() []Port
}

// Port is a single input or output on a device.
type Port interface {
	// ID returns the port's index within its device.
	ID() int

	// UniqueID returns the port's stable identifier, or "" if the port
	// has none. Ports without a unique ID cannot have their patchings
	// persisted.
	UniqueID() string

	// Capability reports whether the port consumes or produces data.
	Capability() PortCapability

	// Universe returns the universe the port is patched to, or nil.
	Universe() *universe.Universe

	// SetUniverse patches the port to a universe. nil unpatches.
	SetUniverse(u *universe.Universe)
}

// PortCapability is the direction of a port.
type PortCapability string

// Port capability constants.
const (
	// CapabilityInput consumes data from a universe and sends it to
	// the hardware.
	CapabilityInput PortCapability = "input"

	// CapabilityOutput produces data from the hardware into a universe.
	CapabilityOutput PortCapability = "output"
)

// Plugin describes the driver that owns a set of devices.
type Plugin struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// PortInfo is a point-in-time descriptor of a port.
type PortInfo struct {
	ID         int            `json:"id"`
	UniqueID   string         `json:"unique_id,omitempty"`
	Capability PortCapability `json:"capability"`
	Universe   int            `json:"universe,omitempty"`
}

// Info is a point-in-time descriptor of a registered device.
type Info struct {
	Alias    int        `json:"alias"`
	UniqueID string     `json:"unique_id"`
	Name     string     `json:"name"`
	PluginID int        `json:"plugin_id"`
	Ports    []PortInfo `json:"ports"`
}

// Describe builds an Info descriptor for a device under the given alias.
// Ports are reported in ID order.
func Describe(alias int, d Device) Info {
	ports := d.Ports()
	infos := make([]PortInfo, 0, len(ports))
	for _, p := range ports {
		pi := PortInfo{
			ID:         p.ID(),
			UniqueID:   p.UniqueID(),
			Capability: p.Capability(),
		}
		if u := p.Universe(); u != nil {
			pi.Universe = u.ID()
		}
		infos = append(infos, pi)
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].ID < infos[j].ID })

	return Info{
		Alias:    alias,
		UniqueID: d.UniqueID(),
		Name:     d.Name(),
		PluginID: d.PluginID(),
		Ports:    infos,
	}
}
