package mqtt

import "fmt"

// Topic prefixes for the luxd MQTT namespace.
//
// Scheme: luxd/core/{category}/... for daemon-originated traffic and
// luxd/system/... for lifecycle topics.
const (
	// TopicPrefix is the base for all luxd topics.
	TopicPrefix = "luxd"

	// TopicPrefixCore is the base for daemon-originated topics.
	TopicPrefixCore = "luxd/core"

	// TopicPrefixSystem is the base for system lifecycle topics.
	TopicPrefixSystem = "luxd/system"
)

// Topics provides builders for luxd MQTT topics. Using these helpers
// keeps topic naming consistent across the codebase.
type Topics struct{}

// CoreEvent returns the topic for daemon events of the given type.
//
// Example: luxd/core/event/device_registered
func (Topics) CoreEvent(eventType string) string {
	return fmt.Sprintf("%s/event/%s", TopicPrefixCore, eventType)
}

// CoreDevice returns the retained descriptor topic for a device alias.
//
// Example: luxd/core/device/3
func (Topics) CoreDevice(alias int) string {
	return fmt.Sprintf("%s/device/%d", TopicPrefixCore, alias)
}

// CoreUniverse returns the retained descriptor topic for a universe.
//
// Example: luxd/core/universe/5
func (Topics) CoreUniverse(id int) string {
	return fmt.Sprintf("%s/universe/%d", TopicPrefixCore, id)
}

// SystemStatus returns the retained daemon status topic, also used for
// the Last Will and Testament.
//
// Example: luxd/system/status
func (Topics) SystemStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefixSystem)
}

// SystemShutdown returns the topic a supervisor publishes to for a
// remote graceful shutdown.
//
// Example: luxd/system/shutdown
func (Topics) SystemShutdown() string {
	return fmt.Sprintf("%s/shutdown", TopicPrefixSystem)
}

// AllCoreEvents returns a pattern matching every daemon event.
//
// Pattern: luxd/core/event/+
func (Topics) AllCoreEvents() string {
	return fmt.Sprintf("%s/event/+", TopicPrefixCore)
}

// AllCoreDevices returns a pattern matching every device descriptor.
//
// Pattern: luxd/core/device/+
func (Topics) AllCoreDevices() string {
	return fmt.Sprintf("%s/device/+", TopicPrefixCore)
}

// AllTopics returns a pattern matching the whole luxd namespace.
//
// Pattern: luxd/#
func (Topics) AllTopics() string {
	return TopicPrefix + "/#"
}
