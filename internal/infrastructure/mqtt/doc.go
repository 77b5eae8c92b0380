// Package mqtt provides the daemon's connection to the MQTT event bus.
//
// luxd announces device registrations, unregistrations and port patch
// changes over MQTT so consoles and other services can track the rig
// without polling the HTTP API. The package manages:
//
//   - Broker connection with auto-reconnect and exponential backoff
//   - Publishing with QoS guarantees and retained state topics
//   - Subscriptions with wildcard support, restored on reconnect
//   - Last Will and Testament on luxd/system/status for crash detection
//
// Topic scheme:
//
//	luxd/core/event/{type}    one-shot events (device_registered, ...)
//	luxd/core/device/{alias}  retained device descriptors
//	luxd/system/status        retained daemon status + LWT
//
// Usage:
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	topic := mqtt.Topics{}.CoreEvent("device_registered")
//	client.PublishEvent(topic, payload)
package mqtt
