package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteDeviceEvent records a device lifecycle transition.
//
// event is "registered" or "unregistered". Points land in the
// device_events measurement tagged by event type and unique ID, so a
// dashboard can chart flapping hardware per device.
func (c *Client) WriteDeviceEvent(event, uniqueID string, alias, pluginID int) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"device_events",
		map[string]string{
			"event":     event,
			"unique_id": uniqueID,
		},
		map[string]interface{}{
			"alias":     alias,
			"plugin_id": pluginID,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WritePatchEvent records a port patch change.
//
// action is "patched" or "unpatched"; universeID is 0 for unpatch.
func (c *Client) WritePatchEvent(action string, alias, portID, universeID int) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"patch_events",
		map[string]string{
			"action": action,
		},
		map[string]interface{}{
			"alias":    alias,
			"port":     portID,
			"universe": universeID,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteRegistryGauge records point-in-time registry sizes.
func (c *Client) WriteRegistryGauge(deviceCount, universeCount int) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"registry",
		nil,
		map[string]interface{}{
			"device_count":   deviceCount,
			"universe_count": universeCount,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point. Use for measurements the helpers
// don't cover.
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	c.writeAPI.WritePoint(write.NewPoint(measurement, tags, fields, time.Now()))
}

// WritePointWithTime writes a custom point with a specific timestamp.
func (c *Client) WritePointWithTime(measurement string, tags map[string]string, fields map[string]interface{}, timestamp time.Time) {
	if !c.IsConnected() {
		return
	}

	c.writeAPI.WritePoint(write.NewPoint(measurement, tags, fields, timestamp))
}
