package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteDeviceState archives one accepted device-state emission.
//
// One point per emission, so the series carries the same cadence as the
// MQTT stream: a point per genuine change plus the periodic heartbeat
// re-assertions that keep gap-detection queries honest.
//
// The write is non-blocking; points are batched and sent asynchronously.
// If the client is not connected the point is silently dropped — archiving
// must never stall or fail the publish path.
//
// Parameters:
//   - deviceID: Canonical device identifier (tag)
//   - deviceType: Normalized device type, e.g. "environment_sensor" (tag)
//   - room: Room label, may be empty (tag, omitted when empty)
//   - fields: Field values of the emitted record (numeric and boolean state)
//   - ts: The emission timestamp carried by the published record
func (c *Client) WriteDeviceState(deviceID, deviceType, room string, fields map[string]interface{}, ts time.Time) {
	if !c.IsConnected() {
		return
	}
	if len(fields) == 0 {
		return
	}

	tags := map[string]string{
		"device_id":   deviceID,
		"device_type": deviceType,
	}
	if room != "" {
		tags["room"] = room
	}

	point := write.NewPoint("device_state", tags, fields, ts)
	c.writeAPI.WritePoint(point)
}
