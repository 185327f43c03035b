package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteFieldSample records one observed field value for a device.
//
// Samples land in the device_state measurement tagged by device and field
// name. Booleans are stored as 0/1 and numbers as floats, so a field keeps
// one value type across its whole series; strings go to a separate column.
//
// Non-blocking: the point is batched and sent asynchronously.
func (c *Client) WriteFieldSample(deviceID, field string, value any) {
	if !c.IsConnected() {
		return
	}

	fields := make(map[string]interface{}, 1)
	switch v := value.(type) {
	case bool:
		if v {
			fields["value"] = 1.0
		} else {
			fields["value"] = 0.0
		}
	case int:
		fields["value"] = float64(v)
	case int64:
		fields["value"] = float64(v)
	case float64:
		fields["value"] = v
	case string:
		fields["value_str"] = v
	default:
		return // unsampleable type
	}

	point := write.NewPoint(
		"device_state",
		map[string]string{
			"device_id": deviceID,
			"field":     field,
		},
		fields,
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point with full control over tags and fields.
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	c.writeAPI.WritePoint(write.NewPoint(measurement, tags, fields, time.Now()))
}
