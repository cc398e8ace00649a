package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteInputEdge records a falling edge on an input line.
//
// The write is non-blocking; data is batched and sent asynchronously.
func (c *Client) WriteInputEdge(deviceID string, line int) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"input_edges",
		map[string]string{
			"device_id": deviceID,
		},
		map[string]interface{}{
			"line": line,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WritePulse records a siren pulse with its duration.
func (c *Client) WritePulse(deviceID string, duration time.Duration) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"siren_pulses",
		map[string]string{
			"device_id": deviceID,
		},
		map[string]interface{}{
			"duration_ms": duration.Milliseconds(),
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteAuthOutcome records an authentication attempt result.
//
// Tags stay low cardinality: the outcome, not the username.
func (c *Client) WriteAuthOutcome(deviceID string, success bool, lockedOut bool) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"auth_attempts",
		map[string]string{
			"device_id": deviceID,
		},
		map[string]interface{}{
			"success":    success,
			"locked_out": lockedOut,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteSessionValidity records a periodic sample of whether a portal
// session is currently active.
func (c *Client) WriteSessionValidity(deviceID string, valid bool) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"session_validity",
		map[string]string{
			"device_id": deviceID,
		},
		map[string]interface{}{
			"valid": valid,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point with full control over tags and fields.
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, time.Now())
	c.writeAPI.WritePoint(point)
}
