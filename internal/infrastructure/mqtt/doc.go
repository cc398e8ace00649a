// Package mqtt wraps paho.mqtt.golang for the alarm notification path.
//
// The device is publish-only: it announces its own online/offline status
// (with a Last Will for crash detection), pushes alarm notifications for
// each configured slot, and retains the current panel status for late
// subscribers. Reconnection is automatic with exponential backoff; a
// notification that cannot be delivered is logged and dropped rather
// than blocking the sensor loop.
package mqtt
