// Package notify turns alarm triggers into outbound notifications.
//
// On each trigger the notifier reads the configured phone/message slots
// and publishes one JSON message per non-empty slot to the alarm notify
// topic, plus a retained last-alarm summary. Delivery is best effort:
// failures are logged and never propagate back into the sensor loop.
package notify
