// Package influxdb is the optional diagnostics sink.
//
// When enabled the device records input edges, siren pulses, and
// authentication outcomes as time-series points. Writes are batched
// and non-blocking; the sensor loop never waits on the network. The
// device runs unchanged when the sink is disabled.
package influxdb
