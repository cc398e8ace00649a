// Package sensor runs the alarm-side task of the device: a fixed-period
// polling loop over a bank of active-low inputs that drives a timed
// siren output.
//
// Inputs idle high; a high-to-low transition on any line arms the output
// for a configurable pulse window. Re-triggers during the window extend
// it. The output pin is level-driven every poll iteration, so a missed
// write is corrected on the next tick.
//
// The loop runs independently of the HTTP portal and shares nothing with
// it except an advisory session-validity probe used for periodic status
// logging. I/O backends are pluggable: MemoryInputs/MemoryPin for tests
// and bench setups, Modbus TCP discrete inputs and a single coil for
// field hardware.
package sensor
