// Package conversions turns one revolution of sensor data into wire
// messages.
//
// Every routine is a pure, synchronous transform: inputs are borrowed for
// the duration of the call, outputs are freshly allocated and owned by the
// caller on return. Calls for different revolutions may run concurrently as
// long as each gets its own input buffer.
package conversions
