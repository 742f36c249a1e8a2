// Package tracepin provides an optional GPIO timing-instrumentation hook.
// Driver authors bringing up this class of protocol on real hardware
// routinely toggle a spare pin at state-machine transitions so the
// microsecond-level invariants around ramp-up, ack windows, and retransmit
// back-off can be captured on a logic analyzer. The core package accepts an
// optional Pin and costs nothing when it is nil.
package tracepin

// Level is the logical level of the trace pin.
type Level bool

const (
	Low  Level = false
	High Level = true
)

// Pin is a minimal GPIO output used purely for timing instrumentation: no
// input, no edge watching, unlike the fuller GPIO abstractions this is
// adapted from.
type Pin interface {
	Set(l Level)
	Toggle()
}
