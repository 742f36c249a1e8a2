//go:build fastru

package esb

// rampUpTime is the fixed hardware delay between a txen/rxen task and actual
// radio activity when the radio's fast-ramp-up mode is enabled.
const rampUpTime = 40
