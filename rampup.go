//go:build !fastru

package esb

// rampUpTime is the fixed hardware delay between a txen/rxen task and actual
// radio activity for the standard ramp-up mode. Build with the fastru tag to
// select the 40µs fast-ramp-up variant instead.
const rampUpTime = 140
