//go:build !tinygo

package tracepin

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// periphPin adapts a periph.io gpio.PinIO to Pin, grounded on the Pin
// abstraction this package's sibling core module's teacher (michcald/nrf24)
// uses for its hardware GPIO pins.
type periphPin struct {
	pin   gpio.PinIO
	level Level
}

// New opens name (e.g. "GPIO17") as a trace pin via periph.io's host drivers.
func New(name string) (Pin, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("tracepin: host init: %w", err)
	}
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("tracepin: no such pin %q", name)
	}
	if err := p.Out(gpio.Low); err != nil {
		return nil, fmt.Errorf("tracepin: set output: %w", err)
	}
	return &periphPin{pin: p}, nil
}

func (p *periphPin) Set(l Level) {
	if l == High {
		p.pin.Out(gpio.High)
	} else {
		p.pin.Out(gpio.Low)
	}
	p.level = l
}

func (p *periphPin) Toggle() {
	p.Set(!p.level)
}
