//go:build tinygo

package tracepin

import "machine"

// tinygoPin adapts a machine.Pin to Pin.
type tinygoPin struct {
	pin   machine.Pin
	level Level
}

// New configures pin as a push-pull output trace pin.
func New(pin machine.Pin) Pin {
	pin.Configure(machine.PinConfig{Mode: machine.PinOutput})
	pin.Low()
	return &tinygoPin{pin: pin}
}

func (p *tinygoPin) Set(l Level) {
	if l == High {
		p.pin.High()
	} else {
		p.pin.Low()
	}
	p.level = l
}

func (p *tinygoPin) Toggle() {
	p.Set(!p.level)
}
