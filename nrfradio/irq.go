//go:build tinygo

package nrfradio

import "runtime/interrupt"

// IRQController drives the handler attached via Attach directly from
// PendRadio, with interrupts masked for the duration of the call so it
// observes the same atomicity a real RADIO IRQn entry would. This is
// simpler than self-pending the NVIC (writing ISPR) and equivalent for
// this driver's purposes, since every PendRadio call already happens
// outside interrupt context specifically to invoke the handler.
type IRQController struct {
	handler func()
}

// NewIRQController returns an IRQController with no handler attached.
// Attach must be called with the IrqHandle's RadioInterrupt method before
// any call to PendRadio.
func NewIRQController() *IRQController { return &IRQController{} }

// Attach registers the function PendRadio invokes, typically
// func() { irqHandle.RadioInterrupt() }.
func (c *IRQController) Attach(handler func()) { c.handler = handler }

func (c *IRQController) PendRadio() {
	if c.handler == nil {
		return
	}
	state := interrupt.Disable()
	c.handler()
	interrupt.Restore(state)
}

// UnpendRadio is a no-op: this controller never leaves work latched for
// later, since PendRadio already ran the handler synchronously.
func (c *IRQController) UnpendRadio() {}
