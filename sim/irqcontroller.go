package sim

import "sync"

// IRQController is a simulated esb.InterruptController. It models the
// NVIC's pending bit for the radio interrupt line: PendRadio sets it,
// UnpendRadio clears it, and a test or example harness loop polls
// RadioPending the way a real firmware main loop polls WFE/pending bits
// before re-entering the interrupt handler.
type IRQController struct {
	mu      sync.Mutex
	pending bool
}

// NewIRQController returns an IRQController with nothing pending.
func NewIRQController() *IRQController { return &IRQController{} }

func (c *IRQController) PendRadio() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = true
}

func (c *IRQController) UnpendRadio() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = false
}

// RadioPending reports whether the radio interrupt line is pending.
func (c *IRQController) RadioPending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending
}

// DrainRadio repeatedly clears the pending flag and invokes fn (the
// IrqHandle's RadioInterrupt) for as long as it is set, simulating the
// tail-chaining that occurs when PendRadio is called again from within
// the handler itself.
func (c *IRQController) DrainRadio(fn func()) {
	for c.RadioPending() {
		c.UnpendRadio()
		fn()
	}
}
