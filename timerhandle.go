package esb

import "sync/atomic"

// TimerHandle is the timer-interrupt entry point (spec.md §4.3). It is a
// view over the shared atomic "timer fired" flag; it performs no state
// transitions itself, only signalling the radio-interrupt handler.
type TimerHandle struct {
	timer  TimerPeripheral
	irqCtl InterruptController
	fired  *uint32
}

// TimerInterrupt reads which compare channel fired, clears the matching
// hardware event(s), stores true into the shared atomic flag with release
// ordering, and pends the radio-interrupt line so the state machine runs
// in a single dispatch context.
func (t *TimerHandle) TimerInterrupt() {
	retransmitPending := t.timer.CompareEventIsSet(TimerChannelRetransmit)

	if retransmitPending {
		// Both events are cleared when retransmit fires after ack, to
		// avoid leaving a stale ack event for the next dispatch.
		t.timer.ClearCompareEvent(TimerChannelRetransmit)
		t.timer.ClearCompareEvent(TimerChannelAckTimeout)
	} else {
		t.timer.ClearCompareEvent(TimerChannelAckTimeout)
	}

	atomic.StoreUint32(t.fired, 1)
	t.irqCtl.PendRadio()
}
