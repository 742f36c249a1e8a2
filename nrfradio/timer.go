//go:build tinygo

package nrfradio

import (
	"device/nrf"

	"github.com/nrfesb/esb"
)

// Timer drives one of the SoC's TIMER peripherals in 1MHz counter mode,
// giving this package's esb.TimerPeripheral microsecond resolution. Channel
// 0 is reserved for Capture/Clear; channels 1 and 2 back
// esb.TimerChannelRetransmit and esb.TimerChannelAckTimeout respectively.
type Timer struct {
	hw *nrf.TIMER_Type
}

// NewTimer wraps an nRF52 TIMER peripheral instance, e.g. nrf.TIMER1.
func NewTimer(hw *nrf.TIMER_Type) *Timer { return &Timer{hw: hw} }

func (t *Timer) Init() {
	t.hw.TASKS_STOP.Set(1)
	t.hw.MODE.Set(nrf.TIMER_MODE_MODE_Timer)
	t.hw.BITMODE.Set(nrf.TIMER_BITMODE_BITMODE_32Bit)
	t.hw.PRESCALER.Set(4) // 16MHz / 2^4 = 1MHz
	t.hw.TASKS_CLEAR.Set(1)
	t.hw.EVENTS_COMPARE[1].Set(0)
	t.hw.EVENTS_COMPARE[2].Set(0)
}

func (t *Timer) Clear() { t.hw.TASKS_CLEAR.Set(1) }
func (t *Timer) Start() { t.hw.TASKS_START.Set(1) }
func (t *Timer) Stop()  { t.hw.TASKS_STOP.Set(1) }

func (t *Timer) Capture() uint32 {
	t.hw.TASKS_CAPTURE[0].Set(1)
	return t.hw.CC[0].Get()
}

func (t *Timer) channel(ch esb.TimerChannel) int {
	if ch == esb.TimerChannelRetransmit {
		return 1
	}
	return 2
}

func (t *Timer) SetCompare(ch esb.TimerChannel, micros uint32) {
	idx := t.channel(ch)
	t.hw.CC[idx].Set(t.hw.CC[0].Get() + micros)
}

func (t *Timer) ClearCompareEvent(ch esb.TimerChannel) {
	t.hw.EVENTS_COMPARE[t.channel(ch)].Set(0)
}

func (t *Timer) CompareEventIsSet(ch esb.TimerChannel) bool {
	return t.hw.EVENTS_COMPARE[t.channel(ch)].Get() != 0
}
