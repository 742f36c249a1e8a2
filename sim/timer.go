package sim

import (
	"sync"

	"github.com/nrfesb/esb"
)

// Timer is a simulated esb.TimerPeripheral. It tracks a free-running
// microsecond counter and two compare channels; a test advances the
// counter explicitly with Advance, or fires a compare event directly
// with Fire to skip simulating elapsed time altogether.
type Timer struct {
	mu sync.Mutex

	running bool
	count   uint32
	compare [2]uint32
	fired   [2]bool
}

// NewTimer returns a stopped, zeroed simulated timer.
func NewTimer() *Timer { return &Timer{} }

func (t *Timer) Init() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.running = false
	t.count = 0
	t.compare = [2]uint32{}
	t.fired = [2]bool{}
}

func (t *Timer) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.count = 0
}

func (t *Timer) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.running = true
}

func (t *Timer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.running = false
}

func (t *Timer) Capture() uint32 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.count
}

func (t *Timer) SetCompare(ch esb.TimerChannel, micros uint32) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.compare[ch] = t.count + micros
}

func (t *Timer) ClearCompareEvent(ch esb.TimerChannel) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.fired[ch] = false
}

func (t *Timer) CompareEventIsSet(ch esb.TimerChannel) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.fired[ch]
}

// Advance moves the counter forward by micros and latches any compare
// channel the new count has reached or passed, simulating the hardware
// counter ticking past a CC register.
func (t *Timer) Advance(micros uint32) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.running {
		return
	}
	t.count += micros
	for ch := range t.compare {
		if t.count >= t.compare[ch] {
			t.fired[ch] = true
		}
	}
}

// Fire latches ch's compare event directly, without advancing the counter.
func (t *Timer) Fire(ch esb.TimerChannel) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.fired[ch] = true
}
