// Package sim provides host-side simulated radio, timer, and interrupt
// controller peripherals implementing the esb package's RadioPeripheral,
// TimerPeripheral, and InterruptController contracts. It is grounded on
// ystepanoff/nrfcomm's driver/stub/stub_driver.go (a mutex-protected queue
// standing in for hardware FIFOs) and on the teacher driver's own
// mockPin/mockSPIConn test doubles; unlike stub_driver, which models a
// request/response transport, this models the interrupt-driven register
// set directly, since that is the contract esb.RadioPeripheral exposes.
package sim

import (
	"sync"

	"github.com/nrfesb/esb"
)

// Radio is a simulated esb.RadioPeripheral. Tests and examples drive it by
// writing bytes into the buffer it was last pointed at (via the slice
// returned by PacketPointer, or WriteIncoming) and then calling one of the
// Deliver* methods to stage the next RadioInterrupt dispatch.
type Radio struct {
	mu sync.Mutex

	txPower    esb.TXPower
	lengthBits uint8
	crcInit    uint16
	crcPoly    uint32
	base0      uint32
	base1      uint32
	prefixes0  [4]uint8
	prefixes1  [4]uint8
	frequency  uint8
	fastRampUp bool

	events     map[esb.RadioEvent]bool
	interrupts map[esb.RadioEvent]bool
	shortcuts  map[esb.Shortcut]bool

	packetPtr   []byte
	txAddress   uint8
	rxAddresses uint8

	crcOK   bool
	rxMatch uint8
	rxCRC   uint16
	rssi    uint8

	// TxLog records a copy of the packet pointer's bytes at each
	// TriggerTXEnable call, for test assertions about what was sent.
	TxLog [][]byte
}

// NewRadio returns a simulated radio with fast ramp-up support, ready for
// esb.Buffer.TrySplit to initialize.
func NewRadio() *Radio {
	return &Radio{
		events:     make(map[esb.RadioEvent]bool),
		interrupts: make(map[esb.RadioEvent]bool),
		shortcuts:  make(map[esb.Shortcut]bool),
		fastRampUp: true,
	}
}

func (r *Radio) DisableAllInterrupts() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.interrupts = make(map[esb.RadioEvent]bool)
}

func (r *Radio) SetMode2Mbps() {}

func (r *Radio) SetTXPower(power esb.TXPower) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.txPower = power
}

func (r *Radio) SetPacketConfig(lengthBits uint8) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lengthBits = lengthBits
}

func (r *Radio) SetCRC(init uint16, poly uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.crcInit = init
	r.crcPoly = poly
}

func (r *Radio) SetBaseAddress0(v uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.base0 = v
}

func (r *Radio) SetBaseAddress1(v uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.base1 = v
}

func (r *Radio) SetPrefixes0(prefixes [4]uint8) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.prefixes0 = prefixes
}

func (r *Radio) SetPrefixes1(prefixes [4]uint8) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.prefixes1 = prefixes
}

func (r *Radio) SetFrequency(channel uint8) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frequency = channel
}

func (r *Radio) HasFastRampUp() bool { return r.fastRampUp }

func (r *Radio) EnableFastRampUp() {}

func (r *Radio) SetPacketPointer(buf []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.packetPtr = buf
}

func (r *Radio) SetTXAddress(pipe uint8) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.txAddress = pipe
}

func (r *Radio) SetRXAddresses(mask uint8) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rxAddresses = mask
}

func (r *Radio) EnableShortcut(sc esb.Shortcut) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.shortcuts[sc] = true
}

func (r *Radio) DisableShortcut(sc esb.Shortcut) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.shortcuts[sc] = false
}

func (r *Radio) EnableInterrupt(ev esb.RadioEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.interrupts[ev] = true
}

func (r *Radio) DisableInterrupt(ev esb.RadioEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.interrupts[ev] = false
}

func (r *Radio) ClearEvent(ev esb.RadioEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events[ev] = false
}

func (r *Radio) EventIsSet(ev esb.RadioEvent) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.events[ev]
}

func (r *Radio) TriggerTXEnable() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.packetPtr != nil {
		pkt := make([]byte, len(r.packetPtr))
		copy(pkt, r.packetPtr)
		r.TxLog = append(r.TxLog, pkt)
	}
}

func (r *Radio) TriggerRXEnable() {}

// TriggerDisable simulates the radio's disable latency as instantaneous,
// since there is no real hardware to wait for.
func (r *Radio) TriggerDisable() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events[esb.EventDisabled] = true
}

func (r *Radio) CRCStatus() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.crcOK
}

func (r *Radio) RXMatch() uint8 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rxMatch
}

func (r *Radio) RXCRC() uint16 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rxCRC
}

func (r *Radio) RSSISample() uint8 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rssi
}

// PacketPointer returns the buffer the radio was last pointed at, for a
// test to write simulated on-air bytes into before delivering an event.
func (r *Radio) PacketPointer() []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.packetPtr
}

// WriteIncoming copies pcf into the current packet pointer, simulating the
// DMA engine having written a received packet control field and payload.
func (r *Radio) WriteIncoming(pcf []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	copy(r.packetPtr, pcf)
}

// DeliverReception stages a successful reception: good CRC, the matched
// pipe, the packet's CRC and RSSI, and latches the disabled event so the
// next RadioInterrupt call observes it.
func (r *Radio) DeliverReception(pipe uint8, crc uint16, rssi uint8) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.crcOK = true
	r.rxMatch = pipe
	r.rxCRC = crc
	r.rssi = rssi
	r.events[esb.EventDisabled] = true
}

// DeliverBadCRC stages a failed CRC check and latches the disabled event.
func (r *Radio) DeliverBadCRC() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.crcOK = false
	r.events[esb.EventDisabled] = true
}

// DeliverDisabled latches the disabled event without touching CRC state,
// used for TX-side completions (a sent frame, or an ACK reception already
// staged via DeliverReception).
func (r *Radio) DeliverDisabled() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events[esb.EventDisabled] = true
}
