package esb

import "sync/atomic"

// CRC parameters programmed into the radio peripheral (spec.md §6):
// 16-bit CRC, poly 0x11021, init 0xFFFF.
const (
	crcInit = 0xFFFF
	crcPoly = 0x11021
)

// fenceVar backs releaseFence/acquireFence/seqCstFence below: Go has no
// standalone memory-fence primitive, so these perform a real atomic
// operation purely to get the ordering guarantee sync/atomic documents for
// its Load/Store/Add operations, matching the release/acquire/SeqCst fences
// spec.md §5 requires around DMA grant handover.
var fenceVar uint32

func releaseFence() { atomic.StoreUint32(&fenceVar, atomic.LoadUint32(&fenceVar)+1) }
func acquireFence() { _ = atomic.LoadUint32(&fenceVar) }
func seqCstFence()  { atomic.AddUint32(&fenceVar, 1) }

// bytewiseBitSwap converts a software (MSB-first) 32-bit base address into
// the representation the hardware (which transmits LSB-first) expects, by
// reversing the bit order within each byte while keeping the byte order: a
// full 32-bit bit reversal followed by a byte swap. Grounded on
// original_source/src/peripherals.rs's bytewise_bit_swap.
func bytewiseBitSwap(v uint32) uint32 {
	return swapBytesU32(reverseBitsU32(v))
}

// addressConversion applies the bit reversal alone, used for single-byte
// address prefixes (original_source/src/peripherals.rs's address_conversion).
func addressConversion(v uint8) uint8 {
	return reverseBitsU8(v)
}

func reverseBitsU8(v uint8) uint8 {
	var r uint8
	for i := 0; i < 8; i++ {
		r <<= 1
		r |= v & 1
		v >>= 1
	}
	return r
}

func reverseBitsU32(v uint32) uint32 {
	var r uint32
	for i := 0; i < 32; i++ {
		r <<= 1
		r |= v & 1
		v >>= 1
	}
	return r
}

func swapBytesU32(v uint32) uint32 {
	return v>>24&0xFF | v>>8&0xFF00 | v<<8&0xFF0000 | v<<24&0xFF000000
}

// staticZeroAck is the fallback ACK payload used when no app-provided frame
// is available: a zero-length, zero-pid PCF, per spec.md §4.2 step 4.
var staticZeroAck = [2]byte{0, 0}

// CheckPacketResult is the outcome of radioWrapper.CheckPacket.
type CheckPacketResult uint8

const (
	ResultBadCRC CheckPacketResult = iota
	ResultAck
	ResultNoAck
	ResultRepeatedAck
	ResultRepeatedNoAck
)

// radioWrapper translates protocol intent into hardware operations,
// implementing spec.md §4.2. It holds the in-flight DMA grants and the
// per-pipe duplicate-detection state; it never exposes register state to
// its caller (the protocol state machine in statemachine.go).
type radioWrapper struct {
	radio RadioPeripheral

	// outgoing is the app->radio queue. The wrapper both consumes TX
	// frames handed to it explicitly (Transmit) and, in the PRX role,
	// pops frames from it directly to source ACK payloads (spec.md
	// §4.2 check_packet step 4).
	outgoing *FramedQueue

	txGrant *PayloadR // retained outgoing read-grant, TX or ACK source
	rxGrant *PayloadW // retained incoming write-grant, RX or ACK sink

	lastCRC [8]uint16
	lastPID [8]uint8

	haveCachedPipe bool
	cachedPipe     uint8
}

func newRadioWrapper(radio RadioPeripheral, outgoing *FramedQueue) *radioWrapper {
	return &radioWrapper{radio: radio, outgoing: outgoing}
}

// Init programs the radio for this protocol (spec.md §4.2).
func (w *radioWrapper) Init(maxPayload uint8, txPower TXPower, addresses Addresses) {
	w.radio.DisableAllInterrupts()
	w.radio.SetMode2Mbps()
	w.radio.SetTXPower(txPower)

	lengthBits := uint8(8)
	if maxPayload <= 32 {
		lengthBits = 6
	}
	w.radio.SetPacketConfig(lengthBits)
	w.radio.SetCRC(crcInit, crcPoly)

	w.radio.SetBaseAddress0(bytewiseBitSwap(addresses.Base0()))
	w.radio.SetBaseAddress1(bytewiseBitSwap(addresses.Base1()))

	var prefixes0, prefixes1 [4]uint8
	for i := range prefixes0 {
		prefixes0[i] = addressConversion(addresses.Prefix(uint8(i)))
	}
	for i := range prefixes1 {
		prefixes1[i] = addressConversion(addresses.Prefix(uint8(i + 4)))
	}
	w.radio.SetPrefixes0(prefixes0)
	w.radio.SetPrefixes1(prefixes1)
	w.radio.SetFrequency(addresses.RFChannel())

	if w.radio.HasFastRampUp() {
		w.radio.EnableFastRampUp()
	}

	w.radio.EnableShortcut(ShortcutReadyStart)
	w.radio.EnableShortcut(ShortcutEndDisable)
	w.radio.EnableShortcut(ShortcutAddressRSSIStart)
	w.radio.EnableShortcut(ShortcutDisabledRSSIStop)
}

// Transmit begins sending rg's frame, optionally arming the auto
// turn-around to RX for an expected ACK.
func (w *radioWrapper) Transmit(rg *PayloadR, ackRequested bool) {
	if ackRequested {
		w.radio.EnableShortcut(ShortcutDisabledRXEn)
		w.radio.EnableInterrupt(EventDisabled)
		w.radio.EnableInterrupt(EventReady)
	} else {
		w.radio.EnableInterrupt(EventDisabled)
	}

	pipe := rg.Pipe()
	w.radio.SetTXAddress(pipe)
	w.radio.SetRXAddresses(1 << pipe)
	w.radio.SetPacketPointer(rg.DMAPointer())

	w.radio.ClearEvent(EventDisabled)
	w.radio.ClearEvent(EventReady)
	w.radio.ClearEvent(EventEnd)
	releaseFence()
	w.radio.TriggerTXEnable()

	w.txGrant = rg
}

// PrepareForAck arms the radio to receive an ACK into wg.
func (w *radioWrapper) PrepareForAck(wg *PayloadW) {
	releaseFence()
	w.radio.SetPacketPointer(wg.DMAPointer())
	w.rxGrant = wg
	w.radio.DisableShortcut(ShortcutDisabledRXEn)
}

// CheckAck reports whether the expected ACK arrived with a good CRC. On
// success it releases the held TX grant and commits the ACK into the held
// RX grant; on failure it discards the RX grant and keeps the TX grant so
// the same frame can be retransmitted.
func (w *radioWrapper) CheckAck() bool {
	ok := w.radio.CRCStatus()
	acquireFence()

	if !ok {
		// The TX grant is deliberately kept: a failed ack is a retransmit
		// candidate, and the retry must resend the same frame.
		if w.rxGrant != nil {
			w.rxGrant.Discard()
			w.rxGrant = nil
		}
		return false
	}

	var pipe uint8
	if w.txGrant != nil {
		pipe = w.txGrant.Pipe()
		w.txGrant.Release()
		w.txGrant = nil
	}
	if w.rxGrant != nil {
		w.rxGrant.SyncHeader()
		h := w.rxGrant.Header()
		h.Rssi = w.radio.RSSISample()
		h.Pipe = pipe
		w.rxGrant.UpdateHeader(h)
		w.rxGrant.CommitAll()
		w.rxGrant = nil
	}
	return true
}

// FinishTXNoAck is called when a no-ack transmission's disabled event fires: it
// releases the TX grant and disables the disabled-event interrupt, which
// Transmit re-arms on the next call.
func (w *radioWrapper) FinishTXNoAck() {
	seqCstFence()
	if w.txGrant != nil {
		w.txGrant.Release()
		w.txGrant = nil
	}
	w.radio.DisableInterrupt(EventDisabled)
}

// StartReceiving begins listening for a packet into wg on the given set of
// enabled pipes.
func (w *radioWrapper) StartReceiving(wg *PayloadW, enabledPipes uint8) {
	w.radio.EnableShortcut(ShortcutDisabledTXEn)
	w.radio.EnableInterrupt(EventDisabled)
	w.radio.SetRXAddresses(enabledPipes)
	w.radio.SetPacketPointer(wg.DMAPointer())

	w.radio.ClearEvent(EventDisabled)
	w.radio.ClearEvent(EventReady)
	w.radio.ClearEvent(EventEnd)
	releaseFence()
	w.radio.TriggerRXEnable()

	w.rxGrant = wg
}

// CheckPacket inspects the just-received packet and, if an ACK is
// requested, begins sending one. See spec.md §4.2.
func (w *radioWrapper) CheckPacket() (CheckPacketResult, error) {
	if !w.radio.CRCStatus() {
		// The RX grant is kept: the radio restarts into the same buffer.
		rx := w.rxGrant
		w.rxGrant = nil
		w.Stop()
		w.rxGrant = rx
		w.radio.EnableShortcut(ShortcutDisabledTXEn)
		w.radio.TriggerRXEnable()
		return ResultBadCRC, nil
	}
	acquireFence()

	if w.rxGrant == nil {
		return 0, ErrInternal
	}
	w.rxGrant.SyncHeader()

	pipe := w.radio.RXMatch()
	crc := w.radio.RXCRC()
	pid := w.rxGrant.Pid()
	ackRequested := !w.rxGrant.NoAck()

	repeated := w.lastCRC[pipe] == crc && w.lastPID[pipe] == pid

	if ackRequested {
		w.radio.SetTXAddress(pipe)

		switch {
		case repeated && w.haveCachedPipe && w.cachedPipe == pipe && w.txGrant != nil:
			w.radio.SetPacketPointer(w.txGrant.DMAPointer())
		default:
			if w.txGrant != nil {
				w.txGrant.Release()
				w.txGrant = nil
			}
			if next, err := w.popOutgoing(); err == nil {
				w.txGrant = next
				w.radio.SetPacketPointer(next.DMAPointer())
			} else {
				w.radio.SetPacketPointer(staticZeroAck[:])
			}
		}

		w.radio.DisableShortcut(ShortcutDisabledTXEn)
		w.radio.EnableShortcut(ShortcutDisabledRXEn)
	} else {
		// The RX grant is kept so the reception can still be committed.
		rx := w.rxGrant
		w.rxGrant = nil
		w.Stop()
		w.rxGrant = rx
	}

	if repeated {
		if ackRequested {
			return ResultRepeatedAck, nil
		}
		return ResultRepeatedNoAck, nil
	}

	w.lastCRC[pipe] = crc
	w.lastPID[pipe] = pid
	w.cachedPipe = pipe
	w.haveCachedPipe = true

	if w.rxGrant != nil {
		h := w.rxGrant.Header()
		h.Rssi = w.radio.RSSISample()
		h.Pipe = pipe
		w.rxGrant.UpdateHeader(h)
		w.rxGrant.CommitAll()
		w.rxGrant = nil
	}

	if ackRequested {
		return ResultAck, nil
	}
	return ResultNoAck, nil
}

// CompleteRXAck finishes an ACK transmission. newGrant, if non-nil, becomes
// the grant for the next received packet; otherwise (the repeated-ack
// case) the current grant is kept. The outgoing ACK grant is intentionally
// not released here in case a retransmission follows.
func (w *radioWrapper) CompleteRXAck(newGrant *PayloadW) {
	if newGrant != nil {
		w.rxGrant = newGrant
	}
	seqCstFence()
	if w.rxGrant != nil {
		w.radio.SetPacketPointer(w.rxGrant.DMAPointer())
	}
	w.radio.DisableShortcut(ShortcutDisabledRXEn)
	w.radio.EnableShortcut(ShortcutDisabledTXEn)
}

// CompleteRXNoAck finishes a no-ack reception and resumes listening.
func (w *radioWrapper) CompleteRXNoAck(newGrant *PayloadW) {
	if newGrant != nil {
		w.rxGrant = newGrant
	}
	if w.rxGrant != nil {
		w.radio.SetPacketPointer(w.rxGrant.DMAPointer())
	}
	w.radio.EnableShortcut(ShortcutDisabledTXEn)
	w.radio.EnableInterrupt(EventDisabled)
	w.radio.TriggerRXEnable()
}

// Stop halts all radio activity, releasing both retained grants. The spin
// loop awaiting the disabled event is bounded by one radio disable latency
// (spec.md §5: <5 µs).
func (w *radioWrapper) Stop() {
	w.stopRadioOnly()
	if w.txGrant != nil {
		w.txGrant.Release()
		w.txGrant = nil
	}
}

// stopRadioOnly halts radio activity and discards the RX grant but leaves
// the retained TX grant untouched, for the retransmit path, where the same
// frame must be resent rather than dropped.
func (w *radioWrapper) stopRadioOnly() {
	w.radio.DisableShortcut(ShortcutDisabledRXEn)
	w.radio.DisableShortcut(ShortcutDisabledTXEn)
	w.radio.DisableInterrupt(EventDisabled)
	w.radio.TriggerDisable()
	for !w.radio.EventIsSet(EventDisabled) {
	}
	w.radio.ClearEvent(EventDisabled)

	if w.rxGrant != nil {
		w.rxGrant.Discard()
		w.rxGrant = nil
	}
	acquireFence()
}

// RetryTransmit resumes sending the retained TX grant after a retransmit
// timeout, without popping a new frame from the outgoing queue. Reports
// false if no grant is retained (nothing to retry).
func (w *radioWrapper) RetryTransmit() bool {
	if w.txGrant == nil {
		return false
	}
	ackRequested := !w.txGrant.NoAck()
	w.Transmit(w.txGrant, ackRequested)
	return true
}

// ForgetTxGrant clears the retained TX grant reference without releasing
// it, used when the caller has already released the underlying frame
// through the outgoing queue directly (spec.md §4.3's maximum-attempts
// drop).
func (w *radioWrapper) ForgetTxGrant() {
	w.txGrant = nil
}

// popOutgoing pops the next frame from the app->radio queue, used to source
// ACK payloads in the PRX role.
func (w *radioWrapper) popOutgoing() (*PayloadR, error) {
	g, err := w.outgoing.ReadNext()
	if err != nil {
		return nil, err
	}
	return newPayloadR(g), nil
}
