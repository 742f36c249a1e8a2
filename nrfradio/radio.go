// Package nrfradio implements this module's RadioPeripheral, TimerPeripheral,
// and InterruptController contracts directly against an nRF52-series SoC's
// own RADIO and TIMER peripherals, via TinyGo's device/nrf register bindings.
// It is grounded on ystepanoff/nrfcomm's driver/nrf/radio.go and
// nrf_driver.go, which program the same PCNF0/PCNF1/CRCCNF register set for
// a simpler fixed-frame protocol; this package generalizes that register
// layout to Enhanced ShockBurst's variable-length, multi-pipe, shortcut-
// driven addressing scheme instead of reimplementing its fixed-frame Tx/Rx.
//
//go:build tinygo

package nrfradio

import (
	"device/nrf"
	"runtime/volatile"
	"unsafe"

	"github.com/nrfesb/esb"
)

// Radio drives an nRF52 RADIO peripheral directly. Callers must call
// StartHFCLK once before the esb package's Buffer.TrySplit initializes it.
type Radio struct {
	buf []byte
}

// New returns a Radio ready to be handed to esb.Buffer.TrySplit.
func New() *Radio { return &Radio{} }

// StartHFCLK starts the high-frequency crystal clock the radio requires,
// blocking until it is stable.
func StartHFCLK() {
	nrf.CLOCK.EVENTS_HFCLKSTARTED.Set(0)
	nrf.CLOCK.TASKS_HFCLKSTART.Set(1)
	for nrf.CLOCK.EVENTS_HFCLKSTARTED.Get() == 0 {
	}
}

func (r *Radio) DisableAllInterrupts() {
	nrf.RADIO.INTENCLR.Set(0xFFFFFFFF)
}

func (r *Radio) SetMode2Mbps() {
	nrf.RADIO.MODE.Set(nrf.RADIO_MODE_MODE_Nrf_2Mbit)
}

func (r *Radio) SetTXPower(power esb.TXPower) {
	nrf.RADIO.TXPOWER.Set(uint32(int8(power)))
}

// SetPacketConfig programs PCNF0/PCNF1 for an Enhanced ShockBurst-style
// frame: an S1 field carrying the 3-bit PID/NO_ACK control field, a length
// field of lengthBits bits, and a 4-byte base address length (4-byte base +
// 1-byte prefix, a 5-byte on-air address).
func (r *Radio) SetPacketConfig(lengthBits uint8) {
	nrf.RADIO.PCNF0.Set(
		(uint32(lengthBits) << nrf.RADIO_PCNF0_LFLEN_Pos) |
			(0 << nrf.RADIO_PCNF0_S0LEN_Pos) |
			(3 << nrf.RADIO_PCNF0_S1LEN_Pos))
	nrf.RADIO.PCNF1.Set(
		(uint32(esb.MaxPayloadSize) << nrf.RADIO_PCNF1_MAXLEN_Pos) |
			(0 << nrf.RADIO_PCNF1_STATLEN_Pos) |
			(4 << nrf.RADIO_PCNF1_BALEN_Pos) |
			(nrf.RADIO_PCNF1_ENDIAN_Big << nrf.RADIO_PCNF1_ENDIAN_Pos))
}

func (r *Radio) SetCRC(init uint16, poly uint32) {
	nrf.RADIO.CRCCNF.Set(2 | 1<<8) // 2-byte CRC, skip-address
	nrf.RADIO.CRCINIT.Set(uint32(init))
	nrf.RADIO.CRCPOLY.Set(poly)
}

func (r *Radio) SetBaseAddress0(v uint32) { nrf.RADIO.BASE0.Set(v) }
func (r *Radio) SetBaseAddress1(v uint32) { nrf.RADIO.BASE1.Set(v) }

func (r *Radio) SetPrefixes0(prefixes [4]uint8) {
	nrf.RADIO.PREFIX0.Set(packPrefixes(prefixes))
}

func (r *Radio) SetPrefixes1(prefixes [4]uint8) {
	nrf.RADIO.PREFIX1.Set(packPrefixes(prefixes))
}

func packPrefixes(p [4]uint8) uint32 {
	return uint32(p[0]) | uint32(p[1])<<8 | uint32(p[2])<<16 | uint32(p[3])<<24
}

func (r *Radio) SetFrequency(channel uint8) { nrf.RADIO.FREQUENCY.Set(uint32(channel)) }

// HasFastRampUp always reports true: every nRF52 RADIO peripheral this
// package targets supports the MODECNF0 fast ramp-up bit.
func (r *Radio) HasFastRampUp() bool { return true }

func (r *Radio) EnableFastRampUp() {
	nrf.RADIO.MODECNF0.SetBits(1 << nrf.RADIO_MODECNF0_RU_Pos)
}

func (r *Radio) SetPacketPointer(buf []byte) {
	r.buf = buf
	nrf.RADIO.PACKETPTR.Set(uint32(uintptr(unsafe.Pointer(&buf[0]))))
}

func (r *Radio) SetTXAddress(pipe uint8) { nrf.RADIO.TXADDRESS.Set(uint32(pipe)) }
func (r *Radio) SetRXAddresses(mask uint8) { nrf.RADIO.RXADDRESSES.Set(uint32(mask)) }

func (r *Radio) shortcutBit(sc esb.Shortcut) uint32 {
	switch sc {
	case esb.ShortcutReadyStart:
		return nrf.RADIO_SHORTS_READY_START
	case esb.ShortcutEndDisable:
		return nrf.RADIO_SHORTS_END_DISABLE
	case esb.ShortcutAddressRSSIStart:
		return nrf.RADIO_SHORTS_ADDRESS_RSSISTART
	case esb.ShortcutDisabledRSSIStop:
		return nrf.RADIO_SHORTS_DISABLED_RSSISTOP
	case esb.ShortcutDisabledRXEn:
		return nrf.RADIO_SHORTS_DISABLED_RXEN
	case esb.ShortcutDisabledTXEn:
		return nrf.RADIO_SHORTS_DISABLED_TXEN
	default:
		return 0
	}
}

func (r *Radio) EnableShortcut(sc esb.Shortcut) {
	nrf.RADIO.SHORTS.SetBits(r.shortcutBit(sc))
}

func (r *Radio) DisableShortcut(sc esb.Shortcut) {
	nrf.RADIO.SHORTS.ClearBits(r.shortcutBit(sc))
}

func (r *Radio) eventBit(ev esb.RadioEvent) uint32 {
	switch ev {
	case esb.EventReady:
		return nrf.RADIO_INTENSET_READY
	case esb.EventAddress:
		return nrf.RADIO_INTENSET_ADDRESS
	case esb.EventDisabled:
		return nrf.RADIO_INTENSET_DISABLED
	case esb.EventEnd:
		return nrf.RADIO_INTENSET_END
	default:
		return 0
	}
}

func (r *Radio) EnableInterrupt(ev esb.RadioEvent)  { nrf.RADIO.INTENSET.Set(r.eventBit(ev)) }
func (r *Radio) DisableInterrupt(ev esb.RadioEvent) { nrf.RADIO.INTENCLR.Set(r.eventBit(ev)) }

func (r *Radio) eventRegister(ev esb.RadioEvent) *volatile.Register32 {
	switch ev {
	case esb.EventReady:
		return &nrf.RADIO.EVENTS_READY
	case esb.EventAddress:
		return &nrf.RADIO.EVENTS_ADDRESS
	case esb.EventDisabled:
		return &nrf.RADIO.EVENTS_DISABLED
	case esb.EventEnd:
		return &nrf.RADIO.EVENTS_END
	default:
		return nil
	}
}

func (r *Radio) ClearEvent(ev esb.RadioEvent) {
	if reg := r.eventRegister(ev); reg != nil {
		reg.Set(0)
	}
}

func (r *Radio) EventIsSet(ev esb.RadioEvent) bool {
	reg := r.eventRegister(ev)
	return reg != nil && reg.Get() != 0
}

func (r *Radio) TriggerTXEnable()  { nrf.RADIO.TASKS_TXEN.Set(1) }
func (r *Radio) TriggerRXEnable()  { nrf.RADIO.TASKS_RXEN.Set(1) }
func (r *Radio) TriggerDisable()   { nrf.RADIO.TASKS_DISABLE.Set(1) }

func (r *Radio) CRCStatus() bool   { return nrf.RADIO.CRCSTATUS.Get() != 0 }
func (r *Radio) RXMatch() uint8    { return uint8(nrf.RADIO.RXMATCH.Get()) }
func (r *Radio) RXCRC() uint16     { return uint16(nrf.RADIO.RXCRC.Get()) }
func (r *Radio) RSSISample() uint8 { return uint8(nrf.RADIO.RSSISAMPLE.Get()) }
