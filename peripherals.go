package esb

// RadioPeripheral is the hardware abstraction contract this driver consumes
// (spec.md §6). Concrete register programming is explicitly out of scope
// for this package; implementations live in subpackages such as nrfradio
// (real nRF5 RADIO registers, TinyGo only) and sim (host-side simulation).
//
// Implementations are expected to be a thin, mostly-mechanical translation
// of these calls into register writes; none of the methods here are
// expected to block beyond a single register access.
type RadioPeripheral interface {
	// DisableAllInterrupts disarms every radio event interrupt. Called
	// first during wrapper Init.
	DisableAllInterrupts()
	// SetMode2Mbps selects the fixed 2 Mbps air rate.
	SetMode2Mbps()
	// SetTXPower programs the transmit power level.
	SetTXPower(power TXPower)
	// SetPacketConfig sets the length-field width (6 or 8 bits per the
	// nRF24L01+-compatibility rule in spec.md §4.2), address length, and
	// big-endian field order.
	SetPacketConfig(lengthBits uint8)
	// SetCRC programs the 16-bit CRC initial value and polynomial.
	SetCRC(init uint16, poly uint32)
	// SetBaseAddress0 and SetBaseAddress1 program the bit-swapped base
	// addresses (pipe 0, and pipes 1-7 respectively); the wrapper has
	// already applied the bit/byte reversal spec.md §4.2 and §6 require.
	SetBaseAddress0(v uint32)
	SetBaseAddress1(v uint32)
	// SetPrefixes0 and SetPrefixes1 program the bit-reversed address
	// prefixes for pipes 0-3 and 4-7 respectively.
	SetPrefixes0(prefixes [4]uint8)
	SetPrefixes1(prefixes [4]uint8)
	// SetFrequency programs the RF channel.
	SetFrequency(channel uint8)
	// HasFastRampUp reports whether this peripheral supports fast
	// ramp-up; EnableFastRampUp turns it on when it does.
	HasFastRampUp() bool
	EnableFastRampUp()

	// SetPacketPointer points the DMA engine at buf for the next
	// transfer.
	SetPacketPointer(buf []byte)

	// SetTXAddress selects which pipe's address is used for the next
	// transmission.
	SetTXAddress(pipe uint8)

	// SetRXAddresses selects which pipe addresses the radio matches
	// against while receiving; each set bit enables that pipe.
	SetRXAddresses(mask uint8)

	// EnableShortcut and DisableShortcut toggle one hardware short-cut.
	EnableShortcut(sc Shortcut)
	DisableShortcut(sc Shortcut)

	// EnableInterrupt and DisableInterrupt arm/disarm one radio event's
	// interrupt.
	EnableInterrupt(ev RadioEvent)
	DisableInterrupt(ev RadioEvent)

	// ClearEvent clears one latched radio event.
	ClearEvent(ev RadioEvent)
	// EventIsSet reports whether an event is currently latched.
	EventIsSet(ev RadioEvent) bool

	// TriggerTXEnable and TriggerRXEnable start a transmission or
	// reception via the txen/rxen tasks.
	TriggerTXEnable()
	TriggerRXEnable()
	// TriggerDisable requests the radio disable task.
	TriggerDisable()

	// CRCStatus reports whether the last received packet's CRC matched.
	CRCStatus() bool
	// RXMatch returns the pipe whose address matched the last reception.
	RXMatch() uint8
	// RXCRC returns the 16-bit CRC of the last reception.
	RXCRC() uint16
	// RSSISample returns the received signal strength of the last
	// reception, in the units spec.md §3 assigns to Header.Rssi.
	RSSISample() uint8
}

// TimerPeripheral is the microsecond-resolution timer contract this driver
// consumes (spec.md §6): 1 MHz resolution, two compare channels.
type TimerPeripheral interface {
	// Init configures 1 MHz, 32-bit mode and stops both compare channels.
	Init()
	// Clear resets the timer's count to zero.
	Clear()
	// Start and Stop run or halt the timer.
	Start()
	Stop()
	// Capture latches the current count and returns it, used to arm a
	// relative compare deadline.
	Capture() uint32
	// SetCompare arms channel ch to fire micros after the value last
	// captured (or after Clear, if Capture was never called).
	SetCompare(ch TimerChannel, micros uint32)
	// ClearCompareEvent clears one channel's compare event without
	// stopping the timer.
	ClearCompareEvent(ch TimerChannel)
	// CompareEventIsSet reports whether a channel's compare event is
	// latched.
	CompareEventIsSet(ch TimerChannel) bool
}

// InterruptController provides the radio-interrupt pend/unpend primitives
// the timer ISR uses to hand off to the radio ISR in a single dispatch
// context (spec.md §6, §4.3).
type InterruptController interface {
	PendRadio()
	UnpendRadio()
}

// RadioEvent identifies one of the radio peripheral's hardware events.
type RadioEvent uint8

const (
	EventReady RadioEvent = iota
	EventAddress
	EventDisabled
	EventEnd
)

// Shortcut identifies one of the radio peripheral's hardware event→task
// chains (spec.md §4.2, §9).
type Shortcut uint8

const (
	ShortcutReadyStart Shortcut = iota
	ShortcutEndDisable
	ShortcutAddressRSSIStart
	ShortcutDisabledRSSIStop
	ShortcutDisabledRXEn
	ShortcutDisabledTXEn
)

// TimerChannel identifies one of the timer peripheral's two compare
// channels.
type TimerChannel uint8

const (
	// TimerChannelRetransmit is channel 0 (spec.md §6).
	TimerChannelRetransmit TimerChannel = iota
	// TimerChannelAckTimeout is channel 1.
	TimerChannelAckTimeout
)
