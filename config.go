package esb

// MaxChannel is the highest valid RF channel (spec.md §3: channel ≤ 100).
const MaxChannel = 100

// MaxPayloadSize is the largest payload length the protocol permits.
const MaxPayloadSize = 252

// Addresses holds the base/prefix address configuration for all eight
// pipes. It is immutable after construction; use NewAddresses or
// DefaultAddresses to build one.
type Addresses struct {
	base0     uint32
	base1     uint32
	prefixes0 [4]uint8 // pipes 0-3
	prefixes1 [4]uint8 // pipes 4-7
	rfChannel uint8
}

// NewAddresses validates and constructs an Addresses. rfChannel must be
// <= MaxChannel.
func NewAddresses(base0, base1 uint32, prefixes0, prefixes1 [4]uint8, rfChannel uint8) (Addresses, error) {
	if rfChannel > MaxChannel {
		return Addresses{}, ErrInvalidParameters
	}
	return Addresses{
		base0:     base0,
		base1:     base1,
		prefixes0: prefixes0,
		prefixes1: prefixes1,
		rfChannel: rfChannel,
	}, nil
}

// DefaultAddresses returns the original driver's default address set
// (original_source/src/packet.rs's impl Default for Addresses): base0
// 0xE7E7E7E7, base1 0xC2C2C2C2, prefixes0 [0xE7,0xC2,0xC3,0xC4], prefixes1
// [0xC5,0xC6,0xC7,0xC8], channel 2.
func DefaultAddresses() Addresses {
	a, err := NewAddresses(
		0xE7E7E7E7,
		0xC2C2C2C2,
		[4]uint8{0xE7, 0xC2, 0xC3, 0xC4},
		[4]uint8{0xC5, 0xC6, 0xC7, 0xC8},
		2,
	)
	if err != nil {
		panic("esb: default addresses must validate")
	}
	return a
}

// Base0 returns pipe 0's 4-byte base address.
func (a Addresses) Base0() uint32 { return a.base0 }

// Base1 returns the shared base address for pipes 1-7.
func (a Addresses) Base1() uint32 { return a.base1 }

// Prefix returns the 1-byte address prefix for the given pipe.
func (a Addresses) Prefix(pipe uint8) uint8 {
	if pipe < 4 {
		return a.prefixes0[pipe]
	}
	return a.prefixes1[pipe-4]
}

// RFChannel returns the configured RF channel.
func (a Addresses) RFChannel() uint8 { return a.rfChannel }

// TXPower is the radio's transmit power setting, hardware-specific units
// left to the RadioPeripheral implementation to interpret.
type TXPower int8

// TXPower0dBm is the protocol's default transmit power.
const TXPower0dBm TXPower = 0

// Config holds the tunable protocol parameters validated in spec.md §3.
// Copyable; construct with NewConfig or ConfigBuilder, never by literal,
// so the invariants below always hold.
type Config struct {
	WaitForAckTimeout       uint16
	RetransmitDelay         uint16
	MaximumTransmitAttempts uint8
	EnabledPipes            uint8
	TxPower                 TXPower
	MaximumPayloadSize      uint8
}

// DefaultConfig returns the original driver's default configuration
// (original_source/src/lib.rs's ConfigBuilder defaults, spec.md §6).
func DefaultConfig() Config {
	return Config{
		WaitForAckTimeout:       120,
		RetransmitDelay:         500,
		MaximumTransmitAttempts: 3,
		EnabledPipes:            0xFF,
		TxPower:                 TXPower0dBm,
		MaximumPayloadSize:      252,
	}
}

// check validates the invariants from spec.md §3 and §8's config-validation
// testable property.
func (c Config) check() error {
	if c.WaitForAckTimeout < 44 {
		return ErrInvalidParameters
	}
	if c.RetransmitDelay <= c.WaitForAckTimeout+62 || c.RetransmitDelay <= rampUpTime {
		return ErrInvalidParameters
	}
	if c.MaximumPayloadSize > MaxPayloadSize {
		return ErrInvalidParameters
	}
	return nil
}

// NewConfig validates cfg against spec.md §3's invariants, returning
// ErrInvalidParameters if any is violated.
func NewConfig(cfg Config) (Config, error) {
	if err := cfg.check(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ConfigBuilder is a fluent constructor for Config, mirroring the original
// driver's ConfigBuilder (original_source/src/lib.rs). It starts from
// DefaultConfig and overrides fields one at a time.
type ConfigBuilder struct {
	c Config
}

// NewConfigBuilder starts a builder seeded with the default configuration.
func NewConfigBuilder() ConfigBuilder {
	return ConfigBuilder{c: DefaultConfig()}
}

func (b ConfigBuilder) WaitForAckTimeout(v uint16) ConfigBuilder {
	b.c.WaitForAckTimeout = v
	return b
}

func (b ConfigBuilder) RetransmitDelay(v uint16) ConfigBuilder {
	b.c.RetransmitDelay = v
	return b
}

func (b ConfigBuilder) MaximumTransmitAttempts(v uint8) ConfigBuilder {
	b.c.MaximumTransmitAttempts = v
	return b
}

func (b ConfigBuilder) EnabledPipes(v uint8) ConfigBuilder {
	b.c.EnabledPipes = v
	return b
}

func (b ConfigBuilder) TxPower(v TXPower) ConfigBuilder {
	b.c.TxPower = v
	return b
}

func (b ConfigBuilder) MaximumPayloadSize(v uint8) ConfigBuilder {
	b.c.MaximumPayloadSize = v
	return b
}

// Check finalizes the builder, validating the result.
func (b ConfigBuilder) Check() (Config, error) {
	return NewConfig(b.c)
}

// pipeEnabled reports whether pipe is set in the enabled-pipes bitmask.
func pipeEnabled(enabledPipes uint8, pipe uint8) bool {
	return enabledPipes&(1<<pipe) != 0
}
