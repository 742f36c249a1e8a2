package esb

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultConfigValidates(t *testing.T) {
	_, err := NewConfig(DefaultConfig())
	require.NoError(t, err)
}

func TestConfigRejectsShortAckTimeout(t *testing.T) {
	c := DefaultConfig()
	c.WaitForAckTimeout = 43
	_, err := NewConfig(c)
	require.ErrorIs(t, err, ErrInvalidParameters)
}

func TestConfigRejectsRetransmitDelayTooCloseToAckTimeout(t *testing.T) {
	c := DefaultConfig()
	c.WaitForAckTimeout = 200
	c.RetransmitDelay = 200 + 62 // must be strictly greater, not equal
	_, err := NewConfig(c)
	require.ErrorIs(t, err, ErrInvalidParameters)
}

func TestConfigRejectsOversizedPayload(t *testing.T) {
	c := DefaultConfig()
	c.MaximumPayloadSize = MaxPayloadSize + 1
	_, err := NewConfig(c)
	require.ErrorIs(t, err, ErrInvalidParameters)
}

func TestConfigBuilderMirrorsNewConfig(t *testing.T) {
	c, err := NewConfigBuilder().
		WaitForAckTimeout(150).
		RetransmitDelay(600).
		MaximumTransmitAttempts(5).
		EnabledPipes(0x03).
		MaximumPayloadSize(64).
		Check()
	require.NoError(t, err)
	require.Equal(t, uint16(150), c.WaitForAckTimeout)
	require.Equal(t, uint8(5), c.MaximumTransmitAttempts)
	require.Equal(t, uint8(0x03), c.EnabledPipes)
}

func TestAddressesRejectChannelAboveMax(t *testing.T) {
	_, err := NewAddresses(0, 0, [4]uint8{}, [4]uint8{}, MaxChannel+1)
	require.ErrorIs(t, err, ErrInvalidParameters)
}

func TestDefaultAddressesPrefixLookup(t *testing.T) {
	a := DefaultAddresses()
	require.Equal(t, uint8(0xE7), a.Prefix(0))
	require.Equal(t, uint8(0xC8), a.Prefix(7))
	require.Equal(t, uint8(2), a.RFChannel())
}

func TestPipeEnabled(t *testing.T) {
	require.True(t, pipeEnabled(0xFF, 0))
	require.True(t, pipeEnabled(0xFF, 7))
	require.False(t, pipeEnabled(0x00, 3))
	require.True(t, pipeEnabled(0b00000100, 2))
}
