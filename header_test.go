package esb

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHeaderByteRoundTrip(t *testing.T) {
	h := Header{Rssi: 42, Pipe: 3, Length: 17, PidNoAck: 0x05}
	var b [headerSize]byte
	h.IntoBytes(b[:])
	got := HeaderFromBytes(b[:])
	require.Equal(t, h, got)
}

func TestHeaderPidAndNoAck(t *testing.T) {
	h := Header{PidNoAck: (2 << 1) | 0x01} // pid=2, ack requested
	require.Equal(t, uint8(2), h.Pid())
	require.False(t, h.NoAck())

	h2 := Header{PidNoAck: (1 << 1)} // bit 0 clear: no ack requested
	require.True(t, h2.NoAck())
}

func TestHeaderBuilderRejectsOversizedPipe(t *testing.T) {
	_, err := NewHeaderBuilder(4).Pipe(MaxPipe + 1).Check()
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrInvalidParameters))
}

func TestHeaderBuilderRejectsOverMaxPayload(t *testing.T) {
	_, err := NewHeaderBuilder(250).MaxPayload(32).Check()
	require.ErrorIs(t, err, ErrMaximumPacketExceeded)
}

func TestHeaderBuilderRejectsOversizedPid(t *testing.T) {
	_, err := NewHeaderBuilder(4).Pid(4).Check()
	require.ErrorIs(t, err, ErrInvalidParameters)
}

func TestHeaderBuilderHappyPath(t *testing.T) {
	h, err := NewHeaderBuilder(20).Pipe(3).Pid(2).NoAck(false).Rssi(7).Check()
	require.NoError(t, err)
	require.Equal(t, uint8(20), h.Length)
	require.Equal(t, uint8(3), h.Pipe)
	require.Equal(t, uint8(2), h.Pid())
	require.False(t, h.NoAck())
	require.Equal(t, uint8(7), h.Rssi)
}

func TestPayloadWGrantLengthNeverExceedsRequested(t *testing.T) {
	q := NewFramedQueue(512)
	h, err := NewHeaderBuilder(30).Check()
	require.NoError(t, err)

	wg, err := q.GrantWrite(uint32(headerSize) + uint32(h.Length))
	require.NoError(t, err)
	pw := newPayloadW(wg, h)
	require.LessOrEqual(t, len(pw.Payload()), int(h.Length))
	require.Equal(t, int(h.Length), len(pw.Payload()))
}

func TestPayloadWUpdateHeaderTruncatesOnly(t *testing.T) {
	q := NewFramedQueue(512)
	h, err := NewHeaderBuilder(30).Check()
	require.NoError(t, err)
	wg, err := q.GrantWrite(uint32(headerSize) + uint32(h.Length))
	require.NoError(t, err)
	pw := newPayloadW(wg, h)

	pw.UpdateHeader(Header{Length: 200})
	require.Equal(t, uint8(30), pw.Header().Length, "length must never grow past the original grant")

	pw.UpdateHeader(Header{Length: 5})
	require.Equal(t, uint8(5), pw.Header().Length)
}
