package esb

// Header byte layout within a frame, matching spec.md §4.1. Bytes 0-1 are
// software-only bookkeeping never placed on air; bytes 2-3 are the two DMA
// fields the radio peripheral itself reads/writes.
const (
	rssiIdx       = 0
	pipeIdx       = 1
	lengthIdx     = 2 // DMA field
	pidNoAckIdx   = 3 // DMA field
	headerSize    = 4
	dmaPayloadOff = 2 // radio DMA transfers start at the length byte
)

// MaxPipe is the highest valid pipe number (spec.md §3: pipes 0..=7).
const MaxPipe = 7

// Header is the 4-byte control block prefixed to every payload frame.
// Rssi and Pipe are software bookkeeping and never transmitted; Length and
// PidNoAck are read and written by the radio peripheral's DMA engine.
type Header struct {
	Rssi     uint8
	Pipe     uint8
	Length   uint8
	PidNoAck uint8
}

// Pid returns the 2-bit packet id packed into PidNoAck (bits 2-1).
func (h Header) Pid() uint8 {
	return (h.PidNoAck >> 1) & 0x03
}

// NoAck reports whether the sender requested no acknowledgement. The field
// is active-low on the wire: bit 0 clear means "no ack requested".
func (h Header) NoAck() bool {
	return h.PidNoAck&0x01 != 1
}

// IntoBytes writes the header's 4-byte wire representation into dst, which
// must have length >= headerSize.
func (h Header) IntoBytes(dst []byte) {
	dst[rssiIdx] = h.Rssi
	dst[pipeIdx] = h.Pipe
	dst[lengthIdx] = h.Length
	dst[pidNoAckIdx] = h.PidNoAck
}

// HeaderFromBytes reads a Header from its 4-byte wire representation. src
// must have length >= headerSize.
func HeaderFromBytes(src []byte) Header {
	return Header{
		Rssi:     src[rssiIdx],
		Pipe:     src[pipeIdx],
		Length:   src[lengthIdx],
		PidNoAck: src[pidNoAckIdx],
	}
}

// HeaderBuilder is a fluent constructor for Header, mirroring the original
// Rust driver's EsbHeaderBuilder (original_source/src/payload.rs). Methods
// return the builder by value; call Check to validate and obtain a Header.
type HeaderBuilder struct {
	h   Header
	err error
}

// NewHeaderBuilder starts a builder with length already set, since every
// header is built alongside a specific payload.
func NewHeaderBuilder(length uint8) HeaderBuilder {
	return HeaderBuilder{h: Header{Length: length}}
}

// Pipe sets the destination/source pipe. Values above MaxPipe are rejected
// by Check.
func (b HeaderBuilder) Pipe(pipe uint8) HeaderBuilder {
	if pipe > MaxPipe {
		b.err = errPipeOutOfRange(pipe)
	}
	b.h.Pipe = pipe
	return b
}

// MaxPayload validates that the header's length does not exceed max. This
// mirrors the original's max_payload builder step, which exists so callers
// can validate length against a configured maximum in the same chain as the
// rest of the header fields instead of as a separate check.
func (b HeaderBuilder) MaxPayload(max uint8) HeaderBuilder {
	if b.h.Length > max {
		b.err = ErrMaximumPacketExceeded
	}
	return b
}

// Pid sets the 2-bit packet id. Values above 3 are rejected by Check.
func (b HeaderBuilder) Pid(pid uint8) HeaderBuilder {
	if pid > 3 {
		b.err = errPidOutOfRange(pid)
	}
	b.h.PidNoAck = (b.h.PidNoAck &^ 0x06) | (pid << 1)
	return b
}

// NoAck sets or clears the no-ack bit.
func (b HeaderBuilder) NoAck(noAck bool) HeaderBuilder {
	if noAck {
		b.h.PidNoAck &^= 0x01
	} else {
		b.h.PidNoAck |= 0x01
	}
	return b
}

// Rssi sets the software-only received signal strength field.
func (b HeaderBuilder) Rssi(rssi uint8) HeaderBuilder {
	b.h.Rssi = rssi
	return b
}

// Check finalizes the builder, returning the first validation error
// encountered, if any.
func (b HeaderBuilder) Check() (Header, error) {
	if b.err != nil {
		return Header{}, b.err
	}
	return b.h, nil
}

func errPipeOutOfRange(pipe uint8) error {
	return &invalidFieldError{field: "pipe", value: int(pipe)}
}

func errPidOutOfRange(pid uint8) error {
	return &invalidFieldError{field: "pid", value: int(pid)}
}

type invalidFieldError struct {
	field string
	value int
}

func (e *invalidFieldError) Error() string {
	return "esb: " + e.field + " out of range"
}

func (e *invalidFieldError) Unwrap() error {
	return ErrInvalidParameters
}

// PayloadW is a write grant over a framed queue, typed with the protocol
// header and payload layout spec.md §4.1 describes (the queue's own
// WriteGrant only knows about raw frame bytes). It mirrors the original
// driver's PayloadW<N>.
type PayloadW struct {
	g       *WriteGrant
	header  Header
	maxSize uint8
}

// newPayloadW builds a PayloadW over an existing WriteGrant. The grant's
// reserved region is headerSize bytes larger than the payload the caller
// asked for, to hold the header.
func newPayloadW(g *WriteGrant, header Header) *PayloadW {
	return &PayloadW{g: g, header: header, maxSize: uint8(g.Len() - headerSize)}
}

// Header returns the frame's header.
func (p *PayloadW) Header() Header {
	return p.header
}

// Pipe returns the destination pipe.
func (p *PayloadW) Pipe() uint8 {
	return p.header.Pipe
}

// Pid returns the packet id.
func (p *PayloadW) Pid() uint8 {
	return p.header.Pid()
}

// NoAck reports whether this frame requests no acknowledgement.
func (p *PayloadW) NoAck() bool {
	return p.header.NoAck()
}

// PayloadLen returns the payload length recorded in the header.
func (p *PayloadW) PayloadLen() uint8 {
	return p.header.Length
}

// DMAPointer returns the slice the radio peripheral's DMA engine should be
// pointed at: starting from the length byte, matching spec.md §4.1's DMA
// payload offset and original_source/src/payload.rs's dma_pointer.
func (p *PayloadW) DMAPointer() []byte {
	b := p.g.Bytes()
	p.writeHeader(b)
	return b[dmaPayloadOff:]
}

// CCMSlice returns a slice starting at the pipe byte, intended for an
// external AES-CCM peripheral to operate on in place. This package performs
// no crypto itself; see SPEC_FULL.md §4.
func (p *PayloadW) CCMSlice() []byte {
	b := p.g.Bytes()
	p.writeHeader(b)
	return b[pipeIdx:]
}

// Bytes returns the full reserved region, header included.
func (p *PayloadW) Bytes() []byte {
	b := p.g.Bytes()
	p.writeHeader(b)
	return b
}

// Payload returns the reserved payload region, header excluded, for the
// caller to fill before Commit/CommitAll.
func (p *PayloadW) Payload() []byte {
	return p.g.Bytes()[headerSize:]
}

func (p *PayloadW) writeHeader(b []byte) {
	p.header.IntoBytes(b[:headerSize])
}

// SyncHeader re-reads Length and PidNoAck from the underlying buffer, the
// two fields the radio peripheral's DMA engine writes directly while
// receiving; Rssi and Pipe are software-only and left untouched. Callers
// must call this after a reception completes and before reading Pid,
// NoAck, or PayloadLen, since the header recorded at grant time predates
// the bytes the radio actually wrote.
func (p *PayloadW) SyncHeader() {
	b := p.g.Bytes()
	p.header.Length = b[lengthIdx]
	p.header.PidNoAck = b[pidNoAckIdx]
}

// UpdateHeader replaces the header, truncating length to the grant's
// payload capacity if it would otherwise exceed it. Matches the original's
// update_header, which is truncate-only: a header's payload can shrink but
// never exceed the size it was granted at.
func (p *PayloadW) UpdateHeader(h Header) {
	if h.Length > p.maxSize {
		h.Length = p.maxSize
	}
	p.header = h
}

// Commit publishes the header plus the first n payload bytes.
func (p *PayloadW) Commit(n uint8) {
	p.writeHeader(p.g.Bytes())
	p.g.Commit(uint32(headerSize) + uint32(n))
}

// CommitAll publishes the header plus the first header.Length payload bytes.
func (p *PayloadW) CommitAll() {
	p.Commit(p.header.Length)
}

// Discard abandons the grant; no frame reaches the queue.
func (p *PayloadW) Discard() {
	p.g.Discard()
}

// PayloadR is a read grant over a framed queue, typed with the protocol
// header and payload layout. It mirrors the original driver's PayloadR<N>.
type PayloadR struct {
	g      *ReadGrant
	header Header
}

// newPayloadR parses the header out of a raw ReadGrant's bytes.
func newPayloadR(g *ReadGrant) *PayloadR {
	b := g.Bytes()
	return &PayloadR{g: g, header: HeaderFromBytes(b[:headerSize])}
}

// Header returns the frame's header.
func (p *PayloadR) Header() Header {
	return p.header
}

// Pipe returns the pipe the frame arrived on or is destined for.
func (p *PayloadR) Pipe() uint8 {
	return p.header.Pipe
}

// Pid returns the packet id.
func (p *PayloadR) Pid() uint8 {
	return p.header.Pid()
}

// NoAck reports whether this frame requested no acknowledgement.
func (p *PayloadR) NoAck() bool {
	return p.header.NoAck()
}

// PayloadLen returns the payload length recorded in the header.
func (p *PayloadR) PayloadLen() uint8 {
	return p.header.Length
}

// Payload returns the frame's payload bytes, header excluded.
func (p *PayloadR) Payload() []byte {
	return p.g.Bytes()[headerSize:]
}

// DMAPointer returns the slice a radio peripheral's DMA engine operated on:
// starting from the length byte.
func (p *PayloadR) DMAPointer() []byte {
	return p.g.Bytes()[dmaPayloadOff:]
}

// CCMSlice returns a slice starting at the pipe byte, for an external
// AES-CCM peripheral to operate on in place.
func (p *PayloadR) CCMSlice() []byte {
	return p.g.Bytes()[pipeIdx:]
}

// Bytes returns the full frame, header included.
func (p *PayloadR) Bytes() []byte {
	return p.g.Bytes()
}

// Release frees the frame's space in the queue for reuse.
func (p *PayloadR) Release() {
	p.g.Release()
}
