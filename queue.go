package esb

import (
	"encoding/binary"
	"sync/atomic"
)

// frameLenPrefixSize is the width, in bytes, of the internal length prefix
// FramedQueue stores ahead of every frame. It is bookkeeping private to the
// queue implementation and is unrelated to the protocol Header defined in
// header.go.
const frameLenPrefixSize = 2

const maxFramePayload = 0xFFFF - frameLenPrefixSize

// FramedQueue is a lock-free, single-producer/single-consumer ring buffer
// that stores variable-length frames. It is the framed SPSC ring buffer
// spec.md §3 treats as an external collaborator (modeled there on the Rust
// `bbqueue` crate); this package implements it directly since Go has no
// off-the-shelf equivalent.
//
// At most one outstanding write grant and one outstanding read grant may
// exist at a time. A write grant dropped without Commit/CommitAll yields no
// frame; a read grant dropped without Release leaves the same frame
// available on the next ReadNext call.
//
// The wrap bookkeeping uses an explicit wrapped flag plus a last marker
// instead of comparing read against write directly, which would otherwise
// leave the classic ambiguity between "buffer empty" and "buffer full" when
// the two cursors coincide, including at the exact capacity boundary.
type FramedQueue struct {
	buf     []byte
	cap     uint32
	last    uint32 // atomic; valid only while wrapped != 0
	wrapped uint32 // atomic; 0 or 1

	write uint32 // atomic; producer-owned
	read  uint32 // atomic; consumer-owned

	writeGranted bool // producer-private
}

// NewFramedQueue allocates a queue with room for capacity bytes of frame
// storage (length prefixes included).
func NewFramedQueue(capacity int) *FramedQueue {
	return &FramedQueue{
		buf: make([]byte, capacity),
		cap: uint32(capacity),
	}
}

// Capacity returns the queue's total byte capacity.
func (q *FramedQueue) Capacity() int {
	return int(q.cap)
}

// IsEmpty reports whether the queue currently holds any committed frame.
func (q *FramedQueue) IsEmpty() bool {
	read := atomic.LoadUint32(&q.read)
	write := atomic.LoadUint32(&q.write)
	wrapped := atomic.LoadUint32(&q.wrapped) != 0
	last := atomic.LoadUint32(&q.last)

	if wrapped && read == last {
		return write == 0
	}
	if wrapped {
		return false
	}
	return read == write
}

// GrantWrite reserves n bytes of frame payload for writing. The returned
// grant's Bytes() is a direct, zero-copy view into the queue's backing
// array; the caller writes into it in place and then calls Commit or
// CommitAll to publish some or all of it, or Discard to abandon it.
func (q *FramedQueue) GrantWrite(n uint32) (*WriteGrant, error) {
	if q.writeGranted {
		return nil, ErrGrantInProgress
	}
	if n > maxFramePayload {
		return nil, ErrInvalidParameters
	}
	total := n + frameLenPrefixSize

	read := atomic.LoadUint32(&q.read)
	write := atomic.LoadUint32(&q.write)
	wrapped := atomic.LoadUint32(&q.wrapped) != 0

	var start uint32
	switch {
	case !wrapped && q.cap-write >= total:
		start = write
	case !wrapped && read >= total:
		// Not enough room at the tail; wrap around to the front. Mark the
		// current write position as the end of the valid "old" region so
		// the consumer knows where to jump back to 0, and reset write to 0
		// immediately so the new region's occupancy is always measured from
		// 0 rather than from a stale tail position.
		atomic.StoreUint32(&q.last, write)
		atomic.StoreUint32(&q.write, 0)
		atomic.StoreUint32(&q.wrapped, 1)
		start = 0
	case wrapped && read-write >= total:
		start = write
	default:
		return nil, ErrQueueFull
	}

	q.writeGranted = true
	return &WriteGrant{q: q, start: start, n: n}, nil
}

// ReadNext returns a grant over the oldest unread frame, or ErrQueueEmpty if
// none is available. Calling ReadNext again before Release returns a grant
// over the same frame.
func (q *FramedQueue) ReadNext() (*ReadGrant, error) {
	read := atomic.LoadUint32(&q.read)
	write := atomic.LoadUint32(&q.write)
	wrapped := atomic.LoadUint32(&q.wrapped) != 0
	last := atomic.LoadUint32(&q.last)

	pos := read
	switch {
	case wrapped && read == last:
		// Tail fully drained; continue from the new region at the front.
		// write is measured from 0 in this region, so the comparison below
		// is safe even though pos and write both started near 0. The
		// consumer leaves wrapped mode here, as Release does on reaching
		// last, so read never lands in the front region while wrapped.
		atomic.StoreUint32(&q.wrapped, 0)
		atomic.StoreUint32(&q.read, 0)
		pos = 0
		if pos == write {
			return nil, ErrQueueEmpty
		}
	case wrapped:
		// Still draining the tail: by construction this is never empty.
	default:
		if pos == write {
			return nil, ErrQueueEmpty
		}
	}
	if pos+frameLenPrefixSize > q.cap {
		return nil, ErrInternal
	}

	length := uint32(binary.BigEndian.Uint16(q.buf[pos:]))
	start := pos + frameLenPrefixSize
	if start+length > q.cap {
		return nil, ErrInternal
	}
	return &ReadGrant{q: q, pos: pos, start: start, length: length}, nil
}

// ErrQueueFull is returned internally by GrantWrite; callers (AppHandle,
// radioWrapper) translate it to ErrOutgoingQueueFull or ErrIncomingQueueFull
// depending on which queue endpoint they hold.
var ErrQueueFull = newQueueFullError()

func newQueueFullError() error {
	return queueFullError{}
}

type queueFullError struct{}

func (queueFullError) Error() string { return "esb: queue full" }

// WriteGrant is a handle to a reserved, contiguous region of a FramedQueue,
// writable in place by the caller and published with Commit/CommitAll.
type WriteGrant struct {
	q     *FramedQueue
	start uint32
	n     uint32
}

// Bytes returns the full reserved region for direct, zero-copy writes.
func (g *WriteGrant) Bytes() []byte {
	start := g.start + frameLenPrefixSize
	return g.q.buf[start : start+g.n]
}

// Len returns the number of bytes reserved by this grant.
func (g *WriteGrant) Len() uint32 {
	return g.n
}

// Commit publishes the first used bytes of the grant to the queue. used is
// clamped to the grant's reserved length.
func (g *WriteGrant) Commit(used uint32) {
	if used > g.n {
		used = g.n
	}
	binary.BigEndian.PutUint16(g.q.buf[g.start:], uint16(used))
	atomic.StoreUint32(&g.q.write, g.start+frameLenPrefixSize+used)
	g.q.writeGranted = false
}

// CommitAll publishes the entire reserved region.
func (g *WriteGrant) CommitAll() {
	g.Commit(g.n)
}

// Discard abandons the grant without publishing a frame.
func (g *WriteGrant) Discard() {
	g.q.writeGranted = false
}

// ReadGrant is a handle to the oldest unread frame in a FramedQueue.
type ReadGrant struct {
	q      *FramedQueue
	pos    uint32
	start  uint32
	length uint32
}

// Bytes returns the frame's payload bytes.
func (g *ReadGrant) Bytes() []byte {
	return g.q.buf[g.start : g.start+g.length]
}

// Len returns the frame's payload length.
func (g *ReadGrant) Len() uint32 {
	return g.length
}

// Release frees the frame's space in the queue for reuse. If this is not
// called, the next ReadNext call returns the same frame again.
func (g *ReadGrant) Release() {
	q := g.q
	newRead := g.start + g.length
	if atomic.LoadUint32(&q.wrapped) != 0 && newRead == atomic.LoadUint32(&q.last) {
		newRead = 0
		atomic.StoreUint32(&q.wrapped, 0)
	}
	atomic.StoreUint32(&q.read, newRead)
}
