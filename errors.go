package esb

import "errors"

// Sentinel errors returned by this package. All are safe to compare with
// errors.Is; HeaderBuilder's pipe and pid range errors wrap ErrInvalidParameters.
var (
	// ErrIncomingQueueFull means the radio->app queue refused a write grant.
	// The state machine returns to its idle state after this error.
	ErrIncomingQueueFull = errors.New("esb: incoming queue full")

	// ErrOutgoingQueueFull means the app->radio producer refused a write grant.
	ErrOutgoingQueueFull = errors.New("esb: outgoing queue full")

	// ErrGrantInProgress means another outstanding write grant already exists
	// on this queue endpoint.
	ErrGrantInProgress = errors.New("esb: grant already in progress")

	// ErrQueueEmpty means a read was attempted on an empty queue.
	ErrQueueEmpty = errors.New("esb: queue empty")

	// ErrAlreadySplit means Buffer.TrySplit was called more than once.
	ErrAlreadySplit = errors.New("esb: buffer already split")

	// ErrInvalidParameters means a Config, Addresses, or Header value was
	// built with an out-of-range field.
	ErrInvalidParameters = errors.New("esb: invalid parameters")

	// ErrMaximumPacketExceeded means a header's length exceeds the
	// configured maximum payload size.
	ErrMaximumPacketExceeded = errors.New("esb: maximum packet size exceeded")

	// ErrMaximumAttempts means the PTX exhausted its retransmit budget for
	// the current frame. The frame is dropped and the state machine moves
	// on to the next one; this is reported, not fatal.
	ErrMaximumAttempts = errors.New("esb: maximum transmit attempts reached")

	// ErrInternal is a sentinel for invariants the caller cannot violate
	// themselves (e.g. a grant that was guaranteed to exist is missing).
	// Seeing this means a bug in this package.
	ErrInternal = errors.New("esb: internal error (bug)")

	// ErrWrongRole means a role-dependent call was made in a role that does
	// not support it: RadioInterrupt while Disabled, IntoPTX or IntoPRX
	// outside Disabled, or StopReceiving outside PRX. The original Rust driver
	// rejects this by construction via a generic role parameter; Go has no
	// equivalent static guarantee, so this is a runtime error instead.
	ErrWrongRole = errors.New("esb: wrong role for this entry point")

	// ErrNotQuiescent means Release was called while a queue held data or
	// the state machine was not Disabled.
	ErrNotQuiescent = errors.New("esb: release requires quiescent state")
)
