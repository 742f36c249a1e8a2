package esb

import "errors"

// AppHandle is the application-side entry point (spec.md §4.3): producer
// on the app->radio queue, consumer on the radio->app queue. It never runs
// in interrupt context.
type AppHandle struct {
	outgoing *FramedQueue // producer
	incoming *FramedQueue // consumer

	irqCtl InterruptController

	maxPayloadSize uint8
}

// GrantPacket requests a write-frame for h, rejecting headers whose length
// exceeds the configured maximum payload size.
func (a *AppHandle) GrantPacket(h Header) (*PayloadW, error) {
	if h.Length > a.maxPayloadSize {
		return nil, ErrMaximumPacketExceeded
	}
	wg, err := a.outgoing.GrantWrite(uint32(headerSize) + uint32(h.Length))
	if err != nil {
		if errors.Is(err, ErrQueueFull) {
			return nil, ErrOutgoingQueueFull
		}
		return nil, err
	}
	return newPayloadW(wg, h), nil
}

// StartTx pends the radio-interrupt line so the state machine picks up the
// newly enqueued frame.
func (a *AppHandle) StartTx() {
	a.irqCtl.PendRadio()
}

// MsgReady reports whether a received frame is available to read.
func (a *AppHandle) MsgReady() bool {
	return !a.incoming.IsEmpty()
}

// ReadPacket returns the oldest received frame, or ErrQueueEmpty if none is
// available.
func (a *AppHandle) ReadPacket() (*PayloadR, error) {
	g, err := a.incoming.ReadNext()
	if err != nil {
		return nil, err
	}
	return newPayloadR(g), nil
}

// MaximumPayloadSize returns the configured maximum payload length.
func (a *AppHandle) MaximumPayloadSize() uint8 {
	return a.maxPayloadSize
}
