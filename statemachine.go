package esb

import (
	"errors"
	"sync/atomic"

	"github.com/nrfesb/esb/tracepin"
)

// Role is the driver's current mode: disabled, Primary Transmitter, or
// Primary Receiver (spec.md §4.3). Unlike the original Rust driver, which
// encodes the role as a generic type parameter so illegal transitions are
// rejected at compile time, Go checks it at runtime and returns
// ErrWrongRole for a call made in the wrong role.
type Role uint8

const (
	RoleDisabled Role = iota
	RolePTX
	RolePRX
)

// State is the state machine's current state within its role.
type State uint8

const (
	StateDisabled State = iota

	// PTX states.
	StateIdleTx
	StateTransmitterTx
	StateTransmitterTxNoAck
	StateTransmitterWaitAck
	StateTransmitterWaitRetransmit

	// PRX states.
	StateIdleRx
	StateReceiver
	StateTransmittingAck
	StateTransmittingRepeatedAck
)

// IrqHandle is the protocol state machine: it owns the radio wrapper, the
// timer peripheral, both queue endpoints, the role-tagged state, address
// configuration, the retransmit attempt counter, and a shared atomic timer
// flag (spec.md §2, §4.3). It is mutated only from the radio-interrupt
// entry point, RadioInterrupt, plus the role-transition methods below.
type IrqHandle struct {
	radio *radioWrapper
	timer TimerPeripheral

	incoming *FramedQueue // radio->app, producer side
	outgoing *FramedQueue // app->radio, consumer side

	cfg       Config
	addresses Addresses

	role  Role
	state State

	attempts uint8

	timerFired *uint32 // shared atomic flag, Release-stored by the timer ISR

	// TracePin, if non-nil, is toggled on every state transition so the
	// timing of a bring-up run can be read off a logic analyzer. Nil
	// costs nothing.
	TracePin tracepin.Pin
}

// setState records a new state and toggles TracePin, if one is attached.
func (h *IrqHandle) setState(s State) {
	h.state = s
	if h.TracePin != nil {
		h.TracePin.Toggle()
	}
}

// IntoDisabled stops all radio activity, clears pending timer interrupts,
// and resets the attempt counter. Always legal from any role or state.
func (h *IrqHandle) IntoDisabled() {
	h.radio.Stop()
	h.clearAckInterrupt()
	h.clearRetransmitInterrupt()
	h.attempts = 0
	h.role = RoleDisabled
	h.setState(StateDisabled)
}

// IntoPTX transitions from Disabled into the PTX role's IdleTx state.
func (h *IrqHandle) IntoPTX() error {
	if h.role != RoleDisabled {
		return ErrWrongRole
	}
	h.role = RolePTX
	h.setState(StateIdleTx)
	return nil
}

// IntoPRX transitions from Disabled into the PRX role's IdleRx state.
func (h *IrqHandle) IntoPRX() error {
	if h.role != RoleDisabled {
		return ErrWrongRole
	}
	h.role = RolePRX
	h.setState(StateIdleRx)
	return nil
}

// Role reports the state machine's current role.
func (h *IrqHandle) Role() Role { return h.role }

// State reports the state machine's current state.
func (h *IrqHandle) State() State { return h.state }

// RadioInterrupt is the radio-interrupt entry point (spec.md §4.3). It must
// be called from the same interrupt context on every radio event and on
// every pended user event.
func (h *IrqHandle) RadioInterrupt() (State, error) {
	disabled := h.radio.radio.EventIsSet(EventDisabled)
	if disabled {
		h.radio.radio.ClearEvent(EventDisabled)
	}
	timerFired := atomic.LoadUint32(h.timerFired) != 0
	if timerFired {
		atomic.StoreUint32(h.timerFired, 0)
	}
	userEvent := !disabled && !timerFired

	switch h.role {
	case RolePTX:
		if userEvent && h.state != StateIdleTx {
			return h.state, nil
		}
		return h.ptxRadioInterrupt(disabled)
	case RolePRX:
		if userEvent && h.state != StateIdleRx {
			return h.state, nil
		}
		return h.prxRadioInterrupt(userEvent)
	default:
		return h.state, ErrWrongRole
	}
}

func (h *IrqHandle) ptxRadioInterrupt(disabled bool) (State, error) {
	switch h.state {
	case StateIdleTx:
		return h.sendPacket()

	case StateTransmitterTxNoAck:
		h.radio.FinishTXNoAck()
		return h.sendPacket()

	case StateTransmitterTx:
		wg, err := h.grantIncoming()
		if err != nil {
			globalLogger.Warn("esb: incoming queue full, dropping back to IdleTx")
			h.radio.Stop()
			h.setState(StateIdleTx)
			return h.state, err
		}
		h.radio.PrepareForAck(wg)
		h.timer.Start()
		h.timer.Capture()
		h.timer.SetCompare(TimerChannelRetransmit, uint32(h.cfg.RetransmitDelay)-rampUpTime)
		h.timer.SetCompare(TimerChannelAckTimeout, uint32(h.cfg.WaitForAckTimeout)+rampUpTime)
		h.setState(StateTransmitterWaitAck)
		return h.state, nil

	case StateTransmitterWaitAck:
		retransmit := false
		if disabled {
			h.clearAckInterrupt()
			if h.radio.CheckAck() {
				h.clearRetransmitInterrupt()
				h.attempts = 0
				return h.sendPacket()
			}
			retransmit = true
		} else {
			retransmit = true
		}
		if retransmit {
			h.radio.stopRadioOnly()
			h.attempts++
			h.setState(StateTransmitterWaitRetransmit)
		}
		if h.attempts > h.cfg.MaximumTransmitAttempts {
			globalLogger.Warn("esb: maximum transmit attempts reached, dropping frame")
			h.clearRetransmitInterrupt()
			if g, err := h.outgoing.ReadNext(); err == nil {
				g.Release()
			}
			h.radio.ForgetTxGrant()
			h.attempts = 0
			st, _ := h.sendPacket()
			return st, ErrMaximumAttempts
		}
		return h.state, nil

	case StateTransmitterWaitRetransmit:
		if h.radio.RetryTransmit() {
			h.setState(StateTransmitterTx)
			return h.state, nil
		}
		return h.sendPacket()

	default:
		return h.state, ErrInternal
	}
}

// sendPacket peeks the next outgoing frame and begins transmitting it, or
// idles if none is available.
func (h *IrqHandle) sendPacket() (State, error) {
	g, err := h.outgoing.ReadNext()
	if err != nil {
		h.radio.radio.DisableInterrupt(EventDisabled)
		h.setState(StateIdleTx)
		return h.state, nil
	}
	pr := newPayloadR(g)
	ackRequested := !pr.NoAck()
	h.radio.Transmit(pr, ackRequested)
	if ackRequested {
		h.setState(StateTransmitterTx)
	} else {
		h.setState(StateTransmitterTxNoAck)
	}
	return h.state, nil
}

func (h *IrqHandle) prxRadioInterrupt(userEvent bool) (State, error) {
	switch h.state {
	case StateReceiver:
		result, err := h.radio.CheckPacket()
		if err != nil {
			return h.state, err
		}
		switch result {
		case ResultBadCRC:
			return h.state, nil
		case ResultNoAck:
			wg, err := h.grantIncoming()
			if err != nil {
				h.radio.Stop()
				h.setState(StateIdleRx)
				return h.state, err
			}
			h.radio.CompleteRXNoAck(wg)
			return h.state, nil
		case ResultRepeatedNoAck:
			h.radio.CompleteRXNoAck(nil)
			return h.state, nil
		case ResultAck:
			h.setState(StateTransmittingAck)
			return h.state, nil
		case ResultRepeatedAck:
			h.setState(StateTransmittingRepeatedAck)
			return h.state, nil
		default:
			return h.state, ErrInternal
		}

	case StateTransmittingAck:
		wg, err := h.grantIncoming()
		if err != nil {
			h.radio.Stop()
			h.setState(StateIdleRx)
			return h.state, err
		}
		h.radio.CompleteRXAck(wg)
		h.setState(StateReceiver)
		return h.state, nil

	case StateTransmittingRepeatedAck:
		h.radio.CompleteRXAck(nil)
		h.setState(StateReceiver)
		return h.state, nil

	case StateIdleRx:
		if userEvent {
			return h.startReceiving()
		}
		return h.state, nil

	default:
		return h.state, ErrInternal
	}
}

// startReceiving grants an incoming write-frame and begins listening.
func (h *IrqHandle) startReceiving() (State, error) {
	wg, err := h.grantIncoming()
	if err != nil {
		return h.state, err
	}
	h.radio.StartReceiving(wg, h.cfg.EnabledPipes)
	h.setState(StateReceiver)
	return h.state, nil
}

// StopReceiving halts reception and returns to IdleRx (PRX only).
func (h *IrqHandle) StopReceiving() error {
	if h.role != RolePRX {
		return ErrWrongRole
	}
	h.radio.Stop()
	h.clearAckInterrupt()
	h.clearRetransmitInterrupt()
	h.setState(StateIdleRx)
	return nil
}

// grantIncoming requests a write-frame sized for the configured maximum
// payload from the radio->app queue, translating a full queue into
// ErrIncomingQueueFull per spec.md §7.
func (h *IrqHandle) grantIncoming() (*PayloadW, error) {
	wg, err := h.incoming.GrantWrite(uint32(headerSize) + uint32(h.cfg.MaximumPayloadSize))
	if err != nil {
		if errors.Is(err, ErrQueueFull) {
			return nil, ErrIncomingQueueFull
		}
		return nil, err
	}
	return newPayloadW(wg, Header{}), nil
}

// clearAckInterrupt clears only the ack-timeout compare event, per spec.md
// §5's distinction between clear_interrupt_ack and clear_interrupt_retransmit.
func (h *IrqHandle) clearAckInterrupt() {
	h.timer.ClearCompareEvent(TimerChannelAckTimeout)
}

// clearRetransmitInterrupt stops the timer and clears the retransmit
// compare event.
func (h *IrqHandle) clearRetransmitInterrupt() {
	h.timer.Stop()
	h.timer.ClearCompareEvent(TimerChannelRetransmit)
}

// Release hands the radio and timer peripherals back to the caller,
// per spec.md §9's open question: rejected unless both queues are empty
// and the state machine is Disabled.
func (h *IrqHandle) Release() (RadioPeripheral, TimerPeripheral, error) {
	if h.role != RoleDisabled {
		return nil, nil, ErrNotQuiescent
	}
	if !h.incoming.IsEmpty() || !h.outgoing.IsEmpty() {
		return nil, nil, ErrNotQuiescent
	}
	radio := h.radio.radio
	timer := h.timer
	h.radio = nil
	h.timer = nil
	return radio, timer, nil
}
