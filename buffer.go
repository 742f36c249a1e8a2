package esb

// Buffer aggregates the two framed SPSC queues (app->radio and radio->app)
// and the shared atomic timer-fired flag (spec.md §2, §3). It lives for
// the whole program and is split exactly once into three endpoint handles.
type Buffer struct {
	appToRadio *FramedQueue
	radioToApp *FramedQueue
	timerFired uint32

	split bool
}

// NewBuffer allocates a Buffer with the given per-direction queue
// capacities, in bytes.
func NewBuffer(appToRadioCapacity, radioToAppCapacity int) *Buffer {
	return &Buffer{
		appToRadio: NewFramedQueue(appToRadioCapacity),
		radioToApp: NewFramedQueue(radioToAppCapacity),
	}
}

// TrySplit validates cfg, initializes radio and timer, and splits the
// buffer into its three disjoint endpoint handles. A second call returns
// ErrAlreadySplit.
func (b *Buffer) TrySplit(
	radio RadioPeripheral,
	timer TimerPeripheral,
	irqCtl InterruptController,
	cfg Config,
	addresses Addresses,
) (*AppHandle, *IrqHandle, *TimerHandle, error) {
	if b.split {
		return nil, nil, nil, ErrAlreadySplit
	}
	if err := cfg.check(); err != nil {
		return nil, nil, nil, err
	}
	b.split = true

	rw := newRadioWrapper(radio, b.appToRadio)
	rw.Init(cfg.MaximumPayloadSize, cfg.TxPower, addresses)
	timer.Init()

	irqHandle := &IrqHandle{
		radio:      rw,
		timer:      timer,
		incoming:   b.radioToApp,
		outgoing:   b.appToRadio,
		cfg:        cfg,
		addresses:  addresses,
		role:       RoleDisabled,
		state:      StateDisabled,
		timerFired: &b.timerFired,
	}
	appHandle := &AppHandle{
		outgoing:       b.appToRadio,
		incoming:       b.radioToApp,
		irqCtl:         irqCtl,
		maxPayloadSize: cfg.MaximumPayloadSize,
	}
	timerHandle := &TimerHandle{
		timer:  timer,
		irqCtl: irqCtl,
		fired:  &b.timerFired,
	}
	return appHandle, irqHandle, timerHandle, nil
}
