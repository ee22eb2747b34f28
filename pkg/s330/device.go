package s330

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/oletizi/samplertools/pkg/sysex"
)

// DefaultStepTimeout bounds each awaited reply during a transfer.
// Timeouts are per step, not per session: individual packets can be slow
// while the device pages data off disk.
const DefaultStepTimeout = 5 * time.Second

// Device is the protocol facade for one sampler on a transport. It owns
// the inbound frame dispatch: reply frames go to the session awaiting
// them, unsolicited DT1 broadcasts go to the panel listeners. At most one
// bulk request is in flight at a time; concurrent callers queue.
type Device struct {
	transport   Transport
	deviceID    byte
	addrs       sysex.AddressMap
	panel       PanelDecoder
	stepTimeout time.Duration
	pressDelay  time.Duration
	sugar       *zap.SugaredLogger

	reqMu sync.Mutex // serializes bulk requests end to end

	mu        sync.Mutex
	inflight  chan *sysex.Frame
	wantDT1   bool
	listeners map[int]func(ParameterChangeEvent)
	nextID    int

	unsubscribe func()
}

// Option configures a Device.
type Option func(*Device)

// WithToneSelector sets the tone-space selector byte for this unit's
// firmware (see sysex.AddressMap).
func WithToneSelector(b byte) Option {
	return func(d *Device) { d.addrs.ToneSelector = b }
}

// WithStepTimeout sets the per-await deadline for protocol replies.
func WithStepTimeout(timeout time.Duration) Option {
	return func(d *Device) { d.stepTimeout = timeout }
}

// WithPressDelay sets the inter-message delay for two-frame button
// presses.
func WithPressDelay(delay time.Duration) Option {
	return func(d *Device) { d.pressDelay = delay }
}

// NewDevice subscribes to the transport and returns a ready Device.
// Callers must Close it to release the subscription.
func NewDevice(t Transport, deviceID byte, logger *zap.Logger, opts ...Option) (*Device, error) {
	if deviceID > sysex.MaxDeviceID {
		return nil, fmt.Errorf("device id %d: %w", deviceID, sysex.ErrRange)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	d := &Device{
		transport:   t,
		deviceID:    deviceID,
		stepTimeout: DefaultStepTimeout,
		pressDelay:  DefaultPressDelay,
		sugar:       logger.Sugar(),
		listeners:   make(map[int]func(ParameterChangeEvent)),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.panel = PanelDecoder{Addrs: d.addrs}

	cancel, err := t.Subscribe(d.handleIncoming)
	if err != nil {
		return nil, fmt.Errorf("subscribe: %w", err)
	}
	d.unsubscribe = cancel
	return d, nil
}

// Close releases the transport subscription.
func (d *Device) Close() {
	if d.unsubscribe != nil {
		d.unsubscribe()
		d.unsubscribe = nil
	}
}

// DeviceID returns the wire device id.
func (d *Device) DeviceID() byte { return d.deviceID }

// AddressMap returns the address map configured for this unit.
func (d *Device) AddressMap() sysex.AddressMap { return d.addrs }

// OnParameterChange registers a sink for front-panel broadcasts and
// returns its deregistration function. The registry is keyed by an
// opaque handle, never by any digest of the address bytes.
func (d *Device) OnParameterChange(fn func(ParameterChangeEvent)) (cancel func()) {
	d.mu.Lock()
	id := d.nextID
	d.nextID++
	d.listeners[id] = fn
	d.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			d.mu.Lock()
			delete(d.listeners, id)
			d.mu.Unlock()
		})
	}
}

// FetchBulk requests size bytes at addr over the bulk handshake and
// drives the exchange to a terminal state. The returned session holds the
// collected packets; err is nil only when the session completed.
func (d *Device) FetchBulk(ctx context.Context, addr sysex.Address, size int) (*Session, error) {
	d.reqMu.Lock()
	defer d.reqMu.Unlock()

	sess := newSession(addr, size)
	frames := make(chan *sysex.Frame, 16)
	if err := d.setActive(frames, false); err != nil {
		return nil, err
	}
	defer d.clearActive()

	req, err := sysex.BulkRequest(d.deviceID, addr, sysex.SizeBytes(size))
	if err != nil {
		return nil, err
	}
	if err := d.transport.Send(req); err != nil {
		return nil, fmt.Errorf("send bulk request: %w", err)
	}
	sess.state = StateRequestSent
	d.sugar.Debugw("bulk request sent",
		"session", sess.ID, "address", addr.String(), "size", size)

	ackSeen := false
	for {
		f, err := d.await(ctx, frames)
		if err != nil {
			sess.state = StateTimedOut
			return sess, err
		}
		switch f.Command {
		case sysex.CmdRJC:
			sess.state = StateRejected
			d.sugar.Warnw("bulk request rejected", "session", sess.ID)
			return sess, ErrRejected
		case sysex.CmdERR:
			sess.state = StateErrored
			sess.offending = f.Command
			return sess, ErrProtocol
		case sysex.CmdACK:
			// Only valid as the handshake reply before any data. The
			// session does not acknowledge it.
			if ackSeen || len(sess.packets) > 0 {
				prior := sess.state
				sess.state = StateErrored
				sess.offending = f.Command
				return sess, fmt.Errorf("%w: unexpected ACK in state %s", ErrProtocol, prior)
			}
			ackSeen = true
			sess.state = StateAwaitingData
		case sysex.CmdDAT:
			sess.state = StateCollecting
			sess.packets = append(sess.packets, f.Body)
			if err := d.sendHandshake(sysex.CmdACK); err != nil {
				sess.state = StateErrored
				return sess, err
			}
		case sysex.CmdEOD:
			if err := d.sendHandshake(sysex.CmdACK); err != nil {
				sess.state = StateErrored
				return sess, err
			}
			sess.state = StateComplete
			d.sugar.Infow("bulk transfer complete",
				"session", sess.ID, "packets", len(sess.packets),
				"elapsed", time.Since(sess.Started))
			return sess, nil
		default:
			sess.state = StateErrored
			sess.offending = f.Command
			return sess, fmt.Errorf("%w: unexpected %s", ErrProtocol, f.Command)
		}
	}
}

// FetchBulkLocation builds the wire address for an indexed patch or
// tone and runs FetchBulk against it.
func (d *Device) FetchBulkLocation(ctx context.Context, space sysex.Space, index, size int) (*Session, error) {
	addr, err := d.addrs.BuildAddress(space, index, 0)
	if err != nil {
		return nil, err
	}
	return d.FetchBulk(ctx, addr, size)
}

// ReadParameter sends an RQ1 single-shot request and waits for the DT1
// reply, returning the de-nibblized parameter bytes.
func (d *Device) ReadParameter(ctx context.Context, addr sysex.Address, size int) ([]byte, error) {
	d.reqMu.Lock()
	defer d.reqMu.Unlock()

	frames := make(chan *sysex.Frame, 4)
	if err := d.setActive(frames, true); err != nil {
		return nil, err
	}
	defer d.clearActive()

	req, err := sysex.RequestData(d.deviceID, addr, sysex.SizeBytes(size))
	if err != nil {
		return nil, err
	}
	if err := d.transport.Send(req); err != nil {
		return nil, fmt.Errorf("send data request: %w", err)
	}

	for {
		f, err := d.await(ctx, frames)
		if err != nil {
			return nil, err
		}
		switch f.Command {
		case sysex.CmdDT1:
			return sysex.Denibblize(f.Body), nil
		case sysex.CmdRJC:
			return nil, ErrRejected
		case sysex.CmdERR:
			return nil, ErrProtocol
		default:
			// Stray handshake traffic; keep waiting for the reply.
			d.sugar.Debugw("ignoring frame while awaiting DT1", "command", f.Command.String())
		}
	}
}

// WriteParameter sends a DT1 data-set carrying payload (raw parameter
// bytes, nibblized on the wire) at addr. The device does not reply.
func (d *Device) WriteParameter(addr sysex.Address, payload []byte) error {
	msg, err := sysex.DataSet(d.deviceID, addr, sysex.Nibblize(payload))
	if err != nil {
		return err
	}
	return d.transport.Send(msg)
}

// PressButton sends the remote-control frames for one press of b,
// honoring the press/release delay the hardware's debounce requires.
func (d *Device) PressButton(ctx context.Context, b Button) error {
	frames, err := ButtonFrames(b, d.deviceID)
	if err != nil {
		return err
	}
	for i, msg := range frames {
		if i > 0 {
			t := time.NewTimer(d.pressDelay)
			select {
			case <-t.C:
			case <-ctx.Done():
				t.Stop()
				return ctx.Err()
			}
		}
		if err := d.transport.Send(msg); err != nil {
			return fmt.Errorf("send button frame: %w", err)
		}
	}
	return nil
}

func (d *Device) sendHandshake(cmd sysex.Command) error {
	msg, err := sysex.Handshake(d.deviceID, cmd)
	if err != nil {
		return err
	}
	if err := d.transport.Send(msg); err != nil {
		return fmt.Errorf("send %s: %w", cmd, err)
	}
	return nil
}

func (d *Device) await(ctx context.Context, frames <-chan *sysex.Frame) (*sysex.Frame, error) {
	t := time.NewTimer(d.stepTimeout)
	defer t.Stop()
	select {
	case f := <-frames:
		return f, nil
	case <-t.C:
		return nil, ErrTimeout
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (d *Device) setActive(ch chan *sysex.Frame, wantDT1 bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.inflight != nil {
		return ErrBusy
	}
	d.inflight = ch
	d.wantDT1 = wantDT1
	return nil
}

func (d *Device) clearActive() {
	d.mu.Lock()
	d.inflight = nil
	d.wantDT1 = false
	d.mu.Unlock()
}

// handleIncoming is the single transport subscriber. A frame belongs to
// at most one consumer: protocol replies feed the open session, anything
// else is offered to the panel decoder.
func (d *Device) handleIncoming(data []byte) {
	f, err := sysex.ParseFrame(data, int(d.deviceID))
	if err != nil {
		// Foreign or malformed traffic; drop and keep listening.
		d.sugar.Debugw("dropping frame", "error", err)
		return
	}
	if d.deliverToSession(f) {
		return
	}
	if ev, ok := d.panel.DecodeIncoming(f); ok {
		d.notify(ev)
	}
}

func (d *Device) deliverToSession(f *sysex.Frame) bool {
	switch f.Command {
	case sysex.CmdACK, sysex.CmdDAT, sysex.CmdEOD, sysex.CmdRJC, sysex.CmdERR:
	case sysex.CmdDT1:
		d.mu.Lock()
		want := d.inflight != nil && d.wantDT1
		d.mu.Unlock()
		if !want {
			return false
		}
	default:
		return false
	}

	d.mu.Lock()
	ch := d.inflight
	d.mu.Unlock()
	if ch == nil {
		return false
	}
	select {
	case ch <- f:
	default:
		d.sugar.Warnw("session frame buffer full, dropping", "command", f.Command.String())
	}
	return true
}

func (d *Device) notify(ev ParameterChangeEvent) {
	d.mu.Lock()
	sinks := make([]func(ParameterChangeEvent), 0, len(d.listeners))
	for _, fn := range d.listeners {
		sinks = append(sinks, fn)
	}
	d.mu.Unlock()
	for _, fn := range sinks {
		fn(ev)
	}
}
