package midiio

import (
	"fmt"
	"sync"

	"go.bug.st/serial"
	"go.uber.org/zap"
)

// DefaultBaud is the standard MIDI wire rate. Serial MIDI interfaces
// that resample to a faster host rate take a different value.
const DefaultBaud = 31250

// SerialTransport carries SysEx frames over a serial MIDI interface.
// The read loop reassembles F0..F7 frames from the byte stream and
// drops realtime status bytes that may be interleaved mid-frame.
type SerialTransport struct {
	port  serial.Port
	name  string
	sugar *zap.SugaredLogger

	mu      sync.Mutex
	nextSub int
	subs    map[int]func([]byte)
	closed  bool
	done    chan struct{}
}

// OpenSerial opens the named serial device and starts the read loop.
func OpenSerial(device string, baud int, logger *zap.Logger) (*SerialTransport, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if baud <= 0 {
		baud = DefaultBaud
	}
	port, err := serial.Open(device, &serial.Mode{BaudRate: baud})
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", device, err)
	}
	t := &SerialTransport{
		port:  port,
		name:  device,
		sugar: logger.Sugar(),
		subs:  map[int]func([]byte){},
		done:  make(chan struct{}),
	}
	go t.readLoop()
	t.sugar.Infow("opened serial MIDI port", "device", device, "baud", baud)
	return t, nil
}

// Send writes a raw SysEx frame to the port.
func (t *SerialTransport) Send(data []byte) error {
	n, err := t.port.Write(data)
	if err != nil {
		return fmt.Errorf("write to %s: %w", t.name, err)
	}
	if n != len(data) {
		return fmt.Errorf("short write to %s: %d of %d bytes", t.name, n, len(data))
	}
	return nil
}

// Subscribe registers a callback for every complete SysEx frame read
// from the port.
func (t *SerialTransport) Subscribe(fn func(data []byte)) (func(), error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil, fmt.Errorf("serial port %s is closed", t.name)
	}
	id := t.nextSub
	t.nextSub++
	t.subs[id] = fn
	return func() {
		t.mu.Lock()
		delete(t.subs, id)
		t.mu.Unlock()
	}, nil
}

// Close stops the read loop and closes the port.
func (t *SerialTransport) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	t.mu.Unlock()
	err := t.port.Close()
	<-t.done
	return err
}

func (t *SerialTransport) readLoop() {
	defer close(t.done)
	var asm frameAssembler
	buf := make([]byte, 256)
	for {
		n, err := t.port.Read(buf)
		if err != nil {
			t.mu.Lock()
			closed := t.closed
			t.mu.Unlock()
			if !closed {
				t.sugar.Warnw("serial read failed", "device", t.name, "error", err)
			}
			return
		}
		asm.feed(buf[:n], t.dispatch)
	}
}

// frameAssembler reassembles SysEx frames from an arbitrary byte
// stream. Bytes outside F0..F7 brackets are discarded, as are realtime
// status bytes arriving mid-frame.
type frameAssembler struct {
	frame   []byte
	inFrame bool
}

func (a *frameAssembler) feed(data []byte, emit func([]byte)) {
	for _, b := range data {
		switch {
		case b >= 0xF8:
			// Realtime messages may arrive inside a frame.
		case b == 0xF0:
			a.frame = a.frame[:0]
			a.frame = append(a.frame, b)
			a.inFrame = true
		case b == 0xF7:
			if a.inFrame {
				a.frame = append(a.frame, b)
				emit(append([]byte(nil), a.frame...))
				a.inFrame = false
			}
		default:
			if a.inFrame {
				a.frame = append(a.frame, b)
			}
		}
	}
}

func (t *SerialTransport) dispatch(data []byte) {
	t.mu.Lock()
	subs := make([]func([]byte), 0, len(t.subs))
	for _, fn := range t.subs {
		subs = append(subs, fn)
	}
	t.mu.Unlock()
	for _, fn := range subs {
		fn(data)
	}
}
