// Package midiio provides transports that carry SysEx frames to and
// from an S-330, either over a system MIDI port or over a serial MIDI
// interface.
package midiio

import (
	"fmt"
	"strings"
	"sync"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
	"go.uber.org/zap"
)

// ListPorts returns the names of the system's MIDI in and out ports.
func ListPorts() (ins []string, outs []string, err error) {
	inPorts, err := drivers.Ins()
	if err != nil {
		return nil, nil, fmt.Errorf("list MIDI inputs: %w", err)
	}
	outPorts, err := drivers.Outs()
	if err != nil {
		return nil, nil, fmt.Errorf("list MIDI outputs: %w", err)
	}
	for _, p := range inPorts {
		ins = append(ins, p.String())
	}
	for _, p := range outPorts {
		outs = append(outs, p.String())
	}
	return ins, outs, nil
}

// PortTransport sends and receives over system MIDI ports. Incoming
// messages fan out to every subscriber.
type PortTransport struct {
	in    drivers.In
	out   drivers.Out
	sugar *zap.SugaredLogger

	mu      sync.Mutex
	stop    func()
	nextSub int
	subs    map[int]func([]byte)
}

// OpenPorts opens the first in and out ports whose names contain the
// given hints, case insensitively. An empty hint matches the first
// port.
func OpenPorts(inHint, outHint string, logger *zap.Logger) (*PortTransport, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	in, err := findIn(inHint)
	if err != nil {
		return nil, err
	}
	out, err := findOut(outHint)
	if err != nil {
		return nil, err
	}
	if err := in.Open(); err != nil {
		return nil, fmt.Errorf("open MIDI input %s: %w", in.String(), err)
	}
	if err := out.Open(); err != nil {
		_ = in.Close()
		return nil, fmt.Errorf("open MIDI output %s: %w", out.String(), err)
	}
	logger.Sugar().Infow("opened MIDI ports", "in", in.String(), "out", out.String())
	return &PortTransport{
		in:    in,
		out:   out,
		sugar: logger.Sugar(),
		subs:  map[int]func([]byte){},
	}, nil
}

func findIn(hint string) (drivers.In, error) {
	ports, err := drivers.Ins()
	if err != nil {
		return nil, fmt.Errorf("list MIDI inputs: %w", err)
	}
	if len(ports) == 0 {
		return nil, fmt.Errorf("no MIDI input ports available")
	}
	if hint == "" {
		return ports[0], nil
	}
	for _, p := range ports {
		if strings.Contains(strings.ToLower(p.String()), strings.ToLower(hint)) {
			return p, nil
		}
	}
	return nil, fmt.Errorf("no MIDI input port matches %q", hint)
}

func findOut(hint string) (drivers.Out, error) {
	ports, err := drivers.Outs()
	if err != nil {
		return nil, fmt.Errorf("list MIDI outputs: %w", err)
	}
	if len(ports) == 0 {
		return nil, fmt.Errorf("no MIDI output ports available")
	}
	if hint == "" {
		return ports[0], nil
	}
	for _, p := range ports {
		if strings.Contains(strings.ToLower(p.String()), strings.ToLower(hint)) {
			return p, nil
		}
	}
	return nil, fmt.Errorf("no MIDI output port matches %q", hint)
}

// Send writes a raw SysEx frame to the output port.
func (t *PortTransport) Send(data []byte) error {
	if !t.out.IsOpen() {
		if err := t.out.Open(); err != nil {
			return err
		}
	}
	return t.out.Send(data)
}

// Subscribe registers a callback for every incoming SysEx message. The
// port listener starts on the first subscription.
func (t *PortTransport) Subscribe(fn func(data []byte)) (func(), error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stop == nil {
		stop, err := midi.ListenTo(t.in, func(msg midi.Message, _ int32) {
			if len(msg) == 0 || msg[0] != 0xF0 {
				return
			}
			t.dispatch(msg)
		}, midi.UseSysEx(), midi.SysExBufferSize(4096))
		if err != nil {
			return nil, fmt.Errorf("listen on %s: %w", t.in.String(), err)
		}
		t.stop = stop
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

func (t *PortTransport) dispatch(data []byte) {
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

// Close stops the listener and closes both ports.
func (t *PortTransport) Close() error {
	t.mu.Lock()
	if t.stop != nil {
		t.stop()
		t.stop = nil
	}
	t.mu.Unlock()
	inErr := t.in.Close()
	outErr := t.out.Close()
	if inErr != nil {
		return inErr
	}
	return outErr
}
