package s330

import (
	"fmt"
	"time"

	"github.com/oletizi/samplertools/pkg/sysex"
)

// ParameterChangeEvent is one decoded front-panel broadcast: the hardware
// emits a DT1 at a parameter address whenever a user turns a dial or
// edits a value on the unit. Events are immutable once created.
type ParameterChangeEvent struct {
	Space      sysex.Space
	Index      int // patch or tone number; -1 for function-scoped events
	Address    sysex.Address
	Payload    []byte // de-nibblized parameter bytes
	ReceivedAt time.Time
}

// PanelDecoder turns unsolicited DT1 broadcasts into events. Frames that
// are not DT1, or that land in the UI sentinel or an unknown address
// region, produce no event.
type PanelDecoder struct {
	Addrs sysex.AddressMap
}

// DecodeIncoming classifies f and returns the decoded event, if any.
// Manufacturer, model and checksum validation happen at parse time;
// the decoder only filters on command and address space.
func (p PanelDecoder) DecodeIncoming(f *sysex.Frame) (ParameterChangeEvent, bool) {
	if f == nil || f.Command != sysex.CmdDT1 || f.Address == nil {
		return ParameterChangeEvent{}, false
	}
	loc := p.Addrs.Classify(*f.Address)
	switch loc.Space {
	case sysex.SpaceUIState, sysex.SpaceUnknown:
		return ParameterChangeEvent{}, false
	}
	return ParameterChangeEvent{
		Space:      loc.Space,
		Index:      loc.Index,
		Address:    *f.Address,
		Payload:    sysex.Denibblize(f.Body),
		ReceivedAt: time.Now(),
	}, true
}

// Button is a front-panel control reachable over MIDI remote control.
type Button int

const (
	ButtonMode Button = iota
	ButtonExecute
	ButtonCursorLeft
	ButtonCursorRight
	ButtonCursorUp
	ButtonCursorDown
	ButtonIncrement
	ButtonDecrement
)

func (b Button) String() string {
	if name, ok := buttonNames[b]; ok {
		return name
	}
	return fmt.Sprintf("button(%d)", int(b))
}

var buttonNames = map[Button]string{
	ButtonMode:        "mode",
	ButtonExecute:     "execute",
	ButtonCursorLeft:  "cursor-left",
	ButtonCursorRight: "cursor-right",
	ButtonCursorUp:    "cursor-up",
	ButtonCursorDown:  "cursor-down",
	ButtonIncrement:   "increment",
	ButtonDecrement:   "decrement",
}

var buttonAliases = map[string]Button{
	"left":  ButtonCursorLeft,
	"right": ButtonCursorRight,
	"up":    ButtonCursorUp,
	"down":  ButtonCursorDown,
	"inc":   ButtonIncrement,
	"dec":   ButtonDecrement,
}

// ButtonByName resolves a CLI-friendly button name or alias.
func ButtonByName(name string) (Button, error) {
	for b, n := range buttonNames {
		if n == name {
			return b, nil
		}
	}
	if b, ok := buttonAliases[name]; ok {
		return b, nil
	}
	return 0, fmt.Errorf("unknown button %q", name)
}

var buttonCodes = map[Button]byte{
	ButtonMode:        0x01,
	ButtonExecute:     0x02,
	ButtonCursorLeft:  0x03,
	ButtonCursorRight: 0x04,
	ButtonCursorUp:    0x05,
	ButtonCursorDown:  0x06,
	ButtonIncrement:   0x10,
	ButtonDecrement:   0x11,
}

const (
	buttonPressed  = 0x01
	buttonReleased = 0x00
)

// DefaultPressDelay is the inter-message gap between the press and
// release frames of a two-frame button. The hardware's debounce logic
// drops pairs that arrive back to back, so the delay is a protocol
// requirement, not a pacing nicety.
const DefaultPressDelay = 50 * time.Millisecond

// ButtonFrames encodes one press of b as ready-to-send SysEx messages,
// addressed at the UI sentinel. Increment and decrement need an explicit
// press and release pair; every other button is a single frame. Frames
// after the first must be sent DefaultPressDelay (or the configured
// delay) apart.
func ButtonFrames(b Button, deviceID byte) ([][]byte, error) {
	code, ok := buttonCodes[b]
	if !ok {
		return nil, fmt.Errorf("unknown button %v", b)
	}
	ui := sysex.UISentinel()

	press, err := sysex.DataSet(deviceID, ui, sysex.Nibblize([]byte{code, buttonPressed}))
	if err != nil {
		return nil, err
	}
	if b != ButtonIncrement && b != ButtonDecrement {
		return [][]byte{press}, nil
	}

	release, err := sysex.DataSet(deviceID, ui, sysex.Nibblize([]byte{code, buttonReleased}))
	if err != nil {
		return nil, err
	}
	return [][]byte{press, release}, nil
}
