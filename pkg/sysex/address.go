package sysex

import "fmt"

// Address is the 4-byte location of a parameter in the S-330 address
// space. Byte 0 is always zero in observed traffic; byte 1 selects the
// space, byte 2 carries the item index scaled by the space stride, and
// byte 3 is the intra-item offset.
type Address [4]byte

func (a Address) String() string {
	return fmt.Sprintf("%02X %02X %02X %02X", a[0], a[1], a[2], a[3])
}

// Space identifies the semantic region an address belongs to.
type Space int

const (
	SpaceUnknown Space = iota
	SpacePatch
	SpaceTone
	SpaceFunction
	SpaceUIState
)

func (s Space) String() string {
	switch s {
	case SpacePatch:
		return "patch"
	case SpaceTone:
		return "tone"
	case SpaceFunction:
		return "function"
	case SpaceUIState:
		return "ui"
	}
	return "unknown"
}

const (
	patchSelector    = 0x00
	functionSelector = 0x01
	uiSelector       = 0x04

	patchStride = 4
	toneStride  = 2
)

// DefaultToneSelector is the byte-1 value marking the tone space on
// production firmware. Some units report 0x02 instead; see
// AddressMap.ToneSelector.
const DefaultToneSelector = 0x03

// uiSentinel is the one UI-space address the hardware broadcasts for
// front-panel button events. It never carries parameter data and must be
// filtered, not decoded. Any other byte1==0x04 address is unknown.
var uiSentinel = Address{0x00, 0x04, 0x00, 0x00}

// Location is a classified address. Index is the patch or tone number;
// it is -1 for function, UI and unknown locations.
type Location struct {
	Space Space
	Index int
}

// AddressMap translates between wire addresses and semantic locations.
// The zero value uses the production tone selector.
type AddressMap struct {
	// ToneSelector overrides the byte-1 value that marks the tone space.
	// Firmware revisions disagree on it (0x02 in early units, 0x03 in
	// production); zero means DefaultToneSelector.
	ToneSelector byte
}

func (m AddressMap) toneSelector() byte {
	if m.ToneSelector == 0 {
		return DefaultToneSelector
	}
	return m.ToneSelector
}

// Classify maps addr to its semantic location.
func (m AddressMap) Classify(addr Address) Location {
	switch addr[1] {
	case patchSelector:
		return Location{Space: SpacePatch, Index: int(addr[2]) / patchStride}
	case functionSelector:
		return Location{Space: SpaceFunction, Index: -1}
	case m.toneSelector():
		return Location{Space: SpaceTone, Index: int(addr[2]) / toneStride}
	case uiSelector:
		if addr == uiSentinel {
			return Location{Space: SpaceUIState, Index: -1}
		}
	}
	return Location{Space: SpaceUnknown, Index: -1}
}

// BuildAddress is the inverse of Classify: it produces the wire address
// for an item in the given space, applying the per-space stride. Offset
// is the intra-item byte. Function and UI addresses take no index.
func (m AddressMap) BuildAddress(space Space, index int, offset byte) (Address, error) {
	switch space {
	case SpacePatch:
		if index < 0 || index*patchStride > 0x7F {
			return Address{}, fmt.Errorf("patch index %d: %w", index, ErrRange)
		}
		return Address{0x00, patchSelector, byte(index * patchStride), offset}, nil
	case SpaceTone:
		if index < 0 || index*toneStride > 0x7F {
			return Address{}, fmt.Errorf("tone index %d: %w", index, ErrRange)
		}
		return Address{0x00, m.toneSelector(), byte(index * toneStride), offset}, nil
	case SpaceFunction:
		return Address{0x00, functionSelector, 0x00, offset}, nil
	case SpaceUIState:
		return uiSentinel, nil
	}
	return Address{}, fmt.Errorf("space %v: %w", space, ErrRange)
}

// UISentinel returns the front-panel broadcast address.
func UISentinel() Address {
	return uiSentinel
}
