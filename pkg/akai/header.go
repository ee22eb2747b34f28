// Package akai implements the nibble-packed binary layout of Akai
// S1000/S3000 program, keygroup and sample headers, and the disk
// hierarchy produced by an external listing utility. It is independent
// of MIDI: headers operate on raw nibble arrays, the directory model on
// listing text.
package akai

import (
	"errors"
	"fmt"
	"strings"
)

// Leader is the length, in nibble positions, of the envelope artifact
// prefixed to every header. It carries no semantic data.
const Leader = 7

// NameLength is the byte width of every name field.
const NameLength = 12

// KeygroupChunk is the size of one keygroup region in nibble positions.
// A program's raw data is chunk 0; keygroup i lives at chunk i+1.
const KeygroupChunk = 384

// FieldKind distinguishes numeric from text fields.
type FieldKind int

const (
	FieldNumber FieldKind = iota
	FieldString
)

// FieldSpec describes one header field. Size is in bytes: a numeric
// field of Size n occupies n little-endian nibble pairs; a string field
// of Size n holds n characters in the Akai character set. Offsets are
// implicit: a spec is walked in declaration order.
type FieldSpec struct {
	Name string
	Kind FieldKind
	Size int
}

// nibbleWidth is the field's extent in nibble positions.
func (f FieldSpec) nibbleWidth() int { return f.Size * 2 }

// SpecWidth returns the total extent of spec in nibble positions.
func SpecWidth(spec []FieldSpec) int {
	w := 0
	for _, f := range spec {
		w += f.nibbleWidth()
	}
	return w
}

// FieldOffset returns the nibble offset of name relative to the start of
// the field region.
func FieldOffset(spec []FieldSpec, name string) (int, bool) {
	pos := 0
	for _, f := range spec {
		if f.Name == name {
			return pos, true
		}
		pos += f.nibbleWidth()
	}
	return 0, false
}

var (
	ErrShortData    = errors.New("nibble data too short")
	ErrUnknownField = errors.New("unknown header field")
	ErrFieldKind    = errors.New("wrong field kind")
)

type fieldValue struct {
	spec   FieldSpec
	offset int // absolute nibble offset within raw
	number int
	text   string
}

// Header is a parsed fixed-layout Akai record. It owns its nibble buffer;
// the parsed field values and the buffer are kept consistent: every
// mutation rewrites the nibbles at the field's offset and then re-runs
// the parser so derived and adjacent fields cannot drift.
type Header struct {
	spec   []FieldSpec
	raw    []byte
	base   int
	fields map[string]*fieldValue
}

// ParseHeader walks spec over an owned copy of nibbles, with fields
// starting at offset.
func ParseHeader(nibbles []byte, offset int, spec []FieldSpec) (*Header, error) {
	if offset < 0 || offset+SpecWidth(spec) > len(nibbles) {
		return nil, fmt.Errorf("%w: need %d nibbles at offset %d, have %d",
			ErrShortData, SpecWidth(spec), offset, len(nibbles))
	}
	h := &Header{
		spec: spec,
		raw:  append([]byte(nil), nibbles...),
		base: offset,
	}
	h.reparse()
	return h, nil
}

// reparse rebuilds every structured field from raw. Mutators call it
// after writing nibbles; rewalking the whole spec is cheap and keeps the
// consistency invariant trivially true.
func (h *Header) reparse() {
	fields := make(map[string]*fieldValue, len(h.spec))
	pos := h.base
	for _, f := range h.spec {
		fv := &fieldValue{spec: f, offset: pos}
		switch f.Kind {
		case FieldNumber:
			fv.number = readNumber(h.raw, pos, f.Size)
		case FieldString:
			fv.text = readString(h.raw, pos, f.Size)
		}
		fields[f.Name] = fv
		pos += f.nibbleWidth()
	}
	h.fields = fields
}

// Bytes returns a copy of the raw nibble buffer.
func (h *Header) Bytes() []byte {
	return append([]byte(nil), h.raw...)
}

// Number returns the value of a numeric field.
func (h *Header) Number(name string) (int, error) {
	fv, ok := h.fields[name]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownField, name)
	}
	if fv.spec.Kind != FieldNumber {
		return 0, fmt.Errorf("%w: %s is not numeric", ErrFieldKind, name)
	}
	return fv.number, nil
}

// Text returns the value of a string field, trailing padding trimmed.
func (h *Header) Text(name string) (string, error) {
	fv, ok := h.fields[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownField, name)
	}
	if fv.spec.Kind != FieldString {
		return "", fmt.Errorf("%w: %s is not a string", ErrFieldKind, name)
	}
	return strings.TrimRight(fv.text, " "), nil
}

// SetNumber writes a numeric field and re-parses the header.
func (h *Header) SetNumber(name string, value int) error {
	fv, ok := h.fields[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownField, name)
	}
	if fv.spec.Kind != FieldNumber {
		return fmt.Errorf("%w: %s is not numeric", ErrFieldKind, name)
	}
	if value < 0 || value >= 1<<(8*fv.spec.Size) {
		return fmt.Errorf("value %d does not fit %d byte(s) for %s", value, fv.spec.Size, name)
	}
	putNumber(h.raw, fv.offset, fv.spec.Size, value)
	h.reparse()
	return nil
}

// SetText writes a string field, space-padded to the field width, and
// re-parses the header. Values longer than the field are rejected.
func (h *Header) SetText(name, value string) error {
	fv, ok := h.fields[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownField, name)
	}
	if fv.spec.Kind != FieldString {
		return fmt.Errorf("%w: %s is not a string", ErrFieldKind, name)
	}
	if len(value) > fv.spec.Size {
		return fmt.Errorf("name %q exceeds %d characters for %s", value, fv.spec.Size, name)
	}
	putString(h.raw, fv.offset, fv.spec.Size, value)
	h.reparse()
	return nil
}

// The S1000 sends the low nibble of each data byte first.

func readNumber(raw []byte, pos, size int) int {
	v := 0
	for i := 0; i < size; i++ {
		b := int(raw[pos+2*i]&0x0F) | int(raw[pos+2*i+1]&0x0F)<<4
		v |= b << (8 * i)
	}
	return v
}

func putNumber(raw []byte, pos, size, value int) {
	for i := 0; i < size; i++ {
		b := byte(value >> (8 * i))
		raw[pos+2*i] = b & 0x0F
		raw[pos+2*i+1] = b >> 4
	}
}

func readString(raw []byte, pos, size int) string {
	var sb strings.Builder
	for i := 0; i < size; i++ {
		b := raw[pos+2*i]&0x0F | raw[pos+2*i+1]&0x0F<<4
		sb.WriteRune(akaiToChar(b))
	}
	return sb.String()
}

func putString(raw []byte, pos, size int, s string) {
	chars := []rune(strings.ToUpper(s))
	for i := 0; i < size; i++ {
		var b byte = akaiSpace
		if i < len(chars) {
			b = charToAkai(chars[i])
		}
		raw[pos+2*i] = b & 0x0F
		raw[pos+2*i+1] = b >> 4
	}
}

// Akai name fields use their own character set: 0-9 are digits, 10 is
// space, 11-36 are A-Z, then #, +, - and period.
const akaiSpace = 10

func akaiToChar(b byte) rune {
	switch {
	case b <= 9:
		return rune('0' + b)
	case b == akaiSpace:
		return ' '
	case b >= 11 && b <= 36:
		return rune('A' + b - 11)
	case b == 37:
		return '#'
	case b == 38:
		return '+'
	case b == 39:
		return '-'
	case b == 40:
		return '.'
	}
	return ' '
}

func charToAkai(r rune) byte {
	switch {
	case r >= '0' && r <= '9':
		return byte(r - '0')
	case r == ' ':
		return akaiSpace
	case r >= 'A' && r <= 'Z':
		return byte(r-'A') + 11
	case r == '#':
		return 37
	case r == '+':
		return 38
	case r == '-':
		return 39
	case r == '.':
		return 40
	}
	return akaiSpace
}
