// Package sysex implements the Roland S-330 System Exclusive wire format:
// nibble packing, frame construction and parsing, and the mapping between
// 4-byte wire addresses and semantic sampler locations.
package sysex

import (
	"errors"
	"fmt"
)

// ErrRange reports a value outside the domain of a codec operation.
var ErrRange = errors.New("value out of range")

// ByteToNibbles splits b into its low and high 4-bit halves.
// b must be in 0..255.
func ByteToNibbles(b int) (lo, hi byte, err error) {
	if b < 0 || b > 0xFF {
		return 0, 0, fmt.Errorf("byte %d: %w", b, ErrRange)
	}
	return byte(b & 0x0F), byte(b >> 4), nil
}

// NibblesToByte combines two 4-bit values into one byte.
// Each input must be in 0..15.
func NibblesToByte(lo, hi int) (byte, error) {
	if lo < 0 || lo > 0x0F {
		return 0, fmt.Errorf("low nibble %d: %w", lo, ErrRange)
	}
	if hi < 0 || hi > 0x0F {
		return 0, fmt.Errorf("high nibble %d: %w", hi, ErrRange)
	}
	return byte(hi<<4 | lo), nil
}

// Denibblize consumes nibble bytes pairwise, high nibble first, producing
// half as many output bytes. A trailing unpaired nibble is dropped
// silently; callers that care about odd-length input must check before
// calling.
func Denibblize(nibbles []byte) []byte {
	out := make([]byte, 0, len(nibbles)/2)
	for i := 0; i+1 < len(nibbles); i += 2 {
		out = append(out, (nibbles[i]&0x0F)<<4|nibbles[i+1]&0x0F)
	}
	return out
}

// Nibblize expands each byte into two nibble bytes, high nibble first.
// It is the inverse of Denibblize for even-length nibble streams.
func Nibblize(data []byte) []byte {
	out := make([]byte, 0, len(data)*2)
	for _, b := range data {
		out = append(out, b>>4, b&0x0F)
	}
	return out
}
