package sysex

import (
	"bytes"
	"errors"
	"testing"
)

func TestNibbleRoundTrip(t *testing.T) {
	for b := 0; b <= 255; b++ {
		lo, hi, err := ByteToNibbles(b)
		if err != nil {
			t.Fatalf("ByteToNibbles(%d) error = %v", b, err)
		}
		got, err := NibblesToByte(int(lo), int(hi))
		if err != nil {
			t.Fatalf("NibblesToByte(%d, %d) error = %v", lo, hi, err)
		}
		if int(got) != b {
			t.Errorf("round trip of %d = %d", b, got)
		}
	}
}

func TestByteToNibblesRange(t *testing.T) {
	for _, b := range []int{-1, 256, 1000} {
		if _, _, err := ByteToNibbles(b); !errors.Is(err, ErrRange) {
			t.Errorf("ByteToNibbles(%d) error = %v, want ErrRange", b, err)
		}
	}
}

func TestNibblesToByteRange(t *testing.T) {
	tests := []struct {
		lo, hi int
	}{
		{16, 0},
		{0, 16},
		{-1, 0},
		{0, -1},
	}
	for _, tt := range tests {
		if _, err := NibblesToByte(tt.lo, tt.hi); !errors.Is(err, ErrRange) {
			t.Errorf("NibblesToByte(%d, %d) error = %v, want ErrRange", tt.lo, tt.hi, err)
		}
	}
}

func TestDenibblize(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want []byte
	}{
		{"ascii AB", []byte{0x4, 0x1, 0x4, 0x2}, []byte{0x41, 0x42}},
		{"empty", nil, []byte{}},
		{"trailing nibble dropped", []byte{0x4, 0x1, 0x7}, []byte{0x41}},
		{"single nibble dropped", []byte{0x9}, []byte{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Denibblize(tt.in)
			if !bytes.Equal(got, tt.want) {
				t.Errorf("Denibblize(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestNibblizeRoundTrip(t *testing.T) {
	in := []byte{0x00, 0x41, 0x7F, 0xFF, 0x80}
	out := Denibblize(Nibblize(in))
	if !bytes.Equal(out, in) {
		t.Errorf("Denibblize(Nibblize(%v)) = %v", in, out)
	}
}
