package sysex

import (
	"bytes"
	"errors"
	"testing"
)

func TestChecksumIdentity(t *testing.T) {
	bodies := [][]byte{
		{},
		{0x00, 0x00, 0x00, 0x00},
		{0x00, 0x00, 0x04, 0x00, 0x12, 0x34},
		{0x7F, 0x7F, 0x7F, 0x7F},
		{0x01},
		{0x10, 0x20, 0x30, 0x40, 0x50, 0x60, 0x70},
	}
	for _, body := range bodies {
		sum := 0
		for _, b := range body {
			sum += int(b)
		}
		if (sum+int(Checksum(body)))%128 != 0 {
			t.Errorf("checksum identity failed for %v: checksum = %d", body, Checksum(body))
		}
	}
}

func TestBuildFrameLayout(t *testing.T) {
	addr := Address{0x00, 0x00, 0x04, 0x00}
	msg, err := DataSet(3, addr, []byte{0x01, 0x02})
	if err != nil {
		t.Fatalf("DataSet() error = %v", err)
	}
	want := []byte{
		SysExStart, ManufacturerRoland, 0x03, ModelS330, byte(CmdDT1),
		0x00, 0x00, 0x04, 0x00, 0x01, 0x02,
		Checksum([]byte{0x00, 0x00, 0x04, 0x00, 0x01, 0x02}),
		SysExEnd,
	}
	if !bytes.Equal(msg, want) {
		t.Errorf("DataSet() = % X, want % X", msg, want)
	}
}

func TestBuildFrameDeviceRange(t *testing.T) {
	if _, err := Handshake(32, CmdACK); !errors.Is(err, ErrRange) {
		t.Errorf("Handshake(32) error = %v, want ErrRange", err)
	}
}

func TestHandshakeFrames(t *testing.T) {
	msg, err := Handshake(0, CmdACK)
	if err != nil {
		t.Fatalf("Handshake() error = %v", err)
	}
	want := []byte{SysExStart, ManufacturerRoland, 0x00, ModelS330, byte(CmdACK), SysExEnd}
	if !bytes.Equal(msg, want) {
		t.Errorf("Handshake() = % X, want % X", msg, want)
	}
}

func TestParseFrameRoundTrip(t *testing.T) {
	addr := Address{0x00, 0x03, 0x02, 0x10}
	msg, err := DataSet(5, addr, []byte{0x0A, 0x0B, 0x0C})
	if err != nil {
		t.Fatalf("DataSet() error = %v", err)
	}

	f, err := ParseFrame(msg, 5)
	if err != nil {
		t.Fatalf("ParseFrame() error = %v", err)
	}
	if f.Command != CmdDT1 {
		t.Errorf("Command = %v, want DT1", f.Command)
	}
	if f.DeviceID != 5 {
		t.Errorf("DeviceID = %d, want 5", f.DeviceID)
	}
	if f.Address == nil || *f.Address != addr {
		t.Errorf("Address = %v, want %v", f.Address, addr)
	}
	if !bytes.Equal(f.Body, []byte{0x0A, 0x0B, 0x0C}) {
		t.Errorf("Body = % X", f.Body)
	}
}

func TestParseFrameBulkRequest(t *testing.T) {
	addr := Address{0x00, 0x00, 0x00, 0x00}
	msg, err := BulkRequest(0, addr, SizeBytes(128))
	if err != nil {
		t.Fatalf("BulkRequest() error = %v", err)
	}
	f, err := ParseFrame(msg, AnyDevice)
	if err != nil {
		t.Fatalf("ParseFrame() error = %v", err)
	}
	if f.Command != CmdRQD {
		t.Errorf("Command = %v, want RQD", f.Command)
	}
	if !bytes.Equal(f.Body, []byte{0x00, 0x00, 0x01, 0x00}) {
		t.Errorf("size body = % X", f.Body)
	}
}

func TestParseFrameErrors(t *testing.T) {
	good, _ := DataSet(1, Address{0, 0, 0, 0}, []byte{0x01})

	corrupt := append([]byte(nil), good...)
	corrupt[len(corrupt)-2] ^= 0x01 // clobber checksum

	foreign := append([]byte(nil), good...)
	foreign[1] = 0x43

	wrongModel := append([]byte(nil), good...)
	wrongModel[3] = 0x14

	tests := []struct {
		name   string
		data   []byte
		expect int
		err    error
	}{
		{"too short", []byte{0xF0, 0x41, 0xF7}, AnyDevice, ErrFrameTooShort},
		{"no envelope", []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06}, AnyDevice, ErrNotSysEx},
		{"wrong manufacturer", foreign, AnyDevice, ErrWrongManufacturer},
		{"wrong model", wrongModel, AnyDevice, ErrWrongModel},
		{"wrong device", good, 2, ErrWrongDevice},
		{"checksum mismatch", corrupt, AnyDevice, ErrChecksumMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseFrame(tt.data, tt.expect)
			if !errors.Is(err, tt.err) {
				t.Errorf("ParseFrame() error = %v, want %v", err, tt.err)
			}
		})
	}
}

func TestSizeBytes(t *testing.T) {
	tests := []struct {
		n    int
		want [4]byte
	}{
		{0, [4]byte{0, 0, 0, 0}},
		{127, [4]byte{0, 0, 0, 0x7F}},
		{128, [4]byte{0, 0, 0x01, 0x00}},
		{16384, [4]byte{0, 0x01, 0x00, 0x00}},
	}
	for _, tt := range tests {
		if got := SizeBytes(tt.n); got != tt.want {
			t.Errorf("SizeBytes(%d) = %v, want %v", tt.n, got, tt.want)
		}
	}
}
