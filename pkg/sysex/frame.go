package sysex

import (
	"errors"
	"fmt"
)

// SysEx framing constants.
const (
	SysExStart = 0xF0
	SysExEnd   = 0xF7

	ManufacturerRoland = 0x41
	ModelS330          = 0x16
)

// MaxDeviceID is the highest wire device id. The hardware front panel
// shows ids as 1-32; on the wire they are always 0-31.
const MaxDeviceID = 31

// AnyDevice disables device-id filtering in ParseFrame.
const AnyDevice = -1

// Command is a Roland SysEx command code.
type Command byte

const (
	CmdRQ1 Command = 0x11 // single-shot data request
	CmdDT1 Command = 0x12 // data set / unsolicited broadcast
	CmdWSD Command = 0x40 // want to send data
	CmdRQD Command = 0x41 // bulk data request
	CmdDAT Command = 0x42 // bulk data packet
	CmdACK Command = 0x43 // acknowledge
	CmdEOD Command = 0x45 // end of data
	CmdERR Command = 0x4E // communication error
	CmdRJC Command = 0x4F // rejection
)

func (c Command) String() string {
	switch c {
	case CmdRQ1:
		return "RQ1"
	case CmdDT1:
		return "DT1"
	case CmdWSD:
		return "WSD"
	case CmdRQD:
		return "RQD"
	case CmdDAT:
		return "DAT"
	case CmdACK:
		return "ACK"
	case CmdEOD:
		return "EOD"
	case CmdERR:
		return "ERR"
	case CmdRJC:
		return "RJC"
	}
	return fmt.Sprintf("0x%02X", byte(c))
}

// Frame parse errors. Callers awaiting a specific reply should drop the
// offending bytes and keep listening rather than abort the session.
var (
	ErrFrameTooShort     = errors.New("frame too short")
	ErrNotSysEx          = errors.New("not a sysex frame")
	ErrWrongManufacturer = errors.New("wrong manufacturer id")
	ErrWrongModel        = errors.New("wrong model id")
	ErrWrongDevice       = errors.New("unexpected device id")
	ErrChecksumMismatch  = errors.New("checksum mismatch")
)

// Frame is a parsed S-330 SysEx message.
type Frame struct {
	DeviceID byte
	Command  Command
	Address  *Address // nil when the command carries no address
	Body     []byte   // bytes between the address (or command) and the checksum
}

// Checksum computes the Roland 7-bit checksum over body. The sum of the
// returned value and every byte it covers is congruent to 0 mod 128.
// This exact formula is the wire contract.
func Checksum(body []byte) byte {
	sum := 0
	for _, b := range body {
		sum += int(b)
	}
	return byte((128 - sum%128) % 128)
}

// SizeBytes encodes a byte count as four 7-bit bytes, most significant
// first, for RQ1/RQD size fields.
func SizeBytes(n int) [4]byte {
	return [4]byte{
		byte(n >> 21 & 0x7F),
		byte(n >> 14 & 0x7F),
		byte(n >> 7 & 0x7F),
		byte(n & 0x7F),
	}
}

// hasAddress reports whether cmd carries a 4-byte address after the
// command byte. DAT packets carry data only; handshake commands carry
// nothing.
func hasAddress(cmd Command) bool {
	switch cmd {
	case CmdRQ1, CmdDT1, CmdWSD, CmdRQD:
		return true
	}
	return false
}

// BuildFrame assembles a complete S-330 SysEx message. The checksum is
// computed over the address and payload bytes; frames with neither (the
// handshake commands) carry no checksum.
func BuildFrame(deviceID byte, cmd Command, addr *Address, payload []byte) ([]byte, error) {
	if deviceID > MaxDeviceID {
		return nil, fmt.Errorf("device id %d: %w", deviceID, ErrRange)
	}
	msg := []byte{SysExStart, ManufacturerRoland, deviceID, ModelS330, byte(cmd)}
	var body []byte
	if addr != nil {
		body = append(body, addr[:]...)
	}
	body = append(body, payload...)
	if len(body) > 0 {
		msg = append(msg, body...)
		msg = append(msg, Checksum(body))
	}
	return append(msg, SysExEnd), nil
}

// RequestData builds an RQ1 single-shot data request for size bytes at addr.
func RequestData(deviceID byte, addr Address, size [4]byte) ([]byte, error) {
	return BuildFrame(deviceID, CmdRQ1, &addr, size[:])
}

// DataSet builds a DT1 message writing payload at addr.
func DataSet(deviceID byte, addr Address, payload []byte) ([]byte, error) {
	return BuildFrame(deviceID, CmdDT1, &addr, payload)
}

// BulkRequest builds an RQD bulk data request for size bytes at addr.
func BulkRequest(deviceID byte, addr Address, size [4]byte) ([]byte, error) {
	return BuildFrame(deviceID, CmdRQD, &addr, size[:])
}

// Handshake builds a bare handshake message (ACK, EOD, ERR or RJC).
func Handshake(deviceID byte, cmd Command) ([]byte, error) {
	return BuildFrame(deviceID, cmd, nil, nil)
}

// minFrameLen is a bare handshake frame: F0 mfr dev model cmd F7.
const minFrameLen = 6

// ParseFrame validates and decodes an S-330 SysEx message. It rejects
// short frames, frames without the F0/F7 envelope, foreign manufacturer
// or model ids, and frames whose trailing checksum does not cover the
// address and body. expectDevice filters on the wire device id; pass
// AnyDevice to accept every unit.
func ParseFrame(data []byte, expectDevice int) (*Frame, error) {
	if len(data) < minFrameLen {
		return nil, fmt.Errorf("%w: %d bytes", ErrFrameTooShort, len(data))
	}
	if data[0] != SysExStart || data[len(data)-1] != SysExEnd {
		return nil, ErrNotSysEx
	}
	if data[1] != ManufacturerRoland {
		return nil, fmt.Errorf("%w: 0x%02X", ErrWrongManufacturer, data[1])
	}
	if data[2] > MaxDeviceID {
		return nil, fmt.Errorf("device id %d: %w", data[2], ErrRange)
	}
	if data[3] != ModelS330 {
		return nil, fmt.Errorf("%w: 0x%02X", ErrWrongModel, data[3])
	}
	if expectDevice != AnyDevice && int(data[2]) != expectDevice {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrWrongDevice, data[2], expectDevice)
	}

	f := &Frame{DeviceID: data[2], Command: Command(data[4])}
	inner := data[5 : len(data)-1]
	if len(inner) == 0 {
		return f, nil
	}

	// Everything between the command byte and the terminator is address
	// (when the command has one), body, and a trailing checksum.
	if len(inner) < 1 {
		return nil, ErrFrameTooShort
	}
	covered := inner[:len(inner)-1]
	sum := inner[len(inner)-1]
	if Checksum(covered) != sum {
		return nil, fmt.Errorf("%w: got 0x%02X, want 0x%02X", ErrChecksumMismatch, sum, Checksum(covered))
	}

	if hasAddress(f.Command) {
		if len(covered) < 4 {
			return nil, fmt.Errorf("%w: no room for address", ErrFrameTooShort)
		}
		var addr Address
		copy(addr[:], covered[:4])
		f.Address = &addr
		covered = covered[4:]
	}
	f.Body = append([]byte(nil), covered...)
	return f, nil
}
