package s330

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/oletizi/samplertools/pkg/sysex"
)

// SessionState tracks a bulk transfer exchange through its lifecycle.
type SessionState int

const (
	StateIdle SessionState = iota
	StateRequestSent
	StateAwaitingAck
	StateAwaitingData
	StateCollecting
	StateComplete
	StateRejected
	StateErrored
	StateTimedOut
)

func (s SessionState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRequestSent:
		return "request-sent"
	case StateAwaitingAck:
		return "awaiting-ack"
	case StateAwaitingData:
		return "awaiting-data"
	case StateCollecting:
		return "collecting"
	case StateComplete:
		return "complete"
	case StateRejected:
		return "rejected"
	case StateErrored:
		return "errored"
	case StateTimedOut:
		return "timed-out"
	}
	return "unknown"
}

// Terminal reports whether the session has finished, successfully or not.
func (s SessionState) Terminal() bool {
	switch s {
	case StateComplete, StateRejected, StateErrored, StateTimedOut:
		return true
	}
	return false
}

// Protocol-terminal conditions. All of these end the session; none are
// retried automatically.
var (
	ErrRejected = errors.New("device rejected request")
	ErrProtocol = errors.New("device protocol error")
	ErrTimeout  = errors.New("timed out waiting for device")
	ErrBusy     = errors.New("transfer already in progress")
)

// Session is one bulk transfer exchange. It is created per request and
// reaches exactly one terminal state; callers read the collected packets
// after the driving call returns.
type Session struct {
	ID      uuid.UUID
	Address sysex.Address
	Size    int
	Started time.Time

	state     SessionState
	packets   [][]byte
	offending sysex.Command
}

func newSession(addr sysex.Address, size int) *Session {
	return &Session{
		ID:      uuid.New(),
		Address: addr,
		Size:    size,
		Started: time.Now(),
		state:   StateIdle,
	}
}

// State returns the session state.
func (s *Session) State() SessionState { return s.state }

// Packets returns the ordered DAT payloads collected so far.
func (s *Session) Packets() [][]byte { return s.packets }

// Data concatenates the collected packet payloads in arrival order.
func (s *Session) Data() []byte {
	var out []byte
	for _, p := range s.packets {
		out = append(out, p...)
	}
	return out
}

// Decoded de-nibblizes the concatenated payload into parameter bytes.
func (s *Session) Decoded() []byte {
	return sysex.Denibblize(s.Data())
}

// Offending returns the command code that forced an Errored state.
func (s *Session) Offending() sysex.Command { return s.offending }
