// Package s330 drives the Roland S-330 wire protocol: the bulk transfer
// handshake (RQD/DAT/ACK/EOD) and the decoding of unsolicited front-panel
// broadcasts. It speaks frames from pkg/sysex over an injected transport
// and has no knowledge of how the bytes move.
package s330

// Transport is a duplex byte channel to a sampler, usually a MIDI port
// pair. Implementations deliver every complete inbound SysEx message to
// each subscriber; subscriber callbacks must not block.
//
// The wire protocol is strictly sequential, so a Device serializes its
// own requests; a Transport only needs to be safe for concurrent Send
// and Subscribe calls.
type Transport interface {
	Send(data []byte) error
	// Subscribe registers fn for inbound SysEx messages and returns a
	// function that removes the registration. The returned cancel is
	// idempotent.
	Subscribe(fn func(data []byte)) (cancel func(), err error)
}
