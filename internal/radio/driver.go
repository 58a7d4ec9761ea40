// Boundary between the link layer and a datagram radio driver
package radio

import (
	"dblink/pkg/protocol"
	"errors"
)

var ErrClosed = errors.New("radio driver closed")

// Outcome reported by the driver once a transmission finished
type SendStatus uint8

const (
	StatusSuccess SendStatus = iota
	StatusFailed
)

func (status SendStatus) String() string {
	if status == StatusSuccess {
		return "success"
	}
	return "failed"
}

// Called from the driver context when a transmission completed
type SendCallback func(peer protocol.MAC, status SendStatus)

// Called from the driver context for every received frame.
// data is only valid for the duration of the call.
type RecvCallback func(peer protocol.MAC, rssi int8, data []byte)

// Connectionless, MAC addressed, payload capped datagram radio.
// Callbacks run in the driver's own context and must return quickly without blocking.
type Driver interface {
	MAC() protocol.MAC
	Send(dst protocol.MAC, frame []byte) error // synchronous submission, completion via SendCallback
	SetCallbacks(onSend SendCallback, onRecv RecvCallback)
	NoiseFloor() int8
	Close() error
}
