package radio

import "dblink/pkg/protocol"

// Event handed from driver callbacks to the receive task.
// Either SendCompleted or DataReceived.
type Event interface {
	radioEvent()
}

// Transmission finished
type SendCompleted struct {
	Peer   protocol.MAC
	Status SendStatus
}

// Frame received. Data is owned by the event.
type DataReceived struct {
	Peer protocol.MAC
	RSSI int8
	Data []byte
}

func (SendCompleted) radioEvent() {}
func (DataReceived) radioEvent()  {}

// Byte size of the event payload for queue accounting
func EventSize(event Event) (size int) {
	if received, ok := event.(DataReceived); ok {
		size = len(received.Data)
	}
	return
}
