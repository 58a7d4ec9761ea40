package link

import (
	"dblink/internal/radio"
	"dblink/pkg/protocol"
)

// Driver context: copy the frame and hand it to the receive task without blocking
func (module *Module) onReceive(peer protocol.MAC, rssi int8, data []byte) {
	if len(data) < protocol.MinPacketSize || len(data) > protocol.MaxPacketSize {
		module.Metrics.ValidationFailures.Add(1)
		return
	}

	event := radio.DataReceived{
		Peer: peer,
		RSSI: rssi,
		Data: append([]byte(nil), data...),
	}
	if !module.radioEvents.TryPush(event) {
		module.Metrics.EventDrops.Add(1)
	}
}

// Driver context: completion status is accounted by the receive task
func (module *Module) onSendComplete(peer protocol.MAC, status radio.SendStatus) {
	if !module.radioEvents.TryPush(radio.SendCompleted{Peer: peer, Status: status}) {
		module.Metrics.EventDrops.Add(1)
	}
}
