package link

import (
	"dblink/pkg/protocol"
	"fmt"
	"sync"
	"sync/atomic"
)

var payloadPool = sync.Pool{
	New: func() any {
		buf := make([]byte, protocol.MaxPayloadSize)
		return &buf
	},
}

// Unit moved through the pipeline queues.
// Whoever dequeues it owns it and must call Release exactly once.
type Event struct {
	Type     protocol.PacketType
	Data     []byte
	buf      *[]byte
	released atomic.Bool
}

// Copies data into a pooled buffer
func NewEvent(ptype protocol.PacketType, data []byte) (event *Event, err error) {
	if len(data) > protocol.MaxPayloadSize {
		err = fmt.Errorf("%w: %d > %d bytes", protocol.ErrPayloadTooLarge, len(data), protocol.MaxPayloadSize)
		return
	}

	buf := payloadPool.Get().(*[]byte)
	n := copy(*buf, data)
	event = &Event{
		Type: ptype,
		Data: (*buf)[:n],
		buf:  buf,
	}
	return
}

// Returns the buffer to the pool. Later calls are no-ops.
func (event *Event) Release() {
	if event == nil || !event.released.CompareAndSwap(false, true) {
		return
	}
	clear(*event.buf)
	payloadPool.Put(event.buf)
	event.Data = nil
	event.buf = nil
}

// Byte size for queue accounting
func eventSize(event *Event) int {
	return len(event.Data)
}
