package protocol

import (
	"encoding/binary"
	"fmt"
)

// Writes the header into dst, which must hold HeaderLen bytes
func (h Header) put(dst []byte) {
	dst[0] = byte(h.Origin)
	dst[1] = byte(h.Type)
	binary.LittleEndian.PutUint32(dst[2:6], h.Seq)
	copy(dst[headerFixedLen:HeaderLen], h.IV[:])
}

// Serializes the header fields in wire order
func (h Header) MarshalBinary() (data []byte, err error) {
	err = h.validate()
	if err != nil {
		return
	}
	data = make([]byte, HeaderLen)
	h.put(data)
	return
}

// Reads the clear header from the front of a wire packet.
// Only the layout is checked here, authenticity is checked by Decode.
func ParseHeader(wire []byte) (h Header, err error) {
	if len(wire) < HeaderLen {
		err = fmt.Errorf("%w: %d bytes is shorter than header", ErrMalformedPacket, len(wire))
		return
	}
	h = readHeader(wire)
	err = h.validate()
	return
}

// Field split of the first HeaderLen bytes, no range checks
func readHeader(wire []byte) (h Header) {
	h.Origin = Origin(wire[0])
	h.Type = PacketType(wire[1])
	h.Seq = binary.LittleEndian.Uint32(wire[2:6])
	copy(h.IV[:], wire[headerFixedLen:HeaderLen])
	return
}

func (h Header) validate() (err error) {
	if !h.Origin.valid() || !h.Type.valid() {
		err = fmt.Errorf("%w: origin %d type %d", ErrInvalidHeader, h.Origin, h.Type)
	}
	return
}

// Total wire length for a payload of the given size
func PacketSize(payloadLen int) (size int) {
	size = Overhead + payloadLen
	return
}
