package protocol

import "net"

// Link-layer address of a radio peer
type MAC [MACLen]byte

// Broadcast destination used by both roles
var BroadcastMAC = MAC{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}

func (m MAC) String() string {
	return net.HardwareAddr(m[:]).String()
}

// Parses colon or dash separated hex addresses
func ParseMAC(text string) (mac MAC, err error) {
	hw, err := net.ParseMAC(text)
	if err != nil {
		return
	}
	if len(hw) != MACLen {
		err = &net.AddrError{Err: "not a 6 byte hardware address", Addr: text}
		return
	}
	copy(mac[:], hw)
	return
}

// Clear header, authenticated but not encrypted
type Header struct {
	Origin Origin
	Type   PacketType
	Seq    uint32
	IV     [IVLen]byte
}

// Decoded packet. Payload is owned by the caller.
type Packet struct {
	Header  Header
	Payload []byte
}

// Internal telemetry message sent from ground to air
type LinkReport struct {
	NoiseFloor int8
	Peers      []PeerInfo
}

// One broadcast peer as seen from the ground
type PeerInfo struct {
	RSSI    int8
	LastSeq uint16
	Lost    uint16
	MAC     MAC
}
