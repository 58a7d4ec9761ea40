package protocol

// Role that produced a packet
type Origin uint8

const (
	OriginGround Origin = 0
	OriginAir    Origin = 1
)

// Content carried by the protected block
type PacketType uint8

const (
	TypeData              PacketType = 0
	TypeInternalTelemetry PacketType = 1
)

// Field widths of the clear header
const (
	originLen int = 1
	typeLen   int = 1
	seqLen    int = 4
	IVLen     int = 12
	TagLen    int = 16
	LengthLen int = 1

	// origin | type | seq
	headerFixedLen int = originLen + typeLen + seqLen
	HeaderLen      int = headerFixedLen + IVLen
)

// Radio datagram limit and derived capacities
const (
	MaxPacketSize  int = 250
	Overhead       int = HeaderLen + TagLen + LengthLen
	MaxPayloadSize int = MaxPacketSize - IVLen - TagLen - headerFixedLen - LengthLen
	MinPacketSize  int = Overhead
)

// Internal telemetry layout
const (
	MaxReportPeers  int = 19
	reportHeaderLen int = 2 // entry_count | noise_floor
	reportEntryLen  int = 1 + 2 + 2 + 6
	MACLen          int = 6
)

func (o Origin) String() string {
	switch o {
	case OriginGround:
		return "ground"
	case OriginAir:
		return "air"
	default:
		return "unknown"
	}
}

func (o Origin) valid() bool {
	return o == OriginGround || o == OriginAir
}

func (t PacketType) String() string {
	switch t {
	case TypeData:
		return "data"
	case TypeInternalTelemetry:
		return "internal-telemetry"
	default:
		return "unknown"
	}
}

func (t PacketType) valid() bool {
	return t == TypeData || t == TypeInternalTelemetry
}
