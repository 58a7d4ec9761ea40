// Bounded table of broadcast peers heard by the ground unit
package peers

import (
	"dblink/internal/seqtrack"
	"dblink/pkg/protocol"
	"errors"
	"fmt"
)

// Maximum number of broadcast peers tracked at once
const Capacity int = protocol.MaxReportPeers

var ErrRegistryFull = errors.New("peer registry full")

// Broadcast peer as observed by the ground unit
type Entry struct {
	MAC  protocol.MAC
	RSSI int8
	seq  seqtrack.State
}

// Last accepted sequence number from this peer
func (entry *Entry) LastSeq() uint32 {
	return entry.seq.Last()
}

// Cumulative lost packets from this peer
func (entry *Entry) Lost() uint32 {
	return entry.seq.Lost()
}

// Fixed capacity registry with linear lookup by MAC.
// Not safe for concurrent use, owned by the receive task.
type Registry struct {
	entries  [Capacity]Entry
	count    int
	rejected uint64
}

// Registry Constructor
func NewRegistry() (new *Registry) {
	new = &Registry{}
	return
}

// Updates the peer in place or registers it when room remains.
// A full table rejects unknown peers and leaves existing entries untouched.
func (registry *Registry) Upsert(mac protocol.MAC, rssi int8, seq uint32) (lostDelta uint32, verdict seqtrack.Verdict, err error) {
	entry := registry.find(mac)
	if entry == nil {
		if registry.count >= Capacity {
			registry.rejected++
			err = fmt.Errorf("%w: cannot add %s", ErrRegistryFull, mac)
			return
		}
		entry = &registry.entries[registry.count]
		*entry = Entry{MAC: mac}
		registry.count++
	}

	entry.RSSI = rssi
	lostDelta, verdict = entry.seq.Observe(seq)
	return
}

// Copy of the entry for mac
func (registry *Registry) Lookup(mac protocol.MAC) (entry Entry, found bool) {
	ptr := registry.find(mac)
	if ptr == nil {
		return
	}
	entry = *ptr
	found = true
	return
}

func (registry *Registry) find(mac protocol.MAC) (entry *Entry) {
	for i := 0; i < registry.count; i++ {
		if registry.entries[i].MAC == mac {
			entry = &registry.entries[i]
			return
		}
	}
	return
}

// Number of registered peers
func (registry *Registry) Len() int {
	return registry.count
}

// True once any peer has been turned away for lack of room
func (registry *Registry) CapacityExceeded() bool {
	return registry.rejected > 0
}

// Number of rejected registrations
func (registry *Registry) Rejected() uint64 {
	return registry.rejected
}

// Snapshots the table into the internal telemetry message shape.
// Sequence and loss are narrowed to the 16 bit report fields.
func (registry *Registry) Report(noiseFloor int8) (report protocol.LinkReport) {
	report.NoiseFloor = noiseFloor
	report.Peers = make([]protocol.PeerInfo, registry.count)
	for i := 0; i < registry.count; i++ {
		entry := &registry.entries[i]
		report.Peers[i] = protocol.PeerInfo{
			MAC:     entry.MAC,
			RSSI:    entry.RSSI,
			LastSeq: uint16(entry.LastSeq()),
			Lost:    protocol.SaturateUint16(entry.Lost()),
		}
	}
	return
}
