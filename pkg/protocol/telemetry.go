package protocol

import (
	"encoding/binary"
	"fmt"
)

// Serializes the report as entry_count | noise_floor | entries
func (report LinkReport) MarshalBinary() (data []byte, err error) {
	if len(report.Peers) > MaxReportPeers {
		err = fmt.Errorf("%w: %d > %d", ErrTooManyPeers, len(report.Peers), MaxReportPeers)
		return
	}

	data = make([]byte, ReportSize(len(report.Peers)))
	data[0] = byte(len(report.Peers))
	data[1] = byte(report.NoiseFloor)

	offset := reportHeaderLen
	for _, peer := range report.Peers {
		entry := data[offset : offset+reportEntryLen]
		entry[0] = byte(peer.RSSI)
		binary.LittleEndian.PutUint16(entry[1:3], peer.LastSeq)
		binary.LittleEndian.PutUint16(entry[3:5], peer.Lost)
		copy(entry[5:], peer.MAC[:])
		offset += reportEntryLen
	}
	return
}

// Parses an internal telemetry payload.
// Trailing bytes beyond the declared entries are ignored.
func ParseLinkReport(data []byte) (report LinkReport, err error) {
	if len(data) < reportHeaderLen {
		err = fmt.Errorf("%w: %d bytes", ErrMalformedReport, len(data))
		return
	}

	count := int(data[0])
	if count > MaxReportPeers {
		err = fmt.Errorf("%w: %d > %d", ErrTooManyPeers, count, MaxReportPeers)
		return
	}
	if len(data) < ReportSize(count) {
		err = fmt.Errorf("%w: %d entries need %d bytes, have %d", ErrMalformedReport, count, ReportSize(count), len(data))
		return
	}

	report.NoiseFloor = int8(data[1])
	report.Peers = make([]PeerInfo, count)

	offset := reportHeaderLen
	for i := range report.Peers {
		entry := data[offset : offset+reportEntryLen]
		report.Peers[i].RSSI = int8(entry[0])
		report.Peers[i].LastSeq = binary.LittleEndian.Uint16(entry[1:3])
		report.Peers[i].Lost = binary.LittleEndian.Uint16(entry[3:5])
		copy(report.Peers[i].MAC[:], entry[5:])
		offset += reportEntryLen
	}
	return
}

// Serialized length of a report holding count peers
func ReportSize(count int) (size int) {
	size = reportHeaderLen + count*reportEntryLen
	return
}

// Narrows a 32 bit counter into a report field, saturating at the maximum
func SaturateUint16(value uint32) (narrow uint16) {
	if value > 0xFFFF {
		narrow = 0xFFFF
		return
	}
	narrow = uint16(value)
	return
}
