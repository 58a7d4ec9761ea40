// End-to-end tests of the serial bridge over a shared radio medium
package integration

import (
	"bytes"
	"dblink/internal/link"
	"dblink/internal/radio/loopback"
	"dblink/pkg/protocol"
	"sync/atomic"
	"testing"
	"time"
)

// Host bytes written to one unit's serial port come out of the other unit's port
func TestSerialBridgeBothDirections(t *testing.T) {
	ctx := testContext(t)
	medium := loopback.NewMedium()

	ground := startUnit(t, ctx, medium.Attach(groundMAC, -42, -94), link.Config{
		Role:           protocol.OriginGround,
		ReportInterval: 20 * time.Millisecond,
	})
	air := startUnit(t, ctx, medium.Attach(airMAC, -57, -91), link.Config{Role: protocol.OriginAir})

	tests := []struct {
		name   string
		from   *unit
		to     *unit
		chunks [][]byte
	}{
		{
			name:   "uplink rc frames",
			from:   ground,
			to:     air,
			chunks: [][]byte{chunk(0, 26), chunk(1, 26), chunk(2, 26), chunk(3, 1)},
		},
		{
			name:   "downlink full payloads",
			from:   air,
			to:     ground,
			chunks: [][]byte{chunk(4, protocol.MaxPayloadSize), chunk(5, protocol.MaxPayloadSize), chunk(6, 90)},
		},
		{
			name:   "uplink burst larger than one packet",
			from:   ground,
			to:     air,
			chunks: [][]byte{chunk(7, 2*protocol.MaxPayloadSize+17)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := len(tt.to.port.written())
			expected := bytes.Join(tt.chunks, nil)

			tt.from.hostWrite(t, tt.chunks)

			waitFor(t, tt.name, func() bool { return len(tt.to.port.written())-before >= len(expected) })

			got := tt.to.port.written()[before:]
			if !bytes.Equal(got, expected) {
				t.Errorf("expected %d bytes %x, got %d bytes %x", len(expected), expected, len(got), got)
			}
		})
	}

	// Neither side echoes its own traffic
	if ground.link.Metrics.OwnOrigin.Load() != 0 || air.link.Metrics.OwnOrigin.Load() != 0 {
		t.Errorf("no unit should hear a frame of its own role")
	}
	if failures := ground.link.Metrics.AuthFailures.Load() + air.link.Metrics.AuthFailures.Load(); failures != 0 {
		t.Errorf("expected no authentication failures, got %d", failures)
	}
}

// Ground telemetry reaches the air unit and lists the air radio
func TestLinkReportOverBridge(t *testing.T) {
	ctx := testContext(t)
	medium := loopback.NewMedium()

	startUnit(t, ctx, medium.Attach(groundMAC, -42, -94), link.Config{
		Role:           protocol.OriginGround,
		ReportInterval: 10 * time.Millisecond,
	})
	air := startUnit(t, ctx, medium.Attach(airMAC, -63, -91), link.Config{Role: protocol.OriginAir})

	air.hostWrite(t, [][]byte{[]byte("heartbeat")})

	waitFor(t, "report listing the air radio", func() bool {
		report, ok := air.link.LatestLinkReport()
		return ok && len(report.Peers) == 1
	})

	report, _ := air.link.LatestLinkReport()
	if report.NoiseFloor != -94 {
		t.Errorf("expected ground noise floor -94, got %d", report.NoiseFloor)
	}
	peer := report.Peers[0]
	if peer.MAC != airMAC || peer.RSSI != -63 || peer.Lost != 0 {
		t.Errorf("unexpected peer entry %+v", peer)
	}

	// Telemetry is consumed by the link, never written to the flight controller
	if written := air.port.written(); len(written) != 0 {
		t.Errorf("expected nothing on the air serial port, got %q", written)
	}
}

// A frame lost on the air shows up as a gap on the receiver and a hole in the serial stream
func TestUplinkLossAccounted(t *testing.T) {
	ctx := testContext(t)
	medium := loopback.NewMedium()

	var dataFrames atomic.Int64
	medium.SetDropper(func(src, dst protocol.MAC, frame []byte) bool {
		header, err := protocol.ParseHeader(frame)
		if err != nil || src != groundMAC || header.Type != protocol.TypeData {
			return false
		}
		return dataFrames.Add(1) == 3
	})

	ground := startUnit(t, ctx, medium.Attach(groundMAC, -40, -90), link.Config{
		Role:           protocol.OriginGround,
		ReportInterval: time.Hour,
	})
	air := startUnit(t, ctx, medium.Attach(airMAC, -50, -90), link.Config{Role: protocol.OriginAir})

	chunks := [][]byte{chunk(0, 10), chunk(1, 10), chunk(2, 10), chunk(3, 10), chunk(4, 10)}
	for i, c := range chunks {
		ground.hostWrite(t, [][]byte{c})
		waitFor(t, "uplink frame", func() bool { return dataFrames.Load() >= int64(i+1) })
	}

	expected := bytes.Join([][]byte{chunks[0], chunks[1], chunks[3], chunks[4]}, nil)
	waitFor(t, "air serial output", func() bool { return len(air.port.written()) >= len(expected) })

	if got := air.port.written(); !bytes.Equal(got, expected) {
		t.Errorf("expected %x, got %x", expected, got)
	}
	if lost := air.link.Metrics.LostPackets.Load(); lost != 1 {
		t.Errorf("expected 1 lost packet on the air unit, got %d", lost)
	}
}
