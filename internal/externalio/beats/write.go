package beats

import (
	"dblink/internal/calc"
	"dblink/internal/global"
	"dblink/internal/metrics"
	"dblink/pkg/protocol"
	"time"
)

// Queues one event per peer in the report. Never blocks, a full outbox drops the report.
func (mod *OutModule) QueueReport(report protocol.LinkReport) {
	if mod == nil || len(report.Peers) == 0 {
		return
	}

	now := time.Now()
	events := make([]interface{}, 0, len(report.Peers))
	for _, peer := range report.Peers {
		events = append(events, mod.reportEvent(now, report.NoiseFloor, peer))
	}
	mod.queue(events)
}

// Queues one event per metric. Signature matches a gatherer sink.
func (mod *OutModule) QueueMetrics(batch []metrics.Metric) {
	if mod == nil || len(batch) == 0 {
		return
	}

	events := make([]interface{}, 0, len(batch))
	for _, metric := range batch {
		events = append(events, map[string]interface{}{
			"@timestamp": metric.Timestamp,
			"message":    metric.Name,
			"host":       mod.hostFields(),
			"agent":      agentFields(),
			"metric":     metric.Convert(),
		})
	}
	mod.queue(events)
}

func (mod *OutModule) queue(events []interface{}) {
	if !mod.outbox.TryPush(events) {
		mod.Metrics.Dropped.Add(1)
		return
	}
	mod.Metrics.Queued.Add(1)
}

func (mod *OutModule) reportEvent(now time.Time, noiseFloor int8, peer protocol.PeerInfo) (fields map[string]interface{}) {
	fields = map[string]interface{}{
		// Minimum required fields
		"@timestamp": now,
		"message":    "link report",

		// Common fields
		"host":  mod.hostFields(),
		"agent": agentFields(),

		"link": map[string]interface{}{
			"role":        mod.role,
			"noise_floor": noiseFloor,
			"peer": map[string]interface{}{
				"mac":      peer.MAC.String(),
				"rssi":     peer.RSSI,
				"last_seq": peer.LastSeq,
				"lost":     peer.Lost,
				"snr":      calc.SNR(peer.RSSI, noiseFloor),
			},
		},
	}
	return
}

func (mod *OutModule) hostFields() (fields map[string]interface{}) {
	fields = map[string]interface{}{
		"name":     global.Hostname,
		"hostname": global.Hostname,
	}
	return
}

func agentFields() (fields map[string]interface{}) {
	fields = map[string]interface{}{
		// Meta fields identifying the daemon itself
		"program": global.ProgBaseName,
		"version": global.ProgVersion,
		"type":    global.ProgBaseName,
		"pid":     global.PID,
	}
	return
}
