package link

import (
	"dblink/internal/calc"
	"dblink/internal/metrics"
	"time"
)

// Share of the extreme peers left out of link averages
const peerTrim float64 = 0.1

// Module counters plus every queue and the reporter
func (module *Module) CollectMetrics(interval time.Duration) (collection []metrics.Metric) {
	recordTime := time.Now()

	// Helper to add metrics
	add := func(name string, raw uint64, description string) {
		collection = append(collection, metrics.Metric{
			Name:        name,
			Description: description,
			Namespace:   module.Namespace,
			Type:        metrics.Counter,
			Timestamp:   recordTime,
			Value: metrics.MetricValue{
				Raw:      raw,
				Unit:     "count",
				Interval: interval,
			},
		})
	}

	// Helper to add derived link quality gauges
	addGauge := func(name string, raw float64, unit string, description string) {
		collection = append(collection, metrics.Metric{
			Name:        name,
			Description: description,
			Namespace:   module.Namespace,
			Type:        metrics.Gauge,
			Timestamp:   recordTime,
			Value: metrics.MetricValue{
				Raw:      raw,
				Unit:     unit,
				Interval: interval,
			},
		})
	}

	m := &module.Metrics
	received := m.PacketsReceived.Swap(0)
	lost := m.LostPackets.Swap(0)
	addGauge("loss_ratio", calc.LossRatio(lost, received), "ratio", "Lost share of packets expected from the other role in the interval")

	report, ok := module.LatestLinkReport()
	if ok && len(report.Peers) > 0 {
		rssi := make([]int8, 0, len(report.Peers))
		peerLoss := make([]uint16, 0, len(report.Peers))
		for _, peer := range report.Peers {
			rssi = append(rssi, peer.RSSI)
			peerLoss = append(peerLoss, peer.Lost)
		}
		addGauge("peer_rssi_mean", calc.TrimmedMean(rssi, peerTrim), "dBm", "Trimmed mean RSSI of the peers in the latest link report")
		addGauge("peer_snr_mean", calc.TrimmedMean(rssi, peerTrim)-float64(report.NoiseFloor), "dB", "Trimmed mean signal to noise ratio of the peers in the latest link report")
		addGauge("peer_lost_mean", calc.TrimmedMean(peerLoss, peerTrim), "count", "Trimmed mean lost packets per peer in the latest link report")
	}

	add("submitted", m.Submitted.Swap(0), "Payloads accepted from serial ingest")
	add("submit_rejected", m.SubmitRejected.Swap(0), "Payloads refused because the radio outbox was full")
	add("packets_sent", m.PacketsSent.Swap(0), "Packets handed to the radio driver")
	add("bytes_sent", m.BytesSent.Swap(0), "Wire bytes handed to the radio driver")
	add("encode_errors", m.EncodeErrors.Swap(0), "Events that could not be encoded")
	add("driver_errors", m.DriverErrors.Swap(0), "Packets the radio driver refused")
	add("tx_success", m.TxSuccess.Swap(0), "Transmissions completed by the radio")
	add("tx_failures", m.TxFailures.Swap(0), "Transmissions the radio reported as failed")
	add("packets_received", received, "Authenticated packets from the other role")
	add("auth_failures", m.AuthFailures.Swap(0), "Frames that failed authentication")
	add("validation_failures", m.ValidationFailures.Swap(0), "Frames with an invalid size, header or length")
	add("own_origin", m.OwnOrigin.Swap(0), "Packets of this role heard back and dropped")
	add("stale_packets", m.StalePackets.Swap(0), "Repeated or out of order sequence numbers")
	add("stale_dropped", m.StaleDropped.Swap(0), "Stale packets dropped instead of forwarded")
	add("lost_packets", lost, "Sequence numbers skipped by received packets")
	add("registry_rejected", m.RegistryRejected.Swap(0), "Packets from peers that did not fit the registry")
	add("event_drops", m.EventDrops.Swap(0), "Radio events dropped on a full event queue")
	add("serial_backpressure", m.SerialBackpressure.Swap(0), "Decoded payloads dropped on a full serial outbox")
	add("delivered", m.Delivered.Swap(0), "Payloads handed to the serial side")
	add("undelivered", m.Undelivered.Swap(0), "Payloads discarded with no subscriber")
	add("reports_received", m.ReportsReceived.Swap(0), "Link reports received from the ground")
	add("report_errors", m.ReportErrors.Swap(0), "Link reports that could not be parsed")

	collection = append(collection, module.radioOutbox.CollectMetrics(interval)...)
	collection = append(collection, module.serialOutbox.CollectMetrics(interval)...)
	collection = append(collection, module.radioEvents.CollectMetrics(interval)...)
	if module.reporter != nil {
		collection = append(collection, module.reporter.CollectMetrics(interval)...)
	}
	return
}
