package serial

import (
	"dblink/internal/metrics"
	"time"
)

func (endpoint *Endpoint) CollectMetrics(interval time.Duration) (collection []metrics.Metric) {
	recordTime := time.Now()

	add := func(name string, raw uint64, unit string, description string) {
		collection = append(collection, metrics.Metric{
			Name:        name,
			Description: description,
			Namespace:   endpoint.Namespace,
			Type:        metrics.Counter,
			Timestamp:   recordTime,
			Value: metrics.MetricValue{
				Raw:      raw,
				Unit:     unit,
				Interval: interval,
			},
		})
	}

	add("reads", endpoint.Metrics.Reads.Swap(0), "count", "Non-empty reads from the serial port")
	add("bytes_in", endpoint.Metrics.BytesIn.Swap(0), "bytes", "Bytes read from the serial port")
	add("chunks_submitted", endpoint.Metrics.Submitted.Swap(0), "count", "Chunks accepted by the link")
	add("chunks_dropped", endpoint.Metrics.Dropped.Swap(0), "count", "Chunks refused by the link")
	add("read_errors", endpoint.Metrics.ReadErrors.Swap(0), "count", "Failed serial reads")
	add("writes", endpoint.Metrics.Writes.Swap(0), "count", "Inbound payloads written to the serial port")
	add("bytes_out", endpoint.Metrics.BytesOut.Swap(0), "bytes", "Bytes written to the serial port")
	add("write_errors", endpoint.Metrics.WriteErrors.Swap(0), "count", "Failed serial writes")
	return
}
