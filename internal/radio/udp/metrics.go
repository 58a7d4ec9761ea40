package udp

import (
	"dblink/internal/global"
	"dblink/internal/metrics"
	"time"
)

func (driver *Driver) CollectMetrics(interval time.Duration) (collection []metrics.Metric) {
	recordTime := time.Now()
	namespace := []string{global.NSRadio, global.NSDriver}

	add := func(name string, raw uint64, description string) {
		collection = append(collection, metrics.Metric{
			Name:        name,
			Description: description,
			Namespace:   namespace,
			Type:        metrics.Counter,
			Timestamp:   recordTime,
			Value: metrics.MetricValue{
				Raw:      raw,
				Unit:     "count",
				Interval: interval,
			},
		})
	}

	add("datagrams_sent", driver.Metrics.Sent.Swap(0), "Datagrams written to the emulated medium")
	add("datagrams_received", driver.Metrics.Received.Swap(0), "Datagrams accepted from the emulated medium")
	add("datagrams_filtered", driver.Metrics.Filtered.Swap(0), "Own or foreign unicast datagrams ignored")
	add("datagrams_runt", driver.Metrics.Runts.Swap(0), "Datagrams too short or too long to carry a frame")
	add("read_errors", driver.Metrics.ReadErrors.Swap(0), "Socket read failures")
	return
}
