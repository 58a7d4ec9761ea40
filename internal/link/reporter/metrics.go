package reporter

import (
	"dblink/internal/metrics"
	"time"
)

func (reporter *Reporter) CollectMetrics(interval time.Duration) (collection []metrics.Metric) {
	recordTime := time.Now()

	add := func(name string, raw uint64, t metrics.MetricType, description string) {
		collection = append(collection, metrics.Metric{
			Name:        name,
			Description: description,
			Namespace:   reporter.Namespace,
			Type:        t,
			Timestamp:   recordTime,
			Value: metrics.MetricValue{
				Raw:      raw,
				Unit:     "count",
				Interval: interval,
			},
		})
	}

	add("reports_sent", reporter.Metrics.Sent.Swap(0), metrics.Counter, "Link reports queued for the radio in the interval")
	add("reports_dropped", reporter.Metrics.Dropped.Swap(0), metrics.Counter, "Link reports dropped on a full radio outbox")
	add("report_errors", reporter.Metrics.Errors.Swap(0), metrics.Counter, "Link reports that could not be serialized or queued")
	add("reported_peers", reporter.Metrics.Peers.Load(), metrics.Gauge, "Peers carried in the last link report")
	return
}
