package queue

import (
	"dblink/internal/metrics"
	"sync/atomic"
	"time"
)

type MetricStorage struct {
	Depth     atomic.Uint64 // Current items in queue
	Bytes     atomic.Uint64 // Current byte size in queue (just data)
	HighWater atomic.Uint64 // Deepest fill seen in the interval

	PushAttempts   atomic.Uint64 // every TryPush call
	PushSuccess    atomic.Uint64 // CAS success
	PushCASRetries atomic.Uint64 // CAS failed (seq==pos but CAS failed)
	PushFull       atomic.Uint64 // attempts that found the ring full
	Backpressure   atomic.Uint64 // timed pushes that gave up

	PopAttempts    atomic.Uint64 // every TryPop call
	PopSuccess     atomic.Uint64 // CAS success
	PopCASRetries  atomic.Uint64 // CAS failed
	PopEmpty       atomic.Uint64 // attempts that found the ring empty
	PopWaitSignals atomic.Uint64 // consumer wakeups from producers
}

func (queue *Queue[T]) CollectMetrics(interval time.Duration) (collection []metrics.Metric) {
	recordTime := time.Now()

	// Helper to add metrics
	add := func(name string, raw uint64, unit string, t metrics.MetricType, description string) {
		collection = append(collection, metrics.Metric{
			Name:        name,
			Description: description,
			Namespace:   queue.Namespace,
			Type:        t,
			Timestamp:   recordTime,
			Value: metrics.MetricValue{
				Raw:      raw,
				Unit:     unit,
				Interval: interval,
			},
		})
	}

	add("capacity", uint64(queue.Size), "count", metrics.Gauge, "Fixed number of slots in the queue")
	add("depth", queue.Metrics.Depth.Load(), "count", metrics.Gauge, "Current number of items in the queue")
	add("high_water", queue.Metrics.HighWater.Swap(0), "count", metrics.Gauge, "Deepest fill level reached in the interval")
	add("byte_sum", queue.Metrics.Bytes.Load(), "bytes", metrics.Gauge, "Byte sum of all items in the queue")
	add("push_attempts", queue.Metrics.PushAttempts.Swap(0), "count", metrics.Counter, "Total push attempts in the interval")
	add("push_success", queue.Metrics.PushSuccess.Swap(0), "count", metrics.Counter, "Total push attempts that succeeded in the interval")
	add("push_cas_retries", queue.Metrics.PushCASRetries.Swap(0), "count", metrics.Counter, "Sum of retries to push in the interval")
	add("push_full", queue.Metrics.PushFull.Swap(0), "count", metrics.Counter, "Push attempts that found the queue full in the interval")
	add("backpressure", queue.Metrics.Backpressure.Swap(0), "count", metrics.Counter, "Timed pushes rejected with backpressure in the interval")
	add("pop_attempts", queue.Metrics.PopAttempts.Swap(0), "count", metrics.Counter, "Total pop attempts in the interval")
	add("pop_success", queue.Metrics.PopSuccess.Swap(0), "count", metrics.Counter, "Total pop attempts that succeeded in the interval")
	add("pop_cas_retries", queue.Metrics.PopCASRetries.Swap(0), "count", metrics.Counter, "Sum of retries to pop in the interval")
	add("pop_wait_signals", queue.Metrics.PopWaitSignals.Swap(0), "count", metrics.Counter, "Consumer wakeups signalled by producers in the interval")
	return
}
