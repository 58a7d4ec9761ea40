package metrics

import (
	"context"
	"dblink/internal/global"
	"dblink/internal/logctx"
	"slices"
	"sync"
	"time"

	"github.com/pbnjay/memory"
)

// Periodically pulls metrics from collectors into the registry
type Gatherer struct {
	Registry   *Registry
	interval   time.Duration
	retention  time.Duration
	mu         sync.Mutex
	collectors []Collector
	sinks      []func([]Metric)
	namespace  []string
}

// Gatherer Constructor
func NewGatherer(registry *Registry, namespace []string, interval, retention time.Duration) (new *Gatherer) {
	if interval <= 0 {
		interval = global.DefaultMetricInterval
	}
	if retention <= 0 {
		retention = global.DefaultMetricRetention
	}
	new = &Gatherer{
		Registry:  registry,
		interval:  interval,
		retention: retention,
		namespace: append(append([]string(nil), namespace...), global.NSMetric),
	}
	return
}

// Adds a source of metrics
func (gatherer *Gatherer) Register(collector Collector) {
	gatherer.mu.Lock()
	defer gatherer.mu.Unlock()
	gatherer.collectors = append(gatherer.collectors, collector)
}

// Adds a consumer that receives every collected batch (exporters)
func (gatherer *Gatherer) AddSink(sink func([]Metric)) {
	gatherer.mu.Lock()
	defer gatherer.mu.Unlock()
	gatherer.sinks = append(gatherer.sinks, sink)
}

// Collects until ctx is cancelled, with one final collection on exit
func (gatherer *Gatherer) Run(ctx context.Context) {
	ticker := time.NewTicker(gatherer.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			gatherer.Collect(time.Now())
			return
		case now := <-ticker.C:
			batch := gatherer.Collect(now)
			gatherer.Registry.Prune(now, gatherer.retention)
			logctx.LogEvent(ctx, global.VerbosityDebug, global.InfoLog,
				"collected %d metrics\n", len(batch))
		}
	}
}

// One collection pass across all sources
func (gatherer *Gatherer) Collect(now time.Time) (batch []Metric) {
	gatherer.mu.Lock()
	collectors := slices.Clone(gatherer.collectors)
	sinks := slices.Clone(gatherer.sinks)
	gatherer.mu.Unlock()

	for _, collector := range collectors {
		batch = append(batch, collector.CollectMetrics(gatherer.interval)...)
	}
	batch = append(batch, gatherer.hostMetrics(now)...)

	slice := gatherer.Registry.NewTimeSlice(now, gatherer.interval)
	gatherer.Registry.Add(slice, batch)

	for _, sink := range sinks {
		sink(batch)
	}
	return
}

// Host memory gauges
func (gatherer *Gatherer) hostMetrics(now time.Time) (collection []Metric) {
	add := func(name string, raw uint64, description string) {
		collection = append(collection, Metric{
			Name:        name,
			Description: description,
			Namespace:   gatherer.namespace,
			Type:        Gauge,
			Timestamp:   now,
			Value: MetricValue{
				Raw:      raw,
				Unit:     "bytes",
				Interval: gatherer.interval,
			},
		})
	}
	add("host_free_memory", memory.FreeMemory(), "Free memory reported by the host")
	add("host_total_memory", memory.TotalMemory(), "Total memory reported by the host")
	return
}
