package beats

import (
	"context"
	"dblink/internal/global"
	"dblink/internal/logctx"
	"dblink/internal/metrics"
	"time"
)

// Ships queued batches until ctx is cancelled
func (mod *OutModule) Run(ctx context.Context) {
	if mod == nil {
		return
	}

	for {
		events, err := mod.outbox.Pop(ctx, mod.wait)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			continue
		}
		mod.send(ctx, events)
	}
}

func (mod *OutModule) send(ctx context.Context, events []interface{}) {
	sent, err := mod.sink.Send(events)
	mod.Metrics.EventsSent.Add(uint64(sent))
	if err != nil {
		mod.Metrics.SendErrors.Add(1)
		logctx.LogEvent(ctx, global.VerbosityStandard, global.ErrorLog,
			"failed to ship %d events to beats server: %v\n", len(events), err)
	}
}

// Gracefully stops module, shipping what is still queued
func (mod *OutModule) Shutdown(ctx context.Context) (err error) {
	if mod == nil {
		return
	}
	for {
		events, ok := mod.outbox.TryPop()
		if !ok {
			break
		}
		mod.send(ctx, events)
	}
	if mod.sink != nil {
		err = mod.sink.Close()
	}
	return
}

func (mod *OutModule) CollectMetrics(interval time.Duration) (collection []metrics.Metric) {
	recordTime := time.Now()

	add := func(name string, raw uint64, description string) {
		collection = append(collection, metrics.Metric{
			Name:        name,
			Description: description,
			Namespace:   mod.Namespace,
			Type:        metrics.Counter,
			Timestamp:   recordTime,
			Value: metrics.MetricValue{
				Raw:      raw,
				Unit:     "count",
				Interval: interval,
			},
		})
	}

	add("batches_queued", mod.Metrics.Queued.Swap(0), "Report and metric batches queued for shipping")
	add("batches_dropped", mod.Metrics.Dropped.Swap(0), "Batches dropped on a full outbox")
	add("events_sent", mod.Metrics.EventsSent.Swap(0), "Events acknowledged by the beats server")
	add("send_errors", mod.Metrics.SendErrors.Swap(0), "Failed batch transmissions")
	collection = append(collection, mod.outbox.CollectMetrics(interval)...)
	return
}
