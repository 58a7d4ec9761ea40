// Ground-side internal telemetry: periodically sends the peer registry snapshot over the link
package reporter

import (
	"context"
	"dblink/internal/global"
	"dblink/internal/logctx"
	"dblink/internal/queue"
	"dblink/pkg/protocol"
	"errors"
	"runtime/debug"
	"slices"
	"sync"
	"sync/atomic"
	"time"
)

type Reporter struct {
	Namespace []string
	interval  time.Duration
	source    func() (protocol.LinkReport, bool)
	push      func(context.Context, []byte) error
	mu        sync.Mutex
	sinks     []func(protocol.LinkReport)
	Metrics   MetricStorage
}

type MetricStorage struct {
	Sent    atomic.Uint64 // reports queued for transmission
	Dropped atomic.Uint64 // reports lost to backpressure
	Errors  atomic.Uint64 // reports that failed to serialize or queue
	Peers   atomic.Uint64 // peers in the last report
}

// Reporter Constructor.
// source returns the latest snapshot, push queues the serialized report for the radio.
func New(namespace []string, interval time.Duration, source func() (protocol.LinkReport, bool), push func(context.Context, []byte) error) (new *Reporter) {
	if interval <= 0 {
		interval = global.DefaultReportInterval
	}
	new = &Reporter{
		Namespace: append([]string(nil), namespace...),
		interval:  interval,
		source:    source,
		push:      push,
	}
	return
}

// Adds a consumer for every report that was queued (exporters, local notification)
func (reporter *Reporter) AddSink(sink func(protocol.LinkReport)) {
	reporter.mu.Lock()
	defer reporter.mu.Unlock()
	reporter.sinks = append(reporter.sinks, sink)
}

// Reports every interval until ctx is cancelled
func (reporter *Reporter) Run(ctx context.Context) {
	ticker := time.NewTicker(reporter.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		func() {
			defer func() {
				if fatalError := recover(); fatalError != nil {
					stack := debug.Stack()
					logctx.LogEvent(ctx, global.VerbosityStandard, global.ErrorLog,
						"panic in telemetry reporter: %v\n%s", fatalError, stack)
				}
			}()

			err := reporter.Tick(ctx)
			if err != nil && ctx.Err() == nil {
				logctx.LogEvent(ctx, global.VerbosityProgress, global.WarnLog,
					"link report not sent: %v\n", err)
			}
		}()
	}
}

// Sends one report. Backpressure drops this report only, the next tick retries with a fresh snapshot.
func (reporter *Reporter) Tick(ctx context.Context) (err error) {
	report, ok := reporter.source()
	if !ok {
		return
	}

	data, err := report.MarshalBinary()
	if err != nil {
		reporter.Metrics.Errors.Add(1)
		return
	}

	err = reporter.push(ctx, data)
	if err != nil {
		if errors.Is(err, queue.ErrBackpressure) {
			reporter.Metrics.Dropped.Add(1)
		} else {
			reporter.Metrics.Errors.Add(1)
		}
		return
	}
	reporter.Metrics.Sent.Add(1)
	reporter.Metrics.Peers.Store(uint64(len(report.Peers)))

	reporter.mu.Lock()
	sinks := slices.Clone(reporter.sinks)
	reporter.mu.Unlock()
	for _, sink := range sinks {
		sink(report)
	}
	return
}
