package metrics

import (
	"context"
	"testing"
	"time"
)

type fakeCollector struct {
	calls int
}

func (f *fakeCollector) CollectMetrics(interval time.Duration) []Metric {
	f.calls++
	return []Metric{{
		Name:      "packets_sent",
		Namespace: []string{"Test"},
		Type:      Counter,
		Timestamp: time.Now(),
		Value:     MetricValue{Raw: uint64(f.calls), Unit: "count", Interval: interval},
	}}
}

func TestGatherer_Collect(t *testing.T) {
	registry := New()
	gatherer := NewGatherer(registry, []string{"Test"}, time.Minute, time.Hour)

	collector := &fakeCollector{}
	gatherer.Register(collector)

	var sunk int
	gatherer.AddSink(func(batch []Metric) { sunk += len(batch) })

	batch := gatherer.Collect(time.Now())
	if collector.calls != 1 {
		t.Fatalf("expected collector to be called once, got %d", collector.calls)
	}
	if sunk != len(batch) {
		t.Fatalf("expected sink to receive %d metrics, got %d", len(batch), sunk)
	}

	found := map[string]bool{}
	for _, m := range registry.Search("", nil, time.Time{}, time.Time{}) {
		found[m.Name] = true
	}
	for _, name := range []string{"packets_sent", "host_free_memory", "host_total_memory"} {
		if !found[name] {
			t.Fatalf("expected metric %s in registry", name)
		}
	}
}

func TestGatherer_RunStopsOnCancel(t *testing.T) {
	gatherer := NewGatherer(New(), nil, 10*time.Millisecond, time.Hour)
	collector := &fakeCollector{}
	gatherer.Register(collector)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		gatherer.Run(ctx)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("gatherer did not stop")
	}
	if collector.calls < 2 {
		t.Fatalf("expected several collections, got %d", collector.calls)
	}
}
