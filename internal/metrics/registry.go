// Central registry for storing time-based metrics and their associated data
package metrics

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Creates new metric registry storage
func New() (new *Registry) {
	new = &Registry{
		metrics: make(map[time.Time]map[string]map[string]Metric),
	}
	return
}

// Setup metrics map for this collection interval
func (registry *Registry) NewTimeSlice(now time.Time, interval time.Duration) (timeSlice time.Time) {
	registry.mu.Lock()
	defer registry.mu.Unlock()

	timeSlice = now
	if interval > 0 {
		timeSlice = now.Truncate(interval)
	}
	if registry.metrics[timeSlice] == nil {
		registry.metrics[timeSlice] = make(map[string]map[string]Metric)
	}
	return
}

// Adds batch of metrics to a time slice
func (registry *Registry) Add(timeSlice time.Time, metrics []Metric) {
	registry.mu.Lock()
	defer registry.mu.Unlock()

	if registry.metrics[timeSlice] == nil {
		return
	}

	for _, metric := range metrics {
		namespace := strings.Join(metric.Namespace, "/")
		if registry.metrics[timeSlice][namespace] == nil {
			registry.metrics[timeSlice][namespace] = make(map[string]Metric)
		}
		registry.metrics[timeSlice][namespace][metric.Name] = metric
	}
}

// Deletes metrics in registry older than max allowed metric age based on supplied current time
func (registry *Registry) Prune(currentTime time.Time, maxAge time.Duration) {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	for timeSlice := range registry.metrics {
		if currentTime.Sub(timeSlice) > maxAge {
			delete(registry.metrics, timeSlice)
		}
	}
}

// Supports exact match or prefix match. Empty query matches all.
func matchesNamespace(metricNS, queryNS []string) (matches bool) {
	if len(queryNS) > len(metricNS) {
		return
	}
	for i := range queryNS {
		if metricNS[i] != queryNS[i] {
			return
		}
	}
	matches = true
	return
}

// Returns all metrics matching given name and namespace prefix, oldest first.
// Empty name or prefix matches everything. Zero start/end disables that bound.
func (registry *Registry) Search(name string, namespacePrefix []string, start, end time.Time) (results []Metric) {
	registry.mu.RLock()
	defer registry.mu.RUnlock()

	var timestamps []time.Time
	for ts := range registry.metrics {
		if !start.IsZero() && ts.Before(start) {
			continue
		}
		if !end.IsZero() && ts.After(end) {
			continue
		}
		timestamps = append(timestamps, ts)
	}
	sort.Slice(timestamps, func(i, j int) bool {
		return timestamps[i].Before(timestamps[j])
	})

	for _, ts := range timestamps {
		nsKeys := make([]string, 0, len(registry.metrics[ts]))
		for nsStr := range registry.metrics[ts] {
			nsKeys = append(nsKeys, nsStr)
		}
		sort.Strings(nsKeys)

		for _, nsStr := range nsKeys {
			if !matchesNamespace(strings.Split(nsStr, "/"), namespacePrefix) {
				continue
			}
			for metricName, metric := range registry.metrics[ts][nsStr] {
				if name == "" || metricName == name {
					results = append(results, metric)
				}
			}
		}
	}
	return
}

// Sums a counter across all matching namespaces inside the window
func (registry *Registry) Sum(name string, namespacePrefix []string, start, end time.Time) (total float64, err error) {
	results := registry.Search(name, namespacePrefix, start, end)
	if len(results) == 0 {
		err = fmt.Errorf("no metrics named %q under %q", name, strings.Join(namespacePrefix, "/"))
		return
	}
	for _, metric := range results {
		var value float64
		value, err = metric.Value.Float()
		if err != nil {
			return
		}
		total += value
	}
	return
}

// Numeric view of the raw value
func (value MetricValue) Float() (number float64, err error) {
	switch raw := value.Raw.(type) {
	case uint64:
		number = float64(raw)
	case int64:
		number = float64(raw)
	case int:
		number = float64(raw)
	case float64:
		number = raw
	default:
		err = fmt.Errorf("metric value of type %T is not numeric", value.Raw)
	}
	return
}
