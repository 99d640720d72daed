package main

import (
	"sort"
	"sync"
	"time"
)

// ringWindow is a fixed-capacity rolling sample buffer. Once full, each new
// sample silently overwrites the oldest one.
type ringWindow struct {
	samples []time.Duration
	next    int
	full    bool
}

func newRingWindow(capacity int) *ringWindow {
	return &ringWindow{samples: make([]time.Duration, capacity)}
}

func (w *ringWindow) append(d time.Duration) {
	w.samples[w.next] = d
	w.next++
	if w.next == len(w.samples) {
		w.next = 0
		w.full = true
	}
}

// snapshot copies out the current window contents. Order is irrelevant to the
// consumers, which sort before aggregating.
func (w *ringWindow) snapshot() []time.Duration {
	n := w.next
	if w.full {
		n = len(w.samples)
	}
	out := make([]time.Duration, n)
	copy(out, w.samples[:n])
	return out
}

// perfMonitor records operation latencies in bounded rolling windows and
// derives summary statistics on demand. One mutex guards all windows and
// counters; snapshots copy out under the lock and aggregate after release.
type perfMonitor struct {
	mu            sync.Mutex
	responseTimes *ringWindow
	opTimes       map[string]*ringWindow
	requestCount  uint64
	errorCount    uint64
	windowSize    int
	startedAt     time.Time
	now           func() time.Time
}

// ResponseTimeStats aggregates the global response-time window.
type ResponseTimeStats struct {
	AvgMS    float64 `json:"avg_ms"`
	MedianMS float64 `json:"median_ms"`
	MinMS    float64 `json:"min_ms"`
	MaxMS    float64 `json:"max_ms"`
	P95MS    float64 `json:"p95_ms"`
	P99MS    float64 `json:"p99_ms"`
}

// OperationStats summarizes one named operation window.
type OperationStats struct {
	AvgMS float64 `json:"avg_ms"`
	Count int     `json:"count"`
}

// PerfStats is the JSON snapshot returned by Stats.
type PerfStats struct {
	UptimeHours       float64                   `json:"uptime_hours"`
	TotalRequests     uint64                    `json:"total_requests"`
	ErrorCount        uint64                    `json:"error_count"`
	ErrorRatePercent  float64                   `json:"error_rate_percent"`
	RequestsPerHour   float64                   `json:"requests_per_hour"`
	ResponseTimes     *ResponseTimeStats        `json:"response_times,omitempty"`
	AnalysisBreakdown map[string]OperationStats `json:"analysis_breakdown"`
}

// newPerfMonitor creates a recorder with the given rolling-window capacity.
func newPerfMonitor(windowSize int) *perfMonitor {
	if windowSize <= 0 {
		windowSize = defaultMetricsSamples
	}
	return &perfMonitor{
		responseTimes: newRingWindow(windowSize),
		opTimes:       make(map[string]*ringWindow),
		windowSize:    windowSize,
		startedAt:     time.Now(),
		now:           time.Now,
	}
}

// RecordResponseTime records the total duration of one request.
func (m *perfMonitor) RecordResponseTime(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responseTimes.append(d)
	m.requestCount++
}

// RecordOperationTime records a duration against a named operation window,
// creating the window on first use.
func (m *perfMonitor) RecordOperationTime(operation string, d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.opTimes[operation]
	if !ok {
		w = newRingWindow(m.windowSize)
		m.opTimes[operation] = w
	}
	w.append(d)
}

// RecordError counts one error occurrence, independent of the request count.
func (m *perfMonitor) RecordError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorCount++
}

// Stats computes summary statistics from the current window contents. Samples
// already rotated out of a window are invisible to the snapshot.
func (m *perfMonitor) Stats() PerfStats {
	m.mu.Lock()
	responses := m.responseTimes.snapshot()
	ops := make(map[string][]time.Duration, len(m.opTimes))
	for name, w := range m.opTimes {
		ops[name] = w.snapshot()
	}
	requests := m.requestCount
	errors := m.errorCount
	uptime := m.now().Sub(m.startedAt)
	m.mu.Unlock()

	stats := PerfStats{
		UptimeHours:       round2(uptime.Hours()),
		TotalRequests:     requests,
		ErrorCount:        errors,
		AnalysisBreakdown: make(map[string]OperationStats, len(ops)),
	}

	if requests > 0 {
		stats.ErrorRatePercent = round2(float64(errors) / float64(requests) * 100)
	}
	stats.RequestsPerHour = round2(float64(requests) / max(uptime.Hours(), minUptimeHour))

	if len(responses) > 0 {
		sort.Slice(responses, func(i, j int) bool { return responses[i] < responses[j] })
		stats.ResponseTimes = &ResponseTimeStats{
			AvgMS:    round2(meanMS(responses)),
			MedianMS: round2(durationMS(median(responses))),
			MinMS:    round2(durationMS(responses[0])),
			MaxMS:    round2(durationMS(responses[len(responses)-1])),
			P95MS:    round2(durationMS(percentile(responses, percentile95))),
			P99MS:    round2(durationMS(percentile(responses, percentile99))),
		}
	}

	for name, samples := range ops {
		if len(samples) == 0 {
			continue
		}
		stats.AnalysisBreakdown[name] = OperationStats{
			AvgMS: round2(meanMS(samples)),
			Count: len(samples),
		}
	}

	return stats
}

// percentile returns the sample at index floor(n*p/100), clamped to the
// slice bounds. Input must be sorted ascending.
func percentile(sorted []time.Duration, p int) time.Duration {
	idx := len(sorted) * p / 100
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

// median returns the midpoint of a sorted sample slice, averaging the two
// central samples for even lengths.
func median(sorted []time.Duration) time.Duration {
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

func meanMS(samples []time.Duration) float64 {
	var total time.Duration
	for _, d := range samples {
		total += d
	}
	return durationMS(total) / float64(len(samples))
}

func durationMS(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
