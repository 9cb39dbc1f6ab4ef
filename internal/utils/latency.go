package utils

import (
	"sort"
	"sync"
	"time"
)

// LatencyTracker keeps the most recent analysis durations in a fixed ring.
type LatencyTracker struct {
	mu      sync.Mutex
	samples []time.Duration
	next    int
	total   int
}

// NewLatencyTracker creates a tracker holding up to size samples.
func NewLatencyTracker(size int) *LatencyTracker {
	if size <= 0 {
		size = 512
	}
	return &LatencyTracker{samples: make([]time.Duration, 0, size)}
}

// Observe records d, overwriting the oldest sample once the ring is full.
func (l *LatencyTracker) Observe(d time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.total++
	if len(l.samples) < cap(l.samples) {
		l.samples = append(l.samples, d)
		return
	}
	l.samples[l.next] = d
	l.next = (l.next + 1) % len(l.samples)
}

// Percentile returns the p-th percentile (0-100) of retained samples, or zero when empty.
func (l *LatencyTracker) Percentile(p float64) time.Duration {
	l.mu.Lock()
	sorted := append([]time.Duration(nil), l.samples...)
	l.mu.Unlock()

	if len(sorted) == 0 {
		return 0
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	switch {
	case p <= 0:
		return sorted[0]
	case p >= 100:
		return sorted[len(sorted)-1]
	}
	return sorted[int((p/100.0)*float64(len(sorted)-1))]
}

// Count returns the number of retained samples.
func (l *LatencyTracker) Count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.samples)
}

// Total returns the number of samples ever observed.
func (l *LatencyTracker) Total() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.total
}
