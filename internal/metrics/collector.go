// Package metrics collects in-process counters and latency summaries for the
// redaction service and renders them in Prometheus exposition format. No
// client library; the text format is simple enough to emit directly.
package metrics

import (
	"sort"
	"sync"
	"time"
)

// maxSamples bounds the per-operation latency ring so a long-lived server
// keeps constant memory.
const maxSamples = 1024

// LatencyStats summarizes recorded durations for one operation.
type LatencyStats struct {
	Count int64   `json:"count"`
	AvgMs float64 `json:"avg_ms"`
	MinMs float64 `json:"min_ms"`
	MaxMs float64 `json:"max_ms"`
	P50Ms float64 `json:"p50_ms"`
	P95Ms float64 `json:"p95_ms"`
	P99Ms float64 `json:"p99_ms"`
}

// Report is a point-in-time snapshot of everything the collector tracks.
type Report struct {
	UptimeSeconds    float64                 `json:"uptime_seconds"`
	RequestCounts    map[string]int64        `json:"request_counts"`
	EntityCounts     map[string]int64        `json:"entity_counts"`
	DetectorFailures map[string]int64        `json:"detector_failures"`
	CacheHits        int64                   `json:"cache_hits"`
	CacheMisses      int64                   `json:"cache_misses"`
	RateLimited      int64                   `json:"rate_limited"`
	LatencyStats     map[string]LatencyStats `json:"latency_stats"`
}

type ring struct {
	samples []float64 // milliseconds, insertion order
	next    int
	count   int64
	sum     float64
	min     float64
	max     float64
}

// Collector accumulates counters and latency samples. All methods are safe
// for concurrent use.
type Collector struct {
	mu        sync.Mutex
	started   time.Time
	requests  map[string]int64
	entities  map[string]int64
	failures  map[string]int64
	hits      int64
	misses    int64
	limited   int64
	latencies map[string]*ring
}

func NewCollector() *Collector {
	return &Collector{
		started:   time.Now(),
		requests:  make(map[string]int64),
		entities:  make(map[string]int64),
		failures:  make(map[string]int64),
		latencies: make(map[string]*ring),
	}
}

// IncRequest counts one handled request for the named operation.
func (c *Collector) IncRequest(op string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.requests[op]++
}

// AddEntity counts one detected entity of the given category.
func (c *Collector) AddEntity(category string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entities[category]++
}

// IncDetectorFailure counts one non-fatal detector error.
func (c *Collector) IncDetectorFailure(detector string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failures[detector]++
}

func (c *Collector) IncCacheHit() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hits++
}

func (c *Collector) IncCacheMiss() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.misses++
}

func (c *Collector) IncRateLimited() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.limited++
}

// ObserveLatency records one duration for the named operation.
func (c *Collector) ObserveLatency(op string, d time.Duration) {
	ms := float64(d.Microseconds()) / 1000.0

	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.latencies[op]
	if !ok {
		r = &ring{samples: make([]float64, 0, 64), min: ms, max: ms}
		c.latencies[op] = r
	}
	if len(r.samples) < maxSamples {
		r.samples = append(r.samples, ms)
	} else {
		r.samples[r.next] = ms
		r.next = (r.next + 1) % maxSamples
	}
	r.count++
	r.sum += ms
	if ms < r.min {
		r.min = ms
	}
	if ms > r.max {
		r.max = ms
	}
}

// Snapshot returns a copy of the current state.
func (c *Collector) Snapshot() Report {
	c.mu.Lock()
	defer c.mu.Unlock()

	rep := Report{
		UptimeSeconds:    time.Since(c.started).Seconds(),
		RequestCounts:    copyCounts(c.requests),
		EntityCounts:     copyCounts(c.entities),
		DetectorFailures: copyCounts(c.failures),
		CacheHits:        c.hits,
		CacheMisses:      c.misses,
		RateLimited:      c.limited,
		LatencyStats:     make(map[string]LatencyStats, len(c.latencies)),
	}
	for op, r := range c.latencies {
		rep.LatencyStats[op] = r.stats()
	}
	return rep
}

func (r *ring) stats() LatencyStats {
	sorted := append([]float64(nil), r.samples...)
	sort.Float64s(sorted)
	s := LatencyStats{
		Count: r.count,
		MinMs: r.min,
		MaxMs: r.max,
	}
	if r.count > 0 {
		s.AvgMs = r.sum / float64(r.count)
	}
	if len(sorted) > 0 {
		s.P50Ms = percentile(sorted, 0.50)
		s.P95Ms = percentile(sorted, 0.95)
		s.P99Ms = percentile(sorted, 0.99)
	}
	return s
}

// percentile uses nearest-rank on an ascending slice.
func percentile(sorted []float64, q float64) float64 {
	idx := int(q*float64(len(sorted))+0.5) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

func copyCounts(m map[string]int64) map[string]int64 {
	out := make(map[string]int64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
