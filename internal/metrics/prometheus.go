package metrics

import (
	"fmt"
	"sort"
	"strings"
)

// ExportPrometheus renders the Report in Prometheus exposition format.
// Each metric uses the "redactd_" prefix for namespacing.
func (r Report) ExportPrometheus() string {
	var b strings.Builder

	b.WriteString("# HELP redactd_uptime_seconds Seconds since the process started.\n")
	b.WriteString("# TYPE redactd_uptime_seconds gauge\n")
	b.WriteString(fmt.Sprintf("redactd_uptime_seconds %.1f\n", r.UptimeSeconds))
	b.WriteByte('\n')

	// Request counts as counters
	if len(r.RequestCounts) > 0 {
		b.WriteString("# HELP redactd_requests_total Total handled requests by operation.\n")
		b.WriteString("# TYPE redactd_requests_total counter\n")
		for _, op := range sortedKeys(r.RequestCounts) {
			b.WriteString(fmt.Sprintf("redactd_requests_total{operation=%q} %d\n",
				sanitizeLabel(op), r.RequestCounts[op]))
		}
		b.WriteByte('\n')
	}

	// Detected entities by category
	if len(r.EntityCounts) > 0 {
		b.WriteString("# HELP redactd_entities_total Total detected entities by category.\n")
		b.WriteString("# TYPE redactd_entities_total counter\n")
		for _, cat := range sortedKeys(r.EntityCounts) {
			b.WriteString(fmt.Sprintf("redactd_entities_total{category=%q} %d\n",
				sanitizeLabel(cat), r.EntityCounts[cat]))
		}
		b.WriteByte('\n')
	}

	// Detector failures (non-fatal, request degraded to remaining detectors)
	if len(r.DetectorFailures) > 0 {
		b.WriteString("# HELP redactd_detector_failures_total Total non-fatal detector errors.\n")
		b.WriteString("# TYPE redactd_detector_failures_total counter\n")
		for _, det := range sortedKeys(r.DetectorFailures) {
			b.WriteString(fmt.Sprintf("redactd_detector_failures_total{detector=%q} %d\n",
				sanitizeLabel(det), r.DetectorFailures[det]))
		}
		b.WriteByte('\n')
	}

	// Result cache counters
	b.WriteString("# HELP redactd_cache_hits_total Total result cache hits.\n")
	b.WriteString("# TYPE redactd_cache_hits_total counter\n")
	b.WriteString(fmt.Sprintf("redactd_cache_hits_total %d\n", r.CacheHits))
	b.WriteByte('\n')
	b.WriteString("# HELP redactd_cache_misses_total Total result cache misses.\n")
	b.WriteString("# TYPE redactd_cache_misses_total counter\n")
	b.WriteString(fmt.Sprintf("redactd_cache_misses_total %d\n", r.CacheMisses))
	b.WriteByte('\n')

	b.WriteString("# HELP redactd_rate_limited_total Total requests rejected by the rate limiter.\n")
	b.WriteString("# TYPE redactd_rate_limited_total counter\n")
	b.WriteString(fmt.Sprintf("redactd_rate_limited_total %d\n", r.RateLimited))
	b.WriteByte('\n')

	// Latency stats as summaries
	if len(r.LatencyStats) > 0 {
		b.WriteString("# HELP redactd_operation_duration_ms Operation latency in milliseconds.\n")
		b.WriteString("# TYPE redactd_operation_duration_ms summary\n")
		for _, op := range sortedStatKeys(r.LatencyStats) {
			s := r.LatencyStats[op]
			label := sanitizeLabel(op)
			b.WriteString(fmt.Sprintf("redactd_operation_duration_ms{operation=%q,quantile=\"0.5\"} %.2f\n",
				label, s.P50Ms))
			b.WriteString(fmt.Sprintf("redactd_operation_duration_ms{operation=%q,quantile=\"0.95\"} %.2f\n",
				label, s.P95Ms))
			b.WriteString(fmt.Sprintf("redactd_operation_duration_ms{operation=%q,quantile=\"0.99\"} %.2f\n",
				label, s.P99Ms))
			b.WriteString(fmt.Sprintf("redactd_operation_duration_ms_count{operation=%q} %d\n",
				label, s.Count))
			b.WriteString(fmt.Sprintf("redactd_operation_duration_ms_min{operation=%q} %.2f\n",
				label, s.MinMs))
			b.WriteString(fmt.Sprintf("redactd_operation_duration_ms_max{operation=%q} %.2f\n",
				label, s.MaxMs))
			b.WriteString(fmt.Sprintf("redactd_operation_duration_ms_avg{operation=%q} %.2f\n",
				label, s.AvgMs))
		}
		b.WriteByte('\n')
	}

	return b.String()
}

// sanitizeLabel replaces characters invalid in Prometheus labels.
func sanitizeLabel(s string) string {
	return strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' || r == '-' || r == '.' || r == '/' || r == ':' || r == ' ' {
			return r
		}
		return '_'
	}, s)
}

// sortedKeys returns map keys sorted alphabetically for deterministic output.
func sortedKeys(m map[string]int64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// sortedStatKeys returns LatencyStats map keys sorted alphabetically.
func sortedStatKeys(m map[string]LatencyStats) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
