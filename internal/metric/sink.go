// Package metric holds the request metrics sink: process-lifetime
// counters and a latency sample buffer read by the reporting endpoint.
package metric

import (
	"math"
	"sort"
	"sync"
)

// Operation kinds tracked by the CRUD counters.
const (
	OpCreate = "create"
	OpRead   = "read"
	OpUpdate = "update"
	OpDelete = "delete"
)

// Sink accumulates request counts and latency samples for the whole
// process lifetime. All methods are safe for concurrent use. The sample
// buffer is unbounded and the report sorts it on read, so reporting
// cost grows with accumulated history.
type Sink struct {
	mu         sync.Mutex
	totalCount uint64
	crudCounts map[string]uint64
	latencies  []float64
}

func NewSink() *Sink {
	return &Sink{
		crudCounts: map[string]uint64{
			OpCreate: 0,
			OpRead:   0,
			OpUpdate: 0,
			OpDelete: 0,
		},
	}
}

// Observe records one completed request: the wall-clock latency in
// milliseconds and, when op is non-empty, the matching CRUD counter.
func (s *Sink) Observe(op string, latencyMs float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.totalCount++
	s.latencies = append(s.latencies, latencyMs)

	if _, ok := s.crudCounts[op]; ok {
		s.crudCounts[op]++
	}
}

// Report is the snapshot returned by the reporting endpoint.
type Report struct {
	TotalRequestsInRun  uint64            `json:"total_requests_in_run"`
	CrudOperationCounts map[string]uint64 `json:"crud_operation_counts"`
	P95LatencyMs        float64           `json:"p95_latency_ms"`
}

// Snapshot computes the current report. The p95 is nearest-rank over
// the sorted sample list, index floor(n*0.95), no interpolation; an
// empty sample set reports 0.
func (s *Sink) Snapshot() Report {
	s.mu.Lock()
	defer s.mu.Unlock()

	counts := make(map[string]uint64, len(s.crudCounts))
	for op, count := range s.crudCounts {
		counts[op] = count
	}

	var p95 float64
	if n := len(s.latencies); n > 0 {
		sorted := make([]float64, n)
		copy(sorted, s.latencies)
		sort.Float64s(sorted)
		p95 = sorted[int(float64(n)*0.95)]
	}

	return Report{
		TotalRequestsInRun:  s.totalCount,
		CrudOperationCounts: counts,
		P95LatencyMs:        math.Round(p95*100) / 100,
	}
}
