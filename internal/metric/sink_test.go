package metric_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/khanhtranq/inventory-service/internal/metric"
)

func TestSinkSnapshot(t *testing.T) {
	t.Run("Should report zero p95 on empty sample set", func(t *testing.T) {
		sink := metric.NewSink()

		report := sink.Snapshot()

		assert.Equal(t, uint64(0), report.TotalRequestsInRun)
		assert.Equal(t, float64(0), report.P95LatencyMs)
		assert.Equal(t, uint64(0), report.CrudOperationCounts[metric.OpCreate])
	})

	t.Run("Should report nearest-rank p95", func(t *testing.T) {
		sink := metric.NewSink()

		// 100 ascending samples 1..100, recorded out of order.
		for i := 100; i >= 1; i-- {
			sink.Observe("", float64(i))
		}

		report := sink.Snapshot()

		// floor(100*0.95) = index 95, the 96th smallest sample.
		assert.Equal(t, float64(96), report.P95LatencyMs)
		assert.Equal(t, uint64(100), report.TotalRequestsInRun)
	})

	t.Run("Should count CRUD operations per kind", func(t *testing.T) {
		sink := metric.NewSink()

		sink.Observe(metric.OpCreate, 1)
		sink.Observe(metric.OpRead, 1)
		sink.Observe(metric.OpRead, 1)
		sink.Observe(metric.OpUpdate, 1)
		sink.Observe(metric.OpDelete, 1)
		sink.Observe("", 1)

		report := sink.Snapshot()

		assert.Equal(t, uint64(6), report.TotalRequestsInRun)
		assert.Equal(t, uint64(1), report.CrudOperationCounts[metric.OpCreate])
		assert.Equal(t, uint64(2), report.CrudOperationCounts[metric.OpRead])
		assert.Equal(t, uint64(1), report.CrudOperationCounts[metric.OpUpdate])
		assert.Equal(t, uint64(1), report.CrudOperationCounts[metric.OpDelete])
	})

	t.Run("Should round the reported p95 to two decimals", func(t *testing.T) {
		sink := metric.NewSink()

		sink.Observe("", 1.2345)

		assert.Equal(t, 1.23, sink.Snapshot().P95LatencyMs)
	})
}

func TestSinkConcurrency(t *testing.T) {
	t.Run("Should not lose increments under concurrent observers", func(t *testing.T) {
		sink := metric.NewSink()

		var wg sync.WaitGroup
		for range 50 {
			wg.Go(func() {
				for i := range 100 {
					sink.Observe(metric.OpRead, float64(i))
				}
			})
		}
		wg.Wait()

		report := sink.Snapshot()

		assert.Equal(t, uint64(5000), report.TotalRequestsInRun)
		assert.Equal(t, uint64(5000), report.CrudOperationCounts[metric.OpRead])
	})
}
