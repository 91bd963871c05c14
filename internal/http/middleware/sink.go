package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/khanhtranq/inventory-service/internal/metric"
)

// Sink observes every request into the request metrics sink: the total
// counter, the latency sample buffer and, for the product resource, the
// matching CRUD counter. Every GET under /products counts as a read,
// list and single-item fetch alike.
func Sink(sink *metric.Sink) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t1 := time.Now()

			next.ServeHTTP(w, r)

			latencyMs := float64(time.Since(t1)) / float64(time.Millisecond)
			sink.Observe(crudOp(r), latencyMs)
		})
	}
}

func crudOp(r *http.Request) string {
	if !strings.HasPrefix(r.URL.Path, "/products") {
		return ""
	}

	switch r.Method {
	case http.MethodPost:
		return metric.OpCreate
	case http.MethodGet:
		return metric.OpRead
	case http.MethodPut:
		return metric.OpUpdate
	case http.MethodDelete:
		return metric.OpDelete
	default:
		return ""
	}
}
