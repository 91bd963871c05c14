package http

import (
	"net/http"

	appmetric "github.com/khanhtranq/inventory-service/internal/metric"
)

type metricsHandler struct {
	responder

	sink *appmetric.Sink
}

func newMetricsHandler(rs responder, sink *appmetric.Sink) *metricsHandler {
	return &metricsHandler{
		responder: rs,
		sink:      sink,
	}
}

func (h *metricsHandler) report(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, r, http.StatusOK, h.sink.Snapshot())
}
