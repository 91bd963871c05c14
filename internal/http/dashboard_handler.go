package http

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/khanhtranq/inventory-service/internal/service"
)

type dashboardHandler struct {
	responder

	dashboardSvc service.DashboardService
}

func newDashboardHandler(rs responder, dashboardSvc service.DashboardService) *dashboardHandler {
	return &dashboardHandler{
		responder:    rs,
		dashboardSvc: dashboardSvc,
	}
}

func (h *dashboardHandler) register(r chi.Router) {
	r.Get("/kpis", h.getKPIs)
}

func (h *dashboardHandler) getKPIs(w http.ResponseWriter, r *http.Request) {
	report, err := h.dashboardSvc.ComputeKPIs(r.Context())
	if err != nil {
		h.writeError(w, r, fmt.Errorf("dashboard service compute kpis: %w", err))
		return
	}

	h.writeJSON(w, r, http.StatusOK, report)
}
