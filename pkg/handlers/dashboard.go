package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/civicworks/grievance-engine/pkg/models"
	"github.com/civicworks/grievance-engine/pkg/services"
)

// DashboardHandler serves the aggregated KPI view consumed by the role
// dashboards.
type DashboardHandler struct {
	dashboard services.DashboardService
	logger    *zap.Logger
}

// NewDashboardHandler creates a new dashboard handler.
func NewDashboardHandler(dashboard services.DashboardService, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{
		dashboard: dashboard,
		logger:    logger,
	}
}

// RegisterRoutes registers the dashboard handler's routes on the given mux.
func (h *DashboardHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/dashboard/stats", h.Stats)
}

// Stats handles GET /api/dashboard/stats?year&month&district&constituency.
// Year defaults to the current year; month 0 means the whole year.
func (h *DashboardHandler) Stats(w http.ResponseWriter, r *http.Request) {
	month := QueryInt(r, "month", 0)
	if month < 0 || month > 12 {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_month", "Month must be between 1 and 12"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	filter := models.DashboardFilter{
		Year:         QueryInt(r, "year", 0),
		Month:        month,
		District:     r.URL.Query().Get("district"),
		Constituency: r.URL.Query().Get("constituency"),
	}

	stats, err := h.dashboard.Stats(r.Context(), filter)
	if err != nil {
		WriteServiceError(w, err, h.logger)
		return
	}

	if err := WriteJSON(w, http.StatusOK, stats); err != nil {
		h.logger.Error("Failed to encode dashboard stats", zap.Error(err))
	}
}
