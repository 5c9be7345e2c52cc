package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/civicworks/grievance-engine/pkg/models"
	"github.com/civicworks/grievance-engine/pkg/services"
)

// AuditHandler exposes read-only audit history for an entity.
type AuditHandler struct {
	audit  services.AuditService
	logger *zap.Logger
}

// NewAuditHandler creates a new audit handler.
func NewAuditHandler(audit services.AuditService, logger *zap.Logger) *AuditHandler {
	return &AuditHandler{
		audit:  audit,
		logger: logger,
	}
}

// RegisterRoutes registers the audit handler's routes on the given mux.
func (h *AuditHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/requests/{id}/audit", h.ListForRequest)
}

// ListForRequest handles GET /api/requests/{id}/audit.
func (h *AuditHandler) ListForRequest(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseID(w, r, h.logger)
	if !ok {
		return
	}

	entries, err := h.audit.GetByEntity(r.Context(), models.AuditEntityTypeRequest, id)
	if err != nil {
		WriteServiceError(w, err, h.logger)
		return
	}

	if err := WriteJSON(w, http.StatusOK, entries); err != nil {
		h.logger.Error("Failed to encode audit entries", zap.Error(err))
	}
}
