package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/civicworks/grievance-engine/pkg/models"
	"github.com/civicworks/grievance-engine/pkg/services"
)

// IngestMessageBody is the request body for recording an inbound message.
type IngestMessageBody struct {
	Phone   string `json:"phone"`
	RawText string `json:"raw_text"`
}

// ApproveMessageResponse returns the approved message together with the
// request created from it.
type ApproveMessageResponse struct {
	Message *models.WhatsappMessage `json:"message"`
	Request *models.Request         `json:"request"`
}

// WhatsappHandler handles the inbound message review queue.
type WhatsappHandler struct {
	whatsapp services.WhatsappService
	logger   *zap.Logger
}

// NewWhatsappHandler creates a new WhatsApp handler.
func NewWhatsappHandler(whatsapp services.WhatsappService, logger *zap.Logger) *WhatsappHandler {
	return &WhatsappHandler{
		whatsapp: whatsapp,
		logger:   logger,
	}
}

// RegisterRoutes registers the WhatsApp handler's routes on the given mux.
func (h *WhatsappHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/whatsapp", h.Ingest)
	mux.HandleFunc("GET /api/whatsapp/pending", h.ListPending)
	mux.HandleFunc("POST /api/whatsapp/{id}/approve", h.Approve)
	mux.HandleFunc("POST /api/whatsapp/{id}/reject", h.Reject)
}

// Ingest handles POST /api/whatsapp.
func (h *WhatsappHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	var body IngestMessageBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	msg, err := h.whatsapp.Ingest(r.Context(), body.Phone, body.RawText)
	if err != nil {
		WriteServiceError(w, err, h.logger)
		return
	}

	if err := WriteJSON(w, http.StatusCreated, msg); err != nil {
		h.logger.Error("Failed to encode message", zap.Error(err))
	}
}

// ListPending handles GET /api/whatsapp/pending.
func (h *WhatsappHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	messages, err := h.whatsapp.ListPending(r.Context())
	if err != nil {
		WriteServiceError(w, err, h.logger)
		return
	}

	if err := WriteJSON(w, http.StatusOK, messages); err != nil {
		h.logger.Error("Failed to encode messages", zap.Error(err))
	}
}

// Approve handles POST /api/whatsapp/{id}/approve.
// Approval creates a request from the message and links the two.
func (h *WhatsappHandler) Approve(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseID(w, r, h.logger)
	if !ok {
		return
	}

	msg, req, err := h.whatsapp.Approve(r.Context(), id, RequestAuditMeta(r))
	if err != nil {
		WriteServiceError(w, err, h.logger)
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApproveMessageResponse{Message: msg, Request: req}); err != nil {
		h.logger.Error("Failed to encode approval response", zap.Error(err))
	}
}

// Reject handles POST /api/whatsapp/{id}/reject.
func (h *WhatsappHandler) Reject(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseID(w, r, h.logger)
	if !ok {
		return
	}

	msg, err := h.whatsapp.Reject(r.Context(), id, RequestAuditMeta(r))
	if err != nil {
		WriteServiceError(w, err, h.logger)
		return
	}

	if err := WriteJSON(w, http.StatusOK, msg); err != nil {
		h.logger.Error("Failed to encode message", zap.Error(err))
	}
}
