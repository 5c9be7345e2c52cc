package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/civicworks/grievance-engine/pkg/services"
)

// maxUploadBytes caps multipart upload memory buffering.
const maxUploadBytes = 32 << 20 // 32 MiB

// AttachmentsHandler handles attachment upload and listing.
type AttachmentsHandler struct {
	attachments services.AttachmentService
	logger      *zap.Logger
}

// NewAttachmentsHandler creates a new attachments handler.
func NewAttachmentsHandler(attachments services.AttachmentService, logger *zap.Logger) *AttachmentsHandler {
	return &AttachmentsHandler{
		attachments: attachments,
		logger:      logger,
	}
}

// RegisterRoutes registers the attachments handler's routes on the given mux.
func (h *AttachmentsHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/requests/{id}/attachments", h.Upload)
	mux.HandleFunc("GET /api/requests/{id}/attachments", h.List)
}

// Upload handles POST /api/requests/{id}/attachments (multipart form,
// field name "file").
func (h *AttachmentsHandler) Upload(w http.ResponseWriter, r *http.Request) {
	requestID, ok := ParseID(w, r, h.logger)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_multipart", "Invalid multipart form"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "missing_file", "File field is required"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}
	defer file.Close()

	meta := RequestAuditMeta(r)
	attachment, err := h.attachments.Upload(
		r.Context(), requestID, header.Filename,
		header.Header.Get("Content-Type"), file, meta.UserID,
	)
	if err != nil {
		WriteServiceError(w, err, h.logger)
		return
	}

	if err := WriteJSON(w, http.StatusCreated, attachment); err != nil {
		h.logger.Error("Failed to encode attachment", zap.Error(err))
	}
}

// List handles GET /api/requests/{id}/attachments.
func (h *AttachmentsHandler) List(w http.ResponseWriter, r *http.Request) {
	requestID, ok := ParseID(w, r, h.logger)
	if !ok {
		return
	}

	attachments, err := h.attachments.ListByRequest(r.Context(), requestID)
	if err != nil {
		WriteServiceError(w, err, h.logger)
		return
	}

	if err := WriteJSON(w, http.StatusOK, attachments); err != nil {
		h.logger.Error("Failed to encode attachments", zap.Error(err))
	}
}
