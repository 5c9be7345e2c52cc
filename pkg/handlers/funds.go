package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/civicworks/grievance-engine/pkg/models"
	"github.com/civicworks/grievance-engine/pkg/services"
)

// CreateFundBody is the request body for requesting funds.
type CreateFundBody struct {
	RequestID string  `json:"request_id"`
	Amount    float64 `json:"amount"`
	Purpose   string  `json:"purpose"`
}

// ApproveFundBody is the request body for a fund approval decision.
type ApproveFundBody struct {
	Status     string `json:"status"` // SANCTIONED, RELEASED or REJECTED
	ApprovedBy string `json:"approved_by"`
}

// FundsHandler handles fund request HTTP endpoints.
type FundsHandler struct {
	funds  services.FundService
	logger *zap.Logger
}

// NewFundsHandler creates a new funds handler.
func NewFundsHandler(funds services.FundService, logger *zap.Logger) *FundsHandler {
	return &FundsHandler{
		funds:  funds,
		logger: logger,
	}
}

// RegisterRoutes registers the funds handler's routes on the given mux.
func (h *FundsHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/funds", h.Create)
	mux.HandleFunc("GET /api/funds/{id}", h.Get)
	mux.HandleFunc("POST /api/funds/{id}/approve", h.Approve)
	mux.HandleFunc("GET /api/requests/{id}/funds", h.ListByRequest)
}

// Create handles POST /api/funds.
func (h *FundsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var body CreateFundBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	requestID, err := uuid.Parse(body.RequestID)
	if err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request_id", "Invalid request ID format"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	fund, err := h.funds.Create(r.Context(), services.CreateFundRequestInput{
		RequestID: requestID,
		Amount:    body.Amount,
		Purpose:   body.Purpose,
	}, RequestAuditMeta(r))
	if err != nil {
		WriteServiceError(w, err, h.logger)
		return
	}

	if err := WriteJSON(w, http.StatusCreated, fund); err != nil {
		h.logger.Error("Failed to encode fund request", zap.Error(err))
	}
}

// Get handles GET /api/funds/{id}.
func (h *FundsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseID(w, r, h.logger)
	if !ok {
		return
	}

	fund, err := h.funds.Get(r.Context(), id)
	if err != nil {
		WriteServiceError(w, err, h.logger)
		return
	}

	if err := WriteJSON(w, http.StatusOK, fund); err != nil {
		h.logger.Error("Failed to encode fund request", zap.Error(err))
	}
}

// Approve handles POST /api/funds/{id}/approve.
// Status defaults to SANCTIONED when omitted.
func (h *FundsHandler) Approve(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseID(w, r, h.logger)
	if !ok {
		return
	}

	var body ApproveFundBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	status := body.Status
	if status == "" {
		status = models.FundStatusSanctioned
	}

	meta := RequestAuditMeta(r)
	approvedBy := meta.UserID
	if body.ApprovedBy != "" {
		id, err := uuid.Parse(body.ApprovedBy)
		if err != nil {
			if err := ErrorResponse(w, http.StatusBadRequest, "invalid_approved_by", "Invalid approved_by format"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
			return
		}
		approvedBy = &id
	}

	fund, err := h.funds.Approve(r.Context(), id, status, approvedBy, meta)
	if err != nil {
		WriteServiceError(w, err, h.logger)
		return
	}

	if err := WriteJSON(w, http.StatusOK, fund); err != nil {
		h.logger.Error("Failed to encode fund request", zap.Error(err))
	}
}

// ListByRequest handles GET /api/requests/{id}/funds.
func (h *FundsHandler) ListByRequest(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseID(w, r, h.logger)
	if !ok {
		return
	}

	funds, err := h.funds.ListByRequest(r.Context(), id)
	if err != nil {
		WriteServiceError(w, err, h.logger)
		return
	}

	if err := WriteJSON(w, http.StatusOK, funds); err != nil {
		h.logger.Error("Failed to encode fund requests", zap.Error(err))
	}
}
