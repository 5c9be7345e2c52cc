package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/civicworks/grievance-engine/pkg/repositories"
	"github.com/civicworks/grievance-engine/pkg/services"
)

// CreateRequestBody is the request body for creating a grievance request.
type CreateRequestBody struct {
	Type                   string     `json:"type"`
	SubType                string     `json:"sub_type"`
	CategoryID             *string    `json:"category_id"`
	Title                  string     `json:"title"`
	Description            string     `json:"description"`
	RequesterName          string     `json:"requester_name"`
	RequesterPhone         string     `json:"requester_phone"`
	RequesterAddress       string     `json:"requester_address"`
	Latitude               *float64   `json:"latitude"`
	Longitude              *float64   `json:"longitude"`
	Constituency           string     `json:"constituency"`
	District               string     `json:"district"`
	Priority               string     `json:"priority"`
	EstimatedCost          float64    `json:"estimated_cost"`
	ExpectedResolutionDate *time.Time `json:"expected_resolution_date"`
}

// UpdateRequestBody is the request body for patching a grievance request.
type UpdateRequestBody struct {
	Type                   *string    `json:"type"`
	SubType                *string    `json:"sub_type"`
	CategoryID             *string    `json:"category_id"`
	Title                  *string    `json:"title"`
	Description            *string    `json:"description"`
	RequesterName          *string    `json:"requester_name"`
	RequesterPhone         *string    `json:"requester_phone"`
	RequesterAddress       *string    `json:"requester_address"`
	Constituency           *string    `json:"constituency"`
	District               *string    `json:"district"`
	Priority               *string    `json:"priority"`
	EstimatedCost          *float64   `json:"estimated_cost"`
	ExpectedResolutionDate *time.Time `json:"expected_resolution_date"`
}

// AssignRequestBody is the request body for assigning a request.
type AssignRequestBody struct {
	AssigneeID string `json:"assignee_id"`
	AssignedBy string `json:"assigned_by"`
}

// UpdateStatusBody is the request body for a status change.
type UpdateStatusBody struct {
	Status string `json:"status"`
}

// RequestsHandler handles grievance request HTTP endpoints.
type RequestsHandler struct {
	requests services.RequestService
	logger   *zap.Logger
}

// NewRequestsHandler creates a new requests handler.
func NewRequestsHandler(requests services.RequestService, logger *zap.Logger) *RequestsHandler {
	return &RequestsHandler{
		requests: requests,
		logger:   logger,
	}
}

// RegisterRoutes registers the requests handler's routes on the given mux.
func (h *RequestsHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/requests", h.Create)
	mux.HandleFunc("GET /api/requests", h.List)
	mux.HandleFunc("GET /api/requests/{id}", h.Get)
	mux.HandleFunc("PATCH /api/requests/{id}", h.Update)
	mux.HandleFunc("DELETE /api/requests/{id}", h.Delete)
	mux.HandleFunc("POST /api/requests/{id}/assign", h.Assign)
	mux.HandleFunc("POST /api/requests/{id}/reopen", h.Reopen)
	mux.HandleFunc("POST /api/requests/{id}/status", h.UpdateStatus)
}

// Create handles POST /api/requests.
func (h *RequestsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var body CreateRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	input := services.CreateRequestInput{
		Type:                   body.Type,
		SubType:                body.SubType,
		Title:                  body.Title,
		Description:            body.Description,
		RequesterName:          body.RequesterName,
		RequesterPhone:         body.RequesterPhone,
		RequesterAddress:       body.RequesterAddress,
		Latitude:               body.Latitude,
		Longitude:              body.Longitude,
		Constituency:           body.Constituency,
		District:               body.District,
		Priority:               body.Priority,
		EstimatedCost:          body.EstimatedCost,
		ExpectedResolutionDate: body.ExpectedResolutionDate,
	}

	meta := RequestAuditMeta(r)
	input.CreatedBy = meta.UserID

	if body.CategoryID != nil {
		categoryID, err := uuid.Parse(*body.CategoryID)
		if err != nil {
			if err := ErrorResponse(w, http.StatusBadRequest, "invalid_category_id", "Invalid category ID format"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
			return
		}
		input.CategoryID = &categoryID
	}

	req, err := h.requests.Create(r.Context(), input, meta)
	if err != nil {
		WriteServiceError(w, err, h.logger)
		return
	}

	if err := WriteJSON(w, http.StatusCreated, req); err != nil {
		h.logger.Error("Failed to encode request", zap.Error(err))
	}
}

// List handles GET /api/requests.
// Supported filters: status, type, priority, assigned_to, category_id,
// district, constituency, page, limit.
func (h *RequestsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := repositories.RequestFilter{
		Status:       q.Get("status"),
		Type:         q.Get("type"),
		Priority:     q.Get("priority"),
		District:     q.Get("district"),
		Constituency: q.Get("constituency"),
		Page:         QueryInt(r, "page", 1),
		Limit:        QueryInt(r, "limit", 20),
	}

	assignedTo, err := QueryUUID(r, "assigned_to")
	if err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_assigned_to", "Invalid assigned_to format"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}
	filter.AssignedTo = assignedTo

	categoryID, err := QueryUUID(r, "category_id")
	if err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_category_id", "Invalid category_id format"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}
	filter.CategoryID = categoryID

	page, err := h.requests.List(r.Context(), filter)
	if err != nil {
		WriteServiceError(w, err, h.logger)
		return
	}

	if err := WriteJSON(w, http.StatusOK, page); err != nil {
		h.logger.Error("Failed to encode request page", zap.Error(err))
	}
}

// Get handles GET /api/requests/{id}.
func (h *RequestsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseID(w, r, h.logger)
	if !ok {
		return
	}

	req, err := h.requests.Get(r.Context(), id)
	if err != nil {
		WriteServiceError(w, err, h.logger)
		return
	}

	if err := WriteJSON(w, http.StatusOK, req); err != nil {
		h.logger.Error("Failed to encode request", zap.Error(err))
	}
}

// Update handles PATCH /api/requests/{id}.
func (h *RequestsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseID(w, r, h.logger)
	if !ok {
		return
	}

	var body UpdateRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	input := services.UpdateRequestInput{
		Type:                   body.Type,
		SubType:                body.SubType,
		Title:                  body.Title,
		Description:            body.Description,
		RequesterName:          body.RequesterName,
		RequesterPhone:         body.RequesterPhone,
		RequesterAddress:       body.RequesterAddress,
		Constituency:           body.Constituency,
		District:               body.District,
		Priority:               body.Priority,
		EstimatedCost:          body.EstimatedCost,
		ExpectedResolutionDate: body.ExpectedResolutionDate,
	}

	if body.CategoryID != nil {
		categoryID, err := uuid.Parse(*body.CategoryID)
		if err != nil {
			if err := ErrorResponse(w, http.StatusBadRequest, "invalid_category_id", "Invalid category ID format"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
			return
		}
		input.CategoryID = &categoryID
	}

	req, err := h.requests.Update(r.Context(), id, input, RequestAuditMeta(r))
	if err != nil {
		WriteServiceError(w, err, h.logger)
		return
	}

	if err := WriteJSON(w, http.StatusOK, req); err != nil {
		h.logger.Error("Failed to encode request", zap.Error(err))
	}
}

// Delete handles DELETE /api/requests/{id}.
func (h *RequestsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseID(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.requests.Delete(r.Context(), id, RequestAuditMeta(r)); err != nil {
		WriteServiceError(w, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Assign handles POST /api/requests/{id}/assign.
func (h *RequestsHandler) Assign(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseID(w, r, h.logger)
	if !ok {
		return
	}

	var body AssignRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if body.AssigneeID == "" {
		if err := ErrorResponse(w, http.StatusBadRequest, "missing_assignee_id", "Assignee ID is required"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	assigneeID, err := uuid.Parse(body.AssigneeID)
	if err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_assignee_id", "Invalid assignee ID format"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	meta := RequestAuditMeta(r)
	assignedBy := meta.UserID
	if body.AssignedBy != "" {
		id, err := uuid.Parse(body.AssignedBy)
		if err != nil {
			if err := ErrorResponse(w, http.StatusBadRequest, "invalid_assigned_by", "Invalid assigned_by format"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
			return
		}
		assignedBy = &id
	}

	req, err := h.requests.Assign(r.Context(), id, assigneeID, assignedBy, meta)
	if err != nil {
		WriteServiceError(w, err, h.logger)
		return
	}

	if err := WriteJSON(w, http.StatusOK, req); err != nil {
		h.logger.Error("Failed to encode request", zap.Error(err))
	}
}

// Reopen handles POST /api/requests/{id}/reopen.
func (h *RequestsHandler) Reopen(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseID(w, r, h.logger)
	if !ok {
		return
	}

	req, err := h.requests.Reopen(r.Context(), id, RequestAuditMeta(r))
	if err != nil {
		WriteServiceError(w, err, h.logger)
		return
	}

	if err := WriteJSON(w, http.StatusOK, req); err != nil {
		h.logger.Error("Failed to encode request", zap.Error(err))
	}
}

// UpdateStatus handles POST /api/requests/{id}/status.
func (h *RequestsHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseID(w, r, h.logger)
	if !ok {
		return
	}

	var body UpdateStatusBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if body.Status == "" {
		if err := ErrorResponse(w, http.StatusBadRequest, "missing_status", "Status is required"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	req, err := h.requests.UpdateStatus(r.Context(), id, body.Status, RequestAuditMeta(r))
	if err != nil {
		WriteServiceError(w, err, h.logger)
		return
	}

	if err := WriteJSON(w, http.StatusOK, req); err != nil {
		h.logger.Error("Failed to encode request", zap.Error(err))
	}
}
