package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/civicworks/grievance-engine/pkg/services"
)

// CreateCategoryBody is the request body for creating a category.
type CreateCategoryBody struct {
	Name      string  `json:"name"`
	LocalName string  `json:"local_name"`
	ParentID  *string `json:"parent_id"`
	Color     string  `json:"color"`
}

// UpdateCategoryBody is the request body for patching a category.
type UpdateCategoryBody struct {
	Name      *string `json:"name"`
	LocalName *string `json:"local_name"`
	Color     *string `json:"color"`
	Active    *bool   `json:"active"`
}

// CategoriesHandler handles category HTTP endpoints.
type CategoriesHandler struct {
	categories services.CategoryService
	logger     *zap.Logger
}

// NewCategoriesHandler creates a new categories handler.
func NewCategoriesHandler(categories services.CategoryService, logger *zap.Logger) *CategoriesHandler {
	return &CategoriesHandler{
		categories: categories,
		logger:     logger,
	}
}

// RegisterRoutes registers the categories handler's routes on the given mux.
func (h *CategoriesHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/categories", h.Create)
	mux.HandleFunc("GET /api/categories", h.List)
	mux.HandleFunc("GET /api/categories/{id}", h.Get)
	mux.HandleFunc("PATCH /api/categories/{id}", h.Update)
	mux.HandleFunc("DELETE /api/categories/{id}", h.Delete)
}

// Create handles POST /api/categories.
func (h *CategoriesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var body CreateCategoryBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	input := services.CreateCategoryInput{
		Name:      body.Name,
		LocalName: body.LocalName,
		Color:     body.Color,
	}

	if body.ParentID != nil {
		parentID, err := uuid.Parse(*body.ParentID)
		if err != nil {
			if err := ErrorResponse(w, http.StatusBadRequest, "invalid_parent_id", "Invalid parent ID format"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
			return
		}
		input.ParentID = &parentID
	}

	category, err := h.categories.Create(r.Context(), input, RequestAuditMeta(r))
	if err != nil {
		WriteServiceError(w, err, h.logger)
		return
	}

	if err := WriteJSON(w, http.StatusCreated, category); err != nil {
		h.logger.Error("Failed to encode category", zap.Error(err))
	}
}

// List handles GET /api/categories.
// ?tree=true returns root categories with children attached;
// ?active=true restricts to active categories.
func (h *CategoriesHandler) List(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("active") == "true"

	var err error
	var result any
	if r.URL.Query().Get("tree") == "true" {
		result, err = h.categories.Tree(r.Context(), activeOnly)
	} else {
		result, err = h.categories.List(r.Context(), activeOnly)
	}
	if err != nil {
		WriteServiceError(w, err, h.logger)
		return
	}

	if err := WriteJSON(w, http.StatusOK, result); err != nil {
		h.logger.Error("Failed to encode categories", zap.Error(err))
	}
}

// Get handles GET /api/categories/{id}.
func (h *CategoriesHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseID(w, r, h.logger)
	if !ok {
		return
	}

	category, err := h.categories.Get(r.Context(), id)
	if err != nil {
		WriteServiceError(w, err, h.logger)
		return
	}

	if err := WriteJSON(w, http.StatusOK, category); err != nil {
		h.logger.Error("Failed to encode category", zap.Error(err))
	}
}

// Update handles PATCH /api/categories/{id}.
func (h *CategoriesHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseID(w, r, h.logger)
	if !ok {
		return
	}

	var body UpdateCategoryBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	category, err := h.categories.Update(r.Context(), id, services.UpdateCategoryInput{
		Name:      body.Name,
		LocalName: body.LocalName,
		Color:     body.Color,
		Active:    body.Active,
	}, RequestAuditMeta(r))
	if err != nil {
		WriteServiceError(w, err, h.logger)
		return
	}

	if err := WriteJSON(w, http.StatusOK, category); err != nil {
		h.logger.Error("Failed to encode category", zap.Error(err))
	}
}

// Delete handles DELETE /api/categories/{id}.
func (h *CategoriesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseID(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.categories.Delete(r.Context(), id, RequestAuditMeta(r)); err != nil {
		WriteServiceError(w, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
