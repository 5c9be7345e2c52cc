package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/civicworks/grievance-engine/pkg/services"
)

// AssistantQueryBody is the request body for an assistant question.
type AssistantQueryBody struct {
	Question string `json:"question"`
}

// AssistantQueryResponse wraps the assistant's answer.
type AssistantQueryResponse struct {
	Answer string `json:"answer"`
}

// AssistantHandler proxies questions to the AI assistant.
type AssistantHandler struct {
	assistant services.AssistantService
	logger    *zap.Logger
}

// NewAssistantHandler creates a new assistant handler.
func NewAssistantHandler(assistant services.AssistantService, logger *zap.Logger) *AssistantHandler {
	return &AssistantHandler{
		assistant: assistant,
		logger:    logger,
	}
}

// RegisterRoutes registers the assistant handler's routes on the given mux.
func (h *AssistantHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/assistant/query", h.Query)
}

// Query handles POST /api/assistant/query.
func (h *AssistantHandler) Query(w http.ResponseWriter, r *http.Request) {
	var body AssistantQueryBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	answer, err := h.assistant.Query(r.Context(), body.Question)
	if err != nil {
		WriteServiceError(w, err, h.logger)
		return
	}

	if err := WriteJSON(w, http.StatusOK, AssistantQueryResponse{Answer: answer}); err != nil {
		h.logger.Error("Failed to encode assistant response", zap.Error(err))
	}
}
