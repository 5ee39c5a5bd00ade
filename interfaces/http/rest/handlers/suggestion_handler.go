package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"secondbrain-backend/application/services"
	"secondbrain-backend/pkg/errors"
	"secondbrain-backend/pkg/utils"
)

// SuggestionHandler serves the AI suggestion lifecycle endpoints
type SuggestionHandler struct {
	baseHandler
	suggestions *services.SuggestionService
}

// NewSuggestionHandler creates a suggestion handler
func NewSuggestionHandler(suggestions *services.SuggestionService, logger *zap.Logger, errorHandler *errors.ErrorHandler) *SuggestionHandler {
	return &SuggestionHandler{
		baseHandler: newBaseHandler(logger, errorHandler),
		suggestions: suggestions,
	}
}

// GetSuggestions handles GET /nodes/{nodeID}/suggestions
func (h *SuggestionHandler) GetSuggestions(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.owner(w, r)
	if !ok {
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			limit = n
		}
	}

	result, err := h.suggestions.GetSuggestionsForNode(r.Context(), ownerID, chi.URLParam(r, "nodeID"), limit)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{"suggestions": result})
}

// AcceptSuggestionRequest represents the request body for accepting a suggestion
type AcceptSuggestionRequest struct {
	SourceID   string   `json:"source_id" validate:"required"`
	TargetID   string   `json:"target_id" validate:"required"`
	Confidence float64  `json:"confidence" validate:"gte=0,lte=1"`
	Evidence   []string `json:"evidence,omitempty"`
}

// AcceptSuggestion handles POST /suggestions/accept. The edge creation
// outcome is reported in the body, never as an error status.
func (h *SuggestionHandler) AcceptSuggestion(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.owner(w, r)
	if !ok {
		return
	}

	var req AcceptSuggestionRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		h.errors.HandleStatus(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	created := h.suggestions.CreateSuggestedEdge(r.Context(), ownerID, req.SourceID, req.TargetID, req.Confidence, req.Evidence)
	h.respondJSON(w, http.StatusOK, map[string]interface{}{"created": created})
}

// ConfirmSuggestionRequest represents the request body for finalizing a
// pending suggested edge
type ConfirmSuggestionRequest struct {
	Confirmed bool `json:"confirmed"`
}

// ConfirmSuggestion handles POST /suggestions/{edgeID}/confirm
func (h *SuggestionHandler) ConfirmSuggestion(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.owner(w, r)
	if !ok {
		return
	}

	var req ConfirmSuggestionRequest
	if !h.decode(w, r, &req) {
		return
	}

	edgeID := chi.URLParam(r, "edgeID")
	if err := h.suggestions.ConfirmSuggestion(r.Context(), ownerID, edgeID, req.Confirmed); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{"id": edgeID, "confirmed": req.Confirmed})
}
