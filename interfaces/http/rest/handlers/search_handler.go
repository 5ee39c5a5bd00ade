package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"secondbrain-backend/application/services"
	"secondbrain-backend/pkg/errors"
)

// SearchHandler serves the search endpoint
type SearchHandler struct {
	baseHandler
	search *services.SearchService
}

// NewSearchHandler creates a search handler
func NewSearchHandler(search *services.SearchService, logger *zap.Logger, errorHandler *errors.ErrorHandler) *SearchHandler {
	return &SearchHandler{
		baseHandler: newBaseHandler(logger, errorHandler),
		search:      search,
	}
}

// Search handles GET /search?q=...&semantic=true
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.owner(w, r)
	if !ok {
		return
	}

	query := r.URL.Query().Get("q")
	if query == "" {
		h.errors.HandleStatus(w, r, http.StatusBadRequest, "Missing query parameter q")
		return
	}
	semantic := r.URL.Query().Get("semantic") == "true"

	results, err := h.search.Search(r.Context(), ownerID, query, semantic)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"query":   query,
		"results": results,
	})
}
