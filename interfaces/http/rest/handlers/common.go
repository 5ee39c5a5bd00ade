// Package handlers contains the REST request handlers
package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"secondbrain-backend/interfaces/http/rest/middleware"
	"secondbrain-backend/pkg/errors"
)

// baseHandler carries the pieces every handler needs
type baseHandler struct {
	logger *zap.Logger
	errors *errors.ErrorHandler
}

func newBaseHandler(logger *zap.Logger, errorHandler *errors.ErrorHandler) baseHandler {
	return baseHandler{logger: logger, errors: errorHandler}
}

// owner extracts the authenticated user or writes a 401
func (h *baseHandler) owner(w http.ResponseWriter, r *http.Request) (string, bool) {
	ownerID, ok := middleware.OwnerFromContext(r.Context())
	if !ok {
		h.errors.HandleStatus(w, r, http.StatusUnauthorized, "Unauthorized")
		return "", false
	}
	return ownerID, true
}

// decode parses the JSON request body into dst or writes a 400
func (h *baseHandler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.errors.HandleStatus(w, r, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	return true
}

func (h *baseHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("Failed to encode response", zap.Error(err))
	}
}
