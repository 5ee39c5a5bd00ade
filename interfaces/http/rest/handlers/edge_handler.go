package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"secondbrain-backend/application/services"
	"secondbrain-backend/domain/core/entities"
	"secondbrain-backend/pkg/errors"
	"secondbrain-backend/pkg/utils"
)

// EdgeHandler handles edge CRUD requests
type EdgeHandler struct {
	baseHandler
	graph *services.GraphService
}

// NewEdgeHandler creates an edge handler
func NewEdgeHandler(graph *services.GraphService, logger *zap.Logger, errorHandler *errors.ErrorHandler) *EdgeHandler {
	return &EdgeHandler{
		baseHandler: newBaseHandler(logger, errorHandler),
		graph:       graph,
	}
}

// CreateEdgeRequest represents the request body for creating an edge
type CreateEdgeRequest struct {
	SourceID string  `json:"source_id" validate:"required"`
	TargetID string  `json:"target_id" validate:"required"`
	Type     string  `json:"type" validate:"required"`
	Weight   float64 `json:"weight" validate:"gte=0,lte=1"`
}

// CreateEdge handles POST /edges
func (h *EdgeHandler) CreateEdge(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.owner(w, r)
	if !ok {
		return
	}

	var req CreateEdgeRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		h.errors.HandleStatus(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	edgeType, err := entities.ParseEdgeType(req.Type)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	edge, err := h.graph.UpsertEdge(r.Context(), ownerID, services.UpsertEdgeParams{
		SourceID: req.SourceID,
		TargetID: req.TargetID,
		Type:     edgeType,
		Weight:   req.Weight,
	})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusCreated, edgeToResponse(edge))
}

// DeleteEdge handles DELETE /edges/{edgeID}
func (h *EdgeHandler) DeleteEdge(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.owner(w, r)
	if !ok {
		return
	}

	edgeID := chi.URLParam(r, "edgeID")
	if err := h.graph.DeleteEdge(r.Context(), ownerID, edgeID); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	h.logger.Info("Edge deleted",
		zap.String("owner_id", ownerID),
		zap.String("edge_id", edgeID),
	)
	h.respondJSON(w, http.StatusOK, map[string]interface{}{"deleted": true, "id": edgeID})
}
