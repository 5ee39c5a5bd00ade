package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"secondbrain-backend/application/services"
	"secondbrain-backend/domain/core/entities"
	"secondbrain-backend/domain/core/valueobjects"
	"secondbrain-backend/pkg/errors"
	"secondbrain-backend/pkg/utils"
)

// NodeHandler handles node CRUD requests
type NodeHandler struct {
	baseHandler
	graph *services.GraphService
}

// NewNodeHandler creates a node handler
func NewNodeHandler(graph *services.GraphService, logger *zap.Logger, errorHandler *errors.ErrorHandler) *NodeHandler {
	return &NodeHandler{
		baseHandler: newBaseHandler(logger, errorHandler),
		graph:       graph,
	}
}

// CreateNodeRequest represents the request body for creating a node
type CreateNodeRequest struct {
	Type       string                 `json:"type" validate:"required"`
	Label      string                 `json:"label" validate:"required,min=1,max=200"`
	Properties map[string]interface{} `json:"properties,omitempty"`
}

// CreateNode handles POST /nodes
func (h *NodeHandler) CreateNode(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.owner(w, r)
	if !ok {
		return
	}

	var req CreateNodeRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		h.errors.HandleStatus(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	nodeType, err := entities.ParseNodeType(req.Type)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	node, err := h.graph.UpsertNode(r.Context(), ownerID, nodeType, req.Label, req.Properties)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusCreated, nodeToResponse(node))
}

// GetNode handles GET /nodes/{nodeID}
func (h *NodeHandler) GetNode(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.owner(w, r)
	if !ok {
		return
	}

	id, err := valueobjects.ParseNodeID(chi.URLParam(r, "nodeID"))
	if err != nil {
		h.errors.HandleStatus(w, r, http.StatusBadRequest, "Invalid node id")
		return
	}

	snapshot, err := h.graph.FetchSnapshot(r.Context(), ownerID)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	node, found := snapshot.NodeByID(id)
	if !found {
		h.errors.Handle(w, r, errors.NewNotFoundError("node", id.String()))
		return
	}

	h.respondJSON(w, http.StatusOK, nodeToResponse(node))
}

// DeleteNode handles DELETE /nodes/{nodeID}. Incident edges are removed
// along with the node.
func (h *NodeHandler) DeleteNode(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.owner(w, r)
	if !ok {
		return
	}

	nodeID := chi.URLParam(r, "nodeID")
	if err := h.graph.DeleteNode(r.Context(), ownerID, nodeID); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	h.logger.Info("Node deleted",
		zap.String("owner_id", ownerID),
		zap.String("node_id", nodeID),
	)
	h.respondJSON(w, http.StatusOK, map[string]interface{}{"deleted": true, "id": nodeID})
}
