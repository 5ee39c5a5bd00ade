package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"secondbrain-backend/application/services"
	"secondbrain-backend/domain/core/aggregates"
	"secondbrain-backend/domain/core/entities"
	domainservices "secondbrain-backend/domain/services"
	"secondbrain-backend/pkg/errors"
)

// GraphHandler serves the graph visualization and statistics endpoints
type GraphHandler struct {
	baseHandler
	graph     *services.GraphService
	projector domainservices.ViewProjector
}

// NewGraphHandler creates a graph handler
func NewGraphHandler(graph *services.GraphService, projector domainservices.ViewProjector, logger *zap.Logger, errorHandler *errors.ErrorHandler) *GraphHandler {
	return &GraphHandler{
		baseHandler: newBaseHandler(logger, errorHandler),
		graph:       graph,
		projector:   projector,
	}
}

// NodeResponse is the wire shape of a graph node
type NodeResponse struct {
	ID         string                 `json:"id"`
	Label      string                 `json:"label"`
	Type       string                 `json:"type"`
	Color      string                 `json:"color"`
	Size       int                    `json:"size"`
	Properties map[string]interface{} `json:"properties,omitempty"`
	CreatedAt  string                 `json:"created_at"`
}

// EdgeResponse is the wire shape of a graph edge
type EdgeResponse struct {
	ID            string   `json:"id"`
	Source        string   `json:"source"`
	Target        string   `json:"target"`
	Type          string   `json:"type"`
	Weight        float64  `json:"weight"`
	AISuggested   bool     `json:"ai_suggested"`
	UserConfirmed bool     `json:"user_confirmed"`
	Confidence    float64  `json:"confidence,omitempty"`
	Evidence      []string `json:"evidence,omitempty"`
}

// GraphResponse is the full graph payload
type GraphResponse struct {
	Nodes []NodeResponse `json:"nodes"`
	Edges []EdgeResponse `json:"edges"`
}

// GetGraph handles GET /graph. Query parameters shape the view: focus
// isolates a node and its neighbors, types filters by node type,
// min_connections drops weakly connected nodes.
func (h *GraphHandler) GetGraph(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.owner(w, r)
	if !ok {
		return
	}

	snapshot, err := h.graph.FetchSnapshot(r.Context(), ownerID)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	state, hasState := parseViewState(r)
	if hasState {
		snapshot = h.projector.Project(snapshot, state)
	}

	h.respondJSON(w, http.StatusOK, graphToResponse(snapshot))
}

// GetStats handles GET /graph/stats
func (h *GraphHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.owner(w, r)
	if !ok {
		return
	}

	stats, err := h.graph.Stats(r.Context(), ownerID)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, stats)
}

func parseViewState(r *http.Request) (domainservices.ViewState, bool) {
	query := r.URL.Query()
	state := domainservices.ViewState{}
	hasState := false

	if focus := query.Get("focus"); focus != "" {
		state.FocusNodeID = focus
		hasState = true
	}
	if rawTypes := query.Get("types"); rawTypes != "" {
		visible := make(map[entities.NodeType]bool)
		for _, raw := range strings.Split(rawTypes, ",") {
			if t, err := entities.ParseNodeType(strings.TrimSpace(raw)); err == nil {
				visible[t] = true
			}
		}
		if len(visible) > 0 {
			state.VisibleTypes = visible
			hasState = true
		}
	}
	if raw := query.Get("min_connections"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			state.MinConnections = n
			hasState = true
		}
	}
	return state, hasState
}

func graphToResponse(graph *aggregates.Graph) GraphResponse {
	nodes := make([]NodeResponse, 0, graph.NodeCount())
	for _, node := range graph.Nodes() {
		nodes = append(nodes, nodeToResponse(node))
	}

	edges := make([]EdgeResponse, 0, graph.EdgeCount())
	for _, edge := range graph.Edges() {
		edges = append(edges, edgeToResponse(edge))
	}
	return GraphResponse{Nodes: nodes, Edges: edges}
}

func nodeToResponse(node *entities.Node) NodeResponse {
	return NodeResponse{
		ID:         node.ID().String(),
		Label:      node.Label(),
		Type:       string(node.Type()),
		Color:      node.Type().DisplayColor(),
		Size:       node.Type().DisplaySize(),
		Properties: node.Properties(),
		CreatedAt:  node.CreatedAt().Format("2006-01-02T15:04:05Z07:00"),
	}
}

func edgeToResponse(edge *entities.Edge) EdgeResponse {
	return EdgeResponse{
		ID:            edge.ID().String(),
		Source:        edge.SourceID().String(),
		Target:        edge.TargetID().String(),
		Type:          string(edge.Type()),
		Weight:        edge.Weight(),
		AISuggested:   edge.AISuggested(),
		UserConfirmed: edge.UserConfirmed(),
		Confidence:    edge.Confidence().Value(),
		Evidence:      edge.Evidence(),
	}
}
