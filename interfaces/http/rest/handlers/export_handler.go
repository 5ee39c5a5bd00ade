package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"secondbrain-backend/application/ports"
	"secondbrain-backend/application/services"
	"secondbrain-backend/pkg/errors"
)

// ExportHandler serves the full data export endpoint
type ExportHandler struct {
	baseHandler
	graph     *services.GraphService
	documents ports.DocumentRepository
}

// NewExportHandler creates an export handler
func NewExportHandler(graph *services.GraphService, documents ports.DocumentRepository, logger *zap.Logger, errorHandler *errors.ErrorHandler) *ExportHandler {
	return &ExportHandler{
		baseHandler: newBaseHandler(logger, errorHandler),
		graph:       graph,
		documents:   documents,
	}
}

// ExportedDocument is the export shape of a document, content included
type ExportedDocument struct {
	DocumentResponse
	Content string `json:"content"`
}

// Export handles GET /graph/export: everything the owner has stored, in one
// payload. The synthetic root is not part of the data and is left out.
func (h *ExportHandler) Export(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.owner(w, r)
	if !ok {
		return
	}

	snapshot, err := h.graph.FetchSnapshot(r.Context(), ownerID)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	docs, err := h.documents.FindByOwner(r.Context(), ownerID)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	nodes := make([]NodeResponse, 0, snapshot.NodeCount())
	for _, node := range snapshot.Nodes() {
		if node.IsRoot() {
			continue
		}
		nodes = append(nodes, nodeToResponse(node))
	}

	edges := make([]EdgeResponse, 0, snapshot.EdgeCount())
	for _, edge := range snapshot.Edges() {
		edges = append(edges, edgeToResponse(edge))
	}

	documents := make([]ExportedDocument, 0, len(docs))
	for _, doc := range docs {
		documents = append(documents, ExportedDocument{
			DocumentResponse: documentToResponse(doc),
			Content:          doc.Content(),
		})
	}

	h.logger.Info("Data export",
		zap.String("owner_id", ownerID),
		zap.Int("nodes", len(nodes)),
		zap.Int("edges", len(edges)),
		zap.Int("documents", len(documents)),
	)

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"nodes":     nodes,
		"edges":     edges,
		"documents": documents,
	})
}
