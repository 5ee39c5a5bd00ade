package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"secondbrain-backend/application/ports"
	"secondbrain-backend/application/services"
	"secondbrain-backend/domain/core/entities"
	"secondbrain-backend/pkg/errors"
	"secondbrain-backend/pkg/utils"
)

// DocumentHandler serves document ingestion and inspection endpoints
type DocumentHandler struct {
	baseHandler
	ingestion *services.IngestionService
	documents ports.DocumentRepository
}

// NewDocumentHandler creates a document handler
func NewDocumentHandler(ingestion *services.IngestionService, documents ports.DocumentRepository, logger *zap.Logger, errorHandler *errors.ErrorHandler) *DocumentHandler {
	return &DocumentHandler{
		baseHandler: newBaseHandler(logger, errorHandler),
		ingestion:   ingestion,
		documents:   documents,
	}
}

// IngestDocumentRequest represents the request body for ingesting a document
type IngestDocumentRequest struct {
	Title      string `json:"title" validate:"required,min=1,max=500"`
	Content    string `json:"content" validate:"required"`
	SourceType string `json:"source_type" validate:"required,oneof=notion upload paste"`
	SourceURL  string `json:"source_url,omitempty"`
}

// DocumentResponse is the wire shape of a document record
type DocumentResponse struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	SourceType string `json:"source_type"`
	SourceURL  string `json:"source_url,omitempty"`
	Status     string `json:"status"`
	FailedStep string `json:"failed_step,omitempty"`
	CreatedAt  string `json:"created_at"`
	UpdatedAt  string `json:"updated_at"`
}

func documentToResponse(doc *entities.Document) DocumentResponse {
	return DocumentResponse{
		ID:         doc.ID(),
		Title:      doc.Title(),
		SourceType: doc.SourceType(),
		SourceURL:  doc.SourceURL(),
		Status:     string(doc.Status()),
		FailedStep: doc.FailedStep(),
		CreatedAt:  doc.CreatedAt().Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt:  doc.UpdatedAt().Format("2006-01-02T15:04:05Z07:00"),
	}
}

// IngestDocument handles POST /documents: stores the document and runs the
// extraction pipeline synchronously
func (h *DocumentHandler) IngestDocument(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.owner(w, r)
	if !ok {
		return
	}

	var req IngestDocumentRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		h.errors.HandleStatus(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	doc, result, err := h.ingestion.Ingest(r.Context(), ownerID, req.Title, req.Content, req.SourceType, req.SourceURL)
	if err != nil {
		// The document record survives a pipeline failure with its
		// failed status, so include it when available.
		if doc != nil {
			h.logger.Warn("Document ingestion failed",
				zap.String("document_id", doc.ID()),
				zap.Error(err),
			)
		}
		h.errors.Handle(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusCreated, map[string]interface{}{
		"document": documentToResponse(doc),
		"result":   result,
	})
}

// ListDocuments handles GET /documents
func (h *DocumentHandler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.owner(w, r)
	if !ok {
		return
	}

	docs, err := h.documents.FindByOwner(r.Context(), ownerID)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	responses := make([]DocumentResponse, 0, len(docs))
	for _, doc := range docs {
		responses = append(responses, documentToResponse(doc))
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{"documents": responses})
}

// GetDocument handles GET /documents/{documentID}
func (h *DocumentHandler) GetDocument(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.owner(w, r)
	if !ok {
		return
	}

	doc, err := h.documents.FindByID(r.Context(), ownerID, chi.URLParam(r, "documentID"))
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, documentToResponse(doc))
}

// DeleteDocument handles DELETE /documents/{documentID}. Graph nodes created
// from the document stay in place.
func (h *DocumentHandler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.owner(w, r)
	if !ok {
		return
	}

	documentID := chi.URLParam(r, "documentID")
	if err := h.documents.Delete(r.Context(), ownerID, documentID); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	h.logger.Info("Document deleted",
		zap.String("owner_id", ownerID),
		zap.String("document_id", documentID),
	)
	h.respondJSON(w, http.StatusOK, map[string]interface{}{"deleted": true, "id": documentID})
}

// ReprocessDocument handles POST /documents/{documentID}/process: reruns the
// pipeline over an existing document, typically after a failed run
func (h *DocumentHandler) ReprocessDocument(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.owner(w, r)
	if !ok {
		return
	}

	result, err := h.ingestion.ProcessDocument(r.Context(), ownerID, chi.URLParam(r, "documentID"))
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, result)
}
