package services

import (
	"context"

	"go.uber.org/zap"

	"secondbrain-backend/application/ports"
	"secondbrain-backend/domain/core/entities"
	"secondbrain-backend/infrastructure/observability"
	"secondbrain-backend/pkg/errors"
)

// IngestionService runs the document pipeline: extract knowledge from a
// document, materialize concept and document nodes, and wire them together.
// The pipeline does not roll back on partial failure; the document records
// which step failed so the run can be retried or inspected.
type IngestionService struct {
	documents ports.DocumentRepository
	graph     *GraphService
	ai        ports.AIClient
	logger    *zap.Logger
	metrics   *observability.Metrics
}

// NewIngestionService creates the document pipeline
func NewIngestionService(
	documents ports.DocumentRepository,
	graph *GraphService,
	ai ports.AIClient,
	logger *zap.Logger,
	metrics *observability.Metrics,
) *IngestionService {
	return &IngestionService{
		documents: documents,
		graph:     graph,
		ai:        ai,
		logger:    logger,
		metrics:   metrics,
	}
}

// IngestResult summarizes one pipeline run
type IngestResult struct {
	DocumentID   string `json:"document_id"`
	DocumentNode string `json:"document_node_id,omitempty"`
	ConceptCount int    `json:"concept_count"`
	EdgeCount    int    `json:"edge_count"`
	Summary      string `json:"summary,omitempty"`
}

// Ingest stores a new document and immediately runs the pipeline over it
func (s *IngestionService) Ingest(ctx context.Context, ownerID, title, content, sourceType, sourceURL string) (*entities.Document, *IngestResult, error) {
	doc, err := entities.NewDocument(ownerID, title, content, sourceType, sourceURL)
	if err != nil {
		return nil, nil, err
	}
	if err := s.documents.Save(ctx, doc); err != nil {
		return nil, nil, errors.Wrap(err, "persist document")
	}

	result, err := s.ProcessDocument(ctx, ownerID, doc.ID())
	if err != nil {
		return doc, nil, err
	}
	return doc, result, nil
}

// ProcessDocument runs the pipeline for an existing document: mark it
// processing, extract structured knowledge, find or create a concept node
// per extracted concept, create the document node, connect it to each
// concept, then mark the document completed. A failure marks the document
// failed with the failing step and stops there.
func (s *IngestionService) ProcessDocument(ctx context.Context, ownerID, documentID string) (*IngestResult, error) {
	doc, err := s.documents.FindByID(ctx, ownerID, documentID)
	if err != nil {
		return nil, errors.Wrap(err, "load document")
	}

	doc.MarkProcessing()
	if err := s.documents.Update(ctx, doc); err != nil {
		return nil, errors.Wrap(err, "mark document processing")
	}

	knowledge, err := s.ai.ExtractStructuredKnowledge(ctx, doc.Content())
	if err != nil {
		return nil, s.fail(ctx, doc, "extract_knowledge", err)
	}

	conceptProperties := map[string]interface{}{
		"source":      doc.SourceType(),
		"document_id": documentID,
	}
	conceptIDs := make([]string, 0, len(knowledge.Concepts))
	for _, concept := range knowledge.Concepts {
		node, _, err := s.graph.FindOrCreateNode(ctx, ownerID, entities.NodeTypeConcept, concept, conceptProperties)
		if err != nil {
			s.logger.Warn("Failed to materialize concept node, skipping",
				zap.String("document_id", documentID),
				zap.String("concept", concept),
				zap.Error(err),
			)
			continue
		}
		conceptIDs = append(conceptIDs, node.ID().String())
	}

	docProperties := map[string]interface{}{
		"source":      doc.SourceType(),
		"document_id": documentID,
		"content":     truncateContent(doc.Content(), 500),
	}
	if knowledge.Summary != "" {
		docProperties["summary"] = knowledge.Summary
	}
	if doc.SourceURL() != "" {
		docProperties["source_url"] = doc.SourceURL()
	}

	docNode, err := s.graph.UpsertNode(ctx, ownerID, entities.NodeTypeDocument, doc.Title(), docProperties)
	if err != nil {
		return nil, s.fail(ctx, doc, "create_document_node", err)
	}

	edgeCount := 0
	for _, conceptID := range conceptIDs {
		_, err := s.graph.UpsertEdge(ctx, ownerID, UpsertEdgeParams{
			SourceID: docNode.ID().String(),
			TargetID: conceptID,
			Type:     entities.EdgeTypeRelatesTo,
			Weight:   0.8,
		})
		if err != nil {
			return nil, s.fail(ctx, doc, "create_edges", err)
		}
		edgeCount++
	}

	doc.MarkCompleted()
	if err := s.documents.Update(ctx, doc); err != nil {
		return nil, errors.Wrap(err, "mark document completed")
	}

	if s.metrics != nil {
		s.metrics.RecordIngestion("completed")
	}
	s.logger.Info("Document ingested",
		zap.String("document_id", documentID),
		zap.Int("concepts", len(conceptIDs)),
		zap.Int("edges", edgeCount),
	)

	return &IngestResult{
		DocumentID:   documentID,
		DocumentNode: docNode.ID().String(),
		ConceptCount: len(conceptIDs),
		EdgeCount:    edgeCount,
		Summary:      knowledge.Summary,
	}, nil
}

// fail records the failing step on the document and returns the wrapped error
func (s *IngestionService) fail(ctx context.Context, doc *entities.Document, step string, cause error) error {
	doc.MarkFailed(step)
	if err := s.documents.Update(ctx, doc); err != nil {
		s.logger.Error("Failed to record document failure",
			zap.String("document_id", doc.ID()),
			zap.String("step", step),
			zap.Error(err),
		)
	}
	if s.metrics != nil {
		s.metrics.RecordIngestion("failed")
	}
	return errors.Wrap(cause, step)
}

func truncateContent(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
