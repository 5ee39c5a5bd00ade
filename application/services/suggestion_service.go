package services

import (
	"context"
	"sort"
	"sync"

	"go.uber.org/zap"

	"secondbrain-backend/application/ports"
	"secondbrain-backend/domain/core/entities"
	"secondbrain-backend/domain/core/valueobjects"
	domainservices "secondbrain-backend/domain/services"
	"secondbrain-backend/infrastructure/observability"
	"secondbrain-backend/pkg/errors"
)

// Suggestion is a transient AI-proposed connection. It is never persisted;
// only acceptance turns it into an edge.
type Suggestion struct {
	SourceID    string   `json:"source_id"`
	TargetID    string   `json:"target_id"`
	TargetLabel string   `json:"target_label"`
	Reason      string   `json:"reason"`
	Confidence  float64  `json:"confidence"`
	Evidence    []string `json:"evidence"`
	// HighConfidence marks suggestions at or above the high-confidence
	// threshold so clients can highlight them for one-tap acceptance.
	HighConfidence bool `json:"high_confidence"`
}

// SuggestionConfig holds the engine thresholds. Values are engine
// configuration, never baked into the AI client.
type SuggestionConfig struct {
	MinConfidence  float64
	HighConfidence float64
	CandidateLimit int
	DefaultLimit   int
}

// DefaultSuggestionConfig returns production defaults
func DefaultSuggestionConfig() SuggestionConfig {
	return SuggestionConfig{
		MinConfidence:  0.5,
		HighConfidence: 0.75,
		CandidateLimit: 50,
		DefaultLimit:   5,
	}
}

// SuggestionService proposes connections between nodes and shepherds each
// suggestion through its proposed, accepted or rejected lifecycle
type SuggestionService struct {
	graph      *GraphService
	edges      ports.EdgeRepository
	ai         ports.AIClient
	embeddings domainservices.EmbeddingService
	logger     *zap.Logger
	metrics    *observability.Metrics

	mu     sync.RWMutex
	config SuggestionConfig
}

// NewSuggestionService creates the suggestion engine
func NewSuggestionService(
	graph *GraphService,
	edges ports.EdgeRepository,
	ai ports.AIClient,
	embeddings domainservices.EmbeddingService,
	config SuggestionConfig,
	logger *zap.Logger,
	metrics *observability.Metrics,
) *SuggestionService {
	if config.CandidateLimit <= 0 {
		config.CandidateLimit = DefaultSuggestionConfig().CandidateLimit
	}
	if config.DefaultLimit <= 0 {
		config.DefaultLimit = DefaultSuggestionConfig().DefaultLimit
	}
	return &SuggestionService{
		graph:      graph,
		edges:      edges,
		ai:         ai,
		embeddings: embeddings,
		config:     config,
		logger:     logger,
		metrics:    metrics,
	}
}

// UpdateConfig swaps in new thresholds, used by the config hot-reload
func (s *SuggestionService) UpdateConfig(config SuggestionConfig) {
	s.mu.Lock()
	s.config = config
	s.mu.Unlock()
	s.logger.Info("Suggestion thresholds updated",
		zap.Float64("min_confidence", config.MinConfidence),
		zap.Float64("high_confidence", config.HighConfidence),
	)
}

func (s *SuggestionService) currentConfig() SuggestionConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config
}

// GetSuggestionsForNode judges the source node against up to the candidate
// limit of peers and returns the related ones at or above the confidence
// floor, best first, truncated to limit. A failed judgement skips that pair
// and never aborts the batch; without AI credentials the result is empty.
func (s *SuggestionService) GetSuggestionsForNode(ctx context.Context, ownerID, nodeID string, limit int) ([]Suggestion, error) {
	config := s.currentConfig()
	if limit <= 0 {
		limit = config.DefaultLimit
	}

	if !s.ai.Enabled() {
		s.logger.Debug("AI provider not configured, returning no suggestions")
		return []Suggestion{}, nil
	}

	snapshot, err := s.graph.FetchSnapshot(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	id, err := valueobjects.ParseNodeID(nodeID)
	if err != nil {
		return nil, errors.NewValidationError("invalid node id")
	}
	source, ok := snapshot.NodeByID(id)
	if !ok {
		return nil, errors.NewNotFoundError("node", nodeID)
	}

	var candidates []*entities.Node
	for _, node := range snapshot.Nodes() {
		if node.ID().Equals(id) || node.IsRoot() {
			continue
		}
		candidates = append(candidates, node)
	}
	candidates = s.rankCandidates(source, candidates, config.CandidateLimit)

	sourceDesc := describeNode(source)
	var suggestions []Suggestion
	for _, candidate := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		judgement, err := s.ai.JudgeRelation(ctx, sourceDesc, describeNode(candidate))
		if err != nil {
			s.logger.Warn("Relation judgement failed, skipping pair",
				zap.String("source_id", nodeID),
				zap.String("target_id", candidate.ID().String()),
				zap.Error(err),
			)
			continue
		}

		confidence := valueobjects.NewConfidence(judgement.Confidence).Value()
		if !judgement.Related || confidence < config.MinConfidence {
			continue
		}

		suggestions = append(suggestions, Suggestion{
			SourceID:       nodeID,
			TargetID:       candidate.ID().String(),
			TargetLabel:    candidate.Label(),
			Reason:         judgement.Explanation,
			Confidence:     confidence,
			Evidence:       []string{judgement.RelationshipType},
			HighConfidence: confidence >= config.HighConfidence,
		})
		if s.metrics != nil {
			s.metrics.RecordSuggestion("proposed")
		}
	}

	sort.SliceStable(suggestions, func(i, j int) bool {
		return suggestions[i].Confidence > suggestions[j].Confidence
	})
	if len(suggestions) > limit {
		suggestions = suggestions[:limit]
	}
	return suggestions, nil
}

// CreateSuggestedEdge persists an accepted suggestion as a pending edge.
// This boundary never propagates an error; failure is reported by the
// return value so the caller can surface a non-fatal notice.
func (s *SuggestionService) CreateSuggestedEdge(ctx context.Context, ownerID, sourceID, targetID string, confidence float64, evidence []string) bool {
	clamped := valueobjects.NewConfidence(confidence).Value()

	_, err := s.graph.UpsertEdge(ctx, ownerID, UpsertEdgeParams{
		SourceID:    sourceID,
		TargetID:    targetID,
		Type:        entities.EdgeTypeRelatesTo,
		Weight:      clamped,
		AISuggested: true,
		Confidence:  clamped,
		Evidence:    evidence,
	})
	if err != nil {
		s.logger.Error("Failed to create suggested edge",
			zap.String("owner_id", ownerID),
			zap.String("source_id", sourceID),
			zap.String("target_id", targetID),
			zap.Error(err),
		)
		if s.metrics != nil {
			s.metrics.RecordSuggestion("failed")
		}
		return false
	}

	if s.metrics != nil {
		s.metrics.RecordSuggestion("accepted")
	}
	return true
}

// ConfirmSuggestion finalizes a pending edge: confirming marks it user
// confirmed, rejecting deletes it. Both paths are idempotent; confirming or
// rejecting an edge that no longer exists is a no-op.
func (s *SuggestionService) ConfirmSuggestion(ctx context.Context, ownerID, edgeID string, confirmed bool) error {
	id, err := valueobjects.ParseEdgeID(edgeID)
	if err != nil {
		return errors.NewValidationError("invalid edge id")
	}

	edge, err := s.edges.FindByID(ctx, ownerID, id)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil
		}
		return errors.Wrap(err, "load edge")
	}

	if confirmed {
		if edge.UserConfirmed() {
			return nil
		}
		edge.Confirm()
		if err := s.edges.Update(ctx, edge); err != nil {
			return errors.Wrap(err, "confirm edge")
		}
		if s.metrics != nil {
			s.metrics.RecordSuggestion("confirmed")
		}
	} else {
		if err := s.edges.Delete(ctx, ownerID, id); err != nil {
			return errors.Wrap(err, "reject edge")
		}
		if s.metrics != nil {
			s.metrics.RecordSuggestion("rejected")
		}
	}

	s.graph.Invalidate(ownerID)
	return nil
}

// rankCandidates keeps the limit most lexically similar peers so the AI
// judge spends its budget on the likeliest pairs. With few candidates the
// snapshot order is kept as-is.
func (s *SuggestionService) rankCandidates(source *entities.Node, candidates []*entities.Node, limit int) []*entities.Node {
	if len(candidates) <= limit {
		return candidates
	}

	sourceEmbedding := s.embeddings.Embed(nodeText(source))

	type scored struct {
		node       *entities.Node
		similarity float64
	}
	ranked := make([]scored, 0, len(candidates))
	for _, candidate := range candidates {
		similarity, err := s.embeddings.CosineSimilarity(sourceEmbedding, s.embeddings.Embed(nodeText(candidate)))
		if err != nil {
			s.logger.Warn("Candidate similarity failed, keeping snapshot order", zap.Error(err))
			return candidates[:limit]
		}
		ranked = append(ranked, scored{node: candidate, similarity: similarity})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].similarity > ranked[j].similarity
	})

	result := make([]*entities.Node, limit)
	for i := range result {
		result[i] = ranked[i].node
	}
	return result
}

func nodeText(node *entities.Node) string {
	if content := node.ContentText(); content != "" {
		return node.Label() + " " + content
	}
	return node.Label()
}

func describeNode(node *entities.Node) ports.NodeDescriptor {
	return ports.NodeDescriptor{
		ID:      node.ID().String(),
		Label:   node.Label(),
		Type:    string(node.Type()),
		Content: node.ContentText(),
	}
}
