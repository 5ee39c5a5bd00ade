package services

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"secondbrain-backend/application/ports"
	domainservices "secondbrain-backend/domain/services"
)

// SearchResult is one hit returned to the caller
type SearchResult struct {
	ID         string   `json:"id"`
	Kind       string   `json:"kind"`
	Title      string   `json:"title"`
	Content    string   `json:"content,omitempty"`
	Relevance  int      `json:"relevance"`
	Highlights []string `json:"highlights"`
}

// SearchService ranks the owner's documents and nodes against a query.
// Lexical scoring always runs; semantic mode additionally asks the AI
// provider to reorder the top hits and falls back to the lexical order
// whenever that call fails.
type SearchService struct {
	graph     *GraphService
	documents ports.DocumentRepository
	projector domainservices.ViewProjector
	ai        ports.AIClient
	logger    *zap.Logger
}

// NewSearchService creates the search service
func NewSearchService(
	graph *GraphService,
	documents ports.DocumentRepository,
	projector domainservices.ViewProjector,
	ai ports.AIClient,
	logger *zap.Logger,
) *SearchService {
	return &SearchService{
		graph:     graph,
		documents: documents,
		projector: projector,
		ai:        ai,
		logger:    logger,
	}
}

const rerankDepth = 5

// Search scores documents and graph nodes lexically, best first. With
// semantic enabled and a configured provider, the top results are re-ranked
// by the provider; any failure leaves the lexical order unchanged.
func (s *SearchService) Search(ctx context.Context, ownerID, query string, semantic bool) ([]SearchResult, error) {
	var results []SearchResult

	docs, err := s.documents.FindByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	for _, doc := range docs {
		relevance := domainservices.RelevanceScore(query, doc.Title(), doc.Content())
		if relevance == 0 {
			continue
		}
		text := doc.Content()
		if text == "" {
			text = doc.Title()
		}
		results = append(results, SearchResult{
			ID:         doc.ID(),
			Kind:       "document",
			Title:      doc.Title(),
			Content:    doc.Content(),
			Relevance:  relevance,
			Highlights: domainservices.ExtractHighlights(query, text),
		})
	}

	snapshot, err := s.graph.FetchSnapshot(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	for _, scored := range s.projector.RankBySearch(snapshot, query) {
		if scored.Node.IsRoot() {
			continue
		}
		results = append(results, SearchResult{
			ID:         scored.Node.ID().String(),
			Kind:       "node",
			Title:      scored.Node.Label(),
			Content:    string(scored.Node.Type()) + " concept",
			Relevance:  scored.Score,
			Highlights: []string{scored.Node.Label()},
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Relevance > results[j].Relevance
	})

	if semantic && len(results) > 0 && s.ai.Enabled() {
		results = s.rerank(ctx, query, results)
	}
	return results, nil
}

// rerank reorders the top hits by the provider's verdict, leaving the tail
// and, on any failure, the entire ordering untouched
func (s *SearchService) rerank(ctx context.Context, query string, results []SearchResult) []SearchResult {
	depth := rerankDepth
	if len(results) < depth {
		depth = len(results)
	}
	head := results[:depth]

	items := make([]ports.RankedItem, 0, depth)
	for _, r := range head {
		items = append(items, ports.RankedItem{ID: r.ID, Title: r.Title, Content: r.Content})
	}

	orderedIDs, err := s.ai.RerankSearchResults(ctx, query, items)
	if err != nil {
		s.logger.Debug("Semantic re-rank failed, keeping lexical order", zap.Error(err))
		return results
	}

	position := make(map[string]int, len(orderedIDs))
	for i, id := range orderedIDs {
		position[id] = i
	}

	reordered := make([]SearchResult, len(head))
	copy(reordered, head)
	sort.SliceStable(reordered, func(i, j int) bool {
		pi, iOK := position[reordered[i].ID]
		pj, jOK := position[reordered[j].ID]
		if iOK && jOK {
			return pi < pj
		}
		return iOK && !jOK
	})

	out := make([]SearchResult, 0, len(results))
	out = append(out, reordered...)
	out = append(out, results[depth:]...)
	return out
}
