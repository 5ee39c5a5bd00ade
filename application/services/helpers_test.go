package services

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"secondbrain-backend/application/ports"
	"secondbrain-backend/infrastructure/persistence/memory"
	"secondbrain-backend/pkg/errors"
)

// stubAI is a configurable ports.AIClient for service tests. Methods without
// a configured function report an internal error so an unexpected call fails
// the test loudly instead of silently succeeding.
type stubAI struct {
	enabled   bool
	judge     func(source, target ports.NodeDescriptor) (ports.RelationJudgement, error)
	extract   func(text string) (ports.StructuredKnowledge, error)
	rerank    func(query string, results []ports.RankedItem) ([]string, error)
	answer    func(question, contextText string) (string, error)
	summarize func(text string, maxWords int) (string, error)
}

var _ ports.AIClient = (*stubAI)(nil)

func (s *stubAI) Enabled() bool { return s.enabled }

func (s *stubAI) ExtractConcepts(ctx context.Context, text string) ([]string, error) {
	return nil, errors.NewInternalError("ExtractConcepts not stubbed")
}

func (s *stubAI) ExtractStructuredKnowledge(ctx context.Context, text string) (ports.StructuredKnowledge, error) {
	if s.extract == nil {
		return ports.StructuredKnowledge{}, errors.NewInternalError("ExtractStructuredKnowledge not stubbed")
	}
	return s.extract(text)
}

func (s *stubAI) JudgeRelation(ctx context.Context, source, target ports.NodeDescriptor) (ports.RelationJudgement, error) {
	if s.judge == nil {
		return ports.RelationJudgement{}, errors.NewInternalError("JudgeRelation not stubbed")
	}
	return s.judge(source, target)
}

func (s *stubAI) AnswerQuestion(ctx context.Context, question, contextText string) (string, error) {
	if s.answer == nil {
		return "", errors.NewInternalError("AnswerQuestion not stubbed")
	}
	return s.answer(question, contextText)
}

func (s *stubAI) Summarize(ctx context.Context, text string, maxWords int) (string, error) {
	if s.summarize == nil {
		return "", errors.NewInternalError("Summarize not stubbed")
	}
	return s.summarize(text, maxWords)
}

func (s *stubAI) RerankSearchResults(ctx context.Context, query string, results []ports.RankedItem) ([]string, error) {
	if s.rerank == nil {
		return nil, errors.NewInternalError("RerankSearchResults not stubbed")
	}
	return s.rerank(query, results)
}

// testFixture bundles the in-memory stores behind a graph service
type testFixture struct {
	nodes     *memory.NodeRepository
	edges     *memory.EdgeRepository
	documents *memory.DocumentRepository
	graph     *GraphService
}

func newTestFixture(t *testing.T) *testFixture {
	t.Helper()
	nodes := memory.NewNodeRepository()
	edges := memory.NewEdgeRepository()
	return &testFixture{
		nodes:     nodes,
		edges:     edges,
		documents: memory.NewDocumentRepository(),
		graph:     NewGraphService(nodes, edges, GraphServiceConfig{}, zap.NewNop(), nil),
	}
}
