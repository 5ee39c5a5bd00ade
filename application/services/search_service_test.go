package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"secondbrain-backend/application/ports"
	"secondbrain-backend/domain/core/entities"
	domainservices "secondbrain-backend/domain/services"
	"secondbrain-backend/pkg/errors"
)

func newSearchService(fx *testFixture, ai ports.AIClient) *SearchService {
	return NewSearchService(fx.graph, fx.documents, domainservices.NewViewProjector(), ai, zap.NewNop())
}

func seedDocument(t *testing.T, fx *testFixture, title, content string) *entities.Document {
	t.Helper()
	doc, err := entities.NewDocument("user-1", title, content, "paste", "")
	require.NoError(t, err)
	require.NoError(t, fx.documents.Save(context.Background(), doc))
	return doc
}

func TestSearchMergesDocumentsAndNodes(t *testing.T) {
	fx := newTestFixture(t)
	ctx := context.Background()

	doc := seedDocument(t, fx, "Machine Learning Notes", "An intro. These notes cover machine learning broadly.")
	seedDocument(t, fx, "Shopping List", "milk and eggs")

	node, err := fx.graph.UpsertNode(ctx, "user-1", entities.NodeTypeConcept, "Machine Learning", nil)
	require.NoError(t, err)
	_, err = fx.graph.UpsertNode(ctx, "user-1", entities.NodeTypeConcept, "Cooking", nil)
	require.NoError(t, err)

	results, err := newSearchService(fx, &stubAI{}).Search(ctx, "user-1", "machine learning", false)
	require.NoError(t, err)

	require.Len(t, results, 2)
	assert.Equal(t, doc.ID(), results[0].ID)
	assert.Equal(t, "document", results[0].Kind)
	assert.NotEmpty(t, results[0].Highlights)

	assert.Equal(t, node.ID().String(), results[1].ID)
	assert.Equal(t, "node", results[1].Kind)
	assert.Equal(t, "concept concept", results[1].Content)
	assert.Equal(t, []string{"Machine Learning"}, results[1].Highlights)

	assert.GreaterOrEqual(t, results[0].Relevance, results[1].Relevance)
}

func TestSearchSkipsSyntheticRoot(t *testing.T) {
	fx := newTestFixture(t)

	results, err := newSearchService(fx, &stubAI{}).Search(context.Background(), "user-1", "knowledge", false)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearchEmptyQueryMatchesNothing(t *testing.T) {
	fx := newTestFixture(t)
	seedDocument(t, fx, "Anything", "content here")

	results, err := newSearchService(fx, &stubAI{}).Search(context.Background(), "user-1", "zzzz", false)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearchSemanticRerank(t *testing.T) {
	fx := newTestFixture(t)
	ctx := context.Background()

	first := seedDocument(t, fx, "Learning Go", "go basics")
	second := seedDocument(t, fx, "Learning Rust", "rust basics compared to learning go")

	ai := &stubAI{
		enabled: true,
		rerank: func(query string, results []ports.RankedItem) ([]string, error) {
			// reverse the lexical head
			ids := make([]string, 0, len(results))
			for i := len(results) - 1; i >= 0; i-- {
				ids = append(ids, results[i].ID)
			}
			return ids, nil
		},
	}

	lexical, err := newSearchService(fx, &stubAI{}).Search(ctx, "user-1", "learning go", false)
	require.NoError(t, err)
	require.Len(t, lexical, 2)
	require.Equal(t, first.ID(), lexical[0].ID)

	semantic, err := newSearchService(fx, ai).Search(ctx, "user-1", "learning go", true)
	require.NoError(t, err)
	require.Len(t, semantic, 2)
	assert.Equal(t, second.ID(), semantic[0].ID)
	assert.Equal(t, first.ID(), semantic[1].ID)
}

func TestSearchRerankFailureKeepsLexicalOrder(t *testing.T) {
	fx := newTestFixture(t)
	ctx := context.Background()

	first := seedDocument(t, fx, "Learning Go", "go basics")
	seedDocument(t, fx, "Learning Rust", "rust basics compared to learning go")

	ai := &stubAI{
		enabled: true,
		rerank: func(query string, results []ports.RankedItem) ([]string, error) {
			return nil, errors.NewRateLimitError("gemini")
		},
	}

	results, err := newSearchService(fx, ai).Search(ctx, "user-1", "learning go", true)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, first.ID(), results[0].ID)
}

func TestSearchSemanticSkippedWhenAIDisabled(t *testing.T) {
	fx := newTestFixture(t)
	seedDocument(t, fx, "Learning Go", "go basics")

	ai := &stubAI{
		enabled: false,
		rerank: func(query string, results []ports.RankedItem) ([]string, error) {
			t.Fatal("rerank must not be called when the provider is disabled")
			return nil, nil
		},
	}

	results, err := newSearchService(fx, ai).Search(context.Background(), "user-1", "go", true)
	require.NoError(t, err)
	assert.NotEmpty(t, results)
}

func TestSearchRerankIgnoresUnknownIDs(t *testing.T) {
	fx := newTestFixture(t)
	ctx := context.Background()

	first := seedDocument(t, fx, "Learning Go", "go basics")
	second := seedDocument(t, fx, "Learning Rust", "rust basics compared to learning go")

	ai := &stubAI{
		enabled: true,
		rerank: func(query string, results []ports.RankedItem) ([]string, error) {
			return []string{second.ID(), "made-up-id"}, nil
		},
	}

	results, err := newSearchService(fx, ai).Search(ctx, "user-1", "learning go", true)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, second.ID(), results[0].ID)
	assert.Equal(t, first.ID(), results[1].ID)
}
