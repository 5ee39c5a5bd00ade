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

func newSuggestionService(fx *testFixture, ai ports.AIClient) *SuggestionService {
	embeddings := domainservices.NewEmbeddingService(domainservices.DefaultEmbeddingConfig())
	return NewSuggestionService(fx.graph, fx.edges, ai, embeddings, DefaultSuggestionConfig(), zap.NewNop(), nil)
}

func seedNodes(t *testing.T, fx *testFixture, labels ...string) map[string]*entities.Node {
	t.Helper()
	nodes := make(map[string]*entities.Node, len(labels))
	for _, label := range labels {
		node, err := fx.graph.UpsertNode(context.Background(), "user-1", entities.NodeTypeConcept, label, nil)
		require.NoError(t, err)
		nodes[label] = node
	}
	return nodes
}

func TestGetSuggestionsSkipsFailedJudgements(t *testing.T) {
	fx := newTestFixture(t)
	nodes := seedNodes(t, fx, "source", "related", "unrelated", "broken")

	ai := &stubAI{
		enabled: true,
		judge: func(source, target ports.NodeDescriptor) (ports.RelationJudgement, error) {
			switch target.Label {
			case "related":
				return ports.RelationJudgement{
					Related:          true,
					Confidence:       0.9,
					RelationshipType: "similar_to",
					Explanation:      "covers the same material",
				}, nil
			case "unrelated":
				return ports.RelationJudgement{Related: false, Confidence: 0.9}, nil
			default:
				return ports.RelationJudgement{}, errors.NewMalformedResponseError("gemini", "bad json")
			}
		},
	}
	svc := newSuggestionService(fx, ai)

	suggestions, err := svc.GetSuggestionsForNode(context.Background(), "user-1", nodes["source"].ID().String(), 0)
	require.NoError(t, err)

	require.Len(t, suggestions, 1)
	got := suggestions[0]
	assert.Equal(t, nodes["source"].ID().String(), got.SourceID)
	assert.Equal(t, nodes["related"].ID().String(), got.TargetID)
	assert.Equal(t, "related", got.TargetLabel)
	assert.Equal(t, "covers the same material", got.Reason)
	assert.Equal(t, 0.9, got.Confidence)
	assert.Equal(t, []string{"similar_to"}, got.Evidence)
}

func TestGetSuggestionsSortedAndLimited(t *testing.T) {
	fx := newTestFixture(t)
	nodes := seedNodes(t, fx, "source", "low", "high", "mid")

	confidences := map[string]float64{"low": 0.6, "high": 0.9, "mid": 0.8}
	ai := &stubAI{
		enabled: true,
		judge: func(source, target ports.NodeDescriptor) (ports.RelationJudgement, error) {
			return ports.RelationJudgement{
				Related:          true,
				Confidence:       confidences[target.Label],
				RelationshipType: "relates_to",
			}, nil
		},
	}
	svc := newSuggestionService(fx, ai)

	suggestions, err := svc.GetSuggestionsForNode(context.Background(), "user-1", nodes["source"].ID().String(), 2)
	require.NoError(t, err)

	require.Len(t, suggestions, 2)
	assert.Equal(t, "high", suggestions[0].TargetLabel)
	assert.Equal(t, "mid", suggestions[1].TargetLabel)
}

func TestGetSuggestionsFiltersBelowThreshold(t *testing.T) {
	fx := newTestFixture(t)
	nodes := seedNodes(t, fx, "source", "weak")

	ai := &stubAI{
		enabled: true,
		judge: func(source, target ports.NodeDescriptor) (ports.RelationJudgement, error) {
			return ports.RelationJudgement{Related: true, Confidence: 0.3}, nil
		},
	}
	svc := newSuggestionService(fx, ai)

	suggestions, err := svc.GetSuggestionsForNode(context.Background(), "user-1", nodes["source"].ID().String(), 0)
	require.NoError(t, err)
	assert.Empty(t, suggestions)
}

func TestGetSuggestionsClampsConfidence(t *testing.T) {
	fx := newTestFixture(t)
	nodes := seedNodes(t, fx, "source", "eager")

	ai := &stubAI{
		enabled: true,
		judge: func(source, target ports.NodeDescriptor) (ports.RelationJudgement, error) {
			return ports.RelationJudgement{Related: true, Confidence: 1.7, RelationshipType: "relates_to"}, nil
		},
	}
	svc := newSuggestionService(fx, ai)

	suggestions, err := svc.GetSuggestionsForNode(context.Background(), "user-1", nodes["source"].ID().String(), 0)
	require.NoError(t, err)
	require.Len(t, suggestions, 1)
	assert.Equal(t, 1.0, suggestions[0].Confidence)
}

func TestGetSuggestionsFlagsHighConfidence(t *testing.T) {
	fx := newTestFixture(t)
	nodes := seedNodes(t, fx, "source", "strong", "tepid")

	confidences := map[string]float64{"strong": 0.9, "tepid": 0.6}
	ai := &stubAI{
		enabled: true,
		judge: func(source, target ports.NodeDescriptor) (ports.RelationJudgement, error) {
			return ports.RelationJudgement{
				Related:          true,
				Confidence:       confidences[target.Label],
				RelationshipType: "relates_to",
			}, nil
		},
	}
	svc := newSuggestionService(fx, ai)

	suggestions, err := svc.GetSuggestionsForNode(context.Background(), "user-1", nodes["source"].ID().String(), 0)
	require.NoError(t, err)

	require.Len(t, suggestions, 2)
	assert.Equal(t, "strong", suggestions[0].TargetLabel)
	assert.True(t, suggestions[0].HighConfidence)
	assert.Equal(t, "tepid", suggestions[1].TargetLabel)
	assert.False(t, suggestions[1].HighConfidence)
}

func TestGetSuggestionsWithoutAICredentials(t *testing.T) {
	fx := newTestFixture(t)
	nodes := seedNodes(t, fx, "source", "other")

	svc := newSuggestionService(fx, &stubAI{enabled: false})

	suggestions, err := svc.GetSuggestionsForNode(context.Background(), "user-1", nodes["source"].ID().String(), 0)
	require.NoError(t, err)
	assert.Empty(t, suggestions)
}

func TestGetSuggestionsUnknownNode(t *testing.T) {
	fx := newTestFixture(t)
	seedNodes(t, fx, "only")

	svc := newSuggestionService(fx, &stubAI{enabled: true})

	_, err := svc.GetSuggestionsForNode(context.Background(), "user-1", "does-not-exist", 0)
	assert.True(t, errors.IsNotFound(err))
}

func TestCreateSuggestedEdge(t *testing.T) {
	fx := newTestFixture(t)
	nodes := seedNodes(t, fx, "a", "b")
	svc := newSuggestionService(fx, &stubAI{enabled: true})

	ok := svc.CreateSuggestedEdge(context.Background(), "user-1",
		nodes["a"].ID().String(), nodes["b"].ID().String(), 0.8, []string{"similar_to"})
	assert.True(t, ok)

	edges, err := fx.edges.FindByOwner(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, edges, 1)
	assert.True(t, edges[0].IsPendingSuggestion())
	assert.Equal(t, 0.8, edges[0].Weight())
	assert.Equal(t, entities.EdgeTypeRelatesTo, edges[0].Type())
}

func TestCreateSuggestedEdgeReportsFailure(t *testing.T) {
	fx := newTestFixture(t)
	nodes := seedNodes(t, fx, "a")
	svc := newSuggestionService(fx, &stubAI{enabled: true})

	// a self loop fails validation, reported by the return value only
	ok := svc.CreateSuggestedEdge(context.Background(), "user-1",
		nodes["a"].ID().String(), nodes["a"].ID().String(), 0.8, nil)
	assert.False(t, ok)
}

func TestConfirmSuggestion(t *testing.T) {
	fx := newTestFixture(t)
	nodes := seedNodes(t, fx, "a", "b")
	svc := newSuggestionService(fx, &stubAI{enabled: true})

	require.True(t, svc.CreateSuggestedEdge(context.Background(), "user-1",
		nodes["a"].ID().String(), nodes["b"].ID().String(), 0.8, nil))

	edges, err := fx.edges.FindByOwner(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, edges, 1)
	edgeID := edges[0].ID().String()

	require.NoError(t, svc.ConfirmSuggestion(context.Background(), "user-1", edgeID, true))

	edges, err = fx.edges.FindByOwner(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, edges, 1)
	assert.True(t, edges[0].UserConfirmed())
	assert.False(t, edges[0].IsPendingSuggestion())

	// confirming again is a no-op
	require.NoError(t, svc.ConfirmSuggestion(context.Background(), "user-1", edgeID, true))
}

func TestConfirmSuggestionRejectDeletes(t *testing.T) {
	fx := newTestFixture(t)
	nodes := seedNodes(t, fx, "a", "b")
	svc := newSuggestionService(fx, &stubAI{enabled: true})

	require.True(t, svc.CreateSuggestedEdge(context.Background(), "user-1",
		nodes["a"].ID().String(), nodes["b"].ID().String(), 0.8, nil))

	edges, err := fx.edges.FindByOwner(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, edges, 1)

	require.NoError(t, svc.ConfirmSuggestion(context.Background(), "user-1", edges[0].ID().String(), false))

	edges, err = fx.edges.FindByOwner(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Empty(t, edges)
}

func TestConfirmSuggestionMissingEdgeIsNoOp(t *testing.T) {
	fx := newTestFixture(t)
	svc := newSuggestionService(fx, &stubAI{enabled: true})

	assert.NoError(t, svc.ConfirmSuggestion(context.Background(), "user-1", "gone", true))
	assert.NoError(t, svc.ConfirmSuggestion(context.Background(), "user-1", "gone", false))
}

func TestUpdateConfig(t *testing.T) {
	fx := newTestFixture(t)
	nodes := seedNodes(t, fx, "source", "target")

	ai := &stubAI{
		enabled: true,
		judge: func(source, target ports.NodeDescriptor) (ports.RelationJudgement, error) {
			return ports.RelationJudgement{Related: true, Confidence: 0.6, RelationshipType: "relates_to"}, nil
		},
	}
	svc := newSuggestionService(fx, ai)

	suggestions, err := svc.GetSuggestionsForNode(context.Background(), "user-1", nodes["source"].ID().String(), 0)
	require.NoError(t, err)
	require.Len(t, suggestions, 1)

	svc.UpdateConfig(SuggestionConfig{
		MinConfidence:  0.7,
		HighConfidence: 0.9,
		CandidateLimit: 50,
		DefaultLimit:   5,
	})

	suggestions, err = svc.GetSuggestionsForNode(context.Background(), "user-1", nodes["source"].ID().String(), 0)
	require.NoError(t, err)
	assert.Empty(t, suggestions)
}

func TestGetSuggestionsRanksCandidatesBySimilarity(t *testing.T) {
	fx := newTestFixture(t)
	nodes := seedNodes(t, fx, "Machine Learning", "Machine Learning Basics", "Carpentry And Woodworking")

	var judged []string
	ai := &stubAI{
		enabled: true,
		judge: func(source, target ports.NodeDescriptor) (ports.RelationJudgement, error) {
			judged = append(judged, target.Label)
			return ports.RelationJudgement{
				Related:          true,
				Confidence:       0.9,
				RelationshipType: "similar_to",
				Explanation:      "overlapping topic",
			}, nil
		},
	}

	embeddings := domainservices.NewEmbeddingService(domainservices.DefaultEmbeddingConfig())
	config := DefaultSuggestionConfig()
	config.CandidateLimit = 1
	svc := NewSuggestionService(fx.graph, fx.edges, ai, embeddings, config, zap.NewNop(), nil)

	suggestions, err := svc.GetSuggestionsForNode(context.Background(), "user-1", nodes["Machine Learning"].ID().String(), 0)
	require.NoError(t, err)

	// with room for one candidate, the lexically closer label wins the slot
	require.Equal(t, []string{"Machine Learning Basics"}, judged)
	require.Len(t, suggestions, 1)
	assert.Equal(t, "Machine Learning Basics", suggestions[0].TargetLabel)
}
