package gemini

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"secondbrain-backend/application/ports"
	"secondbrain-backend/pkg/errors"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewClient(Config{
		APIKeys:         []string{"test-key"},
		BaseURL:         server.URL,
		Model:           "test-model",
		MinRequestDelay: time.Millisecond,
		RequestTimeout:  5 * time.Second,
		MaxOutputTokens: 2048,
		Temperature:     0.7,
		TopK:            40,
		TopP:            0.95,
	}, zap.NewNop(), nil)
}

// respondText writes the provider response envelope around one candidate text
func respondText(t *testing.T, w http.ResponseWriter, text string) {
	t.Helper()
	response := map[string]interface{}{
		"candidates": []map[string]interface{}{
			{"content": map[string]interface{}{
				"parts": []map[string]string{{"text": text}},
			}},
		},
	}
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(response))
}

func TestAnswerQuestion(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/models/test-model:generateContent", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))

		var payload generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		require.Len(t, payload.Contents, 1)
		assert.Contains(t, payload.Contents[0].Parts[0].Text, "what is a monad?")
		assert.Equal(t, 0.7, payload.GenerationConfig.Temperature)
		assert.Equal(t, 40, payload.GenerationConfig.TopK)
		assert.Equal(t, 0.95, payload.GenerationConfig.TopP)
		assert.Equal(t, 2048, payload.GenerationConfig.MaxOutputTokens)

		respondText(t, w, "a monad is a monoid in the category of endofunctors")
	})

	answer, err := client.AnswerQuestion(context.Background(), "what is a monad?", "some context")
	require.NoError(t, err)
	assert.Equal(t, "a monad is a monoid in the category of endofunctors", answer)
}

func TestRateLimitedResponse(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := client.AnswerQuestion(context.Background(), "q", "")
	assert.True(t, errors.IsRateLimit(err))
}

func TestServerErrorResponse(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := client.AnswerQuestion(context.Background(), "q", "")
	assert.True(t, errors.IsExternal(err))
}

func TestEmptyCandidates(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates":[]}`))
	})

	answer, err := client.AnswerQuestion(context.Background(), "q", "")
	require.NoError(t, err)
	assert.Equal(t, "", answer)
}

func TestInvalidJSONResponse(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json at all`))
	})

	_, err := client.AnswerQuestion(context.Background(), "q", "")
	assert.True(t, errors.IsMalformedResponse(err))
}

func TestExtractConceptsStripsCodeFences(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		respondText(t, w, "```json\n[\"Go\", \"Concurrency\"]\n```")
	})

	concepts, err := client.ExtractConcepts(context.Background(), "some text about go")
	require.NoError(t, err)
	assert.Equal(t, []string{"Go", "Concurrency"}, concepts)
}

func TestExtractConceptsDegradesOnGarbage(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		respondText(t, w, "I could not find any concepts, sorry!")
	})

	concepts, err := client.ExtractConcepts(context.Background(), "text")
	require.NoError(t, err)
	assert.Empty(t, concepts)
}

func TestExtractStructuredKnowledge(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		respondText(t, w, `{"concepts": ["Raft", "Consensus"], "summary": "notes on raft"}`)
	})

	knowledge, err := client.ExtractStructuredKnowledge(context.Background(), "raft text")
	require.NoError(t, err)
	assert.Equal(t, []string{"Raft", "Consensus"}, knowledge.Concepts)
	assert.Equal(t, "notes on raft", knowledge.Summary)
}

func TestExtractStructuredKnowledgeDegradesOnGarbage(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		respondText(t, w, "no json here")
	})

	knowledge, err := client.ExtractStructuredKnowledge(context.Background(), "text")
	require.NoError(t, err)
	assert.NotNil(t, knowledge.Concepts)
	assert.Empty(t, knowledge.Concepts)
	assert.Empty(t, knowledge.Summary)
}

func TestJudgeRelation(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		respondText(t, w, "```json\n{\"related\": true, \"confidence\": 0.82, \"relationship_type\": \"similar_to\", \"explanation\": \"both cover consensus\"}\n```")
	})

	judgement, err := client.JudgeRelation(context.Background(),
		ports.NodeDescriptor{ID: "a", Label: "Raft", Type: "concept"},
		ports.NodeDescriptor{ID: "b", Label: "Paxos", Type: "concept"},
	)
	require.NoError(t, err)
	assert.True(t, judgement.Related)
	assert.Equal(t, 0.82, judgement.Confidence)
	assert.Equal(t, "similar_to", judgement.RelationshipType)
	assert.Equal(t, "both cover consensus", judgement.Explanation)
}

func TestJudgeRelationMalformedResponse(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		respondText(t, w, "these two are definitely related")
	})

	_, err := client.JudgeRelation(context.Background(),
		ports.NodeDescriptor{ID: "a", Label: "A"},
		ports.NodeDescriptor{ID: "b", Label: "B"},
	)
	assert.True(t, errors.IsMalformedResponse(err))
}

func TestRerankSearchResults(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		respondText(t, w, "doc-2, doc-1 ,doc-3")
	})

	ids, err := client.RerankSearchResults(context.Background(), "query", []ports.RankedItem{
		{ID: "doc-1", Title: "One"},
		{ID: "doc-2", Title: "Two"},
		{ID: "doc-3", Title: "Three"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"doc-2", "doc-1", "doc-3"}, ids)
}

func TestRerankSearchResultsEmptyResponse(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		respondText(t, w, "   ")
	})

	_, err := client.RerankSearchResults(context.Background(), "query", []ports.RankedItem{{ID: "doc-1"}})
	assert.True(t, errors.IsMalformedResponse(err))
}

func TestClientWithoutCredentials(t *testing.T) {
	client := NewClient(Config{}, zap.NewNop(), nil)

	assert.False(t, client.Enabled())

	_, err := client.AnswerQuestion(context.Background(), "q", "")
	assert.True(t, errors.IsNotConfigured(err))
}

func TestSummarizeDefaultsMaxWords(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var payload generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Contains(t, payload.Contents[0].Parts[0].Text, "approximately 200 words")
		respondText(t, w, "short")
	})

	summary, err := client.Summarize(context.Background(), "long text", 0)
	require.NoError(t, err)
	assert.Equal(t, "short", summary)
}

func TestStripCodeFences(t *testing.T) {
	assert.Equal(t, `{"a":1}`, stripCodeFences("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripCodeFences("```\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripCodeFences(`{"a":1}`))
}
