package rest

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"secondbrain-backend/application/services"
	domainservices "secondbrain-backend/domain/services"
	"secondbrain-backend/infrastructure/ai/gemini"
	"secondbrain-backend/infrastructure/config"
	"secondbrain-backend/infrastructure/observability"
	"secondbrain-backend/infrastructure/persistence/memory"
)

// newTestHandler assembles the full HTTP stack on in-memory repositories
// and a provider without credentials, the same shape the container builds.
func newTestHandler(t *testing.T) http.Handler {
	t.Helper()

	logger := zap.NewNop()
	metrics := observability.NewMetrics()

	nodes := memory.NewNodeRepository()
	edges := memory.NewEdgeRepository()
	documents := memory.NewDocumentRepository()

	ai := gemini.NewClient(gemini.Config{}, logger, metrics)
	projector := domainservices.NewViewProjector()

	graph := services.NewGraphService(nodes, edges, services.GraphServiceConfig{}, logger, metrics)
	embeddings := domainservices.NewEmbeddingService(domainservices.DefaultEmbeddingConfig())
	suggestions := services.NewSuggestionService(graph, edges, ai, embeddings, services.DefaultSuggestionConfig(), logger, metrics)
	ingestion := services.NewIngestionService(documents, graph, ai, logger, metrics)
	search := services.NewSearchService(graph, documents, projector, ai, logger)
	assistant := services.NewAssistantService(graph, ai, logger)

	cfg := &config.Config{
		Server: config.ServerConfig{
			Port:           8080,
			AllowedOrigins: []string{"*"},
		},
	}

	return NewRouter(cfg, graph, suggestions, ingestion, search, assistant, documents, projector, metrics, logger).Setup()
}

func doJSON(t *testing.T, handler http.Handler, method, path, owner string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if owner != "" {
		req.Header.Set("X-User-ID", owner)
	}

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, req)
	return recorder
}

func decodeBody(t *testing.T, recorder *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &decoded))
	return decoded
}

func createNode(t *testing.T, handler http.Handler, owner, nodeType, label string) string {
	t.Helper()
	recorder := doJSON(t, handler, http.MethodPost, "/api/v1/nodes", owner, map[string]interface{}{
		"type":  nodeType,
		"label": label,
	})
	require.Equal(t, http.StatusCreated, recorder.Code, recorder.Body.String())
	id, ok := decodeBody(t, recorder)["id"].(string)
	require.True(t, ok)
	return id
}

func TestHealthAndMetricsArePublic(t *testing.T) {
	handler := newTestHandler(t)

	health := doJSON(t, handler, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, health.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, health.Body.String())

	ready := doJSON(t, handler, http.MethodGet, "/ready", "", nil)
	assert.Equal(t, http.StatusOK, ready.Code)

	metrics := doJSON(t, handler, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, metrics.Code)
}

func TestAPIRequiresUserHeader(t *testing.T) {
	handler := newTestHandler(t)

	recorder := doJSON(t, handler, http.MethodGet, "/api/v1/graph", "", nil)
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)

	body := decodeBody(t, recorder)
	assert.Equal(t, true, body["error"])
}

func TestCreateNodeAndFetchGraph(t *testing.T) {
	handler := newTestHandler(t)

	recorder := doJSON(t, handler, http.MethodPost, "/api/v1/nodes", "user-1", map[string]interface{}{
		"type":  "concept",
		"label": "Distributed Systems",
	})
	require.Equal(t, http.StatusCreated, recorder.Code, recorder.Body.String())

	created := decodeBody(t, recorder)
	assert.NotEmpty(t, created["id"])
	assert.Equal(t, "Distributed Systems", created["label"])
	assert.Equal(t, "concept", created["type"])
	assert.Equal(t, "#ebb137", created["color"])

	graph := doJSON(t, handler, http.MethodGet, "/api/v1/graph", "user-1", nil)
	require.Equal(t, http.StatusOK, graph.Code)

	body := decodeBody(t, graph)
	nodes := body["nodes"].([]interface{})
	require.Len(t, nodes, 1)
	assert.Equal(t, "Distributed Systems", nodes[0].(map[string]interface{})["label"])
}

func TestEmptyGraphContainsSyntheticRoot(t *testing.T) {
	handler := newTestHandler(t)

	recorder := doJSON(t, handler, http.MethodGet, "/api/v1/graph", "user-1", nil)
	require.Equal(t, http.StatusOK, recorder.Code)

	body := decodeBody(t, recorder)
	nodes := body["nodes"].([]interface{})
	require.Len(t, nodes, 1)
	root := nodes[0].(map[string]interface{})
	assert.Equal(t, "genesis", root["id"])
	assert.Equal(t, "Knowledge Root", root["label"])
	assert.Equal(t, "central", root["type"])
}

func TestCreateNodeValidation(t *testing.T) {
	handler := newTestHandler(t)

	missingLabel := doJSON(t, handler, http.MethodPost, "/api/v1/nodes", "user-1", map[string]interface{}{
		"type": "concept",
	})
	assert.Equal(t, http.StatusBadRequest, missingLabel.Code)

	badType := doJSON(t, handler, http.MethodPost, "/api/v1/nodes", "user-1", map[string]interface{}{
		"type":  "galaxy",
		"label": "Nope",
	})
	assert.Equal(t, http.StatusBadRequest, badType.Code)
}

func TestEdgeLifecycle(t *testing.T) {
	handler := newTestHandler(t)

	source := createNode(t, handler, "user-1", "concept", "Raft")
	target := createNode(t, handler, "user-1", "concept", "Paxos")

	created := doJSON(t, handler, http.MethodPost, "/api/v1/edges", "user-1", map[string]interface{}{
		"source_id": source,
		"target_id": target,
		"type":      "relates_to",
		"weight":    0.8,
	})
	require.Equal(t, http.StatusCreated, created.Code, created.Body.String())
	edgeID := decodeBody(t, created)["id"].(string)

	graph := doJSON(t, handler, http.MethodGet, "/api/v1/graph", "user-1", nil)
	body := decodeBody(t, graph)
	require.Len(t, body["edges"].([]interface{}), 1)

	deleted := doJSON(t, handler, http.MethodDelete, "/api/v1/edges/"+edgeID, "user-1", nil)
	assert.Equal(t, http.StatusOK, deleted.Code)

	graph = doJSON(t, handler, http.MethodGet, "/api/v1/graph", "user-1", nil)
	assert.Empty(t, decodeBody(t, graph)["edges"])
}

func TestDeleteNodeCascades(t *testing.T) {
	handler := newTestHandler(t)

	source := createNode(t, handler, "user-1", "concept", "Raft")
	target := createNode(t, handler, "user-1", "concept", "Paxos")

	created := doJSON(t, handler, http.MethodPost, "/api/v1/edges", "user-1", map[string]interface{}{
		"source_id": source,
		"target_id": target,
		"type":      "relates_to",
		"weight":    0.5,
	})
	require.Equal(t, http.StatusCreated, created.Code)

	deleted := doJSON(t, handler, http.MethodDelete, "/api/v1/nodes/"+source, "user-1", nil)
	require.Equal(t, http.StatusOK, deleted.Code)

	graph := doJSON(t, handler, http.MethodGet, "/api/v1/graph", "user-1", nil)
	body := decodeBody(t, graph)
	assert.Len(t, body["nodes"].([]interface{}), 1)
	assert.Empty(t, body["edges"])
}

func TestGetNode(t *testing.T) {
	handler := newTestHandler(t)

	id := createNode(t, handler, "user-1", "person", "Ada Lovelace")

	found := doJSON(t, handler, http.MethodGet, "/api/v1/nodes/"+id, "user-1", nil)
	require.Equal(t, http.StatusOK, found.Code)
	assert.Equal(t, "Ada Lovelace", decodeBody(t, found)["label"])

	// another user cannot see it
	missing := doJSON(t, handler, http.MethodGet, "/api/v1/nodes/"+id, "user-2", nil)
	assert.Equal(t, http.StatusNotFound, missing.Code)
}

func TestGraphStats(t *testing.T) {
	handler := newTestHandler(t)

	a := createNode(t, handler, "user-1", "concept", "A")
	b := createNode(t, handler, "user-1", "concept", "B")
	doJSON(t, handler, http.MethodPost, "/api/v1/edges", "user-1", map[string]interface{}{
		"source_id": a,
		"target_id": b,
		"type":      "relates_to",
		"weight":    0.5,
	})

	recorder := doJSON(t, handler, http.MethodGet, "/api/v1/graph/stats", "user-1", nil)
	require.Equal(t, http.StatusOK, recorder.Code)

	stats := decodeBody(t, recorder)
	assert.Equal(t, float64(2), stats["node_count"])
	assert.Equal(t, float64(1), stats["edge_count"])
}

func TestSearchEndpoint(t *testing.T) {
	handler := newTestHandler(t)

	createNode(t, handler, "user-1", "concept", "Machine Learning")

	recorder := doJSON(t, handler, http.MethodGet, "/api/v1/search?q=machine", "user-1", nil)
	require.Equal(t, http.StatusOK, recorder.Code)

	body := decodeBody(t, recorder)
	results := body["results"].([]interface{})
	require.Len(t, results, 1)
	assert.Equal(t, "Machine Learning", results[0].(map[string]interface{})["title"])
}

func TestExportExcludesSyntheticRoot(t *testing.T) {
	handler := newTestHandler(t)

	// an empty graph exports as empty collections, not the synthetic root
	empty := doJSON(t, handler, http.MethodGet, "/api/v1/graph/export", "user-1", nil)
	require.Equal(t, http.StatusOK, empty.Code)
	body := decodeBody(t, empty)
	assert.Empty(t, body["nodes"])
	assert.Empty(t, body["edges"])
	assert.Empty(t, body["documents"])

	a := createNode(t, handler, "user-1", "concept", "Raft")
	b := createNode(t, handler, "user-1", "concept", "Paxos")
	doJSON(t, handler, http.MethodPost, "/api/v1/edges", "user-1", map[string]interface{}{
		"source_id": a,
		"target_id": b,
		"type":      "similar_to",
		"weight":    0.9,
	})

	recorder := doJSON(t, handler, http.MethodGet, "/api/v1/graph/export", "user-1", nil)
	require.Equal(t, http.StatusOK, recorder.Code)

	body = decodeBody(t, recorder)
	assert.Len(t, body["nodes"].([]interface{}), 2)
	assert.Len(t, body["edges"].([]interface{}), 1)
}

func TestDeleteUnknownDocument(t *testing.T) {
	handler := newTestHandler(t)

	recorder := doJSON(t, handler, http.MethodDelete, "/api/v1/documents/missing", "user-1", nil)
	assert.Equal(t, http.StatusNotFound, recorder.Code)
}

func TestAskWithoutProviderCredentials(t *testing.T) {
	handler := newTestHandler(t)

	recorder := doJSON(t, handler, http.MethodPost, "/api/v1/ask", "user-1", map[string]interface{}{
		"question": "what do I know about raft?",
	})
	assert.Equal(t, http.StatusServiceUnavailable, recorder.Code)
}

func TestSuggestionsWithoutProviderCredentials(t *testing.T) {
	handler := newTestHandler(t)

	id := createNode(t, handler, "user-1", "concept", "Raft")

	recorder := doJSON(t, handler, http.MethodGet, "/api/v1/nodes/"+id+"/suggestions", "user-1", nil)
	require.Equal(t, http.StatusOK, recorder.Code)

	body := decodeBody(t, recorder)
	assert.Empty(t, body["suggestions"])
}
