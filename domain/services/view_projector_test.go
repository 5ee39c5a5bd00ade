package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"secondbrain-backend/domain/core/aggregates"
	"secondbrain-backend/domain/core/entities"
	"secondbrain-backend/domain/core/valueobjects"
)

func fixedNode(t *testing.T, id string, nodeType entities.NodeType, label, content string) *entities.Node {
	t.Helper()
	nodeID, err := valueobjects.ParseNodeID(id)
	require.NoError(t, err)

	var properties map[string]interface{}
	if content != "" {
		properties = map[string]interface{}{"content": content}
	}
	now := time.Now()
	return entities.ReconstructNode(nodeID, "user-1", nodeType, label, properties, now, now)
}

func fixedEdge(t *testing.T, source, target string) *entities.Edge {
	t.Helper()
	sourceID, err := valueobjects.ParseNodeID(source)
	require.NoError(t, err)
	targetID, err := valueobjects.ParseNodeID(target)
	require.NoError(t, err)

	edge, err := entities.NewEdge("user-1", sourceID, targetID, entities.EdgeTypeRelatesTo, 0.8)
	require.NoError(t, err)
	return edge
}

// buildSnapshot assembles a small graph: a is connected to b and c, b to d
func buildSnapshot(t *testing.T) *aggregates.Graph {
	t.Helper()
	snapshot := aggregates.NewGraph("user-1")

	nodes := []*entities.Node{
		fixedNode(t, "a", entities.NodeTypeDocument, "Alpha Doc", ""),
		fixedNode(t, "b", entities.NodeTypeConcept, "Beta", ""),
		fixedNode(t, "c", entities.NodeTypePerson, "Carol", ""),
		fixedNode(t, "d", entities.NodeTypeConcept, "Delta", ""),
	}
	for _, n := range nodes {
		require.NoError(t, snapshot.AddNode(n))
	}
	for _, pair := range [][2]string{{"a", "b"}, {"a", "c"}, {"b", "d"}} {
		require.NoError(t, snapshot.AddEdge(fixedEdge(t, pair[0], pair[1])))
	}
	return snapshot
}

func TestProjectFocus(t *testing.T) {
	projector := NewViewProjector()
	snapshot := buildSnapshot(t)

	projected := projector.Project(snapshot, ViewState{FocusNodeID: "a"})

	assert.Equal(t, 3, projected.NodeCount())
	assert.True(t, projected.HasNode(mustID(t, "a")))
	assert.True(t, projected.HasNode(mustID(t, "b")))
	assert.True(t, projected.HasNode(mustID(t, "c")))
	assert.False(t, projected.HasNode(mustID(t, "d")))

	// b-d is dropped because d is outside the focus neighborhood
	assert.Equal(t, 2, projected.EdgeCount())
}

func TestProjectFocusUnknownNode(t *testing.T) {
	projector := NewViewProjector()
	snapshot := buildSnapshot(t)

	projected := projector.Project(snapshot, ViewState{FocusNodeID: "missing"})
	assert.True(t, projected.IsEmpty())
}

func TestProjectTypeFilter(t *testing.T) {
	projector := NewViewProjector()
	snapshot := buildSnapshot(t)

	projected := projector.Project(snapshot, ViewState{
		VisibleTypes: map[entities.NodeType]bool{
			entities.NodeTypeDocument: true,
			entities.NodeTypeConcept:  true,
		},
	})

	// Carol is a person and drops out, taking a-c with her
	assert.Equal(t, 3, projected.NodeCount())
	assert.False(t, projected.HasNode(mustID(t, "c")))
	assert.Equal(t, 2, projected.EdgeCount())
}

func TestProjectMinConnections(t *testing.T) {
	projector := NewViewProjector()
	snapshot := buildSnapshot(t)

	projected := projector.Project(snapshot, ViewState{MinConnections: 2})

	// only a and b carry two edges; edges to the dropped nodes are pruned
	assert.Equal(t, 2, projected.NodeCount())
	assert.True(t, projected.HasNode(mustID(t, "a")))
	assert.True(t, projected.HasNode(mustID(t, "b")))
	assert.Equal(t, 1, projected.EdgeCount())
}

func TestProjectNoFiltersKeepsEverything(t *testing.T) {
	projector := NewViewProjector()
	snapshot := buildSnapshot(t)

	projected := projector.Project(snapshot, ViewState{})
	assert.Equal(t, snapshot.NodeCount(), projected.NodeCount())
	assert.Equal(t, snapshot.EdgeCount(), projected.EdgeCount())
}

func mustID(t *testing.T, s string) valueobjects.NodeID {
	t.Helper()
	id, err := valueobjects.ParseNodeID(s)
	require.NoError(t, err)
	return id
}

func TestRankBySearch(t *testing.T) {
	projector := NewViewProjector()
	snapshot := aggregates.NewGraph("user-1")
	require.NoError(t, snapshot.AddNode(fixedNode(t, "n1", entities.NodeTypeConcept, "Machine Learning", "")))
	require.NoError(t, snapshot.AddNode(fixedNode(t, "n2", entities.NodeTypeConcept, "Learning Theory", "")))
	require.NoError(t, snapshot.AddNode(fixedNode(t, "n3", entities.NodeTypeConcept, "Woodworking", "")))

	ranked := projector.RankBySearch(snapshot, "machine learning")

	require.Len(t, ranked, 2)
	assert.Equal(t, "Machine Learning", ranked[0].Node.Label())
	assert.Equal(t, "Learning Theory", ranked[1].Node.Label())
	assert.Greater(t, ranked[0].Score, ranked[1].Score)
}

func TestRankBySearchEmptyQuery(t *testing.T) {
	projector := NewViewProjector()
	snapshot := buildSnapshot(t)

	assert.Nil(t, projector.RankBySearch(snapshot, "   "))
}

func TestRelevanceScore(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		title   string
		content string
		want    int
	}{
		{"title prefix with content", "go", "Go Programming", "learning go daily", 100},
		{"title prefix only", "machine", "Machine Learning", "", 90},
		{"title substring only", "learning", "Machine Learning", "", 60},
		{"content only", "graph", "Weekly Notes", "graph databases compared", 25},
		{"no match", "rust", "Go Programming", "nothing relevant", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RelevanceScore(tt.query, tt.title, tt.content))
		})
	}
}

func TestExtractHighlights(t *testing.T) {
	text := "Go is great. Rust is fast. Go is simple. Go compiles quickly."
	highlights := ExtractHighlights("go", text)

	require.Len(t, highlights, 2)
	assert.Equal(t, "Go is great...", highlights[0])
	assert.Equal(t, "Go is simple...", highlights[1])
}

func TestExtractHighlightsTruncates(t *testing.T) {
	long := "go this sentence about go keeps going and going and going and going and going and going and going and going"
	highlights := ExtractHighlights("go", long)

	require.Len(t, highlights, 1)
	// 100 characters of sentence plus the ellipsis
	assert.Len(t, highlights[0], 103)
}

func TestExtractHighlightsNoMatch(t *testing.T) {
	assert.Empty(t, ExtractHighlights("zebra", "Nothing here. Still nothing."))
}
