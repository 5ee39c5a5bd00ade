package entities

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"secondbrain-backend/domain/core/valueobjects"
)

func TestNewNode(t *testing.T) {
	node, err := NewNode("user-1", NodeTypeConcept, "Machine Learning")
	require.NoError(t, err)

	assert.False(t, node.ID().IsEmpty())
	assert.Equal(t, "user-1", node.OwnerID())
	assert.Equal(t, NodeTypeConcept, node.Type())
	assert.Equal(t, "Machine Learning", node.Label())
	assert.NotNil(t, node.Properties())
	assert.False(t, node.CreatedAt().IsZero())
	assert.False(t, node.IsRoot())
}

func TestNewNodeValidation(t *testing.T) {
	tests := []struct {
		name     string
		ownerID  string
		nodeType NodeType
		label    string
	}{
		{"empty owner", "", NodeTypeConcept, "Label"},
		{"invalid type", "user-1", NodeType("bogus"), "Label"},
		{"empty label", "user-1", NodeTypeConcept, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewNode(tt.ownerID, tt.nodeType, tt.label)
			assert.Error(t, err)
		})
	}
}

func TestParseNodeType(t *testing.T) {
	for _, raw := range []string{"document", "concept", "person", "organization", "topic", "location", "central"} {
		parsed, err := ParseNodeType(raw)
		require.NoError(t, err)
		assert.Equal(t, NodeType(raw), parsed)
	}

	_, err := ParseNodeType("galaxy")
	assert.Error(t, err)
}

func TestNodeTypeDisplay(t *testing.T) {
	tests := []struct {
		nodeType NodeType
		color    string
		size     int
	}{
		{NodeTypeCentral, "#3e3832", 8},
		{NodeTypeDocument, "#2c6469", 5},
		{NodeTypeConcept, "#ebb137", 3},
		{NodeTypePerson, "#b20155", 4},
		{NodeTypeOrganization, "#3469a1", 4},
		{NodeTypeTopic, "#df6536", 3},
		{NodeTypeLocation, "#666", 3},
		{NodeType("unknown"), "#ccc", 2},
	}

	for _, tt := range tests {
		t.Run(string(tt.nodeType), func(t *testing.T) {
			assert.Equal(t, tt.color, tt.nodeType.DisplayColor())
			assert.Equal(t, tt.size, tt.nodeType.DisplaySize())
		})
	}
}

func TestNewRootNode(t *testing.T) {
	root := NewRootNode("user-1")

	assert.Equal(t, "genesis", root.ID().String())
	assert.Equal(t, "Knowledge Root", root.Label())
	assert.Equal(t, NodeTypeCentral, root.Type())
	assert.True(t, root.IsRoot())
}

func TestNodeRename(t *testing.T) {
	node, err := NewNode("user-1", NodeTypeTopic, "Old")
	require.NoError(t, err)

	require.NoError(t, node.Rename("New"))
	assert.Equal(t, "New", node.Label())

	assert.Error(t, node.Rename(""))
	assert.Equal(t, "New", node.Label())
}

func TestNodeProperties(t *testing.T) {
	node, err := NewNode("user-1", NodeTypeDocument, "Notes")
	require.NoError(t, err)

	node.SetProperty("content", "body text")
	node.SetProperty("source", "upload")

	value, ok := node.Property("source")
	require.True(t, ok)
	assert.Equal(t, "upload", value)

	_, ok = node.Property("missing")
	assert.False(t, ok)

	assert.Equal(t, "body text", node.ContentText())
}

func TestContentTextNonString(t *testing.T) {
	node, err := NewNode("user-1", NodeTypeDocument, "Notes")
	require.NoError(t, err)

	node.SetProperty("content", 42)
	assert.Equal(t, "", node.ContentText())
}

func TestReconstructNode(t *testing.T) {
	id, err := valueobjects.ParseNodeID("node-1")
	require.NoError(t, err)

	created := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	node := ReconstructNode(id, "user-1", NodeTypeConcept, "Graphs", nil, created, created)

	assert.Equal(t, "node-1", node.ID().String())
	assert.Equal(t, created, node.CreatedAt())
	assert.NotNil(t, node.Properties())
}
