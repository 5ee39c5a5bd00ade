package entities

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDocument(t *testing.T) {
	doc, err := NewDocument("user-1", "Meeting Notes", "body", "paste", "")
	require.NoError(t, err)

	assert.NotEmpty(t, doc.ID())
	assert.Equal(t, "user-1", doc.OwnerID())
	assert.Equal(t, "Meeting Notes", doc.Title())
	assert.Equal(t, "body", doc.Content())
	assert.Equal(t, "paste", doc.SourceType())
	assert.Equal(t, DocumentStatusPending, doc.Status())
	assert.Empty(t, doc.FailedStep())
}

func TestNewDocumentValidation(t *testing.T) {
	_, err := NewDocument("", "Title", "body", "paste", "")
	assert.Error(t, err)

	_, err = NewDocument("user-1", "", "body", "paste", "")
	assert.Error(t, err)
}

func TestDocumentStatusTransitions(t *testing.T) {
	doc, err := NewDocument("user-1", "Title", "body", "upload", "")
	require.NoError(t, err)

	doc.MarkProcessing()
	assert.Equal(t, DocumentStatusProcessing, doc.Status())

	doc.MarkFailed("extract_knowledge")
	assert.Equal(t, DocumentStatusFailed, doc.Status())
	assert.Equal(t, "extract_knowledge", doc.FailedStep())

	// a retry clears the recorded failure
	doc.MarkProcessing()
	assert.Empty(t, doc.FailedStep())

	doc.MarkCompleted()
	assert.Equal(t, DocumentStatusCompleted, doc.Status())
	assert.Empty(t, doc.FailedStep())
}
