package entities

import (
	"time"

	"github.com/google/uuid"

	"secondbrain-backend/pkg/errors"
)

// DocumentStatus tracks a document through the ingestion pipeline
type DocumentStatus string

const (
	DocumentStatusPending    DocumentStatus = "pending"
	DocumentStatusProcessing DocumentStatus = "processing"
	DocumentStatusCompleted  DocumentStatus = "completed"
	DocumentStatusFailed     DocumentStatus = "failed"
)

// Document is an ingested source text awaiting or finished with knowledge extraction
type Document struct {
	id         string
	ownerID    string
	title      string
	content    string
	sourceType string
	sourceURL  string
	status     DocumentStatus
	failedStep string
	createdAt  time.Time
	updatedAt  time.Time
}

// NewDocument creates a pending document for ingestion
func NewDocument(ownerID, title, content, sourceType, sourceURL string) (*Document, error) {
	if ownerID == "" {
		return nil, errors.NewValidationError("document owner cannot be empty")
	}
	if title == "" {
		return nil, errors.NewValidationError("document title cannot be empty")
	}

	now := time.Now()
	return &Document{
		id:         uuid.New().String(),
		ownerID:    ownerID,
		title:      title,
		content:    content,
		sourceType: sourceType,
		sourceURL:  sourceURL,
		status:     DocumentStatusPending,
		createdAt:  now,
		updatedAt:  now,
	}, nil
}

// ReconstructDocument rebuilds a document from persisted state
func ReconstructDocument(
	id, ownerID, title, content, sourceType, sourceURL string,
	status DocumentStatus,
	failedStep string,
	createdAt, updatedAt time.Time,
) *Document {
	return &Document{
		id:         id,
		ownerID:    ownerID,
		title:      title,
		content:    content,
		sourceType: sourceType,
		sourceURL:  sourceURL,
		status:     status,
		failedStep: failedStep,
		createdAt:  createdAt,
		updatedAt:  updatedAt,
	}
}

// ID returns the document identifier
func (d *Document) ID() string { return d.id }

// OwnerID returns the owning user
func (d *Document) OwnerID() string { return d.ownerID }

// Title returns the document title
func (d *Document) Title() string { return d.title }

// Content returns the document body
func (d *Document) Content() string { return d.content }

// SourceType returns where the document came from (notion, upload, paste)
func (d *Document) SourceType() string { return d.sourceType }

// SourceURL returns the origin URL if any
func (d *Document) SourceURL() string { return d.sourceURL }

// Status returns the ingestion status
func (d *Document) Status() DocumentStatus { return d.status }

// FailedStep names the pipeline step that failed, when status is failed
func (d *Document) FailedStep() string { return d.failedStep }

// CreatedAt returns the creation timestamp
func (d *Document) CreatedAt() time.Time { return d.createdAt }

// UpdatedAt returns the last modification timestamp
func (d *Document) UpdatedAt() time.Time { return d.updatedAt }

// MarkProcessing transitions the document into the processing state
func (d *Document) MarkProcessing() {
	d.status = DocumentStatusProcessing
	d.failedStep = ""
	d.updatedAt = time.Now()
}

// MarkCompleted transitions the document into the completed state
func (d *Document) MarkCompleted() {
	d.status = DocumentStatusCompleted
	d.failedStep = ""
	d.updatedAt = time.Now()
}

// MarkFailed records the pipeline step that failed
func (d *Document) MarkFailed(step string) {
	d.status = DocumentStatusFailed
	d.failedStep = step
	d.updatedAt = time.Now()
}
