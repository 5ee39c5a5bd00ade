package supabase

import (
	"context"
	"time"

	"github.com/supabase-community/supabase-go"

	"secondbrain-backend/application/ports"
	"secondbrain-backend/domain/core/entities"
	"secondbrain-backend/infrastructure/observability"
	"secondbrain-backend/pkg/errors"
)

type documentRow struct {
	ID         string    `json:"id"`
	OwnerID    string    `json:"owner_id"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	SourceType string    `json:"source_type"`
	SourceURL  string    `json:"source_url"`
	Status     string    `json:"status"`
	FailedStep string    `json:"failed_step"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func documentToRow(doc *entities.Document) documentRow {
	return documentRow{
		ID:         doc.ID(),
		OwnerID:    doc.OwnerID(),
		Title:      doc.Title(),
		Content:    doc.Content(),
		SourceType: doc.SourceType(),
		SourceURL:  doc.SourceURL(),
		Status:     string(doc.Status()),
		FailedStep: doc.FailedStep(),
		CreatedAt:  doc.CreatedAt(),
		UpdatedAt:  doc.UpdatedAt(),
	}
}

func documentFromRow(row documentRow) *entities.Document {
	return entities.ReconstructDocument(
		row.ID, row.OwnerID, row.Title, row.Content, row.SourceType, row.SourceURL,
		entities.DocumentStatus(row.Status), row.FailedStep,
		row.CreatedAt, row.UpdatedAt,
	)
}

// DocumentRepository persists documents in the documents table
type DocumentRepository struct {
	client  *supabase.Client
	metrics *observability.Metrics
}

var _ ports.DocumentRepository = (*DocumentRepository)(nil)

// NewDocumentRepository creates the Supabase-backed document repository
func NewDocumentRepository(client *supabase.Client, metrics *observability.Metrics) *DocumentRepository {
	return &DocumentRepository{client: client, metrics: metrics}
}

// Save persists a new document
func (r *DocumentRepository) Save(ctx context.Context, doc *entities.Document) error {
	defer observe(r.metrics, "document_save", time.Now())

	_, _, err := r.client.From(documentsTable).
		Insert(documentToRow(doc), false, "", "", "").
		Execute()
	if err != nil {
		return errors.NewDatabaseError("insert document", err)
	}
	return nil
}

// Update rewrites a document's mutable fields
func (r *DocumentRepository) Update(ctx context.Context, doc *entities.Document) error {
	defer observe(r.metrics, "document_update", time.Now())

	_, _, err := r.client.From(documentsTable).
		Update(documentToRow(doc), "", "").
		Eq("owner_id", doc.OwnerID()).
		Eq("id", doc.ID()).
		Execute()
	if err != nil {
		return errors.NewDatabaseError("update document", err)
	}
	return nil
}

// FindByID retrieves one document
func (r *DocumentRepository) FindByID(ctx context.Context, ownerID, id string) (*entities.Document, error) {
	defer observe(r.metrics, "document_find_by_id", time.Now())

	var rows []documentRow
	_, err := r.client.From(documentsTable).
		Select("*", "", false).
		Eq("owner_id", ownerID).
		Eq("id", id).
		ExecuteTo(&rows)
	if err != nil {
		return nil, errors.NewDatabaseError("query document", err)
	}
	if len(rows) == 0 {
		return nil, errors.NewNotFoundError("document", id)
	}
	return documentFromRow(rows[0]), nil
}

// FindByOwner retrieves all of an owner's documents
func (r *DocumentRepository) FindByOwner(ctx context.Context, ownerID string) ([]*entities.Document, error) {
	defer observe(r.metrics, "document_find_by_owner", time.Now())

	var rows []documentRow
	_, err := r.client.From(documentsTable).
		Select("*", "", false).
		Eq("owner_id", ownerID).
		ExecuteTo(&rows)
	if err != nil {
		return nil, errors.NewDatabaseError("query documents", err)
	}

	docs := make([]*entities.Document, 0, len(rows))
	for _, row := range rows {
		docs = append(docs, documentFromRow(row))
	}
	return docs, nil
}

// Delete removes a document record
func (r *DocumentRepository) Delete(ctx context.Context, ownerID, id string) error {
	defer observe(r.metrics, "document_delete", time.Now())

	_, _, err := r.client.From(documentsTable).
		Delete("", "").
		Eq("owner_id", ownerID).
		Eq("id", id).
		Execute()
	if err != nil {
		return errors.NewDatabaseError("delete document", err)
	}
	return nil
}
