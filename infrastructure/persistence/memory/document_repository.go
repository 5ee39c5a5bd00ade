package memory

import (
	"context"
	"sync"

	"secondbrain-backend/application/ports"
	"secondbrain-backend/domain/core/entities"
	"secondbrain-backend/pkg/errors"
)

// DocumentRepository stores documents per owner in memory
type DocumentRepository struct {
	mu    sync.RWMutex
	docs  map[string]map[string]*entities.Document // ownerID -> docID -> document
	order map[string][]string
}

var _ ports.DocumentRepository = (*DocumentRepository)(nil)

// NewDocumentRepository creates an empty in-memory document store
func NewDocumentRepository() *DocumentRepository {
	return &DocumentRepository{
		docs:  make(map[string]map[string]*entities.Document),
		order: make(map[string][]string),
	}
}

// Save persists a new document
func (r *DocumentRepository) Save(ctx context.Context, doc *entities.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	owner := doc.OwnerID()
	if r.docs[owner] == nil {
		r.docs[owner] = make(map[string]*entities.Document)
	}
	if _, exists := r.docs[owner][doc.ID()]; !exists {
		r.order[owner] = append(r.order[owner], doc.ID())
	}
	r.docs[owner][doc.ID()] = doc
	return nil
}

// Update rewrites an existing document
func (r *DocumentRepository) Update(ctx context.Context, doc *entities.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	owner := doc.OwnerID()
	if _, ok := r.docs[owner][doc.ID()]; !ok {
		return errors.NewNotFoundError("document", doc.ID())
	}
	r.docs[owner][doc.ID()] = doc
	return nil
}

// FindByID retrieves one document
func (r *DocumentRepository) FindByID(ctx context.Context, ownerID, id string) (*entities.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	doc, ok := r.docs[ownerID][id]
	if !ok {
		return nil, errors.NewNotFoundError("document", id)
	}
	return doc, nil
}

// FindByOwner retrieves all of an owner's documents in insertion order
func (r *DocumentRepository) FindByOwner(ctx context.Context, ownerID string) ([]*entities.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*entities.Document, 0, len(r.order[ownerID]))
	for _, id := range r.order[ownerID] {
		if doc, ok := r.docs[ownerID][id]; ok {
			result = append(result, doc)
		}
	}
	return result, nil
}

// Delete removes a document record
func (r *DocumentRepository) Delete(ctx context.Context, ownerID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.docs[ownerID][id]; !ok {
		return errors.NewNotFoundError("document", id)
	}
	delete(r.docs[ownerID], id)
	r.order[ownerID] = removeID(r.order[ownerID], id)
	return nil
}
