// Package ports defines the interfaces the application layer depends on.
// Implementations live in infrastructure; the domain never sees them.
package ports

import (
	"context"

	"secondbrain-backend/domain/core/entities"
	"secondbrain-backend/domain/core/valueobjects"
)

// NodeRepository persists nodes scoped to an owner
type NodeRepository interface {
	// Save persists a new node
	Save(ctx context.Context, node *entities.Node) error

	// FindByID retrieves one node, or a not found error
	FindByID(ctx context.Context, ownerID string, id valueobjects.NodeID) (*entities.Node, error)

	// FindByIDs retrieves the nodes whose identifiers are in the list
	FindByIDs(ctx context.Context, ownerID string, ids []valueobjects.NodeID) ([]*entities.Node, error)

	// FindByOwner retrieves all of an owner's nodes
	FindByOwner(ctx context.Context, ownerID string) ([]*entities.Node, error)

	// FindByTypeAndLabel retrieves the first node matching (type, label),
	// or a not found error. Used for ingestion deduplication.
	FindByTypeAndLabel(ctx context.Context, ownerID string, nodeType entities.NodeType, label string) (*entities.Node, error)

	// Delete removes a node
	Delete(ctx context.Context, ownerID string, id valueobjects.NodeID) error
}

// EdgeRepository persists edges scoped to an owner
type EdgeRepository interface {
	// Save persists a new edge
	Save(ctx context.Context, edge *entities.Edge) error

	// Update rewrites an existing edge's mutable fields
	Update(ctx context.Context, edge *entities.Edge) error

	// FindByID retrieves one edge, or a not found error
	FindByID(ctx context.Context, ownerID string, id valueobjects.EdgeID) (*entities.Edge, error)

	// FindByOwner retrieves all of an owner's edges
	FindByOwner(ctx context.Context, ownerID string) ([]*entities.Edge, error)

	// FindByNode retrieves every edge incident to the node
	FindByNode(ctx context.Context, ownerID string, nodeID valueobjects.NodeID) ([]*entities.Edge, error)

	// Delete removes an edge
	Delete(ctx context.Context, ownerID string, id valueobjects.EdgeID) error

	// DeleteByIDs removes every edge in the identifier list
	DeleteByIDs(ctx context.Context, ownerID string, ids []valueobjects.EdgeID) error
}

// DocumentRepository persists ingested documents scoped to an owner
type DocumentRepository interface {
	// Save persists a new document
	Save(ctx context.Context, doc *entities.Document) error

	// Update rewrites a document's mutable fields (status, failed step)
	Update(ctx context.Context, doc *entities.Document) error

	// FindByID retrieves one document, or a not found error
	FindByID(ctx context.Context, ownerID, id string) (*entities.Document, error)

	// FindByOwner retrieves all of an owner's documents
	FindByOwner(ctx context.Context, ownerID string) ([]*entities.Document, error)

	// Delete removes a document record
	Delete(ctx context.Context, ownerID, id string) error
}
