package memory

import (
	"context"
	"sync"

	"secondbrain-backend/application/ports"
	"secondbrain-backend/domain/core/entities"
	"secondbrain-backend/domain/core/valueobjects"
	"secondbrain-backend/pkg/errors"
)

// EdgeRepository stores edges per owner in memory
type EdgeRepository struct {
	mu    sync.RWMutex
	edges map[string]map[string]*entities.Edge // ownerID -> edgeID -> edge
	order map[string][]string
}

var _ ports.EdgeRepository = (*EdgeRepository)(nil)

// NewEdgeRepository creates an empty in-memory edge store
func NewEdgeRepository() *EdgeRepository {
	return &EdgeRepository{
		edges: make(map[string]map[string]*entities.Edge),
		order: make(map[string][]string),
	}
}

// Save persists a new edge
func (r *EdgeRepository) Save(ctx context.Context, edge *entities.Edge) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	owner := edge.OwnerID()
	if r.edges[owner] == nil {
		r.edges[owner] = make(map[string]*entities.Edge)
	}
	id := edge.ID().String()
	if _, exists := r.edges[owner][id]; !exists {
		r.order[owner] = append(r.order[owner], id)
	}
	r.edges[owner][id] = edge
	return nil
}

// Update rewrites an existing edge
func (r *EdgeRepository) Update(ctx context.Context, edge *entities.Edge) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	owner := edge.OwnerID()
	id := edge.ID().String()
	if _, ok := r.edges[owner][id]; !ok {
		return errors.NewNotFoundError("edge", id)
	}
	r.edges[owner][id] = edge
	return nil
}

// FindByID retrieves one edge
func (r *EdgeRepository) FindByID(ctx context.Context, ownerID string, id valueobjects.EdgeID) (*entities.Edge, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	edge, ok := r.edges[ownerID][id.String()]
	if !ok {
		return nil, errors.NewNotFoundError("edge", id.String())
	}
	return edge, nil
}

// FindByOwner retrieves all of an owner's edges in insertion order
func (r *EdgeRepository) FindByOwner(ctx context.Context, ownerID string) ([]*entities.Edge, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*entities.Edge, 0, len(r.order[ownerID]))
	for _, id := range r.order[ownerID] {
		if edge, ok := r.edges[ownerID][id]; ok {
			result = append(result, edge)
		}
	}
	return result, nil
}

// FindByNode retrieves every edge incident to the node
func (r *EdgeRepository) FindByNode(ctx context.Context, ownerID string, nodeID valueobjects.NodeID) ([]*entities.Edge, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*entities.Edge
	for _, id := range r.order[ownerID] {
		edge, ok := r.edges[ownerID][id]
		if !ok {
			continue
		}
		if edge.Touches(nodeID) {
			result = append(result, edge)
		}
	}
	return result, nil
}

// Delete removes an edge
func (r *EdgeRepository) Delete(ctx context.Context, ownerID string, id valueobjects.EdgeID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := id.String()
	if _, ok := r.edges[ownerID][key]; !ok {
		return errors.NewNotFoundError("edge", key)
	}
	delete(r.edges[ownerID], key)
	r.order[ownerID] = removeID(r.order[ownerID], key)
	return nil
}

// DeleteByIDs removes every edge in the list, ignoring absentees
func (r *EdgeRepository) DeleteByIDs(ctx context.Context, ownerID string, ids []valueobjects.EdgeID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, id := range ids {
		key := id.String()
		if _, ok := r.edges[ownerID][key]; !ok {
			continue
		}
		delete(r.edges[ownerID], key)
		r.order[ownerID] = removeID(r.order[ownerID], key)
	}
	return nil
}
