// Package memory provides in-memory repository implementations backed by
// mutex-guarded maps. They serve local development and tests; production
// deployments use the supabase or dynamodb drivers.
package memory

import (
	"context"
	"sync"

	"secondbrain-backend/application/ports"
	"secondbrain-backend/domain/core/entities"
	"secondbrain-backend/domain/core/valueobjects"
	"secondbrain-backend/pkg/errors"
)

// NodeRepository stores nodes per owner in memory
type NodeRepository struct {
	mu    sync.RWMutex
	nodes map[string]map[string]*entities.Node // ownerID -> nodeID -> node
	order map[string][]string                  // ownerID -> insertion order
}

var _ ports.NodeRepository = (*NodeRepository)(nil)

// NewNodeRepository creates an empty in-memory node store
func NewNodeRepository() *NodeRepository {
	return &NodeRepository{
		nodes: make(map[string]map[string]*entities.Node),
		order: make(map[string][]string),
	}
}

// Save persists a new node
func (r *NodeRepository) Save(ctx context.Context, node *entities.Node) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	owner := node.OwnerID()
	if r.nodes[owner] == nil {
		r.nodes[owner] = make(map[string]*entities.Node)
	}
	id := node.ID().String()
	if _, exists := r.nodes[owner][id]; !exists {
		r.order[owner] = append(r.order[owner], id)
	}
	r.nodes[owner][id] = node
	return nil
}

// FindByID retrieves one node
func (r *NodeRepository) FindByID(ctx context.Context, ownerID string, id valueobjects.NodeID) (*entities.Node, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	node, ok := r.nodes[ownerID][id.String()]
	if !ok {
		return nil, errors.NewNotFoundError("node", id.String())
	}
	return node, nil
}

// FindByIDs retrieves the nodes in the identifier list, skipping absentees
func (r *NodeRepository) FindByIDs(ctx context.Context, ownerID string, ids []valueobjects.NodeID) ([]*entities.Node, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*entities.Node, 0, len(ids))
	for _, id := range ids {
		if node, ok := r.nodes[ownerID][id.String()]; ok {
			result = append(result, node)
		}
	}
	return result, nil
}

// FindByOwner retrieves all of an owner's nodes in insertion order
func (r *NodeRepository) FindByOwner(ctx context.Context, ownerID string) ([]*entities.Node, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*entities.Node, 0, len(r.order[ownerID]))
	for _, id := range r.order[ownerID] {
		if node, ok := r.nodes[ownerID][id]; ok {
			result = append(result, node)
		}
	}
	return result, nil
}

// FindByTypeAndLabel retrieves the first node matching (type, label)
func (r *NodeRepository) FindByTypeAndLabel(ctx context.Context, ownerID string, nodeType entities.NodeType, label string) (*entities.Node, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, id := range r.order[ownerID] {
		node, ok := r.nodes[ownerID][id]
		if !ok {
			continue
		}
		if node.Type() == nodeType && node.Label() == label {
			return node, nil
		}
	}
	return nil, errors.NewNotFoundError("node", label)
}

// Delete removes a node
func (r *NodeRepository) Delete(ctx context.Context, ownerID string, id valueobjects.NodeID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := id.String()
	if _, ok := r.nodes[ownerID][key]; !ok {
		return errors.NewNotFoundError("node", key)
	}
	delete(r.nodes[ownerID], key)
	r.order[ownerID] = removeID(r.order[ownerID], key)
	return nil
}

func removeID(ids []string, id string) []string {
	for i, candidate := range ids {
		if candidate == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}
