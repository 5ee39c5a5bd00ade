package supabase

import (
	"context"
	"time"

	"github.com/supabase-community/supabase-go"

	"secondbrain-backend/application/ports"
	"secondbrain-backend/domain/core/entities"
	"secondbrain-backend/domain/core/valueobjects"
	"secondbrain-backend/infrastructure/observability"
	"secondbrain-backend/pkg/errors"
)

type nodeRow struct {
	ID         string                 `json:"id"`
	OwnerID    string                 `json:"owner_id"`
	Type       string                 `json:"type"`
	Label      string                 `json:"label"`
	Properties map[string]interface{} `json:"properties"`
	CreatedAt  time.Time              `json:"created_at"`
	UpdatedAt  time.Time              `json:"updated_at"`
}

func nodeToRow(node *entities.Node) nodeRow {
	return nodeRow{
		ID:         node.ID().String(),
		OwnerID:    node.OwnerID(),
		Type:       string(node.Type()),
		Label:      node.Label(),
		Properties: node.Properties(),
		CreatedAt:  node.CreatedAt(),
		UpdatedAt:  node.UpdatedAt(),
	}
}

func nodeFromRow(row nodeRow) (*entities.Node, error) {
	id, err := valueobjects.ParseNodeID(row.ID)
	if err != nil {
		return nil, err
	}
	nodeType, err := entities.ParseNodeType(row.Type)
	if err != nil {
		return nil, err
	}
	return entities.ReconstructNode(id, row.OwnerID, nodeType, row.Label, row.Properties, row.CreatedAt, row.UpdatedAt), nil
}

// NodeRepository persists nodes in the nodes table
type NodeRepository struct {
	client  *supabase.Client
	metrics *observability.Metrics
}

var _ ports.NodeRepository = (*NodeRepository)(nil)

// NewNodeRepository creates the Supabase-backed node repository
func NewNodeRepository(client *supabase.Client, metrics *observability.Metrics) *NodeRepository {
	return &NodeRepository{client: client, metrics: metrics}
}

// Save persists a new node
func (r *NodeRepository) Save(ctx context.Context, node *entities.Node) error {
	defer observe(r.metrics, "node_save", time.Now())

	_, _, err := r.client.From(nodesTable).
		Insert(nodeToRow(node), false, "", "", "").
		Execute()
	if err != nil {
		return errors.NewDatabaseError("insert node", err)
	}
	return nil
}

// FindByID retrieves one node
func (r *NodeRepository) FindByID(ctx context.Context, ownerID string, id valueobjects.NodeID) (*entities.Node, error) {
	defer observe(r.metrics, "node_find_by_id", time.Now())

	var rows []nodeRow
	_, err := r.client.From(nodesTable).
		Select("*", "", false).
		Eq("owner_id", ownerID).
		Eq("id", id.String()).
		ExecuteTo(&rows)
	if err != nil {
		return nil, errors.NewDatabaseError("query node", err)
	}
	if len(rows) == 0 {
		return nil, errors.NewNotFoundError("node", id.String())
	}
	return nodeFromRow(rows[0])
}

// FindByIDs retrieves the nodes in the identifier list
func (r *NodeRepository) FindByIDs(ctx context.Context, ownerID string, ids []valueobjects.NodeID) ([]*entities.Node, error) {
	defer observe(r.metrics, "node_find_by_ids", time.Now())

	if len(ids) == 0 {
		return []*entities.Node{}, nil
	}

	raw := make([]string, 0, len(ids))
	for _, id := range ids {
		raw = append(raw, id.String())
	}

	var rows []nodeRow
	_, err := r.client.From(nodesTable).
		Select("*", "", false).
		Eq("owner_id", ownerID).
		In("id", raw).
		ExecuteTo(&rows)
	if err != nil {
		return nil, errors.NewDatabaseError("query nodes", err)
	}
	return nodesFromRows(rows)
}

// FindByOwner retrieves all of an owner's nodes
func (r *NodeRepository) FindByOwner(ctx context.Context, ownerID string) ([]*entities.Node, error) {
	defer observe(r.metrics, "node_find_by_owner", time.Now())

	var rows []nodeRow
	_, err := r.client.From(nodesTable).
		Select("*", "", false).
		Eq("owner_id", ownerID).
		ExecuteTo(&rows)
	if err != nil {
		return nil, errors.NewDatabaseError("query nodes", err)
	}
	return nodesFromRows(rows)
}

// FindByTypeAndLabel retrieves the first node matching (type, label)
func (r *NodeRepository) FindByTypeAndLabel(ctx context.Context, ownerID string, nodeType entities.NodeType, label string) (*entities.Node, error) {
	defer observe(r.metrics, "node_find_by_type_label", time.Now())

	var rows []nodeRow
	_, err := r.client.From(nodesTable).
		Select("*", "", false).
		Eq("owner_id", ownerID).
		Eq("type", string(nodeType)).
		Eq("label", label).
		ExecuteTo(&rows)
	if err != nil {
		return nil, errors.NewDatabaseError("query node", err)
	}
	if len(rows) == 0 {
		return nil, errors.NewNotFoundError("node", label)
	}
	return nodeFromRow(rows[0])
}

// Delete removes a node
func (r *NodeRepository) Delete(ctx context.Context, ownerID string, id valueobjects.NodeID) error {
	defer observe(r.metrics, "node_delete", time.Now())

	_, _, err := r.client.From(nodesTable).
		Delete("", "").
		Eq("owner_id", ownerID).
		Eq("id", id.String()).
		Execute()
	if err != nil {
		return errors.NewDatabaseError("delete node", err)
	}
	return nil
}

func nodesFromRows(rows []nodeRow) ([]*entities.Node, error) {
	nodes := make([]*entities.Node, 0, len(rows))
	for _, row := range rows {
		node, err := nodeFromRow(row)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, node)
	}
	return nodes, nil
}
