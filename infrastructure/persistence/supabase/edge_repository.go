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

type edgeRow struct {
	ID              string    `json:"id"`
	OwnerID         string    `json:"owner_id"`
	SourceID        string    `json:"source_id"`
	TargetID        string    `json:"target_id"`
	Type            string    `json:"type"`
	Weight          float64   `json:"weight"`
	AISuggested     bool      `json:"ai_suggested"`
	UserConfirmed   bool      `json:"user_confirmed"`
	ConfidenceScore float64   `json:"confidence_score"`
	Evidence        []string  `json:"evidence"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func edgeToRow(edge *entities.Edge) edgeRow {
	return edgeRow{
		ID:              edge.ID().String(),
		OwnerID:         edge.OwnerID(),
		SourceID:        edge.SourceID().String(),
		TargetID:        edge.TargetID().String(),
		Type:            string(edge.Type()),
		Weight:          edge.Weight(),
		AISuggested:     edge.AISuggested(),
		UserConfirmed:   edge.UserConfirmed(),
		ConfidenceScore: edge.Confidence().Value(),
		Evidence:        edge.Evidence(),
		CreatedAt:       edge.CreatedAt(),
		UpdatedAt:       edge.UpdatedAt(),
	}
}

func edgeFromRow(row edgeRow) (*entities.Edge, error) {
	id, err := valueobjects.ParseEdgeID(row.ID)
	if err != nil {
		return nil, err
	}
	sourceID, err := valueobjects.ParseNodeID(row.SourceID)
	if err != nil {
		return nil, err
	}
	targetID, err := valueobjects.ParseNodeID(row.TargetID)
	if err != nil {
		return nil, err
	}
	edgeType, err := entities.ParseEdgeType(row.Type)
	if err != nil {
		return nil, err
	}
	return entities.ReconstructEdge(
		id, row.OwnerID, sourceID, targetID, edgeType, row.Weight,
		row.AISuggested, row.UserConfirmed, row.ConfidenceScore, row.Evidence,
		row.CreatedAt, row.UpdatedAt,
	), nil
}

// EdgeRepository persists edges in the edges table
type EdgeRepository struct {
	client  *supabase.Client
	metrics *observability.Metrics
}

var _ ports.EdgeRepository = (*EdgeRepository)(nil)

// NewEdgeRepository creates the Supabase-backed edge repository
func NewEdgeRepository(client *supabase.Client, metrics *observability.Metrics) *EdgeRepository {
	return &EdgeRepository{client: client, metrics: metrics}
}

// Save persists a new edge
func (r *EdgeRepository) Save(ctx context.Context, edge *entities.Edge) error {
	defer observe(r.metrics, "edge_save", time.Now())

	_, _, err := r.client.From(edgesTable).
		Insert(edgeToRow(edge), false, "", "", "").
		Execute()
	if err != nil {
		return errors.NewDatabaseError("insert edge", err)
	}
	return nil
}

// Update rewrites an existing edge
func (r *EdgeRepository) Update(ctx context.Context, edge *entities.Edge) error {
	defer observe(r.metrics, "edge_update", time.Now())

	_, _, err := r.client.From(edgesTable).
		Update(edgeToRow(edge), "", "").
		Eq("owner_id", edge.OwnerID()).
		Eq("id", edge.ID().String()).
		Execute()
	if err != nil {
		return errors.NewDatabaseError("update edge", err)
	}
	return nil
}

// FindByID retrieves one edge
func (r *EdgeRepository) FindByID(ctx context.Context, ownerID string, id valueobjects.EdgeID) (*entities.Edge, error) {
	defer observe(r.metrics, "edge_find_by_id", time.Now())

	var rows []edgeRow
	_, err := r.client.From(edgesTable).
		Select("*", "", false).
		Eq("owner_id", ownerID).
		Eq("id", id.String()).
		ExecuteTo(&rows)
	if err != nil {
		return nil, errors.NewDatabaseError("query edge", err)
	}
	if len(rows) == 0 {
		return nil, errors.NewNotFoundError("edge", id.String())
	}
	return edgeFromRow(rows[0])
}

// FindByOwner retrieves all of an owner's edges
func (r *EdgeRepository) FindByOwner(ctx context.Context, ownerID string) ([]*entities.Edge, error) {
	defer observe(r.metrics, "edge_find_by_owner", time.Now())

	var rows []edgeRow
	_, err := r.client.From(edgesTable).
		Select("*", "", false).
		Eq("owner_id", ownerID).
		ExecuteTo(&rows)
	if err != nil {
		return nil, errors.NewDatabaseError("query edges", err)
	}
	return edgesFromRows(rows)
}

// FindByNode retrieves every edge incident to the node. PostgREST or-filters
// across two columns are awkward through the builder, so the source and
// target sides are queried separately and merged.
func (r *EdgeRepository) FindByNode(ctx context.Context, ownerID string, nodeID valueobjects.NodeID) ([]*entities.Edge, error) {
	defer observe(r.metrics, "edge_find_by_node", time.Now())

	var asSource []edgeRow
	_, err := r.client.From(edgesTable).
		Select("*", "", false).
		Eq("owner_id", ownerID).
		Eq("source_id", nodeID.String()).
		ExecuteTo(&asSource)
	if err != nil {
		return nil, errors.NewDatabaseError("query edges", err)
	}

	var asTarget []edgeRow
	_, err = r.client.From(edgesTable).
		Select("*", "", false).
		Eq("owner_id", ownerID).
		Eq("target_id", nodeID.String()).
		ExecuteTo(&asTarget)
	if err != nil {
		return nil, errors.NewDatabaseError("query edges", err)
	}

	seen := make(map[string]bool, len(asSource))
	merged := make([]edgeRow, 0, len(asSource)+len(asTarget))
	for _, row := range asSource {
		seen[row.ID] = true
		merged = append(merged, row)
	}
	for _, row := range asTarget {
		if !seen[row.ID] {
			merged = append(merged, row)
		}
	}
	return edgesFromRows(merged)
}

// Delete removes an edge
func (r *EdgeRepository) Delete(ctx context.Context, ownerID string, id valueobjects.EdgeID) error {
	defer observe(r.metrics, "edge_delete", time.Now())

	_, _, err := r.client.From(edgesTable).
		Delete("", "").
		Eq("owner_id", ownerID).
		Eq("id", id.String()).
		Execute()
	if err != nil {
		return errors.NewDatabaseError("delete edge", err)
	}
	return nil
}

// DeleteByIDs removes every edge in the identifier list
func (r *EdgeRepository) DeleteByIDs(ctx context.Context, ownerID string, ids []valueobjects.EdgeID) error {
	defer observe(r.metrics, "edge_delete_by_ids", time.Now())

	if len(ids) == 0 {
		return nil
	}

	raw := make([]string, 0, len(ids))
	for _, id := range ids {
		raw = append(raw, id.String())
	}

	_, _, err := r.client.From(edgesTable).
		Delete("", "").
		Eq("owner_id", ownerID).
		In("id", raw).
		Execute()
	if err != nil {
		return errors.NewDatabaseError("delete edges", err)
	}
	return nil
}

func edgesFromRows(rows []edgeRow) ([]*entities.Edge, error) {
	edges := make([]*entities.Edge, 0, len(rows))
	for _, row := range rows {
		edge, err := edgeFromRow(row)
		if err != nil {
			return nil, err
		}
		edges = append(edges, edge)
	}
	return edges, nil
}
