// Package services contains the application services orchestrating the
// domain against the persistence and AI ports
package services

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"secondbrain-backend/application/ports"
	"secondbrain-backend/domain/core/aggregates"
	"secondbrain-backend/domain/core/entities"
	"secondbrain-backend/domain/core/valueobjects"
	"secondbrain-backend/infrastructure/observability"
	"secondbrain-backend/pkg/errors"
)

// GraphServiceConfig holds the snapshot store tunables
type GraphServiceConfig struct {
	CacheTTL time.Duration
}

// DefaultGraphServiceConfig returns production defaults
func DefaultGraphServiceConfig() GraphServiceConfig {
	return GraphServiceConfig{CacheTTL: 5 * time.Minute}
}

type snapshotEntry struct {
	graph     *aggregates.Graph
	fetchedAt time.Time
}

// GraphService owns the canonical graph: it caches per-owner snapshots with
// a TTL, funnels every mutation through the repositories and invalidates
// the owner's cache before a mutation returns
type GraphService struct {
	nodes   ports.NodeRepository
	edges   ports.EdgeRepository
	config  GraphServiceConfig
	logger  *zap.Logger
	metrics *observability.Metrics

	mu    sync.RWMutex
	cache map[string]snapshotEntry
	group singleflight.Group

	// injectable clock for TTL tests
	now func() time.Time
}

// NewGraphService creates the snapshot store
func NewGraphService(
	nodes ports.NodeRepository,
	edges ports.EdgeRepository,
	config GraphServiceConfig,
	logger *zap.Logger,
	metrics *observability.Metrics,
) *GraphService {
	if config.CacheTTL <= 0 {
		config.CacheTTL = DefaultGraphServiceConfig().CacheTTL
	}
	return &GraphService{
		nodes:   nodes,
		edges:   edges,
		config:  config,
		logger:  logger,
		metrics: metrics,
		cache:   make(map[string]snapshotEntry),
		now:     time.Now,
	}
}

// FetchSnapshot returns the owner's graph, served from cache while younger
// than the TTL. On a miss the full graph is re-read; concurrent misses for
// the same owner collapse into one rebuild. An owner with zero nodes gets a
// single synthetic root node so consumers always have something to render.
func (s *GraphService) FetchSnapshot(ctx context.Context, ownerID string) (*aggregates.Graph, error) {
	s.mu.RLock()
	entry, ok := s.cache[ownerID]
	s.mu.RUnlock()

	if ok && s.now().Sub(entry.fetchedAt) < s.config.CacheTTL {
		if s.metrics != nil {
			s.metrics.RecordCacheHit()
		}
		return entry.graph, nil
	}

	if s.metrics != nil {
		s.metrics.RecordCacheMiss()
	}

	result, err, _ := s.group.Do(ownerID, func() (interface{}, error) {
		return s.rebuild(ctx, ownerID)
	})
	if err != nil {
		return nil, err
	}
	return result.(*aggregates.Graph), nil
}

func (s *GraphService) rebuild(ctx context.Context, ownerID string) (*aggregates.Graph, error) {
	nodes, err := s.nodes.FindByOwner(ctx, ownerID)
	if err != nil {
		return nil, errors.Wrap(err, "load nodes")
	}

	edges, err := s.edges.FindByOwner(ctx, ownerID)
	if err != nil {
		return nil, errors.Wrap(err, "load edges")
	}

	graph := aggregates.NewGraph(ownerID)
	for _, node := range nodes {
		if err := graph.AddNode(node); err != nil {
			s.logger.Warn("Skipping duplicate node in snapshot",
				zap.String("owner_id", ownerID),
				zap.String("node_id", node.ID().String()),
			)
		}
	}
	for _, edge := range edges {
		if err := graph.AddEdge(edge); err != nil {
			s.logger.Warn("Skipping edge with missing endpoint",
				zap.String("owner_id", ownerID),
				zap.String("edge_id", edge.ID().String()),
			)
		}
	}

	if graph.IsEmpty() {
		root := entities.NewRootNode(ownerID)
		_ = graph.AddNode(root)
	}

	s.mu.Lock()
	s.cache[ownerID] = snapshotEntry{graph: graph, fetchedAt: s.now()}
	s.mu.Unlock()

	return graph, nil
}

// UpsertNode creates and persists a new node. Insertion does not
// deduplicate by (type, label); callers wanting dedup use FindOrCreateNode.
func (s *GraphService) UpsertNode(ctx context.Context, ownerID string, nodeType entities.NodeType, label string, properties map[string]interface{}) (*entities.Node, error) {
	node, err := entities.NewNode(ownerID, nodeType, label)
	if err != nil {
		return nil, err
	}
	for k, v := range properties {
		node.SetProperty(k, v)
	}

	if err := s.nodes.Save(ctx, node); err != nil {
		return nil, errors.Wrap(err, "persist node")
	}

	s.Invalidate(ownerID)
	return node, nil
}

// FindOrCreateNode returns the owner's existing (type, label) node or
// creates one carrying the given properties. Properties apply only on
// creation; an existing node is returned untouched. The bool reports
// whether a new node was created.
func (s *GraphService) FindOrCreateNode(ctx context.Context, ownerID string, nodeType entities.NodeType, label string, properties map[string]interface{}) (*entities.Node, bool, error) {
	existing, err := s.nodes.FindByTypeAndLabel(ctx, ownerID, nodeType, label)
	if err == nil {
		return existing, false, nil
	}
	if !errors.IsNotFound(err) {
		return nil, false, errors.Wrap(err, "look up node")
	}

	node, err := s.UpsertNode(ctx, ownerID, nodeType, label, properties)
	if err != nil {
		return nil, false, err
	}
	return node, true, nil
}

// UpsertEdgeParams describes a new edge
type UpsertEdgeParams struct {
	SourceID    string
	TargetID    string
	Type        entities.EdgeType
	Weight      float64
	AISuggested bool
	Confidence  float64
	Evidence    []string
}

// UpsertEdge creates and persists a new edge and invalidates the owner's
// snapshot before returning. AI-suggested edges go through the suggested
// edge constructor, which fixes the type to relates_to and seeds the weight
// from the confidence.
func (s *GraphService) UpsertEdge(ctx context.Context, ownerID string, params UpsertEdgeParams) (*entities.Edge, error) {
	sourceID, err := valueobjects.ParseNodeID(params.SourceID)
	if err != nil {
		return nil, errors.NewValidationError("invalid source node id")
	}
	targetID, err := valueobjects.ParseNodeID(params.TargetID)
	if err != nil {
		return nil, errors.NewValidationError("invalid target node id")
	}

	var edge *entities.Edge
	if params.AISuggested {
		edge, err = entities.NewSuggestedEdge(ownerID, sourceID, targetID, params.Confidence, params.Evidence)
	} else {
		edge, err = entities.NewEdge(ownerID, sourceID, targetID, params.Type, params.Weight)
	}
	if err != nil {
		return nil, err
	}

	if err := s.edges.Save(ctx, edge); err != nil {
		return nil, errors.Wrap(err, "persist edge")
	}

	s.Invalidate(ownerID)
	return edge, nil
}

// DeleteNode removes a node and cascades to every incident edge, so the
// graph never holds edges referencing a deleted node
func (s *GraphService) DeleteNode(ctx context.Context, ownerID string, nodeID string) error {
	id, err := valueobjects.ParseNodeID(nodeID)
	if err != nil {
		return errors.NewValidationError("invalid node id")
	}

	incident, err := s.edges.FindByNode(ctx, ownerID, id)
	if err != nil {
		return errors.Wrap(err, "load incident edges")
	}

	if len(incident) > 0 {
		edgeIDs := make([]valueobjects.EdgeID, 0, len(incident))
		for _, e := range incident {
			edgeIDs = append(edgeIDs, e.ID())
		}
		if err := s.edges.DeleteByIDs(ctx, ownerID, edgeIDs); err != nil {
			return errors.Wrap(err, "delete incident edges")
		}
	}

	if err := s.nodes.Delete(ctx, ownerID, id); err != nil {
		return errors.Wrap(err, "delete node")
	}

	s.Invalidate(ownerID)
	return nil
}

// DeleteEdge removes one edge and invalidates the owner's snapshot
func (s *GraphService) DeleteEdge(ctx context.Context, ownerID string, edgeID string) error {
	id, err := valueobjects.ParseEdgeID(edgeID)
	if err != nil {
		return errors.NewValidationError("invalid edge id")
	}

	if err := s.edges.Delete(ctx, ownerID, id); err != nil {
		return errors.Wrap(err, "delete edge")
	}

	s.Invalidate(ownerID)
	return nil
}

// Invalidate drops the owner's cached snapshot
func (s *GraphService) Invalidate(ownerID string) {
	s.mu.Lock()
	delete(s.cache, ownerID)
	s.mu.Unlock()
}

// ClearAllCache drops every cached snapshot
func (s *GraphService) ClearAllCache() {
	s.mu.Lock()
	s.cache = make(map[string]snapshotEntry)
	s.mu.Unlock()
}

// Stats computes summary statistics over the owner's current snapshot
func (s *GraphService) Stats(ctx context.Context, ownerID string) (aggregates.Stats, error) {
	snapshot, err := s.FetchSnapshot(ctx, ownerID)
	if err != nil {
		return aggregates.Stats{}, err
	}
	return snapshot.ComputeStats(), nil
}
