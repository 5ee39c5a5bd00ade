// Package aggregates contains the graph aggregate built from an owner's nodes and edges
package aggregates

import (
	"math"
	"sort"

	"secondbrain-backend/domain/core/entities"
	"secondbrain-backend/domain/core/valueobjects"
	"secondbrain-backend/pkg/errors"
)

// Graph is an immutable snapshot of one owner's knowledge graph.
// It is assembled once by the store and then only read, so concurrent
// readers need no locking.
type Graph struct {
	ownerID   string
	nodes     []*entities.Node
	edges     []*entities.Edge
	nodeIndex map[string]*entities.Node
	degrees   map[string]int
}

// NewGraph creates an empty snapshot for an owner
func NewGraph(ownerID string) *Graph {
	return &Graph{
		ownerID:   ownerID,
		nodeIndex: make(map[string]*entities.Node),
		degrees:   make(map[string]int),
	}
}

// OwnerID returns the owner this snapshot belongs to
func (g *Graph) OwnerID() string { return g.ownerID }

// AddNode appends a node to the snapshot. Duplicate identifiers are rejected.
func (g *Graph) AddNode(node *entities.Node) error {
	if node == nil {
		return errors.NewValidationError("node cannot be nil")
	}
	key := node.ID().String()
	if _, exists := g.nodeIndex[key]; exists {
		return errors.NewConflictError("node already present in graph: " + key)
	}
	g.nodes = append(g.nodes, node)
	g.nodeIndex[key] = node
	return nil
}

// AddEdge appends an edge to the snapshot. Both endpoints must already be
// present; edges referencing unknown nodes are rejected so a snapshot never
// contains danglers.
func (g *Graph) AddEdge(edge *entities.Edge) error {
	if edge == nil {
		return errors.NewValidationError("edge cannot be nil")
	}
	if _, ok := g.nodeIndex[edge.SourceID().String()]; !ok {
		return errors.NewNotFoundError("node", edge.SourceID().String())
	}
	if _, ok := g.nodeIndex[edge.TargetID().String()]; !ok {
		return errors.NewNotFoundError("node", edge.TargetID().String())
	}
	g.edges = append(g.edges, edge)
	g.degrees[edge.SourceID().String()]++
	g.degrees[edge.TargetID().String()]++
	return nil
}

// Nodes returns the snapshot's nodes in insertion order
func (g *Graph) Nodes() []*entities.Node { return g.nodes }

// Edges returns the snapshot's edges in insertion order
func (g *Graph) Edges() []*entities.Edge { return g.edges }

// NodeCount returns the number of nodes
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of edges
func (g *Graph) EdgeCount() int { return len(g.edges) }

// IsEmpty reports whether the snapshot has no nodes
func (g *Graph) IsEmpty() bool { return len(g.nodes) == 0 }

// NodeByID looks up a node in the snapshot
func (g *Graph) NodeByID(id valueobjects.NodeID) (*entities.Node, bool) {
	node, ok := g.nodeIndex[id.String()]
	return node, ok
}

// HasNode reports whether the snapshot contains the node
func (g *Graph) HasNode(id valueobjects.NodeID) bool {
	_, ok := g.nodeIndex[id.String()]
	return ok
}

// DegreeOf returns the number of edges incident to the node
func (g *Graph) DegreeOf(id valueobjects.NodeID) int {
	return g.degrees[id.String()]
}

// NeighborIDs returns the identifiers of nodes one hop from the given node
func (g *Graph) NeighborIDs(id valueobjects.NodeID) map[string]bool {
	neighbors := make(map[string]bool)
	for _, edge := range g.edges {
		if edge.SourceID().Equals(id) {
			neighbors[edge.TargetID().String()] = true
		} else if edge.TargetID().Equals(id) {
			neighbors[edge.SourceID().String()] = true
		}
	}
	return neighbors
}

// EdgesTouching returns every edge incident to the node
func (g *Graph) EdgesTouching(id valueobjects.NodeID) []*entities.Edge {
	var incident []*entities.Edge
	for _, edge := range g.edges {
		if edge.Touches(id) {
			incident = append(incident, edge)
		}
	}
	return incident
}

// NodeDegree pairs a node with its connection count for statistics
type NodeDegree struct {
	NodeID string `json:"node_id"`
	Label  string `json:"label"`
	Degree int    `json:"degree"`
}

// Stats holds summary statistics for a snapshot
type Stats struct {
	NodeCount          int          `json:"node_count"`
	EdgeCount          int          `json:"edge_count"`
	AverageConnections float64      `json:"average_connections"`
	Density            float64      `json:"density"`
	Clusters           int          `json:"clusters"`
	MostConnected      []NodeDegree `json:"most_connected"`
}

// ComputeStats derives summary statistics from the snapshot. Average
// connections is rounded to one decimal, density to three.
func (g *Graph) ComputeStats() Stats {
	nodeCount := len(g.nodes)
	edgeCount := len(g.edges)

	avg := 0.0
	if nodeCount > 0 {
		avg = float64(edgeCount) / float64(nodeCount)
	}

	density := 0.0
	maxEdges := float64(nodeCount*(nodeCount-1)) / 2
	if maxEdges > 0 {
		density = float64(edgeCount) / maxEdges
	}

	ranked := make([]NodeDegree, 0, nodeCount)
	for _, node := range g.nodes {
		ranked = append(ranked, NodeDegree{
			NodeID: node.ID().String(),
			Label:  node.Label(),
			Degree: g.degrees[node.ID().String()],
		})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Degree > ranked[j].Degree
	})
	if len(ranked) > 5 {
		ranked = ranked[:5]
	}

	return Stats{
		NodeCount:          nodeCount,
		EdgeCount:          edgeCount,
		AverageConnections: math.Round(avg*10) / 10,
		Density:            math.Round(density*1000) / 1000,
		Clusters:           1,
		MostConnected:      ranked,
	}
}
