package services

import (
	"strings"

	"secondbrain-backend/domain/core/aggregates"
	"secondbrain-backend/domain/core/entities"
	"secondbrain-backend/domain/core/valueobjects"
)

// ViewState describes what a consumer wants to see from a snapshot
type ViewState struct {
	VisibleTypes   map[entities.NodeType]bool
	FocusNodeID    string
	MinConnections int
	SearchQuery    string
}

// ScoredNode is a snapshot node paired with a search relevance score
type ScoredNode struct {
	Node  *entities.Node
	Score int
}

// ViewProjector derives filtered, focused and ranked views from a snapshot
// without ever mutating it. All methods are pure and safe to call
// concurrently.
type ViewProjector interface {
	// Project applies focus isolation or type/connectivity filtering
	Project(snapshot *aggregates.Graph, state ViewState) *aggregates.Graph

	// RankBySearch scores snapshot nodes lexically against a query, best first
	RankBySearch(snapshot *aggregates.Graph, query string) []ScoredNode
}

// DefaultViewProjector is the standard ViewProjector implementation
type DefaultViewProjector struct{}

// NewViewProjector creates a view projector
func NewViewProjector() *DefaultViewProjector {
	return &DefaultViewProjector{}
}

// Project applies the view state to a snapshot. With a focus node set, the
// result is the focus node plus its direct neighbors and the edges among
// them. Otherwise nodes are filtered by visible type, edges are kept only
// when both endpoints survive, and nodes falling below MinConnections
// surviving edges are dropped.
func (p *DefaultViewProjector) Project(snapshot *aggregates.Graph, state ViewState) *aggregates.Graph {
	if state.FocusNodeID != "" {
		return p.projectFocus(snapshot, state.FocusNodeID)
	}
	return p.projectFilter(snapshot, state)
}

func (p *DefaultViewProjector) projectFocus(snapshot *aggregates.Graph, focusID string) *aggregates.Graph {
	projected := aggregates.NewGraph(snapshot.OwnerID())

	id, err := valueobjects.ParseNodeID(focusID)
	if err != nil {
		return projected
	}
	focus, ok := snapshot.NodeByID(id)
	if !ok {
		return projected
	}

	keep := snapshot.NeighborIDs(id)
	keep[focusID] = true

	_ = projected.AddNode(focus)
	for _, node := range snapshot.Nodes() {
		if node.ID().String() != focusID && keep[node.ID().String()] {
			_ = projected.AddNode(node)
		}
	}
	for _, edge := range snapshot.Edges() {
		if keep[edge.SourceID().String()] && keep[edge.TargetID().String()] {
			_ = projected.AddEdge(edge)
		}
	}
	return projected
}

func (p *DefaultViewProjector) projectFilter(snapshot *aggregates.Graph, state ViewState) *aggregates.Graph {
	survivors := make(map[string]bool)
	var keptNodes []*entities.Node
	for _, node := range snapshot.Nodes() {
		if state.VisibleTypes != nil && !state.VisibleTypes[node.Type()] {
			continue
		}
		survivors[node.ID().String()] = true
		keptNodes = append(keptNodes, node)
	}

	var keptEdges []*entities.Edge
	edgeCounts := make(map[string]int)
	for _, edge := range snapshot.Edges() {
		if survivors[edge.SourceID().String()] && survivors[edge.TargetID().String()] {
			keptEdges = append(keptEdges, edge)
			edgeCounts[edge.SourceID().String()]++
			edgeCounts[edge.TargetID().String()]++
		}
	}

	if state.MinConnections > 0 {
		filtered := keptNodes[:0]
		for _, node := range keptNodes {
			if edgeCounts[node.ID().String()] >= state.MinConnections {
				filtered = append(filtered, node)
			} else {
				delete(survivors, node.ID().String())
			}
		}
		keptNodes = filtered

		prunedEdges := keptEdges[:0]
		for _, edge := range keptEdges {
			if survivors[edge.SourceID().String()] && survivors[edge.TargetID().String()] {
				prunedEdges = append(prunedEdges, edge)
			}
		}
		keptEdges = prunedEdges
	}

	projected := aggregates.NewGraph(snapshot.OwnerID())
	for _, node := range keptNodes {
		_ = projected.AddNode(node)
	}
	for _, edge := range keptEdges {
		_ = projected.AddEdge(edge)
	}
	return projected
}

// RankBySearch scores every snapshot node against the query using lexical
// relevance and returns matches in descending score order. Ties keep the
// snapshot's node order.
func (p *DefaultViewProjector) RankBySearch(snapshot *aggregates.Graph, query string) []ScoredNode {
	if strings.TrimSpace(query) == "" {
		return nil
	}

	var results []ScoredNode
	for _, node := range snapshot.Nodes() {
		score := RelevanceScore(query, node.Label(), node.ContentText())
		if score > 0 {
			results = append(results, ScoredNode{Node: node, Score: score})
		}
	}

	// insertion-stable sort by descending score
	for i := 1; i < len(results); i++ {
		for j := i; j > 0 && results[j].Score > results[j-1].Score; j-- {
			results[j], results[j-1] = results[j-1], results[j]
		}
	}
	return results
}

// RelevanceScore implements the lexical relevance scale: whole-query
// substring in the title scores highest, then title prefix, then content
// substring, then per-word partial matches, capped at 100.
func RelevanceScore(query, title, content string) int {
	q := strings.ToLower(query)
	t := strings.ToLower(title)
	c := strings.ToLower(content)

	score := 0
	if strings.Contains(t, q) {
		score += 50
	}
	if strings.HasPrefix(t, q) {
		score += 30
	}
	if c != "" && strings.Contains(c, q) {
		score += 20
	}

	for _, word := range strings.Split(q, " ") {
		if word == "" {
			continue
		}
		if strings.Contains(t, word) {
			score += 10
		}
		if c != "" && strings.Contains(c, word) {
			score += 5
		}
	}

	if score > 100 {
		score = 100
	}
	return score
}

// ExtractHighlights picks up to two sentences containing any query word,
// each truncated to 100 characters.
func ExtractHighlights(query, text string) []string {
	words := strings.Split(strings.ToLower(query), " ")
	sentences := strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == '!' || r == '?'
	})

	var highlights []string
	for _, sentence := range sentences {
		if len(highlights) == 2 {
			break
		}
		lower := strings.ToLower(sentence)
		for _, w := range words {
			if w != "" && strings.Contains(lower, w) {
				trimmed := strings.TrimSpace(sentence)
				if len(trimmed) > 100 {
					trimmed = trimmed[:100]
				}
				highlights = append(highlights, trimmed+"...")
				break
			}
		}
	}
	return highlights
}
