package entities

import (
	"time"

	"secondbrain-backend/domain/core/valueobjects"
	"secondbrain-backend/pkg/errors"
)

// EdgeType classifies a relation between two nodes
type EdgeType string

const (
	EdgeTypeRelatesTo   EdgeType = "relates_to"
	EdgeTypeBuildsOn    EdgeType = "builds_on"
	EdgeTypeContradicts EdgeType = "contradicts"
	EdgeTypeSupports    EdgeType = "supports"
	EdgeTypeDerivesFrom EdgeType = "derives_from"
)

// ParseEdgeType validates a raw string against the closed set of edge types
func ParseEdgeType(s string) (EdgeType, error) {
	t := EdgeType(s)
	if !t.IsValid() {
		return "", errors.NewValidationError("unknown edge type: " + s)
	}
	return t, nil
}

// IsValid reports whether the type belongs to the closed set
func (t EdgeType) IsValid() bool {
	switch t {
	case EdgeTypeRelatesTo, EdgeTypeBuildsOn, EdgeTypeContradicts,
		EdgeTypeSupports, EdgeTypeDerivesFrom:
		return true
	}
	return false
}

// Edge is a weighted, typed relation between two nodes of the same owner
type Edge struct {
	id            valueobjects.EdgeID
	ownerID       string
	sourceID      valueobjects.NodeID
	targetID      valueobjects.NodeID
	edgeType      EdgeType
	weight        float64
	aiSuggested   bool
	userConfirmed bool
	confidence    valueobjects.Confidence
	evidence      []string
	createdAt     time.Time
	updatedAt     time.Time
}

// NewEdge creates a validated user-authored edge
func NewEdge(ownerID string, sourceID, targetID valueobjects.NodeID, edgeType EdgeType, weight float64) (*Edge, error) {
	if ownerID == "" {
		return nil, errors.NewValidationError("edge owner cannot be empty")
	}
	if sourceID.IsEmpty() || targetID.IsEmpty() {
		return nil, errors.NewValidationError("edge endpoints cannot be empty")
	}
	if sourceID.Equals(targetID) {
		return nil, errors.NewValidationError("edge cannot connect a node to itself")
	}
	if !edgeType.IsValid() {
		return nil, errors.NewValidationError("unknown edge type: " + string(edgeType))
	}
	if weight < 0 || weight > 1 {
		return nil, errors.NewValidationError("edge weight must be within [0, 1]")
	}

	now := time.Now()
	return &Edge{
		id:        valueobjects.NewEdgeID(),
		ownerID:   ownerID,
		sourceID:  sourceID,
		targetID:  targetID,
		edgeType:  edgeType,
		weight:    weight,
		createdAt: now,
		updatedAt: now,
	}, nil
}

// NewSuggestedEdge creates an AI-proposed relates_to edge awaiting user review.
// The confidence score doubles as the edge weight and is clamped into [0, 1].
func NewSuggestedEdge(ownerID string, sourceID, targetID valueobjects.NodeID, confidence float64, evidence []string) (*Edge, error) {
	conf := valueobjects.NewConfidence(confidence)
	edge, err := NewEdge(ownerID, sourceID, targetID, EdgeTypeRelatesTo, conf.Value())
	if err != nil {
		return nil, err
	}
	edge.MarkAISuggested(confidence, evidence)
	return edge, nil
}

// MarkAISuggested flags the edge as provider-proposed and pending review
func (e *Edge) MarkAISuggested(confidence float64, evidence []string) {
	e.aiSuggested = true
	e.userConfirmed = false
	e.confidence = valueobjects.NewConfidence(confidence)
	e.evidence = evidence
	e.updatedAt = time.Now()
}

// ReconstructEdge rebuilds an edge from persisted state
func ReconstructEdge(
	id valueobjects.EdgeID,
	ownerID string,
	sourceID, targetID valueobjects.NodeID,
	edgeType EdgeType,
	weight float64,
	aiSuggested, userConfirmed bool,
	confidence float64,
	evidence []string,
	createdAt, updatedAt time.Time,
) *Edge {
	return &Edge{
		id:            id,
		ownerID:       ownerID,
		sourceID:      sourceID,
		targetID:      targetID,
		edgeType:      edgeType,
		weight:        weight,
		aiSuggested:   aiSuggested,
		userConfirmed: userConfirmed,
		confidence:    valueobjects.NewConfidence(confidence),
		evidence:      evidence,
		createdAt:     createdAt,
		updatedAt:     updatedAt,
	}
}

// ID returns the edge identifier
func (e *Edge) ID() valueobjects.EdgeID { return e.id }

// OwnerID returns the owning user
func (e *Edge) OwnerID() string { return e.ownerID }

// SourceID returns the source node identifier
func (e *Edge) SourceID() valueobjects.NodeID { return e.sourceID }

// TargetID returns the target node identifier
func (e *Edge) TargetID() valueobjects.NodeID { return e.targetID }

// Type returns the edge type
func (e *Edge) Type() EdgeType { return e.edgeType }

// Weight returns the relation strength in [0, 1]
func (e *Edge) Weight() float64 { return e.weight }

// AISuggested reports whether the edge originated from a suggestion
func (e *Edge) AISuggested() bool { return e.aiSuggested }

// UserConfirmed reports whether the user accepted the suggestion
func (e *Edge) UserConfirmed() bool { return e.userConfirmed }

// Confidence returns the suggestion confidence score
func (e *Edge) Confidence() valueobjects.Confidence { return e.confidence }

// Evidence returns the provider's stated justifications for the relation
func (e *Edge) Evidence() []string { return e.evidence }

// CreatedAt returns the creation timestamp
func (e *Edge) CreatedAt() time.Time { return e.createdAt }

// UpdatedAt returns the last modification timestamp
func (e *Edge) UpdatedAt() time.Time { return e.updatedAt }

// IsPendingSuggestion reports whether the edge still awaits user review
func (e *Edge) IsPendingSuggestion() bool { return e.aiSuggested && !e.userConfirmed }

// Confirm marks an AI-suggested edge as accepted by the user. Confirming an
// already confirmed edge is a no-op.
func (e *Edge) Confirm() {
	if e.userConfirmed {
		return
	}
	e.userConfirmed = true
	e.updatedAt = time.Now()
}

// Touches reports whether the edge is incident to the given node
func (e *Edge) Touches(nodeID valueobjects.NodeID) bool {
	return e.sourceID.Equals(nodeID) || e.targetID.Equals(nodeID)
}
