// Package valueobjects contains immutable value types for the knowledge graph domain
package valueobjects

import (
	"fmt"

	"github.com/google/uuid"
)

// NodeID uniquely identifies a node in the graph
type NodeID struct {
	value string
}

// NewNodeID generates a new random NodeID
func NewNodeID() NodeID {
	return NodeID{value: uuid.New().String()}
}

// ParseNodeID creates a NodeID from an existing string
func ParseNodeID(s string) (NodeID, error) {
	if s == "" {
		return NodeID{}, fmt.Errorf("node id cannot be empty")
	}
	return NodeID{value: s}, nil
}

// String returns the string representation
func (id NodeID) String() string { return id.value }

// IsEmpty reports whether the identifier is unset
func (id NodeID) IsEmpty() bool { return id.value == "" }

// Equals compares two node identifiers
func (id NodeID) Equals(other NodeID) bool { return id.value == other.value }

// EdgeID uniquely identifies an edge in the graph
type EdgeID struct {
	value string
}

// NewEdgeID generates a new random EdgeID
func NewEdgeID() EdgeID {
	return EdgeID{value: uuid.New().String()}
}

// ParseEdgeID creates an EdgeID from an existing string
func ParseEdgeID(s string) (EdgeID, error) {
	if s == "" {
		return EdgeID{}, fmt.Errorf("edge id cannot be empty")
	}
	return EdgeID{value: s}, nil
}

// String returns the string representation
func (id EdgeID) String() string { return id.value }

// IsEmpty reports whether the identifier is unset
func (id EdgeID) IsEmpty() bool { return id.value == "" }

// Equals compares two edge identifiers
func (id EdgeID) Equals(other EdgeID) bool { return id.value == other.value }
