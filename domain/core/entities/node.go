// Package entities contains the core domain entities of the knowledge graph
package entities

import (
	"time"

	"secondbrain-backend/domain/core/valueobjects"
	"secondbrain-backend/pkg/errors"
)

// NodeType classifies a node in the knowledge graph
type NodeType string

const (
	NodeTypeDocument     NodeType = "document"
	NodeTypeConcept      NodeType = "concept"
	NodeTypePerson       NodeType = "person"
	NodeTypeOrganization NodeType = "organization"
	NodeTypeTopic        NodeType = "topic"
	NodeTypeLocation     NodeType = "location"

	// NodeTypeCentral is reserved for the synthetic root shown on empty graphs.
	// It is never persisted.
	NodeTypeCentral NodeType = "central"
)

// ParseNodeType validates a raw string against the closed set of node types
func ParseNodeType(s string) (NodeType, error) {
	t := NodeType(s)
	if !t.IsValid() {
		return "", errors.NewValidationError("unknown node type: " + s)
	}
	return t, nil
}

// IsValid reports whether the type belongs to the closed set
func (t NodeType) IsValid() bool {
	switch t {
	case NodeTypeDocument, NodeTypeConcept, NodeTypePerson,
		NodeTypeOrganization, NodeTypeTopic, NodeTypeLocation, NodeTypeCentral:
		return true
	}
	return false
}

var nodeColors = map[NodeType]string{
	NodeTypeCentral:      "#3e3832",
	NodeTypeConcept:      "#ebb137",
	NodeTypeDocument:     "#2c6469",
	NodeTypePerson:       "#b20155",
	NodeTypeOrganization: "#3469a1",
	NodeTypeTopic:        "#df6536",
	NodeTypeLocation:     "#666",
}

var nodeSizes = map[NodeType]int{
	NodeTypeCentral:      8,
	NodeTypeDocument:     5,
	NodeTypeConcept:      3,
	NodeTypePerson:       4,
	NodeTypeOrganization: 4,
	NodeTypeTopic:        3,
	NodeTypeLocation:     3,
}

// DisplayColor returns the render color for the type, with a neutral fallback
func (t NodeType) DisplayColor() string {
	if c, ok := nodeColors[t]; ok {
		return c
	}
	return "#ccc"
}

// DisplaySize returns the render size for the type, with a minimal fallback
func (t NodeType) DisplaySize() int {
	if s, ok := nodeSizes[t]; ok {
		return s
	}
	return 2
}

// Node is a typed, owner-scoped entity in the knowledge graph
type Node struct {
	id         valueobjects.NodeID
	ownerID    string
	nodeType   NodeType
	label      string
	properties map[string]interface{}
	createdAt  time.Time
	updatedAt  time.Time
}

// NewNode creates a validated node owned by ownerID
func NewNode(ownerID string, nodeType NodeType, label string) (*Node, error) {
	if ownerID == "" {
		return nil, errors.NewValidationError("node owner cannot be empty")
	}
	if !nodeType.IsValid() {
		return nil, errors.NewValidationError("unknown node type: " + string(nodeType))
	}
	if label == "" {
		return nil, errors.NewValidationError("node label cannot be empty")
	}

	now := time.Now()
	return &Node{
		id:         valueobjects.NewNodeID(),
		ownerID:    ownerID,
		nodeType:   nodeType,
		label:      label,
		properties: make(map[string]interface{}),
		createdAt:  now,
		updatedAt:  now,
	}, nil
}

// ReconstructNode rebuilds a node from persisted state without re-validating
// creation invariants. Repositories are the only intended caller.
func ReconstructNode(
	id valueobjects.NodeID,
	ownerID string,
	nodeType NodeType,
	label string,
	properties map[string]interface{},
	createdAt, updatedAt time.Time,
) *Node {
	if properties == nil {
		properties = make(map[string]interface{})
	}
	return &Node{
		id:         id,
		ownerID:    ownerID,
		nodeType:   nodeType,
		label:      label,
		properties: properties,
		createdAt:  createdAt,
		updatedAt:  updatedAt,
	}
}

// NewRootNode builds the synthetic node shown when an owner's graph is empty.
// It carries a fixed identifier and must never be written to storage.
func NewRootNode(ownerID string) *Node {
	id, _ := valueobjects.ParseNodeID("genesis")
	now := time.Now()
	return &Node{
		id:         id,
		ownerID:    ownerID,
		nodeType:   NodeTypeCentral,
		label:      "Knowledge Root",
		properties: make(map[string]interface{}),
		createdAt:  now,
		updatedAt:  now,
	}
}

// ID returns the node identifier
func (n *Node) ID() valueobjects.NodeID { return n.id }

// OwnerID returns the owning user
func (n *Node) OwnerID() string { return n.ownerID }

// Type returns the node type
func (n *Node) Type() NodeType { return n.nodeType }

// Label returns the display label
func (n *Node) Label() string { return n.label }

// Properties returns the free-form property bag
func (n *Node) Properties() map[string]interface{} { return n.properties }

// CreatedAt returns the creation timestamp
func (n *Node) CreatedAt() time.Time { return n.createdAt }

// UpdatedAt returns the last modification timestamp
func (n *Node) UpdatedAt() time.Time { return n.updatedAt }

// IsRoot reports whether this is the synthetic empty-graph root
func (n *Node) IsRoot() bool { return n.nodeType == NodeTypeCentral }

// Rename updates the display label
func (n *Node) Rename(label string) error {
	if label == "" {
		return errors.NewValidationError("node label cannot be empty")
	}
	n.label = label
	n.updatedAt = time.Now()
	return nil
}

// SetProperty stores a property value on the node
func (n *Node) SetProperty(key string, value interface{}) {
	n.properties[key] = value
	n.updatedAt = time.Now()
}

// Property reads a property value from the node
func (n *Node) Property(key string) (interface{}, bool) {
	v, ok := n.properties[key]
	return v, ok
}

// ContentText returns the textual content property when present.
// Document nodes carry their source text here.
func (n *Node) ContentText() string {
	if v, ok := n.properties["content"]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
