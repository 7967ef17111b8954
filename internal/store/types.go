package store

import "time"

// NodeKind classifies a stored code entity.
type NodeKind string

const (
	KindModule     NodeKind = "module"
	KindClass      NodeKind = "class"
	KindFunction   NodeKind = "function"
	KindEntity     NodeKind = "entity"
	KindExternal   NodeKind = "external"
	KindParameter  NodeKind = "parameter"
	KindAnnotation NodeKind = "annotation"
)

// EdgeKind classifies a typed, directed relationship between two nodes.
type EdgeKind string

const (
	EdgeContains      EdgeKind = "contains"
	EdgeImports       EdgeKind = "imports"
	EdgeInherits      EdgeKind = "inherits"
	EdgeImplements    EdgeKind = "implements"
	EdgeCalls         EdgeKind = "calls"
	EdgeReturns       EdgeKind = "returns"
	EdgeUses          EdgeKind = "uses"
	EdgeMutates       EdgeKind = "mutates"
	EdgeDependsOn     EdgeKind = "depends_on"
	EdgeGuards        EdgeKind = "guards"
	EdgeAnnotatedWith EdgeKind = "annotated_with"
	EdgeTypedAs       EdgeKind = "typed_as"
)

// Node is a code entity in the graph. Properties holds per-kind
// heterogeneous data (parameters, decorators, docstring, base classes)
// serialized as JSON in storage.
type Node struct {
	ID            string
	Kind          NodeKind
	Name          string
	QualifiedName string
	FilePath      string
	LineStart     int
	LineEnd       int
	Properties    map[string]any
	Complexity    float64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Decorators returns the decorator list from the property bag, if any.
func (n *Node) Decorators() []string {
	return stringList(n.Properties["decorators"])
}

// BaseClasses returns the base-class list from the property bag, if any.
func (n *Node) BaseClasses() []string {
	return stringList(n.Properties["bases"])
}

// Docstring returns the docstring from the property bag, if any.
func (n *Node) Docstring() string {
	s, _ := n.Properties["docstring"].(string)
	return s
}

// stringList coerces a property bag value into []string. JSON round-trips
// turn []string into []any, so both shapes are accepted.
func stringList(v any) []string {
	switch vv := v.(type) {
	case []string:
		return vv
	case []any:
		out := make([]string, 0, len(vv))
		for _, e := range vv {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// Edge is a typed relationship between two nodes. TargetID may reference
// a node that is not stored yet; lookups treat such targets as external.
type Edge struct {
	ID         string
	SourceID   string
	TargetID   string
	Kind       EdgeKind
	Properties map[string]any
	Weight     float64
	CreatedAt  time.Time
}

// Traversal is one node reached by a graph walk, with its hop distance
// from the origin and the node it was reached through.
type Traversal struct {
	Node     Node
	Depth    int
	ParentID string
}

// CyclePair is a pair of nodes connected by mutual edges of one kind.
type CyclePair struct {
	A    Node
	B    Node
	Kind EdgeKind
}

// Stats summarizes graph size.
type Stats struct {
	Nodes       int
	Edges       int
	NodesByKind map[NodeKind]int
	EdgesByKind map[EdgeKind]int
}
