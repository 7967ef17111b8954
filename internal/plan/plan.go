// Package plan converts MUQL AST nodes into executor-ready plans.
//
// The planner is a pure function over the AST: it never touches storage
// and never executes anything. Each plan variant carries everything the
// executor needs, so the AST can be discarded after planning.
package plan

import "github.com/codegraph-dev/codegraph/internal/store"

// Plan is the tagged union of executor-ready query representations.
type Plan interface {
	isPlan()
}

// AnalyticalPlan carries a generated SQL statement with bound arguments
// and its output column names.
type AnalyticalPlan struct {
	SQL     string
	Args    []any
	Columns []string
}

// GraphOp names a graph-store traversal.
type GraphOp string

const (
	OpDependencies GraphOp = "get_dependencies"
	OpDependents   GraphOp = "get_dependents"
	OpImpact       GraphOp = "get_impact"
	OpAncestors    GraphOp = "get_ancestors"
	OpFindPath     GraphOp = "find_path"
	OpRelated      GraphOp = "find_related"
)

// GraphPlan carries a traversal request: the operation, target name(s),
// depth, and an edge-kind allowlist. Depth 0 means the operation's
// default (1 hop for direct neighbor queries, the engine ceiling for
// impact/ancestors and path search).
//
// For OpRelated, Table restricts results to one entity kind, EdgeKinds
// holds the single relation edge, and Reverse selects which endpoint of
// the matched edges is returned (false: sources pointing at the target;
// true: targets pointed at by it).
type GraphPlan struct {
	Op        GraphOp
	Target    string
	To        string
	Depth     int
	EdgeKinds []store.EdgeKind
	Table     string
	Reverse   bool
}

// AnalysisPlan names a built-in analysis with an optional scope node and
// threshold.
type AnalysisPlan struct {
	Analysis     string
	Scope        string
	Threshold    float64
	HasThreshold bool
}

// SchemaPlan is introspection over the fixed logical tables; it needs no
// graph state beyond the static schema.
type SchemaPlan struct {
	Columns bool
	Table   string
}

func (*AnalyticalPlan) isPlan() {}
func (*GraphPlan) isPlan()      {}
func (*AnalysisPlan) isPlan()   {}
func (*SchemaPlan) isPlan()     {}
