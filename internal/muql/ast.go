package muql

// Query is the interface implemented by every parsed MUQL query variant.
// Queries are immutable value objects: constructed by the parser,
// consumed once by the planner, then discarded.
type Query interface {
	queryNode()
}

// CompareOp is a WHERE-clause comparison operator.
type CompareOp string

const (
	OpEq       CompareOp = "="
	OpNeq      CompareOp = "!="
	OpGt       CompareOp = ">"
	OpLt       CompareOp = "<"
	OpGte      CompareOp = ">="
	OpLte      CompareOp = "<="
	OpLike     CompareOp = "like"
	OpContains CompareOp = "contains"
	OpIn       CompareOp = "in"
)

// BoolOp joins two adjacent conditions.
type BoolOp string

const (
	BoolAnd BoolOp = "and"
	BoolOr  BoolOp = "or"
)

// LiteralKind tags the shape of a parsed literal.
type LiteralKind int

const (
	LiteralString LiteralKind = iota
	LiteralNumber
	LiteralList
)

// Literal is a parsed value: an unquoted or quoted string, an integer,
// or an ordered list of strings.
type Literal struct {
	Kind   LiteralKind
	Text   string
	Number int
	List   []string
}

// Condition is one field/operator/value comparison.
type Condition struct {
	Field string
	Op    CompareOp
	Value Literal
}

// Where is an AND/OR chain of conditions with strict left-to-right
// grouping: Ops[i] joins Conds[i] and Conds[i+1].
type Where struct {
	Conds []Condition
	Ops   []BoolOp
}

// Aggregate functions available in SELECT.
const (
	AggCount = "count"
	AggAvg   = "avg"
	AggMax   = "max"
	AggMin   = "min"
	AggSum   = "sum"
)

// SelectQuery is `SELECT fields FROM table ...` (or a terse implicit
// select). Fields is ["*"] for a star projection; Aggregate is set
// instead of Fields for aggregate queries. Limit 0 means no limit.
type SelectQuery struct {
	Table          string
	Fields         []string
	Aggregate      string
	AggregateField string
	Where          *Where
	OrderBy        string
	OrderDesc      bool
	Limit          int
}

// Show directions.
const (
	ShowDependencies = "dependencies"
	ShowDependents   = "dependents"
	ShowImpact       = "impact"
	ShowAncestors    = "ancestors"
	ShowCalls        = "calls"
	ShowCallers      = "callers"
)

// ShowQuery is `SHOW <direction> OF <target> [DEPTH n]`, yielding a
// hierarchical traversal result. Depth 0 means the direction's default.
type ShowQuery struct {
	Direction string
	Target    string
	Depth     int
	EdgeKinds []string
}

// Find relations.
const (
	RelCalling      = "calling"
	RelCalledBy     = "called_by"
	RelImporting    = "importing"
	RelImportedBy   = "imported_by"
	RelExtending    = "extending"
	RelImplementing = "implementing"
	RelUsing        = "using"
	RelDecorator    = "with_decorator"
	RelAnnotation   = "with_annotation"
)

// FindQuery is `FIND <table> <relation> <argument>`: an edge-pattern or
// property-containment search over one entity table.
type FindQuery struct {
	Table    string
	Relation string
	Argument string
}

// PathQuery is `PATH FROM a TO b [MAX DEPTH n]`. MaxDepth 0 means the
// engine default.
type PathQuery struct {
	From      string
	To        string
	MaxDepth  int
	EdgeKinds []string
}

// AnalyzeQuery is `ANALYZE <analysis> [OF scope] [threshold]`.
type AnalyzeQuery struct {
	Analysis     string
	Scope        string
	Threshold    int
	HasThreshold bool
}

// DescribeQuery is schema introspection: `DESCRIBE TABLES` or
// `DESCRIBE COLUMNS FROM <table>` (and the SHOW spellings).
type DescribeQuery struct {
	Columns bool
	Table   string
}

func (*SelectQuery) queryNode()   {}
func (*ShowQuery) queryNode()     {}
func (*FindQuery) queryNode()     {}
func (*PathQuery) queryNode()     {}
func (*AnalyzeQuery) queryNode()  {}
func (*DescribeQuery) queryNode() {}
