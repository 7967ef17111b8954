package muql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, src string) Query {
	t.Helper()
	q, err := Parse(src)
	require.NoError(t, err, "query: %s", src)
	return q
}

// =============================================================================
// SELECT
// =============================================================================

func TestParse_SelectStar(t *testing.T) {
	t.Parallel()
	q := parse(t, "SELECT * FROM functions").(*SelectQuery)
	assert.Equal(t, "functions", q.Table)
	assert.Equal(t, []string{"*"}, q.Fields)
	assert.Nil(t, q.Where)
}

func TestParse_SelectFieldsWhereOrderLimit(t *testing.T) {
	t.Parallel()
	q := parse(t, "SELECT name, complexity FROM classes WHERE complexity >= 5 AND name LIKE Db ORDER BY complexity DESC LIMIT 10").(*SelectQuery)
	assert.Equal(t, "classes", q.Table)
	assert.Equal(t, []string{"name", "complexity"}, q.Fields)
	require.NotNil(t, q.Where)
	require.Len(t, q.Where.Conds, 2)
	assert.Equal(t, Condition{Field: "complexity", Op: OpGte, Value: Literal{Kind: LiteralNumber, Number: 5}}, q.Where.Conds[0])
	assert.Equal(t, Condition{Field: "name", Op: OpLike, Value: Literal{Kind: LiteralString, Text: "Db"}}, q.Where.Conds[1])
	assert.Equal(t, []BoolOp{BoolAnd}, q.Where.Ops)
	assert.Equal(t, "complexity", q.OrderBy)
	assert.True(t, q.OrderDesc)
	assert.Equal(t, 10, q.Limit)
}

func TestParse_SelectAggregate(t *testing.T) {
	t.Parallel()
	q := parse(t, "SELECT COUNT(*) FROM modules").(*SelectQuery)
	assert.Equal(t, AggCount, q.Aggregate)
	assert.Equal(t, "*", q.AggregateField)

	q = parse(t, "SELECT avg(complexity) FROM functions").(*SelectQuery)
	assert.Equal(t, AggAvg, q.Aggregate)
	assert.Equal(t, "complexity", q.AggregateField)
}

func TestParse_SelectIn(t *testing.T) {
	t.Parallel()
	q := parse(t, "SELECT * FROM functions WHERE name IN (init, setup, teardown)").(*SelectQuery)
	require.NotNil(t, q.Where)
	require.Len(t, q.Where.Conds, 1)
	c := q.Where.Conds[0]
	assert.Equal(t, OpIn, c.Op)
	assert.Equal(t, LiteralList, c.Value.Kind)
	assert.Equal(t, []string{"init", "setup", "teardown"}, c.Value.List)
}

func TestParse_CaseInsensitiveKeywords(t *testing.T) {
	t.Parallel()
	a := parse(t, "select * from functions where complexity > 50")
	b := parse(t, "SELECT * FROM functions WHERE complexity > 50")
	assert.Equal(t, a, b)
}

func TestParse_OrGrouping(t *testing.T) {
	t.Parallel()
	q := parse(t, "SELECT * FROM functions WHERE name = a OR name = b AND complexity > 3").(*SelectQuery)
	require.Len(t, q.Where.Conds, 3)
	assert.Equal(t, []BoolOp{BoolOr, BoolAnd}, q.Where.Ops)
}

// =============================================================================
// Terse dialect round-trips
// =============================================================================

func TestParse_TerseVerboseRoundTrip(t *testing.T) {
	t.Parallel()
	tests := []struct {
		verbose string
		terse   string
	}{
		{"SELECT * FROM functions WHERE complexity > 50", "fn c>50"},
		{"SELECT * FROM classes", "cl"},
		{"SELECT * FROM functions WHERE complexity > 10 AND name LIKE handler", "fn c>10 & n like handler"},
		{"SELECT * FROM modules WHERE name = api OR name = web", "mo n=api | n=web"},
		{"SHOW dependencies OF auth DEPTH 3", "d auth 3"},
		{"SHOW dependents OF auth DEPTH 2", "r auth 2"},
		{"PATH FROM api TO db MAX DEPTH 4", "p api db 4"},
		{"ANALYZE circular", "a circular"},
	}
	for _, tt := range tests {
		v := parse(t, tt.verbose)
		te := parse(t, tt.terse)
		assert.Equal(t, v, te, "verbose %q vs terse %q", tt.verbose, tt.terse)
	}
}

// =============================================================================
// SHOW / PATH / ANALYZE / FIND
// =============================================================================

func TestParse_ShowDefaults(t *testing.T) {
	t.Parallel()
	q := parse(t, "SHOW dependencies OF Db.connect").(*ShowQuery)
	assert.Equal(t, ShowDependencies, q.Direction)
	assert.Equal(t, "Db.connect", q.Target)
	assert.Zero(t, q.Depth)
	assert.Empty(t, q.EdgeKinds)
}

func TestParse_ShowEdgeFilter(t *testing.T) {
	t.Parallel()
	q := parse(t, "SHOW dependencies OF auth DEPTH 2 WHERE edge = imports").(*ShowQuery)
	assert.Equal(t, 2, q.Depth)
	assert.Equal(t, []string{"imports"}, q.EdgeKinds)

	q = parse(t, "SHOW dependents OF auth WHERE edge IN (imports, calls)").(*ShowQuery)
	assert.Equal(t, []string{"imports", "calls"}, q.EdgeKinds)
}

func TestParse_ShowDirections(t *testing.T) {
	t.Parallel()
	for spelling, want := range map[string]string{
		"dependencies": ShowDependencies,
		"deps":         ShowDependencies,
		"dependents":   ShowDependents,
		"impact":       ShowImpact,
		"ancestors":    ShowAncestors,
		"calls":        ShowCalls,
		"callers":      ShowCallers,
	} {
		q := parse(t, "SHOW "+spelling+" OF x").(*ShowQuery)
		assert.Equal(t, want, q.Direction)
	}
}

func TestParse_Path(t *testing.T) {
	t.Parallel()
	q := parse(t, "PATH FROM api TO db").(*PathQuery)
	assert.Equal(t, "api", q.From)
	assert.Equal(t, "db", q.To)
	assert.Zero(t, q.MaxDepth)

	q = parse(t, "PATH FROM api TO db MAX DEPTH 5 WHERE edge = imports").(*PathQuery)
	assert.Equal(t, 5, q.MaxDepth)
	assert.Equal(t, []string{"imports"}, q.EdgeKinds)
}

func TestParse_Analyze(t *testing.T) {
	t.Parallel()
	q := parse(t, "ANALYZE circular").(*AnalyzeQuery)
	assert.Equal(t, "circular", q.Analysis)
	assert.False(t, q.HasThreshold)

	q = parse(t, "ANALYZE complexity 15").(*AnalyzeQuery)
	assert.Equal(t, "complexity", q.Analysis)
	assert.Equal(t, 15, q.Threshold)
	assert.True(t, q.HasThreshold)

	q = parse(t, "ANALYZE impact OF auth").(*AnalyzeQuery)
	assert.Equal(t, "impact", q.Analysis)
	assert.Equal(t, "auth", q.Scope)
}

func TestParse_Find(t *testing.T) {
	t.Parallel()
	tests := []struct {
		src      string
		relation string
		arg      string
	}{
		{"FIND functions CALLING validate", RelCalling, "validate"},
		{"FIND functions CALLED BY main", RelCalledBy, "main"},
		{"FIND modules IMPORTING flask", RelImporting, "flask"},
		{"FIND modules IMPORTED BY app", RelImportedBy, "app"},
		{"FIND classes EXTENDING Base", RelExtending, "Base"},
		{"FIND classes IMPLEMENTING Serializable", RelImplementing, "Serializable"},
		{"FIND functions USING config", RelUsing, "config"},
		{`FIND functions WITH DECORATOR "cache"`, RelDecorator, "cache"},
		{`FIND classes WITH ANNOTATION "deprecated"`, RelAnnotation, "deprecated"},
	}
	for _, tt := range tests {
		q := parse(t, tt.src).(*FindQuery)
		assert.Equal(t, tt.relation, q.Relation, tt.src)
		assert.Equal(t, tt.arg, q.Argument, tt.src)
	}
}

// =============================================================================
// Schema introspection
// =============================================================================

func TestParse_DescribeTables(t *testing.T) {
	t.Parallel()
	for _, src := range []string{"DESCRIBE TABLES", "SHOW TABLES"} {
		q := parse(t, src).(*DescribeQuery)
		assert.False(t, q.Columns)
	}
}

func TestParse_DescribeColumns(t *testing.T) {
	t.Parallel()
	for _, src := range []string{"DESCRIBE COLUMNS FROM functions", "SHOW COLUMNS FROM fn"} {
		q := parse(t, src).(*DescribeQuery)
		assert.True(t, q.Columns)
		assert.Equal(t, "functions", q.Table)
	}
}

// =============================================================================
// Failures
// =============================================================================

func TestParse_Errors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		src     string
		wantMsg string
	}{
		{"", "empty query"},
		{"FROB the graph", "expected a query keyword"},
		{"SELECT FROM functions", "unknown field"},
		{"SELECT * FROM spaceships", "unknown table"},
		{"SELECT * FROM functions WHERE complexity", "comparison operator"},
		{"SELECT * FROM functions WHERE complexity > ", "expected a value"},
		{"SHOW dependencies auth", "expected OF"},
		{"SHOW sideways OF x", "unknown SHOW direction"},
		{"PATH FROM a", "expected TO"},
		{"FIND functions FLYING x", "unknown FIND relation"},
		{"DESCRIBE COLUMNS", "expected FROM"},
		{"SELECT * FROM functions extra tokens", "unexpected trailing input"},
		// Parenthesized boolean groups are not part of the grammar.
		{"fn (c>50)", "expected a field name"},
	}
	for _, tt := range tests {
		_, err := Parse(tt.src)
		require.Error(t, err, "query %q should fail", tt.src)
		assert.Contains(t, err.Error(), tt.wantMsg, "query %q", tt.src)
	}
}

func TestParse_ErrorCarriesPosition(t *testing.T) {
	t.Parallel()
	_, err := Parse("SELECT * FROM spaceships")
	require.Error(t, err)
	perr, ok := err.(*ParseError)
	require.True(t, ok)
	assert.Equal(t, 1, perr.Line)
	assert.Equal(t, 15, perr.Column)
	assert.Equal(t, "spaceships", perr.Near)
}
