package exec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codegraph-dev/codegraph/internal/store"
)

func TestAnalyze_CircularImports(t *testing.T) {
	t.Parallel()
	x, s := newTestExecutor(t)
	addNode(t, s, "module:orders", store.KindModule, "orders")
	addNode(t, s, "module:billing", store.KindModule, "billing")
	addNode(t, s, "module:shared", store.KindModule, "shared")
	addEdge(t, s, "module:orders", "module:billing", store.EdgeImports)
	addEdge(t, s, "module:billing", "module:orders", store.EdgeImports)
	addEdge(t, s, "module:orders", "module:shared", store.EdgeImports)

	res := run(t, x, "ANALYZE circular")

	require.Equal(t, 1, res.Count)
	assert.Equal(t, []any{"module:billing", "module:orders", "imports"}, res.Rows[0])
}

func TestAnalyze_CircularNoneFound(t *testing.T) {
	t.Parallel()
	x, s := newTestExecutor(t)
	seedApp(t, s)

	res := run(t, x, "a circular")

	assert.Zero(t, res.Count)
	assert.Equal(t, "no circular imports found", res.Message)
}

func TestAnalyze_ComplexityDefaultThreshold(t *testing.T) {
	t.Parallel()
	x, s := newTestExecutor(t)
	require.NoError(t, s.UpsertNode(&store.Node{
		ID: "function:a:tangle", Kind: store.KindFunction, Name: "tangle", Complexity: 42,
	}))
	require.NoError(t, s.UpsertNode(&store.Node{
		ID: "function:a:knot", Kind: store.KindFunction, Name: "knot", Complexity: 10,
	}))
	require.NoError(t, s.UpsertNode(&store.Node{
		ID: "function:a:simple", Kind: store.KindFunction, Name: "simple", Complexity: 2,
	}))

	res := run(t, x, "ANALYZE complexity")

	require.Equal(t, 2, res.Count)
	assert.Equal(t, "function:a:tangle", res.Rows[0][0])
	assert.Equal(t, "function:a:knot", res.Rows[1][0])
}

func TestAnalyze_ComplexityExplicitThreshold(t *testing.T) {
	t.Parallel()
	x, s := newTestExecutor(t)
	require.NoError(t, s.UpsertNode(&store.Node{
		ID: "function:a:tangle", Kind: store.KindFunction, Name: "tangle", Complexity: 42,
	}))
	require.NoError(t, s.UpsertNode(&store.Node{
		ID: "function:a:knot", Kind: store.KindFunction, Name: "knot", Complexity: 10,
	}))

	res := run(t, x, "ANALYZE complexity 20")

	require.Equal(t, 1, res.Count)
	assert.Equal(t, "function:a:tangle", res.Rows[0][0])
}

func TestAnalyze_Coupling(t *testing.T) {
	t.Parallel()
	x, s := newTestExecutor(t)
	seedApp(t, s)

	res := run(t, x, "ANALYZE coupling")

	require.Equal(t, 4, res.Count)
	assert.Equal(t, []string{"module", "fan_out", "fan_in"}, res.Columns)

	byModule := map[string][]any{}
	for _, row := range res.Rows {
		byModule[row[0].(string)] = row[1:]
	}
	assert.EqualValues(t, 1, byModule["module:app"][0], "app fan_out")
	assert.EqualValues(t, 1, byModule["module:app"][1], "app fan_in")
	assert.EqualValues(t, 0, byModule["module:util"][0], "util fan_out")
	assert.EqualValues(t, 1, byModule["module:util"][1], "util fan_in")
}

func TestAnalyze_Cohesion(t *testing.T) {
	t.Parallel()
	x, s := newTestExecutor(t)
	addNode(t, s, "module:m", store.KindModule, "m")
	addNode(t, s, "function:m:a", store.KindFunction, "a")
	addNode(t, s, "function:m:b", store.KindFunction, "b")
	addNode(t, s, "module:other", store.KindModule, "other")
	addNode(t, s, "function:other:c", store.KindFunction, "c")
	addEdge(t, s, "module:m", "function:m:a", store.EdgeContains)
	addEdge(t, s, "module:m", "function:m:b", store.EdgeContains)
	addEdge(t, s, "module:other", "function:other:c", store.EdgeContains)
	// One internal call, one crossing the module boundary.
	addEdge(t, s, "function:m:a", "function:m:b", store.EdgeCalls)
	addEdge(t, s, "function:m:b", "function:other:c", store.EdgeCalls)

	res := run(t, x, "ANALYZE cohesion")

	byModule := map[string][]any{}
	for _, row := range res.Rows {
		byModule[row[0].(string)] = row[1:]
	}
	require.Contains(t, byModule, "module:m")
	assert.EqualValues(t, 1, byModule["module:m"][0], "internal edges")
	assert.EqualValues(t, 1, byModule["module:m"][1], "external edges")
	assert.EqualValues(t, 0.5, byModule["module:m"][2], "cohesion ratio")
}

// Method calls count toward cohesion: membership follows contains
// edges transitively, so a method inside a class is still a member of
// the enclosing module.
func TestAnalyze_CohesionCountsMethodEdges(t *testing.T) {
	t.Parallel()
	x, s := newTestExecutor(t)
	addNode(t, s, "module:m", store.KindModule, "m")
	addNode(t, s, "class:m:C", store.KindClass, "C")
	addNode(t, s, "function:m:C.f", store.KindFunction, "f")
	addNode(t, s, "function:m:g", store.KindFunction, "g")
	addNode(t, s, "module:other", store.KindModule, "other")
	addNode(t, s, "function:other:h", store.KindFunction, "h")
	addEdge(t, s, "module:m", "class:m:C", store.EdgeContains)
	addEdge(t, s, "class:m:C", "function:m:C.f", store.EdgeContains)
	addEdge(t, s, "module:m", "function:m:g", store.EdgeContains)
	addEdge(t, s, "module:other", "function:other:h", store.EdgeContains)
	// The method calls one sibling and one function in another module.
	addEdge(t, s, "function:m:C.f", "function:m:g", store.EdgeCalls)
	addEdge(t, s, "function:m:C.f", "function:other:h", store.EdgeCalls)

	res := run(t, x, "ANALYZE cohesion")

	byModule := map[string][]any{}
	for _, row := range res.Rows {
		byModule[row[0].(string)] = row[1:]
	}
	require.Contains(t, byModule, "module:m")
	assert.EqualValues(t, 1, byModule["module:m"][0], "method call to sibling is internal")
	assert.EqualValues(t, 1, byModule["module:m"][1], "cross-module method call is external")
	assert.EqualValues(t, 0.5, byModule["module:m"][2], "cohesion ratio")
}

func TestAnalyze_Hotspots(t *testing.T) {
	t.Parallel()
	x, s := newTestExecutor(t)
	seedApp(t, s)

	res := run(t, x, "ANALYZE hotspots 2")

	require.Equal(t, 2, res.Count)
	// app and db each have one inbound import; query has one inbound
	// call. Ties break by id, so the first two ids win.
	assert.EqualValues(t, 1, res.Rows[0][3])
}

func TestAnalyze_Unused(t *testing.T) {
	t.Parallel()
	x, s := newTestExecutor(t)
	addNode(t, s, "module:m", store.KindModule, "m")
	addNode(t, s, "function:m:main", store.KindFunction, "main")
	addNode(t, s, "function:m:used", store.KindFunction, "used")
	addNode(t, s, "function:m:orphan", store.KindFunction, "orphan")
	addEdge(t, s, "module:m", "function:m:main", store.EdgeContains)
	addEdge(t, s, "module:m", "function:m:used", store.EdgeContains)
	addEdge(t, s, "module:m", "function:m:orphan", store.EdgeContains)
	addEdge(t, s, "function:m:main", "function:m:used", store.EdgeCalls)

	res := run(t, x, "ANALYZE unused")

	require.Equal(t, 1, res.Count)
	assert.Equal(t, "function:m:orphan", res.Rows[0][0])
}

func TestAnalyze_Impact(t *testing.T) {
	t.Parallel()
	x, s := newTestExecutor(t)
	seedApp(t, s)

	res := run(t, x, "ANALYZE impact OF db")

	ids := make([]string, 0, res.Count)
	for _, row := range res.Rows {
		ids = append(ids, row[0].(string))
	}
	assert.Equal(t, []string{"module:app", "module:api"}, ids)
}

func TestAnalyze_ImpactRequiresScope(t *testing.T) {
	t.Parallel()
	x, _ := newTestExecutor(t)

	err := runErr(t, x, "ANALYZE impact")
	assert.Contains(t, err.Error(), "requires a scope")
}

func TestAnalyze_UnknownAnalysis(t *testing.T) {
	t.Parallel()
	x, _ := newTestExecutor(t)

	err := runErr(t, x, "ANALYZE vibes")
	assert.Contains(t, err.Error(), `unknown analysis "vibes"`)
}
