package exec

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codegraph-dev/codegraph/internal/muql"
	"github.com/codegraph-dev/codegraph/internal/plan"
	"github.com/codegraph-dev/codegraph/internal/store"
)

func newTestExecutor(t *testing.T) (*Executor, *store.Store) {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "graph.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return New(s, nil), s
}

func addNode(t *testing.T, s *store.Store, id string, kind store.NodeKind, name string) {
	t.Helper()
	require.NoError(t, s.UpsertNode(&store.Node{
		ID: id, Kind: kind, Name: name, QualifiedName: name,
	}))
}

func addEdge(t *testing.T, s *store.Store, source, target string, kind store.EdgeKind) {
	t.Helper()
	require.NoError(t, s.UpsertEdge(&store.Edge{SourceID: source, TargetID: target, Kind: kind}))
}

// run executes a query end to end: parse, plan, run.
func run(t *testing.T, x *Executor, query string) *Result {
	t.Helper()
	q, err := muql.Parse(query)
	require.NoError(t, err)
	p, err := plan.Build(q)
	require.NoError(t, err)
	res, err := x.Run(p)
	require.NoError(t, err)
	return res
}

func runErr(t *testing.T, x *Executor, query string) error {
	t.Helper()
	q, err := muql.Parse(query)
	require.NoError(t, err)
	p, err := plan.Build(q)
	require.NoError(t, err)
	_, err = x.Run(p)
	require.Error(t, err)
	return err
}

// seedApp builds a small application graph used across tests:
//
//	app -> db -> util (imports), api -> app (imports)
//	app contains handler, db contains query
//	handler calls query
func seedApp(t *testing.T, s *store.Store) {
	t.Helper()
	addNode(t, s, "module:app", store.KindModule, "app")
	addNode(t, s, "module:db", store.KindModule, "db")
	addNode(t, s, "module:util", store.KindModule, "util")
	addNode(t, s, "module:api", store.KindModule, "api")
	addNode(t, s, "function:app:handler", store.KindFunction, "handler")
	addNode(t, s, "function:db:query", store.KindFunction, "query")

	addEdge(t, s, "module:app", "module:db", store.EdgeImports)
	addEdge(t, s, "module:db", "module:util", store.EdgeImports)
	addEdge(t, s, "module:api", "module:app", store.EdgeImports)
	addEdge(t, s, "module:app", "function:app:handler", store.EdgeContains)
	addEdge(t, s, "module:db", "function:db:query", store.EdgeContains)
	addEdge(t, s, "function:app:handler", "function:db:query", store.EdgeCalls)
}

// =============================================================================
// Analytical execution
// =============================================================================

func TestRun_SelectRows(t *testing.T) {
	t.Parallel()
	x, s := newTestExecutor(t)
	seedApp(t, s)

	res := run(t, x, "SELECT name FROM modules")

	assert.Equal(t, []string{"name"}, res.Columns)
	assert.Equal(t, 4, res.Count)
	assert.Equal(t, []any{"api"}, res.Rows[0])
	assert.Equal(t, []any{"util"}, res.Rows[3])
}

func TestRun_SelectCount(t *testing.T) {
	t.Parallel()
	x, s := newTestExecutor(t)
	seedApp(t, s)

	res := run(t, x, "SELECT COUNT(*) FROM functions")

	require.Equal(t, 1, res.Count)
	assert.EqualValues(t, 2, res.Rows[0][0])
}

func TestRun_SelectEmptyResultIsNotError(t *testing.T) {
	t.Parallel()
	x, s := newTestExecutor(t)
	seedApp(t, s)

	res := run(t, x, "SELECT * FROM classes")

	assert.Zero(t, res.Count)
	assert.Empty(t, res.Rows)
}

func TestRun_SelectDecoratorFilter(t *testing.T) {
	t.Parallel()
	x, s := newTestExecutor(t)
	require.NoError(t, s.UpsertNode(&store.Node{
		ID: "function:app:index", Kind: store.KindFunction, Name: "index",
		Properties: map[string]any{"decorators": []string{"route", "cache"}},
	}))
	require.NoError(t, s.UpsertNode(&store.Node{
		ID: "function:app:helper", Kind: store.KindFunction, Name: "helper",
	}))

	res := run(t, x, "SELECT name FROM functions WHERE decorator = route")

	require.Equal(t, 1, res.Count)
	assert.Equal(t, []any{"index"}, res.Rows[0])
}

// =============================================================================
// Name resolution
// =============================================================================

func TestResolve_FullIDPassesThrough(t *testing.T) {
	t.Parallel()
	x, s := newTestExecutor(t)
	seedApp(t, s)

	// Direct neighbors across all edge kinds: the imported db module and
	// the contained handler function.
	res := run(t, x, "SHOW DEPENDENCIES OF module:app")
	assert.Equal(t, 2, res.Count)
}

func TestResolve_NotFound(t *testing.T) {
	t.Parallel()
	x, s := newTestExecutor(t)
	seedApp(t, s)

	err := runErr(t, x, "SHOW DEPENDENCIES OF ghost")

	var notFound *NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "ghost", notFound.Name)
}

func TestResolve_AmbiguousListsCandidates(t *testing.T) {
	t.Parallel()
	x, s := newTestExecutor(t)
	addNode(t, s, "function:a:init", store.KindFunction, "init")
	addNode(t, s, "function:b:init", store.KindFunction, "init")

	err := runErr(t, x, "SHOW CALLERS OF init")

	var ambiguous *AmbiguousError
	require.ErrorAs(t, err, &ambiguous)
	assert.ElementsMatch(t, []string{"function:a:init", "function:b:init"}, ambiguous.Candidates)
	assert.Contains(t, err.Error(), "function:a:init")
}

// =============================================================================
// Traversals
// =============================================================================

func TestRun_ShowDependenciesDefaultsToOneHop(t *testing.T) {
	t.Parallel()
	x, s := newTestExecutor(t)
	seedApp(t, s)

	res := run(t, x, "SHOW DEPENDENCIES OF app WHERE edge_type = imports")

	require.Equal(t, 1, res.Count)
	assert.Equal(t, "module:db", res.Rows[0][0])
}

func TestRun_ShowDependenciesDepth(t *testing.T) {
	t.Parallel()
	x, s := newTestExecutor(t)
	seedApp(t, s)

	res := run(t, x, "SHOW DEPENDENCIES OF app DEPTH 2 WHERE edge_type = imports")

	require.Equal(t, 2, res.Count)
	assert.Equal(t, "module:db", res.Rows[0][0])
	assert.Equal(t, "module:util", res.Rows[1][0])
}

func TestRun_ShowBuildsTree(t *testing.T) {
	t.Parallel()
	x, s := newTestExecutor(t)
	seedApp(t, s)

	res := run(t, x, "SHOW DEPENDENCIES OF app DEPTH 2 WHERE edge_type = imports")

	require.NotNil(t, res.Tree)
	assert.Equal(t, "module:app", res.Tree.ID)
	require.Len(t, res.Tree.Children, 1)
	db := res.Tree.Children[0]
	assert.Equal(t, "module:db", db.ID)
	require.Len(t, db.Children, 1)
	assert.Equal(t, "module:util", db.Children[0].ID)
}

func TestRun_ShowCallsFiltersToCallEdges(t *testing.T) {
	t.Parallel()
	x, s := newTestExecutor(t)
	seedApp(t, s)

	res := run(t, x, "SHOW CALLS OF handler")

	require.Equal(t, 1, res.Count)
	assert.Equal(t, "function:db:query", res.Rows[0][0])
}

func TestRun_ShowImpactTraversesToCeiling(t *testing.T) {
	t.Parallel()
	x, s := newTestExecutor(t)
	seedApp(t, s)

	// api -> app -> db: impact of db reaches both without an explicit depth.
	res := run(t, x, "SHOW IMPACT OF db WHERE edge_type = imports")

	ids := make([]string, 0, res.Count)
	for _, row := range res.Rows {
		ids = append(ids, row[0].(string))
	}
	assert.Equal(t, []string{"module:app", "module:api"}, ids)
}

func TestRun_ShowAncestorsWalksInheritance(t *testing.T) {
	t.Parallel()
	x, s := newTestExecutor(t)
	addNode(t, s, "class:m:Admin", store.KindClass, "Admin")
	addNode(t, s, "class:m:User", store.KindClass, "User")
	addNode(t, s, "class:m:Base", store.KindClass, "Base")
	addEdge(t, s, "class:m:Admin", "class:m:User", store.EdgeInherits)
	addEdge(t, s, "class:m:User", "class:m:Base", store.EdgeInherits)
	addEdge(t, s, "class:m:Admin", "class:m:Base", store.EdgeUses)

	res := run(t, x, "SHOW ANCESTORS OF Admin")

	ids := make([]string, 0, res.Count)
	for _, row := range res.Rows {
		ids = append(ids, row[0].(string))
	}
	assert.Equal(t, []string{"class:m:User", "class:m:Base"}, ids)
}

// =============================================================================
// Paths
// =============================================================================

func TestRun_PathFound(t *testing.T) {
	t.Parallel()
	x, s := newTestExecutor(t)
	seedApp(t, s)

	res := run(t, x, "PATH FROM app TO util WHERE edge_type = imports")

	require.Equal(t, 3, res.Count)
	assert.Equal(t, []any{0, "module:app", "app", "module"}, res.Rows[0])
	assert.Equal(t, []any{2, "module:util", "util", "module"}, res.Rows[2])
	assert.Empty(t, res.Message)
}

func TestRun_PathAbsentIsMessageNotError(t *testing.T) {
	t.Parallel()
	x, s := newTestExecutor(t)
	seedApp(t, s)

	res := run(t, x, "PATH FROM util TO app WHERE edge_type = imports")

	assert.Zero(t, res.Count)
	assert.Equal(t, "no path found", res.Message)
}

// =============================================================================
// FIND relations
// =============================================================================

func TestRun_FindCalling(t *testing.T) {
	t.Parallel()
	x, s := newTestExecutor(t)
	seedApp(t, s)

	res := run(t, x, "FIND functions CALLING query")

	require.Equal(t, 1, res.Count)
	assert.Equal(t, "function:app:handler", res.Rows[0][0])
}

func TestRun_FindCalledBy(t *testing.T) {
	t.Parallel()
	x, s := newTestExecutor(t)
	seedApp(t, s)

	res := run(t, x, "FIND functions CALLED BY handler")

	require.Equal(t, 1, res.Count)
	assert.Equal(t, "function:db:query", res.Rows[0][0])
}

func TestRun_FindImportingFiltersKind(t *testing.T) {
	t.Parallel()
	x, s := newTestExecutor(t)
	seedApp(t, s)

	res := run(t, x, "FIND modules IMPORTING db")

	require.Equal(t, 1, res.Count)
	assert.Equal(t, "module:app", res.Rows[0][0])
}

func TestRun_FindExternalsImportedBy(t *testing.T) {
	t.Parallel()
	x, s := newTestExecutor(t)
	addNode(t, s, "module:web", store.KindModule, "web")
	addNode(t, s, "external:flask", store.KindExternal, "flask")
	addEdge(t, s, "module:web", "external:flask", store.EdgeImports)

	res := run(t, x, "FIND externals IMPORTED BY web")

	require.Equal(t, 1, res.Count)
	assert.Equal(t, "external:flask", res.Rows[0][0])
}

// =============================================================================
// Schema introspection
// =============================================================================

func TestRun_DescribeTables(t *testing.T) {
	t.Parallel()
	x, _ := newTestExecutor(t)

	res := run(t, x, "DESCRIBE TABLES")

	assert.Equal(t, []string{"table"}, res.Columns)
	assert.Equal(t, 5, res.Count)
	assert.Equal(t, []any{"classes"}, res.Rows[0])
	assert.Equal(t, []any{"modules"}, res.Rows[4])
}

func TestRun_DescribeColumns(t *testing.T) {
	t.Parallel()
	x, _ := newTestExecutor(t)

	res := run(t, x, "SHOW COLUMNS FROM functions")

	assert.Equal(t, []string{"column"}, res.Columns)
	assert.Equal(t, len(plan.TableColumns), res.Count)
}
