package plan

import "github.com/codegraph-dev/codegraph/internal/store"

// The query language exposes five fixed logical entity tables, each a
// kind-restricted view over the node table.

// Tables lists the logical entity tables in introspection order.
var Tables = []string{"classes", "entities", "externals", "functions", "modules"}

// tableKinds maps each logical table to its node kind.
var tableKinds = map[string]store.NodeKind{
	"classes":   store.KindClass,
	"entities":  store.KindEntity,
	"externals": store.KindExternal,
	"functions": store.KindFunction,
	"modules":   store.KindModule,
}

// TableColumns lists the fields selectable and filterable against every
// logical table. decorator and docstring resolve into the property bag.
var TableColumns = []string{
	"id", "name", "qualified_name", "kind", "file_path",
	"line_start", "line_end", "complexity", "decorator", "docstring",
}

// selectableColumns is the star-projection column order. Property-bag
// fields are filter-only.
var selectableColumns = []string{
	"id", "name", "qualified_name", "kind", "file_path",
	"line_start", "line_end", "complexity",
}

// TableKind resolves a logical table to its node kind.
func TableKind(table string) (store.NodeKind, bool) {
	k, ok := tableKinds[table]
	return k, ok
}

// validEdgeKinds guards edge-type allowlists coming from WHERE filters.
var validEdgeKinds = map[string]store.EdgeKind{
	string(store.EdgeContains):      store.EdgeContains,
	string(store.EdgeImports):       store.EdgeImports,
	string(store.EdgeInherits):      store.EdgeInherits,
	string(store.EdgeImplements):    store.EdgeImplements,
	string(store.EdgeCalls):         store.EdgeCalls,
	string(store.EdgeReturns):       store.EdgeReturns,
	string(store.EdgeUses):          store.EdgeUses,
	string(store.EdgeMutates):       store.EdgeMutates,
	string(store.EdgeDependsOn):     store.EdgeDependsOn,
	string(store.EdgeGuards):        store.EdgeGuards,
	string(store.EdgeAnnotatedWith): store.EdgeAnnotatedWith,
	string(store.EdgeTypedAs):       store.EdgeTypedAs,
}
