package muql

// The terse dialect is a strict lexical shorthand over the verbose
// grammar: these tables map terse spellings (and singular/plural
// variants) onto canonical names before AST construction, so both
// dialects produce identical ASTs.

// tableAliases maps table spellings to the five logical entity tables.
var tableAliases = map[string]string{
	"functions": "functions",
	"function":  "functions",
	"fn":        "functions",
	"classes":   "classes",
	"class":     "classes",
	"cl":        "classes",
	"modules":   "modules",
	"module":    "modules",
	"mo":        "modules",
	"entities":  "entities",
	"entity":    "entities",
	"en":        "entities",
	"externals": "externals",
	"external":  "externals",
	"ex":        "externals",
}

// fieldAliases maps field spellings to canonical column names.
var fieldAliases = map[string]string{
	"id":             "id",
	"name":           "name",
	"n":              "name",
	"qualified_name": "qualified_name",
	"q":              "qualified_name",
	"path":           "file_path",
	"file_path":      "file_path",
	"p":              "file_path",
	"complexity":     "complexity",
	"c":              "complexity",
	"kind":           "kind",
	"k":              "kind",
	"line_start":     "line_start",
	"line_end":       "line_end",
	"decorator":      "decorator",
	"decorators":     "decorator",
	"docstring":      "docstring",
}

// showDirections maps SHOW direction spellings to canonical directions.
var showDirections = map[string]string{
	"dependencies": ShowDependencies,
	"deps":         ShowDependencies,
	"dependents":   ShowDependents,
	"impact":       ShowImpact,
	"ancestors":    ShowAncestors,
	"calls":        ShowCalls,
	"callers":      ShowCallers,
}

// aggregates is the set of SELECT aggregate function names.
var aggregates = map[string]bool{
	AggCount: true,
	AggAvg:   true,
	AggMax:   true,
	AggMin:   true,
	AggSum:   true,
}

// CanonicalTable resolves a table name or alias, reporting whether it
// names one of the logical entity tables.
func CanonicalTable(name string) (string, bool) {
	t, ok := tableAliases[name]
	return t, ok
}
