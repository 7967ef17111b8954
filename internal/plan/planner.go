package plan

import (
	"fmt"
	"strings"

	"github.com/codegraph-dev/codegraph/internal/muql"
	"github.com/codegraph-dev/codegraph/internal/store"
)

// Build converts one parsed query into an execution plan. Dispatch is an
// exhaustive type switch over the AST variants; an unknown variant is a
// programming error surfaced as a plan failure, not a panic.
func Build(q muql.Query) (Plan, error) {
	switch q := q.(type) {
	case *muql.SelectQuery:
		return buildSelect(q)
	case *muql.ShowQuery:
		return buildShow(q)
	case *muql.FindQuery:
		return buildFind(q)
	case *muql.PathQuery:
		return buildPath(q)
	case *muql.AnalyzeQuery:
		return &AnalysisPlan{
			Analysis:     q.Analysis,
			Scope:        q.Scope,
			Threshold:    float64(q.Threshold),
			HasThreshold: q.HasThreshold,
		}, nil
	case *muql.DescribeQuery:
		return buildDescribe(q)
	}
	return nil, fmt.Errorf("plan: unsupported query type %T", q)
}

// =============================================================================
// SELECT -> AnalyticalPlan
// =============================================================================

func buildSelect(q *muql.SelectQuery) (Plan, error) {
	kind, ok := TableKind(q.Table)
	if !ok {
		return nil, fmt.Errorf("plan: unknown table %q", q.Table)
	}

	var projection string
	var columns []string
	switch {
	case q.Aggregate != "":
		expr, name, err := aggregateExpr(q.Aggregate, q.AggregateField)
		if err != nil {
			return nil, err
		}
		projection = expr + " AS " + name
		columns = []string{name}
	case len(q.Fields) == 1 && q.Fields[0] == "*":
		projection = strings.Join(selectableColumns, ", ")
		columns = selectableColumns
	default:
		for _, f := range q.Fields {
			if !isSelectable(f) {
				return nil, fmt.Errorf("plan: field %q is filter-only and cannot be projected", f)
			}
		}
		projection = strings.Join(q.Fields, ", ")
		columns = q.Fields
	}

	sql := "SELECT " + projection + " FROM nodes WHERE kind = ?"
	args := []any{string(kind)}

	if q.Where != nil {
		condSQL, condArgs, err := whereSQL(q.Where)
		if err != nil {
			return nil, err
		}
		sql += " AND (" + condSQL + ")"
		args = append(args, condArgs...)
	}

	if q.OrderBy != "" {
		if !isSelectable(q.OrderBy) {
			return nil, fmt.Errorf("plan: cannot order by %q", q.OrderBy)
		}
		sql += " ORDER BY " + q.OrderBy
		if q.OrderDesc {
			sql += " DESC"
		}
	} else if q.Aggregate == "" {
		// Stable default ordering for non-aggregate scans.
		sql += " ORDER BY name, id"
	}

	if q.Limit > 0 {
		sql += " LIMIT ?"
		args = append(args, q.Limit)
	}

	return &AnalyticalPlan{SQL: sql, Args: args, Columns: columns}, nil
}

func aggregateExpr(agg, field string) (expr, name string, err error) {
	if field == "*" {
		if agg != muql.AggCount {
			return "", "", fmt.Errorf("plan: %s requires a field", agg)
		}
		return "COUNT(*)", "count", nil
	}
	if !isSelectable(field) {
		return "", "", fmt.Errorf("plan: cannot aggregate over %q", field)
	}
	return strings.ToUpper(agg) + "(" + field + ")", agg + "_" + field, nil
}

func isSelectable(field string) bool {
	for _, c := range selectableColumns {
		if c == field {
			return true
		}
	}
	return false
}

// whereSQL renders an AND/OR condition chain with strict left-to-right
// grouping: a OR b AND c becomes ((a OR b) AND c).
func whereSQL(w *muql.Where) (string, []any, error) {
	sql, args, err := condSQL(w.Conds[0])
	if err != nil {
		return "", nil, err
	}
	for i, op := range w.Ops {
		next, nextArgs, err := condSQL(w.Conds[i+1])
		if err != nil {
			return "", nil, err
		}
		sql = "(" + sql + " " + strings.ToUpper(string(op)) + " " + next + ")"
		args = append(args, nextArgs...)
	}
	return sql, args, nil
}

func condSQL(c muql.Condition) (string, []any, error) {
	if c.Field == "decorator" {
		return bagListCond("$.decorators", c)
	}

	expr := c.Field
	if c.Field == "docstring" {
		expr = "COALESCE(json_extract(properties, '$.docstring'), '')"
	}

	switch c.Op {
	case muql.OpEq, muql.OpNeq, muql.OpGt, muql.OpLt, muql.OpGte, muql.OpLte:
		return expr + " " + string(c.Op) + " ?", []any{literalArg(c.Value)}, nil
	case muql.OpLike, muql.OpContains:
		if c.Value.Kind != muql.LiteralString {
			return "", nil, fmt.Errorf("plan: %s requires a string value", c.Op)
		}
		return expr + ` LIKE ? ESCAPE '\'`, []any{"%" + escapeLike(c.Value.Text) + "%"}, nil
	case muql.OpIn:
		if len(c.Value.List) == 0 {
			return "", nil, fmt.Errorf("plan: IN requires a non-empty list")
		}
		ph := strings.Repeat("?,", len(c.Value.List)-1) + "?"
		args := make([]any, len(c.Value.List))
		for i, v := range c.Value.List {
			args[i] = v
		}
		return expr + " IN (" + ph + ")", args, nil
	}
	return "", nil, fmt.Errorf("plan: unsupported operator %q", c.Op)
}

// bagListCond matches against a JSON string list in the property bag.
func bagListCond(path string, c muql.Condition) (string, []any, error) {
	sub := "SELECT 1 FROM json_each(properties, '" + path + "') WHERE json_each.value"
	switch c.Op {
	case muql.OpEq, muql.OpContains:
		return "EXISTS (" + sub + " = ?)", []any{literalArg(c.Value)}, nil
	case muql.OpNeq:
		return "NOT EXISTS (" + sub + " = ?)", []any{literalArg(c.Value)}, nil
	case muql.OpLike:
		if c.Value.Kind != muql.LiteralString {
			return "", nil, fmt.Errorf("plan: %s requires a string value", c.Op)
		}
		return "EXISTS (" + sub + ` LIKE ? ESCAPE '\')`, []any{"%" + escapeLike(c.Value.Text) + "%"}, nil
	case muql.OpIn:
		if len(c.Value.List) == 0 {
			return "", nil, fmt.Errorf("plan: IN requires a non-empty list")
		}
		ph := strings.Repeat("?,", len(c.Value.List)-1) + "?"
		args := make([]any, len(c.Value.List))
		for i, v := range c.Value.List {
			args[i] = v
		}
		return "EXISTS (" + sub + " IN (" + ph + "))", args, nil
	}
	return "", nil, fmt.Errorf("plan: operator %q not supported on decorator", c.Op)
}

func literalArg(v muql.Literal) any {
	if v.Kind == muql.LiteralNumber {
		return v.Number
	}
	return v.Text
}

func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "%", `\%`)
	s = strings.ReplaceAll(s, "_", `\_`)
	return s
}

// =============================================================================
// SHOW / PATH / FIND -> GraphPlan
// =============================================================================

func buildShow(q *muql.ShowQuery) (Plan, error) {
	kinds, err := edgeKinds(q.EdgeKinds)
	if err != nil {
		return nil, err
	}

	p := &GraphPlan{Target: q.Target, Depth: q.Depth, EdgeKinds: kinds}
	switch q.Direction {
	case muql.ShowDependencies:
		p.Op = OpDependencies
	case muql.ShowDependents:
		p.Op = OpDependents
	case muql.ShowImpact:
		p.Op = OpImpact
	case muql.ShowAncestors:
		p.Op = OpAncestors
	case muql.ShowCalls:
		p.Op = OpDependencies
		p.EdgeKinds = []store.EdgeKind{store.EdgeCalls}
	case muql.ShowCallers:
		p.Op = OpDependents
		p.EdgeKinds = []store.EdgeKind{store.EdgeCalls}
	default:
		return nil, fmt.Errorf("plan: unknown show direction %q", q.Direction)
	}
	return p, nil
}

func buildPath(q *muql.PathQuery) (Plan, error) {
	kinds, err := edgeKinds(q.EdgeKinds)
	if err != nil {
		return nil, err
	}
	return &GraphPlan{
		Op:        OpFindPath,
		Target:    q.From,
		To:        q.To,
		Depth:     q.MaxDepth,
		EdgeKinds: kinds,
	}, nil
}

// findRelations maps each FIND relation to its edge kind and direction.
// Reverse=false returns sources of edges pointing at the argument;
// Reverse=true returns targets of edges leaving it.
var findRelations = map[string]struct {
	kind    store.EdgeKind
	reverse bool
}{
	muql.RelCalling:      {store.EdgeCalls, false},
	muql.RelCalledBy:     {store.EdgeCalls, true},
	muql.RelImporting:    {store.EdgeImports, false},
	muql.RelImportedBy:   {store.EdgeImports, true},
	muql.RelExtending:    {store.EdgeInherits, false},
	muql.RelImplementing: {store.EdgeImplements, false},
	muql.RelUsing:        {store.EdgeUses, false},
}

func buildFind(q *muql.FindQuery) (Plan, error) {
	kind, ok := TableKind(q.Table)
	if !ok {
		return nil, fmt.Errorf("plan: unknown table %q", q.Table)
	}

	switch q.Relation {
	case muql.RelDecorator, muql.RelAnnotation:
		path := "$.decorators"
		if q.Relation == muql.RelAnnotation {
			path = "$.annotations"
		}
		sql := "SELECT " + strings.Join(selectableColumns, ", ") + " FROM nodes" +
			" WHERE kind = ? AND EXISTS (SELECT 1 FROM json_each(properties, '" + path + "') WHERE json_each.value = ?)" +
			" ORDER BY name, id"
		return &AnalyticalPlan{
			SQL:     sql,
			Args:    []any{string(kind), q.Argument},
			Columns: selectableColumns,
		}, nil
	}

	rel, ok := findRelations[q.Relation]
	if !ok {
		return nil, fmt.Errorf("plan: unknown find relation %q", q.Relation)
	}
	return &GraphPlan{
		Op:        OpRelated,
		Target:    q.Argument,
		EdgeKinds: []store.EdgeKind{rel.kind},
		Table:     q.Table,
		Reverse:   rel.reverse,
	}, nil
}

func edgeKinds(names []string) ([]store.EdgeKind, error) {
	if len(names) == 0 {
		return nil, nil
	}
	kinds := make([]store.EdgeKind, 0, len(names))
	for _, n := range names {
		k, ok := validEdgeKinds[n]
		if !ok {
			return nil, fmt.Errorf("plan: unknown edge kind %q", n)
		}
		kinds = append(kinds, k)
	}
	return kinds, nil
}

// =============================================================================
// DESCRIBE -> SchemaPlan
// =============================================================================

func buildDescribe(q *muql.DescribeQuery) (Plan, error) {
	if q.Columns {
		if _, ok := TableKind(q.Table); !ok {
			return nil, fmt.Errorf("plan: unknown table %q", q.Table)
		}
		return &SchemaPlan{Columns: true, Table: q.Table}, nil
	}
	return &SchemaPlan{}, nil
}
