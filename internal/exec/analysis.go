package exec

import (
	"fmt"

	"github.com/codegraph-dev/codegraph/internal/plan"
	"github.com/codegraph-dev/codegraph/internal/store"
)

// Built-in analysis defaults.
const (
	defaultComplexityThreshold = 10
	defaultHotspotLimit        = 10
)

func (x *Executor) runAnalysis(p *plan.AnalysisPlan) (*Result, error) {
	switch p.Analysis {
	case "circular":
		return x.analyzeCircular()
	case "complexity":
		return x.analyzeComplexity(p)
	case "coupling":
		return x.analyzeCoupling()
	case "cohesion":
		return x.analyzeCohesion()
	case "hotspots":
		return x.analyzeHotspots(p)
	case "unused":
		return x.analyzeUnused()
	case "impact":
		return x.analyzeImpact(p)
	}
	return nil, fmt.Errorf("unknown analysis %q", p.Analysis)
}

// analyzeCircular reports pairs of modules that import each other.
func (x *Executor) analyzeCircular() (*Result, error) {
	pairs, err := x.store.FindCycles([]store.EdgeKind{store.EdgeImports})
	if err != nil {
		return nil, fmt.Errorf("detecting cycles: %w", err)
	}

	res := &Result{Columns: []string{"a", "b", "edge_kind"}}
	for _, p := range pairs {
		res.Rows = append(res.Rows, []any{p.A.ID, p.B.ID, string(p.Kind)})
	}
	res.Count = len(res.Rows)
	if res.Count == 0 {
		res.Message = "no circular imports found"
	}
	return res, nil
}

// analyzeComplexity lists functions at or above a complexity threshold,
// worst first.
func (x *Executor) analyzeComplexity(p *plan.AnalysisPlan) (*Result, error) {
	threshold := float64(defaultComplexityThreshold)
	if p.HasThreshold {
		threshold = p.Threshold
	}
	return x.queryRows(
		[]string{"id", "name", "file_path", "complexity"},
		`SELECT id, name, file_path, complexity FROM nodes
		 WHERE kind = ? AND complexity >= ?
		 ORDER BY complexity DESC, name`,
		string(store.KindFunction), threshold)
}

// analyzeCoupling reports per-module import fan-out and fan-in.
func (x *Executor) analyzeCoupling() (*Result, error) {
	return x.queryRows(
		[]string{"module", "fan_out", "fan_in"},
		`SELECT n.id,
		        (SELECT COUNT(*) FROM edges e WHERE e.source_id = n.id AND e.kind = ?) AS fan_out,
		        (SELECT COUNT(*) FROM edges e WHERE e.target_id = n.id AND e.kind = ?) AS fan_in
		 FROM nodes n WHERE n.kind = ?
		 ORDER BY fan_out + fan_in DESC, n.id`,
		string(store.EdgeImports), string(store.EdgeImports), string(store.KindModule))
}

// analyzeCohesion scores each module by the share of its members' edges
// that stay inside the module. Members are the transitive contains
// closure (classes, their methods, entities); a module with no member
// edges scores zero.
func (x *Executor) analyzeCohesion() (*Result, error) {
	return x.queryRows(
		[]string{"module", "internal_edges", "external_edges", "cohesion"},
		`WITH RECURSIVE members(module_id, member_id) AS (
		   SELECT c.source_id, c.target_id
		   FROM edges c
		   JOIN nodes mn ON mn.id = c.source_id AND mn.kind = ?
		   WHERE c.kind = ?
		   UNION
		   SELECT m.module_id, c.target_id
		   FROM edges c
		   JOIN members m ON c.source_id = m.member_id
		   WHERE c.kind = ?
		 ),
		 scored AS (
		   SELECT m.module_id,
		          SUM(CASE WHEN e.target_id IN
		                (SELECT member_id FROM members m2 WHERE m2.module_id = m.module_id)
		              THEN 1 ELSE 0 END) AS internal_edges,
		          SUM(CASE WHEN e.target_id NOT IN
		                (SELECT member_id FROM members m2 WHERE m2.module_id = m.module_id)
		              THEN 1 ELSE 0 END) AS external_edges
		   FROM members m
		   JOIN edges e ON e.source_id = m.member_id AND e.kind != ?
		   GROUP BY m.module_id
		 )
		 SELECT n.id,
		        COALESCE(s.internal_edges, 0),
		        COALESCE(s.external_edges, 0),
		        ROUND(CAST(COALESCE(s.internal_edges, 0) AS REAL) /
		              MAX(COALESCE(s.internal_edges, 0) + COALESCE(s.external_edges, 0), 1), 3)
		 FROM nodes n
		 LEFT JOIN scored s ON s.module_id = n.id
		 WHERE n.kind = ?
		 ORDER BY 4 DESC, n.id`,
		string(store.KindModule), string(store.EdgeContains), string(store.EdgeContains),
		string(store.EdgeContains), string(store.KindModule))
}

// analyzeHotspots ranks nodes by inbound reference count. The optional
// threshold caps the list length.
func (x *Executor) analyzeHotspots(p *plan.AnalysisPlan) (*Result, error) {
	limit := defaultHotspotLimit
	if p.HasThreshold {
		limit = int(p.Threshold)
	}
	return x.queryRows(
		[]string{"id", "name", "kind", "fan_in"},
		`SELECT n.id, n.name, n.kind, COUNT(e.id) AS fan_in
		 FROM nodes n
		 JOIN edges e ON e.target_id = n.id AND e.kind != ?
		 GROUP BY n.id
		 ORDER BY fan_in DESC, n.id
		 LIMIT ?`,
		string(store.EdgeContains), limit)
}

// analyzeUnused lists functions and classes nothing references. Inbound
// contains edges do not count as use; module entry points named main
// are skipped.
func (x *Executor) analyzeUnused() (*Result, error) {
	return x.queryRows(
		[]string{"id", "name", "kind", "file_path"},
		`SELECT n.id, n.name, n.kind, n.file_path
		 FROM nodes n
		 WHERE n.kind IN (?, ?)
		   AND n.name != 'main'
		   AND NOT EXISTS (
		     SELECT 1 FROM edges e
		     WHERE e.target_id = n.id AND e.kind != ?)
		 ORDER BY n.file_path, n.name`,
		string(store.KindFunction), string(store.KindClass), string(store.EdgeContains))
}

// analyzeImpact lists everything transitively depending on the scope
// node, nearest first.
func (x *Executor) analyzeImpact(p *plan.AnalysisPlan) (*Result, error) {
	if p.Scope == "" {
		return nil, fmt.Errorf("impact analysis requires a scope (ANALYZE impact OF <name>)")
	}
	id, err := x.resolve(p.Scope)
	if err != nil {
		return nil, err
	}

	trs, err := x.store.Dependents(id, store.MaxDepth, nil)
	if err != nil {
		return nil, fmt.Errorf("computing impact of %q: %w", id, err)
	}

	res := &Result{Columns: []string{"id", "name", "kind", "distance"}}
	for _, tr := range trs {
		res.Rows = append(res.Rows, []any{tr.Node.ID, tr.Node.Name, string(tr.Node.Kind), tr.Depth})
	}
	res.Count = len(res.Rows)
	return res, nil
}

// queryRows runs one SQL statement and shapes it into a Result.
func (x *Executor) queryRows(columns []string, sql string, args ...any) (*Result, error) {
	return x.runAnalytical(&plan.AnalyticalPlan{SQL: sql, Args: args, Columns: columns})
}
