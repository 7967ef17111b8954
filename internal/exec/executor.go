package exec

import (
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/codegraph-dev/codegraph/internal/plan"
	"github.com/codegraph-dev/codegraph/internal/store"
)

// Executor runs plans against one store. It holds no per-query state,
// so a single Executor is safe for concurrent use as long as the
// underlying store is.
type Executor struct {
	store  *store.Store
	logger *zap.Logger
}

// New returns an executor over the given store. A nil logger is
// replaced with a no-op one.
func New(st *store.Store, logger *zap.Logger) *Executor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Executor{store: st, logger: logger}
}

// Run executes one plan and returns its result. Failures carry context
// about the operation; they never panic.
func (x *Executor) Run(p plan.Plan) (*Result, error) {
	start := time.Now()

	var res *Result
	var err error
	switch p := p.(type) {
	case *plan.AnalyticalPlan:
		res, err = x.runAnalytical(p)
	case *plan.GraphPlan:
		res, err = x.runGraph(p)
	case *plan.AnalysisPlan:
		res, err = x.runAnalysis(p)
	case *plan.SchemaPlan:
		res, err = x.runSchema(p)
	default:
		return nil, fmt.Errorf("exec: unsupported plan type %T", p)
	}
	if err != nil {
		return nil, err
	}

	res.Elapsed = time.Since(start)
	x.logger.Debug("plan executed",
		zap.String("plan", fmt.Sprintf("%T", p)),
		zap.Int("rows", res.Count),
		zap.Duration("elapsed", res.Elapsed))
	return res, nil
}

// =============================================================================
// Analytical plans
// =============================================================================

func (x *Executor) runAnalytical(p *plan.AnalyticalPlan) (*Result, error) {
	rows, err := x.store.DB().Query(p.SQL, p.Args...)
	if err != nil {
		return nil, fmt.Errorf("running query: %w", err)
	}
	defer rows.Close()

	out := &Result{Columns: p.Columns}
	width := len(p.Columns)
	for rows.Next() {
		raw := make([]any, width)
		ptrs := make([]any, width)
		for i := range raw {
			ptrs[i] = &raw[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		for i, v := range raw {
			if b, ok := v.([]byte); ok {
				raw[i] = string(b)
			}
		}
		out.Rows = append(out.Rows, raw)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading rows: %w", err)
	}
	out.Count = len(out.Rows)
	return out, nil
}

// =============================================================================
// Graph plans
// =============================================================================

var traversalColumns = []string{"id", "name", "kind", "depth", "via"}

func (x *Executor) runGraph(p *plan.GraphPlan) (*Result, error) {
	switch p.Op {
	case plan.OpDependencies, plan.OpDependents, plan.OpImpact, plan.OpAncestors:
		return x.runTraversal(p)
	case plan.OpFindPath:
		return x.runPath(p)
	case plan.OpRelated:
		return x.runRelated(p)
	}
	return nil, fmt.Errorf("exec: unknown graph operation %q", p.Op)
}

func (x *Executor) runTraversal(p *plan.GraphPlan) (*Result, error) {
	id, err := x.resolve(p.Target)
	if err != nil {
		return nil, err
	}

	depth := p.Depth
	kinds := p.EdgeKinds
	reverse := false
	switch p.Op {
	case plan.OpDependents:
		reverse = true
	case plan.OpImpact:
		reverse = true
		if depth == 0 {
			depth = store.MaxDepth
		}
	case plan.OpAncestors:
		if depth == 0 {
			depth = store.MaxDepth
		}
		if len(kinds) == 0 {
			kinds = []store.EdgeKind{store.EdgeInherits, store.EdgeImplements}
		}
	}
	if depth == 0 {
		depth = 1
	}

	var trs []store.Traversal
	if reverse {
		trs, err = x.store.Dependents(id, depth, kinds)
	} else {
		trs, err = x.store.Dependencies(id, depth, kinds)
	}
	if err != nil {
		return nil, fmt.Errorf("traversing from %q: %w", id, err)
	}

	res := &Result{Columns: traversalColumns, Count: len(trs)}
	for _, tr := range trs {
		res.Rows = append(res.Rows, []any{
			tr.Node.ID, tr.Node.Name, string(tr.Node.Kind), tr.Depth, tr.ParentID,
		})
	}
	res.Tree = buildTree(id, x.store.NodeOrExternal(id), trs)
	return res, nil
}

// buildTree reassembles the flat traversal into a hierarchy under the
// origin. A parent that was deduplicated away reattaches its children
// to the origin so no reached node is dropped from the view.
func buildTree(originID string, origin store.Node, trs []store.Traversal) *TreeNode {
	root := &TreeNode{ID: originID, Name: origin.Name, Kind: string(origin.Kind)}
	byID := map[string]*TreeNode{originID: root}
	for _, tr := range trs {
		byID[tr.Node.ID] = &TreeNode{
			ID:    tr.Node.ID,
			Name:  tr.Node.Name,
			Kind:  string(tr.Node.Kind),
			Depth: tr.Depth,
		}
	}
	for _, tr := range trs {
		parent, ok := byID[tr.ParentID]
		if !ok {
			parent = root
		}
		parent.Children = append(parent.Children, byID[tr.Node.ID])
	}
	return root
}

func (x *Executor) runPath(p *plan.GraphPlan) (*Result, error) {
	fromID, err := x.resolve(p.Target)
	if err != nil {
		return nil, err
	}
	toID, err := x.resolve(p.To)
	if err != nil {
		return nil, err
	}

	depth := p.Depth
	if depth == 0 {
		depth = store.MaxDepth
	}
	path, err := x.store.FindPath(fromID, toID, depth, p.EdgeKinds)
	if err != nil {
		return nil, fmt.Errorf("finding path %q -> %q: %w", fromID, toID, err)
	}

	res := &Result{Columns: []string{"step", "id", "name", "kind"}}
	if path == nil {
		res.Message = "no path found"
		return res, nil
	}
	for i, n := range path {
		res.Rows = append(res.Rows, []any{i, n.ID, n.Name, string(n.Kind)})
	}
	res.Count = len(res.Rows)
	return res, nil
}

func (x *Executor) runRelated(p *plan.GraphPlan) (*Result, error) {
	id, err := x.resolve(p.Target)
	if err != nil {
		return nil, err
	}

	var edges []*store.Edge
	if p.Reverse {
		edges, err = x.store.EdgesFrom(id)
	} else {
		edges, err = x.store.EdgesTo(id)
	}
	if err != nil {
		return nil, fmt.Errorf("loading edges of %q: %w", id, err)
	}

	wantKind, _ := plan.TableKind(p.Table)
	seen := map[string]bool{}
	var nodes []store.Node
	for _, e := range edges {
		if len(p.EdgeKinds) > 0 && e.Kind != p.EdgeKinds[0] {
			continue
		}
		other := e.SourceID
		if p.Reverse {
			other = e.TargetID
		}
		if seen[other] {
			continue
		}
		seen[other] = true
		n := x.store.NodeOrExternal(other)
		if n.Kind != wantKind {
			continue
		}
		nodes = append(nodes, n)
	}
	sort.Slice(nodes, func(i, j int) bool {
		if nodes[i].Name != nodes[j].Name {
			return nodes[i].Name < nodes[j].Name
		}
		return nodes[i].ID < nodes[j].ID
	})

	res := &Result{Columns: []string{"id", "name", "qualified_name", "file_path"}}
	for _, n := range nodes {
		res.Rows = append(res.Rows, []any{n.ID, n.Name, n.QualifiedName, n.FilePath})
	}
	res.Count = len(res.Rows)
	return res, nil
}

// =============================================================================
// Schema plans
// =============================================================================

func (x *Executor) runSchema(p *plan.SchemaPlan) (*Result, error) {
	if p.Columns {
		res := &Result{Columns: []string{"column"}}
		for _, c := range plan.TableColumns {
			res.Rows = append(res.Rows, []any{c})
		}
		res.Count = len(res.Rows)
		return res, nil
	}

	res := &Result{Columns: []string{"table"}}
	for _, t := range plan.Tables {
		res.Rows = append(res.Rows, []any{t})
	}
	res.Count = len(res.Rows)
	return res, nil
}
