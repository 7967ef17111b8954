package store

import (
	"database/sql"
	"fmt"
	"strings"
)

// cycleCap bounds FindCycles output so dense graphs can't flood callers.
const cycleCap = 50

// Dependencies returns every node reachable from nodeID by following
// edges forward (source -> target), up to depth hops. Depth 1 is a
// single join; deeper walks use a recursive CTE that carries the visited
// path in each row, so cycles terminate. Depth is clamped to MaxDepth.
//
// Reached ids with no stored node are returned as synthesized external
// nodes rather than dropped: edges may legally point at symbols that
// were never ingested.
func (s *Store) Dependencies(nodeID string, depth int, kinds []EdgeKind) ([]Traversal, error) {
	return s.walk(nodeID, depth, kinds, false)
}

// Dependents returns every node that reaches nodeID by following edges
// backward (target -> source), up to depth hops. Same cycle and depth
// bounds as Dependencies.
func (s *Store) Dependents(nodeID string, depth int, kinds []EdgeKind) ([]Traversal, error) {
	return s.walk(nodeID, depth, kinds, true)
}

func (s *Store) walk(nodeID string, depth int, kinds []EdgeKind, reverse bool) ([]Traversal, error) {
	label := "dependencies"
	if reverse {
		label = "dependents"
	}
	if depth < 1 {
		return nil, fmt.Errorf("%s: depth must be positive, got %d", label, depth)
	}
	if depth > MaxDepth {
		depth = MaxDepth
	}

	// Walk direction: forward follows source->target, reverse follows
	// target->source.
	hop, from := "e.target_id", "e.source_id"
	if reverse {
		hop, from = "e.source_id", "e.target_id"
	}

	kindSQL, kindArgs := edgeKindFilter("e", kinds)

	var q string
	var args []any
	if depth == 1 {
		q = fmt.Sprintf(`
			SELECT w.id, w.depth, w.parent, %s
			FROM (
				SELECT %s AS id, 1 AS depth, %s AS parent
				FROM edges e WHERE %s = ?%s
			) w
			LEFT JOIN nodes n ON n.id = w.id
			ORDER BY w.depth, w.id`,
			nullableNodeCols, hop, from, from, kindSQL)
		args = append(args, nodeID)
		args = append(args, kindArgs...)
	} else {
		q = fmt.Sprintf(`
			WITH RECURSIVE walk(id, depth, parent, path) AS (
				SELECT %s, 1, %s, ',' || %s || ',' || %s || ','
				FROM edges e WHERE %s = ?%s
				UNION ALL
				SELECT %s, w.depth + 1, w.id, w.path || %s || ','
				FROM edges e JOIN walk w ON %s = w.id
				WHERE w.depth < ? AND instr(w.path, ',' || %s || ',') = 0%s
			)
			SELECT w.id, w.depth, w.parent, %s
			FROM walk w LEFT JOIN nodes n ON n.id = w.id
			ORDER BY w.depth, w.id`,
			hop, from, from, hop, from, kindSQL,
			hop, hop, from, hop, kindSQL,
			nullableNodeCols)
		args = append(args, nodeID)
		args = append(args, kindArgs...)
		args = append(args, depth)
		args = append(args, kindArgs...)
	}

	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("%s of %s: %w", label, nodeID, err)
	}
	defer rows.Close()

	// The CTE may reach a node along several paths; keep the shallowest
	// occurrence of each id. Rows arrive ordered by depth.
	seen := make(map[string]bool)
	var out []Traversal
	for rows.Next() {
		t, err := scanTraversal(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: scan: %w", label, err)
		}
		if seen[t.Node.ID] || t.Node.ID == nodeID {
			continue
		}
		seen[t.Node.ID] = true
		out = append(out, *t)
	}
	return out, rows.Err()
}

// nullableNodeCols selects node columns from the LEFT JOINed nodes table.
const nullableNodeCols = "n.id, n.kind, n.name, n.qualified_name, n.file_path, n.line_start, n.line_end, n.properties, n.complexity"

// scanTraversal scans [id, depth, parent, nullableNodeCols...], filling in
// a synthesized external node when the id has no stored row.
func scanTraversal(rows *sql.Rows) (*Traversal, error) {
	var t Traversal
	var id string
	var nID, nKind, nName, nQual, nPath, nProps sql.NullString
	var nStart, nEnd sql.NullInt64
	var nComplexity sql.NullFloat64
	err := rows.Scan(
		&id, &t.Depth, &t.ParentID,
		&nID, &nKind, &nName, &nQual, &nPath, &nStart, &nEnd, &nProps, &nComplexity,
	)
	if err != nil {
		return nil, err
	}
	if nID.Valid {
		t.Node = Node{
			ID:            nID.String,
			Kind:          NodeKind(nKind.String),
			Name:          nName.String,
			QualifiedName: nQual.String,
			FilePath:      nPath.String,
			LineStart:     int(nStart.Int64),
			LineEnd:       int(nEnd.Int64),
			Properties:    unmarshalProps(nProps.String),
			Complexity:    nComplexity.Float64,
		}
	} else {
		t.Node = externalNode(id)
	}
	return &t, nil
}

// externalNode synthesizes a read-only view for a dangling edge target.
func externalNode(id string) Node {
	name := id
	if i := strings.LastIndex(id, ":"); i >= 0 && i < len(id)-1 {
		name = id[i+1:]
	}
	return Node{ID: id, Kind: KindExternal, Name: name, QualifiedName: name}
}

// FindPath returns the first shortest path from fromID to toID within
// maxDepth hops, or nil when no path exists (not an error). The walk
// excludes nodes already on the current path, so cyclic graphs terminate.
func (s *Store) FindPath(fromID, toID string, maxDepth int, kinds []EdgeKind) ([]Node, error) {
	if maxDepth < 1 {
		return nil, fmt.Errorf("find path: maxDepth must be positive, got %d", maxDepth)
	}
	if maxDepth > MaxDepth {
		maxDepth = MaxDepth
	}
	if fromID == toID {
		return []Node{s.NodeOrExternal(fromID)}, nil
	}

	kindSQL, kindArgs := edgeKindFilter("e", kinds)

	q := fmt.Sprintf(`
		WITH RECURSIVE walk(id, depth, path) AS (
			SELECT e.target_id, 1, ',' || e.source_id || ',' || e.target_id || ','
			FROM edges e WHERE e.source_id = ?%s
			UNION ALL
			SELECT e.target_id, w.depth + 1, w.path || e.target_id || ','
			FROM edges e JOIN walk w ON e.source_id = w.id
			WHERE w.depth < ? AND w.id != ?
			  AND instr(w.path, ',' || e.target_id || ',') = 0%s
		)
		SELECT w.path FROM walk w WHERE w.id = ? ORDER BY w.depth LIMIT 1`,
		kindSQL, kindSQL)

	var args []any
	args = append(args, fromID)
	args = append(args, kindArgs...)
	args = append(args, maxDepth, toID)
	args = append(args, kindArgs...)
	args = append(args, toID)

	var path string
	err := s.db.QueryRow(q, args...).Scan(&path)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find path %s -> %s: %w", fromID, toID, err)
	}

	ids := strings.Split(strings.Trim(path, ","), ",")
	nodes := make([]Node, 0, len(ids))
	for _, id := range ids {
		nodes = append(nodes, s.NodeOrExternal(id))
	}
	return nodes, nil
}

// NodeOrExternal loads a node by id, synthesizing an external view for
// ids with no stored row.
func (s *Store) NodeOrExternal(id string) Node {
	n, err := s.Node(id)
	if err != nil || n == nil {
		return externalNode(id)
	}
	return *n
}

// FindCycles detects pairs of nodes connected by mutual edges of the
// same kind (A->B and B->A). Output is capped at 50 pairs. An empty
// kinds slice considers every edge kind.
func (s *Store) FindCycles(kinds []EdgeKind) ([]CyclePair, error) {
	kindSQL, kindArgs := edgeKindFilter("e1", kinds)

	q := `
		SELECT e1.source_id, e1.target_id, e1.kind
		FROM edges e1
		JOIN edges e2 ON e1.source_id = e2.target_id
		             AND e1.target_id = e2.source_id
		             AND e1.kind = e2.kind
		WHERE e1.source_id < e1.target_id` + kindSQL + `
		ORDER BY e1.kind, e1.source_id, e1.target_id
		LIMIT ?`

	args := append(kindArgs, cycleCap)
	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("find cycles: %w", err)
	}
	defer rows.Close()

	var pairs []CyclePair
	for rows.Next() {
		var aID, bID, kind string
		if err := rows.Scan(&aID, &bID, &kind); err != nil {
			return nil, fmt.Errorf("find cycles: scan: %w", err)
		}
		pairs = append(pairs, CyclePair{
			A:    s.NodeOrExternal(aID),
			B:    s.NodeOrExternal(bID),
			Kind: EdgeKind(kind),
		})
	}
	return pairs, rows.Err()
}
