package store

import (
	"database/sql"
	"fmt"
	"time"
)

// nodeCols is the canonical node column list used by every node scan.
const nodeCols = "id, kind, name, qualified_name, file_path, line_start, line_end, properties, complexity, created_at, updated_at"

// scanner abstracts *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanNode(row scanner) (*Node, error) {
	var n Node
	var kind, props string
	err := row.Scan(
		&n.ID, &kind, &n.Name, &n.QualifiedName, &n.FilePath,
		&n.LineStart, &n.LineEnd, &props, &n.Complexity,
		&n.CreatedAt, &n.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	n.Kind = NodeKind(kind)
	n.Properties = unmarshalProps(props)
	return &n, nil
}

// UpsertNode inserts a node or, when the id already exists, updates it in
// place. Kind and created_at are immutable across upserts.
func (s *Store) UpsertNode(n *Node) error {
	return upsertNode(s.db, n)
}

func upsertNode(db gdb, n *Node) error {
	if n.ID == "" {
		return fmt.Errorf("upsert node: empty id")
	}
	if n.Kind == "" {
		return fmt.Errorf("upsert node %s: empty kind", n.ID)
	}
	now := time.Now().UTC()
	_, err := db.Exec(`
		INSERT INTO nodes (`+nodeCols+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			qualified_name = excluded.qualified_name,
			file_path = excluded.file_path,
			line_start = excluded.line_start,
			line_end = excluded.line_end,
			properties = excluded.properties,
			complexity = excluded.complexity,
			updated_at = excluded.updated_at`,
		n.ID, string(n.Kind), n.Name, n.QualifiedName, n.FilePath,
		n.LineStart, n.LineEnd, marshalProps(n.Properties), n.Complexity,
		now, now,
	)
	if err != nil {
		return fmt.Errorf("upsert node %s: %w", n.ID, err)
	}
	return nil
}

// Node returns the node with the given id, or nil if absent.
func (s *Store) Node(id string) (*Node, error) {
	n, err := scanNode(s.db.QueryRow("SELECT "+nodeCols+" FROM nodes WHERE id = ?", id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("node %s: %w", id, err)
	}
	return n, nil
}

// Nodes returns all nodes, optionally restricted to one kind. Results are
// ordered by name for stable output.
func (s *Store) Nodes(kind NodeKind) ([]*Node, error) {
	q := "SELECT " + nodeCols + " FROM nodes"
	var args []any
	if kind != "" {
		q += " WHERE kind = ?"
		args = append(args, string(kind))
	}
	q += " ORDER BY name, id"

	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("nodes: %w", err)
	}
	defer rows.Close()

	var nodes []*Node
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			return nil, fmt.Errorf("nodes: scan: %w", err)
		}
		nodes = append(nodes, n)
	}
	return nodes, rows.Err()
}

// NodesInFile returns all nodes recorded against one source file.
// Used for incremental rebuilds of a single module.
func (s *Store) NodesInFile(filePath string) ([]*Node, error) {
	return nodesInFile(s.db, filePath)
}

func nodesInFile(db gdb, filePath string) ([]*Node, error) {
	rows, err := db.Query(
		"SELECT "+nodeCols+" FROM nodes WHERE file_path = ? ORDER BY id", filePath,
	)
	if err != nil {
		return nil, fmt.Errorf("nodes in file %q: %w", filePath, err)
	}
	defer rows.Close()

	var nodes []*Node
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			return nil, fmt.Errorf("nodes in file: scan: %w", err)
		}
		nodes = append(nodes, n)
	}
	return nodes, rows.Err()
}

// NodesByName returns nodes matching name exactly, by display name or
// qualified name. Used for bare-name resolution in queries.
func (s *Store) NodesByName(name string) ([]*Node, error) {
	return nodesByName(s.db, name)
}

func nodesByName(db gdb, name string) ([]*Node, error) {
	rows, err := db.Query(
		"SELECT "+nodeCols+" FROM nodes WHERE name = ? OR qualified_name = ? ORDER BY kind, id",
		name, name,
	)
	if err != nil {
		return nil, fmt.Errorf("nodes by name %q: %w", name, err)
	}
	defer rows.Close()

	var nodes []*Node
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			return nil, fmt.Errorf("nodes by name: scan: %w", err)
		}
		nodes = append(nodes, n)
	}
	return nodes, rows.Err()
}

// NodesMatching returns nodes whose name or qualified name contains the
// given fragment. Fallback when exact resolution finds nothing.
func (s *Store) NodesMatching(fragment string) ([]*Node, error) {
	like := "%" + escapeLike(fragment) + "%"
	rows, err := s.db.Query(
		`SELECT `+nodeCols+` FROM nodes
		 WHERE name LIKE ? ESCAPE '\' OR qualified_name LIKE ? ESCAPE '\'
		 ORDER BY kind, id`,
		like, like,
	)
	if err != nil {
		return nil, fmt.Errorf("nodes matching %q: %w", fragment, err)
	}
	defer rows.Close()

	var nodes []*Node
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			return nil, fmt.Errorf("nodes matching: scan: %w", err)
		}
		nodes = append(nodes, n)
	}
	return nodes, rows.Err()
}

// DeleteNode removes a node and every edge touching it, atomically.
func (s *Store) DeleteNode(id string) error {
	return s.WithTx(func(tx *Tx) error {
		return deleteNode(tx.tx, id)
	})
}

func deleteNode(db gdb, id string) error {
	if _, err := db.Exec("DELETE FROM edges WHERE source_id = ? OR target_id = ?", id, id); err != nil {
		return fmt.Errorf("delete node %s: edges: %w", id, err)
	}
	if _, err := db.Exec("DELETE FROM nodes WHERE id = ?", id); err != nil {
		return fmt.Errorf("delete node %s: %w", id, err)
	}
	return nil
}

// escapeLike escapes LIKE wildcards in a user-supplied fragment.
func escapeLike(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '%', '_', '\\':
			out = append(out, '\\')
		}
		out = append(out, s[i])
	}
	return string(out)
}
