package store

import (
	"database/sql"
	"fmt"
)

// gdb is the query surface shared by *sql.DB and *sql.Tx, so one set of
// statement helpers can serve both autocommit calls and transactions.
type gdb interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

var (
	_ gdb = (*sql.DB)(nil)
	_ gdb = (*sql.Tx)(nil)
)

// Tx is a write transaction over the graph. All writes made through it
// become visible together on commit, or not at all.
type Tx struct {
	tx *sql.Tx
}

// WithTx runs fn inside a single transaction. An error from fn rolls
// every write back; otherwise the transaction commits. Multi-step
// mutations (full rebuilds, incremental module updates) go through here
// so a mid-sequence failure never leaves the graph half-written.
func (s *Store) WithTx(fn func(*Tx) error) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()
	if err := fn(&Tx{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// UpsertNode is UpsertNode scoped to this transaction.
func (t *Tx) UpsertNode(n *Node) error {
	return upsertNode(t.tx, n)
}

// UpsertEdge is UpsertEdge scoped to this transaction.
func (t *Tx) UpsertEdge(e *Edge) error {
	return upsertEdge(t.tx, e)
}

// DeleteNode removes a node and every edge touching it.
func (t *Tx) DeleteNode(id string) error {
	return deleteNode(t.tx, id)
}

// DeleteEdgesFrom removes all edges sourced at the given node.
func (t *Tx) DeleteEdgesFrom(sourceID string) error {
	return deleteEdgesFrom(t.tx, sourceID)
}

// NodesByName is NodesByName reading through this transaction, so it
// observes the transaction's own uncommitted writes and deletes.
func (t *Tx) NodesByName(name string) ([]*Node, error) {
	return nodesByName(t.tx, name)
}

// NodesInFile is NodesInFile reading through this transaction.
func (t *Tx) NodesInFile(filePath string) ([]*Node, error) {
	return nodesInFile(t.tx, filePath)
}

// Clear removes every node and edge. The schema and metadata stamp
// survive.
func (t *Tx) Clear() error {
	return clearGraph(t.tx)
}

func clearGraph(db gdb) error {
	if _, err := db.Exec("DELETE FROM edges"); err != nil {
		return fmt.Errorf("clear edges: %w", err)
	}
	if _, err := db.Exec("DELETE FROM nodes"); err != nil {
		return fmt.Errorf("clear nodes: %w", err)
	}
	return nil
}
