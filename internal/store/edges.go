package store

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

const edgeCols = "id, source_id, target_id, kind, properties, weight, created_at"

func scanEdge(row scanner) (*Edge, error) {
	var e Edge
	var kind, props string
	err := row.Scan(&e.ID, &e.SourceID, &e.TargetID, &kind, &props, &e.Weight, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	e.Kind = EdgeKind(kind)
	e.Properties = unmarshalProps(props)
	return &e, nil
}

// UpsertEdge inserts an edge or, when (source, target, kind) already
// exists, updates its properties and weight in place. A blank ID is
// filled with a generated UUID; on conflict the stored row keeps its
// original id, and e.ID is set to whatever the database holds after the
// call. The target id is not required to resolve to a stored node;
// dangling targets are treated as external symbols.
func (s *Store) UpsertEdge(e *Edge) error {
	return upsertEdge(s.db, e)
}

func upsertEdge(db gdb, e *Edge) error {
	if e.SourceID == "" || e.TargetID == "" {
		return fmt.Errorf("upsert edge: empty endpoint (source=%q target=%q)", e.SourceID, e.TargetID)
	}
	if e.Kind == "" {
		return fmt.Errorf("upsert edge %s->%s: empty kind", e.SourceID, e.TargetID)
	}
	id := e.ID
	if id == "" {
		id = uuid.NewString()
	}
	weight := e.Weight
	if weight == 0 {
		weight = 1.0
	}
	var stored string
	err := db.QueryRow(`
		INSERT INTO edges (`+edgeCols+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(source_id, target_id, kind) DO UPDATE SET
			properties = excluded.properties,
			weight = excluded.weight
		RETURNING id`,
		id, e.SourceID, e.TargetID, string(e.Kind),
		marshalProps(e.Properties), weight, time.Now().UTC(),
	).Scan(&stored)
	if err != nil {
		return fmt.Errorf("upsert edge %s-[%s]->%s: %w", e.SourceID, e.Kind, e.TargetID, err)
	}
	e.ID = stored
	return nil
}

// Edges returns all edges, optionally restricted to one kind.
func (s *Store) Edges(kind EdgeKind) ([]*Edge, error) {
	q := "SELECT " + edgeCols + " FROM edges"
	var args []any
	if kind != "" {
		q += " WHERE kind = ?"
		args = append(args, string(kind))
	}
	q += " ORDER BY source_id, target_id"

	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("edges: %w", err)
	}
	defer rows.Close()

	var edges []*Edge
	for rows.Next() {
		e, err := scanEdge(rows)
		if err != nil {
			return nil, fmt.Errorf("edges: scan: %w", err)
		}
		edges = append(edges, e)
	}
	return edges, rows.Err()
}

// EdgesFrom returns edges whose source is the given node.
func (s *Store) EdgesFrom(sourceID string) ([]*Edge, error) {
	return s.edgesWhere("source_id = ?", sourceID)
}

// EdgesTo returns edges whose target is the given node.
func (s *Store) EdgesTo(targetID string) ([]*Edge, error) {
	return s.edgesWhere("target_id = ?", targetID)
}

func (s *Store) edgesWhere(cond string, args ...any) ([]*Edge, error) {
	rows, err := s.db.Query(
		"SELECT "+edgeCols+" FROM edges WHERE "+cond+" ORDER BY source_id, target_id", args...,
	)
	if err != nil {
		return nil, fmt.Errorf("edges where %s: %w", cond, err)
	}
	defer rows.Close()

	var edges []*Edge
	for rows.Next() {
		e, err := scanEdge(rows)
		if err != nil {
			return nil, fmt.Errorf("edges where: scan: %w", err)
		}
		edges = append(edges, e)
	}
	return edges, rows.Err()
}

// DeleteEdgesFrom removes all edges sourced at the given node. Used by
// incremental module updates before re-ingesting a module's relations.
func (s *Store) DeleteEdgesFrom(sourceID string) error {
	return deleteEdgesFrom(s.db, sourceID)
}

func deleteEdgesFrom(db gdb, sourceID string) error {
	if _, err := db.Exec("DELETE FROM edges WHERE source_id = ?", sourceID); err != nil {
		return fmt.Errorf("delete edges from %s: %w", sourceID, err)
	}
	return nil
}
