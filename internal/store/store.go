package store

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// SchemaVersion is the schema generation this build of the engine reads
// and writes. Opening a store stamped with a different version fails
// rather than risk misreading rows.
const SchemaVersion = "1"

// MaxDepth is the ceiling on traversal depth. Requests above it are
// clamped so pathological graphs stay bounded.
const MaxDepth = 20

// Store is the SQLite data access layer for the code property graph:
// a node table, an edge table, and a metadata table.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) a graph store at dbPath with WAL mode
// enabled, runs migration, and verifies the schema version.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=30000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	if err := s.checkVersion(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for use in transactions and for
// executing planner-generated statements.
func (s *Store) DB() *sql.DB {
	return s.db
}

// migrate creates all tables and indexes. Idempotent.
func (s *Store) migrate() error {
	if _, err := s.db.Exec(schemaDDL); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// checkVersion stamps a fresh store with SchemaVersion, or verifies an
// existing stamp. A mismatch is fatal: no query can be trusted against
// an unknown schema.
func (s *Store) checkVersion() error {
	var stored string
	err := s.db.QueryRow("SELECT value FROM metadata WHERE key = 'schema_version'").Scan(&stored)
	if err == sql.ErrNoRows {
		_, err = s.db.Exec("INSERT INTO metadata (key, value) VALUES ('schema_version', ?)", SchemaVersion)
		if err != nil {
			return fmt.Errorf("stamp schema version: %w", err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if stored != SchemaVersion {
		return fmt.Errorf("schema version mismatch: store has %s, engine expects %s", stored, SchemaVersion)
	}
	return nil
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS nodes (
  id              TEXT PRIMARY KEY,
  kind            TEXT NOT NULL,
  name            TEXT NOT NULL,
  qualified_name  TEXT NOT NULL DEFAULT '',
  file_path       TEXT NOT NULL DEFAULT '',
  line_start      INTEGER NOT NULL DEFAULT 0,
  line_end        INTEGER NOT NULL DEFAULT 0,
  properties      TEXT NOT NULL DEFAULT '{}',
  complexity      REAL NOT NULL DEFAULT 0,
  created_at      TIMESTAMP NOT NULL,
  updated_at      TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS edges (
  id              TEXT PRIMARY KEY,
  source_id       TEXT NOT NULL,
  target_id       TEXT NOT NULL,
  kind            TEXT NOT NULL,
  properties      TEXT NOT NULL DEFAULT '{}',
  weight          REAL NOT NULL DEFAULT 1.0,
  created_at      TIMESTAMP NOT NULL,
  UNIQUE(source_id, target_id, kind)
);

CREATE TABLE IF NOT EXISTS metadata (
  key             TEXT PRIMARY KEY,
  value           TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_nodes_kind ON nodes(kind);
CREATE INDEX IF NOT EXISTS idx_nodes_name ON nodes(name);
CREATE INDEX IF NOT EXISTS idx_nodes_qualified ON nodes(qualified_name);
CREATE INDEX IF NOT EXISTS idx_edges_source ON edges(source_id);
CREATE INDEX IF NOT EXISTS idx_edges_target ON edges(target_id);
CREATE INDEX IF NOT EXISTS idx_edges_kind ON edges(kind);
`

// Clear removes every node and edge inside a single transaction. The
// schema and metadata stamp survive.
func (s *Store) Clear() error {
	return s.WithTx(func(tx *Tx) error {
		return tx.Clear()
	})
}

// Stats returns node/edge totals and per-kind counts.
func (s *Store) Stats() (*Stats, error) {
	st := &Stats{
		NodesByKind: make(map[NodeKind]int),
		EdgesByKind: make(map[EdgeKind]int),
	}

	rows, err := s.db.Query("SELECT kind, COUNT(*) FROM nodes GROUP BY kind")
	if err != nil {
		return nil, fmt.Errorf("stats: nodes: %w", err)
	}
	for rows.Next() {
		var kind string
		var n int
		if err := rows.Scan(&kind, &n); err != nil {
			rows.Close()
			return nil, fmt.Errorf("stats: scan node kind: %w", err)
		}
		st.NodesByKind[NodeKind(kind)] = n
		st.Nodes += n
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("stats: node rows: %w", err)
	}
	rows.Close()

	rows, err = s.db.Query("SELECT kind, COUNT(*) FROM edges GROUP BY kind")
	if err != nil {
		return nil, fmt.Errorf("stats: edges: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var kind string
		var n int
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, fmt.Errorf("stats: scan edge kind: %w", err)
		}
		st.EdgesByKind[EdgeKind(kind)] = n
		st.Edges += n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("stats: edge rows: %w", err)
	}

	return st, nil
}
