// Package codegraph provides a typed code property graph engine with a
// purpose-built query language (MUQL), backed by SQLite.
//
// # Pipeline
//
// Codegraph operates in two phases:
//
//  1. Build: a language frontend hands parsed module facts to the
//     [Builder], which materializes nodes (modules, classes, functions,
//     entities, externals) and typed edges (contains, imports, inherits,
//     calls, ...) in the store.
//
//  2. Query: MUQL text is lexed and parsed into an AST, planned into an
//     analytical SQL statement or a graph traversal, and executed
//     against the store.
//
// # Usage
//
// Create an Engine over a database file and execute queries:
//
//	e, err := codegraph.New("graph.db")
//	if err != nil { ... }
//	defer e.Close()
//
//	res, err := e.Execute("SELECT name, complexity FROM functions WHERE complexity > 20")
//	res, err = e.Execute("SHOW DEPENDENCIES OF app DEPTH 3")
//	res, err = e.Execute("fn c>50") // terse dialect, same AST
//
// # Query language
//
// MUQL has two dialects over one grammar: a verbose SQL-flavored form
// (SELECT, SHOW, FIND, PATH, ANALYZE, DESCRIBE) and a terse shorthand
// (fn c>50, d app 2, p handler db.query). Both parse to identical ASTs,
// so results are dialect-independent.
//
// Graph queries resolve bare names to node ids; an ambiguous name is
// reported with its candidate ids rather than guessed at. Traversals
// are depth-capped and cycle-safe. Built-in analyses cover circular
// imports, complexity, coupling, cohesion, hotspots, unused symbols,
// and change impact.
package codegraph
