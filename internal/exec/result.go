// Package exec runs query plans against a graph store and shapes their
// output into a uniform tabular result, with an optional tree view for
// traversal queries.
package exec

import "time"

// Result is the uniform output of every executed query: named columns,
// row-major values, and a row count. Tree is populated for traversal
// queries in addition to the flat rows. Message carries a human note for
// empty-but-successful outcomes such as an absent path.
type Result struct {
	Columns []string
	Rows    [][]any
	Count   int
	Tree    *TreeNode
	Message string
	Elapsed time.Duration
}

// TreeNode is one node of a traversal hierarchy rooted at the query
// target. Children are ordered by hop distance, then id.
type TreeNode struct {
	ID       string
	Name     string
	Kind     string
	Depth    int
	Children []*TreeNode
}
