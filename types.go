package codegraph

import (
	"github.com/codegraph-dev/codegraph/internal/exec"
	"github.com/codegraph-dev/codegraph/internal/store"
)

// Public type aliases for internal types used in the Engine API. These
// are Go type aliases (=) — identical to the internal types at compile
// time, so no conversion is needed on either side.

type Store = store.Store
type Node = store.Node
type Edge = store.Edge
type NodeKind = store.NodeKind
type EdgeKind = store.EdgeKind
type Traversal = store.Traversal
type CyclePair = store.CyclePair
type Stats = store.Stats

type Result = exec.Result
type TreeNode = exec.TreeNode
type NotFoundError = exec.NotFoundError
type AmbiguousError = exec.AmbiguousError

// Node kinds.
const (
	KindModule   = store.KindModule
	KindClass    = store.KindClass
	KindFunction = store.KindFunction
	KindEntity   = store.KindEntity
	KindExternal = store.KindExternal
)

// Edge kinds.
const (
	EdgeContains   = store.EdgeContains
	EdgeImports    = store.EdgeImports
	EdgeInherits   = store.EdgeInherits
	EdgeImplements = store.EdgeImplements
	EdgeCalls      = store.EdgeCalls
	EdgeReturns    = store.EdgeReturns
	EdgeUses       = store.EdgeUses
)
