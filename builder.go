package codegraph

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/codegraph-dev/codegraph/internal/store"
)

// ParsedModule is the language-frontend contract: one source module's
// extracted facts, ready to be materialized into the graph. Frontends
// produce these; the Builder never reads source code itself.
type ParsedModule struct {
	Name      string
	Path      string
	Docstring string
	Imports   []ParsedImport
	Classes   []ParsedClass
	Functions []ParsedFunction
	Entities  []ParsedEntity
}

// ParsedImport is one import statement. Target is the imported module's
// name; unresolvable targets become External nodes.
type ParsedImport struct {
	Target string
}

// ParsedClass is one class definition with its methods.
type ParsedClass struct {
	Name          string
	QualifiedName string
	LineStart     int
	LineEnd       int
	Bases         []string
	Decorators    []string
	Docstring     string
	Methods       []ParsedFunction
}

// ParsedFunction is one function or method definition. Calls lists the
// names of callees when the frontend can extract them.
type ParsedFunction struct {
	Name          string
	QualifiedName string
	LineStart     int
	LineEnd       int
	Parameters    []string
	ReturnType    string
	Decorators    []string
	Docstring     string
	Complexity    float64
	IsAsync       bool
	Calls         []string
}

// ParsedEntity is a module-level value: a constant, variable, or other
// named datum worth tracking in the graph.
type ParsedEntity struct {
	Name          string
	QualifiedName string
	LineStart     int
	LineEnd       int
	TypeName      string
}

// Builder materializes parsed module facts into graph nodes and edges.
// Ids are stable across rebuilds: kind:path[:qualified_name] for parsed
// entities, external:name for synthesized externals.
type Builder struct {
	store  *store.Store
	logger *zap.Logger
}

// NewBuilder returns a builder over the given store. A nil logger is
// replaced with a no-op one.
func NewBuilder(st *store.Store, logger *zap.Logger) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{store: st, logger: logger}
}

// graphWriter is the write-and-lookup surface the ingest path needs.
// Both *store.Store and *store.Tx provide it; the builder's lifecycle
// operations always hand ingest a transaction.
type graphWriter interface {
	UpsertNode(*store.Node) error
	UpsertEdge(*store.Edge) error
	NodesByName(string) ([]*store.Node, error)
}

// Rebuild clears the graph and repopulates it from the given modules,
// all in one transaction: a failure mid-ingest rolls back to the
// previous graph instead of leaving it destroyed and half-replaced.
func (b *Builder) Rebuild(modules []ParsedModule) error {
	err := b.store.WithTx(func(tx *store.Tx) error {
		if err := tx.Clear(); err != nil {
			return err
		}
		r := newResolver(tx, modules)
		for i := range modules {
			if err := b.ingestModule(tx, &modules[i], r); err != nil {
				return fmt.Errorf("module %q: %w", modules[i].Name, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("rebuild: %w", err)
	}

	b.logger.Debug("graph rebuilt", zap.Int("modules", len(modules)))
	return nil
}

// UpdateModule re-ingests one module incrementally, in one transaction.
// The module node keeps its id and inbound edges (imports from other
// modules stay valid); its outbound edges and every other node recorded
// against the file are dropped, then the module is built again. Inbound
// edges to dropped members are removed with them and come back when
// their sources are next updated.
func (b *Builder) UpdateModule(m ParsedModule) error {
	var staleCount int
	err := b.store.WithTx(func(tx *store.Tx) error {
		stale, err := tx.NodesInFile(m.Path)
		if err != nil {
			return err
		}
		staleCount = len(stale)

		moduleID := moduleNodeID(m.Path)
		for _, n := range stale {
			if n.ID == moduleID {
				err = tx.DeleteEdgesFrom(n.ID)
			} else {
				err = tx.DeleteNode(n.ID)
			}
			if err != nil {
				return err
			}
		}

		r := newResolver(tx, []ParsedModule{m})
		return b.ingestModule(tx, &m, r)
	})
	if err != nil {
		return fmt.Errorf("update module %q: %w", m.Name, err)
	}

	b.logger.Debug("module updated",
		zap.String("module", m.Name),
		zap.Int("stale_nodes", staleCount))
	return nil
}

func (b *Builder) ingestModule(g graphWriter, m *ParsedModule, r *resolver) error {
	moduleID := moduleNodeID(m.Path)
	props := map[string]any{}
	if m.Docstring != "" {
		props["docstring"] = m.Docstring
	}
	err := g.UpsertNode(&store.Node{
		ID:            moduleID,
		Kind:          store.KindModule,
		Name:          m.Name,
		QualifiedName: m.Name,
		FilePath:      m.Path,
		Properties:    props,
	})
	if err != nil {
		return err
	}

	for _, imp := range m.Imports {
		targetID, err := r.module(imp.Target)
		if err != nil {
			return err
		}
		if err := addEdge(g, moduleID, targetID, store.EdgeImports); err != nil {
			return err
		}
	}

	for i := range m.Classes {
		if err := b.ingestClass(g, m, &m.Classes[i], moduleID, r); err != nil {
			return err
		}
	}
	for i := range m.Functions {
		if err := b.ingestFunction(g, m, &m.Functions[i], moduleID, r); err != nil {
			return err
		}
	}
	for i := range m.Entities {
		if err := b.ingestEntity(g, m, &m.Entities[i], moduleID, r); err != nil {
			return err
		}
	}
	return nil
}

func (b *Builder) ingestClass(g graphWriter, m *ParsedModule, c *ParsedClass, moduleID string, r *resolver) error {
	classID := classNodeID(m.Path, c.QualifiedName)

	var complexity float64
	for _, fn := range c.Methods {
		complexity += fn.Complexity
	}

	props := map[string]any{}
	if len(c.Bases) > 0 {
		props["bases"] = c.Bases
	}
	if len(c.Decorators) > 0 {
		props["decorators"] = c.Decorators
	}
	if c.Docstring != "" {
		props["docstring"] = c.Docstring
	}
	err := g.UpsertNode(&store.Node{
		ID:            classID,
		Kind:          store.KindClass,
		Name:          c.Name,
		QualifiedName: c.QualifiedName,
		FilePath:      m.Path,
		LineStart:     c.LineStart,
		LineEnd:       c.LineEnd,
		Properties:    props,
		Complexity:    complexity,
	})
	if err != nil {
		return err
	}
	if err := addEdge(g, moduleID, classID, store.EdgeContains); err != nil {
		return err
	}

	for _, base := range c.Bases {
		baseID, err := r.class(base)
		if err != nil {
			return err
		}
		if err := addEdge(g, classID, baseID, store.EdgeInherits); err != nil {
			return err
		}
	}
	if err := annotate(g, classID, c.Decorators); err != nil {
		return err
	}

	for i := range c.Methods {
		if err := b.ingestFunction(g, m, &c.Methods[i], classID, r); err != nil {
			return err
		}
	}
	return nil
}

func (b *Builder) ingestFunction(g graphWriter, m *ParsedModule, fn *ParsedFunction, parentID string, r *resolver) error {
	fnID := functionNodeID(m.Path, fn.QualifiedName)

	props := map[string]any{}
	if len(fn.Parameters) > 0 {
		props["parameters"] = fn.Parameters
	}
	if len(fn.Decorators) > 0 {
		props["decorators"] = fn.Decorators
	}
	if fn.Docstring != "" {
		props["docstring"] = fn.Docstring
	}
	if fn.ReturnType != "" {
		props["return_type"] = fn.ReturnType
	}
	if fn.IsAsync {
		props["is_async"] = true
	}
	err := g.UpsertNode(&store.Node{
		ID:            fnID,
		Kind:          store.KindFunction,
		Name:          fn.Name,
		QualifiedName: fn.QualifiedName,
		FilePath:      m.Path,
		LineStart:     fn.LineStart,
		LineEnd:       fn.LineEnd,
		Properties:    props,
		Complexity:    fn.Complexity,
	})
	if err != nil {
		return err
	}
	if err := addEdge(g, parentID, fnID, store.EdgeContains); err != nil {
		return err
	}
	if err := annotate(g, fnID, fn.Decorators); err != nil {
		return err
	}

	if fn.ReturnType != "" {
		typeID, err := r.class(fn.ReturnType)
		if err != nil {
			return err
		}
		if err := addEdge(g, fnID, typeID, store.EdgeReturns); err != nil {
			return err
		}
	}
	for _, callee := range fn.Calls {
		calleeID, err := r.function(callee)
		if err != nil {
			return err
		}
		if err := addEdge(g, fnID, calleeID, store.EdgeCalls); err != nil {
			return err
		}
	}
	return nil
}

func (b *Builder) ingestEntity(g graphWriter, m *ParsedModule, e *ParsedEntity, moduleID string, r *resolver) error {
	entityID := entityNodeID(m.Path, e.QualifiedName)
	err := g.UpsertNode(&store.Node{
		ID:            entityID,
		Kind:          store.KindEntity,
		Name:          e.Name,
		QualifiedName: e.QualifiedName,
		FilePath:      m.Path,
		LineStart:     e.LineStart,
		LineEnd:       e.LineEnd,
	})
	if err != nil {
		return err
	}
	if err := addEdge(g, moduleID, entityID, store.EdgeContains); err != nil {
		return err
	}

	if e.TypeName != "" {
		typeID, err := r.class(e.TypeName)
		if err != nil {
			return err
		}
		if err := addEdge(g, entityID, typeID, store.EdgeTypedAs); err != nil {
			return err
		}
	}
	return nil
}

// annotate links a node to annotation nodes for each of its decorators.
// Annotation nodes are shared: every @route in the codebase points at
// the same node.
func annotate(g graphWriter, nodeID string, decorators []string) error {
	for _, d := range decorators {
		annID := "annotation:" + d
		err := g.UpsertNode(&store.Node{
			ID:            annID,
			Kind:          store.KindAnnotation,
			Name:          d,
			QualifiedName: d,
		})
		if err != nil {
			return err
		}
		if err := addEdge(g, nodeID, annID, store.EdgeAnnotatedWith); err != nil {
			return err
		}
	}
	return nil
}

func addEdge(g graphWriter, source, target string, kind store.EdgeKind) error {
	return g.UpsertEdge(&store.Edge{SourceID: source, TargetID: target, Kind: kind})
}

// =============================================================================
// Name resolution during ingestion
// =============================================================================

// resolver maps referenced names to node ids, preferring entities in
// the current batch, then the store, then lazily-created External
// nodes. The external fallback means dangling references never fail a
// build.
type resolver struct {
	g         graphWriter
	modules   map[string]string
	classes   map[string]string
	functions map[string]string
}

func newResolver(g graphWriter, modules []ParsedModule) *resolver {
	r := &resolver{
		g:         g,
		modules:   map[string]string{},
		classes:   map[string]string{},
		functions: map[string]string{},
	}
	for i := range modules {
		m := &modules[i]
		id := moduleNodeID(m.Path)
		r.modules[m.Name] = id
		r.modules[m.Path] = id
		for j := range m.Classes {
			c := &m.Classes[j]
			cid := classNodeID(m.Path, c.QualifiedName)
			r.classes[c.Name] = cid
			r.classes[c.QualifiedName] = cid
			for k := range c.Methods {
				fn := &c.Methods[k]
				r.functions[fn.QualifiedName] = functionNodeID(m.Path, fn.QualifiedName)
			}
		}
		for j := range m.Functions {
			fn := &m.Functions[j]
			fid := functionNodeID(m.Path, fn.QualifiedName)
			r.functions[fn.Name] = fid
			r.functions[fn.QualifiedName] = fid
		}
	}
	return r
}

func (r *resolver) module(name string) (string, error) {
	return r.lookup(r.modules, name, store.KindModule)
}

func (r *resolver) class(name string) (string, error) {
	return r.lookup(r.classes, name, store.KindClass)
}

func (r *resolver) function(name string) (string, error) {
	return r.lookup(r.functions, name, store.KindFunction)
}

func (r *resolver) lookup(local map[string]string, name string, kind store.NodeKind) (string, error) {
	if id, ok := local[name]; ok {
		return id, nil
	}

	matches, err := r.g.NodesByName(name)
	if err != nil {
		return "", fmt.Errorf("resolving %q: %w", name, err)
	}
	for _, n := range matches {
		if n.Kind == kind {
			return n.ID, nil
		}
	}

	return ensureExternal(r.g, name)
}

// ensureExternal creates (idempotently) an External node for an
// unresolvable reference and returns its id.
func ensureExternal(g graphWriter, name string) (string, error) {
	id := "external:" + name
	err := g.UpsertNode(&store.Node{
		ID:            id,
		Kind:          store.KindExternal,
		Name:          name,
		QualifiedName: name,
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// Node id construction. Ids are stable: rebuilding the same source
// yields the same ids, so edges from other modules stay valid.

func moduleNodeID(path string) string {
	return "module:" + path
}

func classNodeID(path, qualified string) string {
	return "class:" + path + ":" + qualified
}

func functionNodeID(path, qualified string) string {
	return "function:" + path + ":" + qualified
}

func entityNodeID(path, qualified string) string {
	return "entity:" + path + ":" + qualified
}
