package codegraph

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/codegraph-dev/codegraph/internal/exec"
	"github.com/codegraph-dev/codegraph/internal/muql"
	"github.com/codegraph-dev/codegraph/internal/plan"
	"github.com/codegraph-dev/codegraph/internal/store"
)

// Engine ties the pieces together: it owns the store and runs MUQL
// queries end to end (parse, plan, execute).
type Engine struct {
	store  *store.Store
	exec   *exec.Executor
	logger *zap.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger attaches a structured logger. Without it the Engine is
// silent.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// New opens (creating if needed) a graph database at dbPath and returns
// an Engine over it. Opening an existing database written by a
// different schema generation fails.
func New(dbPath string, opts ...Option) (*Engine, error) {
	e := &Engine{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(e)
	}

	s, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("codegraph: open store: %w", err)
	}
	e.store = s
	e.exec = exec.New(s, e.logger)
	return e, nil
}

// Close releases the Engine's database resources.
func (e *Engine) Close() error {
	return e.store.Close()
}

// Store returns the underlying Store for direct access.
func (e *Engine) Store() *Store {
	return e.store
}

// Builder returns a graph builder writing into this Engine's store.
func (e *Engine) Builder() *Builder {
	return &Builder{store: e.store, logger: e.logger}
}

// Execute runs one MUQL query and returns its result. Parse errors
// carry the offending token and position; resolution and execution
// errors carry the failing name or operation.
func (e *Engine) Execute(query string) (*Result, error) {
	q, err := muql.Parse(query)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	p, err := plan.Build(q)
	if err != nil {
		return nil, err
	}
	res, err := e.exec.Run(p)
	if err != nil {
		return nil, err
	}
	e.logger.Debug("query executed",
		zap.String("query", query),
		zap.Int("rows", res.Count),
		zap.Duration("elapsed", res.Elapsed))
	return res, nil
}

// Stats reports graph size by node and edge kind.
func (e *Engine) Stats() (*Stats, error) {
	return e.store.Stats()
}
