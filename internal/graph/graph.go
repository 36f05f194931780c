// Package graph implements the cross-module queries of jsgraph on top of a GraphStorage backend.
package graph

import (
	"context"
	"fmt"
	"sync"

	"github.com/ludo-technologies/jsgraph/domain"
	"github.com/ludo-technologies/jsgraph/internal/logging"
	"github.com/ludo-technologies/jsgraph/internal/storage"
	"github.com/ludo-technologies/jsgraph/internal/storage/memory"
	"github.com/sirupsen/logrus"
)

// ModuleGraph is the query facade over a storage backend.
// It holds no module data itself; every read goes to storage, so several
// graphs over different backends can coexist in one process.
type ModuleGraph struct {
	store storage.GraphStorage
	log   logrus.FieldLogger

	// entry points marked before (or independently of) their module being stored
	mu      sync.Mutex
	entries map[domain.ModuleID]struct{}
}

// Option configures a ModuleGraph
type Option func(*ModuleGraph)

// WithLogger sets the logger used for debug output
func WithLogger(l logrus.FieldLogger) Option {
	return func(g *ModuleGraph) {
		if l != nil {
			g.log = l
		}
	}
}

// New creates a graph over an existing backend
func New(store storage.GraphStorage, opts ...Option) *ModuleGraph {
	g := &ModuleGraph{
		store:   store,
		log:     logging.Discard(),
		entries: make(map[domain.ModuleID]struct{}),
	}
	for _, opt := range opts {
		opt(g)
	}
	g.log = g.log.WithField("component", "graph")
	return g
}

// NewInMemory creates a graph over a fresh in-memory backend
func NewInMemory(opts ...Option) *ModuleGraph {
	return New(memory.New(), opts...)
}

// Open creates the backend described by storageOpts and a graph over it.
// Backend initialization failures are returned as *domain.ConfigError.
func Open(ctx context.Context, storageOpts storage.Options, opts ...Option) (*ModuleGraph, error) {
	store, err := storage.Open(ctx, storageOpts)
	if err != nil {
		return nil, err
	}
	return New(store, opts...), nil
}

// FromModules creates a graph over store and adds modules, deriving edges from resolved imports
func FromModules(ctx context.Context, store storage.GraphStorage, modules []*domain.Module, opts ...Option) (*ModuleGraph, error) {
	g := New(store, opts...)
	for _, m := range modules {
		if err := g.AddModule(ctx, m); err != nil {
			return nil, err
		}
	}
	for _, m := range modules {
		for _, imp := range m.Imports {
			if imp.ResolvedTo == nil {
				continue
			}
			if err := g.AddDependency(ctx, m.ID, *imp.ResolvedTo); err != nil {
				return nil, err
			}
		}
	}
	return g, nil
}

// Storage returns the underlying backend
func (g *ModuleGraph) Storage() storage.GraphStorage {
	return g.store
}

// Close releases the backend
func (g *ModuleGraph) Close() error {
	if err := g.store.Close(); err != nil {
		return fmt.Errorf("failed to close graph storage: %w", err)
	}
	return nil
}

// Clear removes every module, edge and external dependency
func (g *ModuleGraph) Clear(ctx context.Context) error {
	g.mu.Lock()
	clear(g.entries)
	g.mu.Unlock()
	return g.store.Clear(ctx)
}
