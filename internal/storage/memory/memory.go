// Package memory is a process-lifetime graph store kept entirely in maps.
package memory

import (
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/ludo-technologies/jsgraph/domain"
)

type idSet map[domain.ModuleID]struct{}

// Store keeps modules and edges in maps behind a single reader/writer lock.
// Records are copied on the way in and out, so callers never share state with the store.
type Store struct {
	mu           sync.RWMutex
	modules      map[domain.ModuleID]*domain.Module
	dependencies map[domain.ModuleID]idSet
	dependents   map[domain.ModuleID]idSet
	external     map[string]*domain.ExternalDependency
}

// New creates an empty store
func New() *Store {
	return &Store{
		modules:      make(map[domain.ModuleID]*domain.Module),
		dependencies: make(map[domain.ModuleID]idSet),
		dependents:   make(map[domain.ModuleID]idSet),
		external:     make(map[string]*domain.ExternalDependency),
	}
}

// StoreModule upserts a module
func (s *Store) StoreModule(_ context.Context, module *domain.Module) error {
	stored := module.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.modules[stored.ID] = stored
	return nil
}

// GetModule returns a copy of the module, or nil when absent
func (s *Store) GetModule(_ context.Context, id domain.ModuleID) (*domain.Module, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.modules[id].Clone(), nil
}

// GetAllModules returns copies of every module ordered by id
func (s *Store) GetAllModules(_ context.Context) ([]*domain.Module, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := slices.SortedFunc(maps.Keys(s.modules), domain.CompareModuleIDs)
	out := make([]*domain.Module, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.modules[id].Clone())
	}
	return out, nil
}

// AddDependency records the edge from -> to and its reverse
func (s *Store) AddDependency(_ context.Context, from, to domain.ModuleID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	addEdge(s.dependencies, from, to)
	addEdge(s.dependents, to, from)
	return nil
}

// GetDependencies returns the modules id imports
func (s *Store) GetDependencies(_ context.Context, id domain.ModuleID) ([]domain.ModuleID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedIDs(s.dependencies[id]), nil
}

// GetDependents returns the modules importing id
func (s *Store) GetDependents(_ context.Context, id domain.ModuleID) ([]domain.ModuleID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedIDs(s.dependents[id]), nil
}

// GetEntryPoints returns the ids of stored modules flagged as entries
func (s *Store) GetEntryPoints(_ context.Context) ([]domain.ModuleID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]domain.ModuleID, 0)
	for id, m := range s.modules {
		if m.IsEntry {
			entries = append(entries, id)
		}
	}
	slices.SortFunc(entries, domain.CompareModuleIDs)
	return entries, nil
}

// StoreExternalDependency upserts an external dependency keyed by specifier
func (s *Store) StoreExternalDependency(_ context.Context, dep *domain.ExternalDependency) error {
	stored := dep.Clone()
	stored.Normalize()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.external[stored.Specifier] = stored
	return nil
}

// GetExternalDependencies returns every external dependency ordered by specifier
func (s *Store) GetExternalDependencies(_ context.Context) ([]*domain.ExternalDependency, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	specs := slices.Sorted(maps.Keys(s.external))
	out := make([]*domain.ExternalDependency, 0, len(specs))
	for _, spec := range specs {
		out = append(out, s.external[spec].Clone())
	}
	return out, nil
}

// Clear drops all records
func (s *Store) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clear(s.modules)
	clear(s.dependencies)
	clear(s.dependents)
	clear(s.external)
	return nil
}

// Close is a no-op; the store lives as long as the process
func (s *Store) Close() error {
	return nil
}

func addEdge(index map[domain.ModuleID]idSet, from, to domain.ModuleID) {
	set, ok := index[from]
	if !ok {
		set = make(idSet)
		index[from] = set
	}
	set[to] = struct{}{}
}

func sortedIDs(set idSet) []domain.ModuleID {
	ids := slices.SortedFunc(maps.Keys(set), domain.CompareModuleIDs)
	if ids == nil {
		return []domain.ModuleID{}
	}
	return ids
}
