package graph

import (
	"context"
	"slices"

	"github.com/ludo-technologies/jsgraph/domain"
)

// Module returns the module with the given id, or nil
func (g *ModuleGraph) Module(ctx context.Context, id domain.ModuleID) (*domain.Module, error) {
	return g.store.GetModule(ctx, id)
}

// ModuleByPath returns the module whose path or id equals path, or nil
func (g *ModuleGraph) ModuleByPath(ctx context.Context, path string) (*domain.Module, error) {
	modules, err := g.store.GetAllModules(ctx)
	if err != nil {
		return nil, err
	}
	for _, m := range modules {
		if m.Path == path || m.ID.String() == path {
			return m, nil
		}
	}
	return nil, nil
}

// Modules returns every module ordered by id
func (g *ModuleGraph) Modules(ctx context.Context) ([]*domain.Module, error) {
	return g.store.GetAllModules(ctx)
}

// Contains reports whether a module with the given id is stored
func (g *ModuleGraph) Contains(ctx context.Context, id domain.ModuleID) (bool, error) {
	m, err := g.store.GetModule(ctx, id)
	if err != nil {
		return false, err
	}
	return m != nil, nil
}

// Len returns the number of stored modules
func (g *ModuleGraph) Len(ctx context.Context) (int, error) {
	modules, err := g.store.GetAllModules(ctx)
	if err != nil {
		return 0, err
	}
	return len(modules), nil
}

// Dependencies returns the modules id imports directly
func (g *ModuleGraph) Dependencies(ctx context.Context, id domain.ModuleID) ([]domain.ModuleID, error) {
	return g.store.GetDependencies(ctx, id)
}

// Dependents returns the modules importing id directly
func (g *ModuleGraph) Dependents(ctx context.Context, id domain.ModuleID) ([]domain.ModuleID, error) {
	return g.store.GetDependents(ctx, id)
}

// HasDependency reports whether from imports to directly
func (g *ModuleGraph) HasDependency(ctx context.Context, from, to domain.ModuleID) (bool, error) {
	deps, err := g.store.GetDependencies(ctx, from)
	if err != nil {
		return false, err
	}
	return slices.Contains(deps, to), nil
}

// EntryPoints returns the ids of entry-point modules
func (g *ModuleGraph) EntryPoints(ctx context.Context) ([]domain.ModuleID, error) {
	return g.store.GetEntryPoints(ctx)
}

// ExternalDependencies returns the recorded external dependencies that still have importers.
// A record empties when every importing module is upserted without the import.
func (g *ModuleGraph) ExternalDependencies(ctx context.Context) ([]*domain.ExternalDependency, error) {
	deps, err := g.store.GetExternalDependencies(ctx)
	if err != nil {
		return nil, err
	}
	live := deps[:0]
	for _, dep := range deps {
		if len(dep.ImportedBy) > 0 {
			live = append(live, dep)
		}
	}
	return live, nil
}
