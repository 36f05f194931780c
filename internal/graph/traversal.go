package graph

import (
	"context"
	"slices"

	"github.com/ludo-technologies/jsgraph/domain"
)

// DependsOn reports whether from reaches to by following forward edges.
// Every module depends on itself.
func (g *ModuleGraph) DependsOn(ctx context.Context, from, to domain.ModuleID) (bool, error) {
	if from == to {
		return true, nil
	}

	visited := map[domain.ModuleID]struct{}{from: {}}
	queue := []domain.ModuleID{from}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		deps, err := g.store.GetDependencies(ctx, current)
		if err != nil {
			return false, err
		}
		for _, dep := range deps {
			if dep == to {
				return true, nil
			}
			if _, seen := visited[dep]; seen {
				continue
			}
			visited[dep] = struct{}{}
			queue = append(queue, dep)
		}
	}
	return false, nil
}

// TransitiveDependencies returns every module reachable from id, excluding id itself
func (g *ModuleGraph) TransitiveDependencies(ctx context.Context, id domain.ModuleID) ([]domain.ModuleID, error) {
	return g.closure(ctx, id, g.store.GetDependencies)
}

// TransitiveDependents returns every module that reaches id, excluding id itself
func (g *ModuleGraph) TransitiveDependents(ctx context.Context, id domain.ModuleID) ([]domain.ModuleID, error) {
	return g.closure(ctx, id, g.store.GetDependents)
}

func (g *ModuleGraph) closure(
	ctx context.Context,
	id domain.ModuleID,
	next func(context.Context, domain.ModuleID) ([]domain.ModuleID, error),
) ([]domain.ModuleID, error) {
	visited := map[domain.ModuleID]struct{}{id: {}}
	queue := []domain.ModuleID{id}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		neighbours, err := next(ctx, current)
		if err != nil {
			return nil, err
		}
		for _, n := range neighbours {
			if _, seen := visited[n]; seen {
				continue
			}
			visited[n] = struct{}{}
			queue = append(queue, n)
		}
	}

	// a cycle back to the origin must not make it its own dependency
	delete(visited, id)

	result := make([]domain.ModuleID, 0, len(visited))
	for n := range visited {
		result = append(result, n)
	}
	slices.SortFunc(result, domain.CompareModuleIDs)
	return result, nil
}

// UnreachableModules returns the non-entry modules without side effects that nothing imports
func (g *ModuleGraph) UnreachableModules(ctx context.Context) ([]domain.ModuleID, error) {
	modules, err := g.store.GetAllModules(ctx)
	if err != nil {
		return nil, err
	}

	result := []domain.ModuleID{}
	for _, m := range modules {
		if m.IsEntry || m.HasSideEffects {
			continue
		}
		dependents, err := g.store.GetDependents(ctx, m.ID)
		if err != nil {
			return nil, err
		}
		if len(dependents) == 0 {
			result = append(result, m.ID)
		}
	}
	return result, nil
}

// ReachableModules returns every module reachable from an entry point, entry points included
func (g *ModuleGraph) ReachableModules(ctx context.Context) ([]domain.ModuleID, error) {
	entries, err := g.store.GetEntryPoints(ctx)
	if err != nil {
		return nil, err
	}

	visited := make(map[domain.ModuleID]struct{}, len(entries))
	queue := make([]domain.ModuleID, 0, len(entries))
	for _, e := range entries {
		visited[e] = struct{}{}
		queue = append(queue, e)
	}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		deps, err := g.store.GetDependencies(ctx, current)
		if err != nil {
			return nil, err
		}
		for _, dep := range deps {
			if _, seen := visited[dep]; seen {
				continue
			}
			visited[dep] = struct{}{}
			queue = append(queue, dep)
		}
	}

	result := make([]domain.ModuleID, 0, len(visited))
	for id := range visited {
		result = append(result, id)
	}
	slices.SortFunc(result, domain.CompareModuleIDs)
	return result, nil
}
