package graph

import (
	"context"

	"github.com/ludo-technologies/jsgraph/domain"
)

// Statistics returns whole-graph counters
func (g *ModuleGraph) Statistics(ctx context.Context) (domain.GraphStatistics, error) {
	var stats domain.GraphStatistics

	modules, err := g.store.GetAllModules(ctx)
	if err != nil {
		return stats, err
	}
	stats.ModuleCount = len(modules)
	for _, m := range modules {
		if m.HasSideEffects {
			stats.SideEffectModuleCount++
		}
	}

	entries, err := g.store.GetEntryPoints(ctx)
	if err != nil {
		return stats, err
	}
	stats.EntryPointCount = len(entries)

	externals, err := g.ExternalDependencies(ctx)
	if err != nil {
		return stats, err
	}
	stats.ExternalDependencyCount = len(externals)

	unused, err := g.UnusedExports(ctx)
	if err != nil {
		return stats, err
	}
	stats.UnusedExportCount = len(unused)

	unreachable, err := g.UnreachableModules(ctx)
	if err != nil {
		return stats, err
	}
	stats.UnreachableModuleCount = len(unreachable)

	return stats, nil
}
