package graph

import (
	"context"
	"slices"

	"github.com/ludo-technologies/jsgraph/domain"
	"github.com/sirupsen/logrus"
)

// MaxChainDepth bounds the length of enumerated dependency chains
const MaxChainDepth = 50

func (g *ModuleGraph) dependencyMap(ctx context.Context) (map[domain.ModuleID][]domain.ModuleID, error) {
	modules, err := g.store.GetAllModules(ctx)
	if err != nil {
		return nil, err
	}
	deps := make(map[domain.ModuleID][]domain.ModuleID, len(modules))
	for _, m := range modules {
		d, err := g.store.GetDependencies(ctx, m.ID)
		if err != nil {
			return nil, err
		}
		deps[m.ID] = d
	}
	return deps, nil
}

// DependencyChainsTo returns every simple path from an entry point to target.
// Chains are ordered by entry point, then by traversal order.
func (g *ModuleGraph) DependencyChainsTo(ctx context.Context, target domain.ModuleID) ([]domain.DependencyChain, error) {
	entries, err := g.store.GetEntryPoints(ctx)
	if err != nil {
		return nil, err
	}
	deps, err := g.dependencyMap(ctx)
	if err != nil {
		return nil, err
	}

	chains := []domain.DependencyChain{}
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		onPath := map[domain.ModuleID]struct{}{entry: {}}
		path := []domain.ModuleID{entry}
		collectChains(deps, target, path, onPath, &chains)
	}

	g.log.WithFields(logrus.Fields{
		"module": target.String(),
		"count":  len(chains),
	}).Debug("dependency chains enumerated")
	return chains, nil
}

func collectChains(
	deps map[domain.ModuleID][]domain.ModuleID,
	target domain.ModuleID,
	path []domain.ModuleID,
	onPath map[domain.ModuleID]struct{},
	chains *[]domain.DependencyChain,
) {
	current := path[len(path)-1]
	if current == target {
		*chains = append(*chains, domain.NewDependencyChain(slices.Clone(path)))
		return
	}
	if len(path) > MaxChainDepth {
		return
	}

	for _, next := range deps[current] {
		if _, seen := onPath[next]; seen {
			continue
		}
		onPath[next] = struct{}{}
		collectChains(deps, target, append(path, next), onPath, chains)
		delete(onPath, next)
	}
}

// AnalyzeDependencyChains summarizes the chains leading to target
func (g *ModuleGraph) AnalyzeDependencyChains(ctx context.Context, target domain.ModuleID) (domain.ChainAnalysis, error) {
	chains, err := g.DependencyChainsTo(ctx, target)
	if err != nil {
		return domain.ChainAnalysis{}, err
	}
	return domain.NewChainAnalysis(target, chains), nil
}

// ImportDepth returns the length of the shortest chain from an entry point to id, nil when unreachable
func (g *ModuleGraph) ImportDepth(ctx context.Context, id domain.ModuleID) (*int, error) {
	analysis, err := g.AnalyzeDependencyChains(ctx, id)
	if err != nil {
		return nil, err
	}
	return analysis.MinDepth, nil
}

// IsReachableOnlyThroughDeadCode reports whether no entry point reaches id
func (g *ModuleGraph) IsReachableOnlyThroughDeadCode(ctx context.Context, id domain.ModuleID) (bool, error) {
	analysis, err := g.AnalyzeDependencyChains(ctx, id)
	if err != nil {
		return false, err
	}
	return !analysis.IsReachable(), nil
}

// ModulesByDepth groups reachable modules by their shortest distance from an entry point
func (g *ModuleGraph) ModulesByDepth(ctx context.Context) (map[int][]domain.ModuleID, error) {
	entries, err := g.store.GetEntryPoints(ctx)
	if err != nil {
		return nil, err
	}
	deps, err := g.dependencyMap(ctx)
	if err != nil {
		return nil, err
	}

	depth := make(map[domain.ModuleID]int, len(deps))
	queue := make([]domain.ModuleID, 0, len(entries))
	for _, e := range entries {
		depth[e] = 0
		queue = append(queue, e)
	}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, next := range deps[current] {
			if _, seen := depth[next]; seen {
				continue
			}
			depth[next] = depth[current] + 1
			queue = append(queue, next)
		}
	}

	byDepth := make(map[int][]domain.ModuleID)
	for id, d := range depth {
		byDepth[d] = append(byDepth[d], id)
	}
	for d := range byDepth {
		slices.SortFunc(byDepth[d], domain.CompareModuleIDs)
	}
	return byDepth, nil
}
