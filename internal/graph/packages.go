package graph

import (
	"context"
	"slices"

	"github.com/ludo-technologies/jsgraph/domain"
)

// UsedPackages returns the sorted set of package roots referenced by external imports
// or recorded external dependencies
func (g *ModuleGraph) UsedPackages(ctx context.Context) ([]string, error) {
	used, err := g.usedPackageSet(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(used))
	for name := range used {
		names = append(names, name)
	}
	slices.Sort(names)
	return names, nil
}

func (g *ModuleGraph) usedPackageSet(ctx context.Context) (map[string]struct{}, error) {
	modules, err := g.store.GetAllModules(ctx)
	if err != nil {
		return nil, err
	}

	used := make(map[string]struct{})
	for _, m := range modules {
		for _, imp := range m.Imports {
			if imp.ResolvedTo == nil && imp.IsExternal() {
				used[domain.ExtractPackageName(imp.Source)] = struct{}{}
			}
		}
	}

	externals, err := g.ExternalDependencies(ctx)
	if err != nil {
		return nil, err
	}
	for _, dep := range externals {
		used[dep.PackageName()] = struct{}{}
	}
	return used, nil
}

func checkedTypes(includeDev, includePeer bool) []domain.DependencyType {
	types := make([]domain.DependencyType, 0, len(domain.AllDependencyTypes))
	for _, t := range domain.AllDependencyTypes {
		if t == domain.DependencyDevelopment && !includeDev {
			continue
		}
		if t == domain.DependencyPeer && !includePeer {
			continue
		}
		types = append(types, t)
	}
	return types
}

// UnusedNpmDependencies returns the packages declared in pkg that no module imports.
// Production and optional dependencies are always checked.
// Results are ordered by dependency type, then by package name.
func (g *ModuleGraph) UnusedNpmDependencies(ctx context.Context, pkg *domain.PackageJSON, includeDev, includePeer bool) ([]domain.UnusedDependency, error) {
	used, err := g.usedPackageSet(ctx)
	if err != nil {
		return nil, err
	}

	result := []domain.UnusedDependency{}
	for _, depType := range checkedTypes(includeDev, includePeer) {
		bucket := pkg.DependenciesOf(depType)
		names := make([]string, 0, len(bucket))
		for name := range bucket {
			names = append(names, name)
		}
		slices.Sort(names)

		for _, name := range names {
			if _, ok := used[name]; ok {
				continue
			}
			result = append(result, domain.UnusedDependency{
				Package: name,
				Version: bucket[name],
				DepType: depType,
			})
		}
	}
	return result, nil
}

// DependencyCoverage reports, per dependency type, how many declared packages are imported
func (g *ModuleGraph) DependencyCoverage(ctx context.Context, pkg *domain.PackageJSON, includeDev, includePeer bool) (domain.DependencyCoverage, error) {
	used, err := g.usedPackageSet(ctx)
	if err != nil {
		return domain.DependencyCoverage{}, err
	}

	coverage := domain.DependencyCoverage{ByType: make(map[domain.DependencyType]domain.TypeCoverage)}
	for _, depType := range checkedTypes(includeDev, includePeer) {
		var tc domain.TypeCoverage
		for name := range pkg.DependenciesOf(depType) {
			tc.Declared++
			if _, ok := used[name]; ok {
				tc.Used++
			} else {
				tc.Unused++
			}
		}
		coverage.ByType[depType] = tc
		coverage.TotalDeclared += tc.Declared
		coverage.TotalUsed += tc.Used
		coverage.TotalUnused += tc.Unused
	}
	return coverage, nil
}
