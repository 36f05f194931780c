package graph

import (
	"context"
	"maps"
	"slices"

	"github.com/ludo-technologies/jsgraph/domain"
	"github.com/sirupsen/logrus"
)

// AddModule upserts a module.
// Modules previously marked with AddEntryPoint keep their entry flag, and
// unresolved bare imports are recorded as external dependencies.
func (g *ModuleGraph) AddModule(ctx context.Context, module *domain.Module) error {
	g.mu.Lock()
	_, marked := g.entries[module.ID]
	g.mu.Unlock()

	if marked && !module.IsEntry {
		module = module.Clone()
		module.IsEntry = true
	}

	if err := g.store.StoreModule(ctx, module); err != nil {
		return err
	}

	g.log.WithFields(logrus.Fields{
		"module":  module.ID.String(),
		"imports": len(module.Imports),
		"exports": len(module.Exports),
	}).Debug("module stored")

	return g.inferExternalDependencies(ctx, module)
}

// AddDependency records that from imports to. Self-imports are ignored.
func (g *ModuleGraph) AddDependency(ctx context.Context, from, to domain.ModuleID) error {
	if from == to {
		g.log.WithField("module", from.String()).Debug("ignoring self dependency")
		return nil
	}
	return g.store.AddDependency(ctx, from, to)
}

// AddDependencies records an edge from from to every id in tos
func (g *ModuleGraph) AddDependencies(ctx context.Context, from domain.ModuleID, tos []domain.ModuleID) error {
	for _, to := range tos {
		if err := g.AddDependency(ctx, from, to); err != nil {
			return err
		}
	}
	return nil
}

// AddEntryPoint marks id as an entry point.
// If the module is already stored its record is rewritten with the flag set;
// otherwise the flag is applied when the module is added.
func (g *ModuleGraph) AddEntryPoint(ctx context.Context, id domain.ModuleID) error {
	g.mu.Lock()
	g.entries[id] = struct{}{}
	g.mu.Unlock()

	module, err := g.store.GetModule(ctx, id)
	if err != nil {
		return err
	}
	if module == nil || module.IsEntry {
		return nil
	}

	module.IsEntry = true
	return g.store.StoreModule(ctx, module)
}

// AddExternalDependency records dep, merging importers with any existing record for the same specifier
func (g *ModuleGraph) AddExternalDependency(ctx context.Context, dep *domain.ExternalDependency) error {
	existing, err := g.externalIndex(ctx)
	if err != nil {
		return err
	}

	merged := dep.Clone()
	merged.Normalize()
	if prev, ok := existing[dep.Specifier]; ok {
		merged.Merge(prev)
	}
	return g.store.StoreExternalDependency(ctx, merged)
}

func (g *ModuleGraph) inferExternalDependencies(ctx context.Context, module *domain.Module) error {
	specifiers := make(map[string]struct{})
	for _, imp := range module.Imports {
		if imp.ResolvedTo == nil && imp.IsExternal() {
			specifiers[imp.Source] = struct{}{}
		}
	}

	existing, err := g.externalIndex(ctx)
	if err != nil {
		return err
	}

	// an upsert replaces the module's imports, so stale importer entries go too
	changed := make(map[string]*domain.ExternalDependency)
	for spec, dep := range existing {
		if _, keep := specifiers[spec]; keep {
			continue
		}
		if dep.RemoveImporter(module.ID) {
			changed[spec] = dep
		}
	}

	for spec := range specifiers {
		dep, found := existing[spec]
		if !found {
			dep = domain.NewExternalDependency(spec)
		}
		dep.AddImporter(module.ID)
		changed[spec] = dep
	}

	for _, spec := range slices.Sorted(maps.Keys(changed)) {
		if err := g.store.StoreExternalDependency(ctx, changed[spec]); err != nil {
			return err
		}
	}
	return nil
}

func (g *ModuleGraph) externalIndex(ctx context.Context) (map[string]*domain.ExternalDependency, error) {
	deps, err := g.store.GetExternalDependencies(ctx)
	if err != nil {
		return nil, err
	}
	index := make(map[string]*domain.ExternalDependency, len(deps))
	for _, d := range deps {
		index[d.Specifier] = d
	}
	return index, nil
}
