package graph

import (
	"context"

	"github.com/ludo-technologies/jsgraph/domain"
	"github.com/sirupsen/logrus"
)

// exportIndex is a read snapshot used by the export algorithms.
// The recursive re-export search runs against it without touching storage.
type exportIndex struct {
	order      []*domain.Module
	modules    map[domain.ModuleID]*domain.Module
	dependents map[domain.ModuleID][]domain.ModuleID
}

type exportKey struct {
	module domain.ModuleID
	name   string
}

func (g *ModuleGraph) snapshotExports(ctx context.Context) (*exportIndex, error) {
	modules, err := g.store.GetAllModules(ctx)
	if err != nil {
		return nil, err
	}

	idx := &exportIndex{
		order:      modules,
		modules:    make(map[domain.ModuleID]*domain.Module, len(modules)),
		dependents: make(map[domain.ModuleID][]domain.ModuleID, len(modules)),
	}
	for _, m := range modules {
		idx.modules[m.ID] = m
		deps, err := g.store.GetDependents(ctx, m.ID)
		if err != nil {
			return nil, err
		}
		idx.dependents[m.ID] = deps
	}
	return idx, nil
}

// UnusedExports returns the exports of non-entry modules that no module imports,
// directly or through a chain of re-exports.
func (g *ModuleGraph) UnusedExports(ctx context.Context) ([]domain.UnusedExport, error) {
	idx, err := g.snapshotExports(ctx)
	if err != nil {
		return nil, err
	}

	result := []domain.UnusedExport{}
	for _, m := range idx.order {
		if m.IsEntry {
			continue
		}
		for _, e := range m.Exports {
			if e.IsFrameworkUsed || e.IsUsed {
				continue
			}
			// export * has no name of its own; its names are judged at the source module
			if e.IsStarReExport() {
				continue
			}
			if idx.isUsed(m, e.Name, make(map[exportKey]struct{})) {
				continue
			}
			result = append(result, domain.UnusedExport{ModuleID: m.ID, Export: e})
		}
	}

	g.log.WithField("count", len(result)).Debug("unused exports computed")
	return result, nil
}

// IsExportUsed reports whether the named export of id is imported anywhere.
// Entry modules, forced and framework-used exports always count as used.
// A missing module or export reports false.
func (g *ModuleGraph) IsExportUsed(ctx context.Context, id domain.ModuleID, name string) (bool, error) {
	idx, err := g.snapshotExports(ctx)
	if err != nil {
		return false, err
	}
	m, ok := idx.modules[id]
	if !ok {
		return false, nil
	}
	e, ok := m.ExportByName(name)
	if !ok {
		return false, nil
	}
	if m.IsEntry || e.IsUsed || e.IsFrameworkUsed {
		return true, nil
	}
	return idx.isUsed(m, name, make(map[exportKey]struct{})), nil
}

func (idx *exportIndex) isUsed(m *domain.Module, name string, visited map[exportKey]struct{}) bool {
	key := exportKey{module: m.ID, name: name}
	if _, seen := visited[key]; seen {
		return false
	}
	visited[key] = struct{}{}

	if idx.directlyImported(m.ID, name) {
		return true
	}

	for _, reexporter := range idx.order {
		if !forwards(reexporter, m, name) {
			continue
		}
		// entry exports are public API, and so is whatever they forward
		if reexporter.IsEntry {
			return true
		}
		if idx.isUsed(reexporter, name, visited) {
			return true
		}
	}
	return false
}

func (idx *exportIndex) directlyImported(id domain.ModuleID, name string) bool {
	for _, depID := range idx.dependents[id] {
		dependent, ok := idx.modules[depID]
		if !ok {
			continue
		}
		for i := range dependent.Imports {
			imp := &dependent.Imports[i]
			if !imp.IsResolvedTo(id) || imp.IsSideEffectOnly() {
				continue
			}
			if imp.ImportsName(name) {
				return true
			}
		}
	}
	return false
}

// forwards reports whether reexporter re-exports name from target
func forwards(reexporter, target *domain.Module, name string) bool {
	if reexporter.ID == target.ID {
		return false
	}
	for i := range reexporter.Exports {
		e := &reexporter.Exports[i]
		if !e.IsReExport() || !reExportsFrom(e, target) {
			continue
		}
		if e.IsStarReExport() || e.Name == name {
			return true
		}
	}
	return false
}

func reExportsFrom(e *domain.Export, target *domain.Module) bool {
	if e.ReExportedFrom == "" {
		return false
	}
	return e.ReExportedFrom == target.Path || e.ReExportedFrom == target.ID.String()
}

// ComputeExportUsageCounts counts, for every export, the import specifiers matching it
// and stores the counts on the modules. A namespace import counts once per statement.
func (g *ModuleGraph) ComputeExportUsageCounts(ctx context.Context) ([]domain.ExportUsage, error) {
	idx, err := g.snapshotExports(ctx)
	if err != nil {
		return nil, err
	}

	usages := []domain.ExportUsage{}
	for _, m := range idx.order {
		if len(m.Exports) == 0 {
			continue
		}

		for i := range m.Exports {
			e := &m.Exports[i]
			count := idx.usageCount(m.ID, e.Name)
			e.SetUsageCount(count)
			usages = append(usages, domain.ExportUsage{ModuleID: m.ID, Name: e.Name, Count: count})
		}

		if err := g.store.StoreModule(ctx, m); err != nil {
			return nil, err
		}
	}

	g.log.WithFields(logrus.Fields{
		"modules": len(idx.order),
		"count":   len(usages),
	}).Debug("export usage counts computed")
	return usages, nil
}

func (idx *exportIndex) usageCount(id domain.ModuleID, name string) int {
	count := 0
	for _, depID := range idx.dependents[id] {
		dependent, ok := idx.modules[depID]
		if !ok {
			continue
		}
		for i := range dependent.Imports {
			imp := &dependent.Imports[i]
			if !imp.IsResolvedTo(id) || imp.IsSideEffectOnly() {
				continue
			}
			count += imp.MatchCount(name)
		}
	}
	return count
}

// ExportUsage returns the stored usage count of an export, nil when not yet computed
func (g *ModuleGraph) ExportUsage(ctx context.Context, id domain.ModuleID, name string) (*int, error) {
	m, err := g.store.GetModule(ctx, id)
	if err != nil || m == nil {
		return nil, err
	}
	e, ok := m.ExportByName(name)
	if !ok {
		return nil, nil
	}
	return e.UsageCount, nil
}
