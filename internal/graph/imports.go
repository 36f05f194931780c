package graph

import (
	"context"
	"slices"

	"github.com/ludo-technologies/jsgraph/domain"
)

// SideEffectOnlyImports returns every import statement that binds nothing, such as import './polyfill'
func (g *ModuleGraph) SideEffectOnlyImports(ctx context.Context) ([]domain.SideEffectImport, error) {
	modules, err := g.store.GetAllModules(ctx)
	if err != nil {
		return nil, err
	}

	result := []domain.SideEffectImport{}
	for _, m := range modules {
		for _, imp := range m.Imports {
			// dynamic import() and bare require() calls have no bindings either but are not statements
			if !imp.IsSideEffectOnly() || imp.Kind != domain.ImportKindStatic {
				continue
			}
			result = append(result, domain.SideEffectImport{
				Importer:   m.ID,
				Source:     imp.Source,
				ResolvedTo: imp.ResolvedTo,
				Span:       imp.Span,
			})
		}
	}
	return result, nil
}

// NamespaceImports returns every import * as ns statement
func (g *ModuleGraph) NamespaceImports(ctx context.Context) ([]domain.NamespaceImportInfo, error) {
	modules, err := g.store.GetAllModules(ctx)
	if err != nil {
		return nil, err
	}

	result := []domain.NamespaceImportInfo{}
	for _, m := range modules {
		for _, imp := range m.Imports {
			if imp.IsReExport() {
				continue
			}
			for _, s := range imp.Specifiers {
				// dynamic import() binds no name
				if s.Kind != domain.SpecifierNamespace || s.Name == "" {
					continue
				}
				result = append(result, domain.NamespaceImportInfo{
					Importer:      m.ID,
					NamespaceName: s.Name,
					Source:        imp.Source,
					ResolvedTo:    imp.ResolvedTo,
				})
			}
		}
	}
	return result, nil
}

// TypeOnlyImports returns every import type statement
func (g *ModuleGraph) TypeOnlyImports(ctx context.Context) ([]domain.TypeOnlyImport, error) {
	modules, err := g.store.GetAllModules(ctx)
	if err != nil {
		return nil, err
	}

	result := []domain.TypeOnlyImport{}
	for _, m := range modules {
		for _, imp := range m.Imports {
			if !imp.IsTypeOnly() {
				continue
			}
			result = append(result, domain.TypeOnlyImport{
				Importer:   m.ID,
				Source:     imp.Source,
				Specifiers: slices.Clone(imp.Specifiers),
				Span:       imp.Span,
			})
		}
	}
	return result, nil
}
