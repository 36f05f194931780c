package graph

import (
	"context"
	"slices"
	"strings"

	"github.com/ludo-technologies/jsgraph/domain"
)

func (g *ModuleGraph) eachSymbol(ctx context.Context, fn func(id domain.ModuleID, s *domain.Symbol)) error {
	modules, err := g.store.GetAllModules(ctx)
	if err != nil {
		return err
	}
	for _, m := range modules {
		for i := range m.SymbolTable.Symbols {
			fn(m.ID, &m.SymbolTable.Symbols[i])
		}
	}
	return nil
}

// AllSymbols returns every symbol of every module
func (g *ModuleGraph) AllSymbols(ctx context.Context) ([]domain.UnusedSymbol, error) {
	result := []domain.UnusedSymbol{}
	err := g.eachSymbol(ctx, func(id domain.ModuleID, s *domain.Symbol) {
		result = append(result, domain.UnusedSymbol{ModuleID: id, Symbol: *s})
	})
	return result, err
}

// UnusedSymbols returns the unused symbols of every module
func (g *ModuleGraph) UnusedSymbols(ctx context.Context) ([]domain.UnusedSymbol, error) {
	result := []domain.UnusedSymbol{}
	err := g.eachSymbol(ctx, func(id domain.ModuleID, s *domain.Symbol) {
		if s.IsUnused() {
			result = append(result, domain.UnusedSymbol{ModuleID: id, Symbol: *s})
		}
	})
	return result, err
}

// UnusedSymbolsInModule returns the unused symbols of one module, empty when the module is missing
func (g *ModuleGraph) UnusedSymbolsInModule(ctx context.Context, id domain.ModuleID) ([]domain.Symbol, error) {
	m, err := g.store.GetModule(ctx, id)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return []domain.Symbol{}, nil
	}
	unused := m.SymbolTable.UnusedSymbols()
	if unused == nil {
		unused = []domain.Symbol{}
	}
	return unused, nil
}

// SymbolStatistics aggregates symbol counts across the graph
func (g *ModuleGraph) SymbolStatistics(ctx context.Context) (domain.SymbolStatistics, error) {
	var stats domain.SymbolStatistics
	byKind := make(map[domain.SymbolKind]int)
	err := g.eachSymbol(ctx, func(_ domain.ModuleID, s *domain.Symbol) {
		stats.TotalSymbols++
		if s.IsUnused() {
			stats.UnusedSymbols++
		}
		byKind[s.Kind]++
	})
	if err != nil {
		return stats, err
	}

	stats.ByKind = make([]domain.SymbolKindCount, 0, len(byKind))
	for kind, count := range byKind {
		stats.ByKind = append(stats.ByKind, domain.SymbolKindCount{Kind: kind, Count: count})
	}
	slices.SortFunc(stats.ByKind, func(a, b domain.SymbolKindCount) int {
		return strings.Compare(string(a.Kind), string(b.Kind))
	})
	return stats, nil
}

func (g *ModuleGraph) classMembers(ctx context.Context, keep func(*domain.Symbol) bool) ([]domain.ClassMemberInfo, error) {
	result := []domain.ClassMemberInfo{}
	err := g.eachSymbol(ctx, func(id domain.ModuleID, s *domain.Symbol) {
		if s.Metadata.ClassMember == nil || !keep(s) {
			return
		}
		result = append(result, domain.ClassMemberInfo{
			ModuleID: id,
			Symbol:   *s,
			Metadata: *s.Metadata.ClassMember,
		})
	})
	return result, err
}

// AllClassMembers returns every class member symbol
func (g *ModuleGraph) AllClassMembers(ctx context.Context) ([]domain.ClassMemberInfo, error) {
	return g.classMembers(ctx, func(*domain.Symbol) bool { return true })
}

// UnusedPrivateClassMembers returns private class members that are never used
func (g *ModuleGraph) UnusedPrivateClassMembers(ctx context.Context) ([]domain.ClassMemberInfo, error) {
	return g.classMembers(ctx, (*domain.Symbol).IsUnusedPrivateMember)
}

// UnusedPublicClassMembers returns public class members that are never used inside their module
func (g *ModuleGraph) UnusedPublicClassMembers(ctx context.Context) ([]domain.ClassMemberInfo, error) {
	return g.classMembers(ctx, func(s *domain.Symbol) bool {
		return s.IsUnused() && s.Metadata.ClassMember.Visibility == domain.VisibilityPublic &&
			s.Kind != domain.SymbolClassConstructor
	})
}

func (g *ModuleGraph) enumMembers(ctx context.Context, keep func(*domain.Symbol) bool) ([]domain.EnumMemberInfo, error) {
	result := []domain.EnumMemberInfo{}
	err := g.eachSymbol(ctx, func(id domain.ModuleID, s *domain.Symbol) {
		if s.Metadata.EnumMember == nil || !keep(s) {
			return
		}
		result = append(result, domain.EnumMemberInfo{
			ModuleID: id,
			Symbol:   *s,
			Metadata: *s.Metadata.EnumMember,
		})
	})
	return result, err
}

// AllEnumMembers returns every enum member symbol
func (g *ModuleGraph) AllEnumMembers(ctx context.Context) ([]domain.EnumMemberInfo, error) {
	return g.enumMembers(ctx, func(*domain.Symbol) bool { return true })
}

// UnusedEnumMembers returns enum members that are never used
func (g *ModuleGraph) UnusedEnumMembers(ctx context.Context) ([]domain.EnumMemberInfo, error) {
	return g.enumMembers(ctx, (*domain.Symbol).IsUnusedEnumMember)
}
