package graph_test

import (
	"context"
	"testing"

	"github.com/ludo-technologies/jsgraph/domain"
	"github.com/ludo-technologies/jsgraph/internal/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type exportRef struct {
	module domain.ModuleID
	name   string
}

func unusedRefs(t *testing.T, g *graph.ModuleGraph) []exportRef {
	t.Helper()
	unused, err := g.UnusedExports(context.Background())
	require.NoError(t, err)
	refs := make([]exportRef, 0, len(unused))
	for _, u := range unused {
		refs = append(refs, exportRef{u.ModuleID, u.Export.Name})
	}
	return refs
}

func reExport(m, target *domain.Module, name string) {
	m.Exports = append(m.Exports, domain.NewReExport(name, target.Path, domain.SourceSpan{}))
	spec := domain.NamedSpecifier(name)
	if name == "*" {
		spec = domain.NamespaceSpecifier("*")
	}
	importKind(m, target, domain.ImportKindReExport, spec)
}

func TestUnusedExports_DirectImport(t *testing.T) {
	forEachBackend(t, func(t *testing.T, g *graph.ModuleGraph) {
		a, b := mod("a.ts"), mod("b.ts", "helper", "unused")
		a.IsEntry = true
		importFrom(a, b, domain.NamedSpecifier("helper"))
		load(t, g, a, b)

		assert.Equal(t, []exportRef{{b.ID, "unused"}}, unusedRefs(t, g))
	})
}

func TestUnusedExports_NamedReExport(t *testing.T) {
	forEachBackend(t, func(t *testing.T, g *graph.ModuleGraph) {
		index, utils := mod("index.ts"), mod("utils.ts", "helper")
		reExport(index, utils, "helper")
		load(t, g, index, utils)

		// nothing imports index.ts, so the re-export itself is the unused one
		assert.Equal(t, []exportRef{{index.ID, "helper"}}, unusedRefs(t, g))
	})
}

func TestUnusedExports_StarReExportChain(t *testing.T) {
	forEachBackend(t, func(t *testing.T, g *graph.ModuleGraph) {
		app := mod("app.ts")
		app.IsEntry = true
		index := mod("index.ts")
		utils := mod("utils.ts", "helper", "other")

		reExport(index, utils, "*")
		importFrom(app, index, domain.NamedSpecifier("helper"))
		load(t, g, app, index, utils)

		assert.Equal(t, []exportRef{{utils.ID, "other"}}, unusedRefs(t, g))

		used, err := g.IsExportUsed(context.Background(), utils.ID, "helper")
		require.NoError(t, err)
		assert.True(t, used)
	})
}

func TestUnusedExports_ReExportFromEntry(t *testing.T) {
	forEachBackend(t, func(t *testing.T, g *graph.ModuleGraph) {
		index := mod("index.ts")
		index.IsEntry = true
		utils := mod("utils.ts", "helper")
		index.Exports = append(index.Exports, domain.NewReExport("*", utils.Path, domain.SourceSpan{}))
		load(t, g, index, utils)

		assert.Empty(t, unusedRefs(t, g), "exports forwarded by an entry point are public API")
	})
}

func TestUnusedExports_ReExportCycleTerminates(t *testing.T) {
	forEachBackend(t, func(t *testing.T, g *graph.ModuleGraph) {
		a, b := mod("a.ts", "x"), mod("b.ts", "y")
		reExport(a, b, "*")
		reExport(b, a, "*")
		load(t, g, a, b)

		assert.Equal(t, []exportRef{{a.ID, "x"}, {b.ID, "y"}}, unusedRefs(t, g))
	})
}

func TestUnusedExports_SideEffectImportProvesNothing(t *testing.T) {
	forEachBackend(t, func(t *testing.T, g *graph.ModuleGraph) {
		main := mod("main.ts")
		main.IsEntry = true
		m := mod("m.ts", "x", "y")
		importFrom(main, m)
		main.Imports = append(main.Imports,
			domain.NewImport("polyfill", nil, domain.ImportKindStatic, domain.SourceSpan{}))
		load(t, g, main, m)

		assert.Equal(t, []exportRef{{m.ID, "x"}, {m.ID, "y"}}, unusedRefs(t, g))
	})
}

func TestUnusedExports_NamespaceAndDefault(t *testing.T) {
	forEachBackend(t, func(t *testing.T, g *graph.ModuleGraph) {
		main := mod("main.ts")
		main.IsEntry = true
		ns := mod("ns.ts", "x", "y")
		def := mod("def.ts", domain.DefaultExportName, "named")
		importFrom(main, ns, domain.NamespaceSpecifier("ns"))
		importFrom(main, def, domain.DefaultSpecifier())
		load(t, g, main, ns, def)

		assert.Equal(t, []exportRef{{def.ID, "named"}}, unusedRefs(t, g))
	})
}

func TestUnusedExports_Exemptions(t *testing.T) {
	forEachBackend(t, func(t *testing.T, g *graph.ModuleGraph) {
		entry := mod("entry.ts", "api")
		entry.IsEntry = true
		lib := mod("lib.ts", "framework", "forced", "plain")
		lib.Exports[0].MarkFrameworkUsed()
		lib.Exports[1].MarkUsed()
		load(t, g, entry, lib)

		assert.Equal(t, []exportRef{{lib.ID, "plain"}}, unusedRefs(t, g))
	})
}

func TestComputeExportUsageCounts(t *testing.T) {
	forEachBackend(t, func(t *testing.T, g *graph.ModuleGraph) {
		ctx := context.Background()
		m := mod("m.ts", "x", "y", "z")
		a := mod("a.ts")
		importFrom(a, m, domain.NamespaceSpecifier("ns"))
		load(t, g, a, m)

		before, err := g.ExportUsage(ctx, m.ID, "x")
		require.NoError(t, err)
		assert.Nil(t, before, "usage count is absent until computed")

		_, err = g.ComputeExportUsageCounts(ctx)
		require.NoError(t, err)
		assertCounts(t, g, m.ID, map[string]int{"x": 1, "y": 1, "z": 1})

		// one more importer never decreases a count
		b := mod("b.ts")
		importFrom(b, m, domain.NamedSpecifier("x"), domain.NamedSpecifier("y"))
		side := mod("side.ts")
		importFrom(side, m)
		load(t, g, b, side)

		usages, err := g.ComputeExportUsageCounts(ctx)
		require.NoError(t, err)
		assertCounts(t, g, m.ID, map[string]int{"x": 2, "y": 2, "z": 1})

		var total int
		for _, u := range usages {
			if u.ModuleID == m.ID {
				total += u.Count
			}
		}
		assert.Equal(t, 5, total)
	})
}

func TestComputeExportUsageCounts_ReExportNamespaceIsNotAUse(t *testing.T) {
	forEachBackend(t, func(t *testing.T, g *graph.ModuleGraph) {
		ctx := context.Background()
		index, utils := mod("index.ts"), mod("utils.ts", "helper")
		reExport(index, utils, "*")
		load(t, g, index, utils)

		_, err := g.ComputeExportUsageCounts(ctx)
		require.NoError(t, err)
		assertCounts(t, g, utils.ID, map[string]int{"helper": 0})
	})
}

func assertCounts(t *testing.T, g *graph.ModuleGraph, id domain.ModuleID, want map[string]int) {
	t.Helper()
	for name, count := range want {
		got, err := g.ExportUsage(context.Background(), id, name)
		require.NoError(t, err)
		require.NotNil(t, got, name)
		assert.Equal(t, count, *got, name)
	}
}
