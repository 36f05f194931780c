// Package storagetest holds the contract suite every GraphStorage backend must pass.
package storagetest

import (
	"context"
	"testing"

	"github.com/ludo-technologies/jsgraph/domain"
	"github.com/ludo-technologies/jsgraph/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Factory creates a fresh, empty backend for one subtest
type Factory func(t *testing.T) storage.GraphStorage

// ID returns a virtual module id for tests
func ID(name string) domain.ModuleID {
	return domain.NewVirtualModuleID(name)
}

// Module returns a minimal module named name
func Module(name string) *domain.Module {
	id := ID(name)
	return domain.NewModule(id, id.String())
}

// Run executes the contract suite against the backend built by newStorage
func Run(t *testing.T, newStorage Factory) {
	t.Helper()

	tests := []struct {
		name string
		run  func(t *testing.T, s storage.GraphStorage)
	}{
		{"MissingModuleIsNotAnError", testMissingModule},
		{"StoreModuleUpserts", testStoreModuleUpserts},
		{"StoredRecordsAreNotAliased", testNoAliasing},
		{"StoredMetricsAreNotAliased", testNoAliasingMetrics},
		{"GetAllModulesOrdered", testGetAllModulesOrdered},
		{"DependenciesAreSymmetric", testDependenciesSymmetric},
		{"AddDependencyIsIdempotent", testAddDependencyIdempotent},
		{"EntryPointsFollowModuleFlag", testEntryPoints},
		{"ExternalDependencies", testExternalDependencies},
		{"RoundTripsModuleFields", testRoundTrip},
		{"NonASCIIIDsRoundTrip", testNonASCIIIDs},
		{"Clear", testClear},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newStorage(t)
			t.Cleanup(func() { _ = s.Close() })
			tt.run(t, s)
		})
	}
}

func testMissingModule(t *testing.T, s storage.GraphStorage) {
	ctx := context.Background()

	m, err := s.GetModule(ctx, ID("missing"))
	require.NoError(t, err)
	assert.Nil(t, m)

	deps, err := s.GetDependencies(ctx, ID("missing"))
	require.NoError(t, err)
	assert.Empty(t, deps)

	dependents, err := s.GetDependents(ctx, ID("missing"))
	require.NoError(t, err)
	assert.Empty(t, dependents)

	entries, err := s.GetEntryPoints(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func testStoreModuleUpserts(t *testing.T, s storage.GraphStorage) {
	ctx := context.Background()

	m := Module("a.ts")
	m.Exports = []domain.Export{domain.NewExport("x", domain.ExportKindNamed, domain.SourceSpan{})}
	require.NoError(t, s.StoreModule(ctx, m))

	m.Exports = []domain.Export{domain.NewExport("y", domain.ExportKindNamed, domain.SourceSpan{})}
	m.HasSideEffects = true
	require.NoError(t, s.StoreModule(ctx, m))

	got, err := s.GetModule(ctx, m.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Len(t, got.Exports, 1)
	assert.Equal(t, "y", got.Exports[0].Name)
	assert.True(t, got.HasSideEffects)

	all, err := s.GetAllModules(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func testNoAliasing(t *testing.T, s storage.GraphStorage) {
	ctx := context.Background()

	m := Module("a.ts")
	m.Exports = []domain.Export{domain.NewExport("x", domain.ExportKindNamed, domain.SourceSpan{})}
	require.NoError(t, s.StoreModule(ctx, m))

	m.Exports[0].Name = "mutated"

	got, err := s.GetModule(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, "x", got.Exports[0].Name)

	got.Exports[0].Name = "mutated again"
	again, err := s.GetModule(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, "x", again.Exports[0].Name)
}

func testNoAliasingMetrics(t *testing.T, s storage.GraphStorage) {
	ctx := context.Background()

	lines := 10
	m := Module("a.ts")
	m.SymbolTable.Add(domain.Symbol{
		Name: "run",
		Kind: domain.SymbolFunction,
		Metadata: domain.SymbolMetadata{
			CodeQuality: &domain.CodeQualityMetadata{LineCount: &lines},
		},
	})
	require.NoError(t, s.StoreModule(ctx, m))

	lines = 99

	got, err := s.GetModule(ctx, m.ID)
	require.NoError(t, err)
	require.NotNil(t, got.SymbolTable.Symbols[0].Metadata.CodeQuality)
	assert.Equal(t, 10, *got.SymbolTable.Symbols[0].Metadata.CodeQuality.LineCount)

	*got.SymbolTable.Symbols[0].Metadata.CodeQuality.LineCount = 42
	again, err := s.GetModule(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, *again.SymbolTable.Symbols[0].Metadata.CodeQuality.LineCount)
}

func testGetAllModulesOrdered(t *testing.T, s storage.GraphStorage) {
	ctx := context.Background()

	for _, name := range []string{"c.ts", "a.ts", "b.ts"} {
		require.NoError(t, s.StoreModule(ctx, Module(name)))
	}

	all, err := s.GetAllModules(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, ID("a.ts"), all[0].ID)
	assert.Equal(t, ID("b.ts"), all[1].ID)
	assert.Equal(t, ID("c.ts"), all[2].ID)
}

func testDependenciesSymmetric(t *testing.T, s storage.GraphStorage) {
	ctx := context.Background()

	edges := [][2]string{{"a", "b"}, {"a", "c"}, {"b", "c"}, {"c", "a"}}
	for _, e := range edges {
		require.NoError(t, s.AddDependency(ctx, ID(e[0]), ID(e[1])))
	}

	names := []string{"a", "b", "c"}
	for _, from := range names {
		deps, err := s.GetDependencies(ctx, ID(from))
		require.NoError(t, err)
		for _, to := range deps {
			dependents, err := s.GetDependents(ctx, to)
			require.NoError(t, err)
			assert.Contains(t, dependents, ID(from), "%s -> %s has no reverse edge", from, to)
		}
	}

	deps, err := s.GetDependencies(ctx, ID("a"))
	require.NoError(t, err)
	assert.Equal(t, []domain.ModuleID{ID("b"), ID("c")}, deps)

	dependents, err := s.GetDependents(ctx, ID("c"))
	require.NoError(t, err)
	assert.Equal(t, []domain.ModuleID{ID("a"), ID("b")}, dependents)
}

func testAddDependencyIdempotent(t *testing.T, s storage.GraphStorage) {
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, s.AddDependency(ctx, ID("a"), ID("b")))
	}

	deps, err := s.GetDependencies(ctx, ID("a"))
	require.NoError(t, err)
	assert.Equal(t, []domain.ModuleID{ID("b")}, deps)

	dependents, err := s.GetDependents(ctx, ID("b"))
	require.NoError(t, err)
	assert.Equal(t, []domain.ModuleID{ID("a")}, dependents)
}

func testEntryPoints(t *testing.T, s storage.GraphStorage) {
	ctx := context.Background()

	entry := Module("main.ts")
	entry.IsEntry = true
	require.NoError(t, s.StoreModule(ctx, entry))
	require.NoError(t, s.StoreModule(ctx, Module("lib.ts")))

	entries, err := s.GetEntryPoints(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.ModuleID{entry.ID}, entries)

	entry.IsEntry = false
	require.NoError(t, s.StoreModule(ctx, entry))

	entries, err = s.GetEntryPoints(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func testExternalDependencies(t *testing.T, s storage.GraphStorage) {
	ctx := context.Background()

	react := domain.NewExternalDependency("react")
	react.ImportedBy = []domain.ModuleID{ID("b"), ID("a"), ID("b")}
	require.NoError(t, s.StoreExternalDependency(ctx, react))
	require.NoError(t, s.StoreExternalDependency(ctx, domain.NewExternalDependency("lodash")))

	deps, err := s.GetExternalDependencies(ctx)
	require.NoError(t, err)
	require.Len(t, deps, 2)
	assert.Equal(t, "lodash", deps[0].Specifier)
	assert.Equal(t, "react", deps[1].Specifier)
	assert.Equal(t, []domain.ModuleID{ID("a"), ID("b")}, deps[1].ImportedBy)
}

func testRoundTrip(t *testing.T, s storage.GraphStorage) {
	ctx := context.Background()

	target := ID("b.ts")
	size := 120
	order := uint32(3)

	m := Module("a.ts")
	m.IsEntry = true
	m.OriginalSize = 512
	m.BundledSize = &size
	m.ExecutionOrder = &order
	m.ModuleFormat = domain.ModuleFormatESM
	m.ExportsKind = domain.ExportsKindESM
	imp := domain.NewImport("./b", []domain.ImportSpecifier{
		domain.NamedSpecifier("helper"),
		domain.NamespaceSpecifier("ns"),
	}, domain.ImportKindStatic, domain.NewSourceSpan("a.ts", 0, 24))
	imp.ResolveTo(target)
	m.Imports = []domain.Import{imp}

	exp := domain.NewExport("run", domain.ExportKindNamed, domain.NewSourceSpan("a.ts", 30, 60))
	exp.SetUsageCount(0)
	m.Exports = []domain.Export{exp}
	m.SymbolTable.Add(domain.Symbol{
		Name:       "secret",
		Kind:       domain.SymbolClassProperty,
		WriteCount: 1,
		Metadata: domain.SymbolMetadata{
			ClassMember: &domain.ClassMemberMetadata{Visibility: domain.VisibilityPrivate, ClassName: "Box"},
		},
	})

	require.NoError(t, s.StoreModule(ctx, m))

	got, err := s.GetModule(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, m, got)
	require.NotNil(t, got.Exports[0].UsageCount)
	assert.Equal(t, 0, *got.Exports[0].UsageCount)
	assert.True(t, got.Imports[0].IsResolvedTo(target))
}

func testNonASCIIIDs(t *testing.T, s storage.GraphStorage) {
	ctx := context.Background()

	_, err := domain.NewModuleID("/proj/x\xffy.ts")
	require.ErrorIs(t, err, domain.ErrInvalidModuleID)

	entry, err := domain.NewModuleID("/proj/ünïcode/入口.ts")
	require.NoError(t, err)
	target := ID("x\xffy.ts")

	a := domain.NewModule(entry, entry.String())
	a.IsEntry = true
	imp := domain.NewImport("./x", []domain.ImportSpecifier{domain.NamedSpecifier("helper")},
		domain.ImportKindStatic, domain.SourceSpan{})
	imp.ResolveTo(target)
	a.Imports = []domain.Import{imp}

	require.NoError(t, s.StoreModule(ctx, a))
	require.NoError(t, s.StoreModule(ctx, domain.NewModule(target, target.String())))
	require.NoError(t, s.AddDependency(ctx, entry, target))

	got, err := s.GetModule(ctx, entry)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, entry, got.ID)
	assert.True(t, got.Imports[0].IsResolvedTo(target))

	stored, err := s.GetModule(ctx, target)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, target, stored.ID)

	dependents, err := s.GetDependents(ctx, target)
	require.NoError(t, err)
	assert.Equal(t, []domain.ModuleID{entry}, dependents)
}

func testClear(t *testing.T, s storage.GraphStorage) {
	ctx := context.Background()

	require.NoError(t, s.StoreModule(ctx, Module("a")))
	require.NoError(t, s.AddDependency(ctx, ID("a"), ID("b")))
	require.NoError(t, s.StoreExternalDependency(ctx, domain.NewExternalDependency("react")))

	require.NoError(t, s.Clear(ctx))

	all, err := s.GetAllModules(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	deps, err := s.GetDependencies(ctx, ID("a"))
	require.NoError(t, err)
	assert.Empty(t, deps)

	ext, err := s.GetExternalDependencies(ctx)
	require.NoError(t, err)
	assert.Empty(t, ext)
}
