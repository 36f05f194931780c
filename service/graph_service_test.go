package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/ludo-technologies/jsgraph/domain"
	"github.com/ludo-technologies/jsgraph/internal/config"
	"github.com/ludo-technologies/jsgraph/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeProject(t *testing.T) string {
	t.Helper()
	files := testutil.SampleProject()
	files["package.json"] = `{
  "name": "app",
  "main": "lib/main.js",
  "dependencies": {"lodash": "^4.0.0", "left-pad": "^1.0.0"}
}`
	files["lib/main.js"] = "require('./setup');\n"
	files["lib/setup.js"] = "globalThis.ready = true;\n"
	return testutil.WriteTree(t, files)
}

func build(t *testing.T, cfg *config.Config, root string) *BuildResult {
	t.Helper()
	result, err := NewGraphService(cfg, nil, nil).Build(context.Background(), []string{root})
	require.NoError(t, err)
	t.Cleanup(func() { _ = result.Close() })
	return result
}

func exportNames(unused []domain.UnusedExport) []string {
	names := make([]string, len(unused))
	for i, u := range unused {
		names[i] = u.Export.Name
	}
	return names
}

func TestGraphService_Build(t *testing.T) {
	root := writeProject(t)
	result := build(t, config.DefaultConfig(), root)

	assert.Equal(t, root, result.Root)
	assert.Len(t, result.Files, 5)
	assert.Empty(t, result.Warnings)
	assert.Nil(t, result.ParseErrors)
	require.NotNil(t, result.PackageJSON)
	assert.Equal(t, "app", result.PackageJSON.Name)
	assert.Equal(t, "lib/main.js", result.RelPath(filepath.Join(root, "lib", "main.js")))
}

func TestGraphService_NoEntriesWarning(t *testing.T) {
	root := writeProject(t)
	cfg := config.DefaultConfig()
	cfg.Analysis.EntryPoints = []string{"nothing/*.ts"}
	cfg.Analysis.PackageEntries = false

	result := build(t, cfg, root)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "no entry points matched")
}

func TestGraphService_FrameworkRule(t *testing.T) {
	root := writeProject(t)
	cfg := config.DefaultConfig()
	cfg.Framework.Rules = []config.FrameworkRuleConfig{
		{Name: "keep", Paths: []string{"util.ts"}, Exports: []string{"unused"}},
	}

	result := build(t, cfg, root)
	require.Len(t, result.FrameworkExports, 1)
	assert.Equal(t, "unused", result.FrameworkExports[0].Export.Name)

	unused, err := result.Graph.UnusedExports(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"lonely"}, exportNames(unused))
}

func TestGraphService_UnknownPreset(t *testing.T) {
	root := writeProject(t)
	cfg := config.DefaultConfig()
	cfg.Framework.Presets = []string{"angularjs"}

	_, err := NewGraphService(cfg, nil, nil).Build(context.Background(), []string{root})
	assert.True(t, domain.IsConfigError(err))
}

func TestGraphService_PersistentRebuild(t *testing.T) {
	root := writeProject(t)
	cfg := config.DefaultConfig()
	cfg.Storage.Backend = "persistent"
	cfg.Storage.Path = filepath.Join(t.TempDir(), "graph.db")

	for i := 0; i < 2; i++ {
		result, err := NewGraphService(cfg, nil, nil).Build(context.Background(), []string{root})
		require.NoError(t, err)
		n, err := result.Graph.Len(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 5, n, "run %d", i)
		require.NoError(t, result.Close())
	}
}

func TestAnchorPattern(t *testing.T) {
	assert.Equal(t, "*.stories.tsx", anchorPattern("/repo", "*.stories.tsx"))
	assert.Equal(t, "**/pages/*.tsx", anchorPattern("/repo", "**/pages/*.tsx"))
	assert.Equal(t, "/abs/*.ts", anchorPattern("/repo", "/abs/*.ts"))
	assert.Equal(t, "/repo/src/pages/*.tsx", anchorPattern("/repo", "./src/pages/*.tsx"))
}

func TestReportService_Analyze(t *testing.T) {
	root := writeProject(t)
	result := build(t, config.DefaultConfig(), root)
	reports := NewReportService(&config.PerformanceConfig{MaxGoroutines: 2}, nil, nil)

	resp, err := reports.Analyze(context.Background(), result, domain.AnalyzeRequest{Paths: []string{root}})
	require.NoError(t, err)

	assert.Equal(t, domain.AllSections, resp.Sections)
	require.NotNil(t, resp.Statistics)
	assert.Equal(t, 5, resp.Statistics.ModuleCount)
	assert.Equal(t, 2, resp.Statistics.EntryPointCount)
	assert.ElementsMatch(t, []string{"unused", "lonely"}, exportNames(resp.UnusedExports))

	require.Len(t, resp.UnreachableModules, 1)
	assert.Equal(t, "orphan.ts", resp.UnreachableModules[0].Path)
	assert.Equal(t, 1, resp.UnreachableModules[0].ExportCount)

	require.Len(t, resp.UnusedDependencies, 1)
	assert.Equal(t, "left-pad", resp.UnusedDependencies[0].Package)
	require.NotNil(t, resp.Coverage)
	assert.Equal(t, 2, resp.Coverage.TotalDeclared)
	assert.Equal(t, 4, resp.IssueCount()-len(resp.UnusedSymbols))
}

func TestReportService_AnalyzeSelectedSections(t *testing.T) {
	root := writeProject(t)
	result := build(t, config.DefaultConfig(), root)
	reports := NewReportService(&config.PerformanceConfig{}, nil, nil)

	resp, err := reports.Analyze(context.Background(), result, domain.AnalyzeRequest{
		Sections: []string{domain.SectionUnusedExports},
		SortBy:   domain.SortByName,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{domain.SectionUnusedExports}, resp.Sections)
	assert.Nil(t, resp.Statistics)
	assert.Nil(t, resp.UnreachableModules)
	assert.Equal(t, []string{"lonely", "unused"}, exportNames(resp.UnusedExports))
}

func TestReportService_AnalyzeWithoutManifest(t *testing.T) {
	root := writeProject(t)
	require.NoError(t, os.Remove(filepath.Join(root, "package.json")))
	result := build(t, config.DefaultConfig(), root)

	resp, err := NewReportService(&config.PerformanceConfig{}, nil, nil).Analyze(context.Background(), result,
		domain.AnalyzeRequest{Sections: []string{domain.SectionUnusedDependencies}})
	require.NoError(t, err)
	assert.Empty(t, resp.UnusedDependencies)
	assert.Contains(t, resp.Warnings, "no package.json found; skipping unused dependency check")

	_, err = NewReportService(&config.PerformanceConfig{}, nil, nil).Deps(context.Background(), result, domain.DepsRequest{})
	assert.True(t, domain.IsConfigError(err))
}

func TestReportService_Chains(t *testing.T) {
	root := writeProject(t)
	result := build(t, config.DefaultConfig(), root)
	reports := NewReportService(&config.PerformanceConfig{}, nil, nil)

	resp, err := reports.Chains(context.Background(), result, "util.ts")
	require.NoError(t, err)
	assert.True(t, resp.Analysis.IsReachable())
	require.Len(t, resp.Analysis.Chains, 1)
	assert.Equal(t, 1, resp.Analysis.Chains[0].Depth)
	require.NotNil(t, resp.ImportDepth)
	assert.Equal(t, 1, *resp.ImportDepth)
	assert.False(t, resp.ReachableOnlyThroughDeadCode)
	require.Len(t, resp.Dependents, 1)
	assert.Equal(t, filepath.Join(root, "index.ts"), resp.Dependents[0].Path())

	orphan, err := reports.Chains(context.Background(), result, filepath.Join(root, "orphan.ts"))
	require.NoError(t, err)
	assert.False(t, orphan.Analysis.IsReachable())
	assert.Nil(t, orphan.ImportDepth)
	assert.False(t, orphan.ReachableOnlyThroughDeadCode, "a module without importers is simply unreachable")

	_, err = reports.Chains(context.Background(), result, "missing.ts")
	assert.True(t, domain.IsConfigError(err))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestReportService_Deps(t *testing.T) {
	root := writeProject(t)
	result := build(t, config.DefaultConfig(), root)

	resp, err := NewReportService(&config.PerformanceConfig{}, nil, nil).Deps(context.Background(), result, domain.DepsRequest{})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "package.json"), resp.PackageJSON)
	assert.Equal(t, 2, resp.Coverage.TotalDeclared)
	assert.Equal(t, 1, resp.Coverage.TotalUsed)
	require.Len(t, resp.Unused, 1)
	assert.Equal(t, "left-pad", resp.Unused[0].Package)
	assert.Contains(t, resp.Used, "lodash")
	require.Len(t, resp.External, 1)
	assert.Equal(t, "lodash", resp.External[0].Specifier)
}

func TestReportService_Stats(t *testing.T) {
	root := writeProject(t)
	result := build(t, config.DefaultConfig(), root)

	resp, err := NewReportService(&config.PerformanceConfig{}, nil, nil).Stats(context.Background(), result)
	require.NoError(t, err)
	assert.Equal(t, 5, resp.Statistics.ModuleCount)
	assert.Equal(t, []domain.DepthBucket{{Depth: 0, Count: 2}, {Depth: 1, Count: 2}}, resp.ModulesByDepth)
}

func TestReportService_GraphView(t *testing.T) {
	root := writeProject(t)
	result := build(t, config.DefaultConfig(), root)

	view, err := NewReportService(&config.PerformanceConfig{}, nil, nil).GraphView(context.Background(), result)
	require.NoError(t, err)
	require.Len(t, view.Nodes, 5)

	byLabel := make(map[string]domain.GraphNode)
	for _, n := range view.Nodes {
		byLabel[n.Label] = n
	}
	assert.True(t, byLabel["index.ts"].IsEntry)
	assert.True(t, byLabel["orphan.ts"].IsUnreachable)
	assert.Nil(t, byLabel["orphan.ts"].Depth)
	assert.Equal(t, 1, byLabel["util.ts"].UnusedExports)

	kinds := make(map[string]domain.ImportKind)
	for _, e := range view.Edges {
		kinds[result.RelPath(e.From.Path())+" -> "+result.RelPath(e.To.Path())] = e.Kind
	}
	assert.Equal(t, map[string]domain.ImportKind{
		"index.ts -> util.ts":         domain.ImportKindStatic,
		"lib/main.js -> lib/setup.js": domain.ImportKindRequire,
	}, kinds)

	dot, err := NewDOTFormatter(nil).FormatGraph(view)
	require.NoError(t, err)
	assert.Contains(t, dot, `"index.ts" -> "util.ts"`)
}
