package walker

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ludo-technologies/jsgraph/domain"
	"github.com/ludo-technologies/jsgraph/internal/graph"
	"github.com/ludo-technologies/jsgraph/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscover(t *testing.T) {
	root := testutil.WriteTree(t, map[string]string{
		"index.ts":                "export {}",
		"src/a.ts":                "export {}",
		"src/a.test.ts":           "export {}",
		"node_modules/x/index.js": "module.exports = 1",
		"dist/out.js":             "export {}",
		"types.d.ts":              "export {}",
		"ignored/gen.ts":          "export {}",
		"README.md":               "# readme",
		".gitignore":              "ignored/\n",
	})

	files, err := Discover([]string{root}, DiscoverOptions{
		ExcludePatterns:  append([]string{"*.test.ts"}, DefaultExcludePatterns...),
		RespectGitignore: true,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(root, "index.ts"),
		filepath.Join(root, "src", "a.ts"),
	}, files)
}

func TestDiscover_IncludeAndSize(t *testing.T) {
	root := testutil.WriteTree(t, map[string]string{
		"src/small.ts": "export {}",
		"src/large.ts": "export const big = '" + strings.Repeat("x", 2048) + "'",
		"scripts/x.js": "export {}",
	})

	files, err := Discover([]string{root}, DiscoverOptions{
		IncludePatterns: []string{"src/**"},
		MaxFileSize:     1024,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(root, "src", "small.ts")}, files)
}

func TestDiscover_MissingPath(t *testing.T) {
	_, err := Discover([]string{filepath.Join(t.TempDir(), "nope")}, DiscoverOptions{})
	assert.Error(t, err)
}

func project(t *testing.T) string {
	return testutil.WriteTree(t, map[string]string{
		"package.json": `{
  "name": "app",
  "main": "lib/main.js",
  "dependencies": {"lodash": "^4.0.0", "left-pad": "^1.0.0"}
}`,
		"index.ts":     "import { used } from './util';\nimport _ from 'lodash';\nexport const app = used;\n",
		"util.ts":      "export const used = 1;\nexport const unused = 2;\n",
		"orphan.ts":    "export const lonely = 1;\n",
		"lib/main.js":  "require('./setup');\n",
		"lib/setup.js": "globalThis.ready = true;\n",
	})
}

func TestWalker_Load(t *testing.T) {
	ctx := context.Background()
	root := project(t)
	id := func(rel string) domain.ModuleID {
		return domain.MustModuleID(filepath.Join(root, filepath.FromSlash(rel)))
	}

	g := graph.NewInMemory()
	w := New(Options{UsePackageEntries: true, MaxConcurrency: 2})
	result, err := w.Load(ctx, g, []string{root})
	require.NoError(t, err)

	assert.Equal(t, root, result.Root)
	require.NotNil(t, result.PackageJSON)
	assert.Equal(t, "app", result.PackageJSON.Name)
	assert.Empty(t, result.Errors)

	n, err := g.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	entries, err := g.EntryPoints(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []domain.ModuleID{id("index.ts"), id("lib/main.js")}, entries)

	has, err := g.HasDependency(ctx, id("index.ts"), id("util.ts"))
	require.NoError(t, err)
	assert.True(t, has)
	has, err = g.HasDependency(ctx, id("lib/main.js"), id("lib/setup.js"))
	require.NoError(t, err)
	assert.True(t, has)

	unreachable, err := g.UnreachableModules(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.ModuleID{id("orphan.ts")}, unreachable)

	unused, err := g.UnusedExports(ctx)
	require.NoError(t, err)
	var names []string
	for _, u := range unused {
		names = append(names, u.Export.Name)
	}
	assert.ElementsMatch(t, []string{"unused", "lonely"}, names)

	deps, err := g.UnusedNpmDependencies(ctx, result.PackageJSON, false, false)
	require.NoError(t, err)
	require.Len(t, deps, 1)
	assert.Equal(t, "left-pad", deps[0].Package)
}

func TestWalker_NoEntries(t *testing.T) {
	root := testutil.WriteTree(t, map[string]string{
		"a.ts": "import './b';\n",
		"b.ts": "export const b = 1;\n",
	})

	result, err := New(Options{EntryPatterns: []string{}}).Walk(context.Background(), []string{root})
	require.NoError(t, err)
	assert.Empty(t, result.Entries)
	require.Len(t, result.Modules, 2)

	a := result.Modules[0]
	require.Len(t, a.Imports, 1)
	require.NotNil(t, a.Imports[0].ResolvedTo)
	assert.Equal(t, result.Modules[1].ID, *a.Imports[0].ResolvedTo)
}

func TestWalker_ReExportTargetsResolvedModule(t *testing.T) {
	root := testutil.WriteTree(t, map[string]string{
		"index.ts":         "export { helper } from './helpers';\n",
		"helpers/index.ts": "export function helper() {}\n",
	})

	result, err := New(Options{}).Walk(context.Background(), []string{root})
	require.NoError(t, err)

	var index *domain.Module
	for _, m := range result.Modules {
		if filepath.Base(m.Path) == "index.ts" && filepath.Dir(m.Path) == root {
			index = m
		}
	}
	require.NotNil(t, index)
	require.Len(t, index.Exports, 1)
	assert.Equal(t, filepath.Join(root, "helpers", "index.ts"), index.Exports[0].ReExportedFrom)
}

func TestWalker_Cancelled(t *testing.T) {
	root := project(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(Options{}).Walk(ctx, []string{root})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAnchorAliases(t *testing.T) {
	root := filepath.Join(string(filepath.Separator), "proj")
	abs := filepath.Join(string(filepath.Separator), "shared", "lib")

	anchored := anchorAliases(root, map[string]string{
		"@/":      "src",
		"~lib":    abs,
		"#config": "config/index",
	})
	assert.Equal(t, map[string]string{
		"@/":      filepath.Join(root, "src"),
		"~lib":    abs,
		"#config": filepath.Join(root, "config", "index"),
	}, anchored)
}

func TestWalker_Aliases(t *testing.T) {
	ctx := context.Background()
	root := testutil.WriteTree(t, map[string]string{
		"index.ts":            "import { format } from '@/utils/format';\nexport const out = format();\n",
		"src/utils/format.ts": "export function format() { return ''; }\n",
	})

	g := graph.NewInMemory()
	_, err := New(Options{Aliases: map[string]string{"@/": "src"}}).Load(ctx, g, []string{root})
	require.NoError(t, err)

	has, err := g.HasDependency(ctx,
		domain.MustModuleID(filepath.Join(root, "index.ts")),
		domain.MustModuleID(filepath.Join(root, "src", "utils", "format.ts")))
	require.NoError(t, err)
	assert.True(t, has, "aliased imports resolve relative to the project root")

	external, err := g.ExternalDependencies(ctx)
	require.NoError(t, err)
	assert.Empty(t, external, "an aliased import is not an npm package")
}
