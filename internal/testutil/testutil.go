// Package testutil provides project fixtures for testing jsgraph components
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// SampleProject is a small project with one entry point (index.ts), one live
// module with an unused export (util.ts), one unreachable module (orphan.ts)
// and one unused npm dependency (left-pad).
func SampleProject() map[string]string {
	return map[string]string{
		"package.json": `{"name": "app", "dependencies": {"lodash": "^4.0.0", "left-pad": "^1.0.0"}}`,
		"index.ts":     "import { used } from './util';\nimport _ from 'lodash';\nexport const app = used;\n",
		"util.ts":      "export const used = 1;\nexport const unused = 2;\n",
		"orphan.ts":    "export const lonely = 1;\n",
	}
}

// WriteTree creates files under a temp dir and returns its canonical path.
// File names are slash-separated and relative to the root.
func WriteTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

// WriteSampleProject writes SampleProject and returns its root
func WriteSampleProject(t *testing.T) string {
	t.Helper()
	return WriteTree(t, SampleProject())
}
