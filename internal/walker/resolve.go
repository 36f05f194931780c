package walker

import (
	"path/filepath"
	"sort"
	"strings"
)

// SourceExtensions are the file extensions the walker analyzes, in resolution order
var SourceExtensions = []string{".ts", ".tsx", ".js", ".jsx", ".mjs", ".cjs", ".mts", ".cts"}

// jsToTS maps an emitted extension to the TypeScript sources that produce it
var jsToTS = map[string][]string{
	".js":  {".ts", ".tsx"},
	".jsx": {".tsx"},
	".mjs": {".mts"},
	".cjs": {".cts"},
}

// Resolver maps import specifiers to files discovered by the walker
type Resolver struct {
	files   map[string]struct{}
	aliases []alias
}

type alias struct {
	prefix string
	target string
}

// NewResolver creates a resolver over a set of absolute file paths.
// Aliases map a specifier prefix (such as "@/") to a directory.
func NewResolver(files []string, aliases map[string]string) *Resolver {
	r := &Resolver{files: make(map[string]struct{}, len(files))}
	for _, f := range files {
		r.files[filepath.Clean(f)] = struct{}{}
	}
	for prefix, target := range aliases {
		r.aliases = append(r.aliases, alias{prefix: prefix, target: target})
	}
	// longest prefix wins
	sort.Slice(r.aliases, func(i, j int) bool {
		if len(r.aliases[i].prefix) != len(r.aliases[j].prefix) {
			return len(r.aliases[i].prefix) > len(r.aliases[j].prefix)
		}
		return r.aliases[i].prefix < r.aliases[j].prefix
	})
	return r
}

// Resolve returns the file an import of spec from importer refers to.
// The second result is false for bare package specifiers and unresolvable paths.
func (r *Resolver) Resolve(importer, spec string) (string, bool) {
	if spec == "" {
		return "", false
	}

	var base string
	switch {
	case isRelativeSpecifier(spec):
		if filepath.IsAbs(spec) {
			base = spec
		} else {
			base = filepath.Join(filepath.Dir(importer), filepath.FromSlash(spec))
		}
	default:
		target, ok := r.expandAlias(spec)
		if !ok {
			return "", false
		}
		base = target
	}

	return r.probe(filepath.Clean(base))
}

func (r *Resolver) expandAlias(spec string) (string, bool) {
	for _, a := range r.aliases {
		if spec == strings.TrimSuffix(a.prefix, "/") || strings.HasPrefix(spec, a.prefix) {
			rest := strings.TrimPrefix(strings.TrimPrefix(spec, a.prefix), "/")
			return filepath.Join(a.target, filepath.FromSlash(rest)), true
		}
	}
	return "", false
}

// probe tries the exact path, appended extensions, TypeScript sources and index files
func (r *Resolver) probe(base string) (string, bool) {
	if r.has(base) {
		return base, true
	}
	for _, ext := range SourceExtensions {
		if r.has(base + ext) {
			return base + ext, true
		}
	}

	ext := filepath.Ext(base)
	if tsExts, ok := jsToTS[ext]; ok {
		stem := strings.TrimSuffix(base, ext)
		for _, tsExt := range tsExts {
			if r.has(stem + tsExt) {
				return stem + tsExt, true
			}
		}
	}

	for _, ext := range SourceExtensions {
		index := filepath.Join(base, "index"+ext)
		if r.has(index) {
			return index, true
		}
	}
	return "", false
}

func (r *Resolver) has(path string) bool {
	_, ok := r.files[path]
	return ok
}

// IsSourceFile reports whether path has an analyzable extension
func IsSourceFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range SourceExtensions {
		if ext == e {
			return true
		}
	}
	return false
}
