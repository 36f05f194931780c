// Package walker discovers JavaScript and TypeScript sources, extracts their
// imports, exports and symbols with tree-sitter, and feeds them into a ModuleGraph.
package walker

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"

	"github.com/bmatcuk/doublestar"
	"github.com/ludo-technologies/jsgraph/domain"
	"github.com/ludo-technologies/jsgraph/internal/graph"
	"github.com/ludo-technologies/jsgraph/internal/logging"
	"github.com/ludo-technologies/jsgraph/internal/parser"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// DefaultEntryPatterns match conventional entry files relative to the project root
var DefaultEntryPatterns = []string{"index.*", "main.*", "src/index.*", "src/main.*"}

// DefaultExcludePatterns skip declaration files and build output
var DefaultExcludePatterns = []string{"*.d.ts", "dist", "build", "coverage"}

// Options configures a Walker
type Options struct {
	Discover DiscoverOptions

	// EntryPatterns are globs relative to the project root; nil means DefaultEntryPatterns
	EntryPatterns []string

	// UsePackageEntries adds package.json main and module as entry points
	UsePackageEntries bool

	// Aliases maps specifier prefixes to directories
	Aliases map[string]string

	// MaxConcurrency bounds parallel parsing; zero means runtime.NumCPU()
	MaxConcurrency int

	Logger   logrus.FieldLogger
	Progress domain.ProgressManager
}

// FileError is a file that could not be read or parsed
type FileError struct {
	Path string
	Err  error
}

// Error implements the error interface
func (e FileError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying error
func (e FileError) Unwrap() error {
	return e.Err
}

// Result is the output of a walk
type Result struct {
	// Root is the directory entry patterns and package.json lookup are relative to
	Root string

	// Files are the discovered source files
	Files []string

	// Modules are the analyzed modules ordered by id, with imports resolved
	Modules []*domain.Module

	// Entries are the modules flagged as entry points
	Entries []domain.ModuleID

	// Errors are files that were skipped
	Errors []FileError

	// PackageJSON is the manifest closest to Root, nil when none was found
	PackageJSON *domain.PackageJSON
}

// Walker turns a directory tree into modules
type Walker struct {
	opts Options
	log  logrus.FieldLogger
}

// New creates a walker
func New(opts Options) *Walker {
	log := opts.Logger
	if log == nil {
		log = logging.Discard()
	}
	if opts.EntryPatterns == nil {
		opts.EntryPatterns = DefaultEntryPatterns
	}
	if opts.MaxConcurrency <= 0 {
		opts.MaxConcurrency = runtime.NumCPU()
	}
	return &Walker{opts: opts, log: log.WithField("component", "walker")}
}

// Walk discovers and analyzes every source file under paths
func (w *Walker) Walk(ctx context.Context, paths []string) (*Result, error) {
	if len(paths) == 0 {
		paths = []string{"."}
	}

	root, err := projectRoot(paths[0])
	if err != nil {
		return nil, err
	}

	files, err := Discover(paths, w.opts.Discover)
	if err != nil {
		return nil, err
	}
	w.log.WithFields(logrus.Fields{"root": root, "count": len(files)}).Debug("files discovered")

	result := &Result{Root: root, Files: files}
	if pkg, err := domain.FindPackageJSON(root); err == nil {
		result.PackageJSON = pkg
	} else {
		w.log.WithError(err).Debug("no package.json")
	}

	byFile, fileErrors := w.parseAll(ctx, files)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	result.Errors = fileErrors

	modules := make([]*domain.Module, 0, len(byFile))
	for _, m := range byFile {
		modules = append(modules, m)
	}
	sort.Slice(modules, func(i, j int) bool {
		return domain.CompareModuleIDs(modules[i].ID, modules[j].ID) < 0
	})

	resolver := NewResolver(files, anchorAliases(root, w.opts.Aliases))
	for _, m := range modules {
		w.resolveImports(m, resolver, byFile)
	}

	entries := w.entryPaths(root, modules, resolver, byFile, result.PackageJSON)
	for _, m := range modules {
		if _, ok := entries[m.ID]; ok {
			m.IsEntry = true
			result.Entries = append(result.Entries, m.ID)
		}
	}
	if len(result.Entries) == 0 && len(modules) > 0 {
		w.log.WithField("root", root).Warn("no entry points matched; every module without importers will be reported unreachable")
	}

	result.Modules = modules
	return result, nil
}

// Load walks paths and adds the resulting modules and edges to g
func (w *Walker) Load(ctx context.Context, g *graph.ModuleGraph, paths []string) (*Result, error) {
	result, err := w.Walk(ctx, paths)
	if err != nil {
		return nil, err
	}

	var progress domain.TaskProgress
	if w.opts.Progress != nil {
		progress = w.opts.Progress.StartTask("Building graph", len(result.Modules))
		defer progress.Complete()
	}

	for _, m := range result.Modules {
		if err := g.AddModule(ctx, m); err != nil {
			return nil, fmt.Errorf("failed to add module %s: %w", m.ID, err)
		}
		if progress != nil {
			progress.Increment(1)
		}
	}
	for _, m := range result.Modules {
		for _, imp := range m.Imports {
			if imp.ResolvedTo == nil {
				continue
			}
			if err := g.AddDependency(ctx, m.ID, *imp.ResolvedTo); err != nil {
				return nil, fmt.Errorf("failed to add dependency %s -> %s: %w", m.ID, imp.ResolvedTo, err)
			}
		}
	}
	for _, id := range result.Entries {
		if err := g.AddEntryPoint(ctx, id); err != nil {
			return nil, err
		}
	}

	w.log.WithFields(logrus.Fields{
		"modules": len(result.Modules),
		"entries": len(result.Entries),
		"errors":  len(result.Errors),
	}).Debug("graph loaded")
	return result, nil
}

// parseAll analyzes files concurrently; unreadable files are reported, not fatal.
// Modules are keyed by the discovered file path, which may differ from the
// module path when symlinks are involved.
func (w *Walker) parseAll(ctx context.Context, files []string) (map[string]*domain.Module, []FileError) {
	var progress domain.TaskProgress
	if w.opts.Progress != nil {
		progress = w.opts.Progress.StartTask("Parsing files", len(files))
		defer progress.Complete()
	}

	modules := make([]*domain.Module, len(files))
	var (
		errMu      sync.Mutex
		fileErrors []FileError
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(w.opts.MaxConcurrency)

	for i, path := range files {
		g.Go(func() error {
			select {
			case <-gCtx.Done():
				return gCtx.Err()
			default:
			}

			m, err := AnalyzeFile(gCtx, path)
			if progress != nil {
				progress.Increment(1)
			}
			if err != nil {
				errMu.Lock()
				fileErrors = append(fileErrors, FileError{Path: path, Err: err})
				errMu.Unlock()
				w.log.WithError(err).WithField("file", path).Debug("skipping file")
				return nil
			}
			modules[i] = m
			return nil
		})
	}
	_ = g.Wait()

	byFile := make(map[string]*domain.Module, len(files))
	for i, m := range modules {
		if m != nil {
			byFile[files[i]] = m
		}
	}
	sort.Slice(fileErrors, func(i, j int) bool { return fileErrors[i].Path < fileErrors[j].Path })
	return byFile, fileErrors
}

// AnalyzeFile reads and parses one file into an unresolved module
func AnalyzeFile(ctx context.Context, path string) (*domain.Module, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return AnalyzeSource(ctx, path, source)
}

// AnalyzeSource parses source as the file at path into an unresolved module
func AnalyzeSource(ctx context.Context, path string, source []byte) (*domain.Module, error) {
	id, err := domain.NewModuleID(path)
	if err != nil {
		return nil, err
	}

	p := parser.ForPath(path)
	defer p.Close()

	tree, err := p.ParseFile(ctx, path, source)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	x := extract(tree, id.String())

	m := domain.NewModule(id, id.String())
	m.Imports = x.Imports
	m.Exports = x.Exports
	m.HasSideEffects = x.HasSideEffects
	m.ModuleFormat = x.ModuleFormat
	m.ExportsKind = x.ExportsKind
	m.HasStarExports = x.HasStarExports
	m.OriginalSize = len(source)
	m.SymbolTable = x.Symbols
	return m, nil
}

// resolveImports points relative imports and re-exports at discovered modules
func (w *Walker) resolveImports(m *domain.Module, resolver *Resolver, byFile map[string]*domain.Module) {
	resolved := make(map[string]string)
	for i := range m.Imports {
		imp := &m.Imports[i]
		target, ok := resolver.Resolve(m.Path, imp.Source)
		if !ok {
			if !imp.IsExternal() {
				w.log.WithFields(logrus.Fields{"module": m.Path, "source": imp.Source}).Debug("unresolved import")
			}
			continue
		}
		dep, ok := byFile[target]
		if !ok {
			continue
		}
		imp.ResolveTo(dep.ID)
		resolved[imp.Source] = dep.ID.String()
	}

	for i := range m.Exports {
		e := &m.Exports[i]
		if !e.IsReExport() {
			continue
		}
		if target, ok := resolved[e.ReExportedFrom]; ok {
			e.ReExportedFrom = target
		}
	}
}

// entryPaths returns the modules matching entry globs or package.json fields
func (w *Walker) entryPaths(root string, modules []*domain.Module, resolver *Resolver, byFile map[string]*domain.Module, pkg *domain.PackageJSON) map[domain.ModuleID]struct{} {
	entries := make(map[domain.ModuleID]struct{})
	for _, m := range modules {
		rel, err := filepath.Rel(root, m.Path)
		if err != nil {
			continue
		}
		rel = filepath.ToSlash(rel)
		for _, pattern := range w.opts.EntryPatterns {
			if ok, err := doublestar.Match(pattern, rel); err == nil && ok {
				entries[m.ID] = struct{}{}
				break
			}
		}
	}

	if w.opts.UsePackageEntries && pkg != nil {
		for _, field := range []string{pkg.Main, pkg.Module} {
			if field == "" {
				continue
			}
			spec := filepath.ToSlash(field)
			if !isRelativeSpecifier(spec) {
				spec = "./" + spec
			}
			target, ok := resolver.Resolve(pkg.Path, spec)
			if !ok {
				continue
			}
			if m, ok := byFile[target]; ok {
				entries[m.ID] = struct{}{}
			}
		}
	}
	return entries
}

// anchorAliases resolves relative alias targets against root
func anchorAliases(root string, aliases map[string]string) map[string]string {
	anchored := make(map[string]string, len(aliases))
	for prefix, target := range aliases {
		target = filepath.FromSlash(target)
		if !filepath.IsAbs(target) {
			target = filepath.Join(root, target)
		}
		anchored[prefix] = target
	}
	return anchored
}

// projectRoot returns the directory of path, or path itself when it is a directory
func projectRoot(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path %s: %w", path, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if !info.IsDir() {
		abs = filepath.Dir(abs)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		abs = resolved
	}
	return abs, nil
}
