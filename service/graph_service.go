package service

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ludo-technologies/jsgraph/domain"
	"github.com/ludo-technologies/jsgraph/internal/config"
	"github.com/ludo-technologies/jsgraph/internal/graph"
	"github.com/ludo-technologies/jsgraph/internal/logging"
	"github.com/ludo-technologies/jsgraph/internal/storage"
	"github.com/ludo-technologies/jsgraph/internal/walker"
	"github.com/sirupsen/logrus"
)

// BuildResult is a loaded module graph and what was learned while loading it
type BuildResult struct {
	Graph *graph.ModuleGraph

	// Root is the project root module paths are reported relative to
	Root string

	// Files are the discovered source files
	Files []string

	// PackageJSON is the manifest used for dependency checks, nil when none was found
	PackageJSON *domain.PackageJSON

	// FrameworkExports are the exports marked as used by framework rules
	FrameworkExports []domain.FrameworkExport

	// ParseErrors collects files that could not be read or parsed, nil when none
	ParseErrors *AggregatedError

	Warnings []string
}

// Close releases the graph's storage
func (r *BuildResult) Close() error {
	if r == nil || r.Graph == nil {
		return nil
	}
	return r.Graph.Close()
}

// RelPath returns path relative to the project root, slash-separated
func (r *BuildResult) RelPath(path string) string {
	return relativePath(r.Root, path)
}

// GraphServiceImpl builds module graphs from source trees
type GraphServiceImpl struct {
	cfg      *config.Config
	progress domain.ProgressManager
	log      logrus.FieldLogger
}

// NewGraphService creates a graph build service
func NewGraphService(cfg *config.Config, pm domain.ProgressManager, log logrus.FieldLogger) *GraphServiceImpl {
	if pm == nil {
		pm = &NoOpProgressManager{}
	}
	return &GraphServiceImpl{
		cfg:      cfg,
		progress: pm,
		log:      logging.OrDiscard(log).WithField("component", "graph_service"),
	}
}

// Build opens the configured storage backend and loads every module under paths into it.
// The caller owns the returned graph and must Close it.
func (s *GraphServiceImpl) Build(ctx context.Context, paths []string) (*BuildResult, error) {
	g, err := graph.Open(ctx, storage.Options{
		Backend:   s.cfg.Storage.Backend,
		Path:      s.cfg.Storage.Path,
		CacheSize: s.cfg.Storage.CacheSize,
		Logger:    s.log,
	}, graph.WithLogger(s.log))
	if err != nil {
		return nil, err
	}

	result, err := s.load(ctx, g, paths)
	if err != nil {
		_ = g.Close()
		return nil, err
	}
	return result, nil
}

func (s *GraphServiceImpl) load(ctx context.Context, g *graph.ModuleGraph, paths []string) (*BuildResult, error) {
	// a persistent file always reflects the latest walk
	if err := g.Clear(ctx); err != nil {
		return nil, fmt.Errorf("failed to reset graph storage: %w", err)
	}

	walked, err := walker.New(s.walkerOptions()).Load(ctx, g, paths)
	if err != nil {
		return nil, err
	}

	result := &BuildResult{
		Graph:       g,
		Root:        walked.Root,
		Files:       walked.Files,
		PackageJSON: walked.PackageJSON,
		ParseErrors: fileErrors(walked.Root, walked.Errors),
	}

	if len(walked.Files) == 0 {
		result.Warnings = append(result.Warnings, "no JavaScript/TypeScript files found")
	} else if len(walked.Entries) == 0 {
		result.Warnings = append(result.Warnings,
			"no entry points matched; set analysis.entry_points to avoid reporting every module as unreachable")
	}

	if manifest := s.cfg.Dependencies.PackageJSON; manifest != "" {
		pkg, err := domain.LoadPackageJSON(manifest)
		if err != nil {
			return nil, err
		}
		result.PackageJSON = pkg
	}

	rules, err := s.frameworkRules(walked.Root)
	if err != nil {
		return nil, err
	}
	if len(rules) > 0 {
		marked, err := g.ApplyFrameworkRules(ctx, rules)
		if err != nil {
			return nil, err
		}
		result.FrameworkExports = marked
	}

	s.log.WithFields(logrus.Fields{
		"backend": s.cfg.Storage.Backend,
		"files":   len(walked.Files),
		"modules": len(walked.Modules),
		"errors":  len(walked.Errors),
	}).Debug("graph built")
	return result, nil
}

func (s *GraphServiceImpl) walkerOptions() walker.Options {
	a := s.cfg.Analysis
	return walker.Options{
		Discover: walker.DiscoverOptions{
			IncludePatterns:  a.IncludePatterns,
			ExcludePatterns:  a.ExcludePatterns,
			RespectGitignore: a.RespectGitignore,
			FollowSymlinks:   a.FollowSymlinks,
			MaxFileSize:      a.MaxFileSizeBytes(),
		},
		EntryPatterns:     a.EntryPoints,
		UsePackageEntries: a.PackageEntries,
		Aliases:           a.Aliases,
		MaxConcurrency:    s.cfg.Performance.MaxGoroutines,
		Logger:            s.log,
		Progress:          s.progress,
	}
}

// frameworkRules expands presets and custom rules; custom path globs with a directory part are anchored at root
func (s *GraphServiceImpl) frameworkRules(root string) ([]graph.FrameworkRule, error) {
	var rules []graph.FrameworkRule
	for _, name := range s.cfg.Framework.Presets {
		preset, err := graph.Preset(name)
		if err != nil {
			return nil, err
		}
		rules = append(rules, preset...)
	}

	for _, rc := range s.cfg.Framework.Rules {
		patterns := make([]string, len(rc.Paths))
		for i, p := range rc.Paths {
			patterns[i] = anchorPattern(root, p)
		}
		rules = append(rules, &graph.NamingRule{
			RuleName:     rc.Name,
			Desc:         rc.Description,
			PathPatterns: patterns,
			ExportNames:  rc.Exports,
		})
	}
	return rules, nil
}

func anchorPattern(root, pattern string) string {
	if !strings.Contains(pattern, "/") || strings.HasPrefix(pattern, "/") || strings.HasPrefix(pattern, "**") {
		return pattern
	}
	return filepath.ToSlash(root) + "/" + strings.TrimPrefix(pattern, "./")
}

func fileErrors(root string, errs []walker.FileError) *AggregatedError {
	taskErrors := make([]TaskError, len(errs))
	for i, fe := range errs {
		taskErrors[i] = TaskError{TaskName: relativePath(root, fe.Path), Err: fe.Err}
	}
	return NewAggregatedError(taskErrors)
}

func relativePath(root, path string) string {
	if root == "" {
		return filepath.ToSlash(path)
	}
	rel, err := filepath.Rel(root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}
