package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ludo-technologies/jsgraph/domain"
	"github.com/ludo-technologies/jsgraph/internal/config"
	"github.com/ludo-technologies/jsgraph/internal/logging"
	"github.com/ludo-technologies/jsgraph/internal/version"
	"github.com/sirupsen/logrus"
)

// ReportServiceImpl computes reports over a built graph
type ReportServiceImpl struct {
	executor *ParallelExecutorImpl
	log      logrus.FieldLogger
}

// NewReportService creates a report service whose sections run on a parallel executor
func NewReportService(perf *config.PerformanceConfig, pm domain.ProgressManager, log logrus.FieldLogger) *ReportServiceImpl {
	log = logging.OrDiscard(log).WithField("component", "report_service")
	executor := NewParallelExecutorFromConfig(perf)
	if pm != nil {
		executor = NewParallelExecutorWithProgress(perf, pm)
	}
	executor.SetLogger(log)
	return &ReportServiceImpl{executor: executor, log: log}
}

// Analyze computes the dead-code sections selected by req
func (s *ReportServiceImpl) Analyze(ctx context.Context, build *BuildResult, req domain.AnalyzeRequest) (*domain.AnalyzeResponse, error) {
	start := time.Now()
	g := build.Graph
	resp := newAnalyzeResponse(build)
	for _, section := range domain.AllSections {
		if req.HasSection(section) {
			resp.Sections = append(resp.Sections, section)
		}
	}

	var mu sync.Mutex
	set := func(fn func()) {
		mu.Lock()
		defer mu.Unlock()
		fn()
	}

	tasks := []domain.ExecutableTask{
		&funcTask{name: domain.SectionStatistics, enabled: req.HasSection(domain.SectionStatistics), run: func(ctx context.Context) error {
			stats, err := g.Statistics(ctx)
			if err != nil {
				return err
			}
			symbols, err := g.SymbolStatistics(ctx)
			if err != nil {
				return err
			}
			set(func() { resp.Statistics, resp.Symbols = &stats, &symbols })
			return nil
		}},
		&funcTask{name: domain.SectionUnusedExports, enabled: req.HasSection(domain.SectionUnusedExports), run: func(ctx context.Context) error {
			unused, err := g.UnusedExports(ctx)
			if err != nil {
				return err
			}
			sortUnusedExports(unused, req.SortBy)
			set(func() { resp.UnusedExports = unused })
			return nil
		}},
		&funcTask{name: domain.SectionUnreachableModules, enabled: req.HasSection(domain.SectionUnreachableModules), run: func(ctx context.Context) error {
			unreachable, err := s.unreachable(ctx, build, req.SortBy)
			if err != nil {
				return err
			}
			set(func() { resp.UnreachableModules = unreachable })
			return nil
		}},
		&funcTask{name: domain.SectionUnusedDependencies, enabled: req.HasSection(domain.SectionUnusedDependencies), run: func(ctx context.Context) error {
			if build.PackageJSON == nil {
				set(func() {
					resp.Warnings = append(resp.Warnings, "no package.json found; skipping unused dependency check")
				})
				return nil
			}
			unused, err := g.UnusedNpmDependencies(ctx, build.PackageJSON, req.IncludeDev, req.IncludePeer)
			if err != nil {
				return err
			}
			coverage, err := g.DependencyCoverage(ctx, build.PackageJSON, req.IncludeDev, req.IncludePeer)
			if err != nil {
				return err
			}
			set(func() { resp.UnusedDependencies, resp.Coverage = unused, &coverage })
			return nil
		}},
		&funcTask{name: domain.SectionUnusedSymbols, enabled: req.HasSection(domain.SectionUnusedSymbols), run: func(ctx context.Context) error {
			unused, err := g.UnusedSymbols(ctx)
			if err != nil {
				return err
			}
			sortUnusedSymbols(unused, req.SortBy)
			set(func() { resp.UnusedSymbols = unused })
			return nil
		}},
	}

	if err := s.executor.Execute(ctx, tasks); err != nil {
		return nil, fmt.Errorf("analysis failed: %w", err)
	}

	resp.DurationMs = time.Since(start).Milliseconds()
	s.log.WithFields(logrus.Fields{
		"issues":   resp.IssueCount(),
		"duration": time.Since(start),
	}).Debug("analysis complete")
	return resp, nil
}

func newAnalyzeResponse(build *BuildResult) *domain.AnalyzeResponse {
	resp := &domain.AnalyzeResponse{
		Version:          version.GetVersion(),
		GeneratedAt:      time.Now().Format(time.RFC3339),
		Root:             build.Root,
		FrameworkExports: len(build.FrameworkExports),
		Warnings:         append([]string(nil), build.Warnings...),
		Errors:           build.ParseErrors.Messages(),
	}
	if build.PackageJSON != nil {
		resp.PackageJSON = build.PackageJSON.Path
	}
	return resp
}

func (s *ReportServiceImpl) unreachable(ctx context.Context, build *BuildResult, sortBy domain.SortBy) ([]domain.UnreachableModule, error) {
	ids, err := build.Graph.UnreachableModules(ctx)
	if err != nil {
		return nil, err
	}
	result := make([]domain.UnreachableModule, 0, len(ids))
	for _, id := range ids {
		m, err := build.Graph.Module(ctx, id)
		if err != nil {
			return nil, err
		}
		if m == nil {
			continue
		}
		result = append(result, domain.UnreachableModule{
			ModuleID:     id,
			Path:         build.RelPath(m.Path),
			ExportCount:  len(m.Exports),
			OriginalSize: m.OriginalSize,
		})
	}
	if sortBy == domain.SortByName {
		sort.SliceStable(result, func(i, j int) bool {
			return filepath.Base(result[i].Path) < filepath.Base(result[j].Path)
		})
	}
	return result, nil
}

// Chains reports every import chain from an entry point to target
func (s *ReportServiceImpl) Chains(ctx context.Context, build *BuildResult, target string) (*domain.ChainsResponse, error) {
	m, err := findModule(ctx, build, target)
	if err != nil {
		return nil, err
	}

	g := build.Graph
	analysis, err := g.AnalyzeDependencyChains(ctx, m.ID)
	if err != nil {
		return nil, err
	}
	dependents, err := g.Dependents(ctx, m.ID)
	if err != nil {
		return nil, err
	}
	depth, err := g.ImportDepth(ctx, m.ID)
	if err != nil {
		return nil, err
	}
	unreached, err := g.IsReachableOnlyThroughDeadCode(ctx, m.ID)
	if err != nil {
		return nil, err
	}

	return &domain.ChainsResponse{
		Version:                      version.GetVersion(),
		GeneratedAt:                  time.Now().Format(time.RFC3339),
		Root:                         build.Root,
		Analysis:                     analysis,
		ImportDepth:                  depth,
		ReachableOnlyThroughDeadCode: unreached && len(dependents) > 0,
		Dependents:                   dependents,
		Warnings:                     build.Warnings,
	}, nil
}

// findModule locates target in the graph by absolute, canonical or root-relative path
func findModule(ctx context.Context, build *BuildResult, target string) (*domain.Module, error) {
	var candidates []string
	if abs, err := filepath.Abs(target); err == nil {
		candidates = append(candidates, abs)
		if resolved, err := filepath.EvalSymlinks(abs); err == nil {
			candidates = append(candidates, resolved)
		}
	}
	if !filepath.IsAbs(target) {
		candidates = append(candidates, filepath.Join(build.Root, target))
	}

	for _, path := range candidates {
		m, err := build.Graph.ModuleByPath(ctx, path)
		if err != nil {
			return nil, err
		}
		if m != nil {
			return m, nil
		}
	}
	return nil, domain.NewConfigError("target", fmt.Sprintf("module %s is not part of the analyzed graph", target), os.ErrNotExist)
}

// Deps reports declared npm dependencies against the packages modules import
func (s *ReportServiceImpl) Deps(ctx context.Context, build *BuildResult, req domain.DepsRequest) (*domain.DepsResponse, error) {
	if build.PackageJSON == nil {
		return nil, domain.NewConfigError("dependencies.package_json",
			fmt.Sprintf("no package.json found at or above %s", build.Root), nil)
	}

	g := build.Graph
	coverage, err := g.DependencyCoverage(ctx, build.PackageJSON, req.IncludeDev, req.IncludePeer)
	if err != nil {
		return nil, err
	}
	unused, err := g.UnusedNpmDependencies(ctx, build.PackageJSON, req.IncludeDev, req.IncludePeer)
	if err != nil {
		return nil, err
	}
	used, err := g.UsedPackages(ctx)
	if err != nil {
		return nil, err
	}
	externals, err := g.ExternalDependencies(ctx)
	if err != nil {
		return nil, err
	}

	resp := &domain.DepsResponse{
		Version:     version.GetVersion(),
		GeneratedAt: time.Now().Format(time.RFC3339),
		Root:        build.Root,
		PackageJSON: build.PackageJSON.Path,
		Coverage:    coverage,
		Unused:      unused,
		Used:        used,
		External:    make([]domain.ExternalDependency, 0, len(externals)),
		Warnings:    build.Warnings,
	}
	for _, dep := range externals {
		resp.External = append(resp.External, *dep)
	}
	return resp, nil
}

// Stats summarizes the graph
func (s *ReportServiceImpl) Stats(ctx context.Context, build *BuildResult) (*domain.StatsResponse, error) {
	g := build.Graph
	stats, err := g.Statistics(ctx)
	if err != nil {
		return nil, err
	}
	symbols, err := g.SymbolStatistics(ctx)
	if err != nil {
		return nil, err
	}
	byDepth, err := g.ModulesByDepth(ctx)
	if err != nil {
		return nil, err
	}

	buckets := make([]domain.DepthBucket, 0, len(byDepth))
	for depth, ids := range byDepth {
		buckets = append(buckets, domain.DepthBucket{Depth: depth, Count: len(ids)})
	}
	sort.Slice(buckets, func(i, j int) bool { return buckets[i].Depth < buckets[j].Depth })

	return &domain.StatsResponse{
		Version:        version.GetVersion(),
		GeneratedAt:    time.Now().Format(time.RFC3339),
		Root:           build.Root,
		Statistics:     stats,
		Symbols:        symbols,
		ModulesByDepth: buckets,
		Warnings:       build.Warnings,
	}, nil
}

// edgeRank orders import kinds by how strongly they tie two modules together
var edgeRank = map[domain.ImportKind]int{
	domain.ImportKindStatic:   4,
	domain.ImportKindRequire:  4,
	domain.ImportKindReExport: 3,
	domain.ImportKindDynamic:  2,
	domain.ImportKindTypeOnly: 1,
}

// GraphView builds a render-ready snapshot with per-module findings
func (s *ReportServiceImpl) GraphView(ctx context.Context, build *BuildResult) (*domain.GraphView, error) {
	g := build.Graph
	modules, err := g.Modules(ctx)
	if err != nil {
		return nil, err
	}
	unreachable, err := g.UnreachableModules(ctx)
	if err != nil {
		return nil, err
	}
	unusedExports, err := g.UnusedExports(ctx)
	if err != nil {
		return nil, err
	}
	byDepth, err := g.ModulesByDepth(ctx)
	if err != nil {
		return nil, err
	}

	dead := make(map[domain.ModuleID]bool, len(unreachable))
	for _, id := range unreachable {
		dead[id] = true
	}
	unusedCount := make(map[domain.ModuleID]int)
	for _, u := range unusedExports {
		unusedCount[u.ModuleID]++
	}
	depthOf := make(map[domain.ModuleID]int)
	for depth, ids := range byDepth {
		for _, id := range ids {
			depthOf[id] = depth
		}
	}

	view := &domain.GraphView{
		Root:  build.Root,
		Nodes: make([]domain.GraphNode, 0, len(modules)),
		Edges: []domain.GraphEdge{},
	}
	inGraph := make(map[domain.ModuleID]bool, len(modules))
	for _, m := range modules {
		inGraph[m.ID] = true
	}

	for _, m := range modules {
		node := domain.GraphNode{
			ID:             m.ID,
			Label:          build.RelPath(m.Path),
			IsEntry:        m.IsEntry,
			IsUnreachable:  dead[m.ID],
			HasSideEffects: m.HasSideEffects,
			UnusedExports:  unusedCount[m.ID],
		}
		if depth, ok := depthOf[m.ID]; ok {
			node.Depth = &depth
		}
		view.Nodes = append(view.Nodes, node)

		kinds := make(map[domain.ModuleID]domain.ImportKind)
		for _, imp := range m.Imports {
			if imp.ResolvedTo == nil || !inGraph[*imp.ResolvedTo] || *imp.ResolvedTo == m.ID {
				continue
			}
			to := *imp.ResolvedTo
			if current, ok := kinds[to]; !ok || edgeRank[imp.Kind] > edgeRank[current] {
				kinds[to] = imp.Kind
			}
		}
		targets := make([]domain.ModuleID, 0, len(kinds))
		for to := range kinds {
			targets = append(targets, to)
		}
		sort.Slice(targets, func(i, j int) bool { return domain.CompareModuleIDs(targets[i], targets[j]) < 0 })
		for _, to := range targets {
			view.Edges = append(view.Edges, domain.GraphEdge{From: m.ID, To: to, Kind: kinds[to]})
		}
	}
	return view, nil
}

func sortUnusedExports(unused []domain.UnusedExport, sortBy domain.SortBy) {
	if sortBy != domain.SortByName {
		return
	}
	sort.SliceStable(unused, func(i, j int) bool {
		return strings.ToLower(unused[i].Export.Name) < strings.ToLower(unused[j].Export.Name)
	})
}

func sortUnusedSymbols(unused []domain.UnusedSymbol, sortBy domain.SortBy) {
	if sortBy != domain.SortByName {
		return
	}
	sort.SliceStable(unused, func(i, j int) bool {
		return strings.ToLower(unused[i].Symbol.Name) < strings.ToLower(unused[j].Symbol.Name)
	})
}
