package domain

import (
	"fmt"
	"slices"
	"strings"
)

// Report sections
const (
	SectionStatistics         = "statistics"
	SectionUnusedExports      = "unused_exports"
	SectionUnreachableModules = "unreachable_modules"
	SectionUnusedDependencies = "unused_dependencies"
	SectionUnusedSymbols      = "unused_symbols"
)

// AllSections lists every report section in output order
var AllSections = []string{
	SectionStatistics,
	SectionUnusedExports,
	SectionUnreachableModules,
	SectionUnusedDependencies,
	SectionUnusedSymbols,
}

// ParseSections validates section names. An empty list selects every section.
func ParseSections(names []string) ([]string, error) {
	if len(names) == 0 {
		return slices.Clone(AllSections), nil
	}
	selected := make([]string, 0, len(names))
	for _, name := range names {
		name = strings.ToLower(strings.TrimSpace(name))
		if !slices.Contains(AllSections, name) {
			return nil, NewConfigError("select",
				fmt.Sprintf("unknown section %q, must be one of: %s", name, strings.Join(AllSections, ", ")), nil)
		}
		if !slices.Contains(selected, name) {
			selected = append(selected, name)
		}
	}
	return selected, nil
}

// SortBy orders findings in reports
type SortBy string

const (
	SortByPath SortBy = "path"
	SortByName SortBy = "name"
)

// AnalyzeRequest selects what an analysis reports
type AnalyzeRequest struct {
	// Paths are the files and directories to analyze; the first one anchors the project root
	Paths []string

	// Sections are the report sections to compute; empty means all
	Sections []string

	// IncludeDev and IncludePeer extend the npm dependency checks
	IncludeDev  bool
	IncludePeer bool

	// SortBy orders findings
	SortBy SortBy
}

// HasSection reports whether the request selects a section
func (r AnalyzeRequest) HasSection(name string) bool {
	return len(r.Sections) == 0 || slices.Contains(r.Sections, name)
}

// UnreachableModule is a module no entry point reaches
type UnreachableModule struct {
	ModuleID ModuleID `json:"module_id"`

	// Path is relative to the project root
	Path string `json:"path"`

	ExportCount  int `json:"export_count"`
	OriginalSize int `json:"original_size"`
}

// AnalyzeResponse is a dead-code report
type AnalyzeResponse struct {
	Version     string `json:"version"`
	GeneratedAt string `json:"generated_at"`
	DurationMs  int64  `json:"duration_ms"`

	// Root is the project root module paths are reported relative to
	Root string `json:"root"`

	// PackageJSON is the manifest used for dependency checks, empty when none
	PackageJSON string `json:"package_json,omitempty"`

	// Sections are the sections that were computed
	Sections []string `json:"sections"`

	Statistics         *GraphStatistics    `json:"statistics,omitempty"`
	Symbols            *SymbolStatistics   `json:"symbols,omitempty"`
	UnusedExports      []UnusedExport      `json:"unused_exports,omitempty"`
	UnreachableModules []UnreachableModule `json:"unreachable_modules,omitempty"`
	UnusedDependencies []UnusedDependency  `json:"unused_dependencies,omitempty"`
	Coverage           *DependencyCoverage `json:"dependency_coverage,omitempty"`
	UnusedSymbols      []UnusedSymbol      `json:"unused_symbols,omitempty"`

	// FrameworkExports is the number of exports kept alive by framework rules
	FrameworkExports int `json:"framework_exports"`

	Warnings []string `json:"warnings,omitempty"`
	Errors   []string `json:"errors,omitempty"`
}

// IssueCount is the number of dead-code findings in the report
func (r *AnalyzeResponse) IssueCount() int {
	return len(r.UnusedExports) + len(r.UnreachableModules) + len(r.UnusedDependencies) + len(r.UnusedSymbols)
}

// Includes reports whether section was computed
func (r *AnalyzeResponse) Includes(section string) bool {
	return slices.Contains(r.Sections, section)
}

// ChainsRequest asks how entry points reach a module
type ChainsRequest struct {
	Paths []string

	// Target is a file path, absolute or relative to the working directory
	Target string
}

// ChainsResponse describes every import chain leading to a module
type ChainsResponse struct {
	Version     string `json:"version"`
	GeneratedAt string `json:"generated_at"`
	Root        string `json:"root"`

	Analysis ChainAnalysis `json:"analysis"`

	// ImportDepth is the length of the shortest chain, nil when unreachable
	ImportDepth *int `json:"import_depth,omitempty"`

	// ReachableOnlyThroughDeadCode is true for modules with importers but no chain from an entry point
	ReachableOnlyThroughDeadCode bool `json:"reachable_only_through_dead_code"`

	// Dependents are the direct importers of the target
	Dependents []ModuleID `json:"dependents"`

	Warnings []string `json:"warnings,omitempty"`
}

// DepsRequest asks for npm dependency coverage
type DepsRequest struct {
	Paths       []string
	IncludeDev  bool
	IncludePeer bool
}

// DepsResponse reports declared versus imported packages
type DepsResponse struct {
	Version     string `json:"version"`
	GeneratedAt string `json:"generated_at"`
	Root        string `json:"root"`
	PackageJSON string `json:"package_json"`

	Coverage DependencyCoverage   `json:"coverage"`
	Unused   []UnusedDependency   `json:"unused"`
	Used     []string             `json:"used"`
	External []ExternalDependency `json:"external"`

	Warnings []string `json:"warnings,omitempty"`
}

// DepthBucket counts modules at one import depth
type DepthBucket struct {
	Depth int `json:"depth"`
	Count int `json:"count"`
}

// StatsResponse summarizes a graph
type StatsResponse struct {
	Version     string `json:"version"`
	GeneratedAt string `json:"generated_at"`
	Root        string `json:"root"`

	Statistics     GraphStatistics  `json:"statistics"`
	Symbols        SymbolStatistics `json:"symbols"`
	ModulesByDepth []DepthBucket    `json:"modules_by_depth"`

	Warnings []string `json:"warnings,omitempty"`
}

// GraphNode is a module as drawn in a graph rendering
type GraphNode struct {
	ID ModuleID `json:"id"`

	// Label is the module path relative to the project root
	Label string `json:"label"`

	IsEntry        bool `json:"is_entry"`
	IsUnreachable  bool `json:"is_unreachable"`
	HasSideEffects bool `json:"has_side_effects"`
	UnusedExports  int  `json:"unused_exports"`

	// Depth is the shortest distance from an entry point, nil when unreachable
	Depth *int `json:"depth,omitempty"`
}

// GraphEdge is a dependency edge as drawn in a graph rendering
type GraphEdge struct {
	From ModuleID `json:"from"`
	To   ModuleID `json:"to"`

	// Kind is the strongest import form between the two modules
	Kind ImportKind `json:"kind"`
}

// GraphView is a render-ready snapshot of the module graph
type GraphView struct {
	Root  string      `json:"root"`
	Nodes []GraphNode `json:"nodes"`
	Edges []GraphEdge `json:"edges"`
}
