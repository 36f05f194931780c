package service

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/ludo-technologies/jsgraph/domain"
	"gopkg.in/yaml.v3"
)

// OutputFormatterImpl renders reports as text, JSON or YAML
type OutputFormatterImpl struct {
	showDetails bool
}

// NewOutputFormatter creates a new output formatter.
// Without details, text output prints summaries only.
func NewOutputFormatter(showDetails bool) *OutputFormatterImpl {
	return &OutputFormatterImpl{showDetails: showDetails}
}

// WriteJSON writes data as indented JSON to the writer
func WriteJSON(writer io.Writer, data interface{}) error {
	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// WriteYAML writes data as YAML using the same field names and order as the JSON output
func WriteYAML(writer io.Writer, data interface{}) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	var node yaml.Node
	if err := yaml.Unmarshal(raw, &node); err != nil {
		return fmt.Errorf("failed to convert report to YAML: %w", err)
	}
	restyle(&node)

	encoder := yaml.NewEncoder(writer)
	encoder.SetIndent(2)
	if err := encoder.Encode(&node); err != nil {
		return err
	}
	return encoder.Close()
}

// restyle switches JSON flow collections and quoted keys to block YAML
func restyle(node *yaml.Node) {
	node.Style = 0
	for _, child := range node.Content {
		restyle(child)
	}
}

// writeStructured handles the formats every report shares
func writeStructured(format domain.OutputFormat, writer io.Writer, data interface{}) (bool, error) {
	switch format {
	case domain.OutputFormatJSON:
		return true, WriteJSON(writer, data)
	case domain.OutputFormatYAML:
		return true, WriteYAML(writer, data)
	case domain.OutputFormatText, "":
		return false, nil
	default:
		return true, fmt.Errorf("unsupported output format for this report: %s", format)
	}
}

// WriteAnalyze writes a dead-code report
func (f *OutputFormatterImpl) WriteAnalyze(resp *domain.AnalyzeResponse, format domain.OutputFormat, writer io.Writer) error {
	if done, err := writeStructured(format, writer, resp); done {
		return err
	}

	fmt.Fprintf(writer, "\n=== jsgraph Dead Code Report ===\n")
	fmt.Fprintf(writer, "Root: %s\n", resp.Root)
	fmt.Fprintf(writer, "Generated: %s\n", resp.GeneratedAt)
	fmt.Fprintf(writer, "Duration: %dms\n", resp.DurationMs)
	fmt.Fprintf(writer, "Version: %s\n\n", resp.Version)

	if resp.Statistics != nil {
		writeStatisticsText(writer, *resp.Statistics, resp.Symbols)
		if resp.FrameworkExports > 0 {
			fmt.Fprintf(writer, "  Framework exports: %d\n", resp.FrameworkExports)
		}
		fmt.Fprintln(writer)
	}

	if resp.Includes(domain.SectionUnusedExports) {
		fmt.Fprintf(writer, "Unused Exports (%d):\n", len(resp.UnusedExports))
		if f.showDetails {
			for _, u := range resp.UnusedExports {
				fmt.Fprintf(writer, "  %s: %s%s\n", relativePath(resp.Root, u.ModuleID.Path()), u.Export.Name, exportTag(u.Export))
			}
		}
		fmt.Fprintln(writer)
	}

	if resp.Includes(domain.SectionUnreachableModules) {
		fmt.Fprintf(writer, "Unreachable Modules (%d):\n", len(resp.UnreachableModules))
		if f.showDetails {
			for _, m := range resp.UnreachableModules {
				fmt.Fprintf(writer, "  %s (%d exports, %d bytes)\n", m.Path, m.ExportCount, m.OriginalSize)
			}
		}
		fmt.Fprintln(writer)
	}

	if resp.Includes(domain.SectionUnusedDependencies) && resp.PackageJSON != "" {
		fmt.Fprintf(writer, "Unused Dependencies (%d):\n", len(resp.UnusedDependencies))
		if f.showDetails {
			for _, d := range resp.UnusedDependencies {
				fmt.Fprintf(writer, "  %s@%s [%s]\n", d.Package, d.Version, d.DepType)
			}
		}
		if resp.Coverage != nil {
			fmt.Fprintf(writer, "  Coverage: %d/%d (%.1f%%)\n",
				resp.Coverage.TotalUsed, resp.Coverage.TotalDeclared, resp.Coverage.CoveragePercentage())
		}
		fmt.Fprintln(writer)
	}

	if resp.Includes(domain.SectionUnusedSymbols) {
		fmt.Fprintf(writer, "Unused Symbols (%d):\n", len(resp.UnusedSymbols))
		if f.showDetails {
			for _, u := range resp.UnusedSymbols {
				fmt.Fprintf(writer, "  %s:%d: %s [%s]\n",
					relativePath(resp.Root, u.ModuleID.Path()), u.Symbol.DeclarationSpan.Line, u.Symbol.Name, u.Symbol.Kind)
			}
		}
		fmt.Fprintln(writer)
	}

	if resp.IssueCount() == 0 {
		fmt.Fprintf(writer, "No dead code found.\n")
	}
	writeNotes(writer, resp.Warnings, resp.Errors)
	return nil
}

func exportTag(e domain.Export) string {
	var tags []string
	switch {
	case e.IsStarReExport():
		tags = append(tags, "star re-export")
	case e.IsReExport():
		tags = append(tags, "re-export")
	}
	if e.IsTypeOnly {
		tags = append(tags, "type")
	}
	if e.CameFromCommonJS {
		tags = append(tags, "commonjs")
	}
	if len(tags) == 0 {
		return ""
	}
	return " [" + strings.Join(tags, ", ") + "]"
}

func writeStatisticsText(writer io.Writer, stats domain.GraphStatistics, symbols *domain.SymbolStatistics) {
	fmt.Fprintf(writer, "Summary:\n")
	fmt.Fprintf(writer, "  Modules: %d\n", stats.ModuleCount)
	fmt.Fprintf(writer, "  Entry points: %d\n", stats.EntryPointCount)
	fmt.Fprintf(writer, "  External dependencies: %d\n", stats.ExternalDependencyCount)
	fmt.Fprintf(writer, "  Modules with side effects: %d\n", stats.SideEffectModuleCount)
	fmt.Fprintf(writer, "  Unused exports: %d\n", stats.UnusedExportCount)
	fmt.Fprintf(writer, "  Unreachable modules: %d\n", stats.UnreachableModuleCount)
	if symbols != nil {
		fmt.Fprintf(writer, "  Symbols: %d (%d unused, %.1f%%)\n",
			symbols.TotalSymbols, symbols.UnusedSymbols, symbols.UnusedPercentage())
	}
}

func writeNotes(writer io.Writer, warnings, errors []string) {
	if len(warnings) > 0 {
		fmt.Fprintf(writer, "\nWarnings:\n")
		for _, w := range warnings {
			fmt.Fprintf(writer, "  - %s\n", w)
		}
	}
	if len(errors) > 0 {
		fmt.Fprintf(writer, "\nErrors:\n")
		for _, e := range errors {
			fmt.Fprintf(writer, "  - %s\n", e)
		}
	}
}

// WriteChains writes a dependency chain report
func (f *OutputFormatterImpl) WriteChains(resp *domain.ChainsResponse, format domain.OutputFormat, writer io.Writer) error {
	if done, err := writeStructured(format, writer, resp); done {
		return err
	}

	a := resp.Analysis
	fmt.Fprintf(writer, "\n=== Dependency Chains ===\n")
	fmt.Fprintf(writer, "Target: %s\n\n", relativePath(resp.Root, a.Target.Path()))

	if !a.IsReachable() {
		fmt.Fprintf(writer, "Not reachable from any entry point.\n")
		if resp.ReachableOnlyThroughDeadCode {
			fmt.Fprintf(writer, "Imported only by modules that are themselves unreachable:\n")
			for _, id := range resp.Dependents {
				fmt.Fprintf(writer, "  %s\n", relativePath(resp.Root, id.Path()))
			}
		}
		writeNotes(writer, resp.Warnings, nil)
		return nil
	}

	fmt.Fprintf(writer, "Summary:\n")
	fmt.Fprintf(writer, "  Chains: %d\n", len(a.Chains))
	fmt.Fprintf(writer, "  Entry points: %d\n", a.EntryPointCount)
	if a.MinDepth != nil && a.MaxDepth != nil {
		fmt.Fprintf(writer, "  Depth: min %d, max %d, avg %.2f\n", *a.MinDepth, *a.MaxDepth, a.AvgDepth)
	}
	fmt.Fprintf(writer, "  Direct importers: %d\n\n", len(resp.Dependents))

	if shortest, ok := a.ShortestChain(); ok {
		fmt.Fprintf(writer, "Shortest:\n  %s\n\n", formatChain(resp.Root, shortest))
	}
	if f.showDetails {
		fmt.Fprintf(writer, "Chains:\n")
		for _, c := range a.Chains {
			fmt.Fprintf(writer, "  [%d] %s\n", c.Depth, formatChain(resp.Root, c))
		}
	}
	writeNotes(writer, resp.Warnings, nil)
	return nil
}

func formatChain(root string, c domain.DependencyChain) string {
	parts := make([]string, len(c.Path))
	for i, id := range c.Path {
		parts[i] = relativePath(root, id.Path())
	}
	return strings.Join(parts, " -> ")
}

// WriteDeps writes an npm dependency coverage report
func (f *OutputFormatterImpl) WriteDeps(resp *domain.DepsResponse, format domain.OutputFormat, writer io.Writer) error {
	if done, err := writeStructured(format, writer, resp); done {
		return err
	}

	c := resp.Coverage
	fmt.Fprintf(writer, "\n=== npm Dependency Coverage ===\n")
	fmt.Fprintf(writer, "Manifest: %s\n\n", resp.PackageJSON)
	fmt.Fprintf(writer, "Summary:\n")
	fmt.Fprintf(writer, "  Declared: %d\n", c.TotalDeclared)
	fmt.Fprintf(writer, "  Used: %d\n", c.TotalUsed)
	fmt.Fprintf(writer, "  Unused: %d\n", c.TotalUnused)
	fmt.Fprintf(writer, "  Coverage: %.1f%%\n", c.CoveragePercentage())
	for _, depType := range domain.AllDependencyTypes {
		if tc, ok := c.ByType[depType]; ok {
			fmt.Fprintf(writer, "  %s: %d/%d (%.1f%%)\n", depType, tc.Used, tc.Declared, tc.Percentage())
		}
	}
	fmt.Fprintln(writer)

	if len(resp.Unused) > 0 {
		fmt.Fprintf(writer, "Unused (%d):\n", len(resp.Unused))
		for _, d := range resp.Unused {
			fmt.Fprintf(writer, "  %s@%s [%s]\n", d.Package, d.Version, d.DepType)
		}
		fmt.Fprintln(writer)
	}

	if f.showDetails && len(resp.External) > 0 {
		fmt.Fprintf(writer, "Imported packages:\n")
		for _, dep := range resp.External {
			fmt.Fprintf(writer, "  %s (%d importers)\n", dep.Specifier, len(dep.ImportedBy))
		}
	}
	writeNotes(writer, resp.Warnings, nil)
	return nil
}

// WriteStats writes graph statistics
func (f *OutputFormatterImpl) WriteStats(resp *domain.StatsResponse, format domain.OutputFormat, writer io.Writer) error {
	if done, err := writeStructured(format, writer, resp); done {
		return err
	}

	fmt.Fprintf(writer, "\n=== Module Graph Statistics ===\n")
	fmt.Fprintf(writer, "Root: %s\n\n", resp.Root)
	writeStatisticsText(writer, resp.Statistics, &resp.Symbols)

	if f.showDetails && len(resp.Symbols.ByKind) > 0 {
		fmt.Fprintf(writer, "\nSymbols by kind:\n")
		for _, k := range resp.Symbols.ByKind {
			fmt.Fprintf(writer, "  %s: %d\n", k.Kind, k.Count)
		}
	}
	if len(resp.ModulesByDepth) > 0 {
		fmt.Fprintf(writer, "\nModules by import depth:\n")
		for _, b := range resp.ModulesByDepth {
			fmt.Fprintf(writer, "  %d: %d\n", b.Depth, b.Count)
		}
	}
	writeNotes(writer, resp.Warnings, nil)
	return nil
}
