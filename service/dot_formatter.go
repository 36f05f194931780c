package service

import (
	"fmt"
	"io"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/ludo-technologies/jsgraph/domain"
	"github.com/ludo-technologies/jsgraph/internal/version"
)

// DOTFormatterConfig configures the DOT formatter behavior
type DOTFormatterConfig struct {
	// ClusterDirectories groups modules of the same directory in subgraphs
	ClusterDirectories bool

	// ShowLegend includes a legend subgraph
	ShowLegend bool

	// MaxDepth keeps modules within this import depth of an entry point (0 = unlimited)
	MaxDepth int

	// RankDir is the layout direction: TB, LR, BT, RL
	RankDir string
}

// DefaultDOTFormatterConfig returns a DOTFormatterConfig with sensible defaults
func DefaultDOTFormatterConfig() *DOTFormatterConfig {
	return &DOTFormatterConfig{
		ClusterDirectories: false,
		ShowLegend:         true,
		RankDir:            "LR",
	}
}

// DOTFormatter formats module graphs as DOT for Graphviz
type DOTFormatter struct {
	config *DOTFormatterConfig
}

// NewDOTFormatter creates a new DOT formatter with the given configuration
func NewDOTFormatter(config *DOTFormatterConfig) *DOTFormatter {
	if config == nil {
		config = DefaultDOTFormatterConfig()
	}
	return &DOTFormatter{config: config}
}

type nodeColor struct {
	fill   string
	border string
}

var (
	entryColor      = nodeColor{fill: "#90EE90", border: "#228B22"}
	liveColor       = nodeColor{fill: "#E8F0FE", border: "#4A6FA5"}
	sideEffectColor = nodeColor{fill: "#FFD700", border: "#FFA500"}
	deadColor       = nodeColor{fill: "#FF6B6B", border: "#DC143C"}
)

var edgeStyles = map[domain.ImportKind]struct {
	style string
	arrow string
}{
	domain.ImportKindStatic:   {style: "solid", arrow: "normal"},
	domain.ImportKindRequire:  {style: "solid", arrow: "vee"},
	domain.ImportKindDynamic:  {style: "dashed", arrow: "empty"},
	domain.ImportKindTypeOnly: {style: "dotted", arrow: "odot"},
	domain.ImportKindReExport: {style: "bold", arrow: "diamond"},
}

var validRankDirs = map[string]bool{
	"TB": true,
	"LR": true,
	"BT": true,
	"RL": true,
}

// FormatGraph formats a graph view as DOT and returns the string
func (f *DOTFormatter) FormatGraph(view *domain.GraphView) (string, error) {
	var sb strings.Builder
	if err := f.WriteGraph(view, &sb); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// WriteGraph writes a graph view as DOT to the writer
func (f *DOTFormatter) WriteGraph(view *domain.GraphView, writer io.Writer) error {
	if view == nil {
		return fmt.Errorf("nil graph view")
	}
	if !validRankDirs[f.config.RankDir] {
		return fmt.Errorf("invalid rank direction %q: must be one of TB, LR, BT, RL", f.config.RankDir)
	}

	nodes := f.filterNodes(view.Nodes)

	fmt.Fprintf(writer, "/* jsgraph Module Graph - Generated: %s */\n", time.Now().Format(time.RFC3339))
	fmt.Fprintf(writer, "/* Version: %s */\n", version.GetVersion())
	fmt.Fprintln(writer, "digraph modules {")
	if len(nodes) == 0 {
		fmt.Fprintln(writer, "    /* No modules match the filter criteria */")
		fmt.Fprintln(writer, "}")
		return nil
	}
	fmt.Fprintf(writer, "    rankdir=%s;\n", f.config.RankDir)
	fmt.Fprintln(writer, "    node [shape=box, style=filled, fontname=\"Helvetica\"];")
	fmt.Fprintln(writer, "    edge [fontname=\"Helvetica\", fontsize=10];")
	fmt.Fprintln(writer)

	included := make(map[domain.ModuleID]bool, len(nodes))
	for _, n := range nodes {
		included[n.ID] = true
	}

	if f.config.ClusterDirectories {
		f.writeClusters(writer, nodes)
	} else {
		fmt.Fprintln(writer, "    // Modules")
		for _, n := range nodes {
			f.writeNode(writer, n, "    ")
		}
		fmt.Fprintln(writer)
	}

	fmt.Fprintln(writer, "    // Imports")
	labels := make(map[domain.ModuleID]string, len(nodes))
	for _, n := range nodes {
		labels[n.ID] = n.Label
	}
	for _, e := range view.Edges {
		if !included[e.From] || !included[e.To] {
			continue
		}
		f.writeEdge(writer, labels[e.From], labels[e.To], e.Kind)
	}
	fmt.Fprintln(writer)

	if f.config.ShowLegend {
		f.writeLegend(writer)
	}

	fmt.Fprintln(writer, "}")
	return nil
}

// filterNodes applies the depth filter and sorts by label
func (f *DOTFormatter) filterNodes(all []domain.GraphNode) []domain.GraphNode {
	nodes := make([]domain.GraphNode, 0, len(all))
	for _, n := range all {
		if f.config.MaxDepth > 0 && (n.Depth == nil || *n.Depth > f.config.MaxDepth) {
			continue
		}
		nodes = append(nodes, n)
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].Label < nodes[j].Label })
	return nodes
}

func (f *DOTFormatter) writeClusters(writer io.Writer, nodes []domain.GraphNode) {
	byDir := make(map[string][]domain.GraphNode)
	var dirs []string
	for _, n := range nodes {
		dir := path.Dir(n.Label)
		if _, ok := byDir[dir]; !ok {
			dirs = append(dirs, dir)
		}
		byDir[dir] = append(byDir[dir], n)
	}
	sort.Strings(dirs)

	for i, dir := range dirs {
		if dir == "." {
			fmt.Fprintln(writer, "    // Root modules")
			for _, n := range byDir[dir] {
				f.writeNode(writer, n, "    ")
			}
			fmt.Fprintln(writer)
			continue
		}
		fmt.Fprintf(writer, "    subgraph cluster_%d {\n", i)
		fmt.Fprintf(writer, "        label=\"%s\";\n", escapeDOTLabel(dir))
		fmt.Fprintln(writer, "        style=rounded;")
		fmt.Fprintln(writer, "        color=\"#CCCCCC\";")
		for _, n := range byDir[dir] {
			f.writeNode(writer, n, "        ")
		}
		fmt.Fprintln(writer, "    }")
		fmt.Fprintln(writer)
	}
}

func colorFor(n domain.GraphNode) nodeColor {
	switch {
	case n.IsEntry:
		return entryColor
	case n.IsUnreachable:
		return deadColor
	case n.HasSideEffects:
		return sideEffectColor
	default:
		return liveColor
	}
}

func (f *DOTFormatter) writeNode(writer io.Writer, n domain.GraphNode, indent string) {
	colors := colorFor(n)

	var tooltip []string
	switch {
	case n.IsEntry:
		tooltip = append(tooltip, "Entry Point")
	case n.IsUnreachable:
		tooltip = append(tooltip, "Unreachable")
	}
	if n.HasSideEffects {
		tooltip = append(tooltip, "Side effects")
	}
	if n.Depth != nil {
		tooltip = append(tooltip, fmt.Sprintf("Depth: %d", *n.Depth))
	}
	if n.UnusedExports > 0 {
		tooltip = append(tooltip, fmt.Sprintf("Unused exports: %d", n.UnusedExports))
	}

	fmt.Fprintf(writer, "%s%s [label=\"%s\", fillcolor=\"%s\", color=\"%s\"",
		indent, dotID(n.Label), escapeDOTLabel(n.Label), colors.fill, colors.border)
	if n.IsEntry {
		fmt.Fprint(writer, ", penwidth=2")
	}
	if len(tooltip) > 0 {
		fmt.Fprintf(writer, ", tooltip=\"%s\"", strings.Join(tooltip, "\\n"))
	}
	fmt.Fprintln(writer, "];")
}

func (f *DOTFormatter) writeEdge(writer io.Writer, from, to string, kind domain.ImportKind) {
	style, ok := edgeStyles[kind]
	if !ok {
		style = edgeStyles[domain.ImportKindStatic]
	}
	fmt.Fprintf(writer, "    %s -> %s [style=%s, arrowhead=%s", dotID(from), dotID(to), style.style, style.arrow)
	if kind != domain.ImportKindStatic && kind != "" {
		fmt.Fprintf(writer, ", label=\"%s\"", kind)
	}
	fmt.Fprintln(writer, "];")
}

func (f *DOTFormatter) writeLegend(writer io.Writer) {
	fmt.Fprintln(writer, "    // Legend")
	fmt.Fprintln(writer, "    subgraph cluster_legend {")
	fmt.Fprintln(writer, "        label=\"Legend\";")
	fmt.Fprintln(writer, "        style=filled;")
	fmt.Fprintln(writer, "        fillcolor=\"#F5F5F5\";")
	fmt.Fprintln(writer, "        color=\"#CCCCCC\";")
	fmt.Fprintln(writer, "        fontsize=10;")
	fmt.Fprintln(writer)
	for _, item := range []struct {
		id, label string
		color     nodeColor
	}{
		{"legend_entry", "Entry Point", entryColor},
		{"legend_live", "Reachable", liveColor},
		{"legend_side_effect", "Side Effects", sideEffectColor},
		{"legend_dead", "Unreachable", deadColor},
	} {
		fmt.Fprintf(writer, "        %s [label=\"%s\", fillcolor=\"%s\", color=\"%s\"];\n",
			item.id, item.label, item.color.fill, item.color.border)
	}
	fmt.Fprintln(writer)
	for _, kind := range []domain.ImportKind{
		domain.ImportKindStatic,
		domain.ImportKindRequire,
		domain.ImportKindDynamic,
		domain.ImportKindTypeOnly,
		domain.ImportKindReExport,
	} {
		style := edgeStyles[kind]
		fmt.Fprintf(writer, "        legend_%s_a [label=\"\", style=invis, width=0, height=0];\n", kind)
		fmt.Fprintf(writer, "        legend_%s_b [label=\"%s\", style=invis, width=0, height=0];\n", kind, kind)
		fmt.Fprintf(writer, "        legend_%s_a -> legend_%s_b [style=%s, arrowhead=%s, label=\"%s\"];\n",
			kind, kind, style.style, style.arrow, kind)
	}
	fmt.Fprintln(writer, "    }")
}

// dotID quotes a module label for use as a DOT node ID
func dotID(label string) string {
	return "\"" + escapeDOTLabel(label) + "\""
}

// escapeDOTLabel escapes a string for use inside a quoted DOT string
func escapeDOTLabel(label string) string {
	// backslash first to avoid double-escaping
	replacer := strings.NewReplacer(
		"\\", "\\\\",
		"\"", "\\\"",
		"\n", "\\n",
		"\r", "",
		"\t", "\\t",
	)
	return replacer.Replace(label)
}
