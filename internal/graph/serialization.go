package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ludo-technologies/jsgraph/domain"
	"github.com/sirupsen/logrus"
)

// SnapshotVersion is the current Snapshot envelope version
const SnapshotVersion = 1

// Edge is a dependency edge in a serialized graph
type Edge struct {
	From domain.ModuleID `json:"from"`
	To   domain.ModuleID `json:"to"`
}

// Document is the serialized form of a graph
type Document struct {
	Version      int                          `json:"version,omitempty"`
	Modules      []*domain.Module             `json:"modules"`
	EntryPoints  []domain.ModuleID            `json:"entry_points"`
	ExternalDeps []*domain.ExternalDependency `json:"external_deps"`
	Edges        []Edge                       `json:"edges,omitempty"`
}

func (g *ModuleGraph) document(ctx context.Context, withEdges bool) (*Document, error) {
	modules, err := g.store.GetAllModules(ctx)
	if err != nil {
		return nil, err
	}
	entries, err := g.store.GetEntryPoints(ctx)
	if err != nil {
		return nil, err
	}
	externals, err := g.ExternalDependencies(ctx)
	if err != nil {
		return nil, err
	}

	doc := &Document{
		Modules:      modules,
		EntryPoints:  entries,
		ExternalDeps: externals,
	}
	if !withEdges {
		return doc, nil
	}

	doc.Version = SnapshotVersion
	doc.Edges = []Edge{}
	for _, m := range modules {
		deps, err := g.store.GetDependencies(ctx, m.ID)
		if err != nil {
			return nil, err
		}
		for _, to := range deps {
			doc.Edges = append(doc.Edges, Edge{From: m.ID, To: to})
		}
	}
	return doc, nil
}

// ToJSON renders the graph as {modules, entry_points, external_deps}
func (g *ModuleGraph) ToJSON(ctx context.Context) ([]byte, error) {
	doc, err := g.document(ctx, false)
	if err != nil {
		return nil, err
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal graph: %w", err)
	}
	return data, nil
}

// ToDOT renders the graph as a Graphviz digraph with one node per module path
func (g *ModuleGraph) ToDOT(ctx context.Context) (string, error) {
	modules, err := g.store.GetAllModules(ctx)
	if err != nil {
		return "", err
	}

	labels := make(map[domain.ModuleID]string, len(modules))
	for _, m := range modules {
		labels[m.ID] = m.Path
	}
	label := func(id domain.ModuleID) string {
		if l, ok := labels[id]; ok && l != "" {
			return l
		}
		return id.String()
	}

	var b strings.Builder
	b.WriteString("digraph ModuleGraph {\n")
	for _, m := range modules {
		fmt.Fprintf(&b, "  \"%s\";\n", escapeQuotes(label(m.ID)))
	}
	for _, m := range modules {
		deps, err := g.store.GetDependencies(ctx, m.ID)
		if err != nil {
			return "", err
		}
		for _, to := range deps {
			fmt.Fprintf(&b, "  \"%s\" -> \"%s\";\n", escapeQuotes(label(m.ID)), escapeQuotes(label(to)))
		}
	}
	b.WriteString("}\n")
	return b.String(), nil
}

func escapeQuotes(s string) string {
	return strings.ReplaceAll(s, `"`, `\"`)
}

// Snapshot serializes the graph including its edges, so it can be restored into another backend
func (g *ModuleGraph) Snapshot(ctx context.Context) ([]byte, error) {
	doc, err := g.document(ctx, true)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	return data, nil
}

// Restore loads a snapshot produced by Snapshot into the graph
func (g *ModuleGraph) Restore(ctx context.Context, data []byte) error {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to parse snapshot: %w", err)
	}
	if doc.Version != SnapshotVersion {
		return fmt.Errorf("unsupported snapshot version %d (expected %d)", doc.Version, SnapshotVersion)
	}

	for _, m := range doc.Modules {
		if err := g.store.StoreModule(ctx, m); err != nil {
			return err
		}
	}
	for _, e := range doc.Edges {
		if err := g.AddDependency(ctx, e.From, e.To); err != nil {
			return err
		}
	}
	for _, dep := range doc.ExternalDeps {
		if err := g.AddExternalDependency(ctx, dep); err != nil {
			return err
		}
	}
	for _, id := range doc.EntryPoints {
		if err := g.AddEntryPoint(ctx, id); err != nil {
			return err
		}
	}

	g.log.WithFields(logrus.Fields{
		"modules": len(doc.Modules),
		"edges":   len(doc.Edges),
	}).Debug("snapshot restored")
	return nil
}
