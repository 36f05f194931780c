package graph

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar"
	"github.com/ludo-technologies/jsgraph/domain"
	"github.com/sirupsen/logrus"
)

// FrameworkRule marks exports that a framework consumes by convention
type FrameworkRule interface {
	Name() string
	Description() string

	// Apply flags matching exports as framework-used and returns them
	Apply(ctx context.Context, g *ModuleGraph) ([]domain.FrameworkExport, error)
}

// NamingRule marks exports by module path glob and export name
type NamingRule struct {
	RuleName string
	Desc     string

	// PathPatterns are doublestar globs matched against the slash-separated module path;
	// empty matches every module
	PathPatterns []string

	// ExportNames are the export names to mark; empty marks every export
	ExportNames []string
}

// Name returns the rule name
func (r *NamingRule) Name() string { return r.RuleName }

// Description returns the rule description
func (r *NamingRule) Description() string { return r.Desc }

// Apply marks the matching exports as framework-used
func (r *NamingRule) Apply(ctx context.Context, g *ModuleGraph) ([]domain.FrameworkExport, error) {
	modules, err := g.store.GetAllModules(ctx)
	if err != nil {
		return nil, err
	}

	marked := []domain.FrameworkExport{}
	for _, m := range modules {
		if !r.matchesPath(m.Path) {
			continue
		}

		changed := false
		for i := range m.Exports {
			e := &m.Exports[i]
			if !r.matchesExport(e.Name) {
				continue
			}
			if !e.IsFrameworkUsed {
				e.MarkFrameworkUsed()
				changed = true
			}
			marked = append(marked, domain.FrameworkExport{ModuleID: m.ID, Export: *e})
		}

		if changed {
			if err := g.store.StoreModule(ctx, m); err != nil {
				return nil, err
			}
		}
	}
	return marked, nil
}

func (r *NamingRule) matchesPath(path string) bool {
	if len(r.PathPatterns) == 0 {
		return true
	}
	slashed := filepath.ToSlash(path)
	for _, pattern := range r.PathPatterns {
		if ok, _ := doublestar.Match(pattern, slashed); ok {
			return true
		}
		// patterns without a directory part also match the base name
		if !strings.Contains(pattern, "/") {
			if ok, _ := doublestar.Match(pattern, filepath.Base(path)); ok {
				return true
			}
		}
	}
	return false
}

func (r *NamingRule) matchesExport(name string) bool {
	return len(r.ExportNames) == 0 || slices.Contains(r.ExportNames, name)
}

// Framework preset names
const (
	PresetReact  = "react"
	PresetNext   = "next"
	PresetVue    = "vue"
	PresetSvelte = "svelte"
)

// PresetNames lists the built-in framework presets
var PresetNames = []string{PresetReact, PresetNext, PresetVue, PresetSvelte}

// Preset returns the rules of a built-in framework preset
func Preset(name string) ([]FrameworkRule, error) {
	switch strings.ToLower(name) {
	case PresetReact:
		return []FrameworkRule{
			&NamingRule{
				RuleName:     "react-lazy-components",
				Desc:         "Default exports of component files are loaded through React.lazy",
				PathPatterns: []string{"**/*.jsx", "**/*.tsx"},
				ExportNames:  []string{domain.DefaultExportName},
			},
		}, nil
	case PresetNext:
		return []FrameworkRule{
			&NamingRule{
				RuleName:     "next-pages",
				Desc:         "Next.js pages router exports",
				PathPatterns: []string{"**/pages/**"},
				ExportNames: []string{
					domain.DefaultExportName, "getStaticProps", "getStaticPaths",
					"getServerSideProps", "config", "reportWebVitals",
				},
			},
			&NamingRule{
				RuleName:     "next-app",
				Desc:         "Next.js app router segment exports",
				PathPatterns: []string{"**/app/**/page.*", "**/app/**/layout.*", "**/app/**/route.*", "**/app/**/loading.*", "**/app/**/error.*", "**/app/**/not-found.*", "**/app/**/template.*"},
				ExportNames: []string{
					domain.DefaultExportName, "metadata", "generateMetadata", "generateStaticParams",
					"revalidate", "dynamic", "runtime", "GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS",
				},
			},
			&NamingRule{
				RuleName:     "next-middleware",
				Desc:         "Next.js middleware",
				PathPatterns: []string{"middleware.*"},
				ExportNames:  []string{"middleware", "config", domain.DefaultExportName},
			},
		}, nil
	case PresetVue:
		return []FrameworkRule{
			&NamingRule{
				RuleName:     "vue-config",
				Desc:         "Vue and Nuxt configuration defaults",
				PathPatterns: []string{"vue.config.*", "nuxt.config.*", "**/plugins/**", "**/middleware/**"},
				ExportNames:  []string{domain.DefaultExportName},
			},
		}, nil
	case PresetSvelte:
		return []FrameworkRule{
			&NamingRule{
				RuleName:     "sveltekit-routes",
				Desc:         "SvelteKit route module exports",
				PathPatterns: []string{"**/routes/**/+page.*", "**/routes/**/+layout.*", "**/routes/**/+server.*"},
				ExportNames: []string{
					"load", "actions", "prerender", "ssr", "csr", "trailingSlash", "entries",
					"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS",
				},
			},
			&NamingRule{
				RuleName:     "sveltekit-hooks",
				Desc:         "SvelteKit hooks",
				PathPatterns: []string{"hooks.server.*", "hooks.client.*"},
				ExportNames:  []string{"handle", "handleError", "handleFetch"},
			},
		}, nil
	}
	return nil, domain.NewConfigError("framework.presets", fmt.Sprintf("unknown framework preset %q", name), nil)
}

// ApplyFrameworkRules runs rules in order and returns every export they marked
func (g *ModuleGraph) ApplyFrameworkRules(ctx context.Context, rules []FrameworkRule) ([]domain.FrameworkExport, error) {
	all := []domain.FrameworkExport{}
	for _, rule := range rules {
		marked, err := rule.Apply(ctx, g)
		if err != nil {
			return nil, fmt.Errorf("framework rule %s: %w", rule.Name(), err)
		}
		g.log.WithFields(logrus.Fields{
			"rule":  rule.Name(),
			"count": len(marked),
		}).Debug("framework rule applied")
		all = append(all, marked...)
	}
	return all, nil
}

// FrameworkUsedExports returns every export flagged as framework-used
func (g *ModuleGraph) FrameworkUsedExports(ctx context.Context) ([]domain.FrameworkExport, error) {
	modules, err := g.store.GetAllModules(ctx)
	if err != nil {
		return nil, err
	}
	result := []domain.FrameworkExport{}
	for _, m := range modules {
		for _, e := range m.Exports {
			if e.IsFrameworkUsed {
				result = append(result, domain.FrameworkExport{ModuleID: m.ID, Export: e})
			}
		}
	}
	return result, nil
}
