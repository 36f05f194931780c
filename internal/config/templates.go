package config

import (
	"strings"

	"github.com/ludo-technologies/jsgraph/internal/constants"
)

// ProjectType represents the type of JavaScript/TypeScript project
type ProjectType string

const (
	ProjectTypeGeneric     ProjectType = "generic"
	ProjectTypeReact       ProjectType = "react"
	ProjectTypeNext        ProjectType = "next"
	ProjectTypeVue         ProjectType = "vue"
	ProjectTypeSvelte      ProjectType = "svelte"
	ProjectTypeNodeBackend ProjectType = "node"
)

// ProjectTypes lists the project types offered by init
var ProjectTypes = []ProjectType{
	ProjectTypeGeneric,
	ProjectTypeReact,
	ProjectTypeNext,
	ProjectTypeVue,
	ProjectTypeSvelte,
	ProjectTypeNodeBackend,
}

// ProjectPreset holds configuration presets for different project types
type ProjectPreset struct {
	ExcludePatterns  []string
	EntryPoints      []string
	FrameworkPresets []string
}

// GetProjectPresets returns presets for different project types
func GetProjectPresets() map[ProjectType]ProjectPreset {
	return map[ProjectType]ProjectPreset{
		ProjectTypeGeneric: {
			ExcludePatterns: []string{"dist", "build", "coverage", "*.d.ts", "*.min.js"},
			EntryPoints:     []string{"index.*", "main.*", "src/index.*", "src/main.*"},
		},
		ProjectTypeReact: {
			ExcludePatterns:  []string{"dist", "build", "coverage", "*.d.ts", "*.min.js"},
			EntryPoints:      []string{"src/index.*", "src/main.*"},
			FrameworkPresets: []string{"react"},
		},
		ProjectTypeNext: {
			ExcludePatterns:  []string{".next", "out", "coverage", "*.d.ts"},
			EntryPoints:      []string{"next.config.*", "middleware.*", "src/middleware.*"},
			FrameworkPresets: []string{"react", "next"},
		},
		ProjectTypeVue: {
			ExcludePatterns:  []string{"dist", ".nuxt", ".output", "coverage", "*.d.ts"},
			EntryPoints:      []string{"src/main.*", "nuxt.config.*"},
			FrameworkPresets: []string{"vue"},
		},
		ProjectTypeSvelte: {
			ExcludePatterns:  []string{".svelte-kit", "build", "coverage", "*.d.ts"},
			EntryPoints:      []string{"src/main.*", "svelte.config.*", "src/hooks.*"},
			FrameworkPresets: []string{"svelte"},
		},
		ProjectTypeNodeBackend: {
			ExcludePatterns: []string{"dist", "build", "coverage", "test", "tests", "__tests__", "*.d.ts"},
			EntryPoints:     []string{"index.*", "server.*", "src/index.*", "src/server.*", "bin/**"},
		},
	}
}

// GetConfigTemplate returns a documented YAML configuration for the project type and storage backend
func GetConfigTemplate(projectType ProjectType, backend string) string {
	preset, ok := GetProjectPresets()[projectType]
	if !ok {
		preset = GetProjectPresets()[ProjectTypeGeneric]
	}
	if backend == "" {
		backend = DefaultStorageBackend
	}

	dbPath := `""`
	if backend == "persistent" {
		dbPath = constants.DefaultDatabasePath
	}

	return `# jsgraph configuration
# Documentation: https://github.com/ludo-technologies/jsgraph

# ============================================================================
# STORAGE
# ============================================================================
storage:
  # memory keeps the graph in process; persistent stores it in a bbolt file
  backend: ` + backend + `
  # Database file for the persistent backend (empty = temporary file)
  path: ` + dbPath + `
  # Decoded modules cached in memory by the persistent backend
  cache_size: 1024

# ============================================================================
# ANALYSIS SCOPE
# ============================================================================
analysis:
  # Only analyze files matching these globs (empty = every JS/TS source)
  include_patterns: []
  # Skip matching files and directories (node_modules is always skipped)
` + yamlList("exclude_patterns", preset.ExcludePatterns) + `
  # Modules matching these globs (relative to the project root) are entry points
` + yamlList("entry_points", preset.EntryPoints) + `
  # Also treat package.json "main" and "module" as entry points
  package_entries: true
  # Import prefix aliases, e.g. "@/": src
  aliases: {}
  respect_gitignore: true
  follow_symlinks: false
  # Skip files larger than this (0 = no limit)
  max_file_size_kb: 1024

# ============================================================================
# NPM DEPENDENCIES
# ============================================================================
dependencies:
  # Also report unused devDependencies / peerDependencies
  include_dev: false
  include_peer: false
  # Path to package.json (empty = nearest to the analyzed directory)
  package_json: ""

# ============================================================================
# FRAMEWORK CONVENTIONS
# ============================================================================
# Exports consumed by a framework (pages, loaders, hooks) are never reported as unused
framework:
` + yamlList("presets", preset.FrameworkPresets) + `
  rules: []
  # - name: storybook
  #   description: Story exports are read by Storybook
  #   paths: ["*.stories.tsx"]

# ============================================================================
# OUTPUT
# ============================================================================
output:
  # text, json, yaml or dot
  format: text
  show_details: true
  # path or name
  sort_by: path

logging:
  level: warn
  format: text

performance:
  # Parallel parsing workers (0 = number of CPUs)
  max_goroutines: 0
  timeout_seconds: 300
`
}

// ConfigForProject returns the default configuration with the project preset applied
func ConfigForProject(projectType ProjectType, backend string) *Config {
	cfg := DefaultConfig()
	preset, ok := GetProjectPresets()[projectType]
	if !ok {
		preset = GetProjectPresets()[ProjectTypeGeneric]
	}
	cfg.Analysis.ExcludePatterns = append([]string{}, preset.ExcludePatterns...)
	cfg.Analysis.EntryPoints = append([]string{}, preset.EntryPoints...)
	cfg.Framework.Presets = append([]string{}, preset.FrameworkPresets...)
	if backend != "" {
		cfg.Storage.Backend = backend
	}
	if cfg.Storage.Backend == "persistent" {
		cfg.Storage.Path = constants.DefaultDatabasePath
	}
	return cfg
}

// GetMinimalConfigTemplate returns a minimal config template
func GetMinimalConfigTemplate() string {
	return `# jsgraph configuration (minimal)
# See full options: https://github.com/ludo-technologies/jsgraph

storage:
  backend: memory

analysis:
  exclude_patterns: ["dist", "build", "*.d.ts"]
  entry_points: ["index.*", "src/index.*"]

output:
  format: text
`
}

// yamlList formats a two-space indented key holding items as a YAML sequence
func yamlList(key string, items []string) string {
	if len(items) == 0 {
		return "  " + key + ": []"
	}
	lines := []string{"  " + key + ":"}
	for _, item := range items {
		lines = append(lines, `    - "`+item+`"`)
	}
	return strings.Join(lines, "\n")
}
