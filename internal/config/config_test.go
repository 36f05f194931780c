package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/ludo-technologies/jsgraph/domain"
)

func writeConfig(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config == nil {
		t.Fatal("DefaultConfig should not return nil")
	}
	if err := config.Validate(); err != nil {
		t.Fatalf("default config should be valid: %v", err)
	}

	if config.Storage.Backend != DefaultStorageBackend {
		t.Errorf("Expected backend %s, got %s", DefaultStorageBackend, config.Storage.Backend)
	}
	if config.Storage.CacheSize != DefaultCacheSize {
		t.Errorf("Expected cache size %d, got %d", DefaultCacheSize, config.Storage.CacheSize)
	}
	if !config.Analysis.PackageEntries {
		t.Error("PackageEntries should be true by default")
	}
	if !config.Analysis.RespectGitignore {
		t.Error("RespectGitignore should be true by default")
	}
	if len(config.Analysis.EntryPoints) == 0 {
		t.Error("EntryPoints should not be empty")
	}
	if config.Output.Format != "text" {
		t.Errorf("Expected Format 'text', got '%s'", config.Output.Format)
	}
	if config.Output.SortBy != SortByPath {
		t.Errorf("Expected SortBy 'path', got '%s'", config.Output.SortBy)
	}
	if got := config.Analysis.MaxFileSizeBytes(); got != DefaultMaxFileSizeKB*1024 {
		t.Errorf("MaxFileSizeBytes() = %d, want %d", got, DefaultMaxFileSizeKB*1024)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		field  string
	}{
		{"unknown backend", func(c *Config) { c.Storage.Backend = "redis" }, "storage.backend"},
		{"negative cache", func(c *Config) { c.Storage.CacheSize = -1 }, "storage.cache_size"},
		{"negative file size", func(c *Config) { c.Analysis.MaxFileSizeKB = -5 }, "analysis.max_file_size_kb"},
		{"rule without name", func(c *Config) {
			c.Framework.Rules = []FrameworkRuleConfig{{Paths: []string{"*.stories.tsx"}}}
		}, "framework.rules[0]"},
		{"rule without matchers", func(c *Config) {
			c.Framework.Rules = []FrameworkRuleConfig{{Name: "empty"}}
		}, "framework.rules[0]"},
		{"bad format", func(c *Config) { c.Output.Format = "html" }, "output.format"},
		{"bad sort", func(c *Config) { c.Output.SortBy = "complexity" }, "output.sort_by"},
		{"bad level", func(c *Config) { c.Logging.Level = "loud" }, "logging.level"},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"negative goroutines", func(c *Config) { c.Performance.MaxGoroutines = -1 }, "performance.max_goroutines"},
		{"negative timeout", func(c *Config) { c.Performance.TimeoutSeconds = -1 }, "performance.timeout_seconds"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			tt.modify(config)

			err := config.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			var cfgErr *domain.ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("expected *domain.ConfigError, got %T", err)
			}
			if cfgErr.Field != tt.field {
				t.Errorf("Field = %q, want %q", cfgErr.Field, tt.field)
			}
		})
	}
}

func TestValidate_BoltAlias(t *testing.T) {
	config := DefaultConfig()
	config.Storage.Backend = "bolt"
	if err := config.Validate(); err != nil {
		t.Errorf("bolt should be accepted as a persistent backend: %v", err)
	}
}

func TestLoadConfig_FromFile(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "jsgraph.yaml", `
storage:
  backend: persistent
  path: graph.db
analysis:
  entry_points: ["src/app.ts"]
  aliases:
    "~/": src
framework:
  presets: [react]
  rules:
    - name: storybook
      paths: ["*.stories.tsx"]
output:
  format: json
  sort_by: name
`)

	config, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if config.Storage.Backend != "persistent" {
		t.Errorf("Backend = %q, want persistent", config.Storage.Backend)
	}
	if config.Storage.Path != "graph.db" {
		t.Errorf("Path = %q, want graph.db", config.Storage.Path)
	}
	if config.Storage.CacheSize != DefaultCacheSize {
		t.Errorf("CacheSize should keep its default, got %d", config.Storage.CacheSize)
	}
	if !reflect.DeepEqual(config.Analysis.EntryPoints, []string{"src/app.ts"}) {
		t.Errorf("EntryPoints = %v", config.Analysis.EntryPoints)
	}
	if config.Analysis.Aliases["~/"] != "src" {
		t.Errorf("Aliases = %v", config.Analysis.Aliases)
	}
	if !reflect.DeepEqual(config.Framework.Presets, []string{"react"}) {
		t.Errorf("Presets = %v", config.Framework.Presets)
	}
	if len(config.Framework.Rules) != 1 || config.Framework.Rules[0].Name != "storybook" {
		t.Errorf("Rules = %+v", config.Framework.Rules)
	}
	if config.Output.Format != "json" || config.Output.SortBy != SortByName {
		t.Errorf("Output = %+v", config.Output)
	}
	if !config.Analysis.PackageEntries {
		t.Error("PackageEntries should keep its default")
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "jsgraph.yaml", "output:\n  format: pdf\n")

	_, err := LoadConfig(path)
	if !domain.IsConfigError(err) {
		t.Fatalf("expected config error, got %v", err)
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if !domain.IsConfigError(err) {
		t.Fatalf("expected config error, got %v", err)
	}
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "jsgraph.yaml", "storage:\n  backend: memory\n")

	t.Setenv("JSGRAPH_STORAGE_BACKEND", "persistent")
	t.Setenv("JSGRAPH_OUTPUT_FORMAT", "yaml")

	config, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if config.Storage.Backend != "persistent" {
		t.Errorf("Backend = %q, want persistent from environment", config.Storage.Backend)
	}
	if config.Output.Format != "yaml" {
		t.Errorf("Format = %q, want yaml from environment", config.Output.Format)
	}
}

func TestLoadConfigWithTarget_Discovery(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, ".jsgraph.yaml", "output:\n  sort_by: name\n")
	target := filepath.Join(root, "packages", "web")
	if err := os.MkdirAll(target, 0o755); err != nil {
		t.Fatal(err)
	}

	if got := findDefaultConfig(target); got != filepath.Join(root, ".jsgraph.yaml") {
		t.Errorf("findDefaultConfig() = %q", got)
	}

	config, err := LoadConfigWithTarget("", target)
	if err != nil {
		t.Fatalf("LoadConfigWithTarget failed: %v", err)
	}
	if config.Output.SortBy != SortByName {
		t.Errorf("SortBy = %q, want name from discovered file", config.Output.SortBy)
	}
}

func TestSearchConfigInDirectory_Order(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "jsgraph.json", "{}")
	writeConfig(t, dir, "jsgraph.yml", "")

	if got := searchConfigInDirectory(dir, configCandidates); got != filepath.Join(dir, "jsgraph.yml") {
		t.Errorf("searchConfigInDirectory() = %q, want jsgraph.yml", got)
	}
	if got := searchConfigInDirectory(t.TempDir(), configCandidates); got != "" {
		t.Errorf("empty directory should yield no config, got %q", got)
	}
}

func TestSaveConfig(t *testing.T) {
	config := DefaultConfig()
	config.Storage.Backend = "persistent"
	config.Storage.Path = ".jsgraph/graph.db"
	config.Dependencies.IncludeDev = true
	config.Framework.Presets = []string{"vue"}

	path := filepath.Join(t.TempDir(), "nested", "jsgraph.yaml")
	if err := SaveConfig(config, path); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if loaded.Storage != config.Storage {
		t.Errorf("Storage = %+v, want %+v", loaded.Storage, config.Storage)
	}
	if !loaded.Dependencies.IncludeDev {
		t.Error("IncludeDev was not saved")
	}
	if !reflect.DeepEqual(loaded.Framework.Presets, []string{"vue"}) {
		t.Errorf("Presets = %v", loaded.Framework.Presets)
	}
	if !reflect.DeepEqual(loaded.Analysis.ExcludePatterns, config.Analysis.ExcludePatterns) {
		t.Errorf("ExcludePatterns = %v", loaded.Analysis.ExcludePatterns)
	}
}

func TestConfigTemplatesLoad(t *testing.T) {
	for _, projectType := range ProjectTypes {
		for _, backend := range []string{"memory", "persistent"} {
			t.Run(string(projectType)+"/"+backend, func(t *testing.T) {
				path := writeConfig(t, t.TempDir(), "jsgraph.yaml", GetConfigTemplate(projectType, backend))

				config, err := LoadConfig(path)
				if err != nil {
					t.Fatalf("template does not load: %v", err)
				}
				if config.Storage.Backend != backend {
					t.Errorf("Backend = %q, want %q", config.Storage.Backend, backend)
				}
				preset := GetProjectPresets()[projectType]
				if !reflect.DeepEqual(config.Analysis.EntryPoints, preset.EntryPoints) {
					t.Errorf("EntryPoints = %v, want %v", config.Analysis.EntryPoints, preset.EntryPoints)
				}
			})
		}
	}

	t.Run("minimal", func(t *testing.T) {
		path := writeConfig(t, t.TempDir(), "jsgraph.yaml", GetMinimalConfigTemplate())
		if _, err := LoadConfig(path); err != nil {
			t.Fatalf("minimal template does not load: %v", err)
		}
	})
}

func TestGetConfigTemplate_UnknownType(t *testing.T) {
	got := GetConfigTemplate(ProjectType("angular"), "")
	want := GetConfigTemplate(ProjectTypeGeneric, DefaultStorageBackend)
	if got != want {
		t.Error("unknown project types should fall back to the generic memory template")
	}
}

func TestConfigForProject(t *testing.T) {
	config := ConfigForProject(ProjectTypeNext, "persistent")
	if config.Storage.Backend != "persistent" || config.Storage.Path == "" {
		t.Errorf("Storage = %+v, want persistent with a database path", config.Storage)
	}
	if !reflect.DeepEqual(config.Framework.Presets, []string{"react", "next"}) {
		t.Errorf("Presets = %v", config.Framework.Presets)
	}
	if err := config.Validate(); err != nil {
		t.Errorf("preset config should be valid: %v", err)
	}

	generic := ConfigForProject(ProjectType("angular"), "")
	if generic.Storage.Backend != DefaultStorageBackend || len(generic.Framework.Presets) != 0 {
		t.Errorf("unknown project types should fall back to generic, got %+v", generic)
	}
}
