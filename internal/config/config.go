package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar"
	"github.com/ludo-technologies/jsgraph/domain"
	"github.com/ludo-technologies/jsgraph/internal/constants"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Default storage settings
const (
	// DefaultStorageBackend keeps the graph in process memory
	DefaultStorageBackend = "memory"

	// DefaultCacheSize is the decoded-module cache size of the persistent backend
	DefaultCacheSize = 1024
)

// Default analysis settings
const (
	// DefaultMaxFileSizeKB skips generated bundles and fixtures larger than 1 MiB
	DefaultMaxFileSizeKB = 1024

	// DefaultTimeoutSeconds bounds a whole analysis run
	DefaultTimeoutSeconds = 300
)

// Sort orders accepted by output.sort_by
const (
	SortByPath = "path"
	SortByName = "name"
)

// Config represents the main configuration structure
type Config struct {
	// Storage selects the graph storage backend
	Storage StorageConfig `json:"storage" mapstructure:"storage" yaml:"storage"`

	// Analysis controls file discovery and entry points
	Analysis AnalysisConfig `json:"analysis" mapstructure:"analysis" yaml:"analysis"`

	// Dependencies controls npm dependency coverage
	Dependencies DependenciesConfig `json:"dependencies" mapstructure:"dependencies" yaml:"dependencies"`

	// Framework holds convention rules that mark exports as used
	Framework FrameworkConfig `json:"framework" mapstructure:"framework" yaml:"framework"`

	// Output holds output formatting configuration
	Output OutputConfig `json:"output" mapstructure:"output" yaml:"output"`

	// Logging configures the diagnostic logger
	Logging LoggingConfig `json:"logging" mapstructure:"logging" yaml:"logging"`

	// Performance bounds concurrency and run time
	Performance PerformanceConfig `json:"performance" mapstructure:"performance" yaml:"performance"`
}

// StorageConfig selects and tunes the graph backend
type StorageConfig struct {
	// Backend is memory or persistent
	Backend string `json:"backend" mapstructure:"backend" yaml:"backend"`

	// Path is the database file for the persistent backend (empty = temporary file)
	Path string `json:"path" mapstructure:"path" yaml:"path"`

	// CacheSize is the number of decoded modules kept in memory by the persistent backend
	CacheSize int `json:"cache_size" mapstructure:"cache_size" yaml:"cache_size"`
}

// AnalysisConfig holds file discovery configuration
type AnalysisConfig struct {
	// IncludePatterns restricts analysis to matching files (empty = all sources)
	IncludePatterns []string `json:"include_patterns" mapstructure:"include_patterns" yaml:"include_patterns"`

	// ExcludePatterns skips matching files and directories
	ExcludePatterns []string `json:"exclude_patterns" mapstructure:"exclude_patterns" yaml:"exclude_patterns"`

	// EntryPoints are globs, relative to the project root, of modules treated as entry points
	EntryPoints []string `json:"entry_points" mapstructure:"entry_points" yaml:"entry_points"`

	// PackageEntries adds package.json main and module as entry points
	PackageEntries bool `json:"package_entries" mapstructure:"package_entries" yaml:"package_entries"`

	// Aliases maps import prefixes such as "@/" to directories
	Aliases map[string]string `json:"aliases" mapstructure:"aliases" yaml:"aliases"`

	// RespectGitignore skips files matched by the root .gitignore
	RespectGitignore bool `json:"respect_gitignore" mapstructure:"respect_gitignore" yaml:"respect_gitignore"`

	// FollowSymlinks controls whether to follow symbolic links
	FollowSymlinks bool `json:"follow_symlinks" mapstructure:"follow_symlinks" yaml:"follow_symlinks"`

	// MaxFileSizeKB skips larger files (0 = no limit)
	MaxFileSizeKB int `json:"max_file_size_kb" mapstructure:"max_file_size_kb" yaml:"max_file_size_kb"`
}

// DependenciesConfig controls which package.json buckets are checked
type DependenciesConfig struct {
	IncludeDev  bool `json:"include_dev" mapstructure:"include_dev" yaml:"include_dev"`
	IncludePeer bool `json:"include_peer" mapstructure:"include_peer" yaml:"include_peer"`

	// PackageJSON overrides manifest discovery
	PackageJSON string `json:"package_json" mapstructure:"package_json" yaml:"package_json"`
}

// FrameworkConfig holds framework conventions
type FrameworkConfig struct {
	// Presets are built-in rule sets: react, next, vue, svelte
	Presets []string `json:"presets" mapstructure:"presets" yaml:"presets"`

	// Rules are custom naming rules
	Rules []FrameworkRuleConfig `json:"rules" mapstructure:"rules" yaml:"rules"`
}

// FrameworkRuleConfig is a custom naming rule
type FrameworkRuleConfig struct {
	Name        string   `json:"name" mapstructure:"name" yaml:"name"`
	Description string   `json:"description" mapstructure:"description" yaml:"description"`
	Paths       []string `json:"paths" mapstructure:"paths" yaml:"paths"`
	Exports     []string `json:"exports" mapstructure:"exports" yaml:"exports"`
}

// OutputConfig holds configuration for output formatting
type OutputConfig struct {
	// Format specifies the output format: text, json, yaml, dot
	Format string `json:"format" mapstructure:"format" yaml:"format"`

	// ShowDetails controls whether to list every finding in text output
	ShowDetails bool `json:"show_details" mapstructure:"show_details" yaml:"show_details"`

	// SortBy orders findings: path or name
	SortBy string `json:"sort_by" mapstructure:"sort_by" yaml:"sort_by"`
}

// LoggingConfig configures logrus
type LoggingConfig struct {
	Level  string `json:"level" mapstructure:"level" yaml:"level"`
	Format string `json:"format" mapstructure:"format" yaml:"format"`
	Output string `json:"output" mapstructure:"output" yaml:"output"`
}

// PerformanceConfig bounds resource usage
type PerformanceConfig struct {
	// MaxGoroutines bounds parallel parsing and report tasks (0 = number of CPUs)
	MaxGoroutines int `json:"max_goroutines" mapstructure:"max_goroutines" yaml:"max_goroutines"`

	// TimeoutSeconds bounds the whole run
	TimeoutSeconds int `json:"timeout_seconds" mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Storage: StorageConfig{
			Backend:   DefaultStorageBackend,
			CacheSize: DefaultCacheSize,
		},
		Analysis: AnalysisConfig{
			IncludePatterns: []string{},
			ExcludePatterns: []string{
				// Build outputs
				"dist",
				"build",
				"out",
				".output",
				// Framework-specific
				".next",
				".nuxt",
				".svelte-kit",
				// Cache directories
				".cache",
				".turbo",
				"coverage",
				// Declarations and bundles
				"*.d.ts",
				"*.min.js",
				"*.bundle.js",
			},
			EntryPoints:      []string{"index.*", "main.*", "src/index.*", "src/main.*"},
			PackageEntries:   true,
			Aliases:          map[string]string{},
			RespectGitignore: true,
			FollowSymlinks:   false,
			MaxFileSizeKB:    DefaultMaxFileSizeKB,
		},
		Dependencies: DependenciesConfig{
			IncludeDev:  false,
			IncludePeer: false,
		},
		Framework: FrameworkConfig{
			Presets: []string{},
			Rules:   []FrameworkRuleConfig{},
		},
		Output: OutputConfig{
			Format:      string(domain.OutputFormatText),
			ShowDetails: true,
			SortBy:      SortByPath,
		},
		Logging: LoggingConfig{
			Level:  "warn",
			Format: "text",
			Output: "stderr",
		},
		Performance: PerformanceConfig{
			MaxGoroutines:  0,
			TimeoutSeconds: DefaultTimeoutSeconds,
		},
	}
}

// LoadConfig loads configuration from file or returns default config
func LoadConfig(configPath string) (*Config, error) {
	return LoadConfigWithTarget(configPath, "")
}

// LoadConfigWithTarget loads configuration, discovering a config file from
// targetPath upward when configPath is empty. JSGRAPH_* environment variables
// override file values.
func LoadConfigWithTarget(configPath string, targetPath string) (*Config, error) {
	if configPath == "" {
		configPath = findDefaultConfig(targetPath)
	}
	return loadConfigFromFile(configPath)
}

// loadConfigFromFile reads and parses a configuration file; an empty path yields defaults plus environment
func loadConfigFromFile(configPath string) (*Config, error) {
	// Create a new viper instance to avoid race conditions
	v := viper.New()
	setDefaults(v, DefaultConfig())
	v.SetEnvPrefix(constants.EnvVarPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, domain.NewConfigError("config", fmt.Sprintf("failed to read config file %s", configPath), err)
		}
	}

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, domain.NewConfigError("config", "failed to unmarshal config", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// setDefaults registers every key so environment overrides apply to it
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("storage.backend", d.Storage.Backend)
	v.SetDefault("storage.path", d.Storage.Path)
	v.SetDefault("storage.cache_size", d.Storage.CacheSize)

	v.SetDefault("analysis.include_patterns", d.Analysis.IncludePatterns)
	v.SetDefault("analysis.exclude_patterns", d.Analysis.ExcludePatterns)
	v.SetDefault("analysis.entry_points", d.Analysis.EntryPoints)
	v.SetDefault("analysis.package_entries", d.Analysis.PackageEntries)
	v.SetDefault("analysis.aliases", d.Analysis.Aliases)
	v.SetDefault("analysis.respect_gitignore", d.Analysis.RespectGitignore)
	v.SetDefault("analysis.follow_symlinks", d.Analysis.FollowSymlinks)
	v.SetDefault("analysis.max_file_size_kb", d.Analysis.MaxFileSizeKB)

	v.SetDefault("dependencies.include_dev", d.Dependencies.IncludeDev)
	v.SetDefault("dependencies.include_peer", d.Dependencies.IncludePeer)
	v.SetDefault("dependencies.package_json", d.Dependencies.PackageJSON)

	v.SetDefault("framework.presets", d.Framework.Presets)
	v.SetDefault("framework.rules", d.Framework.Rules)

	v.SetDefault("output.format", d.Output.Format)
	v.SetDefault("output.show_details", d.Output.ShowDetails)
	v.SetDefault("output.sort_by", d.Output.SortBy)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.output", d.Logging.Output)

	v.SetDefault("performance.max_goroutines", d.Performance.MaxGoroutines)
	v.SetDefault("performance.timeout_seconds", d.Performance.TimeoutSeconds)
}

// configCandidates are the file names searched in each directory, in order
var configCandidates = []string{
	"jsgraph.yaml",
	"jsgraph.yml",
	".jsgraph.yaml",
	".jsgraph.yml",
	"jsgraph.json",
	".jsgraph.json",
}

// searchConfigInDirectory searches for configuration files in a specific directory
func searchConfigInDirectory(dir string, candidates []string) string {
	for _, candidate := range candidates {
		path := filepath.Join(dir, candidate)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// findDefaultConfig looks for configuration files from targetPath upward,
// then in the working directory, the XDG config directory and home
func findDefaultConfig(targetPath string) string {
	if targetPath != "" {
		if absPath, err := filepath.Abs(targetPath); err == nil {
			if info, err := os.Stat(absPath); err == nil && !info.IsDir() {
				absPath = filepath.Dir(absPath)
			}

			volume := filepath.VolumeName(absPath)
			for dir := absPath; ; dir = filepath.Dir(dir) {
				if config := searchConfigInDirectory(dir, configCandidates); config != "" {
					return config
				}
				parent := filepath.Dir(dir)
				if parent == dir || dir == volume ||
					(volume != "" && dir == volume+string(filepath.Separator)) {
					break
				}
			}
		}
	}

	if config := searchConfigInDirectory(".", configCandidates); config != "" {
		return config
	}

	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		if config := searchConfigInDirectory(filepath.Join(xdgConfig, constants.ToolName), configCandidates); config != "" {
			return config
		}
	}

	if home, err := os.UserHomeDir(); err == nil {
		if config := searchConfigInDirectory(filepath.Join(home, ".config", constants.ToolName), configCandidates); config != "" {
			return config
		}
		if config := searchConfigInDirectory(home, configCandidates); config != "" {
			return config
		}
	}

	if envConfig := os.Getenv(constants.ConfigEnvVar); envConfig != "" {
		if _, err := os.Stat(envConfig); err == nil {
			return envConfig
		}
	}

	return ""
}

// Validate validates the configuration values
func (c *Config) Validate() error {
	switch strings.ToLower(c.Storage.Backend) {
	case "memory", "persistent", "bolt":
	default:
		return domain.NewConfigError("storage.backend",
			fmt.Sprintf("invalid backend '%s', must be one of: memory, persistent", c.Storage.Backend), nil)
	}
	if c.Storage.CacheSize < 0 {
		return domain.NewConfigError("storage.cache_size",
			fmt.Sprintf("must be >= 0, got %d", c.Storage.CacheSize), nil)
	}

	if err := validatePatterns("analysis.include_patterns", c.Analysis.IncludePatterns); err != nil {
		return err
	}
	if err := validatePatterns("analysis.exclude_patterns", c.Analysis.ExcludePatterns); err != nil {
		return err
	}
	if err := validatePatterns("analysis.entry_points", c.Analysis.EntryPoints); err != nil {
		return err
	}
	if c.Analysis.MaxFileSizeKB < 0 {
		return domain.NewConfigError("analysis.max_file_size_kb",
			fmt.Sprintf("must be >= 0, got %d", c.Analysis.MaxFileSizeKB), nil)
	}

	for i, rule := range c.Framework.Rules {
		field := fmt.Sprintf("framework.rules[%d]", i)
		if rule.Name == "" {
			return domain.NewConfigError(field, "rule name is required", nil)
		}
		if len(rule.Paths) == 0 && len(rule.Exports) == 0 {
			return domain.NewConfigError(field, fmt.Sprintf("rule '%s' must set paths or exports", rule.Name), nil)
		}
		if err := validatePatterns(field+".paths", rule.Paths); err != nil {
			return err
		}
	}

	if _, err := domain.ParseOutputFormat(c.Output.Format); err != nil {
		return err
	}
	if c.Output.SortBy != SortByPath && c.Output.SortBy != SortByName {
		return domain.NewConfigError("output.sort_by",
			fmt.Sprintf("invalid sort_by '%s', must be one of: path, name", c.Output.SortBy), nil)
	}

	if c.Logging.Level != "" {
		if _, err := logrus.ParseLevel(c.Logging.Level); err != nil {
			return domain.NewConfigError("logging.level", fmt.Sprintf("invalid level '%s'", c.Logging.Level), err)
		}
	}
	if c.Logging.Format != "" && c.Logging.Format != "text" && c.Logging.Format != "json" {
		return domain.NewConfigError("logging.format",
			fmt.Sprintf("invalid format '%s', must be one of: text, json", c.Logging.Format), nil)
	}

	if c.Performance.MaxGoroutines < 0 {
		return domain.NewConfigError("performance.max_goroutines",
			fmt.Sprintf("must be >= 0, got %d", c.Performance.MaxGoroutines), nil)
	}
	if c.Performance.TimeoutSeconds < 0 {
		return domain.NewConfigError("performance.timeout_seconds",
			fmt.Sprintf("must be >= 0, got %d", c.Performance.TimeoutSeconds), nil)
	}

	return nil
}

func validatePatterns(field string, patterns []string) error {
	for _, pattern := range patterns {
		if _, err := doublestar.Match(pattern, ""); err != nil {
			return domain.NewConfigError(field, fmt.Sprintf("invalid glob '%s'", pattern), err)
		}
	}
	return nil
}

// MaxFileSizeBytes returns the file size limit in bytes (0 = no limit)
func (c *AnalysisConfig) MaxFileSizeBytes() int64 {
	return int64(c.MaxFileSizeKB) * 1024
}

// SaveConfig saves configuration to a YAML file
func SaveConfig(config *Config, path string) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", path, err)
	}
	return nil
}
