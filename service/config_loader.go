package service

import (
	"github.com/ludo-technologies/jsgraph/internal/config"
)

// ConfigOverrides are command-line values that replace configuration file settings.
// Nil fields keep the file value.
type ConfigOverrides struct {
	Format   *string
	Backend  *string
	DBPath   *string
	LogLevel *string
	SortBy   *string

	ShowDetails *bool
	IncludeDev  *bool
	IncludePeer *bool
}

// ConfigurationLoaderImpl loads configuration and merges command-line overrides
type ConfigurationLoaderImpl struct{}

// NewConfigurationLoader creates a new configuration loader service
func NewConfigurationLoader() *ConfigurationLoaderImpl {
	return &ConfigurationLoaderImpl{}
}

// Load reads the configuration for target (configPath wins over discovery),
// applies overrides and validates the result
func (c *ConfigurationLoaderImpl) Load(configPath, target string, overrides ConfigOverrides) (*config.Config, error) {
	cfg, err := config.LoadConfigWithTarget(configPath, target)
	if err != nil {
		return nil, err
	}

	merged := c.MergeConfig(cfg, overrides)
	if err := merged.Validate(); err != nil {
		return nil, err
	}
	return merged, nil
}

// MergeConfig returns a copy of base with overrides applied.
// A database path selects the persistent backend unless a backend is given too.
func (c *ConfigurationLoaderImpl) MergeConfig(base *config.Config, overrides ConfigOverrides) *config.Config {
	merged := *base

	if overrides.Format != nil {
		merged.Output.Format = *overrides.Format
	}
	if overrides.ShowDetails != nil {
		merged.Output.ShowDetails = *overrides.ShowDetails
	}
	if overrides.SortBy != nil {
		merged.Output.SortBy = *overrides.SortBy
	}

	if overrides.DBPath != nil {
		merged.Storage.Path = *overrides.DBPath
		merged.Storage.Backend = "persistent"
	}
	if overrides.Backend != nil {
		merged.Storage.Backend = *overrides.Backend
	}

	if overrides.LogLevel != nil {
		merged.Logging.Level = *overrides.LogLevel
	}

	if overrides.IncludeDev != nil {
		merged.Dependencies.IncludeDev = merged.Dependencies.IncludeDev || *overrides.IncludeDev
	}
	if overrides.IncludePeer != nil {
		merged.Dependencies.IncludePeer = merged.Dependencies.IncludePeer || *overrides.IncludePeer
	}

	return &merged
}
