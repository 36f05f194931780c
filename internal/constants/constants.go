package constants

// Tool name and related constants
const (
	// ToolName is the name of this tool
	ToolName = "jsgraph"

	// ConfigFileName is the default config file name
	ConfigFileName = "jsgraph.yaml"

	// EnvVarPrefix is the prefix for environment variables
	EnvVarPrefix = "JSGRAPH"

	// ConfigEnvVar points at a config file when none is found by discovery
	ConfigEnvVar = "JSGRAPH_CONFIG"

	// DefaultDatabasePath is where init places the persistent graph
	DefaultDatabasePath = ".jsgraph/graph.db"
)
