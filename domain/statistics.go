package domain

// GraphStatistics holds whole-graph counters
type GraphStatistics struct {
	// ModuleCount is the number of stored modules
	ModuleCount int `json:"module_count"`

	// EntryPointCount is the number of entry-point modules
	EntryPointCount int `json:"entry_point_count"`

	// ExternalDependencyCount is the number of distinct external specifiers
	ExternalDependencyCount int `json:"external_dependency_count"`

	// SideEffectModuleCount is the number of modules with side effects
	SideEffectModuleCount int `json:"side_effect_module_count"`

	// UnusedExportCount is the number of unused exports
	UnusedExportCount int `json:"unused_export_count"`

	// UnreachableModuleCount is the number of unreachable modules
	UnreachableModuleCount int `json:"unreachable_module_count"`
}
