package domain

// UnusedExport is an export no module imports, directly or through re-exports
type UnusedExport struct {
	// ModuleID is the module declaring the export
	ModuleID ModuleID `json:"module_id"`

	// Export is the unused export
	Export Export `json:"export"`
}

// SideEffectImport is an import statement that binds nothing
type SideEffectImport struct {
	Importer   ModuleID   `json:"importer"`
	Source     string     `json:"source"`
	ResolvedTo *ModuleID  `json:"resolved_to,omitempty"`
	Span       SourceSpan `json:"span"`
}

// NamespaceImportInfo is an import * as ns statement
type NamespaceImportInfo struct {
	Importer      ModuleID  `json:"importer"`
	NamespaceName string    `json:"namespace_name"`
	Source        string    `json:"source"`
	ResolvedTo    *ModuleID `json:"resolved_to,omitempty"`
}

// TypeOnlyImport is an import type statement
type TypeOnlyImport struct {
	Importer   ModuleID          `json:"importer"`
	Source     string            `json:"source"`
	Specifiers []ImportSpecifier `json:"specifiers"`
	Span       SourceSpan        `json:"span"`
}

// FrameworkExport is an export a framework rule marked as used
type FrameworkExport struct {
	ModuleID ModuleID `json:"module_id"`
	Export   Export   `json:"export"`
}

// ExportUsage is an export with its computed usage count
type ExportUsage struct {
	ModuleID ModuleID `json:"module_id"`
	Name     string   `json:"name"`
	Count    int      `json:"count"`
}
