package domain

import (
	"path/filepath"
	"strings"
)

// SourceType is the language of a module's source
type SourceType string

const (
	SourceTypeJavaScript SourceType = "javascript"
	SourceTypeTypeScript SourceType = "typescript"
	SourceTypeJSX        SourceType = "jsx"
	SourceTypeTSX        SourceType = "tsx"
	SourceTypeJSON       SourceType = "json"
	SourceTypeCSS        SourceType = "css"
	SourceTypeUnknown    SourceType = "unknown"
)

// SourceTypeFromPath infers the source type from a file extension
func SourceTypeFromPath(path string) SourceType {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".js", ".mjs", ".cjs":
		return SourceTypeJavaScript
	case ".ts", ".mts", ".cts":
		return SourceTypeTypeScript
	case ".jsx":
		return SourceTypeJSX
	case ".tsx":
		return SourceTypeTSX
	case ".json":
		return SourceTypeJSON
	case ".css":
		return SourceTypeCSS
	default:
		return SourceTypeUnknown
	}
}

// IsTypeScript reports whether the source needs the TypeScript grammar
func (s SourceType) IsTypeScript() bool {
	return s == SourceTypeTypeScript || s == SourceTypeTSX
}

// IsScript reports whether the source is JavaScript or a dialect of it
func (s SourceType) IsScript() bool {
	switch s {
	case SourceTypeJavaScript, SourceTypeTypeScript, SourceTypeJSX, SourceTypeTSX:
		return true
	}
	return false
}

// ModuleFormat is the module system a file is written in
type ModuleFormat string

const (
	ModuleFormatESM     ModuleFormat = "esm"
	ModuleFormatCJS     ModuleFormat = "cjs"
	ModuleFormatUnknown ModuleFormat = "unknown"
)

// ExportsKind is how a module exposes its exports at runtime
type ExportsKind string

const (
	ExportsKindESM      ExportsKind = "esm"
	ExportsKindCommonJS ExportsKind = "commonjs"
	ExportsKindNone     ExportsKind = "none"
)

// Module is one analyzed source file
type Module struct {
	// ID is the canonical module identifier
	ID ModuleID `json:"id"`

	// Path is the filesystem path the module was read from
	Path string `json:"path"`

	// SourceType is the language of the module
	SourceType SourceType `json:"source_type"`

	// Imports are the module's import statements
	Imports []Import `json:"imports"`

	// Exports are the module's exported bindings
	Exports []Export `json:"exports"`

	// HasSideEffects indicates the module runs meaningful code on load
	HasSideEffects bool `json:"has_side_effects"`

	// IsEntry indicates the module is a build input
	IsEntry bool `json:"is_entry"`

	// IsExternal indicates the module lives outside the project
	IsExternal bool `json:"is_external"`

	// OriginalSize is the source size in bytes
	OriginalSize int `json:"original_size"`

	// BundledSize is the emitted size in bytes, when known
	BundledSize *int `json:"bundled_size,omitempty"`

	// ModuleFormat is the module system of the source
	ModuleFormat ModuleFormat `json:"module_format"`

	// ExportsKind is how exports are exposed at runtime
	ExportsKind ExportsKind `json:"exports_kind"`

	// HasStarExports indicates the module contains export * from
	HasStarExports bool `json:"has_star_exports"`

	// ExecutionOrder is the bundler's execution order hint
	ExecutionOrder *uint32 `json:"execution_order,omitempty"`

	// SymbolTable is the semantic analyzer's output for the module
	SymbolTable SymbolTable `json:"symbol_table"`
}

// NewModule creates a module with defaults derived from the path
func NewModule(id ModuleID, path string) *Module {
	return &Module{
		ID:           id,
		Path:         path,
		SourceType:   SourceTypeFromPath(path),
		ModuleFormat: ModuleFormatUnknown,
		ExportsKind:  ExportsKindNone,
	}
}

// ExportByName returns the first export called name
func (m *Module) ExportByName(name string) (*Export, bool) {
	for i := range m.Exports {
		if m.Exports[i].Name == name {
			return &m.Exports[i], true
		}
	}
	return nil, false
}

// DefaultExport returns the module's default export
func (m *Module) DefaultExport() (*Export, bool) {
	for i := range m.Exports {
		if m.Exports[i].IsDefault() {
			return &m.Exports[i], true
		}
	}
	return nil, false
}

// MarkExportUsed forces the named export to count as used; returns false if absent
func (m *Module) MarkExportUsed(name string) bool {
	e, ok := m.ExportByName(name)
	if !ok {
		return false
	}
	e.MarkUsed()
	return true
}

// HasImportFrom reports whether any import statement uses the given specifier
func (m *Module) HasImportFrom(source string) bool {
	for _, imp := range m.Imports {
		if imp.Source == source {
			return true
		}
	}
	return false
}

// ImportsOf returns the import statements resolved to target
func (m *Module) ImportsOf(target ModuleID) []Import {
	var out []Import
	for _, imp := range m.Imports {
		if imp.IsResolvedTo(target) {
			out = append(out, imp)
		}
	}
	return out
}

// ExternalImports returns the imports with bare package specifiers
func (m *Module) ExternalImports() []Import {
	var out []Import
	for _, imp := range m.Imports {
		if imp.IsExternal() {
			out = append(out, imp)
		}
	}
	return out
}

// HasCommonJSExports reports whether any export came from CommonJS assignments
func (m *Module) HasCommonJSExports() bool {
	for _, e := range m.Exports {
		if e.CameFromCommonJS {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so that stored records are never aliased by callers
func (m *Module) Clone() *Module {
	if m == nil {
		return nil
	}
	out := *m

	if m.Imports != nil {
		out.Imports = make([]Import, len(m.Imports))
		for i, imp := range m.Imports {
			if imp.Specifiers != nil {
				imp.Specifiers = append([]ImportSpecifier(nil), imp.Specifiers...)
			}
			if imp.ResolvedTo != nil {
				id := *imp.ResolvedTo
				imp.ResolvedTo = &id
			}
			out.Imports[i] = imp
		}
	}

	if m.Exports != nil {
		out.Exports = make([]Export, len(m.Exports))
		for i, e := range m.Exports {
			if e.UsageCount != nil {
				n := *e.UsageCount
				e.UsageCount = &n
			}
			out.Exports[i] = e
		}
	}

	if m.BundledSize != nil {
		n := *m.BundledSize
		out.BundledSize = &n
	}
	if m.ExecutionOrder != nil {
		n := *m.ExecutionOrder
		out.ExecutionOrder = &n
	}
	out.SymbolTable = m.SymbolTable.Clone()

	return &out
}
