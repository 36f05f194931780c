package domain

// ExportKind represents how a name leaves a module
type ExportKind string

const (
	// ExportKindNamed represents export const x / export { x }
	ExportKindNamed ExportKind = "named"

	// ExportKindDefault represents export default
	ExportKindDefault ExportKind = "default"

	// ExportKindReExport represents export { x } from 'y'
	ExportKindReExport ExportKind = "re_export"

	// ExportKindStarReExport represents export * from 'y'
	ExportKindStarReExport ExportKind = "star_re_export"

	// ExportKindTypeOnly represents export type { T }
	ExportKindTypeOnly ExportKind = "type_only"
)

// DefaultExportName is the name under which default exports are matched
const DefaultExportName = "default"

// Export represents one exported binding of a module
type Export struct {
	// Name is the exported name ("default" for default exports, "*" for star re-exports)
	Name string `json:"name"`

	// Kind is the export form
	Kind ExportKind `json:"kind"`

	// IsUsed forces the export to count as used
	IsUsed bool `json:"is_used"`

	// IsTypeOnly indicates a TypeScript type-only export
	IsTypeOnly bool `json:"is_type_only"`

	// ReExportedFrom is the path of the module a re-export forwards from
	ReExportedFrom string `json:"re_exported_from,omitempty"`

	// IsFrameworkUsed indicates a framework consumes the export by convention
	IsFrameworkUsed bool `json:"is_framework_used"`

	// CameFromCommonJS indicates the export was derived from module.exports / exports.x
	CameFromCommonJS bool `json:"came_from_commonjs"`

	// Span is the export's location in source
	Span SourceSpan `json:"span"`

	// UsageCount is the number of import sites matching this export.
	// Nil until usage counts are computed.
	UsageCount *int `json:"usage_count,omitempty"`
}

// NewExport creates an export of the given kind
func NewExport(name string, kind ExportKind, span SourceSpan) Export {
	return Export{
		Name:       name,
		Kind:       kind,
		IsTypeOnly: kind == ExportKindTypeOnly,
		Span:       span,
	}
}

// NewReExport creates a re-export forwarding name from the module at source
func NewReExport(name, source string, span SourceSpan) Export {
	kind := ExportKindReExport
	if name == "*" {
		kind = ExportKindStarReExport
	}
	return Export{
		Name:           name,
		Kind:           kind,
		ReExportedFrom: source,
		Span:           span,
	}
}

// IsDefault reports whether this is the module's default export
func (e *Export) IsDefault() bool {
	return e.Kind == ExportKindDefault || e.Name == DefaultExportName
}

// IsReExport reports whether the export forwards another module's binding
func (e *Export) IsReExport() bool {
	return e.Kind == ExportKindReExport || e.Kind == ExportKindStarReExport
}

// IsStarReExport reports whether the export forwards every name of another module
func (e *Export) IsStarReExport() bool {
	return e.Kind == ExportKindStarReExport
}

// MarkUsed forces the export to count as used
func (e *Export) MarkUsed() {
	e.IsUsed = true
}

// MarkFrameworkUsed flags the export as consumed by framework convention
func (e *Export) MarkFrameworkUsed() {
	e.IsFrameworkUsed = true
}

// SetUsageCount records the computed usage count
func (e *Export) SetUsageCount(n int) {
	e.UsageCount = &n
}

// Count returns the usage count, or 0 when it has not been computed
func (e *Export) Count() int {
	if e.UsageCount == nil {
		return 0
	}
	return *e.UsageCount
}
