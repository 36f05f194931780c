package domain

import "strings"

// ImportKind represents the syntactic form of an import
type ImportKind string

const (
	// ImportKindStatic represents import x from 'y'
	ImportKindStatic ImportKind = "static"

	// ImportKindDynamic represents import('y')
	ImportKindDynamic ImportKind = "dynamic"

	// ImportKindRequire represents CommonJS require('y')
	ImportKindRequire ImportKind = "require"

	// ImportKindReExport represents the import half of export ... from 'y'
	ImportKindReExport ImportKind = "re_export"

	// ImportKindTypeOnly represents import type { T } from 'y'
	ImportKindTypeOnly ImportKind = "type_only"
)

// SpecifierKind distinguishes the three import specifier forms
type SpecifierKind string

const (
	// SpecifierNamed represents { x } or { x as y }
	SpecifierNamed SpecifierKind = "named"

	// SpecifierDefault represents import x from 'y'
	SpecifierDefault SpecifierKind = "default"

	// SpecifierNamespace represents import * as ns from 'y'
	SpecifierNamespace SpecifierKind = "namespace"
)

// ImportSpecifier is a single binding pulled in by an import statement
type ImportSpecifier struct {
	// Kind is the specifier form
	Kind SpecifierKind `json:"kind"`

	// Name is the imported name for named specifiers, or the local alias for namespaces
	Name string `json:"name,omitempty"`
}

// NamedSpecifier creates a named import specifier
func NamedSpecifier(name string) ImportSpecifier {
	return ImportSpecifier{Kind: SpecifierNamed, Name: name}
}

// DefaultSpecifier creates a default import specifier
func DefaultSpecifier() ImportSpecifier {
	return ImportSpecifier{Kind: SpecifierDefault}
}

// NamespaceSpecifier creates a namespace import specifier bound to alias
func NamespaceSpecifier(alias string) ImportSpecifier {
	return ImportSpecifier{Kind: SpecifierNamespace, Name: alias}
}

// Import is one import statement of a module
type Import struct {
	// Source is the module specifier as written
	Source string `json:"source"`

	// Specifiers are the imported bindings; empty for side-effect imports
	Specifiers []ImportSpecifier `json:"specifiers"`

	// Kind is the import form
	Kind ImportKind `json:"kind"`

	// ResolvedTo is the target module, nil when external or unresolved
	ResolvedTo *ModuleID `json:"resolved_to,omitempty"`

	// Span is the statement's location in source
	Span SourceSpan `json:"span"`
}

// NewImport creates an unresolved import
func NewImport(source string, specifiers []ImportSpecifier, kind ImportKind, span SourceSpan) Import {
	return Import{
		Source:     source,
		Specifiers: specifiers,
		Kind:       kind,
		Span:       span,
	}
}

// ResolveTo sets the import's target module
func (i *Import) ResolveTo(id ModuleID) {
	i.ResolvedTo = &id
}

// IsResolvedTo reports whether the import targets id
func (i *Import) IsResolvedTo(id ModuleID) bool {
	return i.ResolvedTo != nil && *i.ResolvedTo == id
}

// IsSideEffectOnly reports whether the import binds nothing (import 'x')
func (i *Import) IsSideEffectOnly() bool {
	return len(i.Specifiers) == 0
}

// IsDynamic reports whether the import is an import() expression
func (i *Import) IsDynamic() bool {
	return i.Kind == ImportKindDynamic
}

// IsTypeOnly reports whether the import is erased at runtime
func (i *Import) IsTypeOnly() bool {
	return i.Kind == ImportKindTypeOnly
}

// IsReExport reports whether the import belongs to an export ... from statement
func (i *Import) IsReExport() bool {
	return i.Kind == ImportKindReExport
}

// IsExternal reports whether the specifier names a package rather than a file
func (i *Import) IsExternal() bool {
	return IsBareSpecifier(i.Source)
}

// HasNamespace reports whether the import contains a namespace specifier
func (i *Import) HasNamespace() bool {
	for _, s := range i.Specifiers {
		if s.Kind == SpecifierNamespace {
			return true
		}
	}
	return false
}

// ImportsName reports whether the import names a given export.
// Namespace specifiers match every name unless the import is itself a re-export.
func (i *Import) ImportsName(name string) bool {
	for _, s := range i.Specifiers {
		if i.specifierMatches(s, name) {
			return true
		}
	}
	return false
}

// MatchCount returns how many times this statement uses the export called name.
// A namespace specifier counts once for the whole statement.
func (i *Import) MatchCount(name string) int {
	count := 0
	for _, s := range i.Specifiers {
		if !i.specifierMatches(s, name) {
			continue
		}
		count++
		if s.Kind == SpecifierNamespace {
			break
		}
	}
	return count
}

func (i *Import) specifierMatches(s ImportSpecifier, name string) bool {
	switch s.Kind {
	case SpecifierNamed:
		return s.Name == name
	case SpecifierDefault:
		return name == DefaultExportName
	case SpecifierNamespace:
		return i.Kind != ImportKindReExport
	}
	return false
}

// IsBareSpecifier reports whether a specifier refers to a package
func IsBareSpecifier(source string) bool {
	if source == "" {
		return false
	}
	if strings.HasPrefix(source, ".") || strings.HasPrefix(source, "/") || strings.HasPrefix(source, "\\") {
		return false
	}
	if isVirtualPath(source) {
		return false
	}
	// Windows drive paths such as C:\src
	if len(source) > 2 && source[1] == ':' && (source[2] == '\\' || source[2] == '/') {
		return false
	}
	return true
}
