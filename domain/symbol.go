package domain

// SymbolKind classifies a declared symbol
type SymbolKind string

const (
	SymbolVariable         SymbolKind = "variable"
	SymbolFunction         SymbolKind = "function"
	SymbolClass            SymbolKind = "class"
	SymbolParameter        SymbolKind = "parameter"
	SymbolTypeAlias        SymbolKind = "type_alias"
	SymbolInterface        SymbolKind = "interface"
	SymbolEnum             SymbolKind = "enum"
	SymbolImport           SymbolKind = "import"
	SymbolClassProperty    SymbolKind = "class_property"
	SymbolClassMethod      SymbolKind = "class_method"
	SymbolClassGetter      SymbolKind = "class_getter"
	SymbolClassSetter      SymbolKind = "class_setter"
	SymbolClassConstructor SymbolKind = "class_constructor"
	SymbolEnumMember       SymbolKind = "enum_member"
)

// IsSafelyRemovable reports whether an unused symbol of this kind can be deleted
// without affecting runtime behaviour of other declarations
func (k SymbolKind) IsSafelyRemovable() bool {
	switch k {
	case SymbolVariable, SymbolFunction, SymbolClass, SymbolTypeAlias, SymbolInterface:
		return true
	}
	return false
}

// Visibility is a class member's accessibility
type Visibility string

const (
	VisibilityPublic    Visibility = "public"
	VisibilityPrivate   Visibility = "private"
	VisibilityProtected Visibility = "protected"
)

// SymbolSpan is the declaration position of a symbol
type SymbolSpan struct {
	Line   uint32 `json:"line"`
	Column uint32 `json:"column"`
	Offset uint32 `json:"offset"`
}

// ClassMemberMetadata describes a class member symbol
type ClassMemberMetadata struct {
	Visibility Visibility `json:"visibility"`
	IsStatic   bool       `json:"is_static"`
	ClassName  string     `json:"class_name"`
	IsAccessor bool       `json:"is_accessor"`
	IsAbstract bool       `json:"is_abstract"`
	IsReadonly bool       `json:"is_readonly"`
}

// EnumMemberMetadata describes a TypeScript enum member symbol
type EnumMemberMetadata struct {
	EnumName string `json:"enum_name"`

	// Value is the literal initializer as written, empty when implicit or computed
	Value string `json:"value,omitempty"`
}

// CodeQualityMetadata carries size metrics for functions and classes
type CodeQualityMetadata struct {
	LineCount       *int `json:"line_count,omitempty"`
	ParameterCount  *int `json:"parameter_count,omitempty"`
	Complexity      *int `json:"complexity,omitempty"`
	MaxNestingDepth *int `json:"max_nesting_depth,omitempty"`
	ReturnCount     *int `json:"return_count,omitempty"`
	MethodCount     *int `json:"method_count,omitempty"`
	FieldCount      *int `json:"field_count,omitempty"`
}

// SymbolMetadata holds at most one of the metadata variants
type SymbolMetadata struct {
	ClassMember *ClassMemberMetadata `json:"class_member,omitempty"`
	EnumMember  *EnumMemberMetadata  `json:"enum_member,omitempty"`
	CodeQuality *CodeQualityMetadata `json:"code_quality,omitempty"`
}

// Symbol is one declaration recorded by the semantic analyzer
type Symbol struct {
	Name            string         `json:"name"`
	Kind            SymbolKind     `json:"kind"`
	DeclarationSpan SymbolSpan     `json:"declaration_span"`
	ReadCount       int            `json:"read_count"`
	WriteCount      int            `json:"write_count"`
	IsExported      bool           `json:"is_exported"`
	ScopeID         uint32         `json:"scope_id"`
	Metadata        SymbolMetadata `json:"metadata,omitzero"`
}

// IsUnused reports whether the symbol is never read, written at most once
// (its initialization) and not exported
func (s *Symbol) IsUnused() bool {
	return !s.IsExported && s.ReadCount == 0 && s.WriteCount <= 1
}

// IsUnusedPrivateMember reports whether the symbol is an unused private class member
func (s *Symbol) IsUnusedPrivateMember() bool {
	return s.IsUnused() && s.Metadata.ClassMember != nil &&
		s.Metadata.ClassMember.Visibility == VisibilityPrivate
}

// IsUnusedEnumMember reports whether the symbol is an unused enum member
func (s *Symbol) IsUnusedEnumMember() bool {
	return s.Kind == SymbolEnumMember && s.IsUnused()
}

// ClassName returns the owning class for class members
func (s *Symbol) ClassName() (string, bool) {
	if s.Metadata.ClassMember == nil {
		return "", false
	}
	return s.Metadata.ClassMember.ClassName, true
}

// EnumName returns the owning enum for enum members
func (s *Symbol) EnumName() (string, bool) {
	if s.Metadata.EnumMember == nil {
		return "", false
	}
	return s.Metadata.EnumMember.EnumName, true
}

// SymbolTable is the per-module output of the semantic analyzer
type SymbolTable struct {
	Symbols []Symbol `json:"symbols"`
}

// Add appends a symbol
func (t *SymbolTable) Add(s Symbol) {
	t.Symbols = append(t.Symbols, s)
}

// Len returns the number of symbols
func (t *SymbolTable) Len() int {
	return len(t.Symbols)
}

// Lookup returns the first symbol with the given name
func (t *SymbolTable) Lookup(name string) (*Symbol, bool) {
	for i := range t.Symbols {
		if t.Symbols[i].Name == name {
			return &t.Symbols[i], true
		}
	}
	return nil, false
}

// UnusedSymbols returns the symbols that are never used
func (t *SymbolTable) UnusedSymbols() []Symbol {
	var unused []Symbol
	for _, s := range t.Symbols {
		if s.IsUnused() {
			unused = append(unused, s)
		}
	}
	return unused
}

// Clone returns a deep copy
func (t SymbolTable) Clone() SymbolTable {
	if t.Symbols == nil {
		return SymbolTable{}
	}
	out := make([]Symbol, len(t.Symbols))
	for i, s := range t.Symbols {
		out[i] = s.clone()
	}
	return SymbolTable{Symbols: out}
}

func (s Symbol) clone() Symbol {
	if s.Metadata.ClassMember != nil {
		m := *s.Metadata.ClassMember
		s.Metadata.ClassMember = &m
	}
	if s.Metadata.EnumMember != nil {
		m := *s.Metadata.EnumMember
		s.Metadata.EnumMember = &m
	}
	if s.Metadata.CodeQuality != nil {
		s.Metadata.CodeQuality = s.Metadata.CodeQuality.clone()
	}
	return s
}

func (m *CodeQualityMetadata) clone() *CodeQualityMetadata {
	return &CodeQualityMetadata{
		LineCount:       cloneInt(m.LineCount),
		ParameterCount:  cloneInt(m.ParameterCount),
		Complexity:      cloneInt(m.Complexity),
		MaxNestingDepth: cloneInt(m.MaxNestingDepth),
		ReturnCount:     cloneInt(m.ReturnCount),
		MethodCount:     cloneInt(m.MethodCount),
		FieldCount:      cloneInt(m.FieldCount),
	}
}

// UnusedSymbol pairs a symbol with the module that declares it
type UnusedSymbol struct {
	ModuleID ModuleID `json:"module_id"`
	Symbol   Symbol   `json:"symbol"`
}

// ClassMemberInfo describes a class member found in the graph
type ClassMemberInfo struct {
	ModuleID ModuleID            `json:"module_id"`
	Symbol   Symbol              `json:"symbol"`
	Metadata ClassMemberMetadata `json:"metadata"`
}

// EnumMemberInfo describes an enum member found in the graph
type EnumMemberInfo struct {
	ModuleID ModuleID           `json:"module_id"`
	Symbol   Symbol             `json:"symbol"`
	Metadata EnumMemberMetadata `json:"metadata"`
}

// SymbolKindCount is one bucket of SymbolStatistics.ByKind
type SymbolKindCount struct {
	Kind  SymbolKind `json:"kind"`
	Count int        `json:"count"`
}

// SymbolStatistics aggregates symbol tables across modules
type SymbolStatistics struct {
	TotalSymbols  int               `json:"total_symbols"`
	UnusedSymbols int               `json:"unused_symbols"`
	ByKind        []SymbolKindCount `json:"by_kind"`
}

// UnusedPercentage returns the share of unused symbols in percent
func (s SymbolStatistics) UnusedPercentage() float64 {
	if s.TotalSymbols == 0 {
		return 0
	}
	return float64(s.UnusedSymbols) / float64(s.TotalSymbols) * 100
}

func cloneInt(p *int) *int {
	if p == nil {
		return nil
	}
	n := *p
	return &n
}
