package walker

import (
	"strings"

	"github.com/ludo-technologies/jsgraph/domain"
	"github.com/ludo-technologies/jsgraph/internal/parser"
	sitter "github.com/smacker/go-tree-sitter"
)

// symbolCollector builds a module-level symbol table.
// References are matched by name, so shadowing in nested scopes counts as a use.
type symbolCollector struct {
	tree    *parser.Tree
	table   domain.SymbolTable
	scopeID uint32

	// start offsets of declaration names, excluded from reference counting
	declarations map[uint32]struct{}
	exported     map[string]struct{}

	reads        map[string]int
	writes       map[string]int
	memberReads  map[string]int
	memberWrites map[string]int
	enumNames    map[string]struct{}
}

func collectSymbols(tree *parser.Tree) domain.SymbolTable {
	c := &symbolCollector{
		tree:         tree,
		declarations: make(map[uint32]struct{}),
		exported:     make(map[string]struct{}),
		reads:        make(map[string]int),
		writes:       make(map[string]int),
		memberReads:  make(map[string]int),
		memberWrites: make(map[string]int),
		enumNames:    make(map[string]struct{}),
	}

	root := tree.Root()
	for _, stmt := range parser.Children(root) {
		c.topLevel(stmt)
	}
	c.countReferences(root)
	c.resolveCounts()
	return c.table
}

func (c *symbolCollector) text(n *sitter.Node) string {
	return strings.ToValidUTF8(c.tree.Text(n), "\uFFFD")
}

func (c *symbolCollector) topLevel(stmt *sitter.Node) {
	switch stmt.Type() {
	case "import_statement":
		c.importBindings(stmt)
	case "export_statement":
		if parser.ChildByField(stmt, "source") != nil {
			return
		}
		if decl := parser.ChildByField(stmt, "declaration"); decl != nil {
			c.declaration(decl, true)
			return
		}
		if value := parser.ChildByField(stmt, "value"); value != nil && value.Type() == "identifier" {
			c.exported[c.text(value)] = struct{}{}
			return
		}
		for _, clause := range parser.ChildrenOfType(stmt, "export_clause") {
			for _, spec := range parser.ChildrenOfType(clause, "export_specifier") {
				if name := parser.ChildByField(spec, "name"); name != nil {
					c.exported[c.text(name)] = struct{}{}
					c.declarations[name.StartByte()] = struct{}{}
				}
			}
		}
		// export default function f() {} / export default class C {}
		for _, child := range parser.Children(stmt) {
			switch child.Type() {
			case "function_declaration", "generator_function_declaration", "class_declaration",
				"function", "class":
				if parser.ChildByField(child, "name") != nil {
					c.declaration(child, true)
				}
			}
		}
	default:
		c.declaration(stmt, false)
	}
}

func (c *symbolCollector) importBindings(stmt *sitter.Node) {
	for _, clause := range parser.ChildrenOfType(stmt, "import_clause") {
		for _, child := range parser.Children(clause) {
			switch child.Type() {
			case "identifier":
				c.add(child, domain.SymbolImport, false, 0)
			case "namespace_import":
				if ids := parser.ChildrenOfType(child, "identifier"); len(ids) > 0 {
					c.add(ids[len(ids)-1], domain.SymbolImport, false, 0)
				}
			case "named_imports":
				for _, spec := range parser.ChildrenOfType(child, "import_specifier") {
					local := parser.ChildByField(spec, "alias")
					if local == nil {
						local = parser.ChildByField(spec, "name")
					}
					if local != nil {
						c.add(local, domain.SymbolImport, false, 0)
					}
				}
			}
		}
	}
}

func (c *symbolCollector) declaration(decl *sitter.Node, exported bool) {
	switch decl.Type() {
	case "function_declaration", "generator_function_declaration", "function":
		if name := parser.ChildByField(decl, "name"); name != nil {
			s := c.add(name, domain.SymbolFunction, exported, 0)
			s.Metadata.CodeQuality = functionQuality(decl)
		}
	case "class_declaration", "abstract_class_declaration", "class":
		c.class(decl, exported)
	case "lexical_declaration", "variable_declaration":
		for _, declarator := range parser.ChildrenOfType(decl, "variable_declarator") {
			writes := 0
			if parser.ChildByField(declarator, "value") != nil {
				writes = 1
			}
			for _, id := range patternIdentifiers(parser.ChildByField(declarator, "name")) {
				c.add(id, domain.SymbolVariable, exported, writes)
			}
		}
	case "interface_declaration":
		if name := parser.ChildByField(decl, "name"); name != nil {
			c.add(name, domain.SymbolInterface, exported, 0)
		}
	case "type_alias_declaration":
		if name := parser.ChildByField(decl, "name"); name != nil {
			c.add(name, domain.SymbolTypeAlias, exported, 0)
		}
	case "enum_declaration":
		c.enum(decl, exported)
	case "ambient_declaration":
		for _, child := range parser.Children(decl) {
			if child.IsNamed() {
				c.declaration(child, exported)
			}
		}
	}
}

// add records a symbol declared at name and returns it for further decoration
func (c *symbolCollector) add(name *sitter.Node, kind domain.SymbolKind, exported bool, writes int) *domain.Symbol {
	c.declarations[name.StartByte()] = struct{}{}
	c.table.Add(domain.Symbol{
		Name:            c.text(name),
		Kind:            kind,
		DeclarationSpan: spanOf(name),
		WriteCount:      writes,
		IsExported:      exported,
		ScopeID:         c.scopeID,
	})
	return &c.table.Symbols[len(c.table.Symbols)-1]
}

func (c *symbolCollector) class(decl *sitter.Node, exported bool) {
	name := parser.ChildByField(decl, "name")
	if name == nil {
		return
	}
	className := c.text(name)
	classIndex := len(c.table.Symbols)
	c.add(name, domain.SymbolClass, exported, 0)

	c.scopeID++
	scope := c.scopeID

	methods, fields := 0, 0
	body := parser.ChildByField(decl, "body")
	for _, member := range parser.Children(body) {
		var (
			memberName *sitter.Node
			kind       domain.SymbolKind
			writes     int
		)
		switch member.Type() {
		case "method_definition", "method_signature", "abstract_method_signature":
			memberName = parser.ChildByField(member, "name")
			switch {
			case c.text(memberName) == "constructor":
				kind = domain.SymbolClassConstructor
			case parser.HasChildOfType(member, "get"):
				kind = domain.SymbolClassGetter
			case parser.HasChildOfType(member, "set"):
				kind = domain.SymbolClassSetter
			default:
				kind = domain.SymbolClassMethod
			}
			methods++
		case "field_definition", "public_field_definition":
			memberName = parser.ChildByField(member, "property")
			if memberName == nil {
				memberName = parser.ChildByField(member, "name")
			}
			kind = domain.SymbolClassProperty
			if parser.ChildByField(member, "value") != nil {
				writes = 1
			}
			fields++
		default:
			continue
		}
		if memberName == nil || memberName.Type() == "computed_property_name" {
			continue
		}

		meta := &domain.ClassMemberMetadata{
			Visibility: memberVisibility(member, memberName, c.tree.Source),
			IsStatic:   parser.HasChildOfType(member, "static"),
			ClassName:  className,
			IsAccessor: kind == domain.SymbolClassGetter || kind == domain.SymbolClassSetter,
			IsAbstract: parser.HasChildOfType(member, "abstract") || member.Type() == "abstract_method_signature",
			IsReadonly: parser.HasChildOfType(member, "readonly"),
		}
		c.table.Add(domain.Symbol{
			Name:            c.text(memberName),
			Kind:            kind,
			DeclarationSpan: spanOf(memberName),
			WriteCount:      writes,
			ScopeID:         scope,
			Metadata:        domain.SymbolMetadata{ClassMember: meta},
		})
		if kind == domain.SymbolClassMethod {
			last := &c.table.Symbols[len(c.table.Symbols)-1]
			last.Metadata.CodeQuality = functionQuality(member)
		}
	}

	lines := lineCount(decl)
	c.table.Symbols[classIndex].Metadata.CodeQuality = &domain.CodeQualityMetadata{
		LineCount:   &lines,
		MethodCount: &methods,
		FieldCount:  &fields,
	}
}

func memberVisibility(member, name *sitter.Node, source []byte) domain.Visibility {
	if name.Type() == "private_property_identifier" {
		return domain.VisibilityPrivate
	}
	for _, mod := range parser.ChildrenOfType(member, "accessibility_modifier") {
		switch mod.Content(source) {
		case "private":
			return domain.VisibilityPrivate
		case "protected":
			return domain.VisibilityProtected
		}
	}
	return domain.VisibilityPublic
}

func (c *symbolCollector) enum(decl *sitter.Node, exported bool) {
	name := parser.ChildByField(decl, "name")
	if name == nil {
		return
	}
	enumName := c.text(name)
	c.enumNames[enumName] = struct{}{}
	c.add(name, domain.SymbolEnum, exported, 0)

	c.scopeID++
	scope := c.scopeID

	for _, member := range parser.Children(parser.ChildByField(decl, "body")) {
		var memberName, value *sitter.Node
		switch member.Type() {
		case "property_identifier", "string":
			memberName = member
		case "enum_assignment":
			memberName = parser.ChildByField(member, "name")
			value = parser.ChildByField(member, "value")
		default:
			continue
		}
		if memberName == nil {
			continue
		}

		meta := &domain.EnumMemberMetadata{EnumName: enumName}
		if value != nil && isLiteral(value) {
			meta.Value = c.text(value)
		}
		memberText := c.text(memberName)
		if memberName.Type() == "string" {
			memberText = parser.StringValue(memberName, c.tree.Source)
		}
		c.table.Add(domain.Symbol{
			Name:            memberText,
			Kind:            domain.SymbolEnumMember,
			DeclarationSpan: spanOf(memberName),
			WriteCount:      1,
			ScopeID:         scope,
			Metadata:        domain.SymbolMetadata{EnumMember: meta},
		})
	}
}

func isLiteral(n *sitter.Node) bool {
	switch n.Type() {
	case "number", "string", "true", "false", "null":
		return true
	case "unary_expression":
		arg := parser.ChildByField(n, "argument")
		return arg != nil && arg.Type() == "number"
	}
	return parser.IsStringLiteral(n)
}

// countReferences tallies identifier and member reads and writes across the file
func (c *symbolCollector) countReferences(root *sitter.Node) {
	parser.Walk(root, func(n *sitter.Node) bool {
		switch n.Type() {
		case "import_statement":
			return false
		case "export_statement":
			return parser.ChildByField(n, "source") == nil
		case "identifier", "type_identifier", "shorthand_property_identifier":
			if _, ok := c.declarations[n.StartByte()]; ok {
				return true
			}
			name := c.text(n)
			if isWriteTarget(n) {
				c.writes[name]++
			} else {
				c.reads[name]++
			}
		case "member_expression":
			property := parser.ChildByField(n, "property")
			if property == nil {
				return true
			}
			key := c.text(property)
			if object := parser.ChildByField(n, "object"); object != nil && object.Type() == "identifier" {
				if _, isEnum := c.enumNames[c.text(object)]; isEnum {
					key = c.text(object) + "." + key
				}
			}
			if isWriteTarget(n) {
				c.memberWrites[key]++
			} else {
				c.memberReads[key]++
			}
		}
		return true
	})
}

// isWriteTarget reports whether n is the left side of an assignment
func isWriteTarget(n *sitter.Node) bool {
	parent := n.Parent()
	if parent == nil {
		return false
	}
	switch parent.Type() {
	case "assignment_expression", "augmented_assignment_expression":
		left := parser.ChildByField(parent, "left")
		return left != nil && left.StartByte() == n.StartByte() && left.EndByte() == n.EndByte()
	case "update_expression":
		return true
	}
	return false
}

func (c *symbolCollector) resolveCounts() {
	for i := range c.table.Symbols {
		s := &c.table.Symbols[i]
		switch {
		case s.Metadata.EnumMember != nil:
			key := s.Metadata.EnumMember.EnumName + "." + s.Name
			s.ReadCount += c.memberReads[key]
		case s.Metadata.ClassMember != nil:
			s.ReadCount += c.memberReads[s.Name]
			s.WriteCount += c.memberWrites[s.Name]
		default:
			s.ReadCount += c.reads[s.Name]
			s.WriteCount += c.writes[s.Name]
			if _, ok := c.exported[s.Name]; ok {
				s.IsExported = true
			}
		}
	}
}

func spanOf(n *sitter.Node) domain.SymbolSpan {
	p := n.StartPoint()
	return domain.SymbolSpan{
		Line:   p.Row + 1,
		Column: p.Column,
		Offset: n.StartByte(),
	}
}

func lineCount(n *sitter.Node) int {
	return int(n.EndPoint().Row-n.StartPoint().Row) + 1
}

func functionQuality(fn *sitter.Node) *domain.CodeQualityMetadata {
	lines := lineCount(fn)
	params := 0
	if p := parser.ChildByField(fn, "parameters"); p != nil {
		for _, child := range parser.Children(p) {
			if child.IsNamed() && !parser.IsTrivia(child) {
				params++
			}
		}
	}
	returns := 0
	parser.Walk(parser.ChildByField(fn, "body"), func(n *sitter.Node) bool {
		switch n.Type() {
		case "function_declaration", "function_expression", "function", "arrow_function", "class_body":
			return false
		case "return_statement":
			returns++
		}
		return true
	})
	return &domain.CodeQualityMetadata{
		LineCount:      &lines,
		ParameterCount: &params,
		ReturnCount:    &returns,
	}
}
