package walker

import (
	"strings"

	"github.com/ludo-technologies/jsgraph/domain"
	"github.com/ludo-technologies/jsgraph/internal/parser"
	sitter "github.com/smacker/go-tree-sitter"
)

// extraction is everything read from one source file before resolution
type extraction struct {
	Imports        []domain.Import
	Exports        []domain.Export
	HasSideEffects bool
	ModuleFormat   domain.ModuleFormat
	ExportsKind    domain.ExportsKind
	HasStarExports bool
	Symbols        domain.SymbolTable
}

type extractor struct {
	tree *parser.Tree
	path string

	imports []domain.Import
	exports []domain.Export

	hasESM         bool
	hasESMExports  bool
	hasCJS         bool
	hasCJSExports  bool
	hasSideEffects bool
	hasStarExports bool
}

// extract reads imports, exports and module traits from a parsed file
func extract(tree *parser.Tree, path string) *extraction {
	x := &extractor{tree: tree, path: path}
	root := tree.Root()

	for _, stmt := range parser.Children(root) {
		if parser.IsTrivia(stmt) {
			continue
		}
		x.statement(stmt)
	}

	// require() and import() may appear anywhere, not only at the top level
	parser.Walk(root, func(n *sitter.Node) bool {
		if n.Type() == "call_expression" {
			x.call(n)
		}
		return true
	})

	out := &extraction{
		Imports:        x.imports,
		Exports:        x.exports,
		HasSideEffects: x.hasSideEffects,
		HasStarExports: x.hasStarExports,
		ModuleFormat:   domain.ModuleFormatUnknown,
		ExportsKind:    domain.ExportsKindNone,
		Symbols:        collectSymbols(tree),
	}
	switch {
	case x.hasESM:
		out.ModuleFormat = domain.ModuleFormatESM
	case x.hasCJS:
		out.ModuleFormat = domain.ModuleFormatCJS
	}
	switch {
	case x.hasESMExports:
		out.ExportsKind = domain.ExportsKindESM
	case x.hasCJSExports:
		out.ExportsKind = domain.ExportsKindCommonJS
	}
	return out
}

func (x *extractor) span(n *sitter.Node) domain.SourceSpan {
	return domain.NewSourceSpan(x.path, n.StartByte(), n.EndByte())
}

// text returns the source of n with invalid UTF-8 replaced, so extracted
// names and specifiers survive storage unchanged
func (x *extractor) text(n *sitter.Node) string {
	return strings.ToValidUTF8(x.tree.Text(n), "\uFFFD")
}

func (x *extractor) statement(stmt *sitter.Node) {
	switch stmt.Type() {
	case "import_statement":
		x.hasESM = true
		x.importStatement(stmt)
	case "export_statement":
		x.hasESM = true
		x.exportStatement(stmt)
	case "expression_statement":
		x.expressionStatement(stmt)
	case "if_statement", "for_statement", "for_in_statement", "while_statement", "do_statement",
		"try_statement", "throw_statement", "switch_statement", "labeled_statement", "with_statement",
		"statement_block":
		x.hasSideEffects = true
	}
}

func (x *extractor) importStatement(stmt *sitter.Node) {
	source := parser.ChildByField(stmt, "source")
	if source == nil {
		// import x = require('y') and other TypeScript forms
		return
	}

	kind := domain.ImportKindStatic
	if parser.HasChildOfType(stmt, "type") {
		kind = domain.ImportKindTypeOnly
	}

	var specs []domain.ImportSpecifier
	for _, clause := range parser.ChildrenOfType(stmt, "import_clause") {
		specs = append(specs, x.importClause(clause)...)
	}

	x.imports = append(x.imports, domain.NewImport(
		parser.StringValue(source, x.tree.Source), specs, kind, x.span(stmt)))
}

func (x *extractor) importClause(clause *sitter.Node) []domain.ImportSpecifier {
	var specs []domain.ImportSpecifier
	for _, child := range parser.Children(clause) {
		switch child.Type() {
		case "identifier":
			specs = append(specs, domain.DefaultSpecifier())
		case "namespace_import":
			alias := ""
			if ids := parser.ChildrenOfType(child, "identifier"); len(ids) > 0 {
				alias = x.text(ids[len(ids)-1])
			}
			specs = append(specs, domain.NamespaceSpecifier(alias))
		case "named_imports":
			for _, spec := range parser.ChildrenOfType(child, "import_specifier") {
				name := x.moduleExportName(parser.ChildByField(spec, "name"))
				if name == "" {
					name = x.firstNamedText(spec)
				}
				if name == domain.DefaultExportName {
					specs = append(specs, domain.DefaultSpecifier())
					continue
				}
				specs = append(specs, domain.NamedSpecifier(name))
			}
		}
	}
	return specs
}

func (x *extractor) moduleExportName(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	if n.Type() == "string" {
		return parser.StringValue(n, x.tree.Source)
	}
	return x.text(n)
}

func (x *extractor) firstNamedText(n *sitter.Node) string {
	for _, child := range parser.Children(n) {
		if child.IsNamed() {
			return x.moduleExportName(child)
		}
	}
	return ""
}

func (x *extractor) exportStatement(stmt *sitter.Node) {
	span := x.span(stmt)
	typeOnly := parser.HasChildOfType(stmt, "type")
	source := parser.ChildByField(stmt, "source")

	if source != nil {
		x.reExport(stmt, parser.StringValue(source, x.tree.Source), typeOnly)
		return
	}

	x.hasESMExports = true

	if parser.HasChildOfType(stmt, "default") {
		x.exports = append(x.exports, domain.NewExport(domain.DefaultExportName, domain.ExportKindDefault, span))
		return
	}

	// TypeScript export = value behaves like module.exports
	if parser.HasChildOfType(stmt, "=") {
		e := domain.NewExport(domain.DefaultExportName, domain.ExportKindDefault, span)
		e.CameFromCommonJS = true
		x.exports = append(x.exports, e)
		return
	}

	if decl := parser.ChildByField(stmt, "declaration"); decl != nil {
		for _, d := range declaredNames(decl, x.tree.Source) {
			e := domain.NewExport(d.name, domain.ExportKindNamed, span)
			e.IsTypeOnly = d.typeOnly
			x.exports = append(x.exports, e)
		}
		return
	}

	for _, clause := range parser.ChildrenOfType(stmt, "export_clause") {
		for _, spec := range parser.ChildrenOfType(clause, "export_specifier") {
			_, exported := x.exportSpecifier(spec)
			kind := domain.ExportKindNamed
			if typeOnly {
				kind = domain.ExportKindTypeOnly
			} else if exported == domain.DefaultExportName {
				kind = domain.ExportKindDefault
			}
			x.exports = append(x.exports, domain.NewExport(exported, kind, span))
		}
	}
}

// exportSpecifier returns the local and exported names of { a as b }
func (x *extractor) exportSpecifier(spec *sitter.Node) (string, string) {
	local := x.moduleExportName(parser.ChildByField(spec, "name"))
	if local == "" {
		local = x.firstNamedText(spec)
	}
	exported := x.moduleExportName(parser.ChildByField(spec, "alias"))
	if exported == "" {
		exported = local
	}
	return local, exported
}

func (x *extractor) reExport(stmt *sitter.Node, source string, typeOnly bool) {
	span := x.span(stmt)
	kind := domain.ImportKindReExport
	if typeOnly {
		kind = domain.ImportKindTypeOnly
	}

	// export * as ns from 'x'
	if ns := x.namespaceExportName(stmt); ns != "" {
		x.exports = append(x.exports, domain.NewReExport(ns, source, span))
		x.imports = append(x.imports, domain.NewImport(source,
			[]domain.ImportSpecifier{domain.NamespaceSpecifier(ns)}, kind, span))
		return
	}

	// export * from 'x'
	if parser.HasChildOfType(stmt, "*") {
		x.hasStarExports = true
		x.exports = append(x.exports, domain.NewReExport("*", source, span))
		x.imports = append(x.imports, domain.NewImport(source,
			[]domain.ImportSpecifier{domain.NamespaceSpecifier("*")}, kind, span))
		return
	}

	var specs []domain.ImportSpecifier
	for _, clause := range parser.ChildrenOfType(stmt, "export_clause") {
		for _, spec := range parser.ChildrenOfType(clause, "export_specifier") {
			local, exported := x.exportSpecifier(spec)
			e := domain.NewReExport(exported, source, span)
			e.IsTypeOnly = typeOnly
			x.exports = append(x.exports, e)
			if local == domain.DefaultExportName {
				specs = append(specs, domain.DefaultSpecifier())
			} else {
				specs = append(specs, domain.NamedSpecifier(local))
			}
		}
	}
	x.imports = append(x.imports, domain.NewImport(source, specs, kind, span))
}

func (x *extractor) namespaceExportName(stmt *sitter.Node) string {
	for _, child := range parser.Children(stmt) {
		if child.Type() == "namespace_export" {
			return x.lastNamedText(child)
		}
	}
	// older grammars inline "* as name" into the statement
	children := parser.Children(stmt)
	for i, child := range children {
		if child.Type() == "as" && i+1 < len(children) {
			return x.moduleExportName(children[i+1])
		}
	}
	return ""
}

func (x *extractor) lastNamedText(n *sitter.Node) string {
	children := parser.Children(n)
	for i := len(children) - 1; i >= 0; i-- {
		if children[i].IsNamed() {
			return x.moduleExportName(children[i])
		}
	}
	return ""
}

func (x *extractor) expressionStatement(stmt *sitter.Node) {
	expr := firstNamedChild(stmt)
	if expr == nil {
		return
	}

	switch expr.Type() {
	case "string":
		// directive prologue such as "use strict"
		return
	case "assignment_expression":
		if x.commonJSExport(expr) {
			return
		}
	case "call_expression":
		if isRequireCall(expr, x.tree.Source) {
			return
		}
	}
	x.hasSideEffects = true
}

// commonJSExport records module.exports / exports.x assignments
func (x *extractor) commonJSExport(assign *sitter.Node) bool {
	left := parser.ChildByField(assign, "left")
	if left == nil || left.Type() != "member_expression" {
		return false
	}
	span := x.span(assign)
	target := x.text(left)

	if target == "module.exports" {
		x.hasCJS, x.hasCJSExports = true, true
		right := parser.ChildByField(assign, "right")
		if right != nil && right.Type() == "object" {
			for _, name := range objectKeys(right, x.tree.Source) {
				e := domain.NewExport(name, domain.ExportKindNamed, span)
				e.CameFromCommonJS = true
				x.exports = append(x.exports, e)
			}
			return true
		}
		e := domain.NewExport(domain.DefaultExportName, domain.ExportKindDefault, span)
		e.CameFromCommonJS = true
		x.exports = append(x.exports, e)
		return true
	}

	object := x.text(parser.ChildByField(left, "object"))
	if object != "exports" && object != "module.exports" {
		return false
	}
	property := parser.ChildByField(left, "property")
	if property == nil {
		return false
	}

	x.hasCJS, x.hasCJSExports = true, true
	name := x.text(property)
	kind := domain.ExportKindNamed
	if name == domain.DefaultExportName {
		kind = domain.ExportKindDefault
	}
	e := domain.NewExport(name, kind, span)
	e.CameFromCommonJS = true
	x.exports = append(x.exports, e)
	return true
}

func (x *extractor) call(call *sitter.Node) {
	fn := parser.ChildByField(call, "function")
	if fn == nil {
		return
	}

	switch {
	case fn.Type() == "import":
		source, ok := singleStringArgument(call, x.tree.Source)
		if !ok {
			return
		}
		x.hasESM = true
		x.imports = append(x.imports, domain.NewImport(source,
			[]domain.ImportSpecifier{domain.NamespaceSpecifier("")}, domain.ImportKindDynamic, x.span(call)))

	case isRequireCall(call, x.tree.Source):
		source, _ := singleStringArgument(call, x.tree.Source)
		x.hasCJS = true
		x.imports = append(x.imports, domain.NewImport(source,
			x.requireBindings(call), domain.ImportKindRequire, x.span(call)))
	}
}

// requireBindings derives specifiers from how the require() result is used
func (x *extractor) requireBindings(call *sitter.Node) []domain.ImportSpecifier {
	parent := call.Parent()
	if parent == nil {
		return nil
	}

	switch parent.Type() {
	case "expression_statement":
		return nil
	case "variable_declarator":
		name := parser.ChildByField(parent, "name")
		if name != nil && name.Type() == "object_pattern" {
			var specs []domain.ImportSpecifier
			for _, key := range objectPatternKeys(name, x.tree.Source) {
				specs = append(specs, domain.NamedSpecifier(key))
			}
			return specs
		}
		return []domain.ImportSpecifier{domain.NamespaceSpecifier(x.text(name))}
	case "member_expression":
		if property := parser.ChildByField(parent, "property"); property != nil {
			name := x.text(property)
			if name == domain.DefaultExportName {
				return []domain.ImportSpecifier{domain.DefaultSpecifier()}
			}
			return []domain.ImportSpecifier{domain.NamedSpecifier(name)}
		}
	}
	return []domain.ImportSpecifier{domain.NamespaceSpecifier("")}
}

func isRequireCall(call *sitter.Node, source []byte) bool {
	fn := parser.ChildByField(call, "function")
	if fn == nil || fn.Type() != "identifier" || fn.Content(source) != "require" {
		return false
	}
	_, ok := singleStringArgument(call, source)
	return ok
}

func singleStringArgument(call *sitter.Node, source []byte) (string, bool) {
	args := parser.ChildByField(call, "arguments")
	if args == nil || args.NamedChildCount() != 1 {
		return "", false
	}
	arg := args.NamedChild(0)
	if !parser.IsStringLiteral(arg) {
		return "", false
	}
	return parser.StringValue(arg, source), true
}

func firstNamedChild(n *sitter.Node) *sitter.Node {
	for _, child := range parser.Children(n) {
		if child.IsNamed() && !parser.IsTrivia(child) {
			return child
		}
	}
	return nil
}

// objectKeys returns the property names of an object literal
func objectKeys(obj *sitter.Node, source []byte) []string {
	var keys []string
	for _, child := range parser.Children(obj) {
		switch child.Type() {
		case "shorthand_property_identifier":
			keys = append(keys, child.Content(source))
		case "pair", "method_definition":
			key := parser.ChildByField(child, "key")
			if key == nil {
				key = parser.ChildByField(child, "name")
			}
			if key == nil || key.Type() == "computed_property_name" {
				continue
			}
			if key.Type() == "string" {
				keys = append(keys, parser.StringValue(key, source))
			} else {
				keys = append(keys, key.Content(source))
			}
		}
	}
	return keys
}

// objectPatternKeys returns the property names pulled out by { a, b: c } = ...
func objectPatternKeys(pattern *sitter.Node, source []byte) []string {
	var keys []string
	for _, child := range parser.Children(pattern) {
		switch child.Type() {
		case "shorthand_property_identifier_pattern":
			keys = append(keys, child.Content(source))
		case "object_assignment_pattern":
			if left := parser.ChildByField(child, "left"); left != nil {
				keys = append(keys, left.Content(source))
			}
		case "pair_pattern":
			key := parser.ChildByField(child, "key")
			if key == nil || key.Type() == "computed_property_name" {
				continue
			}
			if key.Type() == "string" {
				keys = append(keys, parser.StringValue(key, source))
			} else {
				keys = append(keys, key.Content(source))
			}
		}
	}
	return keys
}

type declaredName struct {
	name     string
	node     *sitter.Node
	typeOnly bool
}

// declaredNames returns the bindings introduced by a declaration
func declaredNames(decl *sitter.Node, source []byte) []declaredName {
	switch decl.Type() {
	case "lexical_declaration", "variable_declaration":
		var names []declaredName
		for _, declarator := range parser.ChildrenOfType(decl, "variable_declarator") {
			for _, id := range patternIdentifiers(parser.ChildByField(declarator, "name")) {
				names = append(names, declaredName{name: id.Content(source), node: id})
			}
		}
		return names
	case "interface_declaration", "type_alias_declaration":
		if name := parser.ChildByField(decl, "name"); name != nil {
			return []declaredName{{name: name.Content(source), node: name, typeOnly: true}}
		}
	case "ambient_declaration":
		var names []declaredName
		for _, child := range parser.Children(decl) {
			if child.IsNamed() {
				names = append(names, declaredNames(child, source)...)
			}
		}
		return names
	default:
		if name := parser.ChildByField(decl, "name"); name != nil {
			return []declaredName{{name: name.Content(source), node: name}}
		}
	}
	return nil
}

// patternIdentifiers returns the identifiers bound by a binding pattern
func patternIdentifiers(pattern *sitter.Node) []*sitter.Node {
	if pattern == nil {
		return nil
	}
	switch pattern.Type() {
	case "identifier", "shorthand_property_identifier_pattern":
		return []*sitter.Node{pattern}
	case "object_pattern", "array_pattern":
		var ids []*sitter.Node
		for _, child := range parser.Children(pattern) {
			ids = append(ids, patternIdentifiers(child)...)
		}
		return ids
	case "pair_pattern":
		return patternIdentifiers(parser.ChildByField(pattern, "value"))
	case "assignment_pattern", "object_assignment_pattern":
		return patternIdentifiers(parser.ChildByField(pattern, "left"))
	case "rest_pattern":
		for _, child := range parser.Children(pattern) {
			if child.IsNamed() {
				return patternIdentifiers(child)
			}
		}
	}
	return nil
}

// isRelativeSpecifier reports whether a specifier refers to a file path
func isRelativeSpecifier(spec string) bool {
	return strings.HasPrefix(spec, "./") || strings.HasPrefix(spec, "../") ||
		spec == "." || spec == ".." || strings.HasPrefix(spec, "/")
}
