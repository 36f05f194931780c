package parser

import (
	"strconv"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// ChildByField returns the child stored under a grammar field name
func ChildByField(n *sitter.Node, field string) *sitter.Node {
	if n == nil {
		return nil
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		if child != nil && n.FieldNameForChild(i) == field {
			return child
		}
	}
	return nil
}

// Children returns all children of n, including anonymous tokens
func Children(n *sitter.Node) []*sitter.Node {
	if n == nil {
		return nil
	}
	out := make([]*sitter.Node, 0, n.ChildCount())
	for i := 0; i < int(n.ChildCount()); i++ {
		if child := n.Child(i); child != nil {
			out = append(out, child)
		}
	}
	return out
}

// ChildrenOfType returns the direct children with the given node type
func ChildrenOfType(n *sitter.Node, nodeType string) []*sitter.Node {
	var out []*sitter.Node
	for _, child := range Children(n) {
		if child.Type() == nodeType {
			out = append(out, child)
		}
	}
	return out
}

// HasChildOfType reports whether n has a direct child of the given type
func HasChildOfType(n *sitter.Node, nodeType string) bool {
	for _, child := range Children(n) {
		if child.Type() == nodeType {
			return true
		}
	}
	return false
}

// Walk visits n and its descendants depth-first.
// Returning false from visit skips the node's children.
func Walk(n *sitter.Node, visit func(*sitter.Node) bool) {
	if n == nil || !visit(n) {
		return
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		Walk(n.Child(i), visit)
	}
}

// IsTrivia checks if a node is trivia (comments)
func IsTrivia(n *sitter.Node) bool {
	switch n.Type() {
	case "comment", "line_comment", "block_comment", "":
		return true
	}
	return false
}

// StringValue returns the unquoted value of a string literal node
func StringValue(n *sitter.Node, source []byte) string {
	raw := n.Content(source)
	if len(raw) < 2 {
		return raw
	}
	if unquoted, err := strconv.Unquote(raw); err == nil {
		return unquoted
	}
	// single-quoted JS strings are not valid Go literals
	first, last := raw[0], raw[len(raw)-1]
	if (first == '\'' || first == '"' || first == '`') && first == last {
		return strings.ReplaceAll(raw[1:len(raw)-1], `\`+string(first), string(first))
	}
	return raw
}

// IsStringLiteral reports whether n is a plain string or a template without substitutions
func IsStringLiteral(n *sitter.Node) bool {
	if n == nil {
		return false
	}
	switch n.Type() {
	case "string":
		return true
	case "template_string":
		return !HasChildOfType(n, "template_substitution")
	}
	return false
}
