package parser

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
)

// Parser wraps tree-sitter parser for JavaScript/TypeScript
type Parser struct {
	parser   *sitter.Parser
	language *sitter.Language
	isTS     bool
}

// NewParser creates a new JavaScript parser
func NewParser() *Parser {
	parser := sitter.NewParser()
	lang := javascript.GetLanguage()
	parser.SetLanguage(lang)

	return &Parser{
		parser:   parser,
		language: lang,
		isTS:     false,
	}
}

// NewTypeScriptParser creates a new TypeScript parser.
// The TSX grammar is used so that .ts and .tsx sources share one parser.
func NewTypeScriptParser() *Parser {
	parser := sitter.NewParser()
	lang := tsx.GetLanguage()
	parser.SetLanguage(lang)

	return &Parser{
		parser:   parser,
		language: lang,
		isTS:     true,
	}
}

// ForPath returns a parser matching the file extension
func ForPath(filename string) *Parser {
	if IsTypeScriptPath(filename) {
		return NewTypeScriptParser()
	}
	return NewParser()
}

// IsTypeScriptPath reports whether the file needs the TypeScript grammar
func IsTypeScriptPath(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".ts", ".tsx", ".mts", ".cts":
		return true
	}
	return false
}

// Tree is a parsed source file
type Tree struct {
	tree   *sitter.Tree
	Source []byte
	File   string
}

// Root returns the program node
func (t *Tree) Root() *sitter.Node {
	return t.tree.RootNode()
}

// Text returns the source text of a node
func (t *Tree) Text(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	return n.Content(t.Source)
}

// HasErrors reports whether tree-sitter had to recover from syntax errors
func (t *Tree) HasErrors() bool {
	return t.Root().HasError()
}

// Close releases the underlying tree
func (t *Tree) Close() {
	if t.tree != nil {
		t.tree.Close()
	}
}

// ParseFile parses a JavaScript/TypeScript file
func (p *Parser) ParseFile(ctx context.Context, filename string, source []byte) (*Tree, error) {
	tree, err := p.parser.ParseCtx(ctx, nil, source)
	if tree == nil {
		return nil, fmt.Errorf("failed to parse file %s: %v", filename, err)
	}
	if tree.RootNode() == nil {
		tree.Close()
		return nil, fmt.Errorf("no root node in parse tree for %s", filename)
	}
	return &Tree{tree: tree, Source: source, File: filename}, nil
}

// Parse parses JavaScript/TypeScript source code
func (p *Parser) Parse(ctx context.Context, source []byte) (*Tree, error) {
	return p.ParseFile(ctx, "<input>", source)
}

// IsTypeScript returns true if this parser is configured for TypeScript
func (p *Parser) IsTypeScript() bool {
	return p.isTS
}

// Close closes the parser and frees resources
func (p *Parser) Close() {
	if p.parser != nil {
		p.parser.Close()
	}
}
