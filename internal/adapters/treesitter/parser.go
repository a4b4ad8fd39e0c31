// Package treesitter implements ports.Parser on tree-sitter grammars.
package treesitter

import (
	"context"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
	"go.trai.ch/sift/internal/core/ast"
	"go.trai.ch/sift/internal/core/domain"
	"go.trai.ch/sift/internal/core/ports"
)

// Parser parses JavaScript and TypeScript modules.
type Parser struct{}

// New creates a new Parser.
func New() *Parser {
	return &Parser{}
}

var _ ports.Parser = (*Parser)(nil)

// Language returns the grammar used for filename.
func Language(filename string) *sitter.Language {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".ts", ".mts", ".cts":
		return typescript.GetLanguage()
	case ".tsx":
		return tsx.GetLanguage()
	default:
		return javascript.GetLanguage()
	}
}

// Parse implements ports.Parser.
func (p *Parser) Parse(ctx context.Context, filename, source string) (*ast.Module, error) {
	src := []byte(source)

	parser := sitter.NewParser()
	parser.SetLanguage(Language(filename))

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, domain.Fail(domain.Because(domain.ErrParse, err), "file", filename)
	}

	root := tree.RootNode()
	if root.HasError() {
		line, col := firstError(root)
		return nil, domain.Fail(domain.ErrParse, "file", filename, "line", line, "col", col)
	}

	c := &converter{src: src, tagged: make(map[uint32]*ast.TaggedTemplate)}
	mod := &ast.Module{
		Filename: filename,
		Source:   source,
	}
	for i := 0; i < int(root.NamedChildCount()); i++ {
		if stmt := c.stmt(root.NamedChild(i)); stmt != nil {
			mod.Body = append(mod.Body, stmt)
		}
	}
	c.collect(root, nil, mod, false)
	return mod, nil
}

// firstError returns the 1-based position of the first syntax error below n.
func firstError(n *sitter.Node) (line, col int) {
	if n.Type() == "ERROR" || n.IsMissing() {
		p := n.StartPoint()
		return int(p.Row) + 1, int(p.Column) + 1
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		if child != nil && (child.HasError() || child.IsMissing()) {
			return firstError(child)
		}
	}
	p := n.StartPoint()
	return int(p.Row) + 1, int(p.Column) + 1
}

// collect records every tagged template in source order and the outermost
// JSX expressions.
func (c *converter) collect(n, parent *sitter.Node, mod *ast.Module, inJSX bool) {
	if isJSX(n.Type()) && !inJSX {
		mod.JSX = append(mod.JSX, c.span(n))
		inJSX = true
	}
	if n.Type() == "call_expression" && isTemplateCall(n) {
		tt := c.taggedTemplate(n)
		if parent != nil && parent.Type() == "variable_declarator" {
			if name := parent.ChildByFieldName("name"); name != nil && name.Type() == "identifier" {
				if value := parent.ChildByFieldName("value"); value != nil && value.StartByte() == n.StartByte() {
					tt.Binding = name.Content(c.src)
				}
			}
		}
		mod.Tagged = append(mod.Tagged, tt)
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c.collect(n.NamedChild(i), n, mod, inJSX)
	}
}

func isTemplateCall(n *sitter.Node) bool {
	args := n.ChildByFieldName("arguments")
	return args != nil && args.Type() == "template_string"
}

func isJSX(kind string) bool {
	switch kind {
	case "jsx_element", "jsx_self_closing_element", "jsx_fragment":
		return true
	}
	return false
}
