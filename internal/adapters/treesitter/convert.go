package treesitter

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"go.trai.ch/sift/internal/core/ast"
)

type converter struct {
	src []byte
	// tagged caches converted tagged templates by start byte so the module
	// list and the expression tree share nodes.
	tagged map[uint32]*ast.TaggedTemplate
}

func (c *converter) span(n *sitter.Node) ast.Span {
	p := n.StartPoint()
	return ast.Span{
		Start: int(n.StartByte()),
		End:   int(n.EndByte()),
		Line:  int(p.Row) + 1,
		Col:   int(p.Column) + 1,
	}
}

func (c *converter) text(n *sitter.Node) string {
	return n.Content(c.src)
}

// hasToken reports whether n has a direct anonymous child of the given type.
func hasToken(n *sitter.Node, token string) bool {
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		if child != nil && !child.IsNamed() && child.Type() == token {
			return true
		}
	}
	return false
}

// namedChildren returns the named children of n, skipping comments.
func namedChildren(n *sitter.Node) []*sitter.Node {
	out := make([]*sitter.Node, 0, n.NamedChildCount())
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		if child.Type() != "comment" {
			out = append(out, child)
		}
	}
	return out
}

func firstNamed(n *sitter.Node) *sitter.Node {
	children := namedChildren(n)
	if len(children) == 0 {
		return nil
	}
	return children[0]
}

func (c *converter) stmt(n *sitter.Node) ast.Stmt {
	sp := c.span(n)
	switch n.Type() {
	case "comment", "empty_statement", "hash_bang_line":
		return nil
	case "import_statement":
		return c.importDecl(n)
	case "export_statement":
		return c.exportStmt(n)
	case "lexical_declaration", "variable_declaration":
		return c.varDecl(n)
	case "function_declaration", "generator_function_declaration":
		return &ast.FuncDecl{Name: c.fieldText(n, "name"), Refs: c.freeRefs(n), Span: sp}
	case "class_declaration", "abstract_class_declaration":
		return &ast.ClassDecl{Name: c.fieldText(n, "name"), Refs: c.freeRefs(n), Span: sp}
	case "expression_statement":
		inner := firstNamed(n)
		if inner == nil {
			return nil
		}
		return &ast.ExprStmt{X: c.expr(inner), Span: sp}
	case "interface_declaration", "type_alias_declaration", "ambient_declaration", "function_signature":
		return &ast.TypeOnly{Span: sp}
	case "enum_declaration", "internal_module", "module":
		return &ast.OtherStmt{Kind: n.Type(), Declares: nonEmpty(c.fieldText(n, "name")), Refs: c.freeRefs(n), Span: sp}
	default:
		return &ast.OtherStmt{Kind: n.Type(), Refs: c.freeRefs(n), Span: sp}
	}
}

func nonEmpty(name string) []string {
	if name == "" {
		return nil
	}
	return []string{name}
}

func (c *converter) fieldText(n *sitter.Node, field string) string {
	f := n.ChildByFieldName(field)
	if f == nil {
		return ""
	}
	return c.text(f)
}

func (c *converter) importDecl(n *sitter.Node) *ast.ImportDecl {
	decl := &ast.ImportDecl{TypeOnly: hasToken(n, "type"), Span: c.span(n)}
	if src := n.ChildByFieldName("source"); src != nil {
		decl.Source = decodeString(c.text(src))
	}
	for _, child := range namedChildren(n) {
		if child.Type() != "import_clause" {
			continue
		}
		for _, part := range namedChildren(child) {
			switch part.Type() {
			case "identifier":
				decl.Default = c.text(part)
			case "namespace_import":
				if id := firstNamed(part); id != nil {
					decl.Namespace = c.text(id)
				}
			case "named_imports":
				for _, spec := range namedChildren(part) {
					if spec.Type() != "import_specifier" || hasToken(spec, "type") {
						continue
					}
					imported := c.moduleExportName(spec.ChildByFieldName("name"))
					local := imported
					if alias := spec.ChildByFieldName("alias"); alias != nil {
						local = c.text(alias)
					}
					decl.Named = append(decl.Named, ast.ImportSpec{Imported: imported, Local: local})
				}
			}
		}
	}
	return decl
}

func (c *converter) moduleExportName(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	if n.Type() == "string" {
		return decodeString(c.text(n))
	}
	return c.text(n)
}

func (c *converter) exportStmt(n *sitter.Node) ast.Stmt {
	sp := c.span(n)
	if hasToken(n, "type") {
		return &ast.TypeOnly{Span: sp}
	}
	decl := n.ChildByFieldName("declaration")
	source := ""
	if src := n.ChildByFieldName("source"); src != nil {
		source = decodeString(c.text(src))
	}

	if hasToken(n, "default") {
		if decl != nil {
			return &ast.ExportDefault{Decl: c.stmt(decl), Span: sp}
		}
		value := n.ChildByFieldName("value")
		if value == nil {
			return &ast.OtherStmt{Kind: n.Type(), Refs: c.freeRefs(n), Span: sp}
		}
		return &ast.ExportDefault{Expr: c.expr(value), Span: sp}
	}
	if decl != nil {
		inner := c.stmt(decl)
		if _, ok := inner.(*ast.TypeOnly); ok {
			return inner
		}
		return &ast.ExportDecl{Decl: inner, Span: sp}
	}

	for _, child := range namedChildren(n) {
		switch child.Type() {
		case "export_clause":
			named := &ast.ExportNamed{Source: source, Span: sp}
			for _, spec := range namedChildren(child) {
				if spec.Type() != "export_specifier" || hasToken(spec, "type") {
					continue
				}
				local := c.moduleExportName(spec.ChildByFieldName("name"))
				exported := local
				if alias := spec.ChildByFieldName("alias"); alias != nil {
					exported = c.moduleExportName(alias)
				}
				named.Specs = append(named.Specs, ast.ExportSpec{Local: local, Exported: exported})
			}
			return named
		case "namespace_export":
			name := ""
			if id := firstNamed(child); id != nil {
				name = c.moduleExportName(id)
			}
			return &ast.ExportAll{Source: source, As: name, Span: sp}
		}
	}
	if hasToken(n, "*") {
		return &ast.ExportAll{Source: source, Span: sp}
	}
	return &ast.OtherStmt{Kind: n.Type(), Refs: c.freeRefs(n), Span: sp}
}

func (c *converter) varDecl(n *sitter.Node) *ast.VarDecl {
	decl := &ast.VarDecl{Kind: "var", Span: c.span(n)}
	if first := n.Child(0); first != nil && !first.IsNamed() {
		decl.Kind = first.Type()
	}
	for _, child := range namedChildren(n) {
		if child.Type() != "variable_declarator" {
			continue
		}
		d := &ast.Declarator{Span: c.span(child)}
		name := child.ChildByFieldName("name")
		if name != nil {
			if name.Type() == "identifier" {
				d.Names = []string{c.text(name)}
			} else {
				d.Pattern = true
				b := newBindings()
				var refs []*sitter.Node
				c.bindPattern(name, b, &refs)
				d.Names = b.list
				d.PatternRefs = c.refsOf(refs)
			}
		}
		if value := child.ChildByFieldName("value"); value != nil {
			d.Init = c.expr(value)
		}
		decl.Decls = append(decl.Decls, d)
	}
	return decl
}

func (c *converter) expr(n *sitter.Node) ast.Expr {
	sp := c.span(n)
	switch n.Type() {
	case "identifier":
		if c.text(n) == "undefined" {
			return &ast.Undefined{Span: sp}
		}
		return &ast.Ident{Name: c.text(n), Span: sp}
	case "undefined":
		return &ast.Undefined{Span: sp}
	case "string":
		return &ast.String{Value: decodeString(c.text(n)), Span: sp}
	case "number":
		if v, ok := parseNumber(c.text(n)); ok {
			return &ast.Number{Value: v, Span: sp}
		}
		return &ast.Opaque{Kind: "bigint", Span: sp}
	case "true":
		return &ast.Bool{Value: true, Span: sp}
	case "false":
		return &ast.Bool{Value: false, Span: sp}
	case "null":
		return &ast.Null{Span: sp}
	case "template_string":
		return c.template(n)
	case "parenthesized_expression", "as_expression", "satisfies_expression", "non_null_expression":
		if inner := firstNamed(n); inner != nil {
			return c.expr(inner)
		}
	case "type_assertion":
		children := namedChildren(n)
		if len(children) > 0 {
			return c.expr(children[len(children)-1])
		}
	case "call_expression":
		if isTemplateCall(n) {
			return c.taggedTemplate(n)
		}
		return &ast.Call{
			Callee: c.expr(n.ChildByFieldName("function")),
			Args:   c.args(n.ChildByFieldName("arguments")),
			Pure:   c.pureAnnotated(n),
			Span:   sp,
		}
	case "new_expression":
		return &ast.New{
			Callee: c.expr(n.ChildByFieldName("constructor")),
			Args:   c.args(n.ChildByFieldName("arguments")),
			Span:   sp,
		}
	case "member_expression":
		return &ast.Member{
			Object:   c.expr(n.ChildByFieldName("object")),
			Property: c.fieldText(n, "property"),
			Span:     sp,
		}
	case "subscript_expression":
		return &ast.Member{
			Object: c.expr(n.ChildByFieldName("object")),
			Index:  c.expr(n.ChildByFieldName("index")),
			Span:   sp,
		}
	case "binary_expression":
		return &ast.Binary{
			Op:    n.ChildByFieldName("operator").Type(),
			Left:  c.expr(n.ChildByFieldName("left")),
			Right: c.expr(n.ChildByFieldName("right")),
			Span:  sp,
		}
	case "unary_expression":
		return &ast.Unary{
			Op:   n.ChildByFieldName("operator").Type(),
			Arg:  c.expr(n.ChildByFieldName("argument")),
			Span: sp,
		}
	case "ternary_expression":
		return &ast.Conditional{
			Test: c.expr(n.ChildByFieldName("condition")),
			Then: c.expr(n.ChildByFieldName("consequence")),
			Else: c.expr(n.ChildByFieldName("alternative")),
			Span: sp,
		}
	case "object":
		return c.object(n)
	case "array":
		arr := &ast.Array{Span: sp}
		for _, el := range namedChildren(n) {
			arr.Elems = append(arr.Elems, c.element(el))
		}
		return arr
	case "sequence_expression":
		seq := &ast.Sequence{Span: sp}
		c.flattenSequence(n, seq)
		return seq
	case "function", "function_expression", "generator_function", "arrow_function":
		return &ast.Function{
			Name:  c.fieldText(n, "name"),
			Arrow: n.Type() == "arrow_function",
			Refs:  c.freeRefs(n),
			Span:  sp,
		}
	case "class":
		return &ast.Class{Name: c.fieldText(n, "name"), Refs: c.freeRefs(n), Span: sp}
	case "jsx_element", "jsx_self_closing_element", "jsx_fragment":
		return &ast.JSX{Span: sp}
	}
	return &ast.Opaque{Kind: n.Type(), Refs: c.freeRefs(n), Span: sp}
}

func (c *converter) flattenSequence(n *sitter.Node, seq *ast.Sequence) {
	for _, child := range namedChildren(n) {
		if child.Type() == "sequence_expression" {
			c.flattenSequence(child, seq)
			continue
		}
		seq.Exprs = append(seq.Exprs, c.expr(child))
	}
}

func (c *converter) args(n *sitter.Node) []ast.Expr {
	if n == nil {
		return nil
	}
	var out []ast.Expr
	for _, arg := range namedChildren(n) {
		out = append(out, c.element(arg))
	}
	return out
}

func (c *converter) element(n *sitter.Node) ast.Expr {
	if n.Type() == "spread_element" {
		return &ast.Spread{Arg: c.expr(firstNamed(n)), Span: c.span(n)}
	}
	return c.expr(n)
}

func (c *converter) object(n *sitter.Node) *ast.Object {
	obj := &ast.Object{Span: c.span(n)}
	for _, member := range namedChildren(n) {
		sp := c.span(member)
		switch member.Type() {
		case "pair":
			prop := ast.Property{Value: c.expr(member.ChildByFieldName("value")), Span: sp}
			key := member.ChildByFieldName("key")
			switch key.Type() {
			case "computed_property_name":
				prop.KeyExpr = c.expr(firstNamed(key))
			case "string":
				prop.Key = decodeString(c.text(key))
			case "number":
				if v, ok := parseNumber(c.text(key)); ok {
					prop.Key = formatKey(v)
				} else {
					prop.Key = c.text(key)
				}
			default:
				prop.Key = c.text(key)
			}
			obj.Props = append(obj.Props, prop)
		case "shorthand_property_identifier":
			name := c.text(member)
			obj.Props = append(obj.Props, ast.Property{Key: name, Value: &ast.Ident{Name: name, Span: sp}, Span: sp})
		case "spread_element":
			obj.Props = append(obj.Props, ast.Property{Spread: true, Value: c.expr(firstNamed(member)), Span: sp})
		case "method_definition":
			obj.Props = append(obj.Props, ast.Property{
				Key:   c.fieldText(member, "name"),
				Value: &ast.Function{Name: c.fieldText(member, "name"), Refs: c.freeRefs(member), Span: sp},
				Span:  sp,
			})
		default:
			obj.Props = append(obj.Props, ast.Property{
				Key:   c.text(member),
				Value: &ast.Opaque{Kind: member.Type(), Refs: c.freeRefs(member), Span: sp},
				Span:  sp,
			})
		}
	}
	return obj
}

func (c *converter) template(n *sitter.Node) *ast.Template {
	tpl := &ast.Template{Span: c.span(n)}
	start := int(n.StartByte()) + 1
	line, col := c.position(n, start)
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		if child.Type() != "template_substitution" {
			continue
		}
		end := int(child.StartByte())
		tpl.Quasis = append(tpl.Quasis, c.quasi(start, end, line, col))
		if inner := firstNamed(child); inner != nil {
			tpl.Exprs = append(tpl.Exprs, c.expr(inner))
		} else {
			tpl.Exprs = append(tpl.Exprs, &ast.Undefined{Span: c.span(child)})
		}
		start = int(child.EndByte())
		p := child.EndPoint()
		line, col = int(p.Row)+1, int(p.Column)+1
	}
	end := int(n.EndByte()) - 1
	if end < start {
		end = start
	}
	tpl.Quasis = append(tpl.Quasis, c.quasi(start, end, line, col))
	return tpl
}

// position returns the 1-based line and column of byte offset off inside n.
func (c *converter) position(n *sitter.Node, off int) (line, col int) {
	p := n.StartPoint()
	line, col = int(p.Row)+1, int(p.Column)+1
	for i := int(n.StartByte()); i < off && i < len(c.src); i++ {
		if c.src[i] == '\n' {
			line++
			col = 1
			continue
		}
		col++
	}
	return line, col
}

func (c *converter) quasi(start, end, line, col int) ast.Quasi {
	raw := string(c.src[start:end])
	return ast.Quasi{
		Raw:    raw,
		Cooked: cookTemplate(raw),
		Span:   ast.Span{Start: start, End: end, Line: line, Col: col},
	}
}

func (c *converter) taggedTemplate(n *sitter.Node) *ast.TaggedTemplate {
	if tt, ok := c.tagged[n.StartByte()]; ok {
		return tt
	}
	tt := &ast.TaggedTemplate{
		Tag:      c.expr(n.ChildByFieldName("function")),
		Template: c.template(n.ChildByFieldName("arguments")),
		Span:     c.span(n),
	}
	c.tagged[n.StartByte()] = tt
	return tt
}

// pureAnnotated reports whether the call is preceded by a #__PURE__ comment.
func (c *converter) pureAnnotated(n *sitter.Node) bool {
	prev := n.PrevSibling()
	if prev == nil || prev.Type() != "comment" {
		return false
	}
	text := c.text(prev)
	return strings.Contains(text, "#__PURE__") || strings.Contains(text, "@__PURE__")
}
