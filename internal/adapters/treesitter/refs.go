package treesitter

import (
	sitter "github.com/smacker/go-tree-sitter"
)

// bindings is an ordered set of names.
type bindings struct {
	seen map[string]bool
	list []string
}

func newBindings() *bindings {
	return &bindings{seen: make(map[string]bool)}
}

func (b *bindings) add(name string) {
	if name == "" || b.seen[name] {
		return
	}
	b.seen[name] = true
	b.list = append(b.list, name)
}

// freeRefs returns the identifiers n references that are not bound inside n.
// Shadowing is approximated per subtree: a name bound anywhere inside n is
// treated as local everywhere inside n.
func (c *converter) freeRefs(n *sitter.Node) []string {
	local := newBindings()
	c.collectBindings(n, local)

	refs := newBindings()
	c.walkRefs(n, func(name string) {
		if !local.seen[name] {
			refs.add(name)
		}
	})
	return refs.list
}

// refsOf returns the free identifiers of several subtrees.
func (c *converter) refsOf(nodes []*sitter.Node) []string {
	refs := newBindings()
	for _, n := range nodes {
		for _, name := range c.freeRefs(n) {
			refs.add(name)
		}
	}
	return refs.list
}

func (c *converter) collectBindings(n *sitter.Node, out *bindings) {
	switch n.Type() {
	case "variable_declarator":
		if name := n.ChildByFieldName("name"); name != nil {
			c.bindPattern(name, out, nil)
		}
	case "function_declaration", "generator_function_declaration", "function", "function_expression",
		"generator_function", "class_declaration", "abstract_class_declaration", "class":
		if name := n.ChildByFieldName("name"); name != nil {
			out.add(c.text(name))
		}
	case "formal_parameters":
		for _, param := range namedChildren(n) {
			c.bindParam(param, out)
		}
	case "arrow_function":
		if param := n.ChildByFieldName("parameter"); param != nil {
			c.bindPattern(param, out, nil)
		}
	case "catch_clause":
		if param := n.ChildByFieldName("parameter"); param != nil {
			c.bindPattern(param, out, nil)
		}
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c.collectBindings(n.NamedChild(i), out)
	}
}

func (c *converter) bindParam(param *sitter.Node, out *bindings) {
	switch param.Type() {
	case "required_parameter", "optional_parameter":
		if pattern := param.ChildByFieldName("pattern"); pattern != nil {
			c.bindPattern(pattern, out, nil)
		}
	default:
		c.bindPattern(param, out, nil)
	}
}

// bindPattern adds the names a binding pattern declares. When refs is not
// nil, default values and computed keys found in the pattern are appended.
func (c *converter) bindPattern(n *sitter.Node, out *bindings, refs *[]*sitter.Node) {
	switch n.Type() {
	case "identifier", "shorthand_property_identifier_pattern":
		out.add(c.text(n))
	case "object_pattern", "array_pattern":
		for _, child := range namedChildren(n) {
			c.bindPattern(child, out, refs)
		}
	case "pair_pattern":
		if key := n.ChildByFieldName("key"); key != nil && key.Type() == "computed_property_name" && refs != nil {
			*refs = append(*refs, key)
		}
		if value := n.ChildByFieldName("value"); value != nil {
			c.bindPattern(value, out, refs)
		}
	case "assignment_pattern", "object_assignment_pattern":
		if left := n.ChildByFieldName("left"); left != nil {
			c.bindPattern(left, out, refs)
		}
		if right := n.ChildByFieldName("right"); right != nil && refs != nil {
			*refs = append(*refs, right)
		}
	case "rest_pattern":
		if inner := firstNamed(n); inner != nil {
			c.bindPattern(inner, out, refs)
		}
	}
}

// skipRefs lists subtrees that never contribute runtime references.
var skipRefs = map[string]bool{
	"comment":                  true,
	"type_annotation":          true,
	"type_arguments":           true,
	"type_parameters":          true,
	"type_identifier":          true,
	"predefined_type":          true,
	"interface_declaration":    true,
	"type_alias_declaration":   true,
	"jsx_element":              true,
	"jsx_self_closing_element": true,
	"jsx_fragment":             true,
	"statement_identifier":     true,
}

func (c *converter) walkRefs(n *sitter.Node, emit func(string)) {
	kind := n.Type()
	if skipRefs[kind] {
		return
	}
	switch kind {
	case "identifier", "shorthand_property_identifier":
		if name := c.text(n); name != "undefined" {
			emit(name)
		}
		return
	case "as_expression", "satisfies_expression":
		if inner := firstNamed(n); inner != nil {
			c.walkRefs(inner, emit)
		}
		return
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c.walkRefs(n.NamedChild(i), emit)
	}
}
