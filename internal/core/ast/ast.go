// Package ast defines the closed syntax tree consumed by the extraction pipeline.
//
// Only the node categories the pipeline reasons about get their own variant:
// imports/exports, declarations, template and call expressions, identifiers
// and the literal forms the constant folder understands. Everything else is
// kept as an Opaque node carrying the free identifiers it references.
package ast

// Span locates a node in the source text. Offsets are bytes, Line and Col are 1-based.
type Span struct {
	Start int
	End   int
	Line  int
	Col   int
}

// Pos returns the span itself so every node embedding a Span satisfies Node.
func (s Span) Pos() Span {
	return s
}

// Contains reports whether o lies within s.
func (s Span) Contains(o Span) bool {
	return o.Start >= s.Start && o.End <= s.End
}

// Node is implemented by every statement and expression.
type Node interface {
	Pos() Span
}

// Module is a parsed source file.
type Module struct {
	Filename string
	Source   string
	Body     []Stmt
	// JSX holds the outermost JSX expressions anywhere in the file.
	JSX []Span
	// Tagged holds every tagged template in the file, in source order.
	Tagged []*TaggedTemplate
	// Preval holds expressions that must be evaluated in module scope. It is
	// filled for root modules only and exposed through the synthetic
	// PrevalExport binding.
	Preval []Expr
	// TagBindings are local names bound to style tags. References to them
	// never create dependency edges.
	TagBindings map[string]bool
}

// PrevalExport is the synthetic export holding the root module's interpolation values.
const PrevalExport = "__sift_preval"

// Text returns the source text covered by span.
func (m *Module) Text(s Span) string {
	return m.Source[s.Start:s.End]
}

// ImportOf reports the import that binds local, if any.
func (m *Module) ImportOf(local string) (source, imported string, ok bool) {
	for _, stmt := range m.Body {
		imp, isImport := stmt.(*ImportDecl)
		if !isImport || imp.TypeOnly {
			continue
		}
		if imp.Default == local {
			return imp.Source, "default", true
		}
		if imp.Namespace == local {
			return imp.Source, "*", true
		}
		for _, spec := range imp.Named {
			if spec.Local == local {
				return imp.Source, spec.Imported, true
			}
		}
	}
	return "", "", false
}

// Sources returns the distinct module specifiers referenced by imports and
// re-exports, in order of first appearance.
func (m *Module) Sources() []string {
	seen := make(map[string]bool)
	var out []string
	add := func(src string) {
		if src == "" || seen[src] {
			return
		}
		seen[src] = true
		out = append(out, src)
	}
	for _, stmt := range m.Body {
		switch s := stmt.(type) {
		case *ImportDecl:
			if !s.TypeOnly {
				add(s.Source)
			}
		case *ExportNamed:
			add(s.Source)
		case *ExportAll:
			add(s.Source)
		}
	}
	return out
}

// Stmt is a top-level statement.
type Stmt interface {
	Node
	isStmt()
}

// ImportSpec is one `{ imported as local }` binding of an import declaration.
type ImportSpec struct {
	Imported string
	Local    string
}

// ImportDecl is an import declaration.
type ImportDecl struct {
	Source    string
	Default   string
	Namespace string
	Named     []ImportSpec
	TypeOnly  bool
	Span
}

// Locals returns every local name the import binds.
func (d *ImportDecl) Locals() []string {
	var out []string
	if d.Default != "" {
		out = append(out, d.Default)
	}
	if d.Namespace != "" {
		out = append(out, d.Namespace)
	}
	for _, spec := range d.Named {
		out = append(out, spec.Local)
	}
	return out
}

// ExportSpec is one `{ local as exported }` binding of an export clause.
type ExportSpec struct {
	Local    string
	Exported string
}

// ExportNamed is `export { a as b }`, optionally re-exporting `from` Source.
type ExportNamed struct {
	Specs  []ExportSpec
	Source string
	Span
}

// ExportAll is `export * from "x"` or `export * as ns from "x"`.
type ExportAll struct {
	Source string
	As     string
	Span
}

// ExportDecl is `export const|let|var|function|class ...`.
type ExportDecl struct {
	Decl Stmt
	Span
}

// ExportDefault is `export default <expr>` or `export default function|class`.
type ExportDefault struct {
	Expr Expr
	Decl Stmt
	Span
}

// Declarator is one binding of a variable declaration.
type Declarator struct {
	Names []string
	// Pattern is set for destructuring declarators. PatternRefs holds the
	// free identifiers used by defaults and computed keys inside the pattern.
	Pattern     bool
	PatternRefs []string
	Init        Expr
	Span
}

// VarDecl is a const, let or var declaration.
type VarDecl struct {
	Kind  string
	Decls []*Declarator
	Span
}

// FuncDecl is a function declaration. Its body is opaque.
type FuncDecl struct {
	Name string
	Refs []string
	Span
}

// ClassDecl is a class declaration. Its body is opaque.
type ClassDecl struct {
	Name string
	Refs []string
	Span
}

// ExprStmt is an expression statement.
type ExprStmt struct {
	X Expr
	Span
}

// TypeOnly is a TypeScript construct without runtime semantics.
type TypeOnly struct {
	Span
}

// OtherStmt is any other statement (control flow, blocks, enums).
type OtherStmt struct {
	Kind     string
	Declares []string
	Refs     []string
	Span
}

func (*ImportDecl) isStmt()    {}
func (*ExportNamed) isStmt()   {}
func (*ExportAll) isStmt()     {}
func (*ExportDecl) isStmt()    {}
func (*ExportDefault) isStmt() {}
func (*VarDecl) isStmt()       {}
func (*FuncDecl) isStmt()      {}
func (*ClassDecl) isStmt()     {}
func (*ExprStmt) isStmt()      {}
func (*TypeOnly) isStmt()      {}
func (*OtherStmt) isStmt()     {}

// Expr is an expression.
type Expr interface {
	Node
	isExpr()
}

// Ident is an identifier reference.
type Ident struct {
	Name string
	Span
}

// String is a string literal with its decoded value.
type String struct {
	Value string
	Span
}

// Number is a numeric literal.
type Number struct {
	Value float64
	Span
}

// Bool is true or false.
type Bool struct {
	Value bool
	Span
}

// Null is the null literal.
type Null struct {
	Span
}

// Undefined is the undefined value.
type Undefined struct {
	Span
}

// Quasi is a literal chunk of a template.
type Quasi struct {
	Raw    string
	Cooked string
	Span
}

// Template is an untagged template literal. len(Quasis) == len(Exprs)+1.
type Template struct {
	Quasis []Quasi
	Exprs  []Expr
	Span
}

// StyleKind distinguishes the style tags the pipeline recognises.
type StyleKind uint8

const (
	// StyleCSS is a plain `css` template producing a class name.
	StyleCSS StyleKind = iota + 1
	// StyleStyled is a `styled.tag` or `styled(Component)` template.
	StyleStyled
)

// StyleTag annotates a tagged template recognised as a style template.
type StyleTag struct {
	Kind StyleKind
	// Element is the intrinsic element of styled.tag, or the component
	// source text of styled(Component).
	Element string
}

// TaggedTemplate is tag`...`.
type TaggedTemplate struct {
	Tag      Expr
	Template *Template
	// Binding is the variable the template initialises directly, if any.
	Binding string
	// Style is set once the template is recognised as a style template.
	Style *StyleTag
	Span
}

// Call is a call expression.
type Call struct {
	Callee Expr
	Args   []Expr
	// Pure is set for calls annotated /*#__PURE__*/.
	Pure bool
	Span
}

// New is a `new` expression.
type New struct {
	Callee Expr
	Args   []Expr
	Span
}

// Member is a property access. Index is set for computed access.
type Member struct {
	Object   Expr
	Property string
	Index    Expr
	Span
}

// Binary is a binary or logical expression.
type Binary struct {
	Op    string
	Left  Expr
	Right Expr
	Span
}

// Unary is a unary expression.
type Unary struct {
	Op  string
	Arg Expr
	Span
}

// Conditional is test ? then : else.
type Conditional struct {
	Test Expr
	Then Expr
	Else Expr
	Span
}

// Property is an object literal member. KeyExpr is set for computed keys.
type Property struct {
	Key     string
	KeyExpr Expr
	Value   Expr
	Spread  bool
	Span
}

// Object is an object literal.
type Object struct {
	Props []Property
	Span
}

// Array is an array literal.
type Array struct {
	Elems []Expr
	Span
}

// Spread is ...arg inside an array or call.
type Spread struct {
	Arg Expr
	Span
}

// Sequence is a comma expression.
type Sequence struct {
	Exprs []Expr
	Span
}

// Function is a function or arrow expression. The body is opaque.
type Function struct {
	Name  string
	Arrow bool
	Refs  []string
	Span
}

// Class is a class expression. The body is opaque.
type Class struct {
	Name string
	Refs []string
	Span
}

// JSX is a JSX element or fragment.
type JSX struct {
	Span
}

// Opaque is an expression form the pipeline does not model.
type Opaque struct {
	Kind string
	Refs []string
	Span
}

func (*Ident) isExpr()          {}
func (*String) isExpr()         {}
func (*Number) isExpr()         {}
func (*Bool) isExpr()           {}
func (*Null) isExpr()           {}
func (*Undefined) isExpr()      {}
func (*Template) isExpr()       {}
func (*TaggedTemplate) isExpr() {}
func (*Call) isExpr()           {}
func (*New) isExpr()            {}
func (*Member) isExpr()         {}
func (*Binary) isExpr()         {}
func (*Unary) isExpr()          {}
func (*Conditional) isExpr()    {}
func (*Object) isExpr()         {}
func (*Array) isExpr()          {}
func (*Spread) isExpr()         {}
func (*Sequence) isExpr()       {}
func (*Function) isExpr()       {}
func (*Class) isExpr()          {}
func (*JSX) isExpr()            {}
func (*Opaque) isExpr()         {}
