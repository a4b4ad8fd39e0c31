package ast

// Visitor is called for every expression reached by Walk. Returning false
// skips the children of e.
type Visitor func(e Expr) bool

// Walk visits e and, depth first, every sub-expression the tree models.
func Walk(e Expr, visit Visitor) {
	if e == nil || !visit(e) {
		return
	}
	for _, child := range Children(e) {
		Walk(child, visit)
	}
}

// Children returns the direct sub-expressions of e.
func Children(e Expr) []Expr {
	switch x := e.(type) {
	case *Template:
		return x.Exprs
	case *TaggedTemplate:
		return []Expr{x.Tag, x.Template}
	case *Call:
		return append([]Expr{x.Callee}, x.Args...)
	case *New:
		return append([]Expr{x.Callee}, x.Args...)
	case *Member:
		if x.Index != nil {
			return []Expr{x.Object, x.Index}
		}
		return []Expr{x.Object}
	case *Binary:
		return []Expr{x.Left, x.Right}
	case *Unary:
		return []Expr{x.Arg}
	case *Conditional:
		return []Expr{x.Test, x.Then, x.Else}
	case *Object:
		out := make([]Expr, 0, len(x.Props)*2)
		for _, p := range x.Props {
			if p.KeyExpr != nil {
				out = append(out, p.KeyExpr)
			}
			out = append(out, p.Value)
		}
		return out
	case *Array:
		return x.Elems
	case *Spread:
		return []Expr{x.Arg}
	case *Sequence:
		return x.Exprs
	default:
		return nil
	}
}

// FreeRefs returns the identifiers e references, in order of first use.
func FreeRefs(e Expr) []string {
	refs := newNameSet()
	Walk(e, func(n Expr) bool {
		switch x := n.(type) {
		case *Ident:
			refs.add(x.Name)
		case *Function:
			refs.add(x.Refs...)
		case *Class:
			refs.add(x.Refs...)
		case *Opaque:
			refs.add(x.Refs...)
		case *JSX:
			return false
		}
		return true
	})
	return refs.list
}

// Refs returns the identifiers a statement references.
func Refs(s Stmt) []string {
	refs := newNameSet()
	switch x := s.(type) {
	case *VarDecl:
		for _, d := range x.Decls {
			refs.add(DeclaratorRefs(d)...)
		}
	case *FuncDecl:
		refs.add(x.Refs...)
	case *ClassDecl:
		refs.add(x.Refs...)
	case *ExprStmt:
		refs.add(FreeRefs(x.X)...)
	case *OtherStmt:
		refs.add(x.Refs...)
	case *ExportDecl:
		refs.add(Refs(x.Decl)...)
	case *ExportDefault:
		if x.Decl != nil {
			refs.add(Refs(x.Decl)...)
		} else {
			refs.add(FreeRefs(x.Expr)...)
		}
	case *ExportNamed:
		if x.Source == "" {
			for _, spec := range x.Specs {
				refs.add(spec.Local)
			}
		}
	}
	return refs.list
}

// DeclaratorRefs returns the identifiers a single declarator references.
func DeclaratorRefs(d *Declarator) []string {
	refs := newNameSet()
	refs.add(d.PatternRefs...)
	if d.Init != nil {
		refs.add(FreeRefs(d.Init)...)
	}
	return refs.list
}

// Declared returns the module-scope names a statement binds.
func Declared(s Stmt) []string {
	switch x := s.(type) {
	case *ImportDecl:
		if x.TypeOnly {
			return nil
		}
		return x.Locals()
	case *VarDecl:
		var out []string
		for _, d := range x.Decls {
			out = append(out, d.Names...)
		}
		return out
	case *FuncDecl:
		return nonEmpty(x.Name)
	case *ClassDecl:
		return nonEmpty(x.Name)
	case *ExportDecl:
		return Declared(x.Decl)
	case *ExportDefault:
		if x.Decl != nil {
			return Declared(x.Decl)
		}
	case *OtherStmt:
		return x.Declares
	}
	return nil
}

func nonEmpty(name string) []string {
	if name == "" {
		return nil
	}
	return []string{name}
}

// PureCallees decides whether a callee expression is known to be free of side effects.
type PureCallees func(callee Expr) bool

// IsPure reports whether evaluating e can be proven free of observable side effects.
func IsPure(e Expr, pure PureCallees) bool {
	switch x := e.(type) {
	case nil:
		return true
	case *Ident, *String, *Number, *Bool, *Null, *Undefined, *Function, *Class, *JSX:
		return true
	case *Template:
		return allPure(x.Exprs, pure)
	case *TaggedTemplate:
		return x.Style != nil && IsPure(x.Template, pure)
	case *Call:
		if !x.Pure && (pure == nil || !pure(x.Callee)) {
			return false
		}
		return allPure(x.Args, pure)
	case *Member:
		return IsPure(x.Object, pure) && IsPure(x.Index, pure)
	case *Binary:
		return IsPure(x.Left, pure) && IsPure(x.Right, pure)
	case *Unary:
		return x.Op != "delete" && IsPure(x.Arg, pure)
	case *Conditional:
		return IsPure(x.Test, pure) && IsPure(x.Then, pure) && IsPure(x.Else, pure)
	case *Object:
		for _, p := range x.Props {
			if !IsPure(p.KeyExpr, pure) || !IsPure(p.Value, pure) {
				return false
			}
		}
		return true
	case *Array:
		return allPure(x.Elems, pure)
	case *Spread:
		return IsPure(x.Arg, pure)
	case *Sequence:
		return allPure(x.Exprs, pure)
	default:
		return false
	}
}

func allPure(exprs []Expr, pure PureCallees) bool {
	for _, e := range exprs {
		if !IsPure(e, pure) {
			return false
		}
	}
	return true
}

// CalleeName renders simple callees (`a`, `a.b.c`) as dotted names.
func CalleeName(e Expr) (string, bool) {
	switch x := e.(type) {
	case *Ident:
		return x.Name, true
	case *Member:
		if x.Index != nil {
			return "", false
		}
		base, ok := CalleeName(x.Object)
		if !ok {
			return "", false
		}
		return base + "." + x.Property, true
	}
	return "", false
}

type nameSet struct {
	seen map[string]bool
	list []string
}

func newNameSet() *nameSet {
	return &nameSet{seen: make(map[string]bool)}
}

func (s *nameSet) add(names ...string) {
	for _, n := range names {
		if n == "" || s.seen[n] {
			continue
		}
		s.seen[n] = true
		s.list = append(s.list, n)
	}
}
