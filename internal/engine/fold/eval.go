package fold

import (
	"math"
	"strconv"
	"strings"
	"unicode/utf16"

	"go.trai.ch/sift/internal/core/ast"
	"go.trai.ch/sift/internal/core/domain"
	"go.trai.ch/sift/internal/engine/shaker"
)

var (
	nan = math.NaN()
	inf = math.Inf(1)
)

func unresolved(format string, n ast.Node) domain.Value {
	p := n.Pos()
	return domain.UnresolvedValue(format + " at " + strconv.Itoa(p.Line) + ":" + strconv.Itoa(p.Col))
}

func dynamic(v domain.Value) bool {
	return v.Kind == domain.ValueUnresolved || v.Kind == domain.ValueFunction
}

func formatIndex(i int) string {
	return strconv.Itoa(i)
}

// eval folds x. Errors come only from style functions; everything else that
// cannot be folded becomes an unresolved value.
func (e *evaluator) eval(x ast.Expr) (domain.Value, error) {
	switch n := x.(type) {
	case *ast.Ident:
		return e.ident(n.Name), nil
	case *ast.String:
		return domain.StringValue(n.Value), nil
	case *ast.Number:
		return domain.NumberValue(n.Value), nil
	case *ast.Bool:
		return domain.BoolValue(n.Value), nil
	case *ast.Null:
		return domain.NullValue(), nil
	case *ast.Undefined:
		return domain.UndefinedValue(), nil
	case *ast.Template:
		return e.template(n)
	case *ast.TaggedTemplate:
		return e.tagged(n)
	case *ast.Member:
		return e.member(n)
	case *ast.Binary:
		return e.binary(n)
	case *ast.Unary:
		return e.unary(n)
	case *ast.Conditional:
		test, err := e.eval(n.Test)
		if err != nil || dynamic(test) {
			return test, err
		}
		if test.Truthy() {
			return e.eval(n.Then)
		}
		return e.eval(n.Else)
	case *ast.Object:
		return e.object(n)
	case *ast.Array:
		return e.array(n)
	case *ast.Sequence:
		v := domain.UndefinedValue()
		for _, item := range n.Exprs {
			var err error
			if v, err = e.eval(item); err != nil {
				return v, err
			}
		}
		return v, nil
	case *ast.Function:
		return domain.FunctionValue(n.Name), nil
	case *ast.Class:
		return domain.FunctionValue(n.Name), nil
	case *ast.Call:
		name, _ := ast.CalleeName(n.Callee)
		return unresolved("call of "+name, n), nil
	case *ast.New:
		return unresolved("new expression", n), nil
	case *ast.Opaque:
		return unresolved(n.Kind, n), nil
	}
	return unresolved("expression", x), nil
}

func (e *evaluator) template(n *ast.Template) (domain.Value, error) {
	var b strings.Builder
	for i, q := range n.Quasis {
		b.WriteString(q.Cooked)
		if i >= len(n.Exprs) {
			continue
		}
		v, err := e.eval(n.Exprs[i])
		if err != nil || dynamic(v) {
			return v, err
		}
		b.WriteString(v.JSString())
	}
	return domain.StringValue(b.String()), nil
}

// tagged folds a template whose tag the shaker replaced by a style function call.
func (e *evaluator) tagged(n *ast.TaggedTemplate) (domain.Value, error) {
	call, ok := n.Tag.(*ast.Call)
	if !ok || len(call.Args) != 1 {
		return unresolved("tagged template", n), nil
	}
	fn, _ := ast.CalleeName(call.Callee)
	if fn != shaker.CSSTagFunc && fn != shaker.StyledTagFunc {
		return unresolved("tagged template", n), nil
	}
	if e.unit.Styles == nil {
		return unresolved("style template", n), nil
	}

	raw, err := e.eval(call.Args[0])
	if err != nil {
		return raw, err
	}
	meta := styleMeta(raw)

	quasis := make([]string, len(n.Template.Quasis))
	for i, q := range n.Template.Quasis {
		quasis[i] = q.Raw
	}
	values := make([]domain.Value, len(n.Template.Exprs))
	for i, x := range n.Template.Exprs {
		if values[i], err = e.eval(x); err != nil {
			return values[i], err
		}
	}
	return e.unit.Styles(meta, quasis, values)
}

func styleMeta(v domain.Value) domain.StyleMeta {
	str := func(name string) string {
		f, _ := v.Field(name)
		if f.Type == domain.TypeString {
			return f.Str
		}
		return ""
	}
	index, _ := v.Field("index")
	return domain.StyleMeta{
		Kind:     str("kind"),
		Name:     str("name"),
		Filename: str("filename"),
		Element:  str("element"),
		Index:    int(index.Num),
	}
}

func (e *evaluator) member(n *ast.Member) (domain.Value, error) {
	obj, err := e.eval(n.Object)
	if err != nil || dynamic(obj) {
		return obj, err
	}
	prop := n.Property
	if n.Index != nil {
		idx, err := e.eval(n.Index)
		if err != nil || dynamic(idx) {
			return idx, err
		}
		prop = idx.JSString()
	}

	switch {
	case obj.IsNullish():
		return unresolved("property "+prop+" of "+obj.JSString(), n), nil
	case obj.Kind == domain.ValuePrimitive && obj.Type == domain.TypeString:
		units := utf16.Encode([]rune(obj.Str))
		if prop == "length" {
			return domain.NumberValue(float64(len(units))), nil
		}
		if i, err := strconv.Atoi(prop); err == nil && i >= 0 && i < len(units) {
			return domain.StringValue(string(utf16.Decode(units[i : i+1]))), nil
		}
		return unresolved("string method "+prop, n), nil
	case obj.Kind == domain.ValueObject:
		v, _ := obj.Field(prop)
		return v, nil
	}
	return unresolved("property "+prop, n), nil
}

func (e *evaluator) binary(n *ast.Binary) (domain.Value, error) {
	left, err := e.eval(n.Left)
	if err != nil {
		return left, err
	}
	switch n.Op {
	case "&&", "||", "??":
		if dynamic(left) {
			return left, nil
		}
		if (n.Op == "&&" && !left.Truthy()) || (n.Op == "||" && left.Truthy()) || (n.Op == "??" && !left.IsNullish()) {
			return left, nil
		}
		return e.eval(n.Right)
	}

	right, err := e.eval(n.Right)
	if err != nil {
		return right, err
	}
	if dynamic(left) {
		return left, nil
	}
	if dynamic(right) {
		return right, nil
	}

	switch n.Op {
	case "+":
		if isString(left) || isString(right) || left.Kind == domain.ValueObject || right.Kind == domain.ValueObject {
			return domain.StringValue(left.JSString() + right.JSString()), nil
		}
		return domain.NumberValue(toNumber(left) + toNumber(right)), nil
	case "-":
		return domain.NumberValue(toNumber(left) - toNumber(right)), nil
	case "*":
		return domain.NumberValue(toNumber(left) * toNumber(right)), nil
	case "/":
		return domain.NumberValue(toNumber(left) / toNumber(right)), nil
	case "%":
		return domain.NumberValue(math.Mod(toNumber(left), toNumber(right))), nil
	case "**":
		return domain.NumberValue(math.Pow(toNumber(left), toNumber(right))), nil
	case "<", ">", "<=", ">=":
		return domain.BoolValue(compare(n.Op, left, right)), nil
	case "===", "!==":
		eq, ok := strictEqual(left, right)
		if !ok {
			return unresolved("object identity", n), nil
		}
		return domain.BoolValue(eq == (n.Op == "===")), nil
	case "==", "!=":
		eq, ok := looseEqual(left, right)
		if !ok {
			return unresolved("object identity", n), nil
		}
		return domain.BoolValue(eq == (n.Op == "==")), nil
	}
	return unresolved("operator "+n.Op, n), nil
}

func (e *evaluator) unary(n *ast.Unary) (domain.Value, error) {
	arg, err := e.eval(n.Arg)
	if err != nil {
		return arg, err
	}
	if arg.Kind == domain.ValueUnresolved {
		return arg, nil
	}
	if n.Op == "typeof" {
		return domain.StringValue(typeOf(arg)), nil
	}
	if dynamic(arg) {
		return arg, nil
	}
	switch n.Op {
	case "-":
		return domain.NumberValue(-toNumber(arg)), nil
	case "+":
		return domain.NumberValue(toNumber(arg)), nil
	case "!":
		return domain.BoolValue(!arg.Truthy()), nil
	case "~":
		return domain.NumberValue(float64(^int32(toNumber(arg)))), nil
	case "void":
		return domain.UndefinedValue(), nil
	}
	return unresolved("operator "+n.Op, n), nil
}

func (e *evaluator) object(n *ast.Object) (domain.Value, error) {
	var keys []string
	fields := make(map[string]domain.Value)
	set := func(k string, v domain.Value) {
		if _, ok := fields[k]; !ok {
			keys = append(keys, k)
		}
		fields[k] = v
	}

	for _, p := range n.Props {
		v, err := e.eval(p.Value)
		if err != nil {
			return v, err
		}
		if p.Spread {
			if dynamic(v) {
				return v, nil
			}
			if v.Kind == domain.ValueObject && !v.IsArray {
				for _, k := range v.Keys {
					set(k, v.Fields[k])
				}
			}
			continue
		}
		key := p.Key
		if p.KeyExpr != nil {
			k, err := e.eval(p.KeyExpr)
			if err != nil || dynamic(k) {
				return k, err
			}
			key = k.JSString()
		}
		set(key, v)
	}
	return domain.ObjectValue(keys, fields), nil
}

func (e *evaluator) array(n *ast.Array) (domain.Value, error) {
	items := make([]domain.Value, 0, len(n.Elems))
	for _, el := range n.Elems {
		if spread, ok := el.(*ast.Spread); ok {
			v, err := e.eval(spread.Arg)
			if err != nil {
				return v, err
			}
			if !v.IsArray {
				return unresolved("spread", spread), nil
			}
			items = append(items, v.Items...)
			continue
		}
		v, err := e.eval(el)
		if err != nil {
			return v, err
		}
		items = append(items, v)
	}
	return domain.ArrayValue(items), nil
}

func isString(v domain.Value) bool {
	return v.Kind == domain.ValuePrimitive && v.Type == domain.TypeString
}

func toNumber(v domain.Value) float64 {
	if v.Kind != domain.ValuePrimitive {
		return nan
	}
	switch v.Type {
	case domain.TypeNumber:
		return v.Num
	case domain.TypeBoolean:
		if v.Bool {
			return 1
		}
		return 0
	case domain.TypeNull:
		return 0
	case domain.TypeString:
		s := strings.TrimSpace(v.Str)
		if s == "" {
			return 0
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nan
		}
		return f
	}
	return nan
}

func compare(op string, l, r domain.Value) bool {
	if isString(l) && isString(r) {
		switch op {
		case "<":
			return l.Str < r.Str
		case ">":
			return l.Str > r.Str
		case "<=":
			return l.Str <= r.Str
		default:
			return l.Str >= r.Str
		}
	}
	a, b := toNumber(l), toNumber(r)
	switch op {
	case "<":
		return a < b
	case ">":
		return a > b
	case "<=":
		return a <= b
	default:
		return a >= b
	}
}

// strictEqual compares primitives. The second result is false when identity
// of objects would decide the answer.
func strictEqual(l, r domain.Value) (equal, ok bool) {
	if l.Kind != domain.ValuePrimitive || r.Kind != domain.ValuePrimitive {
		return false, l.Kind != r.Kind
	}
	if l.Type != r.Type {
		return false, true
	}
	switch l.Type {
	case domain.TypeString:
		return l.Str == r.Str, true
	case domain.TypeNumber:
		return l.Num == r.Num, true
	case domain.TypeBoolean:
		return l.Bool == r.Bool, true
	}
	return true, true
}

func looseEqual(l, r domain.Value) (equal, ok bool) {
	if l.IsNullish() || r.IsNullish() {
		return l.IsNullish() && r.IsNullish(), true
	}
	if l.Kind == domain.ValuePrimitive && r.Kind == domain.ValuePrimitive && l.Type != r.Type {
		return toNumber(l) == toNumber(r), true
	}
	return strictEqual(l, r)
}

func typeOf(v domain.Value) string {
	switch v.Kind {
	case domain.ValueFunction, domain.ValueStyled:
		return "function"
	case domain.ValueObject:
		return "object"
	case domain.ValuePrimitive:
		if v.Type == domain.TypeNull {
			return "object"
		}
		return string(v.Type)
	}
	return "undefined"
}
