package sandbox

import (
	"math"
	"strconv"
	"strings"

	"github.com/dop251/goja"
	"go.trai.ch/sift/internal/core/domain"
)

// maxDepth bounds the conversion of nested objects, which may be cyclic.
const maxDepth = 32

const (
	classMarker      = "__siftClass"
	unresolvedMarker = "__siftUnresolved"

	// tokenPrefix starts the text an unresolved placeholder turns into when
	// JavaScript coerces it to a primitive.
	tokenPrefix = "__sift_unresolved_"
	tokenSuffix = "__"
)

// placeholder returns an object standing in for an unresolved value. Any
// string derived from it carries a token that maps back to reason.
func (h *Host) placeholder(reason string) *goja.Object {
	h.seq++
	token := tokenPrefix + strconv.Itoa(h.seq) + tokenSuffix
	h.placeholders[token] = reason

	obj := h.rt.NewObject()
	_ = obj.Set(unresolvedMarker, reason)
	toPrimitive := func(goja.FunctionCall) goja.Value { return h.rt.ToValue(token) }
	_ = obj.SetSymbol(goja.SymToPrimitive, toPrimitive)
	_ = obj.Set("toString", toPrimitive)
	_ = obj.Set("valueOf", toPrimitive)
	return obj
}

// unresolvedIn reports the reason of the first placeholder token in s.
func (h *Host) unresolvedIn(s string) (string, bool) {
	i := strings.Index(s, tokenPrefix)
	if i < 0 {
		return "", false
	}
	rest := s[i+len(tokenPrefix):]
	end := strings.Index(rest, tokenSuffix)
	if end < 0 {
		return "", false
	}
	token := s[i : i+len(tokenPrefix)+end+len(tokenSuffix)]
	if reason, ok := h.placeholders[token]; ok {
		return reason, true
	}
	return "derived from an unresolved value", true
}

// toValue converts a JavaScript value into the pipeline's value model.
func (h *Host) toValue(v goja.Value, depth int) domain.Value {
	if v == nil || goja.IsUndefined(v) {
		return domain.UndefinedValue()
	}
	if goja.IsNull(v) {
		return domain.NullValue()
	}
	obj, ok := v.(*goja.Object)
	if !ok {
		return h.primitive(v)
	}
	if _, ok := goja.AssertFunction(obj); ok {
		return domain.FunctionValue(obj.Get("name").String())
	}
	if depth >= maxDepth {
		return domain.UnresolvedValue("value nested too deeply")
	}
	if c := obj.Get(classMarker); c != nil && !goja.IsUndefined(c) {
		name := ""
		if n := obj.Get("name"); n != nil && !goja.IsUndefined(n) {
			name = n.String()
		}
		return domain.StyledValue(c.String(), name)
	}
	if r := obj.Get(unresolvedMarker); r != nil && !goja.IsUndefined(r) {
		return domain.UnresolvedValue(r.String())
	}

	switch obj.ClassName() {
	case "Array":
		n := int(obj.Get("length").ToInteger())
		items := make([]domain.Value, n)
		for i := range items {
			items[i] = h.toValue(obj.Get(strconv.Itoa(i)), depth+1)
		}
		return domain.ArrayValue(items)
	case "Date", "RegExp", "String", "Number", "Boolean":
		return h.primitive(h.rt.ToValue(obj.String()))
	}

	keys := obj.Keys()
	fields := make(map[string]domain.Value, len(keys))
	for _, k := range keys {
		fields[k] = h.toValue(obj.Get(k), depth+1)
	}
	return domain.ObjectValue(keys, fields)
}

func (h *Host) primitive(v goja.Value) domain.Value {
	switch x := v.Export().(type) {
	case string:
		if reason, ok := h.unresolvedIn(x); ok {
			return domain.UnresolvedValue(reason)
		}
		return domain.StringValue(x)
	case bool:
		return domain.BoolValue(x)
	case int64:
		return domain.NumberValue(float64(x))
	case float64:
		if math.IsNaN(x) {
			return domain.UnresolvedValue("not a number")
		}
		return domain.NumberValue(x)
	default:
		return domain.UnresolvedValue("unsupported primitive " + v.String())
	}
}

// toJS converts a pipeline value into a JavaScript value of the host runtime.
func (h *Host) toJS(v domain.Value) goja.Value {
	switch v.Kind {
	case domain.ValuePrimitive:
		switch v.Type {
		case domain.TypeString:
			return h.rt.ToValue(v.Str)
		case domain.TypeNumber:
			return h.rt.ToValue(v.Num)
		case domain.TypeBoolean:
			return h.rt.ToValue(v.Bool)
		case domain.TypeNull:
			return goja.Null()
		default:
			return goja.Undefined()
		}
	case domain.ValueObject:
		if v.IsArray {
			items := make([]any, len(v.Items))
			for i, item := range v.Items {
				items[i] = h.toJS(item)
			}
			return h.rt.NewArray(items...)
		}
		obj := h.rt.NewObject()
		for _, k := range v.Keys {
			_ = obj.Set(k, h.toJS(v.Fields[k]))
		}
		return obj
	case domain.ValueStyled:
		obj := h.rt.NewObject()
		selector := "." + v.ClassName
		_ = obj.Set(classMarker, v.ClassName)
		_ = obj.Set("name", v.Name)
		_ = obj.Set("toString", func() string { return selector })
		return obj
	case domain.ValueFunction:
		name := v.Name
		return h.rt.ToValue(func(goja.FunctionCall) goja.Value {
			panic(h.rt.NewTypeError("function %s is not available at build time", name))
		})
	default:
		return h.placeholder(v.Reason)
	}
}
