package domain

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
	"unicode"
)

// ValueKind tags the variants of Value.
type ValueKind string

const (
	// ValuePrimitive is a string, number, boolean, null or undefined.
	ValuePrimitive ValueKind = "primitive"
	// ValueObject is a plain object or array of values.
	ValueObject ValueKind = "object"
	// ValueFunction marks a function. Its behaviour is not captured.
	ValueFunction ValueKind = "function"
	// ValueStyled references a styled component by its class name.
	ValueStyled ValueKind = "styled"
	// ValueUnresolved is a side-effect-free value that needs the full runtime.
	ValueUnresolved ValueKind = "unresolved"
)

// PrimitiveType distinguishes primitive values.
type PrimitiveType string

const (
	TypeString    PrimitiveType = "string"
	TypeNumber    PrimitiveType = "number"
	TypeBoolean   PrimitiveType = "boolean"
	TypeNull      PrimitiveType = "null"
	TypeUndefined PrimitiveType = "undefined"
)

// Value is the compile-time result of evaluating an expression.
type Value struct {
	Kind ValueKind     `json:"kind"`
	Type PrimitiveType `json:"type,omitempty"`
	Str  string        `json:"str,omitempty"`
	Num  float64       `json:"num,omitempty"`
	Bool bool          `json:"bool,omitempty"`

	// Keys preserves the insertion order of Fields.
	Keys    []string         `json:"keys,omitempty"`
	Fields  map[string]Value `json:"fields,omitempty"`
	Items   []Value          `json:"items,omitempty"`
	IsArray bool             `json:"isArray,omitempty"`

	ClassName string `json:"className,omitempty"`
	Name      string `json:"name,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

// StringValue returns a string primitive.
func StringValue(s string) Value {
	return Value{Kind: ValuePrimitive, Type: TypeString, Str: s}
}

// NumberValue returns a number primitive.
func NumberValue(n float64) Value {
	return Value{Kind: ValuePrimitive, Type: TypeNumber, Num: n}
}

// BoolValue returns a boolean primitive.
func BoolValue(b bool) Value {
	return Value{Kind: ValuePrimitive, Type: TypeBoolean, Bool: b}
}

// NullValue returns null.
func NullValue() Value {
	return Value{Kind: ValuePrimitive, Type: TypeNull}
}

// UndefinedValue returns undefined.
func UndefinedValue() Value {
	return Value{Kind: ValuePrimitive, Type: TypeUndefined}
}

// ObjectValue returns a plain object. Keys gives the property order.
func ObjectValue(keys []string, fields map[string]Value) Value {
	if fields == nil {
		fields = map[string]Value{}
	}
	return Value{Kind: ValueObject, Keys: keys, Fields: fields}
}

// ArrayValue returns an array.
func ArrayValue(items []Value) Value {
	return Value{Kind: ValueObject, IsArray: true, Items: items}
}

// FunctionValue returns a function marker.
func FunctionValue(name string) Value {
	return Value{Kind: ValueFunction, Name: name}
}

// StyledValue references a styled component.
func StyledValue(className, name string) Value {
	return Value{Kind: ValueStyled, ClassName: className, Name: name}
}

// UnresolvedValue returns a placeholder for a value only the runtime can produce.
func UnresolvedValue(reason string) Value {
	return Value{Kind: ValueUnresolved, Reason: reason}
}

// IsUndefined reports whether v is undefined.
func (v Value) IsUndefined() bool {
	return v.Kind == ValuePrimitive && v.Type == TypeUndefined
}

// IsNullish reports whether v is null or undefined.
func (v Value) IsNullish() bool {
	return v.Kind == ValuePrimitive && (v.Type == TypeNull || v.Type == TypeUndefined)
}

// Static reports whether v and everything it contains is known at build time.
func (v Value) Static() bool {
	switch v.Kind {
	case ValueFunction, ValueUnresolved:
		return false
	case ValueObject:
		for _, item := range v.Items {
			if !item.Static() {
				return false
			}
		}
		for _, f := range v.Fields {
			if !f.Static() {
				return false
			}
		}
	}
	return true
}

// Truthy follows JavaScript's ToBoolean.
func (v Value) Truthy() bool {
	if v.Kind != ValuePrimitive {
		return true
	}
	switch v.Type {
	case TypeString:
		return v.Str != ""
	case TypeNumber:
		return v.Num != 0 && !math.IsNaN(v.Num)
	case TypeBoolean:
		return v.Bool
	default:
		return false
	}
}

// Field returns the named property of an object or the indexed item of an array.
func (v Value) Field(name string) (Value, bool) {
	if v.Kind != ValueObject {
		return Value{}, false
	}
	if v.IsArray {
		if name == "length" {
			return NumberValue(float64(len(v.Items))), true
		}
		i, err := strconv.Atoi(name)
		if err != nil || i < 0 || i >= len(v.Items) {
			return UndefinedValue(), true
		}
		return v.Items[i], true
	}
	f, ok := v.Fields[name]
	if !ok {
		return UndefinedValue(), true
	}
	return f, true
}

// JSString follows JavaScript's ToString for the values the pipeline models.
func (v Value) JSString() string {
	switch v.Kind {
	case ValuePrimitive:
		switch v.Type {
		case TypeString:
			return v.Str
		case TypeNumber:
			return FormatNumber(v.Num)
		case TypeBoolean:
			return strconv.FormatBool(v.Bool)
		case TypeNull:
			return "null"
		default:
			return "undefined"
		}
	case ValueObject:
		if !v.IsArray {
			return "[object Object]"
		}
		parts := make([]string, len(v.Items))
		for i, item := range v.Items {
			if !item.IsNullish() {
				parts[i] = item.JSString()
			}
		}
		return strings.Join(parts, ",")
	case ValueStyled:
		return "." + v.ClassName
	default:
		return ""
	}
}

// CSSText renders v as it appears inside a style template.
func (v Value) CSSText() (string, error) {
	switch v.Kind {
	case ValuePrimitive:
		switch v.Type {
		case TypeUndefined:
			return "", ErrUndefinedInterpolation
		case TypeNull:
			return "", nil
		case TypeBoolean:
			if !v.Bool {
				return "", nil
			}
		}
		return v.JSString(), nil
	case ValueStyled:
		return "." + v.ClassName, nil
	case ValueObject:
		if v.IsArray {
			parts := make([]string, 0, len(v.Items))
			for _, item := range v.Items {
				s, err := item.CSSText()
				if err != nil {
					return "", err
				}
				if s != "" {
					parts = append(parts, s)
				}
			}
			return strings.Join(parts, " "), nil
		}
		return v.declarations()
	default:
		return "", Fail(ErrUnresolvedExpression, "reason", v.Reason)
	}
}

func (v Value) declarations() (string, error) {
	parts := make([]string, 0, len(v.Keys))
	for _, key := range v.Keys {
		field := v.Fields[key]
		if field.Kind == ValueObject && !field.IsArray {
			inner, err := field.declarations()
			if err != nil {
				return "", err
			}
			parts = append(parts, key+" { "+inner+" }")
			continue
		}
		if field.IsNullish() {
			continue
		}
		text, err := field.CSSText()
		if err != nil {
			return "", err
		}
		parts = append(parts, PropertyName(key)+": "+text+";")
	}
	return strings.Join(parts, " "), nil
}

// PropertyName converts a camelCase object key to a CSS property name.
func PropertyName(key string) string {
	if strings.HasPrefix(key, "--") {
		return key
	}
	var b strings.Builder
	for i, r := range key {
		if unicode.IsUpper(r) {
			b.WriteByte('-')
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		if i == 0 && strings.HasPrefix(key, "ms") && len(key) > 2 && unicode.IsUpper(rune(key[2])) {
			b.WriteByte('-')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// FormatNumber follows JavaScript's Number.prototype.toString for finite values.
func FormatNumber(n float64) string {
	switch {
	case math.IsNaN(n):
		return "NaN"
	case math.IsInf(n, 1):
		return "Infinity"
	case math.IsInf(n, -1):
		return "-Infinity"
	case n == 0:
		return "0"
	}
	abs := math.Abs(n)
	if abs >= 1e21 || abs < 1e-6 {
		return strconv.FormatFloat(n, 'e', -1, 64)
	}
	return strconv.FormatFloat(n, 'f', -1, 64)
}

// ValueOf converts a Go value decoded from configuration or JSON.
func ValueOf(v any) Value {
	switch x := v.(type) {
	case nil:
		return NullValue()
	case Value:
		return x
	case string:
		return StringValue(x)
	case bool:
		return BoolValue(x)
	case int:
		return NumberValue(float64(x))
	case int64:
		return NumberValue(float64(x))
	case uint64:
		return NumberValue(float64(x))
	case float32:
		return NumberValue(float64(x))
	case float64:
		return NumberValue(x)
	case []any:
		items := make([]Value, len(x))
		for i, item := range x {
			items[i] = ValueOf(item)
		}
		return ArrayValue(items)
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		fields := make(map[string]Value, len(x))
		for k, item := range x {
			fields[k] = ValueOf(item)
		}
		return ObjectValue(keys, fields)
	default:
		return UnresolvedValue(fmt.Sprintf("unsupported value of type %T", v))
	}
}
