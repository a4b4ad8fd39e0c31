// Package shaker reduces a module to the statements needed to compute a set
// of required exports.
package shaker

import (
	"slices"

	"go.trai.ch/sift/internal/core/ast"
	"go.trai.ch/sift/internal/core/domain"
)

// Runtime tag functions substituted for recognised style tags in shaken code.
const (
	CSSTagFunc    = "__sift_css"
	StyledTagFunc = "__sift_styled"
)

// Input is a module and the exports required from it.
type Input struct {
	Module   *ast.Module
	Required domain.ExportSet
	// StarExports maps names provided by `export * from` statements to
	// their source, as discovered by exploding re-exports.
	StarExports map[string]string
	// Pure decides whether a callee is free of side effects.
	Pure ast.PureCallees
	// Globals are names the execution host provides.
	Globals []string
}

// Result is the shaken module.
type Result struct {
	Code string
	// Exports are the names the shaken code exports.
	Exports []string
	// Imports lists, per import source, the names the shaken code imports
	// from it. "*" requests the namespace, "default" the default export.
	Imports map[string][]string
}

// Shake computes the minimal code producing in.Required.
func Shake(in Input) (*Result, error) {
	s := newState(in)
	if err := s.markRoots(); err != nil {
		return nil, err
	}
	if err := s.drain(); err != nil {
		return nil, err
	}
	return s.generate(), nil
}

// ExportNames lists the names a module exports explicitly, and the sources
// of its `export * from` statements.
func ExportNames(mod *ast.Module) (names, stars []string) {
	for _, stmt := range mod.Body {
		switch s := stmt.(type) {
		case *ast.ExportDecl:
			names = append(names, ast.Declared(s.Decl)...)
		case *ast.ExportDefault:
			names = append(names, "default")
		case *ast.ExportNamed:
			for _, spec := range s.Specs {
				names = append(names, spec.Exported)
			}
		case *ast.ExportAll:
			if s.As != "" {
				names = append(names, s.As)
			} else {
				stars = append(stars, s.Source)
			}
		}
	}
	slices.Sort(names)
	return slices.Compact(names), stars
}

// defaultGlobals are the host names every execution host provides.
var defaultGlobals = []string{
	"Array", "ArrayBuffer", "BigInt", "Boolean", "Buffer", "DataView", "Date", "Error", "EvalError",
	"Float32Array", "Float64Array", "Function", "Infinity", "Int16Array", "Int32Array", "Int8Array",
	"Intl", "JSON", "Map", "Math", "NaN", "Number", "Object", "Promise", "Proxy", "RangeError",
	"ReferenceError", "Reflect", "RegExp", "Set", "String", "Symbol", "SyntaxError", "TextDecoder",
	"TextEncoder", "TypeError", "URIError", "URL", "URLSearchParams", "Uint16Array", "Uint32Array",
	"Uint8Array", "Uint8ClampedArray", "WeakMap", "WeakSet", "__dirname", "__filename", "arguments",
	"clearInterval", "clearTimeout", "console", "decodeURI", "decodeURIComponent", "document",
	"encodeURI", "encodeURIComponent", "exports", "globalThis", "isFinite", "isNaN", "module",
	"navigator", "parseFloat", "parseInt", "process", "require", "setInterval", "setTimeout",
	"undefined", "window",
}

// IsGlobal reports whether name is provided by every execution host.
func IsGlobal(name string) bool {
	_, ok := slices.BinarySearch(defaultGlobals, name)
	return ok
}
