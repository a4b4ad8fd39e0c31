package domain

// Style kinds passed to a StyleFunc.
const (
	StyleKindCSS    = "css"
	StyleKindStyled = "styled"
)

// StyleMeta describes a style template reached while evaluating shaken code.
type StyleMeta struct {
	Kind     string `json:"kind"`
	Name     string `json:"name,omitempty"`
	Filename string `json:"filename"`
	Element  string `json:"element,omitempty"`
	Index    int    `json:"index"`
}

// StyleFunc computes the value a style template evaluates to from its raw
// quasis and interpolation values: the class name for css, a styled
// reference for styled.
type StyleFunc func(meta StyleMeta, quasis []string, values []Value) (Value, error)

// ExecDependency is the evaluated provider behind one import specifier.
type ExecDependency struct {
	Key      string
	Filename string
	Values   map[string]Value
}

// ExecUnit is shaken code ready to run in an execution host.
type ExecUnit struct {
	// Key identifies the unit across runs so hosts can reuse live module objects.
	Key      string
	Filename string
	Code     string
	// Exports are the bindings whose values are returned.
	Exports []string
	// Dependencies are keyed by import specifier.
	Dependencies map[string]ExecDependency
	Styles       StyleFunc
}
