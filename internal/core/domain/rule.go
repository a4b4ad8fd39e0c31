package domain

// StyleVar is a CSS custom property whose value is supplied at runtime.
type StyleVar struct {
	// Name is the property name without the leading dashes.
	Name string `json:"name"`
	// Expr is the source text of the interpolation that computes the value.
	Expr string `json:"expr,omitempty"`
}

// Rule is one extracted style template.
type Rule struct {
	ClassName string     `json:"className"`
	Kind      string     `json:"kind"`
	Name      string     `json:"name,omitempty"`
	Element   string     `json:"element,omitempty"`
	Body      string     `json:"body"`
	Vars      []StyleVar `json:"vars,omitempty"`
	Line      int        `json:"line"`
	Col       int        `json:"col"`
}

// Selector returns the CSS selector of the rule.
func (r Rule) Selector() string {
	return "." + r.ClassName
}

// Mapping ties a position of the generated CSS to the source template.
// Lines are 1-based, columns 0-based.
type Mapping struct {
	GeneratedLine   int `json:"generatedLine"`
	GeneratedColumn int `json:"generatedColumn"`
	OriginalLine    int `json:"originalLine"`
	OriginalColumn  int `json:"originalColumn"`
}
