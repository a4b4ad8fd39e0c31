package domain

import "fmt"

// Severity classifies a diagnostic.
type Severity string

const (
	// SeverityWarning is reported but does not fail the transform.
	SeverityWarning Severity = "warning"
	// SeverityError accompanies a failed transform.
	SeverityError Severity = "error"
)

// Diagnostic is a message attached to a transform result.
type Diagnostic struct {
	Severity Severity `json:"severity"`
	Code     string   `json:"code"`
	Message  string   `json:"message"`
	Filename string   `json:"filename,omitempty"`
	Line     int      `json:"line,omitempty"`
	Col      int      `json:"col,omitempty"`
}

// String renders the diagnostic in file:line:col form.
func (d Diagnostic) String() string {
	loc := d.Filename
	if d.Line > 0 {
		loc = fmt.Sprintf("%s:%d:%d", d.Filename, d.Line, d.Col)
	}
	if loc == "" {
		return fmt.Sprintf("%s %s: %s", d.Severity, d.Code, d.Message)
	}
	return fmt.Sprintf("%s: %s %s: %s", loc, d.Severity, d.Code, d.Message)
}

// Diagnostic codes.
const (
	CodeCyclicDependency = "cyclic-dependency"
	CodeUnresolvedAsset  = "unresolved-asset"
)
