package ports

import (
	"context"

	"go.trai.ch/sift/internal/core/ast"
)

// Parser turns source text into the closed syntax tree.
type Parser interface {
	// Parse parses source as the module at filename. The grammar is chosen by extension.
	Parse(ctx context.Context, filename, source string) (*ast.Module, error)
}
