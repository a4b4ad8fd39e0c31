package ports

import "context"

//go:generate mockgen -source=module.go -destination=mocks/mock_module.go -package=mocks

// ModuleResolver maps import specifiers to absolute filenames.
type ModuleResolver interface {
	// Resolve returns the file specifier refers to when imported from importer.
	Resolve(ctx context.Context, specifier, importer string) (string, error)
}

// FileReader loads module sources.
type FileReader interface {
	// ReadFile returns the content of filename.
	ReadFile(ctx context.Context, filename string) (string, error)
}

// Hasher computes content hashes.
type Hasher interface {
	// Hash returns a stable digest of content.
	Hash(content string) string
}
