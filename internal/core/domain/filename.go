package domain

import "unique"

// Filename is an interned absolute path. Entrypoints, edges and cache keys
// repeat the same few paths many times per build.
type Filename struct {
	h unique.Handle[string]
}

// NewFilename interns path.
func NewFilename(path string) Filename {
	return Filename{h: unique.Make(path)}
}

// String returns the path.
func (f Filename) String() string {
	var zero unique.Handle[string]
	if f.h == zero {
		return ""
	}
	return f.h.Value()
}

// IsZero reports whether f was never set.
func (f Filename) IsZero() bool {
	var zero unique.Handle[string]
	return f.h == zero
}

// MarshalText implements encoding.TextMarshaler.
func (f Filename) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *Filename) UnmarshalText(text []byte) error {
	f.h = unique.Make(string(text))
	return nil
}
