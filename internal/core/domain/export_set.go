package domain

import (
	"slices"
	"strings"
)

// AllExports is the wildcard export name. A set containing it requires every
// export of the module.
const AllExports = "*"

// ExportSet is an immutable, sorted set of export names.
type ExportSet struct {
	names []string
}

// NewExportSet builds a set from names, dropping duplicates and empty names.
func NewExportSet(names ...string) ExportSet {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if n != "" {
			out = append(out, n)
		}
	}
	slices.Sort(out)
	return ExportSet{names: slices.Compact(out)}
}

// Names returns the sorted names. The slice must not be modified.
func (s ExportSet) Names() []string {
	return s.names
}

// Len returns the number of names.
func (s ExportSet) Len() int {
	return len(s.names)
}

// Has reports whether name is a member.
func (s ExportSet) Has(name string) bool {
	_, ok := slices.BinarySearch(s.names, name)
	return ok
}

// All reports whether the set requires every export.
func (s ExportSet) All() bool {
	return s.Has(AllExports)
}

// Subset reports whether every name of s is covered by o.
func (s ExportSet) Subset(o ExportSet) bool {
	if o.All() {
		return true
	}
	for _, n := range s.names {
		if !o.Has(n) {
			return false
		}
	}
	return true
}

// Union returns the names of both sets.
func (s ExportSet) Union(o ExportSet) ExportSet {
	merged := make([]string, 0, len(s.names)+len(o.names))
	merged = append(merged, s.names...)
	merged = append(merged, o.names...)
	return NewExportSet(merged...)
}

// Key is the normalized textual form used in cache keys.
func (s ExportSet) Key() string {
	return strings.Join(s.names, ",")
}

// String implements fmt.Stringer.
func (s ExportSet) String() string {
	return "{" + s.Key() + "}"
}
