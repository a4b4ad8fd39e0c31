package ast

import (
	"sort"
	"strings"
)

// Edit replaces the source bytes in [Start, End) with Text.
type Edit struct {
	Start int
	End   int
	Text  string
}

// Splice renders src[start:end] with edits applied. Edits outside the range
// and edits nested inside an earlier edit are ignored.
func Splice(src string, start, end int, edits []Edit) string {
	sorted := make([]Edit, 0, len(edits))
	for _, e := range edits {
		if e.Start >= start && e.End <= end {
			sorted = append(sorted, e)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Start != sorted[j].Start {
			return sorted[i].Start < sorted[j].Start
		}
		return sorted[i].End > sorted[j].End
	})

	var b strings.Builder
	cursor := start
	for _, e := range sorted {
		if e.Start < cursor {
			continue
		}
		b.WriteString(src[cursor:e.Start])
		b.WriteString(e.Text)
		cursor = e.End
	}
	b.WriteString(src[cursor:end])
	return b.String()
}
