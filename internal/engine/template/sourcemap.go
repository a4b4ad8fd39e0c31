package template

import (
	"encoding/json"
	"strings"

	"go.trai.ch/sift/internal/core/domain"
)

const vlqChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/"

type sourceMap struct {
	Version        int      `json:"version"`
	File           string   `json:"file"`
	Sources        []string `json:"sources"`
	SourcesContent []string `json:"sourcesContent"`
	Names          []string `json:"names"`
	Mappings       string   `json:"mappings"`
}

// SourceMap renders a v3 source map for CSS generated from source. mappings
// must be ordered by generated position.
func SourceMap(cssFilename, filename, source string, mappings []domain.Mapping) (string, error) {
	raw, err := json.Marshal(sourceMap{
		Version:        3,
		File:           cssFilename,
		Sources:        []string{filename},
		SourcesContent: []string{source},
		Names:          []string{},
		Mappings:       encodeMappings(mappings),
	})
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func encodeMappings(mappings []domain.Mapping) string {
	var b strings.Builder
	line := 1
	prevCol, prevLine, prevOrigCol := 0, 0, 0
	first := true
	for _, m := range mappings {
		for line < m.GeneratedLine {
			b.WriteByte(';')
			line++
			prevCol = 0
			first = true
		}
		if !first {
			b.WriteByte(',')
		}
		first = false
		origLine := m.OriginalLine - 1
		writeVLQ(&b, m.GeneratedColumn-prevCol)
		writeVLQ(&b, 0)
		writeVLQ(&b, origLine-prevLine)
		writeVLQ(&b, m.OriginalColumn-prevOrigCol)
		prevCol, prevLine, prevOrigCol = m.GeneratedColumn, origLine, m.OriginalColumn
	}
	return b.String()
}

func writeVLQ(b *strings.Builder, n int) {
	v := n << 1
	if n < 0 {
		v = (-n << 1) | 1
	}
	for {
		digit := v & 31
		v >>= 5
		if v > 0 {
			digit |= 32
		}
		b.WriteByte(vlqChars[digit])
		if v == 0 {
			return
		}
	}
}
