package template

import (
	"path"
	"strconv"
	"strings"
	"unicode"

	"github.com/minio/highwayhash"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var hashKey = []byte("sift-class-names-highwayhash-key")

func hash(data string) string {
	return strconv.FormatUint(highwayhash.Sum64([]byte(data), hashKey), 36)
}

// ClassName returns the class name of a normalized style body. A non-empty
// slug is prepended.
func ClassName(body, slug string) string {
	name := "s" + hash(body)
	if slug == "" {
		return name
	}
	return slug + "_" + name
}

// Slug derives a readable class name prefix from the file and the variable
// a template initialises. Index files are named after their directory.
func Slug(filename, name string) string {
	base := path.Base(filename)
	if dot := strings.IndexByte(base, '.'); dot > 0 {
		base = base[:dot]
	}
	if base == "index" {
		base = path.Base(path.Dir(filename))
	}
	parts := []string{slugPart(base)}
	if name != "" {
		parts = append(parts, slugPart(name))
	}
	return strings.Trim(strings.Join(parts, "-"), "-")
}

var fold = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

func slugPart(s string) string {
	plain, _, err := transform.String(fold, s)
	if err != nil {
		plain = s
	}
	var b strings.Builder
	dash := false
	for _, r := range plain {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			if unicode.IsUpper(r) && b.Len() > 0 && !dash {
				b.WriteByte('-')
			}
			b.WriteRune(unicode.ToLower(r))
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	out := strings.TrimSuffix(b.String(), "-")
	if out != "" && unicode.IsDigit(rune(out[0])) {
		out = "_" + out
	}
	return out
}

// Normalize strips comments and collapses whitespace. Quoted strings are kept
// verbatim.
func Normalize(body string) string {
	out, _ := collapse(norm.NFC.String(body))
	return out
}

// collapse normalizes s and returns, for every byte offset of s, the offset
// of the same position in the output.
func collapse(s string) (string, []int) {
	var b strings.Builder
	b.Grow(len(s))
	offsets := make([]int, len(s)+1)
	space := false
	var quote byte
	for i := 0; i < len(s); i++ {
		offsets[i] = b.Len()
		c := s[i]
		if quote != 0 {
			b.WriteByte(c)
			switch {
			case c == '\\' && i+1 < len(s):
				i++
				offsets[i] = b.Len()
				b.WriteByte(s[i])
			case c == quote:
				quote = 0
			}
			continue
		}
		if c == '/' && i+1 < len(s) && s[i+1] == '*' {
			stop := len(s)
			if end := strings.Index(s[i+2:], "*/"); end >= 0 {
				stop = i + 2 + end + 2
			}
			for ; i < stop; i++ {
				offsets[i] = b.Len()
			}
			i--
			space = true
			continue
		}
		if c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' {
			space = true
			continue
		}
		if space && b.Len() > 0 {
			b.WriteByte(' ')
			offsets[i] = b.Len()
		}
		space = false
		if c == '"' || c == '\'' {
			quote = c
		}
		b.WriteByte(c)
	}
	offsets[len(s)] = b.Len()
	return b.String(), offsets
}
