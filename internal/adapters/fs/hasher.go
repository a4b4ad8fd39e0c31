package fs

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/sift/internal/core/ports"
)

var _ ports.Hasher = (*Hasher)(nil)

// Hasher computes content hashes with XXHash.
type Hasher struct{}

// NewHasher creates a new Hasher.
func NewHasher() *Hasher {
	return &Hasher{}
}

// Hash returns the hex XXHash of content.
func (h *Hasher) Hash(content string) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(content))
}

// Fingerprint hashes parts in order. Parts are separated so that adjacent
// values cannot collide by concatenation.
func Fingerprint(parts ...string) string {
	hasher := xxhash.New()
	for _, p := range parts {
		_, _ = hasher.WriteString(p)
		_, _ = hasher.Write([]byte{0})
	}
	return fmt.Sprintf("%016x", hasher.Sum64())
}
