// Package fs provides file system adapters for reading, resolving, walking
// and hashing module sources.
package fs

import (
	"io/fs"
	"iter"
	"path/filepath"
	"slices"
	"strings"

	"go.trai.ch/sift/internal/core/domain"
)

// SourceExtensions are the file extensions treated as modules.
var SourceExtensions = []string{".js", ".jsx", ".mjs", ".cjs", ".ts", ".tsx", ".mts", ".cts"}

// IsSource reports whether path has a module extension.
func IsSource(path string) bool {
	return slices.Contains(SourceExtensions, strings.ToLower(filepath.Ext(path)))
}

// Walker finds module sources below a directory.
type Walker struct{}

// NewWalker creates a new Walker.
func NewWalker() *Walker {
	return &Walker{}
}

// WalkSources yields every module source below root, skipping VCS metadata,
// dependencies, the sift directory and type declarations. An absolute entry in
// ignores excludes that directory, any other entry is a name pattern.
func (w *Walker) WalkSources(root string, ignores []string) iter.Seq[string] {
	return func(yield func(string) bool) {
		_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}

			if skipAction := w.shouldSkip(root, path, d, ignores); skipAction != nil {
				return skipAction
			}

			if d.IsDir() || !IsSource(path) || strings.HasSuffix(path, ".d.ts") {
				return nil
			}
			if ignored(d.Name(), ignores) {
				return nil
			}

			if !yield(path) {
				return filepath.SkipAll
			}
			return nil
		})
	}
}

// shouldSkip returns filepath.SkipDir for directories that never hold sources.
func (w *Walker) shouldSkip(root, path string, d fs.DirEntry, ignores []string) error {
	if !d.IsDir() || path == root {
		return nil
	}
	switch d.Name() {
	case ".git", ".jj", "node_modules", domain.SiftDirName:
		return filepath.SkipDir
	}
	if ignored(d.Name(), ignores) || excluded(path, ignores) {
		return filepath.SkipDir
	}
	return nil
}

func excluded(path string, ignores []string) bool {
	for _, ignore := range ignores {
		if filepath.IsAbs(ignore) && domain.Within(path, ignore) {
			return true
		}
	}
	return false
}

func ignored(name string, ignores []string) bool {
	for _, ignore := range ignores {
		if filepath.IsAbs(ignore) {
			continue
		}
		if matched, _ := filepath.Match(ignore, name); matched {
			return true
		}
	}
	return false
}
