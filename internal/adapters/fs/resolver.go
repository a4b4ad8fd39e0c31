package fs

import (
	"context"
	"encoding/json"
	"path"
	"path/filepath"
	"strings"

	"github.com/viant/afs"
	"go.trai.ch/sift/internal/core/domain"
	"go.trai.ch/sift/internal/core/ports"
)

var _ ports.ModuleResolver = (*Resolver)(nil)

// Resolver maps import specifiers to files following Node's resolution
// algorithm: relative and absolute paths with extension and index probing,
// and packages found in node_modules directories up the tree.
type Resolver struct {
	fs afs.Service
}

// NewResolver creates a new Resolver.
func NewResolver(service afs.Service) *Resolver {
	return &Resolver{fs: service}
}

// Resolve implements ports.ModuleResolver.
func (r *Resolver) Resolve(ctx context.Context, specifier, importer string) (string, error) {
	if specifier == "" {
		return "", domain.Fail(domain.ErrModuleResolution, "specifier", specifier, "importer", importer)
	}

	var resolved string
	var ok bool
	switch {
	case strings.HasPrefix(specifier, "./"), strings.HasPrefix(specifier, "../"), specifier == ".", specifier == "..":
		resolved, ok = r.resolvePath(ctx, filepath.Join(filepath.Dir(importer), specifier))
	case filepath.IsAbs(specifier):
		resolved, ok = r.resolvePath(ctx, filepath.Clean(specifier))
	default:
		resolved, ok = r.resolvePackage(ctx, specifier, filepath.Dir(importer))
	}
	if !ok {
		return "", domain.Fail(domain.ErrModuleResolution, "specifier", specifier, "importer", importer)
	}
	return resolved, nil
}

func (r *Resolver) resolvePath(ctx context.Context, base string) (string, bool) {
	if file, ok := r.resolveFile(ctx, base); ok {
		return file, true
	}
	return r.resolveDir(ctx, base)
}

func (r *Resolver) resolveFile(ctx context.Context, base string) (string, bool) {
	if r.isFile(ctx, base) {
		return base, true
	}
	for _, ext := range SourceExtensions {
		if r.isFile(ctx, base+ext) {
			return base + ext, true
		}
	}
	// TypeScript sources import siblings by their emitted .js name.
	if ext := filepath.Ext(base); ext == ".js" || ext == ".jsx" {
		stem := strings.TrimSuffix(base, ext)
		for _, alt := range []string{".ts", ".tsx"} {
			if r.isFile(ctx, stem+alt) {
				return stem + alt, true
			}
		}
	}
	return "", false
}

func (r *Resolver) resolveDir(ctx context.Context, dir string) (string, bool) {
	if entry, ok := r.packageEntry(ctx, dir); ok {
		if file, ok := r.resolveFile(ctx, filepath.Join(dir, entry)); ok {
			return file, true
		}
		if file, ok := r.resolveIndex(ctx, filepath.Join(dir, entry)); ok {
			return file, true
		}
	}
	return r.resolveIndex(ctx, dir)
}

func (r *Resolver) resolveIndex(ctx context.Context, dir string) (string, bool) {
	for _, ext := range SourceExtensions {
		candidate := filepath.Join(dir, "index"+ext)
		if r.isFile(ctx, candidate) {
			return candidate, true
		}
	}
	return "", false
}

func (r *Resolver) resolvePackage(ctx context.Context, specifier, from string) (string, bool) {
	name, sub := splitPackage(specifier)
	for dir := from; ; dir = filepath.Dir(dir) {
		pkgDir := filepath.Join(dir, "node_modules", filepath.FromSlash(name))
		if r.isDir(ctx, pkgDir) {
			if sub == "" {
				if file, ok := r.resolveDir(ctx, pkgDir); ok {
					return file, true
				}
			} else if file, ok := r.resolvePath(ctx, filepath.Join(pkgDir, filepath.FromSlash(sub))); ok {
				return file, true
			}
		}
		if parent := filepath.Dir(dir); parent == dir {
			return "", false
		}
	}
}

// splitPackage splits "@scope/pkg/sub/path" into "@scope/pkg" and "sub/path".
func splitPackage(specifier string) (name, sub string) {
	parts := strings.Split(specifier, "/")
	n := 1
	if strings.HasPrefix(specifier, "@") && len(parts) > 1 {
		n = 2
	}
	if len(parts) <= n {
		return specifier, ""
	}
	return path.Join(parts[:n]...), path.Join(parts[n:]...)
}

type packageManifest struct {
	Module string `json:"module"`
	Main   string `json:"main"`
}

// packageEntry returns the entry declared by dir/package.json.
func (r *Resolver) packageEntry(ctx context.Context, dir string) (string, bool) {
	manifest := filepath.Join(dir, "package.json")
	if !r.isFile(ctx, manifest) {
		return "", false
	}
	data, err := r.fs.DownloadWithURL(ctx, fileURL(manifest))
	if err != nil {
		return "", false
	}
	var pkg packageManifest
	if err := json.Unmarshal(data, &pkg); err != nil {
		return "", false
	}
	switch {
	case pkg.Module != "":
		return pkg.Module, true
	case pkg.Main != "":
		return pkg.Main, true
	}
	return "", false
}

func (r *Resolver) isFile(ctx context.Context, p string) bool {
	obj, err := r.fs.Object(ctx, fileURL(p))
	return err == nil && obj != nil && !obj.IsDir()
}

func (r *Resolver) isDir(ctx context.Context, p string) bool {
	obj, err := r.fs.Object(ctx, fileURL(p))
	return err == nil && obj != nil && obj.IsDir()
}
