// Package cas implements the file-backed persistent cache store.
package cas

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/opencontainers/go-digest"
	"go.trai.ch/sift/internal/core/domain"
	"go.trai.ch/sift/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.CacheStore = (*Store)(nil)

// Store implements ports.CacheStore using a file-per-entry strategy. Entries
// of one source file share a directory so they can be dropped together.
type Store struct {
	dir string
}

// NewStore creates a CacheStore rooted at dir.
func NewStore(dir string) *Store {
	return &Store{dir: filepath.Clean(dir)}
}

// Get retrieves the entry stored for key.
func (s *Store) Get(_ context.Context, key domain.CacheKey) (*domain.CacheEntry, error) {
	filename := s.entryFile(key)
	//nolint:gosec // Path is constructed from the cache directory and hashed names
	data, err := os.ReadFile(filename)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, domain.Fail(domain.Because(domain.ErrCacheRead, err), "file", key.Filename)
	}

	var entry domain.CacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, domain.Fail(domain.Because(domain.ErrCacheDecode, err), "file", key.Filename)
	}
	if entry.Key != key {
		return nil, nil
	}
	return &entry, nil
}

// Put stores entry under its key.
func (s *Store) Put(_ context.Context, entry *domain.CacheEntry) error {
	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return zerr.Wrap(err, domain.ErrCacheWrite.Error())
	}

	filename := s.entryFile(entry.Key)
	if err := os.MkdirAll(filepath.Dir(filename), domain.DirPerm); err != nil {
		return domain.Fail(domain.Because(domain.ErrCacheWrite, err), "file", entry.Key.Filename)
	}

	tmp := filename + ".tmp"
	if err := os.WriteFile(tmp, data, domain.FilePerm); err != nil {
		return domain.Fail(domain.Because(domain.ErrCacheWrite, err), "file", entry.Key.Filename)
	}
	if err := os.Rename(tmp, filename); err != nil {
		return domain.Fail(domain.Because(domain.ErrCacheWrite, err), "file", entry.Key.Filename)
	}
	return nil
}

// Delete removes every entry stored for filename.
func (s *Store) Delete(_ context.Context, filename string) error {
	if err := os.RemoveAll(s.fileDir(filename)); err != nil {
		return domain.Fail(domain.Because(domain.ErrCacheWrite, err), "file", filename)
	}
	return nil
}

func (s *Store) fileDir(filename string) string {
	return filepath.Join(s.dir, digest.FromString(filename).Encoded()[:16])
}

func (s *Store) entryFile(key domain.CacheKey) string {
	return filepath.Join(s.fileDir(key.Filename), digest.FromString(key.String()).Encoded()+".json")
}
