package fs

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/viant/afs"
	"go.trai.ch/sift/internal/core/domain"
	"go.trai.ch/sift/internal/core/ports"
)

var _ ports.FileReader = (*Reader)(nil)

// Reader loads files through afs.
type Reader struct {
	fs afs.Service
}

// NewReader creates a new Reader.
func NewReader(service afs.Service) *Reader {
	return &Reader{fs: service}
}

// ReadFile implements ports.FileReader.
func (r *Reader) ReadFile(ctx context.Context, filename string) (string, error) {
	data, err := r.fs.DownloadWithURL(ctx, fileURL(filename))
	if err != nil {
		return "", domain.Fail(domain.Because(domain.ErrFileRead, err), "file", filename)
	}
	return string(data), nil
}

// Writer stores generated files through afs.
type Writer struct {
	fs afs.Service
}

// NewWriter creates a new Writer.
func NewWriter(service afs.Service) *Writer {
	return &Writer{fs: service}
}

// WriteFile writes content to filename, creating parent directories.
func (w *Writer) WriteFile(ctx context.Context, filename, content string) error {
	if err := os.MkdirAll(filepath.Dir(filename), domain.DirPerm); err != nil {
		return domain.Fail(domain.Because(domain.ErrOutputWrite, err), "file", filename)
	}
	if err := w.fs.Upload(ctx, fileURL(filename), domain.FilePerm, strings.NewReader(content)); err != nil {
		return domain.Fail(domain.Because(domain.ErrOutputWrite, err), "file", filename)
	}
	return nil
}

func fileURL(path string) string {
	if strings.Contains(path, "://") {
		return path
	}
	return "file://" + filepath.ToSlash(path)
}
