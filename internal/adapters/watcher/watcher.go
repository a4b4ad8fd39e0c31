package watcher

import (
	"context"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.trai.ch/sift/internal/core/domain"
	"go.trai.ch/sift/internal/core/ports"
)

var _ ports.Watcher = (*Watcher)(nil)

// skipDirs are never watched.
var skipDirs = map[string]bool{
	".git":             true,
	".jj":              true,
	"node_modules":     true,
	domain.SiftDirName: true,
}

// sourceExts are the module extensions whose changes trigger a rebuild.
var sourceExts = map[string]bool{
	".js":  true,
	".jsx": true,
	".mjs": true,
	".cjs": true,
	".ts":  true,
	".tsx": true,
	".mts": true,
	".cts": true,
}

const eventBuffer = 256

// Watcher watches a source tree with fsnotify and yields coalesced changes.
type Watcher struct {
	fsw       *fsnotify.Watcher
	logger    ports.Logger
	coalescer *Coalescer
	events    chan ports.WatchEvent
	done      chan struct{}
	started   atomic.Bool
	excludes  []string
}

// New creates a Watcher delivering batches after quiet. Changes below any of
// the absolute excludes directories are never reported.
func New(logger ports.Logger, quiet time.Duration, excludes ...string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, domain.Because(domain.ErrWatch, err)
	}
	w := &Watcher{
		fsw:      fsw,
		logger:   logger,
		events:   make(chan ports.WatchEvent, eventBuffer),
		done:     make(chan struct{}),
		excludes: excludes,
	}
	w.coalescer = NewCoalescer(quiet, w.publish)
	return w, nil
}

// Start watches root recursively and processes events until ctx ends or Stop
// is called.
func (w *Watcher) Start(ctx context.Context, root string) error {
	for dir := range w.dirs(root) {
		if err := w.fsw.Add(dir); err != nil {
			return domain.Fail(domain.Because(domain.ErrWatch, err), "dir", dir)
		}
	}
	w.started.Store(true)
	go w.loop(ctx)
	return nil
}

// Stop releases the fsnotify watcher. Pending changes are delivered first.
func (w *Watcher) Stop() error {
	err := w.fsw.Close()
	if w.started.Load() {
		<-w.done
	} else {
		close(w.events)
	}
	return err
}

// Events yields changes until the watcher stops.
func (w *Watcher) Events() iter.Seq[ports.WatchEvent] {
	return func(yield func(ports.WatchEvent) bool) {
		for ev := range w.events {
			if !yield(ev) {
				return
			}
		}
	}
}

func (w *Watcher) publish(batch []ports.WatchEvent) {
	for _, ev := range batch {
		w.events <- ev
	}
}

func (w *Watcher) loop(ctx context.Context) {
	defer func() {
		w.coalescer.Close()
		close(w.events)
		close(w.done)
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handle(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			if w.logger != nil {
				w.logger.Warn("watch: " + err.Error())
			}
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	if ev.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if !skipDirs[info.Name()] && !w.excluded(ev.Name) {
				for dir := range w.dirs(ev.Name) {
					_ = w.fsw.Add(dir)
				}
			}
			return
		}
	}

	op, ok := convert(ev.Op)
	if !ok || !sourceExts[filepath.Ext(ev.Name)] || skipped(ev.Name) || w.excluded(ev.Name) {
		return
	}
	w.coalescer.Add(ports.WatchEvent{Path: ev.Name, Operation: op})
}

func convert(op fsnotify.Op) (ports.WatchOp, bool) {
	switch {
	case op.Has(fsnotify.Remove):
		return ports.OpRemove, true
	case op.Has(fsnotify.Rename):
		return ports.OpRename, true
	case op.Has(fsnotify.Create):
		return ports.OpCreate, true
	case op.Has(fsnotify.Write):
		return ports.OpWrite, true
	default:
		return 0, false
	}
}

func skipped(path string) bool {
	for dir := filepath.Dir(path); ; dir = filepath.Dir(dir) {
		if skipDirs[filepath.Base(dir)] {
			return true
		}
		if parent := filepath.Dir(dir); parent == dir {
			return false
		}
	}
}

func (w *Watcher) excluded(path string) bool {
	for _, dir := range w.excludes {
		if domain.Within(path, dir) {
			return true
		}
	}
	return false
}

// dirs yields root and every directory below it that is not skipped.
func (w *Watcher) dirs(root string) iter.Seq[string] {
	return func(yield func(string) bool) {
		_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil //nolint:nilerr // unreadable directories are not watched
			}
			if !d.IsDir() {
				return nil
			}
			if path != root && (skipDirs[d.Name()] || w.excluded(path)) {
				return fs.SkipDir
			}
			if !yield(path) {
				return fs.SkipAll
			}
			return nil
		})
	}
}
