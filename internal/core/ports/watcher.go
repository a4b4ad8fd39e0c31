package ports

import (
	"context"
	"iter"
)

// WatchOp is the kind of change reported for a path.
type WatchOp uint8

const (
	// OpCreate indicates a file or directory was created.
	OpCreate WatchOp = iota
	// OpWrite indicates a file was modified.
	OpWrite
	// OpRemove indicates a file or directory was removed.
	OpRemove
	// OpRename indicates a file or directory was renamed.
	OpRename
)

// WatchEvent is a change to a module source under the watched root.
type WatchEvent struct {
	// Path is the absolute path that changed.
	Path string
	// Operation is the type of change.
	Operation WatchOp
}

// Watcher reports source changes for watch mode.
//
//go:generate mockgen -source=watcher.go -destination=mocks/mock_watcher.go -package=mocks
type Watcher interface {
	// Start watches root recursively, skipping output and dependency directories.
	Start(ctx context.Context, root string) error
	// Stop stops the watcher and releases all resources.
	Stop() error
	// Events yields debounced batches flattened into single events.
	Events() iter.Seq[WatchEvent]
}
