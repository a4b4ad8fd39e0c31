package watcher_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/sift/internal/adapters/watcher"
	"go.trai.ch/sift/internal/core/ports"
)

func collect(t *testing.T, w *watcher.Watcher, want int) []ports.WatchEvent {
	t.Helper()
	got := make(chan []ports.WatchEvent, 1)
	go func() {
		var events []ports.WatchEvent
		for ev := range w.Events() {
			events = append(events, ev)
			if len(events) == want {
				break
			}
		}
		got <- events
	}()

	select {
	case events := <-got:
		return events
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for %d events", want)
		return nil
	}
}

func TestWatcher_ReportsSourceChanges(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "node_modules", "lib"), 0o750))
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".sift"), 0o750))

	w, err := watcher.New(nil, 20*time.Millisecond)
	require.NoError(t, err)
	require.NoError(t, w.Start(t.Context(), root))
	t.Cleanup(func() { _ = w.Stop() })

	// Ignored: wrong extension or skipped directories.
	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.md"), []byte("x"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(root, "node_modules", "lib", "index.js"), []byte("x"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(root, ".sift", "a.js"), []byte("x"), 0o600))

	src := filepath.Join(root, "button.tsx")
	require.NoError(t, os.WriteFile(src, []byte("export const a = 1;"), 0o600))

	events := collect(t, w, 1)
	require.Len(t, events, 1)
	assert.Equal(t, src, events[0].Path)
}

func TestWatcher_WatchesNewDirectories(t *testing.T) {
	root := t.TempDir()

	w, err := watcher.New(nil, 20*time.Millisecond)
	require.NoError(t, err)
	require.NoError(t, w.Start(t.Context(), root))
	t.Cleanup(func() { _ = w.Stop() })

	dir := filepath.Join(root, "components")
	require.NoError(t, os.Mkdir(dir, 0o750))
	// Give the watcher time to add the new directory.
	time.Sleep(100 * time.Millisecond)

	src := filepath.Join(dir, "card.js")
	require.NoError(t, os.WriteFile(src, []byte("export const a = 1;"), 0o600))

	events := collect(t, w, 1)
	require.Len(t, events, 1)
	assert.Equal(t, src, events[0].Path)
}

func TestWatcher_ExcludedDirectories(t *testing.T) {
	root := t.TempDir()
	out := filepath.Join(root, "dist")
	cache := filepath.Join(root, "cache")
	require.NoError(t, os.MkdirAll(filepath.Join(out, "src"), 0o750))

	w, err := watcher.New(nil, 20*time.Millisecond, out, cache)
	require.NoError(t, err)
	require.NoError(t, w.Start(t.Context(), root))
	t.Cleanup(func() { _ = w.Stop() })

	require.NoError(t, os.WriteFile(filepath.Join(out, "src", "button.js"), []byte("x"), 0o600))
	require.NoError(t, os.Mkdir(cache, 0o750))
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(cache, "entry.js"), []byte("x"), 0o600))
	// Let any batch for the excluded writes go out before the real change.
	time.Sleep(100 * time.Millisecond)

	src := filepath.Join(root, "button.js")
	require.NoError(t, os.WriteFile(src, []byte("export const a = 1;"), 0o600))

	events := collect(t, w, 1)
	require.Len(t, events, 1)
	assert.Equal(t, src, events[0].Path)
}

func TestWatcher_StopClosesEvents(t *testing.T) {
	w, err := watcher.New(nil, time.Millisecond)
	require.NoError(t, err)
	require.NoError(t, w.Start(t.Context(), t.TempDir()))
	require.NoError(t, w.Stop())

	for range w.Events() {
		t.Fatal("no events expected")
	}
}

func TestWatcher_StopWithoutStart(t *testing.T) {
	w, err := watcher.New(nil, time.Millisecond)
	require.NoError(t, err)
	require.NoError(t, w.Stop())
}
