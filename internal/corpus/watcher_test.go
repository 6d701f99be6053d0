package corpus

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voxelabs/studymap/internal/store"
)

func TestWatcher_ReloadsOnDataChange(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dir := t.TempDir()
	writeCorpus(t, dir)
	manifestPath := filepath.Join(dir, "corpus.yaml")

	mem := store.NewMemory(nil)
	loader := New(mem, nil)
	w := NewWatcher(loader, manifestPath, nil)

	done := make(chan error, 1)
	go func() { done <- w.Watch(ctx) }()

	// Give the watcher time to register the directory before writing.
	time.Sleep(200 * time.Millisecond)

	extended := annotationsTSV + "1\t2\tattention\t0.5\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "annotations.tsv"), []byte(extended), 0o644))

	// The debounced reload should land within a few seconds.
	deadline := time.Now().Add(5 * time.Second)
	for {
		set, err := mem.StudiesWithTerm(ctx, "attention")
		require.NoError(t, err)
		if !set.IsEmpty() {
			assert.Equal(t, []int64{1}, set.IDs())
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("corpus was not reloaded after data file change")
		}
		time.Sleep(50 * time.Millisecond)
	}

	cancel()
	require.NoError(t, <-done)
}

func TestWatcher_IgnoresUnrelatedFiles(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dir := t.TempDir()
	writeCorpus(t, dir)
	manifestPath := filepath.Join(dir, "corpus.yaml")

	mem := store.NewMemory(nil)
	loader := New(mem, nil)
	w := NewWatcher(loader, manifestPath, nil)

	done := make(chan error, 1)
	go func() { done <- w.Watch(ctx) }()

	time.Sleep(200 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("scratch"), 0o644))
	time.Sleep(300 * time.Millisecond)

	// The corpus was never loaded, so an unrelated write must not load it.
	latest, err := mem.LatestLoadRun(ctx)
	require.NoError(t, err)
	assert.Nil(t, latest)

	cancel()
	require.NoError(t, <-done)
}

func TestWatchDirs_DeduplicatesDirectories(t *testing.T) {
	dir := t.TempDir()
	writeCorpus(t, dir)
	manifestPath := filepath.Join(dir, "corpus.yaml")

	w := NewWatcher(New(store.NewMemory(nil), nil), manifestPath, nil)

	dirs := w.watchDirs()
	assert.Equal(t, []string{dir}, dirs, "manifest and data files share one directory")
}

func TestWatchDirs_UnreadableManifestFallsBack(t *testing.T) {
	w := NewWatcher(New(store.NewMemory(nil), nil), "/nonexistent/corpus.yaml", nil)

	dirs := w.watchDirs()
	assert.Equal(t, []string{"/nonexistent"}, dirs)
}
