package corpus

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads the corpus whenever the manifest or one of its data
// files changes.
type Watcher struct {
	loader       *Loader
	manifestPath string
	logger       *slog.Logger
}

// NewWatcher creates a watcher that reloads through loader.
func NewWatcher(loader *Loader, manifestPath string, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Watcher{loader: loader, manifestPath: manifestPath, logger: logger}
}

// Watch blocks until the context is cancelled, reloading the corpus on
// changes. Events are debounced so editors that write in bursts trigger
// a single load.
func (w *Watcher) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	for _, dir := range w.watchDirs() {
		if err := watcher.Add(dir); err != nil {
			w.logger.Error("failed to watch corpus directory", "dir", dir, "error", err)
			// Don't fail - continue without watching this directory
		}
	}

	// Debounce timer
	var debounceTimer *time.Timer

	for {
		select {
		case <-ctx.Done():
			return nil

		case event := <-watcher.Events:
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}

			ext := filepath.Ext(event.Name)
			if ext != ".tsv" && ext != ".yaml" && ext != ".yml" {
				continue
			}

			// Debounce
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(100*time.Millisecond, func() {
				w.logger.Debug("corpus file changed, reloading", "file", event.Name)
				w.reload(ctx)
			})

		case err := <-watcher.Errors:
			w.logger.Error("watcher error", "error", err)
		}
	}
}

// watchDirs lists the directories holding the manifest and its data
// files, deduplicated.
func (w *Watcher) watchDirs() []string {
	dirs := []string{filepath.Dir(w.manifestPath)}
	manifest, err := LoadManifest(w.manifestPath)
	if err != nil {
		w.logger.Error("failed to read manifest for watching", "error", err)
		return dirs
	}

	seen := map[string]bool{dirs[0]: true}
	for _, path := range []string{manifest.Studies, manifest.Annotations, manifest.Coordinates} {
		dir := filepath.Dir(path)
		if !seen[dir] {
			seen[dir] = true
			dirs = append(dirs, dir)
		}
	}
	return dirs
}

func (w *Watcher) reload(ctx context.Context) {
	manifest, err := LoadManifest(w.manifestPath)
	if err != nil {
		w.logger.Error("manifest reload failed", "error", err)
		return
	}
	if _, err := w.loader.Load(ctx, manifest); err != nil {
		w.logger.Error("corpus reload failed", "error", err)
	}
}
