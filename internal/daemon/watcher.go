package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/herbario-cl/herbario/internal/manifest"
)

// Watcher monitors the manifest's files and triggers a rebuild callback when
// any of them changes. Rapid change bursts are debounced.
type Watcher struct {
	watcher      *fsnotify.Watcher
	watched      map[string]struct{} // absolute manifest entry paths
	onChange     func()
	debounceTime time.Duration
	stopChan     chan struct{}
	rebuildChan  chan struct{}
}

// NewWatcher creates a watcher over the manifest's entries.
func NewWatcher(m manifest.Manifest, onChange func()) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	watched := make(map[string]struct{}, m.Len())
	for _, entry := range m.Entries() {
		abs, err := filepath.Abs(entry)
		if err != nil {
			fsw.Close()
			return nil, fmt.Errorf("failed to resolve manifest entry %s: %w", entry, err)
		}
		watched[abs] = struct{}{}
	}

	return &Watcher{
		watcher:      fsw,
		watched:      watched,
		onChange:     onChange,
		debounceTime: 2 * time.Second, // Debounce rapid file changes
		stopChan:     make(chan struct{}),
		rebuildChan:  make(chan struct{}, 1),
	}, nil
}

// Start begins monitoring. Directories are watched rather than the files
// themselves, which survives editors that replace files on save.
func (w *Watcher) Start(ctx context.Context) error {
	dirs := map[string]struct{}{}
	for path := range w.watched {
		dirs[filepath.Dir(path)] = struct{}{}
	}
	for dir := range dirs {
		if err := w.watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch directory %s: %w", dir, err)
		}
	}

	slog.Info("Starting manifest watcher", "files", len(w.watched), "directories", len(dirs))

	go w.watchLoop(ctx)
	go w.rebuildLoop(ctx)
	return nil
}

// Stop stops the watcher.
func (w *Watcher) Stop() error {
	close(w.stopChan)
	return w.watcher.Close()
}

func (w *Watcher) watchLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopChan:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			abs, err := filepath.Abs(event.Name)
			if err != nil {
				continue
			}
			if _, tracked := w.watched[abs]; !tracked {
				continue
			}
			slog.Debug("Manifest file changed", "path", event.Name, "op", event.Op.String())
			select {
			case w.rebuildChan <- struct{}{}:
			default: // rebuild already pending
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("File watcher error", "error", err)
		}
	}
}

func (w *Watcher) rebuildLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopChan:
			return
		case <-w.rebuildChan:
			// Let the burst settle before rebuilding.
			timer := time.NewTimer(w.debounceTime)
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-w.stopChan:
				timer.Stop()
				return
			case <-timer.C:
			}
			w.onChange()
		}
	}
}
