package daemon

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"

	"github.com/janschaeferjohann/seriem-agent/internal/settings"
	"github.com/janschaeferjohann/seriem-agent/internal/workspace"
	"github.com/janschaeferjohann/seriem-agent/logging"
)

// SettingsWatcher reloads the registry's settings cache when the active
// workspace's settings file is edited outside the daemon (an editor, another
// tool). It watches the settings directory rather than the file itself so
// atomic rename-style saves keep triggering.
type SettingsWatcher struct {
	watcher  *fsnotify.Watcher
	registry *workspace.Registry
	debounce time.Duration
	logger   *logrus.Entry
	onReload func()

	mu         sync.Mutex
	watched    string
	lastReload time.Time
}

// NewSettingsWatcher creates a watcher bound to the registry. The onReload
// callback fires after each reload (nil to skip). Call Rearm once a workspace
// is selected, then Start.
func NewSettingsWatcher(registry *workspace.Registry, onReload func()) (*SettingsWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &SettingsWatcher{
		watcher:  watcher,
		registry: registry,
		debounce: 250 * time.Millisecond,
		logger:   logging.NewLogger("watcher"),
		onReload: onReload,
	}, nil
}

// Rearm points the watcher at the current workspace's settings directory,
// replacing any previous watch. The directory is created if missing since
// fsnotify cannot watch a path that does not exist yet.
func (w *SettingsWatcher) Rearm() error {
	dir, err := w.registry.SettingsDir()
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if dir == w.watched {
		return nil
	}

	if w.watched != "" {
		if err := w.watcher.Remove(w.watched); err != nil {
			w.logger.WithError(err).Debug("Failed to unwatch previous settings dir")
		}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	if err := w.watcher.Add(dir); err != nil {
		return err
	}
	w.watched = dir
	w.logger.WithField("dir", dir).Debug("Watching workspace settings")
	return nil
}

// Start consumes filesystem events until the context is cancelled. It blocks,
// so run it on its own goroutine.
func (w *SettingsWatcher) Start(ctx context.Context) {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if filepath.Base(event.Name) != settings.FileName {
				continue
			}
			w.handleChange()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.WithError(err).Error("Settings watcher error")
		case <-ctx.Done():
			w.watcher.Close()
			return
		}
	}
}

// handleChange reloads settings, dropping rapid follow-up events. Editors
// commonly fire several writes per save.
func (w *SettingsWatcher) handleChange() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if time.Since(w.lastReload) < w.debounce {
		return
	}
	w.lastReload = time.Now()

	w.registry.ReloadSettings()
	w.logger.Info("Workspace settings reloaded")
	if w.onReload != nil {
		w.onReload()
	}
}

// Close stops the watcher and releases resources.
func (w *SettingsWatcher) Close() error {
	return w.watcher.Close()
}
