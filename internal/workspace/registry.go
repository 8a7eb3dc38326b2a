package workspace

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/moby/patternmatcher"
	"github.com/sirupsen/logrus"

	"github.com/janschaeferjohann/seriem-agent/errors"
	"github.com/janschaeferjohann/seriem-agent/git"
	"github.com/janschaeferjohann/seriem-agent/internal/settings"
	"github.com/janschaeferjohann/seriem-agent/logging"
	"github.com/janschaeferjohann/seriem-agent/util/pathutil"
)

// defaultIgnorePatterns are always excluded from file listings, on top of
// whatever the config adds.
var defaultIgnorePatterns = []string{".git", ".seriem", "node_modules"}

// Snapshot is a point-in-time view of the active workspace.
type Snapshot struct {
	// Root is the absolute, symlink-resolved workspace directory.
	Root string `json:"root_path"`

	// Meta is what the git prober found at selection time.
	Meta git.Metadata `json:"meta"`
}

// Registry tracks the single active workspace: its root, the git metadata
// derived at selection, the cached per-workspace settings, and the ignore
// matcher applied to file listings. All daemon components share one instance
// by injection.
type Registry struct {
	mu     sync.RWMutex
	logger *logrus.Entry
	gitSvc git.Service

	matcher *patternmatcher.PatternMatcher

	root          string
	meta          git.Metadata
	settingsStore *settings.Store
	settingsCache *settings.Settings
}

// NewRegistry creates an empty registry. ignorePatterns come from config and
// extend the built-in defaults.
func NewRegistry(gitSvc git.Service, ignorePatterns []string) (*Registry, error) {
	patterns := append([]string{}, defaultIgnorePatterns...)
	patterns = append(patterns, ignorePatterns...)

	matcher, err := patternmatcher.New(patterns)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigValidation, "invalid ignore patterns")
	}

	return &Registry{
		logger:  logging.NewLogger("workspace"),
		gitSvc:  gitSvc,
		matcher: matcher,
	}, nil
}

// Select validates the directory, probes its git metadata and swaps the
// active workspace wholesale. Pending proposals from a previous workspace are
// not touched here; the proposal store decides their fate.
func (r *Registry) Select(ctx context.Context, path string) (Snapshot, error) {
	abs, err := pathutil.Expand(path)
	if err != nil {
		return Snapshot{}, errors.InvalidWorkspace(path, "path is not absolutizable")
	}

	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return Snapshot{}, errors.InvalidWorkspace(path, "directory does not exist")
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return Snapshot{}, errors.InvalidWorkspace(path, "directory is not accessible")
	}
	if !info.IsDir() {
		return Snapshot{}, errors.InvalidWorkspace(path, "not a directory")
	}

	// Prober failures degrade to absent metadata; selection never fails on git
	meta := r.gitSvc.ProbeRepository(ctx, resolved)

	store := settings.NewStore(resolved)
	loaded, err := store.Load()
	if err != nil {
		// A corrupt settings file must not block selection
		r.logger.WithError(err).Warn("Failed to load workspace settings, using defaults")
		loaded = settings.Defaults()
	}

	r.mu.Lock()
	r.root = resolved
	r.meta = meta
	r.settingsStore = store
	r.settingsCache = loaded
	r.mu.Unlock()

	r.logger.WithFields(logrus.Fields{
		"root":        resolved,
		"git_enabled": meta.GitEnabled,
		"branch":      meta.Branch,
	}).Info("Workspace selected")

	return Snapshot{Root: resolved, Meta: meta}, nil
}

// Current returns a snapshot of the active workspace, or an InvalidWorkspace
// error when none has been selected.
func (r *Registry) Current() (Snapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.root == "" {
		return Snapshot{}, errors.WorkspaceNotSelected()
	}
	return Snapshot{Root: r.root, Meta: r.meta}, nil
}

// ResolvePath resolves a workspace-relative path through the sandbox.
func (r *Registry) ResolvePath(rel string) (string, error) {
	snap, err := r.Current()
	if err != nil {
		return "", err
	}
	return Resolve(snap.Root, rel)
}

// Ignored reports whether a workspace-relative path matches the ignore
// patterns. Matcher errors count as not ignored.
func (r *Registry) Ignored(rel string) bool {
	matched, err := r.matcher.MatchesOrParentMatches(rel)
	if err != nil {
		return false
	}
	return matched
}

// Settings returns a copy of the cached workspace settings. Defaults are
// returned when no workspace is selected.
func (r *Registry) Settings() settings.Settings {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.settingsCache == nil {
		return *settings.Defaults()
	}
	copied := *r.settingsCache
	if copied.GitCredentialsOverride != nil {
		override := *copied.GitCredentialsOverride
		copied.GitCredentialsOverride = &override
	}
	return copied
}

// UpdateSettings persists new settings for the active workspace and refreshes
// the cache.
func (r *Registry) UpdateSettings(s *settings.Settings) error {
	r.mu.RLock()
	store := r.settingsStore
	r.mu.RUnlock()

	if store == nil {
		return errors.WorkspaceNotSelected()
	}
	if err := store.Save(s); err != nil {
		return err
	}

	r.mu.Lock()
	r.settingsCache = s
	r.mu.Unlock()
	return nil
}

// ReloadSettings re-reads the settings file into the cache. Used by the
// settings watcher when the file changes on disk.
func (r *Registry) ReloadSettings() {
	r.mu.RLock()
	store := r.settingsStore
	r.mu.RUnlock()

	if store == nil {
		return
	}

	loaded, err := store.Load()
	if err != nil {
		r.logger.WithError(err).Warn("Failed to reload workspace settings")
		return
	}

	r.mu.Lock()
	r.settingsCache = loaded
	r.mu.Unlock()
	r.logger.Debug("Workspace settings reloaded")
}

// SettingsDir returns the active workspace's .seriem directory, for the
// settings watcher.
func (r *Registry) SettingsDir() (string, error) {
	snap, err := r.Current()
	if err != nil {
		return "", err
	}
	return filepath.Join(snap.Root, ".seriem"), nil
}
