// Package settings persists per-workspace preferences under
// <root>/.seriem/settings.json.
package settings

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/janschaeferjohann/seriem-agent/errors"
	"github.com/janschaeferjohann/seriem-agent/logging"
)

// CurrentSchemaVersion is written to new settings files. Older files are
// backfilled on load.
const CurrentSchemaVersion = 1

// settingsDir is the workspace-local dot directory.
const settingsDir = ".seriem"

// FileName is the settings file's basename, exported for the watcher's
// event filter.
const FileName = "settings.json"

// GitCredentials is a committer identity for proposal commits.
type GitCredentials struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Settings are the per-workspace preferences.
type Settings struct {
	SchemaVersion int `json:"schema_version"`

	// UseGlobalGitCredentials selects the repository's own git identity for
	// proposal commits. When false, GitCredentialsOverride applies.
	UseGlobalGitCredentials bool `json:"use_global_git_credentials"`

	// GitCredentialsOverride is the identity used when
	// UseGlobalGitCredentials is false.
	GitCredentialsOverride *GitCredentials `json:"git_credentials_override,omitempty"`
}

// Defaults returns the settings a fresh workspace starts with.
func Defaults() *Settings {
	return &Settings{
		SchemaVersion:           CurrentSchemaVersion,
		UseGlobalGitCredentials: true,
	}
}

// CommitIdentity returns the name/email pair to commit with, or ok=false when
// the repository's own configuration should apply.
func (s *Settings) CommitIdentity() (name, email string, ok bool) {
	if s == nil || s.UseGlobalGitCredentials || s.GitCredentialsOverride == nil {
		return "", "", false
	}
	return s.GitCredentialsOverride.Name, s.GitCredentialsOverride.Email, true
}

// Store reads and writes the settings file of one workspace root.
type Store struct {
	mu     sync.Mutex
	path   string
	logger *logrus.Entry
}

// NewStore creates a store bound to the given workspace root.
func NewStore(root string) *Store {
	return &Store{
		path:   filepath.Join(root, settingsDir, FileName),
		logger: logging.NewLogger("settings"),
	}
}

// Path returns the settings file location.
func (s *Store) Path() string {
	return s.path
}

// Load reads the settings file. A missing file yields defaults. Files written
// by older versions are backfilled: unknown-at-the-time fields keep their
// default values and the schema version is bumped in memory (persisted on the
// next Save).
func (s *Store) Load() (*Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return Defaults(), nil
		}
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to read workspace settings").
			WithDetail("path", s.path)
	}

	// Start from defaults so fields absent in old files keep their default
	// values instead of Go zero values
	loaded := Defaults()
	if err := json.Unmarshal(data, loaded); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "workspace settings file is not valid JSON").
			WithDetail("path", s.path)
	}

	if loaded.SchemaVersion < CurrentSchemaVersion {
		s.logger.Warnf("Backfilling workspace settings from schema %d to %d", loaded.SchemaVersion, CurrentSchemaVersion)
		loaded.SchemaVersion = CurrentSchemaVersion
	}

	return loaded, nil
}

// Save writes the settings file, creating the .seriem directory if needed.
func (s *Store) Save(settings *Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if settings.SchemaVersion == 0 {
		settings.SchemaVersion = CurrentSchemaVersion
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to create settings directory").
			WithDetail("path", filepath.Dir(s.path))
	}

	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to encode workspace settings")
	}
	data = append(data, '\n')

	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to write workspace settings").
			WithDetail("path", s.path)
	}
	return nil
}
