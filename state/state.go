// Package state persists small pieces of daemon state between restarts, such
// as the most recently selected workspace. The state file is a flat YAML map
// under the seriem state directory; losing it costs nothing but convenience.
package state

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/janschaeferjohann/seriem-agent/pkg/paths"
)

// KeyLastWorkspace stores the root of the most recently selected workspace.
const KeyLastWorkspace = "workspace.last_root"

// State is a generic key-value map. Values survive a YAML round trip, so
// stick to strings, numbers, bools and nested maps.
type State map[string]interface{}

func filePath() (string, error) {
	dir := paths.StateDir()
	if dir == "" {
		return "", fmt.Errorf("state directory is not resolvable")
	}
	return filepath.Join(dir, "state.yml"), nil
}

// Load reads the state file. A missing file yields an empty state.
func Load() (State, error) {
	path, err := filePath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		return State{}, nil
	case err != nil:
		return nil, fmt.Errorf("read state file: %w", err)
	}

	st := State{}
	if err := yaml.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("parse state file: %w", err)
	}
	if st == nil {
		st = State{}
	}
	return st, nil
}

// Save writes the state file, creating the state directory if needed.
func Save(st State) error {
	path, err := filePath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}

	data, err := yaml.Marshal(st)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write state file: %w", err)
	}
	return nil
}

// update applies fn to the loaded state and writes the result back.
func update(fn func(State)) error {
	st, err := Load()
	if err != nil {
		return err
	}
	fn(st)
	return Save(st)
}

// Get retrieves a value by key. The second return is false when the key is
// absent.
func Get(key string) (interface{}, bool, error) {
	st, err := Load()
	if err != nil {
		return nil, false, err
	}
	val, ok := st[key]
	return val, ok, nil
}

// GetString returns the string value for key, or "" when the key is absent
// or holds a non-string.
func GetString(key string) (string, error) {
	val, _, err := Get(key)
	if err != nil {
		return "", err
	}
	s, _ := val.(string)
	return s, nil
}

// Set stores a value under key.
func Set(key string, value interface{}) error {
	return update(func(st State) { st[key] = value })
}

// Delete removes a key. Deleting an absent key is not an error.
func Delete(key string) error {
	return update(func(st State) { delete(st, key) })
}
