package settings

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	store := NewStore(t.TempDir())

	s, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, CurrentSchemaVersion, s.SchemaVersion)
	assert.True(t, s.UseGlobalGitCredentials)
	assert.Nil(t, s.GitCredentialsOverride)
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	root := t.TempDir()
	store := NewStore(root)

	s := Defaults()
	s.UseGlobalGitCredentials = false
	s.GitCredentialsOverride = &GitCredentials{Name: "Seriem Bot", Email: "bot@seriem.dev"}
	require.NoError(t, store.Save(s))

	// File lands under .seriem with restricted permissions
	path := filepath.Join(root, ".seriem", "settings.json")
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.False(t, loaded.UseGlobalGitCredentials)
	require.NotNil(t, loaded.GitCredentialsOverride)
	assert.Equal(t, "Seriem Bot", loaded.GitCredentialsOverride.Name)
	assert.Equal(t, "bot@seriem.dev", loaded.GitCredentialsOverride.Email)
}

func TestLoadBackfillsOldSchema(t *testing.T) {
	root := t.TempDir()
	store := NewStore(root)

	// A version-zero file that predates use_global_git_credentials
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".seriem"), 0755))
	old := []byte(`{"schema_version": 0}`)
	require.NoError(t, os.WriteFile(store.Path(), old, 0600))

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, CurrentSchemaVersion, loaded.SchemaVersion)
	assert.True(t, loaded.UseGlobalGitCredentials, "absent fields take their defaults")
}

func TestLoadInvalidJSON(t *testing.T) {
	root := t.TempDir()
	store := NewStore(root)

	require.NoError(t, os.MkdirAll(filepath.Join(root, ".seriem"), 0755))
	require.NoError(t, os.WriteFile(store.Path(), []byte("{not json"), 0600))

	_, err := store.Load()
	assert.Error(t, err)
}

func TestCommitIdentity(t *testing.T) {
	t.Run("global credentials", func(t *testing.T) {
		s := Defaults()
		_, _, ok := s.CommitIdentity()
		assert.False(t, ok)
	})

	t.Run("override without credentials", func(t *testing.T) {
		s := Defaults()
		s.UseGlobalGitCredentials = false
		_, _, ok := s.CommitIdentity()
		assert.False(t, ok)
	})

	t.Run("override with credentials", func(t *testing.T) {
		s := Defaults()
		s.UseGlobalGitCredentials = false
		s.GitCredentialsOverride = &GitCredentials{Name: "Seriem Bot", Email: "bot@seriem.dev"}
		name, email, ok := s.CommitIdentity()
		assert.True(t, ok)
		assert.Equal(t, "Seriem Bot", name)
		assert.Equal(t, "bot@seriem.dev", email)
	})

	t.Run("nil settings", func(t *testing.T) {
		var s *Settings
		_, _, ok := s.CommitIdentity()
		assert.False(t, ok)
	})
}

func TestSavedFileShape(t *testing.T) {
	root := t.TempDir()
	store := NewStore(root)
	require.NoError(t, store.Save(Defaults()))

	data, err := os.ReadFile(store.Path())
	require.NoError(t, err)

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Contains(t, raw, "schema_version")
	assert.Contains(t, raw, "use_global_git_credentials")
	assert.NotContains(t, raw, "git_credentials_override", "empty override is omitted")
}
