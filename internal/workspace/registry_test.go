package workspace

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/janschaeferjohann/seriem-agent/errors"
	"github.com/janschaeferjohann/seriem-agent/git"
	"github.com/janschaeferjohann/seriem-agent/internal/settings"
	"github.com/janschaeferjohann/seriem-agent/testutil"
)

// fakeGitService returns canned metadata without shelling out.
type fakeGitService struct {
	meta git.Metadata
}

func (f *fakeGitService) ProbeRepository(ctx context.Context, dir string) git.Metadata {
	return f.meta
}

func (f *fakeGitService) Status(ctx context.Context, path string) (*git.StatusInfo, error) {
	return &git.StatusInfo{Branch: f.meta.Branch}, nil
}

func (f *fakeGitService) StageAndCommit(ctx context.Context, root string, paths []string, message string, identity *git.Identity) error {
	return nil
}

func newTestRegistry(t *testing.T, meta git.Metadata, ignore []string) *Registry {
	t.Helper()
	reg, err := NewRegistry(&fakeGitService{meta: meta}, ignore)
	require.NoError(t, err)
	return reg
}

func TestRegistrySelect(t *testing.T) {
	ctx := context.Background()

	t.Run("valid directory", func(t *testing.T) {
		reg := newTestRegistry(t, git.Metadata{GitEnabled: true, Branch: "main", RemoteURL: "git@github.com:acme/widget.git"}, nil)
		dir := testutil.SetupWorkspace(t, false)

		snap, err := reg.Select(ctx, dir)
		require.NoError(t, err)
		assert.True(t, snap.Meta.GitEnabled)
		assert.Equal(t, "main", snap.Meta.Branch)
		assert.DirExists(t, snap.Root)

		current, err := reg.Current()
		require.NoError(t, err)
		assert.Equal(t, snap, current)
	})

	t.Run("missing directory", func(t *testing.T) {
		reg := newTestRegistry(t, git.Metadata{}, nil)

		_, err := reg.Select(ctx, "/does/not/exist")
		require.Error(t, err)
		assert.Equal(t, errors.ErrCodeInvalidWorkspace, errors.GetCode(err))
	})

	t.Run("file instead of directory", func(t *testing.T) {
		reg := newTestRegistry(t, git.Metadata{}, nil)
		dir := t.TempDir()
		file := filepath.Join(dir, "plain.txt")
		require.NoError(t, os.WriteFile(file, []byte("x"), 0600))

		_, err := reg.Select(ctx, file)
		require.Error(t, err)
		assert.Equal(t, errors.ErrCodeInvalidWorkspace, errors.GetCode(err))
	})

	t.Run("relative path is absolutized", func(t *testing.T) {
		reg := newTestRegistry(t, git.Metadata{}, nil)
		dir := t.TempDir()

		cwd, err := os.Getwd()
		require.NoError(t, err)
		require.NoError(t, os.Chdir(dir))
		defer func() { _ = os.Chdir(cwd) }()

		snap, err := reg.Select(ctx, ".")
		require.NoError(t, err)
		assert.True(t, filepath.IsAbs(snap.Root))
	})

	t.Run("switch swaps wholesale", func(t *testing.T) {
		reg := newTestRegistry(t, git.Metadata{GitEnabled: true, Branch: "main"}, nil)
		first := testutil.SetupWorkspace(t, false)
		second := testutil.SetupWorkspace(t, false)

		_, err := reg.Select(ctx, first)
		require.NoError(t, err)
		snap, err := reg.Select(ctx, second)
		require.NoError(t, err)

		current, err := reg.Current()
		require.NoError(t, err)
		assert.Equal(t, snap.Root, current.Root)
		assert.NotEqual(t, first, current.Root)
	})
}

func TestRegistrySelectRealGit(t *testing.T) {
	testutil.RequireGit(t)
	ctx := context.Background()

	reg, err := NewRegistry(git.NewCLIService(), nil)
	require.NoError(t, err)

	t.Run("git workspace", func(t *testing.T) {
		dir := testutil.SetupWorkspace(t, true)

		snap, err := reg.Select(ctx, dir)
		require.NoError(t, err)
		assert.True(t, snap.Meta.GitEnabled)
		assert.Equal(t, "main", snap.Meta.Branch)
	})

	t.Run("non-git workspace degrades", func(t *testing.T) {
		dir := testutil.SetupWorkspace(t, false)

		snap, err := reg.Select(ctx, dir)
		require.NoError(t, err)
		assert.False(t, snap.Meta.GitEnabled)
		assert.Empty(t, snap.Meta.Branch)
	})
}

func TestRegistryCurrentWithoutSelection(t *testing.T) {
	reg := newTestRegistry(t, git.Metadata{}, nil)

	_, err := reg.Current()
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeInvalidWorkspace, errors.GetCode(err))
}

func TestRegistryResolvePath(t *testing.T) {
	ctx := context.Background()
	reg := newTestRegistry(t, git.Metadata{}, nil)

	t.Run("without workspace", func(t *testing.T) {
		_, err := reg.ResolvePath("file.txt")
		assert.Error(t, err)
	})

	t.Run("with workspace", func(t *testing.T) {
		dir := testutil.SetupWorkspace(t, false)
		snap, err := reg.Select(ctx, dir)
		require.NoError(t, err)

		got, err := reg.ResolvePath("main.py")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(snap.Root, "main.py"), got)

		_, err = reg.ResolvePath("../escape")
		require.Error(t, err)
		assert.Equal(t, errors.ErrCodePathEscape, errors.GetCode(err))
	})
}

func TestRegistryIgnored(t *testing.T) {
	reg := newTestRegistry(t, git.Metadata{}, []string{"*.tmp", "build"})

	tests := []struct {
		rel  string
		want bool
	}{
		{".git", true},
		{".git/config", true},
		{".seriem", true},
		{".seriem/settings.json", true},
		{"node_modules", true},
		{"node_modules/lodash/index.js", true},
		{"scratch.tmp", true},
		{"build", true},
		{"build/out.bin", true},
		{"main.py", false},
		{"docs/notes.md", false},
	}

	for _, tt := range tests {
		t.Run(tt.rel, func(t *testing.T) {
			assert.Equal(t, tt.want, reg.Ignored(tt.rel))
		})
	}
}

func TestRegistrySettingsLifecycle(t *testing.T) {
	ctx := context.Background()
	reg := newTestRegistry(t, git.Metadata{}, nil)

	t.Run("defaults before selection", func(t *testing.T) {
		s := reg.Settings()
		assert.True(t, s.UseGlobalGitCredentials)
	})

	t.Run("update without workspace fails", func(t *testing.T) {
		err := reg.UpdateSettings(settings.Defaults())
		assert.Error(t, err)
	})

	dir := testutil.SetupWorkspace(t, false)
	_, err := reg.Select(ctx, dir)
	require.NoError(t, err)

	t.Run("update persists and caches", func(t *testing.T) {
		s := settings.Defaults()
		s.UseGlobalGitCredentials = false
		s.GitCredentialsOverride = &settings.GitCredentials{Name: "Seriem Bot", Email: "bot@seriem.dev"}
		require.NoError(t, reg.UpdateSettings(s))

		cached := reg.Settings()
		assert.False(t, cached.UseGlobalGitCredentials)
		require.NotNil(t, cached.GitCredentialsOverride)
		assert.Equal(t, "Seriem Bot", cached.GitCredentialsOverride.Name)

		// The file landed in the workspace
		snap, err := reg.Current()
		require.NoError(t, err)
		assert.FileExists(t, filepath.Join(snap.Root, ".seriem", "settings.json"))
	})

	t.Run("reload picks up external edits", func(t *testing.T) {
		snap, err := reg.Current()
		require.NoError(t, err)

		store := settings.NewStore(snap.Root)
		edited := settings.Defaults()
		edited.UseGlobalGitCredentials = true
		require.NoError(t, store.Save(edited))

		reg.ReloadSettings()
		assert.True(t, reg.Settings().UseGlobalGitCredentials)
	})

	t.Run("settings copy is isolated", func(t *testing.T) {
		first := reg.Settings()
		first.UseGlobalGitCredentials = !first.UseGlobalGitCredentials

		second := reg.Settings()
		assert.NotEqual(t, first.UseGlobalGitCredentials, second.UseGlobalGitCredentials)
	})
}

func TestRegistrySettingsDir(t *testing.T) {
	ctx := context.Background()
	reg := newTestRegistry(t, git.Metadata{}, nil)

	_, err := reg.SettingsDir()
	assert.Error(t, err)

	dir := testutil.SetupWorkspace(t, false)
	snap, err := reg.Select(ctx, dir)
	require.NoError(t, err)

	got, err := reg.SettingsDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(snap.Root, ".seriem"), got)
}
