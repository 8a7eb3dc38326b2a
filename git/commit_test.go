package git

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/janschaeferjohann/seriem-agent/testutil"
)

func gitOutput(t *testing.T, dir string, args ...string) string {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	out, err := cmd.Output()
	require.NoError(t, err, "git %s failed", strings.Join(args, " "))
	return strings.TrimSpace(string(out))
}

func TestStageAndCommit(t *testing.T) {
	ctx := context.Background()

	t.Run("commits staged paths", func(t *testing.T) {
		dir := t.TempDir()
		testutil.InitGitRepo(t, dir)

		require.NoError(t, os.WriteFile(filepath.Join(dir, "app.py"), []byte("print(1)\n"), 0644))
		require.NoError(t, os.MkdirAll(filepath.Join(dir, "docs"), 0755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "docs", "notes.md"), []byte("# notes\n"), 0644))

		err := StageAndCommit(ctx, dir, []string{"app.py", "docs/notes.md"}, "Apply proposal a1b2c3d4", nil)
		require.NoError(t, err)

		subject := gitOutput(t, dir, "log", "-1", "--pretty=%s")
		assert.Equal(t, "Apply proposal a1b2c3d4", subject)

		status := gitOutput(t, dir, "status", "--porcelain")
		assert.Empty(t, status, "working tree should be clean after commit")
	})

	t.Run("stages deletions", func(t *testing.T) {
		dir := t.TempDir()
		testutil.InitGitRepo(t, dir)
		testutil.CreateCommit(t, dir, "obsolete.txt", "old\n")

		require.NoError(t, os.Remove(filepath.Join(dir, "obsolete.txt")))

		err := StageAndCommit(ctx, dir, []string{"obsolete.txt"}, "Apply proposal deadbeef", nil)
		require.NoError(t, err)

		status := gitOutput(t, dir, "status", "--porcelain")
		assert.Empty(t, status)
	})

	t.Run("identity override", func(t *testing.T) {
		dir := t.TempDir()
		testutil.InitGitRepo(t, dir)

		require.NoError(t, os.WriteFile(filepath.Join(dir, "app.py"), []byte("print(2)\n"), 0644))

		identity := &Identity{Name: "Seriem Bot", Email: "bot@seriem.dev"}
		err := StageAndCommit(ctx, dir, []string{"app.py"}, "Apply proposal cafe0001", identity)
		require.NoError(t, err)

		author := gitOutput(t, dir, "log", "-1", "--pretty=%an <%ae>")
		assert.Equal(t, "Seriem Bot <bot@seriem.dev>", author)

		// The repo's own config is untouched
		name := gitOutput(t, dir, "config", "user.name")
		assert.Equal(t, "Test User", name)
	})

	t.Run("no paths is a no-op", func(t *testing.T) {
		dir := t.TempDir()
		testutil.InitGitRepo(t, dir)

		before := gitOutput(t, dir, "rev-parse", "HEAD")
		require.NoError(t, StageAndCommit(ctx, dir, nil, "Apply proposal 00000000", nil))
		after := gitOutput(t, dir, "rev-parse", "HEAD")
		assert.Equal(t, before, after)
	})

	t.Run("rejects traversal paths", func(t *testing.T) {
		dir := t.TempDir()
		testutil.InitGitRepo(t, dir)

		err := StageAndCommit(ctx, dir, []string{"../outside.txt"}, "Apply proposal ffffffff", nil)
		assert.Error(t, err)
	})

	t.Run("nothing to commit surfaces an error", func(t *testing.T) {
		dir := t.TempDir()
		testutil.InitGitRepo(t, dir)

		err := StageAndCommit(ctx, dir, []string{"README.md"}, "Apply proposal 12345678", nil)
		assert.Error(t, err, "committing an unchanged file should fail")
	})
}
