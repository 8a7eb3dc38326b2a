package git

import (
	"context"
	"strings"
)

// Metadata describes what the prober learned about a workspace directory.
// The zero value means "not a git repository".
type Metadata struct {
	// GitEnabled reports whether the directory is inside a git work tree.
	GitEnabled bool `json:"git_enabled"`

	// RemoteURL is the origin remote URL, empty when no remote is configured.
	RemoteURL string `json:"remote_url,omitempty"`

	// Branch is the current branch name (or "HEAD" when detached).
	Branch string `json:"branch,omitempty"`
}

// ProbeRepository inspects the directory for git metadata. Each query is
// bounded by ProbeTimeout and failures degrade to absent metadata rather
// than errors: a workspace without git (or with a wedged git) must still be
// selectable.
func ProbeRepository(ctx context.Context, dir string) Metadata {
	var meta Metadata

	if _, err := runGit(ctx, dir, ProbeTimeout, "rev-parse", "--git-dir"); err != nil {
		return meta
	}
	meta.GitEnabled = true

	if branch, err := runGit(ctx, dir, ProbeTimeout, "rev-parse", "--abbrev-ref", "HEAD"); err == nil {
		meta.Branch = branch
	}

	if remote, err := runGit(ctx, dir, ProbeTimeout, "config", "--get", "remote.origin.url"); err == nil {
		meta.RemoteURL = remote
	}

	return meta
}

// RepoName derives a short display name from a git remote URL.
func RepoName(url string) string {
	url = strings.TrimSuffix(url, ".git")

	// SSH URLs (git@github.com:user/repo)
	if strings.HasPrefix(url, "git@") {
		parts := strings.Split(url, ":")
		if len(parts) >= 2 {
			url = parts[1]
		}
	}

	// Take the last path component
	parts := strings.Split(url, "/")
	if len(parts) > 0 && parts[len(parts)-1] != "" {
		return parts[len(parts)-1]
	}

	return "unknown"
}
