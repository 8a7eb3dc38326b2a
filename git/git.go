// Package git shells out to the git CLI for the small set of operations the
// daemon needs: probing a workspace's repository metadata, summarizing status,
// and committing applied proposals. All operations carry bounded timeouts.
package git

import (
	"context"
	"strings"
	"time"

	"github.com/janschaeferjohann/seriem-agent/command"
)

const (
	// ProbeTimeout bounds each metadata query during workspace selection.
	ProbeTimeout = 5 * time.Second

	// StageTimeout bounds git add when committing an applied proposal.
	StageTimeout = 10 * time.Second

	// CommitTimeout bounds git commit when committing an applied proposal.
	CommitTimeout = 30 * time.Second
)

// runGit runs a git command in dir with the given timeout and returns its
// trimmed stdout.
func runGit(ctx context.Context, dir string, timeout time.Duration, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmdBuilder := command.NewSafeBuilder()
	cmd, err := cmdBuilder.Build(ctx, "git", args...)
	if err != nil {
		return "", err
	}

	execCmd := cmd.Exec()
	execCmd.Dir = dir

	output, err := execCmd.Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(output)), nil
}
