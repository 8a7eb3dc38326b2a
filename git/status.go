package git

import (
	"context"
	stderrors "errors"
	"os/exec"
	"strconv"
	"strings"

	"github.com/janschaeferjohann/seriem-agent/errors"
)

// StatusInfo is the parsed state of a repository's branch and working tree.
// LinesAdded and LinesDeleted sum the unstaged and staged diffs.
type StatusInfo struct {
	Branch         string `json:"branch"`
	AheadCount     int    `json:"ahead_count"`
	BehindCount    int    `json:"behind_count"`
	ModifiedCount  int    `json:"modified_count"`
	UntrackedCount int    `json:"untracked_count"`
	StagedCount    int    `json:"staged_count"`
	LinesAdded     int    `json:"lines_added"`
	LinesDeleted   int    `json:"lines_deleted"`
	IsDirty        bool   `json:"is_dirty"`
	HasUpstream    bool   `json:"has_upstream"`
}

// Status reports branch, tracking and change counts for the repository at
// path. Everything comes from a single `git status --porcelain=v2 --branch`
// call plus two numstat diffs for the line counts.
func Status(ctx context.Context, path string) (*StatusInfo, error) {
	out, err := runGit(ctx, path, ProbeTimeout, "status", "--porcelain=v2", "--branch")
	if err != nil {
		var exitErr *exec.ExitError
		if stderrors.As(err, &exitErr) && strings.Contains(string(exitErr.Stderr), "not a git repository") {
			return nil, errors.New(errors.ErrCodeCommandFailed, "not a git repository").
				WithDetail("path", path)
		}
		return nil, errors.Wrap(err, errors.ErrCodeCommandFailed, "git status failed").
			WithDetail("path", path)
	}

	st := parsePorcelain(out)

	// Line counts are informational; failures here don't fail the call.
	for _, args := range [][]string{
		{"diff", "--numstat"},
		{"diff", "--cached", "--numstat"},
	} {
		if diffOut, err := runGit(ctx, path, ProbeTimeout, args...); err == nil {
			added, deleted := parseNumstat(diffOut)
			st.LinesAdded += added
			st.LinesDeleted += deleted
		}
	}

	return st, nil
}

// parsePorcelain reads `git status --porcelain=v2 --branch` output: header
// lines describe the branch, everything else is a change entry.
func parsePorcelain(out string) *StatusInfo {
	st := &StatusInfo{}
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		if fields[0] == "#" {
			applyHeader(st, fields)
		} else {
			applyEntry(st, fields)
		}
	}
	st.IsDirty = st.ModifiedCount > 0 || st.UntrackedCount > 0 || st.StagedCount > 0
	return st
}

func applyHeader(st *StatusInfo, fields []string) {
	if len(fields) < 3 {
		return
	}
	switch fields[1] {
	case "branch.head":
		st.Branch = fields[2]
	case "branch.upstream":
		st.HasUpstream = true
	case "branch.ab":
		// "# branch.ab +<ahead> -<behind>"
		st.AheadCount, _ = strconv.Atoi(strings.TrimPrefix(fields[2], "+"))
		if len(fields) > 3 {
			st.BehindCount, _ = strconv.Atoi(strings.TrimPrefix(fields[3], "-"))
		}
	}
}

func applyEntry(st *StatusInfo, fields []string) {
	switch fields[0] {
	case "?":
		st.UntrackedCount++
	case "1", "2": // ordinary and rename/copy entries
		if len(fields) < 2 || len(fields[1]) < 2 {
			return
		}
		// The XY pair: X is the index state, Y the working tree; '.' is clean.
		xy := fields[1]
		if xy[0] != '.' {
			st.StagedCount++
		}
		if xy[1] != '.' {
			st.ModifiedCount++
		}
	case "u", "U": // unmerged counts on both sides
		st.StagedCount++
		st.ModifiedCount++
	}
}

// parseNumstat sums the added and deleted columns of `git diff --numstat`
// output. Binary files report "-" in both columns and fail the Atoi, which
// skips them.
func parseNumstat(output string) (added, deleted int) {
	for _, line := range strings.Split(output, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		if n, err := strconv.Atoi(fields[0]); err == nil {
			added += n
		}
		if n, err := strconv.Atoi(fields[1]); err == nil {
			deleted += n
		}
	}
	return added, deleted
}
