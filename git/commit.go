package git

import (
	"context"
	"fmt"

	"github.com/janschaeferjohann/seriem-agent/command"
	"github.com/janschaeferjohann/seriem-agent/errors"
)

// Identity overrides the committer identity for a single commit. A nil
// identity means the repository's own configuration applies.
type Identity struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// StageAndCommit stages the given workspace-relative paths and commits them
// with the given message. When identity is non-nil the commit runs with
// user.name/user.email overridden via -c so global git credentials stay
// untouched.
func StageAndCommit(ctx context.Context, root string, paths []string, message string, identity *Identity) error {
	if len(paths) == 0 {
		return nil
	}

	cmdBuilder := command.NewSafeBuilder()
	for _, p := range paths {
		if err := cmdBuilder.Validate("stagePath", p); err != nil {
			return errors.Wrap(err, errors.ErrCodeInvalidInput, "refusing to stage path").
				WithDetail("path", p)
		}
	}
	if err := cmdBuilder.Validate("commitMessage", message); err != nil {
		return errors.Wrap(err, errors.ErrCodeInvalidInput, "invalid commit message")
	}

	addArgs := append([]string{"add", "--"}, paths...)
	if _, err := runGit(ctx, root, StageTimeout, addArgs...); err != nil {
		return errors.Wrap(err, errors.ErrCodeCommandFailed, "git add failed").
			WithDetail("root", root)
	}

	commitArgs := []string{}
	if identity != nil {
		commitArgs = append(commitArgs,
			"-c", fmt.Sprintf("user.name=%s", identity.Name),
			"-c", fmt.Sprintf("user.email=%s", identity.Email),
		)
	}
	commitArgs = append(commitArgs, "commit", "-m", message)
	if _, err := runGit(ctx, root, CommitTimeout, commitArgs...); err != nil {
		return errors.Wrap(err, errors.ErrCodeCommandFailed, "git commit failed").
			WithDetail("root", root)
	}

	return nil
}
