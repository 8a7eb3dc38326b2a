// Package workspace confines all agent file access to a single selected
// directory. The sandbox resolves agent-supplied relative paths against the
// workspace root and rejects anything that lands outside it; the registry
// tracks which directory is active and what git knows about it.
package workspace

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/janschaeferjohann/seriem-agent/errors"
)

// Resolve maps an agent-supplied path onto an absolute path inside root.
// Empty and "/" mean the root itself. Leading separators are stripped so
// absolute-looking inputs are treated as workspace-relative. The result is
// fully normalized — symlinks and ".." segments resolved — and must be the
// root or a descendant of it, otherwise a PathEscape error is returned.
func Resolve(root, rel string) (string, error) {
	resolvedRoot, err := resolveExisting(root)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeInvalidWorkspace, "workspace root is not resolvable").
			WithDetail("root", root)
	}

	// Backslashes count as separators so Windows-style input cannot smuggle
	// segments past the checks below
	rel = strings.ReplaceAll(rel, "\\", "/")
	rel = strings.TrimLeft(rel, "/")
	if rel == "" {
		return resolvedRoot, nil
	}

	candidate := filepath.Join(resolvedRoot, filepath.FromSlash(rel))

	resolved, err := resolveExisting(candidate)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeInvalidInput, "cannot resolve path").
			WithDetail("path", rel)
	}

	if resolved != resolvedRoot && !strings.HasPrefix(resolved, resolvedRoot+string(filepath.Separator)) {
		return "", errors.PathEscape(rel)
	}

	return resolved, nil
}

// resolveExisting normalizes a path with symlinks resolved. Paths that do not
// exist yet (proposal targets) are resolved up to their deepest existing
// ancestor, with the remaining segments appended lexically — a tail that does
// not exist cannot contain symlinks.
func resolveExisting(path string) (string, error) {
	path = filepath.Clean(path)

	var suffix []string
	cur := path
	for {
		resolved, err := filepath.EvalSymlinks(cur)
		if err == nil {
			for i := len(suffix) - 1; i >= 0; i-- {
				resolved = filepath.Join(resolved, suffix[i])
			}
			return resolved, nil
		}
		if !os.IsNotExist(err) {
			return "", err
		}

		parent := filepath.Dir(cur)
		if parent == cur {
			// Ran out of ancestors; nothing on this path exists
			return path, nil
		}
		suffix = append(suffix, filepath.Base(cur))
		cur = parent
	}
}
