package agent

import (
	"context"
	"fmt"
	"os"
	pathpkg "path"
	"strings"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"github.com/janschaeferjohann/seriem-agent/errors"
	"github.com/janschaeferjohann/seriem-agent/internal/proposals"
	"github.com/janschaeferjohann/seriem-agent/internal/workspace"
	"github.com/janschaeferjohann/seriem-agent/logging"
)

// FilesystemTools exposes the workspace to the agent. Reads go straight
// through the sandbox; every mutation except directory deletion becomes a
// pending proposal instead of touching disk.
type FilesystemTools struct {
	workspaces *workspace.Registry
	store      *proposals.Store
	logger     *logrus.Entry
}

// NewFilesystemTools wires the toolset against a workspace registry and
// proposal store.
func NewFilesystemTools(workspaces *workspace.Registry, store *proposals.Store) *FilesystemTools {
	return &FilesystemTools{
		workspaces: workspaces,
		store:      store,
		logger:     logging.NewLogger("tools"),
	}
}

// RegisterAll adds the filesystem tools to a registry.
func (ft *FilesystemTools) RegisterAll(r *Registry) {
	r.Register(Tool{
		Name:        "ls",
		Description: "List directory contents. Defaults to the workspace root.",
		Handler:     ft.ls,
	})
	r.Register(Tool{
		Name:        "read_file",
		Description: "Read the contents of a file.",
		Handler:     ft.readFile,
	})
	r.Register(Tool{
		Name:        "write_file",
		Description: "Write content to a file. Creates the file if it doesn't exist, overwrites if it does. Creates a proposal that must be approved by the user before changes are applied.",
		Handler:     ft.writeFile,
	})
	r.Register(Tool{
		Name:        "edit_file",
		Description: "Edit a file by replacing a string. The old_str must match exactly once. Creates a proposal that must be approved by the user before changes are applied.",
		Handler:     ft.editFile,
	})
	r.Register(Tool{
		Name:        "delete_file",
		Description: "Delete a file from the workspace. Creates a proposal that must be approved by the user before the file is deleted.",
		Handler:     ft.deleteFile,
	})
	r.Register(Tool{
		Name:        "delete_directory",
		Description: "Delete a directory. Only deletes non-empty directories when recursive is true.",
		Handler:     ft.deleteDirectory,
	})
}

type lsArgs struct {
	Path string `json:"path"`
}

func (ft *FilesystemTools) ls(_ context.Context, args map[string]any) (string, error) {
	var in lsArgs
	if err := decodeArgs(args, &in); err != nil {
		return "", err
	}
	if in.Path == "" {
		in.Path = "."
	}

	target, err := ft.workspaces.ResolvePath(in.Path)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(target)
	if os.IsNotExist(err) {
		return fmt.Sprintf("Error: Directory '%s' does not exist", in.Path), nil
	}
	if err != nil {
		return "", err
	}
	if !info.IsDir() {
		return fmt.Sprintf("Error: '%s' is not a directory", in.Path), nil
	}

	entries, err := os.ReadDir(target)
	if err != nil {
		return "", err
	}

	// ReadDir returns entries sorted by name; keep that order.
	rel := strings.TrimLeft(strings.ReplaceAll(in.Path, "\\", "/"), "/")
	var lines []string
	for _, entry := range entries {
		if ft.workspaces.Ignored(pathpkg.Join(rel, entry.Name())) {
			continue
		}
		if entry.IsDir() {
			lines = append(lines, fmt.Sprintf("[DIR]  %s/", entry.Name()))
		} else {
			size := int64(0)
			if fi, err := entry.Info(); err == nil {
				size = fi.Size()
			}
			lines = append(lines, fmt.Sprintf("[FILE] %s (%d bytes)", entry.Name(), size))
		}
	}

	if len(lines) == 0 {
		return fmt.Sprintf("Directory '%s' is empty", in.Path), nil
	}
	return strings.Join(lines, "\n"), nil
}

type readFileArgs struct {
	Path string `json:"path"`
}

func (ft *FilesystemTools) readFile(_ context.Context, args map[string]any) (string, error) {
	var in readFileArgs
	if err := decodeArgs(args, &in); err != nil {
		return "", err
	}

	target, err := ft.workspaces.ResolvePath(in.Path)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(target)
	if os.IsNotExist(err) {
		return fmt.Sprintf("Error: File '%s' does not exist", in.Path), nil
	}
	if err != nil {
		return "", err
	}
	if info.IsDir() {
		return fmt.Sprintf("Error: '%s' is not a file", in.Path), nil
	}

	data, err := os.ReadFile(target)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(data) {
		return fmt.Sprintf("Error: File '%s' is not a text file", in.Path), nil
	}
	if len(data) == 0 {
		return "(empty file)", nil
	}
	return string(data), nil
}

type writeFileArgs struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

func (ft *FilesystemTools) writeFile(_ context.Context, args map[string]any) (string, error) {
	var in writeFileArgs
	if err := decodeArgs(args, &in); err != nil {
		return "", err
	}

	target, err := ft.workspaces.ResolvePath(in.Path)
	if err != nil {
		return "", err
	}

	change := proposals.FileChange{
		Path:      in.Path,
		Operation: proposals.OperationCreate,
		After:     &in.Content,
	}
	verb := "create"

	if info, err := os.Stat(target); err == nil && !info.IsDir() {
		data, err := os.ReadFile(target)
		if err != nil {
			return "", err
		}
		if !utf8.Valid(data) {
			return fmt.Sprintf("Error: Cannot modify '%s' - it is not a text file", in.Path), nil
		}
		before := string(data)
		change.Operation = proposals.OperationUpdate
		change.Before = &before
		verb = "update"
	}

	p, err := ft.store.Create("", []proposals.FileChange{change})
	if err != nil {
		return "", err
	}

	ft.logger.WithFields(logrus.Fields{
		"proposal_id": p.ID,
		"path":        in.Path,
		"operation":   verb,
	}).Info("Proposal created by tool")

	return fmt.Sprintf("Proposed %s to '%s' (proposal_id: %s). Awaiting user approval.", verb, in.Path, p.ID), nil
}

type editFileArgs struct {
	Path   string `json:"path"`
	OldStr string `json:"old_str"`
	NewStr string `json:"new_str"`
}

func (ft *FilesystemTools) editFile(_ context.Context, args map[string]any) (string, error) {
	var in editFileArgs
	if err := decodeArgs(args, &in); err != nil {
		return "", err
	}

	target, err := ft.workspaces.ResolvePath(in.Path)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(target)
	if os.IsNotExist(err) {
		return fmt.Sprintf("Error: File '%s' does not exist", in.Path), nil
	}
	if err != nil {
		return "", err
	}
	if info.IsDir() {
		return fmt.Sprintf("Error: '%s' is not a file", in.Path), nil
	}

	data, err := os.ReadFile(target)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(data) {
		return fmt.Sprintf("Error: File '%s' is not a text file", in.Path), nil
	}
	content := string(data)

	count := strings.Count(content, in.OldStr)
	if in.OldStr == "" || count == 0 {
		return fmt.Sprintf("Error: Could not find the specified text in '%s'", in.Path), nil
	}
	if count > 1 {
		return "", errors.AmbiguousEdit(in.Path, count)
	}

	after := strings.Replace(content, in.OldStr, in.NewStr, 1)
	p, err := ft.store.Create(
		fmt.Sprintf("Edit %s: replace text", in.Path),
		[]proposals.FileChange{{
			Path:      in.Path,
			Operation: proposals.OperationUpdate,
			Before:    &content,
			After:     &after,
		}},
	)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("Proposed edit to '%s' (proposal_id: %s). Awaiting user approval.", in.Path, p.ID), nil
}

type deleteFileArgs struct {
	Path string `json:"path"`
}

func (ft *FilesystemTools) deleteFile(_ context.Context, args map[string]any) (string, error) {
	var in deleteFileArgs
	if err := decodeArgs(args, &in); err != nil {
		return "", err
	}

	target, err := ft.workspaces.ResolvePath(in.Path)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(target)
	if os.IsNotExist(err) {
		return fmt.Sprintf("Error: File '%s' does not exist", in.Path), nil
	}
	if err != nil {
		return "", err
	}
	if info.IsDir() {
		return fmt.Sprintf("Error: '%s' is not a file. Use delete_directory for directories.", in.Path), nil
	}

	data, err := os.ReadFile(target)
	if err != nil {
		return "", err
	}
	before := "(binary file)"
	if utf8.Valid(data) {
		before = string(data)
	}

	p, err := ft.store.Create("", []proposals.FileChange{{
		Path:      in.Path,
		Operation: proposals.OperationDelete,
		Before:    &before,
	}})
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("Proposed deletion of '%s' (proposal_id: %s). Awaiting user approval.", in.Path, p.ID), nil
}

type deleteDirectoryArgs struct {
	Path      string `json:"path"`
	Recursive bool   `json:"recursive"`
}

func (ft *FilesystemTools) deleteDirectory(_ context.Context, args map[string]any) (string, error) {
	var in deleteDirectoryArgs
	if err := decodeArgs(args, &in); err != nil {
		return "", err
	}

	snapshot, err := ft.workspaces.Current()
	if err != nil {
		return "", err
	}
	target, err := workspace.Resolve(snapshot.Root, in.Path)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(target)
	if os.IsNotExist(err) {
		return fmt.Sprintf("Error: Directory '%s' does not exist", in.Path), nil
	}
	if err != nil {
		return "", err
	}
	if !info.IsDir() {
		return fmt.Sprintf("Error: '%s' is not a directory. Use delete_file for files.", in.Path), nil
	}
	if target == snapshot.Root {
		return "Error: Cannot delete the workspace root directory", nil
	}

	if in.Recursive {
		if err := os.RemoveAll(target); err != nil {
			if os.IsPermission(err) {
				return fmt.Sprintf("Error: Permission denied to delete '%s'", in.Path), nil
			}
			return "", err
		}
		return fmt.Sprintf("Successfully deleted directory '%s' and all its contents", in.Path), nil
	}

	entries, err := os.ReadDir(target)
	if err != nil {
		return "", err
	}
	if len(entries) > 0 {
		return fmt.Sprintf("Error: Directory '%s' is not empty. Set recursive=True to delete with contents.", in.Path), nil
	}
	if err := os.Remove(target); err != nil {
		if os.IsPermission(err) {
			return fmt.Sprintf("Error: Permission denied to delete '%s'", in.Path), nil
		}
		return "", err
	}
	return fmt.Sprintf("Successfully deleted empty directory '%s'", in.Path), nil
}
