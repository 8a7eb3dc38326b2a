package errors

import (
	"fmt"
	"os/exec"
)

// PathEscape creates an error for a path resolving outside the workspace root
func PathEscape(path string) *SeriemError {
	return New(ErrCodePathEscape, fmt.Sprintf("path '%s' escapes the workspace root", path)).
		WithDetail("path", path)
}

// InvalidWorkspace creates an error for selecting an unusable workspace path
func InvalidWorkspace(path string, reason string) *SeriemError {
	return New(ErrCodeInvalidWorkspace, fmt.Sprintf("invalid workspace '%s': %s", path, reason)).
		WithDetail("path", path)
}

// ProposalNotFound creates an error for an unknown proposal identifier
func ProposalNotFound(id string) *SeriemError {
	return New(ErrCodeNotFound, fmt.Sprintf("proposal %s not found", id)).
		WithDetail("proposalId", id)
}

// WorkspaceNotSelected creates an error for operations that need an active workspace
func WorkspaceNotSelected() *SeriemError {
	return New(ErrCodeInvalidWorkspace, "no workspace selected")
}

// AmbiguousEdit creates an error for an edit target that occurs more than
// once. The message is agent-facing: it tells the model how to retry.
func AmbiguousEdit(path string, count int) *SeriemError {
	return New(ErrCodeAmbiguousEdit,
		fmt.Sprintf("Found %d occurrences of the text. Please provide more context to make it unique.", count)).
		WithDetail("path", path).
		WithDetail("occurrences", count)
}

// ApplyFailed creates an error for a disk failure while applying a proposal.
// The applied slice records the paths written before the failure.
func ApplyFailed(err error, id string, applied []string) *SeriemError {
	return Wrap(err, ErrCodeApplyFailure, fmt.Sprintf("failed to apply proposal %s", id)).
		WithDetail("proposalId", id).
		WithDetail("appliedPaths", applied)
}

// TransportFailure creates an error for an agent/collaborator failure during a turn
func TransportFailure(err error, stage string) *SeriemError {
	return Wrap(err, ErrCodeTransport, fmt.Sprintf("agent transport failed during %s", stage)).
		WithDetail("stage", stage)
}

// ConfigNotFound creates a configuration not found error
func ConfigNotFound(path string) *SeriemError {
	return New(ErrCodeConfigNotFound, fmt.Sprintf("configuration file not found: %s", path)).
		WithDetail("path", path)
}

// ConfigInvalid creates an invalid configuration error
func ConfigInvalid(reason string) *SeriemError {
	return New(ErrCodeConfigInvalid, fmt.Sprintf("invalid configuration: %s", reason))
}

// CommandFailed creates a command execution failure error
func CommandFailed(cmd string, err error) *SeriemError {
	serr := Wrap(err, ErrCodeCommandFailed, fmt.Sprintf("command failed: %s", cmd)).
		WithDetail("command", cmd)

	// Extract exit code if available
	if exitErr, ok := err.(*exec.ExitError); ok {
		serr = serr.WithDetail("exitCode", exitErr.ExitCode())
	}

	return serr
}
