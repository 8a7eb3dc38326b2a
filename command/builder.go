package command

import (
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strings"
	"time"
)

const (
	// DefaultTimeout is the default command execution timeout
	DefaultTimeout = 2 * time.Minute

	// MaxTimeout is the maximum allowed timeout
	MaxTimeout = 10 * time.Minute
)

// Executor creates exec.Cmd instances. This abstraction allows for dependency
// injection, enabling test-specific command creation logic (e.g., setting up
// a PATH with a stub git binary) without modifying production code.
type Executor interface {
	// Command creates a new exec.Cmd instance for the given command and arguments.
	Command(name string, args ...string) *exec.Cmd

	// CommandContext creates a new context-aware exec.Cmd instance.
	CommandContext(ctx context.Context, name string, args ...string) *exec.Cmd
}

// RealExecutor is the production implementation of the Executor interface,
// which uses the standard os/exec package to create commands.
type RealExecutor struct{}

// Command creates a standard exec.Cmd.
func (e *RealExecutor) Command(name string, args ...string) *exec.Cmd {
	return exec.Command(name, args...)
}

// CommandContext creates a standard context-aware exec.Cmd.
func (e *RealExecutor) CommandContext(ctx context.Context, name string, args ...string) *exec.Cmd {
	return exec.CommandContext(ctx, name, args...)
}

// SafeBuilder provides secure command execution with validation
type SafeBuilder struct {
	defaultTimeout time.Duration
	validators     map[string]func(string) error
	executor       Executor
}

// NewSafeBuilder creates a new SafeBuilder instance with a RealExecutor
func NewSafeBuilder() *SafeBuilder {
	return NewSafeBuilderWithExecutor(&RealExecutor{})
}

// NewSafeBuilderWithExecutor creates a new SafeBuilder with a custom Executor
func NewSafeBuilderWithExecutor(exec Executor) *SafeBuilder {
	return &SafeBuilder{
		defaultTimeout: DefaultTimeout,
		validators:     makeDefaultValidators(),
		executor:       exec,
	}
}

// makeDefaultValidators returns the default set of validators
func makeDefaultValidators() map[string]func(string) error {
	return map[string]func(string) error{
		"gitRef":        validateGitRef,
		"stagePath":     validateStagePath,
		"workspaceDir":  validateWorkspaceDir,
		"commitMessage": validateCommitMessage,
		"agentArg":      validateAgentArg,
	}
}

// validateGitRef ensures git references are safe
func validateGitRef(ref string) error {
	if ref == "" {
		return fmt.Errorf("git ref cannot be empty")
	}

	// Git refs: alphanumeric, slashes, hyphens, underscores, dots
	validRef := regexp.MustCompile(`^[a-zA-Z0-9/_.-]+$`)
	if !validRef.MatchString(ref) {
		return fmt.Errorf("invalid git ref: %s", ref)
	}

	return nil
}

// validateStagePath ensures workspace-relative paths handed to git add are safe
func validateStagePath(path string) error {
	if path == "" {
		return fmt.Errorf("stage path cannot be empty")
	}

	// Paths come back out of the sandbox relative to the workspace root;
	// traversal segments mean something upstream went wrong
	if path == ".." || strings.HasPrefix(path, "../") || strings.Contains(path, "/../") || strings.HasSuffix(path, "/..") {
		return fmt.Errorf("stage path cannot contain '..'")
	}

	// A leading dash would be parsed as a flag by git
	if strings.HasPrefix(path, "-") {
		return fmt.Errorf("stage path cannot start with '-'")
	}

	if strings.ContainsRune(path, 0) {
		return fmt.Errorf("stage path contains a NUL byte")
	}

	return nil
}

// validateWorkspaceDir ensures directory arguments are safe
func validateWorkspaceDir(dir string) error {
	if dir == "" {
		return fmt.Errorf("directory cannot be empty")
	}

	if strings.ContainsRune(dir, 0) {
		return fmt.Errorf("directory contains a NUL byte")
	}

	return nil
}

// validateCommitMessage ensures commit messages are usable as a single -m argument
func validateCommitMessage(msg string) error {
	if strings.TrimSpace(msg) == "" {
		return fmt.Errorf("commit message cannot be empty")
	}

	if strings.ContainsRune(msg, 0) {
		return fmt.Errorf("commit message contains a NUL byte")
	}

	return nil
}

// validateAgentArg ensures agent command arguments are safe to pass through
func validateAgentArg(arg string) error {
	if arg == "" {
		return fmt.Errorf("agent argument cannot be empty")
	}

	if strings.ContainsRune(arg, 0) {
		return fmt.Errorf("agent argument contains a NUL byte")
	}

	return nil
}

// Command represents a safe command configuration
type Command struct {
	parent   context.Context
	ctx      context.Context
	cancel   context.CancelFunc
	name     string
	args     []string
	timeout  time.Duration
	executor Executor
}

// Build creates a new command with validation. When the given context carries
// no deadline the builder's default timeout is applied; the command is always
// bounded.
func (sb *SafeBuilder) Build(ctx context.Context, name string, args ...string) (*Command, error) {
	// Validate command name
	if name == "" {
		return nil, fmt.Errorf("command name cannot be empty")
	}

	cmd := &Command{
		parent:   ctx,
		name:     name,
		args:     args,
		timeout:  sb.defaultTimeout,
		executor: sb.executor,
	}

	if _, ok := ctx.Deadline(); ok {
		cmd.ctx = ctx
		cmd.cancel = func() {}
	} else {
		cmd.ctx, cmd.cancel = context.WithTimeout(ctx, sb.defaultTimeout)
	}

	return cmd, nil
}

// WithTimeout sets a custom timeout for the command
func (c *Command) WithTimeout(timeout time.Duration) *Command {
	if timeout > MaxTimeout {
		timeout = MaxTimeout
	}

	c.cancel()
	c.ctx, c.cancel = context.WithTimeout(c.parent, timeout)
	c.timeout = timeout
	return c
}

// Validate validates specific arguments
func (sb *SafeBuilder) Validate(argType string, value string) error {
	validator, exists := sb.validators[argType]
	if !exists {
		return fmt.Errorf("no validator for argument type: %s", argType)
	}

	return validator(value)
}

// Exec creates and returns an exec.Cmd
func (c *Command) Exec() *exec.Cmd {
	return c.executor.CommandContext(c.ctx, c.name, c.args...) //nolint:gosec // SafeBuilder provides validation
}
