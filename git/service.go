package git

import "context"

// Service defines the git operations the daemon depends on. The registry and
// the approval path take this interface so tests can substitute a fake.
type Service interface {
	// ProbeRepository inspects a directory for repository metadata.
	ProbeRepository(ctx context.Context, dir string) Metadata

	// Status summarizes the repository state at path.
	Status(ctx context.Context, path string) (*StatusInfo, error)

	// StageAndCommit stages paths and commits them with message.
	StageAndCommit(ctx context.Context, root string, paths []string, message string, identity *Identity) error
}

// CLIService implements Service using the git CLI
type CLIService struct{}

// Ensure it implements the interface
var _ Service = (*CLIService)(nil)

// NewCLIService creates a new CLI-backed git service
func NewCLIService() *CLIService {
	return &CLIService{}
}

// ProbeRepository inspects a directory for repository metadata
func (s *CLIService) ProbeRepository(ctx context.Context, dir string) Metadata {
	return ProbeRepository(ctx, dir)
}

// Status summarizes the repository state at path
func (s *CLIService) Status(ctx context.Context, path string) (*StatusInfo, error) {
	return Status(ctx, path)
}

// StageAndCommit stages paths and commits them with message
func (s *CLIService) StageAndCommit(ctx context.Context, root string, paths []string, message string, identity *Identity) error {
	return StageAndCommit(ctx, root, paths, message, identity)
}
