package client

import "time"

// HealthInfo is the daemon's /health response.
type HealthInfo struct {
	Status        string  `json:"status"`
	Version       string  `json:"version"`
	PID           int     `json:"pid"`
	UptimeSeconds float64 `json:"uptime_seconds"`
	Goroutines    int     `json:"goroutines"`
	HeapBytes     uint64  `json:"heap_bytes"`
}

// WorkspaceInfo describes the daemon's active workspace.
type WorkspaceInfo struct {
	RootPath   string `json:"root_path"`
	GitEnabled bool   `json:"git_enabled"`
	GitRemote  string `json:"git_remote,omitempty"`
	GitBranch  string `json:"git_branch,omitempty"`
}

// Message is one prior chat exchange, replayed for context.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// FileEntry is one row of a directory listing. Size is null for directories.
type FileEntry struct {
	Name        string `json:"name"`
	Path        string `json:"path"`
	IsDirectory bool   `json:"is_directory"`
	Size        *int64 `json:"size"`
}

// ProposalSummary is one row of the pending list.
type ProposalSummary struct {
	ProposalID   string    `json:"proposal_id"`
	Summary      string    `json:"summary"`
	FileCount    int       `json:"file_count"`
	LinesAdded   int       `json:"lines_added"`
	LinesRemoved int       `json:"lines_removed"`
	CreatedAt    time.Time `json:"created_at"`
}

// ProposalList is the pending-proposals response.
type ProposalList struct {
	Proposals []ProposalSummary `json:"proposals"`
	Total     int               `json:"total"`
}

// FileChange is one file mutation inside a proposal detail.
type FileChange struct {
	Path         string  `json:"path"`
	Operation    string  `json:"operation"`
	Before       *string `json:"before"`
	After        *string `json:"after"`
	LinesAdded   int     `json:"lines_added"`
	LinesRemoved int     `json:"lines_removed"`
	Diff         string  `json:"diff"`
}

// ProposalDetail is the full proposal view.
type ProposalDetail struct {
	ProposalID string       `json:"proposal_id"`
	Summary    string       `json:"summary"`
	Files      []FileChange `json:"files"`
	CreatedAt  time.Time    `json:"created_at"`
}

// ApproveOptions controls the optional post-approval commit.
type ApproveOptions struct {
	Commit        bool   `json:"commit"`
	CommitMessage string `json:"commit_message,omitempty"`
}

// DecisionResult reports an approve or reject outcome.
type DecisionResult struct {
	ProposalID    string   `json:"proposal_id"`
	Action        string   `json:"action"`
	FilesAffected []string `json:"files_affected"`
	Message       string   `json:"message"`
}

// ProposalUpdate is one store lifecycle event from the SSE feed.
type ProposalUpdate struct {
	Type       string `json:"type"`
	ProposalID string `json:"proposal_id"`
	Count      int    `json:"count"`
}

// Frame is one streamed chat event from the WebSocket.
type Frame struct {
	Type    string `json:"type"`
	Content any    `json:"content"`
}

// GitStatus is the daemon's view of the active workspace's repository.
type GitStatus struct {
	IsGitRepo     bool   `json:"is_git_repo"`
	RemoteURL     string `json:"remote_url"`
	CurrentBranch string `json:"current_branch"`
	WorkspacePath string `json:"workspace_path"`
}
