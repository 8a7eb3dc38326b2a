package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/janschaeferjohann/seriem-agent/errors"
	"github.com/janschaeferjohann/seriem-agent/git"
	"github.com/janschaeferjohann/seriem-agent/internal/agent"
	"github.com/janschaeferjohann/seriem-agent/internal/proposals"
	"github.com/janschaeferjohann/seriem-agent/internal/settings"
	"github.com/janschaeferjohann/seriem-agent/internal/stream"
	"github.com/janschaeferjohann/seriem-agent/internal/telemetry"
	"github.com/janschaeferjohann/seriem-agent/internal/workspace"
)

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": "seriem-agent",
	})
}

// handleHealth reports liveness plus a few process vitals.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":         "healthy",
		"version":        s.deps.Version,
		"pid":            os.Getpid(),
		"uptime_seconds": int64(time.Since(s.started).Seconds()),
		"goroutines":     runtime.NumGoroutine(),
		"heap_bytes":     mem.HeapAlloc,
	})
}

// workspaceView is the flat wire form of a workspace snapshot.
type workspaceView struct {
	RootPath   string `json:"root_path"`
	GitEnabled bool   `json:"git_enabled"`
	GitRemote  string `json:"git_remote,omitempty"`
	GitBranch  string `json:"git_branch,omitempty"`
}

func viewOf(snap workspace.Snapshot) workspaceView {
	return workspaceView{
		RootPath:   snap.Root,
		GitEnabled: snap.Meta.GitEnabled,
		GitRemote:  snap.Meta.RemoteURL,
		GitBranch:  snap.Meta.Branch,
	}
}

func (s *Server) handleWorkspaceSelect(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Path string `json:"path"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, errors.New(errors.ErrCodeInvalidInput, "invalid request body"))
		return
	}
	if req.Path == "" {
		s.writeError(w, errors.New(errors.ErrCodeInvalidInput, "path is required"))
		return
	}

	snap, err := s.deps.Workspaces.Select(r.Context(), req.Path)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if s.deps.OnWorkspaceSelected != nil {
		s.deps.OnWorkspaceSelected(snap)
	}
	s.writeJSON(w, http.StatusOK, viewOf(snap))
}

func (s *Server) handleWorkspaceCurrent(w http.ResponseWriter, r *http.Request) {
	snap, err := s.deps.Workspaces.Current()
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, viewOf(snap))
}

// handleChat runs one agent turn synchronously and returns only the final
// text. The WebSocket is the streaming path; this endpoint serves scripts
// and smoke tests.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req agent.TurnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, errors.New(errors.ErrCodeInvalidInput, "invalid request body"))
		return
	}
	if req.Message == "" {
		s.writeError(w, errors.New(errors.ErrCodeInvalidInput, "message is required"))
		return
	}

	collector := &stream.Collector{}
	arb := stream.NewArbiterWithTools(collector.Sink(), s.structuredTools())
	start := time.Now()

	err := s.deps.Engine.RunTurn(r.Context(), req, func(ev stream.Event) {
		if feedErr := arb.Feed(ev); feedErr != nil {
			s.logger.WithError(feedErr).Warn("Stream arbiter rejected event")
		}
	})
	if err != nil && !arb.Finished() {
		_ = arb.Feed(stream.EventError{Err: err})
	}

	errored := false
	for _, frame := range collector.Frames {
		s.deps.Metrics.Frames.WithLabelValues(string(frame.Type)).Inc()
		if frame.Type == stream.FrameError {
			errored = true
		}
	}
	s.recordTurn(start, len(collector.Frames), errored)

	for _, frame := range collector.Frames {
		if frame.Type == stream.FrameError {
			message, _ := frame.Content.(string)
			s.writeError(w, errors.New(errors.ErrCodeTransport, message))
			return
		}
	}
	text, ok := collector.Done()
	if !ok {
		s.writeError(w, errors.New(errors.ErrCodeTransport, "agent turn produced no response"))
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"response": text})
}

// recordTurn updates the turn counters shared by the REST and WebSocket
// chat paths.
func (s *Server) recordTurn(start time.Time, frames int, errored bool) {
	s.deps.Metrics.Turns.Inc()
	if errored {
		s.deps.Metrics.TurnErrors.Inc()
	}
	s.deps.Telemetry.EmitChatTurn(time.Since(start), frames, errored)
}

// fileInfo is one directory entry in a listing. Size is null for directories.
type fileInfo struct {
	Name        string `json:"name"`
	Path        string `json:"path"`
	IsDirectory bool   `json:"is_directory"`
	Size        *int64 `json:"size"`
}

func (s *Server) handleListFiles(w http.ResponseWriter, r *http.Request) {
	rel := r.URL.Query().Get("path")

	snap, err := s.deps.Workspaces.Current()
	if err != nil {
		s.writeError(w, err)
		return
	}
	target, err := workspace.Resolve(snap.Root, rel)
	if err != nil {
		s.writeError(w, err)
		return
	}

	info, err := os.Stat(target)
	if err != nil {
		s.writeError(w, errors.New(errors.ErrCodeNotFound, "Directory not found"))
		return
	}
	if !info.IsDir() {
		s.writeError(w, errors.New(errors.ErrCodeInvalidInput, "Path is not a directory"))
		return
	}

	entries, err := os.ReadDir(target)
	if err != nil {
		s.writeError(w, errors.Wrap(err, errors.ErrCodeInternal, "failed to read directory"))
		return
	}

	files := make([]fileInfo, 0, len(entries))
	for _, entry := range entries {
		relPath, err := filepath.Rel(snap.Root, filepath.Join(target, entry.Name()))
		if err != nil {
			continue
		}
		relPath = filepath.ToSlash(relPath)
		if s.deps.Workspaces.Ignored(relPath) {
			continue
		}

		var size *int64
		if !entry.IsDir() {
			if fi, err := entry.Info(); err == nil {
				n := fi.Size()
				size = &n
			}
		}
		files = append(files, fileInfo{
			Name:        entry.Name(),
			Path:        relPath,
			IsDirectory: entry.IsDir(),
			Size:        size,
		})
	}

	current := rel
	if current == "" {
		current = "/"
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"files":        files,
		"current_path": current,
	})
}

func (s *Server) handleReadFile(w http.ResponseWriter, r *http.Request) {
	rel := r.PathValue("path")
	target, err := s.deps.Workspaces.ResolvePath(rel)
	if err != nil {
		s.writeError(w, err)
		return
	}

	info, err := os.Stat(target)
	if err != nil {
		s.writeError(w, errors.New(errors.ErrCodeNotFound, "File not found"))
		return
	}
	if !info.Mode().IsRegular() {
		s.writeError(w, errors.New(errors.ErrCodeInvalidInput, "Path is not a file"))
		return
	}

	data, err := os.ReadFile(target)
	if err != nil {
		s.writeError(w, errors.Wrap(err, errors.ErrCodeInternal, "failed to read file"))
		return
	}
	if !utf8.Valid(data) {
		s.writeError(w, errors.New(errors.ErrCodeInvalidInput, "File is not a text file"))
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{
		"path":    rel,
		"content": string(data),
	})
}

func (s *Server) handleListProposals(w http.ResponseWriter, r *http.Request) {
	pending := s.deps.Proposals.ListPending()
	s.writeJSON(w, http.StatusOK, map[string]any{
		"proposals": pending,
		"total":     len(pending),
	})
}

func (s *Server) handleProposalCount(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]int{"count": s.deps.Proposals.Count()})
}

// fileChangeView adds computed line counts to a change for diff display.
type fileChangeView struct {
	Path         string  `json:"path"`
	Operation    string  `json:"operation"`
	Before       *string `json:"before"`
	After        *string `json:"after"`
	LinesAdded   int     `json:"lines_added"`
	LinesRemoved int     `json:"lines_removed"`
	Diff         string  `json:"diff"`
}

func (s *Server) handleGetProposal(w http.ResponseWriter, r *http.Request) {
	p, err := s.deps.Proposals.Get(r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	files := make([]fileChangeView, 0, len(p.Changes))
	for i := range p.Changes {
		change := &p.Changes[i]
		files = append(files, fileChangeView{
			Path:         change.Path,
			Operation:    string(change.Operation),
			Before:       change.Before,
			After:        change.After,
			LinesAdded:   change.LinesAdded(),
			LinesRemoved: change.LinesRemoved(),
			Diff:         change.RenderUnified(),
		})
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"proposal_id": p.ID,
		"summary":     p.Summary,
		"files":       files,
		"created_at":  p.CreatedAt,
	})
}

// proposalResult is the approve/reject response body.
type proposalResult struct {
	ProposalID    string   `json:"proposal_id"`
	Action        string   `json:"action"`
	FilesAffected []string `json:"files_affected"`
	Message       string   `json:"message"`
}

// handleApproveProposal claims the proposal, applies it to disk and
// optionally commits. The claim comes before any write: two racing approvals
// cannot both apply, and a failed apply never leaves the proposal pending
// with half its changes on disk.
func (s *Server) handleApproveProposal(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req struct {
		Commit        bool   `json:"commit"`
		CommitMessage string `json:"commit_message"`
	}
	// An absent body means default options
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		s.writeError(w, errors.New(errors.ErrCodeInvalidInput, "invalid request body"))
		return
	}

	snap, err := s.deps.Workspaces.Current()
	if err != nil {
		s.writeError(w, err)
		return
	}

	p, err := s.deps.Proposals.Remove(id)
	if err != nil {
		s.writeError(w, err)
		return
	}

	applied, err := applyChanges(snap.Root, p.Changes)
	if err != nil {
		applyErr := errors.ApplyFailed(err, id, applied)
		s.deps.Metrics.ProposalsFinalized.WithLabelValues("failed").Inc()
		s.deps.Telemetry.EmitError(string(errors.ErrCodeApplyFailure), applyErr.Message)
		s.writeError(w, applyErr)
		return
	}

	if req.Commit && snap.Meta.GitEnabled && len(applied) > 0 {
		message := req.CommitMessage
		if message == "" {
			message = p.Summary
		}
		if message == "" {
			message = "Apply proposal " + id
		}
		if err := s.deps.Git.StageAndCommit(r.Context(), snap.Root, applied, message, s.commitIdentity()); err != nil {
			// Changes are already on disk; the commit is best effort
			s.logger.WithError(err).WithField("proposal_id", id).Warn("Post-approval commit failed")
		}
	}

	s.deps.Metrics.ProposalsFinalized.WithLabelValues("approved").Inc()
	s.deps.Telemetry.EmitProposalDecision(id, "approved")
	s.writeJSON(w, http.StatusOK, proposalResult{
		ProposalID:    id,
		Action:        "approved",
		FilesAffected: applied,
		Message:       fmt.Sprintf("Applied %d file(s)", len(applied)),
	})
}

func (s *Server) handleRejectProposal(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	p, err := s.deps.Proposals.Remove(id)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.deps.Metrics.ProposalsFinalized.WithLabelValues("rejected").Inc()
	s.deps.Telemetry.EmitProposalDecision(id, "rejected")
	s.writeJSON(w, http.StatusOK, proposalResult{
		ProposalID:    id,
		Action:        "rejected",
		FilesAffected: p.FilesAffected(),
		Message:       fmt.Sprintf("Discarded %d file change(s)", len(p.Changes)),
	})
}

func (s *Server) handleClearProposals(w http.ResponseWriter, r *http.Request) {
	count := s.deps.Proposals.ClearAll()
	s.writeJSON(w, http.StatusOK, map[string]any{
		"cleared": count,
		"message": fmt.Sprintf("Cleared %d proposal(s)", count),
	})
}

// applyChanges writes a proposal's changes into the workspace in order and
// returns the paths actually touched. Deleting an already-missing file is
// not a failure and does not count as touched.
func applyChanges(root string, changes []proposals.FileChange) ([]string, error) {
	applied := make([]string, 0, len(changes))
	for i := range changes {
		change := &changes[i]
		target, err := workspace.Resolve(root, change.Path)
		if err != nil {
			return applied, err
		}

		if change.Operation == proposals.OperationDelete {
			if _, err := os.Stat(target); err != nil {
				if os.IsNotExist(err) {
					continue
				}
				return applied, err
			}
			if err := os.Remove(target); err != nil {
				return applied, err
			}
			applied = append(applied, change.Path)
			continue
		}

		if change.After == nil {
			continue
		}
		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return applied, err
		}
		if err := os.WriteFile(target, []byte(*change.After), 0644); err != nil {
			return applied, err
		}
		applied = append(applied, change.Path)
	}
	return applied, nil
}

// commitIdentity returns the override identity from workspace settings, or
// nil to let the repository's own configuration apply.
func (s *Server) commitIdentity() *git.Identity {
	ws := s.deps.Workspaces.Settings()
	name, email, ok := ws.CommitIdentity()
	if !ok {
		return nil
	}
	return &git.Identity{Name: name, Email: email}
}

// settingsEnvelope wraps workspace settings with their on-disk state.
type settingsEnvelope struct {
	Settings           settings.Settings `json:"settings"`
	WorkspacePath      string            `json:"workspace_path"`
	SettingsFileExists bool              `json:"settings_file_exists"`
}

func (s *Server) settingsResponse(snap workspace.Snapshot) settingsEnvelope {
	path := filepath.Join(snap.Root, ".seriem", "settings.json")
	_, statErr := os.Stat(path)
	return settingsEnvelope{
		Settings:           s.deps.Workspaces.Settings(),
		WorkspacePath:      snap.Root,
		SettingsFileExists: statErr == nil,
	}
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	snap, err := s.deps.Workspaces.Current()
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.settingsResponse(snap))
}

func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	snap, err := s.deps.Workspaces.Current()
	if err != nil {
		s.writeError(w, err)
		return
	}

	// Overlay onto defaults so omitted fields keep their default values
	updated := settings.Defaults()
	if err := json.NewDecoder(r.Body).Decode(updated); err != nil {
		s.writeError(w, errors.New(errors.ErrCodeInvalidInput, "invalid request body"))
		return
	}

	if err := s.deps.Workspaces.UpdateSettings(updated); err != nil {
		if isPermission(err) {
			s.writeJSON(w, http.StatusForbidden, errorBody{Error: errorInfo{
				Code:    errors.ErrCodeInternal,
				Message: "Cannot write to workspace settings - permission denied",
			}})
			return
		}
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.settingsResponse(snap))
}

func isPermission(err error) bool {
	for err != nil {
		if os.IsPermission(err) {
			return true
		}
		unwrapper, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = unwrapper.Unwrap()
	}
	return false
}

// handleGitStatus re-probes the workspace instead of echoing selection-time
// metadata, so a repository initialized after selection shows up.
func (s *Server) handleGitStatus(w http.ResponseWriter, r *http.Request) {
	snap, err := s.deps.Workspaces.Current()
	if err != nil {
		s.writeError(w, err)
		return
	}

	meta := s.deps.Git.ProbeRepository(r.Context(), snap.Root)
	s.writeJSON(w, http.StatusOK, map[string]any{
		"is_git_repo":    meta.GitEnabled,
		"remote_url":     meta.RemoteURL,
		"current_branch": meta.Branch,
		"workspace_path": snap.Root,
	})
}

const exportReadLimit = 100000

func (s *Server) handleTelemetryEvents(w http.ResponseWriter, r *http.Request) {
	filter, err := telemetryFilter(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	events := s.deps.Telemetry.ReadEvents(filter)
	if events == nil {
		events = []telemetry.Event{}
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"events":  events,
		"enabled": s.deps.Telemetry.Enabled(),
	})
}

func (s *Server) handleTelemetryStats(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, struct {
		Enabled bool `json:"enabled"`
		telemetry.Stats
	}{
		Enabled: s.deps.Telemetry.Enabled(),
		Stats:   s.deps.Telemetry.Stats(),
	})
}

func (s *Server) handleTelemetryFiles(w http.ResponseWriter, r *http.Request) {
	files := s.deps.Telemetry.Files()
	if files == nil {
		files = []telemetry.LogFile{}
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"files":   files,
		"enabled": s.deps.Telemetry.Enabled(),
	})
}

// handleTelemetryExport streams matching events as a JSONL download.
func (s *Server) handleTelemetryExport(w http.ResponseWriter, r *http.Request) {
	filter, err := telemetryFilter(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	filter.Limit = exportReadLimit
	events := s.deps.Telemetry.ReadEvents(filter)

	filename := "telemetry-export"
	if !filter.Start.IsZero() {
		filename += "-from-" + filter.Start.Format("20060102")
	}
	if !filter.End.IsZero() {
		filename += "-to-" + filter.End.Format("20060102")
	}
	filename += ".jsonl"

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Content-Disposition", "attachment; filename="+filename)
	encoder := json.NewEncoder(w)
	for i := range events {
		if err := encoder.Encode(&events[i]); err != nil {
			return
		}
	}
}

func (s *Server) handleTelemetryDelete(w http.ResponseWriter, r *http.Request) {
	before, err := parseTimeParam(r.URL.Query().Get("before_date"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	if before.IsZero() {
		s.writeError(w, errors.New(errors.ErrCodeInvalidInput, "before_date is required"))
		return
	}

	deleted := s.deps.Telemetry.DeleteBefore(before)
	s.writeJSON(w, http.StatusOK, map[string]any{
		"deleted_files": deleted,
		"enabled":       s.deps.Telemetry.Enabled(),
	})
}

func (s *Server) handleTelemetryEnabled(w http.ResponseWriter, r *http.Request) {
	enabled, err := strconv.ParseBool(r.URL.Query().Get("enabled"))
	if err != nil {
		s.writeError(w, errors.New(errors.ErrCodeInvalidInput, "enabled must be true or false"))
		return
	}
	s.deps.Telemetry.SetEnabled(enabled)
	s.writeJSON(w, http.StatusOK, map[string]bool{"enabled": s.deps.Telemetry.Enabled()})
}

// telemetryFilter parses the query parameters shared by the telemetry read
// endpoints.
func telemetryFilter(r *http.Request) (telemetry.Filter, error) {
	query := r.URL.Query()
	filter := telemetry.Filter{
		Types:  query["event_types"],
		Search: query.Get("search"),
	}

	var err error
	if filter.Start, err = parseTimeParam(query.Get("start_date")); err != nil {
		return telemetry.Filter{}, err
	}
	if filter.End, err = parseTimeParam(query.Get("end_date")); err != nil {
		return telemetry.Filter{}, err
	}
	if raw := query.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			return telemetry.Filter{}, errors.New(errors.ErrCodeInvalidInput, "limit must be a positive integer")
		}
		filter.Limit = limit
	}
	return filter, nil
}

// parseTimeParam accepts RFC3339 or a bare date.
func parseTimeParam(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t, nil
	}
	return time.Time{}, errors.New(errors.ErrCodeInvalidInput, "invalid date: "+raw)
}

// handleEventStream pushes proposal lifecycle updates as server-sent events
// so the review UI can refresh its badge without polling.
func (s *Server) handleEventStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := s.deps.Proposals.Subscribe()
	defer s.deps.Proposals.Unsubscribe(ch)

	fmt.Fprintf(w, ": connected\n\n")
	flusher.Flush()
	s.logger.Debug("SSE client connected")

	// Comment heartbeats keep idle connections alive through proxies
	heartbeat := time.NewTicker(30 * time.Second)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Debug("SSE client disconnected")
			return
		case <-heartbeat.C:
			fmt.Fprintf(w, ": heartbeat\n\n")
			flusher.Flush()
		case update, ok := <-ch:
			if !ok {
				return
			}
			data, err := json.Marshal(map[string]any{
				"type":        string(update.Kind),
				"proposal_id": update.ID,
				"count":       s.deps.Proposals.Count(),
			})
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", data)
			flusher.Flush()
		}
	}
}
