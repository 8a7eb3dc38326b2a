// Package telemetry records daemon usage events in daily JSONL files: one
// JSON object per line, one file per day. Everything stays local; the only
// readers are the inspection endpoints and the export download.
package telemetry

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/janschaeferjohann/seriem-agent/logging"
	"github.com/janschaeferjohann/seriem-agent/pkg/paths"
)

// Event type names as they appear on disk.
const (
	EventSessionStart     = "session_start"
	EventSessionEnd       = "session_end"
	EventChatTurn         = "chat_turn"
	EventProposalCreated  = "proposal_created"
	EventProposalDecision = "proposal_decision"
	EventError            = "error"
)

// Daily file naming: events_2006-01-02.jsonl.
const (
	eventFilePrefix = "events_"
	eventFileExt    = ".jsonl"
)

// Event is one JSONL line.
type Event struct {
	EventType string         `json:"event_type"`
	Timestamp string         `json:"timestamp"`
	SessionID string         `json:"session_id"`
	MachineID string         `json:"machine_id"`
	Payload   map[string]any `json:"payload,omitempty"`
}

// Recorder writes telemetry events. A disabled recorder accepts every call
// and writes nothing, so call sites never branch on configuration.
type Recorder struct {
	mu        sync.Mutex
	enabled   bool
	dir       string
	sessionID string
	machineID string
	now       func() time.Time
	logger    *logrus.Entry
}

// NewRecorder creates a recorder writing under dir; an empty dir falls back
// to the user data directory. When no directory can be determined the
// recorder degrades to disabled.
func NewRecorder(enabled bool, dir string) *Recorder {
	if dir == "" {
		dir = paths.TelemetryDir()
	}
	if dir == "" {
		enabled = false
	}
	return &Recorder{
		enabled:   enabled,
		dir:       dir,
		sessionID: newSessionID(),
		machineID: machineID(),
		now:       time.Now,
		logger:    logging.NewLogger("telemetry"),
	}
}

// Disabled returns a recorder that drops everything.
func Disabled() *Recorder {
	return &Recorder{enabled: false, now: time.Now, logger: logging.NewLogger("telemetry")}
}

// Enabled reports whether events are being written.
func (r *Recorder) Enabled() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.enabled
}

// SetEnabled toggles collection at runtime. A recorder with no directory
// stays disabled; existing files remain readable either way.
func (r *Recorder) SetEnabled(enabled bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.dir == "" {
		r.enabled = false
		return
	}
	r.enabled = enabled
}

// SessionID returns the identifier stamped on this process's events.
func (r *Recorder) SessionID() string {
	return r.sessionID
}

// EmitSessionStart records daemon startup.
func (r *Recorder) EmitSessionStart(version string) {
	r.emit(EventSessionStart, map[string]any{"version": version})
}

// EmitSessionEnd records daemon shutdown with the session's uptime.
func (r *Recorder) EmitSessionEnd(uptime time.Duration) {
	r.emit(EventSessionEnd, map[string]any{"uptime_seconds": int64(uptime.Seconds())})
}

// EmitChatTurn records one completed agent turn.
func (r *Recorder) EmitChatTurn(duration time.Duration, frames int, errored bool) {
	r.emit(EventChatTurn, map[string]any{
		"duration_ms": duration.Milliseconds(),
		"frames":      frames,
		"errored":     errored,
	})
}

// EmitProposalCreated records a new pending proposal.
func (r *Recorder) EmitProposalCreated(id string, fileCount int) {
	r.emit(EventProposalCreated, map[string]any{"proposal_id": id, "files": fileCount})
}

// EmitProposalDecision records an approve or reject.
func (r *Recorder) EmitProposalDecision(id, decision string) {
	r.emit(EventProposalDecision, map[string]any{"proposal_id": id, "decision": decision})
}

// EmitError records a surfaced error by code.
func (r *Recorder) EmitError(code, message string) {
	r.emit(EventError, map[string]any{"code": code, "message": message})
}

// emit appends one line to today's file. Failures are logged and swallowed;
// telemetry never breaks the caller.
func (r *Recorder) emit(eventType string, payload map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.enabled {
		return
	}

	now := r.now().UTC()
	entry := Event{
		EventType: eventType,
		Timestamp: now.Format(time.RFC3339),
		SessionID: r.sessionID,
		MachineID: r.machineID,
		Payload:   payload,
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return
	}

	if err := os.MkdirAll(r.dir, 0755); err != nil {
		r.logger.WithError(err).Warn("Failed to create telemetry directory")
		return
	}
	path := filepath.Join(r.dir, eventFilePrefix+now.Format("2006-01-02")+eventFileExt)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		r.logger.WithError(err).Warn("Failed to open telemetry file")
		return
	}
	defer f.Close()
	_, _ = f.Write(append(data, '\n'))
}

func newSessionID() string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "unknown"
	}
	return hex.EncodeToString(buf)
}

// machineID is a stable, non-reversible host identifier.
func machineID() string {
	hostname, err := os.Hostname()
	if err != nil || hostname == "" {
		return "unknown"
	}
	hash := sha256.Sum256([]byte(hostname))
	return hex.EncodeToString(hash[:])[:12]
}
