// Package server is the daemon's HTTP surface: the REST API for workspaces,
// files, proposals and settings, the proposal event stream, and the chat
// WebSocket.
package server

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/janschaeferjohann/seriem-agent/errors"
	"github.com/janschaeferjohann/seriem-agent/git"
	"github.com/janschaeferjohann/seriem-agent/internal/agent"
	"github.com/janschaeferjohann/seriem-agent/internal/daemon/metrics"
	"github.com/janschaeferjohann/seriem-agent/internal/proposals"
	"github.com/janschaeferjohann/seriem-agent/internal/stream"
	"github.com/janschaeferjohann/seriem-agent/internal/telemetry"
	"github.com/janschaeferjohann/seriem-agent/internal/workspace"
	"github.com/janschaeferjohann/seriem-agent/logging"
)

// Config holds the listener and CORS settings.
type Config struct {
	Host           string
	Port           int
	AllowedOrigins []string
}

// Deps are the collaborating subsystems the handlers reach.
type Deps struct {
	Workspaces *workspace.Registry
	Proposals  *proposals.Store
	Git        git.Service
	Engine     agent.Engine
	Metrics    *metrics.Metrics
	Telemetry  *telemetry.Recorder
	Version    string

	// StructuredTools overrides the default set of tools whose large markup
	// results prime echo suppression. Empty means the stream default.
	StructuredTools []string

	// OnWorkspaceSelected runs after each successful selection, outside any
	// registry lock. The daemon uses it to re-arm the settings watcher.
	OnWorkspaceSelected func(workspace.Snapshot)
}

// Server serves the daemon API on a local TCP port.
type Server struct {
	logger  *logrus.Entry
	config  Config
	deps    Deps
	server  *http.Server
	started time.Time
}

// New creates a server. Nil Metrics and Telemetry degrade to inert instances
// so handlers never branch on their presence.
func New(config Config, deps Deps) *Server {
	if deps.Metrics == nil {
		deps.Metrics = metrics.New()
	}
	if deps.Telemetry == nil {
		deps.Telemetry = telemetry.Disabled()
	}
	return &Server{
		logger:  logging.NewLogger("server"),
		config:  config,
		deps:    deps,
		started: time.Now(),
	}
}

// Handler builds the full route table. Split out from ListenAndServe so tests
// can drive the API through httptest.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", s.deps.Metrics.Handler())

	mux.HandleFunc("POST /api/workspace/select", s.handleWorkspaceSelect)
	mux.HandleFunc("GET /api/workspace/current", s.handleWorkspaceCurrent)

	mux.HandleFunc("POST /api/chat", s.handleChat)
	mux.HandleFunc("GET /api/files", s.handleListFiles)
	mux.HandleFunc("GET /api/files/{path...}", s.handleReadFile)

	mux.HandleFunc("GET /api/proposals/pending", s.handleListProposals)
	mux.HandleFunc("GET /api/proposals/count", s.handleProposalCount)
	mux.HandleFunc("GET /api/proposals/{id}", s.handleGetProposal)
	mux.HandleFunc("POST /api/proposals/{id}/approve", s.handleApproveProposal)
	mux.HandleFunc("POST /api/proposals/{id}/reject", s.handleRejectProposal)
	mux.HandleFunc("DELETE /api/proposals/all", s.handleClearProposals)

	mux.HandleFunc("GET /api/settings/workspace", s.handleGetSettings)
	mux.HandleFunc("PUT /api/settings/workspace", s.handleUpdateSettings)
	mux.HandleFunc("GET /api/settings/git/status", s.handleGitStatus)

	mux.HandleFunc("GET /api/telemetry/events", s.handleTelemetryEvents)
	mux.HandleFunc("DELETE /api/telemetry/events", s.handleTelemetryDelete)
	mux.HandleFunc("GET /api/telemetry/stats", s.handleTelemetryStats)
	mux.HandleFunc("GET /api/telemetry/files", s.handleTelemetryFiles)
	mux.HandleFunc("GET /api/telemetry/export", s.handleTelemetryExport)
	mux.HandleFunc("POST /api/telemetry/enabled", s.handleTelemetryEnabled)

	mux.HandleFunc("GET /api/events", s.handleEventStream)
	mux.HandleFunc("GET /ws/chat", s.handleChatSocket)

	return s.withCORS(mux)
}

// ListenAndServe starts the server and blocks until it stops or fails.
func (s *Server) ListenAndServe() error {
	addr := net.JoinHostPort(s.config.Host, strconv.Itoa(s.config.Port))
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to listen on "+addr)
	}

	s.server = &http.Server{Handler: s.Handler()}
	s.logger.WithField("addr", addr).Info("Daemon listening")
	return s.server.Serve(listener)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server...")
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// withCORS answers preflights and stamps allowed origins on every response.
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && s.originAllowed(origin) {
			header := w.Header()
			header.Set("Access-Control-Allow-Origin", origin)
			header.Set("Access-Control-Allow-Credentials", "true")
			header.Add("Vary", "Origin")
			if r.Method == http.MethodOptions {
				header.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
				if requested := r.Header.Get("Access-Control-Request-Headers"); requested != "" {
					header.Set("Access-Control-Allow-Headers", requested)
				}
				w.WriteHeader(http.StatusNoContent)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) originAllowed(origin string) bool {
	return slices.Contains(s.config.AllowedOrigins, origin)
}

// structuredTools is the echo-suppression tool set for new arbiters.
func (s *Server) structuredTools() []string {
	if len(s.deps.StructuredTools) > 0 {
		return s.deps.StructuredTools
	}
	return stream.DefaultStructuredTools()
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.WithError(err).Debug("Failed to write response")
	}
}

// errorBody is the error envelope every failed request gets.
type errorBody struct {
	Error errorInfo `json:"error"`
}

type errorInfo struct {
	Code    errors.ErrorCode `json:"code"`
	Message string           `json:"message"`
	Details map[string]any   `json:"details,omitempty"`
}

// writeError maps an error onto its HTTP status and envelope.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	serr, ok := errors.AsSeriem(err)
	if !ok {
		serr = errors.New(errors.ErrCodeInternal, err.Error())
	}

	status := statusForCode(serr.Code)
	if status >= http.StatusInternalServerError {
		s.logger.WithError(err).Error("Request failed")
	}
	s.writeJSON(w, status, errorBody{Error: errorInfo{
		Code:    serr.Code,
		Message: serr.Message,
		Details: serr.Details,
	}})
}

func statusForCode(code errors.ErrorCode) int {
	switch code {
	case errors.ErrCodePathEscape,
		errors.ErrCodeInvalidWorkspace,
		errors.ErrCodeInvalidInput,
		errors.ErrCodeConfigInvalid,
		errors.ErrCodeConfigValidation:
		return http.StatusBadRequest
	case errors.ErrCodeNotFound:
		return http.StatusNotFound
	case errors.ErrCodeAmbiguousEdit:
		return http.StatusConflict
	case errors.ErrCodeTransport:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
