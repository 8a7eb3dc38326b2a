// Package client is the typed HTTP/WebSocket client for the seriem daemon,
// used by the CLI and the review TUI.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/janschaeferjohann/seriem-agent/errors"
)

// Client calls the daemon's HTTP API.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// New creates a client for the daemon at baseURL (e.g. "http://127.0.0.1:8000").
// A bare host:port is accepted and normalized.
func New(baseURL string) *Client {
	if !strings.Contains(baseURL, "://") {
		baseURL = "http://" + baseURL
	}
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// BaseURL returns the normalized daemon address.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// errorBody mirrors the daemon's error envelope.
type errorBody struct {
	Error struct {
		Code    errors.ErrorCode `json:"code"`
		Message string           `json:"message"`
		Details map[string]any   `json:"details"`
	} `json:"error"`
}

// do issues a request and decodes a 2xx response into out (nil to discard).
// Non-2xx responses are rebuilt into SeriemErrors so callers can switch on
// the daemon's error codes.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.TransportFailure(err, "daemon request")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// decodeError rebuilds the daemon's error envelope. Bodies that are not the
// envelope fall back to a status-code error.
func decodeError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))

	var env errorBody
	if err := json.Unmarshal(data, &env); err == nil && env.Error.Code != "" {
		serr := errors.New(env.Error.Code, env.Error.Message)
		for k, v := range env.Error.Details {
			serr = serr.WithDetail(k, v)
		}
		return serr
	}
	return errors.New(errors.ErrCodeInternal,
		fmt.Sprintf("daemon returned status %d", resp.StatusCode))
}

// Health fetches the daemon's health report.
func (c *Client) Health(ctx context.Context) (*HealthInfo, error) {
	var info HealthInfo
	if err := c.do(ctx, http.MethodGet, "/health", nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// IsRunning reports whether the daemon answers its health check.
func (c *Client) IsRunning() bool {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := c.Health(ctx)
	return err == nil
}

// SelectWorkspace switches the daemon's active workspace.
func (c *Client) SelectWorkspace(ctx context.Context, path string) (*WorkspaceInfo, error) {
	var info WorkspaceInfo
	err := c.do(ctx, http.MethodPost, "/api/workspace/select", map[string]string{"path": path}, &info)
	if err != nil {
		return nil, err
	}
	return &info, nil
}

// CurrentWorkspace fetches the active workspace.
func (c *Client) CurrentWorkspace(ctx context.Context) (*WorkspaceInfo, error) {
	var info WorkspaceInfo
	if err := c.do(ctx, http.MethodGet, "/api/workspace/current", nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// GitStatus fetches the repository summary for the active workspace.
func (c *Client) GitStatus(ctx context.Context) (*GitStatus, error) {
	var status GitStatus
	if err := c.do(ctx, http.MethodGet, "/api/settings/git/status", nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// Chat runs one non-streaming agent turn and returns the final response text.
func (c *Client) Chat(ctx context.Context, message string, history []Message) (string, error) {
	payload := map[string]any{"message": message}
	if len(history) > 0 {
		payload["chat_history"] = history
	}

	var out struct {
		Response string `json:"response"`
	}
	// Agent turns routinely outlast the default timeout; rely on ctx instead
	reqClient := &http.Client{Timeout: 0}
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := reqClient.Do(req)
	if err != nil {
		return "", errors.TransportFailure(err, "chat request")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", decodeError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	return out.Response, nil
}

// ListFiles lists a workspace directory.
func (c *Client) ListFiles(ctx context.Context, path string) ([]FileEntry, string, error) {
	endpoint := "/api/files"
	if path != "" {
		endpoint += "?path=" + url.QueryEscape(path)
	}

	var out struct {
		Files       []FileEntry `json:"files"`
		CurrentPath string      `json:"current_path"`
	}
	if err := c.do(ctx, http.MethodGet, endpoint, nil, &out); err != nil {
		return nil, "", err
	}
	return out.Files, out.CurrentPath, nil
}

// ReadFile fetches one workspace file's content.
func (c *Client) ReadFile(ctx context.Context, path string) (string, error) {
	var out struct {
		Path    string `json:"path"`
		Content string `json:"content"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/files/"+escapePath(path), nil, &out); err != nil {
		return "", err
	}
	return out.Content, nil
}

// escapePath escapes each segment while keeping the separators.
func escapePath(path string) string {
	segments := strings.Split(path, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.Join(segments, "/")
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}
