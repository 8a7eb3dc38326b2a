package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/janschaeferjohann/seriem-agent/errors"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	return New(ts.URL)
}

func TestNewNormalizesBareHostPort(t *testing.T) {
	c := New("127.0.0.1:8000")
	assert.Equal(t, "http://127.0.0.1:8000", c.BaseURL())

	c = New("http://127.0.0.1:8000/")
	assert.Equal(t, "http://127.0.0.1:8000", c.BaseURL())
}

func TestErrorEnvelopeBecomesSeriemError(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"error":{"code":"NOT_FOUND","message":"proposal abc12345 not found","details":{"proposalId":"abc12345"}}}`)
	}))

	_, err := c.GetProposal(context.Background(), "abc12345")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeNotFound, errors.GetCode(err))

	serr, ok := errors.AsSeriem(err)
	require.True(t, ok)
	assert.Equal(t, "abc12345", serr.Details["proposalId"])
}

func TestConnectionFailureIsTransportError(t *testing.T) {
	c := New("http://127.0.0.1:1") // nothing listens here
	_, err := c.CurrentWorkspace(context.Background())
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeTransport, errors.GetCode(err))
	assert.False(t, c.IsRunning())
}

func TestChat(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/chat", r.URL.Path)
		var body struct {
			Message string    `json:"message"`
			History []Message `json:"chat_history"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "hello", body.Message)
		require.Len(t, body.History, 1)
		json.NewEncoder(w).Encode(map[string]string{"response": "hi back"})
	}))

	resp, err := c.Chat(context.Background(), "hello", []Message{{Role: "user", Content: "earlier"}})
	require.NoError(t, err)
	assert.Equal(t, "hi back", resp)
}

func TestProposalRoundTrip(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/proposals/pending":
			fmt.Fprint(w, `{"proposals":[{"proposal_id":"aaaa1111","summary":"Create a.txt","file_count":1,"lines_added":1,"lines_removed":0,"created_at":"2026-03-14T10:00:00Z"}],"total":1}`)
		case "/api/proposals/aaaa1111/approve":
			var opts ApproveOptions
			require.NoError(t, json.NewDecoder(r.Body).Decode(&opts))
			assert.True(t, opts.Commit)
			assert.Equal(t, "Ship it", opts.CommitMessage)
			fmt.Fprint(w, `{"proposal_id":"aaaa1111","action":"approved","files_affected":["a.txt"],"message":"Applied 1 file(s)"}`)
		default:
			http.NotFound(w, r)
		}
	}))

	list, err := c.PendingProposals(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, list.Total)
	assert.Equal(t, "Create a.txt", list.Proposals[0].Summary)

	result, err := c.ApproveProposal(context.Background(), "aaaa1111",
		ApproveOptions{Commit: true, CommitMessage: "Ship it"})
	require.NoError(t, err)
	assert.Equal(t, "approved", result.Action)
	assert.Equal(t, []string{"a.txt"}, result.FilesAffected)
}

func TestReadFileEscapesSegments(t *testing.T) {
	var gotPath string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		json.NewEncoder(w).Encode(map[string]string{"path": "docs/release notes.md", "content": "x"})
	}))

	_, err := c.ReadFile(context.Background(), "docs/release notes.md")
	require.NoError(t, err)
	assert.Equal(t, "/api/files/docs/release%20notes.md", gotPath)
}

func TestStreamEvents(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		flusher := w.(http.Flusher)
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, ": connected\n\n")
		flusher.Flush()
		fmt.Fprint(w, "data: {\"type\":\"created\",\"proposal_id\":\"aaaa1111\",\"count\":1}\n\n")
		flusher.Flush()
		fmt.Fprint(w, "data: {\"type\":\"removed\",\"proposal_id\":\"aaaa1111\",\"count\":0}\n\n")
		flusher.Flush()
	}))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	ch, err := c.StreamEvents(ctx)
	require.NoError(t, err)

	update := <-ch
	assert.Equal(t, "created", update.Type)
	assert.Equal(t, "aaaa1111", update.ProposalID)
	assert.Equal(t, 1, update.Count)

	update = <-ch
	assert.Equal(t, "removed", update.Type)
	assert.Equal(t, 0, update.Count)

	// Server handler returned; the feed closes
	_, open := <-ch
	assert.False(t, open)
}

func TestStreamTurn(t *testing.T) {
	upgrader := websocket.Upgrader{}
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/ws/chat", r.URL.Path)
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()

		var envelope map[string]any
		require.NoError(t, conn.ReadJSON(&envelope))
		assert.Equal(t, "message", envelope["type"])
		assert.Equal(t, "hi", envelope["content"])

		conn.WriteJSON(map[string]any{"type": "stream", "content": "thinking"})
		conn.WriteJSON(map[string]any{"type": "done", "content": "thinking"})
	}))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	ch, err := c.StreamTurn(ctx, "hi", nil)
	require.NoError(t, err)

	var types []string
	for frame := range ch {
		types = append(types, frame.Type)
	}
	assert.Equal(t, []string{"stream", "done"}, types)
}
