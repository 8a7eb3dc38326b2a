package client

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/janschaeferjohann/seriem-agent/errors"
)

// StreamEvents subscribes to the daemon's proposal lifecycle feed. The
// returned channel closes when the context is cancelled or the connection is
// lost; callers that need to stay current should redial.
func (c *Client) StreamEvents(ctx context.Context) (<-chan ProposalUpdate, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/events", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create stream request: %w", err)
	}

	// A dedicated client: the long-lived stream must not inherit the
	// request timeout
	streamClient := &http.Client{Timeout: 0}
	resp, err := streamClient.Do(req)
	if err != nil {
		return nil, errors.TransportFailure(err, "event stream")
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, decodeError(resp)
	}

	ch := make(chan ProposalUpdate, 10)

	go func() {
		defer resp.Body.Close()
		defer close(ch)

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := scanner.Text()
			if !strings.HasPrefix(line, "data: ") {
				continue
			}

			var update ProposalUpdate
			if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &update); err != nil {
				continue
			}

			select {
			case ch <- update:
			case <-ctx.Done():
				return
			}
		}
	}()

	return ch, nil
}

// StreamTurn runs one agent turn over the chat WebSocket, delivering frames
// as they arrive. The channel closes after the terminal done or error frame.
func (c *Client) StreamTurn(ctx context.Context, message string, history []Message) (<-chan Frame, error) {
	wsURL := "ws" + strings.TrimPrefix(c.baseURL, "http") + "/ws/chat"

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return nil, errors.TransportFailure(err, "chat socket dial")
	}

	envelope := map[string]any{"type": "message", "content": message}
	if len(history) > 0 {
		envelope["chat_history"] = history
	}
	if err := conn.WriteJSON(envelope); err != nil {
		conn.Close()
		return nil, errors.TransportFailure(err, "chat socket send")
	}

	ch := make(chan Frame, 10)

	go func() {
		defer close(ch)
		defer conn.Close()

		// Abandon the read when the caller gives up
		done := make(chan struct{})
		defer close(done)
		go func() {
			select {
			case <-ctx.Done():
				conn.Close()
			case <-done:
			}
		}()

		for {
			var frame Frame
			if err := conn.ReadJSON(&frame); err != nil {
				return
			}

			select {
			case ch <- frame:
			case <-ctx.Done():
				return
			}

			if frame.Type == "done" || frame.Type == "error" {
				return
			}
		}
	}()

	return ch, nil
}
