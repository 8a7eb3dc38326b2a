package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/janschaeferjohann/seriem-agent/internal/agent"
	"github.com/janschaeferjohann/seriem-agent/internal/stream"
)

// clientEnvelope is one inbound WebSocket message. Only type "message"
// starts a turn; anything else is ignored so clients can extend the protocol
// without breaking older daemons.
type clientEnvelope struct {
	Type    string          `json:"type"`
	Content string          `json:"content"`
	History []agent.Message `json:"chat_history"`
}

func (s *Server) upgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			// Non-browser clients send no Origin header
			origin := r.Header.Get("Origin")
			return origin == "" || s.originAllowed(origin)
		},
	}
}

// handleChatSocket speaks the streaming chat protocol: each inbound message
// runs one agent turn, and the connection processes turns strictly one at a
// time. Proposals created mid-turn outlive the connection; only the stream
// dies with it.
func (s *Server) handleChatSocket(w http.ResponseWriter, r *http.Request) {
	upgrader := s.upgrader()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.WithError(err).Debug("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	s.deps.Metrics.WSConnections.Inc()
	defer s.deps.Metrics.WSConnections.Dec()
	s.logger.Debug("Chat client connected")

	// The request context is unreliable once the connection is hijacked;
	// from here on the socket itself is the liveness signal.
	ctx := context.Background()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			s.logger.WithError(err).Debug("Chat client disconnected")
			return
		}

		var envelope clientEnvelope
		if err := json.Unmarshal(data, &envelope); err != nil {
			_ = conn.WriteJSON(stream.ErrorFrame("invalid message: " + err.Error()))
			return
		}
		if envelope.Type != "message" {
			continue
		}

		s.runSocketTurn(ctx, conn, envelope)
	}
}

// runSocketTurn drives one turn, fanning arbiter frames onto the socket. A
// write failure cancels the turn context so the engine stops promptly
// instead of streaming into a dead connection.
func (s *Server) runSocketTurn(parent context.Context, conn *websocket.Conn, envelope clientEnvelope) {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	start := time.Now()
	frames := 0
	errored := false

	arb := stream.NewArbiterWithTools(func(frame stream.Frame) error {
		if err := conn.WriteJSON(frame); err != nil {
			cancel()
			return err
		}
		frames++
		s.deps.Metrics.Frames.WithLabelValues(string(frame.Type)).Inc()
		if frame.Type == stream.FrameError {
			errored = true
		}
		return nil
	}, s.structuredTools())

	err := s.deps.Engine.RunTurn(ctx, agent.TurnRequest{
		Message: envelope.Content,
		History: envelope.History,
	}, func(ev stream.Event) {
		if feedErr := arb.Feed(ev); feedErr != nil {
			s.logger.WithError(feedErr).Debug("Frame delivery stopped")
		}
	})

	// A transport breakdown before the terminal event still owes the client
	// exactly one terminal frame.
	if err != nil && !arb.Finished() {
		if feedErr := arb.Feed(stream.EventError{Err: err}); feedErr != nil {
			s.logger.WithError(feedErr).Debug("Failed to deliver turn error")
		}
	}

	s.recordTurn(start, frames, errored)
}
