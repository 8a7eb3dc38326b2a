// Package agent binds the agent execution engine to the daemon: the tool
// registry the engine may call, the filesystem and document tools themselves,
// and the subprocess engine that speaks the stdio turn protocol.
package agent

import (
	"context"

	"github.com/janschaeferjohann/seriem-agent/internal/stream"
)

// Message is one prior exchange in a conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// TurnRequest describes one agent turn: the new user message plus the
// conversation so far.
type TurnRequest struct {
	Message string    `json:"message"`
	History []Message `json:"chat_history"`
}

// Engine runs agent turns. RunTurn emits events in real time through emit
// and returns an error only when the turn broke down before reaching a
// terminal event; a turn that ends in EventTurnEnded or EventError returns
// nil. Implementations must observe ctx between events.
type Engine interface {
	RunTurn(ctx context.Context, req TurnRequest, emit func(stream.Event)) error
}

// EngineFunc adapts a function to the Engine interface; tests script turns
// with it.
type EngineFunc func(ctx context.Context, req TurnRequest, emit func(stream.Event)) error

// RunTurn calls f.
func (f EngineFunc) RunTurn(ctx context.Context, req TurnRequest, emit func(stream.Event)) error {
	return f(ctx, req, emit)
}
