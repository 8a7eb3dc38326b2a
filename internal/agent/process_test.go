package agent

import (
	"context"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/janschaeferjohann/seriem-agent/errors"
	"github.com/janschaeferjohann/seriem-agent/internal/stream"
)

// requireSh skips the test if no POSIX shell is available to play the child.
func requireSh(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

// shChild builds an argv that runs the given script as the agent process.
func shChild(script string) []string {
	return []string{"sh", "-c", script}
}

type eventLog struct {
	events []stream.Event
}

func (l *eventLog) emit(e stream.Event) {
	l.events = append(l.events, e)
}

func runTurn(t *testing.T, command []string, registry *Registry, req TurnRequest) (*eventLog, error) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if registry == nil {
		registry = NewRegistry()
	}
	engine := NewProcessEngine(command, t.TempDir(), registry)
	log := &eventLog{}
	err := engine.RunTurn(ctx, req, log.emit)
	return log, err
}

func TestProcessEngineRunTurn(t *testing.T) {
	requireSh(t)

	t.Run("text then turn end", func(t *testing.T) {
		script := `read req
printf '{"type":"text","text":"Hello "}\n'
printf '{"type":"text","text":"world"}\n'
printf '{"type":"turn_end","text":""}\n'`

		log, err := runTurn(t, shChild(script), nil, TurnRequest{Message: "hi"})
		require.NoError(t, err)
		require.Len(t, log.events, 3)
		assert.Equal(t, stream.EventModelText{Text: "Hello "}, log.events[0])
		assert.Equal(t, stream.EventModelText{Text: "world"}, log.events[1])
		assert.Equal(t, stream.EventTurnEnded{Text: ""}, log.events[2])
	})

	t.Run("tool round trip", func(t *testing.T) {
		registry := NewRegistry()
		var gotArgs map[string]any
		registry.Register(Tool{
			Name:        "echo_tool",
			Description: "echoes",
			Handler: func(_ context.Context, args map[string]any) (string, error) {
				gotArgs = args
				return "echo:ping", nil
			},
		})

		// The child waits for the tool result line before concluding, so
		// reaching turn_end proves the engine answered the call.
		script := `read req
printf '{"type":"tool_use","id":"call-1","name":"echo_tool","args":{"value":"ping"}}\n'
read result
printf '{"type":"turn_end","text":"finished"}\n'`

		log, err := runTurn(t, shChild(script), registry, TurnRequest{Message: "go"})
		require.NoError(t, err)
		require.Len(t, log.events, 3)
		assert.Equal(t, stream.EventToolStarted{Name: "echo_tool", Args: map[string]any{"value": "ping"}}, log.events[0])
		assert.Equal(t, stream.EventToolFinished{Name: "echo_tool", Result: "echo:ping"}, log.events[1])
		assert.Equal(t, stream.EventTurnEnded{Text: "finished"}, log.events[2])
		assert.Equal(t, map[string]any{"value": "ping"}, gotArgs)
	})

	t.Run("turn request advertises the toolset", func(t *testing.T) {
		registry := NewRegistry()
		registry.Register(Tool{Name: "echo_tool", Description: "echoes"})

		script := `read req
case "$req" in
*'"message":"hi"'*'"tools":'*'"echo_tool"'*) printf '{"type":"turn_end","text":"saw tools"}\n';;
*) printf '{"type":"error","message":"bad envelope"}\n';;
esac`

		log, err := runTurn(t, shChild(script), registry, TurnRequest{Message: "hi"})
		require.NoError(t, err)
		require.Len(t, log.events, 1)
		assert.Equal(t, stream.EventTurnEnded{Text: "saw tools"}, log.events[0])
	})

	t.Run("child error is terminal but not a transport failure", func(t *testing.T) {
		script := `read req
printf '{"type":"error","message":"model quota exhausted"}\n'`

		log, err := runTurn(t, shChild(script), nil, TurnRequest{Message: "hi"})
		require.NoError(t, err)
		require.Len(t, log.events, 1)
		errEvent, ok := log.events[0].(stream.EventError)
		require.True(t, ok)
		assert.EqualError(t, errEvent.Err, "model quota exhausted")
	})

	t.Run("malformed lines are skipped", func(t *testing.T) {
		script := `read req
printf 'not json at all\n'
printf '{"type":"turn_end","text":"ok"}\n'`

		log, err := runTurn(t, shChild(script), nil, TurnRequest{Message: "hi"})
		require.NoError(t, err)
		require.Len(t, log.events, 1)
		assert.Equal(t, stream.EventTurnEnded{Text: "ok"}, log.events[0])
	})

	t.Run("unknown message types are ignored", func(t *testing.T) {
		script := `read req
printf '{"type":"metrics","text":"x"}\n'
printf '{"type":"turn_end","text":"ok"}\n'`

		log, err := runTurn(t, shChild(script), nil, TurnRequest{Message: "hi"})
		require.NoError(t, err)
		require.Len(t, log.events, 1)
	})

	t.Run("exit without terminal message", func(t *testing.T) {
		script := `read req
exit 0`

		log, err := runTurn(t, shChild(script), nil, TurnRequest{Message: "hi"})
		require.Error(t, err)
		assert.Equal(t, errors.ErrCodeTransport, errors.GetCode(err))
		assert.Empty(t, log.events)
	})

	t.Run("no command configured", func(t *testing.T) {
		log, err := runTurn(t, nil, nil, TurnRequest{Message: "hi"})
		require.Error(t, err)
		assert.Equal(t, errors.ErrCodeTransport, errors.GetCode(err))
		assert.Empty(t, log.events)
	})
}

func TestProcessEngineGenerateDocument(t *testing.T) {
	requireSh(t)
	ctx := context.Background()

	t.Run("narration is dropped, result returned", func(t *testing.T) {
		script := `read req
printf '{"type":"text","text":"assembling entities"}\n'
printf '{"type":"document_result","content":"<datamodel/>"}\n'`

		engine := NewProcessEngine(shChild(script), t.TempDir(), NewRegistry())
		got, err := engine.GenerateDocument(ctx, DocumentRequest{Kind: DocumentDataModel, Description: "orders"})
		require.NoError(t, err)
		assert.Equal(t, "<datamodel/>", got)
	})

	t.Run("request carries kind and sources", func(t *testing.T) {
		script := `read req
case "$req" in
*'"kind":"formio_form"'*'"source_paths":["models/orders.xml"]'*) printf '{"type":"document_result","content":"ok"}\n';;
*) printf '{"type":"error","message":"bad request"}\n';;
esac`

		engine := NewProcessEngine(shChild(script), t.TempDir(), NewRegistry())
		got, err := engine.GenerateDocument(ctx, DocumentRequest{
			Kind:        DocumentForm,
			Description: "intake",
			SourcePaths: []string{"models/orders.xml"},
		})
		require.NoError(t, err)
		assert.Equal(t, "ok", got)
	})

	t.Run("child error surfaces with its message", func(t *testing.T) {
		script := `read req
printf '{"type":"error","message":"cannot generate"}\n'`

		engine := NewProcessEngine(shChild(script), t.TempDir(), NewRegistry())
		_, err := engine.GenerateDocument(ctx, DocumentRequest{Kind: DocumentDataModel})
		require.Error(t, err)
		assert.Equal(t, errors.ErrCodeTransport, errors.GetCode(err))
		assert.Contains(t, err.Error(), "cannot generate")
	})

	t.Run("exit without result", func(t *testing.T) {
		engine := NewProcessEngine(shChild("read req"), t.TempDir(), NewRegistry())
		_, err := engine.GenerateDocument(ctx, DocumentRequest{Kind: DocumentDataModel})
		require.Error(t, err)
		assert.Equal(t, errors.ErrCodeTransport, errors.GetCode(err))
	})
}
