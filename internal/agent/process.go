package agent

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/janschaeferjohann/seriem-agent/errors"
	"github.com/janschaeferjohann/seriem-agent/internal/stream"
	"github.com/janschaeferjohann/seriem-agent/logging"
	"github.com/janschaeferjohann/seriem-agent/pkg/profiling"
)

const (
	// Agent output can carry whole file contents inside a single line.
	maxAgentLineSize = 10 * 1024 * 1024

	// How long a child gets to exit on its own after the turn concludes.
	shutdownGrace = 5 * time.Second
)

// ProcessEngine runs the agent as a child process, one process per turn.
// The exchange is newline-delimited JSON: the engine writes the turn request
// on stdin, the child replies with text / tool_use / turn_end / error
// messages on stdout, and tool calls are answered inline with tool_result
// messages. The child is expected to exit once it has reported a terminal
// message; stragglers are killed after a grace period.
type ProcessEngine struct {
	command  []string
	dir      string
	registry *Registry
	logger   *logrus.Entry

	// Env holds extra KEY=VALUE entries appended to the inherited
	// environment of every child process.
	Env []string
}

// NewProcessEngine builds an engine that spawns command (argv form) with the
// given working directory. Tool calls from the child are dispatched against
// the registry.
func NewProcessEngine(command []string, dir string, registry *Registry) *ProcessEngine {
	return &ProcessEngine{
		command:  command,
		dir:      dir,
		registry: registry,
		logger:   logging.NewLogger("agent"),
	}
}

// agentMessage is one stdout line from the child.
type agentMessage struct {
	Type    string         `json:"type"`
	ID      string         `json:"id,omitempty"`
	Name    string         `json:"name,omitempty"`
	Args    map[string]any `json:"args,omitempty"`
	Text    string         `json:"text,omitempty"`
	Message string         `json:"message,omitempty"`
	Content string         `json:"content,omitempty"`
}

// turnEnvelope opens a turn on the child's stdin.
type turnEnvelope struct {
	Type    string           `json:"type"`
	Message string           `json:"message"`
	History []Message        `json:"chat_history"`
	Tools   []ToolDescriptor `json:"tools"`
}

// toolResultEnvelope answers a tool_use message.
type toolResultEnvelope struct {
	Type    string `json:"type"`
	ID      string `json:"id"`
	Content string `json:"content"`
}

// documentEnvelope opens a document generation job on the child's stdin.
type documentEnvelope struct {
	Type        string   `json:"type"`
	Kind        string   `json:"kind"`
	Description string   `json:"description"`
	SourcePaths []string `json:"source_paths,omitempty"`
}

// RunTurn spawns the agent process and pumps its output into emit until the
// child reports turn_end or error. Those are terminal: RunTurn returns nil
// for both, because the turn reached a conclusion the caller can relay. An
// error return means the transport broke down first (child unreachable,
// exited early, output unreadable) and no terminal event was emitted.
func (e *ProcessEngine) RunTurn(ctx context.Context, req TurnRequest, emit func(stream.Event)) error {
	defer profiling.Start("agent.RunTurn").Stop()

	child, err := e.start(ctx)
	if err != nil {
		return err
	}

	open := turnEnvelope{
		Type:    "turn",
		Message: req.Message,
		History: req.History,
		Tools:   e.registry.Descriptors(),
	}
	if err := child.send(open); err != nil {
		child.abandon()
		return errors.TransportFailure(err, "sending turn request")
	}

	for child.scanner.Scan() {
		line := strings.TrimSpace(child.scanner.Text())
		if line == "" {
			continue
		}
		var msg agentMessage
		if err := json.Unmarshal([]byte(line), &msg); err != nil {
			e.logger.WithField("line", truncateForLog(line)).Warn("Discarding malformed agent output")
			continue
		}

		switch msg.Type {
		case "text":
			emit(stream.EventModelText{Text: msg.Text})

		case "tool_use":
			args := msg.Args
			if args == nil {
				args = map[string]any{}
			}
			emit(stream.EventToolStarted{Name: msg.Name, Args: args})
			result := e.registry.Dispatch(ctx, msg.Name, args)
			if err := child.send(toolResultEnvelope{Type: "tool_result", ID: msg.ID, Content: result}); err != nil {
				child.abandon()
				return errors.TransportFailure(err, "sending tool result")
			}
			emit(stream.EventToolFinished{Name: msg.Name, Result: result})

		case "turn_end":
			emit(stream.EventTurnEnded{Text: msg.Text})
			child.shutdown(e.logger)
			return nil

		case "error":
			message := msg.Message
			if message == "" {
				message = "agent reported an unspecified error"
			}
			emit(stream.EventError{Err: fmt.Errorf("%s", message)})
			child.shutdown(e.logger)
			return nil

		default:
			e.logger.WithField("type", msg.Type).Debug("Ignoring unknown agent message")
		}
	}

	// Stdout closed without a terminal message: the child crashed, was
	// killed by context cancellation, or simply forgot to conclude.
	scanErr := child.scanner.Err()
	child.stdin.Close()
	waitErr := child.cmd.Wait()
	if ctx.Err() != nil {
		return errors.TransportFailure(ctx.Err(), "agent turn")
	}
	cause := scanErr
	if cause == nil {
		cause = waitErr
	}
	if cause == nil {
		cause = fmt.Errorf("agent exited before completing the turn")
	}
	return errors.TransportFailure(cause, "agent turn")
}

// GenerateDocument runs a one-shot document job through the same child
// protocol. Narrative text messages from the child are dropped; only the
// document_result content comes back.
func (e *ProcessEngine) GenerateDocument(ctx context.Context, req DocumentRequest) (string, error) {
	child, err := e.start(ctx)
	if err != nil {
		return "", err
	}

	open := documentEnvelope{
		Type:        "document",
		Kind:        string(req.Kind),
		Description: req.Description,
		SourcePaths: req.SourcePaths,
	}
	if err := child.send(open); err != nil {
		child.abandon()
		return "", errors.TransportFailure(err, "sending document request")
	}

	for child.scanner.Scan() {
		line := strings.TrimSpace(child.scanner.Text())
		if line == "" {
			continue
		}
		var msg agentMessage
		if err := json.Unmarshal([]byte(line), &msg); err != nil {
			e.logger.WithField("line", truncateForLog(line)).Warn("Discarding malformed agent output")
			continue
		}

		switch msg.Type {
		case "document_result":
			child.shutdown(e.logger)
			return msg.Content, nil
		case "error":
			child.shutdown(e.logger)
			message := msg.Message
			if message == "" {
				message = "document generation failed"
			}
			return "", errors.New(errors.ErrCodeTransport, message)
		default:
			// Sub-agent narration and progress chatter; not part of
			// the document.
		}
	}

	scanErr := child.scanner.Err()
	child.stdin.Close()
	waitErr := child.cmd.Wait()
	if ctx.Err() != nil {
		return "", errors.TransportFailure(ctx.Err(), "document generation")
	}
	cause := scanErr
	if cause == nil {
		cause = waitErr
	}
	if cause == nil {
		cause = fmt.Errorf("agent exited before producing a document")
	}
	return "", errors.TransportFailure(cause, "document generation")
}

// childProcess bundles the running command with its pipes.
type childProcess struct {
	cmd     *exec.Cmd
	stdin   io.WriteCloser
	stdout  io.ReadCloser
	scanner *bufio.Scanner
}

func (e *ProcessEngine) start(ctx context.Context) (*childProcess, error) {
	if len(e.command) == 0 {
		return nil, errors.TransportFailure(fmt.Errorf("no agent command configured"), "starting agent")
	}

	cmd := exec.CommandContext(ctx, e.command[0], e.command[1:]...)
	cmd.Dir = e.dir
	env := append(os.Environ(), "PYTHONUNBUFFERED=1")
	cmd.Env = append(env, e.Env...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, errors.TransportFailure(err, "starting agent")
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		stdin.Close()
		return nil, errors.TransportFailure(err, "starting agent")
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		stdin.Close()
		return nil, errors.TransportFailure(err, "starting agent")
	}

	if err := cmd.Start(); err != nil {
		stdin.Close()
		return nil, errors.TransportFailure(err, "starting agent")
	}
	e.logger.WithFields(logrus.Fields{
		"command": e.command[0],
		"pid":     cmd.Process.Pid,
	}).Debug("Agent process started")

	go e.logStderr(stderr)

	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), maxAgentLineSize)

	return &childProcess{cmd: cmd, stdin: stdin, stdout: stdout, scanner: scanner}, nil
}

func (e *ProcessEngine) logStderr(stderr io.Reader) {
	scanner := bufio.NewScanner(stderr)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		e.logger.WithField("stderr", line).Debug("Agent diagnostics")
	}
}

func (c *childProcess) send(v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = c.stdin.Write(append(payload, '\n'))
	return err
}

// shutdown closes stdin so a well-behaved child exits, drains stdout so Wait
// can complete, and kills the process if it overstays the grace period.
func (c *childProcess) shutdown(logger *logrus.Entry) {
	c.stdin.Close()
	go io.Copy(io.Discard, c.stdout)

	done := make(chan error, 1)
	go func() { done <- c.cmd.Wait() }()
	select {
	case err := <-done:
		if err != nil {
			logger.WithError(err).Debug("Agent process exited uncleanly")
		}
	case <-time.After(shutdownGrace):
		logger.Warn("Agent process did not exit, killing it")
		if c.cmd.Process != nil {
			c.cmd.Process.Kill()
		}
		<-done
	}
}

// abandon tears the child down after a transport failure, without waiting.
func (c *childProcess) abandon() {
	c.stdin.Close()
	if c.cmd.Process != nil {
		c.cmd.Process.Kill()
	}
	go func() {
		io.Copy(io.Discard, c.stdout)
		c.cmd.Wait()
	}()
}

// truncateForLog shortens raw protocol lines for log fields.
func truncateForLog(s string) string {
	const maxLen = 200
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
