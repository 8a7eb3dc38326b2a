package stream

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"github.com/janschaeferjohann/seriem-agent/errors"
	"github.com/janschaeferjohann/seriem-agent/logging"
)

// Sink receives frames in emission order. A sink error aborts the turn; the
// connection loop uses this to cancel when the client is gone.
type Sink func(Frame) error

// EchoPayloadThreshold is the minimum size of a structured tool result that
// primes echo suppression. Short results are cheap to restate; only large
// generated documents are worth de-duplicating.
const EchoPayloadThreshold = 200

// DefaultStructuredTools lists the tools whose results are generated
// documents the narrator model tends to restate verbatim.
func DefaultStructuredTools() []string {
	return []string{"generate_datamodel", "generate_formio_form", "generate_testcases"}
}

// Arbiter filters one turn's events into client frames: tool activity always
// passes, nested narration is dropped, and model text that restates a large
// structured tool payload is cut at the markup boundary. Exactly one done or
// error frame ends every turn.
//
// Not safe for concurrent use; the connection loop drives one turn at a time.
type Arbiter struct {
	sink       Sink
	structured map[string]struct{}
	logger     *logrus.Entry

	toolDepth     int
	suppressing   bool
	suppressedAny bool
	largePayload  string
	visible       strings.Builder
	finished      bool
}

// NewArbiter creates an arbiter for a single turn with the default
// structured-document tool set.
func NewArbiter(sink Sink) *Arbiter {
	return NewArbiterWithTools(sink, DefaultStructuredTools())
}

// NewArbiterWithTools creates an arbiter with a custom structured-document
// tool set.
func NewArbiterWithTools(sink Sink, structuredTools []string) *Arbiter {
	set := make(map[string]struct{}, len(structuredTools))
	for _, name := range structuredTools {
		set[name] = struct{}{}
	}
	return &Arbiter{
		sink:       sink,
		structured: set,
		logger:     logging.NewLogger("stream"),
	}
}

// Finished reports whether the turn reached its terminal frame.
func (a *Arbiter) Finished() bool {
	return a.finished
}

// VisibleText returns the accumulated client-visible text so far.
func (a *Arbiter) VisibleText() string {
	return a.visible.String()
}

// Feed processes one event. Events arriving after the terminal event are a
// collaborator contract violation and fail with an internal error.
func (a *Arbiter) Feed(ev Event) error {
	if a.finished {
		return errors.New(errors.ErrCodeInternal, "event received after turn finished")
	}

	switch e := ev.(type) {
	case EventToolStarted:
		if err := a.sink(toolCallFrame(e.Name, e.Args)); err != nil {
			return err
		}
		a.toolDepth++

	case EventToolFinished:
		if err := a.sink(toolResultFrame(e.Name, e.Result)); err != nil {
			return err
		}
		if a.toolDepth > 0 {
			a.toolDepth--
		}
		a.maybePrime(e.Name, e.Result)

	case EventModelText:
		return a.feedText(e.Text)

	case EventTurnEnded:
		a.finished = true
		if a.visible.Len() == 0 && !a.suppressedAny && e.Text != "" {
			if err := a.sink(streamFrame(e.Text)); err != nil {
				return err
			}
			a.visible.WriteString(e.Text)
		}
		return a.sink(doneFrame(a.visible.String()))

	case EventError:
		a.finished = true
		message := "agent turn failed"
		if e.Err != nil {
			message = e.Err.Error()
		}
		return a.sink(ErrorFrame(message))
	}

	return nil
}

// maybePrime records a structured tool's result as the payload the narrator
// may be about to echo.
func (a *Arbiter) maybePrime(name, result string) {
	if _, ok := a.structured[name]; !ok {
		return
	}
	trimmed := strings.TrimLeftFunc(result, unicode.IsSpace)
	if len(trimmed) >= EchoPayloadThreshold && markupStartIndex(trimmed) == 0 {
		a.largePayload = trimmed
	}
}

func (a *Arbiter) feedText(text string) error {
	// Narration under a running tool comes from a nested sub-agent; the
	// tool_result already carries its output.
	if a.toolDepth > 0 {
		return nil
	}
	if a.suppressing {
		a.suppressedAny = true
		return nil
	}
	if a.largePayload == "" {
		return a.emitText(text)
	}

	idx := markupStartIndex(text)
	if idx < 0 {
		return a.emitText(text)
	}

	// The narrator is restating the payload a tool already delivered. Keep
	// whatever it said before the markup, drop the rest of the turn's text.
	a.suppressing = true
	a.suppressedAny = true
	a.logger.WithField("chunk_bytes", len(text)).Debug("Echo suppression engaged")
	prefix := strings.TrimRightFunc(text[:idx], unicode.IsSpace)
	if prefix != "" {
		return a.emitText(prefix)
	}
	return nil
}

func (a *Arbiter) emitText(text string) error {
	if text == "" {
		return nil
	}
	if err := a.sink(streamFrame(text)); err != nil {
		return err
	}
	a.visible.WriteString(text)
	return nil
}

// markupStartIndex returns the byte offset of the first markup-start token
// ('<' followed by a letter, '!', '?' or '/'), or -1.
func markupStartIndex(s string) int {
	for i := 0; i < len(s); i++ {
		if s[i] != '<' || i+1 >= len(s) {
			continue
		}
		r, _ := utf8.DecodeRuneInString(s[i+1:])
		if r == '!' || r == '?' || r == '/' || unicode.IsLetter(r) {
			return i
		}
	}
	return -1
}
