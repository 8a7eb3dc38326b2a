package stream

// FrameType tags an outbound client frame.
type FrameType string

const (
	FrameStream     FrameType = "stream"
	FrameToolCall   FrameType = "tool_call"
	FrameToolResult FrameType = "tool_result"
	FrameDone       FrameType = "done"
	FrameError      FrameType = "error"
)

// Frame is one outbound client event: {type, content} on the wire.
// stream/done/error carry a string; tool_call and tool_result carry the
// structured contents below.
type Frame struct {
	Type    FrameType `json:"type"`
	Content any       `json:"content"`
}

// ToolCallContent is the tool_call frame body.
type ToolCallContent struct {
	Name string         `json:"name"`
	Args map[string]any `json:"args"`
}

// ToolResultContent is the tool_result frame body.
type ToolResultContent struct {
	Name   string `json:"name"`
	Result string `json:"result"`
}

func streamFrame(text string) Frame {
	return Frame{Type: FrameStream, Content: text}
}

func toolCallFrame(name string, args map[string]any) Frame {
	return Frame{Type: FrameToolCall, Content: ToolCallContent{Name: name, Args: args}}
}

func toolResultFrame(name, result string) Frame {
	return Frame{Type: FrameToolResult, Content: ToolResultContent{Name: name, Result: result}}
}

func doneFrame(text string) Frame {
	return Frame{Type: FrameDone, Content: text}
}

// ErrorFrame builds the terminal error frame. Exported because the
// connection loop also needs it for failures outside a running arbiter.
func ErrorFrame(message string) Frame {
	return Frame{Type: FrameError, Content: message}
}

// Collector is a Sink that records frames in order, used by the
// non-streaming chat path and by tests.
type Collector struct {
	Frames []Frame
}

// Sink returns a Sink appending to the collector.
func (c *Collector) Sink() Sink {
	return func(f Frame) error {
		c.Frames = append(c.Frames, f)
		return nil
	}
}

// VisibleText concatenates the content of all collected stream frames.
func (c *Collector) VisibleText() string {
	var out string
	for _, f := range c.Frames {
		if f.Type == FrameStream {
			if s, ok := f.Content.(string); ok {
				out += s
			}
		}
	}
	return out
}

// Done returns the content of the done frame, if the turn reached one.
func (c *Collector) Done() (string, bool) {
	for _, f := range c.Frames {
		if f.Type == FrameDone {
			s, _ := f.Content.(string)
			return s, true
		}
	}
	return "", false
}
