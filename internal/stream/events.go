// Package stream turns the raw event sequence of one agent turn into the
// ordered, de-duplicated frame sequence a client should see. The arbiter is
// the only component allowed to decide what reaches the chat transcript.
package stream

// Event is one unit of agent execution activity, consumed strictly in
// arrival order. Exactly one of EventTurnEnded or EventError terminates a
// turn's sequence.
type Event interface {
	isEvent()
}

// EventModelText is a chunk of model narration. Chunks arriving while a tool
// is running belong to a nested sub-agent, not the top-level narrator.
type EventModelText struct {
	Text string
}

// EventToolStarted marks a tool invocation beginning.
type EventToolStarted struct {
	Name string
	Args map[string]any
}

// EventToolFinished carries a completed tool's result text.
type EventToolFinished struct {
	Name   string
	Result string
}

// EventTurnEnded closes a successful turn. Text carries the final response
// for engines that only report content at completion.
type EventTurnEnded struct {
	Text string
}

// EventError closes a failed turn.
type EventError struct {
	Err error
}

func (EventModelText) isEvent()    {}
func (EventToolStarted) isEvent()  {}
func (EventToolFinished) isEvent() {}
func (EventTurnEnded) isEvent()    {}
func (EventError) isEvent()        {}
