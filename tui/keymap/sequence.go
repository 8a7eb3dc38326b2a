package keymap

import (
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// SequenceState tracks multi-key sequences such as gg. Keys accumulate in a
// buffer that clears after a timeout, so a lone g pressed twice a minute
// apart never jumps to the top.
type SequenceState struct {
	buffer     string
	lastUpdate time.Time
	timeout    time.Duration
}

// NewSequenceState creates a sequence tracker with a 1 second timeout.
func NewSequenceState() *SequenceState {
	return NewSequenceStateWithTimeout(time.Second)
}

// NewSequenceStateWithTimeout creates a sequence tracker with a custom
// timeout. A zero timeout means the buffer never expires on its own.
func NewSequenceStateWithTimeout(timeout time.Duration) *SequenceState {
	return &SequenceState{timeout: timeout}
}

// Update appends the key to the buffer, clearing it first if the timeout
// elapsed, and returns the buffer contents.
func (s *SequenceState) Update(msg tea.KeyMsg) string {
	return s.UpdateKey(msg.String())
}

// UpdateKey is Update for callers that already hold the key string.
func (s *SequenceState) UpdateKey(keyStr string) string {
	if s.timeout > 0 && time.Since(s.lastUpdate) > s.timeout {
		s.buffer = ""
	}
	s.lastUpdate = time.Now()
	s.buffer += keyStr
	return s.buffer
}

// Clear resets the buffer. Call this after a successful match.
func (s *SequenceState) Clear() {
	s.buffer = ""
}

// Buffer returns the current buffer contents.
func (s *SequenceState) Buffer() string {
	return s.buffer
}

// IsPending reports whether a partial sequence is buffered.
func (s *SequenceState) IsPending() bool {
	return s.buffer != ""
}

// Matches reports whether the buffer exactly equals one of the binding's keys.
func Matches(buffer string, binding key.Binding) bool {
	return slices.Contains(binding.Keys(), buffer)
}

// MatchesAny returns the index of the first binding the buffer matches,
// or -1 and false.
func MatchesAny(buffer string, bindings ...key.Binding) (int, bool) {
	idx := slices.IndexFunc(bindings, func(b key.Binding) bool {
		return Matches(buffer, b)
	})
	return idx, idx >= 0
}

// IsPrefix reports whether the buffer is a proper prefix of one of the
// binding's keys, meaning more input could still complete a sequence.
func IsPrefix(buffer string, binding key.Binding) bool {
	if buffer == "" {
		return false
	}
	for _, k := range binding.Keys() {
		if len(buffer) < len(k) && strings.HasPrefix(k, buffer) {
			return true
		}
	}
	return false
}

// IsPrefixOfAny reports whether the buffer is a prefix of any binding's keys.
func IsPrefixOfAny(buffer string, bindings ...key.Binding) bool {
	return slices.ContainsFunc(bindings, func(b key.Binding) bool {
		return IsPrefix(buffer, b)
	})
}

// SequenceResult is the outcome of feeding a key into Process.
type SequenceResult int

const (
	// SequenceNone indicates no match and no potential match.
	SequenceNone SequenceResult = iota
	// SequencePending indicates the buffer is a prefix of a valid sequence.
	SequencePending
	// SequenceMatch indicates a complete sequence match.
	SequenceMatch
)

// Process feeds a key message into the sequence buffer and classifies the
// result against the given bindings, returning the matched binding's index
// on SequenceMatch.
//
//	result, idx := seq.Process(msg, m.keys.Top, m.keys.Bottom)
//	switch result {
//	case keymap.SequenceMatch:
//	    seq.Clear()
//	    // act on bindings[idx]
//	case keymap.SequencePending:
//	    // wait for more input
//	case keymap.SequenceNone:
//	    seq.Clear()
//	    // fall through to single-key handling
//	}
func (s *SequenceState) Process(msg tea.KeyMsg, bindings ...key.Binding) (SequenceResult, int) {
	return s.ProcessKey(msg.String(), bindings...)
}

// ProcessKey is Process for callers that already hold the key string.
func (s *SequenceState) ProcessKey(keyStr string, bindings ...key.Binding) (SequenceResult, int) {
	buffer := s.UpdateKey(keyStr)
	if idx, ok := MatchesAny(buffer, bindings...); ok {
		return SequenceMatch, idx
	}
	if IsPrefixOfAny(buffer, bindings...) {
		return SequencePending, -1
	}
	return SequenceNone, -1
}
