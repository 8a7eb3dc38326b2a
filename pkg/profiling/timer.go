// Package profiling provides opt-in timing spans and pprof capture for the
// CLI and daemon. Everything is a no-op until Enable is called, so spans can
// stay in hot paths permanently.
package profiling

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"
)

// Stopper ends a timed span, typically via defer.
type Stopper interface {
	Stop()
}

type span struct {
	name     string
	start    time.Time
	duration time.Duration
	children []*span
	owner    *profiler
}

func (s *span) Stop() {
	s.duration = time.Since(s.start)
	s.owner.pop(s)
}

type profiler struct {
	mu      sync.Mutex
	enabled bool
	root    *span
	stack   []*span
}

var global = &profiler{}

// Enable turns on span collection. Spans started before Enable are lost.
func Enable() {
	global.mu.Lock()
	defer global.mu.Unlock()

	if global.enabled {
		return
	}
	global.enabled = true
	global.root = &span{name: "root", start: time.Now(), owner: global}
	global.stack = []*span{global.root}
}

// Start opens a span nested under the innermost open span. When profiling is
// disabled the returned Stopper does nothing.
func Start(name string) Stopper {
	global.mu.Lock()
	defer global.mu.Unlock()

	if !global.enabled {
		return noopStopper{}
	}

	parent := global.stack[len(global.stack)-1]
	s := &span{name: name, start: time.Now(), owner: global}
	parent.children = append(parent.children, s)
	global.stack = append(global.stack, s)
	return s
}

func (p *profiler) pop(s *span) {
	p.mu.Lock()
	defer p.mu.Unlock()

	// Unwind to the stopped span so an out-of-order Stop closes whatever
	// was opened inside it too.
	for i := len(p.stack) - 1; i > 0; i-- {
		if p.stack[i] == s {
			p.stack = p.stack[:i]
			return
		}
	}
}

// Summarize writes the collected span tree with durations and percentages of
// the total run time.
func Summarize(w io.Writer) {
	global.mu.Lock()
	defer global.mu.Unlock()

	if !global.enabled || global.root == nil {
		return
	}
	if global.root.duration == 0 {
		global.root.duration = time.Since(global.root.start)
	}

	fmt.Fprintln(w, "\n--- Timing Profile ---")
	printSpan(w, global.root, 0, global.root.duration)
	fmt.Fprintln(w, "--------------------")
}

func printSpan(w io.Writer, s *span, depth int, total time.Duration) {
	if s.name != "root" {
		pct := 0.0
		if total > 0 {
			pct = float64(s.duration) / float64(total) * 100
		}
		fmt.Fprintf(w, "%s- %s (%v, %.1f%%)\n",
			strings.Repeat("  ", depth), s.name, s.duration.Round(100*time.Microsecond), pct)
	}

	sort.Slice(s.children, func(i, j int) bool {
		return s.children[i].start.Before(s.children[j].start)
	})
	for _, child := range s.children {
		printSpan(w, child, depth+1, total)
	}
}

type noopStopper struct{}

func (noopStopper) Stop() {}
