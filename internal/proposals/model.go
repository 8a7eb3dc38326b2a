// Package proposals holds the pending file mutations an agent has suggested
// but a human has not yet approved. Nothing in this package touches the
// workspace; applying an approved proposal to disk is the caller's job.
package proposals

import (
	"strings"
	"time"
	"unicode"

	"github.com/janschaeferjohann/seriem-agent/errors"
)

// Operation is the kind of mutation a FileChange performs.
type Operation string

const (
	OperationCreate Operation = "create"
	OperationUpdate Operation = "update"
	OperationDelete Operation = "delete"
)

// FileChange is one file's mutation within a proposal: the operation plus the
// full before/after content. Create has no before, delete has no after,
// update carries both.
type FileChange struct {
	Path      string    `json:"path"`
	Operation Operation `json:"operation"`
	Before    *string   `json:"before,omitempty"`
	After     *string   `json:"after,omitempty"`
}

// Validate enforces the operation/content invariants.
func (c *FileChange) Validate() error {
	if c.Path == "" {
		return errors.New(errors.ErrCodeInvalidInput, "file change has no path")
	}

	switch c.Operation {
	case OperationCreate:
		if c.Before != nil {
			return errors.New(errors.ErrCodeInvalidInput, "create must not carry before content").
				WithDetail("path", c.Path)
		}
		if c.After == nil {
			return errors.New(errors.ErrCodeInvalidInput, "create requires after content").
				WithDetail("path", c.Path)
		}
	case OperationUpdate:
		if c.Before == nil || c.After == nil {
			return errors.New(errors.ErrCodeInvalidInput, "update requires both before and after content").
				WithDetail("path", c.Path)
		}
	case OperationDelete:
		if c.After != nil {
			return errors.New(errors.ErrCodeInvalidInput, "delete must not carry after content").
				WithDetail("path", c.Path)
		}
		if c.Before == nil {
			return errors.New(errors.ErrCodeInvalidInput, "delete requires before content").
				WithDetail("path", c.Path)
		}
	default:
		return errors.New(errors.ErrCodeInvalidInput, "unknown operation").
			WithDetail("operation", string(c.Operation))
	}

	return nil
}

// LinesAdded counts lines present after the change but not before. For
// updates this is a set-membership heuristic, not a minimal edit script: it
// overcounts pure reorderings and undercounts duplicate-line churn. Good
// enough for listing badges; the rendered diff (diff.go) is authoritative for
// review.
func (c *FileChange) LinesAdded() int {
	switch c.Operation {
	case OperationCreate:
		return len(splitLines(deref(c.After)))
	case OperationDelete:
		return 0
	default:
		before := lineSet(splitLines(deref(c.Before)))
		count := 0
		for _, line := range splitLines(deref(c.After)) {
			if _, ok := before[line]; !ok {
				count++
			}
		}
		return count
	}
}

// LinesRemoved mirrors LinesAdded for lines that disappeared.
func (c *FileChange) LinesRemoved() int {
	switch c.Operation {
	case OperationCreate:
		return 0
	case OperationDelete:
		return len(splitLines(deref(c.Before)))
	default:
		after := lineSet(splitLines(deref(c.After)))
		count := 0
		for _, line := range splitLines(deref(c.Before)) {
			if _, ok := after[line]; !ok {
				count++
			}
		}
		return count
	}
}

// Proposal is an ordered, non-empty batch of file changes pending review.
type Proposal struct {
	ID        string       `json:"proposal_id"`
	Summary   string       `json:"summary"`
	Changes   []FileChange `json:"files"`
	CreatedAt time.Time    `json:"created_at"`
}

// FilesAffected returns the change paths in order.
func (p *Proposal) FilesAffected() []string {
	paths := make([]string, 0, len(p.Changes))
	for _, c := range p.Changes {
		paths = append(paths, c.Path)
	}
	return paths
}

// LinesAdded aggregates the added-line counts of all changes.
func (p *Proposal) LinesAdded() int {
	total := 0
	for i := range p.Changes {
		total += p.Changes[i].LinesAdded()
	}
	return total
}

// LinesRemoved aggregates the removed-line counts of all changes.
func (p *Proposal) LinesRemoved() int {
	total := 0
	for i := range p.Changes {
		total += p.Changes[i].LinesRemoved()
	}
	return total
}

// clone returns a deep copy so callers can't mutate store-owned state.
func (p *Proposal) clone() *Proposal {
	copied := *p
	copied.Changes = make([]FileChange, len(p.Changes))
	for i, c := range p.Changes {
		cc := c
		if c.Before != nil {
			before := *c.Before
			cc.Before = &before
		}
		if c.After != nil {
			after := *c.After
			cc.After = &after
		}
		copied.Changes[i] = cc
	}
	return &copied
}

// Summary is the cheap listing form of a proposal: counts, never bodies.
type Summary struct {
	ID           string    `json:"proposal_id"`
	Summary      string    `json:"summary"`
	FileCount    int       `json:"file_count"`
	LinesAdded   int       `json:"lines_added"`
	LinesRemoved int       `json:"lines_removed"`
	CreatedAt    time.Time `json:"created_at"`
}

// defaultSummary builds "<Operation> <path>" for a single unnamed change.
func defaultSummary(change FileChange) string {
	return capitalize(string(change.Operation)) + " " + change.Path
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

// splitLines splits content the way line counters expect: a trailing newline
// does not produce a phantom empty line.
func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	lines := strings.Split(s, "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

func lineSet(lines []string) map[string]struct{} {
	set := make(map[string]struct{}, len(lines))
	for _, line := range lines {
		set[line] = struct{}{}
	}
	return set
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
