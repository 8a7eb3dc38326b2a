package proposals

import (
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/janschaeferjohann/seriem-agent/pkg/profiling"
)

// DiffLineType classifies a rendered diff line.
type DiffLineType string

const (
	DiffContext DiffLineType = "context"
	DiffAdded   DiffLineType = "added"
	DiffRemoved DiffLineType = "removed"
)

// DiffLine is one line of a rendered change preview.
type DiffLine struct {
	Type    DiffLineType `json:"type"`
	Text    string       `json:"text"`
	OldLine int          `json:"old_line,omitempty"`
	NewLine int          `json:"new_line,omitempty"`
}

// MaxPreviewLines caps how large a change preview gets before the renderer
// gives up. Reviewing a 50k-line generated file line by line is not useful.
const MaxPreviewLines = 5000

// Preview renders a line diff of the change for display. This is
// presentation only; approval applies the stored after-content verbatim
// regardless of what the preview shows. The second return is true when the
// change was too large to render.
func (c *FileChange) Preview() ([]DiffLine, bool) {
	defer profiling.Start("proposals.Preview").Stop()

	before := deref(c.Before)
	after := deref(c.After)
	if len(splitLines(before))+len(splitLines(after)) > MaxPreviewLines {
		return nil, true
	}

	dmp := diffmatchpatch.New()
	beforeChars, afterChars, lineArray := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffMain(beforeChars, afterChars, false)
	diffs = dmp.DiffCharsToLines(diffs, lineArray)

	var lines []DiffLine
	oldLine := 1
	newLine := 1
	for _, d := range diffs {
		for _, text := range splitLines(d.Text) {
			switch d.Type {
			case diffmatchpatch.DiffEqual:
				lines = append(lines, DiffLine{Type: DiffContext, Text: text, OldLine: oldLine, NewLine: newLine})
				oldLine++
				newLine++
			case diffmatchpatch.DiffDelete:
				lines = append(lines, DiffLine{Type: DiffRemoved, Text: text, OldLine: oldLine})
				oldLine++
			case diffmatchpatch.DiffInsert:
				lines = append(lines, DiffLine{Type: DiffAdded, Text: text, NewLine: newLine})
				newLine++
			}
		}
	}
	return lines, false
}

// RenderUnified formats the change as familiar unified-diff text with
// ---/+++ headers, for terminal display.
func (c *FileChange) RenderUnified() string {
	var b strings.Builder

	switch c.Operation {
	case OperationCreate:
		fmt.Fprintf(&b, "--- /dev/null\n+++ b/%s\n", c.Path)
	case OperationDelete:
		fmt.Fprintf(&b, "--- a/%s\n+++ /dev/null\n", c.Path)
	default:
		fmt.Fprintf(&b, "--- a/%s\n+++ b/%s\n", c.Path, c.Path)
	}

	lines, truncated := c.Preview()
	if truncated {
		fmt.Fprintf(&b, "(diff too large to render: +%d/-%d lines)\n", c.LinesAdded(), c.LinesRemoved())
		return b.String()
	}
	for _, line := range lines {
		switch line.Type {
		case DiffAdded:
			b.WriteString("+")
		case DiffRemoved:
			b.WriteString("-")
		default:
			b.WriteString(" ")
		}
		b.WriteString(line.Text)
		b.WriteString("\n")
	}
	return b.String()
}
