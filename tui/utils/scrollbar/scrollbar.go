// Package scrollbar renders a textual scrollbar alongside viewport content.
package scrollbar

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"

	"github.com/janschaeferjohann/seriem-agent/tui/theme"
)

const (
	thumbGlyph = "█"
	trackGlyph = "░"
)

// Overlay appends a scrollbar column to the viewport's visible content.
func Overlay(vp *viewport.Model) string {
	lines := strings.Split(vp.View(), "\n")
	bar := track(vp, len(lines))

	var b strings.Builder
	for i, line := range lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)
		b.WriteString(bar[i])
	}
	return b.String()
}

// track builds one scrollbar cell per line: a proportional thumb over a
// dotted track, or a full thumb when everything already fits.
func track(vp *viewport.Model, height int) []string {
	muted := theme.DefaultTheme.Muted
	cells := make([]string, max(height, 0))

	total := vp.TotalLineCount()
	if total == 0 {
		for i := range cells {
			cells[i] = muted.Render(" ")
		}
		return cells
	}
	if total <= vp.Height {
		for i := range cells {
			cells[i] = muted.Render(thumbGlyph)
		}
		return cells
	}

	size := max(1, height*vp.Height/total)
	start := thumbStart(vp.ScrollPercent(), height-size)
	for i := range cells {
		if i >= start && i < start+size {
			cells[i] = muted.Render(thumbGlyph)
		} else {
			cells[i] = muted.Render(trackGlyph)
		}
	}
	return cells
}

// thumbStart maps scroll progress onto the available travel, clamped to it.
func thumbStart(percent float64, travel int) int {
	if percent < 0 {
		percent = 0
	} else if percent > 1 {
		percent = 1
	}
	start := int(float64(travel)*percent + 0.5)
	if start < 0 {
		return 0
	}
	return min(start, travel)
}
