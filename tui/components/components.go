// Package components provides small shared render helpers for TUIs.
package components

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/janschaeferjohann/seriem-agent/tui/theme"
)

// RenderHeader creates a consistent header line for TUIs. The icon goes in
// front of the title; an optional subtitle renders muted underneath.
func RenderHeader(icon, title string, subtitle ...string) string {
	t := theme.DefaultTheme

	header := t.Header.Render(fmt.Sprintf("%s %s", icon, title))

	if len(subtitle) > 0 && subtitle[0] != "" {
		sub := t.Muted.Render(subtitle[0])
		return lipgloss.JoinVertical(lipgloss.Left, header, sub)
	}

	return header
}

// RenderFooter creates a consistent footer for TUIs: centered content above
// a top border, in muted text.
func RenderFooter(content string, width int) string {
	footerStyle := lipgloss.NewStyle().
		Foreground(theme.DefaultColors.MutedText).
		Width(width).
		Align(lipgloss.Center).
		BorderStyle(lipgloss.NormalBorder()).
		BorderTop(true).
		BorderForeground(theme.DefaultColors.Border).
		MarginTop(1)

	return footerStyle.Render(content)
}

// RenderKeyValue creates a "key: value" line with a muted key.
func RenderKeyValue(key, value string) string {
	t := theme.DefaultTheme
	return fmt.Sprintf("%s %s", t.Muted.Render(key+":"), value)
}

// RenderSpinner returns one frame of a braille spinner animation.
func RenderSpinner(frame int) string {
	spinners := []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
	return theme.DefaultTheme.Info.Render(spinners[frame%len(spinners)])
}
