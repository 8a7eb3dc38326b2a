// Package tui hosts the terminal user interfaces and their shared building
// blocks: the theme, keybindings, and reusable components.
package tui

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// InitializeTUI prepares the terminal environment for TUI applications.
// It checks for environment variables that force color output (`CLICOLOR_FORCE`,
// `COLORTERM`) and sets the appropriate lipgloss color profile when present.
//
// This keeps color and styling consistent when a TUI runs in a non-interactive
// environment such as CI, while having no effect in normal terminals where
// these variables are not set. Call it at the start of the TUI's entry point.
func InitializeTUI() {
	if os.Getenv("CLICOLOR_FORCE") == "1" || os.Getenv("COLORTERM") == "truecolor" {
		lipgloss.SetColorProfile(termenv.TrueColor)
	}
}
