package logging

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"

	"github.com/janschaeferjohann/seriem-agent/tui/theme"
)

// PrettyLogger writes styled, human-facing status lines. CLI commands use it
// for their non-JSON output; it is separate from the structured log pipeline.
type PrettyLogger struct {
	w io.Writer
	t *theme.Theme
}

// NewPrettyLogger writes to stderr with the active theme.
func NewPrettyLogger() *PrettyLogger {
	return &PrettyLogger{w: os.Stderr, t: theme.DefaultTheme}
}

// WithWriter redirects output, usually to a cobra command's stdout.
func (p *PrettyLogger) WithWriter(w io.Writer) *PrettyLogger {
	p.w = w
	return p
}

// Success prints a check-marked line.
func (p *PrettyLogger) Success(message string) {
	p.line(p.t.Success, theme.IconSuccess, message)
}

// Info prints a plain informational line.
func (p *PrettyLogger) Info(message string) {
	fmt.Fprintln(p.w, p.t.Info.Render(message))
}

// Warn prints a warning line.
func (p *PrettyLogger) Warn(message string) {
	p.line(p.t.Warning, theme.IconWarning, message)
}

// Error prints an error line, appending err when present.
func (p *PrettyLogger) Error(message string, err error) {
	if err != nil {
		message = message + ": " + err.Error()
	}
	p.line(p.t.Error, theme.IconError, message)
}

// Field prints a "key: value" detail line.
func (p *PrettyLogger) Field(key string, value interface{}) {
	fmt.Fprintf(p.w, "%s %s\n",
		p.t.Muted.Render(key+":"),
		p.t.Accent.Render(fmt.Sprint(value)))
}

// Path prints a labelled file path.
func (p *PrettyLogger) Path(label, path string) {
	fmt.Fprintf(p.w, "%s %s\n",
		p.t.Muted.Render(label+":"),
		p.t.Highlight.Render(path))
}

func (p *PrettyLogger) line(style lipgloss.Style, icon, message string) {
	fmt.Fprintf(p.w, "%s %s\n", style.Render(icon), style.Render(message))
}
