package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/janschaeferjohann/seriem-agent/tui/theme"
)

// Help text is wrapped to the terminal width within these bounds.
const (
	helpMinWidth = 40
	helpMaxWidth = 60
)

// SetStyledHelp installs the themed help renderer on a single command.
func SetStyledHelp(cmd *cobra.Command) {
	cmd.SetHelpFunc(renderHelp)
}

// ApplyStyledHelpRecursive installs the themed help renderer on a command and
// all of its subcommands, and silences cobra's usage-on-error dump (the error
// handler prints its own hint). Call after the command tree is assembled.
func ApplyStyledHelpRecursive(cmd *cobra.Command) {
	cmd.SetHelpFunc(renderHelp)
	cmd.SetUsageFunc(func(*cobra.Command) error { return nil })
	for _, sub := range cmd.Commands() {
		ApplyStyledHelpRecursive(sub)
	}
}

// helpRenderer carries the writer, theme, and shared styles through the
// help sections.
type helpRenderer struct {
	w       io.Writer
	t       *theme.Theme
	width   int
	section lipgloss.Style
	command lipgloss.Style
	flag    lipgloss.Style
}

func renderHelp(cmd *cobra.Command, _ []string) {
	t := theme.DefaultTheme
	r := &helpRenderer{
		w:       cmd.OutOrStdout(),
		t:       t,
		width:   helpWidth() - 2,
		section: lipgloss.NewStyle().Italic(true).Foreground(t.Colors.Orange),
		command: lipgloss.NewStyle().Bold(true).Foreground(t.Colors.Blue),
		flag:    lipgloss.NewStyle().Foreground(t.Colors.Violet),
	}

	title := lipgloss.NewStyle().Bold(true).Foreground(t.Colors.Orange)
	r.line(title.Render(strings.ToUpper(cmd.CommandPath())))

	description, examples := splitExamples(cmd.Long)
	if cmd.Short != "" {
		for _, l := range strings.Split(wrap(cmd.Short, r.width), "\n") {
			r.line(t.Italic.Render(l))
		}
	}
	if description != "" && description != cmd.Short {
		r.blank()
		for _, l := range strings.Split(wrap(description, r.width), "\n") {
			r.line(l)
		}
	}

	r.usage(cmd)
	r.subcommands(cmd)
	r.flags(cmd)

	if cmd.Example != "" {
		examples = cmd.Example
	}
	if examples != "" {
		r.blank()
		r.line(r.section.Render("EXAMPLES"))
		r.examples(examples, rootName(cmd))
	}

	if cmd.HasSubCommands() {
		r.blank()
		r.line(fmt.Sprintf("Use \"%s [command] --help\" for more information.", cmd.CommandPath()))
	}
}

func (r *helpRenderer) line(s string) { fmt.Fprintln(r.w, " "+s) }
func (r *helpRenderer) blank()        { fmt.Fprintln(r.w) }

func (r *helpRenderer) usage(cmd *cobra.Command) {
	if !cmd.Runnable() && !cmd.HasSubCommands() {
		return
	}
	r.blank()
	r.line(r.section.Render("USAGE"))
	if cmd.Runnable() {
		r.line(cmd.UseLine())
	}
	if cmd.HasSubCommands() {
		r.line(cmd.CommandPath() + " [command]")
	}
}

func (r *helpRenderer) subcommands(cmd *cobra.Command) {
	if !cmd.HasAvailableSubCommands() {
		return
	}
	width := 0
	for _, sub := range cmd.Commands() {
		if sub.IsAvailableCommand() && len(sub.Name()) > width {
			width = len(sub.Name())
		}
	}

	r.blank()
	r.line(r.section.Render("COMMANDS"))
	for _, sub := range cmd.Commands() {
		if !sub.IsAvailableCommand() {
			continue
		}
		pad := strings.Repeat(" ", width-len(sub.Name()))
		r.line(fmt.Sprintf("%s%s  %s", r.command.Render(sub.Name()), pad, sub.Short))
	}
}

// flags prints a detailed FLAGS section for leaf commands; parent commands
// get a compact inline list so the COMMANDS section stays the focus.
func (r *helpRenderer) flags(cmd *cobra.Command) {
	var visible []*pflag.Flag
	cmd.LocalFlags().VisitAll(func(f *pflag.Flag) {
		if !f.Hidden {
			visible = append(visible, f)
		}
	})
	if len(visible) == 0 {
		return
	}

	if cmd.HasAvailableSubCommands() {
		names := make([]string, 0, len(visible))
		for _, f := range visible {
			if f.Shorthand != "" {
				names = append(names, "-"+f.Shorthand+"/--"+f.Name)
			} else {
				names = append(names, "--"+f.Name)
			}
		}
		r.blank()
		r.line(r.t.Muted.Render("Flags: " + strings.Join(names, ", ")))
		return
	}

	width := 0
	for _, f := range visible {
		if l := len(flagLabel(f)); l > width {
			width = l
		}
	}

	r.blank()
	r.line(r.section.Render("FLAGS"))
	for _, f := range visible {
		label := flagLabel(f)
		usage := f.Usage
		if f.DefValue != "" && f.DefValue != "false" && f.DefValue != "[]" {
			usage += r.t.Muted.Render(" (default: " + f.DefValue + ")")
		}
		pad := strings.Repeat(" ", width-len(label))
		r.line(fmt.Sprintf("%s%s  %s", r.flag.Render(label), pad, usage))
	}
}

// examples renders an example block: comment lines muted, command lines with
// the binary name, subcommand, and flags individually colored.
func (r *helpRenderer) examples(block, root string) {
	sub := lipgloss.NewStyle().Foreground(r.t.Colors.Cyan)
	for _, raw := range strings.Split(block, "\n") {
		line := strings.TrimSpace(raw)
		switch {
		case line == "":
			r.blank()
		case strings.HasPrefix(line, "#"):
			r.line(r.t.Muted.Render(line))
		default:
			r.line(" " + styleExample(line, root, r.command, sub, r.flag))
		}
	}
}

func styleExample(line, root string, rootStyle, subStyle, flagStyle lipgloss.Style) string {
	words := strings.Fields(line)
	for i, word := range words {
		switch {
		case i == 0 && word == root:
			words[i] = rootStyle.Render(word)
		case i == 1 && !strings.HasPrefix(word, "-"):
			words[i] = subStyle.Render(word)
		case strings.HasPrefix(word, "-"):
			words[i] = flagStyle.Render(word)
		}
	}
	return strings.Join(words, " ")
}

// flagLabel aligns the shorthand and long forms in one column.
func flagLabel(f *pflag.Flag) string {
	if f.Shorthand != "" {
		return fmt.Sprintf("-%s, --%s", f.Shorthand, f.Name)
	}
	return "    --" + f.Name
}

// splitExamples separates a Long description from its trailing
// "Examples:" block.
func splitExamples(long string) (description, examples string) {
	for _, marker := range []string{"\nExamples:\n", "\nExample:\n"} {
		if before, after, found := strings.Cut(long, marker); found {
			return strings.TrimSpace(before), strings.TrimSpace(after)
		}
	}
	return strings.TrimSpace(long), ""
}

func rootName(cmd *cobra.Command) string {
	name, _, _ := strings.Cut(cmd.CommandPath(), " ")
	return name
}

// helpWidth caps wrapping at a readable width even on wide terminals.
func helpWidth() int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w < helpMinWidth {
		return helpMaxWidth
	}
	return min(w, helpMaxWidth)
}

// wrap re-flows text to width, keeping existing hard line breaks.
func wrap(text string, width int) string {
	if width <= 0 {
		width = helpMaxWidth
	}
	var out []string
	for _, paragraph := range strings.Split(text, "\n") {
		if len(paragraph) <= width {
			out = append(out, paragraph)
			continue
		}
		line := ""
		for _, word := range strings.Fields(paragraph) {
			switch {
			case line == "":
				line = word
			case len(line)+1+len(word) <= width:
				line += " " + word
			default:
				out = append(out, line)
				line = word
			}
		}
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}
