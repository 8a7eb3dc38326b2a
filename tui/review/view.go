package review

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/janschaeferjohann/seriem-agent/tui/components"
	"github.com/janschaeferjohann/seriem-agent/tui/components/table"
	"github.com/janschaeferjohann/seriem-agent/tui/theme"
	"github.com/janschaeferjohann/seriem-agent/tui/utils/scrollbar"
)

// Fixed line counts claimed by chrome around the scrolling regions.
const (
	listChromeHeight   = 12
	detailChromeHeight = 9
)

// View renders the review TUI.
func (m Model) View() string {
	if m.width < 40 || m.height < 10 {
		return "Terminal too small. Please resize."
	}

	if m.help.ShowAll {
		return m.help.View()
	}

	if m.state == viewDetail && m.detail != nil {
		return m.viewDetailScreen()
	}
	return m.viewListScreen()
}

// viewListScreen renders the pending proposal table.
func (m Model) viewListScreen() string {
	t := theme.DefaultTheme

	title := "Proposal Review"
	if m.loading {
		title += " " + components.RenderSpinner(m.spinner)
	}
	subtitle := fmt.Sprintf("%d pending • %s", len(m.proposals), m.client.BaseURL())
	header := components.RenderHeader(theme.IconProposal, title, subtitle)

	var body string
	if len(m.proposals) == 0 {
		body = lipgloss.JoinVertical(lipgloss.Left,
			"",
			t.Muted.Render("No pending proposals."),
			"",
			t.Muted.Render("Chat turns that propose file changes will appear here."),
		)
	} else {
		visible := m.listHeight()
		start := m.scrollOffset
		end := start + visible
		if end > len(m.proposals) {
			end = len(m.proposals)
		}
		if start > end {
			start = end
		}

		rows := make([][]string, 0, end-start)
		for _, p := range m.proposals[start:end] {
			rows = append(rows, []string{
				t.Accent.Render(p.ProposalID),
				truncate(p.Summary, summaryWidth(m.width)),
				fmt.Sprintf("%d", p.FileCount),
				renderLineStats(p.LinesAdded, p.LinesRemoved),
				formatAge(p.CreatedAt),
			})
		}

		body = table.SelectableTable(
			[]string{"ID", "SUMMARY", "FILES", "+/-", "AGE"},
			rows,
			m.cursor-start,
		)

		if len(m.proposals) > visible {
			note := fmt.Sprintf("Showing %d-%d of %d proposals", start+1, end, len(m.proposals))
			body = lipgloss.JoinVertical(lipgloss.Left, body, t.Muted.Render(note))
		}
	}

	return m.assemble(header, body)
}

// viewDetailScreen renders one proposal's full change set.
func (m Model) viewDetailScreen() string {
	d := m.detail

	header := components.RenderHeader(theme.IconProposal, "Proposal "+d.ProposalID, d.Summary)

	added, removed := 0, 0
	for _, fc := range d.Files {
		added += fc.LinesAdded
		removed += fc.LinesRemoved
	}
	meta := lipgloss.JoinVertical(lipgloss.Left,
		components.RenderKeyValue("Created", fmt.Sprintf("%s (%s ago)",
			d.CreatedAt.Local().Format("2006-01-02 15:04:05"), formatAge(d.CreatedAt))),
		components.RenderKeyValue("Changes", fmt.Sprintf("%d files %s", len(d.Files), renderLineStats(added, removed))),
	)

	body := lipgloss.JoinVertical(lipgloss.Left, meta, "", scrollbar.Overlay(&m.viewport))

	return m.assemble(header, body)
}

// assemble stacks the standard screen layout: header, body, status, footer.
func (m Model) assemble(header, body string) string {
	t := theme.DefaultTheme

	status := ""
	if m.status != "" {
		if m.statusErr {
			status = t.Error.Render(theme.IconError + " " + m.status)
		} else {
			status = t.Success.Render(theme.IconSuccess + " " + m.status)
		}
	}

	footer := components.RenderFooter(m.help.View(), m.width)

	// Leading newline keeps the top border clear of the terminal edge.
	return "\n" + lipgloss.JoinVertical(lipgloss.Left, header, "", body, "", status, footer)
}

// summaryWidth is the column budget for the summary cell.
func summaryWidth(total int) int {
	// ID, files, stats, and age columns plus chrome take roughly 40 cells.
	w := total - 40
	if w < 16 {
		w = 16
	}
	if w > 72 {
		w = 72
	}
	return w
}

// truncate shortens s to max runes with an ellipsis.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 1 {
		return "…"
	}
	return string(runes[:max-1]) + "…"
}

// renderDetailContent renders every file change with a colorized diff.
func (m *Model) renderDetailContent() string {
	t := theme.DefaultTheme

	var b strings.Builder
	for i, fc := range m.detail.Files {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(fmt.Sprintf("%s %s %s %s\n",
			operationIcon(fc.Operation),
			t.DiffMeta.Render(fc.Path),
			t.Muted.Render("("+fc.Operation+")"),
			renderLineStats(fc.LinesAdded, fc.LinesRemoved),
		))
		if fc.Diff != "" {
			b.WriteString(renderDiff(fc.Diff))
			b.WriteString("\n")
		}
	}
	return b.String()
}

// operationIcon maps a change operation to its icon.
func operationIcon(op string) string {
	switch op {
	case "create":
		return theme.IconFileCreate
	case "delete":
		return theme.IconFileDelete
	default:
		return theme.IconFileUpdate
	}
}

// renderDiff colorizes unified diff lines.
func renderDiff(diff string) string {
	t := theme.DefaultTheme
	lines := strings.Split(strings.TrimRight(diff, "\n"), "\n")
	for i, line := range lines {
		switch {
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"), strings.HasPrefix(line, "@@"):
			lines[i] = t.DiffMeta.Render(line)
		case strings.HasPrefix(line, "+"):
			lines[i] = t.DiffAdd.Render(line)
		case strings.HasPrefix(line, "-"):
			lines[i] = t.DiffDelete.Render(line)
		case strings.HasPrefix(line, "("):
			lines[i] = t.Muted.Render(line)
		}
	}
	return strings.Join(lines, "\n")
}

// renderLineStats renders "+a/-r" with diff colors.
func renderLineStats(added, removed int) string {
	t := theme.DefaultTheme
	return fmt.Sprintf("%s/%s",
		t.DiffAdd.Render(fmt.Sprintf("+%d", added)),
		t.DiffDelete.Render(fmt.Sprintf("-%d", removed)),
	)
}

// formatAge renders a duration since t in the coarsest useful unit.
func formatAge(ts time.Time) string {
	d := time.Since(ts)
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	default:
		return fmt.Sprintf("%dh", int(d.Hours()))
	}
}
