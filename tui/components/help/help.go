// Package help provides an embeddable help component for TUIs: a one-line
// key summary in the footer, and a scrollable modal with the full bindings
// grouped into sections.
package help

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	ltable "github.com/charmbracelet/lipgloss/table"

	"github.com/janschaeferjohann/seriem-agent/tui/keymap"
	"github.com/janschaeferjohann/seriem-agent/tui/theme"
)

const (
	modalTitle       = "Help"
	verticalMargin   = 4
	horizontalMargin = 4
	gutterWidth      = 4
)

// CloseKeys is the contract for dismissing the full help view. keymap.Base
// implements it, so keymaps embedding Base satisfy it automatically.
type CloseKeys interface {
	GetHelp() key.Binding
	GetQuit() key.Binding
}

// Model is the embeddable help component.
type Model struct {
	Keys    interface{} // keymap.Base or any extended keymap
	ShowAll bool
	Width   int
	Height  int
	Theme   *theme.Theme
	Title   string // heading for the full view; defaults to "Help"

	viewport viewport.Model
}

// New creates a help model for the given keymap.
func New(keys interface{}) Model {
	vp := viewport.New(0, 0)
	// Mouse events on the viewport interfere with the host application's
	// mouse handling, so they stay off.
	vp.MouseWheelEnabled = false
	return Model{
		Keys:     keys,
		Theme:    theme.DefaultTheme,
		viewport: vp,
	}
}

// SetSize sets the dimensions of the help view.
func (m *Model) SetSize(width, height int) {
	m.Width = width
	m.Height = height
}

// Toggle switches between the compact and full views. Opening recomputes the
// layout and resets the scroll position.
func (m *Model) Toggle() {
	m.ShowAll = !m.ShowAll
	if m.ShowAll {
		m.refreshViewport()
		m.viewport.GotoTop()
	}
}

// Update handles messages. While the modal is open it consumes key messages:
// help, quit and esc close it, everything else scrolls.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		if m.ShowAll {
			m.refreshViewport()
		}

	case tea.KeyMsg:
		if !m.ShowAll {
			break
		}
		if msg.Type == tea.KeyEsc || key.Matches(msg, m.closeBindings()...) {
			m.Toggle()
			return m, nil
		}
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	return m, nil
}

// closeBindings returns the bindings that dismiss the modal.
func (m *Model) closeBindings() []key.Binding {
	if k, ok := m.Keys.(CloseKeys); ok {
		return []key.Binding{k.GetHelp(), k.GetQuit()}
	}
	return []key.Binding{
		key.NewBinding(key.WithKeys("?")),
		key.NewBinding(key.WithKeys("q")),
	}
}

// View renders either the footer line or the full modal.
func (m Model) View() string {
	if m.Theme == nil {
		m.Theme = theme.DefaultTheme
	}
	if !m.ShowAll {
		return m.footerLine()
	}

	content := m.viewport.View()
	if hint := m.scrollHint(); hint != "" {
		hintStyle := m.Theme.Muted.Align(lipgloss.Right).Width(m.viewport.Width)
		content = lipgloss.JoinVertical(lipgloss.Right, content, hintStyle.Render(hint))
	}

	// Centered on the screen for a modal effect.
	return lipgloss.Place(m.Width, m.Height, lipgloss.Center, lipgloss.Center, content)
}

// scrollHint reports whether more content lies above, below, or both.
func (m Model) scrollHint() string {
	if m.viewport.TotalLineCount() <= m.viewport.Height {
		return ""
	}
	switch {
	case m.viewport.AtTop():
		return "↓ more"
	case m.viewport.AtBottom():
		return "↑ more"
	default:
		return "↕ more"
	}
}

// footerLine renders the one-line summary: the help prompt followed by the
// keymap's ShortHelp pairs.
func (m Model) footerLine() string {
	keys, ok := m.Keys.(interface{ ShortHelp() []key.Binding })
	if !ok {
		return ""
	}

	parts := []string{
		m.Theme.Muted.Render("Press ") +
			m.Theme.Highlight.Render("?") +
			m.Theme.Muted.Render(" for help"),
	}
	for _, b := range keys.ShortHelp() {
		if !b.Enabled() {
			continue
		}
		h := b.Help()
		if h.Key == "" || h.Desc == "" {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s %s %s",
			m.Theme.Highlight.Render(h.Key),
			m.Theme.Muted.Render("•"),
			m.Theme.Muted.Render(h.Desc)))
	}
	if len(parts) == 1 {
		return ""
	}
	return strings.Join(parts, " • ")
}

// refreshViewport lays the sections out for the current window size and
// loads the result into the viewport.
func (m *Model) refreshViewport() {
	content := m.layoutBlocks(m.sectionBlocks())
	m.viewport.SetContent(content)
	m.viewport.Width = lipgloss.Width(content)
	// One line is reserved for the scroll hint.
	m.viewport.Height = m.Height - verticalMargin - 1
}

// sections resolves the keymap's grouping: sectioned keymaps are used as-is,
// plain FullHelp keymaps collapse into a single section.
func (m *Model) sections() []keymap.Section {
	switch k := m.Keys.(type) {
	case keymap.SectionedKeyMap:
		return k.Sections()
	case interface{ FullHelp() [][]key.Binding }:
		var all []key.Binding
		for _, group := range k.FullHelp() {
			all = append(all, group...)
		}
		return []keymap.Section{keymap.NewSection("Keys", all...)}
	}
	return nil
}

// sectionBlocks renders each non-empty section into its own box.
func (m *Model) sectionBlocks() []string {
	// Keys in bold blue to match the CLI help styling.
	keyStyle := lipgloss.NewStyle().Bold(true).Foreground(m.Theme.Colors.Blue)

	var blocks []string
	for _, section := range m.sections() {
		var rows [][]string
		for _, b := range section.Bindings {
			if !b.Enabled() {
				continue
			}
			h := b.Help()
			if h.Key == "" || h.Desc == "" {
				continue
			}
			rows = append(rows, []string{
				keyStyle.Render(h.Key),
				m.Theme.Muted.Italic(true).Render(h.Desc),
			})
		}
		if len(rows) > 0 {
			blocks = append(blocks, m.sectionBox(section.Name, rows))
		}
	}
	return blocks
}

// sectionBox renders one section as a rounded box with an icon title and a
// two-column binding table.
func (m *Model) sectionBox(name string, rows [][]string) string {
	tbl := ltable.New().
		Border(lipgloss.HiddenBorder()).
		StyleFunc(func(row, col int) lipgloss.Style {
			return lipgloss.NewStyle().Padding(0, 1)
		})
	for _, row := range rows {
		tbl = tbl.Row(row...)
	}

	title := lipgloss.NewStyle().
		Foreground(m.Theme.Colors.Orange).
		Italic(true).
		MarginBottom(1).
		Render(sectionIcon(name) + " " + name)

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(m.Theme.Colors.Border).
		Padding(0, 1).
		MarginBottom(1)

	return box.Render(lipgloss.JoinVertical(lipgloss.Left, title, tbl.String()))
}

func sectionIcon(name string) string {
	switch name {
	case keymap.SectionNavigation:
		return theme.IconArrow
	case keymap.SectionActions:
		return theme.IconTool
	case keymap.SectionSystem:
		return theme.IconInfo
	}
	return theme.IconBullet
}

// layoutBlocks picks the densest layout that fits: one column when short
// enough, otherwise three then two columns when the width allows, and a
// scrolling single column as the last resort.
func (m *Model) layoutBlocks(blocks []string) string {
	if len(blocks) == 0 {
		return ""
	}

	single := m.withTitle(lipgloss.JoinVertical(lipgloss.Left, blocks...))
	if lipgloss.Height(single) <= m.Height-verticalMargin-1 {
		return single
	}

	for _, cols := range []int{3, 2} {
		if len(blocks) < cols {
			continue
		}
		candidate := m.withTitle(columnize(blocks, cols))
		if lipgloss.Width(candidate) <= m.Width-horizontalMargin {
			return candidate
		}
	}

	// Too wide for columns; the viewport scrolls the single column.
	return single
}

// withTitle centers the modal title above the body.
func (m *Model) withTitle(body string) string {
	title := m.Title
	if title == "" {
		title = modalTitle
	}
	style := lipgloss.NewStyle().
		Bold(true).
		Foreground(m.Theme.Colors.Orange).
		MarginBottom(1).
		Align(lipgloss.Center).
		Width(lipgloss.Width(body))
	return lipgloss.JoinVertical(lipgloss.Center, style.Render(title), body)
}

// columnize distributes blocks greedily, each into the currently shortest
// column, and joins the columns with a gutter.
func columnize(blocks []string, cols int) string {
	columns := make([][]string, cols)
	heights := make([]int, cols)
	for _, block := range blocks {
		shortest := 0
		for i, h := range heights {
			if h < heights[shortest] {
				shortest = i
			}
		}
		columns[shortest] = append(columns[shortest], block)
		heights[shortest] += lipgloss.Height(block)
	}

	gutter := strings.Repeat(" ", gutterWidth)
	out := lipgloss.JoinVertical(lipgloss.Left, columns[0]...)
	for _, col := range columns[1:] {
		out = lipgloss.JoinHorizontal(lipgloss.Top, out, gutter,
			lipgloss.JoinVertical(lipgloss.Left, col...))
	}
	return out
}
