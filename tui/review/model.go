package review

import (
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/janschaeferjohann/seriem-agent/pkg/client"
	"github.com/janschaeferjohann/seriem-agent/tui/components/help"
	"github.com/janschaeferjohann/seriem-agent/tui/keymap"
)

// viewState selects which surface the TUI is showing.
type viewState int

const (
	viewList viewState = iota
	viewDetail
)

// Model represents the state of the review TUI.
type Model struct {
	client *client.Client
	keys   KeyMap
	help   help.Model
	seq    *keymap.SequenceState

	state        viewState
	proposals    []client.ProposalSummary
	cursor       int
	scrollOffset int

	detail   *client.ProposalDetail
	viewport viewport.Model

	// updates carries live proposal events from the daemon's event stream.
	// Nil when the stream could not be opened; the TUI then refreshes only
	// on demand.
	updates <-chan client.ProposalUpdate

	status    string
	statusErr bool
	loading   bool
	spinner   int
	width     int
	height    int
}

// Init kicks off the initial proposal load and, when available, the live
// update feed.
func (m Model) Init() tea.Cmd {
	return tea.Batch(loadProposals(m.client), watchUpdates(m.updates), tickSpinner())
}

// selected returns the summary under the cursor, or nil when the list is empty.
func (m *Model) selected() *client.ProposalSummary {
	if len(m.proposals) == 0 || m.cursor < 0 || m.cursor >= len(m.proposals) {
		return nil
	}
	return &m.proposals[m.cursor]
}
