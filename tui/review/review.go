// Package review implements the interactive proposal review TUI: a list of
// pending proposals with a colorized diff view, where each proposal can be
// approved or rejected without leaving the terminal. The list follows the
// daemon's event stream, so proposals created or decided elsewhere appear
// and disappear live.
package review

import (
	"context"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/janschaeferjohann/seriem-agent/pkg/client"
	"github.com/janschaeferjohann/seriem-agent/tui"
	"github.com/janschaeferjohann/seriem-agent/tui/components/help"
	"github.com/janschaeferjohann/seriem-agent/tui/keymap"
)

// New creates the review model. A nil updates channel disables live refresh;
// the list then updates on decisions and manual refresh only.
func New(c *client.Client, updates <-chan client.ProposalUpdate) *Model {
	keys := LoadKeyMap()

	h := help.New(keys)
	h.Title = "Proposal Review"

	return &Model{
		client:   c,
		keys:     keys,
		help:     h,
		seq:      keymap.NewSequenceState(),
		viewport: viewport.New(0, 0),
		updates:  updates,
		loading:  true,
	}
}

// Run starts the review TUI and blocks until the user quits.
func Run(c *client.Client) error {
	tui.InitializeTUI()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The live feed is best effort; without it the TUI still refreshes on
	// every decision and on demand.
	updates, err := c.StreamEvents(ctx)
	if err != nil {
		updates = nil
	}

	p := tea.NewProgram(New(c, updates), tea.WithAltScreen())
	_, err = p.Run()
	return err
}
