package review

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/janschaeferjohann/seriem-agent/tui/keymap"
)

// Update handles messages and updates the model accordingly.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.SetSize(m.width, m.height)
		m.sizeViewport()
		return m, nil

	case spinnerTickMsg:
		m.spinner++
		return m, tickSpinner()

	case proposalsMsg:
		m.loading = false
		m.proposals = msg.list.Proposals
		if m.cursor >= len(m.proposals) {
			m.cursor = len(m.proposals) - 1
		}
		if m.cursor < 0 {
			m.cursor = 0
		}
		m.ensureCursorVisible()

		// The open proposal may have been decided or expired elsewhere;
		// fall back to the list when it is gone.
		if m.state == viewDetail && m.detail != nil && !m.stillPending(m.detail.ProposalID) {
			m.setStatus(fmt.Sprintf("Proposal %s is no longer pending", m.detail.ProposalID), false)
			m.closeDetail()
		}
		return m, nil

	case detailMsg:
		m.loading = false
		m.detail = msg.detail
		m.state = viewDetail
		m.sizeViewport()
		m.viewport.SetContent(m.renderDetailContent())
		m.viewport.GotoTop()
		return m, nil

	case decisionMsg:
		m.loading = false
		verb := "Approved"
		if msg.result.Action == "rejected" {
			verb = "Rejected"
		}
		m.setStatus(fmt.Sprintf("%s %s (%d files)", verb, msg.result.ProposalID, len(msg.result.FilesAffected)), false)
		if m.state == viewDetail && m.detail != nil && m.detail.ProposalID == msg.result.ProposalID {
			m.closeDetail()
		}
		return m, loadProposals(m.client)

	case updateMsg:
		// Every lifecycle event invalidates the list: reload and re-arm
		// the watcher for the next one.
		return m, tea.Batch(loadProposals(m.client), watchUpdates(m.updates))

	case errMsg:
		m.loading = false
		m.setStatus(msg.err.Error(), true)
		return m, nil

	case tea.KeyMsg:
		// ctrl+c quits from anywhere, including the help modal.
		if key.Matches(msg, m.keys.ForceQuit) {
			return m, tea.Quit
		}

		if m.help.ShowAll {
			var cmd tea.Cmd
			m.help, cmd = m.help.Update(msg)
			return m, cmd
		}

		if m.state == viewDetail {
			return m.updateDetail(msg)
		}
		return m.updateList(msg)
	}

	return m, nil
}

// updateList handles key input while the proposal list is showing.
func (m *Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Multi-key sequences (gg) get first refusal.
	result, _ := m.seq.Process(msg, m.keys.Top)
	switch result {
	case keymap.SequenceMatch:
		m.seq.Clear()
		m.cursor = 0
		m.scrollOffset = 0
		return m, nil
	case keymap.SequencePending:
		return m, nil
	}
	m.seq.Clear()

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.help.Toggle()

	case key.Matches(msg, m.keys.Refresh):
		m.loading = true
		return m, loadProposals(m.client)

	case key.Matches(msg, m.keys.Confirm):
		if sel := m.selected(); sel != nil {
			m.loading = true
			return m, loadDetail(m.client, sel.ProposalID)
		}

	case key.Matches(msg, m.keys.Approve):
		if sel := m.selected(); sel != nil {
			m.loading = true
			return m, approveProposal(m.client, sel.ProposalID)
		}

	case key.Matches(msg, m.keys.Reject):
		if sel := m.selected(); sel != nil {
			m.loading = true
			return m, rejectProposal(m.client, sel.ProposalID)
		}

	case key.Matches(msg, m.keys.Bottom):
		if len(m.proposals) > 0 {
			m.cursor = len(m.proposals) - 1
			m.ensureCursorVisible()
		}

	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
			m.ensureCursorVisible()
		}

	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.proposals)-1 {
			m.cursor++
			m.ensureCursorVisible()
		}

	case key.Matches(msg, m.keys.PageUp):
		m.cursor -= m.listHeight() / 2
		if m.cursor < 0 {
			m.cursor = 0
		}
		m.ensureCursorVisible()

	case key.Matches(msg, m.keys.PageDown):
		m.cursor += m.listHeight() / 2
		if m.cursor >= len(m.proposals) {
			m.cursor = len(m.proposals) - 1
		}
		if m.cursor < 0 {
			m.cursor = 0
		}
		m.ensureCursorVisible()
	}

	return m, nil
}

// updateDetail handles key input while a proposal's changes are showing.
func (m *Model) updateDetail(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	result, _ := m.seq.Process(msg, m.keys.Top)
	switch result {
	case keymap.SequenceMatch:
		m.seq.Clear()
		m.viewport.GotoTop()
		return m, nil
	case keymap.SequencePending:
		return m, nil
	}
	m.seq.Clear()

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Back):
		m.closeDetail()

	case key.Matches(msg, m.keys.Help):
		m.help.Toggle()

	case key.Matches(msg, m.keys.Approve):
		if m.detail != nil {
			m.loading = true
			return m, approveProposal(m.client, m.detail.ProposalID)
		}

	case key.Matches(msg, m.keys.Bottom):
		m.viewport.GotoBottom()

	case key.Matches(msg, m.keys.Reject):
		if m.detail != nil {
			m.loading = true
			return m, rejectProposal(m.client, m.detail.ProposalID)
		}

	default:
		// The viewport handles scrolling keys (j/k, ctrl+u/ctrl+d, pgup/pgdown).
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	return m, nil
}

// closeDetail returns to the list view.
func (m *Model) closeDetail() {
	m.state = viewList
	m.detail = nil
}

// setStatus records the transient footer message.
func (m *Model) setStatus(text string, isErr bool) {
	m.status = text
	m.statusErr = isErr
}

// stillPending reports whether the id is in the current proposal list.
func (m *Model) stillPending(id string) bool {
	for _, p := range m.proposals {
		if p.ProposalID == id {
			return true
		}
	}
	return false
}

// ensureCursorVisible adjusts the scroll offset so the cursor stays on screen.
func (m *Model) ensureCursorVisible() {
	visible := m.listHeight()
	if visible <= 0 {
		return
	}

	if m.cursor < m.scrollOffset {
		m.scrollOffset = m.cursor
	}
	if m.cursor >= m.scrollOffset+visible {
		m.scrollOffset = m.cursor - visible + 1
	}
	if m.scrollOffset < 0 {
		m.scrollOffset = 0
	}
}

// listHeight returns how many proposal rows fit in the list view.
func (m *Model) listHeight() int {
	// Header, table chrome, status line, and footer claim a fixed share.
	h := m.height - listChromeHeight
	if h < 1 {
		h = 1
	}
	return h
}

// sizeViewport fits the detail viewport to the current terminal size.
func (m *Model) sizeViewport() {
	w := m.width - 2
	if w < 1 {
		w = 1
	}
	h := m.height - detailChromeHeight
	if h < 1 {
		h = 1
	}
	m.viewport.Width = w
	m.viewport.Height = h
	if m.detail != nil {
		m.viewport.SetContent(m.renderDetailContent())
	}
}
