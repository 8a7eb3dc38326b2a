package review

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/janschaeferjohann/seriem-agent/pkg/client"
)

// requestTimeout bounds every daemon request issued from the TUI.
const requestTimeout = 10 * time.Second

type proposalsMsg struct {
	list *client.ProposalList
}

type detailMsg struct {
	detail *client.ProposalDetail
}

type decisionMsg struct {
	result *client.DecisionResult
}

type updateMsg client.ProposalUpdate

type errMsg struct {
	err error
}

type spinnerTickMsg struct{}

// loadProposals fetches the pending proposal list from the daemon.
func loadProposals(c *client.Client) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		list, err := c.PendingProposals(ctx)
		if err != nil {
			return errMsg{err}
		}
		return proposalsMsg{list}
	}
}

// loadDetail fetches the full change set for one proposal.
func loadDetail(c *client.Client, id string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		detail, err := c.GetProposal(ctx, id)
		if err != nil {
			return errMsg{err}
		}
		return detailMsg{detail}
	}
}

// approveProposal applies the proposal's changes to the workspace.
func approveProposal(c *client.Client, id string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		result, err := c.ApproveProposal(ctx, id, client.ApproveOptions{})
		if err != nil {
			return errMsg{err}
		}
		return decisionMsg{result}
	}
}

// rejectProposal discards the proposal without touching the workspace.
func rejectProposal(c *client.Client, id string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		result, err := c.RejectProposal(ctx, id)
		if err != nil {
			return errMsg{err}
		}
		return decisionMsg{result}
	}
}

// watchUpdates waits for the next proposal event on the daemon's stream.
// The Update handler re-arms it after each message, so the feed keeps
// flowing for the life of the TUI.
func watchUpdates(ch <-chan client.ProposalUpdate) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		update, ok := <-ch
		if !ok {
			return nil
		}
		return updateMsg(update)
	}
}

// tickSpinner drives the loading spinner animation.
func tickSpinner() tea.Cmd {
	return tea.Tick(120*time.Millisecond, func(time.Time) tea.Msg {
		return spinnerTickMsg{}
	})
}
