package cmd

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/janschaeferjohann/seriem-agent/cli"
	"github.com/janschaeferjohann/seriem-agent/pkg/client"
	"github.com/janschaeferjohann/seriem-agent/tui/theme"
)

// NewProposalsCmd creates the `proposals` command.
func NewProposalsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "proposals",
		Aliases: []string{"proposal", "props"},
		Short:   "Inspect and decide pending file-change proposals",
		Long: `The agent never writes to the workspace directly; it files proposals that
wait for a human decision. Approving applies the changes to disk, rejecting
discards them. Undecided proposals expire after an hour.

Examples:
  # See what the agent wants to change
  seriem proposals list

  # Inspect a specific proposal with its diff
  seriem proposals show a1b2c3d4

  # Apply it, committing the result
  seriem proposals approve a1b2c3d4 --commit -m "Add health endpoint"
`,
	}

	cmd.AddCommand(newProposalsListCmd())
	cmd.AddCommand(newProposalsShowCmd())
	cmd.AddCommand(newProposalsApproveCmd())
	cmd.AddCommand(newProposalsRejectCmd())
	cmd.AddCommand(newProposalsClearCmd())

	return cmd
}

func newProposalsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List pending proposals, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := client.New(daemonBaseURL(cmd))
			defer c.Close()

			list, err := c.PendingProposals(cmd.Context())
			if err != nil {
				return err
			}

			if cli.GetOptions(cmd).JSONOutput {
				data, err := json.MarshalIndent(list, "", "  ")
				if err != nil {
					return err
				}
				fmt.Println(string(data))
				return nil
			}

			if list.Total == 0 {
				fmt.Println("No pending proposals")
				return nil
			}

			t := theme.DefaultTheme
			for _, p := range list.Proposals {
				fmt.Printf("%s  %-40s  %s  %s  %s\n",
					t.Accent.Render(p.ProposalID),
					p.Summary,
					t.Muted.Render(fmt.Sprintf("%d file(s)", p.FileCount)),
					renderLineStats(p.LinesAdded, p.LinesRemoved),
					t.Muted.Render(formatAge(p.CreatedAt)+" ago"),
				)
			}
			return nil
		},
	}
}

func newProposalsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a proposal with its diff",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := client.New(daemonBaseURL(cmd))
			defer c.Close()

			detail, err := c.GetProposal(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if cli.GetOptions(cmd).JSONOutput {
				data, err := json.MarshalIndent(detail, "", "  ")
				if err != nil {
					return err
				}
				fmt.Println(string(data))
				return nil
			}

			t := theme.DefaultTheme
			fmt.Printf("%s %s\n", t.Header.Render("Proposal"), t.Accent.Render(detail.ProposalID))
			fmt.Printf("Summary: %s\n", detail.Summary)
			fmt.Printf("Created: %s (%s ago)\n",
				detail.CreatedAt.Local().Format("2006-01-02 15:04:05"),
				formatAge(detail.CreatedAt))

			for _, change := range detail.Files {
				fmt.Println()
				fmt.Printf("%s %s %s\n",
					t.DiffMeta.Render(change.Path),
					t.Muted.Render("("+change.Operation+")"),
					renderLineStats(change.LinesAdded, change.LinesRemoved),
				)
				fmt.Println(renderDiff(change.Diff))
			}
			return nil
		},
	}
}

func newProposalsApproveCmd() *cobra.Command {
	var commit bool
	var message string

	cmd := &cobra.Command{
		Use:   "approve <id>",
		Short: "Apply a proposal's changes to the workspace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := client.New(daemonBaseURL(cmd))
			defer c.Close()

			result, err := c.ApproveProposal(cmd.Context(), args[0], client.ApproveOptions{
				Commit:        commit,
				CommitMessage: message,
			})
			if err != nil {
				return err
			}

			return printDecision(cmd, result)
		},
	}

	cmd.Flags().BoolVar(&commit, "commit", false, "Commit the applied files to git")
	cmd.Flags().StringVarP(&message, "message", "m", "", "Commit message (default: the proposal summary)")

	return cmd
}

func newProposalsRejectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reject <id>",
		Short: "Discard a proposal without touching the workspace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := client.New(daemonBaseURL(cmd))
			defer c.Close()

			result, err := c.RejectProposal(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			return printDecision(cmd, result)
		},
	}
}

func newProposalsClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Discard all pending proposals",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := client.New(daemonBaseURL(cmd))
			defer c.Close()

			cleared, err := c.ClearProposals(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Printf("Cleared %d proposal(s)\n", cleared)
			return nil
		},
	}
}

func printDecision(cmd *cobra.Command, result *client.DecisionResult) error {
	if cli.GetOptions(cmd).JSONOutput {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}

	t := theme.DefaultTheme
	switch result.Action {
	case "approved":
		fmt.Printf("%s %s\n", t.Success.Render("Approved"), result.Message)
	case "rejected":
		fmt.Printf("%s %s\n", t.Warning.Render("Rejected"), result.Message)
	default:
		fmt.Println(result.Message)
	}
	for _, path := range result.FilesAffected {
		fmt.Printf("  %s\n", path)
	}
	return nil
}

// renderDiff colors a unified diff for the terminal.
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

func renderLineStats(added, removed int) string {
	t := theme.DefaultTheme
	return fmt.Sprintf("%s/%s",
		t.DiffAdd.Render(fmt.Sprintf("+%d", added)),
		t.DiffDelete.Render(fmt.Sprintf("-%d", removed)),
	)
}

// formatAge renders a duration since t in the coarsest useful unit.
func formatAge(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	default:
		return fmt.Sprintf("%dh", int(d.Hours()))
	}
}
