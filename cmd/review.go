package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/janschaeferjohann/seriem-agent/errors"
	"github.com/janschaeferjohann/seriem-agent/pkg/client"
	"github.com/janschaeferjohann/seriem-agent/tui/review"
)

// NewReviewCmd creates the `review` command.
func NewReviewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "review",
		Short: "Review pending proposals in an interactive terminal UI",
		Long: `Opens a full-screen list of pending proposals. Select one to read its
diff, then approve or reject it without leaving the UI. The list refreshes
itself as the agent produces new proposals.

Keys:
  j/k     move          enter   open diff
  a       approve       x       reject
  ?       help          q       quit
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := client.New(daemonBaseURL(cmd))
			defer c.Close()

			if !c.IsRunning() {
				return errors.New(errors.ErrCodeTransport,
					fmt.Sprintf("no daemon at %s; start one with 'seriem daemon start'", c.BaseURL()))
			}

			return review.Run(c)
		},
	}
}
