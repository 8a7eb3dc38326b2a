package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewDocsCommand returns a `docs` command that prints the embedded
// machine-readable command reference for consumption by other tooling.
func NewDocsCommand(docs []byte) *cobra.Command {
	return &cobra.Command{
		Use:   "docs",
		Short: "Print the command reference as JSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), string(docs))
			return err
		},
	}
}
