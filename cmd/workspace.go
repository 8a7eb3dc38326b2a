package cmd

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/janschaeferjohann/seriem-agent/cli"
	"github.com/janschaeferjohann/seriem-agent/logging"
	"github.com/janschaeferjohann/seriem-agent/pkg/client"
)

// NewWorkspaceCmd creates the `workspace` command.
func NewWorkspaceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "workspace",
		Aliases: []string{"ws"},
		Short:   "Select and inspect the daemon's active workspace",
		Long: `The daemon operates on exactly one workspace at a time. All file reads,
listings and proposal applications are confined to it.

Examples:
  # Point the daemon at a project directory
  seriem workspace select ./storage

  # See what is currently selected
  seriem workspace current
`,
	}

	cmd.AddCommand(newWorkspaceSelectCmd())
	cmd.AddCommand(newWorkspaceCurrentCmd())

	return cmd
}

func newWorkspaceSelectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "select <path>",
		Short: "Select a workspace directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := filepath.Abs(args[0])
			if err != nil {
				return fmt.Errorf("cannot resolve %q: %w", args[0], err)
			}

			c := client.New(daemonBaseURL(cmd))
			defer c.Close()

			info, err := c.SelectWorkspace(cmd.Context(), path)
			if err != nil {
				return err
			}

			return printWorkspace(cmd, info, "Selected workspace")
		},
	}
}

func newWorkspaceCurrentCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "current",
		Short: "Show the active workspace",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := client.New(daemonBaseURL(cmd))
			defer c.Close()

			info, err := c.CurrentWorkspace(cmd.Context())
			if err != nil {
				return err
			}

			return printWorkspace(cmd, info, "Active workspace")
		},
	}
}

func printWorkspace(cmd *cobra.Command, info *client.WorkspaceInfo, label string) error {
	if cli.GetOptions(cmd).JSONOutput {
		data, err := json.MarshalIndent(info, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}

	out := logging.NewPrettyLogger().WithWriter(cmd.OutOrStdout())
	out.Path(label, info.RootPath)
	if !info.GitEnabled {
		out.Field("Git", "not a repository")
		return nil
	}
	branch := info.GitBranch
	if branch == "" {
		branch = "(detached)"
	}
	if info.GitRemote != "" {
		branch += " @ " + info.GitRemote
	}
	out.Field("Git", branch)
	return nil
}
