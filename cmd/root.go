// Package cmd implements the seriem command tree.
package cmd

import (
	_ "embed"
	"os"

	"github.com/spf13/cobra"

	"github.com/janschaeferjohann/seriem-agent/cli"
	"github.com/janschaeferjohann/seriem-agent/pkg/profiling"
	"github.com/janschaeferjohann/seriem-agent/version"
)

//go:embed docs.json
var docsJSON []byte

// NewRootCmd assembles the full seriem command tree.
func NewRootCmd() *cobra.Command {
	root := cli.NewStandardCommand(
		"seriem",
		"Agent workspace daemon with human-reviewed file changes",
	)
	root.Long = `Seriem runs an autonomous agent against a sandboxed workspace. The agent
proposes file changes instead of writing them; nothing touches disk until a
human approves it. The daemon exposes the workspace, proposal and chat APIs,
and the CLI talks to it over HTTP.

Examples:
  # Start the daemon in the foreground
  seriem daemon start

  # Point it at a workspace and ask for a change
  seriem workspace select ./storage
  seriem chat "add a health endpoint to main.py"

  # Review what the agent wants to do
  seriem review
`
	root.SilenceErrors = true
	root.SilenceUsage = true

	profiler := profiling.NewCobraProfiler()
	profiler.AddFlags(root)
	root.PersistentPreRunE = profiler.PreRun
	root.PersistentPostRun = profiler.PostRun

	info := version.GetInfo()
	root.Version = info.Version
	cli.SetVersionTemplate(root, info.Commit, info.BuildDate, info.Platform)

	root.AddCommand(NewDaemonCmd())
	root.AddCommand(NewWorkspaceCmd())
	root.AddCommand(NewProposalsCmd())
	root.AddCommand(NewReviewCmd())
	root.AddCommand(NewChatCmd())
	root.AddCommand(NewLogsCmd())
	root.AddCommand(NewPathsCmd())
	root.AddCommand(NewConfigCmd())
	root.AddCommand(NewVersionCmd())
	root.AddCommand(cli.NewDocsCommand(docsJSON))

	cli.ApplyStyledHelpRecursive(root)

	return root
}

// Execute runs the root command and exits non-zero on failure. Errors are
// rendered by the CLI error handler so daemon error codes come out as
// actionable messages instead of raw envelopes.
func Execute() {
	root := NewRootCmd()
	if err := root.Execute(); err != nil {
		verbose := false
		for _, arg := range os.Args[1:] {
			if arg == "--verbose" || arg == "-v" {
				verbose = true
			}
		}
		_ = cli.NewErrorHandler(verbose).Handle(err)
		os.Exit(1)
	}
}
