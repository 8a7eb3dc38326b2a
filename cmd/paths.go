package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/janschaeferjohann/seriem-agent/pkg/paths"
)

// PathsOutput represents the XDG-compliant paths used by seriem.
type PathsOutput struct {
	ConfigDir    string `json:"config_dir"`
	DataDir      string `json:"data_dir"`
	StateDir     string `json:"state_dir"`
	LogsDir      string `json:"logs_dir"`
	TelemetryDir string `json:"telemetry_dir"`
	PidFile      string `json:"pid_file"`
}

// NewPathsCmd creates the `paths` command.
func NewPathsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "paths",
		Short: "Print the XDG-compliant paths used by seriem",
		Long: `Print the XDG-compliant paths used by seriem.

This command outputs the paths in JSON format, making it easy to parse from
scripts and other tools.

The paths follow the XDG Base Directory Specification, with SERIEM_HOME
overriding the whole tree:
- config_dir: Configuration files (seriem.yml)
- data_dir: Persistent data (telemetry events)
- state_dir: Runtime state (pid file, logs)
- logs_dir: Daemon log files
- telemetry_dir: Local usage event files
- pid_file: Daemon pid file`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := PathsOutput{
				ConfigDir:    paths.ConfigDir(),
				DataDir:      paths.DataDir(),
				StateDir:     paths.StateDir(),
				LogsDir:      paths.LogsDir(),
				TelemetryDir: paths.TelemetryDir(),
				PidFile:      paths.PidFilePath(),
			}

			jsonData, err := json.MarshalIndent(output, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to marshal paths to JSON: %w", err)
			}
			fmt.Println(string(jsonData))
			return nil
		},
	}
}
