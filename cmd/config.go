package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/janschaeferjohann/seriem-agent/cli"
	"github.com/janschaeferjohann/seriem-agent/config"
)

// NewConfigCmd creates the `config` command.
func NewConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show the effective merged configuration",
		Long: `Shows the configuration the daemon would run with: the global config
(~/.config/seriem/seriem.yml), the project seriem.yml found from the current
directory, and any seriem.override.yml files, merged in that order with
defaults filled in. Useful for debugging configuration issues.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := cli.GetOptions(cmd)

			var cfg *config.Config
			var err error
			var source string
			if opts.ConfigFile != "" {
				cfg, err = config.Load(opts.ConfigFile)
				source = opts.ConfigFile
			} else {
				cfg, err = config.LoadDefault()
				if path, findErr := cli.InitConfig(""); findErr == nil && path != "" {
					source = path
				}
			}
			if err != nil {
				return err
			}

			if source != "" {
				fmt.Printf("# Source: %s\n", source)
			} else {
				fmt.Println("# No config file found; showing defaults")
			}

			data, err := yaml.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("failed to render configuration: %w", err)
			}
			fmt.Println(string(data))
			return nil
		},
	}
}
