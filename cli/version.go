package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

const versionTemplate = `{{.Name}} {{.Version}}
  commit:   %s
  built:    %s
  platform: %s
`

// SetVersionTemplate formats --version output as a short build summary.
// The command's own Version field supplies the first line.
func SetVersionTemplate(cmd *cobra.Command, commit, buildDate, platform string) {
	cmd.SetVersionTemplate(fmt.Sprintf(versionTemplate, commit, buildDate, platform))
}
