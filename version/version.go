// Package version exposes build metadata stamped by the linker:
//
//	go build -ldflags "-X github.com/janschaeferjohann/seriem-agent/version.Version=..."
package version

import (
	"fmt"
	"runtime"
	"strings"
)

// Set through -ldflags at build time; an unstamped build identifies
// itself as dev.
var (
	Version   = "dev"
	Commit    = "none"
	Branch    = "unknown"
	BuildDate = "unknown"
)

// Info is the full build record, serialized as-is by `seriem version --json`.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Branch    string `json:"branch"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
	Compiler  string `json:"compiler"`
	Platform  string `json:"platform"`
}

// GetInfo combines the linker-stamped values with the runtime's own record.
func GetInfo() Info {
	return Info{
		Version:   Version,
		Commit:    Commit,
		Branch:    Branch,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Compiler:  runtime.Compiler,
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

// String renders the aligned block printed by `seriem version`.
func (i Info) String() string {
	rows := []struct{ label, value string }{
		{"Version", i.Version},
		{"Commit", i.Commit},
		{"Branch", i.Branch},
		{"Build Date", i.BuildDate},
		{"Go Version", i.GoVersion},
		{"Compiler", i.Compiler},
		{"Platform", i.Platform},
	}
	var b strings.Builder
	for n, row := range rows {
		if n > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%-11s %s", row.label+":", row.value)
	}
	return b.String()
}
