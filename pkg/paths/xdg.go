// Package paths provides XDG-compliant path resolution for Seriem.
//
// Resolution order:
// 1. SERIEM_HOME (portable root) → $SERIEM_HOME/{config,data,state,cache}
// 2. XDG env vars → $XDG_*_HOME/seriem
// 3. Platform defaults → ~/.config/seriem, ~/.local/share/seriem, etc.
package paths

import (
	"os"
	"path/filepath"
)

// getConfigHome returns the base config home directory.
func getConfigHome() string {
	if seriemHome := os.Getenv("SERIEM_HOME"); seriemHome != "" {
		return filepath.Join(seriemHome, "config")
	}
	if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
		return xdgConfigHome
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(homeDir, ".config")
	}
	return ""
}

// getDataHome returns the base data home directory.
func getDataHome() string {
	if seriemHome := os.Getenv("SERIEM_HOME"); seriemHome != "" {
		return filepath.Join(seriemHome, "data")
	}
	if xdgDataHome := os.Getenv("XDG_DATA_HOME"); xdgDataHome != "" {
		return xdgDataHome
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(homeDir, ".local", "share")
	}
	return ""
}

// getStateHome returns the base state home directory.
func getStateHome() string {
	if seriemHome := os.Getenv("SERIEM_HOME"); seriemHome != "" {
		return filepath.Join(seriemHome, "state")
	}
	if xdgStateHome := os.Getenv("XDG_STATE_HOME"); xdgStateHome != "" {
		return xdgStateHome
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(homeDir, ".local", "state")
	}
	return ""
}

// ConfigDir returns the Seriem configuration directory.
// Used for config files like seriem.yml and keybindings.toml.
func ConfigDir() string {
	base := getConfigHome()
	if base == "" {
		return ""
	}
	return filepath.Join(base, "seriem")
}

// DataDir returns the Seriem data directory.
// Used for durable data such as telemetry events.
func DataDir() string {
	base := getDataHome()
	if base == "" {
		return ""
	}
	return filepath.Join(base, "seriem")
}

// StateDir returns the Seriem state directory.
// Used for runtime state: logs, the daemon PID file, and the state file that
// carries the last workspace selection across restarts.
func StateDir() string {
	base := getStateHome()
	if base == "" {
		return ""
	}
	return filepath.Join(base, "seriem")
}

// LogsDir returns the directory for daemon log files.
func LogsDir() string {
	state := StateDir()
	if state == "" {
		return ""
	}
	return filepath.Join(state, "logs")
}

// TelemetryDir returns the directory for telemetry event files.
func TelemetryDir() string {
	data := DataDir()
	if data == "" {
		return ""
	}
	return filepath.Join(data, "telemetry")
}

// PidFilePath returns the path to the seriem daemon PID file.
func PidFilePath() string {
	return filepath.Join(StateDir(), "seriemd.pid")
}

// EnsureDirs creates all Seriem directories if they don't exist.
func EnsureDirs() error {
	dirs := []string{
		ConfigDir(),
		DataDir(),
		StateDir(),
		LogsDir(),
		TelemetryDir(),
	}

	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return nil
}
