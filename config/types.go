package config

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

//go:generate sh -c "cd .. && go run ./tools/schema-generator/"

// ServerConfig controls the daemon's HTTP listener.
type ServerConfig struct {
	Listen      string   `yaml:"listen,omitempty" json:"listen,omitempty" jsonschema:"description=Address the daemon listens on (default: 127.0.0.1:8000)"`
	CORSOrigins []string `yaml:"cors_origins,omitempty" json:"cors_origins,omitempty" jsonschema:"description=Origins allowed to call the HTTP and WebSocket API from a browser"`
}

// WorkspaceConfig holds workspace selection defaults.
type WorkspaceConfig struct {
	Default string `yaml:"default,omitempty" json:"default,omitempty" jsonschema:"description=Workspace directory selected when the daemon starts"`
}

// AgentConfig describes the reasoning engine subprocess and its stream behavior.
type AgentConfig struct {
	Command         []string `yaml:"command,omitempty" json:"command,omitempty" jsonschema:"description=Argv of the engine process driven over stdio"`
	StructuredTools []string `yaml:"structured_tools,omitempty" json:"structured_tools,omitempty" jsonschema:"description=Tools whose markup documents are withheld from the text stream"`
}

// FilesConfig controls what file operations expose.
type FilesConfig struct {
	Ignore []string `yaml:"ignore,omitempty" json:"ignore,omitempty" jsonschema:"description=Patterns excluded from directory listings (.gitignore-style syntax)"`
}

// TelemetryConfig controls local usage event recording.
type TelemetryConfig struct {
	Enabled *bool  `yaml:"enabled,omitempty" json:"enabled,omitempty" jsonschema:"description=Whether telemetry events are written (default: true)"`
	Dir     string `yaml:"dir,omitempty" json:"dir,omitempty" jsonschema:"description=Directory for telemetry files (default: XDG data dir)"`
}

// Config represents the seriem.yml configuration.
type Config struct {
	Version   string          `yaml:"version,omitempty" json:"version,omitempty" jsonschema:"description=Configuration version (e.g. 1.0)"`
	Server    ServerConfig    `yaml:"server,omitempty" json:"server,omitempty" jsonschema:"description=Daemon HTTP listener settings"`
	Workspace WorkspaceConfig `yaml:"workspace,omitempty" json:"workspace,omitempty" jsonschema:"description=Workspace selection defaults"`
	Agent     AgentConfig     `yaml:"agent,omitempty" json:"agent,omitempty" jsonschema:"description=Reasoning engine settings"`
	Files     FilesConfig     `yaml:"files,omitempty" json:"files,omitempty" jsonschema:"description=File exposure settings"`
	Telemetry TelemetryConfig `yaml:"telemetry,omitempty" json:"telemetry,omitempty" jsonschema:"description=Usage event recording settings"`

	// Extensions captures all other top-level keys for extensibility.
	// Never serialized back out; validated permissively.
	Extensions map[string]interface{} `yaml:",inline" json:"-" jsonschema:"-"`
}

// SetDefaults sets default values for configuration
func (c *Config) SetDefaults() {
	if c.Version == "" {
		c.Version = "1.0"
	}
	if c.Server.Listen == "" {
		c.Server.Listen = "127.0.0.1:8000"
	}
	if len(c.Server.CORSOrigins) == 0 {
		c.Server.CORSOrigins = []string{"http://localhost:4200", "http://localhost:8000"}
	}
	if len(c.Agent.StructuredTools) == 0 {
		c.Agent.StructuredTools = []string{
			"generate_datamodel",
			"generate_formio_form",
			"generate_testcases",
		}
	}
	if c.Telemetry.Enabled == nil {
		enabled := true
		c.Telemetry.Enabled = &enabled
	}
}

// UnmarshalExtension decodes a specific extension's configuration from the
// loaded seriem.yml into the provided target struct. The target must be a pointer.
// This provides a type-safe way for extensions to access their
// custom configuration sections.
//
// Example:
//
//	var logCfg logging.Config
//	err := cfg.UnmarshalExtension("logging", &logCfg)
func (c *Config) UnmarshalExtension(key string, target interface{}) error {
	extensionConfig, ok := c.Extensions[key]
	if !ok {
		// It's not an error if the key doesn't exist.
		// The target struct will simply remain zero-valued.
		return nil
	}

	// Use mapstructure to decode the generic map[string]interface{}
	// into the strongly-typed target struct. We configure it to use
	// `yaml` tags for consistency.
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:  target,
		TagName: "yaml",
	})
	if err != nil {
		return fmt.Errorf("failed to create mapstructure decoder: %w", err)
	}

	if err := decoder.Decode(extensionConfig); err != nil {
		return fmt.Errorf("failed to decode extension config for '%s': %w", key, err)
	}

	return nil
}
