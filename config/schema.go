package config

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
)

// GenerateSchema generates the JSON Schema for the seriem configuration.
// It reflects the Config struct from types.go but excludes the 'Extensions'
// field; unknown top-level keys stay legal so extension sections (logging,
// tui, ...) validate without being enumerated here.
func GenerateSchema() ([]byte, error) {
	r := &jsonschema.Reflector{
		// Extension sections live beside the known keys, so unknown
		// properties must not fail validation.
		AllowAdditionalProperties: true,
		// Expand struct references instead of using $ref for a flatter schema.
		ExpandedStruct: true,
		// Use YAML field names for property names
		FieldNameTag: "yaml",
	}

	// Reflect a copy of the known sections so the inline Extensions
	// map never leaks into the schema.
	type BaseConfig struct {
		Version   string          `yaml:"version,omitempty" jsonschema:"description=Configuration version (e.g. 1.0)"`
		Server    ServerConfig    `yaml:"server,omitempty" jsonschema:"description=Daemon HTTP listener settings"`
		Workspace WorkspaceConfig `yaml:"workspace,omitempty" jsonschema:"description=Workspace selection defaults"`
		Agent     AgentConfig     `yaml:"agent,omitempty" jsonschema:"description=Reasoning engine settings"`
		Files     FilesConfig     `yaml:"files,omitempty" jsonschema:"description=File exposure settings"`
		Telemetry TelemetryConfig `yaml:"telemetry,omitempty" jsonschema:"description=Usage event recording settings"`
	}

	schema := r.Reflect(&BaseConfig{})
	schema.Title = "Seriem Configuration"
	schema.Description = "Schema for seriem.yml properties."
	schema.Version = "http://json-schema.org/draft-07/schema#"

	return json.MarshalIndent(schema, "", "  ")
}
