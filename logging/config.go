package logging

// Config is the "logging" extension section of seriem.yml.
type Config struct {
	// Level is the minimum level emitted (debug, info, warn, error).
	// SERIEM_LOG_LEVEL overrides it.
	Level string `yaml:"level"`

	// ReportCaller adds file:line and function to each entry.
	// SERIEM_LOG_CALLER=true forces it on.
	ReportCaller bool `yaml:"report_caller"`

	// File configures the file sink.
	File FileSinkConfig `yaml:"file"`

	// Format shapes the rendered output.
	Format FormatConfig `yaml:"format"`
}

// FileSinkConfig points the file sink somewhere other than the default
// per-component file under the state logs dir.
type FileSinkConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
	Format  string `yaml:"format,omitempty"`
}

// FormatConfig controls rendering. Preset selects between the rich text
// formatter ("default"), a stripped variant ("simple"), and logrus JSON
// ("json").
type FormatConfig struct {
	Preset           string `yaml:"preset"`
	DisableTimestamp bool   `yaml:"disable_timestamp"`
	DisableComponent bool   `yaml:"disable_component"`

	// StructuredToStderr is "auto" (stderr only when debugging or
	// non-interactive), "always", or "never".
	StructuredToStderr string `yaml:"structured_to_stderr"`
}
