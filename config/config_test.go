package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/janschaeferjohann/seriem-agent/errors"
)

// TestExtensions verifies that custom extensions in seriem.yml are properly loaded
func TestExtensions(t *testing.T) {
	yamlContent := []byte(`
version: "1.0"
server:
  listen: "127.0.0.1:8000"

# Extension fields consumed by the logging package
logging:
  level: debug
  format: json

# Extension fields from another hypothetical tool
monitoring:
  enabled: true
  interval: 30
`)

	cfg, err := LoadFromBytes(yamlContent)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	// Verify extensions were captured
	if cfg.Extensions == nil {
		t.Fatal("Extensions map should not be nil")
	}

	loggingExt, ok := cfg.Extensions["logging"]
	if !ok {
		t.Fatal("Expected 'logging' extension to be present")
	}

	// Test UnmarshalExtension for logging
	type LoggingConfig struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	}

	var logCfg LoggingConfig
	if err := cfg.UnmarshalExtension("logging", &logCfg); err != nil {
		t.Fatalf("Failed to unmarshal logging extension: %v", err)
	}

	if logCfg.Level != "debug" {
		t.Errorf("Expected level to be 'debug', got '%s'", logCfg.Level)
	}

	if logCfg.Format != "json" {
		t.Errorf("Expected format to be 'json', got '%s'", logCfg.Format)
	}

	// Test monitoring extension
	var monCfg struct {
		Enabled  bool `yaml:"enabled"`
		Interval int  `yaml:"interval"`
	}
	if err := cfg.UnmarshalExtension("monitoring", &monCfg); err != nil {
		t.Fatalf("Failed to unmarshal monitoring extension: %v", err)
	}

	if !monCfg.Enabled {
		t.Error("Expected monitoring to be enabled")
	}

	if monCfg.Interval != 30 {
		t.Errorf("Expected interval to be 30, got %d", monCfg.Interval)
	}

	// Test non-existent extension (should not error)
	var unknownCfg struct {
		SomeField string `yaml:"some_field"`
	}
	if err := cfg.UnmarshalExtension("unknown", &unknownCfg); err != nil {
		t.Fatalf("UnmarshalExtension should not error for non-existent keys: %v", err)
	}

	if unknownCfg.SomeField != "" {
		t.Errorf("Expected SomeField to be empty for non-existent extension")
	}

	// Verify that logging extension is a map
	if _, ok := loggingExt.(map[string]interface{}); !ok {
		t.Errorf("Expected logging extension to be a map[string]interface{}, got %T", loggingExt)
	}

	// Known sections must not leak into Extensions
	if _, ok := cfg.Extensions["server"]; ok {
		t.Error("Expected 'server' to be parsed as a core section, not an extension")
	}
}

// TestExtensionsDoNotInterfereWithCoreConfig verifies that extensions don't break core config parsing
func TestExtensionsDoNotInterfereWithCoreConfig(t *testing.T) {
	yamlContent := []byte(`
version: "1.0"
server:
  listen: "0.0.0.0:9000"
workspace:
  default: ./storage

# Custom extension
custom:
  feature: enabled
  config:
    nested: true
`)

	cfg, err := LoadFromBytes(yamlContent)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Version != "1.0" {
		t.Errorf("Expected version '1.0', got '%s'", cfg.Version)
	}
	if cfg.Server.Listen != "0.0.0.0:9000" {
		t.Errorf("Expected listen '0.0.0.0:9000', got '%s'", cfg.Server.Listen)
	}
	if cfg.Workspace.Default != "./storage" {
		t.Errorf("Expected workspace default './storage', got '%s'", cfg.Workspace.Default)
	}

	if _, ok := cfg.Extensions["custom"]; !ok {
		t.Error("Expected 'custom' extension to be present")
	}
}

// TestLoadFromBytesDefaults verifies that defaults fill in a minimal config
func TestLoadFromBytesDefaults(t *testing.T) {
	cfg, err := LoadFromBytes([]byte(`version: "1.0"`))
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Server.Listen != "127.0.0.1:8000" {
		t.Errorf("Expected default listen address, got '%s'", cfg.Server.Listen)
	}
	if len(cfg.Server.CORSOrigins) != 2 {
		t.Errorf("Expected 2 default CORS origins, got %v", cfg.Server.CORSOrigins)
	}
	if len(cfg.Agent.StructuredTools) == 0 {
		t.Error("Expected default structured tool names")
	}
	if cfg.Telemetry.Enabled == nil || !*cfg.Telemetry.Enabled {
		t.Error("Expected telemetry to default to enabled")
	}
}

// TestLoadFromBytesInvalidYAML verifies the error code for unparseable input
func TestLoadFromBytesInvalidYAML(t *testing.T) {
	_, err := LoadFromBytes([]byte("version: [unclosed"))
	if err == nil {
		t.Fatal("Expected error for invalid YAML")
	}
	if errors.GetCode(err) != errors.ErrCodeConfigInvalid {
		t.Errorf("Expected CONFIG_INVALID, got %s", errors.GetCode(err))
	}
}

// TestEnvVarExpansion verifies ${VAR} and ${VAR:-default} expansion inside values
func TestEnvVarExpansion(t *testing.T) {
	origVal := os.Getenv("SERIEM_TEST_LISTEN")
	defer os.Setenv("SERIEM_TEST_LISTEN", origVal)

	os.Unsetenv("SERIEM_TEST_LISTEN")
	cfg, err := LoadFromBytes([]byte(`
version: "1.0"
server:
  listen: "${SERIEM_TEST_LISTEN:-127.0.0.1:9100}"
`))
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Server.Listen != "127.0.0.1:9100" {
		t.Errorf("Expected fallback default, got '%s'", cfg.Server.Listen)
	}

	os.Setenv("SERIEM_TEST_LISTEN", "127.0.0.1:9200")
	cfg, err = LoadFromBytes([]byte(`
version: "1.0"
server:
  listen: "${SERIEM_TEST_LISTEN:-127.0.0.1:9100}"
`))
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Server.Listen != "127.0.0.1:9200" {
		t.Errorf("Expected env value to win, got '%s'", cfg.Server.Listen)
	}
}

// TestFindConfigFile verifies the search precedence: SERIEM_CONFIG, then the
// upward walk, then the XDG config directory
func TestFindConfigFile(t *testing.T) {
	tmpDir := t.TempDir()

	origEnv := os.Getenv("SERIEM_CONFIG")
	origHome := os.Getenv("SERIEM_HOME")
	defer func() {
		os.Setenv("SERIEM_CONFIG", origEnv)
		os.Setenv("SERIEM_HOME", origHome)
	}()
	os.Unsetenv("SERIEM_CONFIG")
	// Point the XDG fallback somewhere empty so the host machine cannot interfere
	os.Setenv("SERIEM_HOME", filepath.Join(tmpDir, "seriem-home"))

	// Upward walk: config sits in the parent of the start directory
	projectDir := filepath.Join(tmpDir, "project")
	nestedDir := filepath.Join(projectDir, "a", "b")
	if err := os.MkdirAll(nestedDir, 0755); err != nil {
		t.Fatal(err)
	}
	configPath := filepath.Join(projectDir, "seriem.yml")
	if err := os.WriteFile(configPath, []byte(`version: "1.0"`), 0644); err != nil {
		t.Fatal(err)
	}

	found, err := FindConfigFile(nestedDir)
	if err != nil {
		t.Fatalf("Expected to find config via upward walk: %v", err)
	}
	if found != configPath {
		t.Errorf("Expected %s, got %s", configPath, found)
	}

	// SERIEM_CONFIG takes precedence over the walk
	explicitPath := filepath.Join(tmpDir, "explicit.yml")
	if err := os.WriteFile(explicitPath, []byte(`version: "1.0"`), 0644); err != nil {
		t.Fatal(err)
	}
	os.Setenv("SERIEM_CONFIG", explicitPath)
	found, err = FindConfigFile(nestedDir)
	if err != nil {
		t.Fatalf("Expected SERIEM_CONFIG to be honored: %v", err)
	}
	if found != explicitPath {
		t.Errorf("Expected %s, got %s", explicitPath, found)
	}

	// A SERIEM_CONFIG pointing at a missing file is an error, not a fallback
	os.Setenv("SERIEM_CONFIG", filepath.Join(tmpDir, "missing.yml"))
	if _, err := FindConfigFile(nestedDir); errors.GetCode(err) != errors.ErrCodeConfigNotFound {
		t.Errorf("Expected CONFIG_NOT_FOUND for missing SERIEM_CONFIG, got %v", err)
	}
	os.Unsetenv("SERIEM_CONFIG")

	// Nothing anywhere: CONFIG_NOT_FOUND
	emptyDir := filepath.Join(tmpDir, "seriem-home", "empty")
	if err := os.MkdirAll(emptyDir, 0755); err != nil {
		t.Fatal(err)
	}
	if _, err := FindConfigFile(emptyDir); errors.GetCode(err) != errors.ErrCodeConfigNotFound {
		t.Errorf("Expected CONFIG_NOT_FOUND, got %v", err)
	}
}

// TestLoadFromWithoutProjectConfig verifies that a missing project config
// falls back to defaults instead of failing
func TestLoadFromWithoutProjectConfig(t *testing.T) {
	tmpDir := t.TempDir()

	origEnv := os.Getenv("SERIEM_CONFIG")
	origHome := os.Getenv("SERIEM_HOME")
	defer func() {
		os.Setenv("SERIEM_CONFIG", origEnv)
		os.Setenv("SERIEM_HOME", origHome)
	}()
	os.Unsetenv("SERIEM_CONFIG")
	os.Setenv("SERIEM_HOME", filepath.Join(tmpDir, "seriem-home"))

	startDir := filepath.Join(tmpDir, "bare")
	if err := os.MkdirAll(startDir, 0755); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(startDir)
	if err != nil {
		t.Fatalf("Expected defaults when no config exists, got error: %v", err)
	}
	if cfg.Server.Listen != "127.0.0.1:8000" {
		t.Errorf("Expected default listen address, got '%s'", cfg.Server.Listen)
	}
	if cfg.Version != "1.0" {
		t.Errorf("Expected default version, got '%s'", cfg.Version)
	}
}
