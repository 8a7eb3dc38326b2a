package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
)

// TestHierarchicalMerging tests the three-level configuration merge:
// global -> project -> override
func TestHierarchicalMerging(t *testing.T) {
	// Create temp directory for test configs
	tmpDir := t.TempDir()

	// Create a fake seriem home for the global config
	fakeHome := filepath.Join(tmpDir, "home")
	fakeConfigDir := filepath.Join(fakeHome, "config", "seriem")
	if err := os.MkdirAll(fakeConfigDir, 0755); err != nil {
		t.Fatal(err)
	}

	// Save original env and restore after test
	origHome := os.Getenv("SERIEM_HOME")
	origConfig := os.Getenv("SERIEM_CONFIG")
	defer func() {
		os.Setenv("SERIEM_HOME", origHome)
		os.Setenv("SERIEM_CONFIG", origConfig)
	}()
	os.Setenv("SERIEM_HOME", fakeHome)
	os.Unsetenv("SERIEM_CONFIG")

	// Create global config
	globalConfig := `
version: "1.0"
server:
  listen: "127.0.0.1:8000"
  cors_origins:
    - http://localhost:4200
telemetry:
  enabled: false

# Global extension
monitoring:
  enabled: true
  interval: 60
`
	if err := os.WriteFile(filepath.Join(fakeConfigDir, "seriem.yml"), []byte(globalConfig), 0644); err != nil {
		t.Fatal(err)
	}

	// Create project directory
	projectDir := filepath.Join(tmpDir, "project")
	if err := os.MkdirAll(projectDir, 0755); err != nil {
		t.Fatal(err)
	}

	// Create project config
	projectConfig := `
version: "1.1"
workspace:
  default: ./storage
agent:
  command: ["./agent", "--stdio"]

# Project extension - overrides global
monitoring:
  interval: 30

# Project-specific extension
logging:
  level: debug
`
	if err := os.WriteFile(filepath.Join(projectDir, "seriem.yml"), []byte(projectConfig), 0644); err != nil {
		t.Fatal(err)
	}

	// Create override config
	overrideConfig := `
server:
  listen: "127.0.0.1:9999"

# Override extension
logging:
  level: trace
  format: json
`
	if err := os.WriteFile(filepath.Join(projectDir, "seriem.override.yml"), []byte(overrideConfig), 0644); err != nil {
		t.Fatal(err)
	}

	// Load configuration with logging
	logger := logrus.New()
	logger.SetLevel(logrus.DebugLevel)

	cfg, err := LoadFromWithLogger(projectDir, logger)
	if err != nil {
		t.Fatalf("Failed to load hierarchical config: %v", err)
	}

	// Version comes from the project layer
	if cfg.Version != "1.1" {
		t.Errorf("Expected version '1.1' from project, got '%s'", cfg.Version)
	}

	// Listen comes from the override layer
	if cfg.Server.Listen != "127.0.0.1:9999" {
		t.Errorf("Expected listen from override, got '%s'", cfg.Server.Listen)
	}

	// CORS origins survive from the global layer
	if len(cfg.Server.CORSOrigins) != 1 || cfg.Server.CORSOrigins[0] != "http://localhost:4200" {
		t.Errorf("Expected CORS origins from global, got %v", cfg.Server.CORSOrigins)
	}

	// Workspace default comes from the project layer
	if cfg.Workspace.Default != "./storage" {
		t.Errorf("Expected workspace default from project, got '%s'", cfg.Workspace.Default)
	}

	// Agent command comes from the project layer
	if len(cfg.Agent.Command) != 2 || cfg.Agent.Command[0] != "./agent" {
		t.Errorf("Expected agent command from project, got %v", cfg.Agent.Command)
	}

	// Telemetry disable survives from the global layer
	if cfg.Telemetry.Enabled == nil || *cfg.Telemetry.Enabled {
		t.Error("Expected telemetry disabled from global")
	}

	// Monitoring extension (global + project override)
	var monitoringCfg struct {
		Enabled  bool `yaml:"enabled"`
		Interval int  `yaml:"interval"`
	}
	if err := cfg.UnmarshalExtension("monitoring", &monitoringCfg); err != nil {
		t.Fatalf("Failed to unmarshal monitoring extension: %v", err)
	}
	if !monitoringCfg.Enabled {
		t.Error("Expected monitoring to be enabled from global")
	}
	if monitoringCfg.Interval != 30 {
		t.Errorf("Expected monitoring interval 30 from project, got %d", monitoringCfg.Interval)
	}

	// Logging extension (project + override)
	var logCfg struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	}
	if err := cfg.UnmarshalExtension("logging", &logCfg); err != nil {
		t.Fatalf("Failed to unmarshal logging extension: %v", err)
	}
	if logCfg.Level != "trace" {
		t.Errorf("Expected level 'trace' from override, got '%s'", logCfg.Level)
	}
	if logCfg.Format != "json" {
		t.Errorf("Expected format 'json' from override, got '%s'", logCfg.Format)
	}
}

// TestMergingWithoutGlobalConfig tests that merging works when no global config exists
func TestMergingWithoutGlobalConfig(t *testing.T) {
	tmpDir := t.TempDir()

	origHome := os.Getenv("SERIEM_HOME")
	origConfig := os.Getenv("SERIEM_CONFIG")
	defer func() {
		os.Setenv("SERIEM_HOME", origHome)
		os.Setenv("SERIEM_CONFIG", origConfig)
	}()
	os.Setenv("SERIEM_HOME", filepath.Join(tmpDir, "no-such-home"))
	os.Unsetenv("SERIEM_CONFIG")

	projectDir := filepath.Join(tmpDir, "project")
	if err := os.MkdirAll(projectDir, 0755); err != nil {
		t.Fatal(err)
	}

	projectConfig := `
version: "1.0"
server:
  listen: "127.0.0.1:7777"
`
	if err := os.WriteFile(filepath.Join(projectDir, "seriem.yml"), []byte(projectConfig), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(projectDir)
	if err != nil {
		t.Fatalf("Failed to load config without global layer: %v", err)
	}

	if cfg.Server.Listen != "127.0.0.1:7777" {
		t.Errorf("Expected listen from project, got '%s'", cfg.Server.Listen)
	}

	// Defaults still apply for everything unset
	if len(cfg.Server.CORSOrigins) != 2 {
		t.Errorf("Expected default CORS origins, got %v", cfg.Server.CORSOrigins)
	}
}

// TestMergeConfigsExtensionMaps verifies same-key extension maps merge key-wise
func TestMergeConfigsExtensionMaps(t *testing.T) {
	base := &Config{
		Version: "1.0",
		Extensions: map[string]interface{}{
			"logging": map[string]interface{}{
				"level":  "info",
				"format": "text",
			},
		},
	}
	override := &Config{
		Extensions: map[string]interface{}{
			"logging": map[string]interface{}{
				"level": "debug",
			},
		},
	}

	merged := mergeConfigs(base, override)

	loggingExt, ok := merged.Extensions["logging"].(map[string]interface{})
	if !ok {
		t.Fatalf("Expected merged logging extension map, got %T", merged.Extensions["logging"])
	}
	if loggingExt["level"] != "debug" {
		t.Errorf("Expected level 'debug' from override, got %v", loggingExt["level"])
	}
	if loggingExt["format"] != "text" {
		t.Errorf("Expected format 'text' preserved from base, got %v", loggingExt["format"])
	}
}
