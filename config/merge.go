package config

import (
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// LoadWithOverrides loads an explicit configuration file plus any override
// files sitting next to it. Used when the config path is given directly
// (--config flag) instead of discovered.
func LoadWithOverrides(baseFile string) (*Config, error) {
	cfg, err := Load(baseFile)
	if err != nil {
		return nil, err
	}

	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)
	cfg = mergeOverrides(cfg, filepath.Dir(baseFile), logger)

	// Defaults and validation run again over the merged result.
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// mergeConfigs overlays override onto base, field by field. Scalars override
// when set, slices replace wholesale, and extension maps merge one level
// deep.
func mergeConfigs(base, override *Config) *Config {
	out := *base
	if override.Version != "" {
		out.Version = override.Version
	}
	out.Server = mergeServer(out.Server, override.Server)
	out.Workspace = mergeWorkspace(out.Workspace, override.Workspace)
	out.Agent = mergeAgent(out.Agent, override.Agent)
	out.Files = mergeFiles(out.Files, override.Files)
	out.Telemetry = mergeTelemetry(out.Telemetry, override.Telemetry)
	out.Extensions = mergeExtensions(out.Extensions, override.Extensions)
	return &out
}

// mergeExtensions overlays extension sections. When both sides hold a map
// for the same key the entries merge key-wise; any other collision replaces.
func mergeExtensions(base, override map[string]interface{}) map[string]interface{} {
	if override == nil {
		return base
	}

	out := make(map[string]interface{}, len(base)+len(override))
	for k, v := range base {
		out[k] = v
	}
	for key, value := range override {
		baseMap, baseOk := out[key].(map[string]interface{})
		overrideMap, overrideOk := value.(map[string]interface{})
		if baseOk && overrideOk {
			out[key] = overlayMap(baseMap, overrideMap)
		} else {
			out[key] = value
		}
	}
	return out
}

func overlayMap(base, override map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(base)+len(override))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range override {
		out[k] = v
	}
	return out
}

func mergeServer(base, override ServerConfig) ServerConfig {
	if override.Listen != "" {
		base.Listen = override.Listen
	}
	if len(override.CORSOrigins) > 0 {
		base.CORSOrigins = override.CORSOrigins
	}
	return base
}

func mergeWorkspace(base, override WorkspaceConfig) WorkspaceConfig {
	if override.Default != "" {
		base.Default = override.Default
	}
	return base
}

func mergeAgent(base, override AgentConfig) AgentConfig {
	if len(override.Command) > 0 {
		base.Command = override.Command
	}
	if len(override.StructuredTools) > 0 {
		base.StructuredTools = override.StructuredTools
	}
	return base
}

func mergeFiles(base, override FilesConfig) FilesConfig {
	if len(override.Ignore) > 0 {
		base.Ignore = override.Ignore
	}
	return base
}

func mergeTelemetry(base, override TelemetryConfig) TelemetryConfig {
	if override.Enabled != nil {
		base.Enabled = override.Enabled
	}
	if override.Dir != "" {
		base.Dir = override.Dir
	}
	return base
}
