package config

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/janschaeferjohann/seriem-agent/errors"
	"github.com/janschaeferjohann/seriem-agent/pkg/paths"
)

var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

// configNames lists the recognized configuration file names, in precedence order.
var configNames = []string{
	"seriem.yml",
	"seriem.yaml",
	".seriem.yml",
	".seriem.yaml",
}

// overrideNames lists the local override files merged over the project config.
var overrideNames = []string{
	"seriem.override.yml",
	"seriem.override.yaml",
	".seriem.override.yml",
	".seriem.override.yaml",
}

// Load reads and parses a single configuration file, skipping the
// global/override merge.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ConfigNotFound(path)
		}
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to read config file").
			WithDetail("path", path)
	}
	return LoadFromBytes(data)
}

// LoadDefault loads the merged configuration starting from the current
// directory.
func LoadDefault() (*Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to get current directory")
	}
	return LoadFrom(cwd)
}

// LoadFrom loads configuration with hierarchical merging starting from the
// given directory.
func LoadFrom(startDir string) (*Config, error) {
	return LoadFromWithLogger(startDir, logrus.New())
}

// LoadFromWithLogger merges the configuration layers in precedence order:
// the global config under the XDG config dir is the base, the nearest
// project config overrides it, and seriem.override.yml files override both.
// A missing project config is not an error; the daemon runs on defaults.
func LoadFromWithLogger(startDir string, logger *logrus.Logger) (*Config, error) {
	merged := loadGlobal(logger)

	projectPath, err := FindConfigFile(startDir)
	switch {
	case err == nil:
		logger.WithField("path", projectPath).Debug("Loading project configuration")
		project, err := parseFile(projectPath)
		if err != nil {
			return nil, err
		}
		if merged == nil {
			merged = project
		} else {
			merged = mergeConfigs(merged, project)
		}
		merged = mergeOverrides(merged, filepath.Dir(projectPath), logger)

	case errors.GetCode(err) == errors.ErrCodeConfigNotFound:
		logger.Debug("No project configuration found, using defaults")
		if merged == nil {
			merged = &Config{}
		}

	default:
		return nil, err
	}

	merged.SetDefaults()
	if err := merged.Validate(); err != nil {
		return nil, err
	}

	if logger.IsLevelEnabled(logrus.DebugLevel) {
		if dump, err := yaml.Marshal(merged); err == nil {
			logger.Debugf("Merged configuration:\n%s", dump)
		}
	}
	return merged, nil
}

// LoadFromBytes parses a complete configuration from raw YAML: environment
// expansion, schema validation, defaults, then semantic validation.
func LoadFromBytes(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal([]byte(expandEnvVars(string(data))), &cfg); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to parse YAML configuration")
	}

	validator, err := NewSchemaValidator()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to create validator")
	}
	if err := validator.Validate(&cfg); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "schema validation failed")
	}

	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// loadGlobal reads the optional global config. Problems there are logged and
// skipped so a broken global file cannot break every project.
func loadGlobal(logger *logrus.Logger) *Config {
	path := globalConfigPath()
	if path == "" || !fileExists(path) {
		return nil
	}
	logger.WithField("path", path).Debug("Loading global configuration")
	cfg, err := parseFile(path)
	if err != nil {
		logger.WithError(err).Warn("Failed to load global configuration, continuing without it")
		return nil
	}
	return cfg
}

// parseFile reads one YAML layer with environment expansion, without
// validation or defaults.
func parseFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to read config file").
			WithDetail("path", path)
	}
	var cfg Config
	if err := yaml.Unmarshal([]byte(expandEnvVars(string(data))), &cfg); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to parse config file").
			WithDetail("path", path)
	}
	return &cfg, nil
}

// mergeOverrides merges any override files found in dir into base.
func mergeOverrides(base *Config, dir string, logger *logrus.Logger) *Config {
	for _, name := range overrideNames {
		path := filepath.Join(dir, name)
		if !fileExists(path) {
			continue
		}
		logger.WithField("path", path).Debug("Loading local override configuration")
		override, err := parseFile(path)
		if err != nil {
			logger.WithError(err).Warn("Failed to load override file, skipping")
			continue
		}
		base = mergeConfigs(base, override)
	}
	return base
}

// FindConfigFile locates the project configuration: $SERIEM_CONFIG when set
// (a missing file there is an error, not a fallback), then the start
// directory walked up to the filesystem root, then the global config path.
func FindConfigFile(startDir string) (string, error) {
	if envPath := os.Getenv("SERIEM_CONFIG"); envPath != "" {
		if fileExists(envPath) {
			return envPath, nil
		}
		return "", errors.ConfigNotFound(envPath).WithDetail("source", "SERIEM_CONFIG")
	}

	for dir := startDir; ; dir = filepath.Dir(dir) {
		for _, name := range configNames {
			if path := filepath.Join(dir, name); fileExists(path) {
				return path, nil
			}
		}
		if filepath.Dir(dir) == dir {
			break
		}
	}

	if path := globalConfigPath(); path != "" && fileExists(path) {
		return path, nil
	}
	return "", errors.ConfigNotFound(startDir).WithDetail("searchPath", startDir)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// expandEnvVars replaces ${VAR} with its environment value and supports
// ${VAR:-default} fallbacks.
func expandEnvVars(content string) string {
	return envVarRegex.ReplaceAllStringFunc(content, func(match string) string {
		name, fallback, _ := strings.Cut(match[2:len(match)-1], ":-")
		if value := os.Getenv(name); value != "" {
			return value
		}
		return fallback
	})
}

// globalConfigPath returns ~/.config/seriem/seriem.yml (honoring SERIEM_HOME
// and XDG_CONFIG_HOME), or "" when no home can be resolved.
func globalConfigPath() string {
	dir := paths.ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "seriem.yml")
}
