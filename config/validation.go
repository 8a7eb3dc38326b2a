package config

import (
	"fmt"
	"net"
	"net/url"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/janschaeferjohann/seriem-agent/errors"
)

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// Version has a default, so no need to check

	if c.Server.Listen != "" {
		if _, _, err := net.SplitHostPort(c.Server.Listen); err != nil {
			return errors.New(errors.ErrCodeConfigValidation, fmt.Sprintf("invalid listen address: %s (must be host:port)", c.Server.Listen)).
				WithDetail("listen", c.Server.Listen)
		}
	}

	for _, origin := range c.Server.CORSOrigins {
		if err := validateOrigin(origin); err != nil {
			return errors.Wrap(err, errors.ErrCodeConfigValidation, fmt.Sprintf("invalid CORS origin '%s'", origin)).
				WithDetail("origin", origin)
		}
	}

	for _, arg := range c.Agent.Command {
		if strings.TrimSpace(arg) == "" {
			return errors.New(errors.ErrCodeConfigValidation, "agent.command cannot contain empty arguments")
		}
	}

	for _, name := range c.Agent.StructuredTools {
		if strings.TrimSpace(name) == "" {
			return errors.New(errors.ErrCodeConfigValidation, "agent.structured_tools cannot contain empty tool names")
		}
	}

	for _, pattern := range c.Files.Ignore {
		if strings.TrimSpace(pattern) == "" {
			return errors.New(errors.ErrCodeConfigValidation, "files.ignore cannot contain empty patterns")
		}
	}

	if err := validatePath("workspace.default", c.Workspace.Default); err != nil {
		return err
	}
	if err := validatePath("telemetry.dir", c.Telemetry.Dir); err != nil {
		return err
	}

	return nil
}

// validateOrigin checks that an origin is a bare scheme://host[:port] value.
func validateOrigin(origin string) error {
	if origin == "*" {
		return nil
	}
	u, err := url.Parse(origin)
	if err != nil {
		return errors.New(errors.ErrCodeInvalidInput, "origin must be a valid URL")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.New(errors.ErrCodeInvalidInput, "origin must use http or https")
	}
	if u.Host == "" {
		return errors.New(errors.ErrCodeInvalidInput, "origin must include a host")
	}
	if u.Path != "" && u.Path != "/" {
		return errors.New(errors.ErrCodeInvalidInput, "origin must not include a path")
	}
	return nil
}

// validatePath validates that a path is appropriate for the current OS
func validatePath(fieldName, path string) error {
	if path == "" {
		return nil
	}

	// Check for Windows absolute paths on Unix systems
	if runtime.GOOS != "windows" && filepath.IsAbs(path) && strings.Contains(path, "\\") {
		return errors.New(errors.ErrCodeConfigValidation, fmt.Sprintf("%s contains Windows-style path on Unix system", fieldName)).
			WithDetail("path", path)
	}

	// Check for Unix absolute paths on Windows systems
	if runtime.GOOS == "windows" && strings.HasPrefix(path, "/") && !strings.HasPrefix(path, "//") {
		return errors.New(errors.ErrCodeConfigValidation, fmt.Sprintf("%s contains Unix-style path on Windows system", fieldName)).
			WithDetail("path", path)
	}

	return nil
}
