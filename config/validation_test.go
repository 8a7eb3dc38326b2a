package config

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/janschaeferjohann/seriem-agent/errors"
)

func TestValidateListenAddress(t *testing.T) {
	testCases := []struct {
		name   string
		listen string
		valid  bool
	}{
		{"valid loopback", "127.0.0.1:8000", true},
		{"valid wildcard", "0.0.0.0:8000", true},
		{"valid hostname", "localhost:9000", true},
		{"missing port", "127.0.0.1", false},
		{"garbage", "not an address", false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := &Config{Server: ServerConfig{Listen: tc.listen}}
			cfg.SetDefaults()

			err := cfg.Validate()
			if tc.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
				assert.Equal(t, errors.ErrCodeConfigValidation, errors.GetCode(err))
			}
		})
	}
}

func TestValidateCORSOrigins(t *testing.T) {
	testCases := []struct {
		name   string
		origin string
		valid  bool
	}{
		{"http origin", "http://localhost:4200", true},
		{"https origin", "https://app.example.com", true},
		{"wildcard", "*", true},
		{"trailing slash", "http://localhost:4200/", true},
		{"with path", "http://localhost:4200/app", false},
		{"bad scheme", "ftp://example.com", false},
		{"no host", "http://", false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := &Config{Server: ServerConfig{CORSOrigins: []string{tc.origin}}}
			cfg.SetDefaults()

			err := cfg.Validate()
			if tc.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestValidateAgentCommand(t *testing.T) {
	cfg := &Config{Agent: AgentConfig{Command: []string{"./agent", ""}}}
	cfg.SetDefaults()

	err := cfg.Validate()
	assert.Error(t, err)
	assert.Equal(t, errors.ErrCodeConfigValidation, errors.GetCode(err))
}

func TestValidateStructuredToolNames(t *testing.T) {
	cfg := &Config{Agent: AgentConfig{StructuredTools: []string{"generate_datamodel", " "}}}
	cfg.SetDefaults()

	err := cfg.Validate()
	assert.Error(t, err)
}

func TestValidateIgnorePatterns(t *testing.T) {
	cfg := &Config{Files: FilesConfig{Ignore: []string{"*.tmp", "  "}}}
	cfg.SetDefaults()
	assert.Error(t, cfg.Validate())

	cfg = &Config{Files: FilesConfig{Ignore: []string{"*.tmp", "node_modules/"}}}
	cfg.SetDefaults()
	assert.NoError(t, cfg.Validate())
}

func TestValidateDefaultsAreValid(t *testing.T) {
	cfg := &Config{}
	cfg.SetDefaults()
	assert.NoError(t, cfg.Validate())
}
