package config

import (
	"testing"
)

func TestSchemaValidation(t *testing.T) {
	validator, err := NewSchemaValidator()
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name      string
		config    map[string]interface{}
		wantError bool
	}{
		{
			name: "valid config",
			config: map[string]interface{}{
				"version": "1.0",
				"server": map[string]interface{}{
					"listen":       "127.0.0.1:8000",
					"cors_origins": []interface{}{"http://localhost:4200"},
				},
				"workspace": map[string]interface{}{
					"default": "./storage",
				},
			},
			wantError: false,
		},
		{
			name:      "empty config",
			config:    map[string]interface{}{},
			wantError: false,
		},
		{
			name: "extension sections are tolerated",
			config: map[string]interface{}{
				"version": "1.0",
				"logging": map[string]interface{}{
					"level": "debug",
				},
			},
			wantError: false,
		},
		{
			name: "listen must be a string",
			config: map[string]interface{}{
				"server": map[string]interface{}{
					"listen": 8000,
				},
			},
			wantError: true,
		},
		{
			name: "cors_origins must be an array",
			config: map[string]interface{}{
				"server": map[string]interface{}{
					"cors_origins": "http://localhost:4200",
				},
			},
			wantError: true,
		},
		{
			name: "agent command must be an array of strings",
			config: map[string]interface{}{
				"agent": map[string]interface{}{
					"command": []interface{}{1, 2},
				},
			},
			wantError: true,
		},
		{
			name: "telemetry enabled must be a boolean",
			config: map[string]interface{}{
				"telemetry": map[string]interface{}{
					"enabled": "yes",
				},
			},
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validator.Validate(tt.config)
			if tt.wantError {
				if err == nil {
					t.Error("expected error but got none")
				}
			} else {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
			}
		})
	}
}

// TestValidateParsedConfig ensures a loaded Config round-trips through the
// schema validator, which is how LoadFromBytes applies it.
func TestValidateParsedConfig(t *testing.T) {
	validator, err := NewSchemaValidator()
	if err != nil {
		t.Fatal(err)
	}

	cfg := &Config{}
	cfg.SetDefaults()

	if err := validator.Validate(cfg); err != nil {
		t.Errorf("default config failed schema validation: %v", err)
	}
}
