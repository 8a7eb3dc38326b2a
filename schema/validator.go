package schema

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed seriem.embedded.schema.json
var schemaJSON []byte

const schemaURL = "seriem.schema.json"

// Validator checks configuration values against the embedded JSON Schema.
type Validator struct {
	compiled *jsonschema.Schema
}

// NewValidator compiles the embedded schema.
func NewValidator() (*Validator, error) {
	c := jsonschema.NewCompiler()
	if err := c.AddResource(schemaURL, bytes.NewReader(schemaJSON)); err != nil {
		return nil, fmt.Errorf("load embedded schema: %w", err)
	}
	compiled, err := c.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile embedded schema: %w", err)
	}
	return &Validator{compiled: compiled}, nil
}

// Validate checks value against the schema. Structs are accepted: the value
// is round-tripped through encoding/json first, since the library validates
// plain maps, slices, and scalars.
func (v *Validator) Validate(value interface{}) error {
	plain, err := toJSONValue(value)
	if err != nil {
		return err
	}
	err = v.compiled.Validate(plain)
	if err == nil {
		return nil
	}
	var ve *jsonschema.ValidationError
	if errors.As(err, &ve) {
		return fmt.Errorf("schema validation failed:\n%s", strings.Join(leafMessages(ve), "\n"))
	}
	return fmt.Errorf("schema validation failed: %w", err)
}

// toJSONValue reduces a Go value to the generic form the schema library
// operates on.
func toJSONValue(value interface{}) (interface{}, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("encode config for validation: %w", err)
	}
	var plain interface{}
	if err := json.Unmarshal(raw, &plain); err != nil {
		return nil, fmt.Errorf("decode config for validation: %w", err)
	}
	return plain, nil
}

// leafMessages walks the cause tree and returns one line per located failure,
// falling back to the root message when nothing deeper carries a location.
func leafMessages(ve *jsonschema.ValidationError) []string {
	var out []string
	var walk func(*jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		if e.InstanceLocation != "" {
			out = append(out, fmt.Sprintf("- %s: %s", e.InstanceLocation, e.Message))
		}
		for _, cause := range e.Causes {
			walk(cause)
		}
	}
	walk(ve)
	if len(out) == 0 {
		out = append(out, "- "+ve.Message)
	}
	return out
}
