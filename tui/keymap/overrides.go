package keymap

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"unicode"

	"github.com/charmbracelet/bubbles/key"
	"github.com/pelletier/go-toml/v2"

	"github.com/janschaeferjohann/seriem-agent/pkg/paths"
)

// OverridesFile is the name of the keybindings file inside the config directory.
const OverridesFile = "keybindings.toml"

// SectionOverrides maps a snake_case binding name to its replacement keys.
// The first key listed becomes the one shown in help.
type SectionOverrides map[string][]string

// Overrides holds the parsed contents of keybindings.toml: one table per TUI
// plus an optional [global] table applied everywhere. For example:
//
//	[global]
//	quit = ["q", "ctrl+q"]
//
//	[review]
//	approve = ["a"]
//	reject = ["x", "d"]
type Overrides map[string]SectionOverrides

// LoadOverrides reads keybinding overrides from keybindings.toml in the
// config directory. A missing file is not an error; callers get nil.
func LoadOverrides() (Overrides, error) {
	return LoadOverridesFile(filepath.Join(paths.ConfigDir(), OverridesFile))
}

// LoadOverridesFile reads keybinding overrides from an explicit path.
func LoadOverridesFile(path string) (Overrides, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var overrides Overrides
	if err := toml.Unmarshal(data, &overrides); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return overrides, nil
}

// Section returns the overrides for the named TUI merged over [global].
// Entries in the named section win on conflict. Returns nil when neither
// section has entries.
func (o Overrides) Section(name string) SectionOverrides {
	if o == nil {
		return nil
	}
	merged := SectionOverrides{}
	for k, v := range o["global"] {
		merged[k] = v
	}
	for k, v := range o[name] {
		merged[k] = v
	}
	if len(merged) == 0 {
		return nil
	}
	return merged
}

// ApplyOverrides rebinds the key.Binding fields of km, which must be a
// pointer to a keymap struct. Field names are matched against override keys
// by converting CamelCase to snake_case, so an `approve = ["a"]` entry
// targets an Approve field. Embedded structs (usually Base) are walked too,
// which lets one section remap both shared and TUI-specific bindings.
// Fields without an override keep their defaults, and the help description
// always survives a rebind.
func ApplyOverrides(km interface{}, overrides SectionOverrides) {
	if len(overrides) == 0 {
		return
	}

	v := reflect.ValueOf(km)
	if v.Kind() != reflect.Ptr || v.IsNil() {
		return
	}
	v = v.Elem()
	if v.Kind() != reflect.Struct {
		return
	}

	applyToStruct(v, overrides)
}

func applyToStruct(v reflect.Value, overrides SectionOverrides) {
	bindingType := reflect.TypeOf(key.Binding{})
	t := v.Type()

	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)

		if !field.CanSet() {
			continue
		}

		// Embedded keymap structs get the same treatment.
		if fieldType.Anonymous && field.Kind() == reflect.Struct {
			applyToStruct(field, overrides)
			continue
		}

		if field.Type() != bindingType {
			continue
		}

		name := camelToSnake(fieldType.Name)
		if keys, ok := overrides[name]; ok && len(keys) > 0 {
			binding := field.Addr().Interface().(*key.Binding)
			updateBinding(binding, keys)
		}
	}
}

// camelToSnake converts a Go field name to its keybindings.toml key:
// "PageUp" becomes "page_up".
func camelToSnake(s string) string {
	var b strings.Builder
	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}
