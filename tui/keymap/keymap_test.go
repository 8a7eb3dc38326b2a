package keymap

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNewBaseDefaults(t *testing.T) {
	base := NewBase()

	tests := []struct {
		name string
		keys []string
		want string
	}{
		{"Up", base.Up.Keys(), "k"},
		{"Down", base.Down.Keys(), "j"},
		{"Top", base.Top.Keys(), "gg"},
		{"Bottom", base.Bottom.Keys(), "G"},
		{"Quit", base.Quit.Keys(), "q"},
		{"ForceQuit", base.ForceQuit.Keys(), "ctrl+c"},
		{"Help", base.Help.Keys(), "?"},
	}

	for _, tt := range tests {
		if len(tt.keys) == 0 || tt.keys[0] != tt.want {
			t.Errorf("%s keys = %v, want first key %q", tt.name, tt.keys, tt.want)
		}
	}
}

func TestLoad_NoOverridesFile(t *testing.T) {
	t.Setenv("SERIEM_HOME", t.TempDir())

	base := Load("review")

	if keys := base.Quit.Keys(); len(keys) != 1 || keys[0] != "q" {
		t.Errorf("Quit keys = %v, want defaults [q]", keys)
	}
}

func TestLoad_AppliesGlobalAndSection(t *testing.T) {
	home := t.TempDir()
	t.Setenv("SERIEM_HOME", home)

	dir := filepath.Join(home, "config", "seriem")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	content := `
[global]
quit = ["Q"]

[review]
refresh = ["r"]
`
	if err := os.WriteFile(filepath.Join(dir, "keybindings.toml"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	base := Load("review")

	if keys := base.Quit.Keys(); len(keys) != 1 || keys[0] != "Q" {
		t.Errorf("Quit keys = %v, want [Q]", keys)
	}
	if keys := base.Refresh.Keys(); len(keys) != 1 || keys[0] != "r" {
		t.Errorf("Refresh keys = %v, want [r]", keys)
	}
	// Bindings without an override keep their defaults.
	if keys := base.Up.Keys(); len(keys) != 2 || keys[0] != "k" {
		t.Errorf("Up keys = %v, want [k up]", keys)
	}
}

func TestSectionHelpers(t *testing.T) {
	base := NewBase()

	nav := base.NavigationSection()
	if nav.Name != SectionNavigation {
		t.Errorf("name = %q, want %q", nav.Name, SectionNavigation)
	}
	if len(nav.Bindings) != 6 {
		t.Errorf("navigation bindings = %d, want 6", len(nav.Bindings))
	}
	if nav.IsEmpty() {
		t.Error("navigation section reported empty")
	}

	extended := base.SystemSection().With(base.Refresh)
	if len(extended.Bindings) != 3 {
		t.Errorf("extended system bindings = %d, want 3", len(extended.Bindings))
	}
	// The original section must be left alone.
	if len(base.SystemSection().Bindings) != 2 {
		t.Error("With mutated the source section")
	}
}
