package review

import (
	"github.com/charmbracelet/bubbles/key"

	"github.com/janschaeferjohann/seriem-agent/tui/keymap"
)

// KeyMap defines the bindings for the review TUI. The decision keys live
// here; navigation and system keys come from the shared base.
type KeyMap struct {
	keymap.Base
	Approve key.Binding
	Reject  key.Binding
}

// DefaultKeyMap returns the review bindings with vim-style defaults.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Base: keymap.NewBase(),
		Approve: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "approve"),
		),
		Reject: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "reject"),
		),
	}
}

// LoadKeyMap returns the review bindings with any [global] and [review]
// overrides from keybindings.toml applied.
func LoadKeyMap() KeyMap {
	km := DefaultKeyMap()
	overrides, err := keymap.LoadOverrides()
	if err != nil || overrides == nil {
		return km
	}
	keymap.ApplyOverrides(&km, overrides.Section("review"))
	return km
}

// ShortHelp lists the bindings shown in the footer.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Confirm, k.Approve, k.Reject, k.Quit}
}

// Sections groups the bindings for the full help view.
func (k KeyMap) Sections() []keymap.Section {
	return []keymap.Section{
		k.NavigationSection(),
		keymap.NewSection("Review", k.Confirm, k.Approve, k.Reject, k.Refresh, k.Back),
		k.SystemSection(),
	}
}
