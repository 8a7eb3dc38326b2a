// Package keymap provides shared keybinding definitions for seriem TUIs.
// Every TUI embeds Base for the common vim-style bindings and adds its own
// bindings on top. Overrides from keybindings.toml are applied by field name,
// so a TUI-specific binding is just another struct field.
package keymap

import (
	"github.com/charmbracelet/bubbles/key"
)

// Base holds the bindings every seriem TUI shares: vertical navigation,
// confirm/back, refresh, and the system keys. TUIs embed it and extend it
// with their own bindings.
type Base struct {
	// Navigation
	Up       key.Binding
	Down     key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Top      key.Binding
	Bottom   key.Binding

	// Actions
	Confirm key.Binding
	Back    key.Binding
	Refresh key.Binding

	// System
	Help      key.Binding
	Quit      key.Binding
	ForceQuit key.Binding
}

// NewBase returns the default vim-style bindings.
func NewBase() Base {
	return Base{
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j", "down"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("ctrl+u", "pgup"),
			key.WithHelp("C-u", "page up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("ctrl+d", "pgdown"),
			key.WithHelp("C-d", "page down"),
		),
		Top: key.NewBinding(
			key.WithKeys("gg", "home"),
			key.WithHelp("gg", "top"),
		),
		Bottom: key.NewBinding(
			key.WithKeys("G", "end"),
			key.WithHelp("G", "bottom"),
		),
		Confirm: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "confirm"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("ctrl+r"),
			key.WithHelp("C-r", "refresh"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "quit"),
		),
		ForceQuit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("C-c", "quit"),
		),
	}
}

// Load returns the base bindings with any keybindings.toml overrides applied.
// The [global] section applies to every TUI; the named section applies on top
// of it. A missing or unreadable overrides file falls back to the defaults.
func Load(name string) Base {
	base := NewBase()
	overrides, err := LoadOverrides()
	if err != nil || overrides == nil {
		return base
	}
	ApplyOverrides(&base, overrides.Section(name))
	return base
}

// Helper to update a binding with new keys while preserving the help description.
func updateBinding(binding *key.Binding, keys []string) {
	if len(keys) > 0 {
		helpDesc := binding.Help().Desc
		*binding = key.NewBinding(
			key.WithKeys(keys...),
			key.WithHelp(keys[0], helpDesc),
		)
	}
}

// ShortHelp implements help.KeyMap with the bindings worth showing in a
// one-line footer.
func (k Base) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap for the expanded help view.
func (k Base) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.PageUp, k.PageDown, k.Top, k.Bottom},
		{k.Confirm, k.Back, k.Refresh},
		{k.Help, k.Quit},
	}
}

// VerticalNav returns the bindings for simple list movement.
func (k Base) VerticalNav() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.PageUp, k.PageDown, k.Top, k.Bottom}
}

// Sections implements SectionedKeyMap for the bare base keymap.
func (k Base) Sections() []Section {
	return []Section{
		k.NavigationSection(),
		k.ActionsSection(),
		k.SystemSection(),
	}
}

// GetHelp exposes the help binding to components through the embedding keymap.
func (k Base) GetHelp() key.Binding {
	return k.Help
}

// GetQuit exposes the quit binding to components through the embedding keymap.
func (k Base) GetQuit() key.Binding {
	return k.Quit
}

// NavigationSection groups the navigation bindings for sectioned help.
func (k Base) NavigationSection() Section {
	return NavigationSection(k.Up, k.Down, k.PageUp, k.PageDown, k.Top, k.Bottom)
}

// ActionsSection groups the action bindings for sectioned help.
func (k Base) ActionsSection() Section {
	return ActionsSection(k.Confirm, k.Back, k.Refresh)
}

// SystemSection groups the system bindings for sectioned help.
func (k Base) SystemSection() Section {
	return SystemSection(k.Help, k.Quit)
}
