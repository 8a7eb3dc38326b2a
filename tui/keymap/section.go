package keymap

import (
	"slices"

	"github.com/charmbracelet/bubbles/key"
)

// Standard section names, shared so help displays stay uniform across TUIs.
const (
	SectionNavigation = "Navigation"
	SectionActions    = "Actions"
	SectionSystem     = "System"
)

// Section groups related bindings under a name for structured help display.
type Section struct {
	Name     string
	Bindings []key.Binding
}

// SectionedKeyMap is implemented by keymaps that organize their bindings into
// sections; the help component renders those instead of the flat FullHelp.
type SectionedKeyMap interface {
	Sections() []Section
}

// NewSection creates a section with a custom name for TUI-specific bindings.
func NewSection(name string, bindings ...key.Binding) Section {
	return Section{Name: name, Bindings: bindings}
}

// NavigationSection creates a Navigation section with the given bindings.
func NavigationSection(bindings ...key.Binding) Section {
	return NewSection(SectionNavigation, bindings...)
}

// ActionsSection creates an Actions section with the given bindings.
func ActionsSection(bindings ...key.Binding) Section {
	return NewSection(SectionActions, bindings...)
}

// SystemSection creates a System section with the given bindings.
func SystemSection(bindings ...key.Binding) Section {
	return NewSection(SectionSystem, bindings...)
}

// IsEmpty reports whether the section has no enabled bindings.
func (s Section) IsEmpty() bool {
	return !slices.ContainsFunc(s.Bindings, key.Binding.Enabled)
}

// With returns a copy of the section with extra bindings appended.
func (s Section) With(bindings ...key.Binding) Section {
	return Section{Name: s.Name, Bindings: slices.Concat(s.Bindings, bindings)}
}
