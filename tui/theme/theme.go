// Package theme holds the color palettes and lipgloss styles shared by the
// review TUI, the CLI renderers, and the log formatters. The palette is
// selected through SERIEM_THEME or the "tui" section of seriem.yml.
package theme

import (
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/janschaeferjohann/seriem-agent/config"
)

const defaultThemeName = "kanagawa"

// colorPair is a light/dark hex pair. A pair with an empty dark half is a
// static color (the terminal palette's ANSI codes).
type colorPair struct {
	light, dark string
}

func (c colorPair) resolve() lipgloss.TerminalColor {
	if c.dark == "" {
		return lipgloss.Color(c.light)
	}
	return lipgloss.AdaptiveColor{Light: c.light, Dark: c.dark}
}

// palette assigns a color to every role a theme needs to fill.
type palette struct {
	green, yellow, red, orange     colorPair
	cyan, blue, violet, pink       colorPair
	lightText, mutedText, darkText colorPair
	border, selectedBg             colorPair
	subtleBg, verySubtleBg         colorPair

	// flatRows disables alternating table backgrounds where the palette
	// cannot control how backgrounds render (ANSI terminal colors).
	flatRows bool
}

// kanagawa pairs the Wave-inspired light palette with Dragon dark.
var kanagawa = palette{
	green:        colorPair{"#4E7C5A", "#98BB6C"},
	yellow:       colorPair{"#A68A64", "#FF9E3B"},
	red:          colorPair{"#C34043", "#FF5D62"},
	orange:       colorPair{"#CC6B4E", "#FFA066"},
	cyan:         colorPair{"#5B8BBE", "#7E9CD8"},
	blue:         colorPair{"#4F7CAC", "#7FB4CA"},
	violet:       colorPair{"#674D7A", "#957FB8"},
	pink:         colorPair{"#B35C74", "#D27E99"},
	lightText:    colorPair{"#2B2F42", "#DCD7BA"},
	mutedText:    colorPair{"#6C7086", "#727169"},
	darkText:     colorPair{"#E6E9EF", "#1D1C19"},
	border:       colorPair{"#B5BDC5", "#363646"},
	selectedBg:   colorPair{"#E2E6F3", "#223249"},
	subtleBg:     colorPair{"#F7F7FB", "#1F1F28"},
	verySubtleBg: colorPair{"#EFF1F8", "#181820"},
}

var gruvbox = palette{
	green:        colorPair{"#98971A", "#B8BB26"},
	yellow:       colorPair{"#D79921", "#FABD2F"},
	red:          colorPair{"#CC241D", "#FB4934"},
	orange:       colorPair{"#D65D0E", "#FE8019"},
	cyan:         colorPair{"#458588", "#83A598"},
	blue:         colorPair{"#076678", "#458588"},
	violet:       colorPair{"#8F3F71", "#B16286"},
	pink:         colorPair{"#B57679", "#D3869B"},
	lightText:    colorPair{"#3C3836", "#EBDBB2"},
	mutedText:    colorPair{"#928374", "#BDAE93"},
	darkText:     colorPair{"#F9F5D7", "#1D2021"},
	border:       colorPair{"#D5C4A1", "#504945"},
	selectedBg:   colorPair{"#F2E5BC", "#32302F"},
	subtleBg:     colorPair{"#FBF1C7", "#282828"},
	verySubtleBg: colorPair{"#F9F5D7", "#1D2021"},
}

// terminal defers to the user's own ANSI scheme.
var terminal = palette{
	green:        colorPair{light: "2"},
	yellow:       colorPair{light: "3"},
	red:          colorPair{light: "1"},
	orange:       colorPair{light: "208"},
	cyan:         colorPair{light: "6"},
	blue:         colorPair{light: "4"},
	violet:       colorPair{light: "5"},
	pink:         colorPair{light: "13"},
	lightText:    colorPair{light: "7"},
	mutedText:    colorPair{light: "8"},
	darkText:     colorPair{light: "0"},
	border:       colorPair{light: "8"},
	selectedBg:   colorPair{light: "8"},
	subtleBg:     colorPair{light: "0"},
	verySubtleBg: colorPair{light: "0"},
	flatRows:     true,
}

var palettes = map[string]palette{
	"kanagawa": kanagawa,
	"gruvbox":  gruvbox,
	"terminal": terminal,
}

var paletteAliases = map[string]string{
	"kanagawa-dark":   "kanagawa",
	"kanagawa-dragon": "kanagawa",
	"kanagawa-wave":   "kanagawa",
	"gruvbox-dark":    "gruvbox",
	"gruvbox-light":   "gruvbox",
}

// Colors is a theme's resolved palette.
type Colors struct {
	Green                lipgloss.TerminalColor
	Yellow               lipgloss.TerminalColor
	Red                  lipgloss.TerminalColor
	Orange               lipgloss.TerminalColor
	Cyan                 lipgloss.TerminalColor
	Blue                 lipgloss.TerminalColor
	Violet               lipgloss.TerminalColor
	Pink                 lipgloss.TerminalColor
	LightText            lipgloss.TerminalColor
	MutedText            lipgloss.TerminalColor
	DarkText             lipgloss.TerminalColor
	Border               lipgloss.TerminalColor
	SelectedBackground   lipgloss.TerminalColor
	SubtleBackground     lipgloss.TerminalColor
	VerySubtleBackground lipgloss.TerminalColor
}

// Theme bundles the styles the seriem surfaces draw with.
type Theme struct {
	Colors Colors

	Header lipgloss.Style

	// Status styles, one per outcome.
	Success lipgloss.Style
	Error   lipgloss.Style
	Warning lipgloss.Style
	Info    lipgloss.Style

	Muted  lipgloss.Style
	Italic lipgloss.Style

	// Table dressing for the proposal list.
	TableHeader        lipgloss.Style
	TableRow           lipgloss.Style
	UseAlternatingRows bool

	Code lipgloss.Style

	// Diff styles for rendering proposed file changes.
	DiffAdd    lipgloss.Style
	DiffDelete lipgloss.Style
	DiffMeta   lipgloss.Style

	Highlight lipgloss.Style
	Accent    lipgloss.Style
}

// DefaultColors is the resolved palette of the active theme.
var DefaultColors Colors

// DefaultTheme is the process-wide theme, selected once at startup.
var DefaultTheme = buildDefault()

func buildDefault() *Theme {
	p := activePalette()
	DefaultColors = resolveColors(p)
	return build(p)
}

func build(p palette) *Theme {
	colors := resolveColors(p)
	return &Theme{
		Colors: colors,

		Header: lipgloss.NewStyle().Bold(true).MarginTop(1).MarginBottom(1),

		Success: lipgloss.NewStyle().Foreground(colors.Green).Bold(true),
		Error:   lipgloss.NewStyle().Foreground(colors.Red).Bold(true),
		Warning: lipgloss.NewStyle().Foreground(colors.Yellow).Bold(true),
		Info:    lipgloss.NewStyle().Foreground(colors.Cyan).Bold(true),

		Muted:  lipgloss.NewStyle().Faint(true),
		Italic: lipgloss.NewStyle().Italic(true),

		TableHeader: lipgloss.NewStyle().
			Bold(true).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(colors.Border),
		TableRow:           lipgloss.NewStyle(),
		UseAlternatingRows: !p.flatRows,

		Code: lipgloss.NewStyle().
			Background(colors.SubtleBackground).
			Foreground(colors.LightText).
			Padding(0, 1).
			MarginLeft(2),

		DiffAdd:    lipgloss.NewStyle().Foreground(colors.Green),
		DiffDelete: lipgloss.NewStyle().Foreground(colors.Red),
		DiffMeta:   lipgloss.NewStyle().Foreground(colors.Cyan).Bold(true),

		Highlight: lipgloss.NewStyle().Foreground(colors.Orange).Bold(true),
		Accent:    lipgloss.NewStyle().Foreground(colors.Violet).Bold(true),
	}
}

func resolveColors(p palette) Colors {
	return Colors{
		Green:                p.green.resolve(),
		Yellow:               p.yellow.resolve(),
		Red:                  p.red.resolve(),
		Orange:               p.orange.resolve(),
		Cyan:                 p.cyan.resolve(),
		Blue:                 p.blue.resolve(),
		Violet:               p.violet.resolve(),
		Pink:                 p.pink.resolve(),
		LightText:            p.lightText.resolve(),
		MutedText:            p.mutedText.resolve(),
		DarkText:             p.darkText.resolve(),
		Border:               p.border.resolve(),
		SelectedBackground:   p.selectedBg.resolve(),
		SubtleBackground:     p.subtleBg.resolve(),
		VerySubtleBackground: p.verySubtleBg.resolve(),
	}
}

// activePalette resolves the theme selection: SERIEM_THEME wins, then the
// tui.theme key of seriem.yml, then the default. Unknown names fall back to
// the default rather than erroring in a cosmetic path.
func activePalette() palette {
	name := normalizeName(os.Getenv("SERIEM_THEME"))
	if name == "" {
		name = configuredName()
	}
	if alias, ok := paletteAliases[name]; ok {
		name = alias
	}
	if p, ok := palettes[name]; ok {
		return p
	}
	return palettes[defaultThemeName]
}

func configuredName() string {
	cfg, err := config.LoadDefault()
	if err != nil || cfg == nil {
		return ""
	}
	var tui struct {
		Theme string `yaml:"theme"`
	}
	if err := cfg.UnmarshalExtension("tui", &tui); err != nil {
		return ""
	}
	return normalizeName(tui.Theme)
}

func normalizeName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	name = strings.ReplaceAll(name, " ", "-")
	return strings.ReplaceAll(name, "_", "-")
}
