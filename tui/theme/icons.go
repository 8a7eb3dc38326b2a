package theme

import (
	"os"

	"github.com/janschaeferjohann/seriem-agent/config"
)

// iconSet is one complete set of glyphs for the TUI and CLI renderers.
type iconSet struct {
	Success, Error, Warning, Info      string
	Arrow, Bullet, Tool, Proposal      string
	FileCreate, FileUpdate, FileDelete string
}

var nerdIcons = iconSet{
	Success:    "󰄬", // md-check
	Error:      "", // cod-error
	Warning:    "", // fa-warning
	Info:       "󰋼", // md-information
	Arrow:      "󰁔", // md-arrow_right
	Bullet:     "", // oct-dot_fill
	Tool:       "", // fa-wrench
	Proposal:   "", // oct-git_pull_request
	FileCreate: "", // oct-diff_added
	FileUpdate: "", // oct-diff_modified
	FileDelete: "", // oct-diff_removed
}

var asciiIcons = iconSet{
	Success:    "✓",
	Error:      "✗",
	Warning:    "⚠",
	Info:       "ℹ",
	Arrow:      "→",
	Bullet:     "•",
	Tool:       "⚙",
	Proposal:   "±",
	FileCreate: "+",
	FileUpdate: "~",
	FileDelete: "-",
}

// The icons in use, chosen once at startup. SERIEM_ICONS=ascii or
// tui.icons: ascii selects the plain set for terminals without a Nerd Font.
var (
	IconSuccess    string
	IconError      string
	IconWarning    string
	IconInfo       string
	IconArrow      string
	IconBullet     string
	IconTool       string
	IconProposal   string
	IconFileCreate string
	IconFileUpdate string
	IconFileDelete string
)

func init() {
	set := nerdIcons
	if asciiRequested() {
		set = asciiIcons
	}
	IconSuccess = set.Success
	IconError = set.Error
	IconWarning = set.Warning
	IconInfo = set.Info
	IconArrow = set.Arrow
	IconBullet = set.Bullet
	IconTool = set.Tool
	IconProposal = set.Proposal
	IconFileCreate = set.FileCreate
	IconFileUpdate = set.FileUpdate
	IconFileDelete = set.FileDelete
}

func asciiRequested() bool {
	if os.Getenv("SERIEM_ICONS") == "ascii" {
		return true
	}
	cfg, err := config.LoadDefault()
	if err != nil || cfg == nil {
		return false
	}
	var tui struct {
		Icons string `yaml:"icons"`
	}
	if err := cfg.UnmarshalExtension("tui", &tui); err != nil {
		return false
	}
	return tui.Icons == "ascii"
}
