package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/bamsammich/rsniff/internal/config"
)

// Catppuccin Mocha palette, mutable so config can override.
var (
	ColorHeading = lipgloss.Color("#cba6f7")
	ColorPath    = lipgloss.Color("#89b4fa")
	ColorCommand = lipgloss.Color("#a6e3a1")
	ColorMuted   = lipgloss.Color("#5a6278")
	ColorWarn    = lipgloss.Color("#f9e2af")
)

// Pre-built styles, rebuilt by rebuildStyles() after color changes.
var (
	styleHeading lipgloss.Style
	styleRole    lipgloss.Style
	stylePath    lipgloss.Style
	styleCommand lipgloss.Style
	styleMuted   lipgloss.Style
	styleWarn    lipgloss.Style
)

func init() {
	rebuildStyles()
}

func rebuildStyles() {
	styleHeading = lipgloss.NewStyle().Bold(true).Foreground(ColorHeading)
	styleRole = lipgloss.NewStyle().Foreground(ColorHeading)
	stylePath = lipgloss.NewStyle().Foreground(ColorPath)
	styleCommand = lipgloss.NewStyle().Foreground(ColorCommand)
	styleMuted = lipgloss.NewStyle().Foreground(ColorMuted)
	styleWarn = lipgloss.NewStyle().Foreground(ColorWarn).Italic(true)
}

// ApplyTheme overrides palette colors from the config file.
func ApplyTheme(tc config.ThemeConfig) {
	if tc.Heading != nil {
		ColorHeading = lipgloss.Color(*tc.Heading)
	}
	if tc.Path != nil {
		ColorPath = lipgloss.Color(*tc.Path)
	}
	if tc.Command != nil {
		ColorCommand = lipgloss.Color(*tc.Command)
	}
	if tc.Muted != nil {
		ColorMuted = lipgloss.Color(*tc.Muted)
	}
	if tc.Warn != nil {
		ColorWarn = lipgloss.Color(*tc.Warn)
	}
	rebuildStyles()
}
