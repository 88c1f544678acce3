package theme

import "github.com/charmbracelet/lipgloss"

// Light is built on Catppuccin Latte
// https://github.com/catppuccin/catppuccin
var Light = Theme{
	Name: "light",

	Background: lipgloss.Color("#EFF1F5"), // Base
	Foreground: lipgloss.Color("#4C4F69"), // Text
	Subtle:     lipgloss.Color("#8C8FA1"), // Overlay1
	Highlight:  lipgloss.Color("#CCD0DA"), // Surface0
	Border:     lipgloss.Color("#9CA0B0"), // Overlay0

	Primary:   lipgloss.Color("#1E66F5"), // Blue
	Secondary: lipgloss.Color("#8839EF"), // Mauve
	Info:      lipgloss.Color("#209FB5"), // Sapphire

	Success: lipgloss.Color("#40A02B"), // Green
	Warning: lipgloss.Color("#DF8E1D"), // Yellow
	Error:   lipgloss.Color("#D20F39"), // Red

	TodoPending: lipgloss.Color("#FE640B"), // Peach
	TodoDone:    lipgloss.Color("#40A02B"),
}
