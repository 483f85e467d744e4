package render

import "github.com/charmbracelet/lipgloss"

// Preference palette.
var (
	colorMustHave   = lipgloss.Color("#00E676") // Green
	colorLikeToHave = lipgloss.Color("#5B8DEF") // Blue
	colorMaybe      = lipgloss.Color("#FFD700") // Gold
	colorOffLimits  = lipgloss.Color("#FF5252") // Red
	colorMuted      = lipgloss.Color("#636363") // Gray, unset cells and borders
	colorPrimary    = lipgloss.Color("#00BFFF") // Cyan, titles
)

// Placeholder shown for a preference that was never recorded.
const unsetMark = "·"

// Marker appended to rows where one menu says must-have and another off-limits.
const conflictMark = " ⚠"

var (
	styleTitle = lipgloss.NewStyle().
			Foreground(colorPrimary).
			Bold(true)

	styleHeader = lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1)

	styleCell = lipgloss.NewStyle().
			Padding(0, 1)

	styleBorder = lipgloss.NewStyle().
			Foreground(colorMuted)

	styleSummary = lipgloss.NewStyle().
			Foreground(colorMuted).
			Italic(true)
)
