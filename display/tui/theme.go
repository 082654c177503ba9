package tui

import "github.com/charmbracelet/lipgloss"

// Color palette for the dashboard theme.
const (
	colorPrimary  = lipgloss.Color("#06B6D4") // Cyan
	colorUpload   = lipgloss.Color("#22C55E") // Green
	colorDownload = lipgloss.Color("#3B82F6") // Blue
	colorMemory   = lipgloss.Color("#EAB308") // Yellow
	colorDanger   = lipgloss.Color("#EF4444") // Red
	colorMuted    = lipgloss.Color("#6B7280") // Gray
)

// Styles used throughout the TUI.
var (
	styleActiveTab   lipgloss.Style
	styleInactiveTab lipgloss.Style
	styleHeader      lipgloss.Style
	styleFooter      lipgloss.Style
	styleContent     lipgloss.Style
	styleTitle       lipgloss.Style
	styleLabel       lipgloss.Style
	styleValue       lipgloss.Style
	stylePausedBadge lipgloss.Style
)

func init() {
	styleActiveTab = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#FFFFFF")).
		Background(colorPrimary).
		Padding(0, 2)

	styleInactiveTab = lipgloss.NewStyle().
		Foreground(colorMuted).
		Padding(0, 2)

	styleHeader = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		BorderForeground(colorMuted).
		Padding(0, 1)

	styleFooter = lipgloss.NewStyle().
		Foreground(colorMuted).
		Padding(0, 1)

	styleContent = lipgloss.NewStyle().
		Padding(1, 2)

	styleTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(colorPrimary)

	styleLabel = lipgloss.NewStyle().
		Foreground(colorMuted)

	styleValue = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#FFFFFF"))

	stylePausedBadge = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#FFFFFF")).
		Background(colorDanger).
		Padding(0, 1)
}
