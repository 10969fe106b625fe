package theme

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/taskkeeper/internal/model"
)

// Adaptive color pairs. Which half is used follows the terminal background
// unless Apply pins it.
var (
	ColorBlue    = lipgloss.AdaptiveColor{Dark: "#5B9BD5", Light: "#007AFF"}
	ColorGreen   = lipgloss.AdaptiveColor{Dark: "#6BCB77", Light: "#34C759"}
	ColorYellow  = lipgloss.AdaptiveColor{Dark: "#FFD93D", Light: "#B7791F"}
	ColorRed     = lipgloss.AdaptiveColor{Dark: "#FF6B6B", Light: "#FF3B30"}
	ColorOrange  = lipgloss.AdaptiveColor{Dark: "#FFA94D", Light: "#FF9500"}
	ColorMagenta = lipgloss.AdaptiveColor{Dark: "#CC5DE8", Light: "#805AD5"}
	ColorGray    = lipgloss.AdaptiveColor{Dark: "#868E96", Light: "#8E8E93"}
	ColorWhite   = lipgloss.AdaptiveColor{Dark: "#F8F9FA", Light: "#1A202C"}
	ColorSubtle  = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#CBD5E0"}
	ColorBorder  = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#E2E8F0"}
)

// HeaderStyle is used for top-level section headers and the application title.
var HeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorWhite).
	Background(ColorBlue).
	Padding(0, 1)

// StatusBarStyle is used for the bottom status bar.
var StatusBarStyle = lipgloss.NewStyle().
	Foreground(ColorWhite).
	Background(ColorSubtle).
	Padding(0, 1)

// DetailPanelStyle wraps the detail view content area.
var DetailPanelStyle = lipgloss.NewStyle().
	Padding(1, 2).
	Border(lipgloss.RoundedBorder()).
	BorderForeground(ColorBorder)

// ListItemStyle is the base style for items in a list.
var ListItemStyle = lipgloss.NewStyle().
	PaddingLeft(2)

// SelectedItemStyle highlights the currently focused list item.
var SelectedItemStyle = lipgloss.NewStyle().
	PaddingLeft(1).
	Bold(true).
	Foreground(ColorBlue).
	Border(lipgloss.NormalBorder(), false, false, false, true).
	BorderForeground(ColorBlue)

// HelpStyle is used for keyboard shortcut hints and help text.
var HelpStyle = lipgloss.NewStyle().
	Foreground(ColorGray).
	Italic(true)

var (
	DimmedStyle  = lipgloss.NewStyle().Foreground(ColorGray).Strikethrough(true)
	OverdueStyle = lipgloss.NewStyle().Foreground(ColorRed).Bold(true)
	DueDateStyle = lipgloss.NewStyle().Foreground(ColorGray)
	LabelStyle   = lipgloss.NewStyle().Foreground(ColorGray).Width(12)
	StatusStyle  = lipgloss.NewStyle().Foreground(ColorYellow).Italic(true)
)

// PriorityStyle returns a color-coded style for the given priority.
func PriorityStyle(p model.Priority) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true)

	switch p {
	case model.PriorityHigh:
		return base.Foreground(ColorRed)
	case model.PriorityMedium:
		return base.Foreground(ColorOrange)
	case model.PriorityLow:
		return base.Foreground(ColorGreen)
	default:
		return base.Foreground(ColorGray)
	}
}

// PriorityLabel returns the short badge text for a priority.
func PriorityLabel(p model.Priority) string {
	switch p {
	case model.PriorityHigh:
		return "HIGH"
	case model.PriorityMedium:
		return "MED"
	case model.PriorityLow:
		return "LOW"
	default:
		return "?"
	}
}

// CategoryStyle renders a category badge in the category's own color.
// Colors that lipgloss cannot parse fall back to gray.
func CategoryStyle(color string) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true)
	if color == "" {
		return base.Foreground(ColorGray)
	}
	return base.Foreground(lipgloss.Color(color))
}

// Theme names accepted under display.theme.
const (
	ThemeDefault = "default"
	ThemeDark    = "dark"
	ThemeLight   = "light"
)

// Apply pins the palette named by display.theme. "default" and unknown
// names leave background detection to lipgloss.
func Apply(name string) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case ThemeDark:
		lipgloss.SetHasDarkBackground(true)
	case ThemeLight:
		lipgloss.SetHasDarkBackground(false)
	}
}
