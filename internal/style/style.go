// Package style provides the shared lipgloss palette used by the CLI
// commands and the SSH operator console.
package style

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Color palette - consistent across the application
var (
	ColorPrimary = lipgloss.Color("39")  // Bright blue
	ColorSuccess = lipgloss.Color("82")  // Green
	ColorWarning = lipgloss.Color("214") // Orange
	ColorError   = lipgloss.Color("196") // Red
	ColorInfo    = lipgloss.Color("86")  // Cyan

	ColorText   = lipgloss.Color("252") // Light gray
	ColorSubtle = lipgloss.Color("241") // Medium gray
	ColorMuted  = lipgloss.Color("238") // Dark gray
)

// Base styles
var (
	TextStyle = lipgloss.NewStyle().Foreground(ColorText)

	SubtleStyle = lipgloss.NewStyle().Foreground(ColorSubtle)

	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary).
			MarginBottom(1)

	SubheaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorText)

	SuccessStyle = lipgloss.NewStyle().Foreground(ColorSuccess)
	WarningStyle = lipgloss.NewStyle().Foreground(ColorWarning)
	ErrorStyle   = lipgloss.NewStyle().Foreground(ColorError)
	InfoStyle    = lipgloss.NewStyle().Foreground(ColorInfo)

	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorSubtle).
			Padding(1, 2)

	ListItemStyle = lipgloss.NewStyle().Foreground(ColorText)
)

// FormatAppHeader renders a titled, subtitled header followed by a
// separator rule.
func FormatAppHeader(title, subtitle string) string {
	header := HeaderStyle.Render(title)
	if subtitle != "" {
		header += " " + SubtleStyle.Render("("+subtitle+")")
	}
	return header + "\n" + CreateSeparator(50, "─")
}

// FormatStatus renders a connected/disconnected indicator next to status.
func FormatStatus(active bool, status string) string {
	indicator := ErrorStyle.Render("○")
	if active {
		indicator = SuccessStyle.Render("●")
	}
	return indicator + " " + status
}

// FormatListItem renders a bulleted list entry, highlighted when active.
func FormatListItem(item string, active bool) string {
	style := ListItemStyle
	if active {
		style = style.Copy().Foreground(ColorPrimary).Bold(true)
	}
	return "  • " + style.Render(item)
}

// FormatKeyValue renders a bold key followed by its value.
func FormatKeyValue(key string, value interface{}) string {
	return SubheaderStyle.Render(key+": ") + fmt.Sprintf("%v", value)
}

// CreateSeparator creates a horizontal rule of width characters.
func CreateSeparator(width int, char string) string {
	if width <= 0 {
		width = 50
	}
	if char == "" {
		char = "─"
	}
	return SubtleStyle.Render(strings.Repeat(char, width))
}
