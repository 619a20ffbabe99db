package chat

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const (
	colorRed    = "1"
	colorGreen  = "2"
	colorYellow = "3"
	colorCyan   = "14"
	colorBlue   = "12"
)

var (
	bannerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorBlue)).
			Bold(true)

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorCyan)).
			Bold(true)

	replyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorYellow)).
			Underline(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorRed))

	ruleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorGreen))
)

// rule is a horizontal line across width columns.
func rule(width int) string {
	if width <= 0 {
		width = 80
	}
	return ruleStyle.Render(strings.Repeat("─", width))
}
