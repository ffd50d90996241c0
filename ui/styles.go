package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	dimColor     = lipgloss.Color("7")
	accentColor  = lipgloss.Color("12")
	successColor = lipgloss.Color("10")
	warningColor = lipgloss.Color("11")
	dangerColor  = lipgloss.Color("9")

	// No backgrounds anywhere so the terminal theme shows through
	UserStyle = lipgloss.NewStyle().
			Foreground(successColor).
			Bold(true)

	AssistantStyle = lipgloss.NewStyle().
			Foreground(accentColor)

	DimStyle = lipgloss.NewStyle().
			Foreground(dimColor)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(dangerColor)

	ChartStyle = lipgloss.NewStyle().
			Foreground(warningColor).
			Bold(true)

	TitleStyle = lipgloss.NewStyle().
			Bold(true)

	StatusStyle = lipgloss.NewStyle().
			Foreground(dimColor)
)

// FormatFooter joins alternating keys and descriptions, rendering the
// descriptions in descColor.
// FormatFooter(successColor, "Enter", "Send", "Ctrl+C", "Quit") gives
// "Enter Send  Ctrl+C Quit".
func FormatFooter(descColor lipgloss.Color, parts ...string) string {
	descStyle := lipgloss.NewStyle().Foreground(descColor).Bold(true)
	var result []string
	for i := 0; i+1 < len(parts); i += 2 {
		result = append(result, parts[i]+" "+descStyle.Render(parts[i+1]))
	}
	return strings.Join(result, "  ")
}
