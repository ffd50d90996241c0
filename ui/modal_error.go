package ui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ErrorModal shows a fatal startup problem (no API key, unreadable settings)
// before the chat view exists. Enter or Ctrl+C quits.
type ErrorModal struct {
	title   string
	message string
	width   int
	height  int
}

func NewErrorModal(title, message string) ErrorModal {
	return ErrorModal{title: title, message: message}
}

func (m ErrorModal) Init() tea.Cmd {
	return nil
}

func (m ErrorModal) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case tea.KeyMsg:
		switch msg.String() {
		case "enter", "ctrl+c", "esc":
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m ErrorModal) View() string {
	if m.width < 20 || m.height < 10 {
		return m.title + "\n\n" + m.message + "\n\nPress Enter to quit"
	}

	modalWidth := min(60, m.width-10)

	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(dangerColor).
		Align(lipgloss.Center).
		Width(modalWidth).
		Render("❌ " + m.title)

	section := lipgloss.NewStyle().
		Width(modalWidth).
		BorderTop(true).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(dimColor)

	lines := []string{""}
	for _, line := range strings.Split(m.message, "\n") {
		lines = append(lines, lipgloss.NewStyle().Width(modalWidth).Align(lipgloss.Center).Render(line))
	}
	lines = append(lines, "")

	body := section.Render(strings.Join(lines, "\n"))
	footer := section.Foreground(dimColor).Align(lipgloss.Center).Render("Press Enter to quit")

	content := lipgloss.JoinVertical(lipgloss.Left, title, body, footer)
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
}
