package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
)

func helpLine(b key.Binding) string {
	return fmt.Sprintf("• %-13s %s", b.Help().Key, b.Help().Desc)
}

func (a AppView) renderHelpModal() string {
	green := lipgloss.NewStyle().Bold(true).Foreground(successColor)
	blue := lipgloss.NewStyle().Foreground(accentColor)

	title := green.Render(appTitle + " - Keyboard Shortcuts")

	chat := lipgloss.JoinVertical(lipgloss.Left,
		blue.Render("## Chat"),
		helpLine(a.keys.Send),
		"• Alt+Enter     New line",
		helpLine(a.keys.CopyLast),
		helpLine(a.keys.Export),
		helpLine(a.keys.Help),
		helpLine(a.keys.Quit),
	)

	navigation := lipgloss.JoinVertical(lipgloss.Left,
		blue.Render("## Scrolling"),
		helpLine(a.keys.HalfPageDown),
		helpLine(a.keys.HalfPageUp),
		helpLine(a.keys.PageDown),
		helpLine(a.keys.PageUp),
	)

	examples := lipgloss.JoinVertical(lipgloss.Left,
		blue.Render("## Try asking"),
		"• What is AAPL trading at?",
		"• 14 day RSI for MSFT",
		"• Plot the price of NVDA",
		"• Compare SMA and EMA for TSLA",
	)

	columnStyle := lipgloss.NewStyle().Width(38).PaddingLeft(4)
	columns := lipgloss.JoinHorizontal(lipgloss.Top,
		columnStyle.Render(lipgloss.JoinVertical(lipgloss.Left, chat, "", examples)),
		columnStyle.Render(navigation),
	)

	footer := DimStyle.Render("Esc or " + a.keys.Help.Help().Key + " to close")

	body := lipgloss.JoinVertical(lipgloss.Center, title, "", columns, "", footer)

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(accentColor).
		Padding(1, 2).
		Render(body)
}
