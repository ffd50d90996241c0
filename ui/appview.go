package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"stockchat/dispatch"
	appmodel "stockchat/model"
)

const appTitle = "Stock Analysis Chatbot"

// Dispatcher runs one interaction to completion. *dispatch.Dispatcher
// satisfies it.
type Dispatcher interface {
	Handle(ctx context.Context, userText string) dispatch.Result
}

type keyMap struct {
	Send         key.Binding
	Quit         key.Binding
	Help         key.Binding
	Export       key.Binding
	CopyLast     key.Binding
	HalfPageUp   key.Binding
	HalfPageDown key.Binding
	PageUp       key.Binding
	PageDown     key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Send:         key.NewBinding(key.WithKeys("enter"), key.WithHelp("Enter", "Send")),
		Quit:         key.NewBinding(key.WithKeys("ctrl+c", "alt+q"), key.WithHelp("Alt+Q", "Quit")),
		Help:         key.NewBinding(key.WithKeys("alt+h", "f1"), key.WithHelp("Alt+H", "Help")),
		Export:       key.NewBinding(key.WithKeys("ctrl+e", "alt+e"), key.WithHelp("Ctrl+E", "Export")),
		CopyLast:     key.NewBinding(key.WithKeys("ctrl+y", "alt+y"), key.WithHelp("Ctrl+Y", "Copy reply")),
		HalfPageUp:   key.NewBinding(key.WithKeys("alt+k", "alt+up"), key.WithHelp("Alt+K", "Half page up")),
		HalfPageDown: key.NewBinding(key.WithKeys("alt+j", "alt+down"), key.WithHelp("Alt+J", "Half page down")),
		PageUp:       key.NewBinding(key.WithKeys("pgup"), key.WithHelp("PgUp", "Page up")),
		PageDown:     key.NewBinding(key.WithKeys("pgdown"), key.WithHelp("PgDn", "Page down")),
	}
}

type AppView struct {
	dataModel  *appmodel.Model
	dispatcher Dispatcher
	keys       keyMap

	viewport viewport.Model
	textarea textarea.Model
	spinner  spinner.Model

	width  int
	height int
	ready  bool

	showHelp bool

	// entries is what the user sees; failed turns stay on screen even though
	// the dispatcher drops them from the conversation.
	entries []entry

	flash      string
	flashError bool
	flashSeq   int
	lastTook   time.Duration
}

func NewAppView(dataModel *appmodel.Model, d Dispatcher) AppView {
	ta := textarea.New()
	ta.Placeholder = "Ask about a stock, e.g. \"What is the 20 day SMA of AAPL?\""
	ta.Focus()
	ta.CharLimit = 0
	ta.ShowLineNumbers = false
	ta.SetHeight(3)
	ta.SetWidth(80)
	ta.KeyMap.InsertNewline = key.NewBinding(key.WithKeys("alt+enter"))
	ta.SetPromptFunc(2, func(lineIdx int) string {
		if lineIdx == 0 {
			return "> "
		}
		return "| "
	})

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(accentColor)

	return AppView{
		dataModel:  dataModel,
		dispatcher: d,
		keys:       defaultKeyMap(),
		viewport:   viewport.New(0, 0),
		textarea:   ta,
		spinner:    sp,
	}
}

func (a AppView) Init() tea.Cmd {
	return textarea.Blink
}

func (a AppView) View() string {
	if !a.ready {
		return "Loading " + appTitle + "..."
	}

	if a.showHelp {
		return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, a.renderHelpModal())
	}

	title := TitleStyle.Render(appTitle) + " " + DimStyle.Render(fmt.Sprintf("(%s · %s)",
		a.dataModel.Provider.GetDisplayName(), a.dataModel.Provider.GetModel()))
	separator := DimStyle.Render(strings.Repeat("─", max(a.width, 1)))

	return lipgloss.JoinVertical(lipgloss.Left,
		title,
		separator,
		a.viewport.View(),
		a.textarea.View(),
		a.statusBar(),
	)
}

// statusBar shows the spinner or the latest flash on the left and the key
// hints on the right, truncated to the window width.
func (a AppView) statusBar() string {
	footer := FormatFooter(successColor,
		a.keys.Send.Help().Key, a.keys.Send.Help().Desc,
		a.keys.Help.Help().Key, a.keys.Help.Help().Desc,
		a.keys.Quit.Help().Key, a.keys.Quit.Help().Desc,
	)
	footerWidth := lipgloss.Width(footer)

	var left string
	switch {
	case a.dataModel.Busy:
		left = "Thinking..."
	case a.flash != "":
		left = a.flash
	case a.lastTook > 0:
		left = fmt.Sprintf("Last reply in %s", formatDuration(a.lastTook))
	default:
		left = fmt.Sprintf("Session %s", shortID(a.dataModel.SessionID))
	}

	room := a.width - footerWidth - 2
	if a.dataModel.Busy {
		room -= lipgloss.Width(a.spinner.View()) + 1
	}
	if room < 0 {
		room = 0
	}
	left = runewidth.Truncate(left, room, "…")

	style := StatusStyle
	if a.flashError && a.flash != "" && !a.dataModel.Busy {
		style = ErrorStyle
	}
	rendered := style.Render(left)
	if a.dataModel.Busy {
		rendered = a.spinner.View() + " " + rendered
	}

	gap := a.width - lipgloss.Width(rendered) - footerWidth
	if gap < 1 {
		return rendered
	}
	return rendered + strings.Repeat(" ", gap) + footer
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
