package ui

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"stockchat/config"
	"stockchat/dispatch"
	"stockchat/storage"
)

const flashDuration = 3 * time.Second

func (a AppView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height

		// title, separator, textarea (3) and status bar
		a.viewport.Width = a.width
		a.viewport.Height = max(a.height-6, 1)
		a.textarea.SetWidth(a.width)

		a.ready = true

		// Widths changed, so every rendered block is stale
		for i, e := range a.entries {
			if e.Kind == entryAssistant || e.Kind == entryArtifact {
				cmds = append(cmds, a.renderEntryAsync(i))
			}
		}
		a.updateViewportContent(true)
		return a, tea.Batch(cmds...)

	case spinner.TickMsg:
		if !a.dataModel.Busy {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		a.updateViewportContent(true)
		return a, cmd

	case dispatchDoneMsg:
		return a.handleDispatchDone(msg)

	case markdownRenderedMsg:
		if msg.MessageIndex >= 0 && msg.MessageIndex < len(a.entries) {
			a.entries[msg.MessageIndex].Rendered = msg.Rendered
			a.updateViewportContent(msg.MessageIndex == len(a.entries)-1)
		}
		return a, nil

	case transcriptExportedMsg:
		var cmd tea.Cmd
		if msg.Err != nil {
			cmd = a.setFlash("Export failed: "+msg.Err.Error(), true)
		} else {
			cmd = a.setFlash("Transcript saved to "+msg.Path, false)
		}
		return a, cmd

	case clipboardCopiedMsg:
		var cmd tea.Cmd
		if msg.Err != nil {
			cmd = a.setFlash("Copy failed: "+msg.Err.Error(), true)
		} else {
			cmd = a.setFlash("Copied last reply", false)
		}
		return a, cmd

	case flashTickMsg:
		if msg.Seq == a.flashSeq {
			a.flash = ""
			a.flashError = false
		}
		return a, nil

	case tea.KeyMsg:
		if model, cmd, handled := a.handleKey(msg); handled {
			return model, cmd
		}
	}

	var cmd tea.Cmd
	a.textarea, cmd = a.textarea.Update(msg)
	cmds = append(cmds, cmd)
	a.viewport, cmd = a.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return a, tea.Batch(cmds...)
}

func (a AppView) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	switch {
	case key.Matches(msg, a.keys.Quit):
		if config.DebugLog != nil {
			config.DebugLog.Printf("[UI] Quit requested")
		}
		a.dataModel.Quitting = true
		return a, tea.Quit, true

	case key.Matches(msg, a.keys.Help):
		a.showHelp = !a.showHelp
		return a, nil, true

	case a.showHelp:
		// Keys are swallowed while help is open
		if msg.String() == "esc" || msg.String() == "enter" {
			a.showHelp = false
		}
		return a, nil, true

	case key.Matches(msg, a.keys.Send):
		model, cmd := a.submit()
		return model, cmd, true

	case key.Matches(msg, a.keys.Export):
		if len(a.entries) == 0 {
			cmd := a.setFlash("Nothing to export yet", true)
			return a, cmd, true
		}
		return a, a.exportTranscript(), true

	case key.Matches(msg, a.keys.CopyLast):
		content, ok := a.lastReply()
		if !ok {
			cmd := a.setFlash("No reply to copy yet", true)
			return a, cmd, true
		}
		return a, copyToClipboard(content), true

	case key.Matches(msg, a.keys.HalfPageUp):
		a.viewport.HalfPageUp()
		return a, nil, true

	case key.Matches(msg, a.keys.HalfPageDown):
		a.viewport.HalfPageDown()
		return a, nil, true

	case key.Matches(msg, a.keys.PageUp):
		a.viewport.PageUp()
		return a, nil, true

	case key.Matches(msg, a.keys.PageDown):
		a.viewport.PageDown()
		return a, nil, true
	}
	return a, nil, false
}

// submit hands the input to the dispatcher. Only one interaction runs at a
// time; Enter is ignored while Busy.
func (a AppView) submit() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(a.textarea.Value())
	if text == "" || a.dataModel.Busy {
		return a, nil
	}

	a.textarea.Reset()
	a.entries = append(a.entries, entry{
		Kind:      entryUser,
		Content:   text,
		Rendered:  text,
		Timestamp: time.Now(),
	})
	a.dataModel.Busy = true
	a.flash = ""
	a.updateViewportContent(true)

	if config.DebugLog != nil {
		config.DebugLog.Printf("[UI] Submit: %d chars", len(text))
	}

	return a, tea.Batch(a.dispatchCmd(text), a.spinner.Tick)
}

func (a AppView) dispatchCmd(text string) tea.Cmd {
	d := a.dispatcher
	return func() tea.Msg {
		start := time.Now()
		res := d.Handle(context.Background(), text)
		return dispatchDoneMsg{Result: res, Elapsed: time.Since(start)}
	}
}

func (a AppView) handleDispatchDone(msg dispatchDoneMsg) (tea.Model, tea.Cmd) {
	a.dataModel.Busy = false
	a.lastTook = msg.Elapsed

	res := msg.Result
	now := time.Now()
	var cmd tea.Cmd

	switch res.Kind {
	case dispatch.Text:
		a.entries = append(a.entries, entry{Kind: entryAssistant, Content: res.Text, Rendered: res.Text, Timestamp: now})
		cmd = a.renderEntryAsync(len(a.entries) - 1)

	case dispatch.Artifact:
		a.entries = append(a.entries, entry{Kind: entryArtifact, Path: res.Path, Rendered: res.Path, Timestamp: now})
		cmd = a.renderEntryAsync(len(a.entries) - 1)

	default:
		text := "❌ unknown failure"
		if res.Err != nil {
			text = "❌ " + res.Err.Error()
		}
		a.entries = append(a.entries, entry{Kind: entrySystem, Content: text, Rendered: ErrorStyle.Render(text), Timestamp: now})
	}

	a.updateViewportContent(true)
	return a, cmd
}

func (a AppView) renderEntryAsync(idx int) tea.Cmd {
	e := a.entries[idx]
	if e.Kind == entryArtifact {
		return a.renderMarkdownAsync(idx, "![chart]("+e.Path+")")
	}
	return a.renderMarkdownAsync(idx, e.Content)
}

func (a AppView) lastReply() (string, bool) {
	for i := len(a.entries) - 1; i >= 0; i-- {
		switch a.entries[i].Kind {
		case entryAssistant:
			return a.entries[i].Content, true
		case entryArtifact:
			return a.entries[i].Path, true
		}
	}
	return "", false
}

func (a *AppView) setFlash(text string, isError bool) tea.Cmd {
	a.flash = text
	a.flashError = isError
	a.flashSeq++
	seq := a.flashSeq
	return tea.Tick(flashDuration, func(time.Time) tea.Msg {
		return flashTickMsg{Seq: seq}
	})
}

func copyToClipboard(content string) tea.Cmd {
	return func() tea.Msg {
		return clipboardCopiedMsg{Err: clipboard.WriteAll(content)}
	}
}

// exportTranscript snapshots the on-screen entries and writes them off the
// update loop.
func (a AppView) exportTranscript() tea.Cmd {
	t := a.transcript()
	path := storage.GenerateExportPath(filepath.Join(a.dataModel.Config.DataDir(), "exports"), t.Name)

	return func() tea.Msg {
		err := storage.ExportTranscript(t, path)
		if config.DebugLog != nil {
			config.DebugLog.Printf("[UI] Export to %s: err=%v", path, err)
		}
		return transcriptExportedMsg{Path: path, Err: err}
	}
}

func (a AppView) transcript() *storage.Transcript {
	t := &storage.Transcript{
		ID:       a.dataModel.SessionID,
		Provider: a.dataModel.Config.Provider,
		Model:    a.dataModel.Provider.GetModel(),
		Entries:  make([]storage.TranscriptEntry, 0, len(a.entries)),
	}

	for _, e := range a.entries {
		if t.StartedAt.IsZero() {
			t.StartedAt = e.Timestamp
		}
		if t.Name == "" && e.Kind == entryUser {
			t.Name = storage.GenerateSessionName(e.Content)
		}
		t.Entries = append(t.Entries, storage.TranscriptEntry{
			Role:         e.role(),
			Content:      e.Content,
			ArtifactPath: e.Path,
			Timestamp:    e.Timestamp,
		})
	}
	return t
}
