package ui

import (
	"time"

	"stockchat/dispatch"
	appmodel "stockchat/model"
)

type markdownRenderedMsg = appmodel.MarkdownRenderedMsg
type transcriptExportedMsg = appmodel.TranscriptExportedMsg
type clipboardCopiedMsg = appmodel.ClipboardCopiedMsg
type flashTickMsg = appmodel.FlashTickMsg

// dispatchDoneMsg carries the result of one interaction back to Update.
type dispatchDoneMsg struct {
	Result  dispatch.Result
	Elapsed time.Duration
}

type entryKind int

const (
	entryUser entryKind = iota
	entryAssistant
	entryArtifact
	entrySystem
)

// entry is one block of the on-screen transcript. The transcript is kept
// apart from the conversation the dispatcher replays.
type entry struct {
	Kind      entryKind
	Content   string
	Path      string
	Rendered  string
	Timestamp time.Time
}

func (e entry) role() string {
	switch e.Kind {
	case entryUser:
		return appmodel.RoleUser
	case entryAssistant:
		return appmodel.RoleAssistant
	case entryArtifact:
		return "artifact"
	default:
		return appmodel.RoleSystem
	}
}
