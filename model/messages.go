package model

type MarkdownRenderedMsg struct {
	MessageIndex int
	Rendered     string
}

type TranscriptExportedMsg struct {
	Path string
	Err  error
}

type ClipboardCopiedMsg struct {
	Err error
}

// FlashTickMsg expires the status flash with the matching Seq.
type FlashTickMsg struct {
	Seq int
}
