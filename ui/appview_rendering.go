package ui

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	markdown "github.com/MichaelMure/go-term-markdown"
	tea "github.com/charmbracelet/bubbletea"
	gomarkdown "github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/parser"

	"stockchat/config"
)

var (
	inlineCodeRegex = regexp.MustCompile(`(?s)\x1b\[44;3m(.*?)\x1b\[0m`)
	mdLinkRegex     = regexp.MustCompile(`\[([^\]]+)\]\((https?://[^\)]+)\)`)
	urlRegex        = regexp.MustCompile(`(https?://[^\s]+)`)
)

func (a *AppView) updateViewportContent(gotoBottom bool) {
	if len(a.entries) == 0 {
		a.viewport.SetContent(DimStyle.Render("No messages yet. Ask for a price, an indicator or a chart."))
		return
	}

	var content strings.Builder

	for _, e := range a.entries {
		timestamp := DimStyle.Render(e.Timestamp.Format("[15:04]"))

		switch e.Kind {
		case entryUser:
			content.WriteString(formatUserMessage(timestamp, UserStyle.Render("You"), e.Rendered))
		case entryAssistant:
			content.WriteString(fmt.Sprintf("%s %s\n%s\n\n", timestamp, AssistantStyle.Render("Assistant"), e.Rendered))
		case entryArtifact:
			content.WriteString(fmt.Sprintf("%s %s %s\n%s\n\n", timestamp, ChartStyle.Render("Chart"), DimStyle.Render(e.Path), e.Rendered))
		default:
			content.WriteString(fmt.Sprintf("%s %s\n%s\n\n", timestamp, DimStyle.Render("System"), e.Rendered))
		}
	}

	if a.dataModel.Busy {
		content.WriteString(fmt.Sprintf("%s %s\n%s Thinking...\n\n",
			DimStyle.Render(time.Now().Format("[15:04]")), AssistantStyle.Render("Assistant"), a.spinner.View()))
	}

	a.viewport.SetContent(content.String())
	if gotoBottom {
		a.viewport.GotoBottom()
	}
}

func formatUserMessage(timestamp, role, content string) string {
	bar := "\x1b[32;1m┃\x1b[0m"

	var result strings.Builder
	result.WriteString(fmt.Sprintf("%s %s %s\n", bar, timestamp, role))
	for _, line := range strings.Split(content, "\n") {
		result.WriteString(fmt.Sprintf("%s %s\n", bar, line))
	}
	result.WriteString("\n")

	return result.String()
}

func postProcessMarkdown(rendered string, width int) string {
	rendered = fixInlineCode(rendered)
	rendered = colorURLs(rendered)
	return frameCodeBlocks(rendered, width)
}

// preprocessLinks turns [text](url) into a bare url so every link is colored
// the same way.
func preprocessLinks(content string) string {
	return mdLinkRegex.ReplaceAllString(content, "$2")
}

// fixInlineCode swaps go-term-markdown's blue background for red text.
func fixInlineCode(s string) string {
	return inlineCodeRegex.ReplaceAllString(s, "\x1b[31m$1\x1b[0m")
}

func colorURLs(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		// code block lines carry the ┃ gutter
		if !strings.Contains(line, "┃") {
			lines[i] = urlRegex.ReplaceAllString(line, "\x1b[31m$1\x1b[0m")
		}
	}
	return strings.Join(lines, "\n")
}

func frameCodeBlocks(s string, width int) string {
	const (
		darkGray = "\x1b[90m"
		reset    = "\x1b[0m"
		label    = "[code]"
	)
	lineLen := max(width-4, len(label))
	bottom := darkGray + strings.Repeat("━", lineLen) + reset

	var (
		result    []string
		block     []string
		inBlock   bool
		flushDown = func() {
			result = append(result, block...)
			result = append(result, "", bottom, "")
			block = nil
		}
	)

	for _, line := range strings.Split(s, "\n") {
		if strings.Contains(line, "┃") {
			if !inBlock {
				inBlock = true
				left := (lineLen - len(label)) / 2
				right := lineLen - len(label) - left
				top := darkGray + strings.Repeat("━", left) + reset + label + darkGray + strings.Repeat("━", right) + reset
				result = append(result, "", top, "")
			}
			block = append(block, stripCodeBlockPrefix(line))
			continue
		}
		if inBlock {
			flushDown()
			inBlock = false
		}
		result = append(result, line)
	}
	if inBlock && len(block) > 0 {
		flushDown()
	}

	return strings.Join(result, "\n")
}

func stripCodeBlockPrefix(line string) string {
	idx := strings.Index(line, "┃")
	if idx < 0 {
		return line
	}
	after := idx + len("┃")
	if after < len(line) && line[after] == ' ' {
		after++
	}
	return line[after:]
}

// renderMarkdownAsync renders content off the update loop. Chart entries
// arrive here as a markdown image, which go-term-markdown draws inline.
func (a AppView) renderMarkdownAsync(index int, content string) tea.Cmd {
	width := a.width
	return func() tea.Msg {
		start := time.Now()

		content = preprocessLinks(content)

		// Autolink off keeps bare URLs as plain text for the terminal to detect
		p := parser.NewWithExtensions(markdown.Extensions() &^ parser.Autolink)
		r := markdown.NewRenderer(max(width-4, 20), 0)
		rendered := gomarkdown.Render(p.Parse([]byte(content)), r)

		processed := strings.TrimRight(postProcessMarkdown(string(rendered), width), "\n")

		if config.DebugLog != nil {
			config.DebugLog.Printf("[UI] Markdown entry %d (%d chars) rendered in %v", index, len(content), time.Since(start))
		}

		return markdownRenderedMsg{MessageIndex: index, Rendered: processed}
	}
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}
