package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/jkindrix/claude-snatch/internal/model"
	"github.com/jkindrix/claude-snatch/internal/reconstruct"
	"github.com/mattn/go-runewidth"
)

const textWrapColumn = 100

type PlainText struct{}

func (PlainText) Name() string { return "text" }

func (PlainText) Export(w io.Writer, conv *reconstruct.Conversation, opts Options) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Session %s\n%s\n\n", conv.SessionID, strings.Repeat("=", len("Session ")+len(conv.SessionID)))
	for _, branch := range branchesFor(conv, opts) {
		if branch.RelationType != reconstruct.RelMain {
			fmt.Fprintf(&b, "-- branch %s (%s) --\n\n", branch.ID, branch.RelationType)
		}
		for _, e := range branch.Entries {
			writeTextEntry(&b, e, opts)
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func writeTextEntry(b *strings.Builder, e model.Entry, opts Options) {
	role := "user"
	var blocks []model.ContentBlock
	switch v := e.(type) {
	case *model.UserEntry:
		blocks = v.Message.Content
	case *model.AssistantEntry:
		role = "assistant"
		blocks = v.Message.Content
	case *model.SystemEntry:
		if !opts.IncludeSystem || v.Content == "" {
			return
		}
		fmt.Fprintf(b, "[system]\n%s\n\n", wrapText(v.Content, wrapColumn(opts)))
		return
	default:
		return
	}
	blocks = filterBlocks(blocks, opts)
	if opts.Redact != nil {
		blocks = redactBlocks(blocks, opts)
	}
	text := renderBlocks(blocks)
	if strings.TrimSpace(text) == "" {
		return
	}
	fmt.Fprintf(b, "[%s]\n%s\n\n", role, wrapText(text, wrapColumn(opts)))
}

func wrapColumn(opts Options) int {
	if opts.LineWidth > 0 {
		return opts.LineWidth
	}
	return textWrapColumn
}

// wrapText wraps s to a display-column width, accounting for
// double-width runes so CJK and emoji text doesn't overflow the
// intended column.
func wrapText(s string, col int) string {
	var out strings.Builder
	for _, line := range strings.Split(s, "\n") {
		out.WriteString(wrapLine(line, col))
		out.WriteString("\n")
	}
	return strings.TrimSuffix(out.String(), "\n")
}

func wrapLine(line string, col int) string {
	if runewidth.StringWidth(line) <= col {
		return line
	}
	var b strings.Builder
	width := 0
	words := strings.Fields(line)
	for i, word := range words {
		ww := runewidth.StringWidth(word)
		if width > 0 && width+1+ww > col {
			b.WriteString("\n")
			width = 0
		} else if i > 0 {
			b.WriteString(" ")
			width++
		}
		b.WriteString(word)
		width += ww
	}
	return b.String()
}
