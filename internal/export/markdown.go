package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/jkindrix/claude-snatch/internal/model"
	"github.com/jkindrix/claude-snatch/internal/reconstruct"
)

type Markdown struct{}

func (Markdown) Name() string { return "markdown" }

func (Markdown) Export(w io.Writer, conv *reconstruct.Conversation, opts Options) error {
	var b strings.Builder
	fmt.Fprintf(&b, "# Session %s\n\n", conv.SessionID)
	for _, branch := range branchesFor(conv, opts) {
		if branch.RelationType != reconstruct.RelMain {
			fmt.Fprintf(&b, "## Branch %s (%s)\n\n", branch.ID, branch.RelationType)
		}
		for _, e := range branch.Entries {
			writeMarkdownEntry(&b, e, opts)
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func writeMarkdownEntry(b *strings.Builder, e model.Entry, opts Options) {
	role := "User"
	var blocks []model.ContentBlock
	switch v := e.(type) {
	case *model.UserEntry:
		blocks = v.Message.Content
	case *model.AssistantEntry:
		role = "Assistant"
		blocks = v.Message.Content
	case *model.SystemEntry:
		if !opts.IncludeSystem || v.Content == "" {
			return
		}
		writeMarkdownHeader(b, "System", e, opts)
		fmt.Fprintf(b, "%s\n\n", v.Content)
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
	writeMarkdownHeader(b, role, e, opts)
	fmt.Fprintf(b, "%s\n\n", text)
}

func writeMarkdownHeader(b *strings.Builder, role string, e model.Entry, opts Options) {
	if opts.IncludeTimestamps && !e.Common().Timestamp.IsZero() {
		fmt.Fprintf(b, "**%s** _(%s)_\n\n", role, e.Common().Timestamp.UTC().Format("2006-01-02T15:04:05Z"))
		return
	}
	fmt.Fprintf(b, "**%s**\n\n", role)
}

func renderBlocks(blocks []model.ContentBlock) string {
	var parts []string
	for _, blk := range blocks {
		if r := renderBlock(blk); r != "" {
			parts = append(parts, r)
		}
	}
	return strings.Join(parts, "\n")
}
