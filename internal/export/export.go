// Package export renders a reconstructed conversation into one of
// several output formats through a shared Exporter contract.
package export

import (
	"io"

	"github.com/jkindrix/claude-snatch/internal/model"
	"github.com/jkindrix/claude-snatch/internal/reconstruct"
	"github.com/jkindrix/claude-snatch/internal/redact"
)

// RedactionPolicy controls how aggressively a pre-export redaction
// pass masks content, per spec's three-level knob.
type RedactionPolicy int

const (
	RedactNone RedactionPolicy = iota
	RedactSecurity
	RedactAll
)

// Options controls what an Exporter includes and how it is rendered.
// Every backend accepts the same Options even when a field does not
// apply to it (e.g. Pretty has no effect on Markdown).
type Options struct {
	MainThreadOnly    bool
	Lossless          bool // JSON/JSONL: preserve unknown fields verbatim
	Pretty            bool
	Redact            *redact.Policy // nil disables redaction
	RedactionPolicy   RedactionPolicy
	IncludeForks      bool
	IncludeSidechains bool

	IncludeThinking     bool
	IncludeTools        bool
	IncludeToolResults  bool
	IncludeSystem       bool
	IncludeTimestamps   bool
	IncludeUsage        bool
	IncludeMetadata     bool

	LineWidth int    // PlainText wrap column; 0 uses the format default
	Theme     string // HTML: "light" | "dark"
	Dialect   string // CSV/XML: reserved for future dialect variants
}

// DefaultOptions returns the permissive default: everything included,
// main thread plus forks, no redaction.
func DefaultOptions() Options {
	return Options{
		IncludeForks:       true,
		IncludeThinking:    true,
		IncludeTools:       true,
		IncludeToolResults: true,
		IncludeSystem:      true,
		IncludeTimestamps:  true,
		IncludeUsage:       true,
		IncludeMetadata:    true,
	}
}

// filterBlocks drops content blocks Options excludes, preserving the
// order of the rest. Applied before redaction and rendering.
func filterBlocks(blocks []model.ContentBlock, opts Options) []model.ContentBlock {
	out := make([]model.ContentBlock, 0, len(blocks))
	for _, b := range blocks {
		switch b.BlockType() {
		case "thinking":
			if !opts.IncludeThinking {
				continue
			}
		case "tool_use":
			if !opts.IncludeTools {
				continue
			}
		case "tool_result":
			if !opts.IncludeToolResults {
				continue
			}
		}
		out = append(out, b)
	}
	return out
}

// Exporter renders a conversation to w in one format.
type Exporter interface {
	Name() string
	Export(w io.Writer, conv *reconstruct.Conversation, opts Options) error
}

// branchesFor selects which branches of conv an export pass should
// walk, honoring Options. A branch with zero entries (a session that
// failed to parse a single usable line) is never included: per spec's
// sessions invariant, such a session contributes no row to any export.
func branchesFor(conv *reconstruct.Conversation, opts Options) []reconstruct.Branch {
	var candidates []reconstruct.Branch
	if opts.MainThreadOnly {
		candidates = []reconstruct.Branch{conv.Main}
	} else {
		candidates = append(candidates, conv.Main)
		if opts.IncludeForks {
			candidates = append(candidates, conv.Forks...)
		}
		if opts.IncludeSidechains {
			candidates = append(candidates, conv.Sidechains...)
		}
	}
	out := make([]reconstruct.Branch, 0, len(candidates))
	for _, b := range candidates {
		if len(b.Entries) == 0 {
			continue
		}
		out = append(out, b)
	}
	return out
}
