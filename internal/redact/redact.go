// Package redact implements a pure, pre-serialization traversal that
// masks sensitive text in a conversation's content blocks without
// mutating the underlying reconstructed model.
package redact

import (
	"regexp"
	"unicode/utf8"

	"github.com/jkindrix/claude-snatch/internal/model"
	"github.com/jkindrix/claude-snatch/internal/reconstruct"
)

// Policy controls which patterns are masked and how.
type Policy struct {
	Patterns   []*regexp.Regexp
	Mask       string
	MaxTextLen int // 0 disables truncation
}

// DefaultPolicy matches common credential shapes: AWS keys, bearer
// tokens, private key headers, and generic "key=value" secrets.
func DefaultPolicy() Policy {
	return Policy{
		Mask: "[REDACTED]",
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`AKIA[0-9A-Z]{16}`),
			regexp.MustCompile(`(?i)bearer\s+[a-z0-9._-]{20,}`),
			regexp.MustCompile(`-----BEGIN [A-Z ]*PRIVATE KEY-----[\s\S]*?-----END [A-Z ]*PRIVATE KEY-----`),
			regexp.MustCompile(`(?i)(api[_-]?key|secret|token|password)\s*[:=]\s*["']?[^\s"']{8,}`),
		},
	}
}

// Match records one redaction applied during a Preview pass, without
// mutating the source conversation.
type Match struct {
	EntryUUID string
	BlockType string
	Pattern   string
	Original  string
}

// Report is the result of a Preview pass: every match that would be
// redacted, without actually transforming the content.
type Report struct {
	Matches []Match
}

// Preview scans every branch's content blocks and reports what a
// subsequent Apply would redact, without modifying anything.
func Preview(conv *reconstruct.Conversation, p Policy) Report {
	var rep Report
	for _, b := range conv.Branches() {
		for _, e := range b.Entries {
			blocks := contentBlocksOf(e)
			uuid := e.Common().UUID
			for _, blk := range blocks {
				text, ok := blockText(blk)
				if !ok {
					continue
				}
				for _, pat := range p.Patterns {
					for _, m := range pat.FindAllString(text, -1) {
						rep.Matches = append(rep.Matches, Match{
							EntryUUID: uuid,
							BlockType: blk.BlockType(),
							Pattern:   pat.String(),
							Original:  m,
						})
					}
				}
			}
		}
	}
	return rep
}

// Apply returns new content blocks for a branch with Policy applied,
// leaving conv untouched — callers pass the result straight to an
// exporter rather than writing it back into the reconstructed model.
func Apply(blocks []model.ContentBlock, p Policy) []model.ContentBlock {
	out := make([]model.ContentBlock, len(blocks))
	for i, blk := range blocks {
		out[i] = applyOne(blk, p)
	}
	return out
}

func applyOne(blk model.ContentBlock, p Policy) model.ContentBlock {
	switch v := blk.(type) {
	case model.TextBlock:
		v.Text = redactString(v.Text, p)
		return v
	case model.ThinkingBlock:
		v.Thinking = redactString(v.Thinking, p)
		return v
	case model.ToolUseBlock:
		return v // input JSON is left intact; redaction targets prose text
	case model.ToolResultBlock:
		v.Content.Text = redactString(v.Content.Text, p)
		if len(v.Content.Blocks) > 0 {
			v.Content.Blocks = Apply(v.Content.Blocks, p)
		}
		return v
	default:
		return blk
	}
}

func redactString(s string, p Policy) string {
	for _, pat := range p.Patterns {
		s = pat.ReplaceAllString(s, p.Mask)
	}
	if p.MaxTextLen > 0 {
		s = truncateUTF8(s, p.MaxTextLen)
	}
	return s
}

// truncateUTF8 cuts s to at most n bytes without splitting a multi-byte
// rune, walking backward from the cut point to the nearest boundary.
func truncateUTF8(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

func blockText(b model.ContentBlock) (string, bool) {
	switch v := b.(type) {
	case model.TextBlock:
		return v.Text, true
	case model.ThinkingBlock:
		return v.Thinking, true
	case model.ToolResultBlock:
		return v.Content.Text, true
	default:
		return "", false
	}
}

func contentBlocksOf(e model.Entry) []model.ContentBlock {
	switch v := e.(type) {
	case *model.UserEntry:
		return v.Message.Content
	case *model.AssistantEntry:
		return v.Message.Content
	default:
		return nil
	}
}
