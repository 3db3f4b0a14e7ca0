// Package search provides structured and full-text query over
// reconstructed conversations, either in memory or through the
// SQLite exporter's FTS index when one is available.
package search

import (
	"database/sql"
	"fmt"
	"regexp"
	"strings"

	"github.com/jkindrix/claude-snatch/internal/model"
	"github.com/jkindrix/claude-snatch/internal/reconstruct"
)

// Query describes a search over one or more conversations.
type Query struct {
	Text         string // substring or FTS match, case-insensitive
	Regex        *regexp.Regexp
	Role         string // "user" | "assistant" | "" for any
	ToolName     string // non-empty restricts to messages with this tool_use
	MainThreadOnly bool
}

// Hit is one matching message.
type Hit struct {
	SessionID string
	BranchID  string
	UUID      string
	Role      string
	Text      string
}

// InMemory scans conv's branches for entries matching q, without
// touching any index — the fallback path when no SQLite export
// exists for the session yet.
func InMemory(conv *reconstruct.Conversation, q Query) []Hit {
	var hits []Hit
	branches := []reconstruct.Branch{conv.Main}
	if !q.MainThreadOnly {
		branches = append(branches, conv.Forks...)
		branches = append(branches, conv.Sidechains...)
	}
	needle := strings.ToLower(q.Text)

	for _, b := range branches {
		for _, e := range b.Entries {
			role := ""
			var blocks []model.ContentBlock
			switch v := e.(type) {
			case *model.UserEntry:
				role, blocks = "user", v.Message.Content
			case *model.AssistantEntry:
				role, blocks = "assistant", v.Message.Content
			default:
				continue
			}
			if q.Role != "" && q.Role != role {
				continue
			}
			if q.ToolName != "" && !hasToolName(blocks, q.ToolName) {
				continue
			}
			text := concatText(blocks)
			if !matches(text, needle, q.Regex) {
				continue
			}
			hits = append(hits, Hit{
				SessionID: conv.SessionID,
				BranchID:  b.ID,
				UUID:      e.Common().UUID,
				Role:      role,
				Text:      text,
			})
		}
	}
	return hits
}

func matches(text, needle string, re *regexp.Regexp) bool {
	if re != nil {
		return re.MatchString(text)
	}
	if needle == "" {
		return true
	}
	return strings.Contains(strings.ToLower(text), needle)
}

func hasToolName(blocks []model.ContentBlock, name string) bool {
	for _, b := range blocks {
		if tu, ok := b.(model.ToolUseBlock); ok && tu.Name == name {
			return true
		}
	}
	return false
}

func concatText(blocks []model.ContentBlock) string {
	var parts []string
	for _, b := range blocks {
		if tb, ok := b.(model.TextBlock); ok {
			parts = append(parts, tb.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// FTS issues a MATCH query against the SQLite exporter's fts_messages
// virtual table, returning matching (session_id, uuid, role, content)
// rows ordered by relevance. Callers must have already exported the
// conversations they want searchable.
func FTS(db *sql.DB, matchQuery string, limit int) ([]Hit, error) {
	rows, err := db.Query(
		`SELECT s.id, m.uuid, m.role, m.content
		 FROM fts_messages f
		 JOIN messages m ON m.id = f.rowid
		 JOIN sessions s ON s.id = m.session_id
		 WHERE f.content MATCH ?
		 ORDER BY rank
		 LIMIT ?`,
		matchQuery, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("search: fts query: %w", err)
	}
	defer rows.Close()

	var hits []Hit
	for rows.Next() {
		var h Hit
		if err := rows.Scan(&h.SessionID, &h.UUID, &h.Role, &h.Text); err != nil {
			return nil, fmt.Errorf("search: scan: %w", err)
		}
		hits = append(hits, h)
	}
	return hits, rows.Err()
}
