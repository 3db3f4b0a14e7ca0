package discovery

import (
	"regexp"
	"strings"
	"time"

	"github.com/jkindrix/claude-snatch/internal/model"
)

var (
	xmlTaskIDRe  = regexp.MustCompile(`<task-id>([^<]+)</task-id>`)
	xmlToolUseRe = regexp.MustCompile(`<tool-use-id>([^<]+)</tool-use-id>`)
)

// SubagentMap maps a Task tool_use's ID to the subagent session file
// name ("agent-<hash>") it spawned, so a tool_use block in the parent
// session can be stitched to the subagent's own log.
type SubagentMap map[string]string

// BuildSubagentMap scans queue-operation "enqueue" entries for task
// and tool-use identifiers, preferring the structured fields and
// falling back to XML tags some profiles embed in free text when the
// structured fields are absent.
func BuildSubagentMap(entries []model.Entry) SubagentMap {
	m := SubagentMap{}
	for _, e := range entries {
		qe, ok := e.(*model.QueueOpEntry)
		if !ok || qe.Operation != "enqueue" {
			continue
		}
		taskID, toolUseID := qe.TaskID, qe.ToolUseID
		if taskID == "" || toolUseID == "" {
			raw, _ := qe.Unknown.Get("text")
			text := string(raw)
			if taskID == "" {
				if match := xmlTaskIDRe.FindStringSubmatch(text); match != nil {
					taskID = match[1]
				}
			}
			if toolUseID == "" {
				if match := xmlToolUseRe.FindStringSubmatch(text); match != nil {
					toolUseID = match[1]
				}
			}
		}
		if taskID == "" || toolUseID == "" {
			continue
		}
		m[toolUseID] = "agent-" + taskID
	}
	return m
}

// ShortHash returns the "<short-hash>" portion of a subagent session
// ID (e.g. "agent-3e5" -> "3e5"), or "" if id does not name a
// subagent file.
func ShortHash(id string) string {
	if !strings.HasPrefix(id, "agent-") {
		return ""
	}
	return strings.TrimPrefix(id, "agent-")
}

// FindParentByAgentID implements the log format's literal subagent
// rule: a subagent session's parent is the sibling session containing
// the earliest entry whose agentId equals the subagent's short hash,
// ties broken by earliest timestamp. siblings maps each candidate
// session's ID to its decoded entries; the subagent's own session
// should not be included. Returns "" if no sibling entry matches.
func FindParentByAgentID(shortHash string, siblings map[string][]model.Entry) string {
	if shortHash == "" {
		return ""
	}
	var bestSession string
	var bestTime time.Time
	for sessionID, entries := range siblings {
		for _, e := range entries {
			c := e.Common()
			if c.AgentID != shortHash {
				continue
			}
			if bestSession == "" || (!c.Timestamp.IsZero() && c.Timestamp.Before(bestTime)) {
				bestSession, bestTime = sessionID, c.Timestamp
			}
		}
	}
	return bestSession
}
