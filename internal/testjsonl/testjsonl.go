// Package testjsonl provides shared JSONL fixture builders for session
// log test data, covering every entry kind the ingest and reconstruct
// packages need to exercise: user, assistant, system, summary,
// snapshot, queue-operation, and turn_end.
package testjsonl

import (
	"encoding/json"
	"strings"
)

func mustMarshal(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return string(b)
}

// UserOpts carries the optional fields a user entry line may set.
type UserOpts struct {
	ParentUUID       string
	SessionID        string
	Cwd              string
	AgentID          string
	IsMeta           bool
	IsCompactSummary bool
	IsSidechain      bool
	ToolResults      []ToolResultSpec
}

// ToolResultSpec describes a tool_result content block to embed in a
// user entry's message content.
type ToolResultSpec struct {
	ToolUseID string
	Text      string
	IsError   bool
}

// UserJSON returns a user entry line with a single text content block.
func UserJSON(uuid, timestamp, content string, opts UserOpts) string {
	blocks := []map[string]any{
		{"type": "text", "text": content},
	}
	for _, tr := range opts.ToolResults {
		b := map[string]any{
			"type":        "tool_result",
			"tool_use_id": tr.ToolUseID,
			"content":     tr.Text,
		}
		if tr.IsError {
			b["is_error"] = true
		}
		blocks = append(blocks, b)
	}
	m := map[string]any{
		"type":      "user",
		"uuid":      uuid,
		"timestamp": timestamp,
		"message": map[string]any{
			"role":    "user",
			"content": blocks,
		},
	}
	applyCommonOpts(m, opts.ParentUUID, opts.SessionID, opts.Cwd, opts.AgentID, opts.IsSidechain)
	if opts.IsMeta {
		m["isMeta"] = true
	}
	if opts.IsCompactSummary {
		m["isCompactSummary"] = true
	}
	return mustMarshal(m)
}

// AssistantOpts carries the optional fields an assistant entry line may set.
type AssistantOpts struct {
	ParentUUID   string
	SessionID    string
	MessageID    string
	Model        string
	StopReason   string
	AgentID      string
	IsSidechain  bool
	ToolCalls    []ToolCallSpec
	InputTokens  int
	OutputTokens int
}

// ToolCallSpec describes a tool_use content block to embed in an
// assistant entry's message content.
type ToolCallSpec struct {
	ID    string
	Name  string
	Input map[string]any
}

// AssistantJSON returns an assistant entry line with a text block,
// plus any tool_use blocks described in opts.ToolCalls.
func AssistantJSON(uuid, timestamp, text string, opts AssistantOpts) string {
	blocks := []map[string]any{}
	if text != "" {
		blocks = append(blocks, map[string]any{"type": "text", "text": text})
	}
	for _, tc := range opts.ToolCalls {
		input := tc.Input
		if input == nil {
			input = map[string]any{}
		}
		blocks = append(blocks, map[string]any{
			"type":  "tool_use",
			"id":    tc.ID,
			"name":  tc.Name,
			"input": input,
		})
	}
	msg := map[string]any{
		"id":      opts.MessageID,
		"model":   opts.Model,
		"role":    "assistant",
		"content": blocks,
		"usage": map[string]any{
			"input_tokens":  opts.InputTokens,
			"output_tokens": opts.OutputTokens,
		},
	}
	if opts.StopReason != "" {
		msg["stop_reason"] = opts.StopReason
	}
	m := map[string]any{
		"type":      "assistant",
		"uuid":      uuid,
		"timestamp": timestamp,
		"message":   msg,
	}
	applyCommonOpts(m, opts.ParentUUID, opts.SessionID, "", opts.AgentID, opts.IsSidechain)
	return mustMarshal(m)
}

// SystemJSON returns a system entry line.
func SystemJSON(uuid, timestamp, content, level string, opts UserOpts) string {
	m := map[string]any{
		"type":      "system",
		"uuid":      uuid,
		"timestamp": timestamp,
		"content":   content,
		"level":     level,
	}
	applyCommonOpts(m, opts.ParentUUID, opts.SessionID, opts.Cwd, opts.AgentID, opts.IsSidechain)
	return mustMarshal(m)
}

// SummaryJSON returns a summary entry line referencing leafUUID.
func SummaryJSON(uuid, summary, leafUUID, sessionID string) string {
	m := map[string]any{
		"type":      "summary",
		"uuid":      uuid,
		"summary":   summary,
		"leafUuid":  leafUUID,
		"sessionId": sessionID,
	}
	return mustMarshal(m)
}

// SnapshotJSON returns a snapshot entry line.
func SnapshotJSON(uuid, timestamp, snapshotTimestamp, sessionID string) string {
	m := map[string]any{
		"type":              "snapshot",
		"uuid":              uuid,
		"timestamp":         timestamp,
		"snapshotTimestamp": snapshotTimestamp,
		"sessionId":         sessionID,
	}
	return mustMarshal(m)
}

// QueueOpJSON returns a queue-operation entry line, used to stitch a
// Task tool call to the subagent session file it spawned.
func QueueOpJSON(uuid, timestamp, operation, taskID, toolUseID, sessionID string) string {
	m := map[string]any{
		"type":      "queue-operation",
		"uuid":      uuid,
		"timestamp": timestamp,
		"operation": operation,
		"taskId":    taskID,
		"toolUseId": toolUseID,
		"sessionId": sessionID,
	}
	return mustMarshal(m)
}

// TurnEndJSON returns a turn_end entry line.
func TurnEndJSON(uuid, timestamp, parentUUID, sessionID string) string {
	m := map[string]any{
		"type":       "turn_end",
		"uuid":       uuid,
		"timestamp":  timestamp,
		"parentUuid": parentUUID,
		"sessionId":  sessionID,
	}
	return mustMarshal(m)
}

func applyCommonOpts(m map[string]any, parentUUID, sessionID, cwd, agentID string, sidechain bool) {
	if parentUUID != "" {
		m["parentUuid"] = parentUUID
	}
	if sessionID != "" {
		m["sessionId"] = sessionID
	}
	if cwd != "" {
		m["cwd"] = cwd
	}
	if agentID != "" {
		m["agentId"] = agentID
	}
	if sidechain {
		m["isSidechain"] = true
	}
}

// JoinJSONL joins JSON lines with newlines and appends a trailing
// newline, matching what a fully-flushed session file looks like on
// disk.
func JoinJSONL(lines ...string) string {
	return strings.Join(lines, "\n") + "\n"
}

// SessionBuilder constructs JSONL session content with a fluent API,
// threading parentUUID automatically from the previously added entry
// unless overridden.
type SessionBuilder struct {
	SessionID string
	lines     []string
	lastUUID  string
}

// NewSessionBuilder returns a new empty SessionBuilder scoped to
// sessionID.
func NewSessionBuilder(sessionID string) *SessionBuilder {
	return &SessionBuilder{SessionID: sessionID}
}

// AddUser appends a user entry line, chaining parentUUID from the
// previously added entry.
func (b *SessionBuilder) AddUser(uuid, timestamp, content string, opts UserOpts) *SessionBuilder {
	if opts.ParentUUID == "" {
		opts.ParentUUID = b.lastUUID
	}
	opts.SessionID = b.SessionID
	b.lines = append(b.lines, UserJSON(uuid, timestamp, content, opts))
	b.lastUUID = uuid
	return b
}

// AddAssistant appends an assistant entry line, chaining parentUUID
// from the previously added entry.
func (b *SessionBuilder) AddAssistant(uuid, timestamp, text string, opts AssistantOpts) *SessionBuilder {
	if opts.ParentUUID == "" {
		opts.ParentUUID = b.lastUUID
	}
	opts.SessionID = b.SessionID
	b.lines = append(b.lines, AssistantJSON(uuid, timestamp, text, opts))
	b.lastUUID = uuid
	return b
}

// AddSystem appends a system entry line.
func (b *SessionBuilder) AddSystem(uuid, timestamp, content, level string) *SessionBuilder {
	opts := UserOpts{ParentUUID: b.lastUUID, SessionID: b.SessionID}
	b.lines = append(b.lines, SystemJSON(uuid, timestamp, content, level, opts))
	b.lastUUID = uuid
	return b
}

// AddSummary appends a summary entry line.
func (b *SessionBuilder) AddSummary(uuid, summary, leafUUID string) *SessionBuilder {
	b.lines = append(b.lines, SummaryJSON(uuid, summary, leafUUID, b.SessionID))
	return b
}

// AddSnapshot appends a snapshot entry line.
func (b *SessionBuilder) AddSnapshot(uuid, timestamp, snapshotTimestamp string) *SessionBuilder {
	b.lines = append(b.lines, SnapshotJSON(uuid, timestamp, snapshotTimestamp, b.SessionID))
	b.lastUUID = uuid
	return b
}

// AddQueueOp appends a queue-operation entry line.
func (b *SessionBuilder) AddQueueOp(uuid, timestamp, operation, taskID, toolUseID string) *SessionBuilder {
	b.lines = append(b.lines, QueueOpJSON(uuid, timestamp, operation, taskID, toolUseID, b.SessionID))
	b.lastUUID = uuid
	return b
}

// AddTurnEnd appends a turn_end entry line.
func (b *SessionBuilder) AddTurnEnd(uuid, timestamp string) *SessionBuilder {
	b.lines = append(b.lines, TurnEndJSON(uuid, timestamp, b.lastUUID, b.SessionID))
	b.lastUUID = uuid
	return b
}

// AddRaw appends an arbitrary raw line, e.g. a deliberately malformed
// one for torn-line and error-path tests.
func (b *SessionBuilder) AddRaw(line string) *SessionBuilder {
	b.lines = append(b.lines, line)
	return b
}

// String returns the JSONL content with a trailing newline.
func (b *SessionBuilder) String() string {
	return strings.Join(b.lines, "\n") + "\n"
}

// StringNoTrailingNewline returns the JSONL content without a
// trailing newline, for torn-line tests.
func (b *SessionBuilder) StringNoTrailingNewline() string {
	return strings.Join(b.lines, "\n")
}
