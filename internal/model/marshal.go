package model

import (
	"encoding/json"
	"time"
)

// EncodeEntry re-serializes an Entry to JSON, emitting known fields
// followed by any preserved unknown fields from the source schema
// version. Used by lossless export formats (JSON, re-derived JSONL).
func EncodeEntry(e Entry) ([]byte, error) {
	m := map[string]json.RawMessage{}
	c := e.Common()
	putStr(m, "uuid", c.UUID)
	putStr(m, "parentUuid", c.ParentUUID)
	putStr(m, "logicalParentUuid", c.LogicalParentUUID)
	putStr(m, "sessionId", c.SessionID)
	if !c.Timestamp.IsZero() {
		putStr(m, "timestamp", c.Timestamp.UTC().Format(time.RFC3339Nano))
	}
	putStr(m, "cwd", c.Cwd)
	putStr(m, "gitBranch", c.GitBranch)
	putStr(m, "version", c.Version)
	putStr(m, "userType", c.UserType)
	putBool(m, "isSidechain", c.IsSidechain)
	putBool(m, "isTeammate", c.IsTeammate)
	putStr(m, "agentId", c.AgentID)
	putStr(m, "slug", c.Slug)
	putStr(m, "type", e.EntryType())

	switch v := e.(type) {
	case *UserEntry:
		putBool(m, "isMeta", v.IsMeta)
		putBool(m, "isCompactSummary", v.IsCompactSummary)
		if v.ToolUseResult != nil {
			m["toolUseResult"] = v.ToolUseResult
		}
		msg, err := json.Marshal(map[string]interface{}{
			"role":    v.Message.Role,
			"content": v.Message.Content,
		})
		if err != nil {
			return nil, err
		}
		m["message"] = msg
	case *AssistantEntry:
		msg, err := json.Marshal(map[string]interface{}{
			"id":          v.Message.ID,
			"model":       v.Message.Model,
			"role":        v.Message.Role,
			"content":     v.Message.Content,
			"stop_reason": v.Message.StopReason,
			"usage":       v.Message.Usage,
		})
		if err != nil {
			return nil, err
		}
		m["message"] = msg
	case *SystemEntry:
		putStr(m, "content", v.Content)
		putStr(m, "level", v.Level)
		putStr(m, "subtype", v.Subtype)
	case *SummaryEntry:
		putStr(m, "summary", v.Summary)
		putStr(m, "leafUuid", v.LeafUUID)
	case *SnapshotEntry:
		if !v.SnapshotTimestamp.IsZero() {
			putStr(m, "snapshotTimestamp", v.SnapshotTimestamp.UTC().Format(time.RFC3339Nano))
		}
		if len(v.TrackedFileBackups) > 0 {
			type backupJSON struct {
				BackupFileName string `json:"backupFileName"`
				Version        int    `json:"version"`
				BackupTime     string `json:"backupTime,omitempty"`
				OriginalPath   string `json:"originalPath"`
			}
			backups := make([]backupJSON, len(v.TrackedFileBackups))
			for i, b := range v.TrackedFileBackups {
				bj := backupJSON{BackupFileName: b.BackupFileName, Version: b.Version, OriginalPath: b.OriginalPath}
				if !b.BackupTime.IsZero() {
					bj.BackupTime = b.BackupTime.UTC().Format(time.RFC3339Nano)
				}
				backups[i] = bj
			}
			raw, err := json.Marshal(backups)
			if err != nil {
				return nil, err
			}
			m["trackedFileBackups"] = raw
		}
	case *QueueOpEntry:
		putStr(m, "operation", v.Operation)
		putStr(m, "taskId", v.TaskID)
		putStr(m, "toolUseId", v.ToolUseID)
	}

	c.Unknown.WriteTo(m)
	return json.Marshal(m)
}

func putStr(m map[string]json.RawMessage, k, v string) {
	if v == "" {
		return
	}
	b, _ := json.Marshal(v)
	m[k] = b
}

func putBool(m map[string]json.RawMessage, k string, v bool) {
	if !v {
		return
	}
	m[k] = json.RawMessage("true")
}

// MarshalJSON lets a ContentBlock slice serialize through the
// standard encoder inside EncodeEntry's message construction.
func (b TextBlock) MarshalJSON() ([]byte, error) {
	m := map[string]json.RawMessage{"type": jstr("text"), "text": jstr(b.Text)}
	b.Unknown.WriteTo(m)
	return json.Marshal(m)
}

func (b ThinkingBlock) MarshalJSON() ([]byte, error) {
	m := map[string]json.RawMessage{"type": jstr("thinking"), "thinking": jstr(b.Thinking)}
	if b.Signature != "" {
		m["signature"] = jstr(b.Signature)
	}
	b.Unknown.WriteTo(m)
	return json.Marshal(m)
}

func (b ToolUseBlock) MarshalJSON() ([]byte, error) {
	m := map[string]json.RawMessage{"type": jstr("tool_use"), "id": jstr(b.ID), "name": jstr(b.Name)}
	if len(b.Input) > 0 {
		m["input"] = b.Input
	}
	b.Unknown.WriteTo(m)
	return json.Marshal(m)
}

func (b ToolResultBlock) MarshalJSON() ([]byte, error) {
	m := map[string]json.RawMessage{"type": jstr("tool_result"), "tool_use_id": jstr(b.ToolUseID)}
	if b.IsError.Present() {
		m["is_error"], _ = json.Marshal(b.IsError.Bool())
	}
	if len(b.Content.Blocks) > 0 {
		blocks, err := json.Marshal(b.Content.Blocks)
		if err != nil {
			return nil, err
		}
		m["content"] = blocks
	} else {
		m["content"] = jstr(b.Content.Text)
	}
	b.Unknown.WriteTo(m)
	return json.Marshal(m)
}

func (b ImageBlock) MarshalJSON() ([]byte, error) {
	m := map[string]json.RawMessage{"type": jstr("image")}
	if len(b.Source) > 0 {
		m["source"] = b.Source
	}
	b.Unknown.WriteTo(m)
	return json.Marshal(m)
}

func (b UnknownBlock) MarshalJSON() ([]byte, error) {
	return b.Raw, nil
}

func jstr(s string) json.RawMessage {
	b, _ := json.Marshal(s)
	return b
}
