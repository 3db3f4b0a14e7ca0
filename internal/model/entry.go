package model

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/tidwall/gjson"
)

// Entry is the tagged union of every line a session log can contain.
// Concrete types are UserEntry, AssistantEntry, SystemEntry,
// SummaryEntry, SnapshotEntry, QueueOpEntry, and TurnEndEntry.
type Entry interface {
	EntryType() string
	Common() *Common
}

// Common holds the fields shared by every entry variant. Fields this
// package does not recognize for the entry's version profile are kept
// in Unknown rather than dropped, so a round-trip re-encode is lossless.
type Common struct {
	UUID               string
	ParentUUID         string
	LogicalParentUUID  string
	SessionID          string
	Timestamp          time.Time
	Cwd                string
	GitBranch          string
	Version            string
	UserType           string
	IsSidechain        bool
	IsTeammate         bool
	AgentID            string
	Slug               string
	Unknown            *UnknownFields
	rawLine            []byte // captured for bit-exact JSONL replay
}

func (c *Common) Common() *Common { return c }

// RawLine returns the original JSONL bytes this entry was decoded
// from, if ingest captured them, enabling byte-exact re-export.
func (c *Common) RawLine() []byte { return c.rawLine }

type UserEntry struct {
	Common
	Message       UserMessage
	IsMeta        bool
	IsCompactSummary bool
	ToolUseResult json.RawMessage
}

func (UserEntry) EntryType() string { return "user" }

type UserMessage struct {
	Role    string
	Content []ContentBlock
}

type AssistantEntry struct {
	Common
	Message AssistantMessage
}

func (AssistantEntry) EntryType() string { return "assistant" }

type AssistantMessage struct {
	ID      string
	Model   string
	Role    string
	Content []ContentBlock
	Usage   Usage
	StopReason string
}

type SystemEntry struct {
	Common
	Content  string
	Level    string
	Subtype  string
}

func (SystemEntry) EntryType() string { return "system" }

type SummaryEntry struct {
	Common
	Summary  string
	LeafUUID string
}

func (SummaryEntry) EntryType() string { return "summary" }

type SnapshotEntry struct {
	Common
	SnapshotTimestamp time.Time
	TrackedFileBackups []FileBackup
}

func (SnapshotEntry) EntryType() string { return "snapshot" }

// FileBackup records one file-history backup taken at a snapshot
// point, so the original on-disk file can be recovered later.
type FileBackup struct {
	BackupFileName string
	Version        int
	BackupTime     time.Time
	OriginalPath   string
}

type QueueOpEntry struct {
	Common
	Operation string // e.g. "enqueue"
	TaskID    string
	ToolUseID string
}

func (QueueOpEntry) EntryType() string { return "queue-operation" }

type TurnEndEntry struct {
	Common
}

func (TurnEndEntry) EntryType() string { return "turn_end" }

var commonKnownKeys = map[string]bool{
	"uuid": true, "parentUuid": true, "logicalParentUuid": true,
	"sessionId": true, "timestamp": true, "cwd": true, "gitBranch": true,
	"version": true, "userType": true, "isSidechain": true,
	"isTeammate": true, "agentId": true, "slug": true, "type": true,
}

func decodeCommon(g gjson.Result, raw []byte) (Common, error) {
	ts, _ := time.Parse(time.RFC3339Nano, g.Get("timestamp").Str)
	unknown, err := CollectUnknown(json.RawMessage(g.Raw), commonKnownKeys)
	if err != nil {
		return Common{}, fmt.Errorf("decode common: %w", err)
	}
	return Common{
		UUID:              g.Get("uuid").Str,
		ParentUUID:        g.Get("parentUuid").Str,
		LogicalParentUUID: g.Get("logicalParentUuid").Str,
		SessionID:         g.Get("sessionId").Str,
		Timestamp:         ts,
		Cwd:               g.Get("cwd").Str,
		GitBranch:         g.Get("gitBranch").Str,
		Version:           g.Get("version").Str,
		UserType:          g.Get("userType").Str,
		IsSidechain:       g.Get("isSidechain").Bool(),
		IsTeammate:        g.Get("isTeammate").Bool(),
		AgentID:           g.Get("agentId").Str,
		Slug:              g.Get("slug").Str,
		Unknown:           unknown,
		rawLine:           append([]byte(nil), raw...),
	}, nil
}

// DecodeEntry dispatches on the "type" field to produce a concrete
// Entry, preserving raw for byte-exact JSONL replay on export.
func DecodeEntry(raw []byte) (Entry, error) {
	g := gjson.ParseBytes(raw)
	if !g.Exists() {
		return nil, fmt.Errorf("decode entry: not a JSON object")
	}
	common, err := decodeCommon(g, raw)
	if err != nil {
		return nil, err
	}
	switch g.Get("type").Str {
	case "user":
		msg := g.Get("message")
		blocks, err := DecodeContentBlocks(json.RawMessage(msg.Get("content").Raw))
		if err != nil {
			return nil, fmt.Errorf("decode user message: %w", err)
		}
		return &UserEntry{
			Common: common,
			Message: UserMessage{
				Role:    msg.Get("role").Str,
				Content: blocks,
			},
			IsMeta:           g.Get("isMeta").Bool(),
			IsCompactSummary: g.Get("isCompactSummary").Bool(),
			ToolUseResult:    rawOrNil(g.Get("toolUseResult")),
		}, nil
	case "assistant":
		msg := g.Get("message")
		blocks, err := DecodeContentBlocks(json.RawMessage(msg.Get("content").Raw))
		if err != nil {
			return nil, fmt.Errorf("decode assistant message: %w", err)
		}
		return &AssistantEntry{
			Common: common,
			Message: AssistantMessage{
				ID:         msg.Get("id").Str,
				Model:      msg.Get("model").Str,
				Role:       msg.Get("role").Str,
				Content:    blocks,
				StopReason: msg.Get("stop_reason").Str,
				Usage:      decodeUsage(msg.Get("usage")),
			},
		}, nil
	case "system":
		return &SystemEntry{
			Common:  common,
			Content: g.Get("content").Str,
			Level:   g.Get("level").Str,
			Subtype: g.Get("subtype").Str,
		}, nil
	case "summary":
		return &SummaryEntry{
			Common:   common,
			Summary:  g.Get("summary").Str,
			LeafUUID: g.Get("leafUuid").Str,
		}, nil
	case "snapshot":
		ts, _ := time.Parse(time.RFC3339Nano, g.Get("snapshotTimestamp").Str)
		var backups []FileBackup
		g.Get("trackedFileBackups").ForEach(func(_, b gjson.Result) bool {
			bt, _ := time.Parse(time.RFC3339Nano, b.Get("backupTime").Str)
			backups = append(backups, FileBackup{
				BackupFileName: b.Get("backupFileName").Str,
				Version:        int(b.Get("version").Int()),
				BackupTime:     bt,
				OriginalPath:   b.Get("originalPath").Str,
			})
			return true
		})
		return &SnapshotEntry{Common: common, SnapshotTimestamp: ts, TrackedFileBackups: backups}, nil
	case "queue-operation":
		return &QueueOpEntry{
			Common:    common,
			Operation: g.Get("operation").Str,
			TaskID:    g.Get("taskId").Str,
			ToolUseID: g.Get("toolUseId").Str,
		}, nil
	case "turn_end":
		return &TurnEndEntry{Common: common}, nil
	default:
		return nil, fmt.Errorf("decode entry: unknown type %q", g.Get("type").Str)
	}
}

func rawOrNil(g gjson.Result) json.RawMessage {
	if !g.Exists() {
		return nil
	}
	return json.RawMessage(g.Raw)
}

var usageKnownKeys = map[string]bool{
	"input_tokens": true, "output_tokens": true,
	"cache_creation_input_tokens": true, "cache_read_input_tokens": true,
	"cache_creation": true, "server_tool_use": true, "service_tier": true,
}

func decodeUsage(g gjson.Result) Usage {
	if !g.Exists() {
		return Usage{}
	}
	u := Usage{
		InputTokens:              int(g.Get("input_tokens").Int()),
		OutputTokens:             int(g.Get("output_tokens").Int()),
		CacheCreationInputTokens: int(g.Get("cache_creation_input_tokens").Int()),
		CacheReadInputTokens:     int(g.Get("cache_read_input_tokens").Int()),
		ServiceTier:              g.Get("service_tier").Str,
	}
	cc := g.Get("cache_creation")
	if cc.Exists() {
		u.Ephemeral5mInputTokens = int(cc.Get("ephemeral_5m_input_tokens").Int())
		u.Ephemeral1hInputTokens = int(cc.Get("ephemeral_1h_input_tokens").Int())
	}
	stu := g.Get("server_tool_use")
	if stu.Exists() {
		u.ServerToolUse = map[string]int{}
		stu.ForEach(func(k, v gjson.Result) bool {
			u.ServerToolUse[k.Str] = int(v.Int())
			return true
		})
	}
	if unknown, err := CollectUnknown(json.RawMessage(g.Raw), usageKnownKeys); err == nil {
		u.Unknown = unknown
	}
	return u
}
