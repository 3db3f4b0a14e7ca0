package export

import (
	"crypto/rand"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jkindrix/claude-snatch/internal/model"
	"github.com/jkindrix/claude-snatch/internal/reconstruct"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

const schemaFTS = `
CREATE VIRTUAL TABLE IF NOT EXISTS fts_messages USING fts5(
    content,
    content='messages',
    content_rowid='id',
    tokenize='porter unicode61'
);

CREATE TRIGGER IF NOT EXISTS messages_ai AFTER INSERT ON messages BEGIN
    INSERT INTO fts_messages(rowid, content) VALUES (new.id, new.content);
END;

CREATE TRIGGER IF NOT EXISTS messages_ad AFTER DELETE ON messages BEGIN
    INSERT INTO fts_messages(fts_messages, rowid, content)
        VALUES('delete', old.id, old.content);
END;

CREATE TRIGGER IF NOT EXISTS messages_au AFTER UPDATE ON messages BEGIN
    INSERT INTO fts_messages(fts_messages, rowid, content)
        VALUES('delete', old.id, old.content);
    INSERT INTO fts_messages(rowid, content) VALUES (new.id, new.content);
END;
`

const currentSchemaVersion = "1"

// SQLiteDB manages a write connection and a read-only pool over a
// canonical relational projection of one or more conversations. The
// writer and reader fields use atomic.Pointer so concurrent readers
// never block on a Reopen swap.
type SQLiteDB struct {
	path    string
	writer  atomic.Pointer[sql.DB]
	reader  atomic.Pointer[sql.DB]
	mu      sync.Mutex
	retired []*sql.DB
}

func makeDSN(path string, readOnly bool) string {
	params := url.Values{}
	params.Set("_journal_mode", "WAL")
	params.Set("_busy_timeout", "5000")
	params.Set("_foreign_keys", "ON")
	params.Set("_mmap_size", "268435456")
	params.Set("_cache_size", "-64000")
	if readOnly {
		params.Set("mode", "ro")
	} else {
		params.Set("_synchronous", "NORMAL")
	}
	return path + "?" + params.Encode()
}

// OpenSQLite opens (creating if absent) a canonical export database at
// path. An existing database whose schema_version doesn't match is
// dropped and rebuilt from scratch — callers re-export afterward.
func OpenSQLite(path string) (*SQLiteDB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("export: creating db directory: %w", err)
		}
	}

	rebuild, err := needsRebuild(path)
	if err != nil {
		return nil, fmt.Errorf("export: checking schema: %w", err)
	}
	if rebuild {
		if err := dropDatabaseFiles(path); err != nil {
			return nil, fmt.Errorf("export: rebuilding database: %w", err)
		}
	}
	return openAndInit(path)
}

func needsRebuild(path string) (bool, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("checking database file: %w", err)
	}
	conn, err := sql.Open("sqlite3", makeDSN(path, true))
	if err != nil {
		return false, fmt.Errorf("probing schema: %w", err)
	}
	defer conn.Close()

	var version string
	err = conn.QueryRow(`SELECT value FROM meta WHERE key = 'schema_version'`).Scan(&version)
	if err != nil {
		return true, nil // no meta table, or no row: treat as stale
	}
	return version != currentSchemaVersion, nil
}

func dropDatabaseFiles(path string) error {
	for _, suffix := range []string{"", "-wal", "-shm"} {
		if err := os.Remove(path + suffix); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("removing %s: %w", path+suffix, err)
		}
	}
	return nil
}

func openAndInit(path string) (*SQLiteDB, error) {
	writer, err := sql.Open("sqlite3", makeDSN(path, false))
	if err != nil {
		return nil, fmt.Errorf("opening writer: %w", err)
	}
	writer.SetMaxOpenConns(1)

	reader, err := sql.Open("sqlite3", makeDSN(path, true))
	if err != nil {
		writer.Close()
		return nil, fmt.Errorf("opening reader: %w", err)
	}
	reader.SetMaxOpenConns(4)

	db := &SQLiteDB{path: path}
	db.writer.Store(writer)
	db.reader.Store(reader)

	var secret [32]byte
	if _, err := rand.Read(secret[:]); err != nil {
		writer.Close()
		reader.Close()
		return nil, fmt.Errorf("generating secret: %w", err)
	}

	if err := db.init(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}
	return db, nil
}

func (db *SQLiteDB) init() error {
	db.mu.Lock()
	defer db.mu.Unlock()
	w := db.writer.Load()
	if _, err := w.Exec(schemaSQL); err != nil {
		return err
	}
	var ftsCount int
	if err := w.QueryRow(
		"SELECT count(*) FROM sqlite_master WHERE type='table' AND name='fts_messages'",
	).Scan(&ftsCount); err != nil {
		return fmt.Errorf("checking fts table: %w", err)
	}
	hadFTS := ftsCount > 0

	if _, err := w.Exec(schemaFTS); err != nil {
		if !strings.Contains(err.Error(), "no such module") {
			return fmt.Errorf("initializing FTS: %w", err)
		}
	} else if !hadFTS {
		if _, err := w.Exec("INSERT INTO fts_messages(fts_messages) VALUES('rebuild')"); err != nil {
			return fmt.Errorf("backfilling FTS: %w", err)
		}
	}
	_, err := w.Exec(
		`INSERT INTO meta(key, value) VALUES('schema_version', ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		currentSchemaVersion,
	)
	return err
}

// DropFTS drops the FTS table and its sync triggers, so a bulk
// message reinsert doesn't pay per-row index maintenance. Call
// RebuildFTS afterward to restore search.
func (db *SQLiteDB) DropFTS() error {
	db.mu.Lock()
	defer db.mu.Unlock()
	w := db.writer.Load()
	for _, s := range []string{
		"DROP TRIGGER IF EXISTS messages_ai",
		"DROP TRIGGER IF EXISTS messages_ad",
		"DROP TRIGGER IF EXISTS messages_au",
		"DROP TABLE IF EXISTS fts_messages",
	} {
		if _, err := w.Exec(s); err != nil {
			return fmt.Errorf("drop fts (%s): %w", s, err)
		}
	}
	return nil
}

// RebuildFTS recreates the FTS table and triggers and repopulates the
// index from the messages table.
func (db *SQLiteDB) RebuildFTS() error {
	db.mu.Lock()
	defer db.mu.Unlock()
	w := db.writer.Load()
	if _, err := w.Exec(schemaFTS); err != nil {
		return fmt.Errorf("recreate fts: %w", err)
	}
	_, err := w.Exec("INSERT INTO fts_messages(fts_messages) VALUES('rebuild')")
	return err
}

// HasFTS probes by querying the table directly rather than trusting
// sqlite_master, since the fts5 module may be unavailable at runtime
// even though the table definition exists.
func (db *SQLiteDB) HasFTS() bool {
	_, err := db.reader.Load().Exec("SELECT 1 FROM fts_messages LIMIT 1")
	return err == nil
}

// Update runs fn inside a write lock and transaction, committing on a
// nil return and rolling back otherwise.
func (db *SQLiteDB) Update(fn func(tx *sql.Tx) error) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	tx, err := db.writer.Load().Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func (db *SQLiteDB) Reader() *sql.DB { return db.reader.Load() }

func (db *SQLiteDB) Close() error {
	errs := []error{db.writer.Load().Close(), db.reader.Load().Close()}
	for _, p := range db.retired {
		errs = append(errs, p.Close())
	}
	db.retired = nil
	return errors.Join(errs...)
}

// ExportConversation writes every selected branch of conv into the
// canonical schema in a single transaction, per spec's
// transaction-per-session write model.
func (db *SQLiteDB) ExportConversation(conv *reconstruct.Conversation, opts Options) error {
	return db.Update(func(tx *sql.Tx) error {
		for _, branch := range branchesFor(conv, opts) {
			if err := writeBranch(tx, conv, branch); err != nil {
				return err
			}
		}
		return nil
	})
}

func writeBranch(tx *sql.Tx, conv *reconstruct.Conversation, b reconstruct.Branch) error {
	if len(b.Entries) == 0 {
		// Per spec's sessions-row invariant: a branch with no parseable
		// entries gets no sessions row at all, not a row with zero counts.
		return nil
	}

	var firstMsg string
	userCount := 0
	for _, e := range b.Entries {
		ue, ok := e.(*model.UserEntry)
		if !ok {
			continue
		}
		text := renderBlocks(ue.Message.Content)
		if text == "" {
			continue
		}
		userCount++
		if firstMsg == "" {
			firstMsg = truncateRunes(text, 300)
		}
	}

	_, err := tx.Exec(
		`INSERT INTO sessions(id, project_path, parent_session_id, relationship_type,
			first_message, started_at, ended_at, message_count, user_message_count)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			parent_session_id=excluded.parent_session_id,
			relationship_type=excluded.relationship_type,
			first_message=excluded.first_message,
			started_at=excluded.started_at,
			ended_at=excluded.ended_at,
			message_count=excluded.message_count,
			user_message_count=excluded.user_message_count`,
		b.ID, conv.SessionID, nullableStr(b.ParentSessionID), string(b.RelationType),
		firstMsg, formatTimeOrNil(b.StartedAt), formatTimeOrNil(b.EndedAt), len(b.Entries), userCount,
	)
	if err != nil {
		return fmt.Errorf("insert session %s: %w", b.ID, err)
	}

	ordinal := 0
	for _, e := range b.Entries {
		c := e.Common()
		role, stopReason := "", ""
		isAPIError, retryAttempt := 0, interface{}(nil)
		var blocks []model.ContentBlock
		var usage *model.Usage
		switch v := e.(type) {
		case *model.UserEntry:
			role, blocks = "user", v.Message.Content
		case *model.AssistantEntry:
			role, blocks = "assistant", v.Message.Content
			stopReason = v.Message.StopReason
			usage = &v.Message.Usage
		case *model.SystemEntry:
			role = "system"
			if v.Subtype == "api_error" {
				isAPIError = 1
			}
		case *model.SnapshotEntry:
			if err := writeFileBackups(tx, b.ID, v); err != nil {
				return err
			}
			continue
		default:
			continue
		}
		text := renderBlocks(blocks)
		if role == "system" {
			if se, ok := e.(*model.SystemEntry); ok {
				text = se.Content
			}
		}
		hasThinking, hasToolUse := 0, 0
		for _, blk := range blocks {
			switch blk.BlockType() {
			case "thinking":
				hasThinking = 1
			case "tool_use":
				hasToolUse = 1
			}
		}
		res, err := tx.Exec(
			`INSERT INTO messages(session_id, uuid, parent_uuid, logical_parent_uuid, type, ordinal,
				role, content, timestamp, stop_reason, is_sidechain, is_api_error, retry_attempt,
				has_thinking, has_tool_use)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT(session_id, uuid) DO UPDATE SET content=excluded.content`,
			b.ID, c.UUID, nullableStr(c.ParentUUID), nullableStr(c.LogicalParentUUID), e.EntryType(), ordinal,
			role, text, formatTimeOrNil(c.Timestamp), nullableStr(stopReason), boolToInt(c.IsSidechain),
			isAPIError, retryAttempt, hasThinking, hasToolUse,
		)
		if err != nil {
			return fmt.Errorf("insert message: %w", err)
		}
		messageID, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("message id: %w", err)
		}
		if err := writeContentBlocks(tx, messageID, blocks); err != nil {
			return err
		}
		if usage != nil {
			if err := writeUsage(tx, messageID, *usage); err != nil {
				return err
			}
		}
		ordinal++
	}
	return nil
}

func writeUsage(tx *sql.Tx, messageID int64, u model.Usage) error {
	_, err := tx.Exec(
		`INSERT INTO usage(message_id, input_tokens, output_tokens, cache_creation_tokens,
			cache_read_tokens, ephemeral_5m, ephemeral_1h)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(message_id) DO UPDATE SET
			input_tokens=excluded.input_tokens, output_tokens=excluded.output_tokens,
			cache_creation_tokens=excluded.cache_creation_tokens, cache_read_tokens=excluded.cache_read_tokens,
			ephemeral_5m=excluded.ephemeral_5m, ephemeral_1h=excluded.ephemeral_1h`,
		messageID, u.InputTokens, u.OutputTokens, u.CacheCreationInputTokens,
		u.CacheReadInputTokens, u.Ephemeral5mInputTokens, u.Ephemeral1hInputTokens,
	)
	if err != nil {
		return fmt.Errorf("insert usage: %w", err)
	}
	return nil
}

func writeFileBackups(tx *sql.Tx, sessionID string, s *model.SnapshotEntry) error {
	for _, fb := range s.TrackedFileBackups {
		_, err := tx.Exec(
			`INSERT INTO file_backups(session_id, backup_file_name, version, backup_time, original_path)
			 VALUES (?, ?, ?, ?, ?)
			 ON CONFLICT(session_id, backup_file_name) DO UPDATE SET version=excluded.version`,
			sessionID, fb.BackupFileName, fb.Version, formatTimeOrNil(fb.BackupTime), fb.OriginalPath,
		)
		if err != nil {
			return fmt.Errorf("insert file backup: %w", err)
		}
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func writeContentBlocks(tx *sql.Tx, messageID int64, blocks []model.ContentBlock) error {
	for i, blk := range blocks {
		switch v := blk.(type) {
		case model.ToolUseBlock:
			_, err := tx.Exec(
				`INSERT INTO content_blocks(message_id, block_index, block_type, tool_use_id, tool_name, input_json)
				 VALUES (?, ?, 'tool_use', ?, ?, ?)`,
				messageID, i, v.ID, v.Name, string(v.Input),
			)
			if err != nil {
				return fmt.Errorf("insert tool_use block: %w", err)
			}
		case model.ToolResultBlock:
			_, err := tx.Exec(
				`INSERT INTO content_blocks(message_id, block_index, block_type, tool_use_id)
				 VALUES (?, ?, 'tool_result', ?)`,
				messageID, i, v.ToolUseID,
			)
			if err != nil {
				return fmt.Errorf("insert tool_result block: %w", err)
			}
			var isErr interface{}
			if v.IsError.Present() {
				isErr = v.IsError.Bool()
			}
			_, err = tx.Exec(
				`INSERT INTO tool_results(tool_use_id, message_id, content, content_length, is_error)
				 VALUES (?, ?, ?, ?, ?)
				 ON CONFLICT(tool_use_id) DO UPDATE SET
					message_id=excluded.message_id,
					content=excluded.content,
					content_length=excluded.content_length,
					is_error=excluded.is_error`,
				v.ToolUseID, messageID, model.ToolResultText(v.Content), model.ToolResultTextLen(v.Content), isErr,
			)
			if err != nil {
				return fmt.Errorf("insert tool_result: %w", err)
			}
		default:
			_, err := tx.Exec(
				`INSERT INTO content_blocks(message_id, block_index, block_type, text)
				 VALUES (?, ?, ?, ?)`,
				messageID, i, blk.BlockType(), renderBlock(blk),
			)
			if err != nil {
				return fmt.Errorf("insert content block: %w", err)
			}
		}
	}
	return nil
}

func nullableStr(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func formatTimeOrNil(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
