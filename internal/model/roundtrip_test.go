package model_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/jkindrix/claude-snatch/internal/model"
	"github.com/jkindrix/claude-snatch/internal/testjsonl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeEntry_UserWithToolResult(t *testing.T) {
	line := testjsonl.UserJSON("u1", "2026-01-01T00:00:00Z", "hello", testjsonl.UserOpts{
		SessionID:   "sess-1",
		ParentUUID:  "u0",
		ToolResults: []testjsonl.ToolResultSpec{{ToolUseID: "tu1", Text: "done", IsError: false}},
	})

	entry, err := model.DecodeEntry([]byte(line))
	require.NoError(t, err)

	ue, ok := entry.(*model.UserEntry)
	require.True(t, ok)
	assert.Equal(t, "u1", ue.Common().UUID)
	assert.Equal(t, "u0", ue.Common().ParentUUID)
	assert.Equal(t, "sess-1", ue.Common().SessionID)
	require.Len(t, ue.Message.Content, 2)

	tr, ok := ue.Message.Content[1].(model.ToolResultBlock)
	require.True(t, ok)
	assert.Equal(t, "tu1", tr.ToolUseID)
	assert.True(t, tr.IsError.Present())
	assert.False(t, tr.IsError.Bool())
}

func TestDecodeEntry_AssistantUsage(t *testing.T) {
	line := testjsonl.AssistantJSON("a1", "2026-01-01T00:00:01Z", "hi", testjsonl.AssistantOpts{
		SessionID: "sess-1", ParentUUID: "u1", MessageID: "msg_1", Model: "claude-sonnet-4-6",
		InputTokens: 100, OutputTokens: 50,
	})

	entry, err := model.DecodeEntry([]byte(line))
	require.NoError(t, err)

	ae, ok := entry.(*model.AssistantEntry)
	require.True(t, ok)
	assert.Equal(t, "claude-sonnet-4-6", ae.Message.Model)
	assert.Equal(t, 100, ae.Message.Usage.InputTokens)
	assert.Equal(t, 50, ae.Message.Usage.OutputTokens)
}

func TestDecodeEntry_UsageServiceTier_RoundTrips(t *testing.T) {
	line := `{"type":"assistant","uuid":"a1","sessionId":"s1","timestamp":"2026-01-01T00:00:00Z",` +
		`"message":{"id":"m1","model":"claude-sonnet-4-6","role":"assistant","content":[{"type":"text","text":"hi"}],` +
		`"usage":{"input_tokens":10,"output_tokens":5,"service_tier":"standard"}}}`

	entry, err := model.DecodeEntry([]byte(line))
	require.NoError(t, err)
	ae, ok := entry.(*model.AssistantEntry)
	require.True(t, ok)
	assert.Equal(t, "standard", ae.Message.Usage.ServiceTier)

	reencoded, err := model.EncodeEntry(entry)
	require.NoError(t, err)
	reentry, err := model.DecodeEntry(reencoded)
	require.NoError(t, err)
	rae, ok := reentry.(*model.AssistantEntry)
	require.True(t, ok)
	assert.Equal(t, "standard", rae.Message.Usage.ServiceTier, "service_tier must survive a decode/encode round trip")
}

func TestDecodeEntry_UsageUnknownField_PreservedOnRoundTrip(t *testing.T) {
	line := `{"type":"assistant","uuid":"a1","sessionId":"s1","timestamp":"2026-01-01T00:00:00Z",` +
		`"message":{"id":"m1","model":"claude-sonnet-4-6","role":"assistant","content":[{"type":"text","text":"hi"}],` +
		`"usage":{"input_tokens":10,"output_tokens":5,"future_billing_field":"xyz"}}}`

	entry, err := model.DecodeEntry([]byte(line))
	require.NoError(t, err)

	reencoded, err := model.EncodeEntry(entry)
	require.NoError(t, err)
	assert.Contains(t, string(reencoded), `"future_billing_field":"xyz"`,
		"an unrecognized usage key must survive re-encoding, not be silently dropped")
}

// TestEncodeEntry_RoundTrip decodes then re-encodes a batch of entries
// of every kind and checks the re-decoded value is identical to the
// original, catching any field EncodeEntry silently drops.
func TestEncodeEntry_RoundTrip(t *testing.T) {
	lines := []string{
		testjsonl.UserJSON("u1", "2026-01-01T00:00:00Z", "hello", testjsonl.UserOpts{SessionID: "s1", Cwd: "/tmp"}),
		testjsonl.AssistantJSON("a1", "2026-01-01T00:00:01Z", "hi", testjsonl.AssistantOpts{
			SessionID: "s1", ParentUUID: "u1", MessageID: "m1", Model: "claude-opus-4-6",
			ToolCalls: []testjsonl.ToolCallSpec{{ID: "tc1", Name: "Read", Input: map[string]any{"path": "x.go"}}},
		}),
		testjsonl.SystemJSON("sy1", "2026-01-01T00:00:02Z", "context warning", "warn", testjsonl.UserOpts{SessionID: "s1"}),
		testjsonl.SummaryJSON("sm1", "a short summary", "a1", "s1"),
		testjsonl.SnapshotJSON("sn1", "2026-01-01T00:00:03Z", "2026-01-01T00:00:03Z", "s1"),
		testjsonl.QueueOpJSON("q1", "2026-01-01T00:00:04Z", "enqueue", "task1", "tc1", "s1"),
		testjsonl.TurnEndJSON("t1", "2026-01-01T00:00:05Z", "a1", "s1"),
	}

	for _, line := range lines {
		entry, err := model.DecodeEntry([]byte(line))
		require.NoError(t, err)

		reencoded, err := model.EncodeEntry(entry)
		require.NoError(t, err)

		reentry, err := model.DecodeEntry(reencoded)
		require.NoError(t, err)

		if diff := cmp.Diff(entry, reentry, cmpopts.IgnoreUnexported(model.Common{}, model.UnknownFields{})); diff != "" {
			t.Errorf("round-trip mismatch for %s (-original +reencoded):\n%s", entry.Common().UUID, diff)
		}
	}
}

func TestSnapshotEntry_TrackedFileBackups(t *testing.T) {
	line := `{"type":"snapshot","uuid":"sn1","sessionId":"s1","snapshotTimestamp":"2026-01-01T00:00:00Z",` +
		`"trackedFileBackups":[{"backupFileName":"a.bak","version":2,"backupTime":"2026-01-01T00:00:00Z","originalPath":"a.go"}]}`

	entry, err := model.DecodeEntry([]byte(line))
	require.NoError(t, err)
	se, ok := entry.(*model.SnapshotEntry)
	require.True(t, ok)
	require.Len(t, se.TrackedFileBackups, 1)
	assert.Equal(t, "a.bak", se.TrackedFileBackups[0].BackupFileName)
	assert.Equal(t, 2, se.TrackedFileBackups[0].Version)
	assert.Equal(t, "a.go", se.TrackedFileBackups[0].OriginalPath)

	reencoded, err := model.EncodeEntry(entry)
	require.NoError(t, err)
	reentry, err := model.DecodeEntry(reencoded)
	require.NoError(t, err)
	rse := reentry.(*model.SnapshotEntry)
	assert.Equal(t, se.TrackedFileBackups, rse.TrackedFileBackups)
}

func TestTriBool_DistinguishesAbsentFromFalse(t *testing.T) {
	absent := model.TriBoolFromField([]byte(`{}`), "is_error")
	explicit := model.TriBoolFromField([]byte(`{"is_error":false}`), "is_error")
	present := model.TriBoolFromField([]byte(`{"is_error":true}`), "is_error")

	assert.False(t, absent.Present())
	assert.True(t, explicit.Present())
	assert.False(t, explicit.Bool())
	assert.True(t, present.Present())
	assert.True(t, present.Bool())
}

func TestToolResultText(t *testing.T) {
	c := model.ToolResultContent{Text: "plain output"}
	assert.Equal(t, "plain output", model.ToolResultText(c))
	assert.Equal(t, len("plain output"), model.ToolResultTextLen(c))
}
