package ingest_test

import (
	"context"
	"strings"
	"testing"

	"github.com/jkindrix/claude-snatch/internal/ingest"
	"github.com/jkindrix/claude-snatch/internal/model"
	"github.com/jkindrix/claude-snatch/internal/testjsonl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Lenient_HappyPath(t *testing.T) {
	b := testjsonl.NewSessionBuilder("sess-1")
	b.AddUser("u1", "2026-01-01T00:00:00Z", "hi", testjsonl.UserOpts{}).
		AddAssistant("a1", "2026-01-01T00:00:01Z", "hello", testjsonl.AssistantOpts{})

	res, err := ingest.Parse(context.Background(), strings.NewReader(b.String()), ingest.Lenient, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Stats.LinesParsed)
	assert.Equal(t, 0, res.Stats.LinesSkipped)
	assert.False(t, res.Stats.HasTorn)
	require.Len(t, res.Entries, 2)
}

func TestParse_TornFinalLine_ExcludedButReported(t *testing.T) {
	b := testjsonl.NewSessionBuilder("sess-1")
	b.AddUser("u1", "2026-01-01T00:00:00Z", "hi", testjsonl.UserOpts{}).
		AddAssistant("a1", "2026-01-01T00:00:01Z", "partial write gets cut off here", testjsonl.AssistantOpts{})

	content := b.StringNoTrailingNewline()
	// Simulate a writer killed mid-write: chop the last line short, with
	// no trailing newline at all.
	torn := content[:len(content)-10]

	res, err := ingest.Parse(context.Background(), strings.NewReader(torn), ingest.Lenient, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Stats.LinesParsed, "the complete first line still parses")
	assert.True(t, res.Stats.HasTorn)
	assert.Greater(t, res.Stats.TornEnd, res.Stats.TornStart)
}

func TestParse_MalformedLine(t *testing.T) {
	b := testjsonl.NewSessionBuilder("sess-1")
	b.AddUser("u1", "2026-01-01T00:00:00Z", "hi", testjsonl.UserOpts{}).
		AddRaw(`{not valid json`).
		AddAssistant("a1", "2026-01-01T00:00:01Z", "hello", testjsonl.AssistantOpts{})

	t.Run("lenient skips and continues", func(t *testing.T) {
		res, err := ingest.Parse(context.Background(), strings.NewReader(b.String()), ingest.Lenient, 0)
		require.NoError(t, err)
		assert.Equal(t, 2, res.Stats.LinesParsed)
		assert.Equal(t, 1, res.Stats.LinesSkipped)
		require.Len(t, res.Stats.Errors, 1)
	})

	t.Run("strict aborts at first malformed line", func(t *testing.T) {
		res, err := ingest.Parse(context.Background(), strings.NewReader(b.String()), ingest.Strict, 0)
		require.Error(t, err)
		assert.Equal(t, 1, res.Stats.LinesParsed, "only the line before the malformed one was kept")
	})
}

func TestParse_DuplicateUUID_KeepsFirstOccurrence(t *testing.T) {
	line1 := testjsonl.UserJSON("dup1", "2026-01-01T00:00:00Z", "first", testjsonl.UserOpts{SessionID: "s1"})
	line2 := testjsonl.UserJSON("dup1", "2026-01-01T00:00:01Z", "second", testjsonl.UserOpts{SessionID: "s1"})
	content := testjsonl.JoinJSONL(line1, line2)

	res, err := ingest.Parse(context.Background(), strings.NewReader(content), ingest.Lenient, 0)
	require.NoError(t, err)
	require.Len(t, res.Entries, 1)
	ue, ok := res.Entries[0].(*model.UserEntry)
	require.True(t, ok)
	assert.Equal(t, "first", ue.Message.Content[0].(model.TextBlock).Text, "the first occurrence wins")
	require.Len(t, res.Stats.Errors, 1)
}

func TestParse_ContextCancellation(t *testing.T) {
	b := testjsonl.NewSessionBuilder("sess-1")
	b.AddUser("u1", "2026-01-01T00:00:00Z", "hi", testjsonl.UserOpts{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := ingest.Parse(ctx, strings.NewReader(b.String()), ingest.Lenient, 0)
	assert.ErrorIs(t, err, context.Canceled)
}
