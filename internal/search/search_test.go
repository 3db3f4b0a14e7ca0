package search_test

import (
	"context"
	"regexp"
	"strings"
	"testing"

	"github.com/jkindrix/claude-snatch/internal/ingest"
	"github.com/jkindrix/claude-snatch/internal/reconstruct"
	"github.com/jkindrix/claude-snatch/internal/search"
	"github.com/jkindrix/claude-snatch/internal/testjsonl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func conversationFrom(t *testing.T, content string) *reconstruct.Conversation {
	t.Helper()
	res, err := ingest.Parse(context.Background(), strings.NewReader(content), ingest.Strict, 0)
	require.NoError(t, err)
	return reconstruct.Reconstruct("sess-1", "", res.Entries)
}

func buildFixture(t *testing.T) *reconstruct.Conversation {
	b := testjsonl.NewSessionBuilder("sess-1")
	b.AddUser("u1", "2026-01-01T00:00:00Z", "please read the config file", testjsonl.UserOpts{}).
		AddAssistant("a1", "2026-01-01T00:00:01Z", "reading it now", testjsonl.AssistantOpts{
			ToolCalls: []testjsonl.ToolCallSpec{{ID: "tc1", Name: "Read", Input: map[string]any{"path": "config.yaml"}}},
		}).
		AddUser("u2", "2026-01-01T00:00:02Z", "thanks, looks good", testjsonl.UserOpts{})
	return conversationFrom(t, b.String())
}

func TestInMemory_TextMatch_CaseInsensitive(t *testing.T) {
	conv := buildFixture(t)
	hits := search.InMemory(conv, search.Query{Text: "CONFIG"})
	require.Len(t, hits, 1)
	assert.Equal(t, "u1", hits[0].UUID)
	assert.Equal(t, "user", hits[0].Role)
}

func TestInMemory_RoleFilter(t *testing.T) {
	conv := buildFixture(t)
	hits := search.InMemory(conv, search.Query{Role: "assistant"})
	require.Len(t, hits, 1)
	assert.Equal(t, "a1", hits[0].UUID)
}

func TestInMemory_ToolNameFilter(t *testing.T) {
	conv := buildFixture(t)
	hits := search.InMemory(conv, search.Query{ToolName: "Read"})
	require.Len(t, hits, 1)
	assert.Equal(t, "a1", hits[0].UUID)

	none := search.InMemory(conv, search.Query{ToolName: "Bash"})
	assert.Empty(t, none)
}

func TestInMemory_RegexOverridesSubstring(t *testing.T) {
	conv := buildFixture(t)
	hits := search.InMemory(conv, search.Query{Regex: regexp.MustCompile(`^please`)})
	require.Len(t, hits, 1)
	assert.Equal(t, "u1", hits[0].UUID)
}

func TestInMemory_EmptyQuery_MatchesEverything(t *testing.T) {
	conv := buildFixture(t)
	hits := search.InMemory(conv, search.Query{})
	assert.Len(t, hits, 3)
}
