package discovery_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jkindrix/claude-snatch/internal/clock"
	"github.com/jkindrix/claude-snatch/internal/discovery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProjectIDCodec_Invertible(t *testing.T) {
	cases := []string{
		"/home/user/code/my-project",
		"/home/user/code/a--weird--name",
		"/",
		"/a/b-c/d",
		"",
	}
	for _, path := range cases {
		encoded := discovery.EncodeProjectID(path)
		assert.NotContains(t, encoded, "/", "encoded id must be a flat path component")
		decoded := discovery.DecodeProjectID(encoded)
		assert.Equal(t, path, decoded, "round trip for %q", path)
	}
}

func TestProjectIDCodec_HyphenRunsDecodeUnambiguously(t *testing.T) {
	// Three literal hyphens in a row: encodes to six dashes, and must
	// decode back to exactly three, not some other grouping.
	encoded := discovery.EncodeProjectID("---")
	assert.Equal(t, "---", discovery.DecodeProjectID(encoded))
}

func TestClassifyActivity(t *testing.T) {
	now := time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		age  time.Duration
		want discovery.Activity
	}{
		{"just written", 1 * time.Second, discovery.PossiblyActive},
		{"at possibly-active boundary", 5 * time.Second, discovery.PossiblyActive},
		{"just past possibly-active", 6 * time.Second, discovery.RecentlyActive},
		{"at recently-active boundary", 60 * time.Second, discovery.RecentlyActive},
		{"stale", 5 * time.Minute, discovery.Inactive},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := discovery.ClassifyActivity(now.Add(-tt.age), now)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSession_Activity_UsesInjectedClock(t *testing.T) {
	fixedNow := time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC)
	sess := discovery.Session{
		File: discovery.FileInfo{Mtime: fixedNow.Add(-10 * time.Second).Unix()},
	}
	got := sess.Activity(clock.Fixed(fixedNow))
	assert.Equal(t, discovery.RecentlyActive, got)
}

func TestListProjectsAndSessions(t *testing.T) {
	root := t.TempDir()
	projectDir := filepath.Join(root, discovery.EncodeProjectID("/home/user/code/demo"))
	require.NoError(t, os.MkdirAll(projectDir, 0o755))

	mainSession := filepath.Join(projectDir, "11111111-1111-1111-1111-111111111111.jsonl")
	require.NoError(t, os.WriteFile(mainSession, []byte("{}\n"), 0o644))

	agentSession := filepath.Join(projectDir, "agent-22222222-2222-2222-2222-222222222222.jsonl")
	require.NoError(t, os.WriteFile(agentSession, []byte("{}\n"), 0o644))

	projects, err := discovery.ListProjects(root)
	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.Equal(t, "/home/user/code/demo", projects[0].DecodedPath)

	sessions, err := discovery.ListSessions(projects[0])
	require.NoError(t, err)
	require.Len(t, sessions, 2)

	byID := map[string]discovery.Session{}
	for _, s := range sessions {
		byID[s.ID] = s
	}
	main, ok := byID["11111111-1111-1111-1111-111111111111"]
	require.True(t, ok)
	assert.False(t, main.IsSubagent)

	agent, ok := byID["agent-22222222-2222-2222-2222-222222222222"]
	require.True(t, ok)
	assert.True(t, agent.IsSubagent)
}

func TestIsValidSessionID(t *testing.T) {
	assert.True(t, discovery.IsValidSessionID("11111111-1111-1111-1111-111111111111"))
	assert.False(t, discovery.IsValidSessionID("not-a-uuid!"))
	assert.False(t, discovery.IsValidSessionID("short"))
}
