package discovery

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChangeEventFor_ExtractsProjectAndSessionID(t *testing.T) {
	root := "/home/user/.config/snatch/projects"
	path := filepath.Join(root, "-home-user-repo", "abc123.jsonl")

	ev := changeEventFor(root, path, false)
	assert.Equal(t, "-home-user-repo", ev.ProjectID)
	assert.Equal(t, "abc123", ev.SessionID)
	assert.False(t, ev.Removed)
}

func TestChangeEventFor_SubagentFileName(t *testing.T) {
	root := "/home/user/.config/snatch/projects"
	path := filepath.Join(root, "-home-user-repo", "agent-xyz.jsonl")

	ev := changeEventFor(root, path, true)
	assert.Equal(t, "agent-xyz", ev.SessionID)
	assert.True(t, ev.Removed)
}

func TestChangeEventFor_PathOutsideRoot_FallsBackToBarePath(t *testing.T) {
	ev := changeEventFor("/a/b", "/x/y/session.jsonl", false)
	assert.Equal(t, "/x/y/session.jsonl", ev.Path)
	assert.Empty(t, ev.ProjectID)
}

func TestNewFollower_StartsUnwatched(t *testing.T) {
	f := NewFollower(t.TempDir())
	assert.NotNil(t, f)
	assert.NoError(t, f.Close())
}
