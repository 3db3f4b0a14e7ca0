package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/jkindrix/claude-snatch/internal/discovery"
	"github.com/jkindrix/claude-snatch/internal/export"
	"github.com/jkindrix/claude-snatch/internal/testjsonl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtensionFor(t *testing.T) {
	assert.Equal(t, "md", extensionFor("markdown"))
	assert.Equal(t, "txt", extensionFor("text"))
	assert.Equal(t, "json", extensionFor("json"))
	assert.Equal(t, "csv", extensionFor("csv"))
}

func TestExportOne_WritesFileNamedBySessionID(t *testing.T) {
	root := t.TempDir()
	b := testjsonl.NewSessionBuilder("sess-1")
	b.AddUser("u1", "2026-01-01T00:00:00Z", "hi", testjsonl.UserOpts{})
	proj := writeProject(t, root, "-tmp-repo", map[string]string{"sess-1.jsonl": b.String()})

	sessions, err := discovery.ListSessions(proj)
	require.NoError(t, err)

	outDir := t.TempDir()
	err = exportOne(context.Background(), export.Markdown{}, sessions[0], sessions, export.DefaultOptions(), outDir, "markdown")
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(outDir, "sess-1.md"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "Session sess-1")
}

func TestExportSQLite_DefaultsToSessionsDBWhenOutEmpty(t *testing.T) {
	root := t.TempDir()
	b := testjsonl.NewSessionBuilder("sess-1")
	b.AddUser("u1", "2026-01-01T00:00:00Z", "hello there", testjsonl.UserOpts{})
	proj := writeProject(t, root, "-tmp-repo", map[string]string{"sess-1.jsonl": b.String()})
	sessions, err := discovery.ListSessions(proj)
	require.NoError(t, err)

	wd, err := os.Getwd()
	require.NoError(t, err)
	tmp := t.TempDir()
	require.NoError(t, os.Chdir(tmp))
	defer os.Chdir(wd)

	exportSQLite(sessions, "", export.DefaultOptions())
	_, err = os.Stat(filepath.Join(tmp, defaultDBName))
	assert.NoError(t, err)
}
