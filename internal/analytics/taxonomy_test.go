package analytics_test

import (
	"testing"

	"github.com/jkindrix/claude-snatch/internal/analytics"
	"github.com/stretchr/testify/assert"
)

func TestNormalizeToolCategory(t *testing.T) {
	cases := map[string]string{
		"Read":         "Read",
		"Edit":         "Edit",
		"Write":        "Write",
		"NotebookEdit": "Write",
		"Bash":         "Bash",
		"Grep":         "Grep",
		"Glob":         "Glob",
		"Task":         "Task",
		"WebFetch":     "Other",
		"":             "Other",
	}
	for raw, want := range cases {
		assert.Equal(t, want, analytics.NormalizeToolCategory(raw), "raw=%q", raw)
	}
}
