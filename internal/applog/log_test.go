package applog_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/jkindrix/claude-snatch/internal/applog"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigure_JSONOutput_WritesStructuredFields(t *testing.T) {
	var buf bytes.Buffer
	applog.Configure(&buf, "info", true)

	applog.Logger.Info().Str("key", "value").Msg("hello")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "hello", line["message"])
	assert.Equal(t, "value", line["key"])
}

func TestConfigure_LevelFiltersBelowThreshold(t *testing.T) {
	var buf bytes.Buffer
	applog.Configure(&buf, "warn", true)

	applog.Logger.Info().Msg("should be filtered")
	assert.Empty(t, buf.String())

	applog.Logger.Warn().Msg("should appear")
	assert.Contains(t, buf.String(), "should appear")
}

func TestConfigure_UnknownLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	applog.Configure(&buf, "not-a-level", true)
	assert.Equal(t, zerolog.InfoLevel, applog.Logger.GetLevel())
}

func TestNamed_AddsComponentField(t *testing.T) {
	var buf bytes.Buffer
	applog.Configure(&buf, "info", true)

	applog.Named("discovery").Info().Msg("scan")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "discovery", line["component"])
}
