package debug

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupWritesEnabledRecords(t *testing.T) {
	t.Cleanup(func() { Init(false) })

	var buf bytes.Buffer
	Setup(Options{Enabled: true, Level: "info", Writer: &buf})

	require.True(t, Enabled())
	Debug("hidden")
	Info("connected", "provider", "postgresql")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "connected")
	assert.Contains(t, out, "provider=postgresql")
}

func TestSetupJSON(t *testing.T) {
	t.Cleanup(func() { Init(false) })

	var buf bytes.Buffer
	Setup(Options{Enabled: true, JSON: true, Writer: &buf})
	With("component", "client").Debug("query")

	assert.Contains(t, buf.String(), `"component":"client"`)
	assert.Contains(t, buf.String(), `"msg":"query"`)
}

func TestDisabledDiscards(t *testing.T) {
	Init(false)
	assert.False(t, Enabled())
	assert.False(t, Logger().Enabled(t.Context(), slog.LevelError))
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel(""))
	assert.Equal(t, slog.LevelInfo, ParseLevel("INFO"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelDebug, ParseLevel("verbose"))
}
