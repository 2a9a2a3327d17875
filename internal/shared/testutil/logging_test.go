package testutil

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogRecorder(t *testing.T) {
	logger, rec := NewLogger(t)

	logger.With("component", "dataset").Info("dataset loaded", slog.Int("rows", 4))
	logger.Error("reload failed", slog.String("error", "file gone"))
	logger.Debug("ignored level still captured")

	require.Len(t, rec.Records(), 3)
	assert.Equal(t, 1, rec.Count(slog.LevelError))

	r, ok := rec.Find("loaded")
	require.True(t, ok)
	assert.Equal(t, "dataset", r.Attrs["component"])
	assert.Equal(t, int64(4), r.Attrs["rows"])

	r, ok = rec.Find("reload failed")
	require.True(t, ok)
	assert.NotContains(t, r.Attrs, "component", "attributes of derived loggers do not leak")

	_, ok = rec.Find("missing")
	assert.False(t, ok)
}

func TestWritePanelCSV(t *testing.T) {
	path := WritePanelCSV(t, t.TempDir(), "panel.csv")
	assert.FileExists(t, path)
}
