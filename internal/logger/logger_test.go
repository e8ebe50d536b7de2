package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithWriter(t *testing.T) {
	var buf bytes.Buffer
	loc := time.FixedZone("UTC+7", 7*3600)
	l := Component(NewWithWriter(&buf, loc, slog.LevelInfo), "database")

	l.Info("db_migration_step", "status", "success", "duration_ms", int64(3))
	l.Debug("dropped")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))

	assert.Equal(t, "database", rec["component"])
	assert.Equal(t, "db_migration_step", rec["msg"])
	assert.Equal(t, "success", rec["status"])
	assert.Equal(t, "INFO", rec["level"])
	assert.NotContains(t, rec, "time")

	ts, err := time.Parse(time.RFC3339Nano, rec["ts"].(string))
	require.NoError(t, err)
	_, offset := ts.Zone()
	assert.Equal(t, 7*3600, offset)
}

func TestComponent_NilLogger(t *testing.T) {
	assert.NotPanics(t, func() {
		Component(nil, "x").Error("ignored")
	})
}
