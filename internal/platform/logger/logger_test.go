package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithWriter(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, slog.LevelInfo)

	log.Debug("hidden")
	log.Info("alert triggered", "alert_id", "a-1")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "alert triggered", line["msg"])
	assert.Equal(t, "a-1", line["alert_id"])
	assert.Equal(t, "medgate", line["service"])
}
