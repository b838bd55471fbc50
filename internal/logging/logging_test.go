package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"brain2-canvas/internal/config"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]zapcore.Level{
		"debug":   zap.DebugLevel,
		"info":    zap.InfoLevel,
		"warn":    zap.WarnLevel,
		"error":   zap.ErrorLevel,
		"verbose": zap.InfoLevel,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestNewWithWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	res := NewWithWriter(config.Logging{Level: "warn", Format: "json"}, zapcore.AddSync(&buf))

	res.Logger.Info("Hidden")
	res.Logger.Warn("Edge rejected", zap.String("edge_id", "e1"))
	require.NoError(t, res.Close())

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "Edge rejected", entry["msg"])
	assert.Equal(t, "e1", entry["edge_id"])
}

func TestNewWithWriter_RotatingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "canvas.log")
	var buf bytes.Buffer
	res := NewWithWriter(config.Logging{Level: "info", Format: "console", File: path, MaxSize: 1}, zapcore.AddSync(&buf))

	res.Logger.Info("Board loaded", zap.Int("nodes", 3))
	require.NoError(t, res.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"nodes":3`)
	assert.Contains(t, buf.String(), "Board loaded")
}

func TestAtomicLevel(t *testing.T) {
	var buf bytes.Buffer
	res := NewWithWriter(config.Logging{Level: "error", Format: "json"}, zapcore.AddSync(&buf))
	res.Logger.Info("dropped")
	res.Level.SetLevel(zap.InfoLevel)
	res.Logger.Info("kept")
	assert.NotContains(t, buf.String(), "dropped")
	assert.Contains(t, buf.String(), "kept")
}
