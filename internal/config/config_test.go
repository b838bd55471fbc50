package config_test

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"brain2-canvas/internal/config"
	"brain2-canvas/internal/domain/shared"
)

func env(vars map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := vars[key]
		return v, ok
	}
}

func write(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
}

func TestLoader_Defaults(t *testing.T) {
	cfg, err := config.NewLoader(t.TempDir(), config.Production).WithLookup(env(nil)).Load()
	require.NoError(t, err)

	assert.Equal(t, config.Production, cfg.Environment)
	assert.Equal(t, shared.DefaultHistoryLimit, cfg.History.Limit)
	assert.Equal(t, shared.CullMargin, cfg.Viewport.CullMargin)
	assert.Equal(t, shared.ViewportDelay, cfg.Viewport.Debounce)
	assert.Equal(t, []string{"defaults", "environment"}, cfg.LoadedFrom)
}

func TestLoader_Layers(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "base.yaml", "history:\n  limit: 20\nviewport:\n  debounce: 100ms\n  max_scale: 4\n")
	write(t, dir, "production.json", `{"history": {"limit": 30}}`)
	write(t, dir, "local.toml", "[history]\nlimit = 99\n")

	cfg, err := config.NewLoader(dir, config.Production).WithLookup(env(nil)).Load()
	require.NoError(t, err)
	assert.Equal(t, 30, cfg.History.Limit, "environment file beats base, local is ignored outside development")
	assert.Equal(t, 100*time.Millisecond, cfg.Viewport.Debounce)
	assert.Equal(t, 4.0, cfg.Viewport.MaxScale)

	dev, err := config.NewLoader(dir, config.Development).WithLookup(env(nil)).Load()
	require.NoError(t, err)
	assert.Equal(t, 99, dev.History.Limit)
	assert.Equal(t, "console", dev.Logging.Format)
}

func TestLoader_EnvironmentWins(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "base.yaml", "history:\n  limit: 20\n")

	cfg, err := config.NewLoader(dir, config.Staging).WithLookup(env(map[string]string{
		"CANVAS_HISTORY_LIMIT":     "75",
		"CANVAS_VIEWPORT_DEBOUNCE": "1s",
		"CANVAS_TRACING_ENABLED":   "true",
	})).Load()
	require.NoError(t, err)
	assert.Equal(t, 75, cfg.History.Limit)
	assert.Equal(t, time.Second, cfg.Viewport.Debounce)
	assert.True(t, cfg.Tracing.Enabled)
}

func TestLoader_Errors(t *testing.T) {
	tests := []struct {
		name  string
		files map[string]string
		vars  map[string]string
	}{
		{name: "malformed env", vars: map[string]string{"CANVAS_HISTORY_LIMIT": "lots"}},
		{name: "invalid value", vars: map[string]string{"CANVAS_EVENT_SINK": "kafka"}},
		{name: "max below min", files: map[string]string{"base.yaml": "viewport:\n  min_scale: 2\n  max_scale: 1\n"}},
		{name: "unparseable file", files: map[string]string{"base.json": "{"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			for name, body := range tt.files {
				write(t, dir, name, body)
			}
			_, err := config.NewLoader(dir, config.Production).WithLookup(env(tt.vars)).Load()
			assert.Error(t, err)
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	cfg := config.Default(config.Development)
	require.NoError(t, cfg.Validate())

	cfg.History.Limit = 0
	assert.Error(t, cfg.Validate())
}

func TestWatcher_ReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "base.yaml", "history:\n  limit: 20\n")
	loader := config.NewLoader(dir, config.Production).WithLookup(env(nil))
	initial, err := loader.Load()
	require.NoError(t, err)

	w, err := config.NewWatcher(loader, initial, zap.NewNop())
	require.NoError(t, err)
	w.SetDelay(20 * time.Millisecond)

	var limit atomic.Int64
	w.OnChange(func(c *config.Config) { limit.Store(int64(c.History.Limit)) })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	write(t, dir, "base.yaml", "history:\n  limit: 40\n")
	assert.Eventually(t, func() bool { return limit.Load() == 40 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 40, w.Config().History.Limit)
}

func TestWatcher_KeepsPreviousOnInvalid(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "base.yaml", "history:\n  limit: 20\n")
	loader := config.NewLoader(dir, config.Production).WithLookup(env(nil))
	initial, err := loader.Load()
	require.NoError(t, err)

	w, err := config.NewWatcher(loader, initial, zap.NewNop())
	require.NoError(t, err)
	w.SetDelay(10 * time.Millisecond)

	var calls atomic.Int32
	w.OnChange(func(*config.Config) { calls.Add(1) })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	write(t, dir, "base.yaml", "history:\n  limit: -1\n")
	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, int32(0), calls.Load())
	assert.Equal(t, 20, w.Config().History.Limit)
}
