package config_test

import (
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/bjyitu/aiexif/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := config.LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Output.Format)
	assert.Empty(t, cfg.DB.Path)
	assert.Equal(t, 25, cfg.Load.BatchSize)
	assert.Equal(t, runtime.NumCPU(), cfg.WorkerCount())
	assert.Empty(t, cfg.PromptExtractPaths())
	assert.Equal(t, slog.LevelInfo, cfg.Level())
}

func TestLoadConfigFile(t *testing.T) {
	path := writeConfig(t, `
log:
  level: DEBUG
output:
  format: json
db:
  path: /tmp/prompts.duckdb
load:
  workers: 3
  batch_size: 100
extract:
  paths:
    - /data/a
    - /data/b
`)
	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, slog.LevelDebug, cfg.Level())
	assert.Equal(t, "json", cfg.Output.Format)
	assert.Equal(t, "/tmp/prompts.duckdb", cfg.DB.Path)
	assert.Equal(t, 3, cfg.WorkerCount())
	assert.Equal(t, 100, cfg.Load.BatchSize)
	assert.Equal(t, []string{"/data/a", "/data/b"}, cfg.PromptExtractPaths())
}

func TestLoadConfigPartialFileKeepsDefaults(t *testing.T) {
	cfg, err := config.LoadConfig(writeConfig(t, "output:\n  format: yaml\n"))
	require.NoError(t, err)
	assert.Equal(t, "yaml", cfg.Output.Format)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 25, cfg.Load.BatchSize)
}

func TestLoadConfigInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "unknown format", body: "output:\n  format: xml\n"},
		{name: "unknown level", body: "log:\n  level: loud\n"},
		{name: "zero batch", body: "load:\n  batch_size: 0\n"},
		{name: "negative workers", body: "load:\n  workers: -1\n"},
		{name: "empty path entry", body: "extract:\n  paths: [\"\"]\n"},
		{name: "broken yaml", body: "log: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.LoadConfig(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := config.LoadConfig(filepath.Join(t.TempDir(), "nope.yml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
