package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadConfig_YAML(t *testing.T) {
	path := writeConfig(t, `
parser:
  buffer_size: 500
  disable_derives_from: true
  parse_comments: false
storage:
  db_path: /tmp/features.db
log:
  level: debug
shards:
  workers: 4
metrics:
  file: /tmp/gffstream.prom
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 500, cfg.Parser.BufferSize)
	assert.True(t, cfg.Parser.DisableDerivesFrom)
	assert.False(t, cfg.Parser.ParseComments)
	assert.True(t, cfg.Parser.ParseDirectives, "unset keys keep their defaults")
	assert.Equal(t, "/tmp/features.db", cfg.Storage.DBPath)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 4, cfg.Shards.Workers)
	assert.Equal(t, "/tmp/gffstream.prom", cfg.Metrics.File)

	opts := cfg.ParserOptions()
	assert.Equal(t, 500, opts.BufferSize)
	assert.True(t, opts.DisableDerivesFromReferences)
	assert.True(t, opts.ParseFeatures)
	assert.False(t, opts.ParseComments)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	path := writeConfig(t, "parser:\n  buffer_size: 10\n")
	t.Setenv("GFFSTREAM_BUFFER_SIZE", "25")
	t.Setenv("GFFSTREAM_DISABLE_DERIVES_FROM", "true")
	t.Setenv("GFFSTREAM_DB", "env.db")
	t.Setenv("GFFSTREAM_LOG_LEVEL", "warn")
	t.Setenv("GFFSTREAM_WORKERS", "3")
	t.Setenv("GFFSTREAM_METRICS_FILE", "env.prom")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 25, cfg.Parser.BufferSize)
	assert.True(t, cfg.Parser.DisableDerivesFrom)
	assert.Equal(t, "env.db", cfg.Storage.DBPath)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, 3, cfg.Shards.Workers)
	assert.Equal(t, "env.prom", cfg.Metrics.File)
}

func TestLoadConfig_Invalid(t *testing.T) {
	t.Run("bad yaml", func(t *testing.T) {
		_, err := LoadConfig(writeConfig(t, "parser: [unclosed"))
		assert.Error(t, err)
	})

	t.Run("negative buffer", func(t *testing.T) {
		_, err := LoadConfig(writeConfig(t, "parser:\n  buffer_size: -1\n"))
		assert.ErrorContains(t, err, "buffer_size")
	})

	t.Run("bad env number", func(t *testing.T) {
		t.Setenv("GFFSTREAM_BUFFER_SIZE", "lots")
		_, err := LoadConfig(writeConfig(t, ""))
		assert.ErrorContains(t, err, "GFFSTREAM_BUFFER_SIZE")
	})
}
