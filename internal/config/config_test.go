package config_test

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Halkenhaeusser/labs/internal/config"
)

func TestLoadFromEnvDefaults(t *testing.T) {
	t.Setenv("LABS_BACKEND", "")
	t.Setenv("LABS_HISTORY_PATH", "")
	t.Setenv("LOG_LEVEL", "")

	cfg, err := config.LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, config.BackendDuckDB, cfg.Backend)
	assert.Equal(t, ":memory:", cfg.HistoryPath)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadFromEnvRejectsUnknownBackend(t *testing.T) {
	t.Setenv("LABS_BACKEND", "postgres")

	_, err := config.LoadFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres")
}

func TestSlogLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range cases {
		cfg := &config.Config{LogLevel: in}
		assert.Equal(t, want, cfg.SlogLevel(), "level %q", in)
	}
}

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	content := "# comment\nLABS_BACKEND=sqlite3\nLABS_HISTORY_PATH=\"hist.sqlite\"\nNOT_A_PAIR\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	// Pre-set values win over the file.
	t.Setenv("LABS_BACKEND", "duckdb")
	t.Setenv("LABS_HISTORY_PATH", "")

	require.NoError(t, config.LoadDotEnv(path))
	assert.Equal(t, "duckdb", os.Getenv("LABS_BACKEND"))
	assert.Equal(t, "hist.sqlite", os.Getenv("LABS_HISTORY_PATH"))
}

func TestLoadDotEnvMissingFile(t *testing.T) {
	assert.NoError(t, config.LoadDotEnv(filepath.Join(t.TempDir(), "absent.env")))
}
