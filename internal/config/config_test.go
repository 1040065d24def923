package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"MOODLOG_DB", "MOODLOG_ADDR", "MOODLOG_VERBOSE", "GOOGLE_API_KEY", "GEMINI_API_KEY", "ANTHROPIC_API_KEY"} {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, 64, cfg.MaxConns)
	assert.Equal(t, "gemini-2.0-flash", cfg.Assistant.Model)
	assert.Equal(t, 5, cfg.Assistant.MaxTurns)
	assert.Equal(t, "moods.db", filepath.Base(cfg.DBPath))
}

func TestLoadYAML(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
db_path: /tmp/journal.db
addr: ":9090"
verbose: true
assistant:
  model: gemini-2.5-flash
  max_turns: 3
classifier:
  endpoint: http://localhost:1234
`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/journal.db", cfg.DBPath)
	assert.Equal(t, ":9090", cfg.Addr)
	assert.True(t, cfg.Verbose)
	assert.Equal(t, "gemini-2.5-flash", cfg.Assistant.Model)
	assert.Equal(t, 3, cfg.Assistant.MaxTurns)
	assert.Equal(t, "http://localhost:1234", cfg.Classifier.Endpoint)
	assert.Equal(t, 64, cfg.MaxConns)
}

func TestEnvOverridesFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("db_path: /tmp/file.db\n"), 0644))

	t.Setenv("MOODLOG_DB", "/tmp/env.db")
	t.Setenv("MOODLOG_VERBOSE", "true")
	t.Setenv("GEMINI_API_KEY", "gem")
	t.Setenv("ANTHROPIC_API_KEY", "ant")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/env.db", cfg.DBPath)
	assert.True(t, cfg.Verbose)
	assert.Equal(t, "gem", cfg.Assistant.APIKey)
	assert.Equal(t, "ant", cfg.Classifier.APIKey)
}

func TestLoadRejectsInvalid(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("addr: [unterminated"), 0644))
	_, err := Load(bad)
	assert.ErrorContains(t, err, "parse config")

	zero := filepath.Join(dir, "zero.yaml")
	require.NoError(t, os.WriteFile(zero, []byte("max_conns: 0\n"), 0644))
	_, err = Load(zero)
	assert.ErrorContains(t, err, "max_conns")
}
