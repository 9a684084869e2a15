package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, 12, cfg.Engine.TopKRetrieve)
	assert.Equal(t, 5, cfg.Engine.MinSelect)
	assert.Equal(t, 7, cfg.Engine.MaxSelect)
}

func TestLoad_YAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9001
engine:
  max_select: 6
  min_select: 4
llm:
  provider: anthropic
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9001, cfg.Server.Port)
	assert.Equal(t, 6, cfg.Engine.MaxSelect)
	assert.Equal(t, 4, cfg.Engine.MinSelect)
	assert.Equal(t, "anthropic", cfg.LLM.Provider)
	// Untouched fields keep defaults.
	assert.Equal(t, 12, cfg.Engine.TopKRetrieve)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 9001\n"), 0o644))

	t.Setenv("SERVER_PORT", "9002")
	t.Setenv("SERVER_REFRESH_API_KEY", "sekrit")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9002, cfg.Server.Port)
	assert.Equal(t, "sekrit", cfg.Server.RefreshAPIKey)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 8000, cfg.Server.Port)
}

func TestLoad_InvalidConfigRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
engine:
  min_select: 9
  max_select: 7
`), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_InvalidProviderRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("llm:\n  provider: watson\n"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}
