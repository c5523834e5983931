package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/blueprintlab/studio/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "studio.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDefaultsWhenMissing(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8000", cfg.Addr())
	assert.Equal(t, "studio.db", cfg.DBPath())
	assert.Equal(t, 1, cfg.PoolMin())
	assert.Equal(t, 10, cfg.PoolMax())
	assert.Equal(t, "/internal/", cfg.InternalPrefix())
	assert.Equal(t, []string{"/health"}, cfg.PublicPrefixes())
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfig(t, `
server:
  host: 127.0.0.1
  port: 9000
database:
  path: /var/lib/studio/studio.db
  pool_min: 2
  pool_max: 20
auth:
  public_prefixes: ["/health", "/docs"]
  internal_prefix: /internal/v2/
`)
	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9000", cfg.Addr())
	assert.Equal(t, "/var/lib/studio/studio.db", cfg.DBPath())
	assert.Equal(t, 2, cfg.PoolMin())
	assert.Equal(t, 20, cfg.PoolMax())
	assert.Equal(t, []string{"/health", "/docs"}, cfg.PublicPrefixes())
	assert.Equal(t, "/internal/v2/", cfg.InternalPrefix())
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 9000\n")
	t.Setenv("STUDIO_PORT", "9100")
	t.Setenv("STUDIO_DB_PATH", "env.db")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9100, cfg.Port())
	assert.Equal(t, "env.db", cfg.DBPath())
}

func TestValidation(t *testing.T) {
	path := writeConfig(t, "database:\n  pool_min: 20\n  pool_max: 5\n")
	_, err := config.Load(path)
	assert.ErrorIs(t, err, config.ErrInvalidValue)

	path = writeConfig(t, "database:\n  pool_max: 0\n")
	_, err = config.Load(path)
	assert.ErrorIs(t, err, config.ErrInvalidValue)

	path = writeConfig(t, "server:\n  port: 70000\n")
	_, err = config.Load(path)
	assert.ErrorIs(t, err, config.ErrInvalidValue)
}

func TestMalformedYAML(t *testing.T) {
	path := writeConfig(t, "server: [not a mapping")
	_, err := config.Load(path)
	assert.Error(t, err)
}

func TestBadEnvValue(t *testing.T) {
	t.Setenv("STUDIO_PORT", "not-a-number")
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorIs(t, err, config.ErrInvalidValue)
}
