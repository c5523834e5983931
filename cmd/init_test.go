package cmd

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "studio.db")
	t.Setenv("STUDIO_DB_PATH", dbPath)
	configPath = filepath.Join(dir, "studio.yaml") // absent; defaults apply

	c := newInitCmd()
	var out bytes.Buffer
	c.SetOut(&out)
	require.NoError(t, c.RunE(c, nil))

	assert.FileExists(t, dbPath)
	assert.Contains(t, out.String(), dbPath)

	// Re-running is safe.
	require.NoError(t, c.RunE(c, nil))
}

func TestVersion(t *testing.T) {
	c := newVersionCmd()
	var out bytes.Buffer
	c.SetOut(&out)
	c.Run(c, nil)

	assert.Contains(t, out.String(), "Build Tag:")
	assert.Contains(t, out.String(), "Platform:")
}
