package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Default(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "i32", cfg.DefaultIntWidth)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, "eac-cache.db", cfg.Cache.Path)
}

func Test_Load_emptyPathReturnsDefault(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func Test_Load_overridesFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "eac.toml")
	contents := `
opt_hint = 2
default_int_width = "i64"

[cache]
enabled = false
path = "custom.db"
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.OptHint)
	assert.Equal(t, "i64", cfg.DefaultIntWidth)
	assert.False(t, cfg.Cache.Enabled)
	assert.Equal(t, "custom.db", cfg.Cache.Path)
}

func Test_Load_missingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}
