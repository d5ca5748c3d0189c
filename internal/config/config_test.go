package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_ExistingFile(t *testing.T) {
	dir := t.TempDir()
	data := "db_path: /tmp/tasks.db\ndriver: sqlite\ndefault_project: Work\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(data), 0644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/tasks.db", cfg.DBPath)
	assert.Equal(t, "sqlite", cfg.Driver)
	assert.Equal(t, "Work", cfg.DefaultProject)
}

func TestLoad_MissingFile(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, &Config{}, cfg)
}

func TestLoad_MalformedYAML(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("{{bad yaml"), 0644))

	_, err := Load(dir)
	assert.Error(t, err)
}

func TestSave_RoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "ultralist")
	cfg := &Config{DBPath: "tasks.db", Driver: "sqlite3", DefaultProject: "Personal"}

	require.NoError(t, Save(dir, cfg))

	loaded, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestDefaultDir(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	t.Setenv("HOME", "/tmp/home")

	dir, err := DefaultDir()
	require.NoError(t, err)
	assert.Equal(t, "ultralist", filepath.Base(dir))
}
