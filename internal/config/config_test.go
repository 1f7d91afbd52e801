package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPaths(t *testing.T) {
	p := NewPaths("/work")
	assert.Equal(t, filepath.Join("/work", ".twig"), p.Dir)
	assert.Equal(t, filepath.Join("/work", ".twig", "refs", "heads"), p.Heads)
	assert.Equal(t, filepath.Join("/work", ".twig", "objects"), p.Objects)
	assert.Equal(t, filepath.Join("/work", ".twig", "HEAD"), p.Head)
}

func TestLoadLayers(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)
	t.Setenv("TWIG_LOG_LEVEL", "")

	root := t.TempDir()
	paths := NewPaths(root)
	require.NoError(t, os.MkdirAll(paths.Dir, 0755))

	t.Run("defaults without files", func(t *testing.T) {
		s, err := Load(paths)
		require.NoError(t, err)
		assert.Equal(t, Defaults(), s)
	})

	userDir := filepath.Join(xdg, "twig")
	require.NoError(t, os.MkdirAll(userDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(userDir, "config.yml"), []byte(
		"log_level: info\ncolor: never\ncompression:\n  level: 3\n"), 0644))

	t.Run("user yaml overrides defaults", func(t *testing.T) {
		s, err := Load(paths)
		require.NoError(t, err)
		assert.Equal(t, "info", s.LogLevel)
		assert.Equal(t, ColorNever, s.Color)
		assert.Equal(t, 3, s.Compression.Level)
		assert.True(t, s.Compression.Enabled)
	})

	require.NoError(t, os.WriteFile(paths.Config, []byte(
		`{"log_level":"debug","merge":{"ancestor":"first-parent"}}`), 0644))

	t.Run("repository json overrides user yaml", func(t *testing.T) {
		s, err := Load(paths)
		require.NoError(t, err)
		assert.Equal(t, "debug", s.LogLevel)
		assert.Equal(t, AncestorFirstParent, s.Merge.Ancestor)
		assert.Equal(t, ColorNever, s.Color)
	})

	t.Run("environment wins", func(t *testing.T) {
		t.Setenv("TWIG_LOG_LEVEL", "error")
		s, err := Load(paths)
		require.NoError(t, err)
		assert.Equal(t, "error", s.LogLevel)
	})
}

func TestLoadRejectsInvalidSettings(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	root := t.TempDir()
	paths := NewPaths(root)
	require.NoError(t, os.MkdirAll(paths.Dir, 0755))
	require.NoError(t, os.WriteFile(paths.Config, []byte(`{"merge":{"ancestor":"octopus"}}`), 0644))

	_, err := Load(paths)
	assert.Error(t, err)
}
