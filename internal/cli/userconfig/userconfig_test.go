package userconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, &UserConfig{}, cfg)
}

func TestRememberGeneration(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	require.NoError(t, Save(&UserConfig{Web: "http://localhost:3000"}))
	require.NoError(t, RememberGeneration("history", "high", "lesson"))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, &UserConfig{
		Subject:     "history",
		Grade:       "high",
		ContentType: "lesson",
		Web:         "http://localhost:3000",
	}, cfg)

	data, err := os.ReadFile(filepath.Join(home, ".config", "quizgen", "config.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "content_type: lesson")
}

func TestLoad_InvalidYAML(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	dir := filepath.Join(home, ".config", "quizgen")
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("subject: [unterminated"), 0644))

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse user config file")
}
