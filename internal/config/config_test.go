package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	chdir(t, t.TempDir())
	for _, key := range []string{"LISTEN_ADDR", "LOG_LEVEL", "LOG_FORMAT", "HTTP_TIMEOUT", "COOKIE_SECURE", "CORS_ORIGINS", "AI_STATUS_SCHEDULE"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":3000", cfg.HTTP.ListenAddr)
	assert.False(t, cfg.HTTP.CookieSecure)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.HTTP.CORSOrigins)
	assert.Equal(t, 60*time.Second, cfg.API.Timeout)
	assert.Equal(t, "@every 1m", cfg.API.AIStatusSchedule)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoad_Overrides(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("LISTEN_ADDR", "8081")
	t.Setenv("COOKIE_SECURE", "true")
	t.Setenv("CORS_ORIGINS", "http://a.test, http://b.test ,")
	t.Setenv("HTTP_TIMEOUT", "5s")
	t.Setenv("LOG_FORMAT", "console")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8081", cfg.HTTP.ListenAddr)
	assert.True(t, cfg.HTTP.CookieSecure)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.HTTP.CORSOrigins)
	assert.Equal(t, 5*time.Second, cfg.API.Timeout)
	assert.Equal(t, "console", cfg.Logging.Format)
}

func TestLoad_InvalidValues(t *testing.T) {
	chdir(t, t.TempDir())

	t.Run("timeout", func(t *testing.T) {
		t.Setenv("HTTP_TIMEOUT", "soon")
		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "HTTP_TIMEOUT")
	})

	t.Run("negative timeout", func(t *testing.T) {
		t.Setenv("HTTP_TIMEOUT", "-1s")
		_, err := Load()
		require.Error(t, err)
	})

	t.Run("cookie secure", func(t *testing.T) {
		t.Setenv("COOKIE_SECURE", "maybe")
		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "COOKIE_SECURE")
	})
}

// chdir changes the working directory for the duration of the test
// (equivalent of testing.T.Chdir, which needs Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
